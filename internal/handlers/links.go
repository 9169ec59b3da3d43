package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mylinked/pkg/api"
	"mylinked/pkg/auth"
	"mylinked/pkg/middleware"
	"mylinked/pkg/models"
)

// metadataFetchTimeout bounds the best-effort page metadata fetch on link
// creation so a slow target site cannot stall the editor.
const metadataFetchTimeout = 4 * time.Second

// ListLinks returns the authenticated user's links in display order.
func ListLinks(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)

	rows, err := deps.DB.QueryContext(c.Request.Context(), `
		SELECT id, user_id, title, url, COALESCE(description, ''), COALESCE(image_url, ''),
		       position, is_active, click_count, created_at, updated_at
		FROM links WHERE user_id = $1 ORDER BY position ASC`, userID)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to list links")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		var link models.Link
		if err := rows.Scan(&link.ID, &link.UserID, &link.Title, &link.URL,
			&link.Description, &link.ImageURL, &link.Position, &link.IsActive,
			&link.ClickCount, &link.CreatedAt, &link.UpdatedAt); err != nil {
			deps.Logger.WithError(err).Error("Failed to scan link")
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
			return
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		deps.Logger.WithError(err).Error("Failed to iterate links")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, middleware.H{"links": links})
}

// CreateLink appends a new link to the user's page. Page metadata for the
// target URL is fetched best-effort to prefill description and image.
func CreateLink(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)

	var req models.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	link := models.Link{
		UserID:   userID,
		Title:    req.Title,
		URL:      req.URL,
		IsActive: true,
	}

	if deps.Meta != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), metadataFetchTimeout)
		defer cancel()
		if meta, err := deps.Meta.Fetch(ctx, req.URL); err == nil {
			link.Description = meta.Description
			link.ImageURL = meta.ImageURL
		} else {
			deps.Logger.WithError(err).WithField("url", req.URL).Debug("Link metadata fetch failed")
		}
	}

	err := deps.DB.QueryRow(`
		INSERT INTO links (user_id, title, url, description, image_url, position, is_active)
		VALUES ($1, $2, $3, $4, $5,
		        (SELECT COALESCE(MAX(position) + 1, 0) FROM links WHERE user_id = $1),
		        true)
		RETURNING id, position, click_count, created_at, updated_at`,
		userID, link.Title, link.URL, link.Description, link.ImageURL,
	).Scan(&link.ID, &link.Position, &link.ClickCount, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to create link")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, link)
}

// UpdateLink updates a link's title, URL, or active flag. Another user's
// link is reported as missing.
func UpdateLink(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)
	linkID := c.Param("id")

	var req models.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.Title != nil {
		add("title", *req.Title)
	}
	if req.URL != nil {
		add("url", *req.URL)
	}
	if req.IsActive != nil {
		add("is_active", *req.IsActive)
	}
	if len(sets) == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "No fields to update"})
		return
	}

	args = append(args, linkID, userID)
	query := fmt.Sprintf(`UPDATE links SET %s, updated_at = NOW() WHERE id = $%d AND user_id = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))

	result, err := deps.DB.Exec(query, args...)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to update link")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Link not found"})
		return
	}

	c.JSON(http.StatusOK, api.SuccessResponse{Success: true})
}

// DeleteLink removes a link.
func DeleteLink(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)
	linkID := c.Param("id")

	result, err := deps.DB.Exec(`DELETE FROM links WHERE id = $1 AND user_id = $2`, linkID, userID)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to delete link")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Link not found"})
		return
	}

	c.JSON(http.StatusOK, api.SuccessResponse{Success: true})
}

// ReorderLinks applies a full new ordering. The positions swap inside one
// transaction so a concurrent read never sees a half-applied order.
func ReorderLinks(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)

	var req models.ReorderLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	tx, err := deps.DB.Begin()
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to begin transaction")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}
	defer tx.Rollback()

	for position, linkID := range req.LinkIDs {
		result, err := tx.Exec(
			`UPDATE links SET position = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`,
			position, linkID, userID)
		if err != nil {
			deps.Logger.WithError(err).Error("Failed to reorder links")
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
			return
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Link not found"})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		deps.Logger.WithError(err).Error("Failed to commit reorder")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, api.SuccessResponse{Success: true})
}

// RedirectLink is the public click-through: 302 to the target URL,
// recording the click off the request path. Inactive links 404.
func RedirectLink(c middleware.Context) {
	linkID := c.Param("id")

	var ownerID, targetURL string
	err := deps.DB.QueryRow(
		`SELECT user_id, url FROM links WHERE id = $1 AND is_active = true`, linkID,
	).Scan(&ownerID, &targetURL)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Link not found"})
		return
	}
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to resolve link")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	if deps.Tracker != nil {
		visit := visitFrom(c)
		trackAsync("link_click", func(ctx context.Context) error {
			return deps.Tracker.TrackLinkClick(ctx, ownerID, linkID, targetURL, visit)
		})
	}

	c.Redirect(http.StatusFound, targetURL)
}
