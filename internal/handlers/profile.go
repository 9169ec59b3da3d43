package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/lib/pq"

	"mylinked/pkg/api"
	"mylinked/pkg/auth"
	"mylinked/pkg/middleware"
	"mylinked/pkg/models"
)

// GetProfile returns the authenticated user's profile.
func GetProfile(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)

	var profile models.Profile
	err := deps.DB.QueryRow(`
		SELECT user_id, slug, display_name, COALESCE(bio, ''), COALESCE(avatar_url, ''),
		       theme, COALESCE(background_url, ''), created_at, updated_at
		FROM profiles WHERE user_id = $1`, userID,
	).Scan(&profile.UserID, &profile.Slug, &profile.DisplayName, &profile.Bio,
		&profile.AvatarURL, &profile.Theme, &profile.BackgroundURL,
		&profile.CreatedAt, &profile.UpdatedAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Profile not found"})
		return
	}
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to load profile")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile updates the authenticated user's profile customization.
// Only fields present in the request change.
func UpdateProfile(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)

	var req models.UpdateProfileRequest
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

	if req.Slug != nil {
		slug := slugify(*req.Slug)
		if slug != *req.Slug {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Slug may only contain lowercase letters, digits, and dashes"})
			return
		}
		add("slug", slug)
	}
	if req.DisplayName != nil {
		add("display_name", *req.DisplayName)
	}
	if req.Bio != nil {
		add("bio", *req.Bio)
	}
	if req.AvatarURL != nil {
		add("avatar_url", *req.AvatarURL)
	}
	if req.Theme != nil {
		add("theme", *req.Theme)
	}
	if req.BackgroundURL != nil {
		add("background_url", *req.BackgroundURL)
	}
	if len(sets) == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "No fields to update"})
		return
	}

	args = append(args, userID)
	query := fmt.Sprintf(`UPDATE profiles SET %s, updated_at = NOW() WHERE user_id = $%d`,
		strings.Join(sets, ", "), len(args))

	result, err := deps.DB.Exec(query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Slug already taken"})
			return
		}
		deps.Logger.WithError(err).Error("Failed to update profile")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Profile not found"})
		return
	}

	GetProfile(c)
}

// GetPublicProfile serves a public page by slug: the profile, its active
// links in display order, and the connected platforms. Suspended owners'
// pages are indistinguishable from missing ones. A profile view is
// recorded off the request path.
func GetPublicProfile(c middleware.Context) {
	slug := c.Param("slug")

	var profile models.Profile
	var status string
	err := deps.DB.QueryRow(`
		SELECT p.user_id, p.slug, p.display_name, COALESCE(p.bio, ''), COALESCE(p.avatar_url, ''),
		       p.theme, COALESCE(p.background_url, ''), p.created_at, p.updated_at, u.status
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.slug = $1`, slug,
	).Scan(&profile.UserID, &profile.Slug, &profile.DisplayName, &profile.Bio,
		&profile.AvatarURL, &profile.Theme, &profile.BackgroundURL,
		&profile.CreatedAt, &profile.UpdatedAt, &status)
	if err == sql.ErrNoRows || (err == nil && status != models.UserStatusActive) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Page not found"})
		return
	}
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to load public profile")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	links, err := loadActiveLinks(c.Request.Context(), profile.UserID)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to load public links")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	platforms, err := loadConnectedPlatforms(c.Request.Context(), profile.UserID)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to load connected platforms")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	if deps.Tracker != nil {
		visit := visitFrom(c)
		userID := profile.UserID
		trackAsync("profile_view", func(ctx context.Context) error {
			return deps.Tracker.TrackProfileView(ctx, userID, slug, visit)
		})
	}

	c.JSON(http.StatusOK, models.PublicProfile{
		Profile:   profile,
		Links:     links,
		Platforms: platforms,
	})
}

func loadActiveLinks(ctx context.Context, userID string) ([]models.Link, error) {
	rows, err := deps.DB.QueryContext(ctx, `
		SELECT id, user_id, title, url, COALESCE(description, ''), COALESCE(image_url, ''),
		       position, is_active, click_count, created_at, updated_at
		FROM links
		WHERE user_id = $1 AND is_active = true
		ORDER BY position ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		var link models.Link
		if err := rows.Scan(&link.ID, &link.UserID, &link.Title, &link.URL,
			&link.Description, &link.ImageURL, &link.Position, &link.IsActive,
			&link.ClickCount, &link.CreatedAt, &link.UpdatedAt); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func loadConnectedPlatforms(ctx context.Context, userID string) ([]string, error) {
	rows, err := deps.DB.QueryContext(ctx,
		`SELECT platform FROM social_accounts WHERE user_id = $1 ORDER BY platform`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	platforms := []string{}
	for rows.Next() {
		var platform string
		if err := rows.Scan(&platform); err != nil {
			return nil, err
		}
		platforms = append(platforms, platform)
	}
	return platforms, rows.Err()
}
