package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"mylinked/pkg/api"
	"mylinked/pkg/auth"
	"mylinked/pkg/middleware"
	"mylinked/pkg/models"
)

// CreateTicket files a new support ticket for the authenticated user.
func CreateTicket(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)

	var req models.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	ticket := models.SupportTicket{
		UserID:  userID,
		Subject: req.Subject,
		Message: req.Message,
		Status:  models.TicketStatusOpen,
	}
	err := deps.DB.QueryRow(`
		INSERT INTO support_tickets (user_id, subject, message, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		userID, req.Subject, req.Message, models.TicketStatusOpen,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to create ticket")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

// ListMyTickets returns the authenticated user's tickets, newest first.
func ListMyTickets(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)

	rows, err := deps.DB.QueryContext(c.Request.Context(), `
		SELECT id, user_id, subject, message, status, COALESCE(admin_reply, ''), created_at, updated_at
		FROM support_tickets WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to list tickets")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}
	defer rows.Close()

	tickets, err := scanTickets(rows, false)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to scan tickets")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, middleware.H{"tickets": tickets})
}

// AdminListTickets returns all tickets, optionally filtered by ?status=.
func AdminListTickets(c middleware.Context) {
	query := `
		SELECT t.id, t.user_id, t.subject, t.message, t.status, COALESCE(t.admin_reply, ''),
		       t.created_at, t.updated_at, u.email
		FROM support_tickets t
		JOIN users u ON u.id = t.user_id`
	args := []interface{}{}

	if status := c.Query("status"); status != "" {
		if !validTicketStatus(status) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Unknown ticket status"})
			return
		}
		query += ` WHERE t.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY t.created_at DESC`

	rows, err := deps.DB.QueryContext(c.Request.Context(), query, args...)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to list tickets")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}
	defer rows.Close()

	tickets, err := scanTickets(rows, true)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to scan tickets")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, middleware.H{"tickets": tickets})
}

// AdminUpdateTicket applies a status transition and/or reply. Transitions
// follow open → in_progress → resolved → closed; anything else is rejected.
func AdminUpdateTicket(c middleware.Context) {
	ticketID := c.Param("id")

	var req models.UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if req.Status == nil && req.AdminReply == nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "No fields to update"})
		return
	}

	var current string
	err := deps.DB.QueryRow(
		`SELECT status FROM support_tickets WHERE id = $1`, ticketID).Scan(&current)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Ticket not found"})
		return
	}
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to load ticket")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Status != nil {
		if !validTicketStatus(*req.Status) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Unknown ticket status"})
			return
		}
		if !models.ValidTicketTransition(current, *req.Status) {
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{
				Error: fmt.Sprintf("Cannot move ticket from %s to %s", current, *req.Status),
			})
			return
		}
		add("status", *req.Status)
	}
	if req.AdminReply != nil {
		add("admin_reply", *req.AdminReply)
	}

	args = append(args, ticketID)
	query := fmt.Sprintf(`UPDATE support_tickets SET %s, updated_at = NOW() WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))
	if _, err := deps.DB.Exec(query, args...); err != nil {
		deps.Logger.WithError(err).Error("Failed to update ticket")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, api.SuccessResponse{Success: true})
}

func validTicketStatus(status string) bool {
	switch status {
	case models.TicketStatusOpen, models.TicketStatusInProgress,
		models.TicketStatusResolved, models.TicketStatusClosed:
		return true
	}
	return false
}

func scanTickets(rows *sql.Rows, withEmail bool) ([]models.SupportTicket, error) {
	tickets := []models.SupportTicket{}
	for rows.Next() {
		var t models.SupportTicket
		dest := []interface{}{&t.ID, &t.UserID, &t.Subject, &t.Message, &t.Status,
			&t.AdminReply, &t.CreatedAt, &t.UpdatedAt}
		if withEmail {
			dest = append(dest, &t.UserEmail)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}
