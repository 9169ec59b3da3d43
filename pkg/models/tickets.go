package models

import "time"

// Ticket statuses
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

// SupportTicket is a user-filed support request.
type SupportTicket struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserEmail  string    `json:"user_email,omitempty"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	Status     string    `json:"status"`
	AdminReply string    `json:"admin_reply,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateTicketRequest files a new support ticket.
type CreateTicketRequest struct {
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required"`
}

// UpdateTicketRequest is the admin update: status transition and/or reply.
type UpdateTicketRequest struct {
	Status     *string `json:"status,omitempty"`
	AdminReply *string `json:"admin_reply,omitempty"`
}

// ValidTicketTransition reports whether a ticket may move between statuses.
// The flow is open → in_progress → resolved → closed; closing is allowed
// from any non-closed state.
func ValidTicketTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch to {
	case TicketStatusInProgress:
		return from == TicketStatusOpen
	case TicketStatusResolved:
		return from == TicketStatusOpen || from == TicketStatusInProgress
	case TicketStatusClosed:
		return from != TicketStatusClosed
	default:
		return false
	}
}
