package models

import "time"

// Link is one outbound link on a profile page.
type Link struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Position    int       `json:"position"`
	IsActive    bool      `json:"is_active"`
	ClickCount  int64     `json:"click_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateLinkRequest creates a new link; position is appended automatically.
type CreateLinkRequest struct {
	Title string `json:"title" binding:"required,max=120"`
	URL   string `json:"url" binding:"required,url"`
}

// UpdateLinkRequest carries the editable link fields.
type UpdateLinkRequest struct {
	Title    *string `json:"title,omitempty"`
	URL      *string `json:"url,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// ReorderLinksRequest is the full ordered list of the user's link IDs.
type ReorderLinksRequest struct {
	LinkIDs []string `json:"link_ids" binding:"required,min=1"`
}
