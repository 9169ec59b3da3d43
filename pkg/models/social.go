package models

import "time"

// SocialAccount is a third-party account connected to a user. The access
// token is stored server-side and never serialized.
type SocialAccount struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Platform    string    `json:"platform"`
	AccountID   string    `json:"account_id"`
	Username    string    `json:"username"`
	AccessToken string    `json:"-"`
	ConnectedAt time.Time `json:"connected_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ConnectAccountRequest connects a social account. The access token comes
// from an OAuth flow completed outside this service.
type ConnectAccountRequest struct {
	Platform    string `json:"platform" binding:"required"`
	AccessToken string `json:"access_token" binding:"required"`
}
