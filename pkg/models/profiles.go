package models

import "time"

// Profile is a user's public page customization.
type Profile struct {
	UserID        string    `json:"user_id"`
	Slug          string    `json:"slug"`
	DisplayName   string    `json:"display_name"`
	Bio           string    `json:"bio,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Theme         string    `json:"theme"`
	BackgroundURL string    `json:"background_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	Slug          *string `json:"slug,omitempty"`
	DisplayName   *string `json:"display_name,omitempty"`
	Bio           *string `json:"bio,omitempty"`
	AvatarURL     *string `json:"avatar_url,omitempty"`
	Theme         *string `json:"theme,omitempty"`
	BackgroundURL *string `json:"background_url,omitempty"`
}

// PublicProfile is the payload served for a public page: the profile, its
// active links in display order, and which platforms are connected.
type PublicProfile struct {
	Profile   Profile  `json:"profile"`
	Links     []Link   `json:"links"`
	Platforms []string `json:"platforms"`
}
