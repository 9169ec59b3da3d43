package models

// LinkClicks is the lifetime click count for one link.
type LinkClicks struct {
	LinkID string `json:"link_id"`
	Title  string `json:"title"`
	Clicks int64  `json:"clicks"`
}

// AnalyticsSummary is the lifetime totals for a user's page.
type AnalyticsSummary struct {
	ProfileViews int64        `json:"profile_views"`
	TotalClicks  int64        `json:"total_clicks"`
	Links        []LinkClicks `json:"links"`
}

// TimeBucket is one day of view/click counts.
type TimeBucket struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Views  int64  `json:"views"`
	Clicks int64  `json:"clicks"`
}
