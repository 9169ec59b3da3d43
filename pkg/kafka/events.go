package kafka

import (
	"time"

	"github.com/google/uuid"
)

// Event types published to the firehose.
const (
	EventProfileView = "profile_view"
	EventLinkClick   = "link_click"
)

// Event is a single analytics event on the firehose topic.
type Event struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"user_id"`
	ProfileSlug string    `json:"profile_slug,omitempty"`
	LinkID      string    `json:"link_id,omitempty"`
	LinkURL     string    `json:"link_url,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	CountryCode string    `json:"country_code,omitempty"`
}

// NewEvent creates an event with a fresh ID and the current timestamp.
func NewEvent(eventType, userID string) *Event {
	return &Event{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
	}
}
