package kafka

import (
	"encoding/json"
	"testing"
)

func TestNewEvent(t *testing.T) {
	e := NewEvent(EventLinkClick, "user-1")
	if e.EventID == "" {
		t.Error("expected event ID to be set")
	}
	if e.EventType != EventLinkClick {
		t.Errorf("expected %s, got %s", EventLinkClick, e.EventType)
	}
	if e.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestEventOmitsEmptyOptionalFields(t *testing.T) {
	e := NewEvent(EventProfileView, "user-1")
	e.ProfileSlug = "alice"

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["link_id"]; ok {
		t.Error("expected empty link_id to be omitted")
	}
	if m["profile_slug"] != "alice" {
		t.Errorf("expected profile_slug, got %v", m["profile_slug"])
	}
}
