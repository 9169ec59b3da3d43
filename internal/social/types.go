package social

// Normalized media types for ContentPost.
const (
	MediaTypeImage = "IMAGE"
	MediaTypeVideo = "VIDEO"
	MediaTypeText  = "TEXT"
)

// PlatformProfile is a platform-agnostic profile summary. Fields the
// platform does not expose are left absent. Produced fresh on every call;
// never cached or persisted by the adapter.
type PlatformProfile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	FollowerCount *int64 `json:"follower_count,omitempty"`
	MediaCount    *int64 `json:"media_count,omitempty"`
}

// ContentPost is a platform-agnostic view of the single most recent post.
// MediaURL is empty for text-only posts. Timestamp is the upstream's
// ISO-8601 string.
type ContentPost struct {
	ID           string   `json:"id"`
	Platform     Platform `json:"platform"`
	MediaType    string   `json:"media_type"`
	MediaURL     string   `json:"media_url"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Permalink    string   `json:"permalink"`
	Caption      string   `json:"caption,omitempty"`
	Timestamp    string   `json:"timestamp"`
	Engagement   *int64   `json:"engagement,omitempty"`
}

func int64Ptr(v int64) *int64 { return &v }
