package social

import (
	"fmt"
	"net/http"
)

// APIError reports a non-success response from a platform API.
type APIError struct {
	Platform   Platform
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s API returned status %d", e.Platform, e.StatusCode)
	}
	return fmt.Sprintf("%s API returned status %d: %s", e.Platform, e.StatusCode, e.Reason)
}

// Temporary reports whether the failure is plausibly transient (server
// errors and rate limits) as opposed to a permanent credential or request
// problem. The adapter itself never retries; this informs callers.
func (e *APIError) Temporary() bool {
	switch {
	case e.StatusCode >= 500:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}
