// Package social fetches a connected account's profile summary and its most
// recent post from Instagram, Facebook, Twitter, or TikTok, normalized into
// platform-agnostic shapes. An Adapter is constructed per (platform, access
// token) pair, is stateless and immutable, and performs no caching, retrying,
// or token refresh; throttling against upstream rate limits is the caller's
// responsibility.
package social

import (
	"errors"
	"fmt"
)

// Platform identifies which social network an adapter targets.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformTikTok    Platform = "tiktok"
)

// ErrUnsupportedPlatform is returned for platform tags outside the four
// supported values, before any network I/O.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Platforms lists the supported platform tags.
func Platforms() []Platform {
	return []Platform{PlatformInstagram, PlatformFacebook, PlatformTwitter, PlatformTikTok}
}

// ParsePlatform validates a platform tag.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformInstagram, PlatformFacebook, PlatformTwitter, PlatformTikTok:
		return Platform(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, s)
	}
}

// Default API hosts. Fixed upstream endpoints; overridable only for tests
// via WithBaseURL.
const (
	defaultInstagramBaseURL = "https://graph.instagram.com"
	defaultFacebookBaseURL  = "https://graph.facebook.com"
	defaultTwitterBaseURL   = "https://api.twitter.com"
	defaultTikTokBaseURL    = "https://open-api.tiktok.com"
)
