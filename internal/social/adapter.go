package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// httpDoer aliases *http.Client so platform client structs can name a field
// "http" without colliding with the package name in their own files.
type httpDoer = *http.Client

// platformClient is the closed set of per-platform implementations. Exactly
// one is selected at construction time.
type platformClient interface {
	profile(ctx context.Context) (*PlatformProfile, error)
	latestPost(ctx context.Context) (*ContentPost, error)
}

// Adapter fetches normalized profile and post data for one connected
// account. Construct with New; one instance per (platform, access token)
// pair. Safe for concurrent use; holds no mutable state.
type Adapter struct {
	platform Platform
	client   platformClient
}

type options struct {
	httpClient      *http.Client
	baseURLs        map[Platform]string
	twitterFallback bool
}

// Option configures an Adapter at construction time.
type Option func(*options)

// WithHTTPClient replaces the default HTTP client. The client's timeout is
// the only timeout the adapter applies beyond context deadlines.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithBaseURL overrides a platform's API host. Intended for tests.
func WithBaseURL(platform Platform, baseURL string) Option {
	return func(o *options) {
		o.baseURLs[platform] = strings.TrimRight(baseURL, "/")
	}
}

// WithTwitterProfileFallback restores the legacy availability-over-accuracy
// behavior: Twitter profile fetches that fail for any reason resolve to a
// fixed placeholder profile instead of returning an error. This also makes
// ValidateToken report true for Twitter regardless of token validity.
func WithTwitterProfileFallback() Option {
	return func(o *options) {
		o.twitterFallback = true
	}
}

// New constructs an adapter for the given platform and bearer access token.
// The token is not validated and no network call is made. Unknown platform
// tags fail immediately with ErrUnsupportedPlatform.
func New(platform Platform, accessToken string, opts ...Option) (*Adapter, error) {
	o := &options{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURLs: map[Platform]string{
			PlatformInstagram: defaultInstagramBaseURL,
			PlatformFacebook:  defaultFacebookBaseURL,
			PlatformTwitter:   defaultTwitterBaseURL,
			PlatformTikTok:    defaultTikTokBaseURL,
		},
	}
	for _, opt := range opts {
		opt(o)
	}

	var client platformClient
	switch platform {
	case PlatformInstagram:
		client = &instagramClient{token: accessToken, baseURL: o.baseURLs[PlatformInstagram], http: o.httpClient}
	case PlatformFacebook:
		client = &facebookClient{token: accessToken, baseURL: o.baseURLs[PlatformFacebook], http: o.httpClient}
	case PlatformTwitter:
		client = &twitterClient{token: accessToken, baseURL: o.baseURLs[PlatformTwitter], http: o.httpClient, fallback: o.twitterFallback}
	case PlatformTikTok:
		client = &tiktokClient{token: accessToken, baseURL: o.baseURLs[PlatformTikTok], http: o.httpClient}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, platform)
	}

	return &Adapter{platform: platform, client: client}, nil
}

// Platform returns the adapter's platform tag.
func (a *Adapter) Platform() Platform {
	return a.platform
}

// Profile fetches the connected account's profile summary with a single
// GET to the platform's profile endpoint. Upstream failures surface as
// *APIError; the result is never nil on success.
func (a *Adapter) Profile(ctx context.Context) (*PlatformProfile, error) {
	return a.client.profile(ctx)
}

// LatestPost fetches the account's single most recent post. A (nil, nil)
// return means the account has no content; it is not an error.
func (a *Adapter) LatestPost(ctx context.Context) (*ContentPost, error) {
	return a.client.latestPost(ctx)
}

// ValidateToken reports whether the access token can fetch the profile.
// Under WithTwitterProfileFallback this is unconditionally true for
// Twitter, since the profile call never fails in that mode.
func (a *Adapter) ValidateToken(ctx context.Context) bool {
	_, err := a.client.profile(ctx)
	return err == nil
}

// maxErrorBody caps how much of an upstream error response is kept as the
// error reason.
const maxErrorBody = 512

// doGet issues one GET with optional bearer auth. Every platform call goes
// through here; there is deliberately no retry or backoff.
func doGet(ctx context.Context, httpClient *http.Client, url, bearerToken string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}
	return httpClient.Do(req)
}

// decodeResponse checks the status and decodes a JSON body into out.
// Non-2xx responses become *APIError carrying the status and a truncated
// body as the reason.
func decodeResponse(platform Platform, resp *http.Response, out interface{}) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Platform:   platform,
			StatusCode: resp.StatusCode,
			Reason:     strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", platform, err)
	}
	return nil
}
