// Package linkmeta fetches Open Graph metadata for user links so the
// editor can suggest a title and preview image from a pasted URL.
package linkmeta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"golang.org/x/net/html"

	"mylinked/pkg/clients"
)

// maxBodyBytes caps how much of a page is read while looking for metadata.
// Open Graph tags live in <head>, so a small window is enough.
const maxBodyBytes = 512 * 1024

// ErrNotHTML is returned when the target URL does not serve an HTML page.
var ErrNotHTML = errors.New("linkmeta: target is not an HTML page")

// Metadata is the preview information extracted from a page.
type Metadata struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
}

// Fetcher retrieves page metadata with retries on transient upstream
// failures.
type Fetcher struct {
	http     *http.Client
	executor failsafe.Executor[*http.Response]
}

// NewFetcher builds a Fetcher. A nil client gets a 10 second timeout
// default.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Fetcher{
		http: client,
		executor: clients.NewHTTPExecutor(clients.HTTPExecutorConfig{
			MaxRetries: 2,
			BaseDelay:  200 * time.Millisecond,
			MaxDelay:   2 * time.Second,
		}),
	}
}

// Fetch downloads the page at rawURL and extracts its Open Graph metadata.
// Transient upstream failures (5xx, 429, network errors) are retried before
// the error is surfaced.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Metadata, error) {
	resp, err := clients.ExecuteHTTP(ctx, f.executor, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/html")
		resp, err := f.http.Do(req)
		if err != nil {
			return nil, err
		}
		// Drain retryable failures so the transport can reuse the
		// connection on the next attempt.
		if clients.DefaultShouldRetry(resp, nil) {
			io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
			resp.Body.Close()
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("linkmeta fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("linkmeta fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") {
		return nil, ErrNotHTML
	}

	meta, err := parseMetadata(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("linkmeta parse %s: %w", rawURL, err)
	}
	meta.URL = rawURL
	return meta, nil
}

// parseMetadata walks the HTML token stream collecting the <title> and
// Open Graph <meta> properties. Open Graph values win over the plain title.
func parseMetadata(r io.Reader) (*Metadata, error) {
	meta := &Metadata{}
	tokenizer := html.NewTokenizer(r)

	var plainTitle string
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF &&
				!errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, err
			}
			if meta.Title == "" {
				meta.Title = plainTitle
			}
			return meta, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "meta":
				property, content := metaAttrs(token)
				switch property {
				case "og:title":
					meta.Title = content
				case "og:description":
					meta.Description = content
				case "og:image":
					meta.ImageURL = content
				case "og:site_name":
					meta.SiteName = content
				}
			case "title":
				if tokenizer.Next() == html.TextToken {
					plainTitle = strings.TrimSpace(tokenizer.Token().Data)
				}
			case "body":
				// Metadata lives in <head>; stop once the body starts.
				if meta.Title == "" {
					meta.Title = plainTitle
				}
				return meta, nil
			}
		}
	}
}

func metaAttrs(token html.Token) (property, content string) {
	for _, attr := range token.Attr {
		switch attr.Key {
		case "property", "name":
			if property == "" {
				property = attr.Val
			}
		case "content":
			content = attr.Val
		}
	}
	return property, content
}
