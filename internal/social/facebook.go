package social

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// facebookClient talks to the Facebook Graph API. Reading Page posts is a
// two-step pipeline: fetch the user's managed Pages to obtain a Page-scoped
// access token, then fetch that Page's posts with the Page token. Users
// without Pages fall back to one text-only personal post.
type facebookClient struct {
	token   string
	baseURL string
	http    httpDoer
}

type facebookProfileResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Picture *struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

type facebookPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

type facebookPagesResponse struct {
	Data []facebookPage `json:"data"`
}

type facebookPost struct {
	ID           string `json:"id"`
	Message      string `json:"message"`
	CreatedTime  string `json:"created_time"`
	PermalinkURL string `json:"permalink_url"`
	Attachments  *struct {
		Data []struct {
			MediaType string `json:"media_type"` // photo, video, link, ...
			Media     struct {
				Image struct {
					Src string `json:"src"`
				} `json:"image"`
				Source string `json:"source"`
			} `json:"media"`
		} `json:"data"`
	} `json:"attachments"`
}

type facebookPostsResponse struct {
	Data []facebookPost `json:"data"`
}

func (c *facebookClient) profile(ctx context.Context) (*PlatformProfile, error) {
	endpoint := fmt.Sprintf("%s/me?fields=%s", c.baseURL, url.QueryEscape("id,name,picture{url}"))

	resp, err := doGet(ctx, c.http, endpoint, c.token)
	if err != nil {
		return nil, fmt.Errorf("facebook profile fetch: %w", err)
	}

	var body facebookProfileResponse
	if err := decodeResponse(PlatformFacebook, resp, &body); err != nil {
		return nil, err
	}

	profile := &PlatformProfile{
		ID:          body.ID,
		Username:    body.Name,
		DisplayName: body.Name,
	}
	if body.Picture != nil {
		profile.ImageURL = body.Picture.Data.URL
	}
	return profile, nil
}

func (c *facebookClient) latestPost(ctx context.Context) (*ContentPost, error) {
	pages, err := c.fetchPages(ctx)
	if err != nil {
		return nil, err
	}

	if len(pages) == 0 {
		return c.fetchPersonalPost(ctx)
	}

	// Page posts require the Page's own token, not the user token.
	return c.fetchPagePost(ctx, pages[0])
}

// fetchPages is step one of the pipeline: the user's managed Pages,
// each carrying its Page-scoped access token.
func (c *facebookClient) fetchPages(ctx context.Context) ([]facebookPage, error) {
	endpoint := fmt.Sprintf("%s/me/accounts", c.baseURL)

	resp, err := doGet(ctx, c.http, endpoint, c.token)
	if err != nil {
		return nil, fmt.Errorf("facebook pages fetch: %w", err)
	}

	var body facebookPagesResponse
	if err := decodeResponse(PlatformFacebook, resp, &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// fetchPagePost is step two: the Page's most recent post, authenticated
// with the Page token from step one.
func (c *facebookClient) fetchPagePost(ctx context.Context, page facebookPage) (*ContentPost, error) {
	endpoint := fmt.Sprintf("%s/%s/posts?fields=%s&limit=1",
		c.baseURL,
		url.PathEscape(page.ID),
		url.QueryEscape("id,message,created_time,permalink_url,attachments{media_type,media}"))

	resp, err := doGet(ctx, c.http, endpoint, page.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("facebook page posts fetch: %w", err)
	}

	var body facebookPostsResponse
	if err := decodeResponse(PlatformFacebook, resp, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, nil
	}
	return facebookPostToContent(body.Data[0]), nil
}

// fetchPersonalPost is the fallback for users without managed Pages: one
// personal-profile post, text only, no media.
func (c *facebookClient) fetchPersonalPost(ctx context.Context) (*ContentPost, error) {
	endpoint := fmt.Sprintf("%s/me/posts?fields=%s&limit=1",
		c.baseURL,
		url.QueryEscape("id,message,created_time,permalink_url"))

	resp, err := doGet(ctx, c.http, endpoint, c.token)
	if err != nil {
		return nil, fmt.Errorf("facebook personal posts fetch: %w", err)
	}

	var body facebookPostsResponse
	if err := decodeResponse(PlatformFacebook, resp, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, nil
	}

	post := body.Data[0]
	return &ContentPost{
		ID:        post.ID,
		Platform:  PlatformFacebook,
		MediaType: MediaTypeText,
		MediaURL:  "",
		Permalink: post.PermalinkURL,
		Caption:   post.Message,
		Timestamp: post.CreatedTime,
	}, nil
}

func facebookPostToContent(post facebookPost) *ContentPost {
	content := &ContentPost{
		ID:        post.ID,
		Platform:  PlatformFacebook,
		MediaType: MediaTypeText,
		Permalink: post.PermalinkURL,
		Caption:   post.Message,
		Timestamp: post.CreatedTime,
	}

	if post.Attachments != nil && len(post.Attachments.Data) > 0 {
		att := post.Attachments.Data[0]
		switch {
		case strings.Contains(att.MediaType, "video"):
			content.MediaType = MediaTypeVideo
			content.MediaURL = att.Media.Source
			content.ThumbnailURL = att.Media.Image.Src
		case strings.Contains(att.MediaType, "photo"):
			content.MediaType = MediaTypeImage
			content.MediaURL = att.Media.Image.Src
		default:
			// Link shares and other attachment kinds stay TEXT but may
			// still carry a preview image.
			content.ThumbnailURL = att.Media.Image.Src
		}
	}

	return content
}
