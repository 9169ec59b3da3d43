package social

import (
	"context"
	"fmt"
	"net/url"
)

// instagramClient talks to the Instagram Basic Display / Graph API.
// Instagram authenticates with an access_token query parameter rather than
// an Authorization header.
type instagramClient struct {
	token   string
	baseURL string
	http    httpDoer
}

type instagramProfileResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AccountType string `json:"account_type"`
	MediaCount  *int64 `json:"media_count"`
}

type instagramMedia struct {
	ID           string `json:"id"`
	MediaType    string `json:"media_type"` // IMAGE, VIDEO, CAROUSEL_ALBUM
	MediaURL     string `json:"media_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Permalink    string `json:"permalink"`
	Caption      string `json:"caption"`
	Timestamp    string `json:"timestamp"`
	LikeCount    *int64 `json:"like_count"`
}

type instagramMediaResponse struct {
	Data []instagramMedia `json:"data"`
}

func (c *instagramClient) profile(ctx context.Context) (*PlatformProfile, error) {
	endpoint := fmt.Sprintf("%s/me?fields=%s&access_token=%s",
		c.baseURL,
		url.QueryEscape("id,username,account_type,media_count"),
		url.QueryEscape(c.token))

	resp, err := doGet(ctx, c.http, endpoint, "")
	if err != nil {
		return nil, fmt.Errorf("instagram profile fetch: %w", err)
	}

	var body instagramProfileResponse
	if err := decodeResponse(PlatformInstagram, resp, &body); err != nil {
		return nil, err
	}

	return &PlatformProfile{
		ID:         body.ID,
		Username:   body.Username,
		MediaCount: body.MediaCount,
	}, nil
}

func (c *instagramClient) latestPost(ctx context.Context) (*ContentPost, error) {
	endpoint := fmt.Sprintf("%s/me/media?fields=%s&limit=1&access_token=%s",
		c.baseURL,
		url.QueryEscape("id,media_type,media_url,thumbnail_url,permalink,caption,timestamp,like_count"),
		url.QueryEscape(c.token))

	resp, err := doGet(ctx, c.http, endpoint, "")
	if err != nil {
		return nil, fmt.Errorf("instagram media fetch: %w", err)
	}

	var body instagramMediaResponse
	if err := decodeResponse(PlatformInstagram, resp, &body); err != nil {
		return nil, err
	}

	if len(body.Data) == 0 {
		return nil, nil
	}

	media := body.Data[0]
	mediaType := MediaTypeImage
	if media.MediaType == "VIDEO" {
		mediaType = MediaTypeVideo
	}

	return &ContentPost{
		ID:           media.ID,
		Platform:     PlatformInstagram,
		MediaType:    mediaType,
		MediaURL:     media.MediaURL,
		ThumbnailURL: media.ThumbnailURL,
		Permalink:    media.Permalink,
		Caption:      media.Caption,
		Timestamp:    media.Timestamp,
		Engagement:   media.LikeCount,
	}, nil
}
