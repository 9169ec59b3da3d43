package social

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// tiktokClient talks to the TikTok open API.
type tiktokClient struct {
	token   string
	baseURL string
	http    httpDoer
}

type tiktokUserResponse struct {
	Data struct {
		User struct {
			OpenID        string `json:"open_id"`
			DisplayName   string `json:"display_name"`
			AvatarURL     string `json:"avatar_url"`
			FollowerCount *int64 `json:"follower_count"`
			VideoCount    *int64 `json:"video_count"`
		} `json:"user"`
	} `json:"data"`
}

type tiktokVideo struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	CoverImageURL string `json:"cover_image_url"`
	ShareURL      string `json:"share_url"`
	CreateTime    int64  `json:"create_time"`
	LikeCount     *int64 `json:"like_count"`
}

type tiktokVideoListResponse struct {
	Data struct {
		Videos []tiktokVideo `json:"videos"`
	} `json:"data"`
}

func (c *tiktokClient) profile(ctx context.Context) (*PlatformProfile, error) {
	endpoint := fmt.Sprintf("%s/user/info/?fields=%s",
		c.baseURL,
		url.QueryEscape("open_id,display_name,avatar_url,follower_count,video_count"))

	resp, err := doGet(ctx, c.http, endpoint, c.token)
	if err != nil {
		return nil, fmt.Errorf("tiktok profile fetch: %w", err)
	}

	var body tiktokUserResponse
	if err := decodeResponse(PlatformTikTok, resp, &body); err != nil {
		return nil, err
	}

	user := body.Data.User
	return &PlatformProfile{
		ID:            user.OpenID,
		Username:      user.DisplayName,
		DisplayName:   user.DisplayName,
		ImageURL:      user.AvatarURL,
		FollowerCount: user.FollowerCount,
		MediaCount:    user.VideoCount,
	}, nil
}

func (c *tiktokClient) latestPost(ctx context.Context) (*ContentPost, error) {
	endpoint := fmt.Sprintf("%s/video/list/?max_count=1&fields=%s",
		c.baseURL,
		url.QueryEscape("id,title,cover_image_url,share_url,create_time,like_count"))

	resp, err := doGet(ctx, c.http, endpoint, c.token)
	if err != nil {
		return nil, fmt.Errorf("tiktok video list fetch: %w", err)
	}

	var body tiktokVideoListResponse
	if err := decodeResponse(PlatformTikTok, resp, &body); err != nil {
		return nil, err
	}

	if len(body.Data.Videos) == 0 {
		return nil, nil
	}

	video := body.Data.Videos[0]
	return &ContentPost{
		ID:           video.ID,
		Platform:     PlatformTikTok,
		MediaType:    MediaTypeVideo,
		MediaURL:     video.ShareURL,
		ThumbnailURL: video.CoverImageURL,
		Permalink:    video.ShareURL,
		Caption:      video.Title,
		Timestamp:    time.Unix(video.CreateTime, 0).UTC().Format(time.RFC3339),
		Engagement:   video.LikeCount,
	}, nil
}
