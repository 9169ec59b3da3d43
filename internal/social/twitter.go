package social

import (
	"context"
	"fmt"
	"net/url"
)

// twitterClient talks to the Twitter v2 API. Fetching the latest tweet is a
// two-step pipeline: resolve the numeric user id from /2/users/me, then read
// that user's tweet timeline with expanded media attachments.
//
// When fallback is set, profile fetches that fail for any reason resolve to
// a fixed placeholder profile instead of an error; see
// WithTwitterProfileFallback.
type twitterClient struct {
	token    string
	baseURL  string
	http     httpDoer
	fallback bool
}

type twitterUser struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
	PublicMetrics   *struct {
		FollowersCount int64 `json:"followers_count"`
		TweetCount     int64 `json:"tweet_count"`
	} `json:"public_metrics"`
}

type twitterUserResponse struct {
	Data twitterUser `json:"data"`
}

type twitterTweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics *struct {
		LikeCount int64 `json:"like_count"`
	} `json:"public_metrics"`
	Attachments *struct {
		MediaKeys []string `json:"media_keys"`
	} `json:"attachments"`
}

type twitterMedia struct {
	MediaKey        string `json:"media_key"`
	Type            string `json:"type"` // photo, video, animated_gif
	URL             string `json:"url"`
	PreviewImageURL string `json:"preview_image_url"`
}

type twitterTimelineResponse struct {
	Data     []twitterTweet `json:"data"`
	Includes *struct {
		Media []twitterMedia `json:"media"`
	} `json:"includes"`
}

// placeholderProfile is the fixed fallback substituted when the real
// profile cannot be retrieved under WithTwitterProfileFallback.
func placeholderProfile() *PlatformProfile {
	return &PlatformProfile{
		ID:          "connected",
		Username:    "twitter_user",
		DisplayName: "Twitter Account",
	}
}

func (c *twitterClient) profile(ctx context.Context) (*PlatformProfile, error) {
	profile, err := c.fetchProfile(ctx)
	if err != nil && c.fallback {
		return placeholderProfile(), nil
	}
	return profile, err
}

func (c *twitterClient) fetchProfile(ctx context.Context) (*PlatformProfile, error) {
	endpoint := fmt.Sprintf("%s/2/users/me?user.fields=%s",
		c.baseURL, url.QueryEscape("profile_image_url,public_metrics"))

	resp, err := doGet(ctx, c.http, endpoint, c.token)
	if err != nil {
		return nil, fmt.Errorf("twitter profile fetch: %w", err)
	}

	var body twitterUserResponse
	if err := decodeResponse(PlatformTwitter, resp, &body); err != nil {
		return nil, err
	}

	profile := &PlatformProfile{
		ID:          body.Data.ID,
		Username:    body.Data.Username,
		DisplayName: body.Data.Name,
		ImageURL:    body.Data.ProfileImageURL,
	}
	if m := body.Data.PublicMetrics; m != nil {
		profile.FollowerCount = int64Ptr(m.FollowersCount)
		profile.MediaCount = int64Ptr(m.TweetCount)
	}
	return profile, nil
}

func (c *twitterClient) latestPost(ctx context.Context) (*ContentPost, error) {
	user, err := c.fetchProfile(ctx)
	if err != nil {
		return nil, err
	}

	// The v2 timeline endpoint requires max_results >= 5; only the first
	// tweet is used.
	endpoint := fmt.Sprintf("%s/2/users/%s/tweets?max_results=5&tweet.fields=%s&expansions=attachments.media_keys&media.fields=%s",
		c.baseURL,
		url.PathEscape(user.ID),
		url.QueryEscape("created_at,public_metrics,attachments"),
		url.QueryEscape("url,preview_image_url,type"))

	resp, err := doGet(ctx, c.http, endpoint, c.token)
	if err != nil {
		return nil, fmt.Errorf("twitter timeline fetch: %w", err)
	}

	var body twitterTimelineResponse
	if err := decodeResponse(PlatformTwitter, resp, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, nil
	}

	tweet := body.Data[0]
	content := &ContentPost{
		ID:        tweet.ID,
		Platform:  PlatformTwitter,
		MediaType: MediaTypeText,
		Permalink: fmt.Sprintf("https://twitter.com/%s/status/%s", user.Username, tweet.ID),
		Caption:   tweet.Text,
		Timestamp: tweet.CreatedAt,
	}
	if m := tweet.PublicMetrics; m != nil {
		content.Engagement = int64Ptr(m.LikeCount)
	}

	if tweet.Attachments != nil && len(tweet.Attachments.MediaKeys) > 0 && body.Includes != nil {
		if media := findMedia(body.Includes.Media, tweet.Attachments.MediaKeys[0]); media != nil {
			switch media.Type {
			case "video", "animated_gif":
				content.MediaType = MediaTypeVideo
				content.MediaURL = media.URL
				content.ThumbnailURL = media.PreviewImageURL
			default:
				content.MediaType = MediaTypeImage
				content.MediaURL = media.URL
			}
		}
	}

	return content, nil
}

func findMedia(media []twitterMedia, key string) *twitterMedia {
	for i := range media {
		if media[i].MediaKey == key {
			return &media[i]
		}
	}
	return nil
}
