package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"stagepass/config"
)

const (
	DefaultSuggestions = 5
	MaxSuggestions     = 10
)

var ErrNotConfigured = errors.New("youtube: API key not configured")

// Video is one search hit.
type Video struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type searchResponse struct {
	Items []struct {
		ID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the YouTube Data API v3 search endpoint.
type Client struct {
	*BaseClient
	apiKey  string
	baseURL string
	suffix  string
	cache   SuggestionCache
}

func NewClient(cfg config.YouTubeConfig, cache SuggestionCache) *Client {
	return &Client{
		BaseClient: NewBaseClient("StagePass/1.0", cfg.RequestsPerMinute, cfg.Timeout),
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		suffix:     strings.TrimSpace(cfg.KaraokeSuffix),
		cache:      cache,
	}
}

func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *Client) GetRateLimitRemaining() int {
	return c.RateLimiter.GetRemaining()
}

// KaraokeQuery builds the search phrase used to find a sing-along video.
func (c *Client) KaraokeQuery(title, artist string) string {
	return strings.Join(strings.Fields(title+" "+artist+" "+c.suffix), " ")
}

// ResolveKaraoke returns the id of the first embeddable karaoke video for a
// song. It returns "" with a nil error when the search found nothing.
func (c *Client) ResolveKaraoke(ctx context.Context, title, artist string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("title is required")
	}

	q := c.KaraokeQuery(title, artist)
	log.Printf("YT: resolving karaoke video for %q", q)

	resp, err := c.search(ctx, q, 1, true)
	if err != nil {
		return "", err
	}
	for _, item := range resp.Items {
		if item.ID.VideoID != "" {
			return item.ID.VideoID, nil
		}
	}
	log.Printf("YT: no karaoke video for %q", q)
	return "", nil
}

// SearchGeneral returns up to maxResults videos for a free-text query.
// maxResults is clamped to 1..MaxSuggestions; zero means DefaultSuggestions.
func (c *Client) SearchGeneral(ctx context.Context, query string, maxResults int) ([]Video, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []Video{}, nil
	}
	maxResults = ClampResults(maxResults)

	if c.cache != nil {
		if videos, ok := c.cache.Get(ctx, query, maxResults); ok {
			return videos, nil
		}
	}

	resp, err := c.search(ctx, query, maxResults, false)
	if err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, Video{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
			ThumbnailURL: pickThumbnail(item.Snippet.Thumbnails),
		})
	}

	if c.cache != nil {
		c.cache.Set(ctx, query, maxResults, videos)
	}
	return videos, nil
}

// ClampResults normalizes a requested result count.
func ClampResults(n int) int {
	switch {
	case n <= 0:
		return DefaultSuggestions
	case n > MaxSuggestions:
		return MaxSuggestions
	}
	return n
}

func (c *Client) search(ctx context.Context, q string, maxResults int, embeddableOnly bool) (*searchResponse, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("q", q)
	params.Set("key", c.apiKey)
	if embeddableOnly {
		params.Set("videoEmbeddable", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, body, err := c.DoWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("YouTube API error: %d - %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("YouTube API error: %d", resp.StatusCode)
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return &out, nil
}

func pickThumbnail(thumbs map[string]struct {
	URL string `json:"url"`
}) string {
	for _, size := range []string{"high", "medium", "default"} {
		if t, ok := thumbs[size]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}
