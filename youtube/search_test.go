package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagepass/config"
)

func testConfig(baseURL string) config.YouTubeConfig {
	return config.YouTubeConfig{
		APIKey:            "test-key",
		BaseURL:           baseURL,
		Timeout:           5 * time.Second,
		RequestsPerMinute: 100,
		KaraokeSuffix:     "karaoke",
	}
}

const oneResult = `{
	"items": [
		{
			"id": {"kind": "youtube#video", "videoId": "abc123"},
			"snippet": {
				"title": "Imagine (Karaoke Version)",
				"channelTitle": "Sing King",
				"thumbnails": {"default": {"url": "http://img/default"}, "high": {"url": "http://img/high"}}
			}
		}
	]
}`

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]Video
	gets  int
}

func (m *memoryCache) Get(_ context.Context, query string, maxResults int) ([]Video, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.items[fmt.Sprintf("%s|%d", query, maxResults)]
	return v, ok
}

func (m *memoryCache) Set(_ context.Context, query string, maxResults int, videos []Video) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[string][]Video{}
	}
	m.items[fmt.Sprintf("%s|%d", query, maxResults)] = videos
}

func TestResolveKaraoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Imagine John Lennon karaoke", q.Get("q"))
		assert.Equal(t, "1", q.Get("maxResults"))
		assert.Equal(t, "video", q.Get("type"))
		assert.Equal(t, "true", q.Get("videoEmbeddable"))
		assert.Equal(t, "test-key", q.Get("key"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(oneResult))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	id, err := client.ResolveKaraoke(context.Background(), "Imagine", "John Lennon")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
}

func TestResolveKaraoke_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	id, err := client.ResolveKaraoke(context.Background(), "Nothing", "")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestResolveKaraoke_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"code": 403, "message": "quotaExceeded"}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	_, err := client.ResolveKaraoke(context.Background(), "Imagine", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quotaExceeded")
}

func TestResolveKaraoke_NotConfigured(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.APIKey = ""
	client := NewClient(cfg, nil)

	_, err := client.ResolveKaraoke(context.Background(), "Imagine", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = client.SearchGeneral(context.Background(), "Imagine", 5)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestDoWithRetry_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(oneResult))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	id, err := client.ResolveKaraoke(context.Background(), "Imagine", "")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchGeneral(t *testing.T) {
	var requested atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested.Add(1)
		assert.Equal(t, "10", r.URL.Query().Get("maxResults"))
		assert.Empty(t, r.URL.Query().Get("videoEmbeddable"))
		w.Write([]byte(oneResult))
	}))
	defer server.Close()

	cache := &memoryCache{}
	client := NewClient(testConfig(server.URL), cache)

	videos, err := client.SearchGeneral(context.Background(), "imagine karaoke", 25)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, Video{
		VideoID:      "abc123",
		Title:        "Imagine (Karaoke Version)",
		ChannelTitle: "Sing King",
		ThumbnailURL: "http://img/high",
	}, videos[0])

	again, err := client.SearchGeneral(context.Background(), "imagine karaoke", 25)
	require.NoError(t, err)
	assert.Equal(t, videos, again)
	assert.Equal(t, int32(1), requested.Load())
}

func TestClampResults(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultSuggestions},
		{-3, DefaultSuggestions},
		{1, 1},
		{10, 10},
		{11, MaxSuggestions},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, ClampResults(tt.in))
		})
	}
}

func TestKaraokeQuery(t *testing.T) {
	client := NewClient(testConfig("http://unused"), nil)
	assert.Equal(t, "Imagine karaoke", client.KaraokeQuery("  Imagine ", ""))
	assert.Equal(t, "Imagine John Lennon karaoke", client.KaraokeQuery("Imagine", "John Lennon"))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("Imagine  Karaoke", 5), cacheKey("imagine karaoke", 5))
	assert.NotEqual(t, cacheKey("imagine karaoke", 5), cacheKey("imagine karaoke", 6))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	require.NoError(t, rl.Wait(context.Background()))
	require.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, 0, rl.GetRemaining())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)
}
