package config

import (
	"time"
)

type YouTubeConfig struct {
	APIKey            string        `env:"YOUTUBE_API_KEY"`
	BaseURL           string        `env:"YOUTUBE_API_BASE_URL" envDefault:"https://www.googleapis.com/youtube/v3"`
	Timeout           time.Duration `env:"YOUTUBE_TIMEOUT" envDefault:"10s"`
	RequestsPerMinute int           `env:"YOUTUBE_REQUESTS_PER_MINUTE" envDefault:"100"`
	KaraokeSuffix     string        `env:"YOUTUBE_KARAOKE_SUFFIX" envDefault:"karaoke"`
	SuggestionTTL     time.Duration `env:"YOUTUBE_SUGGESTION_TTL" envDefault:"1h"`
	RedisURL          string        `env:"REDIS_URL"`
}

var YouTube = loadYouTubeConfig()

func loadYouTubeConfig() YouTubeConfig {
	cfg := YouTubeConfig{
		APIKey:            envString("YOUTUBE_API_KEY", ""),
		BaseURL:           envString("YOUTUBE_API_BASE_URL", "https://www.googleapis.com/youtube/v3"),
		Timeout:           envDuration("YOUTUBE_TIMEOUT", 10*time.Second),
		RequestsPerMinute: envInt("YOUTUBE_REQUESTS_PER_MINUTE", 100),
		KaraokeSuffix:     envString("YOUTUBE_KARAOKE_SUFFIX", "karaoke"),
		SuggestionTTL:     envDuration("YOUTUBE_SUGGESTION_TTL", time.Hour),
		RedisURL:          envString("REDIS_URL", ""),
	}

	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 100
	}

	return cfg
}
