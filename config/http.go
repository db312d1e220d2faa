package config

import (
	"time"
)

type HTTPConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	DefaultTimeout  time.Duration `env:"HTTP_DEFAULT_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

var HTTP = loadHTTPConfig()

func loadHTTPConfig() HTTPConfig {
	cfg := HTTPConfig{
		Port:            "8080",
		DefaultTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}

	if v := lookupEnv("PORT"); v != "" {
		cfg.Port = v
	}

	if v := lookupEnv("HTTP_DEFAULT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DefaultTimeout = d
		}
	}

	if v := lookupEnv("HTTP_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}

	return cfg
}
