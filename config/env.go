package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// dotenvLoaded is referenced by lookupEnv so that every package-level config
// var is initialized after .env has been applied.
var dotenvLoaded = godotenv.Load() == nil

func lookupEnv(key string) string {
	_ = dotenvLoaded
	return os.Getenv(key)
}

func envString(key, def string) string {
	if v := lookupEnv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := lookupEnv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := lookupEnv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := lookupEnv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}
