package config

import (
	"time"
)

// StageConfig controls the live room and its background loops.
type StageConfig struct {
	PollInterval            time.Duration `env:"STAGE_POLL_INTERVAL" envDefault:"3s"`
	ParticipantPollInterval time.Duration `env:"STAGE_PARTICIPANT_POLL_INTERVAL" envDefault:"5s"`
	ResolveTimeout          time.Duration `env:"STAGE_RESOLVE_TIMEOUT" envDefault:"15s"`
	DefaultCapacity         int           `env:"STAGE_DEFAULT_CAPACITY" envDefault:"10"`
	AutoStart               bool          `env:"STAGE_AUTOSTART" envDefault:"true"`
	IdleTimeout             time.Duration `env:"STAGE_IDLE_TIMEOUT" envDefault:"30m"`
	MaxNotifications        int           `env:"STAGE_MAX_NOTIFICATIONS" envDefault:"50"`
}

var Stage = loadStageConfig()

func loadStageConfig() StageConfig {
	cfg := StageConfig{
		PollInterval:            envDuration("STAGE_POLL_INTERVAL", 3*time.Second),
		ParticipantPollInterval: envDuration("STAGE_PARTICIPANT_POLL_INTERVAL", 5*time.Second),
		ResolveTimeout:          envDuration("STAGE_RESOLVE_TIMEOUT", 15*time.Second),
		DefaultCapacity:         envInt("STAGE_DEFAULT_CAPACITY", 10),
		AutoStart:               envBool("STAGE_AUTOSTART", true),
		IdleTimeout:             envDuration("STAGE_IDLE_TIMEOUT", 30*time.Minute),
		MaxNotifications:        envInt("STAGE_MAX_NOTIFICATIONS", 50),
	}

	if cfg.DefaultCapacity <= 0 {
		cfg.DefaultCapacity = 10
	}
	if cfg.MaxNotifications <= 0 {
		cfg.MaxNotifications = 50
	}

	return cfg
}
