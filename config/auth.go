package config

type AuthConfig struct {
	SessionCookie string `env:"AUTH_SESSION_COOKIE" envDefault:"stagepass.session_token"`
	// Disabled skips the session check entirely. Development only.
	Disabled bool `env:"AUTH_DISABLED" envDefault:"false"`
}

var Auth = loadAuthConfig()

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		SessionCookie: envString("AUTH_SESSION_COOKIE", "stagepass.session_token"),
		Disabled:      envBool("AUTH_DISABLED", false),
	}
}
