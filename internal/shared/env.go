package shared

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env is the process environment. Values seed the CLI flag defaults.
type Env struct {
	ConfigPath      string        `env:"SPOTCTL_CONFIG" envDefault:"config.json"`
	TokenCachePath  string        `env:"SPOTCTL_TOKEN_CACHE" envDefault:".spotify_cache"`
	ServerURL       string        `env:"SPOTCTL_SERVER_URL" envDefault:"http://127.0.0.1:8888"`
	LogLevel        string        `env:"SPOTCTL_LOG_LEVEL" envDefault:"info"`
	UpstreamTimeout time.Duration `env:"SPOTCTL_UPSTREAM_TIMEOUT" envDefault:"10s"`
}

// LoadEnv reads an optional .env file from the working directory, then parses [Env].
//
// Variables already present in the environment win over the file.
func LoadEnv() (*Env, error) {
	_ = godotenv.Load()
	return ParseEnv()
}

// ParseEnv parses [Env] from the current environment only.
func ParseEnv() (*Env, error) {
	e := &Env{}
	if err := env.Parse(e); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if e.UpstreamTimeout <= 0 {
		return nil, fmt.Errorf("%w: SPOTCTL_UPSTREAM_TIMEOUT must be positive", ErrInvalidConfig)
	}
	return e, nil
}
