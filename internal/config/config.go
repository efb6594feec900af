// Package config loads gateway configuration from a YAML file or the
// environment. The backend base URL has exactly one authoritative source
// and is validated here, once, before any request is ever built.
package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"

	"github.com/edhire/dashgate-go/internal/request"
)

// Audiences the backend exposes dashboards for.
const (
	AudienceEducator  = "educator"
	AudienceRecruiter = "recruiter"
)

// Config is the root gateway configuration.
type Config struct {
	// BaseURL is the backend API base, e.g. http://localhost:8000/api/v1.
	BaseURL string `yaml:"base_url" env:"DASHGATE_API_BASE_URL"`

	// Audience selects which dashboard's endpoints are addressed.
	Audience string `yaml:"audience" env:"DASHGATE_AUDIENCE" env-default:"educator"`

	Timeout     time.Duration `yaml:"timeout" env:"DASHGATE_TIMEOUT" env-default:"30s"`
	SessionFile string        `yaml:"session_file" env:"DASHGATE_SESSION_FILE" env-default:".dashgate_session.json"`
	SentryDSN   string        `yaml:"sentry_dsn" env:"DASHGATE_SENTRY_DSN"`
}

// Load reads configuration from path when given, otherwise from the
// environment only, and validates it.
func Load(path string) (*Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	base, err := request.NormalizeBaseURL(c.BaseURL)
	if err != nil {
		return err
	}
	c.BaseURL = base

	switch c.Audience {
	case AudienceEducator, AudienceRecruiter:
	default:
		return errors.Errorf("unknown audience %q", c.Audience)
	}
	return nil
}
