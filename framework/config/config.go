package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrInvalid is returned when a loaded value is out of range.
var ErrInvalid = errors.New("config: invalid value")

// Config is the central typed configuration struct.
type Config struct {
	App     AppConfig
	Log     LogConfig
	Form    FormConfig
	Metrics MetricsConfig
}

type AppConfig struct {
	Name  string `env:"APP_NAME" envDefault:"GoIform"`
	Env   string `env:"APP_ENV" envDefault:"local"` // local | production | testing
	Debug bool   `env:"APP_DEBUG" envDefault:"true"`
	Port  string `env:"APP_PORT" envDefault:"8000"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`   // debug | info | warn | error
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json | console
}

type FormConfig struct {
	SchemaPath string `env:"FORM_SCHEMA_PATH"` // YAML file of named forms; empty disables /forms
	Watch      bool   `env:"FORM_WATCH" envDefault:"false"`
}

type MetricsConfig struct {
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads the .env files (default ".env"; missing files are skipped)
// and populates a Config from the environment. Variables already set in the
// environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.App.Port }

func validate(cfg *Config) error {
	switch cfg.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: LOG_FORMAT %q (want json or console)", ErrInvalid, cfg.Log.Format)
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: LOG_LEVEL %q", ErrInvalid, cfg.Log.Level)
	}
	if cfg.App.Port == "" {
		return fmt.Errorf("%w: APP_PORT is empty", ErrInvalid)
	}
	return nil
}
