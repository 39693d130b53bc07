package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/LAHC/internal/optimization"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Search struct {
		HistoryLength   int     `env:"SEARCH_HISTORY_LENGTH" envDefault:"5000"`
		StepsMin        int     `env:"SEARCH_STEPS_MIN" envDefault:"100000"`
		IdleFraction    float64 `env:"SEARCH_IDLE_FRACTION" envDefault:"0.02"`
		UpdatesEvery    int     `env:"SEARCH_UPDATES_EVERY" envDefault:"1000"`
		SaveStateOnExit bool    `env:"SEARCH_SAVE_STATE_ON_EXIT" envDefault:"false"`
	}
	Snapshot struct {
		Dir string `env:"SNAPSHOT_DIR" envDefault:"data/snapshots"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	// Ensure the snapshot directory exists
	if cfg.Snapshot.Dir != "" {
		if err := os.MkdirAll(cfg.Snapshot.Dir, 0755); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// SearchConfig maps the service-level search settings onto an engine
// configuration. The copy strategy is left to the problem being run.
func (c *Config) SearchConfig() optimization.Config {
	return optimization.Config{
		HistoryLength:   c.Search.HistoryLength,
		StepsMin:        c.Search.StepsMin,
		IdleFraction:    c.Search.IdleFraction,
		UpdatesEvery:    c.Search.UpdatesEvery,
		SaveStateOnExit: c.Search.SaveStateOnExit,
	}
}
