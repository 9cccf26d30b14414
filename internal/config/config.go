package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"cashlens"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Pipeline struct {
		// TempDir holds uploaded files for the duration of a run.
		// Empty means the OS temp directory.
		TempDir string        `envconfig:"PIPELINE_TEMP_DIR" default:""`
		Timeout time.Duration `envconfig:"PIPELINE_TIMEOUT" default:"5m"`
	}

	// DB is optional; with no host configured, job records stay in memory.
	DB struct {
		Host     string `envconfig:"DB_HOST" default:""`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"cashlens"`
		MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	}

	// Extraction is the optional cloud extraction service; empty URL
	// disables it.
	Extraction struct {
		URL     string        `envconfig:"EXTRACTION_URL" default:""`
		Token   string        `envconfig:"EXTRACTION_TOKEN"`
		Timeout time.Duration `envconfig:"EXTRACTION_TIMEOUT" default:"20s"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
