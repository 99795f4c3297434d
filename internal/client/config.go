// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package client

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the CLI settings, read from SAMATECH_* environment variables.
type Config struct {
	APIURL       string        `env:"SAMATECH_API_URL"       envDefault:"http://localhost:8080/api/v1"`
	StateDir     string        `env:"SAMATECH_HOME"`
	WaitTimeout  time.Duration `env:"SAMATECH_WAIT_TIMEOUT"  envDefault:"10m"`
	PollInterval time.Duration `env:"SAMATECH_POLL_INTERVAL" envDefault:"2s"`
}

// LoadConfig parses the environment. StateDir defaults to <user config dir>/samatech.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("client config: %w", err)
	}

	if cfg.StateDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("client config: no state directory: %w", err)
		}
		cfg.StateDir = filepath.Join(base, "samatech")
	}

	return cfg, nil
}
