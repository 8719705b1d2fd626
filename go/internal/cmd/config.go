package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML service configuration. Database settings come from the
// environment (see dbconfig); everything else lives here.
type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	NATS struct {
		Enabled       bool   `yaml:"enabled"`
		URL           string `yaml:"url"`
		StreamName    string `yaml:"stream_name"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Gateway struct {
		ReadTimeoutSec  int `yaml:"read_timeout_sec"`
		WriteTimeoutSec int `yaml:"write_timeout_sec"`
		PingIntervalSec int `yaml:"ping_interval_sec"`
		SendBuffer      int `yaml:"send_buffer"`
	} `yaml:"gateway"`

	Store struct {
		WriteBuffer int `yaml:"write_buffer"`
	} `yaml:"store"`
}

func defaultConfig() *Config {
	var cfg Config
	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.NATS.URL = "nats://localhost:4222"
	cfg.NATS.StreamName = "LEAGUE_EVENTS"
	cfg.NATS.SubjectPrefix = "league.events"
	cfg.Store.WriteBuffer = 256
	return &cfg
}

// loadConfig reads the YAML file at path, falling back to defaults when the
// file does not exist.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = getEnv("PORT", "8080")
	}
	return cfg, nil
}

func (c *Config) gatewayTimeout(sec int, fallback time.Duration) time.Duration {
	if sec > 0 {
		return time.Duration(sec) * time.Second
	}
	return fallback
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
