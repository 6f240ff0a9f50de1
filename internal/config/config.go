package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSessionSeconds is the countdown budget used when the config leaves
// session.duration_seconds unset.
const DefaultSessionSeconds = 600

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		SourceURL string `yaml:"source_url"`
		TTL       string `yaml:"ttl"`
	} `yaml:"questions"`
	Session struct {
		DurationSeconds int `yaml:"duration_seconds"`
	} `yaml:"session"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SessionSeconds returns the configured countdown budget or the default.
func (c Config) SessionSeconds() int {
	if c.Session.DurationSeconds > 0 {
		return c.Session.DurationSeconds
	}
	return DefaultSessionSeconds
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
