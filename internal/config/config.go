package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Duration accepts "30m"-style values from both YAML and environment
// variables.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Decode implements envconfig.Decoder.
func (d *Duration) Decode(value string) error {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the plain time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full server configuration. Defaults are overlaid by an
// optional YAML file, then by POINTDECK_* environment variables.
type Config struct {
	Server   ServerConfig `yaml:"server"`
	Rooms    RoomsConfig  `yaml:"rooms"`
	LogLevel string       `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port int    `yaml:"port" envconfig:"PORT"`
}

// RoomsConfig bounds room memory: rooms idle past TTL are reaped.
type RoomsConfig struct {
	TTL          Duration `yaml:"ttl" envconfig:"ROOM_TTL"`
	ReapInterval Duration `yaml:"reap_interval" envconfig:"ROOM_REAP_INTERVAL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "",
			Port: 4000,
		},
		Rooms: RoomsConfig{
			TTL:          Duration(2 * time.Hour),
			ReapInterval: Duration(10 * time.Minute),
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process("pointdeck", &cfg); err != nil {
		return cfg, fmt.Errorf("process env overrides: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
