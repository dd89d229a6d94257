package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Input struct {
		LogPath string `yaml:"log_path"`
	} `yaml:"input"`

	IRC struct {
		Server    string `yaml:"server"`
		Port      int    `yaml:"port"`
		UseTLS    *bool  `yaml:"use_tls"`
		Nickname  string `yaml:"nickname"`
		Channel   string `yaml:"channel"`
		Password  string `yaml:"password"` // NickServ, optional
		UseColors *bool  `yaml:"use_colors"`
	} `yaml:"irc"`

	Stats struct {
		IntervalSeconds int `yaml:"interval_seconds"`
	} `yaml:"stats"`

	Geo struct {
		DatabasePath string `yaml:"database_path"`
	} `yaml:"geo"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Listen  string `yaml:"listen"`
	} `yaml:"metrics"`

	Output struct {
		AuditLogPath string `yaml:"audit_log_path"`
		Debug        bool   `yaml:"debug"`
	} `yaml:"output"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig reads the configuration from the given path
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults fills in every unset field
func applyDefaults(cfg *Config) {
	if cfg.Input.LogPath == "" {
		cfg.Input.LogPath = "/var/log/cowrie/cowrie.log"
	}
	if cfg.IRC.Server == "" {
		cfg.IRC.Server = "irc.libera.chat"
	}
	if cfg.IRC.Port == 0 {
		cfg.IRC.Port = 6697
	}
	if cfg.IRC.UseTLS == nil {
		cfg.IRC.UseTLS = boolPtr(true)
	}
	if cfg.IRC.Nickname == "" {
		cfg.IRC.Nickname = "xKippoBot"
	}
	if cfg.IRC.Channel == "" {
		cfg.IRC.Channel = "#cowrie-alerts"
	}
	if cfg.IRC.UseColors == nil {
		cfg.IRC.UseColors = boolPtr(true)
	}
	if cfg.Stats.IntervalSeconds == 0 {
		cfg.Stats.IntervalSeconds = 300
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9090"
	}
}

// Validate applies the startup hard rules. A missing log file is the
// one configuration problem that stops the process.
func (cfg *Config) Validate() error {
	if _, err := os.Stat(cfg.Input.LogPath); err != nil {
		return fmt.Errorf("log file not found: %s", cfg.Input.LogPath)
	}
	return nil
}

func boolPtr(v bool) *bool {
	return &v
}
