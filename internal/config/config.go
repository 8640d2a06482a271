package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Sync      SyncConfig      `yaml:"sync"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DataConfig struct {
	Dir      string `yaml:"dir"`
	Username string `yaml:"username"`
}

type SyncConfig struct {
	ServerURL   string        `yaml:"server_url"`
	Interval    time.Duration `yaml:"interval"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DatabasePath returns the SQLite file location under the data dir.
func (d DataConfig) DatabasePath() string {
	return d.Dir + "/fitness.db"
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8420},
		Data:   DataConfig{Dir: defaultDataDir(), Username: "athlete"},
		Sync: SyncConfig{
			Interval:    30 * time.Second,
			BaseDelay:   5 * time.Second,
			MaxAttempts: 3,
		},
		Tailscale: TailscaleConfig{Hostname: "fitness-rpg"},
	}
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.fitness-rpg"
	}
	return "./.fitness-rpg"
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. Env vars use the prefix FITNESSRPG_
// and underscore-separated paths:
//
//	FITNESSRPG_SERVER_HOST, FITNESSRPG_SERVER_PORT,
//	FITNESSRPG_DATA_DIR, FITNESSRPG_DATA_USERNAME,
//	FITNESSRPG_SYNC_SERVER_URL, FITNESSRPG_SYNC_INTERVAL,
//	FITNESSRPG_TS_ENABLED, FITNESSRPG_TS_HOSTNAME, FITNESSRPG_TS_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FITNESSRPG_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FITNESSRPG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FITNESSRPG_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("FITNESSRPG_DATA_USERNAME"); v != "" {
		cfg.Data.Username = v
	}
	if v := os.Getenv("FITNESSRPG_SYNC_SERVER_URL"); v != "" {
		cfg.Sync.ServerURL = v
	}
	if v := os.Getenv("FITNESSRPG_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sync.Interval = d
		}
	}
	if v := os.Getenv("FITNESSRPG_TS_ENABLED"); v != "" {
		cfg.Tailscale.Enabled = v == "1" || v == "true"
	}
	if v := os.Getenv("FITNESSRPG_TS_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("FITNESSRPG_TS_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	if c.Data.Username == "" {
		return fmt.Errorf("data.username is required")
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive")
	}
	if c.Sync.MaxAttempts <= 0 {
		return fmt.Errorf("sync.max_attempts must be positive")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
