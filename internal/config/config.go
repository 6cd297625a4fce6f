// Package config loads MoodTune settings from defaults, an optional YAML file and
// MOODTUNE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
)

// Storage backends.
const (
	StorageFile        = "file"
	StorageSQLite      = "sqlite"
	StoragePreferences = "preferences"
)

// Player backends.
const (
	PlayerMock = "mock"
	PlayerMPD  = "mpd"
)

// Config holds application configuration
type Config struct {
	// DataDir holds the history files or database
	DataDir string

	Log     LogConfig
	Storage StorageConfig
	Player  PlayerConfig
	Server  ServerConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// StorageConfig selects the key-value backend of the history log
type StorageConfig struct {
	Backend string
	Key     string
}

// PlayerConfig selects and configures the external player
type PlayerConfig struct {
	Backend  string
	Network  string
	Address  string
	Password string

	ContainerID      string
	PollInterval     time.Duration
	BootstrapTimeout time.Duration
}

// ServerConfig holds the socket.io listener settings
type ServerConfig struct {
	Addr string
}

// Load reads configuration. An empty path searches the default locations;
// a missing file there is not an error, a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("MOODTUNE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := decode(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in defaults, ignoring files and the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return decode(v)
}

func decode(v *viper.Viper) *Config {
	return &Config{
		DataDir: v.GetString("data_dir"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(v.GetString("storage.backend")),
			Key:     v.GetString("storage.key"),
		},
		Player: PlayerConfig{
			Backend:          strings.ToLower(v.GetString("player.backend")),
			Network:          v.GetString("player.network"),
			Address:          v.GetString("player.address"),
			Password:         v.GetString("player.password"),
			ContainerID:      v.GetString("player.container_id"),
			PollInterval:     v.GetDuration("player.poll_interval"),
			BootstrapTimeout: v.GetDuration("player.bootstrap_timeout"),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DataDir())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("storage.backend", StorageFile)
	v.SetDefault("storage.key", "playbackHistory")
	v.SetDefault("player.backend", PlayerMock)
	v.SetDefault("player.network", "tcp")
	v.SetDefault("player.address", "localhost:6600")
	v.SetDefault("player.password", "")
	v.SetDefault("player.container_id", "moodtune-player")
	v.SetDefault("player.poll_interval", time.Second)
	v.SetDefault("player.bootstrap_timeout", 15*time.Second)
	v.SetDefault("server.addr", "127.0.0.1:3000")
}

// Validate checks backends and intervals.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageFile, StorageSQLite, StoragePreferences:
	default:
		return fmt.Errorf("storage.backend %q: %w", c.Storage.Backend, domain.ErrUnknownBackend)
	}

	switch c.Player.Backend {
	case PlayerMock, PlayerMPD:
	default:
		return fmt.Errorf("player.backend %q: %w", c.Player.Backend, domain.ErrUnknownBackend)
	}

	if c.Player.PollInterval <= 0 {
		return domain.NewValidationError("player.poll_interval", c.Player.PollInterval, "must be positive")
	}
	if c.Player.BootstrapTimeout < 0 {
		return domain.NewValidationError("player.bootstrap_timeout", c.Player.BootstrapTimeout, "must not be negative")
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return domain.NewValidationError("storage.key", c.Storage.Key, "must not be empty")
	}
	return nil
}

// ConfigDir returns the directory searched for config.yaml.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "moodtune")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", "moodtune")
}

// DataDir returns the default data directory.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "moodtune")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".local", "share", "moodtune")
}
