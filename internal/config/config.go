// Package config provides configuration management for the suggestion
// service.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Suggest   SuggestConfig   `mapstructure:"suggest"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	ReadTimeoutMS int    `mapstructure:"read_timeout_ms"`
	MaxConns      int    `mapstructure:"max_conns"`
	DefaultModel  string `mapstructure:"default_model"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ArtifactsConfig holds artifact store settings.
type ArtifactsConfig struct {
	Path string `mapstructure:"path"`
}

// SuggestConfig holds ranking settings.
type SuggestConfig struct {
	TypoThreshold float64 `mapstructure:"typo_threshold"`
	TemplateTopK  int     `mapstructure:"template_top_k"`
	MaxResults    int     `mapstructure:"max_results"`
	SeedCommands  bool    `mapstructure:"seed_commands"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

var globalConfig *Config

// Load loads the configuration from file and environment variables. A
// missing config file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NUDGE")
	v.AutomaticEnv()

	if path == "" {
		path = defaultConfigPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Artifacts.Path = expandPath(cfg.Artifacts.Path)
	cfg.Logging.File = expandPath(cfg.Logging.File)

	globalConfig = &cfg
	return &cfg, nil
}

// Get returns the global configuration, loading defaults if needed.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			return &Config{}
		}
		return cfg
	}
	return globalConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 9999)
	v.SetDefault("server.read_timeout_ms", 1000)
	v.SetDefault("server.max_conns", 1024)
	v.SetDefault("server.default_model", "default")

	v.SetDefault("artifacts.path", filepath.Join(dataDir(), "artifacts.db"))

	v.SetDefault("suggest.typo_threshold", 0.60)
	v.SetDefault("suggest.template_top_k", 5)
	v.SetDefault("suggest.max_results", 5)
	v.SetDefault("suggest.seed_commands", true)

	v.SetDefault("logging.level", "info")
}

// defaultConfigPath honors XDG_CONFIG_HOME before falling back to ~/.config.
func defaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nudge", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nudge.yaml"
	}
	return filepath.Join(home, ".config", "nudge", "config.yaml")
}

// dataDir returns the directory holding the artifact store and logs.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nudge"
	}
	return filepath.Join(home, ".nudge")
}

// expandPath expands a leading ~ and environment variables.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return os.ExpandEnv(path)
}
