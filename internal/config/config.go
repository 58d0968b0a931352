// Package config manages doctrack configuration from files and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Defaults applied before the config file and environment are read.
const (
	DefaultSuffix     = ".tracked"
	DefaultDebounceMs = 500
)

// Config holds the application configuration.
type Config struct {
	Type   string `mapstructure:"type"`
	Verify bool   `mapstructure:"verify"`
	Output struct {
		Suffix string `mapstructure:"suffix"`
		Dir    string `mapstructure:"dir"`
	} `mapstructure:"output"`
	Audit struct {
		Enabled bool   `mapstructure:"enabled"`
		File    string `mapstructure:"file"`
	} `mapstructure:"audit"`
	Watch struct {
		DebounceMs int  `mapstructure:"debounce_ms"`
		Recursive  bool `mapstructure:"recursive"`
	} `mapstructure:"watch"`
}

// Load reads the configuration from ~/.doctrack/config.yaml (or configFile when
// set) and DOCTRACK_* environment variables. A missing default config file is
// not an error; a missing explicit one is.
func Load(configFile string) (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
	}

	setDefaults()

	viper.SetEnvPrefix("DOCTRACK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config %s: %w", describe(configFile), err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("type", "")
	viper.SetDefault("verify", false)
	viper.SetDefault("output.suffix", DefaultSuffix)
	viper.SetDefault("output.dir", "")
	viper.SetDefault("audit.enabled", false)
	viper.SetDefault("audit.file", filepath.Join(configDir(), "audit.log"))
	viper.SetDefault("watch.debounce_ms", DefaultDebounceMs)
	viper.SetDefault("watch.recursive", false)
}

func describe(configFile string) string {
	if configFile != "" {
		return configFile
	}
	return ConfigPath()
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".doctrack"
	}
	return filepath.Join(home, ".doctrack")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
