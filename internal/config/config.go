// Package config loads memelib settings from a YAML file, MEMELIB_*
// environment variables and built-in defaults, in that order of precedence
// below command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/memelib/internal/model"
)

// EnvPrefix is the prefix of environment overrides, e.g. MEMELIB_LIBRARY_DIR.
const EnvPrefix = "MEMELIB"

type Config struct {
	LibraryDir string       `mapstructure:"library_dir"` // Root of the library
	Database   string       `mapstructure:"database"`    // Defaults to <library_dir>/memes.db
	FilesDir   string       `mapstructure:"files_dir"`   // Defaults to <library_dir>/files
	Log        LogConfig    `mapstructure:"log"`
	Search     SearchConfig `mapstructure:"search"`
	Import     ImportConfig `mapstructure:"import"`

	databaseDerived bool
	filesDerived    bool
}

// LogConfig configures the CLI's slog handler.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn or error
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	DefaultMode string `mapstructure:"default_mode"` // Normal, OnlyFav or OnlyTrash
}

// ImportConfig holds defaults for add and import.
type ImportConfig struct {
	Move bool `mapstructure:"move"` // Delete sources after they are copied in
}

// Load reads configuration. If configFile is empty the file is looked up as
// config.yaml in GetConfigDir() and then the working directory; a missing
// file is not an error. An explicitly named file must exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := GetConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("library_dir", GetDefaultLibraryDir())
	v.SetDefault("database", "")  // derived from library_dir
	v.SetDefault("files_dir", "") // derived from library_dir
	v.SetDefault("log.level", "info")
	v.SetDefault("search.default_mode", model.ModeNormal.String())
	v.SetDefault("import.move", false)

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyOverrides applies command-line overrides. A new library directory
// moves the database and files directory with it unless those were set
// explicitly.
func (c *Config) ApplyOverrides(libraryDir, database string) {
	if libraryDir != "" {
		c.LibraryDir = expandHome(libraryDir)
		if c.databaseDerived {
			c.Database = filepath.Join(c.LibraryDir, "memes.db")
		}
		if c.filesDerived {
			c.FilesDir = filepath.Join(c.LibraryDir, "files")
		}
	}
	if database != "" {
		c.Database = expandHome(database)
		c.databaseDerived = false
	}
}

// SearchMode returns the parsed default search mode.
func (c *Config) SearchMode() model.SearchMode {
	mode, err := model.ParseSearchMode(c.Search.DefaultMode)
	if err != nil {
		return model.ModeNormal
	}
	return mode
}

// LogLevel returns the parsed log level, falling back to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// resolve expands paths, fills derived locations and validates enums.
func (c *Config) resolve() error {
	c.LibraryDir = expandHome(c.LibraryDir)
	if c.LibraryDir == "" {
		return fmt.Errorf("library_dir must not be empty")
	}

	if c.Database == "" {
		c.Database = filepath.Join(c.LibraryDir, "memes.db")
		c.databaseDerived = true
	} else {
		c.Database = expandHome(c.Database)
	}

	if c.FilesDir == "" {
		c.FilesDir = filepath.Join(c.LibraryDir, "files")
		c.filesDerived = true
	} else {
		c.FilesDir = expandHome(c.FilesDir)
	}

	if _, err := model.ParseSearchMode(c.Search.DefaultMode); err != nil {
		return fmt.Errorf("search.default_mode: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// GetConfigDir returns the XDG config directory for memelib.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "memelib"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "memelib"), nil
}

// GetDefaultLibraryDir returns the XDG data directory for memelib.
// Uses $XDG_DATA_HOME if set, otherwise ~/.local/share
func GetDefaultLibraryDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "memelib")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "memelib") // fallback
	}
	return filepath.Join(homeDir, ".local", "share", "memelib")
}
