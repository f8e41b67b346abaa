package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	API      APIConfig      `mapstructure:"api" yaml:"api"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	UI       UIConfig       `mapstructure:"ui" yaml:"ui"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

type APIConfig struct {
	BaseURL       string `mapstructure:"base_url" yaml:"base_url"`
	TokenFile     string `mapstructure:"token_file" yaml:"token_file"`
	MinIntervalMS int    `mapstructure:"min_interval_ms" yaml:"min_interval_ms"`
}

type DownloadConfig struct {
	OutDir         string `mapstructure:"out_dir" yaml:"out_dir"`
	Concurrency    int    `mapstructure:"concurrency" yaml:"concurrency"`
	MaxAttempts    int    `mapstructure:"max_attempts" yaml:"max_attempts"`
	SkipExisting   bool   `mapstructure:"skip_existing" yaml:"skip_existing"`
	FolderTemplate string `mapstructure:"folder_template" yaml:"folder_template"`
	WriteBookInfo  bool   `mapstructure:"write_book_info" yaml:"write_book_info"`
	FetchCover     bool   `mapstructure:"fetch_cover" yaml:"fetch_cover"`
}

type UIConfig struct {
	Progress string `mapstructure:"progress" yaml:"progress"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

type StoreConfig struct {
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
}

// StateDir is where the session, database, log and default config live.
func StateDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "author-today-cli")
}

func defaultOutDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./Audiobooks"
	}
	return filepath.Join(home, "Audiobooks")
}

// Load reads the config file at path. An empty path falls back to
// <state dir>/config.yaml, then ./config.yaml, and finally to pure defaults
// when no file exists at all. An explicit path that does not exist is an
// error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if explicit {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	} else {
		for _, candidate := range []string{filepath.Join(StateDir(), "config.yaml"), "config.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	stateDir := StateDir()

	v := viper.New()

	// Set Defaults
	v.SetDefault("api.base_url", "https://api.author.today")
	v.SetDefault("api.token_file", filepath.Join(stateDir, "session.json"))
	v.SetDefault("api.min_interval_ms", 2000)
	v.SetDefault("download.out_dir", defaultOutDir())
	v.SetDefault("download.concurrency", 3)
	v.SetDefault("download.max_attempts", 3)
	v.SetDefault("download.skip_existing", true)
	v.SetDefault("download.folder_template", "{{.Author}}/{{.Title}}")
	v.SetDefault("download.write_book_info", true)
	v.SetDefault("download.fetch_cover", true)
	v.SetDefault("ui.progress", "auto")
	v.SetDefault("log.path", filepath.Join(stateDir, "author-today-cli.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", false)
	v.SetDefault("store.sqlite_path", filepath.Join(stateDir, "library.db"))
	v.SetDefault("server.port", "8080")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Support Environment Variables
	v.SetEnvPrefix("AT_CLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}

	if c.API.MinIntervalMS <= 0 {
		c.API.MinIntervalMS = 2000
	}

	if c.Download.Concurrency <= 0 {
		c.Download.Concurrency = 3
	}

	if c.Download.MaxAttempts <= 0 {
		c.Download.MaxAttempts = 3
	}

	if c.Download.OutDir == "" {
		c.Download.OutDir = defaultOutDir()
	}

	switch c.UI.Progress {
	case "auto", "bars", "line", "none":
	default:
		return fmt.Errorf("ui.progress must be one of auto, bars, line, none (got %q)", c.UI.Progress)
	}

	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}

	return nil
}
