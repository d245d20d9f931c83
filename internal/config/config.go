// Package config handles configuration loading and validation for picosentry.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigFile is the default configuration file name (without extension).
	DefaultConfigFile = ".picosentry"
	// DefaultConfigType is the default configuration file type.
	DefaultConfigType = "yaml"
	// EnvPrefix prefixes environment overrides, e.g. PICOSENTRY_SOURCE_KIND.
	EnvPrefix = "PICOSENTRY"
)

// Source kinds.
const (
	SourceGitHub = "github"
	SourceLocal  = "local"
)

// Cache backends.
const (
	CacheBadger = "badger"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// Config holds all configuration for picosentry.
type Config struct {
	// Source selects where the rule pack is read from.
	Source SourceConfig `mapstructure:"source" yaml:"source"`
	// Fetch tunes the batch fetcher.
	Fetch FetchConfig `mapstructure:"fetch" yaml:"fetch"`
	// Cache selects the snapshot cache.
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`
	// Watch contains file watching configuration.
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`
}

// SourceConfig selects and locates the rule pack.
type SourceConfig struct {
	// Kind is "github" or "local".
	Kind   string       `mapstructure:"kind" yaml:"kind"`
	GitHub GitHubConfig `mapstructure:"github" yaml:"github"`
	Local  LocalConfig  `mapstructure:"local" yaml:"local"`
}

// GitHubConfig locates a rule pack in a GitHub repository.
type GitHubConfig struct {
	Owner         string `mapstructure:"owner" yaml:"owner"`
	Repo          string `mapstructure:"repo" yaml:"repo"`
	Branch        string `mapstructure:"branch" yaml:"branch"`
	RuleblockPath string `mapstructure:"ruleblock_path" yaml:"ruleblock_path"`
	TemplatePath  string `mapstructure:"template_path" yaml:"template_path"`
	// Token authenticates API calls. GITHUB_TOKEN is used when empty.
	Token  string `mapstructure:"token" yaml:"token,omitempty"`
	APIURL string `mapstructure:"api_url" yaml:"api_url"`
	RawURL string `mapstructure:"raw_url" yaml:"raw_url"`
}

// LocalConfig locates a rule pack on disk.
type LocalConfig struct {
	RuleblockDir string `mapstructure:"ruleblock_dir" yaml:"ruleblock_dir"`
	TemplateDir  string `mapstructure:"template_dir" yaml:"template_dir"`
}

// FetchConfig tunes the batch fetcher. Durations use Go syntax ("1s", "500ms").
type FetchConfig struct {
	Concurrency    int    `mapstructure:"concurrency" yaml:"concurrency"`
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries"`
	InitialBackoff string `mapstructure:"initial_backoff" yaml:"initial_backoff"`
	Timeout        string `mapstructure:"timeout" yaml:"timeout"`
	// Include restricts rule blocks to file names matching these globs.
	Include []string `mapstructure:"include" yaml:"include,omitempty"`
}

// CacheConfig selects the snapshot cache.
type CacheConfig struct {
	// Backend is "badger", "memory" or "none".
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Dir is the badger directory.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Version tags cached snapshots; entries under other tags are ignored.
	Version string `mapstructure:"version" yaml:"version"`
}

// WatchConfig holds file watching configuration.
type WatchConfig struct {
	// Exclude lists glob patterns to exclude from watching.
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
}

// Load loads configuration from file, environment variables, and defaults.
// The file is taken from the global "config_file" key when the CLI set one.
func Load() (*Config, error) {
	return LoadFile(viper.GetViper().GetString("config_file"))
}

// LoadFile loads configuration from configFile, or from .picosentry.yaml in
// the working directory when configFile is empty. A missing default file is
// not an error.
func LoadFile(configFile string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigFile)
		v.SetConfigType(DefaultConfigType)
		v.AddConfigPath(".")
	}

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.Source.GitHub.Token == "" {
		cfg.Source.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceGitHub:
		gh := c.Source.GitHub
		if gh.Owner == "" || gh.Repo == "" {
			return fmt.Errorf("source.github: owner and repo are required")
		}
		if gh.Branch == "" {
			return fmt.Errorf("source.github: branch is required")
		}
		if gh.RuleblockPath == "" {
			return fmt.Errorf("source.github: ruleblock_path is required")
		}
	case SourceLocal:
		if c.Source.Local.RuleblockDir == "" {
			return fmt.Errorf("source.local: ruleblock_dir is required")
		}
	default:
		return fmt.Errorf("source kind must be 'github' or 'local', got %q", c.Source.Kind)
	}

	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be positive, got %d", c.Fetch.Concurrency)
	}
	if c.Fetch.MaxRetries <= 0 {
		return fmt.Errorf("fetch.max_retries must be positive, got %d", c.Fetch.MaxRetries)
	}
	if _, err := c.InitialBackoff(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}

	switch c.Cache.Backend {
	case CacheBadger:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir is required when cache backend is 'badger'")
		}
	case CacheMemory, CacheNone:
	default:
		return fmt.Errorf("cache backend must be 'badger', 'memory' or 'none', got %q", c.Cache.Backend)
	}
	if c.Cache.Version == "" {
		return fmt.Errorf("cache.version is required")
	}

	return nil
}

// InitialBackoff parses fetch.initial_backoff.
func (c *Config) InitialBackoff() (time.Duration, error) {
	return parseDuration("fetch.initial_backoff", c.Fetch.InitialBackoff)
}

// Timeout parses fetch.timeout. Zero disables the per-request timeout.
func (c *Config) Timeout() (time.Duration, error) {
	return parseDuration("fetch.timeout", c.Fetch.Timeout)
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, s)
	}
	return d, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("source.kind", SourceGitHub)
	v.SetDefault("source.github.owner", "asaabey")
	v.SetDefault("source.github.repo", "tkc-picorules-rules")
	v.SetDefault("source.github.branch", "master")
	v.SetDefault("source.github.ruleblock_path", "picodomain_rule_pack/rule_blocks")
	v.SetDefault("source.github.template_path", "picodomain_template_pack/template_blocks")
	v.SetDefault("source.github.token", "")
	v.SetDefault("source.github.api_url", "https://api.github.com")
	v.SetDefault("source.github.raw_url", "https://raw.githubusercontent.com")
	v.SetDefault("source.local.ruleblock_dir", "./rule_blocks")
	v.SetDefault("source.local.template_dir", "./template_blocks")

	v.SetDefault("fetch.concurrency", 5)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.initial_backoff", "1s")
	v.SetDefault("fetch.timeout", "30s")

	v.SetDefault("cache.backend", CacheBadger)
	v.SetDefault("cache.dir", ".picosentry/cache")
	v.SetDefault("cache.version", "v2")

	v.SetDefault("watch.exclude", []string{
		"**/.git/**",
		"**/*.swp",
		"**/*~",
	})
}
