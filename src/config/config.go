package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sawantshivaji1997/notionsync/src/cache"
	"github.com/sawantshivaji1997/notionsync/src/converter"
	"github.com/sawantshivaji1997/notionsync/src/markdown"
	"github.com/sawantshivaji1997/notionsync/src/notionclient"
	"github.com/sawantshivaji1997/notionsync/src/orchestrator"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
	"github.com/sawantshivaji1997/notionsync/src/tree/builder"
)

const (
	MIN_BATCH_SIZE     = 1
	MAX_BATCH_SIZE     = orchestrator.MAX_BATCH_SIZE
	DEFAULT_BATCH_SIZE = orchestrator.DEFAULT_BATCH_SIZE
)

type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
}

type VaultConfig struct {
	Path string `mapstructure:"path"`
	// Subfolder of the vault the pages are written to
	Subfolder string `mapstructure:"subfolder"`
}

type SyncConfig struct {
	NamingPattern     string   `mapstructure:"naming_pattern"`
	IncludeProperties bool     `mapstructure:"include_properties"`
	PropertyOrder     []string `mapstructure:"property_order"`
	OverwriteExisting bool     `mapstructure:"overwrite_existing"`
	TitleHeading      bool     `mapstructure:"title_heading"`
	BatchSize         int      `mapstructure:"batch_size"`
}

type ConversionConfig struct {
	Quality           string `mapstructure:"quality"`
	ColumnLayout      string `mapstructure:"column_layout"`
	UnsupportedBlocks string `mapstructure:"unsupported_blocks"`
	MaxDepth          int    `mapstructure:"max_depth"`
}

type CacheConfig struct {
	Backend string `mapstructure:"backend"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	CallTimeout       time.Duration `mapstructure:"call_timeout"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	BaseDelay         time.Duration `mapstructure:"base_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay"`
	Jitter            float64       `mapstructure:"jitter"`
}

type MetricsConfig struct {
	// Textfile is written after every run when set, for the node exporter
	// textfile collector
	Textfile string `mapstructure:"textfile"`
}

type Config struct {
	Notion     NotionConfig     `mapstructure:"notion"`
	Vault      VaultConfig      `mapstructure:"vault"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Conversion ConversionConfig `mapstructure:"conversion"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// Default returns a Config with every non secret field set. The token, the
// database and the vault location are never defaulted.
func Default() *Config {
	conversion := converter.DefaultOptions()
	fetch := notionclient.DefaultOptions()
	return &Config{
		Sync: SyncConfig{
			NamingPattern:     markdown.DEFAULT_NAMING_PATTERN,
			IncludeProperties: true,
			TitleHeading:      true,
			BatchSize:         DEFAULT_BATCH_SIZE,
		},
		Conversion: ConversionConfig{
			Quality:           string(conversion.Quality),
			ColumnLayout:      string(conversion.Columns),
			UnsupportedBlocks: string(conversion.Unsupported),
			MaxDepth:          builder.DEFAULT_MAX_DEPTH,
		},
		Cache: CacheConfig{
			Backend: cache.BACKEND_JSON,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: fetch.RequestsPerSecond,
			Burst:             fetch.Burst,
			CallTimeout:       fetch.CallTimeout,
			MaxAttempts:       fetch.Retry.MaxAttempts,
			BaseDelay:         fetch.Retry.BaseDelay,
			MaxDelay:          fetch.Retry.MaxDelay,
			Jitter:            fetch.Retry.Jitter,
		},
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func (c *Config) validateDatabase() error {
	if c.Notion.DatabaseID == "" {
		return syncerr.Configuration("notion database id not provided")
	}
	id, err := uuid.Parse(c.Notion.DatabaseID)
	if err != nil {
		return syncerr.Configuration("invalid Database UUID: %s", c.Notion.DatabaseID)
	}
	c.Notion.DatabaseID = id.String()
	return nil
}

func (c *Config) validateVault() error {
	if c.Vault.Path == "" {
		return syncerr.Configuration("vault path not provided")
	}

	path, err := expandHome(c.Vault.Path)
	if err != nil {
		return syncerr.Configuration("cannot expand vault path %s: %v", c.Vault.Path, err)
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return syncerr.Configuration("invalid vault path %s: %v", c.Vault.Path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return syncerr.Configuration("vault path %s does not exist", path)
	}
	if !info.IsDir() {
		return syncerr.Configuration("vault path %s is not a directory", path)
	}
	c.Vault.Path = path

	sub := filepath.Clean(c.Vault.Subfolder)
	if sub == "." {
		sub = ""
	}
	if filepath.IsAbs(sub) || sub == ".." || strings.HasPrefix(sub, ".."+string(filepath.Separator)) {
		return syncerr.Configuration("subfolder %s must stay inside the vault", c.Vault.Subfolder)
	}
	c.Vault.Subfolder = sub
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case cache.BACKEND_JSON, cache.BACKEND_SQLITE:
		return nil
	}
	return syncerr.Configuration("unknown cache backend %q", c.Cache.Backend)
}

// validateLocal checks what commands working only on the vault need
func (c *Config) validateLocal() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateVault(); err != nil {
		return err
	}
	return c.validateCache()
}

// Validate checks the whole configuration and normalises the database id
// and the vault path. Every error is of kind CONFIGURATION.
func (c *Config) Validate() error {
	if c.Notion.Token == "" {
		return syncerr.Configuration("notion secret token not provided").
			WithHint("set notion.token in the config file or export NTN_TOKEN")
	}
	if err := c.validateLocal(); err != nil {
		return err
	}

	if c.Sync.BatchSize < MIN_BATCH_SIZE || c.Sync.BatchSize > MAX_BATCH_SIZE {
		return syncerr.Configuration("batch size must be between %d and %d, got %d",
			MIN_BATCH_SIZE, MAX_BATCH_SIZE, c.Sync.BatchSize)
	}
	if strings.TrimSpace(c.Sync.NamingPattern) == "" {
		c.Sync.NamingPattern = markdown.DEFAULT_NAMING_PATTERN
	}

	if err := c.conversionOptions().Validate(); err != nil {
		return syncerr.Configuration("%v", err)
	}
	if c.Conversion.MaxDepth < 1 {
		return syncerr.Configuration("max depth must be at least 1, got %d", c.Conversion.MaxDepth)
	}

	if c.RateLimit.RequestsPerSecond <= 0 {
		return syncerr.Configuration("requests per second must be positive, got %v",
			c.RateLimit.RequestsPerSecond)
	}
	if err := c.fetchOptions().Retry.Validate(); err != nil {
		return syncerr.Configuration("%v", err)
	}
	return nil
}

func (c *Config) conversionOptions() converter.Options {
	return converter.Options{
		Quality:     converter.QualityLevel(c.Conversion.Quality),
		Columns:     converter.ColumnPolicy(c.Conversion.ColumnLayout),
		Unsupported: converter.UnsupportedPolicy(c.Conversion.UnsupportedBlocks),
	}
}

func (c *Config) fetchOptions() notionclient.Options {
	return notionclient.Options{
		RequestsPerSecond: c.RateLimit.RequestsPerSecond,
		Burst:             c.RateLimit.Burst,
		CallTimeout:       c.RateLimit.CallTimeout,
		MaxDepth:          c.Conversion.MaxDepth,
		Retry: notionclient.RetryPolicy{
			MaxAttempts: c.RateLimit.MaxAttempts,
			BaseDelay:   c.RateLimit.BaseDelay,
			MaxDelay:    c.RateLimit.MaxDelay,
			Jitter:      c.RateLimit.Jitter,
		},
	}
}

func (c *Config) orchestratorOptions(dryRun bool, force bool) orchestrator.Options {
	return orchestrator.Options{
		DatabaseID:        c.Notion.DatabaseID,
		Subfolder:         c.Vault.Subfolder,
		NamingPattern:     c.Sync.NamingPattern,
		IncludeProperties: c.Sync.IncludeProperties,
		PropertyOrder:     c.Sync.PropertyOrder,
		TitleHeading:      c.Sync.TitleHeading,
		BatchSize:         c.Sync.BatchSize,
		Force:             force,
		DryRun:            dryRun,
		Conversion:        c.conversionOptions(),
	}
}
