package config

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
	"github.com/spf13/viper"
)

const (
	ENV_PREFIX       = "ntn"
	CONFIG_FILE_NAME = "notionsync"
)

// Keys read from the environment without a prefix on the section, NTN_TOKEN
// rather than NTN_NOTION_TOKEN
var envAliases = map[string]string{
	"notion.token":       "NTN_TOKEN",
	"notion.database_id": "NTN_DATABASE_ID",
	"vault.path":         "NTN_VAULT_PATH",
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("vault.subfolder", "")
	v.SetDefault("sync.naming_pattern", d.Sync.NamingPattern)
	v.SetDefault("sync.include_properties", d.Sync.IncludeProperties)
	v.SetDefault("sync.property_order", []string{})
	v.SetDefault("sync.overwrite_existing", d.Sync.OverwriteExisting)
	v.SetDefault("sync.title_heading", d.Sync.TitleHeading)
	v.SetDefault("sync.batch_size", d.Sync.BatchSize)
	v.SetDefault("conversion.quality", d.Conversion.Quality)
	v.SetDefault("conversion.column_layout", d.Conversion.ColumnLayout)
	v.SetDefault("conversion.unsupported_blocks", d.Conversion.UnsupportedBlocks)
	v.SetDefault("conversion.max_depth", d.Conversion.MaxDepth)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("rate_limit.requests_per_second", d.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)
	v.SetDefault("rate_limit.call_timeout", d.RateLimit.CallTimeout)
	v.SetDefault("rate_limit.max_attempts", d.RateLimit.MaxAttempts)
	v.SetDefault("rate_limit.base_delay", d.RateLimit.BaseDelay)
	v.SetDefault("rate_limit.max_delay", d.RateLimit.MaxDelay)
	v.SetDefault("rate_limit.jitter", d.RateLimit.Jitter)
	v.SetDefault("metrics.textfile", "")
}

// NewViper prepares a viper instance reading the config file, when one is
// found, and NTN_ prefixed environment variables. An empty configFile
// searches the working directory and $HOME/.config/notionsync.
func NewViper(ctx context.Context, configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(CONFIG_FILE_NAME)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/notionsync")
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		zerolog.Ctx(ctx).Debug().Msg(logging.ConfigFileNotFound)
		return v, nil
	}
	if err != nil {
		return nil, syncerr.Configuration("cannot read config file: %v", err)
	}
	return v, nil
}

// Load builds a Config from v. Nothing is validated yet.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, syncerr.Configuration("cannot decode configuration: %v", err)
	}
	return cfg, nil
}
