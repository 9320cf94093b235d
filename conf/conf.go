// Package conf loads the unit configuration from yaml files and the
// CELLHUB_* environment, merged over built-in defaults.
package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/looplj/cellhub/internal/log"
	"github.com/looplj/cellhub/internal/pkg/xcache"
	"github.com/looplj/cellhub/internal/server"
	"github.com/looplj/cellhub/internal/server/biz"
	"github.com/looplj/cellhub/internal/storage/sqlstore"
	"github.com/looplj/cellhub/internal/tracing"
)

type Config struct {
	APIServer server.Config   `conf:"server" yaml:"server" json:"server"`
	Log       log.Config      `conf:"log" yaml:"log" json:"log"`
	Storage   sqlstore.Config `conf:"storage" yaml:"storage" json:"storage"`
	Cache     xcache.Config   `conf:"cache" yaml:"cache" json:"cache"`
	Unit      biz.UnitConfig  `conf:"unit" yaml:"unit" json:"unit"`
	Auth      biz.AuthConfig  `conf:"auth" yaml:"auth" json:"auth"`
}

func defaults() Config {
	return Config{
		APIServer: server.Config{
			Host:           "0.0.0.0",
			Port:           8080,
			Name:           "cellhub",
			ReadTimeout:    30 * time.Second,
			RequestTimeout: 30 * time.Second,
			Trace: tracing.Config{
				TraceHeader:   tracing.DefaultTraceHeader,
				RequestHeader: tracing.DefaultRequestHeader,
			},
		},
		Log: log.Config{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
		Storage: sqlstore.Config{
			Dialect: sqlstore.DialectSQLite,
			DSN:     "file:cellhub.db?_pragma=busy_timeout(5000)",
		},
		Cache: xcache.Config{
			Mode: xcache.ModeMemory,
			Memory: xcache.MemoryConfig{
				Expiration:      5 * time.Minute,
				CleanupInterval: 10 * time.Minute,
			},
		},
		Unit: biz.UnitConfig{
			BaseURL: "http://localhost:8080",
		},
	}
}

// Load reads cellhub.yml from the working directory, ./conf or
// /etc/cellhub, applies CELLHUB_* environment overrides and fills the
// gaps with defaults. A missing config file is not an error.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("cellhub")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./conf")
	v.AddConfigPath("/etc/cellhub")
	v.SetEnvPrefix("CELLHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "conf"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := mergo.Merge(&cfg, defaults()); err != nil {
		return Config{}, fmt.Errorf("merge defaults: %w", err)
	}

	return cfg, nil
}

// Accessors project the sub-configs for the fx graph.

func APIServer(cfg Config) server.Config { return cfg.APIServer }

func Log(cfg Config) log.Config { return cfg.Log }

func Storage(cfg Config) sqlstore.Config { return cfg.Storage }

func Cache(cfg Config) xcache.Config { return cfg.Cache }

func Biz(cfg Config) biz.Config {
	return biz.Config{Unit: cfg.Unit, Auth: cfg.Auth}
}
