// Package xredis builds go-redis clients from the unit configuration. A
// redis:// or rediss:// URL takes priority over the plain addr form;
// explicit config fields override credentials carried in the URL.
package xredis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// Options translates the config into redis.Options without connecting.
func Options(cfg Config) (*redis.Options, error) {
	opts := &redis.Options{}

	switch {
	case cfg.URL != "":
		if err := applyURL(opts, cfg); err != nil {
			return nil, err
		}
	case strings.TrimSpace(cfg.Addr) != "":
		opts.Addr = strings.TrimSpace(cfg.Addr)
	default:
		return nil, errors.New("redis addr or url is required")
	}

	if cfg.Username != "" {
		opts.Username = cfg.Username
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	if cfg.DB != nil {
		opts.DB = *cfg.DB
	}

	if cfg.TLS && opts.TLSConfig == nil {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if opts.TLSConfig != nil {
		opts.TLSConfig.InsecureSkipVerify = cfg.TLSInsecureSkipVerify // #nosec G402 -- explicit opt-in via config
	} else if cfg.TLSInsecureSkipVerify {
		return nil, errors.New("tls_insecure_skip_verify requires tls=true or a rediss:// url")
	}

	return opts, nil
}

func applyURL(opts *redis.Options, cfg Config) error {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}

	switch u.Scheme {
	case "redis", "rediss":
	default:
		return fmt.Errorf("unsupported redis scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("redis url missing host")
	}

	opts.Addr = u.Host

	if u.User != nil {
		opts.Username = u.User.Username()
		if pwd, ok := u.User.Password(); ok {
			opts.Password = pwd
		}
	}

	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return fmt.Errorf("invalid redis db in url: %w", err)
		}

		opts.DB = n
	}

	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return nil
}
