package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Envelope codecs accepted by --envelope.
const (
	EnvelopeJSON    = "json"
	EnvelopeCBOR    = "cbor"
	EnvelopeMsgpack = "msgpack"
	EnvelopeProto   = "proto"
)

// Cache providers accepted by --cache.
const (
	CacheNone      = "none"
	CacheRistretto = "ristretto"
	CacheBigcache  = "bigcache"
	CacheRedis     = "redis"
)

// Config holds CLI configuration for jhpdb.
type Config struct {
	DB string

	Envelope   string
	MaxPayload int

	Cache         string
	CacheMaxBytes int
	CacheTTL      time.Duration
	Namespace     string
	GenStore      string

	RedisAddr   string
	RedisPrefix string

	LogLevel  string
	LogFormat string
	Timeout   time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Envelope:      EnvelopeJSON,
		Cache:         CacheNone,
		CacheMaxBytes: 64 << 20, // 64MB
		CacheTTL:      time.Minute,
		GenStore:      "local",
		RedisAddr:     "127.0.0.1:6379",
		RedisPrefix:   "jhp",
		LogLevel:      "warn",
		LogFormat:     "console",
		Timeout:       30 * time.Second,
	}
}

// Validate checks the configuration for errors and normalizes enum values.
func (c *Config) Validate() error {
	c.Envelope = strings.ToLower(c.Envelope)
	c.Cache = strings.ToLower(c.Cache)
	c.GenStore = strings.ToLower(c.GenStore)
	c.LogFormat = strings.ToLower(c.LogFormat)

	switch c.Envelope {
	case EnvelopeJSON, EnvelopeCBOR, EnvelopeMsgpack, EnvelopeProto:
	default:
		return fmt.Errorf("unknown envelope %q", c.Envelope)
	}
	switch c.Cache {
	case "", CacheNone:
		c.Cache = CacheNone
	case CacheRistretto, CacheBigcache, CacheRedis:
	default:
		return fmt.Errorf("unknown cache %q", c.Cache)
	}
	switch c.GenStore {
	case "", "local":
		c.GenStore = "local"
	case "redis":
	default:
		return fmt.Errorf("unknown gen store %q", c.GenStore)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}

	if c.Cache != CacheNone {
		if c.CacheTTL <= 0 {
			return fmt.Errorf("cache ttl must be positive")
		}
		if c.CacheMaxBytes <= 0 {
			return fmt.Errorf("cache max bytes must be positive")
		}
	}
	if (c.Cache == CacheRedis || c.GenStore == "redis") && c.RedisAddr == "" {
		return fmt.Errorf("redis-addr is required for redis cache or gen store")
	}
	if c.MaxPayload < 0 {
		return fmt.Errorf("max payload must not be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// configSetter applies values only for flags that were not set explicitly.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString is setInt for values that arrive as strings (env).
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}
