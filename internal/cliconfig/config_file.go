package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config with string durations. Files ending in .yaml or
// .yml are read as YAML, everything else as TOML.
type FileConfig struct {
	DB            string `toml:"db" yaml:"db"`
	Envelope      string `toml:"envelope" yaml:"envelope"`
	MaxPayload    int    `toml:"max_payload" yaml:"max_payload"`
	Cache         string `toml:"cache" yaml:"cache"`
	CacheMaxBytes int    `toml:"cache_max_bytes" yaml:"cache_max_bytes"`
	CacheTTL      string `toml:"cache_ttl" yaml:"cache_ttl"`
	Namespace     string `toml:"namespace" yaml:"namespace"`
	GenStore      string `toml:"gen_store" yaml:"gen_store"`
	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPrefix   string `toml:"redis_prefix" yaml:"redis_prefix"`
	LogLevel      string `toml:"log_level" yaml:"log_level"`
	LogFormat     string `toml:"log_format" yaml:"log_format"`
	Timeout       string `toml:"timeout" yaml:"timeout"`
}

// LoadFileConfig reads and parses a config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = toml.Unmarshal(b, &fc)
	}
	if err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.jhp/config.toml, or "" without a home dir.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".jhp", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies fc to cfg, skipping flags set on the command line.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("db", fc.DB, &cfg.DB)
	s.setString("envelope", fc.Envelope, &cfg.Envelope)
	s.setString("cache", fc.Cache, &cfg.Cache)
	s.setString("namespace", fc.Namespace, &cfg.Namespace)
	s.setString("gen-store", fc.GenStore, &cfg.GenStore)
	s.setString("redis-addr", fc.RedisAddr, &cfg.RedisAddr)
	s.setString("redis-prefix", fc.RedisPrefix, &cfg.RedisPrefix)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)

	s.setInt("max-payload", fc.MaxPayload, &cfg.MaxPayload)
	s.setInt("cache-max-bytes", fc.CacheMaxBytes, &cfg.CacheMaxBytes)

	if err := s.setDuration("cache-ttl", fc.CacheTTL, &cfg.CacheTTL); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.Timeout, &cfg.Timeout); err != nil {
		return err
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
