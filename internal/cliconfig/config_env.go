package cliconfig

import "os"

// ApplyEnvConfig applies JHP_* environment variables, skipping flags set on
// the command line. It returns an error for malformed numbers or durations.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("db", os.Getenv("JHP_DB"), &cfg.DB)
	s.setString("envelope", os.Getenv("JHP_ENVELOPE"), &cfg.Envelope)
	s.setString("cache", os.Getenv("JHP_CACHE"), &cfg.Cache)
	s.setString("namespace", os.Getenv("JHP_NAMESPACE"), &cfg.Namespace)
	s.setString("gen-store", os.Getenv("JHP_GEN_STORE"), &cfg.GenStore)
	s.setString("redis-addr", os.Getenv("JHP_REDIS_ADDR"), &cfg.RedisAddr)
	s.setString("redis-prefix", os.Getenv("JHP_REDIS_PREFIX"), &cfg.RedisPrefix)
	s.setString("log-level", os.Getenv("JHP_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", os.Getenv("JHP_LOG_FORMAT"), &cfg.LogFormat)

	if err := s.setIntFromString("max-payload", os.Getenv("JHP_MAX_PAYLOAD"), &cfg.MaxPayload); err != nil {
		return err
	}
	if err := s.setIntFromString("cache-max-bytes", os.Getenv("JHP_CACHE_MAX_BYTES"), &cfg.CacheMaxBytes); err != nil {
		return err
	}
	if err := s.setDuration("cache-ttl", os.Getenv("JHP_CACHE_TTL"), &cfg.CacheTTL); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("JHP_TIMEOUT"), &cfg.Timeout); err != nil {
		return err
	}
	return nil
}
