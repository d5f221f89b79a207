package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MrF0o/jhp"
	"github.com/MrF0o/jhp/codec"
	gen "github.com/MrF0o/jhp/genstore"
	asynchook "github.com/MrF0o/jhp/hooks/async"
	"github.com/MrF0o/jhp/internal/cliconfig"
	jhpzerolog "github.com/MrF0o/jhp/log/zerolog"
	"github.com/MrF0o/jhp/native"
	"github.com/MrF0o/jhp/native/sqlite"
	pr "github.com/MrF0o/jhp/provider"
	bcprov "github.com/MrF0o/jhp/provider/bigcache"
	redisprov "github.com/MrF0o/jhp/provider/redis"
	rprov "github.com/MrF0o/jhp/provider/ristretto"
	"github.com/MrF0o/jhp/sloghooks"
)

// session is an open database plus everything that must be released with it.
type session struct {
	db      *jhp.Database
	log     jhp.Logger
	closers []func(context.Context) error
}

func (s *session) close(ctx context.Context) error {
	var errs []error
	if err := s.db.Close(ctx); err != nil && !errors.Is(err, jhp.ErrClosed) {
		errs = append(errs, err)
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newLogger(cfg cliconfig.Config, w io.Writer) (*jhpzerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if cfg.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return jhpzerolog.Wrap(zerolog.New(w).Level(lvl).With().Timestamp().Logger()), nil
}

func slogLevel(lvl string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(lvl)); err != nil {
		return slog.LevelWarn
	}
	return l
}

func envelope(name string) codec.Codec[any] {
	switch name {
	case cliconfig.EnvelopeCBOR:
		return codec.MustCBOR[any](false)
	case cliconfig.EnvelopeMsgpack:
		return codec.Msgpack[any]{}
	case cliconfig.EnvelopeProto:
		return codec.ProtoValue{}
	default:
		return codec.JSON[any]{}
	}
}

func newRegistry(cfg cliconfig.Config) (*native.Registry, *sqlite.Engine, error) {
	reg := native.NewRegistry(native.Options{
		Envelope:   envelope(cfg.Envelope),
		MaxPayload: cfg.MaxPayload,
	})
	eng := sqlite.New()
	if err := reg.Load(eng.Module()); err != nil {
		_ = eng.Close()
		return nil, nil, err
	}
	return reg, eng, nil
}

func newRedisClient(cfg cliconfig.Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
}

func newProvider(ctx context.Context, cfg cliconfig.Config) (pr.Provider, error) {
	switch cfg.Cache {
	case cliconfig.CacheRistretto:
		rc := rprov.DefaultConfig(int64(cfg.CacheMaxBytes))
		rc.SyncWrites = true
		return rprov.New(rc)
	case cliconfig.CacheBigcache:
		mb := cfg.CacheMaxBytes >> 20
		if mb < 1 {
			mb = 1
		}
		return bcprov.New(ctx, bcprov.Config{LifeWindow: cfg.CacheTTL, HardMaxCacheSizeMB: mb})
	case cliconfig.CacheRedis:
		return redisprov.New(redisprov.Config{
			Client:      newRedisClient(cfg),
			KeyPrefix:   cfg.RedisPrefix + ":",
			CloseClient: true,
		})
	default:
		return nil, nil
	}
}

// open builds the registry, cache and hooks from cfg and opens cfg.DB.
func open(ctx context.Context, cfg cliconfig.Config, logOut io.Writer) (*session, error) {
	if cfg.DB == "" {
		return nil, errors.New("no database: set --db or JHP_DB")
	}
	log, err := newLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}
	s := &session{log: log}
	fail := func(err error) (*session, error) {
		for i := len(s.closers) - 1; i >= 0; i-- {
			_ = s.closers[i](ctx)
		}
		return nil, err
	}

	reg, eng, err := newRegistry(cfg)
	if err != nil {
		return fail(err)
	}
	s.closers = append(s.closers, func(context.Context) error { return eng.Close() })

	hooks := asynchook.New(sloghooks.New(
		slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: slogLevel(cfg.LogLevel)})),
		sloghooks.Options{SelfHealEvery: 10},
	), 1, 256)
	s.closers = append(s.closers, func(context.Context) error { hooks.Close(); return nil })

	opts := jhp.Options{
		Native:    reg,
		Logger:    log,
		Hooks:     hooks,
		CacheTTL:  cfg.CacheTTL,
		Namespace: cfg.Namespace,
	}
	p, err := newProvider(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("cache %s: %w", cfg.Cache, err))
	}
	if p != nil {
		opts.Cache = p
		s.closers = append(s.closers, p.Close)
		if cfg.GenStore == "redis" {
			gs := gen.NewRedisGenStore(newRedisClient(cfg), cfg.RedisPrefix, 0)
			opts.GenStore = gs
			s.closers = append(s.closers, gs.Close)
		}
	}

	db, err := jhp.Open(ctx, cfg.DB, opts)
	if err != nil {
		return fail(err)
	}
	s.db = db
	return s, nil
}
