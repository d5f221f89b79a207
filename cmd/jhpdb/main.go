package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/MrF0o/jhp/internal/cliconfig"
)

var exampleUsage = strings.TrimSpace(`
  jhpdb --db app.db exec "CREATE TABLE files (name TEXT, body BLOB)"
  jhpdb --db app.db exec "INSERT INTO files VALUES (?, ?)" -p '"readme"' -p @README.md
  jhpdb --db app.db query "SELECT name, body FROM files" --limit 10
  jhpdb --db app.db pragma journal_mode wal
  echo -n hello | jhpdb blob encode --from utf8
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

type app struct {
	cfg     cliconfig.Config
	cfgPath string
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: cliconfig.DefaultConfig()}

	root := &cobra.Command{
		Use:           "jhpdb",
		Short:         "Run SQLite statements and blob conversions through the jhp native bridge",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "path to config file, TOML or YAML (default: $HOME/.jhp/config.toml)")
	f.StringVar(&a.cfg.DB, "db", a.cfg.DB, "database file path")
	f.StringVar(&a.cfg.Envelope, "envelope", a.cfg.Envelope, "native boundary codec: json, cbor, msgpack or proto")
	f.IntVar(&a.cfg.MaxPayload, "max-payload", a.cfg.MaxPayload, "max bytes of a single native result (0 = unlimited)")
	f.StringVar(&a.cfg.Cache, "cache", a.cfg.Cache, "query cache: none, ristretto, bigcache or redis")
	f.IntVar(&a.cfg.CacheMaxBytes, "cache-max-bytes", a.cfg.CacheMaxBytes, "in-process cache size in bytes")
	f.DurationVar(&a.cfg.CacheTTL, "cache-ttl", a.cfg.CacheTTL, "cached result lifetime")
	f.StringVar(&a.cfg.Namespace, "namespace", a.cfg.Namespace, "cache namespace (defaults to the db path)")
	f.StringVar(&a.cfg.GenStore, "gen-store", a.cfg.GenStore, "cache generation store: local or redis")
	f.StringVar(&a.cfg.RedisAddr, "redis-addr", a.cfg.RedisAddr, "redis address for the redis cache or gen store")
	f.StringVar(&a.cfg.RedisPrefix, "redis-prefix", a.cfg.RedisPrefix, "redis key prefix")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level: debug, info, warn or error")
	f.StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "log format: console or json")
	f.DurationVar(&a.cfg.Timeout, "timeout", a.cfg.Timeout, "timeout for a single command")

	root.AddCommand(
		a.blobCmd(),
		a.execCmd(),
		a.queryCmd(),
		a.pragmaCmd(),
	)
	return root
}

// loadConfig layers the config file, then JHP_* env, under explicit flags.
func (a *app) loadConfig(cmd *cobra.Command) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
		if cfgFile != "" && !cliconfig.FileExists(cfgFile) {
			cfgFile = ""
		}
	}
	if cfgFile != "" {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	}
	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}
	return a.cfg.Validate()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "jhpdb:", err)
		stop()
		os.Exit(1)
	}
}
