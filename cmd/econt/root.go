package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmgilman/go/econt"
	"github.com/jmgilman/go/econt/internal/cache"
	"github.com/jmgilman/go/econt/providers/rest"
	"github.com/jmgilman/go/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settings are the resolved CLI settings.
type settings struct {
	Username          string
	Password          string
	Environment       string
	BaseURL           string
	RateLimit         float64
	Cache             bool
	CacheLocation     string
	CacheTTL          time.Duration
	ServeStale        bool
	ExportConcurrency int
	LogLevel          string
	LogJSON           bool
}

// app carries state shared by the subcommands of one invocation.
type app struct {
	v      *viper.Viper
	client *econt.Client
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "econt",
		Short:         "Query Econt nomenclatures and manage the local cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.client == nil {
				return nil
			}
			return a.client.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.String("username", "", "API username (demo credentials when empty)")
	flags.String("password", "", "API password")
	flags.String("environment", string(rest.EnvironmentDemo), "API environment: demo or production")
	flags.String("base-url", "", "override the API base URL")
	flags.Float64("rate-limit", 0, "maximum API requests per second (0 for unlimited)")
	flags.Bool("cache", true, "serve nomenclatures from the local cache")
	flags.String("cache-location", defaultCacheLocation(), `cache directory, "sqlite://<path>" or empty for in-memory`)
	flags.Duration("cache-ttl", econt.DefaultCacheTTL, "time-to-live of cached datasets")
	flags.Bool("serve-stale", false, "serve expired data when the API is unreachable")
	flags.Int("export-concurrency", 0, "parallel street fetches during export (0 for the default)")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.Bool("log-json", false, "log as JSON")

	a.v.SetEnvPrefix("econt")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(flags); err != nil {
		panic(err)
	}

	root.AddCommand(
		newCountriesCmd(a),
		newCitiesCmd(a),
		newOfficesCmd(a),
		newStreetsCmd(a),
		newTrackCmd(a),
		newExportCmd(a),
		newStatusCmd(a),
		newClearCmd(a),
	)
	return root
}

func defaultCacheLocation() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "econt")
}

// load reads the config file, if any, and resolves the settings.
func (a *app) load() (settings, error) {
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			err := errors.Wrap(err, errors.CodeInvalidConfig, "failed to read config file")
			return settings{}, errors.WithContext(err, "path", path)
		}
	}

	return settings{
		Username:          a.v.GetString("username"),
		Password:          a.v.GetString("password"),
		Environment:       a.v.GetString("environment"),
		BaseURL:           a.v.GetString("base-url"),
		RateLimit:         a.v.GetFloat64("rate-limit"),
		Cache:             a.v.GetBool("cache"),
		CacheLocation:     a.v.GetString("cache-location"),
		CacheTTL:          a.v.GetDuration("cache-ttl"),
		ServeStale:        a.v.GetBool("serve-stale"),
		ExportConcurrency: a.v.GetInt("export-concurrency"),
		LogLevel:          a.v.GetString("log-level"),
		LogJSON:           a.v.GetBool("log-json"),
	}, nil
}

// init builds the client from the resolved settings.
func (a *app) init() error {
	s, err := a.load()
	if err != nil {
		return err
	}

	level, err := cache.ParseLogLevel(s.LogLevel)
	if err != nil {
		return err
	}
	logger := cache.NewLogger(cache.LogConfig{Level: level, Output: os.Stderr, JSON: s.LogJSON})

	providerOpts := []rest.Option{rest.WithEnvironment(rest.Environment(s.Environment))}
	if s.Username != "" {
		providerOpts = append(providerOpts, rest.WithCredentials(s.Username, s.Password))
	}
	if s.BaseURL != "" {
		providerOpts = append(providerOpts, rest.WithBaseURL(s.BaseURL))
	}
	if s.RateLimit > 0 {
		providerOpts = append(providerOpts, rest.WithRateLimit(s.RateLimit, 1))
	}
	provider, err := rest.NewProvider(providerOpts...)
	if err != nil {
		return err
	}

	client, err := econt.NewClient(provider,
		econt.WithLogger(logger.Slog()),
		econt.WithCache(econt.CacheConfig{
			Enabled:           s.Cache,
			TTL:               s.CacheTTL,
			Location:          s.CacheLocation,
			ServeStaleOnError: s.ServeStale,
			ExportConcurrency: s.ExportConcurrency,
		}),
	)
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

// printJSON writes v to the command output as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to write output")
	}
	return nil
}

func queryOptions(cmd *cobra.Command, name string) []econt.QueryOption {
	var opts []econt.QueryOption
	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		opts = append(opts, econt.WithForceRefresh())
	}
	if name != "" {
		opts = append(opts, econt.Where(econt.Contains("name", name)))
	}
	return opts
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
