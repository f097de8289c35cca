package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shopbot/catalog-service/config"
	"github.com/shopbot/catalog-service/internal/cache"
	"github.com/shopbot/catalog-service/internal/catalog"
	"github.com/shopbot/catalog-service/internal/fetch"
	"github.com/shopbot/catalog-service/internal/resolver"
	"github.com/shopbot/catalog-service/internal/source"
	"github.com/shopbot/catalog-service/internal/users"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "catalog-service",
	Short: "Catalog Service CLI - product and supplier resolution tool",
	Long: `A CLI tool for resolving articles against the remote catalog, inspecting
per-shop supplier schedules, and forcing index rebuilds. Reads the same
sheet exports (or mirror database) as the service.`,
	PersistentPreRunE: persistentPreRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
}

// persistentPreRun runs before each command and initializes dependencies
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	logger = initLogger()
	zlog.Logger = *logger
	return nil
}

func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.WarnLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsedLevel
		}
	}

	// Always use console format for CLI
	var output io.Writer
	if cfg != nil && cfg.Logging.Format == "json" {
		output = os.Stdout
	} else {
		noColor := false
		if cfg != nil {
			noColor = cfg.Logging.NoColor
		}
		output = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}
	}

	log := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &log
}

// stack bundles the wired resolution pipeline for one CLI invocation
type stack struct {
	resolver *resolver.Resolver
	users    *users.Directory
}

// buildStack wires the source, cache, builder and resolver from config
func buildStack(ctx context.Context) (*stack, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required but not loaded")
	}

	store, err := cache.New(cache.Policy(cfg.Cache.Policy), cfg.Cache.Capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}

	var src source.Source
	switch cfg.Source.Kind {
	case "mirror":
		if cfg.Mirror.URL == "" {
			return nil, fmt.Errorf("mirror source selected but mirror.url not set")
		}
		src, err = source.NewMirrorSource(ctx, source.MirrorConfig{
			URL:             cfg.Mirror.URL,
			MaxConnections:  cfg.Mirror.MaxConnections,
			MinConnections:  cfg.Mirror.MinConnections,
			MaxConnLifetime: cfg.Mirror.MaxConnLifetime,
			MaxConnIdleTime: cfg.Mirror.MaxConnIdleTime,
		})
	default:
		client := fetch.NewClient(fetch.Config{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			MaxRetries:        cfg.RateLimit.MaxRetries,
			InitialBackoff:    time.Duration(cfg.RateLimit.InitialBackoffMs) * time.Millisecond,
			MaxBackoff:        time.Duration(cfg.RateLimit.MaxBackoffMs) * time.Millisecond,
		})
		src, err = source.NewSheetSource(client, source.SheetConfig{
			CatalogURL:          cfg.Source.CatalogURL,
			ScheduleURLTemplate: cfg.Source.ScheduleURLTemplate,
			UsersURL:            cfg.Source.UsersURL,
			Format:              source.Format(cfg.Source.Format),
			Encoding:            source.Encoding(cfg.Source.Encoding),
			CatalogHeaders:      cfg.Source.CatalogHeaders,
			ScheduleHeaders:     cfg.Source.ScheduleHeaders,
			UserHeaders:         cfg.Source.UserHeaders,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog source: %w", err)
	}

	cached := source.NewCachedSource(src, store, cfg.Source.RowTTL)

	builder := catalog.NewBuilder(cached, catalog.BuilderConfig{
		FetchConcurrency: cfg.Source.FetchConcurrency,
		FetchTimeout:     cfg.Source.FetchTimeout,
	})

	return &stack{
		resolver: resolver.New(builder, store, resolver.Config{
			FallbackAnyShop: cfg.Resolver.FallbackAnyShop,
			BuildTimeout:    cfg.Resolver.BuildTimeout,
			SnapshotTTL:     cfg.Resolver.SnapshotTTL,
		}),
		users: users.New(cached, store, cfg.Resolver.UserTTL),
	}, nil
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
