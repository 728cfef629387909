// Package cli provides the crm command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"lead-crm/internal/cache"
	"lead-crm/internal/config"
	"lead-crm/internal/db"
	"lead-crm/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

var cfgFile string

// app holds what every command needs after PersistentPreRunE.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

type appKey struct{}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

// connect opens the database and returns a store over it.
func (a *app) connect(ctx context.Context) (*sqlx.DB, *models.Store, error) {
	conn, err := db.Connect(ctx, a.cfg.DatabaseURL, a.logger)
	if err != nil {
		return nil, nil, err
	}
	return conn, models.NewStore(conn), nil
}

var openCache = cache.New

// invalidate drops the cached aggregates a command has made stale. The
// database change already happened, so cache failures are only logged and
// the entries expire with their TTL.
func (a *app) invalidate(ctx context.Context, namespaces ...string) {
	c, err := openCache(a.cfg.RedisURL, a.cfg.CacheTTL, a.logger)
	if err != nil {
		a.logger.Warn("failed to connect to cache, entries will expire with their TTL", "error", err)
		return
	}
	defer c.Close()
	if err := c.Invalidate(ctx, namespaces...); err != nil {
		a.logger.Warn("cache invalidation failed", "namespaces", namespaces, "error", err)
	}
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crm",
		Short: "Lead management CRM for educational institutions",
		Long: `crm serves the lead management dashboard and runs the operational tasks
around it: database migrations, demo data, temperature recomputation and reports.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger := cfg.NewLogger(os.Stderr)
			slog.SetDefault(logger)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, appKey{}, &app{cfg: cfg, logger: logger}))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./crm.yaml)")
	rootCmd.PersistentFlags().String("port", "", "HTTP port for serve")
	rootCmd.PersistentFlags().String("database-url", "", "Postgres connection string")
	rootCmd.PersistentFlags().String("redis-url", "", "Redis URL for the query cache (empty disables caching)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text|json)")
	rootCmd.PersistentFlags().Bool("debug", false, "Verbose request tracing")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newSeedCommand())
	rootCmd.AddCommand(newRecomputeCommand())
	rootCmd.AddCommand(newReportCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
