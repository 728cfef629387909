package cli

import (
	"fmt"
	"time"

	"lead-crm/internal/auth"
	"lead-crm/internal/cache"
	"lead-crm/internal/db"
	"lead-crm/internal/handlers"
	"lead-crm/internal/middleware"
	"lead-crm/internal/server"

	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Example: `  # Start on the default port with local sign-in
  crm serve

  # Use the hosted auth service and Redis
  CRM_AUTH_URL=https://project.example.co CRM_AUTH_ANON_KEY=... REDIS_URL=redis://localhost:6379/0 crm serve --port 8080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			conn, store, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			if !skipMigrations {
				if err := db.RunMigrations(conn.DB); err != nil {
					return err
				}
			}

			c, err := cache.New(a.cfg.RedisURL, a.cfg.CacheTTL, a.logger)
			if err != nil {
				return fmt.Errorf("failed to connect to cache: %w", err)
			}
			defer c.Close()

			var provider auth.Provider
			if a.cfg.UsesHostedAuth() {
				provider = auth.NewGoTrue(a.cfg.AuthURL, a.cfg.AuthAnonKey, a.logger)
				a.logger.Info("using hosted auth service", "url", a.cfg.AuthURL)
			} else {
				local := auth.NewLocal(store, a.logger)
				if err := local.SeedAdmin(ctx, a.cfg.AdminEmail, a.cfg.AdminPassword, a.cfg.AdminName); err != nil {
					a.logger.Warn("failed to seed admin user", "error", err)
				}
				provider = local
				a.logger.Warn("AUTH_URL not set, using local sign-in")
			}

			deps := &handlers.Deps{
				Config:   a.cfg,
				Store:    store,
				Cache:    c,
				Auth:     provider,
				Sessions: middleware.NewSessionStore([]byte(a.cfg.SessionSecret), a.cfg.SecureCookies),
				Logger:   a.logger,
				Now:      time.Now,
			}
			return server.New(deps).Serve(ctx)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations on start")
	return cmd
}
