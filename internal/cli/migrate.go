package cli

import (
	"fmt"

	"lead-crm/internal/db"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			conn, _, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := db.RunMigrations(conn.DB); err != nil {
				return err
			}
			version, err := db.MigrationVersion(conn.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database at migration version %d\n", version)
			return nil
		},
	}
}
