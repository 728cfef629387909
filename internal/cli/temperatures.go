package cli

import (
	"fmt"
	"time"

	"lead-crm/internal/cache"

	"github.com/spf13/cobra"
)

func newRecomputeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-temperatures",
		Short: "Reclassify open leads as quente, morno or frio",
		Long: `Applies the saved temperature criteria to every lead that is neither
perdido nor matriculado, using the last contact (or creation) date.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			conn, store, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			n, err := store.RecomputeTemperatures(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			a.invalidate(cmd.Context(), cache.NamespaceDashboard, cache.NamespaceConversions)
			a.logger.Info("temperatures recomputed", "updated", n)
			fmt.Fprintf(cmd.OutOrStdout(), "%d leads updated\n", n)
			return nil
		},
	}
}
