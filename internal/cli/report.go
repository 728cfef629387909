package cli

import (
	"fmt"
	"io"
	"strconv"

	"lead-crm/internal/dashboard"
	"lead-crm/internal/models"
	"lead-crm/internal/util"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print management reports",
	}
	cmd.AddCommand(newRankingReportCommand())
	return cmd
}

func newRankingReportCommand() *cobra.Command {
	var from, to, courseType string

	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Salesperson ranking by conversion rate",
		Example: `  crm report ranking --from 2025-01-01 --to 2025-03-31
  crm report ranking --course-type EAD`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			start, end, err := util.ParseDateRange(from, to, a.cfg.Location())
			if err != nil {
				return err
			}

			conn, store, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			rows, err := store.DashboardLeads(cmd.Context(), models.DateRange{From: start, To: end})
			if err != nil {
				return err
			}
			renderRanking(cmd.OutOrStdout(), dashboard.Ranking(dashboard.FilterByCourseType(rows, courseType)))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&courseType, "course-type", "", "restrict to one course type")
	return cmd
}

func renderRanking(w io.Writer, entries []dashboard.RankingEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "(sem leads no período)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Vendedor", "Leads", "Matrículas", "Taxa"})

	totalLeads, totalConversions := 0, 0
	for _, e := range entries {
		t.AppendRow(table.Row{e.Position, e.Name, e.TotalLeads, e.Conversions, strconv.FormatFloat(e.ConversionRate, 'f', 1, 64) + "%"})
		totalLeads += e.TotalLeads
		totalConversions += e.Conversions
	}
	t.AppendFooter(table.Row{"", "Total", totalLeads, totalConversions, ""})
	t.Render()
}
