package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fleetcheck/internal/bootstrap"
	"fleetcheck/internal/bootstrap/logging"
	domainnc "fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
	"fleetcheck/internal/usecase/nc"
)

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Reduce maintenance KPIs over the non-conformity base",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *nc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		query := nc.KPIQuery{}
		query.MachineID, _ = cmd.Flags().GetString("machine")
		query.Month, _ = cmd.Flags().GetString("month")

		if from, _ := cmd.Flags().GetString("from"); strings.TrimSpace(from) != "" {
			parsed, err := domainnc.ParseTimestamp(strings.TrimSpace(from))
			if err != nil {
				return errs.Wrap(err, "parse --from timestamp")
			}
			query.From = &parsed
		}
		if to, _ := cmd.Flags().GetString("to"); strings.TrimSpace(to) != "" {
			parsed, err := domainnc.ParseTimestamp(strings.TrimSpace(to))
			if err != nil {
				return errs.Wrap(err, "parse --to timestamp")
			}
			query.To = &parsed
		}

		report, err := svc.ReduceKPIs(ctx, query)
		if err != nil {
			return errs.Wrap(err, "reduce kpis")
		}

		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "total\t%d\n", report.Total)
		fmt.Fprintf(w, "open alta\t%d\n", report.OpenBySeverity[domainnc.SeverityAlta])
		fmt.Fprintf(w, "open media\t%d\n", report.OpenBySeverity[domainnc.SeverityMedia])
		fmt.Fprintf(w, "open baixa\t%d\n", report.OpenBySeverity[domainnc.SeverityBaixa])
		if report.Month != "" {
			fmt.Fprintf(w, "closed in %s\t%d\n", report.Month, report.ClosedInMonth)
			fmt.Fprintf(w, "on-time closure\t%.1f%%\n", report.OnTimePct)
		}
		fmt.Fprintf(w, "recurrence rate\t%.2f\n", report.RecurrenceRate)
		fmt.Fprintf(w, "mean containment (h)\t%.1f\n", report.MeanContainmentHours)
		fmt.Fprintf(w, "mean resolution (h)\t%.1f\n", report.MeanResolutionHours)
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush kpi output")
		}

		printCountTable(out, "BY ROOT CAUSE", report.ByRootCause)
		printCountTable(out, "BY SYSTEM CATEGORY", report.BySystemCategory)
		printCountTable(out, "WEEKLY OPENED", report.WeeklyOpened)
		printCountTable(out, "WEEKLY CLOSED", report.WeeklyClosed)
		return nil
	}),
}

func printCountTable(out io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "\n%s\n", title)
	for _, key := range keys {
		fmt.Fprintf(w, "%s\t%d\n", key, counts[key])
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(kpiCmd)

	kpiCmd.Flags().String("machine", "", "Restrict to one machine id")
	kpiCmd.Flags().String("month", "", "Month for the on-time closure metric (YYYY-MM)")
	kpiCmd.Flags().String("from", "", "Only records created at or after this instant")
	kpiCmd.Flags().String("to", "", "Only records created at or before this instant")
}
