package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fleetcheck/internal/bootstrap"
	"fleetcheck/internal/bootstrap/logging"
	domainnc "fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
	"fleetcheck/internal/usecase/nc"
)

var complianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "Evaluate checklist periodicity compliance per (template, machine) pair",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *nc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		var ref time.Time
		if at, _ := cmd.Flags().GetString("at"); strings.TrimSpace(at) != "" {
			parsed, err := domainnc.ParseTimestamp(strings.TrimSpace(at))
			if err != nil {
				return errs.Wrap(err, "parse --at timestamp")
			}
			ref = parsed
		}

		records, err := svc.ComputeCompliance(ctx, ref)
		if err != nil {
			return errs.Wrap(err, "compute compliance")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STATUS\tTEMPLATE\tMACHINE\tWINDOW DAYS\tLAST SUBMISSION")
		for _, record := range records {
			lastAt := "never"
			if record.LastSubmissionAt != nil {
				lastAt = record.LastSubmissionAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				record.Status, record.TemplateName, record.MachineName,
				record.RequiredWindowDays, lastAt)
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush compliance output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(complianceCmd)

	complianceCmd.Flags().String("at", "", "Reference instant (RFC3339 or YYYY-MM-DD, default now)")
}
