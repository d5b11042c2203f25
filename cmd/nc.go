package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fleetcheck/internal/bootstrap"
	"fleetcheck/internal/bootstrap/logging"
	domainnc "fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
	"fleetcheck/internal/usecase/nc"
)

var ncCmd = &cobra.Command{
	Use:   "nc",
	Short: "Inspect and mutate non-conformity records",
}

var ncUpdateCmd = &cobra.Command{
	Use:   "update <nc-id>",
	Short: "Apply a lifecycle transition to a non-conformity",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *nc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		actorID, _ := cmd.Flags().GetString("actor-id")
		actorName, _ := cmd.Flags().GetString("actor-name")

		patch, err := buildPatchFromFlags(cmd)
		if err != nil {
			return err
		}

		result, err := svc.UpdateNC(ctx, nc.UpdateNCInput{
			NCID:  args0(cmd),
			Actor: domainnc.Actor{ID: actorID, Name: actorName},
			Patch: patch,
		})
		if err != nil {
			logging.Error(ctx, "update failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "update non-conformity")
		}

		if result.NoOp {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no changes: record already in requested state"); err != nil {
				return errs.Wrap(err, "write update output")
			}
			return nil
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%d fields changed), status=%s due=%s\n",
			result.Updated.ID, len(result.Diff), result.Updated.Status,
			result.Updated.DueAt.Format("2006-01-02")); err != nil {
			return errs.Wrap(err, "write update output")
		}
		return nil
	}),
}

var ncAuditCmd = &cobra.Command{
	Use:   "audit <nc-id>",
	Short: "Show the audit trail of a non-conformity, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *nc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		entries, err := svc.ListAuditEntries(ctx, args0(cmd))
		if err != nil {
			return errs.Wrap(err, "list audit entries")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tACTOR\tCHANGED FIELDS")
		for _, entry := range entries {
			fields := make([]string, 0, len(entry.Diff))
			for field := range entry.Diff {
				fields = append(fields, field)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				entry.CreatedAt.Format("2006-01-02 15:04:05"),
				actorLabel(entry.Actor),
				strings.Join(fields, ","),
			)
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush audit output")
		}
		return nil
	}),
}

// buildPatchFromFlags translates only the flags the caller actually set;
// unset flags stay nil so the transition treats them as "keep".
func buildPatchFromFlags(cmd *cobra.Command) (domainnc.Patch, error) {
	var patch domainnc.Patch

	if cmd.Flags().Changed("status") {
		raw, _ := cmd.Flags().GetString("status")
		status := domainnc.Status(raw)
		patch.Status = &status
	}
	if cmd.Flags().Changed("severity") {
		raw, _ := cmd.Flags().GetString("severity")
		severity := domainnc.Severity(raw)
		patch.Severity = &severity
	}
	if cmd.Flags().Changed("due-at") {
		raw, _ := cmd.Flags().GetString("due-at")
		patch.DueAt = &raw
	}
	if cmd.Flags().Changed("root-cause") {
		raw, _ := cmd.Flags().GetString("root-cause")
		patch.RootCause = &raw
	}
	if cmd.Flags().Changed("safety-risk") {
		value, _ := cmd.Flags().GetBool("safety-risk")
		patch.SafetyRisk = &value
	}
	if cmd.Flags().Changed("impact-availability") {
		value, _ := cmd.Flags().GetBool("impact-availability")
		patch.ImpactAvailability = &value
	}
	if cmd.Flags().Changed("actions-file") {
		path, _ := cmd.Flags().GetString("actions-file")
		raw, err := os.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return domainnc.Patch{}, errs.Wrapf(err, "read actions file %q", path)
		}
		var actions []domainnc.Action
		if err := json.Unmarshal(raw, &actions); err != nil {
			return domainnc.Patch{}, errs.Wrap(err, "parse actions file")
		}
		patch.Actions = actions
	}

	return patch, nil
}

func actorLabel(actor domainnc.Actor) string {
	if actor.Name != "" {
		return actor.Name
	}
	return actor.ID
}

// args0 reads the first positional argument; cobra validated arity already.
func args0(cmd *cobra.Command) string {
	args := cmd.Flags().Args()
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func init() {
	rootCmd.AddCommand(ncCmd)
	ncCmd.AddCommand(ncUpdateCmd)
	ncCmd.AddCommand(ncAuditCmd)

	ncUpdateCmd.Flags().String("actor-id", "", "Acting user id")
	ncUpdateCmd.Flags().String("actor-name", "", "Acting user name")
	ncUpdateCmd.Flags().String("status", "", "Target status")
	ncUpdateCmd.Flags().String("severity", "", "Target severity (baixa|media|alta)")
	ncUpdateCmd.Flags().String("due-at", "", "Requested due date (RFC3339 or YYYY-MM-DD)")
	ncUpdateCmd.Flags().String("root-cause", "", "Root cause description")
	ncUpdateCmd.Flags().Bool("safety-risk", false, "Mark as safety risk")
	ncUpdateCmd.Flags().Bool("impact-availability", false, "Mark as impacting availability")
	ncUpdateCmd.Flags().String("actions-file", "", "Path to a JSON file with the full replacement action list")
}
