package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fleetcheck/internal/bootstrap"
	"fleetcheck/internal/bootstrap/logging"
	domainnc "fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
	"fleetcheck/internal/usecase/nc"
)

// submitFile is the on-disk shape accepted by `fleetcheck submit --file`.
// It matches the HTTP submission payload.
type submitFile struct {
	SubmissionID string                        `json:"submissionId,omitempty"`
	MachineID    string                        `json:"machineId"`
	TemplateID   string                        `json:"templateId"`
	User         domainnc.Actor                `json:"user"`
	Matricula    string                        `json:"matricula,omitempty"`
	CreatedAt    string                        `json:"createdAt,omitempty"`
	Answers      []domainnc.Answer             `json:"answers"`
	Extras       []domainnc.ExtraNonConformity `json:"extras,omitempty"`
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Explode a checklist submission JSON file into non-conformities",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *nc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		filePath, _ := cmd.Flags().GetString("file")
		filePath = strings.TrimSpace(filePath)
		if filePath == "" {
			return fmt.Errorf("--file is required")
		}

		raw, err := os.ReadFile(filePath)
		if err != nil {
			return errs.Wrapf(err, "read submission file %q", filePath)
		}

		var payload submitFile
		if err := json.Unmarshal(raw, &payload); err != nil {
			return errs.Wrap(err, "parse submission file")
		}

		result, err := svc.ExplodeSubmission(ctx, nc.ExplodeSubmissionInput{
			SubmissionID: payload.SubmissionID,
			MachineID:    payload.MachineID,
			TemplateID:   payload.TemplateID,
			User:         payload.User,
			Matricula:    payload.Matricula,
			CreatedAt:    payload.CreatedAt,
			Answers:      payload.Answers,
			Extras:       payload.Extras,
		})
		if err != nil {
			logging.Error(ctx, "submission explosion failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "explode submission")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "submission %s exploded into %d non-conformities\n",
			result.SubmissionID, len(result.CreatedIDs)); err != nil {
			return errs.Wrap(err, "write submit output")
		}
		for _, id := range result.CreatedIDs {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", id); err != nil {
				return errs.Wrap(err, "write submit output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().String("file", "", "Path to the submission JSON file")
}
