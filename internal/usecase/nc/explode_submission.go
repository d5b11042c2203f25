package nc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"fleetcheck/internal/bootstrap/logging"
	domainnc "fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
)

var (
	errMachineIDRequired  = errors.New("machine id is required")
	errTemplateIDRequired = errors.New("template id is required")
)

// ExplodeSubmission persists a checklist submission and the non-conformity
// records derived from it, in one transaction. Telemetry failures degrade
// to a nil snapshot and never abort the explosion.
func (s *Service) ExplodeSubmission(ctx context.Context, input ExplodeSubmissionInput) (ExplodeSubmissionResult, error) {
	if ctx == nil {
		return ExplodeSubmissionResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ExplodeSubmissionResult{}, errs.Wrap(err, "check context")
	}
	if s.refRepo == nil || s.ncRepo == nil || s.uow == nil {
		return ExplodeSubmissionResult{}, errors.New("service is not fully wired")
	}
	if strings.TrimSpace(input.MachineID) == "" {
		return ExplodeSubmissionResult{}, errMachineIDRequired
	}
	if strings.TrimSpace(input.TemplateID) == "" {
		return ExplodeSubmissionResult{}, errTemplateIDRequired
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.nc"),
		slog.String("machine_id", input.MachineID),
		slog.String("template_id", input.TemplateID),
	)

	createdAt := s.now()
	if trimmed := strings.TrimSpace(input.CreatedAt); trimmed != "" {
		if parsed, err := domainnc.ParseTimestamp(trimmed); err == nil {
			createdAt = parsed
		} else {
			logging.Warn(logCtx, "submission timestamp unparsable, defaulting to now",
				slog.String("created_at", trimmed))
		}
	}

	machine, err := s.refRepo.GetMachine(ctx, input.MachineID)
	if err != nil {
		return ExplodeSubmissionResult{}, err
	}
	template, err := s.refRepo.GetTemplate(ctx, input.TemplateID)
	if err != nil {
		return ExplodeSubmissionResult{}, err
	}

	questions := make(map[string]domainnc.TemplateQuestion, len(template.Questions))
	for _, question := range template.Questions {
		questions[question.ID] = question
	}

	// The window trails the submission's own timestamp: a backdated
	// submission must only see records that existed by then.
	windowStart := createdAt.AddDate(0, 0, -domainnc.RecurrenceLookbackDays)
	recentWindow, err := s.refRepo.ListRecentNCInfo(ctx, input.MachineID, windowStart, createdAt)
	if err != nil {
		return ExplodeSubmissionResult{}, errs.Wrap(err, "load recurrence window")
	}

	telemetrySnapshot := s.fetchTelemetryBestEffort(logCtx, input.MachineID, createdAt)

	submissionID := strings.TrimSpace(input.SubmissionID)
	if submissionID == "" {
		submissionID = s.newID()
	}

	submission := domainnc.ChecklistSubmission{
		ID:         submissionID,
		MachineID:  input.MachineID,
		TemplateID: input.TemplateID,
		User:       input.User,
		Matricula:  input.Matricula,
		CreatedAt:  createdAt,
		Answers:    input.Answers,
		Extras:     input.Extras,
	}

	records := domainnc.Explode(domainnc.ExplodeInput{
		Submission: submission,
		Machine: domainnc.AssetSnapshot{
			ID:     machine.ID,
			Tag:    machine.Tag,
			Model:  machine.Model,
			Sector: machine.Sector,
		},
		Questions:    questions,
		RecentWindow: recentWindow,
		Telemetry:    telemetrySnapshot,
		Matcher:      s.matcher,
		NewID:        s.newID,
		Now:          createdAt,
	})

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.ncRepo.CreateSubmission(txCtx, submission); err != nil {
			return err
		}
		for _, record := range records {
			if err := s.ncRepo.CreateNC(txCtx, record); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return ExplodeSubmissionResult{}, err
	}

	createdIDs := make([]string, 0, len(records))
	for _, record := range records {
		createdIDs = append(createdIDs, record.ID)
	}

	logging.Info(logCtx, "submission exploded",
		slog.String("submission_id", submissionID),
		slog.Int("non_conformities", len(createdIDs)),
	)

	s.invalidateReportCaches(ctx)

	return ExplodeSubmissionResult{
		SubmissionID: submissionID,
		CreatedIDs:   createdIDs,
	}, nil
}

// fetchTelemetryBestEffort returns nil on any failure: absence of telemetry
// degrades gracefully and must never abort non-conformity creation.
func (s *Service) fetchTelemetryBestEffort(ctx context.Context, machineID string, at time.Time) json.RawMessage {
	if s.telemetry == nil {
		return nil
	}

	snapshot, err := s.telemetry.Snapshot(ctx, machineID, at)
	if err != nil {
		logging.Warn(ctx, "telemetry snapshot unavailable", slog.Any("err", errs.Loggable(err)))
		return nil
	}
	return snapshot
}
