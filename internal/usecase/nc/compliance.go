package nc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fleetcheck/internal/bootstrap/logging"
	domainnc "fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
)

// ComputeCompliance evaluates every (template, machine) pairing with an
// active periodicity requirement against the reference instant (zero means
// now). Misconfigured pairs are logged and skipped; they never abort the
// batch.
func (s *Service) ComputeCompliance(ctx context.Context, ref time.Time) ([]domainnc.ComplianceRecord, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.refRepo == nil {
		return nil, errors.New("service is not fully wired")
	}

	if ref.IsZero() {
		ref = s.now()
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.nc"))

	pairs, err := s.refRepo.ListPeriodicityPairs(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list periodicity pairs")
	}

	for i := range pairs {
		lastAt, err := s.refRepo.LastSubmissionAt(ctx, pairs[i].TemplateID, pairs[i].MachineID, ref)
		if err != nil {
			return nil, errs.Wrapf(err, "last submission for (%s, %s)", pairs[i].TemplateID, pairs[i].MachineID)
		}
		pairs[i].LastSubmissionAt = lastAt
	}

	records, skipped := domainnc.EvaluateCompliance(pairs, ref)
	for _, skipErr := range skipped {
		logging.Warn(logCtx, "periodicity pair skipped", slog.Any("err", errs.Loggable(skipErr)))
	}

	logging.Info(logCtx, "compliance computed",
		slog.Int("pairs", len(records)),
		slog.Int("skipped", len(skipped)),
	)

	return records, nil
}
