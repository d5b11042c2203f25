package nc

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fleetcheck/internal/bootstrap/logging"
	domainnc "fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
)

var (
	errNCIDRequired  = errors.New("non-conformity id is required")
	errActorRequired = errors.New("actor is required")
)

// UpdateNC applies one state-machine transition inside a transaction and
// appends exactly one audit entry when the transition changed anything.
// CAPA gating rejections surface as the domain sentinel errors.
func (s *Service) UpdateNC(ctx context.Context, input UpdateNCInput) (UpdateNCResult, error) {
	if ctx == nil {
		return UpdateNCResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return UpdateNCResult{}, errs.Wrap(err, "check context")
	}
	if s.ncRepo == nil || s.uow == nil {
		return UpdateNCResult{}, errors.New("service is not fully wired")
	}
	if strings.TrimSpace(input.NCID) == "" {
		return UpdateNCResult{}, errNCIDRequired
	}
	if strings.TrimSpace(input.Actor.ID) == "" && strings.TrimSpace(input.Actor.Name) == "" {
		return UpdateNCResult{}, errActorRequired
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.nc"),
		slog.String("nc_id", input.NCID),
		slog.String("actor_id", input.Actor.ID),
	)

	now := s.now()
	var result UpdateNCResult
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.ncRepo.GetNC(txCtx, input.NCID)
		if err != nil {
			return err
		}

		transition, err := domainnc.ApplyTransition(existing, input.Patch, now)
		if err != nil {
			return err
		}

		result = UpdateNCResult{
			Updated: transition.Updated,
			Diff:    transition.Diff,
			NoOp:    transition.NoOp,
		}
		if transition.NoOp {
			// Nothing changed: no write, no audit entry.
			return nil
		}

		if err := s.ncRepo.UpdateNC(txCtx, transition.Updated); err != nil {
			return err
		}
		return s.ncRepo.AppendAuditEntry(txCtx, domainnc.AuditEntry{
			ID:        s.newID(),
			NCID:      existing.ID,
			Actor:     input.Actor,
			CreatedAt: now,
			Diff:      transition.Diff,
		})
	}); err != nil {
		return UpdateNCResult{}, err
	}

	if result.NoOp {
		logging.Info(logCtx, "update resolved to current state, no audit entry written")
		return result, nil
	}

	logging.Info(logCtx, "non-conformity updated",
		slog.Int("changed_fields", len(result.Diff)),
		slog.String("status", string(result.Updated.Status)),
	)

	s.invalidateReportCaches(ctx)

	return result, nil
}
