package nc

import (
	"context"
	"errors"
	"strings"

	domainnc "fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
)

// GetNC returns one record by id.
func (s *Service) GetNC(ctx context.Context, id string) (domainnc.NonConformity, error) {
	if ctx == nil {
		return domainnc.NonConformity{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return domainnc.NonConformity{}, errs.Wrap(err, "check context")
	}
	if s.ncRepo == nil {
		return domainnc.NonConformity{}, errors.New("service is not fully wired")
	}
	if strings.TrimSpace(id) == "" {
		return domainnc.NonConformity{}, errNCIDRequired
	}

	return s.ncRepo.GetNC(ctx, id)
}

// ListAuditEntries returns the audit sub-log of one record, newest first,
// capped at the fixed page size.
func (s *Service) ListAuditEntries(ctx context.Context, ncID string) ([]domainnc.AuditEntry, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.ncRepo == nil {
		return nil, errors.New("service is not fully wired")
	}
	if strings.TrimSpace(ncID) == "" {
		return nil, errNCIDRequired
	}

	// The repository surfaces not-found distinctly from an empty log.
	return s.ncRepo.ListAuditEntries(ctx, ncID)
}
