package httpapi

import (
	"context"
	"time"

	domainnc "fleetcheck/internal/domain/nc"
	usecasenc "fleetcheck/internal/usecase/nc"
)

// Service is the slice of the non-conformity usecases the HTTP layer needs.
// Declared here so handlers can be tested against a fake.
type Service interface {
	ExplodeSubmission(ctx context.Context, input usecasenc.ExplodeSubmissionInput) (usecasenc.ExplodeSubmissionResult, error)
	UpdateNC(ctx context.Context, input usecasenc.UpdateNCInput) (usecasenc.UpdateNCResult, error)
	GetNC(ctx context.Context, id string) (domainnc.NonConformity, error)
	ListAuditEntries(ctx context.Context, ncID string) ([]domainnc.AuditEntry, error)
	ComputeCompliance(ctx context.Context, ref time.Time) ([]domainnc.ComplianceRecord, error)
	ReduceKPIs(ctx context.Context, query usecasenc.KPIQuery) (domainnc.KPIReport, error)
}
