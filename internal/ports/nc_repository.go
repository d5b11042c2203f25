package ports

import (
	"context"
	"errors"
	"time"

	"fleetcheck/internal/domain/nc"
)

// Not-found sentinels are surfaced distinctly from validation rejections.
var (
	ErrNCNotFound         = errors.New("non-conformity not found")
	ErrMachineNotFound    = errors.New("machine not found")
	ErrTemplateNotFound   = errors.New("checklist template not found")
	ErrSubmissionNotFound = errors.New("checklist submission not found")
)

// AuditPageSize caps audit listings, newest first.
const AuditPageSize = 50

// MachineSnapshot is the reference-data projection of a machine, including
// the checklist templates bound to it.
type MachineSnapshot struct {
	ID          string
	Tag         string
	Model       string
	Sector      string
	TemplateIDs []string
}

// TemplateInfo is the reference-data projection of a checklist template.
type TemplateInfo struct {
	ID          string
	Name        string
	Periodicity *nc.PeriodicityRequirement
	Questions   []nc.TemplateQuestion
}

// KPIFilter scopes the batch read feeding the KPI reducer.
type KPIFilter struct {
	MachineID     string
	YearMonth     string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// ReferenceRepository covers the point lookups and windowed queries the
// usecases run before invoking the pure core.
type ReferenceRepository interface {
	GetMachine(ctx context.Context, id string) (MachineSnapshot, error)
	GetTemplate(ctx context.Context, id string) (TemplateInfo, error)
	// ListRecentNCInfo returns recurrence projections for one machine,
	// created after `after` and at or before `atOrBefore`, newest first.
	// The upper bound keeps backdated submissions from matching records
	// created later than they were.
	ListRecentNCInfo(ctx context.Context, machineID string, after, atOrBefore time.Time) ([]nc.ExistingNCInfo, error)
	// LastSubmissionAt returns the creation time of the most recent
	// submission for a (template, machine) pair at or before the instant,
	// or nil when none exists.
	LastSubmissionAt(ctx context.Context, templateID, machineID string, atOrBefore time.Time) (*time.Time, error)
	// ListPeriodicityPairs returns every (template, machine) pairing whose
	// template carries an active periodicity requirement.
	ListPeriodicityPairs(ctx context.Context) ([]nc.CompliancePair, error)
}

// NCRepository persists non-conformity records, submissions and the
// per-record audit sub-log.
type NCRepository interface {
	CreateSubmission(ctx context.Context, submission nc.ChecklistSubmission) error
	CreateNC(ctx context.Context, record nc.NonConformity) error
	GetNC(ctx context.Context, id string) (nc.NonConformity, error)
	UpdateNC(ctx context.Context, record nc.NonConformity) error
	ListNCs(ctx context.Context, filter KPIFilter) ([]nc.NonConformity, error)
	AppendAuditEntry(ctx context.Context, entry nc.AuditEntry) error
	// ListAuditEntries returns entries newest first, capped at AuditPageSize.
	// ErrNCNotFound when the record itself does not exist, distinguishing a
	// missing record from one with an empty log.
	ListAuditEntries(ctx context.Context, ncID string) ([]nc.AuditEntry, error)
}
