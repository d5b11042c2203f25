package nc

import (
	"time"

	"github.com/google/uuid"

	domainnc "fleetcheck/internal/domain/nc"
	"fleetcheck/internal/ports"
)

// Service wires the non-conformity usecases with repositories, the unit of
// work and the optional cache/telemetry collaborators. All I/O happens
// here; the domain package stays pure.
type Service struct {
	refRepo   ports.ReferenceRepository
	ncRepo    ports.NCRepository
	uow       ports.UnitOfWork
	cache     ports.Cache
	telemetry ports.TelemetryProvider
	matcher   domainnc.RecurrenceMatcher

	// Overridable for deterministic tests.
	newID func() string
	now   func() time.Time
}

func NewService(
	refRepo ports.ReferenceRepository,
	ncRepo ports.NCRepository,
	uow ports.UnitOfWork,
	cache ports.Cache,
	telemetry ports.TelemetryProvider,
) *Service {
	return &Service{
		refRepo:   refRepo,
		ncRepo:    ncRepo,
		uow:       uow,
		cache:     cache,
		telemetry: telemetry,
		matcher:   domainnc.CategoryTitleMatcher{},
		newID:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ExplodeSubmissionInput is a submission snapshot as delivered by the
// inspection form or the event stream. CreatedAt may be empty or garbage;
// it defaults to now.
type ExplodeSubmissionInput struct {
	SubmissionID string
	MachineID    string
	TemplateID   string
	User         domainnc.Actor
	Matricula    string
	CreatedAt    string
	Answers      []domainnc.Answer
	Extras       []domainnc.ExtraNonConformity
}

// ExplodeSubmissionResult reports what the explosion produced.
type ExplodeSubmissionResult struct {
	SubmissionID string
	CreatedIDs   []string
}

// UpdateNCInput is one operator-initiated mutation request.
type UpdateNCInput struct {
	NCID  string
	Actor domainnc.Actor
	Patch domainnc.Patch
}

// UpdateNCResult carries the resolved record; NoOp is true when the request
// matched the current state and no audit entry was written.
type UpdateNCResult struct {
	Updated domainnc.NonConformity
	Diff    domainnc.Diff
	NoOp    bool
}

// KPIQuery scopes the KPI batch read.
type KPIQuery struct {
	MachineID string
	Month     string
	From      *time.Time
	To        *time.Time
}
