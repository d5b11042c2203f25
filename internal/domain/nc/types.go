package nc

import (
	"encoding/json"
	"time"
)

// Severity levels follow the inspection-form vocabulary.
type Severity string

const (
	SeverityBaixa Severity = "baixa"
	SeverityMedia Severity = "media"
	SeverityAlta  Severity = "alta"
)

// Status is the lifecycle state of a non-conformity. Any non-resolved
// status may move to any other non-resolved status; only entry into
// StatusResolvida is gated (see ApplyTransition).
type Status string

const (
	StatusAberta         Status = "aberta"
	StatusEmExecucao     Status = "em_execucao"
	StatusAguardandoPeca Status = "aguardando_peca"
	StatusBloqueada      Status = "bloqueada"
	StatusResolvida      Status = "resolvida"
)

// Response is a single checklist answer outcome.
type Response string

const (
	ResponseOK Response = "ok"
	ResponseNC Response = "nc"
	ResponseNA Response = "na"
)

// Source identifies how a non-conformity was created.
type Source string

const (
	SourceChecklistQuestion Source = "checklist_question"
	SourceChecklistExtra    Source = "checklist_extra"
)

// ActionType distinguishes corrective from preventive actions.
type ActionType string

const (
	ActionCorretiva  ActionType = "corretiva"
	ActionPreventiva ActionType = "preventiva"
)

// Actor is the identity attached to a mutating operation. It is used
// for audit attribution only; no authorization happens in this package.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Action is one corrective or preventive step attached to a non-conformity.
// Effective is meaningful only for preventiva entries.
type Action struct {
	ID          string     `json:"id"`
	Type        ActionType `json:"type"`
	Description string     `json:"description"`
	Owner       *Actor     `json:"owner,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Effective   *bool      `json:"effective,omitempty"`
}

// AssetSnapshot is the machine identity frozen into a non-conformity
// at creation time.
type AssetSnapshot struct {
	ID     string `json:"id"`
	Tag    string `json:"tag"`
	Model  string `json:"model"`
	Sector string `json:"sector"`
}

// Answer is one checklist question response.
type Answer struct {
	QuestionID  string   `json:"questionId"`
	Response    Response `json:"response"`
	Observation string   `json:"observation,omitempty"`
	PhotoRefs   []string `json:"photoRefs,omitempty"`
}

// ExtraNonConformity is a free-form issue reported alongside a checklist,
// outside the template's question list.
type ExtraNonConformity struct {
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	Severity           Severity `json:"severity,omitempty"`
	SafetyRisk         bool     `json:"safetyRisk"`
	ImpactAvailability bool     `json:"impactAvailability"`
}

// ChecklistSubmission is an immutable inspection snapshot. The core never
// mutates it after creation.
type ChecklistSubmission struct {
	ID        string               `json:"id"`
	MachineID string               `json:"machineId"`
	TemplateID string              `json:"templateId"`
	User      Actor                `json:"user"`
	Matricula string               `json:"matricula,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	Answers   []Answer             `json:"answers"`
	Extras    []ExtraNonConformity `json:"extras,omitempty"`
}

// TemplateQuestion is the template-side metadata for one checklist item.
type TemplateQuestion struct {
	ID             string `json:"id"`
	Prompt         string `json:"prompt"`
	SystemCategory string `json:"systemCategory,omitempty"`
	PhotoRule      string `json:"photoRule,omitempty"`
}

// PeriodicityUnit is the unit of a minimum-submission-frequency window.
type PeriodicityUnit string

const (
	UnitDay   PeriodicityUnit = "day"
	UnitWeek  PeriodicityUnit = "week"
	UnitMonth PeriodicityUnit = "month"
)

// PeriodicityRequirement is the minimum submission cadence configured on a
// checklist template, checked per (template, machine) pair.
type PeriodicityRequirement struct {
	Quantity int             `json:"quantity"`
	Unit     PeriodicityUnit `json:"unit"`
	Active   bool            `json:"active"`
}

// ExistingNCInfo is the projection of an earlier non-conformity used by
// recurrence matching. Callers pre-filter by asset and lookback window.
type ExistingNCInfo struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"createdAt"`
	NormalizedTitle string    `json:"normalizedTitle"`
	SystemCategory  string    `json:"systemCategory,omitempty"`
}

// NonConformity is the central mutable record. It is created by Explode
// and mutated only through ApplyTransition.
type NonConformity struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description,omitempty"`
	Severity           Severity        `json:"severity"`
	SeverityRank       int             `json:"severityRank"`
	Status             Status          `json:"status"`
	SafetyRisk         bool            `json:"safetyRisk"`
	ImpactAvailability bool            `json:"impactAvailability"`
	DueAt              time.Time       `json:"dueAt"`
	CreatedAt          time.Time       `json:"createdAt"`
	CreatedBy          Actor           `json:"createdBy"`
	Asset              AssetSnapshot   `json:"asset"`
	TemplateID         string          `json:"templateId,omitempty"`
	Source             Source          `json:"source"`
	OriginSubmissionID string          `json:"originSubmissionId,omitempty"`
	OriginQuestionID   string          `json:"originQuestionId,omitempty"`
	RootCause          string          `json:"rootCause,omitempty"`
	Actions            []Action        `json:"actions"`
	RecurrenceOfID     string          `json:"recurrenceOfId,omitempty"`
	Telemetry          json.RawMessage `json:"telemetry,omitempty"`
	YearMonth          string          `json:"yearMonth"`
	NormalizedTitle    string          `json:"normalizedTitle"`
	SystemCategory     string          `json:"systemCategory,omitempty"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// AuditEntry records one accepted mutation of a non-conformity.
type AuditEntry struct {
	ID        string    `json:"id"`
	NCID      string    `json:"ncId"`
	Actor     Actor     `json:"actor"`
	CreatedAt time.Time `json:"createdAt"`
	Diff      Diff      `json:"diff"`
}
