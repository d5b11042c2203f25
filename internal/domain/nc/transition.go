package nc

import (
	"encoding/json"
	"strings"
	"time"
)

// Patch is the typed form of an update request. A nil field means
// "unchanged"; Actions, when non-empty, fully replaces the previous list
// (full-replace semantics, not a merge). RootCause pointing at an empty
// string clears the field.
type Patch struct {
	Status             *Status
	Severity           *Severity
	DueAt              *string
	RootCause          *string
	Actions            []Action
	SafetyRisk         *bool
	ImpactAvailability *bool
	Telemetry          json.RawMessage
}

// Transition is the outcome of an accepted update. When NoOp is true the
// request resolved to the current state: Updated equals the input record,
// Diff is empty, and no audit entry must be written.
type Transition struct {
	Updated NonConformity
	Diff    Diff
	NoOp    bool
}

var validStatuses = map[Status]struct{}{
	StatusAberta:         {},
	StatusEmExecucao:     {},
	StatusAguardandoPeca: {},
	StatusBloqueada:      {},
	StatusResolvida:      {},
}

// ApplyTransition validates a patch against the lifecycle rules and returns
// the fully resolved next state plus a field-level diff. It never persists
// anything; the caller owns read-then-write atomicity.
func ApplyTransition(existing NonConformity, patch Patch, now time.Time) (Transition, error) {
	next := existing

	next.Severity = CanonicalSeverity(existing.Severity)
	if patch.Severity != nil {
		next.Severity = CanonicalSeverity(*patch.Severity)
	}
	next.SeverityRank = Rank(next.Severity)

	if patch.Status != nil {
		requested := *patch.Status
		if _, ok := validStatuses[requested]; !ok {
			return Transition{}, ErrInvalidStatus
		}
		if existing.Status == StatusResolvida && requested != StatusResolvida {
			return Transition{}, ErrResolvedImmutable
		}
		next.Status = requested
	}

	if patch.DueAt != nil {
		next.DueAt = ResolveRequestedDueAt(existing.CreatedAt, next.Severity, *patch.DueAt)
	} else {
		next.DueAt = ClampDueAt(existing.CreatedAt, next.Severity, existing.DueAt)
	}

	if patch.RootCause != nil {
		next.RootCause = strings.TrimSpace(*patch.RootCause)
	}
	if len(patch.Actions) > 0 {
		next.Actions = patch.Actions
	}
	if patch.SafetyRisk != nil {
		next.SafetyRisk = *patch.SafetyRisk
	}
	if patch.ImpactAvailability != nil {
		next.ImpactAvailability = *patch.ImpactAvailability
	}
	if patch.Telemetry != nil {
		next.Telemetry = patch.Telemetry
	}

	// The gate holds whenever the next state is resolvida, not only on
	// entry: a full-replace actions patch must not strip the closure
	// evidence from an already-resolved record.
	if next.Status == StatusResolvida {
		if err := checkResolutionGate(next); err != nil {
			return Transition{}, err
		}
	}

	diff := computeDiff(existing, next)
	if len(diff) == 0 {
		return Transition{Updated: existing, Diff: diff, NoOp: true}, nil
	}

	next.UpdatedAt = now
	diff.set("updatedAt", formatTime(existing.UpdatedAt), formatTime(next.UpdatedAt))

	return Transition{Updated: next, Diff: diff}, nil
}

// checkResolutionGate enforces CAPA gating on any state resolving to resolvida.
func checkResolutionGate(next NonConformity) error {
	if !hasCompletedCorrective(next.Actions) {
		return ErrMissingCorrectiveClosure
	}
	if next.RecurrenceOfID == "" {
		return nil
	}
	if next.RootCause == "" {
		return ErrMissingRootCause
	}
	if !hasEffectivePreventive(next.Actions) {
		return ErrMissingEffectivePreventive
	}
	return nil
}

func hasCompletedCorrective(actions []Action) bool {
	for _, action := range actions {
		if action.Type == ActionCorretiva && action.CompletedAt != nil {
			return true
		}
	}
	return false
}

func hasEffectivePreventive(actions []Action) bool {
	for _, action := range actions {
		if action.Type == ActionPreventiva && action.Effective != nil && *action.Effective {
			return true
		}
	}
	return false
}
