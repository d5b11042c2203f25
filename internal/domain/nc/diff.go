package nc

import (
	"bytes"
	"encoding/json"
	"time"
)

// FieldChange records one field's previous and new value.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Diff is a field-level change set, keyed by field name, restricted to
// fields that actually changed.
type Diff map[string]FieldChange

func (d Diff) set(field string, from, to any) {
	d[field] = FieldChange{From: from, To: to}
}

// computeDiff compares the mutable surface of two records. updatedAt is
// appended by the caller only when the substantive diff is non-empty.
func computeDiff(before, after NonConformity) Diff {
	diff := Diff{}

	if before.Status != after.Status {
		diff.set("status", before.Status, after.Status)
	}
	if before.Severity != after.Severity {
		diff.set("severity", before.Severity, after.Severity)
	}
	if before.SeverityRank != after.SeverityRank {
		diff.set("severityRank", before.SeverityRank, after.SeverityRank)
	}
	if !before.DueAt.Equal(after.DueAt) {
		diff.set("dueAt", formatTime(before.DueAt), formatTime(after.DueAt))
	}
	if before.RootCause != after.RootCause {
		diff.set("rootCause", before.RootCause, after.RootCause)
	}
	if before.SafetyRisk != after.SafetyRisk {
		diff.set("safetyRisk", before.SafetyRisk, after.SafetyRisk)
	}
	if before.ImpactAvailability != after.ImpactAvailability {
		diff.set("impactAvailability", before.ImpactAvailability, after.ImpactAvailability)
	}
	if !actionsEqual(before.Actions, after.Actions) {
		diff.set("actions", before.Actions, after.Actions)
	}
	if !bytes.Equal(before.Telemetry, after.Telemetry) {
		diff.set("telemetryRef", json.RawMessage(before.Telemetry), json.RawMessage(after.Telemetry))
	}

	return diff
}

func actionsEqual(a, b []Action) bool {
	if len(a) != len(b) {
		return false
	}
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
