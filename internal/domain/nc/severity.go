package nc

import "time"

// DefaultSeverity applies everywhere a severity is read and found missing
// or unknown, not only at creation time.
const DefaultSeverity = SeverityMedia

// Closure deadline offsets, in calendar days from creation.
var dueOffsetDays = map[Severity]int{
	SeverityAlta:  2,
	SeverityMedia: 5,
	SeverityBaixa: 10,
}

var severityRanks = map[Severity]int{
	SeverityBaixa: 1,
	SeverityMedia: 2,
	SeverityAlta:  3,
}

// CanonicalSeverity maps unknown or empty severities to the default.
func CanonicalSeverity(s Severity) Severity {
	if _, ok := severityRanks[s]; !ok {
		return DefaultSeverity
	}
	return s
}

// Rank returns the numeric urgency of a severity: baixa=1, media=2, alta=3.
// Unknown severities rank as the default.
func Rank(s Severity) int {
	return severityRanks[CanonicalSeverity(s)]
}

// DueAt computes the default closure deadline for a severity using
// calendar-day arithmetic, so daylight-saving and month-boundary shifts
// behave as a date entered in a calendar would.
func DueAt(createdAt time.Time, severity Severity) time.Time {
	return createdAt.AddDate(0, 0, dueOffsetDays[CanonicalSeverity(severity)])
}

// altaDueCap is the latest deadline accepted for an alta non-conformity.
func altaDueCap(createdAt time.Time) time.Time {
	return createdAt.AddDate(0, 0, dueOffsetDays[SeverityAlta])
}

// ResolveRequestedDueAt validates a caller-requested deadline. Unparsable
// values, values before createdAt, and values beyond the alta cap all fall
// back to the default computed deadline for the severity.
func ResolveRequestedDueAt(createdAt time.Time, severity Severity, requested string) time.Time {
	severity = CanonicalSeverity(severity)
	def := DueAt(createdAt, severity)

	t, err := ParseTimestamp(requested)
	if err != nil {
		return def
	}
	if t.Before(createdAt) {
		return def
	}
	if severity == SeverityAlta && t.After(altaDueCap(createdAt)) {
		return def
	}
	return t
}

// ClampDueAt enforces the alta upper bound on an already-resolved deadline,
// for updates that change severity without requesting a new date.
func ClampDueAt(createdAt time.Time, severity Severity, dueAt time.Time) time.Time {
	severity = CanonicalSeverity(severity)
	if dueAt.IsZero() || dueAt.Before(createdAt) {
		return DueAt(createdAt, severity)
	}
	if severity == SeverityAlta && dueAt.After(altaDueCap(createdAt)) {
		return DueAt(createdAt, SeverityAlta)
	}
	return dueAt
}

// ParseTimestamp accepts RFC3339 (with or without sub-second precision)
// and bare dates, the two shapes inspection forms produce.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	_, err := time.Parse(time.RFC3339, value)
	return time.Time{}, err
}
