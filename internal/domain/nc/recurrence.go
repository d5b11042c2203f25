package nc

import "strings"

// RecurrenceLookbackDays bounds the window of earlier records a candidate
// is matched against. Callers pre-filter by asset and this window.
const RecurrenceLookbackDays = 30

// RecurrenceCandidate is the matching key of a new non-conformity.
type RecurrenceCandidate struct {
	NormalizedTitle string
	SystemCategory  string
}

// RecurrenceMatcher decides whether a candidate repeats an earlier record
// and returns the earlier record's id. Kept as a swappable strategy so a
// stricter matcher (fuzzy title similarity, for example) can replace the
// default without touching the exploder.
type RecurrenceMatcher interface {
	Match(candidate RecurrenceCandidate, window []ExistingNCInfo) (string, bool)
}

// CategoryTitleMatcher is the default strategy: equal non-empty system
// categories match regardless of wording; otherwise exact equality of
// normalized titles. First match in caller-supplied order wins.
//
// This is a heuristic, not a guarantee: two unrelated failures sharing a
// category tag are linked as recurrence.
type CategoryTitleMatcher struct{}

func (CategoryTitleMatcher) Match(candidate RecurrenceCandidate, window []ExistingNCInfo) (string, bool) {
	category := strings.TrimSpace(candidate.SystemCategory)
	title := strings.TrimSpace(candidate.NormalizedTitle)

	for _, existing := range window {
		existingCategory := strings.TrimSpace(existing.SystemCategory)
		if category != "" && existingCategory != "" {
			if category == existingCategory {
				return existing.ID, true
			}
			continue
		}
		if title != "" && title == strings.TrimSpace(existing.NormalizedTitle) {
			return existing.ID, true
		}
	}
	return "", false
}
