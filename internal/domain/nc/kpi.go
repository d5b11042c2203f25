package nc

import (
	"fmt"
	"time"
)

// KPIReport is the fleet-wide aggregate derived from a batch of records.
// All rates use the same denominator rule: records excluded from a metric
// are excluded from both numerator and denominator.
type KPIReport struct {
	Total          int              `json:"total"`
	OpenBySeverity map[Severity]int `json:"openBySeverity"`

	// Resolution metrics over records closed within Month ("2006-01").
	Month         string  `json:"month,omitempty"`
	ClosedInMonth int     `json:"closedInMonth"`
	OnTimePct     float64 `json:"onTimePct"`

	// RecurrenceRate is the fraction of the batch carrying a recurrence
	// link. The caller scopes the batch to the window of interest.
	RecurrenceRate float64 `json:"recurrenceRate"`

	MeanContainmentHours float64 `json:"meanContainmentHours"`
	MeanResolutionHours  float64 `json:"meanResolutionHours"`

	ByRootCause      map[string]int `json:"byRootCause"`
	BySystemCategory map[string]int `json:"bySystemCategory"`

	DailyOpened  map[string]int `json:"dailyOpened"`
	DailyClosed  map[string]int `json:"dailyClosed"`
	WeeklyOpened map[string]int `json:"weeklyOpened"`
	WeeklyClosed map[string]int `json:"weeklyClosed"`
}

// ReduceKPIs is a pure reduction over an in-memory batch; it performs no
// query logic. month filters the on-time metric ("2006-01", empty means
// all closures count). Records without a creation timestamp are skipped
// from every time-based metric.
func ReduceKPIs(records []NonConformity, month string) KPIReport {
	report := KPIReport{
		Month:            month,
		OpenBySeverity:   map[Severity]int{},
		ByRootCause:      map[string]int{},
		BySystemCategory: map[string]int{},
		DailyOpened:      map[string]int{},
		DailyClosed:      map[string]int{},
		WeeklyOpened:     map[string]int{},
		WeeklyClosed:     map[string]int{},
	}

	recurrenceDenominator := 0
	recurrenceHits := 0
	onTime := 0
	containmentHours := 0.0
	containmentCount := 0
	resolutionHours := 0.0
	resolutionCount := 0

	for _, record := range records {
		if record.CreatedAt.IsZero() {
			continue
		}
		report.Total++

		if record.Status != StatusResolvida {
			report.OpenBySeverity[CanonicalSeverity(record.Severity)]++
		}

		recurrenceDenominator++
		if record.RecurrenceOfID != "" {
			recurrenceHits++
		}

		if cause := record.RootCause; cause != "" {
			report.ByRootCause[cause]++
		}
		if category := record.SystemCategory; category != "" {
			report.BySystemCategory[category]++
		}

		report.DailyOpened[record.CreatedAt.Format("2006-01-02")]++
		report.WeeklyOpened[weekBucket(record.CreatedAt)]++

		if startedAt := firstCorrectiveStart(record.Actions); startedAt != nil {
			containmentHours += startedAt.Sub(record.CreatedAt).Hours()
			containmentCount++
		}

		closedAt := firstCorrectiveCompletion(record.Actions)
		if closedAt == nil {
			continue
		}

		report.DailyClosed[closedAt.Format("2006-01-02")]++
		report.WeeklyClosed[weekBucket(*closedAt)]++

		resolutionHours += closedAt.Sub(record.CreatedAt).Hours()
		resolutionCount++

		if month != "" && closedAt.Format("2006-01") != month {
			continue
		}
		report.ClosedInMonth++
		if !closedAt.After(record.DueAt) {
			onTime++
		}
	}

	if report.ClosedInMonth > 0 {
		report.OnTimePct = 100 * float64(onTime) / float64(report.ClosedInMonth)
	}
	if recurrenceDenominator > 0 {
		report.RecurrenceRate = float64(recurrenceHits) / float64(recurrenceDenominator)
	}
	if containmentCount > 0 {
		report.MeanContainmentHours = containmentHours / float64(containmentCount)
	}
	if resolutionCount > 0 {
		report.MeanResolutionHours = resolutionHours / float64(resolutionCount)
	}

	return report
}

// firstCorrectiveStart returns the started-at of the first corrective
// action that has one, in list order.
func firstCorrectiveStart(actions []Action) *time.Time {
	for _, action := range actions {
		if action.Type == ActionCorretiva && action.StartedAt != nil {
			return action.StartedAt
		}
	}
	return nil
}

// firstCorrectiveCompletion defines "closed": the completed-at of the
// first corrective action that has one, in list order.
func firstCorrectiveCompletion(actions []Action) *time.Time {
	for _, action := range actions {
		if action.Type == ActionCorretiva && action.CompletedAt != nil {
			return action.CompletedAt
		}
	}
	return nil
}

// weekBucket numbers weeks from the start of the calendar year:
// week = ceil((daysSinceJan1 + jan1Weekday + 1) / 7). This is not
// ISO-8601 week numbering.
func weekBucket(t time.Time) string {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	daysSinceJan1 := t.YearDay() - 1
	week := (daysSinceJan1 + int(jan1.Weekday()) + 1 + 6) / 7
	return fmt.Sprintf("%d-W%02d", t.Year(), week)
}
