package nc

import (
	"fmt"
	"sort"
	"time"
)

// ComplianceStatus is the outcome of a periodicity check.
type ComplianceStatus string

const (
	Compliant    ComplianceStatus = "compliant"
	NonCompliant ComplianceStatus = "non_compliant"
)

// CompliancePair is one (template, machine) pairing with an active
// periodicity requirement, plus the most recent qualifying submission
// the caller found for it.
type CompliancePair struct {
	TemplateID       string
	TemplateName     string
	MachineID        string
	MachineName      string
	Requirement      PeriodicityRequirement
	LastSubmissionAt *time.Time
}

// ComplianceRecord is the evaluated result for one pair.
type ComplianceRecord struct {
	TemplateID         string           `json:"templateId"`
	TemplateName       string           `json:"templateName"`
	MachineID          string           `json:"machineId"`
	MachineName        string           `json:"machineName"`
	RequiredWindowDays int              `json:"requiredWindowDays"`
	LastSubmissionAt   *time.Time       `json:"lastSubmissionAt,omitempty"`
	Status             ComplianceStatus `json:"status"`
}

// WindowDays normalizes the requirement to a day count. The week and month
// conversions are approximate (7 and 30 days), not calendar-accurate.
func (r PeriodicityRequirement) WindowDays() (int, error) {
	if r.Quantity <= 0 {
		return 0, fmt.Errorf("%w: quantity %d", ErrInvalidPeriodicityUnit, r.Quantity)
	}
	switch r.Unit {
	case UnitDay:
		return r.Quantity, nil
	case UnitWeek:
		return 7 * r.Quantity, nil
	case UnitMonth:
		return 30 * r.Quantity, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPeriodicityUnit, r.Unit)
	}
}

// EvaluateCompliancePair checks one pair against a reference instant.
// Absence of any qualifying submission is always non_compliant.
func EvaluateCompliancePair(pair CompliancePair, ref time.Time) (ComplianceRecord, error) {
	windowDays, err := pair.Requirement.WindowDays()
	if err != nil {
		return ComplianceRecord{}, err
	}

	record := ComplianceRecord{
		TemplateID:         pair.TemplateID,
		TemplateName:       pair.TemplateName,
		MachineID:          pair.MachineID,
		MachineName:        pair.MachineName,
		RequiredWindowDays: windowDays,
		LastSubmissionAt:   pair.LastSubmissionAt,
		Status:             NonCompliant,
	}

	if pair.LastSubmissionAt != nil {
		elapsed := ref.Sub(*pair.LastSubmissionAt)
		if elapsed <= time.Duration(windowDays)*24*time.Hour {
			record.Status = Compliant
		}
	}
	return record, nil
}

// EvaluateCompliance evaluates every pair, skipping misconfigured ones
// instead of aborting the batch. Skipped pairs are reported back so the
// caller can log them; they are excluded from the result entirely.
func EvaluateCompliance(pairs []CompliancePair, ref time.Time) ([]ComplianceRecord, []error) {
	records := make([]ComplianceRecord, 0, len(pairs))
	var skipped []error
	for _, pair := range pairs {
		record, err := EvaluateCompliancePair(pair, ref)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("pair (%s, %s): %w", pair.TemplateID, pair.MachineID, err))
			continue
		}
		records = append(records, record)
	}
	SortComplianceRecords(records)
	return records, skipped
}

// SortComplianceRecords applies the presentation order: non_compliant
// first, then template name, then machine name. The order is deterministic
// regardless of how the pairs were evaluated.
func SortComplianceRecords(records []ComplianceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Status != records[j].Status {
			return records[i].Status == NonCompliant
		}
		if records[i].TemplateName != records[j].TemplateName {
			return records[i].TemplateName < records[j].TemplateName
		}
		return records[i].MachineName < records[j].MachineName
	})
}
