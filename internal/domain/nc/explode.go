package nc

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ExplodeInput carries one submission plus the reference data the caller
// fetched beforehand. Explode itself performs no I/O.
type ExplodeInput struct {
	Submission ChecklistSubmission
	Machine    AssetSnapshot
	// Questions maps question id to template metadata. Answers referencing
	// unknown ids degrade to a placeholder title instead of aborting.
	Questions map[string]TemplateQuestion
	// RecentWindow holds the asset's non-conformities from the trailing
	// lookback window, in the order recurrence matching should scan them.
	RecentWindow []ExistingNCInfo
	Telemetry    json.RawMessage
	Matcher      RecurrenceMatcher
	// NewID mints record ids (typically uuid.NewString).
	NewID func() string
	// Now is used when the submission carries no creation timestamp.
	Now time.Time
}

// Explode derives zero or more non-conformity records from a checklist
// submission: one per failed question, one per non-empty extra entry.
// A submission with no failures is a normal outcome, not an error.
func Explode(in ExplodeInput) []NonConformity {
	createdAt := in.Submission.CreatedAt
	if createdAt.IsZero() {
		createdAt = in.Now
	}

	matcher := in.Matcher
	if matcher == nil {
		matcher = CategoryTitleMatcher{}
	}

	var out []NonConformity
	for _, answer := range in.Submission.Answers {
		if answer.Response != ResponseNC {
			continue
		}

		title := ""
		systemCategory := ""
		if question, ok := in.Questions[answer.QuestionID]; ok {
			title = strings.TrimSpace(question.Prompt)
			systemCategory = strings.TrimSpace(question.SystemCategory)
		}
		if title == "" {
			title = fmt.Sprintf("Item de checklist %s", answer.QuestionID)
		}

		record := in.newRecord(createdAt, candidateInput{
			Title:          title,
			Description:    strings.TrimSpace(answer.Observation),
			Severity:       DefaultSeverity,
			Source:         SourceChecklistQuestion,
			QuestionID:     answer.QuestionID,
			SystemCategory: systemCategory,
		}, matcher)
		out = append(out, record)
	}

	for _, extra := range in.Submission.Extras {
		title := strings.TrimSpace(extra.Title)
		if title == "" {
			continue
		}

		record := in.newRecord(createdAt, candidateInput{
			Title:              title,
			Description:        strings.TrimSpace(extra.Description),
			Severity:           CanonicalSeverity(extra.Severity),
			Source:             SourceChecklistExtra,
			SafetyRisk:         extra.SafetyRisk,
			ImpactAvailability: extra.ImpactAvailability,
		}, matcher)
		out = append(out, record)
	}

	return out
}

type candidateInput struct {
	Title              string
	Description        string
	Severity           Severity
	Source             Source
	QuestionID         string
	SystemCategory     string
	SafetyRisk         bool
	ImpactAvailability bool
}

func (in ExplodeInput) newRecord(createdAt time.Time, c candidateInput, matcher RecurrenceMatcher) NonConformity {
	normalized := Normalize(c.Title)

	recurrenceOf := ""
	if id, ok := matcher.Match(RecurrenceCandidate{
		NormalizedTitle: normalized,
		SystemCategory:  c.SystemCategory,
	}, in.RecentWindow); ok {
		recurrenceOf = id
	}

	id := ""
	if in.NewID != nil {
		id = in.NewID()
	}

	return NonConformity{
		ID:                 id,
		Title:              c.Title,
		Description:        c.Description,
		Severity:           c.Severity,
		SeverityRank:       Rank(c.Severity),
		Status:             StatusAberta,
		SafetyRisk:         c.SafetyRisk,
		ImpactAvailability: c.ImpactAvailability,
		DueAt:              DueAt(createdAt, c.Severity),
		CreatedAt:          createdAt,
		CreatedBy:          in.Submission.User,
		Asset:              in.Machine,
		TemplateID:         in.Submission.TemplateID,
		Source:             c.Source,
		OriginSubmissionID: in.Submission.ID,
		OriginQuestionID:   c.QuestionID,
		Actions:            nil,
		RecurrenceOfID:     recurrenceOf,
		Telemetry:          in.Telemetry,
		YearMonth:          createdAt.Format("2006-01"),
		NormalizedTitle:    normalized,
		SystemCategory:     c.SystemCategory,
		UpdatedAt:          createdAt,
	}
}
