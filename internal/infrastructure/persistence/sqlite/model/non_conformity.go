package model

// NonConformity carries the derived columns (year_month, severity_rank,
// normalized_title, system_category) the windowed queries filter on; the
// actions list and telemetry snapshot stay opaque JSON.
type NonConformity struct {
	NCID               string  `gorm:"column:nc_id;primaryKey"`
	Title              string  `gorm:"column:title;type:text;not null"`
	Description        string  `gorm:"column:description;type:text"`
	Severity           string  `gorm:"column:severity;type:text;not null"`
	SeverityRank       int     `gorm:"column:severity_rank;not null"`
	Status             string  `gorm:"column:status;type:text;not null;index"`
	SafetyRisk         bool    `gorm:"column:safety_risk;not null;default:0"`
	ImpactAvailability bool    `gorm:"column:impact_availability;not null;default:0"`
	DueAt              string  `gorm:"column:due_at;type:text;not null"`
	CreatedAt          string  `gorm:"column:created_at;type:text;not null;index"`
	CreatedByID        string  `gorm:"column:created_by_id;type:text"`
	CreatedByName      string  `gorm:"column:created_by_name;type:text"`
	MachineID          string  `gorm:"column:machine_id;type:text;not null;index"`
	MachineTag         string  `gorm:"column:machine_tag;type:text"`
	MachineModel       string  `gorm:"column:machine_model;type:text"`
	MachineSector      string  `gorm:"column:machine_sector;type:text"`
	TemplateID         string  `gorm:"column:template_id;type:text"`
	Source             string  `gorm:"column:source;type:text;not null"`
	OriginSubmissionID string  `gorm:"column:origin_submission_id;type:text"`
	OriginQuestionID   string  `gorm:"column:origin_question_id;type:text"`
	RootCause          *string `gorm:"column:root_cause;type:text"`
	ActionsJSON        string  `gorm:"column:actions_json;type:text"`
	RecurrenceOfID     *string `gorm:"column:recurrence_of_id;type:text"`
	TelemetryJSON      *string `gorm:"column:telemetry_json;type:text"`
	YearMonth          string  `gorm:"column:year_month;type:text;not null;index"`
	NormalizedTitle    string  `gorm:"column:normalized_title;type:text;not null"`
	SystemCategory     string  `gorm:"column:system_category;type:text"`
	UpdatedAt          string  `gorm:"column:updated_at;type:text;not null"`
}

func (NonConformity) TableName() string {
	return "non_conformities"
}
