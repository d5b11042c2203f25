package model

// ChecklistSubmission rows are immutable once created. Answers and extra
// entries are stored as JSON documents: the core never queries inside them.
type ChecklistSubmission struct {
	SubmissionID  string `gorm:"column:submission_id;primaryKey"`
	MachineID     string `gorm:"column:machine_id;type:text;not null;index"`
	TemplateID    string `gorm:"column:template_id;type:text;not null;index:idx_submissions_pair"`
	UserID        string `gorm:"column:user_id;type:text"`
	UserMatricula string `gorm:"column:user_matricula;type:text"`
	UserName      string `gorm:"column:user_name;type:text"`
	CreatedAt     string `gorm:"column:created_at;type:text;not null;index"`
	AnswersJSON   string `gorm:"column:answers_json;type:text;not null"`
	ExtrasJSON    string `gorm:"column:extras_json;type:text"`
}

func (ChecklistSubmission) TableName() string {
	return "checklist_submissions"
}
