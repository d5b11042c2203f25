package model

type ChecklistTemplate struct {
	TemplateID          string `gorm:"column:template_id;primaryKey"`
	Name                string `gorm:"column:name;type:text;not null"`
	PeriodicityQuantity int    `gorm:"column:periodicity_quantity;not null;default:0"`
	PeriodicityUnit     string `gorm:"column:periodicity_unit;type:text"`
	PeriodicityActive   bool   `gorm:"column:periodicity_active;not null;default:0"`
	CreatedAt           string `gorm:"column:created_at;type:text;not null"`
}

func (ChecklistTemplate) TableName() string {
	return "checklist_templates"
}

type TemplateQuestion struct {
	QuestionID     string `gorm:"column:question_id;primaryKey"`
	TemplateID     string `gorm:"column:template_id;type:text;not null;index"`
	Prompt         string `gorm:"column:prompt;type:text;not null"`
	SystemCategory string `gorm:"column:system_category;type:text"`
	PhotoRule      string `gorm:"column:photo_rule;type:text"`
	Position       int    `gorm:"column:position;not null;default:0"`
}

func (TemplateQuestion) TableName() string {
	return "template_questions"
}
