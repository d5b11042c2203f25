package model

type Machine struct {
	MachineID string `gorm:"column:machine_id;primaryKey"`
	Tag       string `gorm:"column:tag;type:text;not null"`
	Model     string `gorm:"column:model;type:text"`
	Sector    string `gorm:"column:sector;type:text"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
}

func (Machine) TableName() string {
	return "machines"
}

// MachineTemplate binds a checklist template to a machine; periodicity
// compliance is evaluated per binding.
type MachineTemplate struct {
	MachineID  string `gorm:"column:machine_id;primaryKey"`
	TemplateID string `gorm:"column:template_id;primaryKey"`
}

func (MachineTemplate) TableName() string {
	return "machine_templates"
}
