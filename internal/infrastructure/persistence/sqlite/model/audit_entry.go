package model

// NCAuditEntry is append-only; one row per accepted mutation.
type NCAuditEntry struct {
	EntryID   string `gorm:"column:entry_id;primaryKey"`
	NCID      string `gorm:"column:nc_id;type:text;not null;index"`
	ActorID   string `gorm:"column:actor_id;type:text"`
	ActorName string `gorm:"column:actor_name;type:text"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
	DiffJSON  string `gorm:"column:diff_json;type:text;not null"`
}

func (NCAuditEntry) TableName() string {
	return "nc_audit_entries"
}
