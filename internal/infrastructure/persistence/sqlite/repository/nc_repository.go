package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
	"fleetcheck/internal/infrastructure/persistence/sqlite/model"
	"fleetcheck/internal/ports"
)

// NCRepository implements ports.NCRepository on gorm/sqlite.
type NCRepository struct {
	db *gorm.DB
}

var _ ports.NCRepository = (*NCRepository)(nil)

func NewNCRepository(db *gorm.DB) *NCRepository {
	return &NCRepository{db: db}
}

func (r *NCRepository) CreateSubmission(ctx context.Context, submission nc.ChecklistSubmission) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	answersJSON, err := json.Marshal(submission.Answers)
	if err != nil {
		return errs.Wrap(err, "marshal answers")
	}
	extrasJSON := ""
	if len(submission.Extras) > 0 {
		raw, err := json.Marshal(submission.Extras)
		if err != nil {
			return errs.Wrap(err, "marshal extras")
		}
		extrasJSON = string(raw)
	}

	row := model.ChecklistSubmission{
		SubmissionID:  submission.ID,
		MachineID:     submission.MachineID,
		TemplateID:    submission.TemplateID,
		UserID:        submission.User.ID,
		UserMatricula: submission.Matricula,
		UserName:      submission.User.Name,
		CreatedAt:     formatTime(submission.CreatedAt),
		AnswersJSON:   string(answersJSON),
		ExtrasJSON:    extrasJSON,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert submission")
	}
	return nil
}

func (r *NCRepository) CreateNC(ctx context.Context, record nc.NonConformity) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row, err := toModelNC(record)
	if err != nil {
		return err
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert non-conformity")
	}
	return nil
}

func (r *NCRepository) GetNC(ctx context.Context, id string) (nc.NonConformity, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nc.NonConformity{}, err
	}

	var row model.NonConformity
	if err := db.Where("nc_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nc.NonConformity{}, ports.ErrNCNotFound
		}
		return nc.NonConformity{}, errs.Wrap(err, "query non-conformity")
	}
	return toDomainNC(row)
}

func (r *NCRepository) UpdateNC(ctx context.Context, record nc.NonConformity) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row, err := toModelNC(record)
	if err != nil {
		return err
	}
	result := db.Model(&model.NonConformity{}).
		Where("nc_id = ?", record.ID).
		Select("*").
		Omit("nc_id").
		Updates(&row)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update non-conformity")
	}
	if result.RowsAffected == 0 {
		return ports.ErrNCNotFound
	}
	return nil
}

func (r *NCRepository) ListNCs(ctx context.Context, filter ports.KPIFilter) ([]nc.NonConformity, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.NonConformity{})
	if filter.MachineID != "" {
		query = query.Where("machine_id = ?", filter.MachineID)
	}
	if filter.YearMonth != "" {
		query = query.Where("year_month = ?", filter.YearMonth)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", formatTime(*filter.CreatedAfter))
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", formatTime(*filter.CreatedBefore))
	}

	var rows []model.NonConformity
	if err := query.Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query non-conformities")
	}

	records := make([]nc.NonConformity, 0, len(rows))
	for _, row := range rows {
		record, err := toDomainNC(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *NCRepository) AppendAuditEntry(ctx context.Context, entry nc.AuditEntry) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	diffJSON, err := json.Marshal(entry.Diff)
	if err != nil {
		return errs.Wrap(err, "marshal diff")
	}

	row := model.NCAuditEntry{
		EntryID:   entry.ID,
		NCID:      entry.NCID,
		ActorID:   entry.Actor.ID,
		ActorName: entry.Actor.Name,
		CreatedAt: formatTime(entry.CreatedAt),
		DiffJSON:  string(diffJSON),
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert audit entry")
	}
	return nil
}

func (r *NCRepository) ListAuditEntries(ctx context.Context, ncID string) ([]nc.AuditEntry, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&model.NonConformity{}).
		Where("nc_id = ?", ncID).
		Count(&count).Error; err != nil {
		return nil, errs.Wrap(err, "check non-conformity")
	}
	if count == 0 {
		return nil, ports.ErrNCNotFound
	}

	var rows []model.NCAuditEntry
	if err := db.Where("nc_id = ?", ncID).
		Order("created_at desc").
		Limit(ports.AuditPageSize).
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query audit entries")
	}

	entries := make([]nc.AuditEntry, 0, len(rows))
	for _, row := range rows {
		createdAt, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, errs.Wrap(err, "parse audit created_at")
		}
		var diff nc.Diff
		if err := json.Unmarshal([]byte(row.DiffJSON), &diff); err != nil {
			return nil, errs.Wrap(err, "unmarshal audit diff")
		}
		entries = append(entries, nc.AuditEntry{
			ID:        row.EntryID,
			NCID:      row.NCID,
			Actor:     nc.Actor{ID: row.ActorID, Name: row.ActorName},
			CreatedAt: createdAt,
			Diff:      diff,
		})
	}
	return entries, nil
}
