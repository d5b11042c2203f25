package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
	"fleetcheck/internal/infrastructure/persistence/sqlite/model"
	"fleetcheck/internal/ports"
)

// ReferenceRepository implements ports.ReferenceRepository on gorm/sqlite.
type ReferenceRepository struct {
	db *gorm.DB
}

var _ ports.ReferenceRepository = (*ReferenceRepository)(nil)

func NewReferenceRepository(db *gorm.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) GetMachine(ctx context.Context, id string) (ports.MachineSnapshot, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.MachineSnapshot{}, err
	}

	var row model.Machine
	if err := db.Where("machine_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.MachineSnapshot{}, ports.ErrMachineNotFound
		}
		return ports.MachineSnapshot{}, errs.Wrap(err, "query machine")
	}

	var bindings []model.MachineTemplate
	if err := db.Where("machine_id = ?", id).Find(&bindings).Error; err != nil {
		return ports.MachineSnapshot{}, errs.Wrap(err, "query machine templates")
	}

	templateIDs := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		templateIDs = append(templateIDs, binding.TemplateID)
	}

	return ports.MachineSnapshot{
		ID:          row.MachineID,
		Tag:         row.Tag,
		Model:       row.Model,
		Sector:      row.Sector,
		TemplateIDs: templateIDs,
	}, nil
}

func (r *ReferenceRepository) GetTemplate(ctx context.Context, id string) (ports.TemplateInfo, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.TemplateInfo{}, err
	}

	var row model.ChecklistTemplate
	if err := db.Where("template_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.TemplateInfo{}, ports.ErrTemplateNotFound
		}
		return ports.TemplateInfo{}, errs.Wrap(err, "query template")
	}

	var questionRows []model.TemplateQuestion
	if err := db.Where("template_id = ?", id).
		Order("position asc").
		Find(&questionRows).Error; err != nil {
		return ports.TemplateInfo{}, errs.Wrap(err, "query template questions")
	}

	info := ports.TemplateInfo{
		ID:        row.TemplateID,
		Name:      row.Name,
		Questions: make([]nc.TemplateQuestion, 0, len(questionRows)),
	}
	for _, questionRow := range questionRows {
		info.Questions = append(info.Questions, nc.TemplateQuestion{
			ID:             questionRow.QuestionID,
			Prompt:         questionRow.Prompt,
			SystemCategory: questionRow.SystemCategory,
			PhotoRule:      questionRow.PhotoRule,
		})
	}
	if row.PeriodicityQuantity > 0 || row.PeriodicityUnit != "" {
		info.Periodicity = &nc.PeriodicityRequirement{
			Quantity: row.PeriodicityQuantity,
			Unit:     nc.PeriodicityUnit(row.PeriodicityUnit),
			Active:   row.PeriodicityActive,
		}
	}
	return info, nil
}

func (r *ReferenceRepository) ListRecentNCInfo(ctx context.Context, machineID string, after, atOrBefore time.Time) ([]nc.ExistingNCInfo, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.NonConformity
	if err := db.
		Select("nc_id", "created_at", "normalized_title", "system_category").
		Where("machine_id = ? AND created_at > ? AND created_at <= ?",
			machineID, formatTime(after), formatTime(atOrBefore)).
		Order("created_at desc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query recent non-conformities")
	}

	infos := make([]nc.ExistingNCInfo, 0, len(rows))
	for _, row := range rows {
		createdAt, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, errs.Wrap(err, "parse created_at")
		}
		infos = append(infos, nc.ExistingNCInfo{
			ID:              row.NCID,
			CreatedAt:       createdAt,
			NormalizedTitle: row.NormalizedTitle,
			SystemCategory:  row.SystemCategory,
		})
	}
	return infos, nil
}

func (r *ReferenceRepository) LastSubmissionAt(ctx context.Context, templateID, machineID string, atOrBefore time.Time) (*time.Time, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var row model.ChecklistSubmission
	err = db.
		Where("template_id = ? AND machine_id = ? AND created_at <= ?",
			templateID, machineID, formatTime(atOrBefore)).
		Order("created_at desc").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Wrap(err, "query last submission")
	}

	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, errs.Wrap(err, "parse submission created_at")
	}
	return &createdAt, nil
}

func (r *ReferenceRepository) ListPeriodicityPairs(ctx context.Context) ([]nc.CompliancePair, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var templates []model.ChecklistTemplate
	if err := db.Where("periodicity_active = ?", true).Find(&templates).Error; err != nil {
		return nil, errs.Wrap(err, "query periodic templates")
	}
	if len(templates) == 0 {
		return nil, nil
	}

	templateByID := make(map[string]model.ChecklistTemplate, len(templates))
	templateIDs := make([]string, 0, len(templates))
	for _, template := range templates {
		templateByID[template.TemplateID] = template
		templateIDs = append(templateIDs, template.TemplateID)
	}

	var bindings []model.MachineTemplate
	if err := db.Where("template_id IN ?", templateIDs).Find(&bindings).Error; err != nil {
		return nil, errs.Wrap(err, "query template bindings")
	}
	if len(bindings) == 0 {
		return nil, nil
	}

	machineIDs := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		machineIDs = append(machineIDs, binding.MachineID)
	}
	var machines []model.Machine
	if err := db.Where("machine_id IN ?", machineIDs).Find(&machines).Error; err != nil {
		return nil, errs.Wrap(err, "query bound machines")
	}
	machineByID := make(map[string]model.Machine, len(machines))
	for _, machine := range machines {
		machineByID[machine.MachineID] = machine
	}

	pairs := make([]nc.CompliancePair, 0, len(bindings))
	for _, binding := range bindings {
		template, ok := templateByID[binding.TemplateID]
		if !ok {
			continue
		}
		machine, ok := machineByID[binding.MachineID]
		if !ok {
			continue
		}
		pairs = append(pairs, nc.CompliancePair{
			TemplateID:   template.TemplateID,
			TemplateName: template.Name,
			MachineID:    machine.MachineID,
			MachineName:  machine.Tag,
			Requirement: nc.PeriodicityRequirement{
				Quantity: template.PeriodicityQuantity,
				Unit:     nc.PeriodicityUnit(template.PeriodicityUnit),
				Active:   template.PeriodicityActive,
			},
		})
	}
	return pairs, nil
}
