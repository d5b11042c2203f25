package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
	"fleetcheck/internal/infrastructure/persistence/sqlite/model"
	"fleetcheck/internal/ports"
)

// timeLayout is fixed-width UTC so stored timestamps compare correctly
// as strings in range queries.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse stored timestamp %q", value)
}

func dbFromContext(ctx context.Context, db *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func toModelNC(record nc.NonConformity) (model.NonConformity, error) {
	actionsJSON := ""
	if record.Actions != nil {
		raw, err := json.Marshal(record.Actions)
		if err != nil {
			return model.NonConformity{}, errs.Wrap(err, "marshal actions")
		}
		actionsJSON = string(raw)
	}

	var rootCause *string
	if record.RootCause != "" {
		value := record.RootCause
		rootCause = &value
	}
	var recurrenceOf *string
	if record.RecurrenceOfID != "" {
		value := record.RecurrenceOfID
		recurrenceOf = &value
	}
	var telemetry *string
	if len(record.Telemetry) > 0 {
		value := string(record.Telemetry)
		telemetry = &value
	}

	return model.NonConformity{
		NCID:               record.ID,
		Title:              record.Title,
		Description:        record.Description,
		Severity:           string(record.Severity),
		SeverityRank:       record.SeverityRank,
		Status:             string(record.Status),
		SafetyRisk:         record.SafetyRisk,
		ImpactAvailability: record.ImpactAvailability,
		DueAt:              formatTime(record.DueAt),
		CreatedAt:          formatTime(record.CreatedAt),
		CreatedByID:        record.CreatedBy.ID,
		CreatedByName:      record.CreatedBy.Name,
		MachineID:          record.Asset.ID,
		MachineTag:         record.Asset.Tag,
		MachineModel:       record.Asset.Model,
		MachineSector:      record.Asset.Sector,
		TemplateID:         record.TemplateID,
		Source:             string(record.Source),
		OriginSubmissionID: record.OriginSubmissionID,
		OriginQuestionID:   record.OriginQuestionID,
		RootCause:          rootCause,
		ActionsJSON:        actionsJSON,
		RecurrenceOfID:     recurrenceOf,
		TelemetryJSON:      telemetry,
		YearMonth:          record.YearMonth,
		NormalizedTitle:    record.NormalizedTitle,
		SystemCategory:     record.SystemCategory,
		UpdatedAt:          formatTime(record.UpdatedAt),
	}, nil
}

func toDomainNC(row model.NonConformity) (nc.NonConformity, error) {
	dueAt, err := parseTime(row.DueAt)
	if err != nil {
		return nc.NonConformity{}, errs.Wrap(err, "parse due_at")
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nc.NonConformity{}, errs.Wrap(err, "parse created_at")
	}
	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return nc.NonConformity{}, errs.Wrap(err, "parse updated_at")
	}

	var actions []nc.Action
	if row.ActionsJSON != "" {
		if err := json.Unmarshal([]byte(row.ActionsJSON), &actions); err != nil {
			return nc.NonConformity{}, errs.Wrap(err, "unmarshal actions")
		}
	}

	record := nc.NonConformity{
		ID:                 row.NCID,
		Title:              row.Title,
		Description:        row.Description,
		Severity:           nc.Severity(row.Severity),
		SeverityRank:       row.SeverityRank,
		Status:             nc.Status(row.Status),
		SafetyRisk:         row.SafetyRisk,
		ImpactAvailability: row.ImpactAvailability,
		DueAt:              dueAt,
		CreatedAt:          createdAt,
		CreatedBy:          nc.Actor{ID: row.CreatedByID, Name: row.CreatedByName},
		Asset: nc.AssetSnapshot{
			ID:     row.MachineID,
			Tag:    row.MachineTag,
			Model:  row.MachineModel,
			Sector: row.MachineSector,
		},
		TemplateID:         row.TemplateID,
		Source:             nc.Source(row.Source),
		OriginSubmissionID: row.OriginSubmissionID,
		OriginQuestionID:   row.OriginQuestionID,
		Actions:            actions,
		YearMonth:          row.YearMonth,
		NormalizedTitle:    row.NormalizedTitle,
		SystemCategory:     row.SystemCategory,
		UpdatedAt:          updatedAt,
	}
	if row.RootCause != nil {
		record.RootCause = *row.RootCause
	}
	if row.RecurrenceOfID != nil {
		record.RecurrenceOfID = *row.RecurrenceOfID
	}
	if row.TelemetryJSON != nil && *row.TelemetryJSON != "" {
		record.Telemetry = json.RawMessage(*row.TelemetryJSON)
	}
	return record, nil
}
