package repository

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"fleetcheck/internal/domain/nc"
	"fleetcheck/internal/infrastructure/persistence/sqlite/model"
	"fleetcheck/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "fleetcheck.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(
		&model.Machine{},
		&model.MachineTemplate{},
		&model.ChecklistTemplate{},
		&model.TemplateQuestion{},
		&model.ChecklistSubmission{},
		&model.NonConformity{},
		&model.NCAuditEntry{},
		&model.KVEntry{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func sampleRecord(id string, createdAt time.Time) nc.NonConformity {
	return nc.NonConformity{
		ID:              id,
		Title:           "Vazamento de óleo hidráulico",
		Severity:        nc.SeverityMedia,
		SeverityRank:    2,
		Status:          nc.StatusAberta,
		DueAt:           createdAt.AddDate(0, 0, 5),
		CreatedAt:       createdAt,
		CreatedBy:       nc.Actor{ID: "op-7", Name: "Joana"},
		Asset:           nc.AssetSnapshot{ID: "maq-1", Tag: "ESC-011", Model: "X200", Sector: "mina"},
		TemplateID:      "tpl-1",
		Source:          nc.SourceChecklistQuestion,
		YearMonth:       createdAt.Format("2006-01"),
		NormalizedTitle: "vazamento de oleo hidraulico",
		SystemCategory:  "hidraulico",
		UpdatedAt:       createdAt,
	}
}

func TestCreateGetNCRoundTrip(t *testing.T) {
	repo := NewNCRepository(setupDB(t))
	ctx := context.Background()
	createdAt := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	record := sampleRecord("nc-1", createdAt)
	record.RecurrenceOfID = "nc-0"
	record.Telemetry = json.RawMessage(`{"horimetro":1200}`)
	record.Actions = []nc.Action{{ID: "act-1", Type: nc.ActionCorretiva, Description: "trocar mangueira"}}

	if err := repo.CreateNC(ctx, record); err != nil {
		t.Fatalf("CreateNC() error = %v", err)
	}

	got, err := repo.GetNC(ctx, "nc-1")
	if err != nil {
		t.Fatalf("GetNC() error = %v", err)
	}
	if got.Title != record.Title || got.NormalizedTitle != record.NormalizedTitle {
		t.Fatalf("titles = %q / %q", got.Title, got.NormalizedTitle)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Fatalf("CreatedAt = %v, want %v", got.CreatedAt, createdAt)
	}
	if got.RecurrenceOfID != "nc-0" {
		t.Fatalf("RecurrenceOfID = %q", got.RecurrenceOfID)
	}
	if string(got.Telemetry) != `{"horimetro":1200}` {
		t.Fatalf("Telemetry = %s", got.Telemetry)
	}
	if len(got.Actions) != 1 || got.Actions[0].ID != "act-1" {
		t.Fatalf("Actions = %+v", got.Actions)
	}
}

func TestGetNCNotFound(t *testing.T) {
	repo := NewNCRepository(setupDB(t))

	_, err := repo.GetNC(context.Background(), "nc-missing")
	if !errors.Is(err, ports.ErrNCNotFound) {
		t.Fatalf("GetNC() error = %v, want ErrNCNotFound", err)
	}
}

func TestUpdateNCPersistsChanges(t *testing.T) {
	repo := NewNCRepository(setupDB(t))
	ctx := context.Background()
	createdAt := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	record := sampleRecord("nc-1", createdAt)
	if err := repo.CreateNC(ctx, record); err != nil {
		t.Fatalf("CreateNC() error = %v", err)
	}

	record.Status = nc.StatusEmExecucao
	record.RootCause = "mangueira ressecada"
	record.UpdatedAt = createdAt.Add(2 * time.Hour)
	if err := repo.UpdateNC(ctx, record); err != nil {
		t.Fatalf("UpdateNC() error = %v", err)
	}

	got, err := repo.GetNC(ctx, "nc-1")
	if err != nil {
		t.Fatalf("GetNC() error = %v", err)
	}
	if got.Status != nc.StatusEmExecucao {
		t.Fatalf("Status = %q", got.Status)
	}
	if got.RootCause != "mangueira ressecada" {
		t.Fatalf("RootCause = %q", got.RootCause)
	}
	if !got.UpdatedAt.Equal(record.UpdatedAt) {
		t.Fatalf("UpdatedAt = %v", got.UpdatedAt)
	}
}

func TestUpdateNCNotFound(t *testing.T) {
	repo := NewNCRepository(setupDB(t))

	record := sampleRecord("nc-ghost", time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	err := repo.UpdateNC(context.Background(), record)
	if !errors.Is(err, ports.ErrNCNotFound) {
		t.Fatalf("UpdateNC() error = %v, want ErrNCNotFound", err)
	}
}

func TestListNCsFilters(t *testing.T) {
	repo := NewNCRepository(setupDB(t))
	ctx := context.Background()

	early := time.Date(2026, 2, 5, 8, 0, 0, 0, time.UTC)
	late := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

	first := sampleRecord("nc-1", early)
	second := sampleRecord("nc-2", late)
	third := sampleRecord("nc-3", late)
	third.Asset.ID = "maq-2"

	for _, record := range []nc.NonConformity{first, second, third} {
		if err := repo.CreateNC(ctx, record); err != nil {
			t.Fatalf("CreateNC(%s) error = %v", record.ID, err)
		}
	}

	after := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	records, err := repo.ListNCs(ctx, ports.KPIFilter{MachineID: "maq-1", CreatedAfter: &after})
	if err != nil {
		t.Fatalf("ListNCs() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != "nc-2" {
		t.Fatalf("ListNCs() = %+v, want only nc-2", records)
	}

	byMonth, err := repo.ListNCs(ctx, ports.KPIFilter{YearMonth: "2026-02"})
	if err != nil {
		t.Fatalf("ListNCs(year_month) error = %v", err)
	}
	if len(byMonth) != 1 || byMonth[0].ID != "nc-1" {
		t.Fatalf("ListNCs(year_month) = %+v, want only nc-1", byMonth)
	}
}

func TestAuditEntriesNewestFirst(t *testing.T) {
	repo := NewNCRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	if err := repo.CreateNC(ctx, sampleRecord("nc-1", base)); err != nil {
		t.Fatalf("CreateNC() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		entry := nc.AuditEntry{
			ID:        []string{"aud-1", "aud-2", "aud-3"}[i],
			NCID:      "nc-1",
			Actor:     nc.Actor{ID: "mec-3"},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Diff:      nc.Diff{"status": {From: "aberta", To: "em_execucao"}},
		}
		if err := repo.AppendAuditEntry(ctx, entry); err != nil {
			t.Fatalf("AppendAuditEntry(%d) error = %v", i, err)
		}
	}

	entries, err := repo.ListAuditEntries(ctx, "nc-1")
	if err != nil {
		t.Fatalf("ListAuditEntries() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].ID != "aud-3" || entries[2].ID != "aud-1" {
		t.Fatalf("order = %s,%s,%s, want newest first", entries[0].ID, entries[1].ID, entries[2].ID)
	}
	if _, ok := entries[0].Diff["status"]; !ok {
		t.Fatal("diff did not round-trip")
	}

	if _, err := repo.ListAuditEntries(ctx, "nc-missing"); !errors.Is(err, ports.ErrNCNotFound) {
		t.Fatalf("ListAuditEntries(unknown) error = %v, want ErrNCNotFound", err)
	}
}

func TestLastSubmissionAtPicksMostRecentInWindow(t *testing.T) {
	db := setupDB(t)
	ncRepo := NewNCRepository(db)
	refRepo := NewReferenceRepository(db)
	ctx := context.Background()

	times := []time.Time{
		time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 5, 6, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 20, 6, 0, 0, 0, time.UTC),
	}
	for i, at := range times {
		submission := nc.ChecklistSubmission{
			ID:         []string{"sub-1", "sub-2", "sub-3"}[i],
			MachineID:  "maq-1",
			TemplateID: "tpl-1",
			User:       nc.Actor{ID: "op-7"},
			CreatedAt:  at,
			Answers:    []nc.Answer{},
		}
		if err := ncRepo.CreateSubmission(ctx, submission); err != nil {
			t.Fatalf("CreateSubmission(%d) error = %v", i, err)
		}
	}

	ref := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	lastAt, err := refRepo.LastSubmissionAt(ctx, "tpl-1", "maq-1", ref)
	if err != nil {
		t.Fatalf("LastSubmissionAt() error = %v", err)
	}
	if lastAt == nil || !lastAt.Equal(times[1]) {
		t.Fatalf("LastSubmissionAt() = %v, want %v", lastAt, times[1])
	}

	none, err := refRepo.LastSubmissionAt(ctx, "tpl-x", "maq-1", ref)
	if err != nil {
		t.Fatalf("LastSubmissionAt(unknown) error = %v", err)
	}
	if none != nil {
		t.Fatalf("LastSubmissionAt(unknown) = %v, want nil", none)
	}
}

func TestListRecentNCInfoWindow(t *testing.T) {
	db := setupDB(t)
	repo := NewNCRepository(db)
	refRepo := NewReferenceRepository(db)
	ctx := context.Background()

	old := sampleRecord("nc-old", time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	recent := sampleRecord("nc-recent", time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC))
	later := sampleRecord("nc-later", time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC))
	for _, record := range []nc.NonConformity{old, recent, later} {
		if err := repo.CreateNC(ctx, record); err != nil {
			t.Fatalf("CreateNC(%s) error = %v", record.ID, err)
		}
	}

	// Bounded on both sides: nc-old predates the window, nc-later was
	// created after the reference instant.
	after := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	atOrBefore := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	infos, err := refRepo.ListRecentNCInfo(ctx, "maq-1", after, atOrBefore)
	if err != nil {
		t.Fatalf("ListRecentNCInfo() error = %v", err)
	}
	if len(infos) != 1 || infos[0].ID != "nc-recent" {
		t.Fatalf("infos = %+v, want only nc-recent", infos)
	}
	if infos[0].NormalizedTitle != "vazamento de oleo hidraulico" {
		t.Fatalf("NormalizedTitle = %q", infos[0].NormalizedTitle)
	}
}

func TestGetTemplateWithQuestionsAndPeriodicity(t *testing.T) {
	db := setupDB(t)
	refRepo := NewReferenceRepository(db)
	ctx := context.Background()
	now := formatTime(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	if err := db.Create(&model.ChecklistTemplate{
		TemplateID:          "tpl-1",
		Name:                "Inspeção diária",
		PeriodicityQuantity: 1,
		PeriodicityUnit:     "day",
		PeriodicityActive:   true,
		CreatedAt:           now,
	}).Error; err != nil {
		t.Fatalf("seed template: %v", err)
	}
	questions := []model.TemplateQuestion{
		{QuestionID: "q2", TemplateID: "tpl-1", Prompt: "Freios", Position: 2},
		{QuestionID: "q1", TemplateID: "tpl-1", Prompt: "Vazamentos", SystemCategory: "hidraulico", Position: 1},
	}
	for _, question := range questions {
		if err := db.Create(&question).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}

	info, err := refRepo.GetTemplate(ctx, "tpl-1")
	if err != nil {
		t.Fatalf("GetTemplate() error = %v", err)
	}
	if len(info.Questions) != 2 || info.Questions[0].ID != "q1" {
		t.Fatalf("questions = %+v, want position order", info.Questions)
	}
	if info.Periodicity == nil || info.Periodicity.Quantity != 1 || !info.Periodicity.Active {
		t.Fatalf("periodicity = %+v", info.Periodicity)
	}

	if _, err := refRepo.GetTemplate(ctx, "tpl-x"); !errors.Is(err, ports.ErrTemplateNotFound) {
		t.Fatalf("GetTemplate(unknown) error = %v, want ErrTemplateNotFound", err)
	}
}

func TestListPeriodicityPairsJoinsBindings(t *testing.T) {
	db := setupDB(t)
	refRepo := NewReferenceRepository(db)
	ctx := context.Background()
	now := formatTime(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	templates := []model.ChecklistTemplate{
		{TemplateID: "tpl-1", Name: "Diária", PeriodicityQuantity: 1, PeriodicityUnit: "day", PeriodicityActive: true, CreatedAt: now},
		{TemplateID: "tpl-2", Name: "Sem periodicidade", CreatedAt: now},
	}
	for _, template := range templates {
		if err := db.Create(&template).Error; err != nil {
			t.Fatalf("seed template: %v", err)
		}
	}
	machines := []model.Machine{
		{MachineID: "maq-1", Tag: "ESC-011", CreatedAt: now},
		{MachineID: "maq-2", Tag: "CAM-002", CreatedAt: now},
	}
	for _, machine := range machines {
		if err := db.Create(&machine).Error; err != nil {
			t.Fatalf("seed machine: %v", err)
		}
	}
	bindings := []model.MachineTemplate{
		{MachineID: "maq-1", TemplateID: "tpl-1"},
		{MachineID: "maq-2", TemplateID: "tpl-1"},
		{MachineID: "maq-1", TemplateID: "tpl-2"},
	}
	for _, binding := range bindings {
		if err := db.Create(&binding).Error; err != nil {
			t.Fatalf("seed binding: %v", err)
		}
	}

	pairs, err := refRepo.ListPeriodicityPairs(ctx)
	if err != nil {
		t.Fatalf("ListPeriodicityPairs() error = %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("pairs = %d, want 2 (only the active template)", len(pairs))
	}
	for _, pair := range pairs {
		if pair.TemplateID != "tpl-1" {
			t.Fatalf("pair template = %q", pair.TemplateID)
		}
		if !pair.Requirement.Active || pair.Requirement.Unit != nc.UnitDay {
			t.Fatalf("requirement = %+v", pair.Requirement)
		}
	}
}
