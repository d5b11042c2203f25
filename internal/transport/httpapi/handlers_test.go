package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domainnc "fleetcheck/internal/domain/nc"
	"fleetcheck/internal/ports"
	usecasenc "fleetcheck/internal/usecase/nc"
)

type fakeService struct {
	explodeResult usecasenc.ExplodeSubmissionResult
	explodeErr    error
	updateResult  usecasenc.UpdateNCResult
	updateErr     error
	getResult     domainnc.NonConformity
	getErr        error
	auditEntries  []domainnc.AuditEntry
	auditErr      error
	compliance    []domainnc.ComplianceRecord
	complianceErr error
	kpiReport     domainnc.KPIReport

	lastUpdateInput usecasenc.UpdateNCInput
	lastKPIQuery    usecasenc.KPIQuery
}

func (f *fakeService) ExplodeSubmission(_ context.Context, _ usecasenc.ExplodeSubmissionInput) (usecasenc.ExplodeSubmissionResult, error) {
	return f.explodeResult, f.explodeErr
}

func (f *fakeService) UpdateNC(_ context.Context, input usecasenc.UpdateNCInput) (usecasenc.UpdateNCResult, error) {
	f.lastUpdateInput = input
	return f.updateResult, f.updateErr
}

func (f *fakeService) GetNC(_ context.Context, _ string) (domainnc.NonConformity, error) {
	return f.getResult, f.getErr
}

func (f *fakeService) ListAuditEntries(_ context.Context, _ string) ([]domainnc.AuditEntry, error) {
	return f.auditEntries, f.auditErr
}

func (f *fakeService) ComputeCompliance(_ context.Context, _ time.Time) ([]domainnc.ComplianceRecord, error) {
	return f.compliance, f.complianceErr
}

func (f *fakeService) ReduceKPIs(_ context.Context, query usecasenc.KPIQuery) (domainnc.KPIReport, error) {
	f.lastKPIQuery = query
	return f.kpiReport, nil
}

func newTestRouter(svc Service) http.Handler {
	logger := slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRouter(svc, logger)
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestCreateSubmission(t *testing.T) {
	svc := &fakeService{
		explodeResult: usecasenc.ExplodeSubmissionResult{
			SubmissionID: "sub-1",
			CreatedIDs:   []string{"nc-1", "nc-2"},
		},
	}
	router := newTestRouter(svc)

	body := `{"machineId":"maq-1","templateId":"tpl-1","user":{"id":"op-7"},"answers":[{"questionId":"q1","response":"nc"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body = %s", rec.Code, rec.Body.String())
	}
	var resp submissionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SubmissionID != "sub-1" || len(resp.CreatedIDs) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateSubmissionMissingMachine(t *testing.T) {
	router := newTestRouter(&fakeService{})

	body := `{"templateId":"tpl-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != codeBadRequest {
		t.Fatalf("code = %q, want %q", resp.Code, codeBadRequest)
	}
}

func TestCreateSubmissionUnknownMachine(t *testing.T) {
	router := newTestRouter(&fakeService{explodeErr: ports.ErrMachineNotFound})

	body := `{"machineId":"maq-x","templateId":"tpl-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPatchNCResolutionGate(t *testing.T) {
	router := newTestRouter(&fakeService{updateErr: domainnc.ErrMissingCorrectiveClosure})

	body := `{"actor":{"id":"mec-3"},"status":"resolvida"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/non-conformities/nc-1/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body = %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != codeResolutionGate {
		t.Fatalf("code = %q, want %q", resp.Code, codeResolutionGate)
	}
}

func TestPatchNCMissingActor(t *testing.T) {
	router := newTestRouter(&fakeService{})

	body := `{"status":"em_execucao"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/non-conformities/nc-1/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPatchNCMapsPatchFields(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc)

	body := `{"actor":{"id":"mec-3"},"status":"bloqueada","severity":"alta","rootCause":"mangueira ressecada"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/non-conformities/nc-1/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	input := svc.lastUpdateInput
	if input.NCID != "nc-1" {
		t.Fatalf("NCID = %q", input.NCID)
	}
	if input.Patch.Status == nil || *input.Patch.Status != domainnc.StatusBloqueada {
		t.Fatalf("Status = %v", input.Patch.Status)
	}
	if input.Patch.Severity == nil || *input.Patch.Severity != domainnc.SeverityAlta {
		t.Fatalf("Severity = %v", input.Patch.Severity)
	}
	if input.Patch.RootCause == nil || *input.Patch.RootCause != "mangueira ressecada" {
		t.Fatalf("RootCause = %v", input.Patch.RootCause)
	}
}

func TestGetNCNotFound(t *testing.T) {
	router := newTestRouter(&fakeService{getErr: ports.ErrNCNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/non-conformities/nc-x/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListAuditEmptyIsArray(t *testing.T) {
	router := newTestRouter(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/non-conformities/nc-1/audit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %q, want empty array", body)
	}
}

func TestGetComplianceBadTimestamp(t *testing.T) {
	router := newTestRouter(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/compliance?at=not-a-time", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetKPIsForwardsQuery(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kpis?machineId=maq-1&month=2026-03&from=2026-03-01T00:00:00Z", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.lastKPIQuery.MachineID != "maq-1" || svc.lastKPIQuery.Month != "2026-03" {
		t.Fatalf("query = %+v", svc.lastKPIQuery)
	}
	if svc.lastKPIQuery.From == nil {
		t.Fatal("From was not parsed")
	}
}

func TestInternalErrorCarriesCorrelationID(t *testing.T) {
	router := newTestRouter(&fakeService{getErr: errors.New("disk on fire")})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/non-conformities/nc-1/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CorrelationID == "" {
		t.Fatal("correlation id missing on internal error")
	}
	if strings.Contains(resp.Error, "disk on fire") {
		t.Fatal("internal error detail leaked to the client")
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
