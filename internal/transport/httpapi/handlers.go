package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domainnc "fleetcheck/internal/domain/nc"
	usecasenc "fleetcheck/internal/usecase/nc"
)

type handler struct {
	svc Service
}

// submissionRequest is the inbound inspection snapshot. CreatedAt stays a
// string on purpose: garbage timestamps degrade to now instead of a 400.
type submissionRequest struct {
	SubmissionID string                          `json:"submissionId,omitempty"`
	MachineID    string                          `json:"machineId"`
	TemplateID   string                          `json:"templateId"`
	User         domainnc.Actor                  `json:"user"`
	Matricula    string                          `json:"matricula,omitempty"`
	CreatedAt    string                          `json:"createdAt,omitempty"`
	Answers      []domainnc.Answer               `json:"answers"`
	Extras       []domainnc.ExtraNonConformity   `json:"extras,omitempty"`
}

type submissionResponse struct {
	SubmissionID string   `json:"submissionId"`
	CreatedIDs   []string `json:"createdIds"`
}

// patchRequest is the mutation envelope: the actor plus the sparse patch.
// Actions, when present, replace the whole list.
type patchRequest struct {
	Actor              domainnc.Actor    `json:"actor"`
	Status             *string           `json:"status,omitempty"`
	Severity           *string           `json:"severity,omitempty"`
	DueAt              *string           `json:"dueAt,omitempty"`
	RootCause          *string           `json:"rootCause,omitempty"`
	Actions            []domainnc.Action `json:"actions,omitempty"`
	SafetyRisk         *bool             `json:"safetyRisk,omitempty"`
	ImpactAvailability *bool             `json:"impactAvailability,omitempty"`
	Telemetry          json.RawMessage   `json:"telemetry,omitempty"`
}

type updateResponse struct {
	NonConformity domainnc.NonConformity `json:"nonConformity"`
	Diff          domainnc.Diff          `json:"diff"`
	NoOp          bool                   `json:"noOp"`
}

func (h *handler) createSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.MachineID) == "" {
		writeBadRequest(w, "machineId is required")
		return
	}
	if strings.TrimSpace(req.TemplateID) == "" {
		writeBadRequest(w, "templateId is required")
		return
	}

	result, err := h.svc.ExplodeSubmission(r.Context(), usecasenc.ExplodeSubmissionInput{
		SubmissionID: req.SubmissionID,
		MachineID:    req.MachineID,
		TemplateID:   req.TemplateID,
		User:         req.User,
		Matricula:    req.Matricula,
		CreatedAt:    req.CreatedAt,
		Answers:      req.Answers,
		Extras:       req.Extras,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, submissionResponse{
		SubmissionID: result.SubmissionID,
		CreatedIDs:   result.CreatedIDs,
	})
}

func (h *handler) getNC(w http.ResponseWriter, r *http.Request) {
	record, err := h.svc.GetNC(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *handler) patchNC(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Actor.ID) == "" && strings.TrimSpace(req.Actor.Name) == "" {
		writeBadRequest(w, "actor is required")
		return
	}

	patch := domainnc.Patch{
		DueAt:              req.DueAt,
		RootCause:          req.RootCause,
		Actions:            req.Actions,
		SafetyRisk:         req.SafetyRisk,
		ImpactAvailability: req.ImpactAvailability,
		Telemetry:          req.Telemetry,
	}
	if req.Status != nil {
		status := domainnc.Status(*req.Status)
		patch.Status = &status
	}
	if req.Severity != nil {
		severity := domainnc.Severity(*req.Severity)
		patch.Severity = &severity
	}

	result, err := h.svc.UpdateNC(r.Context(), usecasenc.UpdateNCInput{
		NCID:  chi.URLParam(r, "id"),
		Actor: req.Actor,
		Patch: patch,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updateResponse{
		NonConformity: result.Updated,
		Diff:          result.Diff,
		NoOp:          result.NoOp,
	})
}

func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListAuditEntries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domainnc.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) getCompliance(w http.ResponseWriter, r *http.Request) {
	var ref time.Time
	if at := strings.TrimSpace(r.URL.Query().Get("at")); at != "" {
		parsed, err := domainnc.ParseTimestamp(at)
		if err != nil {
			writeBadRequest(w, "invalid 'at' timestamp")
			return
		}
		ref = parsed
	}

	records, err := h.svc.ComputeCompliance(r.Context(), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) getKPIs(w http.ResponseWriter, r *http.Request) {
	query := usecasenc.KPIQuery{
		MachineID: strings.TrimSpace(r.URL.Query().Get("machineId")),
		Month:     strings.TrimSpace(r.URL.Query().Get("month")),
	}
	if from := strings.TrimSpace(r.URL.Query().Get("from")); from != "" {
		parsed, err := domainnc.ParseTimestamp(from)
		if err != nil {
			writeBadRequest(w, "invalid 'from' timestamp")
			return
		}
		query.From = &parsed
	}
	if to := strings.TrimSpace(r.URL.Query().Get("to")); to != "" {
		parsed, err := domainnc.ParseTimestamp(to)
		if err != nil {
			writeBadRequest(w, "invalid 'to' timestamp")
			return
		}
		query.To = &parsed
	}

	report, err := h.svc.ReduceKPIs(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
