// Package apihttp exposes the pipeline over HTTP: triggering runs,
// reading the latest summary and downloading run reports.
package apihttp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/teo1264/enel-system/internal/batch"
	"github.com/teo1264/enel-system/internal/batch/application"
	invoice "github.com/teo1264/enel-system/internal/invoice/domain"
)

// RunsHandler triggers pipeline runs.
type RunsHandler struct {
	service *application.Service
}

// NewRunsHandler constructs a RunsHandler.
func NewRunsHandler(service *application.Service) *RunsHandler {
	return &RunsHandler{service: service}
}

type runRequest struct {
	// Period in "YYYY-MM" or "MM/YYYY"; empty means the current
	// month.
	Period string `json:"period"`
}

// ServeHTTP handles POST /api/v1/runs.
func (h *RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	var req runRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	period := invoice.PeriodOf(time.Now())
	if req.Period != "" {
		parsed, err := invoice.ParseBillingPeriod(req.Period)
		if err != nil {
			http.Error(w, "invalid period", http.StatusBadRequest)
			return
		}
		period = parsed
	}

	summary, err := h.service.Run(r.Context(), period)
	if err != nil {
		if errors.Is(err, application.ErrRunInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, "run failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toSummaryResponse(summary))
}

// LatestHandler serves the most recent run summary.
type LatestHandler struct {
	service *application.Service
}

// NewLatestHandler constructs a LatestHandler.
func NewLatestHandler(service *application.Service) *LatestHandler {
	return &LatestHandler{service: service}
}

// ServeHTTP handles GET /api/v1/runs/latest.
func (h *LatestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	summary, err := h.service.Latest()
	if err != nil {
		http.Error(w, "no completed run", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toSummaryResponse(summary))
}

// ExportHandler serves run artifacts for download.
type ExportHandler struct {
	service *application.Service
	format  string
}

// NewExportHandler constructs an ExportHandler for "xlsx" or "pdf".
func NewExportHandler(service *application.Service, format string) *ExportHandler {
	return &ExportHandler{service: service, format: format}
}

// ServeHTTP handles GET /api/v1/runs/latest/export.{xlsx,pdf}.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	var data []byte
	var err error
	var contentType, filename string
	switch h.format {
	case "xlsx":
		data, err = h.service.ExportXLSX()
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "controle.xlsx"
	case "pdf":
		data, err = h.service.ExportPDF()
		contentType = "application/pdf"
		filename = "run.pdf"
	default:
		http.Error(w, "unknown format", http.StatusNotFound)
		return
	}
	if err != nil {
		if errors.Is(err, application.ErrNoSummary) {
			http.Error(w, "no completed run", http.StatusNotFound)
			return
		}
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(data)
}

// RegistryHandler serves and reloads the site registry.
type RegistryHandler struct {
	service *application.Service
	reload  bool
}

// NewRegistryHandler constructs a RegistryHandler. With reload set it
// handles POST /api/v1/registry/reload, otherwise GET
// /api/v1/registry.
func NewRegistryHandler(service *application.Service, reload bool) *RegistryHandler {
	return &RegistryHandler{service: service, reload: reload}
}

type registryEntryResponse struct {
	SiteName  string `json:"site_name"`
	AccountID string `json:"account_id"`
	DueDay    int    `json:"due_day"`
}

func (h *RegistryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	if h.reload {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := h.service.ReloadRegistry(); err != nil {
			http.Error(w, "registry reload failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	table := h.service.Registry()
	entries := table.Entries()
	out := make([]registryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, registryEntryResponse{SiteName: e.SiteName, AccountID: e.AccountID, DueDay: e.DueDay})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

type summaryResponse struct {
	RunID      string            `json:"run_id"`
	Period     string            `json:"period"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Partial    bool              `json:"partial"`
	Expected   int               `json:"expected_units"`
	Total      int               `json:"total"`
	TotalR     string            `json:"total_amount"`
	Accepted   int               `json:"accepted"`
	Duplicates int               `json:"duplicates"`
	Failed     int               `json:"failed"`
	Unmapped   int               `json:"unmapped"`
	Alerts     int               `json:"alerts"`
	Outcomes   []outcomeResponse `json:"outcomes"`
	Missing    []missingResponse `json:"missing_sites"`
}

type outcomeResponse struct {
	SourceFile        string  `json:"source_file"`
	Status            string  `json:"status"`
	SiteName          string  `json:"site_name,omitempty"`
	Unmapped          bool    `json:"unmapped,omitempty"`
	AccountID         string  `json:"account_id,omitempty"`
	DocumentID        string  `json:"document_id,omitempty"`
	Period            string  `json:"period,omitempty"`
	DueDate           string  `json:"due_date,omitempty"`
	Amount            string  `json:"amount,omitempty"`
	ConsumptionKWh    float64 `json:"consumption_kwh"`
	Severity          string  `json:"severity,omitempty"`
	BaselineKWh       float64 `json:"baseline_kwh"`
	PercentOfBaseline float64 `json:"percent_of_baseline"`
	DuplicateReason   string  `json:"duplicate_reason,omitempty"`
	FailureField      string  `json:"failure_field,omitempty"`
	FailureReason     string  `json:"failure_reason,omitempty"`
}

type missingResponse struct {
	SiteName  string `json:"site_name"`
	AccountID string `json:"account_id"`
	DueDay    int    `json:"due_day"`
}

func toSummaryResponse(s batch.Summary) summaryResponse {
	resp := summaryResponse{
		RunID:      s.RunID,
		Period:     s.Period.String(),
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Partial:    s.Partial,
		Expected:   s.ExpectedUnits,
		Total:      s.Total,
		TotalR:     s.TotalAmount.StringFixed(2),
		Accepted:   s.Accepted,
		Duplicates: s.Duplicates,
		Failed:     s.Failed,
		Unmapped:   s.Unmapped,
		Alerts:     s.Alerts,
		Outcomes:   make([]outcomeResponse, 0, len(s.Outcomes)),
		Missing:    make([]missingResponse, 0, len(s.MissingSites)),
	}
	for _, o := range s.Outcomes {
		out := outcomeResponse{
			SourceFile:      o.SourceFile,
			Status:          string(o.Status),
			SiteName:        o.SiteName,
			Unmapped:        o.Unmapped,
			DuplicateReason: o.DuplicateReason,
			FailureField:    o.FailureField,
			FailureReason:   o.FailureReason,
		}
		if o.Record != nil {
			out.AccountID = o.Record.AccountID
			out.DocumentID = o.Record.DocumentID
			out.Period = o.Record.Period.String()
			out.DueDate = o.Record.DueDate.Format("2006-01-02")
			out.Amount = o.Record.TotalAmount.StringFixed(2)
			out.ConsumptionKWh = o.Record.ConsumptionKWh
		}
		if o.Assessment != nil {
			out.Severity = string(o.Assessment.Severity)
			out.BaselineKWh = o.Assessment.BaselineKWh
			out.PercentOfBaseline = o.Assessment.PercentOfBaseline
		}
		resp.Outcomes = append(resp.Outcomes, out)
	}
	for _, m := range s.MissingSites {
		resp.Missing = append(resp.Missing, missingResponse{SiteName: m.SiteName, AccountID: m.AccountID, DueDay: m.DueDay})
	}
	return resp
}
