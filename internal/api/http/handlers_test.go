package apihttp

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/teo1264/enel-system/internal/auth"
	baselinemem "github.com/teo1264/enel-system/internal/baseline/infrastructure/memory"
	"github.com/teo1264/enel-system/internal/batch/application"
	"github.com/teo1264/enel-system/internal/config"
	ledgermem "github.com/teo1264/enel-system/internal/ledger/infrastructure/memory"
	registry "github.com/teo1264/enel-system/internal/registry/domain"
)

type stubLoader struct {
	table *registry.Table
}

func (l *stubLoader) Load(string) (*registry.Table, error) {
	return l.table, nil
}

func newTestService(t *testing.T) *application.Service {
	t.Helper()
	table, err := registry.NewTable([]registry.Entry{
		{SiteName: "Casa Central", AccountID: "718968230", DueDay: 15},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	cfg := config.Config{
		RegistryPath:   "registro.xlsx",
		InvoiceDir:     t.TempDir(),
		ThresholdPct:   150,
		BaselineWindow: 6,
		Workers:        2,
	}
	logger := log.New(io.Discard, "", 0)
	svc, err := application.NewService(cfg, &stubLoader{table: table}, ledgermem.NewLedgerStore(), baselinemem.NewHistoryStore(), nil, logger)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestLatestBeforeAnyRun(t *testing.T) {
	mux := NewMux(newTestService(t), nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRunThenLatestAndExports(t *testing.T) {
	mux := NewMux(newTestService(t), nil)

	body := bytes.NewBufferString(`{"period":"2025-06"}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("run status = %d, body %s", rec.Code, rec.Body.String())
	}
	var summary struct {
		Period      string `json:"period"`
		Total       int    `json:"total"`
		Expected    int    `json:"expected_units"`
		TotalAmount string `json:"total_amount"`
		Missing     []struct {
			SiteName string `json:"site_name"`
		} `json:"missing_sites"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Period != "2025-06" {
		t.Fatalf("period = %q, want 2025-06", summary.Period)
	}
	if summary.Total != 0 {
		t.Fatalf("total = %d, want 0", summary.Total)
	}
	if summary.Expected != 1 {
		t.Fatalf("expected_units = %d, want 1", summary.Expected)
	}
	if summary.TotalAmount != "0.00" {
		t.Fatalf("total_amount = %q, want 0.00", summary.TotalAmount)
	}
	if len(summary.Missing) != 1 || summary.Missing[0].SiteName != "Casa Central" {
		t.Fatalf("missing sites = %+v", summary.Missing)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("latest status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest/export.xlsx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("xlsx status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("xlsx content type = %q", got)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty xlsx body")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest/export.pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("pdf status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Fatal("pdf body missing %PDF header")
	}
}

func TestRunRejectsInvalidPeriod(t *testing.T) {
	mux := NewMux(newTestService(t), nil)

	body := bytes.NewBufferString(`{"period":"junho"}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRegistryEndpoints(t *testing.T) {
	mux := NewMux(newTestService(t), nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/registry", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("registry status = %d", rec.Code)
	}
	var entries []struct {
		SiteName  string `json:"site_name"`
		AccountID string `json:"account_id"`
		DueDay    int    `json:"due_day"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode registry: %v", err)
	}
	if len(entries) != 1 || entries[0].AccountID != "718968230" || entries[0].DueDay != 15 {
		t.Fatalf("entries = %+v", entries)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/registry/reload", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reload status = %d, want 204", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux := NewMux(newTestService(t), nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/runs/latest", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func signToken(t *testing.T, secret []byte, role string) string {
	t.Helper()
	claims := auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "tester",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthEnforcement(t *testing.T) {
	secret := []byte("test-secret")
	mux := NewMux(newTestService(t), secret)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no-token status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, "viewer"))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer run status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, "operator"))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("operator run status = %d, body %s", rec.Code, rec.Body.String())
	}
}
