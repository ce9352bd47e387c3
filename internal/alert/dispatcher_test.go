package alert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	baseline "github.com/teo1264/enel-system/internal/baseline/domain"
	"github.com/teo1264/enel-system/internal/batch"
	invoice "github.com/teo1264/enel-system/internal/invoice/domain"
)

func highOutcome(t *testing.T) batch.Outcome {
	t.Helper()
	p, err := invoice.NewBillingPeriod(2025, time.June)
	if err != nil {
		t.Fatalf("period: %v", err)
	}
	rec := invoice.InvoiceRecord{
		AccountID:      "718968230",
		DocumentID:     "100000001",
		DueDate:        time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount:    decimal.NewFromFloat(126.37),
		ConsumptionKWh: 680,
		Period:         p,
		SourceFile:     "central.pdf",
	}
	return batch.Outcome{
		SourceFile: "central.pdf",
		Status:     batch.StatusAccepted,
		Record:     &rec,
		SiteName:   "Casa Central",
		Assessment: &baseline.Assessment{
			Severity:          baseline.SeverityHigh,
			BaselineKWh:       416.67,
			PercentOfBaseline: 163.2,
			DeviationPct:      63.2,
			SampleCount:       6,
		},
	}
}

func TestHighConsumptionPostsWebhook(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	d, err := NewDispatcher(channel, nil)
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	if err := d.HighConsumption(context.Background(), highOutcome(t)); err != nil {
		t.Fatalf("HighConsumption: %v", err)
	}

	if gotContentType != "application/json" {
		t.Fatalf("content type = %q", gotContentType)
	}
	var payload struct {
		MsgType string `json:"msgtype"`
		Text    struct {
			Content string `json:"content"`
		} `json:"text"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.MsgType != "text" {
		t.Fatalf("msgtype = %q", payload.MsgType)
	}
	for _, want := range []string{"Casa Central", "718968230", "2025-06", "680 kWh", "416.67", "163.2", "126.37", "15/07/2025"} {
		if !strings.Contains(payload.Text.Content, want) {
			t.Fatalf("content missing %q:\n%s", want, payload.Text.Content)
		}
	}
}

func TestWebhookNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	d, err := NewDispatcher(channel, nil)
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	if err := d.HighConsumption(context.Background(), highOutcome(t)); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestTemplateOverride(t *testing.T) {
	tpl, err := NewTemplate("{{.Site}}: {{.PercentOfBaseline}}%")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	content, err := tpl.Render(TemplateData{Site: "Casa Central", PercentOfBaseline: "163.2"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if content != "Casa Central: 163.2%" {
		t.Fatalf("content = %q", content)
	}
}

func TestNewWebhookChannelRequiresURL(t *testing.T) {
	if _, err := NewWebhookChannel(""); err == nil {
		t.Fatal("expected error for empty url")
	}
}
