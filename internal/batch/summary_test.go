package batch

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	invoice "github.com/teo1264/enel-system/internal/invoice/domain"
)

func acceptedOutcome(t *testing.T, account, doc, amount string) Outcome {
	t.Helper()
	period, err := invoice.ParseBillingPeriod("2025-06")
	if err != nil {
		t.Fatalf("ParseBillingPeriod: %v", err)
	}
	total, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("NewFromString(%q): %v", amount, err)
	}
	return Outcome{
		SourceFile: doc + ".pdf",
		Status:     StatusAccepted,
		Record: &invoice.InvoiceRecord{
			AccountID:      account,
			DocumentID:     doc,
			Period:         period,
			DueDate:        time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
			TotalAmount:    total,
			ConsumptionKWh: 280,
		},
	}
}

func TestBuildSummaryMonetaryTotal(t *testing.T) {
	table := testTable(t)
	period, _ := invoice.ParseBillingPeriod("2025-06")

	dup := acceptedOutcome(t, "555123456", "333", "500.00")
	dup.Status = StatusDuplicate
	dup.DuplicateReason = "account already has a bill this period"

	outcomes := []Outcome{
		acceptedOutcome(t, "718968230", "111", "126.37"),
		acceptedOutcome(t, "555123456", "222", "99.00"),
		dup,
		{SourceFile: "bad.pdf", Status: StatusFailed, FailureField: "document", FailureReason: "unreadable document"},
	}

	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	s := BuildSummary(period, outcomes, table, now, now.Add(time.Second), false)

	if got, want := s.TotalAmount.StringFixed(2), "225.37"; got != want {
		t.Fatalf("TotalAmount = %s, want %s", got, want)
	}
	if s.ExpectedUnits != table.Len() {
		t.Fatalf("ExpectedUnits = %d, want %d", s.ExpectedUnits, table.Len())
	}
	if s.Accepted != 2 || s.Duplicates != 1 || s.Failed != 1 {
		t.Fatalf("counts = %d/%d/%d", s.Accepted, s.Duplicates, s.Failed)
	}
}

func TestBuildSummaryEmptyRunHasZeroTotal(t *testing.T) {
	table := testTable(t)
	period, _ := invoice.ParseBillingPeriod("2025-06")
	now := time.Now().UTC()

	s := BuildSummary(period, nil, table, now, now, false)
	if got := s.TotalAmount.StringFixed(2); got != "0.00" {
		t.Fatalf("TotalAmount = %s, want 0.00", got)
	}
	if s.ExpectedUnits != table.Len() {
		t.Fatalf("ExpectedUnits = %d, want %d", s.ExpectedUnits, table.Len())
	}
}
