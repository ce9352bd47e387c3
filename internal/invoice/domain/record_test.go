package invoice

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validRecord(t *testing.T) InvoiceRecord {
	t.Helper()
	period, err := NewBillingPeriod(2025, time.June)
	if err != nil {
		t.Fatalf("new period: %v", err)
	}
	return InvoiceRecord{
		AccountID:      "123456789",
		DocumentID:     "718968230",
		TotalAmount:    decimal.RequireFromString("126.37"),
		ConsumptionKWh: 280,
		Period:         period,
	}
}

func TestInvoiceRecordValidate(t *testing.T) {
	record := validRecord(t)
	if err := record.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	missing := record
	missing.AccountID = ""
	if err := missing.Validate(); !errors.Is(err, ErrMissingAccountID) {
		t.Fatalf("expected ErrMissingAccountID, got %v", err)
	}

	negative := record
	negative.ConsumptionKWh = -1
	if err := negative.Validate(); !errors.Is(err, ErrNegativeConsumption) {
		t.Fatalf("expected ErrNegativeConsumption, got %v", err)
	}

	noDoc := record
	noDoc.DocumentID = ""
	if err := noDoc.Validate(); !errors.Is(err, ErrMissingDocumentID) {
		t.Fatalf("expected ErrMissingDocumentID, got %v", err)
	}
}

func TestGrossAmountWithoutSolar(t *testing.T) {
	record := validRecord(t)
	if record.HasSolar() {
		t.Fatal("expected no solar offset")
	}
	if !record.GrossAmount().Equal(record.TotalAmount) {
		t.Fatalf("expected gross == net without solar, got %s", record.GrossAmount())
	}
	if got := record.SolarSavingsPercent(); got != 0 {
		t.Fatalf("expected zero savings without solar, got %f", got)
	}
}

func TestGrossAmountWithSolarOffset(t *testing.T) {
	record := validRecord(t)
	record.Solar = &SolarOffset{
		TUSDCredit: decimal.RequireFromString("40.00"),
		TECredit:   decimal.RequireFromString("33.63"),
	}

	// 126.37 net + 73.63 credit = 200.00 gross
	if !record.GrossAmount().Equal(decimal.RequireFromString("200.00")) {
		t.Fatalf("expected gross 200.00, got %s", record.GrossAmount())
	}
	savings := record.SolarSavingsPercent()
	if savings < 36.8 || savings > 36.9 {
		t.Fatalf("expected savings around 36.8%%, got %f", savings)
	}

	// Stated gross wins over the derived one.
	record.Solar.GrossAmount = decimal.RequireFromString("210.00")
	if !record.GrossAmount().Equal(decimal.RequireFromString("210.00")) {
		t.Fatalf("expected stated gross 210.00, got %s", record.GrossAmount())
	}
}
