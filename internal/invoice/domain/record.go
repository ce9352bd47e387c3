package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// SolarOffset holds the photovoltaic compensation fields that appear on
// invoices for accounts with a solar system. Presence of the struct is
// the presence tag: a record without solar compensation carries nil.
type SolarOffset struct {
	TUSDCredit decimal.Decimal
	TECredit   decimal.Decimal
	// GrossAmount is the amount the invoice would have carried without
	// the compensation. Zero when the invoice does not state it; callers
	// fall back to net amount + total credit.
	GrossAmount decimal.Decimal
}

// TotalCredit returns the combined TUSD and TE compensation.
func (s SolarOffset) TotalCredit() decimal.Decimal {
	return s.TUSDCredit.Add(s.TECredit)
}

// InvoiceRecord is the typed result of extracting one invoice document.
// Immutable once accepted into a run's ledger.
type InvoiceRecord struct {
	AccountID      string
	DocumentID     string
	IssueDate      time.Time
	DueDate        time.Time
	TotalAmount    decimal.Decimal
	ConsumptionKWh float64
	Period         BillingPeriod
	Solar          *SolarOffset
	SourceFile     string
}

// Validate checks the record-level invariants.
func (r InvoiceRecord) Validate() error {
	if r.AccountID == "" {
		return ErrMissingAccountID
	}
	if r.DocumentID == "" {
		return ErrMissingDocumentID
	}
	if r.ConsumptionKWh < 0 {
		return ErrNegativeConsumption
	}
	if r.TotalAmount.IsNegative() {
		return ErrNegativeAmount
	}
	if r.Period.IsZero() {
		return ErrInvalidPeriod
	}
	return nil
}

// HasSolar reports whether the invoice carries a solar-offset section.
func (r InvoiceRecord) HasSolar() bool { return r.Solar != nil }

// GrossAmount returns the pre-offset amount: the stated gross when the
// invoice carries one, otherwise net amount plus total credit. For
// records without solar offset it equals TotalAmount.
func (r InvoiceRecord) GrossAmount() decimal.Decimal {
	if r.Solar == nil {
		return r.TotalAmount
	}
	if !r.Solar.GrossAmount.IsZero() {
		return r.Solar.GrossAmount
	}
	return r.TotalAmount.Add(r.Solar.TotalCredit())
}

// SolarSavingsPercent returns the share of the gross amount covered by
// solar compensation, in percent. Zero when there is no offset or the
// gross amount is zero.
func (r InvoiceRecord) SolarSavingsPercent() float64 {
	if r.Solar == nil {
		return 0
	}
	gross := r.GrossAmount()
	if gross.IsZero() {
		return 0
	}
	ratio, _ := r.Solar.TotalCredit().Div(gross).Float64()
	return ratio * 100
}
