// Package ledger tracks which invoices a run has already accepted,
// per billing period. The ledger is the source of truth for duplicate
// detection: one bill per account per period, and a fiscal document
// is only ever counted once.
package ledger

import (
	"context"
	"errors"
	"time"

	invoice "github.com/teo1264/enel-system/internal/invoice/domain"
	registry "github.com/teo1264/enel-system/internal/registry/domain"
)

// ErrAlreadyAccepted is returned by Store.Append when a conflicting
// entry for the same period already exists.
var ErrAlreadyAccepted = errors.New("ledger: entry already accepted for period")

// Duplicate reasons reported on batch outcomes.
const (
	ReasonDocumentSeen  = "document already processed this period"
	ReasonAccountBilled = "account already has a bill this period"
)

// Entry is one accepted invoice in the ledger.
type Entry struct {
	AccountID  string
	DocumentID string
	Period     invoice.BillingPeriod
	SourceFile string
	AcceptedAt time.Time
}

// FromRecord builds a ledger entry for an accepted invoice.
func FromRecord(rec invoice.InvoiceRecord, acceptedAt time.Time) Entry {
	return Entry{
		AccountID:  rec.AccountID,
		DocumentID: rec.DocumentID,
		Period:     rec.Period,
		SourceFile: rec.SourceFile,
		AcceptedAt: acceptedAt.UTC(),
	}
}

// Store persists ledger entries scoped by billing period. Append
// returns ErrAlreadyAccepted when the account or document already has
// an entry for the period.
type Store interface {
	List(ctx context.Context, period invoice.BillingPeriod) ([]Entry, error)
	Append(ctx context.Context, entry Entry) error
}

// Detector answers whether a record duplicates an earlier acceptance.
// It is seeded from persisted ledger entries and extended with every
// in-flight acceptance, so duplicates are caught within a single run
// as well as across runs. Not safe for concurrent use; the batch
// processor serializes acceptance.
type Detector struct {
	docs     map[string]struct{}
	accounts map[string]struct{}
}

func NewDetector(existing []Entry) *Detector {
	d := &Detector{
		docs:     make(map[string]struct{}, len(existing)),
		accounts: make(map[string]struct{}, len(existing)),
	}
	for _, e := range existing {
		d.note(e.AccountID, e.DocumentID, e.Period)
	}
	return d
}

// Check reports whether rec duplicates an earlier acceptance. Document
// identity is checked before account identity, so a resubmitted file
// is reported as a repeat document rather than a second account bill.
func (d *Detector) Check(rec invoice.InvoiceRecord) (reason string, duplicate bool) {
	if _, ok := d.docs[docKey(rec.DocumentID, rec.Period)]; ok {
		return ReasonDocumentSeen, true
	}
	if _, ok := d.accounts[accountKey(rec.AccountID, rec.Period)]; ok {
		return ReasonAccountBilled, true
	}
	return "", false
}

// Note records an acceptance so later documents in the same run are
// checked against it.
func (d *Detector) Note(rec invoice.InvoiceRecord) {
	d.note(rec.AccountID, rec.DocumentID, rec.Period)
}

func (d *Detector) note(accountID, documentID string, period invoice.BillingPeriod) {
	d.docs[docKey(documentID, period)] = struct{}{}
	d.accounts[accountKey(accountID, period)] = struct{}{}
}

func docKey(documentID string, period invoice.BillingPeriod) string {
	return period.Key() + "/" + registry.NormalizeAccount(documentID)
}

func accountKey(accountID string, period invoice.BillingPeriod) string {
	return period.Key() + "/" + registry.NormalizeAccount(accountID)
}
