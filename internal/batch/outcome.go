// Package batch runs the invoice pipeline over a set of documents:
// extract, reconcile against the registry, deduplicate through the
// ledger, score consumption and aggregate a run summary.
package batch

import (
	baseline "github.com/teo1264/enel-system/internal/baseline/domain"
	invoice "github.com/teo1264/enel-system/internal/invoice/domain"
)

// Status is the terminal state of one document in a run. Every
// document lands in exactly one status, so the three counts always
// add up to the number of documents processed.
type Status string

const (
	StatusAccepted  Status = "accepted"
	StatusDuplicate Status = "duplicate"
	StatusFailed    Status = "failed"
)

// Outcome is the per-document result.
type Outcome struct {
	SourceFile string
	Status     Status

	// Record is set for accepted and duplicate outcomes.
	Record *invoice.InvoiceRecord

	// SiteName is the registry site for the account; empty when the
	// account is not in the registry.
	SiteName string
	// Unmapped marks an accepted invoice whose account has no
	// registry entry. It is orthogonal to Status.
	Unmapped bool

	// DuplicateReason is set for duplicate outcomes.
	DuplicateReason string

	// FailureField and FailureReason are set for failed outcomes.
	FailureField  string
	FailureReason string

	// Assessment is set for accepted outcomes.
	Assessment *baseline.Assessment
}

// Alerting reports whether the outcome carries a high consumption
// assessment.
func (o Outcome) Alerting() bool {
	return o.Assessment != nil && o.Assessment.Severity == baseline.SeverityHigh
}
