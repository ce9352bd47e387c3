package batch

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	invoice "github.com/teo1264/enel-system/internal/invoice/domain"
	registry "github.com/teo1264/enel-system/internal/registry/domain"
)

// MissingSite is a registry site that produced no accepted invoice in
// the run.
type MissingSite struct {
	SiteName  string
	AccountID string
	DueDay    int
}

// Summary aggregates one pipeline run. Zero counts are real results:
// a run over an empty folder still produces a summary.
type Summary struct {
	RunID      string
	Period     invoice.BillingPeriod
	StartedAt  time.Time
	FinishedAt time.Time
	// Partial marks a run that stopped before consuming every input,
	// e.g. on cancellation. Counts cover only what was processed.
	Partial bool

	Outcomes []Outcome

	Total      int
	Accepted   int
	Duplicates int
	Failed     int
	Unmapped   int
	Alerts     int

	// ExpectedUnits is the registry size at run time.
	ExpectedUnits int
	// TotalAmount sums total_amount over accepted records only;
	// duplicates and failures never contribute.
	TotalAmount decimal.Decimal

	// MissingSites lists registry sites with no accepted invoice this
	// run. Together with the Unmapped flag it completes both sides of
	// the registry reconciliation.
	MissingSites []MissingSite
}

// BuildSummary derives counts and the missing-site list from the
// outcomes and the registry table. A nil table yields no missing
// sites and marks every accepted outcome unmapped-as-recorded.
func BuildSummary(period invoice.BillingPeriod, outcomes []Outcome, table *registry.Table, startedAt, finishedAt time.Time, partial bool) Summary {
	s := Summary{
		RunID:      uuid.NewString(),
		Period:     period,
		StartedAt:  startedAt.UTC(),
		FinishedAt: finishedAt.UTC(),
		Partial:    partial,
		Outcomes:   outcomes,
		Total:      len(outcomes),
	}

	seen := make(map[string]struct{})
	for _, o := range outcomes {
		switch o.Status {
		case StatusAccepted:
			s.Accepted++
			if o.Unmapped {
				s.Unmapped++
			}
			if o.Alerting() {
				s.Alerts++
			}
			if o.Record != nil {
				s.TotalAmount = s.TotalAmount.Add(o.Record.TotalAmount)
				seen[registry.NormalizeAccount(o.Record.AccountID)] = struct{}{}
			}
		case StatusDuplicate:
			s.Duplicates++
		case StatusFailed:
			s.Failed++
		}
	}

	if table != nil {
		s.ExpectedUnits = table.Len()
		for _, e := range table.Entries() {
			if _, ok := seen[registry.NormalizeAccount(e.AccountID)]; ok {
				continue
			}
			s.MissingSites = append(s.MissingSites, MissingSite{
				SiteName:  e.SiteName,
				AccountID: e.AccountID,
				DueDay:    e.DueDay,
			})
		}
	}
	return s
}
