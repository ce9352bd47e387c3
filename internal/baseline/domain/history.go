// Package baseline keeps per-account consumption history and scores
// the current month against the average of recent months.
package baseline

import (
	"context"
	"sort"

	invoice "github.com/teo1264/enel-system/internal/invoice/domain"
)

// Point is one month of consumption for an account.
type Point struct {
	Period         invoice.BillingPeriod
	ConsumptionKWh float64
}

// History holds an account's consumption points, one per billing
// period. Recording the same period again overwrites the stored
// value, which makes replaying a batch idempotent.
type History struct {
	accountID string
	points    map[string]Point
}

func NewHistory(accountID string, points []Point) *History {
	h := &History{accountID: accountID, points: make(map[string]Point, len(points))}
	for _, p := range points {
		h.Record(p)
	}
	return h
}

func (h *History) AccountID() string { return h.accountID }

// Record stores a point, replacing any earlier value for the period.
func (h *History) Record(p Point) {
	if p.Period.IsZero() {
		return
	}
	h.points[p.Period.Key()] = p
}

func (h *History) Len() int { return len(h.points) }

// Points returns all points ordered by period, oldest first.
func (h *History) Points() []Point {
	out := make([]Point, 0, len(h.points))
	for _, p := range h.points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out
}

// PriorWindow returns up to window points strictly before period,
// most recent first. Zero-consumption points are skipped: a month
// with no recorded usage would drag the average toward zero and fire
// false alerts.
func (h *History) PriorWindow(period invoice.BillingPeriod, window int) []Point {
	prior := make([]Point, 0, len(h.points))
	for _, p := range h.points {
		if p.Period.Before(period) && p.ConsumptionKWh > 0 {
			prior = append(prior, p)
		}
	}
	sort.Slice(prior, func(i, j int) bool { return prior[j].Period.Before(prior[i].Period) })
	if len(prior) > window {
		prior = prior[:window]
	}
	return prior
}

// HistoryStore persists consumption history per account.
type HistoryStore interface {
	Load(ctx context.Context, accountID string) (*History, error)
	Record(ctx context.Context, accountID string, p Point) error
}
