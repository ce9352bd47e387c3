package postgres

import (
	"context"
	"database/sql"
	"errors"

	baseline "github.com/teo1264/enel-system/internal/baseline/domain"
	invoice "github.com/teo1264/enel-system/internal/invoice/domain"
	registry "github.com/teo1264/enel-system/internal/registry/domain"
)

// HistoryStore persists monthly consumption per account. The table
// has a primary key on (account_id, period_key); recording a period
// again overwrites the stored value.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore constructs a store.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Load returns the full history for an account. An account with no
// rows yields an empty history, not an error.
func (s *HistoryStore) Load(ctx context.Context, accountID string) (*baseline.History, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history store: nil db")
	}
	account := registry.NormalizeAccount(accountID)
	rows, err := s.db.QueryContext(ctx, `
SELECT period_key, consumption_kwh
FROM consumption_history
WHERE account_id = $1
ORDER BY period_key ASC`, account)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []baseline.Point
	for rows.Next() {
		var key string
		var kwh float64
		if err := rows.Scan(&key, &kwh); err != nil {
			return nil, err
		}
		period, err := invoice.ParsePeriodKey(key)
		if err != nil {
			return nil, err
		}
		points = append(points, baseline.Point{Period: period, ConsumptionKWh: kwh})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return baseline.NewHistory(account, points), nil
}

// Record upserts one month of consumption.
func (s *HistoryStore) Record(ctx context.Context, accountID string, p baseline.Point) error {
	if s == nil || s.db == nil {
		return errors.New("history store: nil db")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO consumption_history (account_id, period_key, consumption_kwh)
VALUES ($1,$2,$3)
ON CONFLICT (account_id, period_key)
DO UPDATE SET consumption_kwh = EXCLUDED.consumption_kwh`,
		registry.NormalizeAccount(accountID), p.Period.Key(), p.ConsumptionKWh)
	return err
}
