package postgres

import (
	"context"
	"database/sql"
	"errors"

	invoice "github.com/teo1264/enel-system/internal/invoice/domain"
	ledger "github.com/teo1264/enel-system/internal/ledger/domain"
)

// LedgerStore persists accepted invoices. The table carries unique
// constraints on (period_key, account_id) and (period_key,
// document_id); either conflict maps to ledger.ErrAlreadyAccepted.
type LedgerStore struct {
	db *sql.DB
}

// NewLedgerStore constructs a store.
func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// List returns the entries accepted for a billing period.
func (s *LedgerStore) List(ctx context.Context, period invoice.BillingPeriod) ([]ledger.Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("ledger store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT account_id, document_id, period_key, source_file, accepted_at
FROM processing_ledger
WHERE period_key = $1
ORDER BY accepted_at ASC`, period.Key())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var key string
		if err := rows.Scan(&e.AccountID, &e.DocumentID, &key, &e.SourceFile, &e.AcceptedAt); err != nil {
			return nil, err
		}
		p, err := invoice.ParsePeriodKey(key)
		if err != nil {
			return nil, err
		}
		e.Period = p
		e.AcceptedAt = e.AcceptedAt.UTC()
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Append inserts an entry, reporting ledger.ErrAlreadyAccepted when a
// conflicting entry exists for the same period.
func (s *LedgerStore) Append(ctx context.Context, entry ledger.Entry) error {
	if s == nil || s.db == nil {
		return errors.New("ledger store: nil db")
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO processing_ledger (period_key, account_id, document_id, source_file, accepted_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT DO NOTHING`,
		entry.Period.Key(), entry.AccountID, entry.DocumentID, entry.SourceFile, entry.AcceptedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrAlreadyAccepted
	}
	return nil
}
