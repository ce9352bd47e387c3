package registry

import (
	"fmt"
	"sort"
	"strings"
)

// Entry is one row of the site registry: a consumption site, its
// utility account and the contracted payment day.
type Entry struct {
	// SiteName is the human name of the consumption site.
	SiteName string
	// AccountID is the utility installation number for the site.
	AccountID string
	// DueDay is the contracted day of month bills fall due on.
	DueDay int
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.SiteName) == "" {
		return ErrMissingName
	}
	if NormalizeAccount(e.AccountID) == "" {
		return ErrMissingAccountID
	}
	if e.DueDay < 1 || e.DueDay > 31 {
		return fmt.Errorf("%w: %d", ErrInvalidDueDay, e.DueDay)
	}
	return nil
}

// NormalizeAccount canonicalizes an account id for lookups. Account
// ids arrive from spreadsheets and extracted text with stray spaces
// and mixed case, so both sides of every comparison go through here.
func NormalizeAccount(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Table is the validated, immutable registry keyed by normalized
// account id. It is safe for concurrent reads.
type Table struct {
	entries   []Entry
	byAccount map[string]Entry
}

// NewTable validates every entry and rejects duplicate account ids:
// a registry that maps one account to two sites cannot reconcile
// invoices unambiguously, so loading fails instead.
func NewTable(entries []Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyRegistry
	}
	byAccount := make(map[string]Entry, len(entries))
	kept := make([]Entry, 0, len(entries))
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("registry: entry %d (%s): %w", i+1, e.SiteName, err)
		}
		key := NormalizeAccount(e.AccountID)
		if prev, ok := byAccount[key]; ok {
			return nil, fmt.Errorf("%w: %s used by %q and %q",
				ErrDuplicateAccount, e.AccountID, prev.SiteName, e.SiteName)
		}
		byAccount[key] = e
		kept = append(kept, e)
	}
	return &Table{entries: kept, byAccount: byAccount}, nil
}

// Lookup resolves an account id to its registry entry.
func (t *Table) Lookup(accountID string) (Entry, bool) {
	e, ok := t.byAccount[NormalizeAccount(accountID)]
	return e, ok
}

func (t *Table) Len() int { return len(t.entries) }

// Entries returns the registry rows in load order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Accounts returns the normalized account ids, sorted.
func (t *Table) Accounts() []string {
	out := make([]string, 0, len(t.byAccount))
	for id := range t.byAccount {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
