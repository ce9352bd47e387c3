package invoice

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BillingPeriod identifies the invoicing cycle (year-month) a record
// belongs to. It is the scope key for the processing ledger and the
// ordering key for consumption history.
type BillingPeriod struct {
	year  int
	month time.Month
}

// NewBillingPeriod builds a period from year and month.
func NewBillingPeriod(year int, month time.Month) (BillingPeriod, error) {
	if year < 2000 || year > 2200 {
		return BillingPeriod{}, ErrInvalidPeriod
	}
	if month < time.January || month > time.December {
		return BillingPeriod{}, ErrInvalidPeriod
	}
	return BillingPeriod{year: year, month: month}, nil
}

// ParseBillingPeriod accepts "MM/YYYY" (invoice competência format) and
// "YYYY-MM".
func ParseBillingPeriod(value string) (BillingPeriod, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return BillingPeriod{}, ErrInvalidPeriod
	}
	switch {
	case strings.Contains(value, "/"):
		parts := strings.SplitN(value, "/", 2)
		month, err := strconv.Atoi(parts[0])
		if err != nil {
			return BillingPeriod{}, ErrInvalidPeriod
		}
		year, err := strconv.Atoi(parts[1])
		if err != nil {
			return BillingPeriod{}, ErrInvalidPeriod
		}
		return NewBillingPeriod(year, time.Month(month))
	case strings.Contains(value, "-"):
		parts := strings.SplitN(value, "-", 2)
		year, err := strconv.Atoi(parts[0])
		if err != nil {
			return BillingPeriod{}, ErrInvalidPeriod
		}
		month, err := strconv.Atoi(parts[1])
		if err != nil {
			return BillingPeriod{}, ErrInvalidPeriod
		}
		return NewBillingPeriod(year, time.Month(month))
	default:
		return BillingPeriod{}, ErrInvalidPeriod
	}
}

// ParsePeriodKey parses the compact storage key produced by Key,
// e.g. "202501".
func ParsePeriodKey(key string) (BillingPeriod, error) {
	key = strings.TrimSpace(key)
	if len(key) != 6 {
		return BillingPeriod{}, ErrInvalidPeriod
	}
	year, err := strconv.Atoi(key[:4])
	if err != nil {
		return BillingPeriod{}, ErrInvalidPeriod
	}
	month, err := strconv.Atoi(key[4:])
	if err != nil {
		return BillingPeriod{}, ErrInvalidPeriod
	}
	return NewBillingPeriod(year, time.Month(month))
}

// PeriodOf returns the billing period containing t.
func PeriodOf(t time.Time) BillingPeriod {
	return BillingPeriod{year: t.Year(), month: t.Month()}
}

// Year returns the period year.
func (p BillingPeriod) Year() int { return p.year }

// Month returns the period month.
func (p BillingPeriod) Month() time.Month { return p.month }

// IsZero reports whether the period is unset.
func (p BillingPeriod) IsZero() bool { return p.year == 0 }

// Key returns the storage-friendly key, e.g. "202501".
func (p BillingPeriod) Key() string {
	return fmt.Sprintf("%04d%02d", p.year, int(p.month))
}

// String returns the canonical "YYYY-MM" form.
func (p BillingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.year, int(p.month))
}

// Before reports whether p is strictly earlier than other.
func (p BillingPeriod) Before(other BillingPeriod) bool {
	if p.year != other.year {
		return p.year < other.year
	}
	return p.month < other.month
}

// Prev returns the immediately preceding period.
func (p BillingPeriod) Prev() BillingPeriod {
	if p.month == time.January {
		return BillingPeriod{year: p.year - 1, month: time.December}
	}
	return BillingPeriod{year: p.year, month: p.month - 1}
}
