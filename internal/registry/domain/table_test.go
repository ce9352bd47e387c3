package registry

import (
	"errors"
	"testing"
)

func validEntries() []Entry {
	return []Entry{
		{SiteName: "Casa Central", AccountID: "718968230", DueDay: 15},
		{SiteName: "Salão Norte", AccountID: "555123456", DueDay: 10},
	}
}

func TestNewTable(t *testing.T) {
	table, err := NewTable(validEntries())
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d", table.Len())
	}
	e, ok := table.Lookup("718968230")
	if !ok || e.SiteName != "Casa Central" {
		t.Fatalf("Lookup = %+v, %v", e, ok)
	}
}

func TestLookupNormalizes(t *testing.T) {
	table, err := NewTable(validEntries())
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if _, ok := table.Lookup("  718968230 "); !ok {
		t.Fatal("padded account id should resolve")
	}
	if _, ok := table.Lookup("000000000"); ok {
		t.Fatal("unknown account resolved")
	}
}

func TestNewTableRejections(t *testing.T) {
	cases := []struct {
		name    string
		entries []Entry
		want    error
	}{
		{"empty", nil, ErrEmptyRegistry},
		{"duplicate account", append(validEntries(),
			Entry{SiteName: "Anexo", AccountID: " 718968230", DueDay: 5}), ErrDuplicateAccount},
		{"due day zero", []Entry{{SiteName: "X", AccountID: "1234567", DueDay: 0}}, ErrInvalidDueDay},
		{"due day 32", []Entry{{SiteName: "X", AccountID: "1234567", DueDay: 32}}, ErrInvalidDueDay},
		{"no name", []Entry{{AccountID: "1234567", DueDay: 5}}, ErrMissingName},
		{"no account", []Entry{{SiteName: "X", DueDay: 5}}, ErrMissingAccountID},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := NewTable(c.entries); !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
		})
	}
}
