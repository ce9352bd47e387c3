package extract

import (
	"testing"
	"time"
)

func TestParseDecimalBR(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"126,37", "126.37"},
		{"1.234,56", "1234.56"},
		{"12.345.678,90", "12345678.9"},
		{"1.234", "1234"},
		{"280", "280"},
		{"0,50", "0.5"},
		{" 73,63 ", "73.63"},
	}
	for _, c := range cases {
		got, err := parseDecimalBR(c.in)
		if err != nil {
			t.Fatalf("parseDecimalBR(%q): %v", c.in, err)
		}
		if got.String() != c.want {
			t.Fatalf("parseDecimalBR(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestParseDecimalBRRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "12,34,56"} {
		if _, err := parseDecimalBR(in); err == nil {
			t.Fatalf("parseDecimalBR(%q) should fail", in)
		}
	}
}

func TestParseDateBR(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"15/07/2025", time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)},
		{"01-02-2024", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-07-15", time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got, ok := parseDateBR(c.in)
		if !ok {
			t.Fatalf("parseDateBR(%q) failed", c.in)
		}
		if !got.Equal(c.want) {
			t.Fatalf("parseDateBR(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if _, ok := parseDateBR("31/13/2025"); ok {
		t.Fatal("parseDateBR accepted an impossible month")
	}
}
