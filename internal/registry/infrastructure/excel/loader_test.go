package excel

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	registry "github.com/teo1264/enel-system/internal/registry/domain"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "registry.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Casa de Oração", "Instalação", "Vencimento"},
		{"Casa Central", "718968230", 15},
		{"Salão Norte", "555123456", "10/08/2025"},
		{},
	})
	table, err := (&Loader{}).Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d", table.Len())
	}
	e, ok := table.Lookup("718968230")
	if !ok || e.DueDay != 15 {
		t.Fatalf("entry = %+v, %v", e, ok)
	}
	e, ok = table.Lookup("555123456")
	if !ok || e.DueDay != 10 {
		t.Fatalf("date-form due day = %+v, %v", e, ok)
	}
}

func TestLoadRejectsDuplicateAccounts(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Site", "Conta", "Dia"},
		{"A", "718968230", 15},
		{"B", "718968230", 10},
	})
	_, err := (&Loader{}).Load(path)
	if !errors.Is(err, registry.ErrDuplicateAccount) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadRejectsBadDueDay(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Site", "Conta", "Dia"},
		{"A", "718968230", 45},
	})
	_, err := (&Loader{}).Load(path)
	if !errors.Is(err, registry.ErrInvalidDueDay) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	if _, err := (&Loader{}).Load(filepath.Join(t.TempDir(), "nope.xlsx")); err == nil {
		t.Fatal("expected error for missing workbook")
	}
}
