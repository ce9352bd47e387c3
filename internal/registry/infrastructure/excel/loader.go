// Package excel loads the site registry from the operations
// spreadsheet. The sheet carries one row per consumption site with
// the site name, the utility account and the contracted due day.
package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	registry "github.com/teo1264/enel-system/internal/registry/domain"
)

// Column layout of the registry workbook.
const (
	colSiteName = 0
	colAccount  = 1
	colDueDay   = 2
)

// Loader reads registry workbooks. Sheet selects a named sheet;
// empty means the first sheet in the workbook.
type Loader struct {
	Sheet string
}

// Load reads and validates the registry. Any error here is fatal for
// a pipeline run: without the registry there is no reconciliation
// baseline, so no partial table is ever returned.
func (l *Loader) Load(path string) (*registry.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("excel: open %s: %w", path, err)
	}
	defer f.Close()

	sheet := l.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("excel: %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("excel: read sheet %q: %w", sheet, err)
	}

	var entries []registry.Entry
	for i, row := range rows {
		if isBlankRow(row) {
			continue
		}
		if i == 0 && isHeaderRow(row) {
			continue
		}
		entry, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("excel: row %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}

	table, err := registry.NewTable(entries)
	if err != nil {
		return nil, fmt.Errorf("excel: %s: %w", path, err)
	}
	return table, nil
}

func parseRow(row []string) (registry.Entry, error) {
	e := registry.Entry{
		SiteName:  strings.TrimSpace(cell(row, colSiteName)),
		AccountID: strings.TrimSpace(cell(row, colAccount)),
	}
	due := strings.TrimSpace(cell(row, colDueDay))
	day, err := parseDueDay(due)
	if err != nil {
		return registry.Entry{}, err
	}
	e.DueDay = day
	return e, e.Validate()
}

// parseDueDay accepts either a bare day number or a full date, from
// which the day of month is taken. Both forms occur in the sheets.
func parseDueDay(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("due day column empty")
	}
	if day, err := strconv.Atoi(s); err == nil {
		return day, nil
	}
	for _, layout := range []string{"02/01/2006", "02-01-2006", "2006-01-02", "01-02-06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Day(), nil
		}
	}
	return 0, fmt.Errorf("due day %q is neither a day number nor a date", s)
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// isHeaderRow treats a first row without a numeric account column as
// a header.
func isHeaderRow(row []string) bool {
	acc := strings.TrimSpace(cell(row, colAccount))
	if acc == "" {
		return true
	}
	_, err := strconv.Atoi(acc)
	return err != nil
}
