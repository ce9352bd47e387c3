package extract

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ReadPDFText extracts the text layer of a billing PDF. Utility bills
// come in several generations of layout engines, so extraction is
// tried row-wise first, then by raw content objects with coordinate
// reconstruction, then via whole-document plain text. The first
// method whose output passes the readability gate wins; if none does,
// the document is reported unreadable rather than returning garbage.
func ReadPDFText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract: pdf parser panic on %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("extract: open %s: %w", path, err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("extract: %s has no pages", path)
	}

	if text := textByRow(r, numPages); Readable(text) {
		return text, nil
	}
	if text := textByContent(r, numPages); Readable(text) {
		return text, nil
	}
	if text := textByPlainText(r); Readable(text) {
		return text, nil
	}
	return "", fmt.Errorf("extract: no readable text in %s", path)
}

func textByRow(r *pdf.Reader, numPages int) string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return strings.Join(pages, "\n\n")
}

// textByContent reconstructs lines from positioned text objects: items
// sharing a Y coordinate form a row, rows are emitted top to bottom.
func textByContent(r *pdf.Reader, numPages int) string {
	type item struct {
		x float64
		s string
	}
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}
		rows := make(map[int][]item)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			y := int(math.Round(t.Y))
			rows[y] = append(rows[y], item{x: t.X, s: t.S})
		}
		ys := make([]int, 0, len(rows))
		for y := range rows {
			ys = append(ys, y)
		}
		// PDF Y grows bottom-up.
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		var lines []string
		for _, y := range ys {
			items := rows[y]
			sort.Slice(items, func(a, b int) bool { return items[a].x < items[b].x })
			var parts []string
			var prevX float64
			for j, it := range items {
				if j > 0 && it.x-prevX > 15 {
					parts = append(parts, " ")
				}
				parts = append(parts, it.s)
				prevX = it.x
			}
			if line := strings.TrimSpace(strings.Join(parts, "")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return strings.Join(pages, "\n\n")
}

func textByPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
