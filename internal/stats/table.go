package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/covidash/internal/model"
)

const favoriteMark = "★"

// RenderCountryTable prints countries as an aligned table. isFavorite may be
// nil.
func RenderCountryTable(w io.Writer, countries []model.CountrySummary, isFavorite func(string) bool) error {
	if len(countries) == 0 {
		_, err := fmt.Fprintln(w, "No countries match.")
		return err
	}
	headers := []string{"", "Country", "Continent", "Cases", "Deaths", "Recovered", "Population"}
	rows := make([][]string, 0, len(countries))
	for _, c := range countries {
		mark := ""
		if isFavorite != nil && isFavorite(c.Name) {
			mark = favoriteMark
		}
		rows = append(rows, []string{
			mark,
			c.Name,
			c.Continent,
			FormatCount(c.Cases),
			FormatCount(c.Deaths),
			FormatCount(c.Recovered),
			FormatCount(c.Population),
		})
	}
	rightAlign := map[int]bool{3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		colCount = max(colCount, len(row))
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if rightAlignCols[i] {
			cells[i] = runewidth.FillLeft(cell, width)
		} else {
			cells[i] = runewidth.FillRight(cell, width)
		}
	}
	return strings.Join(cells, " ")
}
