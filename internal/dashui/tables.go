package dashui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/covidash/internal/model"
	"github.com/verte-zerg/covidash/internal/stats"
)

const favoriteMark = "★"

const (
	markWidth   = 2
	numberWidth = 13
	minNameCol  = 12
)

// countryColumns sizes the country column to absorb whatever width the
// fixed columns leave.
func countryColumns(width int) []table.Column {
	continentWidth := 14
	fixed := markWidth + continentWidth + 3*numberWidth + 5
	name := max(minNameCol, width-fixed)
	return []table.Column{
		{Title: "", Width: markWidth},
		{Title: "Country", Width: name},
		{Title: "Continent", Width: continentWidth},
		{Title: "Cases", Width: numberWidth},
		{Title: "Deaths", Width: numberWidth},
		{Title: "Recovered", Width: numberWidth},
	}
}

func countryRows(list []model.CountrySummary, isFavorite func(string) bool, nameWidth int) []table.Row {
	rows := make([]table.Row, 0, len(list))
	for _, c := range list {
		mark := ""
		if isFavorite(c.Name) {
			mark = favoriteMark
		}
		rows = append(rows, table.Row{
			mark,
			runewidth.Truncate(c.Name, nameWidth, "…"),
			c.Continent,
			runewidth.FillLeft(stats.FormatCount(c.Cases), numberWidth-1),
			runewidth.FillLeft(stats.FormatCount(c.Deaths), numberWidth-1),
			runewidth.FillLeft(stats.FormatCount(c.Recovered), numberWidth-1),
		})
	}
	return rows
}

func savedColumns(width int) []table.Column {
	listWidth := 10
	fixed := listWidth + markWidth + numberWidth + 3
	name := max(minNameCol, width-fixed)
	return []table.Column{
		{Title: "List", Width: listWidth},
		{Title: "", Width: markWidth},
		{Title: "Country", Width: name},
		{Title: "Cases", Width: numberWidth},
	}
}

// savedEntry is one row of the recent and favorites tab.
type savedEntry struct {
	list    string
	country model.CountrySummary
}

func savedEntries(recent, favorites []model.CountrySummary) []savedEntry {
	out := make([]savedEntry, 0, len(recent)+len(favorites))
	for _, c := range recent {
		out = append(out, savedEntry{list: "Recent", country: c})
	}
	for _, c := range favorites {
		out = append(out, savedEntry{list: "Favorite", country: c})
	}
	return out
}

func savedRows(entries []savedEntry, isFavorite func(string) bool, nameWidth int) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		mark := ""
		if isFavorite(e.country.Name) {
			mark = favoriteMark
		}
		rows = append(rows, table.Row{
			e.list,
			mark,
			runewidth.Truncate(e.country.Name, nameWidth, "…"),
			runewidth.FillLeft(stats.FormatCount(e.country.Cases), numberWidth-1),
		})
	}
	return rows
}

func newTable(columns []table.Column, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(max(1, height)),
	)
	t.SetStyles(tableStyles())
	return t
}

// setTableRows refills tb. The table parks its cursor at -1 while empty, so
// the cursor is moved back onto the list once rows exist again.
func setTableRows(tb *table.Model, cols []table.Column, rows []table.Row) {
	tb.SetColumns(cols)
	tb.SetRows(rows)
	if len(rows) > 0 {
		tb.SetCursor(min(max(tb.Cursor(), 0), len(rows)-1))
	}
}
