package dashui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/covidash/internal/model"
)

func newSearchInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "Search: "
	input.Placeholder = "country or continent"
	input.CharLimit = 64
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) startSearch() (tea.Model, tea.Cmd) {
	m.activeTab = tabCountries
	m.focusActiveTable()
	m.ctrl.OpenPicker()
	m.searching = true
	m.search.SetValue(m.ctrl.Criteria().Search)
	m.search.CursorEnd()
	return m, m.search.Focus()
}

func (m *Model) stopSearch() {
	m.searching = false
	m.search.Blur()
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.stopSearch()
		m.ctrl.ClosePicker()
		m.search.SetValue(m.ctrl.Criteria().Search)
		m.refreshCountryTable()
		return m, nil
	case tea.KeyEnter:
		name, ok := m.highlighted()
		m.stopSearch()
		if !ok {
			m.ctrl.ClosePicker()
			return m, nil
		}
		return m, m.selectCountry(name)
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.countryTb, cmd = m.countryTb.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.ctrl.Criteria().Search {
		m.ctrl.SetSearch(m.search.Value())
		m.countryTb.GotoTop()
		m.refreshCountryTable()
	}
	return m, cmd
}

func (m *Model) renderSearchBar() string {
	if m.searching {
		return m.search.View()
	}
	c := m.ctrl.Criteria()
	search := c.Search
	if search == "" {
		search = "-"
	}
	return headerStyle.Render(truncateLine(fmt.Sprintf("Search: %s  Continent: %s  Sort: %s %s  (%d shown)",
		search, c.Continent, c.SortKey, directionArrow(c.Direction), len(m.ctrl.View())), m.width))
}

func directionArrow(d model.SortDirection) string {
	if d == model.Descending {
		return "↓"
	}
	return "↑"
}
