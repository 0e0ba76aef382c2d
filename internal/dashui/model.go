// Package dashui provides the Bubble Tea dashboard interface.
package dashui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/covidash/internal/countries"
	"github.com/verte-zerg/covidash/internal/dashboard"
	"github.com/verte-zerg/covidash/internal/logging"
	"github.com/verte-zerg/covidash/internal/model"
	"github.com/verte-zerg/covidash/internal/stats"
)

const (
	tabOverview = iota
	tabCountries
	tabSaved
)

const defaultChartHeight = 12

// Options seeds the dashboard from flags and config.
type Options struct {
	// Country is selected once the initial load finishes. Empty keeps the
	// global scope.
	Country     string
	Criteria    model.FilterCriteria
	ChartHeight int
	Smooth      int
	Daily       bool
}

type initialLoadedMsg struct {
	initial dashboard.Initial
}

type snapshotMsg struct {
	res dashboard.Result
}

// Model implements the Bubble Tea dashboard UI.
type Model struct {
	ctx  context.Context
	dash *dashboard.Dashboard
	ctrl *countries.Controller
	log  *zap.Logger
	opts Options

	tabs      []string
	activeTab int
	overview  viewport.Model
	countryTb table.Model
	savedTb   table.Model
	saved     []savedEntry
	search    textinput.Model
	searching bool
	spinner   spinner.Model
	spinning  bool
	daily     bool

	loaded          bool
	initialSelected bool
	pending         []dashboard.Request

	status    string
	statusErr bool

	width  int
	height int
}

// NewModel constructs the dashboard UI. recent and favorites are the
// persisted preference stores.
func NewModel(ctx context.Context, dash *dashboard.Dashboard, recent countries.RecentList, favorites countries.FavoriteSet, opts Options, log *zap.Logger) *Model {
	if opts.ChartHeight <= 0 {
		opts.ChartHeight = defaultChartHeight
	}
	m := &Model{
		ctx:   ctx,
		dash:  dash,
		log:   logging.OrNop(log),
		opts:  opts,
		tabs:  []string{"Overview", "Countries", "Recent & Favorites"},
		daily: opts.Daily,
	}
	m.ctrl = countries.NewController(recent, favorites, m.beginSelect, m.log)
	criteria := opts.Criteria
	if criteria.SortKey == "" {
		criteria = model.DefaultCriteria()
	}
	if criteria.Direction == "" {
		criteria.Direction = criteria.SortKey.DefaultDirection()
	}
	m.ctrl.SetSort(criteria.SortKey, criteria.Direction)
	m.ctrl.SetContinent(criteria.Continent)

	m.overview = viewport.New(0, 0)
	m.countryTb = newTable(countryColumns(80), 1)
	m.savedTb = newTable(savedColumns(80), 1)
	m.search = newSearchInput()
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.focusActiveTable()
	return m
}

// Controller exposes the country list controller.
func (m *Model) Controller() *countries.Controller {
	return m.ctrl
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadInitialCmd(), m.startSpinner())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.render()
		return m, nil
	case spinner.TickMsg:
		if !m.loading() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.renderOverview()
		return m, cmd
	case initialLoadedMsg:
		m.loaded = true
		m.ctrl.SetCountries(msg.initial.Countries)
		if len(msg.initial.Countries) == 0 {
			m.setError("Country list unavailable")
		}
		var cmd tea.Cmd
		if !m.initialSelected && m.opts.Country != "" {
			m.initialSelected = true
			cmd = m.selectCountry(m.opts.Country)
		}
		m.render()
		return m, cmd
	case snapshotMsg:
		if !m.dash.Apply(msg.res) {
			m.log.Debug("ignored stale snapshot", zap.String("country", msg.res.Country))
			return m, nil
		}
		m.render()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "/":
		return m.startSearch()
	case "c":
		m.ctrl.CycleContinent(1)
		m.refreshCountryTable()
		return m, nil
	case "C":
		m.ctrl.CycleContinent(-1)
		m.refreshCountryTable()
		return m, nil
	case "n":
		m.ctrl.ToggleSort(model.SortByName)
		m.refreshCountryTable()
		return m, nil
	case "x":
		m.ctrl.ToggleSort(model.SortByCases)
		m.refreshCountryTable()
		return m, nil
	case "f":
		m.toggleFavorite()
		return m, nil
	case "enter":
		name, ok := m.highlighted()
		if !ok {
			return m, nil
		}
		return m, m.selectCountry(name)
	case "w":
		return m, m.selectCountry("")
	case "D":
		if err := m.ctrl.ClearRecent(m.ctx); err != nil {
			m.log.Warn("failed to clear recent countries", zap.Error(err))
			m.setError("Failed to clear recent countries")
		} else {
			m.setNotice("Cleared recent countries")
		}
		m.refreshSavedTable()
		return m, nil
	case "r":
		m.setNotice("Refreshing...")
		return m, tea.Batch(m.loadInitialCmd(), m.startSpinner())
	case "d":
		m.daily = !m.daily
		m.renderOverview()
		return m, nil
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case tabCountries:
		m.countryTb, cmd = m.countryTb.Update(msg)
	case tabSaved:
		m.savedTb, cmd = m.savedTb.Update(msg)
	default:
		m.overview, cmd = m.overview.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// beginSelect is the controller's selection callback. The fetch itself is
// issued as a command by selectCountry.
func (m *Model) beginSelect(_ context.Context, name string) {
	m.pending = append(m.pending, m.dash.BeginSelect(name))
}

func (m *Model) selectCountry(name string) tea.Cmd {
	m.ctrl.SelectCountry(m.ctx, name)
	m.search.SetValue(m.ctrl.Criteria().Search)
	cmds := make([]tea.Cmd, 0, len(m.pending)+1)
	for _, req := range m.pending {
		cmds = append(cmds, m.fetchCmd(req))
	}
	m.pending = nil
	cmds = append(cmds, m.startSpinner())
	m.status = ""
	m.render()
	return tea.Batch(cmds...)
}

func (m *Model) toggleFavorite() {
	name, ok := m.highlighted()
	if !ok {
		return
	}
	added, err := m.ctrl.ToggleFavorite(m.ctx, name)
	switch {
	case err != nil:
		m.log.Warn("failed to persist favorites", zap.String("country", name), zap.Error(err))
		m.setError("Failed to save favorites")
	case added:
		m.setNotice(fmt.Sprintf("Added %s to favorites", name))
	default:
		m.setNotice(fmt.Sprintf("Removed %s from favorites", name))
	}
	m.refreshCountryTable()
	m.refreshSavedTable()
}

// highlighted returns the country under the cursor of the active tab. On
// the overview it is the displayed country.
func (m *Model) highlighted() (string, bool) {
	switch m.activeTab {
	case tabCountries:
		view := m.ctrl.View()
		idx := m.countryTb.Cursor()
		if idx < 0 || idx >= len(view) {
			return "", false
		}
		return view[idx].Name, true
	case tabSaved:
		idx := m.savedTb.Cursor()
		if idx < 0 || idx >= len(m.saved) {
			return "", false
		}
		return m.saved[idx].country.Name, true
	default:
		sel := m.dash.State().Selection
		if sel.Global() {
			return "", false
		}
		return sel.Country, true
	}
}

func (m *Model) loadInitialCmd() tea.Cmd {
	ctx, dash := m.ctx, m.dash
	return func() tea.Msg {
		return initialLoadedMsg{initial: dash.LoadInitial(ctx)}
	}
}

func (m *Model) fetchCmd(req dashboard.Request) tea.Cmd {
	ctx, dash := m.ctx, m.dash
	return func() tea.Msg {
		return snapshotMsg{res: dash.Fetch(ctx, req)}
	}
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *Model) loading() bool {
	return !m.loaded || m.dash.State().Loading
}

func (m *Model) setNotice(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.status != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	// One line for the search bar and two for the table header.
	m.countryTb.SetHeight(max(1, bodyHeight-3))
	m.countryTb.SetWidth(m.width)
	m.savedTb.SetHeight(max(1, bodyHeight-2))
	m.savedTb.SetWidth(m.width)
	m.search.Width = max(10, m.width-lipgloss.Width(m.search.Prompt)-2)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = ((m.activeTab+delta)%count + count) % count
	m.focusActiveTable()
}

func (m *Model) focusActiveTable() {
	m.countryTb.Blur()
	m.savedTb.Blur()
	switch m.activeTab {
	case tabCountries:
		m.countryTb.Focus()
	case tabSaved:
		m.savedTb.Focus()
	}
}

func (m *Model) render() {
	m.refreshCountryTable()
	m.refreshSavedTable()
	m.renderOverview()
}

func (m *Model) refreshCountryTable() {
	cols := countryColumns(m.contentWidth())
	setTableRows(&m.countryTb, cols, countryRows(m.ctrl.View(), m.ctrl.IsFavorite, cols[1].Width))
}

func (m *Model) refreshSavedTable() {
	cols := savedColumns(m.contentWidth())
	m.saved = savedEntries(m.ctrl.RecentCountries(), m.ctrl.FavoriteCountries())
	setTableRows(&m.savedTb, cols, savedRows(m.saved, m.ctrl.IsFavorite, cols[2].Width))
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	return tabs + "\n" + m.renderScopeLine()
}

func (m *Model) renderScopeLine() string {
	state := m.dash.State()
	line := "Scope: " + scopeStyle.Render(state.Selection.Label())
	if m.loading() {
		target := "data"
		if state.Loading && state.Pending != "" {
			target = state.Pending
		}
		line += "  " + m.spinner.View() + " Loading " + target + "..."
	} else if t, ok := state.Snapshot.LastUpdateTime(); ok {
		line += headerStyle.Render("  Updated " + stats.FormatUpdated(t, time.Now()))
	}
	return line
}

func (m *Model) renderHelp() string {
	var help string
	switch m.activeTab {
	case tabCountries:
		if m.searching {
			help = "Type to search  up/down: move  enter: select  esc: close"
		} else {
			help = "/: search  c/C: continent  n: name sort  x: cases sort  f: favorite  enter: select  w: global  q: quit"
		}
	case tabSaved:
		help = "enter: select  f: favorite  D: clear recent  w: global  left/right: tabs  q: quit"
	default:
		help = "left/right: tabs  d: daily/total  f: favorite  w: global  r: refresh  q: quit"
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	if m.status == "" {
		return m.renderHelp()
	}
	style := noticeStyle
	if m.statusErr {
		style = errorStyle
	}
	return m.renderHelp() + "\n" + style.Render(truncateLine(m.status, m.width))
}

func (m *Model) renderBody(height int) string {
	switch m.activeTab {
	case tabCountries:
		bar := m.renderSearchBar()
		if len(m.ctrl.View()) == 0 {
			return fitLines(bar+"\nNo countries match.", m.width, height)
		}
		return fitLines(bar+"\n"+tableMutedStyle.Render(m.countryTb.View()), m.width, height)
	case tabSaved:
		if len(m.saved) == 0 {
			return fitLines("No recent or favorite countries yet. Select one from the Countries tab.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.savedTb.View()), m.width, height)
	default:
		return fitLines(m.overview.View(), m.width, height)
	}
}

func (m *Model) renderOverview() {
	m.overview.SetContent(renderOverview(m.dash.State(), m.contentWidth(), m.opts.ChartHeight, m.opts.Smooth, m.daily))
}

func renderOverview(state dashboard.State, width, chartHeight, smooth int, daily bool) string {
	if state.Snapshot.Empty() {
		if state.Loading {
			return "Loading COVID-19 data..."
		}
		return fmt.Sprintf("No data for %s.", state.Selection.Label())
	}
	cards := renderCards(state.Snapshot, width)

	var buf bytes.Buffer
	var err error
	if state.Chart == dashboard.ChartBars {
		err = stats.RenderBars(&buf, state.Snapshot, width)
	} else {
		err = stats.RenderSeriesChart(&buf, state.Series, stats.ChartOptions{
			Width:      width,
			Height:     chartHeight,
			Daily:      daily,
			Smooth:     smooth,
			ForceColor: true,
		})
	}
	if err != nil {
		return cards + "\n\n" + fmt.Sprintf("Failed to render chart: %v", err)
	}
	return strings.TrimRight(cards+"\n\n"+buf.String(), "\n")
}

func renderCards(s model.StatSnapshot, width int) string {
	m := stats.Metrics(s)
	cards := []string{
		metricCard("Confirmed", stats.FormatCount(m.Confirmed), confirmedColor),
		metricCard("Active", stats.FormatCount(m.Active), activeColor),
		metricCard("Recovered", fmt.Sprintf("%s (%s)", stats.FormatCount(m.Recovered), stats.FormatRate(m.RecoveryRate)), recoveredColor),
		metricCard("Deaths", fmt.Sprintf("%s (%s)", stats.FormatCount(m.Deaths), stats.FormatRate(m.FatalityRate)), deathsColor),
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if lipgloss.Width(row) <= width {
		return row
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1])
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, cards[2], cards[3])
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

func metricCard(label, value string, accent lipgloss.Color) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Foreground(accent).Render(value))
	return cardStyle.BorderForeground(accent).Render(content)
}
