package countries

import (
	"context"

	"go.uber.org/zap"

	"github.com/verte-zerg/covidash/internal/logging"
	"github.com/verte-zerg/covidash/internal/model"
)

// RecentList is the bounded most-recent-first history of selections.
type RecentList interface {
	Add(ctx context.Context, name string) error
	Clear(ctx context.Context) error
	Items() []string
}

// FavoriteSet is the persisted set of favorite countries.
type FavoriteSet interface {
	Toggle(ctx context.Context, name string) (bool, error)
	Contains(name string) bool
	Items() []string
}

// SelectFunc is invoked with the chosen country, "" for global.
type SelectFunc func(ctx context.Context, name string)

// Controller owns the country list, the view criteria and the picker state.
// It is not safe for concurrent use.
type Controller struct {
	raw        []model.CountrySummary
	criteria   model.FilterCriteria
	continents []string
	view       []model.CountrySummary
	selected   string
	pickerOpen bool

	recent   RecentList
	favs     FavoriteSet
	onSelect SelectFunc
	log      *zap.Logger
}

// NewController returns a controller with default criteria and no countries.
func NewController(recent RecentList, favs FavoriteSet, onSelect SelectFunc, log *zap.Logger) *Controller {
	return &Controller{
		criteria: model.DefaultCriteria(),
		view:     []model.CountrySummary{},
		recent:   recent,
		favs:     favs,
		onSelect: onSelect,
		log:      logging.OrNop(log),
	}
}

// SetCountries replaces the raw list.
func (c *Controller) SetCountries(raw []model.CountrySummary) {
	c.raw = append([]model.CountrySummary(nil), raw...)
	c.continents = Continents(c.raw)
	c.refresh()
}

// Countries returns the raw list in upstream order.
func (c *Controller) Countries() []model.CountrySummary {
	return append([]model.CountrySummary(nil), c.raw...)
}

// SetSearch updates the search term.
func (c *Controller) SetSearch(term string) {
	c.criteria.Search = term
	c.refresh()
}

// SetContinent updates the continent filter. "" means all continents.
func (c *Controller) SetContinent(name string) {
	if name == "" {
		name = model.AllContinents
	}
	c.criteria.Continent = name
	c.refresh()
}

// CycleContinent steps through "all" followed by the known continents.
func (c *Controller) CycleContinent(delta int) {
	options := append([]string{model.AllContinents}, c.continents...)
	idx := 0
	for i, opt := range options {
		if opt == c.criteria.Continent {
			idx = i
			break
		}
	}
	n := len(options)
	idx = ((idx+delta)%n + n) % n
	c.SetContinent(options[idx])
}

// ToggleSort flips the direction when key is already active, otherwise
// switches to key with its default direction.
func (c *Controller) ToggleSort(key model.SortKey) {
	if c.criteria.SortKey == key {
		c.criteria.Direction = c.criteria.Direction.Flip()
	} else {
		c.criteria.SortKey = key
		c.criteria.Direction = key.DefaultDirection()
	}
	c.refresh()
}

// SetSort sets key and direction explicitly.
func (c *Controller) SetSort(key model.SortKey, dir model.SortDirection) {
	c.criteria.SortKey = key
	c.criteria.Direction = dir
	c.refresh()
}

// SelectCountry asks for name's data, records it as recent and closes the
// picker. name is not validated against the list.
func (c *Controller) SelectCountry(ctx context.Context, name string) {
	if c.onSelect != nil {
		c.onSelect(ctx, name)
	}
	c.selected = name
	if name != "" && c.recent != nil {
		if err := c.recent.Add(ctx, name); err != nil {
			c.log.Warn("failed to persist recent countries", zap.String("country", name), zap.Error(err))
		}
	}
	c.pickerOpen = false
}

// ToggleFavorite flips name in the favorite set.
func (c *Controller) ToggleFavorite(ctx context.Context, name string) (bool, error) {
	return c.favs.Toggle(ctx, name)
}

// IsFavorite reports whether name is a favorite.
func (c *Controller) IsFavorite(name string) bool {
	return c.favs != nil && c.favs.Contains(name)
}

// ClearRecent empties the recent list.
func (c *Controller) ClearRecent(ctx context.Context) error {
	return c.recent.Clear(ctx)
}

// RecentCountries resolves the recent names against the raw list, most
// recent first. Names missing from the list are skipped.
func (c *Controller) RecentCountries() []model.CountrySummary {
	out := []model.CountrySummary{}
	if c.recent == nil {
		return out
	}
	for _, name := range c.recent.Items() {
		for _, country := range c.raw {
			if country.Name == name {
				out = append(out, country)
				break
			}
		}
	}
	return out
}

// FavoriteCountries returns the favorite countries in raw list order.
func (c *Controller) FavoriteCountries() []model.CountrySummary {
	out := []model.CountrySummary{}
	for _, country := range c.raw {
		if c.IsFavorite(country.Name) {
			out = append(out, country)
		}
	}
	return out
}

// OpenPicker shows the country picker.
func (c *Controller) OpenPicker() {
	c.pickerOpen = true
}

// ClosePicker hides the picker. The search is cleared when nothing has been
// selected yet.
func (c *Controller) ClosePicker() {
	c.pickerOpen = false
	if c.selected == "" && c.criteria.Search != "" {
		c.SetSearch("")
	}
}

// PickerOpen reports whether the picker is visible.
func (c *Controller) PickerOpen() bool {
	return c.pickerOpen
}

// Selected returns the last selected country, "" for global.
func (c *Controller) Selected() string {
	return c.selected
}

// View returns the current filtered and sorted list.
func (c *Controller) View() []model.CountrySummary {
	return append([]model.CountrySummary(nil), c.view...)
}

// Criteria returns the active criteria.
func (c *Controller) Criteria() model.FilterCriteria {
	return c.criteria
}

// ContinentOptions returns the known continents.
func (c *Controller) ContinentOptions() []string {
	return append([]string(nil), c.continents...)
}

func (c *Controller) refresh() {
	c.view = ComputeView(c.raw, c.criteria)
}
