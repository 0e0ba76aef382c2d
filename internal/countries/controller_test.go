package countries

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verte-zerg/covidash/internal/model"
)

type fakeRecent struct {
	items  []string
	addErr error
}

func (f *fakeRecent) Add(_ context.Context, name string) error {
	if f.addErr != nil {
		return f.addErr
	}
	out := []string{name}
	for _, item := range f.items {
		if item != name {
			out = append(out, item)
		}
	}
	f.items = out
	return nil
}

func (f *fakeRecent) Clear(context.Context) error {
	f.items = nil
	return nil
}

func (f *fakeRecent) Items() []string {
	return append([]string(nil), f.items...)
}

type fakeFavorites struct {
	set map[string]bool
}

func (f *fakeFavorites) Toggle(_ context.Context, name string) (bool, error) {
	if f.set[name] {
		delete(f.set, name)
		return false, nil
	}
	f.set[name] = true
	return true, nil
}

func (f *fakeFavorites) Contains(name string) bool {
	return f.set[name]
}

func (f *fakeFavorites) Items() []string {
	out := make([]string, 0, len(f.set))
	for name := range f.set {
		out = append(out, name)
	}
	return out
}

type harness struct {
	ctrl     *Controller
	recent   *fakeRecent
	favs     *fakeFavorites
	selected []string
}

func newHarness(log *zap.Logger) *harness {
	h := &harness{
		recent: &fakeRecent{},
		favs:   &fakeFavorites{set: map[string]bool{}},
	}
	h.ctrl = NewController(h.recent, h.favs, func(_ context.Context, name string) {
		h.selected = append(h.selected, name)
	}, log)
	h.ctrl.SetCountries(sampleList())
	return h
}

func TestControllerDefaults(t *testing.T) {
	ctrl := NewController(&fakeRecent{}, &fakeFavorites{set: map[string]bool{}}, nil, nil)

	assert.Equal(t, model.DefaultCriteria(), ctrl.Criteria())
	assert.Empty(t, ctrl.View())
	assert.False(t, ctrl.PickerOpen())
	assert.Equal(t, "", ctrl.Selected())
}

func TestControllerToggleSort(t *testing.T) {
	h := newHarness(nil)

	h.ctrl.ToggleSort(model.SortByName)
	assert.Equal(t, model.Descending, h.ctrl.Criteria().Direction)

	h.ctrl.ToggleSort(model.SortByCases)
	assert.Equal(t, model.SortByCases, h.ctrl.Criteria().SortKey)
	assert.Equal(t, model.Descending, h.ctrl.Criteria().Direction)
	assert.Equal(t, "Brazil", h.ctrl.View()[0].Name)

	h.ctrl.ToggleSort(model.SortByCases)
	assert.Equal(t, model.Ascending, h.ctrl.Criteria().Direction)
	assert.Equal(t, "Åland Islands", h.ctrl.View()[0].Name)

	h.ctrl.ToggleSort(model.SortByName)
	assert.Equal(t, model.Ascending, h.ctrl.Criteria().Direction)
}

func TestControllerCycleContinentWraps(t *testing.T) {
	h := newHarness(nil)

	var seen []string
	for i := 0; i < 5; i++ {
		h.ctrl.CycleContinent(1)
		seen = append(seen, h.ctrl.Criteria().Continent)
	}
	want := []string{"Asia", "Europe", "South America", model.AllContinents, "Asia"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("cycle mismatch (-want +got):\n%s", diff)
	}

	h.ctrl.CycleContinent(-1)
	assert.Equal(t, model.AllContinents, h.ctrl.Criteria().Continent)
	h.ctrl.CycleContinent(-1)
	assert.Equal(t, "South America", h.ctrl.Criteria().Continent)
	assert.Equal(t, []string{"Brazil", "Chile", "Peru"}, names(h.ctrl.View()))
}

func TestControllerSetContinentEmptyMeansAll(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.SetContinent("Asia")
	h.ctrl.SetContinent("")

	assert.Equal(t, model.AllContinents, h.ctrl.Criteria().Continent)
	assert.Len(t, h.ctrl.View(), len(sampleList()))
}

func TestControllerSelectCountry(t *testing.T) {
	h := newHarness(nil)
	ctx := context.Background()
	h.ctrl.OpenPicker()

	h.ctrl.SelectCountry(ctx, "Italy")
	h.ctrl.SelectCountry(ctx, "Atlantis")

	assert.Equal(t, []string{"Italy", "Atlantis"}, h.selected)
	assert.Equal(t, "Atlantis", h.ctrl.Selected())
	assert.False(t, h.ctrl.PickerOpen())
	assert.Equal(t, []string{"Atlantis", "Italy"}, h.recent.items)
}

func TestControllerSelectGlobalSkipsRecent(t *testing.T) {
	h := newHarness(nil)

	h.ctrl.SelectCountry(context.Background(), "")

	assert.Equal(t, []string{""}, h.selected)
	assert.Empty(t, h.recent.items)
}

func TestControllerSelectLogsPersistFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := newHarness(zap.New(core))
	h.recent.addErr = errors.New("read-only")

	h.ctrl.SelectCountry(context.Background(), "Peru")

	assert.Equal(t, "Peru", h.ctrl.Selected())
	require.Equal(t, 1, logs.Len())
}

func TestControllerRecentCountriesDropsStaleNames(t *testing.T) {
	h := newHarness(nil)
	h.recent.items = []string{"Chile", "Gone", "Italy"}

	assert.Equal(t, []string{"Chile", "Italy"}, names(h.ctrl.RecentCountries()))

	require.NoError(t, h.ctrl.ClearRecent(context.Background()))
	assert.Empty(t, h.ctrl.RecentCountries())
}

func TestControllerFavoritesFollowRawOrder(t *testing.T) {
	h := newHarness(nil)
	ctx := context.Background()

	for _, name := range []string{"Chile", "Peru", "Italy"} {
		added, err := h.ctrl.ToggleFavorite(ctx, name)
		require.NoError(t, err)
		require.True(t, added)
	}
	assert.True(t, h.ctrl.IsFavorite("Peru"))
	assert.Equal(t, []string{"Peru", "Italy", "Chile"}, names(h.ctrl.FavoriteCountries()))

	added, err := h.ctrl.ToggleFavorite(ctx, "Peru")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"Italy", "Chile"}, names(h.ctrl.FavoriteCountries()))
}

func TestControllerClosePickerClearsSearchWithoutSelection(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.OpenPicker()
	h.ctrl.SetSearch("chi")
	require.Len(t, h.ctrl.View(), 1)

	h.ctrl.ClosePicker()

	assert.Equal(t, "", h.ctrl.Criteria().Search)
	assert.Len(t, h.ctrl.View(), len(sampleList()))
}

func TestControllerClosePickerKeepsSearchAfterSelection(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.SelectCountry(context.Background(), "Chile")
	h.ctrl.OpenPicker()
	h.ctrl.SetSearch("chi")

	h.ctrl.ClosePicker()

	assert.Equal(t, "chi", h.ctrl.Criteria().Search)
}

func TestControllerSetCountriesDoesNotAlias(t *testing.T) {
	h := newHarness(nil)
	raw := sampleList()
	h.ctrl.SetCountries(raw)

	raw[0].Name = "Changed"

	assert.Equal(t, "Peru", h.ctrl.Countries()[0].Name)
}
