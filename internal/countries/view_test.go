package countries

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/covidash/internal/model"
)

func italyJapan() []model.CountrySummary {
	return []model.CountrySummary{
		{Name: "Italy", Continent: "Europe", Cases: 100},
		{Name: "Japan", Continent: "Asia", Cases: 50},
	}
}

func sampleList() []model.CountrySummary {
	return []model.CountrySummary{
		{Name: "Peru", Continent: "South America", Cases: 40},
		{Name: "Åland Islands", Continent: "Europe", Cases: 5},
		{Name: "Italy", Continent: "Europe", Cases: 100},
		{Name: "japan", Continent: "Asia", Cases: 50},
		{Name: "Brazil", Continent: "South America", Cases: 300},
		{Name: "MS Zaandam", Cases: 9},
		{Name: "Chile", Continent: "South America", Cases: 70},
	}
}

func names(list []model.CountrySummary) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Name)
	}
	return out
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}

func TestComputeViewCasesDescending(t *testing.T) {
	criteria := model.FilterCriteria{Continent: model.AllContinents, SortKey: model.SortByCases, Direction: model.Descending}

	got := ComputeView(italyJapan(), criteria)

	if diff := cmp.Diff([]string{"Italy", "Japan"}, names(got)); diff != "" {
		t.Fatalf("view mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeViewSearchIsCaseInsensitive(t *testing.T) {
	criteria := model.FilterCriteria{Search: "jap", Continent: model.AllContinents, SortKey: model.SortByCases, Direction: model.Descending}

	got := ComputeView(italyJapan(), criteria)

	if diff := cmp.Diff([]string{"Japan"}, names(got)); diff != "" {
		t.Fatalf("view mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeViewSearchMatchesContinent(t *testing.T) {
	criteria := model.DefaultCriteria()
	criteria.Search = "AMER"

	got := ComputeView(sampleList(), criteria)

	assert.Equal(t, []string{"Brazil", "Chile", "Peru"}, names(got))
}

func TestComputeViewBlankSearchKeepsAll(t *testing.T) {
	criteria := model.DefaultCriteria()
	criteria.Search = "   "

	assert.Len(t, ComputeView(sampleList(), criteria), len(sampleList()))
}

func TestComputeViewSearchIsNotTrimmed(t *testing.T) {
	criteria := model.DefaultCriteria()
	criteria.Search = " chile"

	assert.Empty(t, ComputeView(sampleList(), criteria))
}

func TestComputeViewContinentFilterIsExact(t *testing.T) {
	criteria := model.DefaultCriteria()
	criteria.Continent = "Europe"

	got := ComputeView(sampleList(), criteria)

	assert.Equal(t, []string{"Åland Islands", "Italy"}, names(got))

	criteria.Continent = "europe"
	assert.Empty(t, ComputeView(sampleList(), criteria))
}

func TestComputeViewNameSortUsesCollation(t *testing.T) {
	got := ComputeView(sampleList(), model.DefaultCriteria())

	want := []string{"Åland Islands", "Brazil", "Chile", "Italy", "japan", "MS Zaandam", "Peru"}
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Fatalf("name order mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeViewNameDescendingIsReverse(t *testing.T) {
	criteria := model.DefaultCriteria()
	asc := names(ComputeView(sampleList(), criteria))
	criteria.Direction = model.Descending
	desc := names(ComputeView(sampleList(), criteria))

	if diff := cmp.Diff(reversed(asc), desc); diff != "" {
		t.Fatalf("descending is not the reverse (-want +got):\n%s", diff)
	}
}

func TestComputeViewCasesOrdering(t *testing.T) {
	criteria := model.FilterCriteria{Continent: model.AllContinents, SortKey: model.SortByCases, Direction: model.Descending}
	desc := ComputeView(sampleList(), criteria)
	for i := 1; i < len(desc); i++ {
		if desc[i-1].Cases < desc[i].Cases {
			t.Fatalf("cases not non-increasing at %d: %d then %d", i, desc[i-1].Cases, desc[i].Cases)
		}
	}

	criteria.Direction = model.Ascending
	asc := ComputeView(sampleList(), criteria)

	if diff := cmp.Diff(reversed(names(desc)), names(asc)); diff != "" {
		t.Fatalf("ascending is not the reverse (-want +got):\n%s", diff)
	}
}

func TestComputeViewIsPure(t *testing.T) {
	raw := sampleList()
	before := sampleList()
	criteria := model.FilterCriteria{Search: "a", Continent: model.AllContinents, SortKey: model.SortByCases, Direction: model.Descending}

	first := ComputeView(raw, criteria)
	second := ComputeView(raw, criteria)

	if diff := cmp.Diff(before, raw); diff != "" {
		t.Fatalf("raw list mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated call differs (-first +second):\n%s", diff)
	}
}

func TestComputeViewStableForTies(t *testing.T) {
	raw := []model.CountrySummary{
		{Name: "B", Cases: 1},
		{Name: "A", Cases: 1},
		{Name: "C", Cases: 2},
	}
	criteria := model.FilterCriteria{Continent: model.AllContinents, SortKey: model.SortByCases, Direction: model.Descending}

	assert.Equal(t, []string{"C", "B", "A"}, names(ComputeView(raw, criteria)))
}

func TestContinentsDistinctSorted(t *testing.T) {
	assert.Equal(t, []string{"Asia", "Europe", "South America"}, Continents(sampleList()))
	assert.Empty(t, Continents(nil))
}
