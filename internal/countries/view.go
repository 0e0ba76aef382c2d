// Package countries filters, sorts and tracks selection over the country list.
package countries

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/verte-zerg/covidash/internal/model"
)

// ComputeView returns the countries matching c in display order. raw is
// never modified.
func ComputeView(raw []model.CountrySummary, c model.FilterCriteria) []model.CountrySummary {
	out := make([]model.CountrySummary, 0, len(raw))
	term := ""
	if strings.TrimSpace(c.Search) != "" {
		term = strings.ToLower(c.Search)
	}
	for _, country := range raw {
		if !matchesContinent(country, c.Continent) {
			continue
		}
		if term != "" && !matchesSearch(country, term) {
			continue
		}
		out = append(out, country)
	}

	switch c.SortKey {
	case model.SortByCases:
		// Base ordering is highest first; ascending inverts it.
		descending := c.Direction != model.Ascending
		sort.SliceStable(out, func(i, j int) bool {
			if descending {
				return out[i].Cases > out[j].Cases
			}
			return out[i].Cases < out[j].Cases
		})
	default:
		col := collate.New(language.English)
		ascending := c.Direction != model.Descending
		sort.SliceStable(out, func(i, j int) bool {
			cmp := col.CompareString(out[i].Name, out[j].Name)
			if ascending {
				return cmp < 0
			}
			return cmp > 0
		})
	}
	return out
}

func matchesContinent(country model.CountrySummary, continent string) bool {
	if continent == "" || continent == model.AllContinents {
		return true
	}
	return country.Continent == continent
}

func matchesSearch(country model.CountrySummary, term string) bool {
	return strings.Contains(strings.ToLower(country.Name), term) ||
		strings.Contains(strings.ToLower(country.Continent), term)
}

// Continents returns the distinct non-empty continents of raw, sorted.
func Continents(raw []model.CountrySummary) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, country := range raw {
		if country.Continent == "" {
			continue
		}
		if _, ok := seen[country.Continent]; ok {
			continue
		}
		seen[country.Continent] = struct{}{}
		out = append(out, country.Continent)
	}
	sort.Strings(out)
	return out
}
