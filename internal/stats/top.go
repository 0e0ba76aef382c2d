package stats

import (
	"sort"

	"github.com/verte-zerg/covidash/internal/model"
)

// TopCountriesByCases returns the n countries with the most cases. Ties are
// broken by name.
func TopCountriesByCases(list []model.CountrySummary, n int) []model.CountrySummary {
	if n <= 0 || len(list) == 0 {
		return nil
	}
	items := append([]model.CountrySummary(nil), list...)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Cases == items[j].Cases {
			return items[i].Name < items[j].Name
		}
		return items[i].Cases > items[j].Cases
	})
	return items[:min(n, len(items))]
}
