// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// MaxRecent bounds the recently viewed list.
const MaxRecent = 5

// AllContinents disables the continent filter.
const AllContinents = "all"

// SortKey selects the country list ordering.
type SortKey string

// Supported sort keys.
const (
	SortByName  SortKey = "name"
	SortByCases SortKey = "cases"
)

// SortDirection orders a sorted view.
type SortDirection string

// Supported sort directions.
const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// DefaultDirection returns the direction a key starts with: A to Z for
// names, most cases first for cases.
func (k SortKey) DefaultDirection() SortDirection {
	if k == SortByCases {
		return Descending
	}
	return Ascending
}

// Flip returns the opposite direction.
func (d SortDirection) Flip() SortDirection {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortByName:
		return SortByName, nil
	case SortByCases:
		return SortByCases, nil
	}
	return "", fmt.Errorf("unknown sort key %q (use name or cases)", s)
}

// ParseSortDirection validates a sort direction name.
func ParseSortDirection(s string) (SortDirection, error) {
	switch SortDirection(strings.ToLower(strings.TrimSpace(s))) {
	case Ascending:
		return Ascending, nil
	case Descending:
		return Descending, nil
	}
	return "", fmt.Errorf("unknown sort direction %q (use asc or desc)", s)
}

// CountrySummary is one entry of the remote country list.
// Empty Continent and FlagURL mean the upstream value was null.
type CountrySummary struct {
	Name       string `json:"country" yaml:"country"`
	Continent  string `json:"continent,omitempty" yaml:"continent,omitempty"`
	Cases      int64  `json:"cases" yaml:"cases"`
	Deaths     int64  `json:"deaths" yaml:"deaths"`
	Recovered  int64  `json:"recovered" yaml:"recovered"`
	Population int64  `json:"population" yaml:"population"`
	ISO2       string `json:"iso2,omitempty" yaml:"iso2,omitempty"`
	FlagURL    string `json:"flag,omitempty" yaml:"flag,omitempty"`
}

// StatSnapshot holds the totals for one scope. The zero value is the empty
// snapshot returned when no data could be fetched.
type StatSnapshot struct {
	Confirmed   int64          `json:"confirmed" yaml:"confirmed"`
	Recovered   int64          `json:"recovered" yaml:"recovered"`
	Deaths      int64          `json:"deaths" yaml:"deaths"`
	LastUpdate  *int64         `json:"lastUpdate" yaml:"last_update"`
	CountryInfo map[string]any `json:"countryInfo,omitempty" yaml:"country_info,omitempty"`
	Available   bool           `json:"available" yaml:"available"`
}

// Empty reports whether the snapshot carries no data.
func (s StatSnapshot) Empty() bool {
	return !s.Available
}

// LastUpdateTime converts LastUpdate to a time.
func (s StatSnapshot) LastUpdateTime() (time.Time, bool) {
	if s.LastUpdate == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*s.LastUpdate), true
}

// DailyPoint is one day of the historical series.
type DailyPoint struct {
	Date      string `json:"date" yaml:"date"`
	Confirmed int64  `json:"confirmed" yaml:"confirmed"`
	Deaths    int64  `json:"deaths" yaml:"deaths"`
	Recovered int64  `json:"recovered" yaml:"recovered"`
}

// Selection is the scope currently displayed. An empty country means global.
type Selection struct {
	Country string `json:"country" yaml:"country"`
}

// Global reports whether the selection is the global scope.
func (s Selection) Global() bool {
	return s.Country == ""
}

// Label returns a display name for the scope.
func (s Selection) Label() string {
	if s.Global() {
		return "Global"
	}
	return s.Country
}

// FilterCriteria drives the country list view.
type FilterCriteria struct {
	Search    string
	Continent string
	SortKey   SortKey
	Direction SortDirection
}

// DefaultCriteria returns the initial view criteria.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{
		Continent: AllContinents,
		SortKey:   SortByName,
		Direction: Ascending,
	}
}
