package stats

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// upstreamDateLayout is the month/day/two-digit-year key of the history API.
const upstreamDateLayout = "1/2/06"

// DateLabelLayout is the display form of series dates.
const DateLabelLayout = "Jan 2, 2006"

// CompactNumber abbreviates n with K, M or B suffixes to one decimal.
// Values under a thousand are printed with thousands separators.
func CompactNumber(n int64) string {
	v := float64(n)
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	}
	return humanize.Comma(n)
}

// FormatCount prints n with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatRate prints a percentage to one decimal.
func FormatRate(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// ParseSeriesDate parses an upstream series key such as "1/22/20".
func ParseSeriesDate(raw string) (time.Time, error) {
	return time.Parse(upstreamDateLayout, raw)
}

// FormatDateLabel turns an upstream series key into "Jan 22, 2020". Keys
// that do not parse are returned unchanged.
func FormatDateLabel(raw string) string {
	t, err := ParseSeriesDate(raw)
	if err != nil {
		return raw
	}
	return t.Format(DateLabelLayout)
}

// FormatUpdated describes an update time relative to now, for example
// "3 hours ago (Jan 2, 2006 15:04)".
func FormatUpdated(updated, now time.Time) string {
	return fmt.Sprintf("%s (%s)", humanize.RelTime(updated, now, "ago", "from now"), updated.Local().Format("Jan 2, 2006 15:04"))
}
