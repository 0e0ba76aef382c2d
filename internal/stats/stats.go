package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/covidash/internal/model"
)

const sparkChars = " .:-=+*#%@"

const barRune = "█"

// CardMetrics are the figures shown on the summary cards. Rates are
// percentages and are 0 when there are no confirmed cases.
type CardMetrics struct {
	Confirmed    int64   `json:"confirmed" yaml:"confirmed"`
	Active       int64   `json:"active" yaml:"active"`
	Recovered    int64   `json:"recovered" yaml:"recovered"`
	Deaths       int64   `json:"deaths" yaml:"deaths"`
	RecoveryRate float64 `json:"recoveryRate" yaml:"recovery_rate"`
	FatalityRate float64 `json:"fatalityRate" yaml:"fatality_rate"`
}

// ChartOptions controls RenderSeriesChart.
type ChartOptions struct {
	Width      int
	Height     int
	Daily      bool
	Smooth     int
	ForceColor bool
}

// Metrics derives card figures from a snapshot.
func Metrics(s model.StatSnapshot) CardMetrics {
	m := CardMetrics{
		Confirmed: s.Confirmed,
		Recovered: s.Recovered,
		Deaths:    s.Deaths,
		Active:    s.Confirmed - s.Recovered - s.Deaths,
	}
	if s.Confirmed > 0 {
		m.RecoveryRate = roundTenth(float64(s.Recovered) / float64(s.Confirmed) * 100)
		m.FatalityRate = roundTenth(float64(s.Deaths) / float64(s.Confirmed) * 100)
	}
	return m
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// DailyDeltas converts cumulative totals into per-day increases. Downward
// revisions are reported as 0.
func DailyDeltas(values []int64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		delta := v
		if i > 0 {
			delta = v - values[i-1]
		}
		out[i] = float64(max(delta, 0))
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	r := valuesRange(values)
	if math.Abs(r.max-r.min) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - r.min) / (r.max - r.min) * float64(last)))
		b.WriteByte(sparkChars[max(0, min(last, idx))])
	}
	return b.String()
}

// RenderSeriesChart plots confirmed, deaths and recovered over time on one
// axis, labelled with the first and last dates.
func RenderSeriesChart(w io.Writer, points []model.DailyPoint, opts ChartOptions) error {
	if len(points) == 0 {
		_, err := fmt.Fprintln(w, "No historical data.")
		return err
	}
	confirmed := make([]int64, len(points))
	deaths := make([]int64, len(points))
	recovered := make([]int64, len(points))
	for i, p := range points {
		confirmed[i] = p.Confirmed
		deaths[i] = p.Deaths
		recovered[i] = p.Recovered
	}

	title := "Global cases over time"
	series := []Series{
		{Name: "Confirmed", Values: cumulative(confirmed)},
		{Name: "Deaths", Values: cumulative(deaths)},
		{Name: "Recovered", Values: cumulative(recovered)},
	}
	if opts.Daily {
		title = "Global daily new cases"
		series[0].Values = DailyDeltas(confirmed)
		series[1].Values = DailyDeltas(deaths)
		series[2].Values = DailyDeltas(recovered)
	}
	if opts.Smooth > 1 {
		title += fmt.Sprintf(" (%d-day average)", opts.Smooth)
		for i := range series {
			series[i].Values = MovingAverage(series[i].Values, opts.Smooth)
		}
	}

	width := 0
	if opts.Width > 0 {
		width = PlotWidthFor(opts.Width)
	}
	return Plot(w, series, PlotOptions{
		Title:      title,
		Width:      width,
		Height:     opts.Height,
		Shared:     true,
		ForceColor: opts.ForceColor,
		StartLabel: FormatDateLabel(points[0].Date),
		EndLabel:   FormatDateLabel(points[len(points)-1].Date),
	})
}

func cumulative(values []int64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// RenderBars draws the Infected, Recovered and Deaths bars for a country
// snapshot within width columns.
func RenderBars(w io.Writer, s model.StatSnapshot, width int) error {
	if s.Empty() {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}
	bars := []struct {
		label string
		value int64
	}{
		{"Infected", s.Confirmed},
		{"Recovered", s.Recovered},
		{"Deaths", s.Deaths},
	}
	labelWidth, valueWidth := 0, 0
	var peak int64
	for _, b := range bars {
		labelWidth = max(labelWidth, runewidth.StringWidth(b.label))
		valueWidth = max(valueWidth, runewidth.StringWidth(CompactNumber(b.value)))
		peak = max(peak, b.value)
	}
	barWidth := max(width-labelWidth-valueWidth-2, 1)
	for _, b := range bars {
		n := 0
		if peak > 0 {
			n = int(math.Round(float64(b.value) / float64(peak) * float64(barWidth)))
		}
		line := runewidth.FillRight(b.label, labelWidth) + " " +
			runewidth.FillRight(strings.Repeat(barRune, n), barWidth) + " " +
			runewidth.FillLeft(CompactNumber(b.value), valueWidth)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSnapshot prints the card figures for scope.
func RenderSnapshot(w io.Writer, scope string, s model.StatSnapshot) error {
	if s.Empty() {
		_, err := fmt.Fprintf(w, "%s: No data\n", scope)
		return err
	}
	m := Metrics(s)
	lines := []string{
		scope,
		fmt.Sprintf("Confirmed: %s", FormatCount(m.Confirmed)),
		fmt.Sprintf("Active:    %s", FormatCount(m.Active)),
		fmt.Sprintf("Recovered: %s (%s)", FormatCount(m.Recovered), FormatRate(m.RecoveryRate)),
		fmt.Sprintf("Deaths:    %s (%s)", FormatCount(m.Deaths), FormatRate(m.FatalityRate)),
	}
	if t, ok := s.LastUpdateTime(); ok {
		lines = append(lines, "Updated:   "+t.UTC().Format("Jan 2, 2006 15:04 MST"))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
