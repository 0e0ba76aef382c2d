package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/covidash/internal/model"
)

func TestMetrics(t *testing.T) {
	m := Metrics(model.StatSnapshot{Confirmed: 1000, Recovered: 873, Deaths: 21, Available: true})

	assert.Equal(t, int64(106), m.Active)
	assert.Equal(t, 87.3, m.RecoveryRate)
	assert.Equal(t, 2.1, m.FatalityRate)
}

func TestMetricsWithoutCases(t *testing.T) {
	m := Metrics(model.StatSnapshot{})

	assert.Zero(t, m.RecoveryRate)
	assert.Zero(t, m.FatalityRate)
	assert.Zero(t, m.Active)
}

func TestDailyDeltasClampsRevisions(t *testing.T) {
	assert.Equal(t, []float64{5, 3, 0, 4}, DailyDeltas([]int64{5, 8, 7, 11}))
	assert.Empty(t, DailyDeltas(nil))
}

func TestMovingAverage(t *testing.T) {
	assert.Equal(t, []float64{2, 3, 5, 7}, MovingAverage([]float64{2, 4, 6, 8}, 2))
	assert.Equal(t, []float64{1, 2}, MovingAverage([]float64{1, 2}, 0))
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, " @", Sparkline([]float64{0, 1}))
	assert.Equal(t, "+++", Sparkline([]float64{3, 3, 3}))
	assert.Equal(t, "", Sparkline(nil))
}

func TestRenderSeriesChart(t *testing.T) {
	points := []model.DailyPoint{
		{Date: "1/22/20", Confirmed: 555, Deaths: 17, Recovered: 28},
		{Date: "1/23/20", Confirmed: 654, Deaths: 18, Recovered: 30},
		{Date: "1/24/20", Confirmed: 941, Deaths: 26, Recovered: 36},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderSeriesChart(&buf, points, ChartOptions{Width: 40, Height: 6}))

	out := buf.String()
	assert.Contains(t, out, "Global cases over time")
	assert.Contains(t, out, "Jan 22, 2020")
	assert.Contains(t, out, "Jan 24, 2020")
	assert.Contains(t, out, "Confirmed")
	assert.Contains(t, out, "Recovered")
}

func TestRenderSeriesChartDailySmoothed(t *testing.T) {
	points := []model.DailyPoint{
		{Date: "1/22/20", Confirmed: 10},
		{Date: "1/23/20", Confirmed: 30},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderSeriesChart(&buf, points, ChartOptions{Width: 40, Height: 4, Daily: true, Smooth: 7}))

	assert.True(t, strings.HasPrefix(buf.String(), "Global daily new cases (7-day average)"))
}

func TestRenderSeriesChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSeriesChart(&buf, nil, ChartOptions{}))
	assert.Equal(t, "No historical data.\n", buf.String())
}

func TestRenderSeriesChartForceColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	points := []model.DailyPoint{
		{Date: "1/22/20", Confirmed: 10},
		{Date: "1/23/20", Confirmed: 30},
	}

	var plain, colored bytes.Buffer
	require.NoError(t, RenderSeriesChart(&plain, points, ChartOptions{Width: 40, Height: 4}))
	require.NoError(t, RenderSeriesChart(&colored, points, ChartOptions{Width: 40, Height: 4, ForceColor: true}))

	assert.NotContains(t, plain.String(), colorReset)
	assert.Contains(t, colored.String(), colorReset)
}

func TestRenderBars(t *testing.T) {
	var buf bytes.Buffer
	snap := model.StatSnapshot{Confirmed: 2000, Recovered: 1000, Deaths: 0, Available: true}
	require.NoError(t, RenderBars(&buf, snap, 33))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Infected"))
	assert.True(t, strings.HasPrefix(lines[1], "Recovered"))
	assert.True(t, strings.HasPrefix(lines[2], "Deaths"))
	infected := strings.Count(lines[0], barRune)
	recovered := strings.Count(lines[1], barRune)
	assert.Equal(t, infected/2, recovered)
	assert.Zero(t, strings.Count(lines[2], barRune))
	assert.True(t, strings.HasSuffix(lines[0], "2.0K"))
}

func TestRenderBarsNoData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderBars(&buf, model.StatSnapshot{}, 30))
	assert.Equal(t, "No data\n", buf.String())
}

func TestRenderSnapshot(t *testing.T) {
	updated := int64(1700000000000)
	var buf bytes.Buffer
	snap := model.StatSnapshot{Confirmed: 1000, Recovered: 900, Deaths: 25, LastUpdate: &updated, Available: true}
	require.NoError(t, RenderSnapshot(&buf, "Global", snap))

	out := buf.String()
	assert.Contains(t, out, "Confirmed: 1,000")
	assert.Contains(t, out, "Active:    75")
	assert.Contains(t, out, "Recovered: 900 (90.0%)")
	assert.Contains(t, out, "Deaths:    25 (2.5%)")
	assert.Contains(t, out, "Nov 14, 2023 22:13 UTC")
}

func TestRenderSnapshotNoData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSnapshot(&buf, "Atlantis", model.StatSnapshot{}))
	assert.Equal(t, "Atlantis: No data\n", buf.String())
}
