// Package stats computes dashboard figures and renders them as text.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

// PlotOptions controls a braille plot.
type PlotOptions struct {
	Title  string
	Width  int
	Height int
	// Shared puts every series on one value axis labelled with compact
	// numbers. Otherwise each series is scaled to its own range.
	Shared     bool
	ForceColor bool
	// StartLabel and EndLabel are printed under the first and last column.
	StartLabel string
	EndLabel   string
}

type valueRange struct {
	min float64
	max float64
}

type lineStyle struct {
	name   string
	period int
	on     int
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 6
	axisSeparator       = " │ "
	scaleNote           = "Scaled per series; see min/max below."
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

// Confirmed, deaths and recovered in chart order.
var colorPalette = []string{
	"\x1b[34m",
	"\x1b[31m",
	"\x1b[32m",
	"\x1b[33m",
	"\x1b[35m",
}

// Braille dot bits indexed by [x%2][y%4].
var brailleDots = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// Plot renders series as a braille chart. Empty series are skipped and
// nothing is written when no values remain.
func Plot(w io.Writer, series []Series, opts PlotOptions) error {
	series = filterSeries(series)
	if len(series) == 0 {
		return nil
	}

	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := opts.Width
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	scaled := make([]Series, 0, len(series))
	for _, s := range series {
		scaled = append(scaled, Series{Name: s.Name, Values: resampleSeries(s.Values, width)})
	}
	ranges := seriesRanges(scaled, opts.Shared)

	layers := make([][][]uint8, len(scaled))
	for si, s := range scaled {
		layers[si] = makeCells(height, width)
		drawSeries(layers[si], s.Values, ranges[si], lineStyles[si%len(lineStyles)], height)
	}

	useColor := shouldUseColor(w, opts.ForceColor)
	labels := axisLabels(height, ranges, opts.Shared)

	if opts.Title != "" {
		if _, err := fmt.Fprintln(w, opts.Title); err != nil {
			return err
		}
	}
	if !opts.Shared {
		if _, err := fmt.Fprintln(w, scaleNote); err != nil {
			return err
		}
		for i, s := range scaled {
			if _, err := fmt.Fprintf(w, "%s: min=%s max=%s\n", s.Name, CompactNumber(int64(ranges[i].min)), CompactNumber(int64(ranges[i].max))); err != nil {
				return err
			}
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(runewidth.FillLeft(labels[y], axisLabelWidth))
		row.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, layer := composeCell(layers, x, y)
			ch := brailleFromMask(mask)
			if useColor && layer >= 0 {
				row.WriteString(colorPalette[layer%len(colorPalette)])
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if footer := dateFooter(opts.StartLabel, opts.EndLabel, width); footer != "" {
		if _, err := fmt.Fprintln(w, footer); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, renderLegend(scaled, useColor)); err != nil {
		return err
	}
	return nil
}

func filterSeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func seriesRanges(series []Series, shared bool) []valueRange {
	ranges := make([]valueRange, len(series))
	for i, s := range series {
		ranges[i] = valuesRange(s.Values)
	}
	if shared {
		all := ranges[0]
		for _, r := range ranges[1:] {
			all.min = math.Min(all.min, r.min)
			all.max = math.Max(all.max, r.max)
		}
		if all.min > 0 {
			all.min = 0
		}
		for i := range ranges {
			ranges[i] = all
		}
	}
	for i := range ranges {
		if math.Abs(ranges[i].max-ranges[i].min) < 1e-9 {
			ranges[i].min--
			ranges[i].max++
		}
	}
	return ranges
}

func drawSeries(cells [][]uint8, values []float64, r valueRange, style lineStyle, height int) {
	prevX, prevY := -1, -1
	for x, v := range values {
		px := x * 2
		py := valueToRow(v, r.min, r.max, height*4)
		if prevX >= 0 {
			drawLine(prevX, prevY, px, py, func(dx, dy int) {
				if style.shouldPlot(dx) {
					setBrailleDot(cells, dx, dy)
				}
			})
		} else if style.shouldPlot(px) {
			setBrailleDot(cells, px, py)
		}
		prevX, prevY = px, py
	}
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - axisLabelWidth - runewidth.StringWidth(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func axisLabels(height int, ranges []valueRange, shared bool) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	top, mid, bottom := "100%", "50%", "0%"
	if shared && len(ranges) > 0 {
		r := ranges[0]
		top = CompactNumber(int64(r.max))
		mid = CompactNumber(int64((r.max + r.min) / 2))
		bottom = CompactNumber(int64(r.min))
	}
	labels[0] = top
	if height > 2 {
		labels[height/2] = mid
	}
	if height > 1 {
		labels[height-1] = bottom
	}
	return labels
}

func dateFooter(start, end string, width int) string {
	if start == "" && end == "" {
		return ""
	}
	indent := strings.Repeat(" ", axisLabelWidth+runewidth.StringWidth(axisSeparator))
	gap := width - runewidth.StringWidth(start) - runewidth.StringWidth(end)
	if gap < 1 {
		gap = 1
	}
	return indent + start + strings.Repeat(" ", gap) + end
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

// composeCell merges all layers at a cell; the first layer with a dot
// decides the color.
func composeCell(layers [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	layer := -1
	for i, cells := range layers {
		if y < 0 || y >= len(cells) || x < 0 || x >= len(cells[y]) {
			continue
		}
		if cells[y][x] == 0 {
			continue
		}
		if layer == -1 {
			layer = i
		}
		mask |= cells[y][x]
	}
	return mask, layer
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

// resampleSeries averages buckets when shrinking and interpolates linearly
// when stretching.
func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case len(values) == width:
		copy(out, values)
	case len(values) > width:
		for i := range out {
			start := i * len(values) / width
			end := (i + 1) * len(values) / width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case len(values) == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		last := len(values) - 1
		for i := range out {
			pos := float64(i) * float64(last) / float64(width-1)
			idx := int(math.Floor(pos))
			if idx >= last {
				out[i] = values[last]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func valuesRange(values []float64) valueRange {
	if len(values) == 0 {
		return valueRange{}
	}
	r := valueRange{min: values[0], max: values[0]}
	for _, v := range values[1:] {
		r.min = math.Min(r.min, v)
		r.max = math.Max(r.max, v)
	}
	return r
}

func valueToRow(v, minVal, maxVal float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	return max(0, min(rows-1, row))
}

func renderLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := brailleFromMask(0x01)
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", marker, s.Name, lineStyles[i%len(lineStyles)].name)
		if useColor {
			label = colorPalette[i%len(colorPalette)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// drawLine walks a Bresenham line from (x0,y0) to (x1,y1).
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cellY, cellX := y/4, x/2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDots[x%2][y%4]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
