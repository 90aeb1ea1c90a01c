package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/carpenike/liftlog/internal/stats"
)

// ChartPoint represents a single data point for SVG line/area charts.
type ChartPoint struct {
	X     float64 // SVG x coordinate
	Y     float64 // SVG y coordinate
	Value float64 // Original data value
	Label string  // Formatted date for tooltip
}

// ChartData holds pre-computed SVG chart data for rendering in templates.
type ChartData struct {
	Points    []ChartPoint
	PolyLine  string // Pre-computed SVG polyline points string
	AreaPath  string // Pre-computed SVG area path (for filled charts)
	MinValue  float64
	MaxValue  float64
	MinLabel  string
	MaxLabel  string
	YLabels   []ChartYLabel // Y-axis grid labels
	HasData   bool
	ValueUnit string // e.g. "kg", "lbs"
}

// ChartYLabel is a horizontal grid line label.
type ChartYLabel struct {
	Y     float64
	Label string
}

// chartDimensions defines the SVG viewBox dimensions and padding.
const (
	chartWidth    = 600.0
	chartHeight   = 200.0
	chartPadLeft  = 50.0
	chartPadRight = 10.0
	chartPadTop   = 15.0
	chartPadBot   = 25.0
)

// computeChartPoints normalizes a series of (label, value) pairs into SVG
// coordinates within the chart dimensions. Points keep their input order.
func computeChartPoints(labels []string, values []float64, unit string) *ChartData {
	if len(labels) == 0 || len(labels) != len(values) {
		return &ChartData{HasData: false}
	}

	// Find min/max values with 5% padding.
	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	// Add padding so points don't sit on the edge.
	valRange := maxVal - minVal
	if valRange == 0 {
		valRange = maxVal * 0.1
		if valRange == 0 {
			valRange = 10
		}
		minVal -= valRange / 2
		maxVal += valRange / 2
	} else {
		minVal -= valRange * 0.05
		maxVal += valRange * 0.05
	}

	plotW := chartWidth - chartPadLeft - chartPadRight
	plotH := chartHeight - chartPadTop - chartPadBot

	points := make([]ChartPoint, len(labels))
	for i := range labels {
		var xFrac float64
		if len(labels) == 1 {
			xFrac = 0.5
		} else {
			xFrac = float64(i) / float64(len(labels)-1)
		}
		yFrac := 1.0 - (values[i]-minVal)/(maxVal-minVal)

		points[i] = ChartPoint{
			X:     chartPadLeft + xFrac*plotW,
			Y:     chartPadTop + yFrac*plotH,
			Value: values[i],
			Label: labels[i],
		}
	}

	// Build polyline string.
	var polyParts []string
	for _, p := range points {
		polyParts = append(polyParts, fmt.Sprintf("%.1f,%.1f", p.X, p.Y))
	}
	polyLine := strings.Join(polyParts, " ")

	// Build area path (same line, with bottom closed).
	bottomY := chartPadTop + plotH
	areaPath := fmt.Sprintf("M%.1f,%.1f ", points[0].X, bottomY)
	for _, p := range points {
		areaPath += fmt.Sprintf("L%.1f,%.1f ", p.X, p.Y)
	}
	areaPath += fmt.Sprintf("L%.1f,%.1f Z", points[len(points)-1].X, bottomY)

	// Generate Y-axis labels (4-5 nice round numbers).
	yLabels := niceYLabels(minVal, maxVal, 4)

	return &ChartData{
		Points:    points,
		PolyLine:  polyLine,
		AreaPath:  areaPath,
		MinValue:  minVal,
		MaxValue:  maxVal,
		MinLabel:  labels[0],
		MaxLabel:  labels[len(labels)-1],
		YLabels:   yLabels,
		HasData:   true,
		ValueUnit: unit,
	}
}

// niceYLabels generates evenly-spaced y-axis labels with nice round numbers.
func niceYLabels(minVal, maxVal float64, count int) []ChartYLabel {
	if count <= 0 {
		count = 4
	}
	valRange := maxVal - minVal
	rawStep := valRange / float64(count)

	// Round step to a nice number.
	magnitude := math.Pow(10, math.Floor(math.Log10(rawStep)))
	normalized := rawStep / magnitude
	var niceStep float64
	switch {
	case normalized <= 1.5:
		niceStep = magnitude
	case normalized <= 3.5:
		niceStep = 2.5 * magnitude
	case normalized <= 7.5:
		niceStep = 5 * magnitude
	default:
		niceStep = 10 * magnitude
	}

	plotH := chartHeight - chartPadTop - chartPadBot
	var labels []ChartYLabel

	// Start from the first nice number above minVal.
	start := math.Ceil(minVal/niceStep) * niceStep
	for v := start; v <= maxVal; v += niceStep {
		yFrac := 1.0 - (v-minVal)/(maxVal-minVal)
		y := chartPadTop + yFrac*plotH
		labels = append(labels, ChartYLabel{
			Y:     y,
			Label: formatChartValue(v),
		})
	}

	return labels
}

// formatChartValue formats a number for y-axis display.
func formatChartValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// ProgressChart plots an exercise's weight history.
func ProgressChart(p *stats.ExerciseProgress, unit string) *ChartData {
	if p.Len() == 0 {
		return &ChartData{HasData: false}
	}
	return computeChartPoints(p.FormattedDates, p.Weights, unit)
}

// BodyWeightChart plots body weight from metrics given newest first, as
// ListMetrics returns them. Entries without a weight are skipped.
func BodyWeightChart(metrics []*Metric, unit string) *ChartData {
	var labels []string
	var values []float64
	for i := len(metrics) - 1; i >= 0; i-- {
		m := metrics[i]
		if !m.Weight.Valid {
			continue
		}
		labels = append(labels, stats.FormatDate(m.Date))
		values = append(values, m.Weight.Float64)
	}
	return computeChartPoints(labels, values, unit)
}

// BodyFatChart plots body fat percentage from metrics given newest first.
func BodyFatChart(metrics []*Metric) *ChartData {
	var labels []string
	var values []float64
	for i := len(metrics) - 1; i >= 0; i-- {
		m := metrics[i]
		if !m.BodyFat.Valid {
			continue
		}
		labels = append(labels, stats.FormatDate(m.Date))
		values = append(values, m.BodyFat.Float64)
	}
	return computeChartPoints(labels, values, "%")
}

// ChartBar is one bar of a bar chart.
type ChartBar struct {
	X      float64 // SVG x position
	Y      float64 // SVG y position (top of bar)
	Width  float64
	Height float64
	Value  float64
	Label  string // formatted date for tooltip
}

// BarChartData holds pre-computed SVG bar chart data.
type BarChartData struct {
	Bars     []ChartBar
	HasData  bool
	MaxValue float64
	MinLabel string
	MaxLabel string
}

// computeBars scales values into bars filling the plot area left to right.
func computeBars(labels []string, values []float64) *BarChartData {
	if len(labels) == 0 || len(labels) != len(values) {
		return &BarChartData{HasData: false}
	}

	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	plotW := chartWidth - chartPadLeft - chartPadRight
	plotH := chartHeight - chartPadTop - chartPadBot
	barGap := 2.0
	barW := (plotW - barGap*float64(len(values)-1)) / float64(len(values))
	if barW > 40 {
		barW = 40
	}
	if barW < 1 {
		barW = 1
	}

	bars := make([]ChartBar, len(values))
	for i, v := range values {
		barH := v / maxVal * plotH
		bars[i] = ChartBar{
			X:      chartPadLeft + float64(i)*(barW+barGap),
			Y:      chartPadTop + plotH - barH,
			Width:  barW,
			Height: barH,
			Value:  v,
			Label:  labels[i],
		}
	}

	return &BarChartData{
		Bars:     bars,
		HasData:  true,
		MaxValue: maxVal,
		MinLabel: labels[0],
		MaxLabel: labels[len(labels)-1],
	}
}

// FrequencyChart draws one bar per training day, height = workouts logged.
func FrequencyChart(freq []stats.WorkoutFrequency) *BarChartData {
	labels := make([]string, len(freq))
	values := make([]float64, len(freq))
	for i, f := range freq {
		labels[i] = f.FormattedDate
		values[i] = float64(f.Count)
	}
	return computeBars(labels, values)
}

// VolumeChart draws one bar per training day, height = total volume.
func VolumeChart(vol []stats.VolumeData) *BarChartData {
	labels := make([]string, len(vol))
	values := make([]float64, len(vol))
	for i, v := range vol {
		labels[i] = v.FormattedDate
		values[i] = v.Volume
	}
	return computeBars(labels, values)
}

// PieSlices is the number of exercises drawn individually in the
// distribution chart; the rest are folded into one slice.
const PieSlices = 8

// pieColors are the slice fills, cycled in order.
var pieColors = []string{
	"#2563eb", "#16a34a", "#dc2626", "#d97706",
	"#7c3aed", "#0891b2", "#db2777", "#65a30d", "#6b7280",
}

// PieSlice is one wedge of the distribution chart.
type PieSlice struct {
	Path       string // SVG path; empty when Full
	Full       bool   // a single slice covering the whole circle
	Color      string
	Exercise   string
	Count      int
	Percentage float64
}

// PieChartData holds pre-computed SVG wedges for the distribution chart.
type PieChartData struct {
	Slices  []PieSlice
	HasData bool
	CX, CY  float64
	Radius  float64
}

// DistributionChart draws the exercise distribution as a pie of at most
// PieSlices+1 wedges.
func DistributionChart(dist []stats.ExerciseDistribution) *PieChartData {
	const cx, cy, r = 100.0, 100.0, 90.0
	top := stats.TopDistribution(dist, PieSlices)

	total := 0
	for _, d := range top {
		total += d.Count
	}
	if total == 0 {
		return &PieChartData{HasData: false}
	}

	pc := &PieChartData{HasData: true, CX: cx, CY: cy, Radius: r}
	angle := -math.Pi / 2
	for i, d := range top {
		frac := float64(d.Count) / float64(total)
		slice := PieSlice{
			Color:      pieColors[i%len(pieColors)],
			Exercise:   d.Exercise,
			Count:      d.Count,
			Percentage: d.Percentage,
		}
		if frac >= 1 {
			slice.Full = true
		} else {
			end := angle + frac*2*math.Pi
			large := 0
			if frac > 0.5 {
				large = 1
			}
			slice.Path = fmt.Sprintf("M%.1f,%.1f L%.2f,%.2f A%.1f,%.1f 0 %d 1 %.2f,%.2f Z",
				cx, cy,
				cx+r*math.Cos(angle), cy+r*math.Sin(angle),
				r, r, large,
				cx+r*math.Cos(end), cy+r*math.Sin(end))
			angle = end
		}
		pc.Slices = append(pc.Slices, slice)
	}
	return pc
}
