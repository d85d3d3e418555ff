//
// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sparkutil

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Number is any Go numeric type a bar height can be read from.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

const (
	DefaultColor     = "skyblue"
	DefaultFigWidth  = 10
	DefaultFigHeight = 6

	// Terminal cells per inch of figure size.
	columnsPerInch = 8
	rowsPerInch    = 3
)

var namedColors = map[string]string{
	"skyblue":   "#87CEEB",
	"steelblue": "#4682B4",
	"blue":      "#0000FF",
	"navy":      "#000080",
	"green":     "#008000",
	"seagreen":  "#2E8B57",
	"red":       "#FF0000",
	"salmon":    "#FA8072",
	"coral":     "#FF7F50",
	"orange":    "#FFA500",
	"gold":      "#FFD700",
	"purple":    "#800080",
	"teal":      "#008080",
	"gray":      "#808080",
	"grey":      "#808080",
	"black":     "#000000",
	"white":     "#FFFFFF",
}

type chartOptions struct {
	color    string
	rotation float64
	width    float64
	height   float64
	output   io.Writer
}

type ChartOption func(*chartOptions)

// WithColor sets the bar color: a name such as "skyblue" or a "#rrggbb" value.
func WithColor(color string) ChartOption {
	return func(o *chartOptions) {
		o.color = color
	}
}

// WithRotation sets the x tick label angle in degrees. Labels are printed
// vertically from 45 degrees on.
func WithRotation(degrees float64) ChartOption {
	return func(o *chartOptions) {
		o.rotation = degrees
	}
}

// WithFigSize sets the chart size in inches.
func WithFigSize(width, height float64) ChartOption {
	return func(o *chartOptions) {
		o.width = width
		o.height = height
	}
}

func WithChartOutput(w io.Writer) ChartOption {
	return func(o *chartOptions) {
		o.output = w
	}
}

func resolveColor(color string) (lipgloss.Color, error) {
	c := strings.ToLower(strings.TrimSpace(color))
	if hex, ok := namedColors[c]; ok {
		return lipgloss.Color(hex), nil
	}
	if len(c) == 7 && c[0] == '#' {
		if _, err := strconv.ParseUint(c[1:], 16, 32); err == nil {
			return lipgloss.Color(c), nil
		}
	}
	return "", fmt.Errorf("%q is not a valid color value", color)
}

// PlotBarChart draws one vertical bar per (label, value) pair, in input
// order, with dashed horizontal gridlines at the y ticks. values and labels
// must have the same length.
func PlotBarChart[V Number, L any](values []V, labels []L, title, xLabel, yLabel string, opts ...ChartOption) error {
	o := chartOptions{
		color:  DefaultColor,
		width:  DefaultFigWidth,
		height: DefaultFigHeight,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if len(values) != len(labels) {
		return fmt.Errorf("%w: got %d values and %d labels", ErrInvalidArgument, len(values), len(labels))
	}
	if o.width <= 0 || o.height <= 0 {
		return fmt.Errorf("%w: figure size must be positive, got %vx%v", ErrInvalidArgument, o.width, o.height)
	}
	color, err := resolveColor(o.color)
	if err != nil {
		return err
	}

	chart := barChart{
		values:   make([]float64, len(values)),
		labels:   make([]string, len(labels)),
		title:    title,
		xLabel:   xLabel,
		yLabel:   yLabel,
		vertical: math.Abs(o.rotation) >= 45,
		width:    max(int(o.width*columnsPerInch), 1),
		height:   max(int(o.height*rowsPerInch), 1),
	}
	for i, v := range values {
		chart.values[i] = float64(v)
	}
	for i, l := range labels {
		chart.labels[i] = fmt.Sprint(l)
	}

	renderer := lipgloss.NewRenderer(o.output)
	styles := chartStyles{
		title: renderer.NewStyle().Bold(true),
		bar:   renderer.NewStyle().Foreground(color),
		grid:  renderer.NewStyle().Faint(true),
	}
	_, err = io.WriteString(o.output, chart.render(styles))
	return err
}

type chartStyles struct {
	title lipgloss.Style
	bar   lipgloss.Style
	grid  lipgloss.Style
}

type barChart struct {
	values   []float64
	labels   []string
	title    string
	xLabel   string
	yLabel   string
	vertical bool
	width    int
	height   int
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellGrid
	cellBar
)

func formatTick(v float64) string {
	if math.Abs(v) < 1e-9 {
		return "0"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// bounds returns the y range, always including zero.
func (c *barChart) bounds() (lo, hi float64) {
	for _, v := range c.values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

func (c *barChart) render(styles chartStyles) string {
	lo, hi := c.bounds()
	step := (hi - lo) / float64(c.height)
	tickEvery := max(c.height/6, 1)

	tickWidth := runewidth.StringWidth(formatTick(lo))
	for r := 0; r < c.height; r += tickEvery {
		tickWidth = max(tickWidth, runewidth.StringWidth(formatTick(hi-float64(r)*step)))
	}

	// The y label runs down the left edge when it fits, else above the plot.
	yLabelRunes := []rune(c.yLabel)
	verticalYLabel := len(yLabelRunes) > 0 && len(yLabelRunes) <= c.height
	yLabelWidth := 0
	if verticalYLabel {
		for _, r := range yLabelRunes {
			yLabelWidth = max(yLabelWidth, runewidth.RuneWidth(r))
		}
		yLabelWidth++
	}
	margin := yLabelWidth + tickWidth + 1

	n := len(c.values)
	areaWidth := max(c.width-margin, 1)
	slot := areaWidth
	if n > 0 {
		slot = max(areaWidth/n, 2)
		areaWidth = max(areaWidth, slot*n)
	}
	barWidth := max(slot*2/3, 1)
	barOffset := (slot - barWidth) / 2
	totalWidth := margin + areaWidth

	var lines []string
	if c.title != "" {
		lines = append(lines, styles.title.Render(lipgloss.PlaceHorizontal(totalWidth, lipgloss.Center, c.title)))
	}
	if c.yLabel != "" && !verticalYLabel {
		lines = append(lines, c.yLabel)
	}
	yLabelStart := (c.height - len(yLabelRunes)) / 2

	for r := 0; r < c.height; r++ {
		var sb strings.Builder
		if verticalYLabel {
			label := " "
			if k := r - yLabelStart; k >= 0 && k < len(yLabelRunes) {
				label = string(yLabelRunes[k])
			}
			sb.WriteString(runewidth.FillRight(label, yLabelWidth))
		}
		top := hi - float64(r)*step
		center := top - step/2
		isTick := r%tickEvery == 0
		if isTick {
			sb.WriteString(runewidth.FillLeft(formatTick(top), tickWidth))
			sb.WriteString("┤")
		} else {
			sb.WriteString(strings.Repeat(" ", tickWidth))
			sb.WriteString("│")
		}

		kinds := make([]cellKind, areaWidth)
		for x := range kinds {
			if i, within := x/slot, x%slot; i < n && within >= barOffset && within < barOffset+barWidth {
				v := c.values[i]
				if center >= min(0, v) && center <= max(0, v) {
					kinds[x] = cellBar
					continue
				}
			}
			if isTick && x%2 == 0 {
				kinds[x] = cellGrid
			}
		}
		writeCells(&sb, kinds, styles)
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}

	axis := strings.Repeat(" ", yLabelWidth) +
		runewidth.FillLeft(formatTick(lo), tickWidth) + "└" + strings.Repeat("─", areaWidth)
	lines = append(lines, axis)
	lines = append(lines, c.tickLabelLines(margin, slot, barOffset, barWidth)...)
	if c.xLabel != "" {
		lines = append(lines, strings.TrimRight(
			strings.Repeat(" ", margin)+lipgloss.PlaceHorizontal(areaWidth, lipgloss.Center, c.xLabel), " "))
	}
	return strings.Join(lines, "\n") + "\n"
}

// writeCells renders runs of equal cells with one style call each.
func writeCells(sb *strings.Builder, kinds []cellKind, styles chartStyles) {
	for start := 0; start < len(kinds); {
		end := start
		for end < len(kinds) && kinds[end] == kinds[start] {
			end++
		}
		width := end - start
		switch kinds[start] {
		case cellBar:
			sb.WriteString(styles.bar.Render(strings.Repeat("█", width)))
		case cellGrid:
			sb.WriteString(styles.grid.Render("-"))
			if width > 1 {
				sb.WriteString(strings.Repeat(" ", width-1))
			}
		default:
			sb.WriteString(strings.Repeat(" ", width))
		}
		start = end
	}
}

func (c *barChart) tickLabelLines(margin, slot, barOffset, barWidth int) []string {
	if len(c.labels) == 0 {
		return nil
	}
	prefix := strings.Repeat(" ", margin)
	if !c.vertical {
		var sb strings.Builder
		sb.WriteString(prefix)
		for _, label := range c.labels {
			label = runewidth.Truncate(label, slot-1, "…")
			sb.WriteString(lipgloss.PlaceHorizontal(slot, lipgloss.Center, label))
		}
		return []string{strings.TrimRight(sb.String(), " ")}
	}

	runes := make([][]rune, len(c.labels))
	longest := 0
	for i, label := range c.labels {
		runes[i] = []rune(label)
		longest = max(longest, len(runes[i]))
	}
	center := barOffset + barWidth/2
	lines := make([]string, longest)
	for k := range lines {
		var sb strings.Builder
		sb.WriteString(prefix)
		for i := range runes {
			cell := " "
			if k < len(runes[i]) {
				cell = string(runes[i][k])
			}
			sb.WriteString(strings.Repeat(" ", center))
			sb.WriteString(runewidth.FillRight(cell, slot-center))
		}
		lines[k] = strings.TrimRight(sb.String(), " ")
	}
	return lines
}
