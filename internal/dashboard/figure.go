package dashboard

import (
	"math"
)

// Figure is a Plotly figure specification. The browser draws it with
// Plotly.newPlot(div, figure.data, figure.layout).
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is the subset of Plotly trace attributes the dashboard emits.
type Trace struct {
	Type          string  `json:"type"`
	Mode          string  `json:"mode,omitempty"`
	Orientation   string  `json:"orientation,omitempty"`
	X             []any   `json:"x"`
	Y             []any   `json:"y"`
	HoverText     []any   `json:"hovertext,omitempty"`
	HoverTemplate string  `json:"hovertemplate,omitempty"`
	Marker        *Marker `json:"marker,omitempty"`
}

type Marker struct {
	Color      any       `json:"color,omitempty"`
	ColorScale string    `json:"colorscale,omitempty"`
	ShowScale  bool      `json:"showscale,omitempty"`
	ColorBar   *ColorBar `json:"colorbar,omitempty"`
	Size       []any     `json:"size,omitempty"`
	SizeMode   string    `json:"sizemode,omitempty"`
	SizeRef    float64   `json:"sizeref,omitempty"`
}

type ColorBar struct {
	Title Title `json:"title"`
}

type Title struct {
	Text string `json:"text"`
}

type Axis struct {
	Title Title `json:"title"`
}

type Layout struct {
	Title Title `json:"title"`
	XAxis Axis  `json:"xaxis"`
	YAxis Axis  `json:"yaxis"`
}

const (
	colorScale   = "Plasma"
	barColor     = "#636efa"
	maxPointSize = 20.0
)

// barChart draws one bar per row. A non-nil color column shades the bars on
// a continuous scale.
func barChart(title, xName, yName string, x, y []any, colorName string, color []float64, horizontal bool) *Figure {
	tr := Trace{
		Type: "bar",
		X:    x,
		Y:    y,
	}
	if horizontal {
		tr.Orientation = "h"
	}

	if color != nil {
		tr.Marker = &Marker{
			Color:      numbers(color),
			ColorScale: colorScale,
			ShowScale:  true,
			ColorBar:   &ColorBar{Title: Title{Text: colorName}},
		}
		tr.HoverTemplate = xName + "=%{x}<br>" + yName + "=%{y}<br>" + colorName + "=%{marker.color}<extra></extra>"
	} else {
		tr.Marker = &Marker{Color: barColor}
		tr.HoverTemplate = xName + "=%{x}<br>" + yName + "=%{y}<extra></extra>"
	}

	return &Figure{
		Data: []Trace{tr},
		Layout: Layout{
			Title: Title{Text: title},
			XAxis: Axis{Title: Title{Text: xName}},
			YAxis: Axis{Title: Title{Text: yName}},
		},
	}
}

// scatterChart draws a bubble chart: point area scales with size, color on a
// continuous scale, hover labelled by name.
func scatterChart(title, xName, yName string, x, y []float64, sizeName string, size []float64, colorName string, color []float64, hoverName []any) *Figure {
	tr := Trace{
		Type:      "scatter",
		Mode:      "markers",
		X:         numbers(x),
		Y:         numbers(y),
		HoverText: hoverName,
		HoverTemplate: "<b>%{hovertext}</b><br><br>" +
			xName + "=%{x}<br>" + yName + "=%{y}<br>" +
			sizeName + "=%{marker.size}<br>" + colorName + "=%{marker.color}<extra></extra>",
		Marker: &Marker{
			Color:      numbers(color),
			ColorScale: colorScale,
			ShowScale:  true,
			ColorBar:   &ColorBar{Title: Title{Text: colorName}},
			Size:       numbers(size),
			SizeMode:   "area",
			SizeRef:    sizeRef(size),
		},
	}

	return &Figure{
		Data: []Trace{tr},
		Layout: Layout{
			Title: Title{Text: title},
			XAxis: Axis{Title: Title{Text: xName}},
			YAxis: Axis{Title: Title{Text: yName}},
		},
	}
}

// sizeRef maps the largest value onto a marker of maxPointSize pixels.
func sizeRef(size []float64) float64 {
	largest := 0.0
	for _, s := range size {
		if finite(s) && s > largest {
			largest = s
		}
	}
	if largest == 0 {
		return 1
	}
	return 2 * largest / math.Pow(maxPointSize, 2)
}

// numbers converts floats to JSON-safe values; NaN becomes null, which
// Plotly treats as a gap.
func numbers(vs []float64) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		if finite(v) {
			out[i] = v
		}
	}
	return out
}
