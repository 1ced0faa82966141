// Package svg renders the small inline charts embedded in analytics exports.
package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// BarOpts customises the grouped bar renderer.
type BarOpts struct {
	Title        string
	Description  string
	SeriesALabel string
	SeriesBLabel string
	ColorA       string
	ColorB       string
	Padding      float64
	TickCount    int
}

// Chart defaults.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 32.0
	DefaultTicks   = 5

	axisColor = "#475569"
	gridColor = "#cbd5e1"
)
