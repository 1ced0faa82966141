package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders a grouped bar chart of up to two series. Either series may be
// empty, but non-empty series must match labels in length.
func Bars(width, height int, seriesA, seriesB []float64, labels []string, opts BarOpts) (template.HTML, error) {
	if len(seriesA) == 0 && len(seriesB) == 0 {
		return "", fmt.Errorf("svg: at least one series required")
	}
	if len(labels) == 0 {
		return "", fmt.Errorf("svg: labels required")
	}
	if len(seriesA) > 0 && len(seriesA) != len(labels) {
		return "", fmt.Errorf("svg: seriesA length must match labels")
	}
	if len(seriesB) > 0 && len(seriesB) != len(labels) {
		return "", fmt.Errorf("svg: seriesB length must match labels")
	}
	f, err := newFrame(width, height, opts.Padding, opts.TickCount, seriesA, seriesB)
	if err != nil {
		return "", err
	}
	series := []struct {
		values []float64
		label  string
		color  string
	}{
		{seriesA, fallback(opts.SeriesALabel, "Series A"), fallback(opts.ColorA, "#0ea5e9")},
		{seriesB, fallback(opts.SeriesBLabel, "Series B"), fallback(opts.ColorB, "#f97316")},
	}

	group := f.plotW / float64(len(labels))
	barW := group / 3

	var b strings.Builder
	f.open(&b, fallback(opts.Title, "Bar chart"), fallback(opts.Description, "Grouped bar comparison"), "bar")
	for i, label := range labels {
		left := f.padding + float64(i)*group
		for s, ser := range series {
			if len(ser.values) == 0 {
				continue
			}
			top, bottom := f.y(math.Max(ser.values[i], 0)), f.y(math.Min(ser.values[i], 0))
			fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" aria-label="%s %s"></rect>`,
				left+barW*(0.3+1.1*float64(s)), top, barW, bottom-top, ser.color,
				template.HTMLEscapeString(ser.label), template.HTMLEscapeString(label))
		}
		f.label(&b, left+group/2, label)
	}

	legendX := f.padding
	legendY := math.Max(f.padding-12, 12)
	for _, ser := range series {
		if len(ser.values) == 0 {
			continue
		}
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, legendX, legendY-8, ser.color)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="start">%s</text>`, legendX+14, legendY, axisColor, template.HTMLEscapeString(ser.label))
		legendX += 110
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
