package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Line renders a line chart of series over labels.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
	}
	f, err := newFrame(width, height, opts.Padding, opts.TickCount, series)
	if err != nil {
		return "", err
	}
	stroke := fallback(opts.StrokeColor, "#2563eb")
	fill := fallback(opts.FillColor, "rgba(37,99,235,0.12)")

	x := func(i int) float64 {
		if len(series) == 1 {
			return f.padding + f.plotW/2
		}
		return f.padding + float64(i)*f.plotW/float64(len(series)-1)
	}

	var path strings.Builder
	for i, v := range series {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&path, "%s%.2f %.2f ", cmd, x(i), f.y(v))
	}
	d := strings.TrimSpace(path.String())

	var b strings.Builder
	f.open(&b, fallback(opts.Title, "Line chart"), fallback(opts.Description, "Trend data"), "line")
	fmt.Fprintf(&b, `<path d="%s L%.2f %.2f L%.2f %.2f Z" fill="%s" stroke="none" aria-hidden="true"></path>`, d, x(len(series)-1), f.y(0), x(0), f.y(0), fill)
	fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round" stroke-linecap="round"></path>`, d, stroke)
	for i, v := range series {
		if opts.ShowDots {
			fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"></circle>`, x(i), f.y(v), stroke)
		}
		f.label(&b, x(i), labels[i])
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
