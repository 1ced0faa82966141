package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/vinylworks/vinylops/internal/analytics"
	"github.com/vinylworks/vinylops/internal/analytics/svg"
	"github.com/vinylworks/vinylops/report"
)

// HTMLRenderer converts a full HTML page to PDF.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html []byte, paper report.PaperOptions) ([]byte, error)
}

// PDFExporter renders summaries to landscape A4 PDFs.
type PDFExporter struct {
	renderer HTMLRenderer
}

// NewPDFExporter wraps renderer, usually a *report.Client.
func NewPDFExporter(renderer HTMLRenderer) *PDFExporter {
	return &PDFExporter{renderer: renderer}
}

// RenderSummary builds the report HTML for sum and returns the PDF bytes.
func (p *PDFExporter) RenderSummary(ctx context.Context, sum analytics.Summary) ([]byte, error) {
	if p == nil || p.renderer == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	html, err := SummaryHTML(sum)
	if err != nil {
		return nil, err
	}
	paper := report.A4
	paper.Landscape = true
	pdf, err := p.renderer.RenderHTML(ctx, html, paper)
	if err != nil {
		return nil, fmt.Errorf("export: render pdf: %w", err)
	}
	return pdf, nil
}

type summaryView struct {
	analytics.Summary
	TotalChart  template.HTML
	CountsChart template.HTML
}

var summaryTemplate = template.Must(template.New("summary").Funcs(template.FuncMap{
	"money": formatFloat,
}).Parse(`<!doctype html>
<html><head><meta charset="utf-8"><style>
body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}
table{width:100%;border-collapse:collapse;margin-bottom:16px;}
th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{background:#f5f5f5;}
td.label,th.label{text-align:left;}section{margin-bottom:24px;}
</style></head><body>
<h1>{{.Kind}} by {{.Unit}}{{if .StartDate}} from {{.StartDate}}{{end}}{{if .EndDate}} to {{.EndDate}}{{end}}</h1>
<p>Total {{money .TotalUSD}} USD across {{.RowCount}} records ({{.Confirmed}} confirmed, {{.Pending}} pending).
Rates: {{money .Rates.JPYPerUSD}} JPY, {{money .Rates.VNDPerUSD}} VND per USD{{if .RateFallback}} (defaults){{end}}.</p>
{{with .TotalChart}}<section>{{.}}</section>{{end}}
{{with .CountsChart}}<section>{{.}}</section>{{end}}
<section><h2>Periods</h2><table><thead><tr><th class="label">Period</th><th>Confirmed</th><th>Pending</th><th>Total USD</th></tr></thead><tbody>
{{range .Buckets}}<tr><td class="label">{{.Label}}</td><td>{{.Confirmed}}</td><td>{{.Pending}}</td><td>{{money .TotalUSD}}</td></tr>
{{end}}</tbody></table></section>
<section><h2>Partners</h2><table><thead><tr><th class="label">Partner</th><th>Confirmed</th><th>Pending</th><th>Total USD</th></tr></thead><tbody>
{{range .Partners}}<tr><td class="label">{{.Partner}}</td><td>{{.Confirmed}}</td><td>{{.Pending}}</td><td>{{money .TotalUSD}}</td></tr>
{{end}}</tbody></table></section>
<section><h2>Currencies</h2><table><thead><tr><th class="label">Currency</th><th>Amount</th><th>Amount USD</th></tr></thead><tbody>
{{range .Currencies}}<tr><td class="label">{{.Currency}}</td><td>{{money .Amount}}</td><td>{{money .AmountUSD}}</td></tr>
{{end}}</tbody></table></section>
</body></html>`))

// SummaryHTML renders the printable report for sum, with charts when there is
// at least one period.
func SummaryHTML(sum analytics.Summary) ([]byte, error) {
	view := summaryView{Summary: sum}
	if n := len(sum.Buckets); n > 0 {
		labels := make([]string, n)
		totals := make([]float64, n)
		confirmed := make([]float64, n)
		pending := make([]float64, n)
		for i, b := range sum.Buckets {
			labels[i] = b.Key
			totals[i] = b.TotalUSD
			confirmed[i] = float64(b.Confirmed)
			pending[i] = float64(b.Pending)
		}
		var err error
		view.TotalChart, err = svg.Line(svg.DefaultWidth, svg.DefaultHeight, totals, labels, svg.LineOpts{
			Title:       "Total USD",
			Description: "USD total per period",
			ShowDots:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("export: total chart: %w", err)
		}
		view.CountsChart, err = svg.Bars(svg.DefaultWidth, svg.DefaultHeight, confirmed, pending, labels, svg.BarOpts{
			Title:        "Records",
			Description:  "Confirmed and pending records per period",
			SeriesALabel: "Confirmed",
			SeriesBLabel: "Pending",
		})
		if err != nil {
			return nil, fmt.Errorf("export: counts chart: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("export: render summary: %w", err)
	}
	return buf.Bytes(), nil
}
