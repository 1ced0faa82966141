// Package export renders analytics summaries as CSV, XLSX and PDF.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/vinylworks/vinylops/internal/aggregation"
	"github.com/vinylworks/vinylops/internal/analytics"
)

// WriteSummaryCSV writes the bucket, partner and currency sections of sum,
// separated by blank lines.
func WriteSummaryCSV(w io.Writer, sum analytics.Summary) error {
	writer := csv.NewWriter(w)

	sections := [][][]string{
		headerRecords(sum),
		bucketRecords(sum.Buckets),
		partnerRecords(sum.Partners),
		currencyRecords(sum.Currencies),
	}
	for i, section := range sections {
		if i > 0 {
			if err := writer.Write([]string{}); err != nil {
				return err
			}
		}
		if err := writer.WriteAll(section); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func headerRecords(sum analytics.Summary) [][]string {
	return [][]string{
		{"Metric", "Value"},
		{"Kind", string(sum.Kind)},
		{"Unit", string(sum.Unit)},
		{"Start", sum.StartDate},
		{"End", sum.EndDate},
		{"JPY per USD", formatFloat(sum.Rates.JPYPerUSD)},
		{"VND per USD", formatFloat(sum.Rates.VNDPerUSD)},
		{"Rows", strconv.Itoa(sum.RowCount)},
		{"Confirmed", strconv.Itoa(sum.Confirmed)},
		{"Pending", strconv.Itoa(sum.Pending)},
		{"Total USD", formatFloat(sum.TotalUSD)},
	}
}

func bucketRecords(buckets []aggregation.BucketSummary) [][]string {
	out := [][]string{{"Period", "Label", "Confirmed", "Pending", "Total USD"}}
	for _, b := range buckets {
		out = append(out, []string{b.Key, b.Label, strconv.Itoa(b.Confirmed), strconv.Itoa(b.Pending), formatFloat(b.TotalUSD)})
	}
	return out
}

func partnerRecords(partners []aggregation.PartnerSummary) [][]string {
	out := [][]string{{"Partner", "Confirmed", "Pending", "Total USD"}}
	for _, p := range partners {
		out = append(out, []string{p.Partner, strconv.Itoa(p.Confirmed), strconv.Itoa(p.Pending), formatFloat(p.TotalUSD)})
	}
	return out
}

func currencyRecords(totals []aggregation.CurrencyTotal) [][]string {
	out := [][]string{{"Currency", "Amount", "Amount USD"}}
	for _, c := range totals {
		out = append(out, []string{string(c.Currency), formatFloat(c.Amount), formatFloat(c.AmountUSD)})
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
