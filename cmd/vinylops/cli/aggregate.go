package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/vinylworks/vinylops/internal/aggregation"
	"github.com/vinylworks/vinylops/internal/fx"
)

// AggregateOptions defines available flags for the aggregate command.
type AggregateOptions struct {
	File       string
	Unit       string
	Start      string
	End        string
	JPYPerUSD  float64
	VNDPerUSD  float64
	JSONOutput bool
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

// ParseAggregateArgs parses the aggregate flag set. Rates left at zero fall
// back to the defaults during normalization.
func ParseAggregateArgs(args []string, stderr io.Writer) (AggregateOptions, error) {
	var opts AggregateOptions
	fs := flag.NewFlagSet("aggregate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.File, "file", "", "CSV file with id,date,partner,currency,amount,confirmed columns (- for stdin)")
	fs.StringVar(&opts.Unit, "unit", string(aggregation.UnitMonth), "bucket unit: day, week or month")
	fs.StringVar(&opts.Start, "start", "", "inclusive start date YYYY-MM-DD")
	fs.StringVar(&opts.End, "end", "", "inclusive end date YYYY-MM-DD")
	fs.Float64Var(&opts.JPYPerUSD, "jpy", 0, "JPY per USD (default when omitted)")
	fs.Float64Var(&opts.VNDPerUSD, "vnd", 0, "VND per USD (default when omitted)")
	fs.BoolVar(&opts.JSONOutput, "json", false, "print JSON instead of tables")
	if err := fs.Parse(args); err != nil {
		return AggregateOptions{}, err
	}
	if fs.NArg() > 0 {
		return AggregateOptions{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, nil
}

// AggregateCommand reads rows, aggregates them and prints the result.
func AggregateCommand(opts AggregateOptions, defaults fx.ExchangeRates) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if strings.TrimSpace(opts.File) == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "aggregate: --file is required")
		return 1
	}
	unit, err := aggregation.ParseUnit(opts.Unit)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "aggregate: %v\n", err)
		return 1
	}
	cal := aggregation.DefaultCalendar()
	for _, bound := range []string{opts.Start, opts.End} {
		if bound == "" {
			continue
		}
		if _, ok := cal.ParseDate(bound); !ok {
			_, _ = fmt.Fprintf(opts.Stderr, "aggregate: invalid date %q (expected YYYY-MM-DD)\n", bound)
			return 1
		}
	}

	rows, err := loadRows(opts)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "aggregate: %v\n", err)
		return 1
	}

	normalizer := fx.NewNormalizer(defaults)
	rates := normalizer.Normalize(&fx.PartialRates{JPYPerUSD: &opts.JPYPerUSD, VNDPerUSD: &opts.VNDPerUSD})
	result := aggregation.NewEngine(cal, normalizer).Aggregate(rows, rates, unit, opts.Start, opts.End)

	if opts.JSONOutput {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "aggregate: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	renderAggregateHuman(opts.Stdout, result)
	return 0
}

var columnAliases = map[string]string{
	"id":        "id",
	"date":      "date",
	"partner":   "partner",
	"client":    "partner",
	"payee":     "partner",
	"currency":  "currency",
	"amount":    "amount",
	"confirmed": "confirmed",
	"status":    "confirmed",
}

func loadRows(opts AggregateOptions) ([]aggregation.Row, error) {
	var data []byte
	var err error
	if opts.File == "-" {
		if opts.Stdin == nil {
			return nil, errors.New("--file - requires stdin")
		}
		data, err = io.ReadAll(opts.Stdin)
	} else {
		data, err = os.ReadFile(opts.File)
	}
	if err != nil {
		return nil, err
	}
	return parseRows(data)
}

func parseRows(data []byte) ([]aggregation.Row, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []aggregation.Row{}, nil
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	header, err := nextNonEmptyRecord(reader)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []aggregation.Row{}, nil
		}
		return nil, err
	}
	idx := map[string]int{"id": -1, "date": -1, "partner": -1, "currency": -1, "amount": -1, "confirmed": -1}
	for i, col := range header {
		if name, ok := columnAliases[strings.ToLower(strings.TrimSpace(col))]; ok {
			idx[name] = i
		}
	}
	for _, required := range []string{"date", "partner", "currency", "amount"} {
		if idx[required] < 0 {
			return nil, fmt.Errorf("missing required column %q (need date, partner, currency, amount)", required)
		}
	}

	rows := make([]aggregation.Row, 0)
	line := 1
	for {
		record, err := nextNonEmptyRecord(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		field := func(name string) string {
			i := idx[name]
			if i < 0 || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		amount, err := strconv.ParseFloat(field("amount"), 64)
		if err != nil {
			return nil, fmt.Errorf("record %d: invalid amount %q", line, field("amount"))
		}
		id := field("id")
		if id == "" {
			id = strconv.Itoa(line - 1)
		}
		rows = append(rows, aggregation.Row{
			ID:        id,
			Date:      field("date"),
			Partner:   field("partner"),
			Currency:  field("currency"),
			Amount:    amount,
			Confirmed: parseConfirmed(field("confirmed")),
		})
	}
	return rows, nil
}

func parseConfirmed(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y", "confirmed", "paid", "issued", "delivered":
		return true
	}
	return false
}

func nextNonEmptyRecord(r *csv.Reader) ([]string, error) {
	for {
		record, err := r.Read()
		if err != nil {
			return nil, err
		}
		skip := true
		for _, field := range record {
			trimmed := strings.TrimSpace(field)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			skip = false
		}
		if !skip {
			return record, nil
		}
	}
}

func renderAggregateHuman(out io.Writer, res aggregation.Result) {
	rangeLabel := "all dates"
	if res.StartDate != "" || res.EndDate != "" {
		rangeLabel = orOpen(res.StartDate) + " .. " + orOpen(res.EndDate)
	}
	_, _ = fmt.Fprintf(out, "Aggregated %d row(s) by %s, %s\n", res.RowCount, res.Unit, rangeLabel)
	_, _ = fmt.Fprintf(out, "Rates: %s JPY/USD, %s VND/USD\n", money(res.Rates.JPYPerUSD), money(res.Rates.VNDPerUSD))
	_, _ = fmt.Fprintf(out, "Total: %s USD (%d confirmed, %d pending)\n\n", money(res.TotalUSD), res.Confirmed, res.Pending)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(tw, "PERIOD\tUSD\tCONFIRMED\tPENDING\t")
	for _, b := range res.Buckets {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t\n", b.Label, money(b.TotalUSD), b.Confirmed, b.Pending)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintln(out)

	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(tw, "PARTNER\tUSD\tCONFIRMED\tPENDING\t")
	for _, p := range res.Partners {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t\n", p.Partner, money(p.TotalUSD), p.Confirmed, p.Pending)
	}
	_ = tw.Flush()

	if len(res.Currencies) > 0 {
		_, _ = fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		_, _ = fmt.Fprintln(tw, "CURRENCY\tAMOUNT\tUSD\t")
		for _, c := range res.Currencies {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t\n", c.Currency, money(c.Amount), money(c.AmountUSD))
		}
		_ = tw.Flush()
	}
}

func orOpen(s string) string {
	if s == "" {
		return "open"
	}
	return s
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
