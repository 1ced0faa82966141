package aggregation

import (
	"sort"

	"github.com/vinylworks/vinylops/internal/fx"
)

// Row is one purchase order, sales order or payment projected into a
// currency-agnostic shape.
type Row struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Partner   string  `json:"partner"`
	Currency  string  `json:"currency"`
	Amount    float64 `json:"amount"`
	Confirmed bool    `json:"confirmed"`
}

// Counts splits rows by their confirmed flag.
type Counts struct {
	Confirmed int `json:"confirmed"`
	Pending   int `json:"pending"`
}

func (c *Counts) add(confirmed bool) {
	if confirmed {
		c.Confirmed++
		return
	}
	c.Pending++
}

// CurrencyTotal sums amounts in their original currency.
type CurrencyTotal struct {
	Currency  fx.Currency `json:"currency"`
	Amount    float64     `json:"amount"`
	AmountUSD float64     `json:"amountUsd"`
}

// BucketSummary is the USD total of one period.
type BucketSummary struct {
	PeriodBucket
	Counts
	TotalUSD   float64         `json:"totalUsd"`
	Currencies []CurrencyTotal `json:"currencies"`
}

// PartnerSummary is the USD total of one counterparty across the whole range.
type PartnerSummary struct {
	Counts
	Partner    string          `json:"partner"`
	TotalUSD   float64         `json:"totalUsd"`
	Currencies []CurrencyTotal `json:"currencies"`
}

// Result is the output of Aggregate.
type Result struct {
	Unit       Unit             `json:"unit"`
	StartDate  string           `json:"startDate"`
	EndDate    string           `json:"endDate"`
	Rates      fx.ExchangeRates `json:"rates"`
	Buckets    []BucketSummary  `json:"buckets"`
	Partners   []PartnerSummary `json:"partners"`
	Currencies []CurrencyTotal  `json:"currencies"`
	Counts
	TotalUSD float64 `json:"totalUsd"`
	RowCount int     `json:"rowCount"`
}

// Engine aggregates rows using a fixed calendar. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	calendar   Calendar
	normalizer fx.Normalizer
}

// NewEngine binds an engine to cal. Rates passed to Aggregate are normalized
// with normalizer before any conversion.
func NewEngine(cal Calendar, normalizer fx.Normalizer) *Engine {
	return &Engine{calendar: cal, normalizer: normalizer}
}

// Calendar exposes the calendar used for parsing and bucketing.
func (e *Engine) Calendar() Calendar {
	return e.calendar
}

// Aggregate filters rows to [start, end], converts amounts to USD and sums them
// per period bucket and per partner. Buckets are ordered chronologically;
// partners by descending total, then name.
func (e *Engine) Aggregate(rows []Row, rates fx.ExchangeRates, unit Unit, start, end string) Result {
	rates = e.normalizer.Normalize(rates.Partial())
	res := Result{Unit: unit, StartDate: start, EndDate: end, Rates: rates}

	buckets := make(map[string]*bucketAcc)
	partners := make(map[string]*partnerAcc)
	overall := currencyAcc{}

	for _, row := range rows {
		if !e.calendar.IsWithinRange(row.Date, start, end) {
			continue
		}
		usd := fx.ToUSD(row.Amount, row.Currency, rates)
		currency := fx.NormalizeCurrency(row.Currency)

		res.RowCount++
		res.TotalUSD += usd
		res.Counts.add(row.Confirmed)
		overall.add(currency, row.Amount, usd)

		p := partners[row.Partner]
		if p == nil {
			p = &partnerAcc{summary: PartnerSummary{Partner: row.Partner}, currencies: currencyAcc{}}
			partners[row.Partner] = p
		}
		p.summary.TotalUSD += usd
		p.summary.Counts.add(row.Confirmed)
		p.currencies.add(currency, row.Amount, usd)

		pb, ok := e.calendar.Bucket(row.Date, unit)
		if !ok {
			continue
		}
		b := buckets[pb.Key]
		if b == nil {
			b = &bucketAcc{summary: BucketSummary{PeriodBucket: pb}, currencies: currencyAcc{}}
			buckets[pb.Key] = b
		}
		b.summary.TotalUSD += usd
		b.summary.Counts.add(row.Confirmed)
		b.currencies.add(currency, row.Amount, usd)
	}

	res.Buckets = make([]BucketSummary, 0, len(buckets))
	for _, b := range buckets {
		b.summary.Currencies = b.currencies.totals()
		res.Buckets = append(res.Buckets, b.summary)
	}
	sort.Slice(res.Buckets, func(i, j int) bool {
		if res.Buckets[i].SortKey == res.Buckets[j].SortKey {
			return res.Buckets[i].Key < res.Buckets[j].Key
		}
		return res.Buckets[i].SortKey < res.Buckets[j].SortKey
	})

	res.Partners = make([]PartnerSummary, 0, len(partners))
	for _, p := range partners {
		p.summary.Currencies = p.currencies.totals()
		res.Partners = append(res.Partners, p.summary)
	}
	sort.Slice(res.Partners, func(i, j int) bool {
		if res.Partners[i].TotalUSD == res.Partners[j].TotalUSD {
			return res.Partners[i].Partner < res.Partners[j].Partner
		}
		return res.Partners[i].TotalUSD > res.Partners[j].TotalUSD
	})

	res.Currencies = overall.totals()
	return res
}

// Aggregate runs the default engine: local calendar, Monday weeks, default rates.
func Aggregate(rows []Row, rates fx.ExchangeRates, unit Unit, start, end string) Result {
	return NewEngine(DefaultCalendar(), fx.NewNormalizer(fx.DefaultRates())).Aggregate(rows, rates, unit, start, end)
}

type bucketAcc struct {
	summary    BucketSummary
	currencies currencyAcc
}

type partnerAcc struct {
	summary    PartnerSummary
	currencies currencyAcc
}

type currencyAcc map[fx.Currency]*CurrencyTotal

func (a currencyAcc) add(currency fx.Currency, amount, usd float64) {
	t := a[currency]
	if t == nil {
		t = &CurrencyTotal{Currency: currency}
		a[currency] = t
	}
	t.Amount += amount
	t.AmountUSD += usd
}

func (a currencyAcc) totals() []CurrencyTotal {
	out := make([]CurrencyTotal, 0, len(a))
	for _, t := range a {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
