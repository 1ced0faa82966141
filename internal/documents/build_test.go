package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSource(currency string, lines ...LineInput) Source {
	return Source{
		Number:    "INV-2025-0042",
		IssueDate: "2025-06-05",
		DueDate:   "2025-07-05",
		Seller:    Party{Name: "Vinylworks KK", Address: "Shibuya, Tokyo"},
		Buyer:     Party{Name: "Saigon Records", Contact: "buyer@example.com"},
		Currency:  currency,
		TaxRate:   0.1,
		Lines:     lines,
	}
}

func TestBuildJPYRoundsToWholeYen(t *testing.T) {
	p, err := Build(KindInvoice, sampleSource("jpy", LineInput{SKU: "LP-01", Description: "12in LP", Quantity: 2, Unit: "pcs", UnitPrice: 1500.4}))
	require.NoError(t, err)

	assert.Equal(t, "Invoice", p.Title)
	assert.Equal(t, "JPY", p.Currency)
	require.Len(t, p.Lines, 1)
	assert.Equal(t, "1", p.Lines[0].No)
	assert.Equal(t, "2", p.Lines[0].Quantity)
	assert.Equal(t, "¥1,500", p.Lines[0].UnitPrice)
	assert.Equal(t, "¥3,001", p.Lines[0].Amount)
	assert.Equal(t, "¥3,001", p.Subtotal)
	assert.Equal(t, "Tax (10%)", p.TaxLabel)
	assert.Equal(t, "¥300", p.Tax)
	assert.Equal(t, "¥3,301", p.Total)
}

func TestBuildUSDUsesCents(t *testing.T) {
	src := sampleSource("USD",
		LineInput{Description: "7in single", Quantity: 3, UnitPrice: 19.99},
		LineInput{Description: "Box set", Quantity: 1, UnitPrice: 1234.5},
	)
	src.TaxRate = 0.08
	p, err := Build(KindOrderForm, src)
	require.NoError(t, err)

	assert.Equal(t, "Purchase Order", p.Title)
	assert.Equal(t, "$59.97", p.Lines[0].Amount)
	assert.Equal(t, "$1,234.50", p.Lines[1].Amount)
	assert.Equal(t, "$1,294.47", p.Subtotal)
	assert.Equal(t, "Tax (8%)", p.TaxLabel)
	assert.Equal(t, "$103.56", p.Tax)
	assert.Equal(t, "$1,398.03", p.Total)
}

func TestBuildVNDAndUnknownCurrency(t *testing.T) {
	p, err := Build(KindInvoice, sampleSource("VND", LineInput{Description: "Pressing", Quantity: 10, UnitPrice: 125000}))
	require.NoError(t, err)
	assert.Equal(t, "1,250,000 ₫", p.Lines[0].Amount)

	p, err = Build(KindInvoice, sampleSource("EUR", LineInput{Description: "Mastering", Quantity: 1, UnitPrice: 9.5}))
	require.NoError(t, err)
	assert.Equal(t, "EUR 9.50", p.Lines[0].Amount)
}

func TestBuildPackingListQuantities(t *testing.T) {
	p, err := Build(KindPackingList, sampleSource("USD",
		LineInput{Description: "LP", Quantity: 2, UnitPrice: 10},
		LineInput{Description: "Shrink wrap", Quantity: 1.5, Unit: "kg"},
	))
	require.NoError(t, err)
	assert.False(t, p.ShowPrices())
	assert.Equal(t, "1.5", p.Lines[1].Quantity)
	assert.Equal(t, "3.5", p.TotalQuantity)
}

func TestBuildValidation(t *testing.T) {
	good := LineInput{Description: "LP", Quantity: 1, UnitPrice: 10}
	cases := map[string]Source{
		"no lines":      sampleSource("USD"),
		"zero quantity": sampleSource("USD", LineInput{Description: "LP", Quantity: 0, UnitPrice: 10}),
		"bad date": func() Source {
			s := sampleSource("USD", good)
			s.IssueDate = "05/06/2025"
			return s
		}(),
		"no buyer": func() Source {
			s := sampleSource("USD", good)
			s.Buyer = Party{}
			return s
		}(),
		"bad currency": sampleSource("US1", good),
		"tax too high": func() Source {
			s := sampleSource("USD", good)
			s.TaxRate = 1.5
			return s
		}(),
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Build(KindInvoice, src)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := Build(Kind("receipt"), sampleSource("USD", good))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Packing-List")
	require.NoError(t, err)
	assert.Equal(t, KindPackingList, k)

	_, err = ParseKind("receipt")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
