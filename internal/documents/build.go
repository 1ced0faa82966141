package documents

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/vinylworks/vinylops/internal/fx"
)

var validate = validator.New()

var printer = message.NewPrinter(language.English)

// minorUnits is the number of decimals each currency is printed with.
var minorUnits = map[fx.Currency]int32{
	fx.JPY: 0,
	fx.VND: 0,
	fx.USD: 2,
}

const defaultMinorUnits = 2

// Build validates src and produces the formatted payload for kind. Line
// amounts are rounded individually; subtotal is the sum of rounded lines.
func Build(kind Kind, src Source) (Payload, error) {
	title, ok := kindTitles[kind]
	if !ok {
		return Payload{}, ErrUnknownKind
	}
	if err := validate.Struct(src); err != nil {
		return Payload{}, fmt.Errorf("%w: %s", ErrValidation, describe(err))
	}

	currency := fx.NormalizeCurrency(src.Currency)
	places := currencyPlaces(currency)

	p := Payload{
		Kind:      kind,
		Title:     title,
		Number:    src.Number,
		IssueDate: src.IssueDate,
		DueDate:   src.DueDate,
		Seller:    src.Seller,
		Buyer:     src.Buyer,
		Currency:  string(currency),
		Notes:     src.Notes,
		Lines:     make([]LineView, 0, len(src.Lines)),
	}

	subtotal := decimal.Zero
	quantity := decimal.Zero
	for i, line := range src.Lines {
		qty := decimal.NewFromFloat(line.Quantity)
		price := decimal.NewFromFloat(line.UnitPrice)
		amount := qty.Mul(price).Round(places)
		subtotal = subtotal.Add(amount)
		quantity = quantity.Add(qty)

		p.Lines = append(p.Lines, LineView{
			No:          strconv.Itoa(i + 1),
			SKU:         line.SKU,
			Description: line.Description,
			Quantity:    formatQuantity(qty),
			Unit:        line.Unit,
			UnitPrice:   formatMoney(price.Round(places), currency, places),
			Amount:      formatMoney(amount, currency, places),
		})
	}

	rate := decimal.NewFromFloat(src.TaxRate)
	tax := subtotal.Mul(rate).Round(places)
	p.TotalQuantity = formatQuantity(quantity)
	p.Subtotal = formatMoney(subtotal, currency, places)
	p.TaxLabel = "Tax (" + rate.Mul(decimal.NewFromInt(100)).String() + "%)"
	p.Tax = formatMoney(tax, currency, places)
	p.Total = formatMoney(subtotal.Add(tax), currency, places)
	return p, nil
}

func currencyPlaces(c fx.Currency) int32 {
	if places, ok := minorUnits[c]; ok {
		return places
	}
	return defaultMinorUnits
}

// formatMoney groups thousands and attaches the currency symbol.
func formatMoney(d decimal.Decimal, c fx.Currency, places int32) string {
	v, _ := d.Round(places).Float64()
	digits := printer.Sprint(number.Decimal(v, number.Scale(int(places))))
	switch c {
	case fx.JPY:
		return "¥" + digits
	case fx.USD:
		return "$" + digits
	case fx.VND:
		return digits + " ₫"
	default:
		return string(c) + " " + digits
	}
}

func formatQuantity(d decimal.Decimal) string {
	v, _ := d.Float64()
	if d.Equal(d.Truncate(0)) {
		return printer.Sprint(number.Decimal(v, number.Scale(0)))
	}
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
