// Package documents builds and renders printable business documents: order
// forms, invoices and packing lists.
package documents

import (
	"errors"
	"strings"
)

// Kind selects a document layout.
type Kind string

const (
	KindOrderForm   Kind = "order_form"
	KindInvoice     Kind = "invoice"
	KindPackingList Kind = "packing_list"
)

var kindTitles = map[Kind]string{
	KindOrderForm:   "Purchase Order",
	KindInvoice:     "Invoice",
	KindPackingList: "Packing List",
}

// Sentinel errors for the documents domain.
var (
	ErrUnknownKind = errors.New("documents: unknown kind")
	ErrValidation  = errors.New("documents: validation failed")
	ErrNotFound    = errors.New("documents: file not found")
)

// ParseKind validates a kind from user input. Hyphens are accepted in place of
// underscores.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := kindTitles[k]; !ok {
		return "", ErrUnknownKind
	}
	return k, nil
}

// Party is a seller or buyer block.
type Party struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

// LineInput is one item as entered.
type LineInput struct {
	SKU         string  `json:"sku"`
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unitPrice" validate:"gte=0"`
}

// Source is the numeric input of a document.
type Source struct {
	Number    string      `json:"number" validate:"required"`
	IssueDate string      `json:"issueDate" validate:"required,datetime=2006-01-02"`
	DueDate   string      `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Seller    Party       `json:"seller"`
	Buyer     Party       `json:"buyer"`
	Currency  string      `json:"currency" validate:"required,alpha,len=3"`
	TaxRate   float64     `json:"taxRate" validate:"gte=0,lt=1"`
	Lines     []LineInput `json:"lines" validate:"required,min=1,dive"`
	Notes     string      `json:"notes"`
}

// LineView is a fully formatted line.
type LineView struct {
	No          string
	SKU         string
	Description string
	Quantity    string
	Unit        string
	UnitPrice   string
	Amount      string
}

// Payload is the strings-only view handed to templates. Every amount is
// already rounded and formatted.
type Payload struct {
	Kind          Kind
	Title         string
	Number        string
	IssueDate     string
	DueDate       string
	Seller        Party
	Buyer         Party
	Currency      string
	Lines         []LineView
	TotalQuantity string
	Subtotal      string
	TaxLabel      string
	Tax           string
	Total         string
	Notes         string
}

// ShowPrices reports whether the layout carries amounts.
func (p Payload) ShowPrices() bool {
	return p.Kind != KindPackingList
}
