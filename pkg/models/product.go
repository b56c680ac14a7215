package models

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency is the only currency the Coto endpoints price in.
var Currency = currency.MustParseISO("ARS").String()

type ProductListItem struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Price    decimal.Decimal  `json:"price"`
	OldPrice *decimal.Decimal `json:"old_price,omitempty"`
	Currency string           `json:"currency"`
	Image    *string          `json:"image"`
	URL      string           `json:"url"`
}

// ProductListPage is the result of a keyword search or a category listing.
// Query holds whichever of the two was used to obtain it.
type ProductListPage struct {
	Query    string            `json:"keyword"`
	Products []ProductListItem `json:"products"`
}

// NewProductListPage never leaves Products nil so an empty page encodes as [].
func NewProductListPage(query string, products []ProductListItem) *ProductListPage {
	if products == nil {
		products = []ProductListItem{}
	}
	return &ProductListPage{Query: query, Products: products}
}

type ProductDetail struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Price       decimal.Decimal  `json:"price"`
	OldPrice    *decimal.Decimal `json:"old_price,omitempty"`
	Currency    string           `json:"currency"`
	Image       *string          `json:"image"`
	URL         string           `json:"url"`
	Description string           `json:"description"`
	IsAvailable bool             `json:"is_available"`
	Brand       *string          `json:"brand"`
}
