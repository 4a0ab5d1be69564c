package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as read from the product store.
type Product struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Image       string            `json:"image,omitempty"`
	Price       string            `json:"price"` // decimal as text, may be blank or malformed
	Stock       *int              `json:"stock"` // nil means stock is not tracked
	Attributes  map[string]string `json:"attributes"`
}

// ParsedPrice parses the textual price. Either '.' or ',' is accepted as decimal separator.
func (p *Product) ParsedPrice() (decimal.Decimal, bool) {
	return ParseDecimal(p.Price)
}

// InStock reports whether the product has no stock field or a positive stock.
func (p *Product) InStock() bool {
	return p.Stock == nil || *p.Stock > 0
}

// ParseDecimal converts "25", "25.50" or "25,50" into a decimal.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// PriceRange is a price constraint detected in a customer message.
// A nil bound is unconstrained on that side; at least one bound is always set.
type PriceRange struct {
	Min *decimal.Decimal `json:"min,omitempty"`
	Max *decimal.Decimal `json:"max,omitempty"`
}

// NewPriceRange builds a range, swapping the bounds when given out of order.
// It returns nil when both bounds are missing.
func NewPriceRange(min, max *decimal.Decimal) *PriceRange {
	if min == nil && max == nil {
		return nil
	}
	if min != nil && max != nil && min.GreaterThan(*max) {
		min, max = max, min
	}
	return &PriceRange{Min: min, Max: max}
}

// Contains reports whether price lies inside the inclusive range.
func (r *PriceRange) Contains(price decimal.Decimal) bool {
	if r.Min != nil && price.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && price.GreaterThan(*r.Max) {
		return false
	}
	return true
}

// Midpoint returns the centre of the range, or the single bound for open ranges.
func (r *PriceRange) Midpoint() decimal.Decimal {
	switch {
	case r.Min != nil && r.Max != nil:
		return r.Min.Add(*r.Max).Div(decimal.NewFromInt(2))
	case r.Min != nil:
		return *r.Min
	default:
		return *r.Max
	}
}

// ResultType classifies how a search request was answered.
type ResultType string

const (
	ResultNoProductsInDB  ResultType = "NO_PRODUCTS_IN_DB"
	ResultDBNameMatch     ResultType = "DB_NAME_MATCH"
	ResultCatalogRequest  ResultType = "CATALOG_REQUEST"
	ResultDirectNameMatch ResultType = "DIRECT_NAME_MATCH"
	ResultTextMatch       ResultType = "TEXT_MATCH"
	ResultFallback        ResultType = "FALLBACK"
)

// ResultTypes returns every classification in declaration order.
func ResultTypes() []ResultType {
	return []ResultType{
		ResultNoProductsInDB,
		ResultDBNameMatch,
		ResultCatalogRequest,
		ResultDirectNameMatch,
		ResultTextMatch,
		ResultFallback,
	}
}

// SearchResult is the structured answer of the advice engine for one message.
type SearchResult struct {
	Products   []Product   `json:"products"`
	PriceRange *PriceRange `json:"priceRange,omitempty"`
	ResultType ResultType  `json:"resultType"`
	Truncated  bool        `json:"truncated"`
}

// AdviceRequest is the body of an advice request.
type AdviceRequest struct {
	Message string `json:"message" binding:"required"`
}
