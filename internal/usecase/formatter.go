package usecase

import (
	"strconv"
	"strings"

	"github.com/electrocyb/backend/internal/domain"
)

const priceUnavailable = "Precio no disponible"

// FormatProductLine renders a product as a single line made of the bullet
// glyph "• " followed by:
//
//	[id] name — S/ price — description
//
// The description segment is omitted when blank. Clients parse this layout into
// product cards, so it must stay stable.
func FormatProductLine(p domain.Product) string {
	price := priceUnavailable
	if strings.TrimSpace(p.Price) != "" {
		price = "S/ " + strings.TrimSpace(p.Price)
	}

	var b strings.Builder
	b.WriteString("• [")
	b.WriteString(strconv.FormatInt(p.ID, 10))
	b.WriteString("] ")
	b.WriteString(p.Name)
	b.WriteString(" — ")
	b.WriteString(price)
	if desc := strings.TrimSpace(p.Description); desc != "" {
		b.WriteString(" — ")
		b.WriteString(desc)
	}
	return b.String()
}

// FormatProductLines renders each product with FormatProductLine
func FormatProductLines(products []domain.Product) []string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, FormatProductLine(p))
	}
	return lines
}

// FormatPriceRange describes a price range in Spanish, or returns "" for nil
func FormatPriceRange(r *domain.PriceRange) string {
	if r == nil {
		return ""
	}
	switch {
	case r.Min != nil && r.Max != nil:
		return "precios entre S/ " + r.Min.String() + " y S/ " + r.Max.String()
	case r.Min != nil:
		return "precios desde S/ " + r.Min.String()
	case r.Max != nil:
		return "precios hasta S/ " + r.Max.String()
	}
	return ""
}
