package usecase

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/electrocyb/backend/internal/domain"
)

// amount captures a price with optional "s/" prefix and '.' or ',' decimals.
const amount = `(?:s/\.?\s*)?(\d+(?:[.,]\d+)?)(?:\s*soles)?`

var (
	approxLowFactor  = decimal.RequireFromString("0.8")
	approxHighFactor = decimal.RequireFromString("1.2")
)

// pricePattern is one family of natural-language price phrases.
type pricePattern struct {
	re    *regexp.Regexp
	build func(values []decimal.Decimal) *domain.PriceRange
}

// pricePatterns are evaluated in order; the first family that matches wins.
var pricePatterns = []pricePattern{
	{
		re:    regexp.MustCompile(`\b(?:entre|de|desde)\s+` + amount + `\s+(?:a|y|hasta)\s+` + amount),
		build: func(v []decimal.Decimal) *domain.PriceRange {
			return domain.NewPriceRange(&v[0], &v[1])
		},
	},
	{
		re:    regexp.MustCompile(`\b(?:hasta|como maximo|maximo|no mas de|menos de|no mayor a|no mayor de|por debajo de|a lo mucho)\s+` + amount),
		build: func(v []decimal.Decimal) *domain.PriceRange {
			return domain.NewPriceRange(nil, &v[0])
		},
	},
	{
		re:    regexp.MustCompile(`\b(?:desde|a partir de|como minimo|minimo|al menos|mas de|mayor a|mayor de|por encima de)\s+` + amount),
		build: func(v []decimal.Decimal) *domain.PriceRange {
			return domain.NewPriceRange(&v[0], nil)
		},
	},
	{
		re:    regexp.MustCompile(`\b(?:alrededor de|cerca de|aproximadamente|aprox\.?|por unos)\s+` + amount),
		build: func(v []decimal.Decimal) *domain.PriceRange {
			low := v[0].Mul(approxLowFactor)
			if low.IsNegative() {
				low = decimal.Zero
			}
			high := v[0].Mul(approxHighFactor)
			return domain.NewPriceRange(&low, &high)
		},
	},
}

// ExtractPriceRange detects a price constraint in a normalized message.
// It returns nil when the message states no price, which callers treat as
// "do not filter by price".
func ExtractPriceRange(normalized string) *domain.PriceRange {
	for _, p := range pricePatterns {
		m := p.re.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		values, ok := parseAmounts(m[1:])
		if !ok {
			continue
		}
		return p.build(values)
	}
	return nil
}

func parseAmounts(groups []string) ([]decimal.Decimal, bool) {
	values := make([]decimal.Decimal, 0, len(groups))
	for _, g := range groups {
		d, ok := domain.ParseDecimal(g)
		if !ok {
			return nil, false
		}
		values = append(values, d)
	}
	return values, true
}
