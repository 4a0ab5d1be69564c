package usecase

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPriceRange(t *testing.T) {
	testCases := []struct {
		name    string
		message string
		wantMin string // "" means unbounded
		wantMax string
	}{
		{name: "upper bound with currency word", message: "busco un foco led barato hasta 30 soles", wantMax: "30"},
		{name: "upper bound maximo", message: "lampara maximo 80", wantMax: "80"},
		{name: "upper bound no mas de", message: "sensor no mas de 45", wantMax: "45"},
		{name: "upper bound menos de", message: "camara por menos de 150", wantMax: "150"},
		{name: "upper bound with s/ prefix and comma", message: "hasta s/ 25,50", wantMax: "25.50"},
		{name: "lower bound desde", message: "reflector desde 100", wantMin: "100"},
		{name: "lower bound mas de", message: "panel de mas de 60", wantMin: "60"},
		{name: "lower bound al menos", message: "al menos 15 soles", wantMin: "15"},
		{name: "between entre y", message: "entre 20 y 50 soles", wantMin: "20", wantMax: "50"},
		{name: "between de a", message: "tira led de 10 a 20", wantMin: "10", wantMax: "20"},
		{name: "between desde hasta", message: "desde 15 hasta 40", wantMin: "15", wantMax: "40"},
		{name: "between swaps reversed bounds", message: "entre 50 y 20", wantMin: "20", wantMax: "50"},
		{name: "approximate alrededor de", message: "alrededor de 50 soles", wantMin: "40", wantMax: "60"},
		{name: "approximate small amount", message: "aprox 2", wantMin: "1.6", wantMax: "2.4"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := ExtractPriceRange(tc.message)
			require.NotNil(t, r)

			if tc.wantMin == "" {
				assert.Nil(t, r.Min)
			} else {
				require.NotNil(t, r.Min)
				assert.True(t, decimal.RequireFromString(tc.wantMin).Equal(*r.Min), "min = %s, want %s", r.Min, tc.wantMin)
			}

			if tc.wantMax == "" {
				assert.Nil(t, r.Max)
			} else {
				require.NotNil(t, r.Max)
				assert.True(t, decimal.RequireFromString(tc.wantMax).Equal(*r.Max), "max = %s, want %s", r.Max, tc.wantMax)
			}
		})
	}
}

func TestExtractPriceRange_NoPrice(t *testing.T) {
	messages := []string{
		"foco led 12w",
		"quiero ver todo tu catalogo",
		"sensor de movimiento para pasadizo",
		"",
	}
	for _, m := range messages {
		assert.Nil(t, ExtractPriceRange(m), "unexpected range for %q", m)
	}
}

func TestExtractPriceRange_BoundsOrdered(t *testing.T) {
	messages := []string{
		"entre 90 y 10",
		"de 300 a 5 soles",
		"alrededor de 0",
		"cerca de 12.5",
	}
	for _, m := range messages {
		r := ExtractPriceRange(m)
		require.NotNil(t, r, m)
		require.NotNil(t, r.Min, m)
		require.NotNil(t, r.Max, m)
		assert.True(t, r.Min.LessThanOrEqual(*r.Max), "min > max for %q", m)
		assert.False(t, r.Min.IsNegative(), "negative min for %q", m)
	}
}
