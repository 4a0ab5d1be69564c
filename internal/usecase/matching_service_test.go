package usecase

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electrocyb/backend/internal/domain"
)

func newTestMatcher() *MatchingService {
	return NewMatchingService(MatchConfig{}, nil, zerolog.Nop())
}

func TestNewMatchingService(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		s := newTestMatcher()
		assert.Equal(t, 80, s.absoluteFloor)
		assert.Equal(t, 0.80, s.strongRatio)
		assert.Equal(t, 4, s.maxResults)
	})

	t.Run("keeps explicit configuration", func(t *testing.T) {
		s := NewMatchingService(MatchConfig{AbsoluteFloor: 50, StrongRatio: 0.5, MaxResults: 2}, nil, zerolog.Nop())
		assert.Equal(t, 50, s.absoluteFloor)
		assert.Equal(t, 0.5, s.strongRatio)
		assert.Equal(t, 2, s.maxResults)
	})

	t.Run("floor of one leaves only the ratio", func(t *testing.T) {
		s := NewMatchingService(MatchConfig{AbsoluteFloor: 1}, nil, zerolog.Nop())
		assert.Equal(t, 40, s.Threshold(50))
		assert.Equal(t, 1, s.Threshold(0))
	})

	t.Run("rejects ratio above one", func(t *testing.T) {
		s := NewMatchingService(MatchConfig{StrongRatio: 1.5}, nil, zerolog.Nop())
		assert.Equal(t, 0.80, s.strongRatio)
	})
}

func TestScore(t *testing.T) {
	s := newTestMatcher()
	catalog := scenarioCatalog()
	q := analyze("busco un foco led barato hasta 30 soles")

	// name 200 + foco 40 + led 40 + stock 5 + price 20
	assert.Equal(t, 305, s.Score(catalog[0], q))
	// name 200 + led 40 + stock 5
	assert.Equal(t, 245, s.Score(catalog[1], q))
}

func TestScore_RoomAndSignage(t *testing.T) {
	s := newTestMatcher()
	q := analyze("luz para sala")

	room := domain.Product{ID: 1, Name: "Plafón", Description: "ideal para sala y comedor"}
	sign := domain.Product{ID: 2, Name: "Módulo", Description: "para letreros luminosos"}

	// sala in description 10 + stock 5 + room 15
	assert.Equal(t, 30, s.Score(room, q))
	// stock 5 - signage 10
	assert.Equal(t, -5, s.Score(sign, q))
}

func TestScore_KeywordPlacement(t *testing.T) {
	s := newTestMatcher()
	q := analyze("reflector")

	inName := domain.Product{Name: "Reflector 50W", Stock: intPtr(0)}
	inCategory := domain.Product{Name: "Modelo X", Category: "Reflectores", Stock: intPtr(0)}
	inAttributes := domain.Product{Name: "Modelo Y", Attributes: map[string]string{"tipo": "reflector"}, Stock: intPtr(0)}

	// name predicate: "reflector" is the only significant word of "reflector 50w"
	assert.Equal(t, 200+40, s.Score(inName, q))
	assert.Equal(t, 25, s.Score(inCategory, q))
	assert.Equal(t, 10, s.Score(inAttributes, q))
}

func TestThreshold(t *testing.T) {
	s := newTestMatcher()

	testCases := []struct {
		maxScore int
		want     int
	}{
		{maxScore: 305, want: 244},
		{maxScore: 200, want: 160},
		{maxScore: 101, want: 80},
		{maxScore: 50, want: 80},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("max %d", tc.maxScore), func(t *testing.T) {
			assert.Equal(t, tc.want, s.Threshold(tc.maxScore))
		})
	}
}

func TestScoreAndFilter_CheapBulbScenario(t *testing.T) {
	s := newTestMatcher()

	products, resultType := s.ScoreAndFilter(scenarioCatalog(), analyze("busco un foco led barato hasta 30 soles"))

	assert.Equal(t, domain.ResultTextMatch, resultType)
	assert.Equal(t, []int64{1}, productIDs(products))
}

func TestScoreAndFilter_FallbackOverGuess(t *testing.T) {
	s := newTestMatcher()

	products, resultType := s.ScoreAndFilter(scenarioCatalog(), analyze("hola gracias"))

	assert.Equal(t, domain.ResultFallback, resultType)
	assert.Empty(t, products)
}

func TestScoreAndFilter_PriceStrictness(t *testing.T) {
	s := newTestMatcher()

	// the bulb is a strong match but costs 25
	products, resultType := s.ScoreAndFilter(scenarioCatalog(), analyze("foco led hasta 10 soles"))

	assert.Equal(t, domain.ResultFallback, resultType)
	assert.Empty(t, products)
}

func TestScoreAndFilter_MalformedPriceExcludedUnderRange(t *testing.T) {
	s := newTestMatcher()
	catalog := []domain.Product{
		{ID: 1, Name: "Foco LED 9W", Price: "consultar"},
		{ID: 2, Name: "Foco LED 12W", Price: "18,50"},
	}

	products, resultType := s.ScoreAndFilter(catalog, analyze("foco led hasta 20"))

	assert.Equal(t, domain.ResultTextMatch, resultType)
	assert.Equal(t, []int64{2}, productIDs(products))
}

func TestScoreAndFilter_StockFilter(t *testing.T) {
	s := newTestMatcher()
	catalog := []domain.Product{
		{ID: 1, Name: "Sensor PIR Techo", Stock: intPtr(0)},
		{ID: 2, Name: "Sensor PIR Pared", Stock: nil},
		{ID: 3, Name: "Sensor PIR Exterior", Stock: intPtr(3)},
	}

	products, resultType := s.ScoreAndFilter(catalog, analyze("sensor pir"))

	assert.Equal(t, domain.ResultTextMatch, resultType)
	assert.Equal(t, []int64{2, 3}, productIDs(products))
}

func TestScoreAndFilter_CapAndTieOrder(t *testing.T) {
	s := newTestMatcher()
	var catalog []domain.Product
	for i := 1; i <= 6; i++ {
		catalog = append(catalog, domain.Product{ID: int64(i), Name: "Reflector LED 50W"})
	}

	products, resultType := s.ScoreAndFilter(catalog, analyze("reflector led"))

	assert.Equal(t, domain.ResultTextMatch, resultType)
	assert.Equal(t, []int64{1, 2, 3, 4}, productIDs(products))
}

func TestRank_MonotonicThreshold(t *testing.T) {
	s := newTestMatcher()
	catalog := []domain.Product{
		{ID: 1, Name: "Foco LED 12W", Category: "Iluminación", Price: "25"},
		{ID: 2, Name: "Cinta LED 5m", Category: "Tiras", Price: "60"},
		{ID: 3, Name: "Panel LED 18W", Category: "Iluminación", Description: "para sala", Price: "45"},
		{ID: 4, Name: "Sensor PIR", Category: "Seguridad", Price: "30"},
		{ID: 5, Name: "Foco LED 9W", Category: "Iluminación", Price: "12"},
	}
	q := analyze("foco led para sala hasta 40")

	scored := s.rank(catalog, q)
	require.NotEmpty(t, scored)
	threshold := s.Threshold(scored[0].Score)

	survived := true
	for _, sp := range scored {
		passes := sp.Score >= threshold
		if !survived {
			assert.False(t, passes, "product %d passes after a lower-ranked rejection", sp.Product.ID)
		}
		survived = passes
	}
}

func TestClassCompatible(t *testing.T) {
	s := newTestMatcher()
	lamp := domain.Product{Name: "Lámpara colgante", Category: "Iluminación"}
	strip := domain.Product{Name: "Cinta LED 5m", Category: "Tiras"}
	both := domain.Product{Name: "Panel con tira LED", Category: "Iluminación"}
	neutral := domain.Product{Name: "Sensor PIR", Category: "Seguridad"}

	testCases := []struct {
		name    string
		query   string
		product domain.Product
		want    bool
	}{
		{name: "lamp query rejects pure strip", query: "lampara para sala", product: strip, want: false},
		{name: "lamp query keeps lamp", query: "lampara para sala", product: lamp, want: true},
		{name: "lamp query keeps hybrid", query: "lampara para sala", product: both, want: true},
		{name: "strip query rejects pure lamp", query: "tira led para letrero", product: lamp, want: false},
		{name: "strip query keeps strip", query: "tira led para letrero", product: strip, want: true},
		{name: "query naming both accepts anything", query: "lampara o cinta", product: strip, want: true},
		{name: "unclassified query accepts anything", query: "algo para la casa", product: lamp, want: true},
		{name: "unclassified product passes", query: "lampara", product: neutral, want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.classCompatible(tc.product, Normalize(tc.query)))
		})
	}
}

func TestCoversCoreTokens(t *testing.T) {
	bulb := domain.Product{Name: "Foco LED 12W", Category: "Iluminación"}
	strip := domain.Product{Name: "Cinta LED 5m", Category: "Tiras"}
	camera := domain.Product{Name: "Cámara IP", Category: "Seguridad"}

	assert.True(t, coversCoreTokens(bulb, []string{"focos", "led"}), "plural should match singular")
	assert.False(t, coversCoreTokens(strip, []string{"foco", "led"}), "two tokens need two hits")
	assert.True(t, coversCoreTokens(camera, []string{"camaras"}))
	assert.False(t, coversCoreTokens(camera, []string{"reflector"}))
	assert.True(t, coversCoreTokens(camera, nil))
}
