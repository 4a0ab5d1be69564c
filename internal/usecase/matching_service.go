package usecase

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/electrocyb/backend/internal/domain"
)

// Scoring weights
const (
	nameMatchBonus          = 200 // fuzzy name predicate holds
	keywordInNameWeight     = 40
	keywordInCategoryWeight = 25
	keywordElsewhereWeight  = 10 // description or attributes
	inStockBonus            = 5
	priceNearBonus          = 20 // price within 20% of the requested midpoint
	roomMatchBonus          = 15
	signagePenalty          = 10 // room asked, product talks about signs
)

// Default thresholds
const (
	defaultAbsoluteFloor = 80
	defaultStrongRatio   = 0.80
	defaultMaxResults    = 4
)

var priceNearTolerance = decimal.RequireFromString("0.2")

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	// AbsoluteFloor is the minimum score a product must reach. Zero selects the
	// default of 80; 1 leaves only the ratio, since non-positive scores never rank.
	AbsoluteFloor      int
	StrongRatio        float64 // fraction of the best score a product must reach
	MaxResults         int
	EnableDebugLogging bool
}

// ScoredProduct pairs a candidate with its relevance score
type ScoredProduct struct {
	Product domain.Product
	Score   int
}

// MatchingService scores candidate products against a query and keeps only the
// strong, compatible, purchasable ones.
type MatchingService struct {
	lexicon            *Lexicon
	absoluteFloor      int
	strongRatio        float64
	maxResults         int
	enableDebugLogging bool
	logger             zerolog.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, lexicon *Lexicon, logger zerolog.Logger) *MatchingService {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}

	floor := config.AbsoluteFloor
	if floor <= 0 {
		floor = defaultAbsoluteFloor
	}

	ratio := config.StrongRatio
	if ratio <= 0 || ratio > 1 {
		ratio = defaultStrongRatio
	}

	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	return &MatchingService{
		lexicon:            lexicon,
		absoluteFloor:      floor,
		strongRatio:        ratio,
		maxResults:         maxResults,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger,
	}
}

// Score computes the relevance of one product for an analyzed query.
// The result may be negative.
func (s *MatchingService) Score(p domain.Product, q QueryAnalysis) int {
	score := 0

	if nameMatchesQuery(p.Name, q.Normalized) {
		score += nameMatchBonus
	}

	text := productText(p)
	name := Normalize(p.Name)
	category := Normalize(p.Category)

	for _, kw := range q.Keywords {
		if len(kw) < minTokenLength || !strings.Contains(text, kw) {
			continue
		}
		switch {
		case name != "" && strings.Contains(name, kw):
			score += keywordInNameWeight
		case category != "" && strings.Contains(category, kw):
			score += keywordInCategoryWeight
		default:
			score += keywordElsewhereWeight
		}
	}

	if p.InStock() {
		score += inStockBonus
	}

	if q.PriceRange != nil {
		if price, ok := p.ParsedPrice(); ok {
			mid := q.PriceRange.Midpoint()
			if mid.IsPositive() && price.Sub(mid).Abs().LessThanOrEqual(mid.Mul(priceNearTolerance)) {
				score += priceNearBonus
			}
		}
	}

	if s.lexicon.MentionsRoom(q.Normalized) {
		if s.lexicon.MentionsRoom(text) {
			score += roomMatchBonus
		}
		if s.lexicon.MentionsSign(text) {
			score -= signagePenalty
		}
	}

	return score
}

// ScoreAndFilter ranks the candidate pool and applies, in order, the strength
// threshold, core-token coverage, product-class compatibility, stock and the strict
// price filter. It returns at most MaxResults products classified TEXT_MATCH, or no
// products classified FALLBACK when nothing survives. Ties keep pool order.
func (s *MatchingService) ScoreAndFilter(candidates []domain.Product, q QueryAnalysis) ([]domain.Product, domain.ResultType) {
	scored := s.rank(candidates, q)
	if len(scored) == 0 {
		s.debug("no candidate scored above zero")
		return nil, domain.ResultFallback
	}

	threshold := s.Threshold(scored[0].Score)
	if s.enableDebugLogging {
		s.logger.Debug().
			Int("max_score", scored[0].Score).
			Int("threshold", threshold).
			Int("scored", len(scored)).
			Msg("[MATCH] threshold computed")
	}

	var strong []domain.Product
	for _, sp := range scored {
		if sp.Score < threshold {
			continue
		}
		if !coversCoreTokens(sp.Product, q.CoreTokens) {
			continue
		}
		if !s.classCompatible(sp.Product, q.Normalized) {
			continue
		}
		strong = append(strong, sp.Product)
	}
	if len(strong) == 0 {
		s.debug("no strong compatible match")
		return nil, domain.ResultFallback
	}

	filtered := make([]domain.Product, 0, len(strong))
	for _, p := range strong {
		if !p.InStock() {
			continue
		}
		if q.PriceRange != nil && !withinPriceRange(p, q.PriceRange) {
			continue
		}
		filtered = append(filtered, p)
	}
	if len(filtered) == 0 {
		s.debug("stock or price filter removed every match")
		return nil, domain.ResultFallback
	}

	return limitProducts(filtered, s.maxResults), domain.ResultTextMatch
}

// Threshold returns the minimum score for a product to count as a strong match
func (s *MatchingService) Threshold(maxScore int) int {
	relative := int(float64(maxScore) * s.strongRatio)
	if relative > s.absoluteFloor {
		return relative
	}
	return s.absoluteFloor
}

// rank scores every candidate, drops non-positive scores and sorts descending
func (s *MatchingService) rank(candidates []domain.Product, q QueryAnalysis) []ScoredProduct {
	scored := make([]ScoredProduct, 0, len(candidates))
	for _, p := range candidates {
		score := s.Score(p, q)
		if s.enableDebugLogging {
			s.logger.Debug().
				Int64("product_id", p.ID).
				Str("name", p.Name).
				Int("score", score).
				Msg("[MATCH] scored")
		}
		if score > 0 {
			scored = append(scored, ScoredProduct{Product: p, Score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// classCompatible rejects pure strips when only lamps were asked for, and pure
// lamps when only strips were asked for.
func (s *MatchingService) classCompatible(p domain.Product, normalizedQuery string) bool {
	wantsLamp := s.lexicon.MentionsLamp(normalizedQuery)
	wantsStrip := s.lexicon.MentionsStrip(normalizedQuery)
	if wantsLamp == wantsStrip {
		return true
	}

	text := Normalize(p.Name + " " + p.Category + " " + p.Description)
	isLamp := s.lexicon.MentionsLamp(text)
	isStrip := s.lexicon.MentionsStrip(text)

	if wantsLamp && isStrip && !isLamp {
		return false
	}
	if wantsStrip && isLamp && !isStrip {
		return false
	}
	return true
}

func (s *MatchingService) debug(msg string) {
	if s.enableDebugLogging {
		s.logger.Debug().Msg("[MATCH] " + msg)
	}
}

// coversCoreTokens requires one literal token in name or category, or two when the
// customer typed two or more. A trailing "s" is dropped for plurals longer than three letters.
func coversCoreTokens(p domain.Product, coreTokens []string) bool {
	if len(coreTokens) == 0 {
		return true
	}

	nameCat := Normalize(p.Name + " " + p.Category)
	hits := 0
	for _, token := range coreTokens {
		if len(token) < minTokenLength {
			continue
		}
		singular := token
		if len(token) > 3 && strings.HasSuffix(token, "s") {
			singular = strings.TrimSuffix(token, "s")
		}
		if strings.Contains(nameCat, token) || strings.Contains(nameCat, singular) {
			hits++
		}
	}

	if len(coreTokens) >= 2 {
		return hits >= 2
	}
	return hits >= 1
}

// withinPriceRange drops products whose price is missing, malformed or out of range
func withinPriceRange(p domain.Product, r *domain.PriceRange) bool {
	price, ok := p.ParsedPrice()
	if !ok {
		return false
	}
	return r.Contains(price)
}

// productText is the normalized concatenation of every searchable product field
func productText(p domain.Product) string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteByte(' ')
	b.WriteString(p.Category)
	b.WriteByte(' ')
	b.WriteString(p.Description)

	keys := make([]string, 0, len(p.Attributes))
	for k := range p.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte(' ')
		b.WriteString(p.Attributes[k])
	}
	return Normalize(b.String())
}
