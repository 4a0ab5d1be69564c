package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/electrocyb/backend/internal/domain"
)

// RetrieverConfig holds the caps used while narrowing the catalog
type RetrieverConfig struct {
	NameMatchLimit    int // max products for a name shortcut
	CatalogLimit      int // max products for a full-catalog browse
	NarrowSearchLimit int // cap of each single-field substring search
	WideSearchLimit   int // cap of the combined any-field search
	MinPoolSize       int // below this the whole catalog is scored
}

// DefaultRetrieverConfig returns the production caps
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		NameMatchLimit:    5,
		CatalogLimit:      12,
		NarrowSearchLimit: 5,
		WideSearchLimit:   50,
		MinPoolSize:       5,
	}
}

// Retrieval is the outcome of candidate retrieval: either a terminal result from a
// shortcut strategy, or a pool of candidates that still has to be scored.
type Retrieval struct {
	Result     *domain.SearchResult
	Candidates []domain.Product
}

// retrievalStrategy answers a request directly or returns nil to fall through
type retrievalStrategy struct {
	name string
	run  func(ctx context.Context, catalog []domain.Product, q QueryAnalysis) (*domain.SearchResult, error)
}

// CandidateRetriever narrows the catalog before scoring. Shortcut strategies run in
// priority order; the first that answers wins.
type CandidateRetriever struct {
	reader     domain.CatalogReader
	lexicon    *Lexicon
	config     RetrieverConfig
	logger     zerolog.Logger
	strategies []retrievalStrategy
}

// NewCandidateRetriever creates a retriever backed by the given catalog searches
func NewCandidateRetriever(reader domain.CatalogReader, lexicon *Lexicon, config RetrieverConfig, logger zerolog.Logger) *CandidateRetriever {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	defaults := DefaultRetrieverConfig()
	if config.NameMatchLimit <= 0 {
		config.NameMatchLimit = defaults.NameMatchLimit
	}
	if config.CatalogLimit <= 0 {
		config.CatalogLimit = defaults.CatalogLimit
	}
	if config.NarrowSearchLimit <= 0 {
		config.NarrowSearchLimit = defaults.NarrowSearchLimit
	}
	if config.WideSearchLimit <= 0 {
		config.WideSearchLimit = defaults.WideSearchLimit
	}
	if config.MinPoolSize <= 0 {
		config.MinPoolSize = defaults.MinPoolSize
	}

	r := &CandidateRetriever{
		reader:  reader,
		lexicon: lexicon,
		config:  config,
		logger:  logger,
	}
	r.strategies = []retrievalStrategy{
		{name: "db_name_match", run: r.dbNameMatch},
		{name: "catalog_request", run: r.catalogRequest},
		{name: "direct_name_match", run: r.directNameMatch},
	}
	return r
}

// Retrieve runs the shortcut strategies and, if none answers, builds the candidate pool
func (r *CandidateRetriever) Retrieve(ctx context.Context, catalog []domain.Product, q QueryAnalysis) (*Retrieval, error) {
	for _, s := range r.strategies {
		result, err := s.run(ctx, catalog, q)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		if result != nil {
			result.PriceRange = q.PriceRange
			r.logger.Debug().
				Str("strategy", s.name).
				Int("products", len(result.Products)).
				Msg("retrieval shortcut")
			return &Retrieval{Result: result}, nil
		}
	}

	pool, err := r.candidatePool(ctx, catalog, q.Raw)
	if err != nil {
		return nil, err
	}
	return &Retrieval{Candidates: pool}, nil
}

// dbNameMatch returns products whose stored name contains the message as typed.
// Skipped when the message states a price, so the price filter is never bypassed.
func (r *CandidateRetriever) dbNameMatch(ctx context.Context, _ []domain.Product, q QueryAnalysis) (*domain.SearchResult, error) {
	if q.PriceRange != nil || q.Raw == "" {
		return nil, nil
	}
	products, err := r.reader.SearchByName(ctx, q.Raw, r.config.NameMatchLimit)
	if err != nil {
		return nil, fmt.Errorf("search by name: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &domain.SearchResult{
		Products:   limitProducts(products, r.config.NameMatchLimit),
		ResultType: domain.ResultDBNameMatch,
	}, nil
}

// catalogRequest answers "show me everything" with the first entries in stored order
func (r *CandidateRetriever) catalogRequest(_ context.Context, catalog []domain.Product, q QueryAnalysis) (*domain.SearchResult, error) {
	if !r.lexicon.AsksForEverything(q.Normalized) {
		return nil, nil
	}
	return &domain.SearchResult{
		Products:   limitProducts(catalog, r.config.CatalogLimit),
		ResultType: domain.ResultCatalogRequest,
		Truncated:  len(catalog) > r.config.CatalogLimit,
	}, nil
}

// directNameMatch compares normalized names against the normalized message in memory
func (r *CandidateRetriever) directNameMatch(_ context.Context, catalog []domain.Product, q QueryAnalysis) (*domain.SearchResult, error) {
	if q.PriceRange != nil {
		return nil, nil
	}
	var matched []domain.Product
	for _, p := range catalog {
		if nameMatchesQuery(p.Name, q.Normalized) {
			matched = append(matched, p)
			if len(matched) == r.config.NameMatchLimit {
				break
			}
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}
	return &domain.SearchResult{
		Products:   matched,
		ResultType: domain.ResultDirectNameMatch,
	}, nil
}

// candidatePool unions the cheap substring searches. When they find fewer than
// MinPoolSize products the whole catalog is returned. Pool order follows the catalog.
func (r *CandidateRetriever) candidatePool(ctx context.Context, catalog []domain.Product, raw string) ([]domain.Product, error) {
	found := make(map[int64]struct{})
	collect := func(products []domain.Product) {
		for _, p := range products {
			found[p.ID] = struct{}{}
		}
	}

	narrow := []struct {
		field  string
		search func(ctx context.Context, query string, limit int) ([]domain.Product, error)
	}{
		{"name", r.reader.SearchByName},
		{"category", r.reader.SearchByCategory},
		{"description", r.reader.SearchByDescription},
	}
	for _, n := range narrow {
		products, err := n.search(ctx, raw, r.config.NarrowSearchLimit)
		if err != nil {
			return nil, fmt.Errorf("search by %s: %w", n.field, err)
		}
		collect(products)
	}

	if wide, ok := r.reader.(domain.AnyFieldSearcher); ok {
		products, err := wide.SearchAnyField(ctx, raw, r.config.WideSearchLimit)
		switch {
		case errors.Is(err, domain.ErrSearchUnsupported):
			r.logger.Debug().Msg("combined search unavailable, using narrow searches only")
		case err != nil:
			return nil, fmt.Errorf("search any field: %w", err)
		default:
			collect(products)
		}
	}

	if len(found) < r.config.MinPoolSize {
		r.logger.Debug().Int("prefiltered", len(found)).Msg("candidate pool too small, scoring full catalog")
		return catalog, nil
	}

	pool := make([]domain.Product, 0, len(found))
	for _, p := range catalog {
		if _, ok := found[p.ID]; ok {
			pool = append(pool, p)
		}
	}
	return pool, nil
}

// nameMatchesQuery is the fuzzy name predicate shared by the direct-name shortcut and
// the scorer: equal names, containment either way, or at least half of the name's
// significant words present in the message.
func nameMatchesQuery(name, normalizedQuery string) bool {
	if strings.TrimSpace(name) == "" || normalizedQuery == "" {
		return false
	}
	nameNorm := Normalize(strings.TrimSpace(name))

	if nameNorm == normalizedQuery || strings.Contains(normalizedQuery, nameNorm) {
		return true
	}
	if len(normalizedQuery) >= 4 && strings.Contains(nameNorm, normalizedQuery) {
		return true
	}

	hits, words := 0, 0
	for _, part := range strings.Fields(nameNorm) {
		if len(part) < minTokenLength {
			continue
		}
		words++
		if strings.Contains(normalizedQuery, part) {
			hits++
		}
	}
	return words > 0 && hits*2 >= words
}

func limitProducts(products []domain.Product, limit int) []domain.Product {
	if len(products) <= limit {
		return products
	}
	return products[:limit]
}
