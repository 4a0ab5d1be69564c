package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/electrocyb/backend/internal/domain"
	"github.com/electrocyb/backend/internal/observability"
)

// AdviceServiceConfig holds configuration for the advice service
type AdviceServiceConfig struct {
	Match              MatchConfig
	Retriever          RetrieverConfig
	EnableDebugLogging bool
}

// AdviceService answers free-text customer messages with catalog products.
// It never invents products: when nothing fits it returns an empty FALLBACK result.
type AdviceService struct {
	catalog      domain.CatalogReader
	preprocessor *QueryPreprocessor
	retriever    *CandidateRetriever
	matcher      *MatchingService
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

// NewAdviceService creates a new advice service with dependencies.
// A nil lexicon selects DefaultLexicon; metrics may be nil.
func NewAdviceService(
	catalog domain.CatalogReader,
	lexicon *Lexicon,
	config AdviceServiceConfig,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *AdviceService {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}

	match := config.Match
	match.EnableDebugLogging = match.EnableDebugLogging || config.EnableDebugLogging

	return &AdviceService{
		catalog:      catalog,
		preprocessor: NewQueryPreprocessor(lexicon, logger, config.EnableDebugLogging),
		retriever:    NewCandidateRetriever(catalog, lexicon, config.Retriever, logger),
		matcher:      NewMatchingService(match, lexicon, logger),
		metrics:      metrics,
		logger:       logger,
	}
}

// FindProductsForMessage runs the full pipeline for one message.
// Flow: snapshot catalog -> analyze -> shortcut strategies -> candidate pool -> score and filter
func (s *AdviceService) FindProductsForMessage(ctx context.Context, message string) (*domain.SearchResult, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx, s.logger)

	catalog, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}

	if len(catalog) == 0 {
		return s.finish(logger, start, &domain.SearchResult{ResultType: domain.ResultNoProductsInDB}), nil
	}

	analysis := s.preprocessor.Analyze(message)
	if analysis.Raw == "" {
		return s.finish(logger, start, &domain.SearchResult{ResultType: domain.ResultFallback}), nil
	}

	retrieval, err := s.retriever.Retrieve(ctx, catalog, analysis)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	if retrieval.Result != nil {
		return s.finish(logger, start, retrieval.Result), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.metrics.ObserveCandidatePool(len(retrieval.Candidates))
	products, resultType := s.matcher.ScoreAndFilter(retrieval.Candidates, analysis)

	return s.finish(logger, start, &domain.SearchResult{
		Products:   products,
		PriceRange: analysis.PriceRange,
		ResultType: resultType,
	}), nil
}

// finish normalizes the product list, records metrics and logs the outcome
func (s *AdviceService) finish(logger zerolog.Logger, start time.Time, result *domain.SearchResult) *domain.SearchResult {
	if result.Products == nil {
		result.Products = []domain.Product{}
	}
	elapsed := time.Since(start)
	s.metrics.ObserveAdvice(string(result.ResultType), elapsed)

	logger.Info().
		Str("result_type", string(result.ResultType)).
		Int("products", len(result.Products)).
		Bool("truncated", result.Truncated).
		Dur("elapsed", elapsed).
		Msg("advice answered")

	return result
}
