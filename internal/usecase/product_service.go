package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/electrocyb/backend/internal/domain"
)

// ProductServiceConfig holds configuration for the product service
type ProductServiceConfig struct {
	CacheTTL time.Duration
}

// ProductService manages catalog entries. Single-product reads are cached.
type ProductService struct {
	repo     domain.ProductRepository
	cache    domain.CacheRepository
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewProductService creates a new product service. cache may be nil.
func NewProductService(
	repo domain.ProductRepository,
	cache domain.CacheRepository,
	config ProductServiceConfig,
	logger zerolog.Logger,
) *ProductService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	return &ProductService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// List returns every product in stored order
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListAll(ctx)
}

// ListByCategory returns the products of one category
func (s *ProductService) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	if strings.TrimSpace(category) == "" {
		return nil, domain.ErrInvalidRequest
	}
	return s.repo.ListByCategory(ctx, category)
}

// Get returns one product.
// Flow: check cache -> repository -> cache -> return
func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidRequest
	}

	key := productCacheKey(id)
	if cached, err := s.getFromCache(ctx, key); err == nil {
		return cached, nil
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.setInCache(ctx, key, product); err != nil {
		s.logger.Warn().Err(err).Int64("product_id", id).Msg("failed to cache product")
	}

	return product, nil
}

// Create validates and stores a new product; the repository assigns the ID
func (s *ProductService) Create(ctx context.Context, p *domain.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

// Update replaces a stored product and drops its cached copy
func (s *ProductService) Update(ctx context.Context, p *domain.Product) error {
	if p == nil || p.ID <= 0 {
		return domain.ErrInvalidRequest
	}
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, p.ID)
	return nil
}

// Delete removes a product and drops its cached copy
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidRequest
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, productCacheKey(id)); err != nil {
		s.logger.Warn().Err(err).Int64("product_id", id).Msg("failed to invalidate cached product")
	}
}

// productCacheKey format: "product:{id}"
func productCacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// getFromCache retrieves a product from cache
func (s *ProductService) getFromCache(ctx context.Context, key string) (*domain.Product, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Debug().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, err
	}

	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return &product, nil
}

// setInCache stores a product in cache
func (s *ProductService) setInCache(ctx context.Context, key string, p *domain.Product) error {
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, s.cacheTTL)
}

// validateProduct checks the fields the catalog relies on
func validateProduct(p *domain.Product) error {
	if p == nil {
		return domain.ErrInvalidRequest
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(p.Price) != "" {
		price, ok := domain.ParseDecimal(p.Price)
		if !ok {
			return fmt.Errorf("%w: price %q is not a number", domain.ErrInvalidRequest, p.Price)
		}
		if price.IsNegative() {
			return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidRequest)
		}
	}
	if p.Stock != nil && *p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidRequest)
	}
	return nil
}
