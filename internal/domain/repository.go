package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogReader is the read-only view of the product catalog used by the advice engine.
// Substring searches are case-insensitive "contains" lookups capped at limit.
type CatalogReader interface {
	ListAll(ctx context.Context) ([]Product, error)
	SearchByName(ctx context.Context, query string, limit int) ([]Product, error)
	SearchByCategory(ctx context.Context, query string, limit int) ([]Product, error)
	SearchByDescription(ctx context.Context, query string, limit int) ([]Product, error)
}

// AnyFieldSearcher is implemented by catalogs that can OR-search name, category and
// description in one query. Implementations may return ErrSearchUnsupported at runtime.
type AnyFieldSearcher interface {
	SearchAnyField(ctx context.Context, query string, limit int) ([]Product, error)
}

// ProductRepository defines catalog persistence used by the product admin endpoints
type ProductRepository interface {
	CatalogReader
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}
