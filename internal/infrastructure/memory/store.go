package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/electrocyb/backend/internal/domain"
)

// Store is an in-memory product catalog. It backs the CLI, local development
// and tests. Lookups mirror the SQL store: case-insensitive substring matches
// in id order.
type Store struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
	nextID   int64
}

// NewStore creates a store holding products. Products without an id are numbered
// after the highest given id.
func NewStore(products ...domain.Product) *Store {
	s := &Store{products: make(map[int64]domain.Product, len(products))}
	for _, p := range products {
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
	for _, p := range products {
		if p.ID <= 0 {
			s.nextID++
			p.ID = s.nextID
		}
		s.products[p.ID] = cloneProduct(p)
	}
	return s
}

// ListAll returns every product ordered by id
func (s *Store) ListAll(ctx context.Context) ([]domain.Product, error) {
	return s.filter(ctx, 0, func(domain.Product) bool { return true })
}

// SearchByName returns products whose name contains query, ignoring case
func (s *Store) SearchByName(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return s.search(ctx, query, limit, func(p domain.Product) []string { return []string{p.Name} })
}

// SearchByCategory returns products whose category contains query, ignoring case
func (s *Store) SearchByCategory(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return s.search(ctx, query, limit, func(p domain.Product) []string { return []string{p.Category} })
}

// SearchByDescription returns products whose description contains query, ignoring case
func (s *Store) SearchByDescription(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return s.search(ctx, query, limit, func(p domain.Product) []string { return []string{p.Description} })
}

// SearchAnyField matches query against name, category or description
func (s *Store) SearchAnyField(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return s.search(ctx, query, limit, func(p domain.Product) []string {
		return []string{p.Name, p.Category, p.Description}
	})
}

// ListByCategory returns products whose category equals category, ignoring case
func (s *Store) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return s.filter(ctx, 0, func(p domain.Product) bool {
		return strings.EqualFold(p.Category, category)
	})
}

// GetByID returns a copy of one product or domain.ErrProductNotFound
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

// Create stores a copy of p under a fresh id and sets p.ID
func (s *Store) Create(ctx context.Context, p *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.ID = s.nextID
	s.products[p.ID] = cloneProduct(*p)
	return nil
}

// Update replaces a stored product
func (s *Store) Update(ctx context.Context, p *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	s.products[p.ID] = cloneProduct(*p)
	return nil
}

// Delete removes a product
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

// Len returns the number of stored products
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

func (s *Store) search(ctx context.Context, query string, limit int, fields func(domain.Product) []string) ([]domain.Product, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	return s.filter(ctx, limit, func(p domain.Product) bool {
		for _, f := range fields(p) {
			if strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	})
}

// filter returns matching products in id order; limit <= 0 means unlimited
func (s *Store) filter(ctx context.Context, limit int, match func(domain.Product) bool) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []domain.Product
	for _, id := range ids {
		p := s.products[id]
		if !match(p) {
			continue
		}
		out = append(out, cloneProduct(p))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func cloneProduct(p domain.Product) domain.Product {
	if p.Stock != nil {
		stock := *p.Stock
		p.Stock = &stock
	}
	if p.Attributes != nil {
		attrs := make(map[string]string, len(p.Attributes))
		for k, v := range p.Attributes {
			attrs[k] = v
		}
		p.Attributes = attrs
	}
	return p
}
