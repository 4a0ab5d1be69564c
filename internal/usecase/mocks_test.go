package usecase

import (
	"context"
	"strings"

	"github.com/electrocyb/backend/internal/domain"
)

// MockCatalog is an in-memory implementation of domain.CatalogReader
type MockCatalog struct {
	products  []domain.Product
	listErr   error
	searchErr error
	calls     []string
}

func NewMockCatalog(products ...domain.Product) *MockCatalog {
	return &MockCatalog{products: products}
}

func (m *MockCatalog) ListAll(ctx context.Context) ([]domain.Product, error) {
	m.calls = append(m.calls, "list")
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.products, nil
}

func (m *MockCatalog) SearchByName(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return m.search("name", query, limit, func(p domain.Product) string { return p.Name })
}

func (m *MockCatalog) SearchByCategory(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return m.search("category", query, limit, func(p domain.Product) string { return p.Category })
}

func (m *MockCatalog) SearchByDescription(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return m.search("description", query, limit, func(p domain.Product) string { return p.Description })
}

func (m *MockCatalog) search(field, query string, limit int, value func(domain.Product) string) ([]domain.Product, error) {
	m.calls = append(m.calls, field)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	q := strings.ToLower(query)
	var out []domain.Product
	for _, p := range m.products {
		if strings.Contains(strings.ToLower(value(p)), q) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// MockAnyFieldCatalog adds the combined search to MockCatalog
type MockAnyFieldCatalog struct {
	*MockCatalog
	anyResult []domain.Product
	anyErr    error
}

func (m *MockAnyFieldCatalog) SearchAnyField(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	m.calls = append(m.calls, "any")
	if m.anyErr != nil {
		return nil, m.anyErr
	}
	if len(m.anyResult) > limit {
		return m.anyResult[:limit], nil
	}
	return m.anyResult, nil
}

func intPtr(v int) *int { return &v }

// scenarioCatalog is the two-product catalog used throughout the engine tests
func scenarioCatalog() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Foco LED 12W", Category: "Iluminación", Price: "25.00", Stock: intPtr(10)},
		{ID: 2, Name: "Cinta LED 5m", Category: "Tiras", Price: "60.00", Stock: intPtr(5)},
	}
}

func productIDs(products []domain.Product) []int64 {
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}
