package catalogapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/electrocyb/backend/internal/domain"
)

// productDTO is the product resource served by the legacy store API under /api/productos
type productDTO struct {
	ID              *int64            `json:"id,omitempty"`
	Nombre          string            `json:"nombre"`
	Categoria       string            `json:"categoria"`
	Descripcion     string            `json:"descripcion"`
	Imagen          string            `json:"imagen"`
	Precio          flexString        `json:"precio"`
	Stock           *int              `json:"stock"`
	Caracteristicas map[string]string `json:"caracteristicas"`
}

// flexString accepts a JSON string, number or null. Older deployments serialize
// precio as a number.
type flexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("precio: %w", err)
		}
		*f = flexString(n.String())
	}
	return nil
}

// MapToProduct converts a legacy API product into the domain model
func MapToProduct(dto productDTO) domain.Product {
	p := domain.Product{
		Name:        dto.Nombre,
		Category:    dto.Categoria,
		Description: dto.Descripcion,
		Image:       dto.Imagen,
		Price:       string(dto.Precio),
		Stock:       dto.Stock,
	}
	if dto.ID != nil {
		p.ID = *dto.ID
	}
	if len(dto.Caracteristicas) > 0 {
		p.Attributes = dto.Caracteristicas
	}
	return p
}

// MapToProducts converts a listing, keeping its order
func MapToProducts(dtos []productDTO) []domain.Product {
	products := make([]domain.Product, 0, len(dtos))
	for _, dto := range dtos {
		products = append(products, MapToProduct(dto))
	}
	return products
}

// mapFromProduct builds the request body for create and update calls
func mapFromProduct(p *domain.Product) productDTO {
	dto := productDTO{
		Nombre:          p.Name,
		Categoria:       p.Category,
		Descripcion:     p.Description,
		Imagen:          p.Image,
		Precio:          flexString(p.Price),
		Stock:           p.Stock,
		Caracteristicas: p.Attributes,
	}
	if dto.Caracteristicas == nil {
		dto.Caracteristicas = map[string]string{}
	}
	if p.ID > 0 {
		id := p.ID
		dto.ID = &id
	}
	return dto
}
