package memory

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/electrocyb/backend/internal/domain"
)

// seedFile is the YAML catalog snapshot layout:
//
//	products:
//	  - id: 1
//	    name: Foco LED 12W
//	    category: Iluminación
//	    price: "25.00"
//	    stock: 10
//	    attributes:
//	      potencia: 12W
type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	ID          int64             `yaml:"id"`
	Name        string            `yaml:"name"`
	Category    string            `yaml:"category"`
	Description string            `yaml:"description"`
	Image       string            `yaml:"image"`
	Price       string            `yaml:"price"`
	Stock       *int              `yaml:"stock"`
	Attributes  map[string]string `yaml:"attributes"`
}

// LoadSeedFile reads a YAML catalog snapshot from path
func LoadSeedFile(path string) ([]domain.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	products, err := ParseSeed(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return products, nil
}

// ParseSeed decodes a YAML catalog snapshot. Every product needs a name and ids
// must be unique when given.
func ParseSeed(r io.Reader) ([]domain.Product, error) {
	var file seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	seen := make(map[int64]struct{}, len(file.Products))
	products := make([]domain.Product, 0, len(file.Products))
	for i, sp := range file.Products {
		if strings.TrimSpace(sp.Name) == "" {
			return nil, fmt.Errorf("product #%d: name is required", i+1)
		}
		if sp.ID > 0 {
			if _, dup := seen[sp.ID]; dup {
				return nil, fmt.Errorf("product #%d: duplicate id %d", i+1, sp.ID)
			}
			seen[sp.ID] = struct{}{}
		}
		products = append(products, domain.Product{
			ID:          sp.ID,
			Name:        strings.TrimSpace(sp.Name),
			Category:    sp.Category,
			Description: sp.Description,
			Image:       sp.Image,
			Price:       sp.Price,
			Stock:       sp.Stock,
			Attributes:  sp.Attributes,
		})
	}
	return products, nil
}
