// Package presenter renders advice results as Spanish chat replies.
package presenter

import (
	"strconv"
	"strings"

	"github.com/electrocyb/backend/internal/domain"
	"github.com/electrocyb/backend/internal/usecase"
)

// Reply is the user-facing rendering of a SearchResult.
// Lines holds one bullet per product, in result order.
type Reply struct {
	Text  string   `json:"reply"`
	Lines []string `json:"lines"`
}

const (
	emptyCatalogText = "No encontré productos para lo que me indicas porque actualmente no hay productos registrados en el catálogo."

	askForDetailsText = "No estoy seguro de haber encontrado el producto exacto que necesitas.\n\n" +
		"¿Me puedes indicar un poco más de detalle? Por ejemplo:\n" +
		"- ¿Es para interior o exterior?\n" +
		"- ¿Para qué ambiente? (sala, dormitorio, fachada, jardín, etc.)\n" +
		"- ¿Presupuesto aproximado? (por ejemplo: hasta 50 soles)\n\n" +
		"Con eso puedo recomendarte mejores opciones de nuestro catálogo."

	detailsFooter = "\n\nSi quieres más detalles de uno de ellos, dime el nombre o haz clic en la tarjeta."
)

// Render builds the reply text for a result
func Render(result *domain.SearchResult) Reply {
	if result == nil || result.ResultType == domain.ResultNoProductsInDB {
		return Reply{Text: emptyCatalogText, Lines: []string{}}
	}

	if len(result.Products) == 0 {
		text := askForDetailsText
		if price := usecase.FormatPriceRange(result.PriceRange); price != "" {
			text += "\n\nAdemás, no encontré productos que cumplan exactamente con " + price + "."
		}
		return Reply{Text: text, Lines: []string{}}
	}

	lines := usecase.FormatProductLines(result.Products)
	list := strings.Join(lines, "\n")

	var text string
	switch result.ResultType {
	case domain.ResultDBNameMatch:
		text = "Estos productos coinciden con el nombre que me indicaste:\n\n" + list + detailsFooter
	case domain.ResultDirectNameMatch:
		text = "Estos productos coinciden directamente con el nombre que me indicaste:\n\n" + list + detailsFooter
	case domain.ResultCatalogRequest:
		text = "Te muestro parte de nuestro catálogo de productos:\n\n" + list + catalogFooter(result)
	default:
		header := "Esto es lo que encontré según lo que me comentas"
		if price := usecase.FormatPriceRange(result.PriceRange); price != "" {
			header += " (considerando " + price + ")"
		}
		text = header + ":\n\n" + list + detailsFooter
	}

	return Reply{Text: text, Lines: lines}
}

func catalogFooter(result *domain.SearchResult) string {
	if result.Truncated {
		return "\n\n(Se muestran solo los primeros " + strconv.Itoa(len(result.Products)) +
			" productos del catálogo. Si buscas algo más específico, dime por ejemplo: " +
			"'foco led para sala', 'sensor de movimiento para pasadizo', etc.)"
	}
	return "\n\nSi quieres algo más específico, dime por ejemplo: 'foco led', 'sensor de movimiento', 'lámpara para sala', etc."
}
