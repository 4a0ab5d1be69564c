package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/electrocyb/backend/internal/domain"
	"github.com/electrocyb/backend/internal/observability"
	"github.com/electrocyb/backend/internal/presenter"
)

// AdviceFinder answers a customer message with catalog products
type AdviceFinder interface {
	FindProductsForMessage(ctx context.Context, message string) (*domain.SearchResult, error)
}

// ProductManager exposes catalog administration
type ProductManager interface {
	List(ctx context.Context) ([]domain.Product, error)
	ListByCategory(ctx context.Context, category string) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	advice   AdviceFinder
	products ProductManager
	logger   zerolog.Logger
}

// NewHandler creates a new HTTP handler. Nil services answer 503.
func NewHandler(advice AdviceFinder, products ProductManager, logger zerolog.Logger) *Handler {
	return &Handler{
		advice:   advice,
		products: products,
		logger:   logger,
	}
}

// AdviceResponse is the advice result together with its rendered reply
type AdviceResponse struct {
	*domain.SearchResult
	presenter.Reply
}

// productRequest is the body of create and update calls
type productRequest struct {
	Name        string            `json:"name" binding:"required"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Image       string            `json:"image"`
	Price       string            `json:"price"`
	Stock       *int              `json:"stock"`
	Attributes  map[string]string `json:"attributes"`
}

func (r productRequest) toProduct(id int64) *domain.Product {
	attrs := r.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &domain.Product{
		ID:          id,
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		Image:       r.Image,
		Price:       r.Price,
		Stock:       r.Stock,
		Attributes:  attrs,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "electrocyb-backend",
		"version": "1.0.0",
	})
}

// Advice handles POST /api/v1/advice
func (h *Handler) Advice(c *gin.Context) {
	if h.advice == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "advice service not configured"})
		return
	}

	var req domain.AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	result, err := h.advice.FindProductsForMessage(c.Request.Context(), req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AdviceResponse{
		SearchResult: result,
		Reply:        presenter.Render(result),
	})
}

// ListProducts handles GET /api/v1/products with an optional ?category= filter
func (h *Handler) ListProducts(c *gin.Context) {
	if !h.productsConfigured(c) {
		return
	}

	var (
		products []domain.Product
		err      error
	)
	if category, ok := c.GetQuery("category"); ok {
		products, err = h.products.ListByCategory(c.Request.Context(), category)
	} else {
		products, err = h.products.List(c.Request.Context())
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	if !h.productsConfigured(c) {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/products
func (h *Handler) CreateProduct(c *gin.Context) {
	if !h.productsConfigured(c) {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product: " + err.Error()})
		return
	}

	product := req.toProduct(0)
	if err := h.products.Create(c.Request.Context(), product); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	if !h.productsConfigured(c) {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product: " + err.Error()})
		return
	}

	product := req.toProduct(id)
	if err := h.products.Update(c.Request.Context(), product); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	if !h.productsConfigured(c) {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) productsConfigured(c *gin.Context) bool {
	if h.products == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "product service not configured"})
		return false
	}
	return true
}

// respondError maps domain errors to HTTP status codes.
// Context errors win over the catalog sentinel that wraps them.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrProductNotFound):
		status, message = http.StatusNotFound, "product not found"
	case errors.Is(err, domain.ErrRateLimited):
		status, message = http.StatusTooManyRequests, "too many requests"
	case errors.Is(err, context.DeadlineExceeded):
		status, message = http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, context.Canceled):
		status, message = http.StatusServiceUnavailable, "request canceled"
	case errors.Is(err, domain.ErrCatalogUnavailable):
		status, message = http.StatusServiceUnavailable, "catalog unavailable"
	}

	if status >= http.StatusInternalServerError {
		logger := observability.LoggerFromContext(c.Request.Context(), h.logger)
		logger.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return 0, false
	}
	return id, true
}
