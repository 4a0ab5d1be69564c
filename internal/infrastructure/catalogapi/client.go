package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/electrocyb/backend/internal/domain"
)

const productsPath = "/api/productos"

// Config holds configuration for the legacy catalog API client
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RetryBaseWait     time.Duration
	SnapshotTTL       time.Duration // how long the last listing answers substring searches
	BreakerTimeout    time.Duration // open state duration before probing again
	BreakerMinCalls   uint32
	BreakerFailRatio  float64
}

// response is a fully read HTTP response
type response struct {
	status int
	body   []byte
}

// Client reads and writes the product catalog through the legacy store API.
// The API only lists, fetches and filters by exact category, so substring searches
// run over the listing most recently fetched by ListAll while it is younger than
// the snapshot TTL.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	rateLimiter   *rate.Limiter
	breaker       *gobreaker.CircuitBreaker[*response]
	maxRetries    int
	retryBaseWait time.Duration
	logger        zerolog.Logger

	mu          sync.Mutex
	snapshot    []domain.Product
	fetchedAt   time.Time
	snapshotTTL time.Duration
	now         func() time.Time
}

// NewClient creates a new catalog API client
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseWait <= 0 {
		cfg.RetryBaseWait = 500 * time.Millisecond
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 5 * time.Second
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.BreakerMinCalls == 0 {
		cfg.BreakerMinCalls = 5
	}
	if cfg.BreakerFailRatio <= 0 || cfg.BreakerFailRatio > 1 {
		cfg.BreakerFailRatio = 0.5
	}

	logger = logger.With().Str("component", "catalogapi").Logger()

	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "catalogapi",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinCalls {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.BreakerFailRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker:       breaker,
		maxRetries:    cfg.MaxRetries,
		retryBaseWait: cfg.RetryBaseWait,
		logger:        logger,
		snapshotTTL:   cfg.SnapshotTTL,
		now:           time.Now,
	}
}

// ListAll fetches the full listing in the order the API serves it. It always asks
// the API so stock and prices are current, and refreshes the snapshot the
// substring searches read.
func (c *Client) ListAll(ctx context.Context) ([]domain.Product, error) {
	products, err := c.fetchListing(ctx)
	if err != nil {
		return nil, err
	}
	return append([]domain.Product(nil), products...), nil
}

// SearchByName filters the listing by name substring, ignoring case
func (c *Client) SearchByName(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return c.search(ctx, query, limit, func(p domain.Product) string { return p.Name })
}

// SearchByCategory filters the listing by category substring, ignoring case
func (c *Client) SearchByCategory(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return c.search(ctx, query, limit, func(p domain.Product) string { return p.Category })
}

// SearchByDescription filters the listing by description substring, ignoring case
func (c *Client) SearchByDescription(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return c.search(ctx, query, limit, func(p domain.Product) string { return p.Description })
}

// SearchAnyField is not offered by the legacy API
func (c *Client) SearchAnyField(context.Context, string, int) ([]domain.Product, error) {
	return nil, domain.ErrSearchUnsupported
}

// GetByID fetches one product
func (c *Client) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var dto productDTO
	if err := c.getJSON(ctx, productsPath+"/"+strconv.FormatInt(id, 10), &dto); err != nil {
		return nil, err
	}
	p := MapToProduct(dto)
	return &p, nil
}

// ListByCategory returns the products of one category
func (c *Client) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	var dtos []productDTO
	if err := c.getJSON(ctx, productsPath+"/categoria/"+url.PathEscape(category), &dtos); err != nil {
		return nil, err
	}
	return MapToProducts(dtos), nil
}

// Create posts a new product and sets p.ID from the response
func (c *Client) Create(ctx context.Context, p *domain.Product) error {
	var created productDTO
	if err := c.sendJSON(ctx, http.MethodPost, productsPath, mapFromProduct(p), &created); err != nil {
		return err
	}
	if created.ID != nil {
		p.ID = *created.ID
	}
	c.invalidate()
	return nil
}

// Update replaces a product
func (c *Client) Update(ctx context.Context, p *domain.Product) error {
	path := productsPath + "/" + strconv.FormatInt(p.ID, 10)
	if err := c.sendJSON(ctx, http.MethodPut, path, mapFromProduct(p), nil); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

// Delete removes a product
func (c *Client) Delete(ctx context.Context, id int64) error {
	path := productsPath + "/" + strconv.FormatInt(id, 10)
	if err := c.sendJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

// State reports the circuit breaker state
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.mu.Unlock()
}

// listing returns the snapshot when it is younger than snapshotTTL and fetches otherwise
func (c *Client) listing(ctx context.Context) ([]domain.Product, error) {
	c.mu.Lock()
	if c.snapshot != nil && c.now().Sub(c.fetchedAt) < c.snapshotTTL {
		products := c.snapshot
		c.mu.Unlock()
		return products, nil
	}
	c.mu.Unlock()
	return c.fetchListing(ctx)
}

func (c *Client) fetchListing(ctx context.Context) ([]domain.Product, error) {
	var dtos []productDTO
	if err := c.getJSON(ctx, productsPath, &dtos); err != nil {
		return nil, err
	}
	products := MapToProducts(dtos)

	c.mu.Lock()
	c.snapshot = products
	c.fetchedAt = c.now()
	c.mu.Unlock()

	c.logger.Debug().Int("products", len(products)).Msg("catalog snapshot refreshed")
	return products, nil
}

func (c *Client) search(ctx context.Context, query string, limit int, field func(domain.Product) string) ([]domain.Product, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	all, err := c.listing(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range all {
		if strings.Contains(strings.ToLower(field(p)), q) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.sendJSON(ctx, http.MethodGet, path, nil, out)
}

// sendJSON performs one API call and decodes a 2xx body into out when out is not nil
func (c *Client) sendJSON(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	switch {
	case resp.status == http.StatusNotFound:
		return domain.ErrProductNotFound
	case resp.status == http.StatusBadRequest || resp.status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, strings.TrimSpace(string(resp.body)))
	case resp.status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: catalog API throttled %s %s", domain.ErrRateLimited, method, path)
	case resp.status < 200 || resp.status > 299:
		return fmt.Errorf("%w: %s %s returned status %d", domain.ErrCatalogUnavailable, method, path, resp.status)
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send executes a request with rate limiting, retries for transient failures and
// the circuit breaker. Server errors and transport failures are retried; any
// other status is returned to the caller.
func (c *Client) send(ctx context.Context, method, path string, body []byte) (*response, error) {
	reqURL := c.baseURL + path

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.breaker.Execute(func() (*response, error) {
			return c.doRequest(ctx, method, reqURL, body)
		})
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		c.logger.Warn().
			Err(err).
			Str("method", method).
			Str("path", path).
			Int("attempt", attempt).
			Msg("catalog request failed")

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, lastErr)
}

// doRequest executes one HTTP request. 5xx responses count as failures.
func (c *Client) doRequest(ctx context.Context, method, reqURL string, body []byte) (*response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "electrocyb-backend/1.0")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

// backoff returns the wait after a failed attempt: base, 2x base, 4x base...
func (c *Client) backoff(attempt int) time.Duration {
	return c.retryBaseWait << (attempt - 1)
}
