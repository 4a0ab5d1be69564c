package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/electrocyb/backend/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the catalog tables when they do not exist
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const selectProducts = `
	SELECT p.id,
		COALESCE(p.nombre, ''),
		COALESCE(p.categoria, ''),
		COALESCE(p.descripcion, ''),
		COALESCE(p.imagen, ''),
		COALESCE(p.precio, ''),
		p.stock,
		COALESCE((
			SELECT jsonb_object_agg(c.nombre, c.valor)
			FROM producto_caracteristicas c
			WHERE c.producto_id = p.id
		), '{}'::jsonb)
	FROM productos p`

// ProductRepository implements domain.ProductRepository and domain.AnyFieldSearcher
// on the productos table.
type ProductRepository struct {
	db DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository
func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListAll returns every product ordered by id
func (r *ProductRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	return r.queryProducts(ctx, selectProducts+` ORDER BY p.id`)
}

// SearchByName returns products whose name contains query, ignoring case
func (r *ProductRepository) SearchByName(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return r.searchColumn(ctx, "p.nombre", query, limit)
}

// SearchByCategory returns products whose category contains query, ignoring case
func (r *ProductRepository) SearchByCategory(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return r.searchColumn(ctx, "p.categoria", query, limit)
}

// SearchByDescription returns products whose description contains query, ignoring case
func (r *ProductRepository) SearchByDescription(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return r.searchColumn(ctx, "p.descripcion", query, limit)
}

// SearchAnyField matches query against name, category or description in one round trip
func (r *ProductRepository) SearchAnyField(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	sql := selectProducts + `
	WHERE p.nombre ILIKE $1 OR p.categoria ILIKE $1 OR p.descripcion ILIKE $1
	ORDER BY p.id
	LIMIT $2`
	return r.queryProducts(ctx, sql, containsPattern(query), limit)
}

// ListByCategory returns products whose category equals category, ignoring case
func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	sql := selectProducts + `
	WHERE lower(p.categoria) = lower($1)
	ORDER BY p.id`
	return r.queryProducts(ctx, sql, category)
}

// GetByID returns one product or domain.ErrProductNotFound
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.db.QueryRow(ctx, selectProducts+` WHERE p.id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

// Create inserts a product with its attributes and sets p.ID
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		INSERT INTO productos (nombre, categoria, descripcion, imagen, precio, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err = tx.QueryRow(ctx, query,
		p.Name, p.Category, p.Description, p.Image, p.Price, stockArg(p.Stock),
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	if err := insertAttributes(ctx, tx, p.ID, p.Attributes); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Update replaces a product and its attributes
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		UPDATE productos
		SET nombre = $2, categoria = $3, descripcion = $4, imagen = $5, precio = $6, stock = $7
		WHERE id = $1`
	tag, err := tx.Exec(ctx, query,
		p.ID, p.Name, p.Category, p.Description, p.Image, p.Price, stockArg(p.Stock),
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM producto_caracteristicas WHERE producto_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear attributes: %w", err)
	}
	if err := insertAttributes(ctx, tx, p.ID, p.Attributes); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes a product; attributes go with it through the foreign key
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM productos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) searchColumn(ctx context.Context, column, query string, limit int) ([]domain.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	sql := selectProducts + `
	WHERE ` + column + ` ILIKE $1
	ORDER BY p.id
	LIMIT $2`
	return r.queryProducts(ctx, sql, containsPattern(query), limit)
}

func (r *ProductRepository) queryProducts(ctx context.Context, sql string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p          domain.Product
		stock      *int32
		attributes []byte
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Category, &p.Description, &p.Image, &p.Price, &stock, &attributes,
	); err != nil {
		return nil, err
	}
	if stock != nil {
		s := int(*stock)
		p.Stock = &s
	}
	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &p.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes of product %d: %w", p.ID, err)
		}
		if len(p.Attributes) == 0 {
			p.Attributes = nil
		}
	}
	return &p, nil
}

// insertAttributes writes attributes in key order
func insertAttributes(ctx context.Context, tx pgx.Tx, productID int64, attributes map[string]string) error {
	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, err := tx.Exec(ctx,
			`INSERT INTO producto_caracteristicas (producto_id, nombre, valor) VALUES ($1, $2, $3)`,
			productID, k, attributes[k],
		)
		if err != nil {
			return fmt.Errorf("insert attribute %q: %w", k, err)
		}
	}
	return nil
}

func stockArg(stock *int) any {
	if stock == nil {
		return nil
	}
	return int32(*stock)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern that matches query literally anywhere
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}
