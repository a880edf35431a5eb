package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"store-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrSKUAlreadyExists  = errors.New("product with this SKU already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const pgUniqueViolation = "23505"

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)
	FindAll(ctx context.Context, categoryName string) ([]*domain.Product, error)
	SearchByKeyword(ctx context.Context, keyword string) ([]*domain.Product, error)
	UpdatePrice(ctx context.Context, id uuid.UUID, newPrice float64) error
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// productColumns is the select list shared by all queries that load a
// product together with its category.
const productColumns = `
	p.id, p.name, p.sku, p.description, p.price, p.stock, p.category_id,
	p.is_active, p.created_at, p.updated_at,
	c.id, c.name, c.slug, c.description, c.is_active, c.created_at, c.updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{Category: &domain.Category{}}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.SKU,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.CategoryID,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Category.ID,
		&product.Category.Name,
		&product.Category.Slug,
		&product.Category.Description,
		&product.Category.IsActive,
		&product.Category.CreatedAt,
		&product.Category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, sku, description, price, stock, category_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.SKU,
		product.Description,
		product.Price,
		product.Stock,
		product.CategoryID,
		product.IsActive,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrSKUAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// FindByID retrieves a product with its category by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindBySKU retrieves a product by its SKU
func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.sku = $1
	`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, sku))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by SKU: %w", err)
	}

	return product, nil
}

// FindAll retrieves active products newest-first, optionally restricted to
// an active category matched by exact name.
func (r *productRepository) FindAll(ctx context.Context, categoryName string) ([]*domain.Product, error) {
	whereClause := "WHERE p.is_active = TRUE"
	args := []interface{}{}

	if categoryName != "" {
		whereClause += " AND c.name = $1 AND c.is_active = TRUE"
		args = append(args, categoryName)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN categories c ON c.id = p.category_id
		%s
		ORDER BY p.created_at DESC
	`, productColumns, whereClause)

	return r.queryProducts(ctx, query, args...)
}

// SearchByKeyword retrieves active products whose name or SKU contains the
// keyword, case-insensitively, newest-first.
func (r *productRepository) SearchByKeyword(ctx context.Context, keyword string) ([]*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.is_active = TRUE AND (p.name ILIKE $1 OR p.sku ILIKE $1)
		ORDER BY p.created_at DESC
	`, productColumns)

	return r.queryProducts(ctx, query, "%"+keyword+"%")
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// UpdatePrice sets a new price on a product
func (r *productRepository) UpdatePrice(ctx context.Context, id uuid.UUID, newPrice float64) error {
	query := `UPDATE products SET price = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, newPrice)
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// DecrementStock subtracts quantity from the product's stock in a single
// conditional statement, so concurrent sells can never drive stock below
// zero. Returns the updated product on success.
func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error) {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	result, err := r.db.ExecContext(ctx, query, id, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// The guard rejected the update: either the product is gone or the
		// remaining stock is lower than the requested quantity.
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientStock
	}

	return r.FindByID(ctx, id)
}
