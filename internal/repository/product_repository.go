package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"grocery-catalog/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	DeleteByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const selectProductWithCategory = `
	SELECT p.id, p.product_name, p.description, p.category_id, p.unit,
	       p.price, p.old_price, p.discount, p.images, p.created_at, p.updated_at,
	       c.id, c.category_name, c.images, c.created_at, c.updated_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanProduct reads one joined row. The category columns are NULL when the
// referenced category no longer exists.
func scanProduct(row rowScanner, m *pgtype.Map) (*domain.Product, error) {
	var (
		product       domain.Product
		oldPrice      sql.NullFloat64
		categoryID    uuid.NullUUID
		categoryName  sql.NullString
		categoryImgs  []string
		categoryCreat sql.NullTime
		categoryUpd   sql.NullTime
	)

	err := row.Scan(
		&product.ID,
		&product.ProductName,
		&product.Description,
		&product.CategoryID,
		&product.Unit,
		&product.Price,
		&oldPrice,
		&product.Discount,
		m.SQLScanner(&product.Images),
		&product.CreatedAt,
		&product.UpdatedAt,
		&categoryID,
		&categoryName,
		m.SQLScanner(&categoryImgs),
		&categoryCreat,
		&categoryUpd,
	)
	if err != nil {
		return nil, err
	}

	if oldPrice.Valid {
		v := oldPrice.Float64
		product.OldPrice = &v
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if categoryID.Valid {
		if categoryImgs == nil {
			categoryImgs = []string{}
		}
		product.Category = &domain.Category{
			ID:           categoryID.UUID,
			CategoryName: categoryName.String,
			Images:       categoryImgs,
			CreatedAt:    categoryCreat.Time,
			UpdatedAt:    categoryUpd.Time,
		}
	}

	return &product, nil
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// Create inserts a new product. The id is generated when unset and the
// timestamps are assigned by the database.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	query := `
		INSERT INTO products (id, product_name, description, category_id, unit, price, old_price, discount, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.ProductName,
		product.Description,
		product.CategoryID,
		product.Unit,
		product.Price,
		nullableFloat(product.OldPrice),
		product.Discount,
		product.Images,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update replaces every mutable field of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET product_name = $2, description = $3, category_id = $4, unit = $5,
		    price = $6, old_price = $7, discount = $8, images = $9
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	if product.Images == nil {
		product.Images = []string{}
	}

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.ProductName,
		product.Description,
		product.CategoryID,
		product.Unit,
		product.Price,
		nullableFloat(product.OldPrice),
		product.Discount,
		product.Images,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product from the database
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
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

// FindByID retrieves a product with its category resolved
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, selectProductWithCategory+` WHERE p.id = $1`, id)

	product, err := scanProduct(row, pgtype.NewMap())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves every product with its category resolved, oldest first
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, selectProductWithCategory+` ORDER BY p.created_at ASC, p.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	m := pgtype.NewMap()
	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows, m)
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

// DeleteByCategory removes every product referencing the category and
// returns how many were deleted.
func (r *productRepository) DeleteByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE category_id = $1`, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete category products: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
