package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lennartz/go-webshop/internal/database"
	"github.com/lennartz/go-webshop/internal/models"
)

func CreateProduct(ctx context.Context, db *sql.DB, name, description string, price decimal.Decimal, image string) (*models.Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, database.ErrEmptyField
	}
	if price.IsNegative() {
		return nil, database.ErrInvalidPrice
	}

	product := &models.Product{}

	query := `
		INSERT INTO products (name, description, price, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, name, description, price, image, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, name, description, price, image).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Image,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	product := &models.Product{}

	query := `
		SELECT id, name, description, price, image, created_at, updated_at
		FROM products
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Image,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// UpdateProduct replaces name, description and price. An empty image keeps
// the stored one, mirroring the edit form's "leave blank to keep" behavior.
func UpdateProduct(ctx context.Context, db *sql.DB, id int64, name, description string, price decimal.Decimal, image string) (*models.Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, database.ErrEmptyField
	}
	if price.IsNegative() {
		return nil, database.ErrInvalidPrice
	}

	product := &models.Product{}

	query := `
		UPDATE products
		SET name = $2,
		    description = $3,
		    price = $4,
		    image = CASE WHEN $5 = '' THEN image ELSE $5 END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, price, image, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, id, name, description, price, image).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Image,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

// DeleteProduct removes a catalog row. Cart lines referencing it cascade;
// order snapshots keep their bare product ids and are never touched.
func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

func ListProducts(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, name, description, price, image, created_at, updated_at
		FROM products
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			&product.Price,
			&product.Image,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
