package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lennartz/go-webshop/internal/database"
	"github.com/lennartz/go-webshop/internal/models"
)

// AddCartItem puts one unit of a product into the user's cart. The upsert
// is a single statement, so two concurrent adds for the same (user,
// product) both land: the unique constraint routes the second one into the
// DO UPDATE increment instead of a duplicate row.
func AddCartItem(ctx context.Context, db *sql.DB, userID, productID int64) (*models.CartItem, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`,
		productID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check product exists: %w", err)
	}
	if !exists {
		return nil, database.ErrProductNotFound
	}

	item := &models.CartItem{}

	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, 1, NOW(), NOW())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + 1, updated_at = NOW()
		RETURNING id, user_id, product_id, quantity, created_at, updated_at`

	err = db.QueryRowContext(ctx, query, userID, productID).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		// The product can vanish between the existence check and the
		// upsert; the foreign key turns that window into a not-found.
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return item, nil
}

// IncreaseCartItem bumps a line's quantity by one. The increment happens
// inside the UPDATE, never as a read-then-write.
func IncreaseCartItem(ctx context.Context, db *sql.DB, userID, itemID int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE cart_items
		 SET quantity = quantity + 1, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		itemID, userID)
	if err != nil {
		return fmt.Errorf("increase cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCartItemNotFound
	}

	return nil
}

// DecreaseCartItem lowers a line's quantity by one; a line at quantity 1 is
// deleted rather than kept at 0. The conditional UPDATE and the fallback
// DELETE run in one transaction, and the quantity >= 1 check constraint
// backstops the race between them.
func DecreaseCartItem(ctx context.Context, db *sql.DB, userID, itemID int64) error {
	return database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE cart_items
			 SET quantity = quantity - 1, updated_at = NOW()
			 WHERE id = $1 AND user_id = $2 AND quantity > 1`,
			itemID, userID)
		if err != nil {
			return fmt.Errorf("decrease cart item: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected > 0 {
			return nil
		}

		result, err = tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE id = $1 AND user_id = $2`,
			itemID, userID)
		if err != nil {
			return fmt.Errorf("remove cart item: %w", err)
		}

		rowsAffected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return database.ErrCartItemNotFound
		}

		return nil
	})
}

func RemoveCartItem(ctx context.Context, db *sql.DB, userID, itemID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND user_id = $2`,
		itemID, userID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCartItemNotFound
	}

	return nil
}

// GetCart returns the user's lines joined with the live catalog, in
// insertion order, plus the total at current prices.
func GetCart(ctx context.Context, db *sql.DB, userID int64) (*models.Cart, error) {
	query := `
		SELECT ci.id, p.id, p.name, p.price, p.image, ci.quantity
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.user_id = $1
		ORDER BY ci.id`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	cart := &models.Cart{Total: decimal.Zero}
	for rows.Next() {
		var line models.CartLine
		err := rows.Scan(
			&line.ItemID,
			&line.ProductID,
			&line.Name,
			&line.Price,
			&line.Image,
			&line.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}

		line.Subtotal = line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		cart.Total = cart.Total.Add(line.Subtotal)
		cart.Lines = append(cart.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return cart, nil
}

// ClearCart drops every line the user has. Checkout does not use this; it
// deletes only the rows it locked.
func ClearCart(ctx context.Context, db *sql.DB, userID int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
