package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/lennartz/go-webshop/internal/database"
	"github.com/lennartz/go-webshop/internal/models"
)

// Checkout converts the user's cart into a write-once order: lock the cart
// rows, price them against the live catalog, persist the order with an
// ordered (product, quantity) snapshot, and delete exactly the locked rows.
// The whole transition runs in one serializable transaction, so either the
// order exists and the captured lines are gone, or neither happened.
//
// Two concurrent checkouts for the same user serialize on the row locks;
// the loser retries, finds the cart empty, and gets ErrEmptyCart without
// creating an order. Lines added concurrently after the load are not
// captured and survive the clear.
//
// Timestamps come from the database clock in UTC.
func Checkout(ctx context.Context, db *sql.DB, userID int64, shipping models.ShippingInfo) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT ci.id, ci.product_id, ci.quantity, p.price
			 FROM cart_items ci
			 JOIN products p ON ci.product_id = p.id
			 WHERE ci.user_id = $1
			 ORDER BY ci.id
			 FOR UPDATE OF ci`,
			userID)
		if err != nil {
			return fmt.Errorf("lock cart items: %w", err)
		}

		var (
			itemIDs  []int64
			snapshot models.Snapshot
			total    = decimal.Zero
		)
		for rows.Next() {
			var (
				itemID    int64
				productID int64
				quantity  int
				price     decimal.Decimal
			)
			if err := rows.Scan(&itemID, &productID, &quantity, &price); err != nil {
				rows.Close()
				return fmt.Errorf("scan cart item: %w", err)
			}

			itemIDs = append(itemIDs, itemID)
			snapshot = append(snapshot, models.SnapshotLine{ProductID: productID, Quantity: quantity})
			total = total.Add(price.Mul(decimal.NewFromInt(int64(quantity))))
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("close cart rows: %w", err)
		}

		if len(snapshot) == 0 {
			return database.ErrEmptyCart
		}

		order = &models.Order{
			UserID:   userID,
			Snapshot: snapshot,
			Total:    total,
			Shipping: shipping,
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, product_ids, total, ship_name, ship_address, ship_city, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())
			 RETURNING id, created_at`,
			userID, snapshot.Encode(), total,
			shipping.Name, shipping.Address, shipping.City).Scan(&order.ID, &order.CreatedAt)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE id = ANY($1)`,
			pq.Array(itemIDs))
		if err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		cleared, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if cleared != int64(len(itemIDs)) {
			return fmt.Errorf("clear cart: expected %d rows, deleted %d", len(itemIDs), cleared)
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, database.ErrEmptyCart) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", database.ErrCheckoutFailed, err)
	}

	return order, nil
}
