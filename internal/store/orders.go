package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/lennartz/go-webshop/internal/database"
	"github.com/lennartz/go-webshop/internal/models"
)

// GetOrder loads an order and decodes its snapshot into display lines.
// Names come from the live catalog; a product deleted since checkout shows
// with an empty name, the snapshot itself is never rewritten.
func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order := &models.Order{}
	var encoded string

	query := `
		SELECT id, user_id, product_ids, total, ship_name, ship_address, ship_city, created_at
		FROM orders
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&encoded,
		&order.Total,
		&order.Shipping.Name,
		&order.Shipping.Address,
		&order.Shipping.City,
		&order.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	order.Snapshot, err = models.DecodeSnapshot(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode order %d snapshot: %w", id, err)
	}

	if len(order.Snapshot) == 0 {
		return order, nil
	}

	productIDs := make([]int64, len(order.Snapshot))
	for i, line := range order.Snapshot {
		productIDs[i] = line.ProductID
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, name FROM products WHERE id = ANY($1)`,
		pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("get snapshot products: %w", err)
	}
	defer rows.Close()

	names := make(map[int64]string)
	for rows.Next() {
		var (
			productID int64
			name      string
		)
		if err := rows.Scan(&productID, &name); err != nil {
			return nil, fmt.Errorf("scan product name: %w", err)
		}
		names[productID] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	order.Lines = make([]models.OrderLine, len(order.Snapshot))
	for i, line := range order.Snapshot {
		order.Lines[i] = models.OrderLine{
			ProductID: line.ProductID,
			Name:      names[line.ProductID],
			Quantity:  line.Quantity,
		}
	}

	return order, nil
}

// ListUserOrders pages through one user's orders newest first.
func ListUserOrders(ctx context.Context, db *sql.DB, userID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT id, user_id, product_ids, total, ship_name, ship_address, ship_city, created_at
		FROM orders
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// ListAllOrders is the administrative listing: every order, newest first,
// joined with the owning username.
func ListAllOrders(ctx context.Context, db *sql.DB, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT o.id, o.user_id, u.username, o.product_ids, o.total,
		       o.ship_name, o.ship_address, o.ship_city, o.created_at
		FROM orders o
		JOIN users u ON o.user_id = u.id
		WHERE (o.created_at, o.id) < ($1, $2)
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $3`

	rows, err := db.QueryContext(ctx, query, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var (
			order   models.Order
			encoded string
		)
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Username,
			&encoded,
			&order.Total,
			&order.Shipping.Name,
			&order.Shipping.Address,
			&order.Shipping.City,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		order.Snapshot, err = models.DecodeSnapshot(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode order %d snapshot: %w", order.ID, err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		var (
			order   models.Order
			encoded string
		)
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&encoded,
			&order.Total,
			&order.Shipping.Name,
			&order.Shipping.Address,
			&order.Shipping.City,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		order.Snapshot, err = models.DecodeSnapshot(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode order %d snapshot: %w", order.ID, err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}
