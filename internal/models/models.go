package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CartItem is one (user, product) line. At most one row exists per pair;
// adding the same product again increments Quantity instead.
type CartItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLine is a cart item joined with the current catalog row. Prices here
// are live catalog prices, not a stored snapshot.
type CartLine struct {
	ItemID    int64           `json:"item_id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Cart struct {
	Lines []CartLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// Order is write-once: created at checkout, never updated or deleted.
// Snapshot holds the (product, quantity) pairs as they stood at checkout;
// Total was computed from catalog prices at that same instant.
type Order struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Username  string          `json:"username,omitempty"`
	Snapshot  Snapshot        `json:"snapshot"`
	Lines     []OrderLine     `json:"lines,omitempty"`
	Total     decimal.Decimal `json:"total"`
	Shipping  ShippingInfo    `json:"shipping"`
	CreatedAt time.Time       `json:"created_at"`
}

type ShippingInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// OrderLine is a snapshot pair joined with the current product name for
// display. Name is empty when the product has since been deleted.
type OrderLine struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
}

type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
