package integration

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lennartz/go-webshop/internal/database"
	"github.com/lennartz/go-webshop/internal/models"
	"github.com/lennartz/go-webshop/internal/store"
)

func createTestUser(t *testing.T, db *sql.DB, username, email string) *models.User {
	t.Helper()
	user, err := store.RegisterUser(context.Background(), db, username, email, "pw123456")
	if err != nil {
		t.Fatalf("Register user: %v", err)
	}
	return user
}

func createTestProduct(t *testing.T, db *sql.DB, name string, price int64) *models.Product {
	t.Helper()
	product, err := store.CreateProduct(context.Background(), db, name, "Test", decimal.NewFromInt(price), "")
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	return product
}

func TestAddCartItemTwiceIncrements(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "cart1", "cart1@example.com")
	product := createTestProduct(t, db, "Widget", 10)

	first, err := store.AddCartItem(ctx, db, user.ID, product.ID)
	if err != nil {
		t.Fatalf("Add cart item: %v", err)
	}
	if first.Quantity != 1 {
		t.Errorf("Expected quantity 1, got %d", first.Quantity)
	}

	second, err := store.AddCartItem(ctx, db, user.ID, product.ID)
	if err != nil {
		t.Fatalf("Add cart item again: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Second add created a new line: %d vs %d", second.ID, first.ID)
	}
	if second.Quantity != 2 {
		t.Errorf("Expected quantity 2, got %d", second.Quantity)
	}

	cart, err := store.GetCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("Expected exactly one cart line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 2 {
		t.Errorf("Expected quantity 2, got %d", cart.Lines[0].Quantity)
	}
}

func TestAddCartItemUnknownProduct(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "cart2", "cart2@example.com")

	if _, err := store.AddCartItem(ctx, db, user.ID, 99999); !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected product not found error, got: %v", err)
	}
}

func TestForeignKeyViolationClassified(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "cart7", "cart7@example.com")

	// A product deleted between the existence check and the upsert hits
	// the foreign key; the classifier is what maps that to not-found.
	_, err := db.Exec(
		`INSERT INTO cart_items (user_id, product_id, quantity) VALUES ($1, 99999, 1)`,
		user.ID)
	if err == nil {
		t.Fatal("Expected foreign key violation")
	}
	if !database.IsForeignKeyViolation(err) {
		t.Errorf("Expected foreign key classification, got: %v", err)
	}
	if database.IsUniqueViolation(err) {
		t.Error("Foreign key violation misclassified as unique violation")
	}
}

func TestConcurrentAddCartItem(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "cart3", "cart3@example.com")
	product := createTestProduct(t, db, "Gadget", 15)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.AddCartItem(ctx, db, user.ID, product.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("Concurrent add failed: %v", err)
	}

	cart, err := store.GetCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("Expected one cart line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 2 {
		t.Errorf("Lost update: expected quantity 2, got %d", cart.Lines[0].Quantity)
	}
}

func TestDecreaseCartItem(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "cart4", "cart4@example.com")
	product := createTestProduct(t, db, "Thing", 5)

	item, err := store.AddCartItem(ctx, db, user.ID, product.ID)
	if err != nil {
		t.Fatalf("Add cart item: %v", err)
	}
	if _, err := store.AddCartItem(ctx, db, user.ID, product.ID); err != nil {
		t.Fatalf("Add cart item: %v", err)
	}

	// quantity 2 -> 1
	if err := store.DecreaseCartItem(ctx, db, user.ID, item.ID); err != nil {
		t.Fatalf("Decrease cart item: %v", err)
	}
	cart, err := store.GetCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 1 {
		t.Fatalf("Expected one line with quantity 1, got %+v", cart.Lines)
	}

	// quantity 1 -> line deleted, not kept at 0
	if err := store.DecreaseCartItem(ctx, db, user.ID, item.ID); err != nil {
		t.Fatalf("Decrease cart item to zero: %v", err)
	}
	cart, err = store.GetCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Errorf("Expected empty cart, got %+v", cart.Lines)
	}

	if err := store.DecreaseCartItem(ctx, db, user.ID, item.ID); !errors.Is(err, database.ErrCartItemNotFound) {
		t.Errorf("Expected cart item not found error, got: %v", err)
	}
}

func TestIncreaseAndRemoveCartItem(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "cart5", "cart5@example.com")
	other := createTestUser(t, db, "cart5b", "cart5b@example.com")
	product := createTestProduct(t, db, "Doohickey", 7)

	item, err := store.AddCartItem(ctx, db, user.ID, product.ID)
	if err != nil {
		t.Fatalf("Add cart item: %v", err)
	}

	if err := store.IncreaseCartItem(ctx, db, user.ID, item.ID); err != nil {
		t.Fatalf("Increase cart item: %v", err)
	}

	// Another user must not be able to touch the line.
	if err := store.IncreaseCartItem(ctx, db, other.ID, item.ID); !errors.Is(err, database.ErrCartItemNotFound) {
		t.Errorf("Expected cart item not found for other user, got: %v", err)
	}
	if err := store.RemoveCartItem(ctx, db, other.ID, item.ID); !errors.Is(err, database.ErrCartItemNotFound) {
		t.Errorf("Expected cart item not found for other user, got: %v", err)
	}

	if err := store.RemoveCartItem(ctx, db, user.ID, item.ID); err != nil {
		t.Fatalf("Remove cart item: %v", err)
	}
	if err := store.RemoveCartItem(ctx, db, user.ID, item.ID); !errors.Is(err, database.ErrCartItemNotFound) {
		t.Errorf("Expected cart item not found error, got: %v", err)
	}
}

func TestGetCartUsesCurrentPrices(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "cart6", "cart6@example.com")
	p1 := createTestProduct(t, db, "A", 10)
	p2 := createTestProduct(t, db, "B", 5)

	if _, err := store.AddCartItem(ctx, db, user.ID, p1.ID); err != nil {
		t.Fatalf("Add cart item: %v", err)
	}
	if _, err := store.AddCartItem(ctx, db, user.ID, p1.ID); err != nil {
		t.Fatalf("Add cart item: %v", err)
	}
	if _, err := store.AddCartItem(ctx, db, user.ID, p2.ID); err != nil {
		t.Fatalf("Add cart item: %v", err)
	}

	cart, err := store.GetCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if !cart.Total.Equal(decimal.NewFromInt(25)) {
		t.Errorf("Expected total 25, got %s", cart.Total)
	}

	// Price change is reflected immediately, not snapshotted at add time.
	if _, err := store.UpdateProduct(ctx, db, p1.ID, "A", "Test", decimal.NewFromInt(20), ""); err != nil {
		t.Fatalf("Update product: %v", err)
	}

	cart, err = store.GetCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if !cart.Total.Equal(decimal.NewFromInt(45)) {
		t.Errorf("Expected total 45 after price change, got %s", cart.Total)
	}

	if err := store.ClearCart(ctx, db, user.ID); err != nil {
		t.Fatalf("Clear cart: %v", err)
	}
	cart, err = store.GetCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Errorf("Expected empty cart after clear, got %+v", cart.Lines)
	}
}
