package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lennartz/go-webshop/internal/database"
	"github.com/lennartz/go-webshop/internal/models"
	"github.com/lennartz/go-webshop/internal/store"
)

func TestProductCRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product, err := store.CreateProduct(ctx, db, "Mug", "A mug", decimal.NewFromFloat(9.99), "mug.png")
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	if product.ID == 0 {
		t.Error("Product ID should not be 0")
	}

	fetched, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if fetched.Name != "Mug" || !fetched.Price.Equal(decimal.NewFromFloat(9.99)) {
		t.Errorf("Unexpected product: %+v", fetched)
	}

	// Empty image keeps the stored one.
	updated, err := store.UpdateProduct(ctx, db, product.ID, "Big Mug", "A big mug", decimal.NewFromFloat(12.50), "")
	if err != nil {
		t.Fatalf("Update product: %v", err)
	}
	if updated.Name != "Big Mug" || updated.Image != "mug.png" {
		t.Errorf("Unexpected product after update: %+v", updated)
	}

	updated, err = store.UpdateProduct(ctx, db, product.ID, "Big Mug", "A big mug", decimal.NewFromFloat(12.50), "bigmug.png")
	if err != nil {
		t.Fatalf("Update product: %v", err)
	}
	if updated.Image != "bigmug.png" {
		t.Errorf("Expected replaced image, got %q", updated.Image)
	}

	if err := store.DeleteProduct(ctx, db, product.ID); err != nil {
		t.Fatalf("Delete product: %v", err)
	}
	if _, err := store.GetProduct(ctx, db, product.ID); !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected product not found error, got: %v", err)
	}
	if err := store.DeleteProduct(ctx, db, product.ID); !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected product not found error, got: %v", err)
	}
}

func TestCreateProductValidation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := store.CreateProduct(ctx, db, "", "desc", decimal.NewFromInt(1), ""); !errors.Is(err, database.ErrEmptyField) {
		t.Errorf("Expected empty field error, got: %v", err)
	}
	if _, err := store.CreateProduct(ctx, db, "Neg", "desc", decimal.NewFromInt(-1), ""); !errors.Is(err, database.ErrInvalidPrice) {
		t.Errorf("Expected invalid price error, got: %v", err)
	}
	if _, err := store.UpdateProduct(ctx, db, 1, "Neg", "desc", decimal.NewFromInt(-1), ""); !errors.Is(err, database.ErrInvalidPrice) {
		t.Errorf("Expected invalid price error, got: %v", err)
	}
}

func TestListProducts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	for _, name := range []string{"One", "Two", "Three"} {
		if _, err := store.CreateProduct(ctx, db, name, "Test", decimal.NewFromInt(1), ""); err != nil {
			t.Fatalf("Create product: %v", err)
		}
	}

	page, err := store.ListProducts(ctx, db, 1, 2)
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 {
		t.Errorf("Expected total 3 over 2 pages, got %d over %d", page.Total, page.TotalPages)
	}
	products := page.Items.([]models.Product)
	if len(products) != 2 {
		t.Fatalf("Expected 2 products on page 1, got %d", len(products))
	}
	if products[0].Name != "Three" {
		t.Errorf("Expected newest product first, got %q", products[0].Name)
	}
}
