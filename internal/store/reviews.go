package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lennartz/go-webshop/internal/database"
	"github.com/lennartz/go-webshop/internal/models"
)

// CreateReview appends a review. Ratings are bounded to 1..5; reviews are
// never updated or deleted.
func CreateReview(ctx context.Context, db *sql.DB, productID, userID int64, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, database.ErrInvalidRating
	}

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

	review := &models.Review{}

	query := `
		INSERT INTO reviews (product_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, product_id, user_id, rating, comment, created_at`

	err = db.QueryRowContext(ctx, query, productID, userID, rating, comment).Scan(
		&review.ID,
		&review.ProductID,
		&review.UserID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	return review, nil
}

// ListProductReviews returns a product's reviews newest first, joined with
// the reviewer's username.
func ListProductReviews(ctx context.Context, db *sql.DB, productID int64) ([]models.Review, error) {
	query := `
		SELECT r.id, r.product_id, r.user_id, u.username, r.rating, r.comment, r.created_at
		FROM reviews r
		JOIN users u ON r.user_id = u.id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC, r.id DESC`

	rows, err := db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		err := rows.Scan(
			&review.ID,
			&review.ProductID,
			&review.UserID,
			&review.Username,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return reviews, nil
}
