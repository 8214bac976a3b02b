package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog item. Price is in minor currency units. IsAvailable
// is derived from Stock at read time and never stored.
type Product struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Price        int64     `json:"price"`
	Stock        int       `json:"stock"`
	IsAvailable  bool      `json:"is_available"`
	Featured     bool      `json:"featured"`
	Customizable bool      `json:"customizable"`
	Rating       float64   `json:"rating"`
	NumReviews   int       `json:"num_reviews"`
	ImageURL     string    `json:"image_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Review is a customer rating with an optional comment. Rating is 1 to 5.
type Review struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NextRating computes the running average after adding one more rating.
func NextRating(current float64, count int, rating int) float64 {
	return (current*float64(count) + float64(rating)) / float64(count+1)
}

// Favorite marks a product saved by a user.
type Favorite struct {
	UserID    string    `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}
