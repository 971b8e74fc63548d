package models

import "time"

// Product is a row in one store's products table. CategoryID references
// the same store's categories table.
type Product struct {
	ID                 int64     `json:"id"`
	CategoryID         int64     `json:"category_id" validate:"required"`
	Name               string    `json:"name" validate:"required"`
	MarkedPrice        float64   `json:"marked_price"`
	MinDiscountedPrice float64   `json:"min_discounted_price"`
	Description        string    `json:"description"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
