package models

import "time"

// Image is a row in one store's images table. ImageCode is unique within
// that store's table only; two stores may use the same code.
type Image struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	ImageCode string    `json:"image_code"`
	ImageFile string    `json:"image_file"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
