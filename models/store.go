package models

import "time"

// Store lives in the shared stores table. Everything else a store owns
// (categories, products, images) lives in that store's own table set.
type Store struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name" validate:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
