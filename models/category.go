package models

import "time"

// Category is a row in one store's categories table. It is never
// auto-migrated; the storetables package owns the DDL.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
