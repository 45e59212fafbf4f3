package models

import "time"

// Product is a catalog entry. The order desk only reads the catalog; editing
// and its validation rules live elsewhere.
type Product struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Price     float64   `db:"price" json:"price"`
	InStock   bool      `db:"in_stock" json:"in_stock"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
