package models

import (
	"database/sql"
	"time"
)

// Category classifies products (Aventura, Romance, ...). Product and blog
// categories are separate namespaces, see BlogCategory.
type Category struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Product is a catalog item: a book, game or other article for sale.
// Image holds the public URL of the cover, empty when none was uploaded.
type Product struct {
	ID          int64         `db:"id"`
	Title       string        `db:"title"`
	Author      string        `db:"author"`
	Description string        `db:"description"`
	Price       float64       `db:"price"`
	Stock       int64         `db:"stock"`
	CategoryID  sql.NullInt64 `db:"category_id"`
	Image       string        `db:"image"`
	CreatedAt   time.Time     `db:"created_at"`

	// Joined from product_categories on list/detail queries.
	CategoryName sql.NullString `db:"category_name"`
}
