package models

import (
	"database/sql"
	"time"
)

// BlogCategory classifies posts, independent from product categories.
type BlogCategory struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Post is a blog entry. Author is a free-text label, not a foreign key; the
// ownership check compares it against the current user's display name.
type Post struct {
	ID         int64         `db:"id"`
	Title      string        `db:"title"`
	Author     string        `db:"author"`
	Content    string        `db:"content"`
	Image      string        `db:"image"`
	CategoryID sql.NullInt64 `db:"category_id"`
	CreatedAt  time.Time     `db:"created_at"`

	// Joined from blog_categories on list/detail queries.
	CategoryName sql.NullString `db:"category_name"`
}
