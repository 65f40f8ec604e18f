package models

import (
	"database/sql"
	"strings"
	"time"
)

// Client is the staff-visible commercial record of a person. When linked to a
// User, its name/email/phone/address columns mirror the User and Profile and
// are rewritten by the accounts sync whenever either changes. A Client may
// also exist with no linked User (registered manually by staff).
type Client struct {
	ID        int64         `db:"id"`
	UserID    sql.NullInt64 `db:"user_id"`
	FirstName string        `db:"first_name"`
	LastName  string        `db:"last_name"`
	Email     string        `db:"email"`
	Phone     string        `db:"phone"`
	Address   string        `db:"address"`
	CreatedAt time.Time     `db:"created_at"`
}

// FullName joins first and last name for lists and reports.
func (c Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
