package models

import (
	"strings"
	"time"
)

// User is an account in the store.
// PasswordHash is a bcrypt hash; the plaintext credential is never stored.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	IsStaff      bool      `db:"is_staff"`
	CreatedAt    time.Time `db:"created_at"`
}

// FullName joins first and last name, empty when neither is set.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName is the name shown in pages and used as the blog author label:
// the full name when present, otherwise the username.
func (u User) DisplayName() string {
	if full := u.FullName(); full != "" {
		return full
	}
	return u.Username
}

// Profile holds the contact details attached one-to-one to a User. It is
// created lazily on first access if missing.
type Profile struct {
	ID      int64  `db:"id"`
	UserID  int64  `db:"user_id"`
	Phone   string `db:"phone"`
	Address string `db:"address"`
}

// Session is a cookie-backed login session stored in the database.
type Session struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}
