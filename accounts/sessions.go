package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tienda/models"
)

// DefaultSessionLifetime applies when the configuration does not override it.
const DefaultSessionLifetime = 24 * time.Hour

type ctxKeyUser struct{}

// WithUser stores the resolved session user in the request context.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser{}, u)
}

// UserFrom returns the authenticated user from the context, or nil for an
// anonymous request.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(ctxKeyUser{}).(*models.User)
	return u
}

// OpenSession creates a login session for the user and returns its ID.
// Older sessions of the same user are dropped.
func OpenSession(db *sqlx.DB, userID int64, lifetime time.Duration) (string, error) {
	tx, err := db.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return "", err
	}

	sid := uuid.New().String()
	now := time.Now().UTC()
	_, err = tx.Exec(
		`INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		sid, userID, now.Add(lifetime), now)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return sid, nil
}

// CloseSession deletes the session row; unknown IDs are not an error.
func CloseSession(db *sqlx.DB, sid string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, sid)
	return err
}

// UserBySession resolves a session cookie value to its user. Expired or
// unknown sessions return ErrNoSession.
func UserBySession(db *sqlx.DB, sid string) (models.User, error) {
	var row struct {
		models.User
		ExpiresAt time.Time `db:"expires_at"`
	}
	err := db.Get(&row,
		`SELECT u.*, s.expires_at
		   FROM sessions s JOIN users u ON u.id = s.user_id
		  WHERE s.id = ?`, sid)
	if notFound(err) {
		return models.User{}, ErrNoSession
	}
	if err != nil {
		return models.User{}, err
	}
	if !row.ExpiresAt.After(time.Now()) {
		return models.User{}, ErrNoSession
	}
	return row.User, nil
}
