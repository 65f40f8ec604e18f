// Package accounts owns the identity chain of the store: the User record,
// its Profile (contact details) and the staff-visible Client record that
// mirrors both. Every write path that touches a User or Profile goes through
// this package so the Client mirror is rewritten in the same transaction.
package accounts

import (
	"database/sql"
	"errors"
	"net/mail"
	"sort"
	"strings"
	"unicode"

	"github.com/jmoiron/sqlx"

	"tienda/models"
)

var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
	ErrInvalidLogin  = errors.New("invalid username or password")
	ErrNoSession     = errors.New("session not found")
)

// Validation messages shown to the user, in Spanish like the rest of the UI.
const (
	MsgEmailTaken       = "Ese correo ya está registrado."
	MsgUsernameTaken    = "Ese nombre de usuario ya está en uso."
	MsgPasswordMismatch = "Las contraseñas no coinciden."
	MsgPasswordTooShort = "Esta contraseña es demasiado corta. Debe contener al menos 8 caracteres."
	MsgInvalidEmail     = "Ingresa un correo electrónico válido."
	MsgRequired         = "Este campo es obligatorio."
)

// MinPasswordLength matches the registration password policy.
const MinPasswordLength = 8

// FieldErrors maps form field names to a user-facing message. It is returned
// by validation so handlers can re-render the form with per-field errors and
// no partial persistence.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// NormalizeName collapses runs of whitespace and title-cases each word, the
// normalization applied to person names and blog author labels.
func NormalizeName(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// NormalizeEmail lowercases and trims an address so case-variant duplicates
// collapse to one canonical form.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}

// UserByID fetches a user row.
func UserByID(q sqlx.Queryer, id int64) (models.User, error) {
	var u models.User
	err := sqlx.Get(q, &u, `SELECT * FROM users WHERE id = ?`, id)
	return u, err
}

// UserByUsername fetches a user row by its unique username.
func UserByUsername(q sqlx.Queryer, username string) (models.User, error) {
	var u models.User
	err := sqlx.Get(q, &u, `SELECT * FROM users WHERE username = ?`, username)
	return u, err
}

// ProfileByUserID fetches the profile linked to a user. Returns
// sql.ErrNoRows when the user has no profile yet.
func ProfileByUserID(q sqlx.Queryer, userID int64) (models.Profile, error) {
	var p models.Profile
	err := sqlx.Get(q, &p, `SELECT * FROM profiles WHERE user_id = ?`, userID)
	return p, err
}

// ClientByUserID fetches the client record linked to a user.
func ClientByUserID(q sqlx.Queryer, userID int64) (models.Client, error) {
	var c models.Client
	err := sqlx.Get(q, &c, `SELECT * FROM clients WHERE user_id = ?`, userID)
	return c, err
}

func emailInUse(q sqlx.Queryer, email string, excludeUserID int64) (bool, error) {
	var n int
	err := sqlx.Get(q, &n,
		`SELECT COUNT(1) FROM users WHERE lower(email) = ? AND id <> ?`,
		NormalizeEmail(email), excludeUserID)
	return n > 0, err
}

func usernameInUse(q sqlx.Queryer, username string) (bool, error) {
	var n int
	err := sqlx.Get(q, &n, `SELECT COUNT(1) FROM users WHERE username = ?`, username)
	return n > 0, err
}

// isUniqueErr reports whether err is a SQLite unique-constraint violation on
// the given column. Backstop for races that slip past the pre-insert checks.
func isUniqueErr(err error, col string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") && strings.Contains(msg, strings.ToLower(col))
}

// notFound normalizes the no-rows sentinel across helpers.
func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
