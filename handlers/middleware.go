package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"

	"tienda/accounts"
	"tienda/models"
)

// SessionCookie names the login session cookie.
const SessionCookie = "session_id"

// withSession resolves the session cookie to a user and stores it in the
// request context. Anonymous and expired sessions pass through with no user.
func withSession(db *sqlx.DB) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
				if u, err := accounts.UserBySession(db, c.Value); err == nil {
					r = r.WithContext(accounts.WithUser(r.Context(), &u))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func currentUser(r *http.Request) *models.User {
	return accounts.UserFrom(r.Context())
}
