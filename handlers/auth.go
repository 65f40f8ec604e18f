package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"tienda/accounts"
	"tienda/authz"
)

// AuthHandler serves registration, login/logout and the profile self-edit.
type AuthHandler struct {
	db              *sqlx.DB
	sessionLifetime time.Duration
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(db *sqlx.DB, sessionLifetime time.Duration) *AuthHandler {
	if sessionLifetime <= 0 {
		sessionLifetime = accounts.DefaultSessionLifetime
	}
	return &AuthHandler{db: db, sessionLifetime: sessionLifetime}
}

type authPage struct {
	Page
	Values    map[string]string
	Errors    accounts.FieldErrors
	FormError string
	Next      string
}

// Home renders the landing page.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	render(w, r, "home.html", Page{Title: "Inicio", User: currentUser(r), Flash: popFlash(w, r)})
}

// About renders the static about page.
func (h *AuthHandler) About(w http.ResponseWriter, r *http.Request) {
	render(w, r, "about.html", Page{Title: "Acerca de", User: currentUser(r), Flash: popFlash(w, r)})
}

// Register shows the sign-up form and creates the account. A successful
// registration also creates the Profile and Client records and logs the new
// user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data := authPage{
		Page:   Page{Title: "Crear cuenta"},
		Values: map[string]string{},
		Errors: accounts.FieldErrors{},
	}
	if r.Method == http.MethodGet {
		render(w, r, "register.html", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		badRequest(w)
		return
	}
	in := accounts.RegisterInput{
		Username:        r.PostFormValue("username"),
		FirstName:       r.PostFormValue("first_name"),
		LastName:        r.PostFormValue("last_name"),
		Email:           r.PostFormValue("email"),
		Phone:           r.PostFormValue("phone"),
		Address:         r.PostFormValue("address"),
		Password:        r.PostFormValue("password1"),
		PasswordConfirm: r.PostFormValue("password2"),
	}

	u, err := accounts.Register(h.db, in)
	var fe accounts.FieldErrors
	if errors.As(err, &fe) {
		data.Values = formValues(r, "username", "first_name", "last_name", "email", "phone", "address")
		data.Errors = fe
		render(w, r, "register.html", data)
		return
	}
	if err != nil {
		serverError(w, r, "Registration failed", zap.Error(err))
		return
	}

	logRequest(r, "info", "User registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	h.openSession(w, r, u.ID)
	redirectWithFlash(w, r, "/", "success", "¡Bienvenido, "+u.DisplayName()+"!")
}

// Login authenticates with username and password. Authenticated visitors are
// bounced straight to their destination.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.FormValue("next"))
	if currentUser(r) != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	data := authPage{
		Page:   Page{Title: "Iniciar sesión"},
		Values: map[string]string{},
		Next:   next,
	}
	if r.Method == http.MethodGet {
		render(w, r, "login.html", data)
		return
	}

	username := r.PostFormValue("username")
	u, err := accounts.Authenticate(h.db, username, r.PostFormValue("password"))
	if errors.Is(err, accounts.ErrInvalidLogin) {
		logRequest(r, "info", "Login rejected", zap.String("username", username))
		data.Values["username"] = username
		data.FormError = "Usuario o contraseña incorrectos."
		render(w, r, "login.html", data)
		return
	}
	if err != nil {
		serverError(w, r, "Login failed", zap.Error(err))
		return
	}

	logRequest(r, "info", "Login successful", zap.Int64("user_id", u.ID))
	h.openSession(w, r, u.ID)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout closes the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		if err := accounts.CloseSession(h.db, c.Value); err != nil {
			logRequest(r, "error", "Failed to close session", zap.Error(err))
		}
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Profile lets the user edit first/last name and email (User) plus phone and
// address (Profile) in one page. Both field groups validate before either is
// saved; the Client mirror follows in the same transaction.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, authz.RequireLogin) {
		return
	}
	u := currentUser(r)

	if r.Method == http.MethodGet {
		// Lazily ensure the profile exists before first edit.
		if err := accounts.EnsureProfile(h.db, u.ID); err != nil {
			serverError(w, r, "Failed to ensure profile", zap.Error(err))
			return
		}
		p, err := accounts.ProfileByUserID(h.db, u.ID)
		if err != nil {
			serverError(w, r, "Failed to load profile", zap.Error(err))
			return
		}
		render(w, r, "profile.html", authPage{
			Page: Page{Title: "Mi perfil", User: u, Flash: popFlash(w, r)},
			Values: map[string]string{
				"first_name": u.FirstName,
				"last_name":  u.LastName,
				"email":      u.Email,
				"phone":      p.Phone,
				"address":    p.Address,
			},
			Errors: accounts.FieldErrors{},
		})
		return
	}

	if err := r.ParseForm(); err != nil {
		badRequest(w)
		return
	}
	edit := accounts.IdentityEdit{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
		Phone:     r.PostFormValue("phone"),
		Address:   r.PostFormValue("address"),
	}

	err := accounts.UpdateIdentity(h.db, u.ID, edit)
	var fe accounts.FieldErrors
	if errors.As(err, &fe) {
		render(w, r, "profile.html", authPage{
			Page:   Page{Title: "Mi perfil", User: u},
			Values: formValues(r, "first_name", "last_name", "email", "phone", "address"),
			Errors: fe,
		})
		return
	}
	if err != nil {
		serverError(w, r, "Profile update failed", zap.Error(err))
		return
	}

	logRequest(r, "info", "Profile updated", zap.Int64("user_id", u.ID))
	redirectWithFlash(w, r, "/profile", "success", "Perfil actualizado correctamente.")
}

func (h *AuthHandler) openSession(w http.ResponseWriter, r *http.Request, userID int64) {
	sid, err := accounts.OpenSession(h.db, userID, h.sessionLifetime)
	if err != nil {
		logRequest(r, "error", "Failed to open session", zap.Error(err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(h.sessionLifetime / time.Second),
	})
}

// safeNext keeps post-login redirects inside the site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

func formValues(r *http.Request, names ...string) map[string]string {
	values := make(map[string]string, len(names))
	for _, n := range names {
		values[n] = r.PostFormValue(n)
	}
	return values
}
