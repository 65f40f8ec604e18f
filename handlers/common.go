package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/umakantv/go-utils/errs"
	logger "github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"

	"tienda/authz"
	"tienda/models"
	"tienda/web"
)

// Flash is a one-shot message carried across a redirect in a cookie and
// drained by the next rendered page.
type Flash struct {
	Level   string // "success" or "error"
	Message string
}

const flashCookie = "flash"

func setFlash(w http.ResponseWriter, level, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.URLEncoding.EncodeToString([]byte(level + "|" + message)),
		Path:     "/",
		HttpOnly: true,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	raw, err := base64.URLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	level, msg, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil
	}
	return &Flash{Level: level, Message: msg}
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, target, level, message string) {
	setFlash(w, level, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Page carries the fields every template expects.
type Page struct {
	Title  string
	User   *models.User
	Flash  *Flash
	Search string
}

// authorize evaluates the predicate chain for the current user and performs
// the deny redirect itself. Handlers bail out when it returns false.
func authorize(w http.ResponseWriter, r *http.Request, preds ...authz.Predicate) bool {
	d := authz.Evaluate(currentUser(r), preds...)
	if d.Allowed {
		return true
	}
	if d.ToLogin {
		http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
		return false
	}
	redirectWithFlash(w, r, "/", "error", d.Message)
	return false
}

func render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if err := web.Render(w, name, data); err != nil {
		logRequest(r, "error", "Failed to render template", zap.String("template", name), zap.Error(err))
	}
}

// serverError logs an unexpected failure and answers with the standard error
// envelope. There is no themed error page.
func serverError(w http.ResponseWriter, r *http.Request, message string, fields ...zap.Field) {
	logRequest(r, "error", message, fields...)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(errs.NewInternalServerError("Error interno del servidor"))
}

// badRequest rejects a form submission the server could not parse.
func badRequest(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(errs.NewValidationError("Solicitud inválida"))
}

// logRequest logs with the request method and path attached, the shared
// shape used by every handler in this package.
func logRequest(r *http.Request, level string, message string, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}, fields...)

	switch level {
	case "info":
		logger.Info(message, allFields...)
	case "error":
		logger.Error(message, allFields...)
	case "debug":
		logger.Debug(message, allFields...)
	}
}
