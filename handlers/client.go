package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"tienda/accounts"
	"tienda/authz"
	"tienda/models"
)

// Messages reused across the client CRUD.
const (
	msgClientCreated = "Cliente creado correctamente."
	msgClientUpdated = "Cliente actualizado correctamente."
	msgClientDeleted = "Cliente eliminado correctamente."
)

// ClientHandler serves the staff-only client registry. There is no public
// detail view; clients are managed entirely from the list.
type ClientHandler struct {
	db *sqlx.DB
}

// NewClientHandler creates a new client handler.
func NewClientHandler(db *sqlx.DB) *ClientHandler {
	return &ClientHandler{db: db}
}

type clientListPage struct {
	Page
	Clients []models.Client
}

type clientFormPage struct {
	Page
	Values map[string]string
	Errors accounts.FieldErrors
}

// List shows all clients ordered by last then first name, with an optional
// case-insensitive search over both names. Rows with neither name set are
// hidden, they carry no useful registry data.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, authz.RequireLogin, authz.RequireStaff) {
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	query := `SELECT * FROM clients WHERE NOT (first_name = '' AND last_name = '')`
	args := []any{}
	if search != "" {
		query += ` AND (first_name LIKE ? OR last_name LIKE ?)`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY last_name, first_name`

	var clients []models.Client
	if err := h.db.Select(&clients, query, args...); err != nil {
		serverError(w, r, "Failed to query clients", zap.Error(err))
		return
	}

	render(w, r, "client_list.html", clientListPage{
		Page:    Page{Title: "Clientes", User: currentUser(r), Flash: popFlash(w, r), Search: search},
		Clients: clients,
	})
}

// Create adds a client record unlinked to any user.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, authz.RequireLogin, authz.RequireStaff) {
		return
	}
	data := clientFormPage{
		Page:   Page{Title: "Nuevo cliente", User: currentUser(r)},
		Values: map[string]string{},
		Errors: accounts.FieldErrors{},
	}
	if r.Method == http.MethodGet {
		render(w, r, "client_form.html", data)
		return
	}

	form, fe := h.parseClientForm(r)
	if len(fe) > 0 {
		data.Values = formValues(r, "first_name", "last_name", "email", "phone", "address")
		data.Errors = fe
		render(w, r, "client_form.html", data)
		return
	}

	_, err := h.db.Exec(
		`INSERT INTO clients (first_name, last_name, email, phone, address, created_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		form.FirstName, form.LastName, form.Email, form.Phone, form.Address)
	if err != nil {
		serverError(w, r, "Failed to create client", zap.Error(err))
		return
	}

	logRequest(r, "info", "Client created")
	redirectWithFlash(w, r, "/client/list", "success", msgClientCreated)
}

// Update edits a client record. Mirrored fields of linked clients will be
// overwritten again on the next user or profile save.
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, authz.RequireLogin, authz.RequireStaff) {
		return
	}
	c, ok := h.clientFromPath(w, r)
	if !ok {
		return
	}
	data := clientFormPage{
		Page: Page{Title: "Editar cliente", User: currentUser(r)},
		Values: map[string]string{
			"first_name": c.FirstName,
			"last_name":  c.LastName,
			"email":      c.Email,
			"phone":      c.Phone,
			"address":    c.Address,
		},
		Errors: accounts.FieldErrors{},
	}
	if r.Method == http.MethodGet {
		render(w, r, "client_form.html", data)
		return
	}

	form, fe := h.parseClientForm(r)
	if len(fe) > 0 {
		data.Values = formValues(r, "first_name", "last_name", "email", "phone", "address")
		data.Errors = fe
		render(w, r, "client_form.html", data)
		return
	}

	_, err := h.db.Exec(
		`UPDATE clients SET first_name = ?, last_name = ?, email = ?, phone = ?, address = ? WHERE id = ?`,
		form.FirstName, form.LastName, form.Email, form.Phone, form.Address, c.ID)
	if err != nil {
		serverError(w, r, "Failed to update client", zap.Error(err), zap.Int64("client_id", c.ID))
		return
	}

	logRequest(r, "info", "Client updated", zap.Int64("client_id", c.ID))
	redirectWithFlash(w, r, "/client/list", "success", msgClientUpdated)
}

// Delete asks for confirmation on GET and hard-deletes on POST.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, authz.RequireLogin, authz.RequireStaff) {
		return
	}
	c, ok := h.clientFromPath(w, r)
	if !ok {
		return
	}
	if r.Method == http.MethodGet {
		render(w, r, "confirm_delete.html", confirmPage{
			Page:   Page{Title: "Eliminar cliente", User: currentUser(r)},
			Name:   c.FullName(),
			Action: "/client/delete/" + strconv.FormatInt(c.ID, 10),
			Cancel: "/client/list",
		})
		return
	}

	if _, err := h.db.Exec(`DELETE FROM clients WHERE id = ?`, c.ID); err != nil {
		serverError(w, r, "Failed to delete client", zap.Error(err), zap.Int64("client_id", c.ID))
		return
	}

	logRequest(r, "info", "Client deleted", zap.Int64("client_id", c.ID))
	redirectWithFlash(w, r, "/client/list", "success", msgClientDeleted)
}

type clientForm struct {
	FirstName, LastName, Email, Phone, Address string
}

// parseClientForm normalizes the submitted fields. Email is lowercased so
// case-variant duplicates collapse.
func (h *ClientHandler) parseClientForm(r *http.Request) (clientForm, accounts.FieldErrors) {
	fe := accounts.FieldErrors{}
	form := clientForm{
		FirstName: accounts.NormalizeName(r.PostFormValue("first_name")),
		LastName:  accounts.NormalizeName(r.PostFormValue("last_name")),
		Email:     accounts.NormalizeEmail(r.PostFormValue("email")),
		Phone:     strings.TrimSpace(r.PostFormValue("phone")),
		Address:   strings.TrimSpace(r.PostFormValue("address")),
	}
	if form.FirstName == "" && form.LastName == "" {
		fe["first_name"] = accounts.MsgRequired
	}
	return form, fe
}

func (h *ClientHandler) clientFromPath(w http.ResponseWriter, r *http.Request) (models.Client, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return models.Client{}, false
	}
	var c models.Client
	err = h.db.Get(&c, `SELECT * FROM clients WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return models.Client{}, false
	}
	if err != nil {
		serverError(w, r, "Failed to query client", zap.Error(err), zap.Int64("client_id", id))
		return models.Client{}, false
	}
	return c, true
}

// confirmPage backs the shared delete-confirmation template.
type confirmPage struct {
	Page
	Name   string
	Action string
	Cancel string
}
