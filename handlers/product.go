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
	"tienda/storage"
)

const (
	msgProductCreated = "Producto creado correctamente."
	msgProductUpdated = "Producto actualizado correctamente."
	msgProductDeleted = "Producto eliminado correctamente."

	msgPriceNegative = "El precio no puede ser negativo."
	msgPriceInvalid  = "Ingresa un precio válido."
	msgStockInvalid  = "Ingresa un stock válido."
)

// ProductHandler serves the staff product CRUD and the public catalog.
type ProductHandler struct {
	db    *sqlx.DB
	files storage.FileStore
}

// NewProductHandler creates a new product handler.
func NewProductHandler(db *sqlx.DB, files storage.FileStore) *ProductHandler {
	return &ProductHandler{db: db, files: files}
}

type productListPage struct {
	Page
	Products []models.Product
}

type productFormPage struct {
	Page
	Values     map[string]string
	Errors     accounts.FieldErrors
	Categories []models.Category
	Image      string
}

type productDetailPage struct {
	Page
	Product models.Product
}

// searchProducts runs the shared list query: title, author or category name,
// case-insensitive substring, ordered by title.
func (h *ProductHandler) searchProducts(search string) ([]models.Product, error) {
	query := `SELECT p.*, c.name AS category_name
	            FROM products p
	            LEFT JOIN product_categories c ON c.id = p.category_id`
	args := []any{}
	if search != "" {
		query += ` WHERE p.title LIKE ? OR p.author LIKE ? OR c.name LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY p.title`

	var products []models.Product
	err := h.db.Select(&products, query, args...)
	return products, err
}

// List is the staff-facing product table with search.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, authz.RequireLogin, authz.RequireStaff) {
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	products, err := h.searchProducts(search)
	if err != nil {
		serverError(w, r, "Failed to query products", zap.Error(err))
		return
	}
	render(w, r, "product_list.html", productListPage{
		Page:     Page{Title: "Productos", User: currentUser(r), Flash: popFlash(w, r), Search: search},
		Products: products,
	})
}

// Catalog is the public storefront listing, same search as the staff list.
func (h *ProductHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	products, err := h.searchProducts(search)
	if err != nil {
		serverError(w, r, "Failed to query catalog", zap.Error(err))
		return
	}
	render(w, r, "product_catalog.html", productListPage{
		Page:     Page{Title: "Catálogo", User: currentUser(r), Flash: popFlash(w, r), Search: search},
		Products: products,
	})
}

// Detail is the public product page.
func (h *ProductHandler) Detail(w http.ResponseWriter, r *http.Request) {
	p, ok := h.productFromPath(w, r)
	if !ok {
		return
	}
	render(w, r, "product_detail.html", productDetailPage{
		Page:    Page{Title: p.Title, User: currentUser(r), Flash: popFlash(w, r)},
		Product: p,
	})
}

// Create adds a product (staff only).
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, authz.RequireLogin, authz.RequireStaff) {
		return
	}
	data := productFormPage{
		Page:       Page{Title: "Nuevo producto", User: currentUser(r)},
		Values:     map[string]string{},
		Errors:     accounts.FieldErrors{},
		Categories: h.categories(r),
	}
	if r.Method == http.MethodGet {
		render(w, r, "product_form.html", data)
		return
	}

	form, image, fe := h.parseProductForm(r)
	if len(fe) > 0 {
		data.Values = formValues(r, "title", "author", "description", "price", "stock", "category")
		data.Errors = fe
		render(w, r, "product_form.html", data)
		return
	}

	imageURL := ""
	if image != nil {
		url, err := h.files.Save(image.name, image.data)
		if err != nil {
			serverError(w, r, "Failed to store product image", zap.Error(err))
			return
		}
		imageURL = url
	}

	_, err := h.db.Exec(
		`INSERT INTO products (title, author, description, price, stock, category_id, image, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		form.Title, form.Author, form.Description, form.Price, form.Stock, form.CategoryID, imageURL)
	if err != nil {
		serverError(w, r, "Failed to create product", zap.Error(err))
		return
	}

	logRequest(r, "info", "Product created", zap.String("title", form.Title))
	redirectWithFlash(w, r, "/product/list", "success", msgProductCreated)
}

// Update edits a product (staff only). When no new image is uploaded the
// existing one is kept.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, authz.RequireLogin, authz.RequireStaff) {
		return
	}
	p, ok := h.productFromPath(w, r)
	if !ok {
		return
	}
	data := productFormPage{
		Page: Page{Title: "Editar producto", User: currentUser(r)},
		Values: map[string]string{
			"title":       p.Title,
			"author":      p.Author,
			"description": p.Description,
			"price":       strconv.FormatFloat(p.Price, 'f', 2, 64),
			"stock":       strconv.FormatInt(p.Stock, 10),
			"category":    nullIDValue(p.CategoryID),
		},
		Errors:     accounts.FieldErrors{},
		Categories: h.categories(r),
		Image:      p.Image,
	}
	if r.Method == http.MethodGet {
		render(w, r, "product_form.html", data)
		return
	}

	form, image, fe := h.parseProductForm(r)
	if len(fe) > 0 {
		data.Values = formValues(r, "title", "author", "description", "price", "stock", "category")
		data.Errors = fe
		render(w, r, "product_form.html", data)
		return
	}

	imageURL := p.Image
	if image != nil {
		url, err := h.files.Save(image.name, image.data)
		if err != nil {
			serverError(w, r, "Failed to store product image", zap.Error(err))
			return
		}
		imageURL = url
	}

	_, err := h.db.Exec(
		`UPDATE products SET title = ?, author = ?, description = ?, price = ?, stock = ?, category_id = ?, image = ?
		  WHERE id = ?`,
		form.Title, form.Author, form.Description, form.Price, form.Stock, form.CategoryID, imageURL, p.ID)
	if err != nil {
		serverError(w, r, "Failed to update product", zap.Error(err), zap.Int64("product_id", p.ID))
		return
	}

	logRequest(r, "info", "Product updated", zap.Int64("product_id", p.ID))
	redirectWithFlash(w, r, "/product/list", "success", msgProductUpdated)
}

// Delete confirms on GET and hard-deletes on POST (staff only).
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, authz.RequireLogin, authz.RequireStaff) {
		return
	}
	p, ok := h.productFromPath(w, r)
	if !ok {
		return
	}
	if r.Method == http.MethodGet {
		render(w, r, "confirm_delete.html", confirmPage{
			Page:   Page{Title: "Eliminar producto", User: currentUser(r)},
			Name:   p.Title,
			Action: "/product/delete/" + strconv.FormatInt(p.ID, 10),
			Cancel: "/product/list",
		})
		return
	}

	if _, err := h.db.Exec(`DELETE FROM products WHERE id = ?`, p.ID); err != nil {
		serverError(w, r, "Failed to delete product", zap.Error(err), zap.Int64("product_id", p.ID))
		return
	}

	logRequest(r, "info", "Product deleted", zap.Int64("product_id", p.ID))
	redirectWithFlash(w, r, "/product/list", "success", msgProductDeleted)
}

// CreateCategory adds a product category (staff only). Duplicates flash an
// error instead of failing the request.
func (h *ProductHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, authz.RequireLogin, authz.RequireStaff) {
		return
	}
	name := strings.Join(strings.Fields(r.PostFormValue("name")), " ")
	if name == "" {
		redirectWithFlash(w, r, "/product/list", "error", accounts.MsgRequired)
		return
	}
	if _, err := h.db.Exec(`INSERT INTO product_categories (name) VALUES (?)`, name); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			redirectWithFlash(w, r, "/product/list", "error", "Esa categoría ya existe.")
			return
		}
		serverError(w, r, "Failed to create category", zap.Error(err))
		return
	}
	redirectWithFlash(w, r, "/product/list", "success", "Categoría creada correctamente.")
}

type productForm struct {
	Title       string
	Author      string
	Description string
	Price       float64
	Stock       int64
	CategoryID  sql.NullInt64
}

type imageUpload struct {
	name string
	data []byte
}

func (h *ProductHandler) parseProductForm(r *http.Request) (productForm, *imageUpload, accounts.FieldErrors) {
	fe := accounts.FieldErrors{}
	form := productForm{
		// Collapse internal runs of spaces and trim the ends.
		Title:       strings.Join(strings.Fields(r.PostFormValue("title")), " "),
		Author:      strings.TrimSpace(r.PostFormValue("author")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
	if form.Title == "" {
		fe["title"] = accounts.MsgRequired
	}
	if form.Author == "" {
		fe["author"] = accounts.MsgRequired
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("price")), 64)
	switch {
	case err != nil:
		fe["price"] = msgPriceInvalid
	case price < 0:
		fe["price"] = msgPriceNegative
	default:
		form.Price = price
	}

	stock, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("stock")), 10, 64)
	if err != nil || stock < 0 {
		fe["stock"] = msgStockInvalid
	} else {
		form.Stock = stock
	}

	form.CategoryID = parseCategoryID(r.PostFormValue("category"))

	data, name, err := readImageUpload(r)
	if err != nil {
		fe["image"] = imageErrorMessage(err)
	}

	var image *imageUpload
	if data != nil {
		image = &imageUpload{name: name, data: data}
	}
	return form, image, fe
}

func (h *ProductHandler) categories(r *http.Request) []models.Category {
	var cats []models.Category
	if err := h.db.Select(&cats, `SELECT * FROM product_categories ORDER BY name`); err != nil {
		logRequest(r, "error", "Failed to query categories", zap.Error(err))
	}
	return cats
}

func (h *ProductHandler) productFromPath(w http.ResponseWriter, r *http.Request) (models.Product, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return models.Product{}, false
	}
	var p models.Product
	err = h.db.Get(&p,
		`SELECT p.*, c.name AS category_name
		   FROM products p
		   LEFT JOIN product_categories c ON c.id = p.category_id
		  WHERE p.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return models.Product{}, false
	}
	if err != nil {
		serverError(w, r, "Failed to query product", zap.Error(err), zap.Int64("product_id", id))
		return models.Product{}, false
	}
	return p, true
}

func parseCategoryID(raw string) sql.NullInt64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

func nullIDValue(id sql.NullInt64) string {
	if !id.Valid {
		return ""
	}
	return strconv.FormatInt(id.Int64, 10)
}

func imageErrorMessage(err error) string {
	switch {
	case errors.Is(err, storage.ErrImageTooLarge):
		return "La imagen no puede superar los 2 MB."
	case errors.Is(err, storage.ErrImageType):
		return "Solo se permiten imágenes JPEG, PNG o WEBP."
	default:
		return "No se pudo procesar la imagen."
	}
}
