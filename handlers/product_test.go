package handlers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalog(t *testing.T, db *sqlx.DB) {
	t.Helper()
	db.MustExec(`INSERT INTO product_categories (id, name) VALUES (1, 'Aventura'), (2, 'Romance')`)
	db.MustExec(`
		INSERT INTO products (title, author, description, price, stock, category_id) VALUES
		('El viaje', 'J. Marino', 'Una travesía', 1500.00, 3, 1),
		('Aventuras en el mar', 'L. Costa', 'Olas y sal', 900.50, 1, 2),
		('Cartas de amor', 'M. Bonet', 'Epistolar', 700.00, 2, 2)`)
}

func TestProductCreateRejectsNegativePrice(t *testing.T) {
	db, router := newTestRouter(t)
	staff := newUser(t, db, "jefa", "Jefa", "Tienda", true)
	db.MustExec(`INSERT INTO product_categories (id, name) VALUES (1, 'Aventura')`)

	rec := doPost(t, router, "/product/create", url.Values{
		"title":    {"El viaje"},
		"author":   {"J. Marino"},
		"price":    {"-5.00"},
		"stock":    {"1"},
		"category": {"1"},
	}, sessionCookie(t, db, staff.ID))

	require.Equal(t, http.StatusOK, rec.Code, "form re-renders with errors")
	assert.Contains(t, rec.Body.String(), "El precio no puede ser negativo.")

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(1) FROM products`))
	assert.Zero(t, n, "no row may exist after a rejected create")
}

func TestProductCreateNormalizesTitle(t *testing.T) {
	db, router := newTestRouter(t)
	staff := newUser(t, db, "jefa", "Jefa", "Tienda", true)

	rec := doPost(t, router, "/product/create", url.Values{
		"title":  {"  El   viaje  "},
		"author": {"J. Marino"},
		"price":  {"1500.00"},
		"stock":  {"3"},
	}, sessionCookie(t, db, staff.ID))
	assert.Equal(t, "/product/list", location(t, rec))

	var title string
	require.NoError(t, db.Get(&title, `SELECT title FROM products`))
	assert.Equal(t, "El viaje", title)
}

func TestProductSearchMatchesTitleAuthorAndCategory(t *testing.T) {
	db, router := newTestRouter(t)
	staff := newUser(t, db, "jefa", "Jefa", "Tienda", true)
	seedCatalog(t, db)

	rec := doGet(t, router, "/product/list?search=aventura", sessionCookie(t, db, staff.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "El viaje", "matches via category name")
	assert.Contains(t, body, "Aventuras en el mar", "matches via title")
	assert.NotContains(t, body, "Cartas de amor")
}

func TestCatalogIsPublic(t *testing.T) {
	db, router := newTestRouter(t)
	seedCatalog(t, db)

	rec := doGet(t, router, "/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "El viaje")

	rec = doGet(t, router, "/catalog?search=costa", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Aventuras en el mar", "matches via author")
	assert.NotContains(t, rec.Body.String(), "Cartas de amor")
}

func TestProductDetail(t *testing.T) {
	db, router := newTestRouter(t)
	seedCatalog(t, db)

	var id int64
	require.NoError(t, db.Get(&id, `SELECT id FROM products WHERE title = 'El viaje'`))

	rec := doGet(t, router, "/catalog/"+itoa(id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Una travesía")
	assert.Contains(t, rec.Body.String(), "Aventura")

	rec = doGet(t, router, "/catalog/9999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductCrudIsStaffOnly(t *testing.T) {
	db, router := newTestRouter(t)
	plain := newUser(t, db, "cliente", "Cliente", "Comun", false)
	seedCatalog(t, db)

	rec := doGet(t, router, "/product/list", sessionCookie(t, db, plain.ID))
	assert.Equal(t, "/", location(t, rec))

	rec = doPost(t, router, "/product/create", url.Values{
		"title": {"Colado"}, "author": {"N. Adie"}, "price": {"1"}, "stock": {"1"},
	}, sessionCookie(t, db, plain.ID))
	assert.Equal(t, "/", location(t, rec))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(1) FROM products WHERE title = 'Colado'`))
	assert.Zero(t, n)
}

func TestProductUpdateKeepsImageWithoutNewUpload(t *testing.T) {
	db, router := newTestRouter(t)
	staff := newUser(t, db, "jefa", "Jefa", "Tienda", true)
	db.MustExec(`INSERT INTO products (id, title, author, price, stock, image) VALUES
		(5, 'El viaje', 'J. Marino', 1500, 3, '/media/portada.png')`)

	rec := doPost(t, router, "/product/update/5", url.Values{
		"title":  {"El viaje"},
		"author": {"J. Marino"},
		"price":  {"1600"},
		"stock":  {"2"},
	}, sessionCookie(t, db, staff.ID))
	assert.Equal(t, "/product/list", location(t, rec))

	var image string
	require.NoError(t, db.Get(&image, `SELECT image FROM products WHERE id = 5`))
	assert.Equal(t, "/media/portada.png", image)
}

func TestProductDelete(t *testing.T) {
	db, router := newTestRouter(t)
	staff := newUser(t, db, "jefa", "Jefa", "Tienda", true)
	db.MustExec(`INSERT INTO products (id, title, author, price, stock) VALUES (9, 'Sobrante', 'X', 1, 1)`)

	rec := doPost(t, router, "/product/delete/9", nil, sessionCookie(t, db, staff.ID))
	assert.Equal(t, "/product/list", location(t, rec))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(1) FROM products WHERE id = 9`))
	assert.Zero(t, n)
}

func TestProductCategoryCreate(t *testing.T) {
	db, router := newTestRouter(t)
	staff := newUser(t, db, "jefa", "Jefa", "Tienda", true)

	rec := doPost(t, router, "/product/category", url.Values{"name": {"  Ciencia   Ficción "}},
		sessionCookie(t, db, staff.ID))
	assert.Equal(t, "/product/list", location(t, rec))

	var name string
	require.NoError(t, db.Get(&name, `SELECT name FROM product_categories`))
	assert.Equal(t, "Ciencia Ficción", name)

	// Duplicate flashes an error instead of failing.
	rec = doPost(t, router, "/product/category", url.Values{"name": {"Ciencia Ficción"}},
		sessionCookie(t, db, staff.ID))
	assert.Equal(t, "/product/list", location(t, rec))
}
