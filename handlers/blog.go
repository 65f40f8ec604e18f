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
	msgPostCreated = "Publicación creada correctamente."
	msgPostUpdated = "Publicación actualizada correctamente."
	msgPostDeleted = "Publicación eliminada correctamente."

	postsPerPage = 10
)

// BlogHandler serves the public blog and its authenticated CRUD. Creating a
// post only needs a login; editing and deleting need staff or ownership,
// where ownership means the post's author label equals the user's display
// name.
type BlogHandler struct {
	db    *sqlx.DB
	files storage.FileStore
}

// NewBlogHandler creates a new blog handler.
func NewBlogHandler(db *sqlx.DB, files storage.FileStore) *BlogHandler {
	return &BlogHandler{db: db, files: files}
}

type postListPage struct {
	Page
	Posts      []models.Post
	PageNum    int
	TotalPages int
	PrevPage   int
	NextPage   int
}

type postDetailPage struct {
	Page
	Post    models.Post
	CanEdit bool
}

type postFormPage struct {
	Page
	Values     map[string]string
	Errors     accounts.FieldErrors
	Categories []models.BlogCategory
	Image      string
}

// List shows posts newest first, ten per page, with an optional search over
// title, content and category name.
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if pageNum < 1 {
		pageNum = 1
	}

	where := ""
	args := []any{}
	if search != "" {
		where = ` WHERE p.title LIKE ? OR p.content LIKE ? OR c.name LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	var total int
	err := h.db.Get(&total,
		`SELECT COUNT(1) FROM posts p LEFT JOIN blog_categories c ON c.id = p.category_id`+where,
		args...)
	if err != nil {
		serverError(w, r, "Failed to count posts", zap.Error(err))
		return
	}
	totalPages := (total + postsPerPage - 1) / postsPerPage
	if totalPages < 1 {
		totalPages = 1
	}
	if pageNum > totalPages {
		pageNum = totalPages
	}

	var posts []models.Post
	err = h.db.Select(&posts,
		`SELECT p.*, c.name AS category_name
		   FROM posts p
		   LEFT JOIN blog_categories c ON c.id = p.category_id`+where+`
		  ORDER BY p.created_at DESC, p.id DESC
		  LIMIT ? OFFSET ?`,
		append(args, postsPerPage, (pageNum-1)*postsPerPage)...)
	if err != nil {
		serverError(w, r, "Failed to query posts", zap.Error(err))
		return
	}

	render(w, r, "post_list.html", postListPage{
		Page:       Page{Title: "Blog", User: currentUser(r), Flash: popFlash(w, r), Search: search},
		Posts:      posts,
		PageNum:    pageNum,
		TotalPages: totalPages,
		PrevPage:   pageNum - 1,
		NextPage:   pageNum + 1,
	})
}

// Detail is the public post page. Edit controls show only for staff or the
// author.
func (h *BlogHandler) Detail(w http.ResponseWriter, r *http.Request) {
	p, ok := h.postFromPath(w, r)
	if !ok {
		return
	}
	u := currentUser(r)
	canEdit := u != nil && authz.Evaluate(u, authz.RequireLogin, authz.OwnerOrStaff(p.Author)).Allowed
	render(w, r, "post_detail.html", postDetailPage{
		Page:    Page{Title: p.Title, User: u, Flash: popFlash(w, r)},
		Post:    p,
		CanEdit: canEdit,
	})
}

// Create publishes a new post. Any authenticated user may post; the author
// label is forced to the current user's display name, whatever the form said.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, authz.RequireLogin) {
		return
	}
	u := currentUser(r)
	data := postFormPage{
		Page:       Page{Title: "Nueva publicación", User: u},
		Values:     map[string]string{"author": u.DisplayName()},
		Errors:     accounts.FieldErrors{},
		Categories: h.categories(r),
	}
	if r.Method == http.MethodGet {
		render(w, r, "post_form.html", data)
		return
	}

	form, image, fe := h.parsePostForm(r)
	form.Author = u.DisplayName()
	if len(fe) > 0 {
		data.Values = formValues(r, "title", "content", "category")
		data.Values["author"] = u.DisplayName()
		data.Errors = fe
		render(w, r, "post_form.html", data)
		return
	}

	imageURL := ""
	if image != nil {
		url, err := h.files.Save(image.name, image.data)
		if err != nil {
			serverError(w, r, "Failed to store post image", zap.Error(err))
			return
		}
		imageURL = url
	}

	_, err := h.db.Exec(
		`INSERT INTO posts (title, author, content, image, category_id, created_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		form.Title, form.Author, form.Content, imageURL, form.CategoryID)
	if err != nil {
		serverError(w, r, "Failed to create post", zap.Error(err))
		return
	}

	logRequest(r, "info", "Post created", zap.String("title", form.Title), zap.Int64("user_id", u.ID))
	redirectWithFlash(w, r, "/blog/posts", "success", msgPostCreated)
}

// Update edits a post (owner or staff). Without a new upload the existing
// image stays.
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.postFromPath(w, r)
	if !ok {
		return
	}
	if !authorize(w, r, authz.RequireLogin, authz.OwnerOrStaff(p.Author)) {
		return
	}
	data := postFormPage{
		Page: Page{Title: "Editar publicación", User: currentUser(r)},
		Values: map[string]string{
			"title":    p.Title,
			"author":   p.Author,
			"content":  p.Content,
			"category": nullIDValue(p.CategoryID),
		},
		Errors:     accounts.FieldErrors{},
		Categories: h.categories(r),
		Image:      p.Image,
	}
	if r.Method == http.MethodGet {
		render(w, r, "post_form.html", data)
		return
	}

	form, image, fe := h.parsePostForm(r)
	if len(fe) > 0 {
		data.Values = formValues(r, "title", "author", "content", "category")
		data.Errors = fe
		render(w, r, "post_form.html", data)
		return
	}

	imageURL := p.Image
	if image != nil {
		url, err := h.files.Save(image.name, image.data)
		if err != nil {
			serverError(w, r, "Failed to store post image", zap.Error(err))
			return
		}
		imageURL = url
	}

	_, err := h.db.Exec(
		`UPDATE posts SET title = ?, author = ?, content = ?, image = ?, category_id = ? WHERE id = ?`,
		form.Title, form.Author, form.Content, imageURL, form.CategoryID, p.ID)
	if err != nil {
		serverError(w, r, "Failed to update post", zap.Error(err), zap.Int64("post_id", p.ID))
		return
	}

	logRequest(r, "info", "Post updated", zap.Int64("post_id", p.ID))
	redirectWithFlash(w, r, "/blog/posts", "success", msgPostUpdated)
}

// Delete confirms on GET and hard-deletes on POST (owner or staff).
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.postFromPath(w, r)
	if !ok {
		return
	}
	if !authorize(w, r, authz.RequireLogin, authz.OwnerOrStaff(p.Author)) {
		return
	}
	if r.Method == http.MethodGet {
		render(w, r, "confirm_delete.html", confirmPage{
			Page:   Page{Title: "Eliminar publicación", User: currentUser(r)},
			Name:   p.Title,
			Action: "/blog/post/" + strconv.FormatInt(p.ID, 10) + "/delete",
			Cancel: "/blog/posts",
		})
		return
	}

	if _, err := h.db.Exec(`DELETE FROM posts WHERE id = ?`, p.ID); err != nil {
		serverError(w, r, "Failed to delete post", zap.Error(err), zap.Int64("post_id", p.ID))
		return
	}

	logRequest(r, "info", "Post deleted", zap.Int64("post_id", p.ID))
	redirectWithFlash(w, r, "/blog/posts", "success", msgPostDeleted)
}

// CreateCategory adds a blog category (staff only).
func (h *BlogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, authz.RequireLogin, authz.RequireStaff) {
		return
	}
	name := strings.Join(strings.Fields(r.PostFormValue("name")), " ")
	if name == "" {
		redirectWithFlash(w, r, "/blog/posts", "error", accounts.MsgRequired)
		return
	}
	if _, err := h.db.Exec(`INSERT INTO blog_categories (name) VALUES (?)`, name); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			redirectWithFlash(w, r, "/blog/posts", "error", "Esa categoría ya existe.")
			return
		}
		serverError(w, r, "Failed to create blog category", zap.Error(err))
		return
	}
	redirectWithFlash(w, r, "/blog/posts", "success", "Categoría creada correctamente.")
}

type postForm struct {
	Title      string
	Author     string
	Content    string
	CategoryID sql.NullInt64
}

func (h *BlogHandler) parsePostForm(r *http.Request) (postForm, *imageUpload, accounts.FieldErrors) {
	fe := accounts.FieldErrors{}
	form := postForm{
		Title:   strings.Join(strings.Fields(r.PostFormValue("title")), " "),
		Author:  accounts.NormalizeName(r.PostFormValue("author")),
		Content: strings.TrimSpace(r.PostFormValue("content")),
	}
	if form.Title == "" {
		fe["title"] = accounts.MsgRequired
	}
	if form.Content == "" {
		fe["content"] = accounts.MsgRequired
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

func (h *BlogHandler) categories(r *http.Request) []models.BlogCategory {
	var cats []models.BlogCategory
	if err := h.db.Select(&cats, `SELECT * FROM blog_categories ORDER BY name`); err != nil {
		logRequest(r, "error", "Failed to query blog categories", zap.Error(err))
	}
	return cats
}

func (h *BlogHandler) postFromPath(w http.ResponseWriter, r *http.Request) (models.Post, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return models.Post{}, false
	}
	var p models.Post
	err = h.db.Get(&p,
		`SELECT p.*, c.name AS category_name
		   FROM posts p
		   LEFT JOIN blog_categories c ON c.id = p.category_id
		  WHERE p.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return models.Post{}, false
	}
	if err != nil {
		serverError(w, r, "Failed to query post", zap.Error(err), zap.Int64("post_id", id))
		return models.Post{}, false
	}
	return p, true
}
