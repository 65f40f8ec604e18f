package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"

	"tienda/storage"
)

// NewRouter wires every page of the store onto a mux router with the session
// middleware applied. The media directory is served below /media/ so stored
// image URLs resolve.
func NewRouter(db *sqlx.DB, files storage.FileStore, mediaDir string, sessionLifetime time.Duration) *mux.Router {
	auth := NewAuthHandler(db, sessionLifetime)
	clients := NewClientHandler(db)
	products := NewProductHandler(db, files)
	blog := NewBlogHandler(db, files)

	r := mux.NewRouter()
	r.Use(withSession(db))

	r.HandleFunc("/", auth.Home).Methods(http.MethodGet)
	r.HandleFunc("/about", auth.About).Methods(http.MethodGet)
	r.HandleFunc("/register", auth.Register).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/login", auth.Login).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", auth.Logout).Methods(http.MethodPost)
	r.HandleFunc("/profile", auth.Profile).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/client/list", clients.List).Methods(http.MethodGet)
	r.HandleFunc("/client/create", clients.Create).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/client/update/{id}", clients.Update).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/client/delete/{id}", clients.Delete).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/catalog", products.Catalog).Methods(http.MethodGet)
	r.HandleFunc("/catalog/{id}", products.Detail).Methods(http.MethodGet)
	r.HandleFunc("/product/list", products.List).Methods(http.MethodGet)
	r.HandleFunc("/product/create", products.Create).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/product/update/{id}", products.Update).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/product/delete/{id}", products.Delete).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/product/category", products.CreateCategory).Methods(http.MethodPost)

	r.HandleFunc("/blog/posts", blog.List).Methods(http.MethodGet)
	r.HandleFunc("/blog/post/new", blog.Create).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/blog/post/{id}", blog.Detail).Methods(http.MethodGet)
	r.HandleFunc("/blog/post/{id}/edit", blog.Update).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/blog/post/{id}/delete", blog.Delete).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/blog/category", blog.CreateCategory).Methods(http.MethodPost)

	if mediaDir != "" {
		r.PathPrefix("/media/").Handler(
			http.StripPrefix("/media/", http.FileServer(http.Dir(mediaDir))))
	}

	return r
}
