package server

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"

	"tienda/accounts"
	"tienda/database"
	"tienda/handlers"
	"tienda/storage"
)

// Config holds the runtime settings, all overridable from the environment.
type Config struct {
	Addr            string
	DatabasePath    string
	MediaDir        string
	SessionLifetime time.Duration
}

// LoadConfig reads the environment with sane defaults for local development.
func LoadConfig() Config {
	lifetime := accounts.DefaultSessionLifetime
	if hours, err := strconv.Atoi(getenv("SESSION_LIFETIME_HOURS", "24")); err == nil && hours > 0 {
		lifetime = time.Duration(hours) * time.Hour
	}
	return Config{
		Addr:            getenv("ADDR", ":8080"),
		DatabasePath:    getenv("DATABASE_PATH", "./tienda.db"),
		MediaDir:        getenv("MEDIA_DIR", "./media"),
		SessionLifetime: lifetime,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// StartServer boots the storefront: logger, database, routes, listen.
func StartServer() {
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})

	logger.Info("Starting Tienda de Historias...")

	cfg := LoadConfig()

	dbConn := database.InitializeDatabase(cfg.DatabasePath)
	defer dbConn.Close()

	files := storage.DiskStore{Root: cfg.MediaDir, BaseURL: "/media"}
	router := handlers.NewRouter(dbConn, files, cfg.MediaDir, cfg.SessionLifetime)

	logger.Info("Tienda de Historias listening", zap.String("addr", cfg.Addr))

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server failed", zap.Error(err))
		os.Exit(1)
	}
}
