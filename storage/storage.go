// Package storage persists uploaded media. Handlers validate type and size
// here before delegating the bytes to a FileStore.
package storage

import (
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageBytes caps uploaded images at 2MB.
const MaxImageBytes = 2 << 20

var (
	ErrImageTooLarge = errors.New("la imagen no puede superar los 2 MB")
	ErrImageType     = errors.New("solo se permiten imágenes JPEG, PNG o WEBP")
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ValidateImage checks size and sniffed content type of an upload. The type
// comes from the bytes, not from the client-supplied filename or header.
func ValidateImage(data []byte) error {
	if len(data) > MaxImageBytes {
		return ErrImageTooLarge
	}
	if !allowedImageTypes[http.DetectContentType(data)] {
		return ErrImageType
	}
	return nil
}

// FileStore accepts binary content keyed by a generated path and returns a
// retrievable URL.
type FileStore interface {
	Save(name string, data []byte) (string, error)
}

// DiskStore writes media under Root and serves it below BaseURL. Filenames
// are regenerated with a UUID so uploads never collide or traverse paths.
type DiskStore struct {
	Root    string
	BaseURL string
}

func (s DiskStore) Save(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return "", err
	}
	fname := uuid.New().String() + strings.ToLower(filepath.Ext(name))
	if err := os.WriteFile(filepath.Join(s.Root, fname), data, 0o644); err != nil {
		return "", err
	}
	return path.Join(s.BaseURL, fname), nil
}
