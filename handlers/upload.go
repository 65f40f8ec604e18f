package handlers

import (
	"errors"
	"io"
	"net/http"

	"tienda/storage"
)

// readImageUpload pulls the optional "image" file out of a multipart form and
// validates it. Returns nil data when no file was submitted, so callers can
// keep an existing image on edit.
func readImageUpload(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	// One byte past the cap is enough to detect an oversized upload without
	// buffering the whole thing.
	data, err := io.ReadAll(io.LimitReader(file, storage.MaxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		// Browsers send an empty part when the file input is left blank.
		return nil, "", nil
	}
	if err := storage.ValidateImage(data); err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}
