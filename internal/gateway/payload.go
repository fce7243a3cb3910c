package gateway

import (
	"encoding/base64"
	"errors"
	"path/filepath"
	"strings"

	"github.com/ahmad-alkadri/meme-depot/internal/apperr"
)

var errEmptyImage = errors.New("image payload is empty")

// DecodeImage decodes the base64 image sent by the catalog.
func DecodeImage(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, apperr.Validation(err, "Invalid base64 encoded image")
	}
	if len(data) == 0 {
		return nil, apperr.Validation(errEmptyImage, "Invalid base64 encoded image")
	}
	return data, nil
}

// ValidateFilename rejects names that cannot be used as a flat object key.
func ValidateFilename(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return apperr.Validation(nil, "filename must not be empty")
	case name == "." || name == "..":
		return apperr.Validation(nil, "invalid filename %q", name)
	case strings.ContainsAny(name, `/\`) || filepath.Base(name) != name:
		return apperr.Validation(nil, "filename %q must not contain path separators", name)
	}
	return nil
}
