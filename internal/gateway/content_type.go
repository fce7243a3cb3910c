package gateway

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const defaultContentType = "application/octet-stream"

// ContentTypeDetector picks the content type stored with an object.
type ContentTypeDetector interface {
	Detect(data []byte, filename string) string
}

// DefaultContentTypeDetector sniffs the payload and falls back to the
// filename extension when the bytes are not recognised.
type DefaultContentTypeDetector struct{}

func NewDefaultContentTypeDetector() *DefaultContentTypeDetector {
	return &DefaultContentTypeDetector{}
}

func (d *DefaultContentTypeDetector) Detect(data []byte, filename string) string {
	if len(data) > 0 {
		detected := mimetype.Detect(data)
		if !detected.Is(defaultContentType) && !detected.Is("text/plain") {
			return detected.String()
		}
	}
	return d.fromFilename(filename)
}

func (d *DefaultContentTypeDetector) fromFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return defaultContentType
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}
	return defaultContentType
}
