package catalog

import (
	"strings"
	"time"
)

// Meme is a catalog row. Filename is the object key in the storage gateway
// and ImageURL the presigned URL the gateway returned for it.
type Meme struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:meme_name;uniqueIndex;not null"`
	Filename    string    `gorm:"column:filename;not null"`
	ImageURL    string    `gorm:"column:image_url;not null"`
	Text        string    `gorm:"column:text;not null"`
	DateAdded   time.Time `gorm:"column:date_added;not null"`
	DateUpdated time.Time `gorm:"column:date_updated;not null"`
}

func (Meme) TableName() string {
	return "memes"
}

// MemeChanges holds optional metadata updates. Nil or blank values leave the
// field untouched.
type MemeChanges struct {
	Name *string
	Text *string
}

// Empty reports whether no field would change.
func (c MemeChanges) Empty() bool {
	_, name := nonBlank(c.Name)
	_, text := nonBlank(c.Text)
	return !name && !text
}

// StoredImage is an object the gateway has written, with its URL.
type StoredImage struct {
	Filename string
	URL      string
}

// Apply returns the next state of m. Filename and ImageURL are only ever
// replaced together, from image.
func (m Meme) Apply(changes MemeChanges, image *StoredImage, now time.Time) Meme {
	next := m
	if name, ok := nonBlank(changes.Name); ok {
		next.Name = name
	}
	if text, ok := nonBlank(changes.Text); ok {
		next.Text = text
	}
	if image != nil {
		next.Filename = image.Filename
		next.ImageURL = image.URL
	}
	next.DateUpdated = now
	return next
}

func nonBlank(s *string) (string, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "", false
	}
	return *s, true
}
