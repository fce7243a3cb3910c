package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ahmad-alkadri/meme-depot/internal/apperr"
)

const (
	DefaultLimit = 5
	MaxLimit     = 100
)

// NewMeme is the input of Create.
type NewMeme struct {
	Name     string
	Text     string
	Filename string
	Image    []byte
}

// ImageUpload is a replacement image for Update.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// Service implements the catalog operations on top of a Store and the
// storage gateway.
type Service struct {
	store   Store
	gateway Gateway
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(store Store, gateway Gateway, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		gateway: gateway,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create uploads the image and inserts the row. The row is only written once
// the gateway has returned a URL.
func (s *Service) Create(ctx context.Context, in NewMeme) (Meme, error) {
	imageURL, err := s.gateway.Upload(ctx, in.Filename, in.Image)
	if err != nil {
		return Meme{}, apperr.Upstream(err, "Meme creation error")
	}

	now := s.now()
	m := Meme{
		Name:        in.Name,
		Filename:    in.Filename,
		ImageURL:    imageURL,
		Text:        in.Text,
		DateAdded:   now,
		DateUpdated: now,
	}
	if err := s.store.Create(ctx, &m); err != nil {
		s.logger.Warn("image uploaded but meme row not created, object may be orphaned",
			zap.String("object", in.Filename), zap.Error(err))
		return Meme{}, err
	}

	s.logger.Info("meme created", zap.Int64("id", m.ID), zap.String("object", m.Filename))
	return m, nil
}

// List returns one page of memes ordered by id.
func (s *Service) List(ctx context.Context, offset, limit int) ([]Meme, error) {
	if offset < 0 {
		return nil, apperr.Validation(nil, "offset must not be negative")
	}
	if limit < 0 || limit > MaxLimit {
		return nil, apperr.Validation(nil, "limit must be between 0 and %d", MaxLimit)
	}
	if limit == 0 {
		return []Meme{}, nil
	}
	return s.store.List(ctx, offset, limit)
}

func (s *Service) Get(ctx context.Context, id int64) (Meme, error) {
	return s.store.Get(ctx, id)
}

// Update applies changes to meme id and, when image is set, swaps its image
// through the gateway before anything is written to the database. A failed
// swap leaves the row as it was.
func (s *Service) Update(ctx context.Context, id int64, changes MemeChanges, image *ImageUpload) (Meme, error) {
	snapshot, err := s.store.Get(ctx, id)
	if err != nil {
		return Meme{}, err
	}

	var stored *StoredImage
	if image != nil {
		imageURL, err := s.gateway.Replace(ctx, image.Filename, snapshot.Filename, image.Data)
		if err != nil {
			s.logger.Error("image replacement failed, meme left unchanged",
				zap.Int64("id", id),
				zap.String("object", image.Filename),
				zap.String("old_object", snapshot.Filename),
				zap.Error(err))
			return Meme{}, apperr.PartialFailure(err, "Meme image replacement failed")
		}
		stored = &StoredImage{Filename: image.Filename, URL: imageURL}
	}

	next := snapshot.Apply(changes, stored, s.now())
	if err := s.store.Save(ctx, next); err != nil {
		if stored != nil {
			s.logger.Error("image replaced but meme row not updated, row references a removed object",
				zap.Int64("id", id),
				zap.String("object", stored.Filename),
				zap.String("old_object", snapshot.Filename),
				zap.Error(err))
		}
		return Meme{}, err
	}

	return next, nil
}

// Delete removes the meme's object through the gateway and then the row.
// A gateway failure keeps the row.
func (s *Service) Delete(ctx context.Context, id int64) (Meme, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return Meme{}, err
	}

	if err := s.gateway.Delete(ctx, m.Filename); err != nil {
		return Meme{}, apperr.Upstream(err, "Meme deletion error")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Error("object deleted but meme row remains",
			zap.Int64("id", id), zap.String("object", m.Filename), zap.Error(err))
		return Meme{}, err
	}

	s.logger.Info("meme deleted", zap.Int64("id", id), zap.String("object", m.Filename))
	return m, nil
}
