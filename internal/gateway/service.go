package gateway

import (
	"context"

	"go.uber.org/zap"

	"github.com/ahmad-alkadri/meme-depot/internal/apperr"
	"github.com/ahmad-alkadri/meme-depot/internal/metrics"
)

// Service stores meme images and hands out presigned URLs for them.
type Service struct {
	store    ObjectStore
	detector ContentTypeDetector
	logger   *zap.Logger
}

func NewService(store ObjectStore, detector ContentTypeDetector, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		detector: detector,
		logger:   logger,
	}
}

// Upload writes data under filename and returns a presigned URL for it.
func (s *Service) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}
	if err := s.put(ctx, filename, data); err != nil {
		return "", err
	}
	return s.presign(ctx, filename)
}

// Replace writes data under filename and then removes oldFilename.
//
// The new object is always written first so a failed write never costs the
// old one. If the old object cannot be removed the new one is removed again
// and the call fails; the outcome of that rollback is only logged.
func (s *Service) Replace(ctx context.Context, filename, oldFilename string, data []byte) (string, error) {
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}
	if oldFilename != "" {
		if err := ValidateFilename(oldFilename); err != nil {
			return "", err
		}
	}

	if err := s.put(ctx, filename, data); err != nil {
		return "", err
	}

	// Same key: the put above already overwrote the old object.
	if oldFilename != "" && oldFilename != filename {
		if err := s.store.RemoveObject(ctx, oldFilename); err != nil {
			s.rollback(ctx, filename, oldFilename)
			return "", apperr.PartialFailure(err, "Failed to delete the old object %s", oldFilename)
		}
	}

	return s.presign(ctx, filename)
}

// Delete removes filename. Deleting an absent object succeeds.
func (s *Service) Delete(ctx context.Context, filename string) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}
	if err := s.store.RemoveObject(ctx, filename); err != nil {
		return apperr.Upstream(err, "Error while working with object storage")
	}
	s.logger.Info("object deleted", zap.String("object", filename))
	return nil
}

func (s *Service) put(ctx context.Context, filename string, data []byte) error {
	if len(data) == 0 {
		return apperr.Validation(errEmptyImage, "Invalid base64 encoded image")
	}
	contentType := s.detector.Detect(data, filename)
	if err := s.store.PutObject(ctx, filename, data, contentType); err != nil {
		return apperr.Upstream(err, "Error while working with object storage")
	}
	s.logger.Info("object stored",
		zap.String("object", filename),
		zap.Int("size", len(data)),
		zap.String("content_type", contentType))
	return nil
}

func (s *Service) presign(ctx context.Context, filename string) (string, error) {
	u, err := s.store.PresignedURL(ctx, filename)
	if err != nil {
		return "", apperr.Upstream(err, "Error while working with object storage")
	}
	return u, nil
}

func (s *Service) rollback(ctx context.Context, filename, oldFilename string) {
	if err := s.store.RemoveObject(ctx, filename); err != nil {
		metrics.Compensations.WithLabelValues("failed").Inc()
		s.logger.Error("rollback of replacement object failed, both objects are live",
			zap.String("object", filename),
			zap.String("old_object", oldFilename),
			zap.Error(err))
		return
	}
	metrics.Compensations.WithLabelValues("rolled_back").Inc()
	s.logger.Warn("old object could not be removed, replacement rolled back",
		zap.String("object", filename),
		zap.String("old_object", oldFilename))
}
