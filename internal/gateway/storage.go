package gateway

import "context"

// ObjectStore is the bucket the gateway writes images to. Object names are
// the meme filenames; writing an existing name overwrites it.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	RemoveBucket(ctx context.Context) error
	PutObject(ctx context.Context, name string, data []byte, contentType string) error
	GetObject(ctx context.Context, name string) ([]byte, error)
	// RemoveObject succeeds when the object is already absent.
	RemoveObject(ctx context.Context, name string) error
	PresignedURL(ctx context.Context, name string) (string, error)
}
