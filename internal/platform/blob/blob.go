package blob

import (
	"context"
	"io"
	"log/slog"
)

// UploadResult identifies a stored object
type UploadResult struct {
	URL      string
	PublicID string
}

// Store is the external object storage used for variant images. Uploads are
// keyed by a provider-assigned public id so replace and delete can target the
// exact stored object.
type Store interface {
	Upload(ctx context.Context, r io.Reader, filename string) (*UploadResult, error)
	Replace(ctx context.Context, publicID string, r io.Reader, filename string) (*UploadResult, error)
	Delete(ctx context.Context, publicID string) error
}

// NoopStore logs operations without storing anything. Used when no provider
// is configured, e.g. in local development.
type NoopStore struct {
	logger *slog.Logger
}

var _ Store = (*NoopStore)(nil)

func NewNoopStore(logger *slog.Logger) *NoopStore {
	return &NoopStore{logger: logger}
}

func (s *NoopStore) Upload(_ context.Context, _ io.Reader, filename string) (*UploadResult, error) {
	s.logger.Warn("Blob storage not configured, dropping upload", "filename", filename)
	return &UploadResult{URL: "about:blank", PublicID: "noop/" + filename}, nil
}

func (s *NoopStore) Replace(_ context.Context, publicID string, _ io.Reader, filename string) (*UploadResult, error) {
	s.logger.Warn("Blob storage not configured, dropping replace", "public_id", publicID, "filename", filename)
	return &UploadResult{URL: "about:blank", PublicID: publicID}, nil
}

func (s *NoopStore) Delete(_ context.Context, publicID string) error {
	s.logger.Warn("Blob storage not configured, dropping delete", "public_id", publicID)
	return nil
}
