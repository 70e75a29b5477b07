// Package storage holds uploaded media: payment proofs and damage photos.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"gearrent-backend/internal/domain"
)

// Upload is a file on its way to the media store.
type Upload struct {
	Folder      string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// MediaStore stores and removes media assets.
// Implementations: MockStore (local filesystem) and CloudinaryStore.
type MediaStore interface {
	Upload(ctx context.Context, u Upload) (*domain.MediaAsset, error)
	// Delete removes an asset. Deleting a missing asset is not an error.
	Delete(ctx context.Context, publicID string) error
}

var allowedTypes = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/webp":      "webp",
	"application/pdf": "pdf",
}

// Validate checks the content type and size of an upload.
func (u Upload) Validate(maxBytes int64) error {
	if u.Body == nil {
		return fmt.Errorf("%w: empty upload", domain.ErrInvalidInput)
	}
	if _, ok := allowedTypes[u.ContentType]; !ok {
		return fmt.Errorf("%w: unsupported content type %q", domain.ErrInvalidInput, u.ContentType)
	}
	if maxBytes > 0 && u.Size > maxBytes {
		return fmt.Errorf("%w: file is larger than %d bytes", domain.ErrInvalidInput, maxBytes)
	}
	return nil
}

// Format returns the file extension for the upload's content type.
func (u Upload) Format() string {
	return allowedTypes[u.ContentType]
}

// cleanPublicID rejects ids that would escape the store root.
func cleanPublicID(publicID string) (string, error) {
	cleaned := path.Clean("/" + publicID)[1:]
	if cleaned == "" || cleaned != publicID || strings.Contains(publicID, "..") {
		return "", fmt.Errorf("%w: bad media id %q", domain.ErrInvalidInput, publicID)
	}
	return cleaned, nil
}
