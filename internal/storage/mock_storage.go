package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/logger"
)

// MockStore keeps media on the local filesystem and serves it through the
// server's /media route. It is used for local development and tests.
type MockStore struct {
	baseURL string
	root    string
	now     func() time.Time
}

func NewMockStore(baseURL, dir string) (*MockStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &MockStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		root:    dir,
		now:     time.Now,
	}, nil
}

func (m *MockStore) Upload(ctx context.Context, u Upload) (*domain.MediaAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	publicID := fmt.Sprintf("%s/%s", strings.Trim(u.Folder, "/"), uuid.New().String())
	if u.Folder == "" {
		publicID = uuid.New().String()
	}
	key := publicID + "." + u.Format()

	fullPath := filepath.Join(m.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	n, err := io.Copy(file, u.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	logger.Debug("Stored media file", "key", key, "bytes", n)
	return &domain.MediaAsset{
		PublicID:   key,
		URL:        m.baseURL + "/media/" + key,
		Format:     u.Format(),
		Bytes:      n,
		UploadedAt: m.now(),
	}, nil
}

func (m *MockStore) Delete(ctx context.Context, publicID string) error {
	key, err := cleanPublicID(publicID)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(m.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Open returns the stored file for publicID, for the media HTTP route.
func (m *MockStore) Open(publicID string) (io.ReadCloser, error) {
	key, err := cleanPublicID(publicID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(m.root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}
