// Package storage provides the blob-storage collaborator for protected
// downloads. The local-disk adapter serves single-node deployments; the port
// keeps the core indifferent to where bytes actually live.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/keygate-labs/keygate/internal/domain"
	"github.com/keygate-labs/keygate/internal/ports"
)

// LocalFileStorage maps file ids to files under a configured root directory.
type LocalFileStorage struct {
	root string
}

// NewLocalFileStorage validates the root directory up front so a
// misconfigured path fails at startup, not on the first download.
func NewLocalFileStorage(root string) (*LocalFileStorage, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat storage root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %s is not a directory", root)
	}
	return &LocalFileStorage{root: root}, nil
}

// resolve rejects ids that would escape the root. File ids are opaque names,
// never paths.
func (s *LocalFileStorage) resolve(fileID string) (string, error) {
	cleaned := filepath.Base(filepath.Clean(fileID))
	if cleaned == "." || cleaned == ".." || strings.ContainsAny(fileID, `/\`) {
		return "", fmt.Errorf("%w: invalid file id", domain.ErrInvalidInput)
	}
	return filepath.Join(s.root, cleaned), nil
}

func (s *LocalFileStorage) Stat(_ context.Context, fileID string) (ports.FileInfo, error) {
	path, err := s.resolve(fileID)
	if err != nil {
		return ports.FileInfo{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ports.FileInfo{}, domain.ErrNotFound
		}
		return ports.FileInfo{}, err
	}
	if info.IsDir() {
		return ports.FileInfo{}, domain.ErrNotFound
	}
	return ports.FileInfo{
		FileID: fileID,
		Name:   info.Name(),
		Size:   info.Size(),
	}, nil
}

func (s *LocalFileStorage) Open(_ context.Context, fileID string) (io.ReadCloser, error) {
	path, err := s.resolve(fileID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", fileID, err)
	}
	return f, nil
}

var _ ports.FileStorage = (*LocalFileStorage)(nil)
