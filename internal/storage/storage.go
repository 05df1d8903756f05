// Package storage resolves artifact URLs to their stored content.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobReader loads raw artifact bytes for the analyzers.
type BlobReader interface {
	// Read resolves the artifact URL and returns its content.
	Read(ctx context.Context, url string) ([]byte, error)
}

// FilesystemStore reads artifact blobs from a local directory tree.
// Artifact URLs are rooted paths like "/storage/<session>/<file>"; the
// leading "storage" segment maps onto the configured root.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore creates a store rooted at the given directory.
func NewFilesystemStore(root string) *FilesystemStore {
	return &FilesystemStore{root: root}
}

// Read resolves the URL under the storage root and returns the file
// content. Paths escaping the root are rejected.
func (s *FilesystemStore) Read(ctx context.Context, url string) ([]byte, error) {
	path, err := s.Resolve(url)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact file %s: %w", path, err)
	}
	return data, nil
}

// Resolve maps an artifact URL to a filesystem path without reading it.
func (s *FilesystemStore) Resolve(url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("artifact has no storage location")
	}

	parts := strings.Split(strings.TrimPrefix(url, "/"), "/")
	if parts[0] == "storage" {
		parts = parts[1:]
	}

	path := filepath.Join(append([]string{s.root}, parts...)...)

	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact url %q escapes storage root", url)
	}

	return absPath, nil
}
