// Filesystem blob store for job artifacts. Screenshots and acuse
// documents are large and write-once; they live on disk next to the
// database, keyed by job id, with only their paths stored in Badger.

package blobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prolabora/concilia/internal/common"
	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// FilesystemStorage implements the BlobStorage interface on local disk
type FilesystemStorage struct {
	root   string
	logger arbor.ILogger
}

// NewFilesystemStorage creates a blob store rooted at the screenshots
// directory; documents share the same tree under each job's folder.
func NewFilesystemStorage(logger arbor.ILogger, config *common.FilesystemConfig) (interfaces.BlobStorage, error) {
	root := config.Screenshots
	if root == "" {
		root = "./data/blobs"
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	return &FilesystemStorage{
		root:   root,
		logger: logger,
	}, nil
}

// StoreBlob writes data under <root>/<jobID>/<name> and returns the path
func (s *FilesystemStorage) StoreBlob(ctx context.Context, jobID, name string, data []byte) (string, error) {
	if jobID == "" || name == "" {
		return "", fmt.Errorf("job ID and blob name are required")
	}
	// Reject path traversal in caller-supplied names
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid blob name: %s", name)
	}

	dir := filepath.Join(s.root, jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create job blob directory: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	s.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("Blob stored")
	return path, nil
}

func (s *FilesystemStorage) GetBlob(ctx context.Context, path string) ([]byte, error) {
	// Only serve paths inside the blob root
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid blob path: %w", err)
	}
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return nil, fmt.Errorf("invalid blob root: %w", err)
	}
	if !strings.HasPrefix(abs, rootAbs+string(os.PathSeparator)) {
		return nil, fmt.Errorf("blob path outside storage root")
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

func (s *FilesystemStorage) DeleteBlobs(ctx context.Context, jobID string) error {
	if jobID == "" {
		return fmt.Errorf("job ID is required")
	}
	dir := filepath.Join(s.root, jobID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete job blobs: %w", err)
	}
	return nil
}
