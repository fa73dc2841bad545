package interfaces

import (
	"context"

	"github.com/prolabora/concilia/internal/models"
)

// JobStorage - interface for filing job persistence
type JobStorage interface {
	StoreJob(ctx context.Context, job *models.FilingJob) error
	GetJob(ctx context.Context, id string) (*models.FilingJob, error)
	GetJobsByOwner(ctx context.Context, ownerID string, limit int) ([]*models.FilingJob, error)
	GetJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.FilingJob, error)
	GetActiveJobs(ctx context.Context) ([]*models.FilingJob, error)
	DeleteJob(ctx context.Context, id string) error
	CountJobs(ctx context.Context) (int, error)
}

// JobLogStorage - interface for append-only job log persistence
type JobLogStorage interface {
	AppendEntry(ctx context.Context, jobID string, entry models.JobLogEntry) error
	GetEntries(ctx context.Context, jobID string) ([]models.JobLogEntry, error)
	DeleteEntries(ctx context.Context, jobID string) error
}

// CaseStorage - interface for case snapshot persistence
type CaseStorage interface {
	StoreCase(ctx context.Context, c *models.CaseSnapshot) error
	GetCase(ctx context.Context, id string) (*models.CaseSnapshot, error)
	DeleteCase(ctx context.Context, id string) error
}

// BlobStorage - interface for binary artifacts (screenshots, acuse PDFs).
// Keys are namespaced by job id.
type BlobStorage interface {
	StoreBlob(ctx context.Context, jobID, name string, data []byte) (string, error)
	GetBlob(ctx context.Context, path string) ([]byte, error)
	DeleteBlobs(ctx context.Context, jobID string) error
}

// StorageManager aggregates the storage interfaces behind one lifecycle
type StorageManager interface {
	JobStorage() JobStorage
	JobLogStorage() JobLogStorage
	CaseStorage() CaseStorage
	BlobStorage() BlobStorage
	Close() error
}
