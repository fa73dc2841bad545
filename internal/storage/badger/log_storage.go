package badger

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// logSequence disambiguates log keys written within the same nanosecond
var logSequence uint64

// JobLogStorage implements the JobLogStorage interface for Badger
type JobLogStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobLogStorage creates a new JobLogStorage instance
func NewJobLogStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobLogStorage {
	return &JobLogStorage{
		db:     db,
		logger: logger,
	}
}

func (s *JobLogStorage) AppendEntry(ctx context.Context, jobID string, entry models.JobLogEntry) error {
	entry.AssociatedJobID = jobID

	// Timestamp plus an atomic sequence keeps keys unique under concurrency
	seq := atomic.AddUint64(&logSequence, 1)
	key := fmt.Sprintf("%s_%d_%d", jobID, time.Now().UnixNano(), seq)

	if err := s.db.Store().Insert(key, &entry); err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

// GetEntries returns the job's log trail in chronological order
func (s *JobLogStorage) GetEntries(ctx context.Context, jobID string) ([]models.JobLogEntry, error) {
	var entries []models.JobLogEntry
	query := badgerhold.Where("AssociatedJobID").Eq(jobID).SortBy("FullTimestamp")
	if err := s.db.Store().Find(&entries, query); err != nil {
		return nil, fmt.Errorf("failed to get log entries: %w", err)
	}
	return entries, nil
}

func (s *JobLogStorage) DeleteEntries(ctx context.Context, jobID string) error {
	if err := s.db.Store().DeleteMatching(&models.JobLogEntry{}, badgerhold.Where("AssociatedJobID").Eq(jobID)); err != nil {
		return fmt.Errorf("failed to delete log entries: %w", err)
	}
	return nil
}
