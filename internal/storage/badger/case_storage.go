package badger

import (
	"context"
	"fmt"

	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// CaseStorage implements the CaseStorage interface for Badger
type CaseStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCaseStorage creates a new CaseStorage instance
func NewCaseStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CaseStorage {
	return &CaseStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CaseStorage) StoreCase(ctx context.Context, c *models.CaseSnapshot) error {
	if c == nil {
		return fmt.Errorf("case is required")
	}
	if c.CaseID == "" {
		return fmt.Errorf("case ID is required")
	}

	if err := s.db.Store().Upsert(c.CaseID, c); err != nil {
		return fmt.Errorf("failed to store case: %w", err)
	}
	return nil
}

func (s *CaseStorage) GetCase(ctx context.Context, id string) (*models.CaseSnapshot, error) {
	var c models.CaseSnapshot
	if err := s.db.Store().Get(id, &c); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return &c, nil
}

func (s *CaseStorage) DeleteCase(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.CaseSnapshot{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrCaseNotFound
		}
		return fmt.Errorf("failed to delete case: %w", err)
	}
	return nil
}
