package interfaces

import (
	"context"

	"github.com/prolabora/concilia/internal/models"
)

// SubmitOptions carries per-submission knobs
type SubmitOptions struct {
	Modality       string `json:"modality,omitempty"`
	SkipValidation bool   `json:"skip_validation,omitempty"`
}

// FilingService owns the background filing job registry
type FilingService interface {
	// Submit validates the request shape, registers a pending job and starts
	// the filing routine in the background. Returns the job id immediately.
	Submit(ctx context.Context, caseID, ownerID string, opts SubmitOptions) (*models.FilingJob, error)

	// GetStatus returns the job by id, consulting active memory first and
	// falling back to storage for completed jobs
	GetStatus(ctx context.Context, jobID string) (*models.FilingJob, error)

	// GetLogs returns the job's append-only log trail
	GetLogs(ctx context.Context, jobID string) ([]models.JobLogEntry, error)

	// Cancel requests cooperative cancellation of a running job
	Cancel(ctx context.Context, jobID string) error

	// ListRecent returns the owner's jobs, newest first
	ListRecent(ctx context.Context, ownerID string, limit int) ([]*models.FilingJob, error)

	// ActiveCount reports how many jobs are currently running
	ActiveCount() int

	// Shutdown cancels active jobs and waits for their routines to exit
	Shutdown(ctx context.Context) error
}

// JurisdictionService advises where a case is filed and against what deadline
type JurisdictionService interface {
	Analyze(ctx context.Context, c *models.CaseSnapshot) (*models.JurisdictionDecision, error)
	PortalFor(decision *models.JurisdictionDecision, state string) (*models.PortalInfo, error)
	Deadline(c *models.CaseSnapshot) *models.DeadlineStatus
	Validate(c *models.CaseSnapshot) *models.ValidationResult
}

// CaptchaSolver detects and solves anti-automation challenges on the
// current browser page
type CaptchaSolver interface {
	Solve(ctx context.Context, image []byte) (*models.CaptchaSolution, error)
}
