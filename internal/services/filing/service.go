// -----------------------------------------------------------------------
// Filing service - background job registry and orchestration for
// automated conciliation filings
// -----------------------------------------------------------------------

package filing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/common"
	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/models"
	"github.com/prolabora/concilia/internal/services/browser"
	"github.com/prolabora/concilia/internal/services/captcha"
	"github.com/prolabora/concilia/internal/services/extractor"
	"github.com/prolabora/concilia/internal/services/pipeline"
)

// Progress milestones for the client-visible step map. The seven form
// stages are spread across the 30-80 band.
var stepProgress = map[models.StepName]int{
	models.StepValidation:   5,
	models.StepJurisdiction: 10,
	models.StepSessionOpen:  20,
	models.StepIndustry:     30,
	models.StepRequestType:  38,
	models.StepApplicant:    46,
	models.StepRespondent:   54,
	models.StepFacts:        62,
	models.StepModality:     70,
	models.StepSubmit:       80,
	models.StepExtraction:   90,
}

// activeJob pairs an in-flight job with its cancellation handle
type activeJob struct {
	job    *models.FilingJob
	cancel context.CancelFunc
}

// Service implements the FilingService interface. In-memory state is the
// source of truth for running jobs; storage is the fallback for
// everything terminal or after a restart.
type Service struct {
	config       *common.Config
	storage      interfaces.StorageManager
	jurisdiction interfaces.JurisdictionService
	resolver     *captcha.Resolver
	extractor    *extractor.Extractor
	events       interfaces.EventService
	logger       arbor.ILogger

	mu         sync.RWMutex
	activeJobs map[string]*activeJob
	wg         sync.WaitGroup
}

// NewService creates a new filing service
func NewService(
	config *common.Config,
	storage interfaces.StorageManager,
	jurisdiction interfaces.JurisdictionService,
	resolver *captcha.Resolver,
	ext *extractor.Extractor,
	events interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	return &Service{
		config:       config,
		storage:      storage,
		jurisdiction: jurisdiction,
		resolver:     resolver,
		extractor:    ext,
		events:       events,
		logger:       logger,
		activeJobs:   make(map[string]*activeJob),
	}
}

// Submit validates the case and starts a filing job in the background.
// Validation failures return synchronously; no job record is created.
func (s *Service) Submit(ctx context.Context, caseID, ownerID string, opts interfaces.SubmitOptions) (*models.FilingJob, error) {
	c, err := s.storage.CaseStorage().GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if !opts.SkipValidation {
		validation := s.jurisdiction.Validate(c)
		if !validation.Valid {
			return nil, &models.ValidationError{Result: *validation}
		}
	}

	job := &models.FilingJob{
		ID:             common.NewJobID(),
		CaseID:         caseID,
		OwnerID:        ownerID,
		Status:         models.JobStatusPending,
		CurrentStep:    models.StepValidation,
		CreatedAt:      time.Now(),
		Modality:       opts.Modality,
		SkipValidation: opts.SkipValidation,
	}

	// Capacity check and registration happen under one lock so two
	// concurrent submissions cannot both take the last slot
	jobCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if len(s.activeJobs) >= s.config.Filing.MaxConcurrentJobs {
		s.mu.Unlock()
		cancel()
		return nil, models.ErrQueueFull
	}
	s.activeJobs[job.ID] = &activeJob{job: job, cancel: cancel}
	s.mu.Unlock()

	if err := s.storage.JobStorage().StoreJob(ctx, job); err != nil {
		cancel()
		s.mu.Lock()
		delete(s.activeJobs, job.ID)
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	// Snapshot before the routine starts mutating the shared record
	snapshot := *job

	s.wg.Add(1)
	go s.run(jobCtx, job, c, opts)

	s.logger.Info().
		Str("job_id", job.ID).
		Str("case_id", caseID).
		Msg("Filing job submitted")

	return &snapshot, nil
}

// run is the detached execution routine for one filing job
func (s *Service) run(ctx context.Context, job *models.FilingJob, c *models.CaseSnapshot, opts interfaces.SubmitOptions) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("job_id", job.ID).Msgf("Filing routine panicked: %v", r)
			s.finishFailed(job, fmt.Sprintf("internal error: %v", r))
		}
		s.mu.Lock()
		delete(s.activeJobs, job.ID)
		s.mu.Unlock()
	}()

	s.mutate(job, job.MarkStarted)
	s.persist(job)
	s.publish(interfaces.EventJobStarted, job)
	s.appendLog(job.ID, models.LogLevelInfo, "Filing job started", nil)

	err := s.execute(ctx, job, c, opts)
	switch {
	case err == nil:
		// execute marked the job completed
	case ctx.Err() != nil:
		s.mutate(job, job.MarkCancelled)
		s.persist(job)
		s.publish(interfaces.EventJobCancelled, job)
		s.appendLog(job.ID, models.LogLevelWarn, "Filing job cancelled", nil)
	default:
		s.finishFailed(job, err.Error())
	}
}

// execute runs the filing sequence. The browser session is closed on
// every exit path.
func (s *Service) execute(ctx context.Context, job *models.FilingJob, c *models.CaseSnapshot, opts interfaces.SubmitOptions) error {
	s.advance(job, models.StepJurisdiction)
	decision, err := s.jurisdiction.Analyze(ctx, c)
	if err != nil {
		return fmt.Errorf("jurisdiction analysis failed: %w", err)
	}
	s.appendLog(job.ID, models.LogLevelInfo, "Jurisdiction decided", map[string]string{
		"jurisdiction": decision.Jurisdiction(),
		"authority":    decision.Authority,
		"source":       decision.Source,
		"rationale":    decision.Rationale,
	})

	portal, err := s.jurisdiction.PortalFor(decision, c.WorkState)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.advance(job, models.StepSessionOpen)
	session, err := browser.NewSession(ctx, &s.config.Browser, s.logger)
	if err != nil {
		return fmt.Errorf("browser backend unavailable: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(portal.URL); err != nil {
		return fmt.Errorf("portal unreachable: %w", err)
	}
	s.appendLog(job.ID, models.LogLevelInfo, "Portal session opened", map[string]string{
		"portal": portal.URL,
	})

	runner := pipeline.NewRunner(session, s.resolver, s.logger, s.stepObserver(job))
	if err := runner.Run(ctx, c, opts.Modality); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.advance(job, models.StepExtraction)
	result, err := s.extractor.Extract(ctx, session)
	if err != nil {
		return fmt.Errorf("result extraction failed: %w", err)
	}

	// The acuse document is best effort; its absence never fails the job
	if acuse, acuseErr := s.extractor.DownloadAcuse(ctx, session); acuseErr != nil {
		s.appendLog(job.ID, models.LogLevelWarn, "Acuse document unavailable", map[string]string{
			"reason": acuseErr.Error(),
		})
	} else {
		path, storeErr := s.storage.BlobStorage().StoreBlob(context.Background(), job.ID, "acuse.pdf", acuse)
		if storeErr != nil {
			s.appendLog(job.ID, models.LogLevelWarn, "Failed to store acuse document", map[string]string{
				"reason": storeErr.Error(),
			})
		} else {
			result.AcusePath = path
		}
	}

	s.mutate(job, func() { job.MarkCompleted(result) })
	s.persist(job)
	s.publish(interfaces.EventJobCompleted, job)

	level := models.LogLevelSuccess
	msg := "Filing completed"
	if !result.Success {
		level = models.LogLevelWarn
		msg = "Filing finished without a reference number"
	}
	s.appendLog(job.ID, level, msg, map[string]string{
		"folio": result.FolioSolicitud,
	})
	return nil
}

// stepObserver persists each stage outcome: screenshot to blob storage,
// log entry, progress and a websocket event
func (s *Service) stepObserver(job *models.FilingJob) pipeline.StepObserver {
	return func(result models.StepResult) {
		s.advance(job, result.Stage)

		fields := map[string]string{"stage": string(result.Stage)}
		var screenshotPath string
		if len(result.Screenshot) > 0 {
			name := fmt.Sprintf("%s.png", result.Stage)
			if path, err := s.storage.BlobStorage().StoreBlob(context.Background(), job.ID, name, result.Screenshot); err == nil {
				screenshotPath = path
			} else {
				s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to store stage screenshot")
			}
		}

		if result.Success {
			entry := models.NewJobLogEntry(models.LogLevelInfo, fmt.Sprintf("Stage %s completed", result.Stage))
			entry.Fields = fields
			entry.ScreenshotPath = screenshotPath
			s.appendEntry(job.ID, entry)
		} else {
			fields["error"] = result.Error
			entry := models.NewJobLogEntry(models.LogLevelError, fmt.Sprintf("Stage %s failed", result.Stage))
			entry.Fields = fields
			entry.ScreenshotPath = screenshotPath
			s.appendEntry(job.ID, entry)
		}
	}
}

// GetStatus returns the job, consulting active memory first and falling
// back to storage for terminal or pre-restart jobs
func (s *Service) GetStatus(ctx context.Context, jobID string) (*models.FilingJob, error) {
	s.mu.RLock()
	if active, ok := s.activeJobs[jobID]; ok {
		job := *active.job
		s.mu.RUnlock()
		return &job, nil
	}
	s.mu.RUnlock()

	return s.storage.JobStorage().GetJob(ctx, jobID)
}

// GetLogs returns the job's append-only log trail
func (s *Service) GetLogs(ctx context.Context, jobID string) ([]models.JobLogEntry, error) {
	if _, err := s.GetStatus(ctx, jobID); err != nil {
		return nil, err
	}
	return s.storage.JobLogStorage().GetEntries(ctx, jobID)
}

// Cancel requests cooperative cancellation. Only pending and running jobs
// can be cancelled; the routine observes the signal at the next stage
// boundary.
func (s *Service) Cancel(ctx context.Context, jobID string) error {
	s.mu.Lock()
	active, ok := s.activeJobs[jobID]
	if ok {
		if active.job.IsTerminal() {
			s.mu.Unlock()
			return models.ErrJobTerminal
		}
	}
	s.mu.Unlock()

	if !ok {
		job, err := s.storage.JobStorage().GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if job.IsTerminal() {
			return models.ErrJobTerminal
		}
		// Pending-in-storage but not active: orphaned by a restart
		job.MarkCancelled()
		return s.storage.JobStorage().StoreJob(ctx, job)
	}

	active.cancel()
	s.logger.Info().Str("job_id", jobID).Msg("Cancellation requested")
	return nil
}

// ListRecent returns the owner's jobs, newest first
func (s *Service) ListRecent(ctx context.Context, ownerID string, limit int) ([]*models.FilingJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.storage.JobStorage().GetJobsByOwner(ctx, ownerID, limit)
}

// ActiveCount reports how many jobs are currently in flight
func (s *Service) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.activeJobs)
}

// Shutdown cancels every active job and waits for the routines to exit
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, active := range s.activeJobs {
		active.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out with %d job(s) still active", s.ActiveCount())
	}
}

// RecoverOrphans fails over jobs left pending or running by a previous
// process. Called once at startup, before the server accepts submissions.
func (s *Service) RecoverOrphans(ctx context.Context) error {
	orphans, err := s.storage.JobStorage().GetActiveJobs(ctx)
	if err != nil {
		return err
	}

	for _, job := range orphans {
		job.MarkFailed("interrupted by service restart")
		if err := s.storage.JobStorage().StoreJob(ctx, job); err != nil {
			s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to fail over orphaned job")
			continue
		}
		s.appendLog(job.ID, models.LogLevelError, "Job interrupted by service restart", nil)
	}

	if len(orphans) > 0 {
		s.logger.Info().Int("count", len(orphans)).Msg("Orphaned jobs failed over")
	}
	return nil
}

// advance moves the job to a step, bumps progress, heartbeats and persists
func (s *Service) advance(job *models.FilingJob, step models.StepName) {
	s.mutate(job, func() {
		job.CurrentStep = step
		if pct, ok := stepProgress[step]; ok {
			job.AdvanceProgress(pct)
		}
		job.UpdateHeartbeat()
	})
	s.persist(job)
	s.publish(interfaces.EventJobProgress, job)
}

// mutate serializes job writes against the snapshot reads in GetStatus
func (s *Service) mutate(job *models.FilingJob, fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
}

func (s *Service) finishFailed(job *models.FilingJob, errMsg string) {
	if job.IsTerminal() {
		return
	}
	s.mutate(job, func() { job.MarkFailed(errMsg) })
	s.persist(job)
	s.publish(interfaces.EventJobFailed, job)
	s.appendLog(job.ID, models.LogLevelError, "Filing job failed", map[string]string{
		"error": errMsg,
	})
}

func (s *Service) persist(job *models.FilingJob) {
	if err := s.storage.JobStorage().StoreJob(context.Background(), job); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist job state")
	}
}

func (s *Service) publish(eventType interfaces.EventType, job *models.FilingJob) {
	if s.events == nil {
		return
	}
	snapshot := *job
	if err := s.events.Publish(context.Background(), interfaces.Event{
		Type:    eventType,
		JobID:   job.ID,
		Payload: &snapshot,
	}); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to publish job event")
	}
}

func (s *Service) appendLog(jobID, level, message string, fields map[string]string) {
	entry := models.NewJobLogEntry(level, message)
	entry.Fields = fields
	s.appendEntry(jobID, entry)
}

func (s *Service) appendEntry(jobID string, entry models.JobLogEntry) {
	if err := s.storage.JobLogStorage().AppendEntry(context.Background(), jobID, entry); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to append job log")
	}
	if s.events != nil {
		s.events.Publish(context.Background(), interfaces.Event{
			Type:    interfaces.EventJobLog,
			JobID:   jobID,
			Payload: entry,
		})
	}
}
