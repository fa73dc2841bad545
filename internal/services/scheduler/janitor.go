// -----------------------------------------------------------------------
// Janitor - periodic sweep that fails over running jobs whose routine
// stopped heartbeating
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/common"
	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/models"
)

// Janitor sweeps stale jobs on a cron schedule. A running job whose
// heartbeat is older than the threshold lost its routine (crash, kill)
// and will never terminate on its own.
type Janitor struct {
	config  *common.JanitorConfig
	storage interfaces.StorageManager
	filing  interfaces.FilingService
	logger  arbor.ILogger
	cron    *cron.Cron
	stale   time.Duration
}

// NewJanitor creates a new stale-job janitor
func NewJanitor(config *common.JanitorConfig, storage interfaces.StorageManager, filing interfaces.FilingService, logger arbor.ILogger) (*Janitor, error) {
	stale, err := time.ParseDuration(config.StaleThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid stale threshold '%s': %w", config.StaleThreshold, err)
	}

	return &Janitor{
		config:  config,
		storage: storage,
		filing:  filing,
		logger:  logger,
		cron:    cron.New(cron.WithSeconds()),
		stale:   stale,
	}, nil
}

// Start schedules the sweep. No-op when disabled.
func (j *Janitor) Start() error {
	if !j.config.Enabled {
		j.logger.Debug().Msg("Janitor disabled")
		return nil
	}

	if _, err := j.cron.AddFunc(j.config.Schedule, func() {
		if err := j.Sweep(context.Background()); err != nil {
			j.logger.Warn().Err(err).Msg("Janitor sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid janitor schedule '%s': %w", j.config.Schedule, err)
	}

	j.cron.Start()
	j.logger.Info().Str("schedule", j.config.Schedule).Dur("stale_threshold", j.stale).Msg("Janitor started")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

// Sweep fails over every running job with an expired heartbeat. Jobs the
// filing service still tracks in memory are alive regardless of what the
// stored heartbeat says mid-write.
func (j *Janitor) Sweep(ctx context.Context) error {
	jobs, err := j.storage.JobStorage().GetJobsByStatus(ctx, models.JobStatusRunning)
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-j.stale)
	swept := 0
	for _, job := range jobs {
		if job.LastHeartbeat != nil && job.LastHeartbeat.After(cutoff) {
			continue
		}
		if j.isActive(job.ID) {
			continue
		}

		job.MarkFailed(fmt.Sprintf("heartbeat stale for more than %s", j.stale))
		if err := j.storage.JobStorage().StoreJob(ctx, job); err != nil {
			j.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to fail over stale job")
			continue
		}
		swept++
		j.logger.Warn().Str("job_id", job.ID).Msg("Stale job failed over")
	}

	if swept > 0 {
		j.logger.Info().Int("count", swept).Msg("Janitor sweep complete")
	}
	return nil
}

func (j *Janitor) isActive(jobID string) bool {
	if j.filing == nil {
		return false
	}
	job, err := j.filing.GetStatus(context.Background(), jobID)
	if err != nil {
		return false
	}
	// The in-memory registry refreshes the heartbeat on every step; a
	// fresh heartbeat means the routine is alive
	return job.LastHeartbeat != nil && job.LastHeartbeat.After(time.Now().Add(-j.stale))
}
