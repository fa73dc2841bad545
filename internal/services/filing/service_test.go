package filing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/common"
	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/models"
)

// --- in-memory storage fakes ---

type memStorage struct {
	mu    sync.Mutex
	jobs  map[string]*models.FilingJob
	logs  map[string][]models.JobLogEntry
	cases map[string]*models.CaseSnapshot
}

func newMemStorage() *memStorage {
	return &memStorage{
		jobs:  make(map[string]*models.FilingJob),
		logs:  make(map[string][]models.JobLogEntry),
		cases: make(map[string]*models.CaseSnapshot),
	}
}

func (m *memStorage) JobStorage() interfaces.JobStorage       { return m }
func (m *memStorage) JobLogStorage() interfaces.JobLogStorage { return m }
func (m *memStorage) CaseStorage() interfaces.CaseStorage     { return m }
func (m *memStorage) BlobStorage() interfaces.BlobStorage     { return m }
func (m *memStorage) Close() error                            { return nil }

func (m *memStorage) StoreJob(ctx context.Context, job *models.FilingJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *memStorage) GetJob(ctx context.Context, id string) (*models.FilingJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, models.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (m *memStorage) GetJobsByOwner(ctx context.Context, ownerID string, limit int) ([]*models.FilingJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.FilingJob
	for _, job := range m.jobs {
		if job.OwnerID == ownerID {
			copied := *job
			out = append(out, &copied)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStorage) GetJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.FilingJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.FilingJob
	for _, job := range m.jobs {
		if job.Status == status {
			copied := *job
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memStorage) GetActiveJobs(ctx context.Context) ([]*models.FilingJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.FilingJob
	for _, job := range m.jobs {
		if !job.IsTerminal() {
			copied := *job
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memStorage) DeleteJob(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
	return nil
}

func (m *memStorage) CountJobs(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs), nil
}

func (m *memStorage) AppendEntry(ctx context.Context, jobID string, entry models.JobLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.AssociatedJobID = jobID
	m.logs[jobID] = append(m.logs[jobID], entry)
	return nil
}

func (m *memStorage) GetEntries(ctx context.Context, jobID string) ([]models.JobLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logs[jobID], nil
}

func (m *memStorage) DeleteEntries(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.logs, jobID)
	return nil
}

func (m *memStorage) StoreCase(ctx context.Context, c *models.CaseSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases[c.CaseID] = c
	return nil
}

func (m *memStorage) GetCase(ctx context.Context, id string) (*models.CaseSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return nil, models.ErrCaseNotFound
	}
	return c, nil
}

func (m *memStorage) DeleteCase(ctx context.Context, id string) error { return nil }

func (m *memStorage) StoreBlob(ctx context.Context, jobID, name string, data []byte) (string, error) {
	return "/blobs/" + jobID + "/" + name, nil
}

func (m *memStorage) GetBlob(ctx context.Context, path string) ([]byte, error) { return nil, nil }
func (m *memStorage) DeleteBlobs(ctx context.Context, jobID string) error      { return nil }

// --- jurisdiction fake ---

type fakeAdvisor struct {
	validation *models.ValidationResult
	analyzeErr error
	block      chan struct{} // when set, Analyze blocks until closed or ctx done
}

func (f *fakeAdvisor) Analyze(ctx context.Context, c *models.CaseSnapshot) (*models.JurisdictionDecision, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return &models.JurisdictionDecision{EsFederal: false, Confidence: 0.9}, nil
}

func (f *fakeAdvisor) PortalFor(d *models.JurisdictionDecision, state string) (*models.PortalInfo, error) {
	return &models.PortalInfo{URL: "https://example.gob.mx"}, nil
}

func (f *fakeAdvisor) Deadline(c *models.CaseSnapshot) *models.DeadlineStatus {
	return &models.DeadlineStatus{}
}

func (f *fakeAdvisor) Validate(c *models.CaseSnapshot) *models.ValidationResult {
	if f.validation != nil {
		return f.validation
	}
	return &models.ValidationResult{Valid: true}
}

// --- helpers ---

func newTestService(t *testing.T, advisor *fakeAdvisor) (*Service, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	config := common.NewDefaultConfig()
	svc := NewService(config, storage, advisor, nil, nil, nil, arbor.NewLogger())
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		svc.Shutdown(shutdownCtx)
	})
	return svc, storage
}

func seedCase(t *testing.T, storage *memStorage) string {
	t.Helper()
	c := &models.CaseSnapshot{
		CaseID:          "case_1",
		OwnerID:         "owner_1",
		WorkerName:      "Juan Pérez",
		EmployerName:    "Empresa SA",
		WorkState:       "Jalisco",
		TerminationDate: time.Now().AddDate(0, 0, -5),
		TerminationType: models.TerminationDismissal,
	}
	require.NoError(t, storage.StoreCase(context.Background(), c))
	return c.CaseID
}

func waitTerminal(t *testing.T, svc *Service, jobID string) *models.FilingJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.GetStatus(context.Background(), jobID)
		require.NoError(t, err)
		if job.IsTerminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

// --- tests ---

func TestSubmitValidationFailureCreatesNoJob(t *testing.T) {
	advisor := &fakeAdvisor{validation: &models.ValidationResult{
		Valid:  false,
		Errors: []string{"missing required field: WorkerName"},
	}}
	svc, storage := newTestService(t, advisor)
	caseID := seedCase(t, storage)

	_, err := svc.Submit(context.Background(), caseID, "owner_1", interfaces.SubmitOptions{})
	require.Error(t, err)

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Result.Errors, 1)

	count, _ := storage.CountJobs(context.Background())
	assert.Zero(t, count, "no job record on validation failure")
}

func TestSubmitSkipValidation(t *testing.T) {
	advisor := &fakeAdvisor{
		validation: &models.ValidationResult{Valid: false, Errors: []string{"boom"}},
		analyzeErr: errors.New("stop before browser"),
	}
	svc, storage := newTestService(t, advisor)
	caseID := seedCase(t, storage)

	job, err := svc.Submit(context.Background(), caseID, "owner_1", interfaces.SubmitOptions{SkipValidation: true})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)

	waitTerminal(t, svc, job.ID)
}

func TestSubmitUnknownCase(t *testing.T) {
	svc, _ := newTestService(t, &fakeAdvisor{})

	_, err := svc.Submit(context.Background(), "case_missing", "owner_1", interfaces.SubmitOptions{})
	assert.ErrorIs(t, err, models.ErrCaseNotFound)
}

func TestJobFailsWhenAnalysisFails(t *testing.T) {
	advisor := &fakeAdvisor{analyzeErr: errors.New("classifier down")}
	svc, storage := newTestService(t, advisor)
	caseID := seedCase(t, storage)

	job, err := svc.Submit(context.Background(), caseID, "owner_1", interfaces.SubmitOptions{})
	require.NoError(t, err)

	final := waitTerminal(t, svc, job.ID)
	assert.Equal(t, models.JobStatusFailed, final.Status)
	assert.Contains(t, final.Error, "classifier down")
	assert.Nil(t, final.Result)
	assert.Equal(t, 100, final.Progress)

	logs, err := svc.GetLogs(context.Background(), job.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, logs)
}

func TestCancelRunningJob(t *testing.T) {
	advisor := &fakeAdvisor{block: make(chan struct{})}
	svc, storage := newTestService(t, advisor)
	caseID := seedCase(t, storage)

	job, err := svc.Submit(context.Background(), caseID, "owner_1", interfaces.SubmitOptions{})
	require.NoError(t, err)

	// Let the routine reach the blocking analysis call
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, svc.Cancel(context.Background(), job.ID))

	final := waitTerminal(t, svc, job.ID)
	assert.Equal(t, models.JobStatusCancelled, final.Status)
	assert.Nil(t, final.Result)
	assert.Empty(t, final.Error)
}

func TestCancelTerminalJobFails(t *testing.T) {
	svc, storage := newTestService(t, &fakeAdvisor{})

	job := &models.FilingJob{ID: "job_done", Status: models.JobStatusCompleted}
	require.NoError(t, storage.StoreJob(context.Background(), job))

	err := svc.Cancel(context.Background(), "job_done")
	assert.ErrorIs(t, err, models.ErrJobTerminal)
}

func TestCancelUnknownJob(t *testing.T) {
	svc, _ := newTestService(t, &fakeAdvisor{})

	err := svc.Cancel(context.Background(), "job_missing")
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestQueueFullRejectsSubmission(t *testing.T) {
	advisor := &fakeAdvisor{block: make(chan struct{}), analyzeErr: errors.New("stop before browser")}
	defer close(advisor.block)

	svc, storage := newTestService(t, advisor)
	caseID := seedCase(t, storage)
	svc.config.Filing.MaxConcurrentJobs = 2

	for i := 0; i < 2; i++ {
		_, err := svc.Submit(context.Background(), caseID, "owner_1", interfaces.SubmitOptions{})
		require.NoError(t, err)
	}

	_, err := svc.Submit(context.Background(), caseID, "owner_1", interfaces.SubmitOptions{})
	assert.ErrorIs(t, err, models.ErrQueueFull)
}

func TestQueueCapHoldsUnderConcurrentSubmits(t *testing.T) {
	advisor := &fakeAdvisor{block: make(chan struct{}), analyzeErr: errors.New("stop before browser")}
	defer close(advisor.block)

	svc, storage := newTestService(t, advisor)
	caseID := seedCase(t, storage)
	svc.config.Filing.MaxConcurrentJobs = 2

	// Every accepted job parks in the blocking analysis call, so the
	// active set only grows while the submissions race each other
	var wg sync.WaitGroup
	var accepted int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), caseID, "owner_1", interfaces.SubmitOptions{})
			if err == nil {
				atomic.AddInt64(&accepted, 1)
				return
			}
			assert.ErrorIs(t, err, models.ErrQueueFull)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 2, accepted, "submissions past the cap must be rejected")
}

func TestGetStatusFallsBackToStorage(t *testing.T) {
	svc, storage := newTestService(t, &fakeAdvisor{})

	stored := &models.FilingJob{ID: "job_old", Status: models.JobStatusCompleted, OwnerID: "owner_1"}
	require.NoError(t, storage.StoreJob(context.Background(), stored))

	job, err := svc.GetStatus(context.Background(), "job_old")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)

	_, err = svc.GetStatus(context.Background(), "job_never")
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestRecoverOrphans(t *testing.T) {
	svc, storage := newTestService(t, &fakeAdvisor{})

	require.NoError(t, storage.StoreJob(context.Background(), &models.FilingJob{
		ID: "job_orphan", Status: models.JobStatusRunning,
	}))
	require.NoError(t, storage.StoreJob(context.Background(), &models.FilingJob{
		ID: "job_ok", Status: models.JobStatusCompleted,
	}))

	require.NoError(t, svc.RecoverOrphans(context.Background()))

	orphan, err := svc.GetStatus(context.Background(), "job_orphan")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, orphan.Status)
	assert.Contains(t, orphan.Error, "restart")

	ok, err := svc.GetStatus(context.Background(), "job_ok")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, ok.Status)
}
