package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilingJobLifecycle(t *testing.T) {
	job := &FilingJob{
		ID:     "job_test",
		Status: JobStatusPending,
	}

	assert.False(t, job.IsTerminal())

	job.MarkStarted()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.LastHeartbeat)
	assert.False(t, job.IsTerminal())

	job.MarkCompleted(&SubmissionResult{Success: true, FolioSolicitud: "CFCRL/2026/000123"})
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.True(t, job.IsTerminal())
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, StepDone, job.CurrentStep)
	require.NotNil(t, job.Result)
	assert.Empty(t, job.Error)
}

func TestFilingJobResultErrorExclusive(t *testing.T) {
	job := &FilingJob{ID: "job_a", Status: JobStatusRunning}
	job.Result = &SubmissionResult{FolioSolicitud: "X"}

	job.MarkFailed("portal timeout")
	assert.Nil(t, job.Result)
	assert.Equal(t, "portal timeout", job.Error)
	assert.Equal(t, 100, job.Progress)

	job2 := &FilingJob{ID: "job_b", Status: JobStatusRunning, Error: "stale"}
	job2.MarkCompleted(&SubmissionResult{FolioSolicitud: "Y"})
	assert.Empty(t, job2.Error)
	assert.NotNil(t, job2.Result)
}

func TestFilingJobCancelKeepsProgress(t *testing.T) {
	job := &FilingJob{ID: "job_c", Status: JobStatusRunning, Progress: 40}
	job.MarkCancelled()

	assert.Equal(t, JobStatusCancelled, job.Status)
	assert.True(t, job.IsTerminal())
	assert.Equal(t, 40, job.Progress)
	assert.Nil(t, job.Result)
	assert.Empty(t, job.Error)
	assert.NotNil(t, job.CompletedAt)
}

func TestAdvanceProgressMonotonic(t *testing.T) {
	job := &FilingJob{ID: "job_d", Progress: 30}

	job.AdvanceProgress(55)
	assert.Equal(t, 55, job.Progress)

	job.AdvanceProgress(20)
	assert.Equal(t, 55, job.Progress, "progress must never move backwards")

	job.AdvanceProgress(250)
	assert.Equal(t, 100, job.Progress)
}

func TestJurisdictionLabel(t *testing.T) {
	tests := []struct {
		name      string
		esFederal bool
		expected  string
	}{
		{"federal decision", true, JurisdictionFederal},
		{"local decision", false, JurisdictionLocal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &JurisdictionDecision{EsFederal: tt.esFederal}
			assert.Equal(t, tt.expected, d.Jurisdiction())
		})
	}
}

func TestPreferredModalityDefaultsRemote(t *testing.T) {
	c := &CaseSnapshot{}
	assert.Equal(t, ModalityRemote, c.PreferredModality())

	c.DesiredModality = ModalityInPerson
	assert.Equal(t, ModalityInPerson, c.PreferredModality())

	c.DesiredModality = "hybrid"
	assert.Equal(t, ModalityRemote, c.PreferredModality())
}
