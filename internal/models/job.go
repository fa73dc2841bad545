// -----------------------------------------------------------------------
// Filing Job - persisted unit of work for the automated filing agent
// -----------------------------------------------------------------------

package models

import (
	"time"
)

// JobStatus represents the lifecycle state of a filing job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// StepName identifies one of the fixed filing pipeline steps, plus the
// pre/post phases surfaced to polling clients via CurrentStep.
type StepName string

const (
	StepValidation   StepName = "validation"
	StepJurisdiction StepName = "jurisdiction"
	StepSessionOpen  StepName = "session_open"
	StepIndustry     StepName = "industry_selection"
	StepRequestType  StepName = "request_type"
	StepApplicant    StepName = "applicant_data"
	StepRespondent   StepName = "respondent_data"
	StepFacts        StepName = "facts_narrative"
	StepModality     StepName = "modality_selection"
	StepSubmit       StepName = "review_submit"
	StepExtraction   StepName = "result_extraction"
	StepDone         StepName = "done"
)

// FilingJob is the unit of work owned by the filing orchestrator.
//
// Lifecycle: created in "pending" at submission, transitions to "running"
// when the background routine starts, becomes terminal exactly once.
// Invariant: exactly one of {Result, Error} is set once the status is
// completed/failed; cancelled jobs may have neither. Progress is
// monotonically non-decreasing while non-terminal and equals 100 exactly
// when the status is completed or failed.
type FilingJob struct {
	ID      string `json:"id" badgerhold:"key"`
	CaseID  string `json:"case_id" badgerhold:"index"`
	OwnerID string `json:"owner_id" badgerhold:"index"`

	Status      JobStatus `json:"status" badgerhold:"index"`
	CurrentStep StepName  `json:"current_step"`
	Progress    int       `json:"progress"` // 0-100

	Result *SubmissionResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`

	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	LastHeartbeat *time.Time `json:"last_heartbeat,omitempty"`

	// Snapshot of submit-time options
	Modality       string `json:"modality,omitempty"`
	SkipValidation bool   `json:"skip_validation,omitempty"`

	// Logs live append-only in their own keyspace; this field is only
	// populated on status responses and is empty on stored records
	Logs []JobLogEntry `json:"logs,omitempty"`
}

// MarkStarted marks the job as started
func (j *FilingJob) MarkStarted() {
	j.Status = JobStatusRunning
	now := time.Now()
	j.StartedAt = &now
	j.LastHeartbeat = &now
}

// MarkCompleted marks the job as completed with its result
func (j *FilingJob) MarkCompleted(result *SubmissionResult) {
	j.Status = JobStatusCompleted
	j.Result = result
	j.Error = ""
	j.Progress = 100
	j.CurrentStep = StepDone
	now := time.Now()
	j.CompletedAt = &now
}

// MarkFailed marks the job as failed with an error message
func (j *FilingJob) MarkFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.Error = errorMsg
	j.Result = nil
	j.Progress = 100
	now := time.Now()
	j.CompletedAt = &now
}

// MarkCancelled marks the job as cancelled. Progress is left where it was;
// neither Result nor Error is set.
func (j *FilingJob) MarkCancelled() {
	j.Status = JobStatusCancelled
	now := time.Now()
	j.CompletedAt = &now
}

// UpdateHeartbeat updates the last heartbeat timestamp
func (j *FilingJob) UpdateHeartbeat() {
	now := time.Now()
	j.LastHeartbeat = &now
}

// AdvanceProgress raises progress to pct; progress never moves backwards
func (j *FilingJob) AdvanceProgress(pct int) {
	if pct > j.Progress {
		j.Progress = pct
	}
	if j.Progress > 100 {
		j.Progress = 100
	}
}

// IsTerminal returns true if the job is in a terminal state
func (j *FilingJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted ||
		j.Status == JobStatusFailed ||
		j.Status == JobStatusCancelled
}
