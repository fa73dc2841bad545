package models

import (
	"time"
)

// Log levels for job log entries
const (
	LogLevelInfo    = "info"
	LogLevelWarn    = "warn"
	LogLevelError   = "error"
	LogLevelSuccess = "success"
)

// JobLogEntry is one append-only log line owned by a filing job.
//
// Timestamp is "15:04:05.000" for display; FullTimestamp is RFC3339Nano
// and is the sort key. ScreenshotPath, when set, references a PNG in the
// blob area keyed by job id.
type JobLogEntry struct {
	Timestamp       string            `json:"timestamp"`
	FullTimestamp   string            `json:"full_timestamp"`
	Level           string            `json:"level" badgerhold:"index"`
	Message         string            `json:"message"`
	Fields          map[string]string `json:"fields,omitempty"`
	ScreenshotPath  string            `json:"screenshot_path,omitempty"`
	AssociatedJobID string            `json:"job_id" badgerhold:"index"`
}

// NewJobLogEntry creates a log entry stamped with the current time
func NewJobLogEntry(level, message string) JobLogEntry {
	now := time.Now()
	return JobLogEntry{
		Timestamp:     now.Format("15:04:05.000"),
		FullTimestamp: now.Format(time.RFC3339Nano),
		Level:         level,
		Message:       message,
	}
}
