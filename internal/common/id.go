package common

import (
	"github.com/google/uuid"
)

// NewJobID generates a unique filing job ID with the "job_" prefix
// Format: job_<uuid>
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewCaseID generates a unique case ID with the "case_" prefix
// Format: case_<uuid>
func NewCaseID() string {
	return "case_" + uuid.New().String()
}
