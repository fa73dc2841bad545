package models

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced through the API layer
var (
	ErrJobNotFound    = errors.New("job not found")
	ErrCaseNotFound   = errors.New("case not found")
	ErrPortalNotFound = errors.New("no portal for jurisdiction")
	ErrJobTerminal    = errors.New("job already in terminal state")
	ErrQueueFull      = errors.New("too many active filing jobs")
)

// ValidationError carries the blocking issues found during pre-flight
// validation. It wraps nothing; the job fails without a browser session.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("case validation failed: %d error(s)", len(e.Result.Errors))
}

// StageError marks a failure inside a named pipeline stage. The pipeline
// aborts on the first one.
type StageError struct {
	Stage StepName
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ChallengeError marks an anti-automation challenge the agent could not
// clear (unsupported type, or solution rejected by the portal).
type ChallengeError struct {
	Kind   string // captcha_image | captcha_unsupported | blocked
	Detail string
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("challenge not cleared (%s): %s", e.Kind, e.Detail)
}
