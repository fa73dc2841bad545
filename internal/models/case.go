package models

import (
	"time"
)

// TerminationType distinguishes how the employment relationship ended.
// The filing-deadline window depends on it.
type TerminationType string

const (
	// TerminationDismissal covers employer-initiated dismissal (despido)
	TerminationDismissal TerminationType = "despido"
	// TerminationRescission covers worker-initiated rescission for employer
	// fault (rescision), which carries a shorter filing window
	TerminationRescission TerminationType = "rescision"
)

// Hearing modality values
const (
	ModalityRemote   = "remota"
	ModalityInPerson = "presencial"
)

// CaseSnapshot is a read-only projection of the case and worker/employer
// data needed to fill the filing form. It is supplied once at job start and
// never mutated by the agent.
type CaseSnapshot struct {
	CaseID  string `json:"case_id" badgerhold:"key" validate:"required"`
	OwnerID string `json:"owner_id" validate:"required"`

	// Applicant (worker)
	WorkerName  string `json:"worker_name" validate:"required"`
	WorkerRFC   string `json:"worker_rfc,omitempty"`
	WorkerCURP  string `json:"worker_curp,omitempty"`
	WorkerEmail string `json:"worker_email,omitempty" validate:"omitempty,email"`
	WorkerPhone string `json:"worker_phone,omitempty"`

	// Respondent (employer)
	EmployerName    string `json:"employer_name" validate:"required"`
	EmployerRFC     string `json:"employer_rfc,omitempty"`
	EmployerAddress string `json:"employer_address,omitempty"`
	Industry        string `json:"industry,omitempty"`

	// Employment facts
	WorkState       string          `json:"work_state" validate:"required"` // State where services were rendered
	DailyWage       float64         `json:"daily_wage,omitempty"`
	HireDate        *time.Time      `json:"hire_date,omitempty"`
	TerminationDate time.Time       `json:"termination_date" validate:"required"`
	TerminationType TerminationType `json:"termination_type" validate:"required"`

	// Filing preferences
	Narrative        string `json:"narrative,omitempty"` // Facts narrative; synthesized when empty
	DesiredModality  string `json:"desired_modality,omitempty"`
}

// PreferredModality returns the desired hearing modality, defaulting to remote
func (c *CaseSnapshot) PreferredModality() string {
	if c.DesiredModality == ModalityInPerson {
		return ModalityInPerson
	}
	return ModalityRemote
}
