package models

// AuthorityContact identifies the conciliation center handling the filing
type AuthorityContact struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// SubmissionResult is the structured outcome of a completed filing.
//
// Success is true iff FolioSolicitud is non-empty: a filing without a folio
// is not a filing, whatever the confirmation page looked like. All other
// fields are best-effort.
type SubmissionResult struct {
	Success              bool             `json:"success"`
	FolioSolicitud       string           `json:"folio_solicitud"`
	HearingDate          string           `json:"hearing_date,omitempty"` // 2006-01-02
	HearingTime          string           `json:"hearing_time,omitempty"` // 15:04
	Modality             string           `json:"modality,omitempty"`
	MeetingLink          string           `json:"meeting_link,omitempty"`
	ConfirmationDeadline string           `json:"confirmation_deadline,omitempty"`
	Authority            AuthorityContact `json:"authority,omitempty"`
	Instructions         []string         `json:"instructions,omitempty"`
	AcusePath            string           `json:"acuse_path,omitempty"`
	ExtractionSource     string           `json:"extraction_source,omitempty"` // vision | dom | regex
}

// ValidationResult reports pre-flight case validation. Errors block the
// filing; warnings do not.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// StepResult is the outcome of a single pipeline stage
type StepResult struct {
	Stage      StepName `json:"stage"`
	Success    bool     `json:"success"`
	Error      string   `json:"error,omitempty"`
	Screenshot []byte   `json:"-"`
	Advanced   bool     `json:"advanced"` // Whether the portal moved to the next stage
}

// CaptchaSolution is the vision model's read of a challenge image
type CaptchaSolution struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Provider   string  `json:"provider,omitempty"`
}
