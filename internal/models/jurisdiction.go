package models

// Jurisdiction values
const (
	JurisdictionFederal = "federal"
	JurisdictionLocal   = "local"
)

// Decision sources, ordered by cost: static rules first, then the vision
// model, then the conservative fallback.
const (
	DecisionSourceRules    = "rules"
	DecisionSourceModel    = "model"
	DecisionSourceFallback = "fallback"
)

// JurisdictionDecision is the advisor's answer to "where does this case
// get filed". Confidence is in [0,1].
type JurisdictionDecision struct {
	EsFederal       bool    `json:"es_federal"`
	Rationale       string  `json:"rationale"`
	MatchedIndustry string  `json:"matched_industry,omitempty"`
	MatchedEmployer string  `json:"matched_employer,omitempty"`
	Confidence      float64 `json:"confidence"`
	Authority       string  `json:"authority"`
	Source          string  `json:"source"`
}

// Jurisdiction returns the decision as a jurisdiction label
func (d *JurisdictionDecision) Jurisdiction() string {
	if d.EsFederal {
		return JurisdictionFederal
	}
	return JurisdictionLocal
}

// PortalInfo describes one conciliation authority's filing portal
type PortalInfo struct {
	Jurisdiction string `json:"jurisdiction"` // federal | local
	State        string `json:"state,omitempty"`
	Authority    string `json:"authority"`
	URL          string `json:"url"`
	Address      string `json:"address,omitempty"`
	Phone        string `json:"phone,omitempty"`
	AuthScheme   string `json:"auth_scheme"` // none | curp | account
}

// DeadlineStatus reports where the case stands against its filing window
type DeadlineStatus struct {
	DeadlineDate  string `json:"deadline_date"` // 2006-01-02
	DaysRemaining int    `json:"days_remaining"`
	Expired       bool   `json:"expired"`
	Warning       bool   `json:"warning"` // within the warning window
	WindowDays    int    `json:"window_days"`
}
