// -----------------------------------------------------------------------
// Jurisdiction advisor - decides federal vs. local competent authority,
// resolves the filing portal and validates case readiness
// -----------------------------------------------------------------------

package jurisdiction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/common"
	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/models"
)

// Advisor implements the JurisdictionService interface. Decisions run a
// deterministic keyword pass first; the model is consulted only when the
// rules are not confident enough.
type Advisor struct {
	config   *common.FilingConfig
	vision   interfaces.VisionService
	logger   arbor.ILogger
	validate *validator.Validate
}

// NewAdvisor creates a new jurisdiction advisor
func NewAdvisor(config *common.FilingConfig, vision interfaces.VisionService, logger arbor.ILogger) *Advisor {
	return &Advisor{
		config:   config,
		vision:   vision,
		logger:   logger,
		validate: validator.New(),
	}
}

// Analyze decides federal vs. local jurisdiction for the case
func (a *Advisor) Analyze(ctx context.Context, c *models.CaseSnapshot) (*models.JurisdictionDecision, error) {
	ruleDecision := a.matchRules(c)
	if ruleDecision != nil && ruleDecision.Confidence >= a.config.ConfidenceShortCircuit {
		a.logger.Debug().
			Str("matched_industry", ruleDecision.MatchedIndustry).
			Str("matched_employer", ruleDecision.MatchedEmployer).
			Float64("confidence", ruleDecision.Confidence).
			Msg("Jurisdiction decided by rules")
		return ruleDecision, nil
	}

	modelDecision, err := a.askModel(ctx, c)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Model classification failed, using deterministic fallback")
		if ruleDecision != nil {
			ruleDecision.Source = models.DecisionSourceFallback
			return ruleDecision, nil
		}
		// Conservative default: local jurisdiction in the work state
		return &models.JurisdictionDecision{
			EsFederal:  false,
			Rationale:  "No federal industry or employer detected; defaulting to local jurisdiction",
			Confidence: 0.5,
			Authority:  a.authorityName(false, c.WorkState),
			Source:     models.DecisionSourceFallback,
		}, nil
	}

	return modelDecision, nil
}

// matchRules runs the keyword pass over employer name and industry.
// Employer identity beats industry branch; first match wins within each
// list.
func (a *Advisor) matchRules(c *models.CaseSnapshot) *models.JurisdictionDecision {
	employer := normalize(c.EmployerName)
	for _, known := range federalEmployers {
		if strings.Contains(employer, known) {
			return &models.JurisdictionDecision{
				EsFederal:       true,
				Rationale:       fmt.Sprintf("Employer %q is a known federal-jurisdiction employer", c.EmployerName),
				MatchedEmployer: known,
				Confidence:      0.95,
				Authority:       a.authorityName(true, c.WorkState),
				Source:          models.DecisionSourceRules,
			}
		}
	}

	haystack := normalize(c.Industry + " " + c.EmployerName)
	for _, industry := range federalIndustries {
		for _, keyword := range industry.Keywords {
			if strings.Contains(haystack, keyword) {
				return &models.JurisdictionDecision{
					EsFederal:       true,
					Rationale:       fmt.Sprintf("Industry matches federally regulated branch %q (keyword %q)", industry.Name, keyword),
					MatchedIndustry: industry.Name,
					Confidence:      0.9,
					Authority:       a.authorityName(true, c.WorkState),
					Source:          models.DecisionSourceRules,
				}
			}
		}
	}

	return nil
}

// modelDecision is the JSON shape the model is instructed to return
type modelDecision struct {
	EsFederal  bool    `json:"es_federal"`
	Rationale  string  `json:"rationale"`
	Confidence float64 `json:"confidence"`
}

func (a *Advisor) askModel(ctx context.Context, c *models.CaseSnapshot) (*models.JurisdictionDecision, error) {
	prompt := fmt.Sprintf(`You are a Mexican labor law expert. Decide whether this individual labor dispute falls under FEDERAL or LOCAL jurisdiction per Art. 527 of the Ley Federal del Trabajo.

Employer: %s
Stated industry: %s
Work state: %s

Federal jurisdiction applies only to the industry branches listed in Art. 527 (textiles, electricity, hydrocarbons, railways, banking, aviation, mining, and the other enumerated branches) and to companies under federal contract or decentralized federal agencies. Everything else is local.

Reply with ONLY a JSON object, no markdown fences:
{"es_federal": true|false, "rationale": "<one sentence>", "confidence": 0.0-1.0}`,
		c.EmployerName, c.Industry, c.WorkState)

	answer, err := a.vision.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	// Strip markdown fences the model may add despite instructions
	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(answer, "```json")
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")

	var parsed modelDecision
	if err := json.Unmarshal([]byte(strings.TrimSpace(answer)), &parsed); err != nil {
		return nil, fmt.Errorf("model returned unparseable decision: %w", err)
	}

	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}

	return &models.JurisdictionDecision{
		EsFederal:  parsed.EsFederal,
		Rationale:  parsed.Rationale,
		Confidence: parsed.Confidence,
		Authority:  a.authorityName(parsed.EsFederal, c.WorkState),
		Source:     models.DecisionSourceModel,
	}, nil
}

// PortalFor resolves the portal directory entry for a decision. Unmapped
// states are an error, never a silent federal default.
func (a *Advisor) PortalFor(decision *models.JurisdictionDecision, state string) (*models.PortalInfo, error) {
	if decision.EsFederal {
		portal := federalPortal
		return &portal, nil
	}

	portal, ok := statePortals[normalize(state)]
	if !ok {
		return nil, fmt.Errorf("%w: state %q", models.ErrPortalNotFound, state)
	}
	return &portal, nil
}

// Deadline computes the filing window for the case. Dismissals get the
// two-month window; worker-initiated rescissions get one month (Arts. 517
// and 518 LFT count them differently).
func (a *Advisor) Deadline(c *models.CaseSnapshot) *models.DeadlineStatus {
	windowDays := a.config.DismissalDeadlineDays
	if c.TerminationType == models.TerminationRescission {
		windowDays = a.config.RescissionDeadlineDays
	}

	deadline := c.TerminationDate.AddDate(0, 0, windowDays)
	daysRemaining := int(time.Until(deadline).Hours() / 24)

	return &models.DeadlineStatus{
		DeadlineDate:  deadline.Format("2006-01-02"),
		DaysRemaining: daysRemaining,
		Expired:       time.Now().After(deadline),
		Warning:       daysRemaining >= 0 && daysRemaining <= a.config.DeadlineWarningDays,
		WindowDays:    windowDays,
	}
}

// Validate checks case completeness and deadline status. Errors block the
// filing; warnings are surfaced but do not.
func (a *Advisor) Validate(c *models.CaseSnapshot) *models.ValidationResult {
	result := &models.ValidationResult{Valid: true}

	if err := a.validate.Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if ok := asValidationErrors(err, &invalid); ok {
			for _, fieldErr := range invalid {
				result.Errors = append(result.Errors, fieldMessage(fieldErr))
			}
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	if !c.TerminationDate.IsZero() {
		deadline := a.Deadline(c)
		if deadline.Expired {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"filing deadline exceeded: %d-day window ended %s", deadline.WindowDays, deadline.DeadlineDate))
		} else if deadline.Warning {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"filing deadline is close: %d day(s) left until %s", deadline.DaysRemaining, deadline.DeadlineDate))
		}
	}

	if c.WorkState != "" && normalize(c.WorkState) != "federal" {
		if _, ok := statePortals[normalize(c.WorkState)]; !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("unknown work state %q", c.WorkState))
		}
	}

	if c.WorkerCURP == "" {
		result.Warnings = append(result.Warnings, "worker CURP missing; portal may require it at login")
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func (a *Advisor) authorityName(federal bool, state string) string {
	if federal {
		return federalPortal.Authority
	}
	if portal, ok := statePortals[normalize(state)]; ok {
		return portal.Authority
	}
	return "Centro de Conciliación Laboral"
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	v, ok := err.(validator.ValidationErrors)
	if ok {
		*target = v
	}
	return ok
}

func fieldMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("missing required field: %s", fieldErr.Field())
	case "email":
		return fmt.Sprintf("invalid email: %s", fieldErr.Field())
	default:
		return fmt.Sprintf("invalid field %s (%s)", fieldErr.Field(), fieldErr.Tag())
	}
}
