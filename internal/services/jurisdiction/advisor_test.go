package jurisdiction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/common"
	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/models"
)

type stubVision struct {
	answer string
	err    error
	calls  int
}

func (s *stubVision) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.answer, s.err
}

func (s *stubVision) AnalyzeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	s.calls++
	return s.answer, s.err
}

func (s *stubVision) Provider() interfaces.VisionProvider   { return interfaces.VisionProviderClaude }
func (s *stubVision) HealthCheck(ctx context.Context) error { return nil }
func (s *stubVision) Close() error                          { return nil }

func newTestAdvisor(vision interfaces.VisionService) *Advisor {
	config := common.NewDefaultConfig()
	return NewAdvisor(&config.Filing, vision, arbor.NewLogger())
}

func testCase() *models.CaseSnapshot {
	return &models.CaseSnapshot{
		CaseID:          "case_1",
		OwnerID:         "owner_1",
		WorkerName:      "María López",
		EmployerName:    "Comercializadora del Norte SA de CV",
		WorkState:       "Jalisco",
		TerminationDate: time.Now().AddDate(0, 0, -10),
		TerminationType: models.TerminationDismissal,
	}
}

func TestFederalEmployerShortCircuitsModel(t *testing.T) {
	vision := &stubVision{err: errors.New("must not be called")}
	advisor := newTestAdvisor(vision)

	c := testCase()
	c.EmployerName = "Petróleos Mexicanos"

	decision, err := advisor.Analyze(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, decision.EsFederal)
	assert.GreaterOrEqual(t, decision.Confidence, 0.9)
	assert.Equal(t, models.DecisionSourceRules, decision.Source)
	assert.Zero(t, vision.calls, "high-confidence rule match must skip the model")
}

func TestFederalIndustryKeywordMatch(t *testing.T) {
	advisor := newTestAdvisor(&stubVision{err: errors.New("unused")})

	c := testCase()
	c.Industry = "Extracción de hidrocarburos"

	decision, err := advisor.Analyze(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, decision.EsFederal)
	assert.Equal(t, "Hidrocarburos", decision.MatchedIndustry)
}

func TestModelFallbackWhenRulesMiss(t *testing.T) {
	vision := &stubVision{answer: `{"es_federal": false, "rationale": "retail is local", "confidence": 0.8}`}
	advisor := newTestAdvisor(vision)

	decision, err := advisor.Analyze(context.Background(), testCase())
	require.NoError(t, err)
	assert.False(t, decision.EsFederal)
	assert.Equal(t, models.DecisionSourceModel, decision.Source)
	assert.Equal(t, 1, vision.calls)
}

func TestModelFailureFallsBackConservatively(t *testing.T) {
	vision := &stubVision{err: errors.New("api down")}
	advisor := newTestAdvisor(vision)

	decision, err := advisor.Analyze(context.Background(), testCase())
	require.NoError(t, err, "model failure must not fail the analysis")
	assert.False(t, decision.EsFederal)
	assert.Equal(t, models.DecisionSourceFallback, decision.Source)
}

func TestModelAnswerWithFences(t *testing.T) {
	vision := &stubVision{answer: "```json\n{\"es_federal\": true, \"rationale\": \"x\", \"confidence\": 0.7}\n```"}
	advisor := newTestAdvisor(vision)

	decision, err := advisor.Analyze(context.Background(), testCase())
	require.NoError(t, err)
	assert.True(t, decision.EsFederal)
}

func TestPortalResolution(t *testing.T) {
	advisor := newTestAdvisor(&stubVision{})

	federal, err := advisor.PortalFor(&models.JurisdictionDecision{EsFederal: true}, "Jalisco")
	require.NoError(t, err)
	assert.Equal(t, models.JurisdictionFederal, federal.Jurisdiction)
	assert.NotEmpty(t, federal.URL)

	local, err := advisor.PortalFor(&models.JurisdictionDecision{EsFederal: false}, "Nuevo León")
	require.NoError(t, err)
	assert.Equal(t, "Nuevo León", local.State)

	_, err = advisor.PortalFor(&models.JurisdictionDecision{EsFederal: false}, "Atlantis")
	assert.ErrorIs(t, err, models.ErrPortalNotFound)
}

func TestPortalDirectoryCoversAllStates(t *testing.T) {
	assert.Len(t, statePortals, 32)
	for state, portal := range statePortals {
		assert.NotEmpty(t, portal.URL, "state %s has no portal URL", state)
		assert.Equal(t, models.JurisdictionLocal, portal.Jurisdiction)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	advisor := newTestAdvisor(&stubVision{})

	c := testCase()
	c.WorkerName = ""
	c.EmployerName = ""

	result := advisor.Validate(c)
	assert.False(t, result.Valid)
	assert.GreaterOrEqual(t, len(result.Errors), 2)
}

func TestValidateDeadlineWindows(t *testing.T) {
	advisor := newTestAdvisor(&stubVision{})

	tests := []struct {
		name            string
		terminationType models.TerminationType
		daysAgo         int
		wantValid       bool
		wantWarning     bool
	}{
		{"dismissal inside window", models.TerminationDismissal, 10, true, false},
		{"dismissal near deadline", models.TerminationDismissal, 50, true, true},
		{"dismissal expired", models.TerminationDismissal, 61, false, false},
		{"rescission inside window", models.TerminationRescission, 10, true, false},
		{"rescission expired before dismissal window", models.TerminationRescission, 45, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCase()
			c.TerminationType = tt.terminationType
			c.TerminationDate = time.Now().AddDate(0, 0, -tt.daysAgo)

			result := advisor.Validate(c)
			assert.Equal(t, tt.wantValid, result.Valid, "errors: %v", result.Errors)
			if tt.wantWarning {
				assert.NotEmpty(t, result.Warnings)
			}
		})
	}
}

func TestValidateUnknownState(t *testing.T) {
	advisor := newTestAdvisor(&stubVision{})

	c := testCase()
	c.WorkState = "Narnia"

	result := advisor.Validate(c)
	assert.False(t, result.Valid)
}

func TestDeadlineStatusFields(t *testing.T) {
	advisor := newTestAdvisor(&stubVision{})

	c := testCase()
	c.TerminationDate = time.Now().AddDate(0, 0, -30)

	status := advisor.Deadline(c)
	assert.Equal(t, 60, status.WindowDays)
	assert.False(t, status.Expired)
	assert.InDelta(t, 29, status.DaysRemaining, 1)
}
