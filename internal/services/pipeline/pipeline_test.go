package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prolabora/concilia/internal/models"
)

func TestStageOrderIsFixed(t *testing.T) {
	expected := []models.StepName{
		models.StepIndustry,
		models.StepRequestType,
		models.StepApplicant,
		models.StepRespondent,
		models.StepFacts,
		models.StepModality,
		models.StepSubmit,
	}

	stages := Stages()
	require.Len(t, stages, len(expected))
	for i, stage := range stages {
		assert.Equal(t, expected[i], stage.Name)
		assert.NotEmpty(t, stage.Anchor, "stage %s has no anchor", stage.Name)
	}
}

func TestEveryStageBeforeSubmitAdvances(t *testing.T) {
	stages := Stages()
	for _, stage := range stages[:len(stages)-1] {
		assert.NotEmpty(t, stage.Advance, "stage %s has no advance control", stage.Name)
	}
	assert.Empty(t, stages[len(stages)-1].Advance, "submit stage must be driven by the runner")
}

func TestApplicantStageSkipsEmptyOptionalFields(t *testing.T) {
	c := &models.CaseSnapshot{
		WorkerName:   "Juan Pérez",
		EmployerName: "Empresa SA",
	}

	var applicant Stage
	for _, stage := range Stages() {
		if stage.Name == models.StepApplicant {
			applicant = stage
		}
	}

	actions := applicant.Build(c, "")
	require.Len(t, actions, 1, "only the name is set, only the name should be typed")
	assert.Equal(t, "Juan Pérez", actions[0].Value)

	c.WorkerCURP = "PEPJ800101HDFRRN09"
	c.WorkerEmail = "juan@example.com"
	actions = applicant.Build(c, "")
	assert.Len(t, actions, 3)
}

func TestModalityStagePreference(t *testing.T) {
	var modality Stage
	for _, stage := range Stages() {
		if stage.Name == models.StepModality {
			modality = stage
		}
	}

	c := &models.CaseSnapshot{}

	// Explicit override wins
	actions := modality.Build(c, models.ModalityInPerson)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ModalityInPerson, actions[0].Value)

	// Case preference next
	c.DesiredModality = models.ModalityInPerson
	actions = modality.Build(c, "")
	assert.Equal(t, models.ModalityInPerson, actions[0].Value)

	// Remote is the default
	c.DesiredModality = ""
	actions = modality.Build(c, "")
	assert.Equal(t, models.ModalityRemote, actions[0].Value)
}

func TestNarrativeSynthesis(t *testing.T) {
	c := &models.CaseSnapshot{
		WorkerName:      "Ana Ruiz",
		EmployerName:    "Fábrica del Centro SA",
		WorkState:       "Puebla",
		DailyWage:       412.50,
		TerminationDate: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		TerminationType: models.TerminationDismissal,
	}

	text := Narrative(c)
	assert.Contains(t, text, "Ana Ruiz")
	assert.Contains(t, text, "Fábrica del Centro SA")
	assert.Contains(t, text, "10/05/2026")
	assert.Contains(t, text, "412.50")
	assert.Contains(t, text, "despedido")

	c.TerminationType = models.TerminationRescission
	assert.Contains(t, Narrative(c), "rescindió")

	c.Narrative = "Texto proporcionado por la persona usuaria."
	assert.Equal(t, c.Narrative, Narrative(c))
}
