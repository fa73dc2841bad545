// -----------------------------------------------------------------------
// Stage definitions - the fixed, ordered form-filling sequence against
// the conciliation portal. Selectors target the SINACOL solicitud form.
// -----------------------------------------------------------------------

package pipeline

import (
	"fmt"

	"github.com/prolabora/concilia/internal/models"
	"github.com/prolabora/concilia/internal/services/browser"
)

// Stage is one named step of the filing sequence. Anchor is the selector
// that must render before the stage runs; Build produces the interactions
// from the immutable case snapshot.
type Stage struct {
	Name    models.StepName
	Anchor  string
	Advance string // selector of the continue/next control, empty for none
	Build   func(c *models.CaseSnapshot, modality string) []browser.Action
}

// Stages returns the filing sequence in execution order. The order is a
// contract with the portal wizard and must not be changed or branched.
func Stages() []Stage {
	return []Stage{
		{
			Name:    models.StepIndustry,
			Anchor:  "#selectIndustria",
			Advance: "#btnSiguienteIndustria",
			Build: func(c *models.CaseSnapshot, _ string) []browser.Action {
				industry := c.Industry
				if industry == "" {
					industry = "OTRO"
				}
				return []browser.Action{
					{Kind: browser.ActionSelect, Selector: "#selectIndustria", Value: industry},
				}
			},
		},
		{
			Name:    models.StepRequestType,
			Anchor:  "#tipoSolicitud",
			Advance: "#btnSiguienteTipo",
			Build: func(c *models.CaseSnapshot, _ string) []browser.Action {
				return []browser.Action{
					// Individual worker-initiated conciliation request
					{Kind: browser.ActionCheck, Selector: "#tipoSolicitudIndividual"},
				}
			},
		},
		{
			Name:    models.StepApplicant,
			Anchor:  "#formSolicitante",
			Advance: "#btnSiguienteSolicitante",
			Build: func(c *models.CaseSnapshot, _ string) []browser.Action {
				actions := []browser.Action{
					{Kind: browser.ActionType, Selector: "#inputNombreSolicitante", Value: c.WorkerName},
				}
				if c.WorkerCURP != "" {
					actions = append(actions, browser.Action{Kind: browser.ActionType, Selector: "#inputCurpSolicitante", Value: c.WorkerCURP})
				}
				if c.WorkerRFC != "" {
					actions = append(actions, browser.Action{Kind: browser.ActionType, Selector: "#inputRfcSolicitante", Value: c.WorkerRFC})
				}
				if c.WorkerEmail != "" {
					actions = append(actions, browser.Action{Kind: browser.ActionType, Selector: "#inputCorreoSolicitante", Value: c.WorkerEmail})
				}
				if c.WorkerPhone != "" {
					actions = append(actions, browser.Action{Kind: browser.ActionType, Selector: "#inputTelefonoSolicitante", Value: c.WorkerPhone})
				}
				return actions
			},
		},
		{
			Name:    models.StepRespondent,
			Anchor:  "#formCitado",
			Advance: "#btnSiguienteCitado",
			Build: func(c *models.CaseSnapshot, _ string) []browser.Action {
				actions := []browser.Action{
					{Kind: browser.ActionType, Selector: "#inputNombreCitado", Value: c.EmployerName},
				}
				if c.EmployerRFC != "" {
					actions = append(actions, browser.Action{Kind: browser.ActionType, Selector: "#inputRfcCitado", Value: c.EmployerRFC})
				}
				if c.EmployerAddress != "" {
					actions = append(actions, browser.Action{Kind: browser.ActionType, Selector: "#inputDomicilioCitado", Value: c.EmployerAddress})
				}
				return actions
			},
		},
		{
			Name:    models.StepFacts,
			Anchor:  "#textareaHechos",
			Advance: "#btnSiguienteHechos",
			Build: func(c *models.CaseSnapshot, _ string) []browser.Action {
				return []browser.Action{
					{Kind: browser.ActionType, Selector: "#textareaHechos", Value: Narrative(c)},
				}
			},
		},
		{
			Name:    models.StepModality,
			Anchor:  "#selectModalidad",
			Advance: "#btnSiguienteModalidad",
			Build: func(c *models.CaseSnapshot, modality string) []browser.Action {
				if modality == "" {
					modality = c.PreferredModality()
				}
				return []browser.Action{
					{Kind: browser.ActionSelect, Selector: "#selectModalidad", Value: modality},
				}
			},
		},
		{
			Name:   models.StepSubmit,
			Anchor: "#resumenSolicitud",
			// Submission is handled by the runner; the challenge check
			// happens between review and the final click
			Advance: "",
			Build: func(c *models.CaseSnapshot, _ string) []browser.Action {
				return nil
			},
		},
	}
}

// Narrative returns the facts text, synthesizing a minimal formal account
// when the case carries none
func Narrative(c *models.CaseSnapshot) string {
	if c.Narrative != "" {
		return c.Narrative
	}

	verb := "fue despedido(a) de manera injustificada por"
	if c.TerminationType == models.TerminationRescission {
		verb = "rescindió la relación laboral por causas imputables a"
	}

	text := fmt.Sprintf(
		"El(la) trabajador(a) %s %s %s el día %s, en el estado de %s.",
		c.WorkerName, verb, c.EmployerName,
		c.TerminationDate.Format("02/01/2006"), c.WorkState,
	)
	if c.DailyWage > 0 {
		text += fmt.Sprintf(" Percibía un salario diario de $%.2f MXN.", c.DailyWage)
	}
	text += " Se solicita la conciliación para el pago de las prestaciones que en derecho correspondan."
	return text
}
