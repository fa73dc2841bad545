package main

import (
	"fmt"
	"strings"

	"github.com/prolabora/concilia/internal/models"
)

// formatJob renders a filing job as markdown
func formatJob(job *models.FilingJob) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Filing Job %s\n\n", job.ID))
	sb.WriteString(fmt.Sprintf("- **Case:** %s\n", job.CaseID))
	sb.WriteString(fmt.Sprintf("- **Owner:** %s\n", job.OwnerID))
	sb.WriteString(fmt.Sprintf("- **Status:** %s\n", job.Status))
	sb.WriteString(fmt.Sprintf("- **Step:** %s\n", job.CurrentStep))
	sb.WriteString(fmt.Sprintf("- **Progress:** %d%%\n", job.Progress))

	if job.Error != "" {
		sb.WriteString(fmt.Sprintf("- **Error:** %s\n", job.Error))
	}

	if job.Result != nil {
		sb.WriteString("\n## Result\n\n")
		sb.WriteString(fmt.Sprintf("- **Folio:** %s\n", job.Result.FolioSolicitud))
		if job.Result.HearingDate != "" {
			sb.WriteString(fmt.Sprintf("- **Hearing:** %s %s (%s)\n", job.Result.HearingDate, job.Result.HearingTime, job.Result.Modality))
		}
		if job.Result.MeetingLink != "" {
			sb.WriteString(fmt.Sprintf("- **Meeting link:** %s\n", job.Result.MeetingLink))
		}
		if job.Result.ConfirmationDeadline != "" {
			sb.WriteString(fmt.Sprintf("- **Confirm by:** %s\n", job.Result.ConfirmationDeadline))
		}
		if job.Result.Authority.Name != "" {
			sb.WriteString(fmt.Sprintf("- **Authority:** %s\n", job.Result.Authority.Name))
		}
		for _, instruction := range job.Result.Instructions {
			sb.WriteString(fmt.Sprintf("- %s\n", instruction))
		}
	}

	return sb.String()
}

// formatJobList renders recent jobs as a markdown table
func formatJobList(owner string, jobs []*models.FilingJob) string {
	if len(jobs) == 0 {
		return fmt.Sprintf("No filing jobs found for owner %s", owner)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Filing Jobs for %s (%d)\n\n", owner, len(jobs)))
	sb.WriteString("| Job | Case | Status | Progress | Folio |\n")
	sb.WriteString("|-----|------|--------|----------|-------|\n")

	for _, job := range jobs {
		folio := ""
		if job.Result != nil {
			folio = job.Result.FolioSolicitud
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d%% | %s |\n",
			job.ID, job.CaseID, job.Status, job.Progress, folio))
	}

	return sb.String()
}

// formatLogs renders job log entries as markdown
func formatLogs(jobID string, logs []models.JobLogEntry) string {
	if len(logs) == 0 {
		return fmt.Sprintf("No log entries for job %s", jobID)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Log for %s (%d entries)\n\n", jobID, len(logs)))

	for _, entry := range logs {
		sb.WriteString(fmt.Sprintf("- `%s` **%s** %s", entry.Timestamp, entry.Level, entry.Message))
		if entry.ScreenshotPath != "" {
			sb.WriteString(fmt.Sprintf(" (screenshot: %s)", entry.ScreenshotPath))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatValidation renders a failed validation result
func formatValidation(result *models.ValidationResult) string {
	var sb strings.Builder
	sb.WriteString("# Case Validation Failed\n\n")

	for _, e := range result.Errors {
		sb.WriteString(fmt.Sprintf("- **Error:** %s\n", e))
	}
	for _, w := range result.Warnings {
		sb.WriteString(fmt.Sprintf("- Warning: %s\n", w))
	}

	return sb.String()
}

// formatAdvice renders the jurisdiction decision, portal and deadline
func formatAdvice(c *models.CaseSnapshot, decision *models.JurisdictionDecision, portal *models.PortalInfo, deadline *models.DeadlineStatus) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Jurisdiction Advice for %s\n\n", c.CaseID))
	sb.WriteString(fmt.Sprintf("- **Jurisdiction:** %s\n", decision.Jurisdiction()))
	sb.WriteString(fmt.Sprintf("- **Authority:** %s\n", decision.Authority))
	sb.WriteString(fmt.Sprintf("- **Confidence:** %.2f (%s)\n", decision.Confidence, decision.Source))
	sb.WriteString(fmt.Sprintf("- **Rationale:** %s\n", decision.Rationale))

	if portal != nil {
		sb.WriteString("\n## Portal\n\n")
		sb.WriteString(fmt.Sprintf("- **URL:** %s\n", portal.URL))
		if portal.Address != "" {
			sb.WriteString(fmt.Sprintf("- **Address:** %s\n", portal.Address))
		}
		if portal.Phone != "" {
			sb.WriteString(fmt.Sprintf("- **Phone:** %s\n", portal.Phone))
		}
	}

	if deadline != nil {
		sb.WriteString("\n## Filing Deadline\n\n")
		sb.WriteString(fmt.Sprintf("- **Deadline:** %s (%d-day window)\n", deadline.DeadlineDate, deadline.WindowDays))
		if deadline.Expired {
			sb.WriteString("- **EXPIRED:** the statutory filing window has passed\n")
		} else {
			sb.WriteString(fmt.Sprintf("- **Days remaining:** %d\n", deadline.DaysRemaining))
			if deadline.Warning {
				sb.WriteString("- Warning: the filing window closes soon\n")
			}
		}
	}

	return sb.String()
}
