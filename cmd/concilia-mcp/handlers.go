package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/models"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleSubmitFiling implements the submit_filing tool
func handleSubmitFiling(filingService interfaces.FilingService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caseID, err := request.RequireString("case_id")
		if err != nil || caseID == "" {
			return textResult("Error: case_id parameter is required"), nil
		}
		ownerID, err := request.RequireString("owner_id")
		if err != nil || ownerID == "" {
			return textResult("Error: owner_id parameter is required"), nil
		}

		opts := interfaces.SubmitOptions{
			Modality:       request.GetString("modality", ""),
			SkipValidation: request.GetBool("skip_validation", false),
		}

		job, err := filingService.Submit(ctx, caseID, ownerID, opts)
		if err != nil {
			var validationErr *models.ValidationError
			switch {
			case errors.As(err, &validationErr):
				return textResult(formatValidation(&validationErr.Result)), nil
			case errors.Is(err, models.ErrCaseNotFound):
				return textResult(fmt.Sprintf("Case not found: %s", caseID)), nil
			case errors.Is(err, models.ErrQueueFull):
				return textResult("Too many active filing jobs, retry later"), nil
			default:
				logger.Error().Err(err).Msg("Submit failed")
				return textResult(fmt.Sprintf("Submit error: %v", err)), nil
			}
		}

		return textResult(formatJob(job)), nil
	}
}

// handleGetFilingStatus implements the get_filing_status tool
func handleGetFilingStatus(filingService interfaces.FilingService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, err := request.RequireString("job_id")
		if err != nil || jobID == "" {
			return textResult("Error: job_id parameter is required"), nil
		}

		job, err := filingService.GetStatus(ctx, jobID)
		if err != nil {
			if errors.Is(err, models.ErrJobNotFound) {
				return textResult(fmt.Sprintf("Job not found: %s", jobID)), nil
			}
			logger.Error().Err(err).Str("job_id", jobID).Msg("GetStatus failed")
			return textResult(fmt.Sprintf("Status error: %v", err)), nil
		}

		return textResult(formatJob(job)), nil
	}
}

// handleGetFilingLogs implements the get_filing_logs tool
func handleGetFilingLogs(filingService interfaces.FilingService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, err := request.RequireString("job_id")
		if err != nil || jobID == "" {
			return textResult("Error: job_id parameter is required"), nil
		}

		logs, err := filingService.GetLogs(ctx, jobID)
		if err != nil {
			if errors.Is(err, models.ErrJobNotFound) {
				return textResult(fmt.Sprintf("Job not found: %s", jobID)), nil
			}
			logger.Error().Err(err).Str("job_id", jobID).Msg("GetLogs failed")
			return textResult(fmt.Sprintf("Logs error: %v", err)), nil
		}

		return textResult(formatLogs(jobID, logs)), nil
	}
}

// handleCancelFiling implements the cancel_filing tool
func handleCancelFiling(filingService interfaces.FilingService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, err := request.RequireString("job_id")
		if err != nil || jobID == "" {
			return textResult("Error: job_id parameter is required"), nil
		}

		err = filingService.Cancel(ctx, jobID)
		switch {
		case err == nil:
			return textResult(fmt.Sprintf("Cancellation requested for job %s", jobID)), nil
		case errors.Is(err, models.ErrJobNotFound):
			return textResult(fmt.Sprintf("Job not found: %s", jobID)), nil
		case errors.Is(err, models.ErrJobTerminal):
			return textResult(fmt.Sprintf("Job %s is already in a terminal state", jobID)), nil
		default:
			logger.Error().Err(err).Str("job_id", jobID).Msg("Cancel failed")
			return textResult(fmt.Sprintf("Cancel error: %v", err)), nil
		}
	}
}

// handleListFilings implements the list_filings tool
func handleListFilings(filingService interfaces.FilingService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, err := request.RequireString("owner")
		if err != nil || owner == "" {
			return textResult("Error: owner parameter is required"), nil
		}

		limit := request.GetInt("limit", 20)
		if limit > 100 {
			limit = 100
		}

		jobs, err := filingService.ListRecent(ctx, owner, limit)
		if err != nil {
			logger.Error().Err(err).Msg("ListRecent failed")
			return textResult(fmt.Sprintf("List error: %v", err)), nil
		}

		return textResult(formatJobList(owner, jobs)), nil
	}
}

// handleAnalyzeJurisdiction implements the analyze_jurisdiction tool
func handleAnalyzeJurisdiction(advisor interfaces.JurisdictionService, cases interfaces.CaseStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caseID, err := request.RequireString("case_id")
		if err != nil || caseID == "" {
			return textResult("Error: case_id parameter is required"), nil
		}

		c, err := cases.GetCase(ctx, caseID)
		if err != nil {
			if errors.Is(err, models.ErrCaseNotFound) {
				return textResult(fmt.Sprintf("Case not found: %s", caseID)), nil
			}
			return textResult(fmt.Sprintf("Case lookup error: %v", err)), nil
		}

		decision, err := advisor.Analyze(ctx, c)
		if err != nil {
			logger.Error().Err(err).Str("case_id", caseID).Msg("Analysis failed")
			return textResult(fmt.Sprintf("Analysis error: %v", err)), nil
		}

		var portal *models.PortalInfo
		if p, err := advisor.PortalFor(decision, c.WorkState); err == nil {
			portal = p
		}

		return textResult(formatAdvice(c, decision, portal, advisor.Deadline(c))), nil
	}
}
