package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createSubmitFilingTool returns the submit_filing tool definition
func createSubmitFilingTool() mcp.Tool {
	return mcp.NewTool("submit_filing",
		mcp.WithDescription("Start an automated conciliation filing for a stored case. Returns a job that runs in the background; poll get_filing_status for the outcome."),
		mcp.WithString("case_id",
			mcp.Required(),
			mcp.Description("Case ID (format: case_{uuid})"),
		),
		mcp.WithString("owner_id",
			mcp.Required(),
			mcp.Description("Owner the job is attributed to"),
		),
		mcp.WithString("modality",
			mcp.Description("Hearing modality override: remota or presencial"),
		),
		mcp.WithBoolean("skip_validation",
			mcp.Description("Skip pre-filing case validation (default: false)"),
		),
	)
}

// createGetFilingStatusTool returns the get_filing_status tool definition
func createGetFilingStatusTool() mcp.Tool {
	return mcp.NewTool("get_filing_status",
		mcp.WithDescription("Get current status, progress and result of a filing job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID (format: job_{uuid})"),
		),
	)
}

// createGetFilingLogsTool returns the get_filing_logs tool definition
func createGetFilingLogsTool() mcp.Tool {
	return mcp.NewTool("get_filing_logs",
		mcp.WithDescription("Get the step-by-step execution log of a filing job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID (format: job_{uuid})"),
		),
	)
}

// createCancelFilingTool returns the cancel_filing tool definition
func createCancelFilingTool() mcp.Tool {
	return mcp.NewTool("cancel_filing",
		mcp.WithDescription("Cancel a pending or running filing job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID (format: job_{uuid})"),
		),
	)
}

// createListFilingsTool returns the list_filings tool definition
func createListFilingsTool() mcp.Tool {
	return mcp.NewTool("list_filings",
		mcp.WithDescription("List recent filing jobs for an owner, newest first"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Owner ID to list jobs for"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default: 20, max: 100)"),
		),
	)
}

// createAnalyzeJurisdictionTool returns the analyze_jurisdiction tool definition
func createAnalyzeJurisdictionTool() mcp.Tool {
	return mcp.NewTool("analyze_jurisdiction",
		mcp.WithDescription("Determine whether a stored case falls under federal or local labor jurisdiction, with the competent authority, portal and filing deadline"),
		mcp.WithString("case_id",
			mcp.Required(),
			mcp.Description("Case ID (format: case_{uuid})"),
		),
	)
}
