package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/prolabora/concilia/internal/common"
	"github.com/prolabora/concilia/internal/services/captcha"
	"github.com/prolabora/concilia/internal/services/events"
	"github.com/prolabora/concilia/internal/services/extractor"
	"github.com/prolabora/concilia/internal/services/filing"
	"github.com/prolabora/concilia/internal/services/jurisdiction"
	"github.com/prolabora/concilia/internal/services/llm"
	"github.com/prolabora/concilia/internal/storage/badger"
)

func main() {
	configPath := os.Getenv("CONCILIA_CONFIG")
	if configPath == "" {
		configPath = "concilia.toml"
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	storageManager, err := badger.NewManager(logger, &config.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	visionService, err := llm.NewVisionService(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize vision service")
	}
	defer visionService.Close()

	advisor := jurisdiction.NewAdvisor(&config.Filing, visionService, logger)
	resolver := captcha.NewResolver(visionService, logger)
	ext := extractor.NewExtractor(visionService, logger)
	eventService := events.NewService(logger)

	filingService := filing.NewService(config, storageManager, advisor, resolver, ext, eventService, logger)

	mcpServer := server.NewMCPServer(
		"concilia",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Filing job tools
	mcpServer.AddTool(createSubmitFilingTool(), handleSubmitFiling(filingService, logger))
	mcpServer.AddTool(createGetFilingStatusTool(), handleGetFilingStatus(filingService, logger))
	mcpServer.AddTool(createGetFilingLogsTool(), handleGetFilingLogs(filingService, logger))
	mcpServer.AddTool(createCancelFilingTool(), handleCancelFiling(filingService, logger))
	mcpServer.AddTool(createListFilingsTool(), handleListFilings(filingService, logger))

	// Jurisdiction advisory tool
	mcpServer.AddTool(createAnalyzeJurisdictionTool(), handleAnalyzeJurisdiction(advisor, storageManager.CaseStorage(), logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
