// -----------------------------------------------------------------------
// App - builds and owns every service, handler and storage component
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/common"
	"github.com/prolabora/concilia/internal/handlers"
	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/services/captcha"
	"github.com/prolabora/concilia/internal/services/events"
	"github.com/prolabora/concilia/internal/services/extractor"
	"github.com/prolabora/concilia/internal/services/filing"
	"github.com/prolabora/concilia/internal/services/jurisdiction"
	"github.com/prolabora/concilia/internal/services/llm"
	"github.com/prolabora/concilia/internal/services/notify"
	"github.com/prolabora/concilia/internal/services/scheduler"
	"github.com/prolabora/concilia/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService interfaces.EventService

	// Vision model provider (jurisdiction analysis, CAPTCHA, extraction)
	VisionService interfaces.VisionService

	// Filing pipeline services
	JurisdictionService interfaces.JurisdictionService
	FilingService       interfaces.FilingService
	Janitor             *scheduler.Janitor
	Mailer              *notify.Mailer

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	FilingHandler    *handlers.FilingHandler
	WebSocketHandler *handlers.WebSocketHandler
}

// New creates the application with all services wired up
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badger.NewManager(logger, &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	eventService := events.NewService(logger)

	visionService, err := llm.NewVisionService(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vision service: %w", err)
	}

	advisor := jurisdiction.NewAdvisor(&config.Filing, visionService, logger)
	resolver := captcha.NewResolver(visionService, logger)
	ext := extractor.NewExtractor(visionService, logger)

	filingService := filing.NewService(config, storageManager, advisor, resolver, ext, eventService, logger)

	// Jobs left running by a previous process can never finish
	if err := filingService.RecoverOrphans(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("Failed to recover orphaned jobs")
	}

	janitor, err := scheduler.NewJanitor(&config.Janitor, storageManager, filingService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize janitor: %w", err)
	}
	if err := janitor.Start(); err != nil {
		return nil, fmt.Errorf("failed to start janitor: %w", err)
	}

	mailer := notify.NewMailer(&config.Notify, logger)
	if err := mailer.Register(eventService); err != nil {
		return nil, fmt.Errorf("failed to register mail notifier: %w", err)
	}

	app := &App{
		Config:              config,
		Logger:              logger,
		StorageManager:      storageManager,
		EventService:        eventService,
		VisionService:       visionService,
		JurisdictionService: advisor,
		FilingService:       filingService,
		Janitor:             janitor,
		Mailer:              mailer,
		APIHandler:          handlers.NewAPIHandler(filingService, storageManager, logger),
		FilingHandler:       handlers.NewFilingHandler(filingService, advisor, storageManager.CaseStorage(), logger),
		WebSocketHandler:    handlers.NewWebSocketHandler(eventService, logger),
	}

	logger.Info().
		Str("version", common.GetVersion()).
		Str("environment", config.Environment).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Msg("Application initialized")

	return app, nil
}

// Close shuts down all services in dependency order
func (a *App) Close() error {
	a.Logger.Info().Msg("Shutting down application...")

	a.Janitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.FilingService.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn().Err(err).Msg("Filing service shutdown incomplete")
	}

	if err := a.VisionService.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close vision service")
	}

	if err := a.EventService.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close event service")
	}

	if err := a.StorageManager.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close storage")
		return err
	}

	a.Logger.Info().Msg("Application stopped")
	return nil
}
