package interfaces

import (
	"context"
)

// VisionProvider identifies which model backend serves a request
type VisionProvider string

const (
	VisionProviderClaude VisionProvider = "claude"
	VisionProviderGemini VisionProvider = "gemini"
)

// VisionService defines multimodal model operations used by the filing
// agent: reading challenge images, reading confirmation screenshots, and
// plain text completions for jurisdiction analysis and narrative synthesis.
type VisionService interface {
	// Complete generates a text completion for the given prompt
	Complete(ctx context.Context, prompt string) (string, error)

	// AnalyzeImage sends a PNG image plus an instruction prompt and returns
	// the model's text answer
	AnalyzeImage(ctx context.Context, image []byte, prompt string) (string, error)

	// Provider returns which backend this service talks to
	Provider() VisionProvider

	// HealthCheck verifies the backend is reachable and authenticated
	HealthCheck(ctx context.Context) error

	Close() error
}
