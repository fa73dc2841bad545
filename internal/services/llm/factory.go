package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/common"
	"github.com/prolabora/concilia/internal/interfaces"
)

// NewVisionService creates the vision service selected by llm.default_provider.
// Claude is the default; Gemini serves as the alternate backend for
// deployments without an Anthropic key.
func NewVisionService(config *common.Config, logger arbor.ILogger) (interfaces.VisionService, error) {
	provider := config.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderClaude
	}

	switch provider {
	case common.LLMProviderClaude:
		return NewClaudeService(&config.Claude, logger)
	case common.LLMProviderGemini:
		return NewGeminiService(&config.Gemini, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", provider)
	}
}
