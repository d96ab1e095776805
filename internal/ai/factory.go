package ai

import (
	"fmt"

	"github.com/docsight-ai/docsight/internal/ai/anthropic"
	"github.com/docsight-ai/docsight/internal/ai/ollama"
	"github.com/docsight-ai/docsight/internal/ai/openai"
	"github.com/docsight-ai/docsight/internal/config"
	"github.com/docsight-ai/docsight/pkg/models"
)

// NewProvider constructs the appropriate AI provider based on config.
// Called once at worker startup.
func NewProvider(cfg config.AIConfig) (models.AIProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewProvider(cfg.Ollama), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, openai, anthropic", cfg.Provider)
	}
}
