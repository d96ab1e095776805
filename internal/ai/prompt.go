// Package ai provides the provider factory and prompt construction shared by
// all AI integrations.
package ai

import (
	"github.com/docsight-ai/docsight/internal/ai/core"
	"github.com/docsight-ai/docsight/pkg/models"
)

// SystemPrompt frames every analysis request. Providers send it as the
// system/instruction message.
const SystemPrompt = core.SystemPrompt

// UserPrompt renders the analysis request as the user-turn message.
func UserPrompt(req models.AnalysisRequest) string {
	return core.UserPrompt(req)
}
