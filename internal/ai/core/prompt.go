package core

import (
	"fmt"

	"github.com/docsight-ai/docsight/pkg/models"
)

// SystemPrompt frames every analysis request. Providers send it as the
// system/instruction message.
const SystemPrompt = "You are a careful financial analyst. You only use information " +
	"available in the provided document and clearly call out uncertainty. " +
	"Structure your answer with these sections: Summary, Opportunities, Risks, " +
	"and Recommendation. The recommendation must include a confidence level " +
	"(low/medium/high)."

// UserPrompt renders the analysis request as the user-turn message.
func UserPrompt(req models.AnalysisRequest) string {
	return fmt.Sprintf("Document %q contents:\n\n%s\n\nUser query: %s",
		req.FileName, req.DocumentText, req.Query)
}
