package ai

import "github.com/docsight-ai/docsight/internal/ai/core"

// Re-exported from core so callers keep using ai.Err*; the values are
// identical, so errors.Is matches across both names.
var (
	ErrProviderUnavailable = core.ErrProviderUnavailable
	ErrInferenceTimeout    = core.ErrInferenceTimeout
	ErrInvalidResponse     = core.ErrInvalidResponse
)
