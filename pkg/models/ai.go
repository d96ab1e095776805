// Package models contains shared data models used across the Docsight codebase.
package models

import "context"

// AIProvider is the core interface that all AI integrations must implement.
// Never call specific AI providers directly — always inject this interface.
type AIProvider interface {
	// Analyze answers the query against the extracted document text and
	// returns the analysis as plain text. It must honor ctx cancellation.
	Analyze(ctx context.Context, req AnalysisRequest) (string, error)
	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string
}

// AnalysisRequest is the input to an AI analysis operation.
type AnalysisRequest struct {
	Query        string
	DocumentText string
	FileName     string
}
