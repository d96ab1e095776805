// Package core holds the sentinel errors and prompt construction shared by
// the AI provider implementations. It exists below package ai so providers
// can use it without importing the factory.
package core

import "errors"

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
)
