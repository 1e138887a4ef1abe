package engine

import (
	"github.com/abhisek/proofloop/internal/exchange"
	"github.com/abhisek/proofloop/internal/prompt"
	"github.com/abhisek/proofloop/internal/validation"
)

// Config aggregates the engine's component settings.
type Config struct {
	Classifier exchange.Config
	Prompt     prompt.Config
	Validation validation.Config

	// RecentLimit caps how many recent messages are passed to the tutor and
	// classifier.
	RecentLimit int

	// TeachingContextSize is how many recent teaching messages the
	// validator compares a response against.
	TeachingContextSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Classifier:          exchange.DefaultConfig(),
		Prompt:              prompt.DefaultConfig(),
		Validation:          validation.DefaultConfig(),
		RecentLimit:         12,
		TeachingContextSize: 4,
	}
}
