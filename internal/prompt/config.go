package prompt

import "time"

// Config controls the optional model candidate.
type Config struct {
	// UseModel lets the generator ask the model for a candidate prompt.
	UseModel bool

	// Timeout bounds the model call.
	Timeout time.Duration

	// LookbackMessages is how many recent assistant messages are searched
	// for a concept.
	LookbackMessages int

	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UseModel:         true,
		Timeout:          5 * time.Second,
		LookbackMessages: 4,
		MaxTokens:        128,
		Temperature:      0.7,
	}
}
