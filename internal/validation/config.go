package validation

import "time"

// Config holds validator tuning.
type Config struct {
	// Timeout bounds the evaluation model call.
	Timeout time.Duration

	// MaxResponseRunes caps how much of a response is analyzed.
	MaxResponseRunes int

	// ParrotThreshold is the share of the response's word 4-grams that must
	// appear in the teaching context to count as parroting.
	ParrotThreshold float64

	// ParrotMinWords is the shortest response checked for parroting.
	ParrotMinWords int

	// PassMinWords is the shortest response the heuristic will pass.
	PassMinWords int

	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:          8 * time.Second,
		MaxResponseRunes: 4000,
		ParrotThreshold:  0.6,
		ParrotMinWords:   6,
		PassMinWords:     12,
		MaxTokens:        512,
		Temperature:      0.2,
	}
}
