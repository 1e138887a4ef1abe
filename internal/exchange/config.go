package exchange

// Config controls the optional model-assisted tier.
type Config struct {
	// ModelAssisted enables the model tier for low-confidence rule verdicts.
	ModelAssisted bool

	// ModelBudget caps model calls per Classify call.
	ModelBudget int

	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns rules-only classification.
func DefaultConfig() Config {
	return Config{
		ModelAssisted: false,
		ModelBudget:   1,
		MaxTokens:     64,
		Temperature:   0,
	}
}
