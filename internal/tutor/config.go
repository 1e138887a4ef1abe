package tutor

// Config holds tutor reply generation configuration.
type Config struct {
	// MaxTokens caps a single reply.
	MaxTokens int

	// Temperature for reply generation.
	Temperature float64

	// HistoryMessages is how many recent messages are sent to the model.
	HistoryMessages int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:       800,
		Temperature:     0.6,
		HistoryMessages: 10,
	}
}
