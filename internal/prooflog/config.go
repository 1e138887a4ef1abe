package prooflog

import "time"

// Config holds proof event persistence settings.
type Config struct {
	// WriteTimeout bounds each insert.
	WriteTimeout time.Duration

	// RetryTTL is how long a buffered event may wait before it is dropped.
	RetryTTL time.Duration

	// MaxAttempts is the number of writes, the first included, before a
	// buffered event is dropped.
	MaxAttempts int

	// SweepInterval is the retry buffer sweep period.
	SweepInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:  2 * time.Second,
		RetryTTL:      5 * time.Minute,
		MaxAttempts:   3,
		SweepInterval: 30 * time.Second,
	}
}
