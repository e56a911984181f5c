package delivery

import "time"

// Config holds delivery engine and dispatcher configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	// Default sender used when a record carries no explicit from address.
	DefaultFromEmail string `env:"MAILROOM_FROM_EMAIL"`
	DefaultFromName  string `env:"MAILROOM_FROM_NAME"`

	// RetryAttempts caps how many transient failures an email may accrue
	// before it is marked failed.
	RetryAttempts int `env:"MAILROOM_RETRY_ATTEMPTS" envDefault:"3"`

	// RetryDelay is the minimum age of the last attempt before a failed
	// email becomes eligible for the retry dispatch pass.
	RetryDelay time.Duration `env:"MAILROOM_RETRY_DELAY" envDefault:"10m"`

	// Batch caps bound a single dispatch pass.
	DispatchBatchSize int `env:"MAILROOM_DISPATCH_BATCH_SIZE" envDefault:"50"`
	RetryBatchSize    int `env:"MAILROOM_RETRY_BATCH_SIZE" envDefault:"20"`

	// DispatchConcurrency bounds parallel deliveries within a batch.
	// 1 keeps dispatch strictly sequential for predictable store load;
	// higher values process distinct emails in parallel (per-email
	// sequencing is preserved either way, each email appears once per
	// batch).
	DispatchConcurrency int `env:"MAILROOM_DISPATCH_CONCURRENCY" envDefault:"1"`
}

// withDefaults fills zero values so a partially-populated config behaves.
func (c Config) withDefaults() Config {
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 10 * time.Minute
	}
	if c.DispatchBatchSize <= 0 {
		c.DispatchBatchSize = 50
	}
	if c.RetryBatchSize <= 0 {
		c.RetryBatchSize = 20
	}
	if c.DispatchConcurrency <= 0 {
		c.DispatchConcurrency = 1
	}
	return c
}
