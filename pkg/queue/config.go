package queue

// Config holds job queue configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	// QueueName is the River queue delivery jobs are inserted into.
	QueueName string `env:"MAILROOM_QUEUE" envDefault:"email"`

	// Workers bounds concurrent delivery job execution.
	Workers int `env:"MAILROOM_QUEUE_WORKERS" envDefault:"5"`

	// DispatchSchedule is a 5-field cron expression for the periodic
	// queue pass that catches emails whose jobs never fired. Empty
	// disables the periodic pass.
	DispatchSchedule string `env:"MAILROOM_DISPATCH_SCHEDULE" envDefault:"*/5 * * * *"`
}
