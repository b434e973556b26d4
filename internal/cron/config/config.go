package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Mailbox poll, every 5 minutes
	CronScheduleMailboxPoll string `env:"CRON_SCHEDULE_MAILBOX_POLL" envDefault:"0 */5 * * * *"`
	// Scratch directory janitor, hourly
	CronScheduleScratchJanitor string `env:"CRON_SCHEDULE_SCRATCH_JANITOR" envDefault:"0 30 * * * *"`

	PodName   string `env:"POD_NAME" envDefault:"local"`
	Namespace string `env:"POD_NAMESPACE" envDefault:"default"`
	// LocalDev skips leader election
	LocalDev bool `env:"LOCAL_DEV" envDefault:"false"`
}
