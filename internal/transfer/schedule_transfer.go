package transfer

// SchedulePostCreation is the payload for scheduling a finished job.
// ScheduledAt uses minute precision: "2006-01-02T15:04".
type SchedulePostCreation struct {
	JobID       int64    `json:"job"`
	Platforms   []string `json:"platforms"`
	ScheduledAt string   `json:"scheduled_at"`
}
