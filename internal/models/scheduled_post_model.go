package models

import "time"

const (
	ScheduledPostPending = "PENDING"
	ScheduledPostPosting = "POSTING"
	ScheduledPostDone    = "DONE"
	ScheduledPostFailed  = "FAILED"
)

// StatusLabels maps scheduled post statuses to the labels the calendar
// renders.
var StatusLabels = map[string]string{
	ScheduledPostPending: "Pendente",
	ScheduledPostPosting: "Postando",
	ScheduledPostDone:    "Postado",
	ScheduledPostFailed:  "Falhou",
}

// ScheduledPost is an intent to publish a DONE job's output to one or
// more platforms at a given time. Re-scheduling creates a new record.
type ScheduledPost struct {
	ID          int64      `db:"id" json:"id"`
	JobID       int64      `db:"job_id" json:"job"`
	JobName     string     `db:"-" json:"job_name"`
	Platforms   []string   `db:"platforms" json:"platforms"`
	ScheduledAt time.Time  `db:"scheduled_at" json:"scheduled_at"`
	Status      string     `db:"status" json:"status"`
	Error       string     `db:"error" json:"error"`
	PostedAt    *time.Time `db:"posted_at" json:"posted_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Blocking reports whether the post still prevents deletion of its job.
func (p *ScheduledPost) Blocking() bool {
	return p.Status == ScheduledPostPending || p.Status == ScheduledPostPosting
}
