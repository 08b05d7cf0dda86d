package queue

import (
	"github.com/Cascapera/social-automation/internal/service"
)

// Queue holds the worker-side handlers: renders, subtitle operations
// and scheduled publishes all run through here.
type Queue struct {
	js service.JobService
	ss service.SubtitleService
	sc service.ScheduleService
}

func NewQueue(
	js service.JobService,
	ss service.SubtitleService,
	sc service.ScheduleService) *Queue {
	return &Queue{
		js: js,
		ss: ss,
		sc: sc,
	}
}

const (
	TaskTypeRenderJob        = "render:job"
	TaskTypeSubtitleGenerate = "subtitle:generate"
	TaskTypeSubtitleBurn     = "subtitle:burn"
	TaskTypeSchedulePost     = "schedule:post"
)

type RenderJobPayload struct {
	JobID     int64  `json:"job_id"`
	AttemptID string `json:"attempt_id"`
}

type SubtitleTaskPayload struct {
	JobID int64 `json:"job_id"`
}

type SchedulePostPayload struct {
	PostID int64 `json:"post_id"`
}
