package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Dispatcher is the enqueue side of the task queue. It implements
// service.TaskDispatcher.
type Dispatcher struct {
	client *asynq.Client
}

func NewDispatcher(client *asynq.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) enqueue(taskType string, payload any, opts ...asynq.Option) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskType, taskPayload)
	if _, err := d.client.Enqueue(task, opts...); err != nil {
		return err
	}

	slog.Info("task enqueued", "type", taskType)
	return nil
}

func (d *Dispatcher) EnqueueRender(ctx context.Context, jobID int64, attemptID string) error {
	return d.enqueue(TaskTypeRenderJob, RenderJobPayload{JobID: jobID, AttemptID: attemptID})
}

func (d *Dispatcher) EnqueueSubtitleGenerate(ctx context.Context, jobID int64) error {
	return d.enqueue(TaskTypeSubtitleGenerate, SubtitleTaskPayload{JobID: jobID})
}

func (d *Dispatcher) EnqueueSubtitleBurn(ctx context.Context, jobID int64) error {
	return d.enqueue(TaskTypeSubtitleBurn, SubtitleTaskPayload{JobID: jobID})
}

func (d *Dispatcher) EnqueuePublish(ctx context.Context, postID int64, at time.Time) error {
	return d.enqueue(TaskTypeSchedulePost, SchedulePostPayload{PostID: postID}, asynq.ProcessAt(at))
}
