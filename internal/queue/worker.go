package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandleRenderJobTask(ctx context.Context, task *asynq.Task) error {
	var payload RenderJobPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	return q.js.ExecuteRender(ctx, payload.JobID, payload.AttemptID)
}

func (q *Queue) HandleSubtitleGenerateTask(ctx context.Context, task *asynq.Task) error {
	var payload SubtitleTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	return q.ss.ExecuteGenerate(ctx, payload.JobID)
}

func (q *Queue) HandleSubtitleBurnTask(ctx context.Context, task *asynq.Task) error {
	var payload SubtitleTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	return q.ss.ExecuteBurn(ctx, payload.JobID)
}

func (q *Queue) HandleSchedulePostTask(ctx context.Context, task *asynq.Task) error {
	var payload SchedulePostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	return q.sc.ExecutePublish(ctx, payload.PostID)
}
