package service

import (
	"context"
	"time"
)

// TaskDispatcher hands work to the background queue. The production
// implementation lives in internal/queue on top of asynq; tests use an
// in-memory fake.
type TaskDispatcher interface {
	EnqueueRender(ctx context.Context, jobID int64, attemptID string) error
	EnqueueSubtitleGenerate(ctx context.Context, jobID int64) error
	EnqueueSubtitleBurn(ctx context.Context, jobID int64) error
	EnqueuePublish(ctx context.Context, postID int64, at time.Time) error
}
