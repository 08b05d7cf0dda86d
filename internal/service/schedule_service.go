package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Cascapera/social-automation/internal/apperrors"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/publisher"
	"github.com/Cascapera/social-automation/internal/repository"
	"github.com/Cascapera/social-automation/internal/transfer"
)

// ScheduledAtLayout is the wire format for scheduling timestamps,
// minute precision.
const ScheduledAtLayout = "2006-01-02T15:04"

type ScheduleService interface {
	Create(ctx context.Context, brandID int64, creation *transfer.SchedulePostCreation) (int64, error)
	ListByBrand(ctx context.Context, brandID int64) ([]*models.ScheduledPost, error)
	Calendar(ctx context.Context, brandID int64, year int, month time.Month) ([]CalendarDay, error)

	// ExecutePublish is the worker-side entry: it drives one scheduled
	// post through POSTING to DONE or FAILED.
	ExecutePublish(ctx context.Context, postID int64) error
}

type scheduleService struct {
	jr         repository.JobRepository
	sp         repository.ScheduledPostRepository
	sa         repository.SocialAccountRepository
	publishers *publisher.Registry
	tasks      TaskDispatcher
	loc        *time.Location
}

func NewScheduleService(
	jr repository.JobRepository,
	sp repository.ScheduledPostRepository,
	sa repository.SocialAccountRepository,
	publishers *publisher.Registry,
	tasks TaskDispatcher,
	loc *time.Location) ScheduleService {
	if loc == nil {
		loc = time.Local
	}
	return &scheduleService{
		jr:         jr,
		sp:         sp,
		sa:         sa,
		publishers: publishers,
		tasks:      tasks,
		loc:        loc,
	}
}

// Create persists a PENDING post for a finished job and enqueues its
// publish at the scheduled time. Past timestamps are accepted and fire
// immediately; re-scheduling always creates a new post.
func (s *scheduleService) Create(ctx context.Context, brandID int64, creation *transfer.SchedulePostCreation) (int64, error) {
	if len(creation.Platforms) == 0 {
		return 0, apperrors.Validation("at least one platform is required")
	}
	seen := make(map[string]struct{}, len(creation.Platforms))
	for _, p := range creation.Platforms {
		if !models.IsValidPlatform(p) {
			return 0, apperrors.Validation("unknown platform %q", p)
		}
		if _, dup := seen[p]; dup {
			return 0, apperrors.Validation("duplicate platform %q", p)
		}
		seen[p] = struct{}{}
	}

	scheduledAt, err := time.ParseInLocation(ScheduledAtLayout, creation.ScheduledAt, s.loc)
	if err != nil {
		return 0, apperrors.Validation("invalid scheduled_at %q", creation.ScheduledAt)
	}

	job, err := s.jr.GetByID(ctx, creation.JobID)
	if err != nil {
		return 0, err
	}
	if job == nil || job.BrandID != brandID {
		return 0, apperrors.NotFound("job", creation.JobID)
	}
	if job.Status != models.JobStatusDone || job.OutputURL == "" {
		return 0, apperrors.Precondition("job %d has no finished output to schedule", creation.JobID)
	}

	postID, err := s.sp.Create(ctx, &models.ScheduledPost{
		JobID:       creation.JobID,
		Platforms:   creation.Platforms,
		ScheduledAt: scheduledAt,
		Status:      models.ScheduledPostPending,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create scheduled post: %w", err)
	}

	if err := s.tasks.EnqueuePublish(ctx, postID, scheduledAt); err != nil {
		slog.Info("publish dispatch failed", "post", postID, "err", err)
		msg := fmt.Sprintf("dispatch failed: %v", err)
		if serr := s.sp.UpdateStatus(ctx, postID, models.ScheduledPostFailed, msg, nil); serr != nil {
			slog.Info(serr.Error())
		}
		return 0, apperrors.Dispatch(err, "failed to dispatch scheduled post %d", postID)
	}

	return postID, nil
}

func (s *scheduleService) ListByBrand(ctx context.Context, brandID int64) ([]*models.ScheduledPost, error) {
	return s.sp.ListByBrand(ctx, brandID)
}

func (s *scheduleService) Calendar(ctx context.Context, brandID int64, year int, month time.Month) ([]CalendarDay, error) {
	if month < time.January || month > time.December {
		return nil, apperrors.Validation("invalid month %d", month)
	}
	posts, err := s.sp.ListByBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}
	return BuildMonthGrid(year, month, posts, s.loc), nil
}

// ExecutePublish fans out one scheduled post to its platforms with
// bounded concurrency. The post goes DONE only if every platform
// succeeded; otherwise FAILED with the errors aggregated.
func (s *scheduleService) ExecutePublish(ctx context.Context, postID int64) error {
	post, err := s.sp.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return apperrors.NotFound("scheduled post", postID)
	}
	if post.Status != models.ScheduledPostPending {
		slog.Info("skipping scheduled post not pending", "post", postID, "status", post.Status)
		return nil
	}

	job, err := s.jr.GetByID(ctx, post.JobID)
	if err != nil {
		return err
	}
	if job == nil || job.OutputURL == "" {
		msg := "job output is gone"
		return s.sp.UpdateStatus(ctx, postID, models.ScheduledPostFailed, msg, nil)
	}

	if err := s.sp.UpdateStatus(ctx, postID, models.ScheduledPostPosting, "", nil); err != nil {
		return fmt.Errorf("failed to mark post posting: %w", err)
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 4)
	errs := make([]string, len(post.Platforms))

	for i, code := range post.Platforms {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(i int, code string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := s.publishOne(ctx, job, code); err != nil {
				slog.Info("publish failed", "post", postID, "platform", code, "err", err)
				errs[i] = fmt.Sprintf("%s: %v", code, err)
			}
		}(i, code)
	}
	wg.Wait()

	var failed []string
	for _, e := range errs {
		if e != "" {
			failed = append(failed, e)
		}
	}

	if len(failed) > 0 {
		return s.sp.UpdateStatus(ctx, postID, models.ScheduledPostFailed, strings.Join(failed, "; "), nil)
	}
	now := time.Now()
	return s.sp.UpdateStatus(ctx, postID, models.ScheduledPostDone, "", &now)
}

func (s *scheduleService) publishOne(ctx context.Context, job *models.Job, code string) error {
	account, err := s.sa.GetByPlatform(ctx, job.BrandID, publisher.AccountPlatform(code))
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("no %s account connected", publisher.AccountPlatform(code))
	}

	pub, err := s.publishers.Get(code)
	if err != nil {
		return err
	}
	return pub.Publish(ctx, job, account, job.OutputURL)
}
