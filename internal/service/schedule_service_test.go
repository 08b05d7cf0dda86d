package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Cascapera/social-automation/internal/apperrors"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/publisher"
	"github.com/Cascapera/social-automation/internal/transfer"
)

func newScheduleServiceForTest(jr *fakeJobRepo, sp *fakeScheduledPostRepo, pubs map[string]publisher.Publisher) (ScheduleService, *fakeDispatcher) {
	sa := &fakeSocialAccountRepo{accounts: map[string]*models.SocialAccount{
		"instagram": {ID: 1, BrandID: 7, Platform: "instagram"},
		"tiktok":    {ID: 2, BrandID: 7, Platform: "tiktok"},
		"youtube":   {ID: 3, BrandID: 7, Platform: "youtube"},
	}}
	tasks := &fakeDispatcher{}
	return NewScheduleService(jr, sp, sa, testRegistry(pubs), tasks, time.UTC), tasks
}

func TestScheduleService_Create(t *testing.T) {
	jr := newFakeJobRepo()
	sp := newFakeScheduledPostRepo()
	svc, tasks := newScheduleServiceForTest(jr, sp, nil)
	ctx := context.Background()

	job := doneJob(jr)

	id, err := svc.Create(ctx, 7, &transfer.SchedulePostCreation{
		JobID:       job.ID,
		Platforms:   []string{models.PlatformInstagram, models.PlatformYoutubeShorts},
		ScheduledAt: "2026-09-15T18:30",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	post := sp.posts[id]
	if post.Status != models.ScheduledPostPending {
		t.Errorf("status = %s, want PENDING", post.Status)
	}
	want := time.Date(2026, time.September, 15, 18, 30, 0, 0, time.UTC)
	if !post.ScheduledAt.Equal(want) {
		t.Errorf("scheduled_at = %v, want %v", post.ScheduledAt, want)
	}
	if len(tasks.publishes) != 1 || !tasks.publishAt.Equal(want) {
		t.Errorf("publish dispatched at %v, want %v", tasks.publishAt, want)
	}
}

func TestScheduleService_Create_Rejections(t *testing.T) {
	jr := newFakeJobRepo()
	sp := newFakeScheduledPostRepo()
	svc, _ := newScheduleServiceForTest(jr, sp, nil)
	ctx := context.Background()

	done := doneJob(jr)
	queued := jr.add(&models.Job{BrandID: 7, Status: models.JobStatusQueued})

	validations := []struct {
		name     string
		creation transfer.SchedulePostCreation
	}{
		{"no platforms", transfer.SchedulePostCreation{JobID: done.ID, ScheduledAt: "2026-09-15T18:30"}},
		{"unknown platform", transfer.SchedulePostCreation{JobID: done.ID, Platforms: []string{"FB"}, ScheduledAt: "2026-09-15T18:30"}},
		{"duplicate platform", transfer.SchedulePostCreation{JobID: done.ID, Platforms: []string{"IG", "IG"}, ScheduledAt: "2026-09-15T18:30"}},
		{"bad timestamp", transfer.SchedulePostCreation{JobID: done.ID, Platforms: []string{"IG"}, ScheduledAt: "15/09/2026 18:30"}},
	}
	for _, tt := range validations {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 7, &tt.creation)
			var verr *apperrors.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("Create() error = %v, want validation error", err)
			}
		})
	}

	t.Run("job not done", func(t *testing.T) {
		_, err := svc.Create(ctx, 7, &transfer.SchedulePostCreation{
			JobID: queued.ID, Platforms: []string{"IG"}, ScheduledAt: "2026-09-15T18:30",
		})
		var perr *apperrors.PreconditionError
		if !errors.As(err, &perr) {
			t.Errorf("Create() error = %v, want precondition error", err)
		}
	})
}

func TestScheduleService_Create_DispatchFailure(t *testing.T) {
	jr := newFakeJobRepo()
	sp := newFakeScheduledPostRepo()
	svc, tasks := newScheduleServiceForTest(jr, sp, nil)
	tasks.enqueueErr = errors.New("redis is down")
	ctx := context.Background()
	job := doneJob(jr)

	_, err := svc.Create(ctx, 7, &transfer.SchedulePostCreation{
		JobID: job.ID, Platforms: []string{"IG"}, ScheduledAt: "2026-09-15T18:30",
	})
	var derr *apperrors.TransientDispatchError
	if !errors.As(err, &derr) {
		t.Fatalf("Create() error = %v, want dispatch error", err)
	}
	for _, post := range sp.posts {
		if post.Status != models.ScheduledPostFailed || !strings.Contains(post.Error, "dispatch failed") {
			t.Errorf("post = %+v, want FAILED with dispatch message", post)
		}
	}
}

func TestScheduleService_ExecutePublish_AllSucceed(t *testing.T) {
	jr := newFakeJobRepo()
	sp := newFakeScheduledPostRepo()
	ig := &fakePublisher{}
	yt := &fakePublisher{}
	svc, _ := newScheduleServiceForTest(jr, sp, map[string]publisher.Publisher{
		models.PlatformInstagram:     ig,
		models.PlatformYoutubeShorts: yt,
	})
	ctx := context.Background()

	job := doneJob(jr)
	postID, _ := sp.Create(ctx, &models.ScheduledPost{
		JobID:     job.ID,
		Platforms: []string{models.PlatformInstagram, models.PlatformYoutubeShorts},
		Status:    models.ScheduledPostPending,
	})

	if err := svc.ExecutePublish(ctx, postID); err != nil {
		t.Fatalf("ExecutePublish() error = %v", err)
	}

	post := sp.posts[postID]
	if post.Status != models.ScheduledPostDone {
		t.Fatalf("status = %s, want DONE", post.Status)
	}
	if post.PostedAt == nil {
		t.Error("posted_at not set")
	}
	if len(ig.published) != 1 || len(yt.published) != 1 {
		t.Errorf("publishes ig=%d yt=%d, want one each", len(ig.published), len(yt.published))
	}
	if ig.published[0] != job.OutputURL {
		t.Errorf("published url = %q, want job output", ig.published[0])
	}
}

func TestScheduleService_ExecutePublish_PartialFailure(t *testing.T) {
	jr := newFakeJobRepo()
	sp := newFakeScheduledPostRepo()
	ig := &fakePublisher{}
	tt := &fakePublisher{err: errors.New("token expired")}
	svc, _ := newScheduleServiceForTest(jr, sp, map[string]publisher.Publisher{
		models.PlatformInstagram: ig,
		models.PlatformTiktok:    tt,
	})
	ctx := context.Background()

	job := doneJob(jr)
	postID, _ := sp.Create(ctx, &models.ScheduledPost{
		JobID:     job.ID,
		Platforms: []string{models.PlatformInstagram, models.PlatformTiktok},
		Status:    models.ScheduledPostPending,
	})

	if err := svc.ExecutePublish(ctx, postID); err != nil {
		t.Fatalf("ExecutePublish() error = %v", err)
	}

	post := sp.posts[postID]
	if post.Status != models.ScheduledPostFailed {
		t.Fatalf("status = %s, want FAILED", post.Status)
	}
	if !strings.Contains(post.Error, "TT") || !strings.Contains(post.Error, "token expired") {
		t.Errorf("error = %q, want failing platform and cause", post.Error)
	}
	if len(ig.published) != 1 {
		t.Errorf("instagram publishes = %d, want the healthy platform still posted", len(ig.published))
	}
}

func TestScheduleService_ExecutePublish_SkipsNotPending(t *testing.T) {
	jr := newFakeJobRepo()
	sp := newFakeScheduledPostRepo()
	ig := &fakePublisher{}
	svc, _ := newScheduleServiceForTest(jr, sp, map[string]publisher.Publisher{
		models.PlatformInstagram: ig,
	})
	ctx := context.Background()

	job := doneJob(jr)
	postID, _ := sp.Create(ctx, &models.ScheduledPost{
		JobID:     job.ID,
		Platforms: []string{models.PlatformInstagram},
		Status:    models.ScheduledPostDone,
	})

	if err := svc.ExecutePublish(ctx, postID); err != nil {
		t.Fatalf("ExecutePublish() error = %v", err)
	}
	if len(ig.published) != 0 {
		t.Error("already-done post was published again")
	}
}

func TestScheduleService_ExecutePublish_OutputGone(t *testing.T) {
	jr := newFakeJobRepo()
	sp := newFakeScheduledPostRepo()
	svc, _ := newScheduleServiceForTest(jr, sp, nil)
	ctx := context.Background()

	job := jr.add(&models.Job{BrandID: 7, Status: models.JobStatusDone})
	postID, _ := sp.Create(ctx, &models.ScheduledPost{
		JobID:     job.ID,
		Platforms: []string{models.PlatformInstagram},
		Status:    models.ScheduledPostPending,
	})

	if err := svc.ExecutePublish(ctx, postID); err != nil {
		t.Fatalf("ExecutePublish() error = %v", err)
	}
	post := sp.posts[postID]
	if post.Status != models.ScheduledPostFailed || !strings.Contains(post.Error, "output is gone") {
		t.Errorf("post = %+v, want FAILED with missing output", post)
	}
}
