package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Cascapera/social-automation/internal/apperrors"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/transfer"
)

func newSubtitleServiceForTest(jr *fakeJobRepo) (SubtitleService, *fakeStorage, *fakeRenderer, *fakeTranscriber, *fakeDispatcher) {
	st := newFakeStorage()
	renderer := &fakeRenderer{}
	transcriber := &fakeTranscriber{}
	tasks := &fakeDispatcher{}
	return NewSubtitleService(jr, st, renderer, transcriber, tasks), st, renderer, transcriber, tasks
}

func doneJob(jr *fakeJobRepo) *models.Job {
	return jr.add(&models.Job{
		BrandID:   7,
		Name:      "finished",
		Status:    models.JobStatusDone,
		OutputKey: "outputs/7/final.mp4",
		OutputURL: "https://cdn.test/outputs/7/final.mp4",
	})
}

func TestSubtitleService_Generate(t *testing.T) {
	jr := newFakeJobRepo()
	svc, _, _, _, tasks := newSubtitleServiceForTest(jr)
	ctx := context.Background()
	job := doneJob(jr)

	if err := svc.Generate(ctx, 7, job.ID); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := jr.jobs[job.ID].SubtitleStatus; got != models.SubtitleStatusGenerating {
		t.Errorf("subtitle status = %q, want generating", got)
	}
	if len(tasks.generates) != 1 || tasks.generates[0] != job.ID {
		t.Errorf("generate dispatches = %v, want [%d]", tasks.generates, job.ID)
	}
}

func TestSubtitleService_Generate_Rejections(t *testing.T) {
	jr := newFakeJobRepo()
	svc, _, _, _, _ := newSubtitleServiceForTest(jr)
	ctx := context.Background()

	queued := jr.add(&models.Job{BrandID: 7, Status: models.JobStatusQueued})
	inFlight := jr.add(&models.Job{BrandID: 7, Status: models.JobStatusDone,
		OutputKey: "outputs/7/a.mp4", SubtitleStatus: models.SubtitleStatusGenerating})
	noOutput := jr.add(&models.Job{BrandID: 7, Status: models.JobStatusDone})

	for _, tt := range []struct {
		name  string
		jobID int64
	}{
		{"job not done", queued.ID},
		{"operation in flight", inFlight.ID},
		{"no output", noOutput.ID},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Generate(ctx, 7, tt.jobID)
			var perr *apperrors.PreconditionError
			if !errors.As(err, &perr) {
				t.Errorf("Generate() error = %v, want precondition error", err)
			}
		})
	}

	t.Run("wrong brand", func(t *testing.T) {
		err := svc.Generate(ctx, 8, queued.ID)
		var nf *apperrors.NotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("Generate() error = %v, want not found", err)
		}
	})
}

func TestSubtitleService_Generate_DispatchFailure(t *testing.T) {
	jr := newFakeJobRepo()
	svc, _, _, _, tasks := newSubtitleServiceForTest(jr)
	tasks.enqueueErr = errors.New("redis is down")
	ctx := context.Background()
	job := doneJob(jr)

	err := svc.Generate(ctx, 7, job.ID)
	var derr *apperrors.TransientDispatchError
	if !errors.As(err, &derr) {
		t.Fatalf("Generate() error = %v, want dispatch error", err)
	}
	got := jr.jobs[job.ID]
	if got.SubtitleStatus != models.SubtitleStatusError {
		t.Errorf("subtitle status = %q, want error", got.SubtitleStatus)
	}
	if !strings.Contains(got.SubtitleError, "dispatch failed") {
		t.Errorf("subtitle error = %q, want dispatch message retained", got.SubtitleError)
	}
}

func TestSubtitleService_ExecuteGenerate(t *testing.T) {
	jr := newFakeJobRepo()
	svc, _, _, transcriber, _ := newSubtitleServiceForTest(jr)
	transcriber.segments = []models.SubtitleSegment{
		{Start: 0, End: 2.5, Text: "ola pessoal"},
		{Start: 2.5, End: 5, Text: "bem vindos"},
	}
	ctx := context.Background()
	job := doneJob(jr)
	jr.jobs[job.ID].SubtitleStatus = models.SubtitleStatusGenerating

	if err := svc.ExecuteGenerate(ctx, job.ID); err != nil {
		t.Fatalf("ExecuteGenerate() error = %v", err)
	}

	got := jr.jobs[job.ID]
	if got.SubtitleStatus != models.SubtitleStatusReadyForEdit {
		t.Fatalf("subtitle status = %q, want ready_for_edit", got.SubtitleStatus)
	}
	if len(got.SubtitleSegments) != 2 {
		t.Errorf("segments = %d, want 2", len(got.SubtitleSegments))
	}
	if got.SubtitleStyle == nil || got.SubtitleStyle.Font != "Arial" {
		t.Errorf("style = %+v, want defaults applied", got.SubtitleStyle)
	}
}

func TestSubtitleService_ExecuteGenerate_TranscriberError(t *testing.T) {
	jr := newFakeJobRepo()
	svc, _, _, transcriber, _ := newSubtitleServiceForTest(jr)
	transcriber.err = errors.New("model not found")
	ctx := context.Background()
	job := doneJob(jr)
	jr.jobs[job.ID].SubtitleStatus = models.SubtitleStatusGenerating

	if err := svc.ExecuteGenerate(ctx, job.ID); err != nil {
		t.Fatalf("ExecuteGenerate() error = %v", err)
	}
	got := jr.jobs[job.ID]
	if got.SubtitleStatus != models.SubtitleStatusError {
		t.Errorf("subtitle status = %q, want error", got.SubtitleStatus)
	}
	if !strings.Contains(got.SubtitleError, "model not found") {
		t.Errorf("subtitle error = %q", got.SubtitleError)
	}
}

func TestSubtitleService_ExecuteGenerate_Stale(t *testing.T) {
	jr := newFakeJobRepo()
	svc, _, _, transcriber, _ := newSubtitleServiceForTest(jr)
	transcriber.segments = []models.SubtitleSegment{{Text: "x"}}
	ctx := context.Background()
	job := doneJob(jr) // status none, no task should have survived

	if err := svc.ExecuteGenerate(ctx, job.ID); err != nil {
		t.Fatalf("ExecuteGenerate() error = %v", err)
	}
	if got := jr.jobs[job.ID]; got.SubtitleStatus != models.SubtitleStatusNone || len(got.SubtitleSegments) != 0 {
		t.Errorf("stale task mutated the job: %+v", got)
	}
}

func TestSubtitleService_Update(t *testing.T) {
	jr := newFakeJobRepo()
	svc, _, _, _, _ := newSubtitleServiceForTest(jr)
	ctx := context.Background()

	job := doneJob(jr)
	stored := jr.jobs[job.ID]
	stored.SubtitleStatus = models.SubtitleStatusReadyForEdit
	stored.SubtitleSegments = []models.SubtitleSegment{
		{Start: 0, End: 2, Text: "ola mundo", Words: []models.WordTiming{
			{Start: 0, End: 1, Word: "ola"},
			{Start: 1, End: 2, Word: "mundo"},
		}},
	}

	updated, err := svc.Update(ctx, 7, job.ID, &transfer.SubtitleUpdate{
		Segments: []transfer.SubtitleSegmentUpdate{{Start: 0, End: 2, Text: "oi mundo"}},
		Style:    &transfer.SubtitleStyleUpdate{Size: 32, Position: "top"},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if len(updated.SubtitleSegments) != 1 || updated.SubtitleSegments[0].Text != "oi mundo" {
		t.Fatalf("segments = %+v", updated.SubtitleSegments)
	}
	words := updated.SubtitleSegments[0].Words
	if len(words) != 2 || words[0].Word != "oi" || words[0].End != 1 || words[1].Word != "mundo" {
		t.Errorf("realigned words = %+v, want original timings kept", words)
	}

	style := updated.SubtitleStyle
	if style.Size != 32 || style.Position != "top" {
		t.Errorf("style = %+v, want size=32 position=top", style)
	}
	if style.Font != "Arial" || style.Color != "#FFFFFF" {
		t.Errorf("style = %+v, want unspecified fields at defaults", style)
	}
}

func TestSubtitleService_Update_Rejections(t *testing.T) {
	jr := newFakeJobRepo()
	svc, _, _, _, _ := newSubtitleServiceForTest(jr)
	ctx := context.Background()

	burning := jr.add(&models.Job{BrandID: 7, Status: models.JobStatusDone,
		OutputKey: "outputs/7/a.mp4", SubtitleStatus: models.SubtitleStatusBurning})
	if _, err := svc.Update(ctx, 7, burning.ID, &transfer.SubtitleUpdate{
		Style: &transfer.SubtitleStyleUpdate{Size: 30},
	}); err == nil {
		t.Error("Update() should reject while burning")
	}

	ready := doneJob(jr)
	jr.jobs[ready.ID].SubtitleStatus = models.SubtitleStatusReadyForEdit
	_, err := svc.Update(ctx, 7, ready.ID, &transfer.SubtitleUpdate{})
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Update() error = %v, want validation error for empty update", err)
	}
}

func TestSubtitleService_Burn(t *testing.T) {
	jr := newFakeJobRepo()
	svc, _, _, _, tasks := newSubtitleServiceForTest(jr)
	ctx := context.Background()

	job := doneJob(jr)
	stored := jr.jobs[job.ID]
	stored.SubtitleStatus = models.SubtitleStatusReadyForEdit
	stored.SubtitleSegments = []models.SubtitleSegment{{Start: 0, End: 1, Text: "x"}}

	if err := svc.Burn(ctx, 7, job.ID); err != nil {
		t.Fatalf("Burn() error = %v", err)
	}
	if got := jr.jobs[job.ID].SubtitleStatus; got != models.SubtitleStatusBurning {
		t.Errorf("subtitle status = %q, want burning", got)
	}
	if len(tasks.burns) != 1 {
		t.Errorf("burn dispatches = %v", tasks.burns)
	}
}

func TestSubtitleService_Burn_Rejections(t *testing.T) {
	jr := newFakeJobRepo()
	svc, _, _, _, _ := newSubtitleServiceForTest(jr)
	ctx := context.Background()

	notReady := doneJob(jr)
	if err := svc.Burn(ctx, 7, notReady.ID); err == nil {
		t.Error("Burn() should reject before generation")
	}

	noSegments := doneJob(jr)
	jr.jobs[noSegments.ID].SubtitleStatus = models.SubtitleStatusReadyForEdit
	err := svc.Burn(ctx, 7, noSegments.ID)
	var perr *apperrors.PreconditionError
	if !errors.As(err, &perr) {
		t.Errorf("Burn() error = %v, want precondition error", err)
	}
}

func TestSubtitleService_ExecuteBurn(t *testing.T) {
	jr := newFakeJobRepo()
	svc, st, _, _, _ := newSubtitleServiceForTest(jr)
	ctx := context.Background()

	job := doneJob(jr)
	stored := jr.jobs[job.ID]
	stored.SubtitleStatus = models.SubtitleStatusBurning
	stored.SubtitleSegments = []models.SubtitleSegment{{Start: 0, End: 1, Text: "x"}}
	oldKey := stored.OutputKey

	if err := svc.ExecuteBurn(ctx, job.ID); err != nil {
		t.Fatalf("ExecuteBurn() error = %v", err)
	}

	got := jr.jobs[job.ID]
	if got.SubtitleStatus != models.SubtitleStatusBurned {
		t.Fatalf("subtitle status = %q, want burned", got.SubtitleStatus)
	}
	if got.OutputKey == oldKey || !strings.HasSuffix(got.OutputKey, "-subtitled.mp4") {
		t.Errorf("output key = %q, want new subtitled artifact", got.OutputKey)
	}
	if _, ok := st.uploads[got.OutputKey]; !ok {
		t.Error("burned output was not uploaded")
	}
	if len(st.deleted) != 1 || st.deleted[0] != oldKey {
		t.Errorf("deleted = %v, want old output removed", st.deleted)
	}
}

func TestSubtitleService_ExecuteBurn_FailureKeepsOutput(t *testing.T) {
	jr := newFakeJobRepo()
	svc, st, renderer, _, _ := newSubtitleServiceForTest(jr)
	renderer.burnErr = errors.New("bad ass file")
	ctx := context.Background()

	job := doneJob(jr)
	stored := jr.jobs[job.ID]
	stored.SubtitleStatus = models.SubtitleStatusBurning
	stored.SubtitleSegments = []models.SubtitleSegment{{Start: 0, End: 1, Text: "x"}}
	oldKey := stored.OutputKey

	if err := svc.ExecuteBurn(ctx, job.ID); err != nil {
		t.Fatalf("ExecuteBurn() error = %v", err)
	}

	got := jr.jobs[job.ID]
	if got.SubtitleStatus != models.SubtitleStatusError {
		t.Errorf("subtitle status = %q, want error", got.SubtitleStatus)
	}
	if got.OutputKey != oldKey {
		t.Errorf("output key changed to %q, want untouched", got.OutputKey)
	}
	if len(st.deleted) != 0 {
		t.Errorf("deleted = %v, want nothing removed", st.deleted)
	}
}
