package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Cascapera/social-automation/internal/apperrors"
	"github.com/Cascapera/social-automation/internal/media"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/repository"
	"github.com/Cascapera/social-automation/internal/transfer"
)

type SubtitleService interface {
	// Generate dispatches transcription. Only valid on a DONE job with
	// no subtitle operation in flight.
	Generate(ctx context.Context, brandID, jobID int64) error
	// Update applies a partial segment/style edit. Rejected while
	// generating or burning.
	Update(ctx context.Context, brandID, jobID int64, update *transfer.SubtitleUpdate) (*models.Job, error)
	// Burn dispatches burn-in of the current segments and style onto the
	// job's output. Requires ready_for_edit or burned; error retries go
	// back through Generate or Burn depending on where they failed.
	Burn(ctx context.Context, brandID, jobID int64) error

	// Worker-side entries.
	ExecuteGenerate(ctx context.Context, jobID int64) error
	ExecuteBurn(ctx context.Context, jobID int64) error
}

type subtitleService struct {
	jr          repository.JobRepository
	st          Storage
	renderer    media.Renderer
	transcriber media.Transcriber
	tasks       TaskDispatcher
}

func NewSubtitleService(
	jr repository.JobRepository,
	st Storage,
	renderer media.Renderer,
	transcriber media.Transcriber,
	tasks TaskDispatcher) SubtitleService {
	return &subtitleService{
		jr:          jr,
		st:          st,
		renderer:    renderer,
		transcriber: transcriber,
		tasks:       tasks,
	}
}

func (s *subtitleService) loadDoneJob(ctx context.Context, brandID, jobID int64) (*models.Job, error) {
	job, err := s.jr.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil || job.BrandID != brandID {
		return nil, apperrors.NotFound("job", jobID)
	}
	if job.Status != models.JobStatusDone {
		return nil, apperrors.Precondition("job %d is not done", jobID)
	}
	return job, nil
}

func (s *subtitleService) Generate(ctx context.Context, brandID, jobID int64) error {
	job, err := s.loadDoneJob(ctx, brandID, jobID)
	if err != nil {
		return err
	}
	if models.SubtitleInFlight(job.SubtitleStatus) {
		return apperrors.Precondition("job %d has a subtitle operation in flight", jobID)
	}
	if job.OutputKey == "" {
		return apperrors.Precondition("job %d has no output to transcribe", jobID)
	}

	if err := s.jr.SetSubtitleStatus(ctx, jobID, models.SubtitleStatusGenerating, ""); err != nil {
		return fmt.Errorf("failed to set subtitle status: %w", err)
	}

	if err := s.tasks.EnqueueSubtitleGenerate(ctx, jobID); err != nil {
		slog.Info("subtitle generate dispatch failed", "job", jobID, "err", err)
		msg := fmt.Sprintf("dispatch failed: %v", err)
		if serr := s.jr.SetSubtitleStatus(ctx, jobID, models.SubtitleStatusError, msg); serr != nil {
			slog.Info(serr.Error())
		}
		return apperrors.Dispatch(err, "failed to dispatch transcription for job %d", jobID)
	}
	return nil
}

func (s *subtitleService) Update(ctx context.Context, brandID, jobID int64, update *transfer.SubtitleUpdate) (*models.Job, error) {
	job, err := s.loadDoneJob(ctx, brandID, jobID)
	if err != nil {
		return nil, err
	}
	if models.SubtitleInFlight(job.SubtitleStatus) {
		return nil, apperrors.Precondition("job %d has a subtitle operation in flight", jobID)
	}
	if update == nil || (update.Segments == nil && update.Style == nil) {
		return nil, apperrors.Validation("nothing to update")
	}

	segments := job.SubtitleSegments
	if update.Segments != nil {
		segments = mergeSegments(job.SubtitleSegments, update.Segments)
	}

	style := job.SubtitleStyle
	if update.Style != nil {
		merged := styleFromUpdate(update.Style)
		style = &merged
	}

	if err := s.jr.UpdateSubtitleData(ctx, jobID, segments, style); err != nil {
		return nil, fmt.Errorf("failed to update subtitles: %w", err)
	}

	job.SubtitleSegments = segments
	job.SubtitleStyle = style
	return job, nil
}

// mergeSegments rebuilds the segment list from the edit while keeping
// word-level timings usable: edited text is realigned against the
// original word timestamps of the segment at the same position.
func mergeSegments(prior []models.SubtitleSegment, edits []transfer.SubtitleSegmentUpdate) []models.SubtitleSegment {
	out := make([]models.SubtitleSegment, len(edits))
	for i, e := range edits {
		seg := models.SubtitleSegment{Start: e.Start, End: e.End, Text: e.Text}
		if i < len(prior) && len(prior[i].Words) > 0 {
			seg.Words = media.AlignWords(e.Text, prior[i].Words)
		}
		out[i] = seg
	}
	return out
}

func styleFromUpdate(u *transfer.SubtitleStyleUpdate) models.SubtitleStyle {
	style := models.DefaultSubtitleStyle()
	if u.Font != "" {
		style.Font = u.Font
	}
	if u.Size > 0 {
		style.Size = u.Size
	}
	if u.Color != "" {
		style.Color = u.Color
	}
	if u.OutlineColor != "" {
		style.OutlineColor = u.OutlineColor
	}
	if u.Outline > 0 {
		style.Outline = u.Outline
	}
	if u.Position != "" {
		style.Position = u.Position
	}
	style.Animated = u.Animated
	return style
}

func (s *subtitleService) Burn(ctx context.Context, brandID, jobID int64) error {
	job, err := s.loadDoneJob(ctx, brandID, jobID)
	if err != nil {
		return err
	}
	if job.SubtitleStatus != models.SubtitleStatusReadyForEdit && job.SubtitleStatus != models.SubtitleStatusBurned {
		return apperrors.Precondition("job %d subtitles are not ready to burn", jobID)
	}
	if len(job.SubtitleSegments) == 0 {
		return apperrors.Precondition("job %d has no subtitle segments", jobID)
	}

	if err := s.jr.SetSubtitleStatus(ctx, jobID, models.SubtitleStatusBurning, ""); err != nil {
		return fmt.Errorf("failed to set subtitle status: %w", err)
	}

	if err := s.tasks.EnqueueSubtitleBurn(ctx, jobID); err != nil {
		slog.Info("subtitle burn dispatch failed", "job", jobID, "err", err)
		msg := fmt.Sprintf("dispatch failed: %v", err)
		if serr := s.jr.SetSubtitleStatus(ctx, jobID, models.SubtitleStatusError, msg); serr != nil {
			slog.Info(serr.Error())
		}
		return apperrors.Dispatch(err, "failed to dispatch subtitle burn for job %d", jobID)
	}
	return nil
}

func (s *subtitleService) ExecuteGenerate(ctx context.Context, jobID int64) error {
	job, err := s.jr.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return apperrors.NotFound("job", jobID)
	}
	if job.SubtitleStatus != models.SubtitleStatusGenerating {
		slog.Info("skipping stale transcription task", "job", jobID, "status", job.SubtitleStatus)
		return nil
	}

	segments, err := s.transcribe(ctx, job)
	if err != nil {
		if serr := s.jr.SetSubtitleStatus(ctx, jobID, models.SubtitleStatusError, err.Error()); serr != nil {
			slog.Info(serr.Error())
		}
		return nil
	}

	style := job.SubtitleStyle
	if style == nil {
		def := models.DefaultSubtitleStyle()
		style = &def
	}
	if err := s.jr.SetSubtitleResult(ctx, jobID, segments, style); err != nil {
		return fmt.Errorf("failed to store subtitle result: %w", err)
	}
	return nil
}

func (s *subtitleService) transcribe(ctx context.Context, job *models.Job) ([]models.SubtitleSegment, error) {
	videoPath, err := s.st.DownloadToTemp(ctx, job.OutputKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch output: %w", err)
	}
	defer os.Remove(videoPath)

	return s.transcriber.Transcribe(ctx, videoPath)
}

// ExecuteBurn renders the subtitles onto a copy of the output and swaps
// the job's artifact only after the new one is stored. A failure leaves
// the existing output untouched.
func (s *subtitleService) ExecuteBurn(ctx context.Context, jobID int64) error {
	job, err := s.jr.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return apperrors.NotFound("job", jobID)
	}
	if job.SubtitleStatus != models.SubtitleStatusBurning {
		slog.Info("skipping stale burn task", "job", jobID, "status", job.SubtitleStatus)
		return nil
	}

	newKey, err := s.burn(ctx, job)
	if err != nil {
		if serr := s.jr.SetSubtitleStatus(ctx, jobID, models.SubtitleStatusError, err.Error()); serr != nil {
			slog.Info(serr.Error())
		}
		return nil
	}

	if err := s.jr.SetOutput(ctx, jobID, newKey, s.st.PublicURL(newKey)); err != nil {
		return fmt.Errorf("failed to swap output: %w", err)
	}
	if err := s.jr.SetSubtitleStatus(ctx, jobID, models.SubtitleStatusBurned, ""); err != nil {
		return fmt.Errorf("failed to set subtitle status: %w", err)
	}

	if job.OutputKey != "" && job.OutputKey != newKey {
		if derr := s.st.Delete(ctx, job.OutputKey); derr != nil {
			slog.Info("old output delete failed", "key", job.OutputKey, "err", derr)
		}
	}
	return nil
}

func (s *subtitleService) burn(ctx context.Context, job *models.Job) (string, error) {
	videoPath, err := s.st.DownloadToTemp(ctx, job.OutputKey)
	if err != nil {
		return "", fmt.Errorf("failed to fetch output: %w", err)
	}
	defer os.Remove(videoPath)

	style := models.DefaultSubtitleStyle()
	if job.SubtitleStyle != nil {
		style = *job.SubtitleStyle
	}

	outPath, err := s.renderer.BurnSubtitles(ctx, videoPath, job.SubtitleSegments, style)
	if err != nil {
		return "", err
	}
	defer os.Remove(outPath)

	newKey := fmt.Sprintf("outputs/%d/%d-subtitled.mp4", job.BrandID, job.ID)
	if err := s.st.UploadFile(ctx, newKey, outPath, "video/mp4"); err != nil {
		return "", fmt.Errorf("failed to store burned output: %w", err)
	}
	return newKey, nil
}
