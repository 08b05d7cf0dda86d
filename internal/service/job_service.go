package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Cascapera/social-automation/internal/apperrors"
	"github.com/Cascapera/social-automation/internal/media"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/repository"
	"github.com/Cascapera/social-automation/internal/transfer"
)

// CompositionElement is one entry of a job's ordered render input:
// intro, then cuts in sequence order, then outro.
type CompositionElement struct {
	Kind    string // "intro", "cut", "outro"
	FileKey string
}

type JobService interface {
	Create(ctx context.Context, brandID int64, creation *transfer.JobCreation) (int64, error)
	CreateFromUpload(ctx context.Context, brandID int64, name, format string, file []byte) (int64, error)
	GetByID(ctx context.Context, brandID, jobID int64) (*models.Job, error)
	List(ctx context.Context, brandID int64, archived *bool) ([]*models.Job, error)
	Run(ctx context.Context, brandID, jobID int64) error
	Archive(ctx context.Context, brandID, jobID int64, archived bool) error
	Delete(ctx context.Context, brandID, jobID int64) error
	DownloadName(job *models.Job) string

	// ExecuteRender is the worker-side entry: it performs the render
	// attempt dispatched by Run and lands the terminal transition.
	ExecuteRender(ctx context.Context, jobID int64, attemptID string) error
}

type jobService struct {
	db       *sql.DB
	jr       repository.JobRepository
	cr       repository.CutRepository
	ar       repository.AssetRepository
	sp       repository.ScheduledPostRepository
	st       Storage
	renderer media.Renderer
	prober   media.Prober
	tasks    TaskDispatcher
}

func NewJobService(
	db *sql.DB,
	jr repository.JobRepository,
	cr repository.CutRepository,
	ar repository.AssetRepository,
	sp repository.ScheduledPostRepository,
	st Storage,
	renderer media.Renderer,
	prober media.Prober,
	tasks TaskDispatcher) JobService {
	return &jobService{
		db:       db,
		jr:       jr,
		cr:       cr,
		ar:       ar,
		sp:       sp,
		st:       st,
		renderer: renderer,
		prober:   prober,
		tasks:    tasks,
	}
}

func (s *jobService) Create(ctx context.Context, brandID int64, creation *transfer.JobCreation) (int64, error) {
	if brandID == 0 {
		return 0, apperrors.Validation("brand is required")
	}
	if strings.TrimSpace(creation.Name) == "" {
		return 0, apperrors.Validation("job name is required")
	}
	if len(creation.CutIDs) == 0 {
		return 0, apperrors.Validation("at least one cut is required")
	}

	sequence, err := models.NewCutSequence(creation.CutIDs)
	if err != nil {
		return 0, apperrors.Validation(err.Error())
	}

	cuts, err := s.cr.GetByIDs(ctx, sequence.IDs())
	if err != nil {
		return 0, err
	}
	byID := make(map[int64]*models.Cut, len(cuts))
	for _, c := range cuts {
		byID[c.ID] = c
	}
	for _, id := range sequence.IDs() {
		cut, ok := byID[id]
		if !ok {
			return 0, apperrors.Validation("cut %d does not exist", id)
		}
		if cut.BrandID != brandID {
			return 0, apperrors.Validation("cut %d belongs to another brand", id)
		}
	}

	if creation.Transition == "" {
		creation.Transition = models.TransitionNone
	}
	if !models.IsValidTransition(creation.Transition) {
		return 0, apperrors.Validation("unknown transition %q", creation.Transition)
	}
	if creation.Transition != models.TransitionNone && creation.TransitionDuration <= 0 {
		return 0, apperrors.Validation("transition duration must be positive")
	}
	for _, p := range creation.TargetPlatforms {
		if !models.IsValidPlatform(p) {
			return 0, apperrors.Validation("unknown platform %q", p)
		}
	}

	if err := s.checkAsset(ctx, brandID, creation.IntroAssetID); err != nil {
		return 0, err
	}
	if err := s.checkAsset(ctx, brandID, creation.OutroAssetID); err != nil {
		return 0, err
	}

	makeVertical := true
	if creation.MakeVertical != nil {
		makeVertical = *creation.MakeVertical
	}

	job := &models.Job{
		BrandID:            brandID,
		Name:               creation.Name,
		CutIDs:             sequence.IDs(),
		IntroAssetID:       creation.IntroAssetID,
		OutroAssetID:       creation.OutroAssetID,
		Transition:         creation.Transition,
		TransitionDuration: creation.TransitionDuration,
		MakeVertical:       makeVertical,
		TargetPlatforms:    creation.TargetPlatforms,
		Status:             models.JobStatusQueued,
	}

	id, err := s.jr.Create(ctx, nil, job)
	if err != nil {
		return 0, fmt.Errorf("failed to create job: %w", err)
	}
	return id, nil
}

func (s *jobService) checkAsset(ctx context.Context, brandID int64, assetID *int64) error {
	if assetID == nil {
		return nil
	}
	asset, err := s.ar.GetByID(ctx, *assetID)
	if err != nil {
		return err
	}
	if asset == nil || asset.BrandID != brandID {
		return apperrors.Validation("asset %d does not exist for this brand", *assetID)
	}
	return nil
}

// CreateFromUpload persists an already-finished job around an uploaded
// video, bypassing assembly. No cuts are attached.
func (s *jobService) CreateFromUpload(ctx context.Context, brandID int64, name, format string, file []byte) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperrors.Validation("job name is required")
	}

	key, contentType, err := sniffVideo(file, fmt.Sprintf("outputs/%d", brandID))
	if err != nil {
		return 0, err
	}

	if err := s.st.Upload(ctx, key, file, contentType); err != nil {
		return 0, fmt.Errorf("error uploading video: %w", err)
	}

	var info media.Info
	localPath, err := s.st.DownloadToTemp(ctx, key)
	if err == nil {
		defer os.Remove(localPath)
		info, err = s.prober.Probe(ctx, localPath)
	}
	if err != nil {
		slog.Info("upload probe failed, falling back to declared format", "err", err)
	}

	job := &models.Job{
		BrandID:      brandID,
		Name:         name,
		Transition:   models.TransitionNone,
		MakeVertical: media.Orientation(info, format) == models.FormatVertical,
		Status:       models.JobStatusDone,
		Progress:     100,
		OutputKey:    key,
		OutputURL:    s.st.PublicURL(key),
	}

	id, err := s.jr.Create(ctx, nil, job)
	if err != nil {
		return 0, fmt.Errorf("failed to create job: %w", err)
	}
	return id, nil
}

func (s *jobService) GetByID(ctx context.Context, brandID, jobID int64) (*models.Job, error) {
	job, err := s.jr.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil || job.BrandID != brandID {
		return nil, apperrors.NotFound("job", jobID)
	}
	if err := s.decorate(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) List(ctx context.Context, brandID int64, archived *bool) ([]*models.Job, error) {
	jobs, err := s.jr.List(ctx, brandID, archived)
	if err != nil {
		return nil, err
	}
	for _, job := range jobs {
		if err := s.decorate(ctx, job); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

// decorate computes can_delete and the scheduled summary live from the
// job's scheduled posts, so the counts can never drift from storage.
func (s *jobService) decorate(ctx context.Context, job *models.Job) error {
	posts, err := s.sp.ListByJobID(ctx, job.ID)
	if err != nil {
		return err
	}

	summary := &models.ScheduledSummary{Total: len(posts)}
	blocking := false
	for _, p := range posts {
		switch {
		case p.Status == models.ScheduledPostDone:
			summary.Posted++
		case p.Blocking():
			summary.Pending++
			blocking = true
		}
	}
	job.CanDelete = !blocking
	job.ScheduledSummary = summary
	return nil
}

// Run transitions QUEUED/FAILED (retry) or DONE (re-render) to RUNNING
// under a row lock and dispatches exactly one render attempt. A job
// already RUNNING is rejected without a second dispatch.
func (s *jobService) Run(ctx context.Context, brandID, jobID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	job, err := s.jr.LockForUpdate(ctx, tx, jobID)
	if err != nil {
		return err
	}
	if job == nil || job.BrandID != brandID {
		return apperrors.NotFound("job", jobID)
	}

	if job.Status == models.JobStatusRunning {
		return apperrors.Precondition("job %d is already running", jobID)
	}
	if len(job.CutIDs) == 0 {
		return apperrors.Precondition("job %d has no cuts to render", jobID)
	}

	attemptID := uuid.NewString()
	if err := s.jr.MarkRunning(ctx, tx, jobID, attemptID, time.Now()); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if err := s.tasks.EnqueueRender(ctx, jobID, attemptID); err != nil {
		slog.Info("render dispatch failed", "job", jobID, "err", err)
		msg := fmt.Sprintf("dispatch failed: %v", err)
		if ferr := s.jr.MarkFailed(ctx, jobID, attemptID, msg); ferr != nil {
			slog.Info(ferr.Error())
		}
		return apperrors.Dispatch(err, "failed to dispatch render for job %d", jobID)
	}
	return nil
}

func (s *jobService) Archive(ctx context.Context, brandID, jobID int64, archived bool) error {
	job, err := s.jr.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil || job.BrandID != brandID {
		return apperrors.NotFound("job", jobID)
	}
	return s.jr.SetArchived(ctx, jobID, archived)
}

// Delete removes the job and its output artifact. It refuses while a
// PENDING or POSTING scheduled post references the job; the check and
// the delete share one transaction.
func (s *jobService) Delete(ctx context.Context, brandID, jobID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	job, err := s.jr.LockForUpdate(ctx, tx, jobID)
	if err != nil {
		return err
	}
	if job == nil || job.BrandID != brandID {
		return apperrors.NotFound("job", jobID)
	}

	blocking, err := s.sp.CountBlocking(ctx, tx, jobID)
	if err != nil {
		return err
	}
	if blocking > 0 {
		return apperrors.Conflict("job %d has %d pending scheduled posts", jobID, blocking)
	}

	if err := s.jr.Remove(ctx, tx, jobID); err != nil {
		return fmt.Errorf("failed to remove job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if job.OutputKey != "" {
		if err := s.st.Delete(ctx, job.OutputKey); err != nil {
			slog.Info("output file delete failed", "key", job.OutputKey, "err", err)
		}
	}
	return nil
}

// DownloadName sanitizes the job name into a download filename.
func (s *jobService) DownloadName(job *models.Job) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, job.Name)
	if name == "" {
		name = fmt.Sprintf("job_%d", job.ID)
	}
	return name + ".mp4"
}

// BuildComposition orders the render input: intro, cuts in sequence
// order, outro. Pure; the caller resolves file keys to local paths.
func BuildComposition(job *models.Job, cuts map[int64]*models.Cut, intro, outro *models.BrandAsset) ([]CompositionElement, error) {
	elements := make([]CompositionElement, 0, len(job.CutIDs)+2)
	if intro != nil {
		elements = append(elements, CompositionElement{Kind: "intro", FileKey: intro.FileKey})
	}
	for _, id := range job.CutIDs {
		cut, ok := cuts[id]
		if !ok {
			return nil, fmt.Errorf("cut %d not found", id)
		}
		elements = append(elements, CompositionElement{Kind: "cut", FileKey: cut.FileKey})
	}
	if outro != nil {
		elements = append(elements, CompositionElement{Kind: "outro", FileKey: outro.FileKey})
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("composition is empty")
	}
	return elements, nil
}

// ExecuteRender runs one render attempt. All failures land as FAILED on
// the attempt; stale attempts (superseded by a retry) mutate nothing
// because every terminal write is attempt-guarded in SQL.
func (s *jobService) ExecuteRender(ctx context.Context, jobID int64, attemptID string) error {
	job, err := s.jr.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return apperrors.NotFound("job", jobID)
	}
	if job.Status != models.JobStatusRunning || job.AttemptID != attemptID {
		slog.Info("skipping stale render attempt", "job", jobID, "attempt", attemptID)
		return nil
	}

	outputKey, err := s.renderAttempt(ctx, job, attemptID)
	if err != nil {
		if ferr := s.jr.MarkFailed(ctx, jobID, attemptID, err.Error()); ferr != nil {
			slog.Info(ferr.Error())
		}
		if lerr := s.jr.AppendLog(ctx, jobID, fmt.Sprintf("render failed: %v", err)); lerr != nil {
			slog.Info(lerr.Error())
		}
		return nil
	}

	if err := s.jr.MarkDone(ctx, jobID, attemptID, outputKey, s.st.PublicURL(outputKey)); err != nil {
		return fmt.Errorf("failed to mark job done: %w", err)
	}
	return nil
}

func (s *jobService) renderAttempt(ctx context.Context, job *models.Job, attemptID string) (string, error) {
	cuts, err := s.cr.GetByIDs(ctx, job.CutIDs)
	if err != nil {
		return "", err
	}
	byID := make(map[int64]*models.Cut, len(cuts))
	for _, c := range cuts {
		byID[c.ID] = c
	}

	var intro, outro *models.BrandAsset
	if job.IntroAssetID != nil {
		if intro, err = s.ar.GetByID(ctx, *job.IntroAssetID); err != nil {
			return "", err
		}
	}
	if job.OutroAssetID != nil {
		if outro, err = s.ar.GetByID(ctx, *job.OutroAssetID); err != nil {
			return "", err
		}
	}

	elements, err := BuildComposition(job, byID, intro, outro)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(elements))
	defer func() {
		for _, p := range parts {
			os.Remove(p)
		}
	}()
	for i, el := range elements {
		path, err := s.st.DownloadToTemp(ctx, el.FileKey)
		if err != nil {
			return "", fmt.Errorf("failed to fetch %s (element %d): %w", el.Kind, i, err)
		}
		parts = append(parts, path)
		s.reportProgress(ctx, job.ID, attemptID, (i+1)*10/len(elements))
	}

	outPath, err := s.renderer.Render(ctx, media.RenderSpec{
		Parts:              parts,
		Transition:         job.Transition,
		TransitionDuration: job.TransitionDuration,
		MakeVertical:       job.MakeVertical,
	}, func(pct int) {
		s.reportProgress(ctx, job.ID, attemptID, pct)
	})
	if err != nil {
		return "", err
	}
	defer os.Remove(outPath)

	outputKey := fmt.Sprintf("outputs/%d/%s.mp4", job.BrandID, attemptID)
	if err := s.st.UploadFile(ctx, outputKey, outPath, "video/mp4"); err != nil {
		return "", fmt.Errorf("failed to store output: %w", err)
	}
	return outputKey, nil
}

// reportProgress stores a progress value. The repository applies the
// monotonic clamp, so decreasing or stale reports are dropped there.
func (s *jobService) reportProgress(ctx context.Context, jobID int64, attemptID string, pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if err := s.jr.UpdateProgress(ctx, jobID, attemptID, pct); err != nil {
		slog.Info("progress update failed", "job", jobID, "err", err)
	}
}
