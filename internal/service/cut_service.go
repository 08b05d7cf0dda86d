package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/Cascapera/social-automation/internal/apperrors"
	"github.com/Cascapera/social-automation/internal/media"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/repository"
	"github.com/Cascapera/social-automation/internal/transfer"
)

var videoExtensions = map[string]struct{}{
	"mp4": {}, "mov": {},
}

type CutService interface {
	CreateSource(ctx context.Context, brandID int64, title string, file []byte) (int64, error)
	ListSources(ctx context.Context, brandID int64) ([]*models.Source, error)
	DeleteSource(ctx context.Context, brandID, sourceID int64) error
	// ExtractCuts cuts every spec'd clip out of the source, then
	// consumes the source: its record and artifact are deleted.
	ExtractCuts(ctx context.Context, brandID, sourceID int64, extraction *transfer.CutExtraction) ([]int64, error)
	UploadCut(ctx context.Context, brandID int64, name, format string, file []byte) (int64, error)
	List(ctx context.Context, brandID, sourceID int64) ([]*models.Cut, error)
	Delete(ctx context.Context, brandID, cutID int64) error
}

type cutService struct {
	db       *sql.DB
	sr       repository.SourceRepository
	cr       repository.CutRepository
	st       Storage
	renderer media.Renderer
	prober   media.Prober
}

func NewCutService(
	db *sql.DB,
	sr repository.SourceRepository,
	cr repository.CutRepository,
	st Storage,
	renderer media.Renderer,
	prober media.Prober) CutService {
	return &cutService{
		db:       db,
		sr:       sr,
		cr:       cr,
		st:       st,
		renderer: renderer,
		prober:   prober,
	}
}

func (s *cutService) CreateSource(ctx context.Context, brandID int64, title string, file []byte) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, apperrors.Validation("source title is required")
	}

	key, contentType, err := sniffVideo(file, fmt.Sprintf("sources/%d", brandID))
	if err != nil {
		return 0, err
	}

	if err := s.st.Upload(ctx, key, file, contentType); err != nil {
		return 0, fmt.Errorf("error uploading source: %w", err)
	}

	id, err := s.sr.Create(ctx, &models.Source{
		BrandID: brandID,
		Title:   title,
		FileKey: key,
		FileURL: s.st.PublicURL(key),
	})
	if err != nil {
		return 0, fmt.Errorf("error saving source: %w", err)
	}
	return id, nil
}

func (s *cutService) ListSources(ctx context.Context, brandID int64) ([]*models.Source, error) {
	return s.sr.List(ctx, brandID)
}

func (s *cutService) DeleteSource(ctx context.Context, brandID, sourceID int64) error {
	source, err := s.sr.GetByID(ctx, sourceID)
	if err != nil {
		return err
	}
	if source == nil || source.BrandID != brandID {
		return apperrors.NotFound("source", sourceID)
	}

	if err := s.sr.Remove(ctx, nil, sourceID); err != nil {
		return fmt.Errorf("error removing source: %w", err)
	}

	if err := s.st.Delete(ctx, source.FileKey); err != nil {
		slog.Info("source file delete failed", "key", source.FileKey, "err", err)
	}
	return nil
}

func (s *cutService) ExtractCuts(ctx context.Context, brandID, sourceID int64, extraction *transfer.CutExtraction) ([]int64, error) {
	if len(extraction.Cuts) == 0 {
		return nil, apperrors.Validation("at least one cut is required")
	}
	for i, spec := range extraction.Cuts {
		if strings.TrimSpace(spec.Name) == "" {
			return nil, apperrors.Validation("cut %d: name is required", i)
		}
		if _, err := media.TimecodeRange(spec.StartTC, spec.EndTC); err != nil {
			return nil, apperrors.Validation("cut %d: %v", i, err)
		}
		if spec.Format != models.FormatVertical && spec.Format != models.FormatHorizontal {
			return nil, apperrors.Validation("cut %d: unknown format %q", i, spec.Format)
		}
	}

	source, err := s.sr.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil || source.BrandID != brandID {
		return nil, apperrors.NotFound("source", sourceID)
	}

	srcPath, err := s.st.DownloadToTemp(ctx, source.FileKey)
	if err != nil {
		return nil, apperrors.Dispatch(err, "failed to fetch source artifact")
	}
	defer os.Remove(srcPath)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(extraction.Cuts))
	uploadedKeys := make([]string, 0, len(extraction.Cuts))
	for i, spec := range extraction.Cuts {
		id, key, err := s.extractOne(ctx, tx, source, srcPath, spec)
		if err != nil {
			for _, k := range uploadedKeys {
				if derr := s.st.Delete(ctx, k); derr != nil {
					slog.Info("orphan cut file delete failed", "key", k, "err", derr)
				}
			}
			return nil, fmt.Errorf("cut %d (%s): %w", i, spec.Name, err)
		}
		ids = append(ids, id)
		uploadedKeys = append(uploadedKeys, key)
	}

	// Extraction consumes the source.
	if err := s.sr.Remove(ctx, tx, sourceID); err != nil {
		return nil, fmt.Errorf("error removing consumed source: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if err := s.st.Delete(ctx, source.FileKey); err != nil {
		slog.Info("source file delete failed", "key", source.FileKey, "err", err)
	}

	return ids, nil
}

func (s *cutService) extractOne(ctx context.Context, tx *sql.Tx, source *models.Source, srcPath string, spec transfer.CutSpec) (int64, string, error) {
	clipPath, err := s.renderer.ExtractClip(ctx, srcPath, spec.StartTC, spec.EndTC, spec.Format == models.FormatVertical)
	if err != nil {
		return 0, "", fmt.Errorf("clip extraction failed: %w", err)
	}
	defer os.Remove(clipPath)

	duration, err := media.TimecodeRange(spec.StartTC, spec.EndTC)
	if err != nil {
		return 0, "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return 0, "", err
	}
	key := fmt.Sprintf("cuts/%d/%s.mp4", source.BrandID, id)

	if err := s.st.UploadFile(ctx, key, clipPath, "video/mp4"); err != nil {
		return 0, "", fmt.Errorf("error uploading clip: %w", err)
	}

	cutID, err := s.cr.Create(ctx, tx, &models.Cut{
		BrandID:  source.BrandID,
		SourceID: sql.NullInt64{Int64: source.ID, Valid: true},
		Name:     spec.Name,
		StartTC:  spec.StartTC,
		EndTC:    spec.EndTC,
		Format:   spec.Format,
		Duration: duration,
		FileKey:  key,
		FileURL:  s.st.PublicURL(key),
	})
	if err != nil {
		return 0, "", fmt.Errorf("error saving cut: %w", err)
	}
	return cutID, key, nil
}

func (s *cutService) UploadCut(ctx context.Context, brandID int64, name, format string, file []byte) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperrors.Validation("cut name is required")
	}

	key, contentType, err := sniffVideo(file, fmt.Sprintf("cuts/%d", brandID))
	if err != nil {
		return 0, err
	}

	if err := s.st.Upload(ctx, key, file, contentType); err != nil {
		return 0, fmt.Errorf("error uploading cut: %w", err)
	}

	localPath, err := s.st.DownloadToTemp(ctx, key)
	var info media.Info
	if err == nil {
		defer os.Remove(localPath)
		info, err = s.prober.Probe(ctx, localPath)
	}
	if err != nil {
		slog.Info("cut probe failed, falling back to declared format", "err", err)
	}

	cutID, err := s.cr.Create(ctx, nil, &models.Cut{
		BrandID:  brandID,
		Name:     name,
		StartTC:  "00:00:00",
		EndTC:    media.FormatTimecode(info.Duration),
		Format:   media.Orientation(info, format),
		Duration: info.Duration,
		FileKey:  key,
		FileURL:  s.st.PublicURL(key),
	})
	if err != nil {
		return 0, fmt.Errorf("error saving cut: %w", err)
	}
	return cutID, nil
}

func (s *cutService) List(ctx context.Context, brandID, sourceID int64) ([]*models.Cut, error) {
	return s.cr.List(ctx, brandID, sourceID)
}

// Delete refuses while a QUEUED or RUNNING job references the cut. The
// check and the delete run in one transaction so a job created
// concurrently cannot lose the cut under it.
func (s *cutService) Delete(ctx context.Context, brandID, cutID int64) error {
	cut, err := s.cr.GetByID(ctx, cutID)
	if err != nil {
		return err
	}
	if cut == nil || cut.BrandID != brandID {
		return apperrors.NotFound("cut", cutID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	inUse, err := s.cr.InUseByActiveJob(ctx, tx, cutID)
	if err != nil {
		return err
	}
	if inUse {
		return apperrors.Conflict("cut %d is referenced by an active job", cutID)
	}

	if err := s.cr.Remove(ctx, tx, cutID); err != nil {
		return fmt.Errorf("error removing cut: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if err := s.st.Delete(ctx, cut.FileKey); err != nil {
		slog.Info("cut file delete failed", "key", cut.FileKey, "err", err)
	}
	return nil
}

// sniffVideo validates the upload is an mp4/mov and returns a fresh
// storage key plus the detected content type.
func sniffVideo(file []byte, prefix string) (key, contentType string, err error) {
	if len(file) == 0 {
		return "", "", apperrors.Validation("file is empty")
	}

	fileType, err := filetype.Match(file)
	if err != nil || fileType == types.Unknown {
		return "", "", apperrors.Validation("unsupported file type")
	}
	if _, ok := videoExtensions[fileType.Extension]; !ok {
		return "", "", apperrors.Validation("file type %s is not allowed", fileType.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", "", err
	}
	return fmt.Sprintf("%s/%s.%s", prefix, id, fileType.Extension), fileType.MIME.Value, nil
}
