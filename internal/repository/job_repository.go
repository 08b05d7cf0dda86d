package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Cascapera/social-automation/internal/models"
	"github.com/lib/pq"
)

type JobRepository interface {
	Create(ctx context.Context, tx *sql.Tx, job *models.Job) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Job, error)
	List(ctx context.Context, brandID int64, archived *bool) ([]*models.Job, error)
	// LockForUpdate loads the job row inside tx with FOR UPDATE so a
	// check-then-act sequence stays atomic against concurrent writers.
	LockForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*models.Job, error)
	MarkRunning(ctx context.Context, tx *sql.Tx, id int64, attemptID string, startedAt time.Time) error
	// UpdateProgress applies the monotonic clamp in SQL: the value only
	// lands if the job is still RUNNING the same attempt and the value
	// is higher than what is stored.
	UpdateProgress(ctx context.Context, id int64, attemptID string, progress int) error
	MarkDone(ctx context.Context, id int64, attemptID, outputKey, outputURL string) error
	MarkFailed(ctx context.Context, id int64, attemptID, errMsg string) error
	SetOutput(ctx context.Context, id int64, outputKey, outputURL string) error
	SetArchived(ctx context.Context, id int64, archived bool) error
	AppendLog(ctx context.Context, id int64, line string) error
	SetSubtitleStatus(ctx context.Context, id int64, status, subtitleErr string) error
	SetSubtitleResult(ctx context.Context, id int64, segments []models.SubtitleSegment, style *models.SubtitleStyle) error
	UpdateSubtitleData(ctx context.Context, id int64, segments []models.SubtitleSegment, style *models.SubtitleStyle) error
	Remove(ctx context.Context, tx *sql.Tx, id int64) error
}

type jobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) JobRepository {
	return &jobRepository{db: db}
}

const jobColumns = `id, brand_id, name, intro_asset_id, outro_asset_id, transition, transition_duration,
	make_vertical, target_platforms, status, progress, attempt_id, output_key, output_url, error, log, archived,
	subtitle_status, subtitle_segments, subtitle_style, subtitle_error, created_at, started_at, finished_at`

func scanJob(row interface{ Scan(...any) error }) (*models.Job, error) {
	var j models.Job
	var segments, style []byte
	err := row.Scan(&j.ID, &j.BrandID, &j.Name, &j.IntroAssetID, &j.OutroAssetID,
		&j.Transition, &j.TransitionDuration, &j.MakeVertical, pq.Array(&j.TargetPlatforms),
		&j.Status, &j.Progress, &j.AttemptID, &j.OutputKey, &j.OutputURL, &j.Error, &j.Log, &j.Archived,
		&j.SubtitleStatus, &segments, &style, &j.SubtitleError,
		&j.CreatedAt, &j.StartedAt, &j.FinishedAt)
	if err != nil {
		return nil, err
	}
	if len(segments) > 0 {
		if err := json.Unmarshal(segments, &j.SubtitleSegments); err != nil {
			return nil, err
		}
	}
	if len(style) > 0 {
		j.SubtitleStyle = &models.SubtitleStyle{}
		if err := json.Unmarshal(style, j.SubtitleStyle); err != nil {
			return nil, err
		}
	}
	return &j, nil
}

func (r *jobRepository) Create(ctx context.Context, tx *sql.Tx, job *models.Job) (int64, error) {
	query := `
		INSERT INTO jobs (brand_id, name, intro_asset_id, outro_asset_id, transition, transition_duration,
			make_vertical, target_platforms, status, progress, output_key, output_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	args := []any{job.BrandID, job.Name, job.IntroAssetID, job.OutroAssetID,
		job.Transition, job.TransitionDuration, job.MakeVertical, pq.Array(job.TargetPlatforms),
		job.Status, job.Progress, job.OutputKey, job.OutputURL}

	var id int64
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	for pos, cutID := range job.CutIDs {
		insert := `INSERT INTO job_cuts (job_id, cut_id, position) VALUES ($1, $2, $3)`
		if tx != nil {
			_, err = tx.ExecContext(ctx, insert, id, cutID, pos)
		} else {
			_, err = r.db.ExecContext(ctx, insert, id, cutID, pos)
		}
		if err != nil {
			slog.Info(err.Error())
			return 0, err
		}
	}
	return id, nil
}

func (r *jobRepository) loadCutIDs(ctx context.Context, jobID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cut_id FROM job_cuts WHERE job_id = $1 ORDER BY position`, jobID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *jobRepository) GetByID(ctx context.Context, id int64) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	if job.CutIDs, err = r.loadCutIDs(ctx, id); err != nil {
		return nil, err
	}
	return job, nil
}

func (r *jobRepository) List(ctx context.Context, brandID int64, archived *bool) ([]*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE brand_id = $1`
	args := []any{brandID}
	if archived != nil {
		query += ` AND archived = $2`
		args = append(args, *archived)
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, job := range jobs {
		if job.CutIDs, err = r.loadCutIDs(ctx, job.ID); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func (r *jobRepository) LockForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 FOR UPDATE`
	job, err := scanJob(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return job, nil
}

func (r *jobRepository) MarkRunning(ctx context.Context, tx *sql.Tx, id int64, attemptID string, startedAt time.Time) error {
	query := `
		UPDATE jobs
		SET status = 'RUNNING', progress = 0, attempt_id = $2, error = '', started_at = $3, finished_at = NULL
		WHERE id = $1
	`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, id, attemptID, startedAt)
	} else {
		_, err = r.db.ExecContext(ctx, query, id, attemptID, startedAt)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *jobRepository) UpdateProgress(ctx context.Context, id int64, attemptID string, progress int) error {
	query := `
		UPDATE jobs
		SET progress = $3
		WHERE id = $1 AND attempt_id = $2 AND status = 'RUNNING' AND progress < $3
	`
	if _, err := r.db.ExecContext(ctx, query, id, attemptID, progress); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *jobRepository) MarkDone(ctx context.Context, id int64, attemptID, outputKey, outputURL string) error {
	query := `
		UPDATE jobs
		SET status = 'DONE', progress = 100, output_key = $3, output_url = $4, error = '', finished_at = NOW()
		WHERE id = $1 AND attempt_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, id, attemptID, outputKey, outputURL); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *jobRepository) MarkFailed(ctx context.Context, id int64, attemptID, errMsg string) error {
	query := `
		UPDATE jobs
		SET status = 'FAILED', error = $3, output_key = '', output_url = '', finished_at = NOW()
		WHERE id = $1 AND attempt_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, id, attemptID, errMsg); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *jobRepository) SetOutput(ctx context.Context, id int64, outputKey, outputURL string) error {
	query := `UPDATE jobs SET output_key = $2, output_url = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, outputKey, outputURL); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *jobRepository) SetArchived(ctx context.Context, id int64, archived bool) error {
	query := `UPDATE jobs SET archived = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, archived); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *jobRepository) AppendLog(ctx context.Context, id int64, line string) error {
	query := `UPDATE jobs SET log = log || $2 || E'\n' WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, line); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *jobRepository) SetSubtitleStatus(ctx context.Context, id int64, status, subtitleErr string) error {
	query := `UPDATE jobs SET subtitle_status = $2, subtitle_error = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, subtitleErr); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *jobRepository) SetSubtitleResult(ctx context.Context, id int64, segments []models.SubtitleSegment, style *models.SubtitleStyle) error {
	segJSON, err := json.Marshal(segments)
	if err != nil {
		return err
	}
	styleJSON, err := json.Marshal(style)
	if err != nil {
		return err
	}
	query := `
		UPDATE jobs
		SET subtitle_status = 'ready_for_edit', subtitle_segments = $2, subtitle_style = $3, subtitle_error = ''
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, segJSON, styleJSON); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *jobRepository) UpdateSubtitleData(ctx context.Context, id int64, segments []models.SubtitleSegment, style *models.SubtitleStyle) error {
	if segments != nil {
		segJSON, err := json.Marshal(segments)
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx,
			`UPDATE jobs SET subtitle_segments = $2 WHERE id = $1`, id, segJSON); err != nil {
			slog.Info(err.Error())
			return err
		}
	}
	if style != nil {
		styleJSON, err := json.Marshal(style)
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx,
			`UPDATE jobs SET subtitle_style = $2 WHERE id = $1`, id, styleJSON); err != nil {
			slog.Info(err.Error())
			return err
		}
	}
	return nil
}

func (r *jobRepository) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	} else {
		_, err = r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
