package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Cascapera/social-automation/internal/models"
	"github.com/lib/pq"
)

type ScheduledPostRepository interface {
	Create(ctx context.Context, post *models.ScheduledPost) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	ListByJobID(ctx context.Context, jobID int64) ([]*models.ScheduledPost, error)
	ListByBrand(ctx context.Context, brandID int64) ([]*models.ScheduledPost, error)
	UpdateStatus(ctx context.Context, id int64, status, errMsg string, postedAt *time.Time) error
	// CountBlocking counts PENDING/POSTING posts for a job. Runs inside
	// tx when one is given so a delete check stays atomic.
	CountBlocking(ctx context.Context, tx *sql.Tx, jobID int64) (int, error)
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const scheduledPostColumns = `sp.id, sp.job_id, j.name, sp.platforms, sp.scheduled_at, sp.status, sp.error, sp.posted_at, sp.created_at`

func scanScheduledPost(row interface{ Scan(...any) error }) (*models.ScheduledPost, error) {
	var p models.ScheduledPost
	err := row.Scan(&p.ID, &p.JobID, &p.JobName, pq.Array(&p.Platforms),
		&p.ScheduledAt, &p.Status, &p.Error, &p.PostedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *scheduledPostRepository) Create(ctx context.Context, post *models.ScheduledPost) (int64, error) {
	query := `
		INSERT INTO scheduled_posts (job_id, platforms, scheduled_at, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.JobID, pq.Array(post.Platforms), post.ScheduledAt, post.Status).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts sp JOIN jobs j ON j.id = sp.job_id
		WHERE sp.id = $1`
	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *scheduledPostRepository) ListByJobID(ctx context.Context, jobID int64) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts sp JOIN jobs j ON j.id = sp.job_id
		WHERE sp.job_id = $1 ORDER BY sp.scheduled_at`
	return r.list(ctx, query, jobID)
}

func (r *scheduledPostRepository) ListByBrand(ctx context.Context, brandID int64) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts sp JOIN jobs j ON j.id = sp.job_id
		WHERE j.brand_id = $1 ORDER BY sp.scheduled_at`
	return r.list(ctx, query, brandID)
}

func (r *scheduledPostRepository) list(ctx context.Context, query string, arg any) ([]*models.ScheduledPost, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *scheduledPostRepository) UpdateStatus(ctx context.Context, id int64, status, errMsg string, postedAt *time.Time) error {
	query := `UPDATE scheduled_posts SET status = $2, error = $3, posted_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, errMsg, postedAt); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) CountBlocking(ctx context.Context, tx *sql.Tx, jobID int64) (int, error) {
	query := `SELECT COUNT(*) FROM scheduled_posts WHERE job_id = $1 AND status IN ('PENDING', 'POSTING')`
	var count int
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, jobID).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, query, jobID).Scan(&count)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}
