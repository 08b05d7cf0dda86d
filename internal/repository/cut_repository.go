package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/Cascapera/social-automation/internal/models"
	"github.com/lib/pq"
)

type CutRepository interface {
	Create(ctx context.Context, tx *sql.Tx, cut *models.Cut) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Cut, error)
	List(ctx context.Context, brandID, sourceID int64) ([]*models.Cut, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.Cut, error)
	// InUseByActiveJob reports whether any QUEUED or RUNNING job
	// references the cut. Runs inside tx when one is given so the
	// check stays atomic with a following delete.
	InUseByActiveJob(ctx context.Context, tx *sql.Tx, cutID int64) (bool, error)
	Remove(ctx context.Context, tx *sql.Tx, id int64) error
}

type cutRepository struct {
	db *sql.DB
}

func NewCutRepository(db *sql.DB) CutRepository {
	return &cutRepository{db: db}
}

const cutColumns = `id, brand_id, source_id, name, start_tc, end_tc, format, duration, file_key, file_url, created_at`

func scanCut(row interface{ Scan(...any) error }) (*models.Cut, error) {
	var c models.Cut
	err := row.Scan(&c.ID, &c.BrandID, &c.SourceID, &c.Name, &c.StartTC, &c.EndTC,
		&c.Format, &c.Duration, &c.FileKey, &c.FileURL, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cutRepository) Create(ctx context.Context, tx *sql.Tx, cut *models.Cut) (int64, error) {
	query := `
		INSERT INTO cuts (brand_id, source_id, name, start_tc, end_tc, format, duration, file_key, file_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var id int64
	var err error
	args := []any{cut.BrandID, cut.SourceID, cut.Name, cut.StartTC, cut.EndTC, cut.Format, cut.Duration, cut.FileKey, cut.FileURL}

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *cutRepository) GetByID(ctx context.Context, id int64) (*models.Cut, error) {
	query := `SELECT ` + cutColumns + ` FROM cuts WHERE id = $1`
	cut, err := scanCut(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return cut, nil
}

func (r *cutRepository) List(ctx context.Context, brandID, sourceID int64) ([]*models.Cut, error) {
	query := `SELECT ` + cutColumns + ` FROM cuts WHERE brand_id = $1`
	args := []any{brandID}
	if sourceID != 0 {
		query += ` AND source_id = $2`
		args = append(args, sourceID)
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var cuts []*models.Cut
	for rows.Next() {
		cut, err := scanCut(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		cuts = append(cuts, cut)
	}
	return cuts, rows.Err()
}

func (r *cutRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Cut, error) {
	query := `SELECT ` + cutColumns + ` FROM cuts WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var cuts []*models.Cut
	for rows.Next() {
		cut, err := scanCut(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		cuts = append(cuts, cut)
	}
	return cuts, rows.Err()
}

func (r *cutRepository) InUseByActiveJob(ctx context.Context, tx *sql.Tx, cutID int64) (bool, error) {
	query := `
		SELECT 1 FROM job_cuts jc
		JOIN jobs j ON j.id = jc.job_id
		WHERE jc.cut_id = $1 AND j.status IN ('QUEUED', 'RUNNING')
		LIMIT 1
	`
	var result int
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, cutID).Scan(&result)
	} else {
		err = r.db.QueryRowContext(ctx, query, cutID).Scan(&result)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return true, nil
}

func (r *cutRepository) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	query := `DELETE FROM cuts WHERE id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, id)
	} else {
		_, err = r.db.ExecContext(ctx, query, id)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
