package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/Cascapera/social-automation/internal/models"
)

type SourceRepository interface {
	Create(ctx context.Context, source *models.Source) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Source, error)
	List(ctx context.Context, brandID int64) ([]*models.Source, error)
	Remove(ctx context.Context, tx *sql.Tx, id int64) error
}

type sourceRepository struct {
	db *sql.DB
}

func NewSourceRepository(db *sql.DB) SourceRepository {
	return &sourceRepository{db: db}
}

func (r *sourceRepository) Create(ctx context.Context, source *models.Source) (int64, error) {
	query := `
		INSERT INTO sources (brand_id, title, file_key, file_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		source.BrandID, source.Title, source.FileKey, source.FileURL).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *sourceRepository) GetByID(ctx context.Context, id int64) (*models.Source, error) {
	query := `SELECT id, brand_id, title, file_key, file_url, created_at FROM sources WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var s models.Source
	err := row.Scan(&s.ID, &s.BrandID, &s.Title, &s.FileKey, &s.FileURL, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &s, nil
}

func (r *sourceRepository) List(ctx context.Context, brandID int64) ([]*models.Source, error) {
	query := `SELECT id, brand_id, title, file_key, file_url, created_at FROM sources WHERE brand_id = $1 ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, brandID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var sources []*models.Source
	for rows.Next() {
		var s models.Source
		if err := rows.Scan(&s.ID, &s.BrandID, &s.Title, &s.FileKey, &s.FileURL, &s.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		sources = append(sources, &s)
	}
	return sources, rows.Err()
}

func (r *sourceRepository) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	query := `DELETE FROM sources WHERE id = $1`
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
