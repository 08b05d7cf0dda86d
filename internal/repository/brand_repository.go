package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/Cascapera/social-automation/internal/models"
)

type BrandRepository interface {
	Create(ctx context.Context, brand *models.Brand) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Brand, error)
	GetBySlug(ctx context.Context, slug string) (*models.Brand, error)
	List(ctx context.Context) ([]*models.Brand, error)
}

type brandRepository struct {
	db *sql.DB
}

func NewBrandRepository(db *sql.DB) BrandRepository {
	return &brandRepository{db: db}
}

func (r *brandRepository) Create(ctx context.Context, brand *models.Brand) (int64, error) {
	query := `
		INSERT INTO brands (name, slug)
		VALUES ($1, $2)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, brand.Name, brand.Slug).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *brandRepository) GetByID(ctx context.Context, id int64) (*models.Brand, error) {
	query := `SELECT id, name, slug, created_at FROM brands WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var brand models.Brand
	err := row.Scan(&brand.ID, &brand.Name, &brand.Slug, &brand.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &brand, nil
}

func (r *brandRepository) GetBySlug(ctx context.Context, slug string) (*models.Brand, error) {
	query := `SELECT id, name, slug, created_at FROM brands WHERE slug = $1`
	row := r.db.QueryRowContext(ctx, query, slug)

	var brand models.Brand
	err := row.Scan(&brand.ID, &brand.Name, &brand.Slug, &brand.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &brand, nil
}

func (r *brandRepository) List(ctx context.Context) ([]*models.Brand, error) {
	query := `SELECT id, name, slug, created_at FROM brands ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var brands []*models.Brand
	for rows.Next() {
		var brand models.Brand
		if err := rows.Scan(&brand.ID, &brand.Name, &brand.Slug, &brand.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		brands = append(brands, &brand)
	}
	return brands, rows.Err()
}
