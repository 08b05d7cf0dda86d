package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/Cascapera/social-automation/internal/models"
)

type AssetRepository interface {
	Create(ctx context.Context, asset *models.BrandAsset) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.BrandAsset, error)
	List(ctx context.Context, brandID int64, assetType string) ([]*models.BrandAsset, error)
	Remove(ctx context.Context, id int64) error
}

type assetRepository struct {
	db *sql.DB
}

func NewAssetRepository(db *sql.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *models.BrandAsset) (int64, error) {
	query := `
		INSERT INTO brand_assets (brand_id, asset_type, label, file_key, file_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		asset.BrandID, asset.AssetType, asset.Label, asset.FileKey, asset.FileURL).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *assetRepository) GetByID(ctx context.Context, id int64) (*models.BrandAsset, error) {
	query := `SELECT id, brand_id, asset_type, label, file_key, file_url, created_at FROM brand_assets WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var a models.BrandAsset
	err := row.Scan(&a.ID, &a.BrandID, &a.AssetType, &a.Label, &a.FileKey, &a.FileURL, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &a, nil
}

func (r *assetRepository) List(ctx context.Context, brandID int64, assetType string) ([]*models.BrandAsset, error) {
	query := `SELECT id, brand_id, asset_type, label, file_key, file_url, created_at FROM brand_assets WHERE brand_id = $1`
	args := []any{brandID}
	if assetType != "" {
		query += ` AND asset_type = $2`
		args = append(args, assetType)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var assets []*models.BrandAsset
	for rows.Next() {
		var a models.BrandAsset
		if err := rows.Scan(&a.ID, &a.BrandID, &a.AssetType, &a.Label, &a.FileKey, &a.FileURL, &a.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}

func (r *assetRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM brand_assets WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
