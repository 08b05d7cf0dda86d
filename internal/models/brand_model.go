package models

import "time"

type Brand struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type BrandAsset struct {
	ID        int64     `db:"id" json:"id"`
	BrandID   int64     `db:"brand_id" json:"brand"`
	AssetType string    `db:"asset_type" json:"asset_type"`
	Label     string    `db:"label" json:"label"`
	FileKey   string    `db:"file_key" json:"-"`
	FileURL   string    `db:"file_url" json:"file"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	AssetTypeLogo  = "LOGO"
	AssetTypeFrame = "FRAME"
	AssetTypeIntro = "INTRO"
	AssetTypeOutro = "OUTRO"
	AssetTypeCTA   = "CTA"
)
