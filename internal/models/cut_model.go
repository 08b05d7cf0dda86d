package models

import (
	"database/sql"
	"time"
)

// Cut is an immutable media segment, the atomic unit composed into jobs.
// Timecodes use HH:MM:SS or HH:MM:SS.ms.
type Cut struct {
	ID        int64         `db:"id" json:"id"`
	BrandID   int64         `db:"brand_id" json:"brand"`
	SourceID  sql.NullInt64 `db:"source_id" json:"source,omitempty"`
	Name      string        `db:"name" json:"name"`
	StartTC   string        `db:"start_tc" json:"start_tc"`
	EndTC     string        `db:"end_tc" json:"end_tc"`
	Format    string        `db:"format" json:"format"`
	Duration  float64       `db:"duration" json:"duration"`
	FileKey   string        `db:"file_key" json:"-"`
	FileURL   string        `db:"file_url" json:"file_url"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

const (
	FormatVertical   = "vertical"
	FormatHorizontal = "horizontal"
)
