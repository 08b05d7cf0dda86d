package models

import "time"

// Source is an uploaded raw video. Cut extraction consumes it: on
// success the file and the record are deleted.
type Source struct {
	ID        int64     `db:"id" json:"id"`
	BrandID   int64     `db:"brand_id" json:"brand"`
	Title     string    `db:"title" json:"title"`
	FileKey   string    `db:"file_key" json:"-"`
	FileURL   string    `db:"file_url" json:"file"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
