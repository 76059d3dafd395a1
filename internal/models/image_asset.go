package models

import "time"

// ImageAsset is a materialized image in object storage. SourceURL is set
// for sideloaded images and is unique across the table.
type ImageAsset struct {
	ID          int64     `json:"id" db:"id"`
	SourceURL   *string   `json:"source_url" db:"source_url"`
	ObjectKey   string    `json:"object_key" db:"object_key"`
	ContentType string    `json:"content_type" db:"content_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	Title       string    `json:"title" db:"title"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
