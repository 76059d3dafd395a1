package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SyncLinkRecord ties a local term to the provider term it mirrors.
type SyncLinkRecord struct {
	LocalTermID  int64      `json:"local_term_id" db:"local_term_id"`
	SourceTermID int64      `json:"source_term_id" db:"source_term_id"`
	LastSyncedAt *time.Time `json:"last_synced_at" db:"last_synced_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type AttributeCounts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

type TermCounts struct {
	Created          int `json:"created"`
	Updated          int `json:"updated"`
	Failed           int `json:"failed"`
	ImagesSideloaded int `json:"images_sideloaded"`
	ImagesFailed     int `json:"images_failed"`
}

// SyncSummary is the outcome of one sync run that got past its fatal checks.
type SyncSummary struct {
	RunID         uuid.UUID       `json:"run_id"`
	AttributeSlug string          `json:"attribute_slug,omitempty"`
	Attributes    AttributeCounts `json:"attributes"`
	Terms         TermCounts      `json:"terms"`
	Message       string          `json:"message"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
}

// Compose renders the human-readable summary line and stores it in Message.
func (s *SyncSummary) Compose() string {
	s.Message = fmt.Sprintf(
		"Sync complete. Attributes: %d created, %d updated, %d failed. Terms: %d created, %d updated, %d failed. Images: %d sideloaded, %d failed.",
		s.Attributes.Created,
		s.Attributes.Updated,
		s.Attributes.Failed,
		s.Terms.Created,
		s.Terms.Updated,
		s.Terms.Failed,
		s.Terms.ImagesSideloaded,
		s.Terms.ImagesFailed,
	)
	return s.Message
}
