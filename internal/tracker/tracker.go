package tracker

import (
	"context"
	"log/slog"
	"time"
)

// Store persists modification stamps.
type Store interface {
	SetAttributeModifiedAt(ctx context.Context, attributeID int64, at time.Time) error
	GetAttributeModifiedAt(ctx context.Context, attributeID int64) (*time.Time, error)
	ListAttributeModifiedAt(ctx context.Context) (map[int64]time.Time, error)
	SetTermModifiedAt(ctx context.Context, termID int64, at time.Time) error
	GetTermModifiedAt(ctx context.Context, termID int64) (*time.Time, error)
}

// Tracker stamps attributes and terms with the UTC time of their last
// change. Stamps are truncated to whole seconds to match the wire format.
// A failure to persist a stamp is logged and never returned to the caller.
type Tracker struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Tracker)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func New(store Store, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) stamp() time.Time {
	return t.now().UTC().Truncate(time.Second)
}

func (t *Tracker) RecordAttributeModified(ctx context.Context, attributeID int64) {
	at := t.stamp()
	if err := t.store.SetAttributeModifiedAt(ctx, attributeID, at); err != nil {
		t.logger.Error("failed to record attribute modification", "attribute_id", attributeID, "error", err)
		return
	}
	t.logger.Debug("attribute modification recorded", "attribute_id", attributeID, "modified_at", at)
}

func (t *Tracker) RecordTermModified(ctx context.Context, termID int64) {
	at := t.stamp()
	if err := t.store.SetTermModifiedAt(ctx, termID, at); err != nil {
		t.logger.Error("failed to record term modification", "term_id", termID, "error", err)
		return
	}
	t.logger.Debug("term modification recorded", "term_id", termID, "modified_at", at)
}

// GetAttributeModifiedAt returns nil when the attribute was never stamped.
func (t *Tracker) GetAttributeModifiedAt(ctx context.Context, attributeID int64) (*time.Time, error) {
	return t.store.GetAttributeModifiedAt(ctx, attributeID)
}

// GetTermModifiedAt returns nil when the term was never stamped.
func (t *Tracker) GetTermModifiedAt(ctx context.Context, termID int64) (*time.Time, error) {
	return t.store.GetTermModifiedAt(ctx, termID)
}

// AttributeTimestamps returns every recorded attribute stamp keyed by id.
func (t *Tracker) AttributeTimestamps(ctx context.Context) (map[int64]time.Time, error) {
	return t.store.ListAttributeModifiedAt(ctx)
}

func (t *Tracker) OnAttributeChanged(ctx context.Context, attributeID int64) {
	t.RecordAttributeModified(ctx, attributeID)
}

func (t *Tracker) OnTermChanged(ctx context.Context, termID int64) {
	t.RecordTermModified(ctx, termID)
}
