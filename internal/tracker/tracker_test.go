package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalogsync/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) SetAttributeModifiedAt(ctx context.Context, attributeID int64, at time.Time) error {
	args := m.Called(ctx, attributeID, at)
	return args.Error(0)
}

func (m *MockStore) GetAttributeModifiedAt(ctx context.Context, attributeID int64) (*time.Time, error) {
	args := m.Called(ctx, attributeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockStore) ListAttributeModifiedAt(ctx context.Context) (map[int64]time.Time, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]time.Time), args.Error(1)
}

func (m *MockStore) SetTermModifiedAt(ctx context.Context, termID int64, at time.Time) error {
	args := m.Called(ctx, termID, at)
	return args.Error(0)
}

func (m *MockStore) GetTermModifiedAt(ctx context.Context, termID int64) (*time.Time, error) {
	args := m.Called(ctx, termID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func fixedClock() time.Time {
	loc := time.FixedZone("UTC+2", 2*60*60)
	return time.Date(2024, 6, 1, 14, 30, 15, 987_000_000, loc)
}

func TestRecordAttributeModified_StampsUTCSeconds(t *testing.T) {
	store := new(MockStore)
	tr := New(store, logger.Discard(), WithClock(fixedClock))
	ctx := context.Background()

	want := time.Date(2024, 6, 1, 12, 30, 15, 0, time.UTC)
	store.On("SetAttributeModifiedAt", ctx, int64(7), mock.MatchedBy(func(at time.Time) bool {
		return at.Equal(want) && at.Location() == time.UTC
	})).Return(nil)

	tr.RecordAttributeModified(ctx, 7)
	store.AssertExpectations(t)
}

func TestRecordTermModified_FailureIsNotPropagated(t *testing.T) {
	store := new(MockStore)
	tr := New(store, logger.Discard(), WithClock(fixedClock))
	ctx := context.Background()

	store.On("SetTermModifiedAt", ctx, int64(3), mock.AnythingOfType("time.Time")).Return(errors.New("disk full"))

	assert.NotPanics(t, func() { tr.OnTermChanged(ctx, 3) })
	store.AssertExpectations(t)
}

func TestRecord_ReplacesPriorStamp(t *testing.T) {
	store := new(MockStore)
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := New(store, logger.Discard(), WithClock(func() time.Time { return current }))
	ctx := context.Background()

	var recorded []time.Time
	store.On("SetAttributeModifiedAt", ctx, int64(1), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) { recorded = append(recorded, args.Get(2).(time.Time)) }).
		Return(nil)

	tr.OnAttributeChanged(ctx, 1)
	current = current.Add(90 * time.Second)
	tr.OnAttributeChanged(ctx, 1)

	require.Len(t, recorded, 2)
	assert.True(t, recorded[1].After(recorded[0]))
}

func TestGetters_PassThrough(t *testing.T) {
	store := new(MockStore)
	tr := New(store, logger.Discard())
	ctx := context.Background()
	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	store.On("GetAttributeModifiedAt", ctx, int64(1)).Return(nil, nil)
	store.On("GetTermModifiedAt", ctx, int64(2)).Return(&stamp, nil)
	store.On("ListAttributeModifiedAt", ctx).Return(map[int64]time.Time{4: stamp}, nil)

	at, err := tr.GetAttributeModifiedAt(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, at)

	at, err = tr.GetTermModifiedAt(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, stamp, *at)

	stamps, err := tr.AttributeTimestamps(ctx)
	require.NoError(t, err)
	assert.Equal(t, stamp, stamps[4])
	store.AssertExpectations(t)
}
