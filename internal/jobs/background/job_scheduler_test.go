package background

import (
	"context"
	"testing"
	"time"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) SyncAttributesAndTerms(ctx context.Context, attributeSlug string) (*models.SyncSummary, error) {
	args := m.Called(ctx, attributeSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncSummary), args.Error(1)
}

func (m *MockSyncService) FetchProviderAttributes(ctx context.Context) ([]*models.AttributeDefinition, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.AttributeDefinition), args.Error(1)
}

func TestNewJobScheduler_RegistersSync(t *testing.T) {
	js, err := NewJobScheduler(new(MockSyncService), 15*time.Minute, logger.Discard())
	require.NoError(t, err)
	js.Start()
	defer js.Stop()

	status := js.GetJobStatus()
	require.Len(t, status, 1)
	assert.Equal(t, AttributeSyncJob, status[0].Name)
	assert.Nil(t, status[0].LastRun)
}

func TestNewJobScheduler_Disabled(t *testing.T) {
	js, err := NewJobScheduler(new(MockSyncService), 0, logger.Discard())
	require.NoError(t, err)
	js.Start()
	defer js.Stop()

	assert.Empty(t, js.GetJobStatus())
	assert.ErrorIs(t, js.RunNow(AttributeSyncJob), ErrJobNotFound)
}

func TestRunNow_RunsFullSync(t *testing.T) {
	svc := new(MockSyncService)
	done := make(chan struct{})
	summary := &models.SyncSummary{}
	summary.Compose()
	svc.On("SyncAttributesAndTerms", mock.Anything, "").Return(summary, nil).Once().Run(func(mock.Arguments) {
		close(done)
	})

	js, err := NewJobScheduler(svc, time.Hour, logger.Discard())
	require.NoError(t, err)
	js.Start()
	defer js.Stop()

	require.NoError(t, js.RunNow(AttributeSyncJob))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sync job did not run")
	}
	svc.AssertExpectations(t)
}

func TestRunAttributeSync_ToleratesErrors(t *testing.T) {
	svc := new(MockSyncService)
	svc.On("SyncAttributesAndTerms", mock.Anything, "").Return(nil, services.ErrSyncInProgress).Once()
	svc.On("SyncAttributesAndTerms", mock.Anything, "").Return(nil, services.ErrNotConfigured).Once()

	js, err := NewJobScheduler(svc, 0, logger.Discard())
	require.NoError(t, err)
	js.Start()
	defer js.Stop()

	js.runAttributeSync()
	js.runAttributeSync()
	svc.AssertExpectations(t)
}
