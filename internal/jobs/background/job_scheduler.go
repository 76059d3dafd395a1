package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"catalogsync/internal/services"

	"github.com/go-co-op/gocron/v2"
)

const AttributeSyncJob = "attribute-sync"

var ErrJobNotFound = errors.New("job not registered")

// JobScheduler runs the client's periodic jobs.
type JobScheduler struct {
	scheduler gocron.Scheduler
	syncSvc   services.SyncService
	logger    *slog.Logger
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a scheduler that runs a full attribute sync every
// syncInterval. A zero interval registers no sync job.
func NewJobScheduler(syncSvc services.SyncService, syncInterval time.Duration, logger *slog.Logger, opts ...gocron.SchedulerOption) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		syncSvc:   syncSvc,
		logger:    logger,
		jobs:      make(map[string]gocron.Job),
	}
	if syncInterval > 0 {
		if err := js.AddJob(AttributeSyncJob, syncInterval, js.runAttributeSync,
			gocron.WithSingletonMode(gocron.LimitModeReschedule)); err != nil {
			return nil, err
		}
	}

	logger.Info("registered background jobs", "count", len(js.jobs), "sync_interval", syncInterval)
	return js, nil
}

func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// runAttributeSync performs one scheduled full sync. Overlap with a manual
// run is reported and skipped.
func (js *JobScheduler) runAttributeSync() {
	summary, err := js.syncSvc.SyncAttributesAndTerms(context.Background(), "")
	switch {
	case errors.Is(err, services.ErrSyncInProgress):
		js.logger.Info("scheduled sync skipped, a run is already in progress")
	case err != nil:
		js.logger.Error("scheduled sync failed", "error", err)
	default:
		js.logger.Info("scheduled sync finished", "run_id", summary.RunID, "message", summary.Message)
	}
}

// AddJob adds a named job that runs fn every interval.
func (js *JobScheduler) AddJob(name string, interval time.Duration, fn func(), opts ...gocron.JobOption) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	opts = append([]gocron.JobOption{gocron.WithName(name)}, opts...)
	job, err := js.scheduler.NewJob(gocron.DurationJob(interval), gocron.NewTask(fn), opts...)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", name, err)
	}
	js.jobs[name] = job
	return nil
}

// RunNow triggers a registered job outside its schedule.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, exists := js.jobs[name]
	js.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return job.RunNow()
}

// JobStatus describes a registered job.
type JobStatus struct {
	Name    string     `json:"name"`
	NextRun time.Time  `json:"next_run"`
	LastRun *time.Time `json:"last_run"`
}

func (js *JobScheduler) GetJobStatus() []JobStatus {
	js.mu.RLock()
	defer js.mu.RUnlock()

	status := make([]JobStatus, 0, len(js.jobs))
	for name, job := range js.jobs {
		next, _ := job.NextRun()
		st := JobStatus{Name: name, NextRun: next}
		if last, err := job.LastRun(); err == nil && !last.IsZero() {
			st.LastRun = &last
		}
		status = append(status, st)
	}
	sort.Slice(status, func(i, j int) bool { return status[i].Name < status[j].Name })
	return status
}
