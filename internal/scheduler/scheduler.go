package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"rentdesk-backend/internal/jobs"
	"rentdesk-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron    *cron.Cron
	jobs    *jobs.JobRunner
	entries map[string]cron.EntryID
}

// NewScheduler creates a new scheduler with the provided job runner. A job
// whose cron spec does not parse is reported and left unscheduled.
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// UTC with seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron:    c,
		jobs:    jobRunner,
		entries: map[string]cron.EntryID{},
	}

	s.registerJobs()
	return s
}

func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler
	s.register("ReportOverdueInvoices", cfg.ReportOverdueInvoices, s.jobs.ReportOverdueInvoices)
	logger.Info("Cron jobs registered", "count", len(s.entries))
}

func (s *Scheduler) register(name, spec string, fn func()) {
	if spec == "" {
		logger.Info("Job disabled, no schedule configured", "job", name)
		return
	}
	id, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		logger.Error("Failed to register job", "job", name, "spec", spec, "error", err)
		return
	}
	s.entries[name] = id
}

// Next returns the next run time of a registered job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if any job is registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
