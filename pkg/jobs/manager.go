package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jobradar/core/pkg/logger"
)

// jobTimeout bounds a single scheduled execution. Heavy multi-query
// scrapers run up to tens of minutes, so the ceiling is generous.
const jobTimeout = 45 * time.Minute

type cronJobManager struct {
	cron   *cron.Cron
	jobs   []Job
	logger *logger.Logger
}

// NewJobManager creates a new job manager
func NewJobManager() JobManager {
	return &cronJobManager{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		jobs:   make([]Job, 0),
		logger: logger.New("job-manager"),
	}
}

func (m *cronJobManager) RegisterJob(job Job) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}

	m.logger.Info().
		Str("action", "register_job").
		Str("job_name", job.Name()).
		Str("schedule", job.Schedule()).
		Msg("Registering job")

	_, err := m.cron.AddFunc(job.Schedule(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		m.logger.LogJobStart(job.Name(), job.Schedule())
		start := time.Now()

		if err := job.Execute(ctx); err != nil {
			m.logger.Error().
				Err(err).
				Str("action", "job_failed").
				Str("job_name", job.Name()).
				Dur("duration", time.Since(start)).
				Msg("Job execution failed")
		} else {
			m.logger.LogJobComplete(job.Name(), time.Since(start), 0, 0)
		}
	})

	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
	}

	m.jobs = append(m.jobs, job)
	return nil
}

func (m *cronJobManager) Start() {
	m.logger.Info().
		Str("action", "start").
		Int("job_count", len(m.jobs)).
		Msg("Starting job manager")
	m.cron.Start()
}

func (m *cronJobManager) Stop() {
	m.logger.Info().Str("action", "stop_initiated").Msg("Stopping job manager")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info().Str("action", "stopped").Msg("Job manager stopped")
}

func (m *cronJobManager) GetJobs() []Job {
	return append([]Job(nil), m.jobs...)
}
