package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/jobradar/core/pkg/database"
	"github.com/jobradar/core/pkg/logger"
)

// ProductionJobManager extends the regular job manager with distributed
// locking and on-start execution of selected jobs.
type ProductionJobManager struct {
	cron        *cron.Cron
	jobs        []Job
	logger      *logger.Logger
	lockManager JobLockManager

	enableLocking bool
	defaultConfig *ProductionJobConfig
	startupJobs   []string
}

// ProductionJobManagerConfig holds configuration for the production job manager
type ProductionJobManagerConfig struct {
	EnableLocking bool                 // Enable distributed locking for all jobs
	DefaultConfig *ProductionJobConfig // Default configuration for wrapped jobs
	// StartupJobs are job names executed once immediately on Start, before
	// cron scheduling begins. The scrape cycle runs here so a fresh deploy
	// does not wait for the next scheduled slot.
	StartupJobs []string
}

// NewProductionJobManager creates a production-ready job manager with distributed locking
func NewProductionJobManager(db database.DBTX, config *ProductionJobManagerConfig) *ProductionJobManager {
	if config == nil {
		config = &ProductionJobManagerConfig{
			EnableLocking: true,
			DefaultConfig: DefaultProductionJobConfig(),
		}
	}

	lockManager := NewPostgreSQLLockManager(db)

	return &ProductionJobManager{
		cron:          cron.New(cron.WithLocation(time.UTC)),
		jobs:          make([]Job, 0),
		logger:        logger.New("production-job-manager"),
		lockManager:   lockManager,
		enableLocking: config.EnableLocking,
		defaultConfig: config.DefaultConfig,
		startupJobs:   config.StartupJobs,
	}
}

// RegisterJob adds a job to the manager, automatically wrapping it with production features
func (m *ProductionJobManager) RegisterJob(job Job) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}

	finalJob := job
	if m.enableLocking {
		if _, isProduction := job.(*ProductionJob); !isProduction {
			finalJob = NewProductionJob(job, m.lockManager, m.defaultConfig)
		}
	}

	m.logger.Info().
		Str("action", "register_job").
		Str("job_name", finalJob.Name()).
		Str("schedule", finalJob.Schedule()).
		Bool("locking_enabled", m.enableLocking).
		Msg("Registering production job")

	_, err := m.cron.AddFunc(finalJob.Schedule(), func() {
		// Unique request ID per execution for log correlation
		requestID := uuid.New().String()
		jobLogger := m.logger.WithRequestID(requestID).WithJob(finalJob.Name())

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		ctx = jobLogger.ToContext(ctx)

		jobLogger.LogJobStart(finalJob.Name(), finalJob.Schedule())
		start := time.Now()

		if err := finalJob.Execute(ctx); err != nil {
			jobLogger.Error().
				Err(err).
				Str("action", "job_failed").
				Dur("duration", time.Since(start)).
				Msg("Production job execution failed")
		} else {
			jobLogger.LogJobComplete(finalJob.Name(), time.Since(start), 0, 0)
		}
	})

	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", finalJob.Name(), err)
	}

	m.jobs = append(m.jobs, finalJob)
	return nil
}

// Start begins executing all registered jobs according to their schedules
func (m *ProductionJobManager) Start() {
	m.logger.Info().
		Str("action", "start").
		Int("job_count", len(m.jobs)).
		Bool("locking_enabled", m.enableLocking).
		Msg("Starting production job manager")

	m.runStartupJobs()

	m.cron.Start()
}

// runStartupJobs executes the configured jobs once on startup
func (m *ProductionJobManager) runStartupJobs() {
	for _, job := range m.jobs {
		jobName := job.Name()

		isStartupJob := false
		for _, startupJobName := range m.startupJobs {
			if jobName == startupJobName {
				isStartupJob = true
				break
			}
		}

		if !isStartupJob {
			continue
		}

		m.logger.Info().
			Str("job_name", jobName).
			Str("action", "startup_job_start").
			Msg("Running job on startup")

		requestID := uuid.New().String()
		jobLogger := m.logger.WithRequestID(requestID).WithJob(jobName)

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		ctx = jobLogger.ToContext(ctx)

		start := time.Now()
		if err := job.Execute(ctx); err != nil {
			jobLogger.Error().
				Err(err).
				Str("action", "startup_job_failed").
				Dur("duration", time.Since(start)).
				Msg("Startup job execution failed")
		} else {
			jobLogger.LogJobComplete(jobName, time.Since(start), 0, 0)
		}

		cancel()
	}
}

// Stop gracefully shuts down the job manager
func (m *ProductionJobManager) Stop() {
	m.logger.Info().
		Str("action", "stop_initiated").
		Msg("Stopping production job manager")

	// Stop scheduling new jobs, then wait for running jobs to complete
	ctx := m.cron.Stop()
	<-ctx.Done()

	m.logger.Info().
		Str("action", "stopped").
		Msg("Production job manager stopped")
}

// GetJobs returns all registered jobs
func (m *ProductionJobManager) GetJobs() []Job {
	return m.jobs
}

// GetLockManager returns the distributed lock manager
func (m *ProductionJobManager) GetLockManager() JobLockManager {
	return m.lockManager
}

// GetJobStatus returns status information for all jobs
func (m *ProductionJobManager) GetJobStatus(ctx context.Context) (map[string]JobStatus, error) {
	status := make(map[string]JobStatus)

	for _, job := range m.jobs {
		jobName := job.Name()
		isLocked, err := m.lockManager.IsLocked(ctx, jobName)
		if err != nil {
			return nil, fmt.Errorf("failed to check lock status for job %s: %w", jobName, err)
		}

		status[jobName] = JobStatus{
			Name:     jobName,
			Schedule: job.Schedule(),
			IsLocked: isLocked,
		}
	}

	return status, nil
}

// JobStatus represents the current status of a job
type JobStatus struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	IsLocked bool   `json:"is_locked"`
}
