package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/jobradar/core/internal/config"
	"github.com/jobradar/core/pkg/database"
	"github.com/jobradar/core/pkg/database/pool"
	"github.com/jobradar/core/pkg/embedding"
	"github.com/jobradar/core/pkg/jobs"
	"github.com/jobradar/core/pkg/lifecycle"
	"github.com/jobradar/core/pkg/logger"
	"github.com/jobradar/core/pkg/models"
	"github.com/jobradar/core/pkg/scraper"
)

func main() {
	var (
		jobName = flag.String("job", "", "Run specific job once (scrape_cycle, lifecycle_sweep, embedding_refresh)")
		once    = flag.Bool("once", false, "Run job once and exit")
	)
	flag.Parse()

	logger.SetupLogger()
	log := logger.New("cron-service")

	cfg := config.Load()

	// Connect to database
	db, err := pool.New(context.Background(), cfg.DatabaseURL(), nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	store := database.New(db)

	// Assemble the orchestration core
	quota := scraper.NewQuotaManager(cfg.Scrape.GlobalTarget, cfg.Scrape.SourceTargets)
	stats := scraper.NewStatsCollector(store, time.Duration(cfg.Scrape.StatsCacheTTL)*time.Second)
	adapter := scraper.NewTaskAdapter(store)
	sweeper := lifecycle.NewManager(store, cfg.Lifecycle.FreshnessTTLDays, cfg.Lifecycle.RetentionDays, cfg.Lifecycle.PurgeBatchSize)

	refresher, err := embedding.NewRefresher(cfg.Embedding.RefreshCommand, time.Duration(cfg.Embedding.TimeoutMinutes)*time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid embedding refresh command")
	}

	waves := scraper.FilterWaves(scraper.DefaultWaves(), cfg.Scrape.DisabledSources)
	filters := models.SourceFilters{
		TargetCities: cfg.Scrape.TargetCities,
		CareerPaths:  cfg.Scrape.CareerPaths,
		Industries:   cfg.Scrape.Industries,
		Roles:        cfg.Scrape.Roles,
	}

	orchestrator := scraper.NewOrchestrator(adapter, stats, quota, sweeper, refresher, waves, filters)

	// Create job manager with distributed locking
	var startupJobs []string
	if cfg.Scrape.RunOnStart {
		startupJobs = []string{"scrape_cycle"}
	}
	jobManager := jobs.NewProductionJobManager(db, &jobs.ProductionJobManagerConfig{
		EnableLocking: true,
		DefaultConfig: jobs.DefaultProductionJobConfig(),
		StartupJobs:   startupJobs,
	})

	cycleJob := jobs.NewScrapeCycleJob(orchestrator, cfg.Scrape.Schedule)
	sweepJob := jobs.NewLifecycleSweepJob(sweeper, cfg.Lifecycle.Schedule)
	refreshJob := jobs.NewEmbeddingRefreshJob(refresher, cfg.Embedding.Schedule)

	for _, job := range []jobs.Job{cycleJob, sweepJob, refreshJob} {
		if err := jobManager.RegisterJob(job); err != nil {
			log.Fatal().Err(err).Str("job_name", job.Name()).Msg("Failed to register job")
		}
	}

	// Single-run mode executes the registered (wrapped) job, so a batch
	// invocation against a live deployment takes the same distributed lock
	// as scheduled runs
	registered := map[string]jobs.Job{}
	for _, job := range jobManager.GetJobs() {
		registered[job.Name()] = job
	}

	// Handle single job execution for batch/CI invocations
	if *once && *jobName != "" {
		job, ok := registered[*jobName]
		if !ok {
			log.Fatal().
				Str("job_name", *jobName).
				Msg("Unknown job. Available jobs: scrape_cycle, lifecycle_sweep, embedding_refresh")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 45*time.Minute)
		defer cancel()

		log.Info().Str("job_name", *jobName).Msg("Running job once")
		if err := job.Execute(ctx); err != nil {
			log.Fatal().Err(err).Str("job_name", *jobName).Msg("Job failed")
		}
		log.Info().Str("job_name", *jobName).Msg("Job completed successfully")
		return
	}

	// Start job manager
	jobManager.Start()
	log.Info().
		Int("job_count", len(jobManager.GetJobs())).
		Msg("Cron job service started")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down cron job service")
	jobManager.Stop()
	log.Info().Msg("Cron job service stopped")
}
