package jobs

import (
	"context"

	"github.com/jobradar/core/pkg/logger"
	"github.com/jobradar/core/pkg/scraper"
)

// ScrapeCycleJob runs one full scraping cycle through the orchestrator
type ScrapeCycleJob struct {
	orchestrator *scraper.Orchestrator
	schedule     string
	logger       *logger.Logger
}

func NewScrapeCycleJob(orchestrator *scraper.Orchestrator, schedule string) Job {
	return &ScrapeCycleJob{
		orchestrator: orchestrator,
		schedule:     schedule,
		logger:       logger.New("scrape-cycle-job"),
	}
}

func (j *ScrapeCycleJob) Name() string {
	return "scrape_cycle"
}

func (j *ScrapeCycleJob) Execute(ctx context.Context) error {
	cycle, err := j.orchestrator.RunCycle(ctx)
	if err != nil {
		return err
	}
	if cycle == nil {
		// Another trigger beat us; the orchestrator already logged it
		return nil
	}

	j.logger.Info().
		Str("action", "cycle_summary").
		Str("cycle_id", cycle.ID).
		Int("unique_jobs", cycle.FinalStats.TotalUniqueJobs).
		Int("sources_run", len(cycle.Runs)).
		Int("waves_run", cycle.WavesRun).
		Int("waves_skipped", cycle.WavesSkipped).
		Bool("stopped_early", cycle.StoppedEarly).
		Msg("Scrape cycle finished")

	return nil
}

func (j *ScrapeCycleJob) Schedule() string {
	return j.schedule
}
