package scraper

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jobradar/core/pkg/logger"
	"github.com/jobradar/core/pkg/models"
)

// TaskRunner runs one source task to a terminal state
type TaskRunner interface {
	Run(ctx context.Context, src Source, filters models.SourceFilters) models.SourceRun
}

// StatsSource provides the progress snapshot the quota decisions run on
type StatsSource interface {
	Collect(ctx context.Context, since time.Time) models.CycleStats
}

// Finalizer runs once at cycle end, before the cycle result is returned
type Finalizer interface {
	Sweep(ctx context.Context) (deactivated, purged int64)
}

// RefreshTrigger fires the embedding refresh without blocking cycle
// completion. Implementations must be safe to call while a refresh runs.
type RefreshTrigger interface {
	TriggerAsync()
}

// Orchestrator drives one scraping cycle at a time through its ordered
// waves. A second trigger while a cycle runs is a logged no-op.
type Orchestrator struct {
	adapter TaskRunner
	stats   StatsSource
	quota   *QuotaManager
	sweeper Finalizer
	refresh RefreshTrigger
	waves   []Wave
	filters models.SourceFilters
	logger  *logger.Logger
	now     func() time.Time
	running atomic.Bool
}

// NewOrchestrator wires a cycle orchestrator. sweeper and refresh may be nil
// when finalization side effects are not wanted (single-job runs, tests).
func NewOrchestrator(adapter TaskRunner, stats StatsSource, quota *QuotaManager, sweeper Finalizer, refresh RefreshTrigger, waves []Wave, filters models.SourceFilters) *Orchestrator {
	return &Orchestrator{
		adapter: adapter,
		stats:   stats,
		quota:   quota,
		sweeper: sweeper,
		refresh: refresh,
		waves:   waves,
		filters: filters,
		logger:  logger.New("cycle-orchestrator"),
		now:     time.Now,
	}
}

// RunCycle executes one full cycle and returns its summary. Returns
// (nil, nil) when a cycle is already in flight. Source failures never
// surface here; only a fault in the orchestration control flow itself
// produces an error, and the running flag is cleared on every path.
func (o *Orchestrator) RunCycle(ctx context.Context) (cycle *models.Cycle, err error) {
	if !o.running.CompareAndSwap(false, true) {
		o.logger.Warn().
			Str("action", "cycle_skipped_running").
			Msg("Cycle trigger ignored, a cycle is already running")
		return nil, nil
	}
	defer o.running.Store(false)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("orchestrator fault: %v", r)
			o.logger.Error().
				Str("action", "cycle_fault").
				Interface("panic", r).
				Msg("Cycle aborted by orchestrator fault, state reset to idle")
		}
	}()

	cycle = &models.Cycle{
		ID:        uuid.New().String(),
		StartedAt: o.now(),
	}
	log := o.logger.WithCycle(cycle.ID)

	log.Info().
		Str("action", "cycle_start").
		Int("waves", len(o.waves)).
		Int("global_target", o.quota.GlobalTarget()).
		Msg("Starting scraping cycle")

	latest := models.CycleStats{Since: cycle.StartedAt, PerSourceCounts: map[string]int{}}
	stopped := false

	for i, wave := range o.waves {
		waveNum := i + 1

		if stopped {
			cycle.WavesSkipped++
			log.Info().
				Str("action", "wave_skipped_quota").
				Int("wave", waveNum).
				Int("unique_jobs_total", latest.TotalUniqueJobs).
				Msg("Wave skipped due to quota")
			continue
		}

		dispatch := o.dispatchList(wave, latest, log)
		if len(dispatch) == 0 {
			log.Info().
				Str("action", "wave_empty").
				Int("wave", waveNum).
				Msg("No dispatchable sources in wave")
			cycle.WavesRun++
			continue
		}

		waveStart := o.now()
		runs := o.runWave(ctx, dispatch)
		cycle.Runs = append(cycle.Runs, runs...)
		cycle.WavesRun++

		latest = o.stats.Collect(ctx, cycle.StartedAt)
		log.LogWaveComplete(waveNum, len(dispatch), latest.TotalUniqueJobs, o.now().Sub(waveStart))

		if o.quota.ShouldStopCycle(latest) {
			stopped = true
			log.Info().
				Str("action", "cycle_quota_reached").
				Int("wave", waveNum).
				Int("unique_jobs_total", latest.TotalUniqueJobs).
				Int("global_target", o.quota.GlobalTarget()).
				Msg("Global target reached, remaining waves will be skipped")
		}
	}

	o.finalize(ctx, cycle, latest, stopped, log)
	return cycle, nil
}

// dispatchList drops sources that already met their advisory target. An
// in-flight source is never cut short; the check only gates later waves.
func (o *Orchestrator) dispatchList(wave Wave, stats models.CycleStats, log *logger.Logger) []Source {
	var dispatch []Source
	for _, src := range wave {
		if o.quota.HasSourceReachedTarget(stats, src.Slug) {
			log.Info().
				Str("action", "source_skipped_target").
				Str("source", src.Slug).
				Int("count", stats.PerSourceCounts[src.Slug]).
				Msg("Source reached its target, not dispatched this wave")
			continue
		}
		dispatch = append(dispatch, src)
	}
	return dispatch
}

// runWave dispatches every source concurrently and joins when all of them
// reach a terminal state. The adapter guarantees siblings cannot fail each
// other: every outcome is a SourceRun, never an error or cancellation.
func (o *Orchestrator) runWave(ctx context.Context, dispatch []Source) []models.SourceRun {
	runs := make([]models.SourceRun, len(dispatch))

	var wg sync.WaitGroup
	for i, src := range dispatch {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			runs[i] = o.adapter.Run(ctx, src, o.filters)
		}(i, src)
	}
	wg.Wait()

	return runs
}

func (o *Orchestrator) finalize(ctx context.Context, cycle *models.Cycle, latest models.CycleStats, stopped bool, log *logger.Logger) {
	cycle.FinalStats = latest
	cycle.StoppedEarly = stopped
	cycle.CompletedAt = o.now()

	if o.sweeper != nil {
		deactivated, purged := o.sweeper.Sweep(ctx)
		log.Info().
			Str("action", "cycle_lifecycle_sweep").
			Int64("deactivated", deactivated).
			Int64("purged", purged).
			Msg("Post-cycle lifecycle sweep completed")
	}

	if o.refresh != nil {
		o.refresh.TriggerAsync()
	}

	log.Info().
		Str("action", "cycle_complete").
		Int("waves_run", cycle.WavesRun).
		Int("waves_skipped", cycle.WavesSkipped).
		Int("sources_run", len(cycle.Runs)).
		Int("total_contributed", cycle.TotalContributed()).
		Int("unique_jobs_total", latest.TotalUniqueJobs).
		Bool("stopped_early", stopped).
		Dur("duration", cycle.CompletedAt.Sub(cycle.StartedAt)).
		Msg("Scraping cycle completed")
}
