package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jobradar/core/pkg/logger"
	"github.com/jobradar/core/pkg/models"
)

const (
	// fallbackWindow is how far back the store is counted when a scraper
	// does not self-report a count
	fallbackWindow = 10 * time.Minute
	// outputTailLen bounds the scraper output kept for diagnostics
	outputTailLen = 500
)

// RecentCounter is the slice of the store the adapter needs for its
// fallback count.
type RecentCounter interface {
	CountRecentBySource(ctx context.Context, source string, since time.Time) (int, error)
}

// CommandRunner executes one scraper process and returns its combined
// output. Split out so tests can run without spawning processes.
type CommandRunner func(ctx context.Context, src Source, payload []byte) (string, error)

// TaskAdapter invokes one source task as an isolated process, enforces its
// timeout, and normalizes every failure mode to a zero-contribution
// SourceRun. Nothing escapes the adapter boundary as an error.
type TaskAdapter struct {
	store   RecentCounter
	runner  CommandRunner
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger
	retry   RetryConfig
	now     func() time.Time
}

// NewTaskAdapter creates an adapter backed by real subprocess execution
func NewTaskAdapter(store RecentCounter) *TaskAdapter {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "fallback-count-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &TaskAdapter{
		store:   store,
		runner:  execRunner,
		breaker: breaker,
		logger:  logger.New("task-adapter"),
		retry:   DefaultRetryConfig(),
		now:     time.Now,
	}
}

// Run invokes the source task and blocks until it reaches a terminal state.
// The returned SourceRun always has a status; timeouts and failures
// contribute zero and are logged, never raised.
func (a *TaskAdapter) Run(ctx context.Context, src Source, filters models.SourceFilters) models.SourceRun {
	log := a.logger.WithSource(src.Slug)
	start := a.now()

	run := models.SourceRun{Source: src.Slug}

	if err := a.preflight(ctx, src); err != nil {
		run.Status = models.RunStatusFailure
		run.Duration = time.Since(start)
		log.Error().
			Err(err).
			Str("action", "preflight_failed").
			Msg("Scraper binary not available")
		log.LogSourceRun(src.Slug, string(run.Status), 0, run.Duration)
		return run
	}

	payload, err := json.Marshal(filters)
	if err != nil {
		// Filters are plain string slices; this cannot realistically fail,
		// but the contract is zero-contribution, not panic
		run.Status = models.RunStatusFailure
		run.Duration = time.Since(start)
		log.Error().Err(err).Str("action", "payload_encode_failed").Msg("Failed to encode filter payload")
		log.LogSourceRun(src.Slug, string(run.Status), 0, run.Duration)
		return run
	}

	taskCtx, cancel := context.WithTimeout(ctx, src.Timeout)
	defer cancel()

	output, runErr := a.runner(taskCtx, src, payload)
	run.Duration = time.Since(start)
	run.OutputTail = tail(output, outputTailLen)

	if taskCtx.Err() == context.DeadlineExceeded {
		run.Status = models.RunStatusTimeout
		log.Warn().
			Str("action", "source_timeout").
			Dur("timeout", src.Timeout).
			Dur("duration", run.Duration).
			Str("output_tail", run.OutputTail).
			Msg("Source task exceeded its timeout, abandoned")
		log.LogSourceRun(src.Slug, string(run.Status), 0, run.Duration)
		return run
	}

	if runErr != nil {
		run.Status = models.RunStatusFailure
		log.Error().
			Err(runErr).
			Str("action", "source_failed").
			Dur("duration", run.Duration).
			Str("output_tail", run.OutputTail).
			Msg("Source task failed")
		log.LogSourceRun(src.Slug, string(run.Status), 0, run.Duration)
		return run
	}

	run.Status = models.RunStatusSuccess
	run.JobsSaved, run.CountSource = a.extractCount(ctx, src, output)
	log.LogSourceRun(src.Slug, string(run.Status), run.JobsSaved, run.Duration)

	return run
}

// preflight verifies the scraper binary resolves before paying for a full
// invocation. Idempotent, so it goes through the retry helper.
func (a *TaskAdapter) preflight(ctx context.Context, src Source) error {
	if len(src.Command) == 0 {
		return errors.New("source has no command configured")
	}

	return Retry(ctx, a.retry, func() error {
		_, err := exec.LookPath(src.Command[0])
		return err
	})
}

// extractCount reads the self-reported count from the task output, falling
// back to a direct store count over the recent window for sources that do
// not report cleanly. A failed fallback yields zero, not an error.
func (a *TaskAdapter) extractCount(ctx context.Context, src Source, output string) (int, string) {
	if src.Marker != nil {
		if match := src.Marker.FindStringSubmatch(output); len(match) > 1 {
			if count, err := strconv.Atoi(match[1]); err == nil {
				return count, "marker"
			}
		}
	}

	since := a.now().Add(-fallbackWindow)
	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.store.CountRecentBySource(ctx, src.Slug, since)
	})
	if err != nil {
		a.logger.WithSource(src.Slug).Warn().
			Err(err).
			Str("action", "fallback_count_failed").
			Msg("No marker in output and store fallback failed, counting zero")
		return 0, "store_fallback"
	}

	return result.(int), "store_fallback"
}

// execRunner runs the scraper as a subprocess with the filter payload on
// stdin and stdout+stderr captured together.
func execRunner(ctx context.Context, src Source, payload []byte) (string, error) {
	cmd := exec.CommandContext(ctx, src.Command[0], src.Command[1:]...)
	cmd.Stdin = bytes.NewReader(payload)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	return buf.String(), err
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
