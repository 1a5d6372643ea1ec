package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jobradar/core/pkg/logger"
	"github.com/jobradar/core/pkg/models"
)

// SightingLister is the slice of the store the stats collector needs
type SightingLister interface {
	ListJobSightingsSince(ctx context.Context, since time.Time) ([]models.JobSighting, error)
}

// StatsCollector derives cycle progress from the store: distinct
// fingerprints since cycle start, grouped by the source that saw each one
// first. Results are cached for a short TTL so wave-to-wave polling does not
// hammer the store.
type StatsCollector struct {
	store   SightingLister
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger
	now     func() time.Time

	mu       sync.Mutex
	cached   models.CycleStats
	cachedAt time.Time
	hasCache bool
}

// NewStatsCollector creates a collector with the given cache TTL
func NewStatsCollector(store SightingLister, ttl time.Duration) *StatsCollector {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "stats-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &StatsCollector{
		store:   store,
		ttl:     ttl,
		breaker: breaker,
		logger:  logger.New("stats-collector"),
		now:     time.Now,
	}
}

// Collect returns the stats snapshot for jobs created at or after since.
// A repeated call with the same since inside the TTL window returns the
// cached snapshot without touching the store. On query failure (including
// an open breaker) it returns zero-valued stats so the caller proceeds as
// if no progress had been made, never spuriously stopping a cycle.
func (c *StatsCollector) Collect(ctx context.Context, since time.Time) models.CycleStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasCache && c.cached.Since.Equal(since) && c.now().Sub(c.cachedAt) < c.ttl {
		c.logger.Debug().
			Str("action", "stats_cache_hit").
			Time("since", since).
			Int("total_unique", c.cached.TotalUniqueJobs).
			Msg("Returning cached cycle stats")
		return c.cached
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.store.ListJobSightingsSince(ctx, since)
	})
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("action", "stats_query_failed").
			Time("since", since).
			Msg("Store query failed, returning zero stats")
		return zeroStats(since)
	}

	sightings := result.([]models.JobSighting)
	stats := aggregate(since, sightings)

	c.cached = stats
	c.cachedAt = c.now()
	c.hasCache = true

	c.logger.Debug().
		Str("action", "stats_collected").
		Time("since", since).
		Int("rows", len(sightings)).
		Int("total_unique", stats.TotalUniqueJobs).
		Msg("Cycle stats collected")

	return stats
}

// aggregate deduplicates sightings by fingerprint, crediting each
// fingerprint to the source that appears first in the result set.
func aggregate(since time.Time, sightings []models.JobSighting) models.CycleStats {
	stats := zeroStats(since)

	seen := make(map[string]bool, len(sightings))
	for _, sighting := range sightings {
		if seen[sighting.Fingerprint] {
			continue
		}
		seen[sighting.Fingerprint] = true
		stats.PerSourceCounts[sighting.Source]++
	}
	stats.TotalUniqueJobs = len(seen)

	return stats
}

func zeroStats(since time.Time) models.CycleStats {
	return models.CycleStats{
		Since:           since,
		PerSourceCounts: make(map[string]int),
	}
}
