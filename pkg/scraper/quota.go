package scraper

import "github.com/jobradar/core/pkg/models"

// QuotaManager holds the global cycle target and the advisory per-source
// targets. A target of zero means unlimited for that scope. All decisions
// are pure functions over the stats snapshot passed in.
type QuotaManager struct {
	globalTarget  int
	sourceTargets map[string]int
}

// NewQuotaManager creates a quota manager. The sourceTargets map is copied.
func NewQuotaManager(globalTarget int, sourceTargets map[string]int) *QuotaManager {
	targets := make(map[string]int, len(sourceTargets))
	for slug, target := range sourceTargets {
		targets[slug] = target
	}

	return &QuotaManager{
		globalTarget:  globalTarget,
		sourceTargets: targets,
	}
}

// ShouldStopCycle reports whether the cycle has met its global target.
// Always false when the global target is zero.
func (q *QuotaManager) ShouldStopCycle(stats models.CycleStats) bool {
	return q.globalTarget > 0 && stats.TotalUniqueJobs >= q.globalTarget
}

// HasSourceReachedTarget reports whether a source has met its advisory
// target. Reaching it never halts the cycle; the orchestrator uses it to
// leave the source out of later waves while others continue.
func (q *QuotaManager) HasSourceReachedTarget(stats models.CycleStats, source string) bool {
	target, ok := q.sourceTargets[source]
	if !ok || target <= 0 {
		return false
	}
	return stats.PerSourceCounts[source] >= target
}

// GlobalTarget returns the cycle-wide target, zero meaning unlimited
func (q *QuotaManager) GlobalTarget() int {
	return q.globalTarget
}

// SourceTargets returns a copy of the per-source targets
func (q *QuotaManager) SourceTargets() map[string]int {
	targets := make(map[string]int, len(q.sourceTargets))
	for slug, target := range q.sourceTargets {
		targets[slug] = target
	}
	return targets
}
