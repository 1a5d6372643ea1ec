package models

import "time"

// RunStatus is the terminal state of one source task invocation.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailure RunStatus = "failure"
	RunStatusTimeout RunStatus = "timeout"
)

// SourceRun records the outcome of a single source task within a cycle.
// Immutable after the task reaches a terminal state; used for logging and
// cycle aggregation only, never persisted.
type SourceRun struct {
	Source      string
	Status      RunStatus
	JobsSaved   int
	Duration    time.Duration
	OutputTail  string
	CountSource string // "marker" or "store_fallback" for successful runs
}

// CycleStats is a derived snapshot of store progress since cycle start.
// Always recomputable from job rows with created_at >= Since; never the
// source of truth.
type CycleStats struct {
	Since           time.Time
	TotalUniqueJobs int
	PerSourceCounts map[string]int
}

// Cycle summarizes one full orchestration run. Returned by the orchestrator
// and aggregated by the caller; the orchestrator itself keeps no cross-cycle
// state.
type Cycle struct {
	ID           string
	StartedAt    time.Time
	CompletedAt  time.Time
	Runs         []SourceRun
	FinalStats   CycleStats
	WavesRun     int
	WavesSkipped int
	StoppedEarly bool
}

// TotalContributed sums the self-reported contributions of all source runs.
// This can exceed FinalStats.TotalUniqueJobs when sources re-report the same
// fingerprint; quota decisions use FinalStats, never this sum.
func (c *Cycle) TotalContributed() int {
	total := 0
	for _, run := range c.Runs {
		total += run.JobsSaved
	}
	return total
}

// JobSighting is a fingerprint+source pair read back from the store by the
// stats collector. Fingerprints follow the derivation in
// utils.GenerateJobFingerprint.
type JobSighting struct {
	Fingerprint string
	Source      string
}

// SourceFilters is the configuration payload handed to a scraper process on
// stdin. Nil slices are omitted from the JSON so the source falls back to
// its own default set.
type SourceFilters struct {
	TargetCities []string `json:"target_cities,omitempty"`
	CareerPaths  []string `json:"career_paths,omitempty"`
	Industries   []string `json:"industries,omitempty"`
	Roles        []string `json:"roles,omitempty"`
}
