package jobs

import (
	"context"

	"github.com/jobradar/core/pkg/lifecycle"
)

// LifecycleSweepJob ages out stale job records on its own schedule,
// independent of the post-cycle sweep.
type LifecycleSweepJob struct {
	manager  *lifecycle.Manager
	schedule string
}

func NewLifecycleSweepJob(manager *lifecycle.Manager, schedule string) Job {
	return &LifecycleSweepJob{
		manager:  manager,
		schedule: schedule,
	}
}

func (j *LifecycleSweepJob) Name() string {
	return "lifecycle_sweep"
}

func (j *LifecycleSweepJob) Execute(ctx context.Context) error {
	// Both operations are idempotent and contain their own errors; the
	// sweep itself never fails the job run
	j.manager.Sweep(ctx)
	return nil
}

func (j *LifecycleSweepJob) Schedule() string {
	return j.schedule
}
