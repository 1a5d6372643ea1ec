package jobs

import (
	"context"

	"github.com/jobradar/core/pkg/embedding"
)

// EmbeddingRefreshJob is the periodic trigger for the embedding refresher.
// The refresher's own single-flight flag also covers the orchestrator's
// post-cycle trigger, so overlapping triggers collapse to one run.
type EmbeddingRefreshJob struct {
	refresher *embedding.Refresher
	schedule  string
}

func NewEmbeddingRefreshJob(refresher *embedding.Refresher, schedule string) Job {
	return &EmbeddingRefreshJob{
		refresher: refresher,
		schedule:  schedule,
	}
}

func (j *EmbeddingRefreshJob) Name() string {
	return "embedding_refresh"
}

func (j *EmbeddingRefreshJob) Execute(ctx context.Context) error {
	// A skipped trigger is a normal outcome, not an error
	j.refresher.Trigger(ctx)
	return nil
}

func (j *EmbeddingRefreshJob) Schedule() string {
	return j.schedule
}
