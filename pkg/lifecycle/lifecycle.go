package lifecycle

import (
	"context"
	"time"

	"github.com/jobradar/core/pkg/logger"
)

// Store is the slice of the database the lifecycle manager needs
type Store interface {
	DeactivateStaleJobs(ctx context.Context, cutoff time.Time) (int64, error)
	ListPurgeableFingerprints(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	DeleteEmbeddingQueueEntries(ctx context.Context, fingerprint string) error
	DeleteMatches(ctx context.Context, fingerprint string) error
	DeleteJob(ctx context.Context, fingerprint string) error
}

// Manager ages out job records in two idempotent steps: deactivate records
// not re-observed within the freshness TTL, then permanently purge records
// inactive beyond the retention window, cascading to dependent rows.
type Manager struct {
	store        Store
	freshnessTTL time.Duration
	retention    time.Duration
	batchSize    int
	logger       *logger.Logger
	now          func() time.Time
}

// NewManager creates a lifecycle manager. TTL and retention are given in
// days matching the configuration surface.
func NewManager(store Store, freshnessTTLDays, retentionDays, batchSize int) *Manager {
	return &Manager{
		store:        store,
		freshnessTTL: time.Duration(freshnessTTLDays) * 24 * time.Hour,
		retention:    time.Duration(retentionDays) * 24 * time.Hour,
		batchSize:    batchSize,
		logger:       logger.New("lifecycle-manager"),
		now:          time.Now,
	}
}

// Deactivate marks active records whose last_seen_at predates the freshness
// TTL as inactive. Returns the number of records affected; a query error is
// logged and reported as zero.
func (m *Manager) Deactivate(ctx context.Context) int64 {
	cutoff := m.now().Add(-m.freshnessTTL)

	affected, err := m.store.DeactivateStaleJobs(ctx, cutoff)
	m.logger.LogLifecycleOutcome("deactivate", affected, err)
	if err != nil {
		return 0
	}

	return affected
}

// Purge hard-deletes records inactive since before the retention window, up
// to one batch per invocation. Dependents go first for each fingerprint
// (embedding queue, then matches, then the job row) so an interruption
// mid-batch never leaves dangling references. Returns the count purged.
func (m *Manager) Purge(ctx context.Context) int64 {
	cutoff := m.now().Add(-m.retention)

	fingerprints, err := m.store.ListPurgeableFingerprints(ctx, cutoff, m.batchSize)
	if err != nil {
		m.logger.LogLifecycleOutcome("purge", 0, err)
		return 0
	}

	var purged int64
	for _, fingerprint := range fingerprints {
		if err := m.purgeOne(ctx, fingerprint); err != nil {
			// Stop the batch; the remaining rows stay eligible for the
			// next invocation
			m.logger.Error().
				Err(err).
				Str("action", "purge_aborted").
				Str("fingerprint", fingerprint).
				Int64("purged_before_abort", purged).
				Msg("Purge batch aborted on delete error")
			return purged
		}
		purged++
	}

	m.logger.LogLifecycleOutcome("purge", purged, nil)
	return purged
}

func (m *Manager) purgeOne(ctx context.Context, fingerprint string) error {
	if err := m.store.DeleteEmbeddingQueueEntries(ctx, fingerprint); err != nil {
		return err
	}
	if err := m.store.DeleteMatches(ctx, fingerprint); err != nil {
		return err
	}
	return m.store.DeleteJob(ctx, fingerprint)
}

// Sweep runs deactivation to completion, then purge. Purge's predicate
// depends on is_active already being updated, so the order is fixed.
func (m *Manager) Sweep(ctx context.Context) (deactivated, purged int64) {
	deactivated = m.Deactivate(ctx)
	purged = m.Purge(ctx)
	return deactivated, purged
}
