package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jobradar/core/pkg/models"
)

// ListJobSightingsSince returns fingerprint+source pairs for jobs created at
// or after since, ordered by creation time so the first-seen source wins any
// cross-source tie.
func (s *Store) ListJobSightingsSince(ctx context.Context, since time.Time) ([]models.JobSighting, error) {
	query := `
		SELECT fingerprint, source
		FROM jobs
		WHERE created_at >= $1
		ORDER BY created_at`

	rows, err := s.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query job sightings: %w", err)
	}
	defer rows.Close()

	var sightings []models.JobSighting
	for rows.Next() {
		var sighting models.JobSighting
		if err := rows.Scan(&sighting.Fingerprint, &sighting.Source); err != nil {
			return nil, fmt.Errorf("failed to scan job sighting: %w", err)
		}
		sightings = append(sightings, sighting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job sightings: %w", err)
	}

	return sightings, nil
}

// CountRecentBySource counts distinct fingerprints a single source created
// at or after since. Used as the adapter's fallback when a scraper does not
// self-report a count.
func (s *Store) CountRecentBySource(ctx context.Context, source string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(DISTINCT fingerprint)
		FROM jobs
		WHERE source = $1 AND created_at >= $2`

	var count int
	if err := s.db.QueryRow(ctx, query, source, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recent jobs for source %s: %w", source, err)
	}

	return count, nil
}

// DeactivateStaleJobs marks jobs not re-observed since cutoff as inactive
// and returns the number of rows affected.
func (s *Store) DeactivateStaleJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE jobs
		SET is_active = false
		WHERE is_active = true AND last_seen_at < $1`

	tag, err := s.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate stale jobs: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ListPurgeableFingerprints returns up to limit fingerprints of jobs that
// have been inactive since before cutoff.
func (s *Store) ListPurgeableFingerprints(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	query := `
		SELECT fingerprint
		FROM jobs
		WHERE is_active = false AND last_seen_at < $1
		ORDER BY last_seen_at
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list purgeable jobs: %w", err)
	}
	defer rows.Close()

	var fingerprints []string
	for rows.Next() {
		var fingerprint string
		if err := rows.Scan(&fingerprint); err != nil {
			return nil, fmt.Errorf("failed to scan purgeable fingerprint: %w", err)
		}
		fingerprints = append(fingerprints, fingerprint)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read purgeable fingerprints: %w", err)
	}

	return fingerprints, nil
}

// DeleteEmbeddingQueueEntries removes queue rows for a fingerprint
func (s *Store) DeleteEmbeddingQueueEntries(ctx context.Context, fingerprint string) error {
	query := `DELETE FROM embedding_queue WHERE fingerprint = $1`
	if _, err := s.db.Exec(ctx, query, fingerprint); err != nil {
		return fmt.Errorf("failed to delete embedding queue entries for %s: %w", fingerprint, err)
	}
	return nil
}

// DeleteMatches removes match rows for a fingerprint
func (s *Store) DeleteMatches(ctx context.Context, fingerprint string) error {
	query := `DELETE FROM matches WHERE fingerprint = $1`
	if _, err := s.db.Exec(ctx, query, fingerprint); err != nil {
		return fmt.Errorf("failed to delete matches for %s: %w", fingerprint, err)
	}
	return nil
}

// DeleteJob removes a job row. Dependent embedding_queue and matches rows
// must be deleted first.
func (s *Store) DeleteJob(ctx context.Context, fingerprint string) error {
	query := `DELETE FROM jobs WHERE fingerprint = $1`
	if _, err := s.db.Exec(ctx, query, fingerprint); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", fingerprint, err)
	}
	return nil
}

// CountActiveBySource returns the number of active jobs per source
func (s *Store) CountActiveBySource(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT source, COUNT(*)
		FROM jobs
		WHERE is_active = true
		GROUP BY source
		ORDER BY source`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count active jobs by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source count: %w", err)
		}
		counts[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source counts: %w", err)
	}

	return counts, nil
}

