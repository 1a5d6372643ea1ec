package scraper

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jobradar/core/pkg/models"
)

// mockCountStore implements RecentCounter for testing
type mockCountStore struct {
	count      int
	err        error
	queryCount int
}

func (m *mockCountStore) CountRecentBySource(ctx context.Context, source string, since time.Time) (int, error) {
	m.queryCount++
	if m.err != nil {
		return 0, m.err
	}
	return m.count, nil
}

// testSource uses "sh" as the command head so the preflight LookPath passes
// without spawning anything; the runner is always stubbed.
func testSource(timeout time.Duration) Source {
	return Source{
		Slug:    "testboard",
		Name:    "Test Board",
		Command: []string{"sh", "-c", "true"},
		Timeout: timeout,
		Marker:  regexp.MustCompile(`(?m)^SAVED (\d+) jobs?$`),
	}
}

func newTestAdapter(store *mockCountStore, runner CommandRunner) *TaskAdapter {
	adapter := NewTaskAdapter(store)
	adapter.runner = runner
	adapter.retry = RetryConfig{MaxAttempts: 1, BaseDelay: time.Millisecond}
	return adapter
}

func TestTaskAdapter_MarkerCount(t *testing.T) {
	store := &mockCountStore{count: 999}
	adapter := newTestAdapter(store, func(ctx context.Context, src Source, payload []byte) (string, error) {
		return "scraping...\nSAVED 42 jobs\n", nil
	})

	run := adapter.Run(context.Background(), testSource(time.Minute), models.SourceFilters{})

	if run.Status != models.RunStatusSuccess {
		t.Errorf("Status = %v, want success", run.Status)
	}
	if run.JobsSaved != 42 {
		t.Errorf("JobsSaved = %d, want 42", run.JobsSaved)
	}
	if run.CountSource != "marker" {
		t.Errorf("CountSource = %q, want marker", run.CountSource)
	}
	if store.queryCount != 0 {
		t.Errorf("store queried %d times, want 0 when marker present", store.queryCount)
	}
}

func TestTaskAdapter_FallbackCount(t *testing.T) {
	store := &mockCountStore{count: 17}
	adapter := newTestAdapter(store, func(ctx context.Context, src Source, payload []byte) (string, error) {
		return "scraping complete, no summary line\n", nil
	})

	run := adapter.Run(context.Background(), testSource(time.Minute), models.SourceFilters{})

	if run.Status != models.RunStatusSuccess {
		t.Errorf("Status = %v, want success", run.Status)
	}
	if run.JobsSaved != 17 {
		t.Errorf("JobsSaved = %d, want 17 from store fallback", run.JobsSaved)
	}
	if run.CountSource != "store_fallback" {
		t.Errorf("CountSource = %q, want store_fallback", run.CountSource)
	}
}

func TestTaskAdapter_FallbackFailureCountsZero(t *testing.T) {
	store := &mockCountStore{err: errors.New("connection refused")}
	adapter := newTestAdapter(store, func(ctx context.Context, src Source, payload []byte) (string, error) {
		return "no marker here\n", nil
	})

	run := adapter.Run(context.Background(), testSource(time.Minute), models.SourceFilters{})

	// The task itself completed; a broken fallback is not a task failure
	if run.Status != models.RunStatusSuccess {
		t.Errorf("Status = %v, want success", run.Status)
	}
	if run.JobsSaved != 0 {
		t.Errorf("JobsSaved = %d, want 0", run.JobsSaved)
	}
}

func TestTaskAdapter_Timeout(t *testing.T) {
	store := &mockCountStore{}
	adapter := newTestAdapter(store, func(ctx context.Context, src Source, payload []byte) (string, error) {
		<-ctx.Done()
		return "partial output", ctx.Err()
	})

	run := adapter.Run(context.Background(), testSource(20*time.Millisecond), models.SourceFilters{})

	if run.Status != models.RunStatusTimeout {
		t.Errorf("Status = %v, want timeout", run.Status)
	}
	if run.JobsSaved != 0 {
		t.Errorf("JobsSaved = %d, want 0 on timeout", run.JobsSaved)
	}
}

func TestTaskAdapter_Failure(t *testing.T) {
	store := &mockCountStore{}
	adapter := newTestAdapter(store, func(ctx context.Context, src Source, payload []byte) (string, error) {
		return "Traceback (most recent call last): ...", errors.New("exit status 1")
	})

	run := adapter.Run(context.Background(), testSource(time.Minute), models.SourceFilters{})

	if run.Status != models.RunStatusFailure {
		t.Errorf("Status = %v, want failure", run.Status)
	}
	if run.JobsSaved != 0 {
		t.Errorf("JobsSaved = %d, want 0 on failure", run.JobsSaved)
	}
	if run.OutputTail == "" {
		t.Error("OutputTail empty, want captured output for diagnosis")
	}
}

func TestTaskAdapter_PreflightMissingBinary(t *testing.T) {
	store := &mockCountStore{}
	runnerCalled := false
	adapter := newTestAdapter(store, func(ctx context.Context, src Source, payload []byte) (string, error) {
		runnerCalled = true
		return "", nil
	})

	src := testSource(time.Minute)
	src.Command = []string{"definitely-not-a-real-binary-xyz"}

	run := adapter.Run(context.Background(), src, models.SourceFilters{})

	if run.Status != models.RunStatusFailure {
		t.Errorf("Status = %v, want failure", run.Status)
	}
	if runnerCalled {
		t.Error("runner invoked despite failed preflight")
	}
}

func TestTaskAdapter_FilterPayload(t *testing.T) {
	store := &mockCountStore{}
	var gotPayload []byte
	adapter := newTestAdapter(store, func(ctx context.Context, src Source, payload []byte) (string, error) {
		gotPayload = payload
		return "SAVED 1 job\n", nil
	})

	filters := models.SourceFilters{
		TargetCities: []string{"Berlin", "Hamburg"},
		CareerPaths:  []string{"engineering"},
	}
	adapter.Run(context.Background(), testSource(time.Minute), filters)

	payload := string(gotPayload)
	if payload == "" {
		t.Fatal("no payload passed to runner")
	}
	// Unset filters are omitted so the source falls back to its defaults
	for _, want := range []string{`"target_cities":["Berlin","Hamburg"]`, `"career_paths":["engineering"]`} {
		if !strings.Contains(payload, want) {
			t.Errorf("payload %q missing %q", payload, want)
		}
	}
	for _, absent := range []string{"industries", "roles"} {
		if strings.Contains(payload, absent) {
			t.Errorf("payload %q contains %q, want omitted", payload, absent)
		}
	}
}

func TestTail(t *testing.T) {
	if got := tail("hello", 10); got != "hello" {
		t.Errorf("tail short = %q", got)
	}
	if got := tail("0123456789", 4); got != "6789" {
		t.Errorf("tail long = %q, want 6789", got)
	}
}
