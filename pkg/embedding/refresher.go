package embedding

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/jobradar/core/pkg/logger"
)

// CommandRunner executes the external embedding-processing work. Split out
// so tests can run without spawning processes.
type CommandRunner func(ctx context.Context, argv []string) error

// Refresher gates when the external embedding-processing work may run: at
// most one refresh at a time, each bounded by a hard timeout. It decides
// nothing about embedding content.
type Refresher struct {
	argv    []string
	timeout time.Duration
	runner  CommandRunner
	logger  *logger.Logger
	running atomic.Bool
}

// NewRefresher parses the configured command line and binds the timeout
func NewRefresher(command string, timeout time.Duration) (*Refresher, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, errors.New("embedding refresh command is empty")
	}

	return &Refresher{
		argv:    argv,
		timeout: timeout,
		runner:  execRunner,
		logger:  logger.New("embedding-refresher"),
	}, nil
}

// Trigger runs one refresh if none is in flight. Returns false when the
// trigger was skipped because a refresh is already running; skipped triggers
// are never queued.
func (r *Refresher) Trigger(ctx context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Info().
			Str("action", "refresh_skipped_running").
			Msg("Embedding refresh trigger skipped, refresh already in progress")
		return false
	}
	defer r.running.Store(false)

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Info().
		Str("action", "refresh_start").
		Dur("timeout", r.timeout).
		Msg("Starting embedding refresh")
	start := time.Now()

	err := r.runner(runCtx, r.argv)

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		r.logger.Warn().
			Str("action", "refresh_timeout").
			Dur("timeout", r.timeout).
			Msg("Embedding refresh hit its timeout, queue likely large")
	case err != nil:
		r.logger.Error().
			Err(err).
			Str("action", "refresh_failed").
			Dur("duration", time.Since(start)).
			Msg("Embedding refresh failed")
	default:
		r.logger.Info().
			Str("action", "refresh_complete").
			Dur("duration", time.Since(start)).
			Msg("Embedding refresh completed")
	}

	return true
}

// TriggerAsync fires a refresh without blocking the caller. Used by the
// orchestrator at cycle end so cycle completion never waits on the queue.
func (r *Refresher) TriggerAsync() {
	go r.Trigger(context.Background())
}

func execRunner(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	return cmd.Run()
}
