// Package syncengine runs one synchronization pass: it enumerates both
// sides of every configured prefix pair, diffs each file's tag sets
// against the last snapshot, applies the resulting mutations, and
// persists a new crash-consistent snapshot.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"golang.org/x/sync/semaphore"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/config"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/diff"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/retry"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/snapshot"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"
)

// ErrAlreadyRunning is returned when another process holds the run
// lock over the same tag database.
var ErrAlreadyRunning = errors.New("syncengine: another run is already in progress")

// Engine owns one complete synchronization run.
type Engine struct {
	cfg    *config.Config
	local  LocalStore
	remote RemoteStore
	logger *slog.Logger

	policy diff.ConflictPolicy
	mapper *tagsync.PathMapper
	fence  *tagCreationFence
}

// New builds an Engine from cfg, validating its prefix pairs and
// conflict policy up front so that misconfiguration surfaces before any
// network or filesystem work begins.
func New(cfg *config.Config, local LocalStore, remote RemoteStore, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	policy, err := diff.ParseConflictPolicy(cfg.KeepSideOnConflict)
	if err != nil {
		return nil, retry.AsKind(retry.KindFatal, fmt.Errorf("syncengine: %w", err))
	}

	pairs := make([]tagsync.PrefixPair, 0, len(cfg.Prefixes))
	for _, p := range cfg.Prefixes {
		pair, err := tagsync.NewPrefixPair(p.Local, p.Remote)
		if err != nil {
			return nil, retry.AsKind(retry.KindFatal, fmt.Errorf("syncengine: %w", err))
		}
		pairs = append(pairs, pair)
	}

	mapper, err := tagsync.NewPathMapper(pairs)
	if err != nil {
		return nil, retry.AsKind(retry.KindFatal, fmt.Errorf("syncengine: %w", err))
	}

	return &Engine{
		cfg:    cfg,
		local:  local,
		remote: remote,
		logger: logger,
		policy: policy,
		mapper: mapper,
		fence:  newTagCreationFence(),
	}, nil
}

// Run executes one full synchronization pass.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	lock := flock.New(e.cfg.TagDatabase + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, retry.AsKind(retry.KindFatal, fmt.Errorf("syncengine: acquire run lock: %w", err))
	}
	if !locked {
		return nil, retry.AsKind(retry.KindFatal, ErrAlreadyRunning)
	}
	defer lock.Unlock()

	doc, err := snapshot.Load(e.cfg.TagDatabase)
	if err != nil {
		return nil, fmt.Errorf("syncengine: load snapshot: %w", err)
	}

	tagIndex, invalidTags, err := e.remote.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("syncengine: build tag index: %w", err)
	}
	if len(invalidTags) > 0 {
		e.logger.Warn("sync: dropped invalid remote tag name(s)", "names", invalidTags)
	}

	result := &RunResult{DryRun: e.cfg.DryRun}
	newDoc := snapshot.NewDocument()
	sem := semaphore.NewWeighted(int64(e.cfg.MaxConcurrentRequests))

	for _, pair := range e.mapper.Pairs() {
		e.syncPair(ctx, pair, doc, newDoc, tagIndex, sem, result)
	}

	for _, fe := range result.FileErrors {
		if retry.Classify(fe.Err) == retry.KindFatal {
			return nil, fmt.Errorf("syncengine: fatal error, snapshot not written: %w", fe.Err)
		}
	}

	if e.cfg.DryRun {
		e.logger.Info("sync: dry run complete, snapshot not written",
			"files_seen", result.FilesSeen, "mutations", result.MutationsApplied, "errors", len(result.FileErrors))
		return result, nil
	}

	if err := snapshot.Save(e.cfg.TagDatabase, newDoc); err != nil {
		return nil, fmt.Errorf("syncengine: save snapshot: %w", err)
	}

	e.logger.Info("sync: run complete",
		"files_seen", result.FilesSeen, "mutations", result.MutationsApplied, "errors", len(result.FileErrors))
	return result, nil
}
