package syncengine

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/diff"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/remotestore"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"
)

// applyResult converges one logical path's local attribute and remote
// tag associations toward result, using remoteFileID (the file's
// Nextcloud id, known whenever result carries a remote mutation). It
// returns the per-mutation failures encountered; a failure on one tag
// does not stop the others from being attempted.
func (e *Engine) applyResult(
	ctx context.Context,
	pair tagsync.PrefixPair,
	lp tagsync.LogicalPath,
	sides diff.Sides,
	result diff.Result,
	remoteFileID remotestore.FileID,
	tagIndex *remotestore.TagIndex,
	sem *semaphore.Weighted,
) []FileError {
	var errs []FileError

	if sides.LocalPresent && !result.NewLocal.Equal(sides.LocalTags) {
		absPath := e.mapper.ToLocal(pair, lp)
		if e.cfg.DryRun {
			e.logger.Info("sync: would update local tags", "path", absPath, "tags", result.NewLocal.String())
		} else if err := e.local.Write(absPath, result.NewLocal); err != nil {
			errs = append(errs, FileError{Path: lp, Err: fmt.Errorf("syncengine: write local tags for %s: %w", absPath, err)})
		}
	}

	for _, mutation := range result.Mutations {
		switch m := mutation.(type) {
		case tagsync.AddRemote:
			if err := e.applyAddRemote(ctx, m, remoteFileID, tagIndex, sem); err != nil {
				errs = append(errs, FileError{Path: lp, Err: err})
			}
		case tagsync.RemoveRemote:
			if err := e.applyRemoveRemote(ctx, m, remoteFileID, tagIndex, sem); err != nil {
				errs = append(errs, FileError{Path: lp, Err: err})
			}
		case tagsync.AddLocal, tagsync.RemoveLocal:
			// Local convergence is handled above via a single Write of
			// result.NewLocal rather than per-tag, since the attribute
			// holds the whole set.
		}
	}

	return errs
}

func (e *Engine) applyAddRemote(ctx context.Context, m tagsync.AddRemote, fileID remotestore.FileID, idx *remotestore.TagIndex, sem *semaphore.Weighted) error {
	if e.cfg.DryRun {
		e.logger.Info("sync: would attach remote tag", "path", m.LogicalPath, "tag", m.Tag)
		return nil
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sem.Release(1)

	tagID, err := e.fence.ensure(ctx, e.remote, idx, m.Tag)
	if err != nil {
		return fmt.Errorf("syncengine: create tag %q: %w", m.Tag, err)
	}
	if err := e.remote.AttachTag(ctx, fileID, tagID); err != nil {
		return fmt.Errorf("syncengine: attach tag %q to file %s: %w", m.Tag, fileID, err)
	}
	return nil
}

func (e *Engine) applyRemoveRemote(ctx context.Context, m tagsync.RemoveRemote, fileID remotestore.FileID, idx *remotestore.TagIndex, sem *semaphore.Weighted) error {
	if e.cfg.DryRun {
		e.logger.Info("sync: would detach remote tag", "path", m.LogicalPath, "tag", m.Tag)
		return nil
	}
	tagID, ok := idx.Lookup(m.Tag)
	if !ok {
		// Tag no longer exists server-side; nothing to detach.
		return nil
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sem.Release(1)

	if err := e.remote.DetachTag(ctx, fileID, tagID); err != nil {
		return fmt.Errorf("syncengine: detach tag %q from file %s: %w", m.Tag, fileID, err)
	}
	return nil
}
