package syncengine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/remotestore"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"
)

// remoteFile is what enumerateRemote knows about one file: its
// Nextcloud file id (needed to attach/detach tags) and its current tags.
type remoteFile struct {
	FileID remotestore.FileID
	Tags   tagsync.TagSet
}

// enumerateLocal walks pair.Local and returns the tag set observed on
// each file, keyed by LogicalPath. Read failures become FileErrors
// rather than aborting the walk.
func (e *Engine) enumerateLocal(ctx context.Context, pair tagsync.PrefixPair) (map[tagsync.LogicalPath]tagsync.TagSet, []FileError) {
	entries := map[tagsync.LogicalPath]tagsync.TagSet{}
	var errs []FileError

	for entry := range e.local.Walk(ctx, pair.Local) {
		lp, mapErr := e.mapper.ToLogicalFromLocal(entry.AbsPath)
		if mapErr != nil {
			errs = append(errs, FileError{Err: fmt.Errorf("syncengine: %w", mapErr)})
			continue
		}
		if entry.Err != nil {
			errs = append(errs, FileError{Path: lp, Err: entry.Err})
			continue
		}
		if len(entry.Invalid) > 0 {
			e.logger.Warn("sync: dropped invalid local tag name(s)", "path", entry.AbsPath, "names", entry.Invalid)
		}
		entries[lp] = entry.Tags
	}
	return entries, errs
}

// enumerateRemote lists every file under pair.Remote, then fetches each
// file's current tags with concurrency bounded by sem.
func (e *Engine) enumerateRemote(ctx context.Context, pair tagsync.PrefixPair, sem *semaphore.Weighted) (map[tagsync.LogicalPath]remoteFile, []FileError) {
	entries := map[tagsync.LogicalPath]remoteFile{}

	files, err := e.remote.ListFiles(ctx, pair.Remote)
	if err != nil {
		return entries, []FileError{{Err: fmt.Errorf("syncengine: list remote files under %s: %w", pair.Remote, err)}}
	}

	var mu sync.Mutex
	var errs []FileError

	group, groupCtx := errgroup.WithContext(ctx)
	for _, f := range files {
		f := f
		if err := sem.Acquire(groupCtx, 1); err != nil {
			break
		}
		group.Go(func() error {
			defer sem.Release(1)

			lp, mapErr := e.mapper.ToLogicalFromRemote(f.RemotePath)
			if mapErr != nil {
				mu.Lock()
				errs = append(errs, FileError{Err: fmt.Errorf("syncengine: %w", mapErr)})
				mu.Unlock()
				return nil
			}
			tags, invalid, tagErr := e.remote.FileTags(groupCtx, f.FileID)
			mu.Lock()
			defer mu.Unlock()
			if tagErr != nil {
				errs = append(errs, FileError{Path: lp, Err: tagErr})
				return nil
			}
			if len(invalid) > 0 {
				e.logger.Warn("sync: dropped invalid remote tag name(s)", "path", f.RemotePath, "names", invalid)
			}
			entries[lp] = remoteFile{FileID: f.FileID, Tags: tags}
			return nil
		})
	}
	_ = group.Wait()

	return entries, errs
}
