package syncengine

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/diff"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/remotestore"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/snapshot"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"
)

// snapshotKey namespaces a LogicalPath by the prefix pair it belongs
// to, since two different pairs can legitimately share the same
// relative path (e.g. "notes.txt" under two unrelated directories) and
// the snapshot document is a single flat map.
func snapshotKey(pair tagsync.PrefixPair, lp tagsync.LogicalPath) tagsync.LogicalPath {
	return tagsync.LogicalPath(pair.Local + "\x00" + string(lp))
}

// syncPair enumerates both sides of pair, diffs each file found on
// either side against oldDoc, applies the resulting mutations, and
// records the new per-file state into newDoc.
func (e *Engine) syncPair(
	ctx context.Context,
	pair tagsync.PrefixPair,
	oldDoc, newDoc *snapshot.Document,
	tagIndex *remotestore.TagIndex,
	sem *semaphore.Weighted,
	result *RunResult,
) {
	var localEntries map[tagsync.LogicalPath]tagsync.TagSet
	var remoteEntries map[tagsync.LogicalPath]remoteFile
	var localErrs, remoteErrs []FileError

	done := make(chan struct{})
	go func() {
		localEntries, localErrs = e.enumerateLocal(ctx, pair)
		close(done)
	}()
	remoteEntries, remoteErrs = e.enumerateRemote(ctx, pair, sem)
	<-done

	result.FileErrors = append(result.FileErrors, localErrs...)
	result.FileErrors = append(result.FileErrors, remoteErrs...)

	seen := map[tagsync.LogicalPath]struct{}{}
	for lp := range localEntries {
		seen[lp] = struct{}{}
	}
	for lp := range remoteEntries {
		seen[lp] = struct{}{}
	}

	for lp := range seen {
		localTags, localPresent := localEntries[lp]
		remoteInfo, remotePresent := remoteEntries[lp]

		sides := diff.Sides{
			LocalPresent:  localPresent,
			LocalTags:     localTags,
			RemotePresent: remotePresent,
			RemoteTags:    remoteInfo.Tags,
		}

		key := snapshotKey(pair, lp)
		var snapRecord *snapshot.Record
		if rec, ok := oldDoc.Files[key]; ok {
			snapRecord = &rec
		}

		diffResult := diff.Compute(lp, snapRecord, sides, e.policy)

		applyErrs := e.applyResult(ctx, pair, lp, sides, diffResult, remoteInfo.FileID, tagIndex, sem)
		result.FileErrors = append(result.FileErrors, applyErrs...)
		result.MutationsApplied += len(diffResult.Mutations) - len(applyErrs)
		result.FilesSeen++

		if len(applyErrs) > 0 {
			// A mutation failed partway through: recording the fully
			// converged target state here would be fictitious — the next
			// run's three-way diff would see tags as already settled that
			// were never actually applied. Keep whatever was true before
			// this run instead, and let the next run retry from there.
			if snapRecord != nil {
				newDoc.Files[key] = *snapRecord
			}
			continue
		}

		newDoc.Files[key] = snapshot.Record{Local: diffResult.NewLocal, Remote: diffResult.NewRemote}
	}
}
