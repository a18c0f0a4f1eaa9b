package syncengine

import (
	"context"
	"sync"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/remotestore"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"
)

// tagCreationFence guarantees at most one CreateTag call per tag name
// per run: concurrent goroutines that both need a missing tag's id
// block on the same sync.Once rather than racing to create it twice.
type tagCreationFence struct {
	mu       sync.Mutex
	inFlight map[tagsync.Tag]*tagCreation
}

type tagCreation struct {
	once sync.Once
	id   remotestore.TagID
	err  error
}

func newTagCreationFence() *tagCreationFence {
	return &tagCreationFence{inFlight: map[tagsync.Tag]*tagCreation{}}
}

// ensure returns the TagID for tag, creating it remotely exactly once if
// it isn't already in idx. A 409 from CreateTag (another process created
// it first) triggers a TagIndex rebuild-and-retry rather than an error.
func (f *tagCreationFence) ensure(ctx context.Context, remote RemoteStore, idx *remotestore.TagIndex, tag tagsync.Tag) (remotestore.TagID, error) {
	if id, ok := idx.Lookup(tag); ok {
		return id, nil
	}

	f.mu.Lock()
	entry, exists := f.inFlight[tag]
	if !exists {
		entry = &tagCreation{}
		f.inFlight[tag] = entry
	}
	f.mu.Unlock()

	entry.once.Do(func() {
		id, err := remote.CreateTag(ctx, tag)
		if err != nil {
			// Invalid display names are discarded here rather than logged:
			// this is a rare rebuild-and-retry path triggered by a 409
			// race, not the primary enumeration, and the same names are
			// already logged by the run's initial ListTags call.
			if rebuilt, _, rebuildErr := remote.ListTags(ctx); rebuildErr == nil {
				if existingID, ok := rebuilt.Lookup(tag); ok {
					idx.Put(tag, existingID)
					entry.id, entry.err = existingID, nil
					return
				}
			}
			entry.err = err
			return
		}
		idx.Put(tag, id)
		entry.id = id
	})

	return entry.id, entry.err
}
