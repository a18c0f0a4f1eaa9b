package remotestore

import (
	"fmt"
	"sync"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"
)

// TagID is a Nextcloud system tag's opaque numeric identifier.
type TagID uint64

// FileID is a Nextcloud file's opaque numeric identifier, exposed by
// WebDAV as the `{http://owncloud.org/ns}id`/`fileid` property.
type FileID uint64

func (id TagID) String() string  { return fmt.Sprintf("%d", uint64(id)) }
func (id FileID) String() string { return fmt.Sprintf("%d", uint64(id)) }

// TagIndex is the bijective, concurrency-safe cache of Tag <-> TagID
// built at the start of a run and augmented as CreateTag succeeds.
type TagIndex struct {
	mu    sync.RWMutex
	byTag map[tagsync.Tag]TagID
	byID  map[TagID]tagsync.Tag
}

func NewTagIndex() *TagIndex {
	return &TagIndex{byTag: map[tagsync.Tag]TagID{}, byID: map[TagID]tagsync.Tag{}}
}

// Put records a single tag/id mapping, used after CreateTag succeeds so
// later lookups in the same run see it without a full rebuild.
func (idx *TagIndex) Put(tag tagsync.Tag, id TagID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byTag[tag] = id
	idx.byID[id] = tag
}

// Replace atomically swaps the index contents, used after a rebuild.
func (idx *TagIndex) Replace(byTag map[tagsync.Tag]TagID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byTag = make(map[tagsync.Tag]TagID, len(byTag))
	idx.byID = make(map[TagID]tagsync.Tag, len(byTag))
	for tag, id := range byTag {
		idx.byTag[tag] = id
		idx.byID[id] = tag
	}
}

// Lookup returns the TagID for tag, if known to the index.
func (idx *TagIndex) Lookup(tag tagsync.Tag) (TagID, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	id, ok := idx.byTag[tag]
	return id, ok
}

// Tag returns the Tag for id, if known to the index.
func (idx *TagIndex) Tag(id TagID) (tagsync.Tag, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	tag, ok := idx.byID[id]
	return tag, ok
}

// Len returns the number of tags currently indexed.
func (idx *TagIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byTag)
}
