package remotestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"
)

func mustTagFor(t *testing.T, name string) tagsync.Tag {
	t.Helper()
	tag, err := tagsync.NewTag(name)
	require.NoError(t, err)
	return tag
}

func TestTagIndexPutThenLookupIsBijective(t *testing.T) {
	idx := NewTagIndex()
	photos := mustTagFor(t, "photos")

	idx.Put(photos, TagID(7))

	id, ok := idx.Lookup(photos)
	require.True(t, ok)
	assert.Equal(t, TagID(7), id)

	tag, ok := idx.Tag(TagID(7))
	require.True(t, ok)
	assert.Equal(t, photos, tag)

	assert.Equal(t, 1, idx.Len())
}

func TestTagIndexLookupMissingTagReturnsFalse(t *testing.T) {
	idx := NewTagIndex()

	_, ok := idx.Lookup(mustTagFor(t, "unseen"))
	assert.False(t, ok)

	_, ok = idx.Tag(TagID(99))
	assert.False(t, ok)
}

func TestTagIndexReplaceDiscardsPriorEntries(t *testing.T) {
	idx := NewTagIndex()
	idx.Put(mustTagFor(t, "stale"), TagID(1))

	archive := mustTagFor(t, "archive")
	idx.Replace(map[tagsync.Tag]TagID{archive: TagID(2)})

	assert.Equal(t, 1, idx.Len())
	_, ok := idx.Lookup(mustTagFor(t, "stale"))
	assert.False(t, ok)

	id, ok := idx.Lookup(archive)
	require.True(t, ok)
	assert.Equal(t, TagID(2), id)
}

func TestTagIndexPutOverwritesExistingID(t *testing.T) {
	idx := NewTagIndex()
	reviewed := mustTagFor(t, "reviewed")

	idx.Put(reviewed, TagID(1))
	idx.Put(reviewed, TagID(2))

	id, ok := idx.Lookup(reviewed)
	require.True(t, ok)
	assert.Equal(t, TagID(2), id)
	assert.Equal(t, 1, idx.Len())
}

func TestTagIDAndFileIDStringFormatting(t *testing.T) {
	assert.Equal(t, "42", TagID(42).String())
	assert.Equal(t, "0", FileID(0).String())
}
