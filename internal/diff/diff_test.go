package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/snapshot"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"
)

func tags(t *testing.T, names ...string) tagsync.TagSet {
	t.Helper()
	out := make([]tagsync.Tag, 0, len(names))
	for _, n := range names {
		tag, err := tagsync.NewTag(n)
		require.NoError(t, err)
		out = append(out, tag)
	}
	return tagsync.NewTagSet(out...)
}

const path = tagsync.LogicalPath("file.txt")

func TestComputeScenario1FreshAddOnLocal(t *testing.T) {
	snap := &snapshot.Record{Local: tags(t, "a"), Remote: tags(t, "a")}
	sides := Sides{LocalPresent: true, LocalTags: tags(t, "a", "b"), RemotePresent: true, RemoteTags: tags(t, "a")}

	res := Compute(path, snap, sides, PolicyBoth)

	require.Len(t, res.Mutations, 1)
	assert.Equal(t, tagsync.AddRemote{LogicalPath: path, Tag: "b"}, res.Mutations[0])
	assert.True(t, res.NewLocal.Equal(tags(t, "a", "b")))
	assert.True(t, res.NewRemote.Equal(tags(t, "a", "b")))
}

func TestComputeScenario2RemoteRemoval(t *testing.T) {
	snap := &snapshot.Record{Local: tags(t, "a", "b"), Remote: tags(t, "a", "b")}
	sides := Sides{LocalPresent: true, LocalTags: tags(t, "a", "b"), RemotePresent: true, RemoteTags: tags(t, "a")}

	res := Compute(path, snap, sides, PolicyBoth)

	require.Len(t, res.Mutations, 1)
	assert.Equal(t, tagsync.RemoveLocal{LogicalPath: path, Tag: "b"}, res.Mutations[0])
	assert.True(t, res.NewLocal.Equal(tags(t, "a")))
	assert.True(t, res.NewRemote.Equal(tags(t, "a")))
}

func TestComputeScenario3ConcurrentDivergentEdits(t *testing.T) {
	snap := &snapshot.Record{Local: tags(t, "a"), Remote: tags(t, "a")}
	sides := Sides{LocalPresent: true, LocalTags: tags(t, "a", "b"), RemotePresent: true, RemoteTags: tags(t, "a", "c")}

	res := Compute(path, snap, sides, PolicyBoth)

	assert.ElementsMatch(t, []tagsync.Mutation{
		tagsync.AddRemote{LogicalPath: path, Tag: "b"},
		tagsync.AddLocal{LogicalPath: path, Tag: "c"},
	}, res.Mutations)
	assert.True(t, res.NewLocal.Equal(tags(t, "a", "b", "c")))
	assert.True(t, res.NewRemote.Equal(tags(t, "a", "b", "c")))
}

func TestComputeScenario4ConflictCancelNoSnapshot(t *testing.T) {
	sides := Sides{LocalPresent: true, LocalTags: tags(t, "x"), RemotePresent: true, RemoteTags: tags(t, "x")}

	res := Compute(path, nil, sides, PolicyBoth)

	assert.Empty(t, res.Mutations)
	assert.True(t, res.NewLocal.Equal(tags(t, "x")))
	assert.True(t, res.NewRemote.Equal(tags(t, "x")))
}

func TestComputeScenario5InitialSyncLeftPolicy(t *testing.T) {
	sides := Sides{LocalPresent: true, LocalTags: tags(t, "a", "b"), RemotePresent: true, RemoteTags: tags(t, "c")}

	res := Compute(path, nil, sides, PolicyLeft)

	assert.ElementsMatch(t, []tagsync.Mutation{
		tagsync.RemoveRemote{LogicalPath: path, Tag: "c"},
		tagsync.AddRemote{LogicalPath: path, Tag: "a"},
		tagsync.AddRemote{LogicalPath: path, Tag: "b"},
	}, res.Mutations)
	assert.True(t, res.NewLocal.Equal(tags(t, "a", "b")))
	assert.True(t, res.NewRemote.Equal(tags(t, "a", "b")))
}

func TestComputeInitialSyncRightPolicy(t *testing.T) {
	sides := Sides{LocalPresent: true, LocalTags: tags(t, "a", "b"), RemotePresent: true, RemoteTags: tags(t, "c")}

	res := Compute(path, nil, sides, PolicyRight)

	assert.ElementsMatch(t, []tagsync.Mutation{
		tagsync.RemoveLocal{LogicalPath: path, Tag: "a"},
		tagsync.RemoveLocal{LogicalPath: path, Tag: "b"},
		tagsync.AddLocal{LogicalPath: path, Tag: "c"},
	}, res.Mutations)
	assert.True(t, res.NewLocal.Equal(tags(t, "c")))
	assert.True(t, res.NewRemote.Equal(tags(t, "c")))
}

func TestComputeOneSidedFileNoMutations(t *testing.T) {
	sides := Sides{LocalPresent: true, LocalTags: tags(t, "a"), RemotePresent: false}

	res := Compute(path, &snapshot.Record{}, sides, PolicyBoth)

	assert.Empty(t, res.Mutations)
	assert.True(t, res.NewLocal.Equal(tags(t, "a")))
	assert.Equal(t, 0, res.NewRemote.Len())
}

func TestComputeIdempotentOnSecondRun(t *testing.T) {
	snap := &snapshot.Record{Local: tags(t, "a"), Remote: tags(t, "a")}
	sides := Sides{LocalPresent: true, LocalTags: tags(t, "a", "b"), RemotePresent: true, RemoteTags: tags(t, "a")}

	first := Compute(path, snap, sides, PolicyBoth)
	require.NotEmpty(t, first.Mutations)

	converged := &snapshot.Record{Local: first.NewLocal, Remote: first.NewRemote}
	convergedSides := Sides{LocalPresent: true, LocalTags: first.NewLocal, RemotePresent: true, RemoteTags: first.NewRemote}

	second := Compute(path, converged, convergedSides, PolicyBoth)
	assert.Empty(t, second.Mutations)
}

func TestComputeNoOpWhenAllAgree(t *testing.T) {
	snap := &snapshot.Record{Local: tags(t, "a", "b"), Remote: tags(t, "a", "b")}
	sides := Sides{LocalPresent: true, LocalTags: tags(t, "a", "b"), RemotePresent: true, RemoteTags: tags(t, "a", "b")}

	res := Compute(path, snap, sides, PolicyBoth)
	assert.Empty(t, res.Mutations)
}

func TestParseConflictPolicy(t *testing.T) {
	p, err := ParseConflictPolicy("Left")
	require.NoError(t, err)
	assert.Equal(t, PolicyLeft, p)

	_, err = ParseConflictPolicy("Sideways")
	assert.Error(t, err)
}
