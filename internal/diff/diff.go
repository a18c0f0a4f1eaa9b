// Package diff computes, for a single logical path, the mutations
// needed to converge the local and remote tag sets given the last
// observed (snapshot) state, and the initial-sync conflict policy used
// when no snapshot entry exists yet.
package diff

import (
	"fmt"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/snapshot"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"
)

// ConflictPolicy governs which side wins when a file has no snapshot
// entry yet (first time either side is seen with tags).
type ConflictPolicy int

const (
	PolicyBoth ConflictPolicy = iota
	PolicyLeft
	PolicyRight
)

func (p ConflictPolicy) String() string {
	switch p {
	case PolicyBoth:
		return "Both"
	case PolicyLeft:
		return "Left"
	case PolicyRight:
		return "Right"
	default:
		return "Unknown"
	}
}

// ParseConflictPolicy parses the `keep_side_on_conflict` configuration value.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch s {
	case "Both", "":
		return PolicyBoth, nil
	case "Left":
		return PolicyLeft, nil
	case "Right":
		return PolicyRight, nil
	default:
		return 0, fmt.Errorf("diff: unknown conflict policy %q", s)
	}
}

// Sides holds the current observed state of a file's tags on each side.
// A side that doesn't currently exist carries Present=false and an
// empty TagSet.
type Sides struct {
	LocalPresent  bool
	LocalTags     tagsync.TagSet
	RemotePresent bool
	RemoteTags    tagsync.TagSet
}

// Result is the outcome of Compute for one logical path: the mutations
// to apply, and the new snapshot values to record once they succeed.
type Result struct {
	Mutations []tagsync.Mutation
	NewLocal  tagsync.TagSet
	NewRemote tagsync.TagSet
}

// Compute determines the mutation set and new snapshot record for a
// single logical path given its last-known snapshot entry (nil if none
// exists), its current state on both sides, and the policy to apply
// when there is no snapshot entry to resolve against.
func Compute(path tagsync.LogicalPath, snap *snapshot.Record, sides Sides, policy ConflictPolicy) Result {
	if !sides.LocalPresent || !sides.RemotePresent {
		return oneSidedResult(sides)
	}

	if snap == nil {
		return initialSyncResult(path, sides, policy)
	}

	return threeWayResult(path, *snap, sides)
}

// oneSidedResult implements "file exists on one side only: no tag
// mutations; the snapshot records only that side."
func oneSidedResult(sides Sides) Result {
	result := Result{NewLocal: tagsync.NewTagSet(), NewRemote: tagsync.NewTagSet()}
	if sides.LocalPresent {
		result.NewLocal = sides.LocalTags
	}
	if sides.RemotePresent {
		result.NewRemote = sides.RemoteTags
	}
	return result
}

func initialSyncResult(path tagsync.LogicalPath, sides Sides, policy ConflictPolicy) Result {
	local, remote := sides.LocalTags, sides.RemoteTags

	switch policy {
	case PolicyLeft:
		return targetedResult(path, local, remote, local)
	case PolicyRight:
		return targetedResult(path, local, remote, remote)
	default: // PolicyBoth
		union := local.Union(remote)
		return targetedResult(path, local, remote, union)
	}
}

// targetedResult emits the adds/removes on each side needed to bring
// local and remote to exactly target, and records target on both sides
// of the new snapshot entry.
func targetedResult(path tagsync.LogicalPath, local, remote, target tagsync.TagSet) Result {
	var mutations []tagsync.Mutation

	for _, t := range target.Sorted() {
		if !local.Contains(t) {
			mutations = append(mutations, tagsync.AddLocal{LogicalPath: path, Tag: t})
		}
		if !remote.Contains(t) {
			mutations = append(mutations, tagsync.AddRemote{LogicalPath: path, Tag: t})
		}
	}
	for _, t := range local.Sorted() {
		if !target.Contains(t) {
			mutations = append(mutations, tagsync.RemoveLocal{LogicalPath: path, Tag: t})
		}
	}
	for _, t := range remote.Sorted() {
		if !target.Contains(t) {
			mutations = append(mutations, tagsync.RemoveRemote{LogicalPath: path, Tag: t})
		}
	}

	return Result{Mutations: mutations, NewLocal: target, NewRemote: target}
}

// threeWayResult implements the normal three-way policy: for each
// tag, only the snapshot value of the side where the tag currently
// exists is consulted — if that side already had it, the tag vanished
// from the other side and the removal propagates; if that side didn't
// have it before, the tag is new there and the addition propagates.
// Consulting only the present side's own history is what makes the
// "removed on one side, added on the other" conflict self-resolve
// towards the tag ending up present on both, without special-casing it.
func threeWayResult(path tagsync.LogicalPath, snap snapshot.Record, sides Sides) Result {
	allTags := map[tagsync.Tag]struct{}{}
	for _, t := range snap.Local.Sorted() {
		allTags[t] = struct{}{}
	}
	for _, t := range snap.Remote.Sorted() {
		allTags[t] = struct{}{}
	}
	for _, t := range sides.LocalTags.Sorted() {
		allTags[t] = struct{}{}
	}
	for _, t := range sides.RemoteTags.Sorted() {
		allTags[t] = struct{}{}
	}

	var mutations []tagsync.Mutation
	newLocal := tagsync.NewTagSet()
	newRemote := tagsync.NewTagSet()

	for _, t := range sortTags(allTags) {
		l0 := snap.Local.Contains(t)
		r0 := snap.Remote.Contains(t)
		l1 := sides.LocalTags.Contains(t)
		r1 := sides.RemoteTags.Contains(t)

		switch {
		case l1 && r1:
			newLocal = newLocal.With(t)
			newRemote = newRemote.With(t)
		case !l1 && !r1:
			// absent on both: drop from the snapshot, no mutation.
		case l1 && !r1:
			if l0 {
				mutations = append(mutations, tagsync.RemoveLocal{LogicalPath: path, Tag: t})
			} else {
				mutations = append(mutations, tagsync.AddRemote{LogicalPath: path, Tag: t})
				newLocal = newLocal.With(t)
				newRemote = newRemote.With(t)
			}
		case !l1 && r1:
			if r0 {
				mutations = append(mutations, tagsync.RemoveRemote{LogicalPath: path, Tag: t})
			} else {
				mutations = append(mutations, tagsync.AddLocal{LogicalPath: path, Tag: t})
				newLocal = newLocal.With(t)
				newRemote = newRemote.With(t)
			}
		}
	}

	return Result{Mutations: mutations, NewLocal: newLocal, NewRemote: newRemote}
}

func sortTags(set map[tagsync.Tag]struct{}) []tagsync.Tag {
	tags := make([]tagsync.Tag, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	return tagsync.NewTagSet(tags...).Sorted()
}
