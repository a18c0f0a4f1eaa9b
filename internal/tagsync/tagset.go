package tagsync

import (
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// TagSet is an unordered collection of distinct Tags.
type TagSet struct {
	tags map[Tag]struct{}
}

// NewTagSet returns a TagSet containing the given tags, deduplicated.
func NewTagSet(tags ...Tag) TagSet {
	s := TagSet{tags: make(map[Tag]struct{}, len(tags))}
	for _, t := range tags {
		s.tags[t] = struct{}{}
	}
	return s
}

// ParseTagSet splits a comma-separated attribute value into a TagSet,
// trimming surrounding whitespace from each element and silently
// dropping empty elements. Elements that fail tag validation are
// returned in invalid, in encounter order, and are excluded from the set.
func ParseTagSet(raw string) (set TagSet, invalid []string) {
	set = NewTagSet()
	if strings.TrimSpace(raw) == "" {
		return set, nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tag, err := NewTag(part)
		if err != nil {
			invalid = append(invalid, part)
			continue
		}
		set.tags[tag] = struct{}{}
	}
	return set, invalid
}

// Len returns the number of tags in the set.
func (s TagSet) Len() int {
	return len(s.tags)
}

// Contains reports whether t is present in the set.
func (s TagSet) Contains(t Tag) bool {
	_, ok := s.tags[t]
	return ok
}

// Sorted returns the set's tags in ascending lexical order.
func (s TagSet) Sorted() []Tag {
	out := make([]Tag, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders the set as a comma-separated, sorted list, matching the
// wire form stored in the local extended attribute.
func (s TagSet) String() string {
	sorted := s.Sorted()
	parts := make([]string, len(sorted))
	for i, t := range sorted {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// With returns a new TagSet with t added.
func (s TagSet) With(t Tag) TagSet {
	out := NewTagSet(s.Sorted()...)
	out.tags[t] = struct{}{}
	return out
}

// Without returns a new TagSet with t removed.
func (s TagSet) Without(t Tag) TagSet {
	out := NewTagSet(s.Sorted()...)
	delete(out.tags, t)
	return out
}

// Union returns the set of tags present in either s or other.
func (s TagSet) Union(other TagSet) TagSet {
	out := NewTagSet(s.Sorted()...)
	for t := range other.tags {
		out.tags[t] = struct{}{}
	}
	return out
}

// Diff computes the three-way difference between s (left) and other
// (right): Identical holds tags in both, LeftOnly holds tags only in s,
// RightOnly holds tags only in other.
type SetDiff struct {
	Identical TagSet
	LeftOnly  TagSet
	RightOnly TagSet
}

func (s TagSet) Diff(other TagSet) SetDiff {
	identical := NewTagSet()
	leftOnly := NewTagSet()
	rightOnly := NewTagSet()

	for t := range s.tags {
		if other.Contains(t) {
			identical.tags[t] = struct{}{}
		} else {
			leftOnly.tags[t] = struct{}{}
		}
	}
	for t := range other.tags {
		if !s.Contains(t) {
			rightOnly.tags[t] = struct{}{}
		}
	}

	return SetDiff{Identical: identical, LeftOnly: leftOnly, RightOnly: rightOnly}
}

// MarshalJSON renders the set as a sorted JSON array of tag names, so
// snapshot documents diff cleanly under source control and between runs.
func (s TagSet) MarshalJSON() ([]byte, error) {
	sorted := s.Sorted()
	names := make([]string, len(sorted))
	for i, t := range sorted {
		names[i] = string(t)
	}
	return json.Marshal(names)
}

// UnmarshalJSON restores a TagSet from the array form written by
// MarshalJSON. Entries failing tag validation are silently dropped: a
// hand-edited or corrupted snapshot should degrade, not abort loading.
func (s *TagSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	set := NewTagSet()
	for _, name := range names {
		if tag, err := NewTag(name); err == nil {
			set.tags[tag] = struct{}{}
		}
	}
	*s = set
	return nil
}

// Equal reports whether s and other contain exactly the same tags.
func (s TagSet) Equal(other TagSet) bool {
	if len(s.tags) != len(other.tags) {
		return false
	}
	for t := range s.tags {
		if !other.Contains(t) {
			return false
		}
	}
	return true
}
