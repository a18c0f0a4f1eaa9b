// Package localstore reads and writes the tag set stored in a file's
// extended attribute, and walks a directory tree enumerating every
// regular file's tags.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/xattr"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/retry"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"
)

var (
	ErrNotAFile             = errors.New("localstore: not a regular file")
	ErrAttributeUnsupported = errors.New("localstore: extended attributes unsupported on this filesystem")
)

// Store reads and writes tags on local files via a single named
// extended attribute.
type Store struct {
	AttrName string
}

func New(attrName string) *Store {
	return &Store{AttrName: attrName}
}

// Read returns the tag set stored on path. A file with no attribute set,
// or an attribute holding only whitespace, yields an empty TagSet rather
// than an error. Tag names that fail validation are dropped; Read itself
// has no channel for per-tag warnings, so callers that need them should
// use Walk, whose Entry carries the dropped names alongside the parsed set.
func (s *Store) Read(path string) (tagsync.TagSet, error) {
	set, _, err := s.readTagSet(path)
	return set, err
}

// readTagSet is Read's implementation, additionally returning the raw
// tag names that failed validation so Walk can surface them.
func (s *Store) readTagSet(path string) (tagsync.TagSet, []string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return tagsync.TagSet{}, nil, retry.AsKind(retry.KindPermanentForFile, fmt.Errorf("localstore: stat %s: %w", path, err))
	}
	if !info.Mode().IsRegular() {
		return tagsync.TagSet{}, nil, retry.AsKind(retry.KindPermanentForFile, fmt.Errorf("%w: %s", ErrNotAFile, path))
	}

	var raw []byte
	var notExist bool
	err = retry.Do(context.Background(), retry.Options{}, func(context.Context) error {
		notExist = false
		var getErr error
		raw, getErr = xattr.Get(path, s.AttrName)
		if getErr == nil {
			return nil
		}
		if isNotExist(getErr) {
			notExist = true
			return nil
		}
		if isUnsupported(getErr) {
			return retry.AsKind(retry.KindFatal, fmt.Errorf("%w: %s", ErrAttributeUnsupported, path))
		}
		return retry.AsKind(retry.KindTransient, fmt.Errorf("localstore: read attribute %s: %w", path, getErr))
	})
	if err != nil {
		return tagsync.TagSet{}, nil, err
	}
	if notExist {
		return tagsync.NewTagSet(), nil, nil
	}

	set, invalid := tagsync.ParseTagSet(string(raw))
	return set, invalid, nil
}

// Write replaces path's tag attribute with set's wire form. An empty set
// removes the attribute entirely rather than writing an empty string,
// matching the contract that absence and emptiness are equivalent.
func (s *Store) Write(path string, set tagsync.TagSet) error {
	info, err := os.Lstat(path)
	if err != nil {
		return retry.AsKind(retry.KindPermanentForFile, fmt.Errorf("localstore: stat %s: %w", path, err))
	}
	if !info.Mode().IsRegular() {
		return retry.AsKind(retry.KindPermanentForFile, fmt.Errorf("%w: %s", ErrNotAFile, path))
	}

	if set.Len() == 0 {
		return retry.Do(context.Background(), retry.Options{}, func(context.Context) error {
			if err := xattr.Remove(path, s.AttrName); err != nil && !isNotExist(err) {
				return retry.AsKind(retry.KindTransient, fmt.Errorf("localstore: remove attribute %s: %w", path, err))
			}
			return nil
		})
	}

	return retry.Do(context.Background(), retry.Options{}, func(context.Context) error {
		if err := xattr.Set(path, s.AttrName, []byte(set.String())); err != nil {
			if isUnsupported(err) {
				return retry.AsKind(retry.KindFatal, fmt.Errorf("%w: %s", ErrAttributeUnsupported, path))
			}
			return retry.AsKind(retry.KindTransient, fmt.Errorf("localstore: write attribute %s: %w", path, err))
		}
		return nil
	})
}

// Entry is one regular file discovered by Walk, together with its
// current tag set. Invalid holds any attribute values that failed tag
// validation and were dropped from Tags, for callers that want to warn
// about them.
type Entry struct {
	AbsPath string
	Tags    tagsync.TagSet
	Invalid []string
	Err     error
}

// Walk enumerates every regular file under root, skipping symlinks and
// directories, and streams the result on the returned channel. The
// channel is closed when the walk completes or ctx is cancelled.
func (s *Store) Walk(ctx context.Context, root string) <-chan Entry {
	out := make(chan Entry)

	go func() {
		defer close(out)

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				select {
				case out <- Entry{AbsPath: path, Err: err}:
				case <-ctx.Done():
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			tags, invalid, readErr := s.readTagSet(path)
			entry := Entry{AbsPath: path, Tags: tags, Invalid: invalid, Err: readErr}
			select {
			case out <- entry:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
			select {
			case out <- Entry{AbsPath: root, Err: fmt.Errorf("localstore: walk %s: %w", root, walkErr)}:
			case <-ctx.Done():
			}
		}
	}()

	return out
}

func isNotExist(err error) bool {
	return errors.Is(err, xattr.ENOATTR) || os.IsNotExist(err)
}

func isUnsupported(err error) bool {
	return errors.Is(err, syscall.ENOTSUP) || errors.Is(err, syscall.EOPNOTSUPP)
}
