// Package snapshot persists the sync engine's record of what tags it
// last observed on each side, so that a later run can tell "added since
// last run" apart from "removed since last run" rather than falling back
// to a naive two-way overwrite.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/retry"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"
)

// CurrentVersion is the schema version written by Save. Load rejects
// documents with a newer version than it understands.
const CurrentVersion = 1

// Record is what the snapshot remembers about one logical path: the tag
// set last observed locally and the tag set last observed remotely.
type Record struct {
	Local  tagsync.TagSet `json:"local"`
	Remote tagsync.TagSet `json:"remote"`
}

// Document is the full persisted snapshot.
type Document struct {
	Version int                             `json:"version"`
	Files   map[tagsync.LogicalPath]Record `json:"files"`
}

// NewDocument returns an empty document at CurrentVersion.
func NewDocument() *Document {
	return &Document{Version: CurrentVersion, Files: map[tagsync.LogicalPath]Record{}}
}

var ErrUnsupportedVersion = errors.New("snapshot: unsupported schema version")

// Load reads and parses the snapshot document at path. A missing file is
// not an error: it returns a fresh, empty document, matching the
// first-run case where no prior snapshot exists yet.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDocument(), nil
		}
		return nil, retry.AsKind(retry.KindFatal, fmt.Errorf("snapshot: read %s: %w", path, err))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, retry.AsKind(retry.KindFatal, fmt.Errorf("snapshot: parse %s: %w", path, err))
	}
	if doc.Version > CurrentVersion {
		return nil, retry.AsKind(retry.KindFatal, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version))
	}
	if doc.Files == nil {
		doc.Files = map[tagsync.LogicalPath]Record{}
	}
	return &doc, nil
}

// Save writes doc to path atomically: it writes to a temp file in the
// same directory as path, fsyncs it, and renames it over path. A crash
// or power loss at any point leaves either the old snapshot or the new
// one intact, never a truncated or partially-written file.
func Save(path string, doc *Document) error {
	if doc.Version == 0 {
		doc.Version = CurrentVersion
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return retry.AsKind(retry.KindFatal, fmt.Errorf("snapshot: encode %s: %w", path, err))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return retry.AsKind(retry.KindFatal, fmt.Errorf("snapshot: ensure dir %s: %w", dir, err))
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return retry.AsKind(retry.KindFatal, fmt.Errorf("snapshot: create temp file in %s: %w", dir, err))
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return retry.AsKind(retry.KindFatal, fmt.Errorf("snapshot: write %s: %w", tmpPath, err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return retry.AsKind(retry.KindFatal, fmt.Errorf("snapshot: fsync %s: %w", tmpPath, err))
	}
	if err := tmp.Close(); err != nil {
		return retry.AsKind(retry.KindFatal, fmt.Errorf("snapshot: close %s: %w", tmpPath, err))
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return retry.AsKind(retry.KindFatal, fmt.Errorf("snapshot: rename %s to %s: %w", tmpPath, path, err))
	}
	return nil
}
