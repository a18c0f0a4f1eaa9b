package syncengine

import "github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"

// FileError records a per-file failure that did not abort the run.
type FileError struct {
	Path tagsync.LogicalPath
	Err  error
}

// RunResult summarizes one completed (or partially completed) run.
type RunResult struct {
	FilesSeen        int
	MutationsApplied int
	FileErrors       []FileError
	DryRun           bool
}

// OK reports whether the run completed without any per-file errors.
func (r *RunResult) OK() bool {
	return len(r.FileErrors) == 0
}
