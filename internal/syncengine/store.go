package syncengine

import (
	"context"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/localstore"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/remotestore"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"
)

// LocalStore is the subset of *localstore.Store the orchestrator needs.
// Tests supply an in-memory fake against the same interface.
type LocalStore interface {
	Read(path string) (tagsync.TagSet, error)
	Write(path string, set tagsync.TagSet) error
	Walk(ctx context.Context, root string) <-chan localstore.Entry
}

// RemoteStore is the subset of *remotestore.Client the orchestrator needs.
type RemoteStore interface {
	ListFiles(ctx context.Context, remotePrefix string) ([]remotestore.FileEntry, error)
	ListTags(ctx context.Context) (*remotestore.TagIndex, []string, error)
	FileTags(ctx context.Context, fileID remotestore.FileID) (tagsync.TagSet, []string, error)
	CreateTag(ctx context.Context, tag tagsync.Tag) (remotestore.TagID, error)
	AttachTag(ctx context.Context, fileID remotestore.FileID, tagID remotestore.TagID) error
	DetachTag(ctx context.Context, fileID remotestore.FileID, tagID remotestore.TagID) error
}
