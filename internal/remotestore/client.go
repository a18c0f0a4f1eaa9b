// Package remotestore speaks WebDAV and the Nextcloud systemtags API to
// read and write the remote half of a file's tag set.
package remotestore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/retry"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/tagsync"
)

const (
	systemTagsPath          = "/remote.php/dav/systemtags"
	systemTagsRelationsPath = "/remote.php/dav/systemtags-relations/files"
)

// Client is a WebDAV/systemtags client bound to one Nextcloud instance
// and one user's credentials.
type Client struct {
	http *req.Client
}

// New builds a Client against instanceURL, authenticating with HTTP
// Basic auth using user/token. requestTimeout bounds each individual
// HTTP call.
func New(instanceURL, user, token string, requestTimeout time.Duration) *Client {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	http := req.C().
		SetBaseURL(strings.TrimRight(instanceURL, "/")).
		SetCommonBasicAuth(user, token).
		SetTimeout(requestTimeout).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal)

	return &Client{http: http}
}

// FileEntry is one non-collection resource discovered by ListFiles.
type FileEntry struct {
	RemotePath string
	FileID     FileID
}

// EncodePath percent-encodes each segment of a remote path per RFC 3986
// path-segment rules, preserving the slashes between segments.
func EncodePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// ListFiles issues a PROPFIND with Depth: infinity at remotePrefix and
// returns every non-collection resource beneath it, percent-decoded.
func (c *Client) ListFiles(ctx context.Context, remotePrefix string) ([]FileEntry, error) {
	var resp *req.Response
	err := retry.Do(ctx, retry.Options{}, func(ctx context.Context) error {
		var requestErr error
		resp, requestErr = c.http.R().
			SetContext(ctx).
			SetHeader("Depth", "infinity").
			SetHeader("Content-Type", "application/xml; charset=utf-8").
			SetBody(propfindFiles).
			Send("PROPFIND", EncodePath(remotePrefix))
		return classifyResponse(resp, requestErr, "list files")
	})
	if err != nil {
		return nil, err
	}

	ms, err := parseMultistatus(resp.Bytes())
	if err != nil {
		return nil, retry.AsKind(retry.KindFatal, fmt.Errorf("remotestore: parse PROPFIND response: %w", err))
	}

	entries := make([]FileEntry, 0, len(ms.Responses))
	for _, r := range ms.Responses {
		prop, ok := r.firstSuccess()
		if !ok || prop.isCollection() {
			continue
		}

		idStr := prop.FileID
		if idStr == "" {
			idStr = prop.OCID
		}
		id, err := parseFileID(idStr)
		if err != nil {
			continue
		}

		decoded, err := url.PathUnescape(r.Href)
		if err != nil {
			decoded = r.Href
		}
		entries = append(entries, FileEntry{RemotePath: decoded, FileID: id})
	}
	return entries, nil
}

// ListTags rebuilds the TagIndex from the server's system tag list,
// keeping only tags that are both user-visible and user-assignable.
// Display names that fail tag validation are skipped and returned in
// the second value instead of being silently dropped.
func (c *Client) ListTags(ctx context.Context) (*TagIndex, []string, error) {
	var resp *req.Response
	err := retry.Do(ctx, retry.Options{}, func(ctx context.Context) error {
		var requestErr error
		resp, requestErr = c.http.R().
			SetContext(ctx).
			SetHeader("Depth", "1").
			SetHeader("Content-Type", "application/xml; charset=utf-8").
			SetBody(propfindSystemTags).
			Send("PROPFIND", systemTagsPath)
		return classifyResponse(resp, requestErr, "list system tags")
	})
	if err != nil {
		return nil, nil, err
	}

	ms, err := parseMultistatus(resp.Bytes())
	if err != nil {
		return nil, nil, retry.AsKind(retry.KindFatal, fmt.Errorf("remotestore: parse PROPFIND response: %w", err))
	}

	byTag := map[tagsync.Tag]TagID{}
	var invalid []string
	for _, r := range ms.Responses {
		prop, ok := r.firstSuccess()
		if !ok || prop.DisplayName == "" {
			continue
		}
		if !isTrue(prop.UserVisible) || !isTrue(prop.UserAssignable) {
			continue
		}

		id, err := parseTagIDFromHref(r.Href)
		if err != nil {
			continue
		}
		tag, err := tagsync.NewTag(prop.DisplayName)
		if err != nil {
			invalid = append(invalid, prop.DisplayName)
			continue
		}
		byTag[tag] = id
	}

	idx := NewTagIndex()
	idx.Replace(byTag)
	return idx, invalid, nil
}

// FileTags returns the tags currently attached to fileID. Display names
// that fail tag validation are skipped and returned in the second value
// instead of being silently dropped.
func (c *Client) FileTags(ctx context.Context, fileID FileID) (tagsync.TagSet, []string, error) {
	target := fmt.Sprintf("%s/%s", systemTagsRelationsPath, fileID)

	var resp *req.Response
	err := retry.Do(ctx, retry.Options{}, func(ctx context.Context) error {
		var requestErr error
		resp, requestErr = c.http.R().
			SetContext(ctx).
			SetHeader("Depth", "1").
			SetHeader("Content-Type", "application/xml; charset=utf-8").
			SetBody(propfindFileTags).
			Send("PROPFIND", target)
		return classifyResponse(resp, requestErr, "list file tags")
	})
	if err != nil {
		return tagsync.TagSet{}, nil, err
	}

	ms, err := parseMultistatus(resp.Bytes())
	if err != nil {
		return tagsync.TagSet{}, nil, retry.AsKind(retry.KindFatal, fmt.Errorf("remotestore: parse PROPFIND response: %w", err))
	}

	var tags []tagsync.Tag
	var invalid []string
	for _, r := range ms.Responses {
		prop, ok := r.firstSuccess()
		if !ok || prop.DisplayName == "" {
			continue
		}
		tag, err := tagsync.NewTag(prop.DisplayName)
		if err != nil {
			invalid = append(invalid, prop.DisplayName)
			continue
		}
		tags = append(tags, tag)
	}
	return tagsync.NewTagSet(tags...), invalid, nil
}

type createTagRequest struct {
	Name           string `json:"name"`
	UserVisible    bool   `json:"userVisible"`
	UserAssignable bool   `json:"userAssignable"`
	CanAssign      bool   `json:"canAssign"`
}

// CreateTag creates a new system tag, validating the name locally
// before any network round trip. On a 409 (already exists), the caller
// is expected to rebuild the TagIndex via ListTags and retry the lookup
// rather than treat this as an error.
func (c *Client) CreateTag(ctx context.Context, tag tagsync.Tag) (TagID, error) {
	if _, err := tagsync.NewTag(tag.String()); err != nil {
		return 0, retry.AsKind(retry.KindPermanentForFile, fmt.Errorf("%w: %q", ErrInvalidTagName, tag))
	}

	var resp *req.Response
	err := retry.Do(ctx, retry.Options{}, func(ctx context.Context) error {
		var requestErr error
		resp, requestErr = c.http.R().
			SetContext(ctx).
			SetBody(createTagRequest{Name: tag.String(), UserVisible: true, UserAssignable: true, CanAssign: true}).
			Post(systemTagsPath)

		if resp != nil && resp.StatusCode == 409 {
			return retry.AsKind(retry.KindPermanentForFile, fmt.Errorf("remotestore: create tag %q: already exists", tag))
		}
		return classifyResponse(resp, requestErr, "create tag")
	})
	if err != nil {
		return 0, err
	}

	location := resp.Header.Get("Content-Location")
	if location == "" {
		location = resp.Header.Get("Location")
	}
	id, err := parseTagIDFromHref(location)
	if err != nil {
		return 0, retry.AsKind(retry.KindFatal, fmt.Errorf("remotestore: create tag %q: no id in response: %w", tag, err))
	}
	return id, nil
}

// AttachTag associates tagID with fileID.
func (c *Client) AttachTag(ctx context.Context, fileID FileID, tagID TagID) error {
	target := fmt.Sprintf("%s/%s/%s", systemTagsRelationsPath, fileID, tagID)
	return retry.Do(ctx, retry.Options{}, func(ctx context.Context) error {
		resp, err := c.http.R().SetContext(ctx).Put(target)
		return classifyResponse(resp, err, "attach tag")
	})
}

// DetachTag removes the association between tagID and fileID.
func (c *Client) DetachTag(ctx context.Context, fileID FileID, tagID TagID) error {
	target := fmt.Sprintf("%s/%s/%s", systemTagsRelationsPath, fileID, tagID)
	return retry.Do(ctx, retry.Options{}, func(ctx context.Context) error {
		resp, err := c.http.R().SetContext(ctx).Delete(target)
		return classifyResponse(resp, err, "detach tag")
	})
}

func isTrue(s string) bool {
	return s == "1" || strings.EqualFold(s, "true")
}

func parseFileID(s string) (FileID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return FileID(n), nil
}

func parseTagIDFromHref(href string) (TagID, error) {
	trimmed := strings.TrimRight(href, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return 0, fmt.Errorf("remotestore: no id segment in %q", href)
	}
	n, err := strconv.ParseUint(trimmed[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("remotestore: non-numeric id in %q: %w", href, err)
	}
	return TagID(n), nil
}
