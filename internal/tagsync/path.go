package tagsync

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// LogicalPath identifies a file independent of which side (local
// filesystem or remote WebDAV tree) it is being addressed on. It is
// always slash-separated and relative, with no leading slash.
type LogicalPath string

func NewLogicalPath(p string) LogicalPath {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimLeft(path.Clean("/"+p), "/")
	return LogicalPath(p)
}

func (p LogicalPath) String() string {
	return string(p)
}

// PrefixPair binds a local filesystem directory to the remote WebDAV
// collection it mirrors. Remote must be rooted under a Nextcloud
// user's files collection.
type PrefixPair struct {
	Local  string
	Remote string
}

const remotePrefixRoot = "/remote.php/dav/files/"

var (
	ErrInvalidRemotePrefix = errors.New("tagsync: remote prefix must be rooted under " + remotePrefixRoot)
	ErrOverlappingPrefixes = errors.New("tagsync: prefix pairs overlap")
	ErrPathOutsidePrefix   = errors.New("tagsync: path does not fall under any configured prefix")
)

// NewPrefixPair validates and normalizes a local/remote prefix pair.
func NewPrefixPair(local, remote string) (PrefixPair, error) {
	local = strings.TrimRight(strings.ReplaceAll(local, "\\", "/"), "/")
	remote = "/" + strings.Trim(strings.ReplaceAll(remote, "\\", "/"), "/")
	if !strings.HasPrefix(remote, remotePrefixRoot) {
		return PrefixPair{}, fmt.Errorf("%w: got %q", ErrInvalidRemotePrefix, remote)
	}
	return PrefixPair{Local: local, Remote: remote}, nil
}

// PathMapper translates between local filesystem paths, remote WebDAV
// paths, and the LogicalPath that identifies a file across both, via
// longest-prefix matching over a fixed set of non-overlapping prefix pairs.
type PathMapper struct {
	pairs []PrefixPair
}

// NewPathMapper builds a PathMapper from pairs, rejecting configurations
// where one prefix is an ancestor of another (local or remote side).
func NewPathMapper(pairs []PrefixPair) (*PathMapper, error) {
	for i := range pairs {
		for j := range pairs {
			if i == j {
				continue
			}
			if isAncestorOrEqual(pairs[i].Local, pairs[j].Local) ||
				isAncestorOrEqual(pairs[i].Remote, pairs[j].Remote) {
				return nil, fmt.Errorf("%w: %q and %q", ErrOverlappingPrefixes, pairs[i].Local, pairs[j].Local)
			}
		}
	}
	cp := make([]PrefixPair, len(pairs))
	copy(cp, pairs)
	return &PathMapper{pairs: cp}, nil
}

func isAncestorOrEqual(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasPrefix(b, a+"/")
}

// ToLogicalFromLocal maps an absolute local filesystem path to a
// LogicalPath, using the pair whose Local prefix matches.
func (m *PathMapper) ToLogicalFromLocal(absPath string) (LogicalPath, error) {
	absPath = strings.ReplaceAll(absPath, "\\", "/")
	for _, pair := range m.pairs {
		if absPath == pair.Local {
			return NewLogicalPath(""), nil
		}
		if strings.HasPrefix(absPath, pair.Local+"/") {
			return NewLogicalPath(strings.TrimPrefix(absPath, pair.Local+"/")), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrPathOutsidePrefix, absPath)
}

// ToLogicalFromRemote maps a remote WebDAV path to a LogicalPath.
func (m *PathMapper) ToLogicalFromRemote(remotePath string) (LogicalPath, error) {
	remotePath = "/" + strings.Trim(strings.ReplaceAll(remotePath, "\\", "/"), "/")
	for _, pair := range m.pairs {
		if remotePath == pair.Remote {
			return NewLogicalPath(""), nil
		}
		if strings.HasPrefix(remotePath, pair.Remote+"/") {
			return NewLogicalPath(strings.TrimPrefix(remotePath, pair.Remote+"/")), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrPathOutsidePrefix, remotePath)
}

// ToLocal maps a LogicalPath back to an absolute local filesystem path
// using the given pair.
func (m *PathMapper) ToLocal(pair PrefixPair, lp LogicalPath) string {
	if lp == "" {
		return pair.Local
	}
	return pair.Local + "/" + string(lp)
}

// ToRemote maps a LogicalPath back to a remote WebDAV path using the
// given pair.
func (m *PathMapper) ToRemote(pair PrefixPair, lp LogicalPath) string {
	if lp == "" {
		return pair.Remote
	}
	return pair.Remote + "/" + string(lp)
}

// Pairs returns the configured prefix pairs.
func (m *PathMapper) Pairs() []PrefixPair {
	return m.pairs
}
