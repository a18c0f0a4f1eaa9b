package remotestore

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/retry"
)

var (
	ErrAuthFailed      = errors.New("remotestore: authentication failed")
	ErrFileDisappeared = errors.New("remotestore: file no longer exists remotely")
	ErrInvalidTagName  = errors.New("remotestore: invalid tag name")
)

// classifyResponse turns a transport error or an unexpected HTTP status
// into a retry.Kind-tagged error: 401 is fatal, a 404 from a file-id
// lookup means the file disappeared (permanent for that file), and 5xx
// is transient.
func classifyResponse(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return retry.AsKind(retry.KindTransient, fmt.Errorf("remotestore: %s: %w", operation, requestErr))
	}

	status := resp.StatusCode
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return retry.AsKind(retry.KindFatal, fmt.Errorf("%w: %s", ErrAuthFailed, operation))
	case status == http.StatusNotFound:
		return retry.AsKind(retry.KindPermanentForFile, fmt.Errorf("%w: %s", ErrFileDisappeared, operation))
	case status >= 500:
		return retry.AsKind(retry.KindTransient, fmt.Errorf("remotestore: %s: server error %d", operation, status))
	default:
		return retry.AsKind(retry.KindPermanentForFile, fmt.Errorf("remotestore: %s: unexpected status %d", operation, status))
	}
}
