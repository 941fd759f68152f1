package remotestore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"

	"github.com/carteiraapp/carteira/internal/domain"
)

// wrapRemote maps SDK errors onto the domain taxonomy: a missing page becomes
// ErrRemoteNotFound, everything else a transient RemoteError. The adapter
// performs no retries; retry policy lives in the reconciliation engine.
func wrapRemote(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) && apiErr.Status == 404 {
		return fmt.Errorf("%s: %w", op, domain.ErrRemoteNotFound)
	}
	return &domain.RemoteError{Op: op, Err: err}
}

// deletedAlready reports whether a delete failed only because the page is
// gone or already archived; callers treat that as success.
func deletedAlready(err error) bool {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Status == 404 {
			return true
		}
		if apiErr.Status == 400 && strings.Contains(apiErr.Message, "archived") {
			return true
		}
	}
	return false
}
