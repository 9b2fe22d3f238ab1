package notionclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
)

const (
	HINT_TOKEN = "check the integration token (NTN_TOKEN)"
	HINT_SHARE = "share the database with the integration and check the database id"
)

// scope tells classify whether a missing object means the whole run is
// pointless (the database) or only one page is affected.
type scope int

const (
	scopeDatabase scope = iota
	scopePage
)

// classify maps a raw client error onto the error taxonomy.
func classify(op string, s scope, err error) *syncerr.Error {
	var se *syncerr.Error
	if errors.As(err, &se) {
		return se
	}

	// The client library gives up on a 429 with its own error type
	var rateErr *notionapi.RateLimitedError
	if errors.As(err, &rateErr) {
		return syncerr.New(syncerr.KindTransientAPI, op, err)
	}

	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return classifyAPIError(op, s, apiErr)
	}

	if errors.Is(err, context.Canceled) {
		return syncerr.New(syncerr.KindCancelled, op, err)
	}

	if isTransport(err) {
		return syncerr.New(syncerr.KindTransientAPI, op, err)
	}

	return syncerr.New(syncerr.KindAPI, op, err)
}

func classifyAPIError(op string, s scope, apiErr *notionapi.Error) *syncerr.Error {
	code := string(apiErr.Code)

	switch {
	case apiErr.Status == http.StatusTooManyRequests || code == "rate_limited":
		return syncerr.New(syncerr.KindTransientAPI, op, apiErr)
	case apiErr.Status >= http.StatusInternalServerError ||
		code == "internal_server_error" || code == "service_unavailable" ||
		code == "conflict_error":
		return syncerr.New(syncerr.KindTransientAPI, op, apiErr)
	case apiErr.Status == http.StatusConflict:
		return syncerr.New(syncerr.KindTransientAPI, op, apiErr)
	case apiErr.Status == http.StatusUnauthorized || code == "unauthorized":
		return syncerr.New(syncerr.KindFatalAPI, op, apiErr).WithHint(HINT_TOKEN)
	case apiErr.Status == http.StatusForbidden || code == "restricted_resource":
		return syncerr.New(syncerr.KindFatalAPI, op, apiErr).WithHint(HINT_SHARE)
	case (apiErr.Status == http.StatusNotFound || code == "object_not_found") &&
		s == scopeDatabase:
		return syncerr.New(syncerr.KindFatalAPI, op, apiErr).WithHint(HINT_SHARE)
	}

	return syncerr.New(syncerr.KindAPI, op, apiErr)
}

// Network level failures that are worth another attempt
func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "connection reset")
}

// IsNotFound reports whether err says the requested object does not exist
// or is not shared with the integration.
func IsNotFound(err error) bool {
	var apiErr *notionapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound || apiErr.Code == "object_not_found"
}
