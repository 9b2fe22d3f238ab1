package syncerr_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sawantshivaji1997/notionsync/src/syncerr"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind syncerr.Kind
	}{
		{
			name: "nil error",
			err:  nil,
			kind: "",
		},
		{
			name: "typed error",
			err:  syncerr.New(syncerr.KindFilesystem, "write", errors.New("disk full")),
			kind: syncerr.KindFilesystem,
		},
		{
			name: "wrapped typed error",
			err: fmt.Errorf("page 1: %w",
				syncerr.New(syncerr.KindFatalAPI, "list", errors.New("unauthorized"))),
			kind: syncerr.KindFatalAPI,
		},
		{
			name: "context cancelled",
			err:  fmt.Errorf("fetch: %w", context.Canceled),
			kind: syncerr.KindCancelled,
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			kind: syncerr.KindTransientAPI,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			kind: syncerr.KindUnknown,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.kind, syncerr.KindOf(test.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, syncerr.IsFatal(syncerr.New(syncerr.KindFatalAPI, "list", nil)))
	assert.True(t, syncerr.IsFatal(syncerr.Configuration("bad %s", "token")))
	assert.False(t, syncerr.IsFatal(syncerr.New(syncerr.KindTransientAPI, "get", nil)))
	assert.False(t, syncerr.IsFatal(syncerr.Conversion("child_database", "b1")))
}

func TestErrorMessage(t *testing.T) {
	err := syncerr.New(syncerr.KindFatalAPI, "list pages", errors.New("unauthorized")).
		WithHint("check the integration token").
		WithPage("p1")

	assert.Equal(t, "p1", err.PageID)
	assert.Equal(t,
		"FATAL_API: list pages: unauthorized (check the integration token)",
		err.Error())

	conv := syncerr.Conversion("unsupported", "b1")
	assert.Contains(t, conv.Error(), "block type unsupported")
	assert.Equal(t, "unsupported", conv.BlockType)
}

func TestPageOf(t *testing.T) {
	scoped := syncerr.New(syncerr.KindAPI, "query_database", errors.New("bad page")).WithPage("p1")

	assert.Equal(t, "p1", syncerr.PageOf(scoped))
	assert.Equal(t, "p1", syncerr.PageOf(fmt.Errorf("listing: %w", scoped)))
	assert.Empty(t, syncerr.PageOf(syncerr.New(syncerr.KindTransientAPI, "query_database", nil)))
	assert.Empty(t, syncerr.PageOf(errors.New("plain")))
}
