package rw

import (
	"context"
)

type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// WriteRequest describes one page file to commit. Path is relative to the
// root of the writer. PreviousPath is where the page was written by an
// earlier run, if anywhere; that file belongs to the page and is never
// treated as a collision.
type WriteRequest struct {
	Path         string
	PageID       string
	Content      []byte
	PreviousPath string
}

type WriteResult struct {
	Path    string
	Outcome Outcome
}

type ReaderWriter interface {
	// Resolve returns the path Write would use, after collision handling
	Resolve(context.Context, WriteRequest) (string, error)
	Write(context.Context, WriteRequest) (WriteResult, error)
	Read(context.Context, string) ([]byte, error)
	Exists(context.Context, string) (bool, error)
	// CleanupTemp removes temporary files left in dir by interrupted writes
	CleanupTemp(context.Context, string) (int, error)
}
