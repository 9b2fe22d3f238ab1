package orchestrator

import (
	"time"

	"github.com/sawantshivaji1997/notionsync/src/converter"
	"github.com/sawantshivaji1997/notionsync/src/rw"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
)

type State string

const (
	StatePending    State = "pending"
	StateSkipped    State = "skipped"
	StateFetching   State = "fetching"
	StateConverting State = "converting"
	StateCommitting State = "committing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

type Action string

const (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionUnchanged Action = "unchanged"
)

// Outcome is the final state of one page in a run.
type Outcome struct {
	PageID   string
	Title    string
	State    State
	Path     string
	Write    rw.Outcome
	Kind     syncerr.Kind
	Message  string
	Warnings []converter.Warning
	Duration time.Duration
	Err      error
}

// PlannedChange is what a dry run would have written for a page.
type PlannedChange struct {
	PageID string
	Title  string
	Path   string
	Action Action
	Diff   string
}

// SyncResult summarises a run. Outcomes are in listing order whatever the
// order pages finished in. Pages never dispatched because the run was
// aborted or cancelled have no outcome.
type SyncResult struct {
	Processed  int
	Skipped    int
	Failed     int
	Outcomes   []Outcome
	Planned    []PlannedChange
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	// Aborted is the run fatal error that stopped dispatch, if any
	Aborted error
}

func (r *SyncResult) count() {
	r.Processed, r.Skipped, r.Failed = 0, 0, 0
	for _, outcome := range r.Outcomes {
		switch outcome.State {
		case StateDone:
			r.Processed++
		case StateSkipped:
			r.Skipped++
		case StateFailed:
			r.Failed++
		}
	}
}

// Filter narrows a run. PageID selects exactly one page, ModifiedSince drops
// pages last edited before it. Both apply before the cache is consulted.
type Filter struct {
	PageID        string
	ModifiedSince time.Time
}

func (f Filter) excludes(pageID string, lastEdited time.Time) bool {
	if f.PageID != "" && !sameID(f.PageID, pageID) {
		return true
	}
	return !f.ModifiedSince.IsZero() && lastEdited.Before(f.ModifiedSince)
}

// Ids compare without dashes and case, the remote accepts both forms
func sameID(a, b string) bool {
	return normalizeID(a) == normalizeID(b)
}
