// Package report turns the result of a sync run into a human readable
// summary. Failures are reported by page id, error kind and message.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/sawantshivaji1997/notionsync/src/orchestrator"
	"github.com/sawantshivaji1997/notionsync/src/rw"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
)

const (
	REPORT_DIR  = ".notionsync"
	TIME_LAYOUT = time.RFC3339
)

type Failure struct {
	PageID  string       `json:"page_id"`
	Title   string       `json:"title,omitempty"`
	Kind    syncerr.Kind `json:"kind"`
	Message string       `json:"message"`
}

type Warning struct {
	PageID    string `json:"page_id"`
	BlockID   string `json:"block_id,omitempty"`
	BlockType string `json:"block_type,omitempty"`
	Message   string `json:"message"`
}

type Report struct {
	DatabaseID  string        `json:"database_id"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	Duration    time.Duration `json:"duration"`
	DryRun      bool          `json:"dry_run"`
	Total       int           `json:"total"`
	Processed   int           `json:"processed"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
	SuccessRate float64       `json:"success_rate"`
	Aborted     string        `json:"aborted,omitempty"`
	Failures    []Failure     `json:"failures"`
	Warnings    []Warning     `json:"warnings"`

	// Planned holds the changes of a dry run, diffs included
	Planned []orchestrator.PlannedChange `json:"-"`
}

// Build summarises a run result
func Build(databaseID string, result *orchestrator.SyncResult) *Report {
	r := &Report{
		DatabaseID: databaseID,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Duration:   result.FinishedAt.Sub(result.StartedAt),
		DryRun:     result.DryRun,
		Total:      len(result.Outcomes),
		Processed:  result.Processed,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
		Failures:   []Failure{},
		Warnings:   []Warning{},
		Planned:    result.Planned,
	}
	if result.Aborted != nil {
		r.Aborted = result.Aborted.Error()
	}

	attempted := r.Processed + r.Failed
	r.SuccessRate = 100
	if attempted > 0 {
		r.SuccessRate = float64(r.Processed) * 100 / float64(attempted)
	}

	for _, outcome := range result.Outcomes {
		if outcome.State == orchestrator.StateFailed {
			r.Failures = append(r.Failures, Failure{
				PageID:  outcome.PageID,
				Title:   outcome.Title,
				Kind:    outcome.Kind,
				Message: outcome.Message,
			})
		}
		for _, warning := range outcome.Warnings {
			r.Warnings = append(r.Warnings, Warning{
				PageID:    outcome.PageID,
				BlockID:   warning.BlockID,
				BlockType: warning.BlockType,
				Message:   warning.Message,
			})
		}
	}
	return r
}

// Markdown renders the report as a Markdown document
func (r *Report) Markdown() string {
	var b strings.Builder

	title := "# Sync report"
	if r.DryRun {
		title = "# Sync preview"
	}
	b.WriteString(title + "\n\n")

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Database: %s\n", r.DatabaseID)
	fmt.Fprintf(&b, "- Started: %s\n", r.StartedAt.UTC().Format(TIME_LAYOUT))
	fmt.Fprintf(&b, "- Finished: %s\n", r.FinishedAt.UTC().Format(TIME_LAYOUT))
	fmt.Fprintf(&b, "- Duration: %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "- Pages: %d\n", r.Total)
	fmt.Fprintf(&b, "- Processed: %d\n", r.Processed)
	fmt.Fprintf(&b, "- Skipped: %d\n", r.Skipped)
	fmt.Fprintf(&b, "- Failed: %d\n", r.Failed)
	fmt.Fprintf(&b, "- Success rate: %.1f%%\n", r.SuccessRate)
	if r.Aborted != "" {
		fmt.Fprintf(&b, "- Aborted: %s\n", r.Aborted)
	}

	if len(r.Failures) > 0 {
		b.WriteString("\n## Failures\n\n")
		for i, failure := range r.Failures {
			fmt.Fprintf(&b, "%d. `%s` %s: %s\n", i+1, failure.PageID, failure.Kind, failure.Message)
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for i, warning := range r.Warnings {
			fmt.Fprintf(&b, "%d. `%s` %s: %s\n", i+1, warning.PageID, warning.BlockType, warning.Message)
		}
	}

	if len(r.Planned) > 0 {
		b.WriteString("\n## Planned changes\n\n")
		for _, change := range r.Planned {
			fmt.Fprintf(&b, "- %s `%s`\n", change.Action, change.Path)
		}
	}
	return b.String()
}

func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(r), "encode report")
}

// Diffs concatenates the diffs of every planned change in listing order
func (r *Report) Diffs() string {
	var b strings.Builder
	for _, change := range r.Planned {
		b.WriteString(change.Diff)
	}
	return b.String()
}

func ReportPath(databaseID string) string {
	return REPORT_DIR + "/report-" + databaseID + ".md"
}

// Save writes the Markdown report next to the cache of the database
func (r *Report) Save(ctx context.Context, writer rw.ReaderWriter) (string, error) {
	path := ReportPath(r.DatabaseID)
	result, err := writer.Write(ctx, rw.WriteRequest{
		Path:         path,
		Content:      []byte(r.Markdown()),
		PreviousPath: path,
	})
	if err != nil {
		return "", err
	}
	zerolog.Ctx(ctx).Debug().Str(logging.Path, result.Path).Msg(logging.ReportSaved)
	return result.Path, nil
}
