package orchestrator

import (
	"bytes"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/cache"
	"github.com/sawantshivaji1997/notionsync/src/converter"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/sawantshivaji1997/notionsync/src/markdown"
	"github.com/sawantshivaji1997/notionsync/src/model"
	"github.com/sawantshivaji1997/notionsync/src/properties"
	"github.com/sawantshivaji1997/notionsync/src/rw"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
)

const (
	OP_RENDER_PAGE = "render page"
	DIFF_CONTEXT   = 3
)

// pageRun carries one page through Fetching, Converting and Committing
type pageRun struct {
	*run
	slot   int
	page   model.Page
	entry  *cache.Entry
	name   string
	start  time.Time
	logger zerolog.Logger
}

func (r *run) processPage(slot int, page model.Page, entry *cache.Entry, name string) {
	p := &pageRun{
		run:    r,
		slot:   slot,
		page:   page,
		entry:  entry,
		name:   name,
		start:  r.now(),
		logger: zerolog.Ctx(r.ctx).With().Str(logging.PageID, page.ID).Logger(),
	}

	p.enter(StateFetching)
	root, err := p.source.FetchContent(p.ctx, page.ID)
	if err != nil {
		p.logger.Error().Err(err).Msg(logging.PageBlocksFetchErr)
		p.fail(err)
		return
	}

	p.enter(StateConverting)
	converted, err := converter.Convert(p.ctx, root, p.opts.Conversion)
	if err != nil {
		p.logger.Error().Err(err).Msg(logging.PageConvertErr)
		p.fail(syncerr.New(syncerr.KindConversion, OP_RENDER_PAGE, err).WithPage(page.ID))
		return
	}
	content, err := p.render(converted.Body)
	if err != nil {
		p.logger.Error().Err(err).Msg(logging.PageConvertErr)
		p.fail(syncerr.New(syncerr.KindConversion, OP_RENDER_PAGE, err).WithPage(page.ID))
		return
	}

	p.enter(StateCommitting)
	req := rw.WriteRequest{
		Path:    filepath.Join(p.opts.Subfolder, name),
		PageID:  page.ID,
		Content: content,
	}
	if entry != nil {
		req.PreviousPath = entry.Path
	}

	if p.opts.DryRun {
		p.plan(req, converted.Warnings)
		return
	}
	p.commit(req, converted.Warnings)
}

func (p *pageRun) enter(state State) {
	p.logger.Debug().Str(logging.State, string(state)).Msg(logging.PageStateChange)
}

// render composes the page file: metadata header, optional title heading
// and the converted body
func (p *pageRun) render(body string) ([]byte, error) {
	if p.opts.TitleHeading && p.page.Title != "" {
		heading := "# " + strings.ReplaceAll(p.page.Title, "\n", " ")
		if body == "" {
			body = heading
		} else {
			body = heading + "\n\n" + body
		}
	}

	file := &markdown.File{
		Name: p.name,
		Header: properties.Header(&p.page, properties.Options{
			IncludeProperties: p.opts.IncludeProperties,
			Order:             p.opts.PropertyOrder,
		}),
		Body: body,
	}
	return file.Render()
}

func (p *pageRun) commit(req rw.WriteRequest, warnings []converter.Warning) {
	written, err := p.writer.Write(p.ctx, req)
	if err != nil {
		p.logger.Error().Err(err).Str(logging.Path, req.Path).Msg(logging.PageCommitErr)
		p.commitFailed(err)
		p.fail(err)
		return
	}
	p.commitSucceeded()

	if req.PreviousPath != "" && filepath.Clean(req.PreviousPath) != filepath.Clean(written.Path) {
		p.logger.Info().
			Str(logging.Path, written.Path).
			Str(logging.PreviousPath, req.PreviousPath).
			Msg(logging.PageRenamed)
	}

	// The file is in place, a cache failure only costs a reprocess next run
	if err := p.store.Commit(cache.NewEntry(&p.page, written.Path, req.Content, p.now())); err != nil {
		p.logger.Warn().Err(err).Msg(logging.CacheFlushErr)
	}

	p.done(written.Path, written.Outcome, warnings)
}

// plan records what commit would do without touching the vault
func (p *pageRun) plan(req rw.WriteRequest, warnings []converter.Warning) {
	path, err := p.writer.Resolve(p.ctx, req)
	if err != nil {
		p.fail(err)
		return
	}

	var previous []byte
	found, err := p.writer.Exists(p.ctx, path)
	if err == nil && found {
		previous, err = p.writer.Read(p.ctx, path)
	}
	if err != nil {
		p.fail(err)
		return
	}

	change := PlannedChange{
		PageID: p.page.ID,
		Title:  p.page.Title,
		Path:   path,
	}
	outcome := rw.OutcomeCreated
	switch {
	case !found:
		change.Action = ActionCreate
	case bytes.Equal(previous, req.Content):
		change.Action = ActionUnchanged
		outcome = rw.OutcomeUnchanged
	default:
		change.Action = ActionUpdate
		outcome = rw.OutcomeUpdated
	}

	if change.Action != ActionUnchanged {
		change.Diff, err = unifiedDiff(path, previous, req.Content)
		if err != nil {
			p.fail(syncerr.New(syncerr.KindConversion, OP_RENDER_PAGE, err).WithPage(p.page.ID))
			return
		}
	}

	p.recordPlan(p.slot, change)
	p.done(path, outcome, warnings)
}

func unifiedDiff(path string, previous []byte, content []byte) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(previous)),
		B:        difflib.SplitLines(string(content)),
		FromFile: "a/" + filepath.ToSlash(path),
		ToFile:   "b/" + filepath.ToSlash(path),
		Context:  DIFF_CONTEXT,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	return text, errors.Wrapf(err, "diff %s", path)
}

func (p *pageRun) done(path string, outcome rw.Outcome, warnings []converter.Warning) {
	duration := p.now().Sub(p.start)
	p.record(p.slot, Outcome{
		PageID:   p.page.ID,
		Title:    p.page.Title,
		State:    StateDone,
		Path:     path,
		Write:    outcome,
		Warnings: warnings,
		Duration: duration,
	})
	p.metrics.RecordPage(string(outcome), duration)
	p.logger.Info().
		Str(logging.Path, path).
		Str(logging.Outcome, string(outcome)).
		Dur(logging.Duration, duration).
		Msg(logging.PageDone)
}

// fail ends the page in StateFailed. A fatal error also stops the run.
func (p *pageRun) fail(err error) {
	duration := p.now().Sub(p.start)
	outcome := failedOutcome(p.page, err, duration)
	p.record(p.slot, outcome)
	p.metrics.RecordPage(string(StateFailed), duration)
	p.logger.Warn().Err(err).Str(logging.Kind, string(outcome.Kind)).Msg(logging.PageFailed)

	if syncerr.IsFatal(err) {
		p.abort(err)
	}
}
