package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/cache"
	"github.com/sawantshivaji1997/notionsync/src/converter"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/sawantshivaji1997/notionsync/src/markdown"
	"github.com/sawantshivaji1997/notionsync/src/metrics"
	"github.com/sawantshivaji1997/notionsync/src/model"
	"github.com/sawantshivaji1997/notionsync/src/notionclient"
	"github.com/sawantshivaji1997/notionsync/src/rw"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
	"golang.org/x/sync/errgroup"
)

const (
	DEFAULT_BATCH_SIZE = 10
	MAX_BATCH_SIZE     = 100
	// Filesystem failures on this many leading commits, with no success in
	// between, stop the run
	FILESYSTEM_FAILURE_LIMIT = 3

	OP_RUN = "sync run"
)

var errRepeatedFilesystem = errors.New("filesystem errors on every one of the first pages")

type Options struct {
	DatabaseID        string
	Subfolder         string
	NamingPattern     string
	IncludeProperties bool
	PropertyOrder     []string
	TitleHeading      bool
	BatchSize         int
	// Force ignores the cache, every page is converted and written again
	Force      bool
	DryRun     bool
	Conversion converter.Options
}

type Option func(*Orchestrator)

func WithMetrics(collector *metrics.Collector) Option {
	return func(o *Orchestrator) {
		o.metrics = collector
	}
}

func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// Orchestrator runs the per page state machine over a database with a
// bounded pool of workers. The source, cache and writer are the only state
// shared between workers.
type Orchestrator struct {
	source  Source
	store   cache.Store
	writer  rw.ReaderWriter
	opts    Options
	metrics *metrics.Collector
	now     func() time.Time
}

func GetOrchestrator(source Source, store cache.Store, writer rw.ReaderWriter,
	opts Options, options ...Option) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DEFAULT_BATCH_SIZE
	}
	if opts.BatchSize > MAX_BATCH_SIZE {
		opts.BatchSize = MAX_BATCH_SIZE
	}

	o := &Orchestrator{
		source: source,
		store:  store,
		writer: writer,
		opts:   opts,
		now:    time.Now,
	}
	for _, option := range options {
		option(o)
	}
	return o
}

func normalizeID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}

// run holds the state of one Run call
type run struct {
	*Orchestrator
	ctx      context.Context
	dispatch context.Context
	cancel   context.CancelFunc
	namer    *markdown.Namer

	mu       sync.Mutex
	outcomes []*Outcome
	planned  []*PlannedChange
	aborted  error

	// commit results counted towards the filesystem failure limit
	fsFailures  int
	fsSucceeded bool
}

// Run syncs the database, or the single page selected by the filter. It
// returns the result together with the run fatal error, if any; the result
// is never nil.
func (o *Orchestrator) Run(ctx context.Context, filter Filter) (*SyncResult, error) {
	logger := zerolog.Ctx(ctx)
	result := &SyncResult{StartedAt: o.now(), DryRun: o.opts.DryRun}

	dispatch, cancel := context.WithCancel(ctx)
	defer cancel()
	r := &run{
		Orchestrator: o,
		ctx:          ctx,
		dispatch:     dispatch,
		cancel:       cancel,
		namer:        markdown.GetNamer(),
	}

	mode := "database"
	if filter.PageID != "" {
		mode = "page"
	}
	logger.Info().
		Str(logging.DatabaseID, o.opts.DatabaseID).
		Str(logging.Mode, mode).
		Int(logging.Workers, o.opts.BatchSize).
		Bool("dry_run", o.opts.DryRun).
		Bool("force", o.opts.Force).
		Msg(logging.RunStarted)

	if !o.opts.DryRun {
		r.cleanupTemp()
	}

	group := &errgroup.Group{}
	group.SetLimit(o.opts.BatchSize)
	if filter.PageID != "" {
		r.dispatchSinglePage(group, filter)
	} else {
		r.dispatchDatabase(group, filter)
	}
	group.Wait()

	for _, outcome := range r.outcomes {
		if outcome != nil {
			result.Outcomes = append(result.Outcomes, *outcome)
		}
	}
	for _, change := range r.planned {
		if change != nil {
			result.Planned = append(result.Planned, *change)
		}
	}
	result.count()
	result.Aborted = r.aborted
	if result.Aborted == nil && ctx.Err() != nil {
		result.Aborted = syncerr.New(syncerr.KindCancelled, OP_RUN, ctx.Err())
	}

	if !o.opts.DryRun {
		if err := o.store.Flush(ctx); err != nil {
			logger.Error().Err(err).Msg(logging.CacheFlushErr)
			if result.Aborted == nil {
				result.Aborted = err
			}
		}
	}

	result.FinishedAt = o.now()
	o.metrics.RecordRun(result.FinishedAt.Sub(result.StartedAt))

	event, msg := logger.Info(), logging.RunFinished
	if result.Aborted != nil {
		event = logger.Error().Err(result.Aborted).Str(logging.Kind, string(syncerr.KindOf(result.Aborted)))
		msg = logging.RunAborted
	}
	event.Int(logging.Processed, result.Processed).
		Int(logging.Skipped, result.Skipped).
		Int(logging.Failed, result.Failed).
		Dur(logging.Duration, result.FinishedAt.Sub(result.StartedAt)).
		Msg(msg)

	return result, result.Aborted
}

func (r *run) cleanupTemp() {
	dir := r.opts.Subfolder
	if dir == "" {
		dir = "."
	}
	removed, err := r.writer.CleanupTemp(r.ctx, dir)
	if err != nil {
		zerolog.Ctx(r.ctx).Warn().Err(err).Str(logging.Path, dir).Msg(logging.TempFilesRemoved)
		return
	}
	if removed > 0 {
		zerolog.Ctx(r.ctx).Info().Int(logging.Entries, removed).Str(logging.Path, dir).
			Msg(logging.TempFilesRemoved)
	}
}

// abort records a run fatal error and stops dispatch. Pages already being
// processed are left to finish.
func (r *run) abort(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.aborted != nil {
		return
	}
	r.aborted = err
	r.cancel()
	zerolog.Ctx(r.ctx).Error().Err(err).Msg(logging.DispatchStopped)
}

func (r *run) stopped() bool {
	return r.dispatch.Err() != nil
}

func (r *run) dispatchDatabase(group *errgroup.Group, filter Filter) {
	logger := zerolog.Ctx(r.ctx)
	iter := r.source.ListPages(r.dispatch, r.opts.DatabaseID)

	for !r.stopped() {
		page, err := iter.Next(r.dispatch)
		if errors.Is(err, notionclient.ErrDone) {
			return
		}
		if err != nil && !syncerr.IsFatal(err) && syncerr.PageOf(err) != "" {
			// The listing itself went on, only this page is unusable
			r.recordFailure(model.Page{ID: syncerr.PageOf(err)}, err)
			continue
		}
		if err != nil {
			if r.stopped() {
				return
			}
			logger.Error().Err(err).Str(logging.DatabaseID, r.opts.DatabaseID).Msg(logging.PageListErr)
			r.abort(err)
			return
		}

		if filter.excludes(page.ID, page.LastEditedTime) {
			logger.Debug().Str(logging.PageID, page.ID).Msg(logging.PageFilteredOut)
			continue
		}
		r.dispatchPage(group, page)
	}
}

func (r *run) dispatchSinglePage(group *errgroup.Group, filter Filter) {
	page, err := r.source.GetPage(r.dispatch, filter.PageID)
	if err != nil {
		zerolog.Ctx(r.ctx).Error().Err(err).Str(logging.PageID, filter.PageID).Msg(logging.PageFetchErr)
		if syncerr.IsFatal(err) {
			r.abort(err)
			return
		}
		if notionclient.IsNotFound(err) {
			r.forget(filter.PageID)
		}
		r.recordFailure(model.Page{ID: filter.PageID}, err)
		return
	}

	if !filter.ModifiedSince.IsZero() && page.LastEditedTime.Before(filter.ModifiedSince) {
		zerolog.Ctx(r.ctx).Debug().Str(logging.PageID, page.ID).Msg(logging.PageFilteredOut)
		return
	}
	r.dispatchPage(group, page)
}

// recordFailure records a page that failed before reaching a worker
func (r *run) recordFailure(page model.Page, err error) {
	slot := r.reserveSlot()
	r.record(slot, failedOutcome(page, err, 0))
	r.metrics.RecordPage(string(StateFailed), 0)
}

// forget drops the cache entry of a page the remote no longer returns. Its
// file is left in place.
func (r *run) forget(pageID string) {
	if r.opts.DryRun {
		return
	}
	if _, found := r.store.Lookup(pageID); !found {
		return
	}
	logger := zerolog.Ctx(r.ctx).With().Str(logging.PageID, pageID).Logger()
	if err := r.store.Remove(pageID); err != nil {
		logger.Warn().Err(err).Msg(logging.CacheRemoveErr)
		return
	}
	logger.Info().Msg(logging.CacheEntryRemoved)
}

// reserveSlot keeps a place for a page's outcome in listing order
func (r *run) reserveSlot() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, nil)
	r.planned = append(r.planned, nil)
	return len(r.outcomes) - 1
}

func (r *run) record(slot int, outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[slot] = &outcome
}

func (r *run) recordPlan(slot int, change PlannedChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.planned[slot] = &change
}

// dispatchPage runs the Pending state in the dispatching goroutine: the
// cache check and the file name reservation, both in listing order. Pages
// that need work are handed to the pool.
func (r *run) dispatchPage(group *errgroup.Group, page model.Page) {
	logger := zerolog.Ctx(r.ctx).With().Str(logging.PageID, page.ID).Logger()

	var entry *cache.Entry
	if cached, found := r.store.Lookup(page.ID); found {
		entry = &cached
	}

	if !r.opts.Force && r.skippable(&page, entry) {
		r.namer.Reserve(filepath.Base(entry.Path), page.ID)
		slot := r.reserveSlot()
		r.record(slot, Outcome{
			PageID: page.ID,
			Title:  page.Title,
			State:  StateSkipped,
			Path:   entry.Path,
		})
		r.metrics.RecordPage(string(StateSkipped), 0)
		logger.Debug().Str(logging.Path, entry.Path).Msg(logging.PageSkipped)
		return
	}

	name := r.reserveName(&page, entry)
	slot := r.reserveSlot()
	group.Go(func() error {
		// Dispatch may have stopped while this page waited for a worker
		if r.stopped() {
			return nil
		}
		r.processPage(slot, page, entry, name)
		return nil
	})
}

func (r *run) skippable(page *model.Page, entry *cache.Entry) bool {
	if !cache.ShouldSkip(page, entry, r.now()) {
		return false
	}
	// A file removed locally is written again
	found, err := r.writer.Exists(r.ctx, entry.Path)
	return err == nil && found
}

// reserveName picks the file name of a page. A page keeps the name it was
// written under before as long as that name still derives from its title.
func (r *run) reserveName(page *model.Page, entry *cache.Entry) string {
	name := markdown.FileName(r.opts.NamingPattern, page)
	if entry != nil && entry.Path != "" {
		previous := filepath.Base(entry.Path)
		if previous == markdown.WithIDSuffix(name, page.ID, false) ||
			previous == markdown.WithIDSuffix(name, page.ID, true) {
			name = previous
		}
	}
	return r.namer.Reserve(name, page.ID)
}

func failedOutcome(page model.Page, err error, duration time.Duration) Outcome {
	kind := syncerr.KindOf(err)
	return Outcome{
		PageID:   page.ID,
		Title:    page.Title,
		State:    StateFailed,
		Kind:     kind,
		Message:  err.Error(),
		Duration: duration,
		Err:      err,
	}
}

// commitFailed applies the filesystem failure limit. Only the leading
// commits of a run count; one success means failures are page specific.
func (r *run) commitFailed(err error) {
	if syncerr.KindOf(err) != syncerr.KindFilesystem {
		return
	}
	r.mu.Lock()
	if r.fsSucceeded {
		r.mu.Unlock()
		return
	}
	r.fsFailures++
	limitReached := r.fsFailures >= FILESYSTEM_FAILURE_LIMIT
	r.mu.Unlock()

	if limitReached {
		zerolog.Ctx(r.ctx).Error().Err(err).Msg(logging.RepeatedFilesystem)
		r.abort(syncerr.New(syncerr.KindFilesystem, "commit pages", errRepeatedFilesystem).
			WithHint("check that the vault path is writable and the disk is not full"))
	}
}

func (r *run) commitSucceeded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fsSucceeded = true
}
