package config

import (
	"context"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/cache"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/sawantshivaji1997/notionsync/src/metrics"
	"github.com/sawantshivaji1997/notionsync/src/notionclient"
	"github.com/sawantshivaji1997/notionsync/src/orchestrator"
	"github.com/sawantshivaji1997/notionsync/src/report"
	"github.com/sawantshivaji1997/notionsync/src/rw"
)

// Dependencies are the collaborators built from a Config. Tests replace them
// through Options.
type Dependencies struct {
	NotionClient   notionclient.NotionClient
	Vault          billy.Filesystem
	FetcherOptions []notionclient.FetcherOption
	Now            func() time.Time
}

type Option func(ctx context.Context, cfg *Config, deps *Dependencies)

func WithNotionClient(client notionclient.NotionClient) Option {
	return func(ctx context.Context, cfg *Config, deps *Dependencies) {
		deps.NotionClient = client
	}
}

func WithVault(vault billy.Filesystem) Option {
	return func(ctx context.Context, cfg *Config, deps *Dependencies) {
		deps.Vault = vault
	}
}

func WithFetcherOptions(opts ...notionclient.FetcherOption) Option {
	return func(ctx context.Context, cfg *Config, deps *Dependencies) {
		deps.FetcherOptions = append(deps.FetcherOptions, opts...)
	}
}

func WithNow(now func() time.Time) Option {
	return func(ctx context.Context, cfg *Config, deps *Dependencies) {
		deps.Now = now
	}
}

// Initialize builds the default dependencies for whatever the options left
// unset: the official client for the token and the vault directory on disk.
func Initialize(ctx context.Context, cfg *Config, opts ...Option) *Dependencies {
	deps := &Dependencies{}
	for _, opt := range opts {
		opt(ctx, cfg, deps)
	}

	if deps.NotionClient == nil && cfg.Notion.Token != "" {
		deps.NotionClient = notionclient.GetNotionApiClient(ctx,
			notionapi.Token(cfg.Notion.Token), notionapi.NewClient, nil)
	}
	if deps.Vault == nil {
		deps.Vault = osfs.New(cfg.Vault.Path)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return deps
}

type engine struct {
	fetcher *notionclient.Fetcher
	store   cache.Store
	writer  rw.ReaderWriter
	metrics *metrics.Collector
	deps    *Dependencies
}

func newEngine(ctx context.Context, cfg *Config, opts []Option) (*engine, error) {
	if err := cfg.Validate(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg(logging.ValidationErr)
		return nil, err
	}
	deps := Initialize(ctx, cfg, opts...)
	collector := metrics.New()

	store, err := cache.OpenStore(ctx, cfg.Cache.Backend, deps.Vault, cfg.Vault.Path,
		cfg.Notion.DatabaseID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg(logging.CacheOpenErr)
		return nil, err
	}

	fetcherOpts := append([]notionclient.FetcherOption{notionclient.WithMetrics(collector)},
		deps.FetcherOptions...)
	return &engine{
		fetcher: notionclient.GetFetcher(deps.NotionClient, cfg.fetchOptions(), fetcherOpts...),
		store:   store,
		writer:  rw.GetFileReaderWriter(deps.Vault, cfg.Sync.OverwriteExisting),
		metrics: collector,
		deps:    deps,
	}, nil
}

func (e *engine) run(ctx context.Context, cfg *Config, filter orchestrator.Filter,
	dryRun bool, force bool) (*orchestrator.SyncResult, error) {
	defer e.store.Close()

	sync := orchestrator.GetOrchestrator(
		orchestrator.NotionSource(e.fetcher),
		e.store,
		e.writer,
		cfg.orchestratorOptions(dryRun, force),
		orchestrator.WithMetrics(e.metrics),
		orchestrator.WithNow(e.deps.Now),
	)
	result, err := sync.Run(ctx, filter)

	if werr := e.metrics.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
		zerolog.Ctx(ctx).Warn().Err(werr).Str(logging.Path, cfg.Metrics.Textfile).
			Msg(logging.MetricsWriteErr)
	}
	return result, err
}

type SyncOptions struct {
	Filter orchestrator.Filter
	// Force ignores the cache and processes every page again
	Force bool
}

// RunSync syncs the configured database into the vault and saves the run
// report next to the cache. The returned error is a configuration error or
// the error that aborted the run; page failures are only in the result.
func RunSync(ctx context.Context, cfg *Config, syncOpts SyncOptions,
	opts ...Option) (*orchestrator.SyncResult, error) {
	e, err := newEngine(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	result, err := e.run(ctx, cfg, syncOpts.Filter, false, syncOpts.Force)
	if _, serr := report.Build(cfg.Notion.DatabaseID, result).Save(ctx, e.writer); serr != nil {
		zerolog.Ctx(ctx).Warn().Err(serr).Msg(logging.ReportSaveErr)
	}
	return result, err
}

// PreviewSync computes what RunSync would change without writing anything
func PreviewSync(ctx context.Context, cfg *Config, syncOpts SyncOptions,
	opts ...Option) (*orchestrator.SyncResult, error) {
	e, err := newEngine(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	result, err := e.run(ctx, cfg, syncOpts.Filter, true, syncOpts.Force)
	if err == nil {
		zerolog.Ctx(ctx).Info().Int(logging.Entries, len(result.Planned)).
			Msg(logging.DryRunPlannedChanges)
	}
	return result, err
}

// TestConnection checks that the token is accepted and the database is
// shared with the integration
func TestConnection(ctx context.Context, cfg *Config, opts ...Option) error {
	if err := cfg.Validate(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg(logging.ValidationErr)
		return err
	}
	deps := Initialize(ctx, cfg, opts...)
	fetcher := notionclient.GetFetcher(deps.NotionClient, cfg.fetchOptions(), deps.FetcherOptions...)

	if err := fetcher.Ping(ctx, notionclient.DatabaseID(cfg.Notion.DatabaseID)); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str(logging.DatabaseID, cfg.Notion.DatabaseID).Msg(logging.ConnectionOK)
	return nil
}

type CacheSummary struct {
	Backend    string
	Path       string
	Entries    int
	LastSynced time.Time
}

func openLocalStore(ctx context.Context, cfg *Config, opts []Option) (cache.Store, error) {
	if err := cfg.validateLocal(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg(logging.ValidationErr)
		return nil, err
	}
	deps := Initialize(ctx, cfg, opts...)
	return cache.OpenStore(ctx, cfg.Cache.Backend, deps.Vault, cfg.Vault.Path, cfg.Notion.DatabaseID)
}

// CacheStats describes the cache of the configured database. No token is
// needed.
func CacheStats(ctx context.Context, cfg *Config, opts ...Option) (*CacheSummary, error) {
	store, err := openLocalStore(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	entries := store.Entries()
	summary := &CacheSummary{
		Backend: cfg.Cache.Backend,
		Path:    cache.CachePath(cfg.Cache.Backend, cfg.Notion.DatabaseID),
		Entries: len(entries),
	}
	for _, entry := range entries {
		if entry.SyncedAt.After(summary.LastSynced) {
			summary.LastSynced = entry.SyncedAt
		}
	}
	return summary, nil
}

// ClearCache forgets every page of the configured database, so the next run
// processes all of them. It returns the number of entries removed.
func ClearCache(ctx context.Context, cfg *Config, opts ...Option) (int, error) {
	store, err := openLocalStore(ctx, cfg, opts)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	removed := len(store.Entries())
	if err := store.Clear(); err != nil {
		return 0, err
	}
	if err := store.Flush(ctx); err != nil {
		return 0, err
	}
	zerolog.Ctx(ctx).Info().Int(logging.Entries, removed).Msg(logging.CacheCleared)
	return removed, nil
}
