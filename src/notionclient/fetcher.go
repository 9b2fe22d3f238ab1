package notionclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/sawantshivaji1997/notionsync/src/metrics"
	"github.com/sawantshivaji1997/notionsync/src/model"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
	"github.com/sawantshivaji1997/notionsync/src/tree/builder"
	"github.com/sawantshivaji1997/notionsync/src/tree/node"
	"golang.org/x/time/rate"
)

const (
	// The remote documents an average of three requests per second
	DEFAULT_REQUESTS_PER_SECOND = 3.0
	DEFAULT_BURST               = 1
	DEFAULT_CALL_TIMEOUT        = 30 * time.Second

	OP_QUERY_DATABASE = "query_database"
	OP_GET_DATABASE   = "get_database"
	OP_GET_PAGE       = "get_page"
	OP_GET_CHILDREN   = "get_block_children"
)

type Options struct {
	RequestsPerSecond float64
	Burst             int
	CallTimeout       time.Duration
	MaxDepth          int
	Retry             RetryPolicy
}

func DefaultOptions() Options {
	return Options{
		RequestsPerSecond: DEFAULT_REQUESTS_PER_SECOND,
		Burst:             DEFAULT_BURST,
		CallTimeout:       DEFAULT_CALL_TIMEOUT,
		MaxDepth:          builder.DEFAULT_MAX_DEPTH,
		Retry:             DefaultRetryPolicy(),
	}
}

type FetcherOption func(*Fetcher)

// WithClock replaces the clock used for backoff sleeps
func WithClock(clock Clock) FetcherOption {
	return func(f *Fetcher) {
		f.clock = clock
	}
}

// WithRandom replaces the jitter source, it must return values in [0, 1)
func WithRandom(random func() float64) FetcherOption {
	return func(f *Fetcher) {
		f.random = random
	}
}

func WithMetrics(collector *metrics.Collector) FetcherOption {
	return func(f *Fetcher) {
		f.metrics = collector
	}
}

// Fetcher wraps a NotionClient with a rate limiter shared by every caller, a
// timeout per remote call and retries driven by a RetryPolicy. It is safe for
// concurrent use.
type Fetcher struct {
	client      NotionClient
	limiter     *rate.Limiter
	policy      RetryPolicy
	callTimeout time.Duration
	maxDepth    int
	clock       Clock
	random      func() float64
	metrics     *metrics.Collector
}

func GetFetcher(client NotionClient, opts Options, fetcherOpts ...FetcherOption) *Fetcher {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DEFAULT_REQUESTS_PER_SECOND
	}
	if opts.Burst <= 0 {
		opts.Burst = DEFAULT_BURST
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DEFAULT_CALL_TIMEOUT
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}

	f := &Fetcher{
		client:      client,
		limiter:     rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		policy:      opts.Retry,
		callTimeout: opts.CallTimeout,
		maxDepth:    opts.MaxDepth,
		clock:       RealClock(),
		random:      newLockedRand(time.Now().UnixNano()).Float64,
	}

	for _, opt := range fetcherOpts {
		opt(f)
	}
	return f
}

// do runs call under the limiter and the retry policy. Every attempt waits
// for limiter capacity first, so retries are rate limited too.
func (f *Fetcher) do(ctx context.Context, op string, s scope,
	call func(ctx context.Context) error) error {
	logger := zerolog.Ctx(ctx)

	for attempt := 1; ; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return syncerr.New(syncerr.KindCancelled, op, ctx.Err())
			}
			return syncerr.New(syncerr.KindTransientAPI, op, err)
		}

		callCtx, cancel := context.WithTimeout(ctx, f.callTimeout)
		err := call(callCtx)
		cancel()

		if err == nil {
			f.metrics.RecordRequest(op, "ok")
			return nil
		}

		if ctx.Err() != nil {
			f.metrics.RecordRequest(op, string(syncerr.KindCancelled))
			return syncerr.New(syncerr.KindCancelled, op, ctx.Err())
		}

		classified := classify(op, s, err)
		f.metrics.RecordRequest(op, strings.ToLower(string(classified.Kind)))

		if classified.Kind != syncerr.KindTransientAPI ||
			!f.policy.ShouldRetry(attempt) {
			return classified
		}

		delay := f.policy.Delay(attempt, f.random)
		logger.Debug().
			Str(logging.Operation, op).
			Int(logging.Attempt, attempt).
			Dur(logging.Delay, delay).
			Err(err).
			Msg(logging.RetryingRequest)
		f.metrics.RecordRetry(op)

		if err := f.clock.Sleep(ctx, delay); err != nil {
			return syncerr.New(syncerr.KindCancelled, op, err)
		}
	}
}

// Ping checks that the token is valid and the database is shared with the
// integration.
func (f *Fetcher) Ping(ctx context.Context, databaseID DatabaseID) error {
	return f.do(ctx, OP_GET_DATABASE, scopeDatabase, func(ctx context.Context) error {
		_, err := f.client.GetDatabaseByID(ctx, databaseID)
		return err
	})
}

// ListPages returns a lazy iterator over the pages of the database in the
// order the remote returns them.
func (f *Fetcher) ListPages(databaseID DatabaseID) *PageIterator {
	return &PageIterator{
		fetcher:    f,
		databaseID: databaseID,
	}
}

// GetPage fetches a single page, used when syncing one page only.
func (f *Fetcher) GetPage(ctx context.Context, id PageID) (model.Page, error) {
	var remote json.RawMessage
	err := f.do(ctx, OP_GET_PAGE, scopePage, func(ctx context.Context) error {
		var err error
		remote, err = f.client.GetPageByID(ctx, id)
		return err
	})
	if err != nil {
		return model.Page{}, withPage(err, string(id))
	}

	page, err := toModelPage(OP_GET_PAGE, remote)
	if err != nil {
		return model.Page{ID: string(id)}, withPage(err, string(id))
	}
	return page, nil
}

// GetBlockChildren returns one page of children of the given block.
func (f *Fetcher) GetBlockChildren(ctx context.Context, blockID string,
	cursor string) ([]*model.Block, string, error) {
	var remote []json.RawMessage
	var next notionapi.Cursor

	err := f.do(ctx, OP_GET_CHILDREN, scopePage, func(ctx context.Context) error {
		var err error
		remote, next, err = f.client.GetChildBlocksOfBlock(ctx, BlockID(blockID),
			notionapi.Cursor(cursor))
		return err
	})
	if err != nil {
		return nil, "", err
	}

	blocks, err := toModelBlocks(ctx, blockID, cursor, remote)
	if err != nil {
		return nil, "", syncerr.New(syncerr.KindAPI, OP_GET_CHILDREN, err)
	}
	return blocks, string(next), nil
}

// FetchContent fetches the whole block tree of a page. Blocks nested deeper
// than the configured depth are not fetched, their nodes are marked
// truncated.
func (f *Fetcher) FetchContent(ctx context.Context, id PageID) (*node.Node, error) {
	treeBuilder := builder.GetBlockTreeBuilder(f, string(id), f.maxDepth)
	if err := treeBuilder.BuildTree(ctx); err != nil {
		return nil, withPage(err, string(id))
	}

	return treeBuilder.GetRootNode()
}

func withPage(err error, pageID string) error {
	var se *syncerr.Error
	if errors.As(err, &se) {
		return se.WithPage(pageID)
	}
	return err
}

func toModelPage(op string, remote json.RawMessage) (model.Page, error) {
	if len(remote) == 0 {
		return model.Page{}, syncerr.New(syncerr.KindAPI, op,
			errors.New("empty page in response"))
	}

	page, err := model.DecodePage(remote)
	if err != nil {
		e := syncerr.New(syncerr.KindAPI, op, err)
		if id := model.ObjectID(remote); id != "" {
			e = e.WithPage(id)
		}
		return model.Page{ID: model.ObjectID(remote)}, e
	}
	return page, nil
}

// toModelBlocks decodes one page of children. A block without an id gets
// one made of its parent, the cursor and its position, so the converter can
// still report it.
func toModelBlocks(ctx context.Context, parentID string, cursor string,
	remote []json.RawMessage) ([]*model.Block, error) {
	blocks := make([]*model.Block, 0, len(remote))
	for i, data := range remote {
		decoded, err := model.DecodeBlock(data)
		if err != nil {
			return nil, errors.Wrapf(err, "decode child %d of block %s", i, parentID)
		}
		if decoded.ID == "" {
			decoded.ID = fmt.Sprintf("%s/%s#%d", parentID, cursor, i)
			zerolog.Ctx(ctx).Debug().
				Str(logging.BlockID, decoded.ID).
				Str(logging.BlockType, decoded.TypeName()).
				Msg(logging.BlockWithoutID)
		}
		blocks = append(blocks, decoded)
	}
	return blocks, nil
}
