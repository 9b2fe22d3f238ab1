package orchestrator_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/jomei/notionapi"
	"github.com/sawantshivaji1997/notionsync/src/cache"
	"github.com/sawantshivaji1997/notionsync/src/converter"
	"github.com/sawantshivaji1997/notionsync/src/metrics"
	"github.com/sawantshivaji1997/notionsync/src/mocks"
	"github.com/sawantshivaji1997/notionsync/src/model"
	"github.com/sawantshivaji1997/notionsync/src/notionclient"
	"github.com/sawantshivaji1997/notionsync/src/orchestrator"
	"github.com/sawantshivaji1997/notionsync/src/rw"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
	"github.com/sawantshivaji1997/notionsync/src/tree/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	DATABASE_ID = "8f3e1d2c-7b6a-4e5f-9d8c-1a2b3c4d5e6f"
	ALPHA_ID    = "11111111-aaaa-4bbb-8ccc-000000000001"
	BETA_ID     = "22222222-aaaa-4bbb-8ccc-000000000002"
	GAMMA_ID    = "33333333-aaaa-4bbb-8ccc-000000000003"
	DELTA_ID    = "44444444-aaaa-4bbb-8ccc-000000000004"
)

var (
	now    = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	edited = time.Date(2024, 3, 4, 17, 42, 0, 0, time.UTC)
)

func samplePage(id string, title string) model.Page {
	return model.Page{ID: id, Title: title, LastEditedTime: edited}
}

func samplePages() []model.Page {
	return []model.Page{
		samplePage(ALPHA_ID, "Alpha"),
		samplePage(BETA_ID, "Beta"),
		samplePage(GAMMA_ID, "Gamma"),
	}
}

// sliceIterator lists a fixed set of pages
type sliceIterator struct {
	pages []model.Page
	next  int
}

func (iter *sliceIterator) Next(ctx context.Context) (model.Page, error) {
	if iter.next >= len(iter.pages) {
		return model.Page{}, notionclient.ErrDone
	}
	page := iter.pages[iter.next]
	iter.next++
	return page, nil
}

func paragraphTree(pageID string, content string) *node.Node {
	rootNode := node.CreateRootNode(pageID)
	child, _ := node.CreateBlockNode(&model.Block{
		ID:       uuid.NewString(),
		Type:     model.BlockParagraph,
		RichText: []model.RichText{{Type: "text", PlainText: content}},
	})
	rootNode.AddChild(child)
	return rootNode
}

func expectListing(source *mocks.Source, pages []model.Page) {
	source.On("ListPages", mock.Anything, DATABASE_ID).Return(
		func(ctx context.Context, databaseID string) orchestrator.PageIterator {
			return &sliceIterator{pages: pages}
		})
}

// expectContent serves a paragraph per page, failures maps page ids to the
// error returned instead
func expectContent(source *mocks.Source, failures map[string]error) *mock.Call {
	return source.On("FetchContent", mock.Anything, mock.AnythingOfType("string")).Return(
		func(ctx context.Context, pageID string) (*node.Node, error) {
			if err, found := failures[pageID]; found {
				return nil, err
			}
			return paragraphTree(pageID, "Body of "+pageID), nil
		})
}

type fixture struct {
	source *mocks.Source
	vault  billy.Filesystem
	writer rw.ReaderWriter
	store  cache.Store
}

func newFixture(t *testing.T) *fixture {
	vault := memfs.New()
	writer := rw.GetFileReaderWriter(vault, false)
	return &fixture{
		source: mocks.NewSource(t),
		vault:  vault,
		writer: writer,
		store: cache.GetJSONStore(context.Background(), writer,
			cache.CachePath(cache.BACKEND_JSON, DATABASE_ID), DATABASE_ID),
	}
}

func (f *fixture) orchestrator(opts orchestrator.Options) *orchestrator.Orchestrator {
	opts.DatabaseID = DATABASE_ID
	if opts.Conversion.Quality == "" {
		opts.Conversion = converter.DefaultOptions()
	}
	return orchestrator.GetOrchestrator(f.source, f.store, f.writer, opts,
		orchestrator.WithNow(func() time.Time { return now }),
		orchestrator.WithMetrics(metrics.New()))
}

func (f *fixture) read(t *testing.T, path string) string {
	data, err := util.ReadFile(f.vault, path)
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) exists(path string) bool {
	_, err := f.vault.Stat(path)
	return err == nil
}

func outcomeIDs(result *orchestrator.SyncResult) []string {
	ids := []string{}
	for _, outcome := range result.Outcomes {
		ids = append(ids, outcome.PageID)
	}
	return ids
}

func TestRunFullSync(t *testing.T) {
	f := newFixture(t)
	expectListing(f.source, samplePages())
	expectContent(f.source, nil)

	result, err := f.orchestrator(orchestrator.Options{
		Subfolder:    "Notes",
		TitleHeading: true,
		BatchSize:    2,
	}).Run(context.Background(), orchestrator.Filter{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, []string{ALPHA_ID, BETA_ID, GAMMA_ID}, outcomeIDs(result))
	for _, outcome := range result.Outcomes {
		assert.Equal(t, orchestrator.StateDone, outcome.State)
		assert.Equal(t, rw.OutcomeCreated, outcome.Write)
	}

	content := f.read(t, "Notes/Alpha.md")
	assert.True(t, strings.HasPrefix(content, "---\nnotion_id: "+ALPHA_ID+"\ntitle: Alpha\n"))
	assert.True(t, strings.HasSuffix(content, "---\n\n# Alpha\n\nBody of "+ALPHA_ID+"\n"))

	entry, found := f.store.Lookup(BETA_ID)
	require.True(t, found)
	assert.Equal(t, "Notes/Beta.md", entry.Path)
	assert.Equal(t, cache.ContentHash([]byte(f.read(t, "Notes/Beta.md"))), entry.ContentHash)
}

func TestRunSkipsUnchangedPages(t *testing.T) {
	f := newFixture(t)
	expectListing(f.source, samplePages())
	expectContent(f.source, nil)
	sync := f.orchestrator(orchestrator.Options{})

	_, err := sync.Run(context.Background(), orchestrator.Filter{})
	require.NoError(t, err)
	f.source.AssertNumberOfCalls(t, "FetchContent", 3)

	result, err := sync.Run(context.Background(), orchestrator.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, []string{ALPHA_ID, BETA_ID, GAMMA_ID}, outcomeIDs(result))
	f.source.AssertNumberOfCalls(t, "FetchContent", 3)

	// A file removed from the vault is written again
	require.NoError(t, f.vault.Remove("Beta.md"))
	result, err = sync.Run(context.Background(), orchestrator.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 1, result.Processed)
	f.source.AssertNumberOfCalls(t, "FetchContent", 4)
}

func TestRunIdempotent(t *testing.T) {
	f := newFixture(t)
	expectListing(f.source, samplePages())
	expectContent(f.source, nil)

	_, err := f.orchestrator(orchestrator.Options{}).Run(context.Background(), orchestrator.Filter{})
	require.NoError(t, err)
	first := f.read(t, "Gamma.md")

	result, err := f.orchestrator(orchestrator.Options{Force: true}).
		Run(context.Background(), orchestrator.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	for _, outcome := range result.Outcomes {
		assert.Equal(t, rw.OutcomeUnchanged, outcome.Write)
	}
	assert.Equal(t, first, f.read(t, "Gamma.md"))
}

func TestRunFailureIsolation(t *testing.T) {
	f := newFixture(t)
	expectListing(f.source, samplePages())
	expectContent(f.source, map[string]error{
		BETA_ID: syncerr.New(syncerr.KindAPI, "get block children", errors.New("validation_error")),
	})

	result, err := f.orchestrator(orchestrator.Options{BatchSize: 3}).
		Run(context.Background(), orchestrator.Filter{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{ALPHA_ID, BETA_ID, GAMMA_ID}, outcomeIDs(result))

	failed := result.Outcomes[1]
	assert.Equal(t, orchestrator.StateFailed, failed.State)
	assert.Equal(t, syncerr.KindAPI, failed.Kind)
	assert.Contains(t, failed.Message, "validation_error")

	_, found := f.store.Lookup(BETA_ID)
	assert.False(t, found)
	assert.False(t, f.exists("Beta.md"))
}

func TestRunFatalErrorStopsDispatch(t *testing.T) {
	f := newFixture(t)
	pages := append(samplePages(), samplePage(DELTA_ID, "Delta"))
	expectListing(f.source, pages)
	expectContent(f.source, map[string]error{
		ALPHA_ID: syncerr.New(syncerr.KindFatalAPI, "get block children", errors.New("unauthorized")),
	})

	result, err := f.orchestrator(orchestrator.Options{BatchSize: 1}).
		Run(context.Background(), orchestrator.Filter{})
	require.Error(t, err)
	assert.Equal(t, syncerr.KindFatalAPI, syncerr.KindOf(err))
	assert.Equal(t, err, result.Aborted)

	assert.Equal(t, []string{ALPHA_ID}, outcomeIDs(result))
	assert.Equal(t, 1, result.Failed)
	f.source.AssertNumberOfCalls(t, "FetchContent", 1)
}

func TestRunListingError(t *testing.T) {
	f := newFixture(t)
	iter := mocks.NewPageIterator(t)
	iter.On("Next", mock.Anything).Return(samplePage(ALPHA_ID, "Alpha"), nil).Once()
	iter.On("Next", mock.Anything).Return(model.Page{},
		syncerr.New(syncerr.KindFatalAPI, "query database", errors.New("object_not_found"))).Once()
	f.source.On("ListPages", mock.Anything, DATABASE_ID).Return(iter)
	// Alpha may not reach a worker before dispatch stops
	expectContent(f.source, nil).Maybe()

	result, err := f.orchestrator(orchestrator.Options{}).Run(context.Background(), orchestrator.Filter{})
	require.Error(t, err)
	assert.True(t, syncerr.IsFatal(err))
	assert.LessOrEqual(t, len(result.Outcomes), 1)
}

func TestRunListedPageFailure(t *testing.T) {
	tests := []struct {
		name    string
		listErr error
		failed  string
	}{
		{
			name: "Undecodable page is recorded as failed",
			listErr: syncerr.New(syncerr.KindAPI, notionclient.OP_QUERY_DATABASE,
				errors.New("decode page: missing id")).WithPage(BETA_ID),
			failed: BETA_ID,
		},
		{
			name: "Page without id is recorded under its position",
			listErr: syncerr.New(syncerr.KindAPI, notionclient.OP_QUERY_DATABASE,
				errors.New("decode page: missing id")).WithPage(DATABASE_ID + "/#1"),
			failed: DATABASE_ID + "/#1",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t)
			iter := mocks.NewPageIterator(t)
			iter.On("Next", mock.Anything).Return(samplePage(ALPHA_ID, "Alpha"), nil).Once()
			iter.On("Next", mock.Anything).Return(model.Page{ID: test.failed}, test.listErr).Once()
			iter.On("Next", mock.Anything).Return(samplePage(GAMMA_ID, "Gamma"), nil).Once()
			iter.On("Next", mock.Anything).Return(model.Page{}, notionclient.ErrDone).Once()
			f.source.On("ListPages", mock.Anything, DATABASE_ID).Return(iter)
			expectContent(f.source, nil)

			result, err := f.orchestrator(orchestrator.Options{BatchSize: 1}).
				Run(context.Background(), orchestrator.Filter{})
			require.NoError(t, err)

			assert.Equal(t, []string{ALPHA_ID, test.failed, GAMMA_ID}, outcomeIDs(result))
			assert.Equal(t, 2, result.Processed)
			assert.Equal(t, 1, result.Failed)
			assert.Equal(t, orchestrator.StateFailed, result.Outcomes[1].State)
			assert.Equal(t, syncerr.KindAPI, result.Outcomes[1].Kind)
			f.source.AssertNumberOfCalls(t, "FetchContent", 2)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	f.source.On("ListPages", mock.Anything, DATABASE_ID).Return(
		func(ctx context.Context, databaseID string) orchestrator.PageIterator {
			return &sliceIterator{pages: samplePages()}
		}).Maybe()
	expectContent(f.source, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.orchestrator(orchestrator.Options{}).Run(ctx, orchestrator.Filter{})
	require.Error(t, err)
	assert.Equal(t, syncerr.KindCancelled, syncerr.KindOf(err))
	assert.Equal(t, syncerr.KindCancelled, syncerr.KindOf(result.Aborted))
	assert.Empty(t, result.Outcomes)
}

// failingRenameFS fails every rename, so no page file can be committed
type failingRenameFS struct {
	billy.Filesystem
}

func (fs *failingRenameFS) Rename(from, to string) error {
	return &os.LinkError{Op: "rename", Old: from, New: to, Err: errors.New("no space left on device")}
}

func TestRunRepeatedFilesystemErrors(t *testing.T) {
	f := newFixture(t)
	f.writer = rw.GetFileReaderWriter(&failingRenameFS{Filesystem: f.vault}, false)
	pages := append(samplePages(), samplePage(DELTA_ID, "Delta"))
	expectListing(f.source, pages)
	expectContent(f.source, nil)

	result, err := f.orchestrator(orchestrator.Options{BatchSize: 1}).
		Run(context.Background(), orchestrator.Filter{})
	require.Error(t, err)
	assert.Equal(t, syncerr.KindFilesystem, syncerr.KindOf(err))
	assert.Equal(t, []string{ALPHA_ID, BETA_ID, GAMMA_ID}, outcomeIDs(result))
	assert.Equal(t, 3, result.Failed)
	assert.Empty(t, f.store.Entries())
}

func TestRunSinglePage(t *testing.T) {
	tests := []struct {
		name           string
		pageErr        error
		expectedFailed int
		expectedDone   int
		expectedErr    bool
	}{
		{
			name:         "Page synced",
			expectedDone: 1,
		},
		{
			name:           "Page not found",
			pageErr:        syncerr.New(syncerr.KindAPI, "get page", errors.New("object_not_found")),
			expectedFailed: 1,
		},
		{
			name:        "Token rejected",
			pageErr:     syncerr.New(syncerr.KindFatalAPI, "get page", errors.New("unauthorized")),
			expectedErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t)
			f.source.On("GetPage", mock.Anything, BETA_ID).
				Return(samplePage(BETA_ID, "Beta"), test.pageErr)
			if test.pageErr == nil {
				expectContent(f.source, nil)
			}

			result, err := f.orchestrator(orchestrator.Options{}).
				Run(context.Background(), orchestrator.Filter{PageID: BETA_ID})
			if test.expectedErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, test.expectedDone, result.Processed)
			assert.Equal(t, test.expectedFailed, result.Failed)
			f.source.AssertNotCalled(t, "ListPages", mock.Anything, mock.Anything)
		})
	}
}

func TestRunSinglePageGone(t *testing.T) {
	notFound := syncerr.New(syncerr.KindAPI, notionclient.OP_GET_PAGE,
		&notionapi.Error{Status: 404, Code: "object_not_found", Message: "gone"}).WithPage(BETA_ID)

	tests := []struct {
		name     string
		dryRun   bool
		pageErr  error
		keepsRow bool
	}{
		{name: "Cache entry of a missing page is removed", pageErr: notFound},
		{name: "Dry run keeps the cache entry", pageErr: notFound, dryRun: true, keepsRow: true},
		{
			name:     "Other page errors keep the cache entry",
			pageErr:  syncerr.New(syncerr.KindAPI, notionclient.OP_GET_PAGE, errors.New("validation_error")),
			keepsRow: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t)
			f.source.On("GetPage", mock.Anything, BETA_ID).
				Return(samplePage(BETA_ID, "Beta"), nil).Once()
			f.source.On("GetPage", mock.Anything, BETA_ID).
				Return(model.Page{ID: BETA_ID}, test.pageErr).Once()
			expectContent(f.source, nil)

			_, err := f.orchestrator(orchestrator.Options{}).
				Run(context.Background(), orchestrator.Filter{PageID: BETA_ID})
			require.NoError(t, err)
			_, found := f.store.Lookup(BETA_ID)
			require.True(t, found)

			result, err := f.orchestrator(orchestrator.Options{DryRun: test.dryRun}).
				Run(context.Background(), orchestrator.Filter{PageID: BETA_ID})
			require.NoError(t, err)
			assert.Equal(t, 1, result.Failed)

			_, found = f.store.Lookup(BETA_ID)
			assert.Equal(t, test.keepsRow, found)
			// The file itself is left in the vault
			assert.True(t, f.exists("Beta.md"))
		})
	}
}

func TestRunModifiedSince(t *testing.T) {
	f := newFixture(t)
	pages := samplePages()
	pages[1].LastEditedTime = edited.Add(-48 * time.Hour)
	expectListing(f.source, pages)
	expectContent(f.source, nil)

	result, err := f.orchestrator(orchestrator.Options{}).Run(context.Background(),
		orchestrator.Filter{ModifiedSince: edited.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, []string{ALPHA_ID, GAMMA_ID}, outcomeIDs(result))
	f.source.AssertNumberOfCalls(t, "FetchContent", 2)
}

func TestRunDryRun(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, util.WriteFile(f.vault, "Alpha.md", []byte("old content\n"), 0644))
	alpha := samplePage(ALPHA_ID, "Alpha")
	entry := cache.NewEntry(&alpha, "Alpha.md", nil, now)
	entry.LastEdited = edited.Add(-time.Hour)
	require.NoError(t, f.store.Commit(entry))
	expectListing(f.source, samplePages()[:2])
	expectContent(f.source, nil)

	result, err := f.orchestrator(orchestrator.Options{DryRun: true}).
		Run(context.Background(), orchestrator.Filter{})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	require.Len(t, result.Planned, 2)

	update := result.Planned[0]
	assert.Equal(t, orchestrator.ActionUpdate, update.Action)
	assert.Equal(t, "Alpha.md", update.Path)
	assert.Contains(t, update.Diff, "--- a/Alpha.md")
	assert.Contains(t, update.Diff, "-old content")
	assert.Contains(t, update.Diff, "+Body of "+ALPHA_ID)

	create := result.Planned[1]
	assert.Equal(t, orchestrator.ActionCreate, create.Action)
	assert.Equal(t, "Beta.md", create.Path)

	// Nothing touched
	assert.Equal(t, "old content\n", f.read(t, "Alpha.md"))
	assert.False(t, f.exists("Beta.md"))
	_, found := f.store.Lookup(BETA_ID)
	assert.False(t, found)
}

func TestRunConversionQuality(t *testing.T) {
	tests := []struct {
		name          string
		quality       converter.QualityLevel
		expectedState orchestrator.State
		expectedKind  syncerr.Kind
	}{
		{
			name:          "Strict fails the page",
			quality:       converter.QualityStrict,
			expectedState: orchestrator.StateFailed,
			expectedKind:  syncerr.KindConversion,
		},
		{
			name:          "Standard leaves a placeholder",
			quality:       converter.QualityStandard,
			expectedState: orchestrator.StateDone,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t)
			expectListing(f.source, samplePages()[:1])
			f.source.On("FetchContent", mock.Anything, ALPHA_ID).Return(
				func(ctx context.Context, pageID string) (*node.Node, error) {
					rootNode := node.CreateRootNode(pageID)
					child, _ := node.CreateBlockNode(&model.Block{
						ID: uuid.NewString(), Type: model.BlockUnknown, RawType: "ai_block"})
					rootNode.AddChild(child)
					return rootNode, nil
				})

			opts := converter.DefaultOptions()
			opts.Quality = test.quality
			result, err := f.orchestrator(orchestrator.Options{Conversion: opts}).
				Run(context.Background(), orchestrator.Filter{})
			require.NoError(t, err)
			require.Len(t, result.Outcomes, 1)
			assert.Equal(t, test.expectedState, result.Outcomes[0].State)
			assert.Equal(t, test.expectedKind, result.Outcomes[0].Kind)

			if test.expectedState == orchestrator.StateDone {
				assert.Contains(t, f.read(t, "Alpha.md"), converter.UnsupportedMarker("ai_block"))
			}
		})
	}
}

func TestRunNaming(t *testing.T) {
	f := newFixture(t)
	pages := []model.Page{
		samplePage(ALPHA_ID, "Same"),
		samplePage(BETA_ID, "same"),
	}
	expectListing(f.source, pages)
	expectContent(f.source, nil)

	result, err := f.orchestrator(orchestrator.Options{}).Run(context.Background(), orchestrator.Filter{})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, "Same.md", result.Outcomes[0].Path)
	assert.Equal(t, "same-22222222.md", result.Outcomes[1].Path)
}

func TestRunRenamedPageKeepsOldFile(t *testing.T) {
	f := newFixture(t)
	pages := samplePages()[:1]
	f.source.On("ListPages", mock.Anything, DATABASE_ID).Return(
		func(ctx context.Context, databaseID string) orchestrator.PageIterator {
			return &sliceIterator{pages: pages}
		})
	expectContent(f.source, nil)
	sync := f.orchestrator(orchestrator.Options{})

	_, err := sync.Run(context.Background(), orchestrator.Filter{})
	require.NoError(t, err)

	pages[0].Title = "Alpha Renamed"
	pages[0].LastEditedTime = edited.Add(time.Hour)
	result, err := sync.Run(context.Background(), orchestrator.Filter{})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "Alpha Renamed.md", result.Outcomes[0].Path)

	assert.True(t, f.exists("Alpha.md"))
	assert.True(t, f.exists("Alpha Renamed.md"))
	entry, found := f.store.Lookup(ALPHA_ID)
	require.True(t, found)
	assert.Equal(t, "Alpha Renamed.md", entry.Path)
}

func TestRunCleansTemporaryFiles(t *testing.T) {
	f := newFixture(t)
	leftover := rw.TEMP_FILE_MARK + "Alpha.md-1234" + rw.TEMP_FILE_EXT
	require.NoError(t, util.WriteFile(f.vault, leftover, []byte("partial"), 0644))
	expectListing(f.source, nil)

	result, err := f.orchestrator(orchestrator.Options{}).Run(context.Background(), orchestrator.Filter{})
	require.NoError(t, err)
	assert.Empty(t, result.Outcomes)

	assert.False(t, f.exists(leftover))
}
