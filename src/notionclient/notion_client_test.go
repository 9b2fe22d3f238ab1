package notionclient_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/sawantshivaji1997/notionsync/src/model"
	"github.com/sawantshivaji1997/notionsync/src/notionclient"
	"github.com/sawantshivaji1997/notionsync/src/properties"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
	"github.com/sawantshivaji1997/notionsync/src/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ERROR_STR      = "error occurred"
	TEST_DATA_PATH = "./../../testdata/notionclient/"

	PAGE_JSON                     = TEST_DATA_PATH + "page.json"
	DATABASE_JSON                 = TEST_DATA_PATH + "database.json"
	DATABASE_QUERY_RESPONSE_JSON  = TEST_DATA_PATH + "database_query_response.json"
	DATABASE_QUERY_RESPONSE_PAGE1 = TEST_DATA_PATH + "database_query_response_page1.json"
	DATABASE_QUERY_RESPONSE_PAGE2 = TEST_DATA_PATH + "database_query_response_page2.json"
	DATABASE_QUERY_UNKNOWN_JSON   = TEST_DATA_PATH + "database_query_response_unknown.json"
	BLOCK_CHILDREN_JSON           = TEST_DATA_PATH + "block_children.json"
	BLOCK_CHILDREN_NESTED_JSON    = TEST_DATA_PATH + "block_children_nested.json"
	BLOCK_CHILDREN_UNKNOWN_JSON   = TEST_DATA_PATH + "block_children_unknown.json"

	PAGE_ID     = "5b2c1f0e-8d3a-4c61-9f0e-2a7b9c1d4e11"
	PAGE_ID_2   = "7a9d4c3b-2e1f-4a0b-8c7d-6e5f4a3b2c1d"
	DATABASE_ID = "8f3e1d2c-7b6a-4e5f-9d8c-1a2b3c4d5e6f"
	LIST_ITEM   = "b1000000-0000-4000-8000-000000000002"
)

func readRaw(t *testing.T, path string) json.RawMessage {
	data, err := utils.ReadJsonFile(path)
	require.NoError(t, err)
	return data
}

type listFixture struct {
	Results    []json.RawMessage `json:"results"`
	NextCursor *string           `json:"next_cursor"`
}

// readResults returns the objects of a list response and its next cursor
func readResults(t *testing.T, path string) ([]json.RawMessage, notionapi.Cursor) {
	list := listFixture{}
	require.NoError(t, utils.LoadJsonFile(path, &list))
	cursor := notionapi.Cursor("")
	if list.NextCursor != nil {
		cursor = notionapi.Cursor(*list.NextCursor)
	}
	return list.Results, cursor
}

// fakeRemote answers requests from fixture files keyed by method and path.
// Paths without a fixture get a 404 error object.
type fakeRemote struct {
	mu       sync.Mutex
	files    map[string]string
	status   int
	requests []string
	bodies   []string
}

func (r *fakeRemote) RoundTrip(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := req.Method + " " + req.URL.Path
	r.requests = append(r.requests, key)
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		r.bodies = append(r.bodies, string(body))
	}

	if r.status != 0 {
		return errorResponse(req, r.status, "rate_limited"), nil
	}
	path, ok := r.files[key]
	if !ok {
		return errorResponse(req, http.StatusNotFound, "object_not_found"), nil
	}
	data, err := utils.ReadJsonFile(path)
	if err != nil {
		return nil, err
	}
	return response(req, http.StatusOK, data), nil
}

func response(req *http.Request, status int, body []byte) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}
}

func errorResponse(req *http.Request, status int, code string) *http.Response {
	body := fmt.Sprintf(`{"object":"error","status":%d,"code":"%s","message":"%s"}`,
		status, code, ERROR_STR)
	return response(req, status, []byte(body))
}

func getTestClient(remote *fakeRemote) *notionclient.NotionApiClient {
	client := notionclient.GetNotionApiClient(context.Background(), "secret_token",
		notionapi.NewClient, remote)
	return client.(*notionclient.NotionApiClient)
}

func TestGetNotionClient(t *testing.T) {
	t.Run("Get Client with valid parameters", func(t *testing.T) {
		client := notionclient.GetNotionApiClient(context.Background(), "asdasd",
			notionapi.NewClient, nil)
		assert.NotNil(t, client)
	})
}

func TestGetDatabasePages(t *testing.T) {
	queryPath := "/v1/databases/" + DATABASE_ID + "/query"

	tests := []struct {
		name        string
		file        string
		wantErr     bool
		pages       int
		cursorEmpty bool
	}{
		{
			name:        "Get all pages",
			file:        DATABASE_QUERY_RESPONSE_JSON,
			pages:       2,
			cursorEmpty: true,
		},
		{
			name:        "Get pages with pagination",
			file:        DATABASE_QUERY_RESPONSE_PAGE1,
			pages:       1,
			cursorEmpty: false,
		},
		{
			name:        "Unknown property type does not fail the listing",
			file:        DATABASE_QUERY_UNKNOWN_JSON,
			pages:       2,
			cursorEmpty: true,
		},
		{
			name:    "Missing database",
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			remote := &fakeRemote{files: map[string]string{}}
			if test.file != "" {
				remote.files["POST "+queryPath] = test.file
			}
			client := getTestClient(remote)
			client.PageSize = 500

			pages, cursor, err := client.GetDatabasePages(context.Background(),
				DATABASE_ID, "")

			if test.wantErr {
				assert.Nil(t, pages)
				var apiErr *notionapi.Error
				require.True(t, errors.As(err, &apiErr))
				assert.True(t, notionclient.IsNotFound(err))
				return
			}

			assert.NoError(t, err)
			assert.Len(t, pages, test.pages)
			assert.Equal(t, test.cursorEmpty, cursor == "")
			require.Len(t, remote.bodies, 1)
			assert.Contains(t, remote.bodies[0],
				fmt.Sprintf(`"page_size":%d`, notionclient.DEFAULT_PAGE_SIZE))
		})
	}
}

func TestGetDatabasePagesCursor(t *testing.T) {
	remote := &fakeRemote{files: map[string]string{
		"POST /v1/databases/" + DATABASE_ID + "/query": DATABASE_QUERY_RESPONSE_PAGE2,
	}}
	client := getTestClient(remote)

	_, cursor, err := client.GetDatabasePages(context.Background(), DATABASE_ID, "cursor-2")
	require.NoError(t, err)
	assert.Equal(t, notionapi.Cursor(""), cursor)
	require.Len(t, remote.bodies, 1)
	assert.Contains(t, remote.bodies[0], `"start_cursor":"cursor-2"`)
}

func TestListedPageWithUnknownPropertyType(t *testing.T) {
	remote := &fakeRemote{files: map[string]string{
		"POST /v1/databases/" + DATABASE_ID + "/query": DATABASE_QUERY_UNKNOWN_JSON,
	}}
	client := getTestClient(remote)

	pages, _, err := client.GetDatabasePages(context.Background(), DATABASE_ID, "")
	require.NoError(t, err)
	require.Len(t, pages, 2)

	page, err := model.DecodePage(pages[0])
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", page.Title)

	tests := []struct {
		name     string
		property string
		propType model.PropertyType
		rawType  string
		present  bool
	}{
		{
			name:     "Null number stays absent",
			property: "Estimate",
			propType: model.PropertyNumber,
		},
		{
			name:     "Unknown type is kept with its tag",
			property: "Summary",
			propType: model.PropertyUnknown,
			rawType:  "ai_summary",
		},
		{
			name:     "Title is extracted",
			property: "Name",
			propType: model.PropertyTitle,
			present:  true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var prop *model.Property
			for i := range page.Properties {
				if page.Properties[i].Name == test.property {
					prop = &page.Properties[i]
				}
			}
			require.NotNil(t, prop)
			assert.Equal(t, test.propType, prop.Type)
			assert.Equal(t, test.rawType, prop.RawType)

			_, ok := properties.Extract(*prop)
			assert.Equal(t, test.present, ok)
		})
	}

	// The second object has no id and cannot be decoded
	_, err = model.DecodePage(pages[1])
	assert.Error(t, err)
}

func TestGetPageByID(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr bool
	}{
		{
			name:  "Get existing Page",
			files: map[string]string{"GET /v1/pages/" + PAGE_ID: PAGE_JSON},
		},
		{
			name:    "Get non-existing Page",
			files:   map[string]string{},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			client := getTestClient(&fakeRemote{files: test.files})
			page, err := client.GetPageByID(context.Background(), PAGE_ID)
			if test.wantErr {
				assert.Nil(t, page)
				assert.True(t, notionclient.IsNotFound(err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, PAGE_ID, model.ObjectID(page))
		})
	}
}

func TestGetChildBlocksOfBlock(t *testing.T) {
	childrenPath := "/v1/blocks/" + PAGE_ID + "/children"

	tests := []struct {
		name    string
		file    string
		blocks  int
		wantErr bool
	}{
		{
			name:   "Known block types",
			file:   BLOCK_CHILDREN_JSON,
			blocks: 2,
		},
		{
			name:   "Block type unknown to the client library",
			file:   BLOCK_CHILDREN_UNKNOWN_JSON,
			blocks: 2,
		},
		{
			name:    "Missing block",
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			remote := &fakeRemote{files: map[string]string{}}
			if test.file != "" {
				remote.files["GET "+childrenPath] = test.file
			}
			client := getTestClient(remote)

			blocks, cursor, err := client.GetChildBlocksOfBlock(context.Background(), PAGE_ID, "")
			if test.wantErr {
				assert.Error(t, err)
				assert.Nil(t, blocks)
				return
			}
			assert.NoError(t, err)
			assert.Len(t, blocks, test.blocks)
			assert.Equal(t, notionapi.Cursor(""), cursor)
		})
	}
}

func TestGetDatabaseByID(t *testing.T) {
	remote := &fakeRemote{files: map[string]string{
		"GET /v1/databases/" + DATABASE_ID: DATABASE_JSON,
	}}
	client := getTestClient(remote)

	got, err := client.GetDatabaseByID(context.Background(), DATABASE_ID)
	assert.NoError(t, err)
	assert.Equal(t, DATABASE_ID, model.ObjectID(got))
}

// A 429 comes back after a single request, so the caller's limiter and
// retry policy decide when to try again
func TestRateLimitedNotRetriedByClient(t *testing.T) {
	remote := &fakeRemote{status: http.StatusTooManyRequests}
	client := getTestClient(remote)

	_, err := client.GetDatabaseByID(context.Background(), DATABASE_ID)

	var rateErr *notionapi.RateLimitedError
	require.True(t, errors.As(err, &rateErr))
	assert.Len(t, remote.requests, 1)

	fetcher, clock := getTestFetcher(client, testOptions())
	err = fetcher.Ping(context.Background(), DATABASE_ID)
	assert.Equal(t, syncerr.KindTransientAPI, syncerr.KindOf(err))
	// One request per attempt of the retry policy
	assert.Len(t, remote.requests, 1+notionclient.DefaultRetryPolicy().MaxAttempts)
	assert.Len(t, clock.sleeps, notionclient.DefaultRetryPolicy().MaxAttempts-1)
}

func TestFetchContentUnknownBlockType(t *testing.T) {
	remote := &fakeRemote{files: map[string]string{
		"GET /v1/blocks/" + PAGE_ID + "/children": BLOCK_CHILDREN_UNKNOWN_JSON,
	}}
	fetcher, _ := getTestFetcher(getTestClient(remote), testOptions())

	rootNode, err := fetcher.FetchContent(context.Background(), PAGE_ID)
	require.NoError(t, err)

	first := rootNode.GetChildNode()
	require.NotNil(t, first)
	assert.Equal(t, model.BlockParagraph, first.GetBlock().Type)
	assert.Equal(t, "Before the summary", model.PlainText(first.GetBlock().RichText))

	second := first.GetSiblingNode()
	require.NotNil(t, second)
	assert.Equal(t, model.BlockUnknown, second.GetBlock().Type)
	assert.Equal(t, "ai_summary", second.GetBlock().RawType)
	assert.True(t, strings.HasPrefix(second.GetBlock().ID, "c1000000"))
}
