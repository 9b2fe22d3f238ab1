package notionclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/jomei/notionapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/logging"
)

type PageID string
type DatabaseID string
type BlockID string

const (
	DEFAULT_PAGE_SIZE = 100
	// The client library sleeps on Retry-After by itself. One attempt hands
	// the first 429 back to Fetcher, whose limiter and retry policy apply.
	CLIENT_MAX_ATTEMPTS = 1
)

type (
	NewClient func(notionapi.Token, ...notionapi.ClientOption) *notionapi.Client
)

// NotionClient is the thin set of remote reads the sync engine needs. It does
// no rate limiting or retrying, that is the job of Fetcher. Objects are
// returned as the JSON the remote sent, so block and property types the
// client library does not know survive, and so do null values.
type NotionClient interface {
	GetDatabaseByID(context.Context, DatabaseID) (json.RawMessage, error)
	GetDatabasePages(context.Context, DatabaseID, notionapi.Cursor) ([]json.RawMessage, notionapi.Cursor, error)
	GetPageByID(context.Context, PageID) (json.RawMessage, error)
	GetChildBlocksOfBlock(context.Context, BlockID, notionapi.Cursor) ([]json.RawMessage, notionapi.Cursor, error)
}

type NotionApiClient struct {
	Client   *notionapi.Client
	PageSize int
}

// Function to get NotionApiClient instance. transport carries the requests,
// http.DefaultTransport when nil.
func GetNotionApiClient(ctx context.Context, token notionapi.Token,
	newClient NewClient, transport http.RoundTripper) NotionClient {
	if transport == nil {
		transport = http.DefaultTransport
	}
	httpClient := &http.Client{Transport: &bodyTransport{base: transport}}

	return &NotionApiClient{
		Client: newClient(token,
			notionapi.WithHTTPClient(httpClient),
			notionapi.WithRetry(CLIENT_MAX_ATTEMPTS)),
		PageSize: DEFAULT_PAGE_SIZE,
	}
}

type bodyKey struct{}

// responseBody receives the body of the successful response of one call
type responseBody struct {
	data []byte
}

// bodyTransport keeps a copy of every successful response body for the call
// whose context asked for it. The client library still reads the body.
type bodyTransport struct {
	base http.RoundTripper
}

func (t *bodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	slot, ok := req.Context().Value(bodyKey{}).(*responseBody)
	if !ok || resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	slot.data = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

// raw runs call and returns the body the remote answered with. A decoding
// failure inside the client library is ignored once the body is in hand,
// the sync engine decodes the body itself.
func (c *NotionApiClient) raw(ctx context.Context, op string,
	call func(ctx context.Context) error) (json.RawMessage, error) {
	slot := &responseBody{}
	err := call(context.WithValue(ctx, bodyKey{}, slot))
	if slot.data == nil {
		if err == nil {
			err = errors.Errorf("%s: response body not captured", op)
		}
		return nil, err
	}

	if err != nil {
		zerolog.Ctx(ctx).Debug().Str(logging.Operation, op).Err(err).
			Msg(logging.ClientDecodeIgnored)
	}
	return slot.data, nil
}

// listResponse is the envelope shared by paginated endpoints
type listResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor *string           `json:"next_cursor"`
}

func decodeList(op string, data json.RawMessage) ([]json.RawMessage, notionapi.Cursor, error) {
	list := listResponse{}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, "", errors.Wrapf(err, "%s: decode response", op)
	}

	var cursor notionapi.Cursor
	if list.HasMore && list.NextCursor != nil {
		cursor = notionapi.Cursor(*list.NextCursor)
	}
	if list.Results == nil {
		list.Results = []json.RawMessage{}
	}
	return list.Results, cursor, nil
}

func (c *NotionApiClient) pageSize() int {
	if c.PageSize <= 0 || c.PageSize > DEFAULT_PAGE_SIZE {
		return DEFAULT_PAGE_SIZE
	}
	return c.PageSize
}

// Get Database with given DatabaseID
func (c *NotionApiClient) GetDatabaseByID(ctx context.Context, id DatabaseID) (json.RawMessage, error) {
	return c.raw(ctx, OP_GET_DATABASE, func(ctx context.Context) error {
		_, err := c.Client.Database.Get(ctx, notionapi.DatabaseID(id))
		return err
	})
}

// Get one page of the pages of given Database. An empty cursor is returned
// with the last page of results.
func (c *NotionApiClient) GetDatabasePages(ctx context.Context, id DatabaseID, cursor notionapi.Cursor) ([]json.RawMessage, notionapi.Cursor, error) {
	queryReq := &notionapi.DatabaseQueryRequest{
		StartCursor: cursor,
		PageSize:    c.pageSize(),
	}

	data, err := c.raw(ctx, OP_QUERY_DATABASE, func(ctx context.Context) error {
		_, err := c.Client.Database.Query(ctx, notionapi.DatabaseID(id), queryReq)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return decodeList(OP_QUERY_DATABASE, data)
}

// Get Page with given PageID
func (c *NotionApiClient) GetPageByID(ctx context.Context, id PageID) (json.RawMessage, error) {
	return c.raw(ctx, OP_GET_PAGE, func(ctx context.Context) error {
		_, err := c.Client.Page.Get(ctx, notionapi.PageID(id))
		return err
	})
}

// Get one page of child blocks of given block, which can be either page or
// block
func (c *NotionApiClient) GetChildBlocksOfBlock(ctx context.Context, id BlockID, cursor notionapi.Cursor) ([]json.RawMessage, notionapi.Cursor, error) {
	pagination := &notionapi.Pagination{
		StartCursor: cursor,
		PageSize:    c.pageSize(),
	}

	data, err := c.raw(ctx, OP_GET_CHILDREN, func(ctx context.Context) error {
		_, err := c.Client.Block.GetChildren(ctx, notionapi.BlockID(id), pagination)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return decodeList(OP_GET_CHILDREN, data)
}
