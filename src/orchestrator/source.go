package orchestrator

import (
	"context"

	"github.com/sawantshivaji1997/notionsync/src/model"
	"github.com/sawantshivaji1997/notionsync/src/notionclient"
	"github.com/sawantshivaji1997/notionsync/src/tree/node"
)

// PageIterator returns pages in listing order and notionclient.ErrDone at
// the end.
type PageIterator interface {
	Next(ctx context.Context) (model.Page, error)
}

// Source is the remote side of a sync.
type Source interface {
	ListPages(ctx context.Context, databaseID string) PageIterator
	GetPage(ctx context.Context, pageID string) (model.Page, error)
	FetchContent(ctx context.Context, pageID string) (*node.Node, error)
	Ping(ctx context.Context, databaseID string) error
}

type notionSource struct {
	fetcher *notionclient.Fetcher
}

// NotionSource reads pages through the rate limited fetch client.
func NotionSource(fetcher *notionclient.Fetcher) Source {
	return &notionSource{fetcher: fetcher}
}

func (s *notionSource) ListPages(ctx context.Context, databaseID string) PageIterator {
	return s.fetcher.ListPages(notionclient.DatabaseID(databaseID))
}

func (s *notionSource) GetPage(ctx context.Context, pageID string) (model.Page, error) {
	return s.fetcher.GetPage(ctx, notionclient.PageID(pageID))
}

func (s *notionSource) FetchContent(ctx context.Context, pageID string) (*node.Node, error) {
	return s.fetcher.FetchContent(ctx, notionclient.PageID(pageID))
}

func (s *notionSource) Ping(ctx context.Context, databaseID string) error {
	return s.fetcher.Ping(ctx, notionclient.DatabaseID(databaseID))
}
