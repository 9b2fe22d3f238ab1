package notionclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/sawantshivaji1997/notionsync/src/model"
)

// ErrDone is returned by PageIterator.Next when every page was returned.
var ErrDone = errors.New("no more pages in iterator")

type listedPage struct {
	page model.Page
	err  error
}

// PageIterator lazily walks the pages of one database, one remote result
// page at a time. The cursor only advances after a result page was fetched
// successfully, so calling Next again after an error resumes where the
// iterator stopped without returning any page twice. A listed page that
// cannot be decoded is returned as an error scoped to that page, and the
// iteration goes on with the next one. A page without an id is named after
// the database, the cursor and its position.
type PageIterator struct {
	fetcher    *Fetcher
	databaseID DatabaseID
	cursor     notionapi.Cursor
	buffer     []listedPage
	exhausted  bool
}

// Cursor returns the cursor of the next result page to fetch.
func (iter *PageIterator) Cursor() string {
	return string(iter.cursor)
}

func (iter *PageIterator) Next(ctx context.Context) (model.Page, error) {
	for len(iter.buffer) == 0 {
		if iter.exhausted {
			return model.Page{}, ErrDone
		}

		if err := iter.fetchNext(ctx); err != nil {
			return model.Page{}, err
		}
	}

	listed := iter.buffer[0]
	iter.buffer = iter.buffer[1:]
	return listed.page, listed.err
}

func (iter *PageIterator) fetchNext(ctx context.Context) error {
	var remote []json.RawMessage
	var next notionapi.Cursor

	err := iter.fetcher.do(ctx, OP_QUERY_DATABASE, scopeDatabase,
		func(ctx context.Context) error {
			var err error
			remote, next, err = iter.fetcher.client.GetDatabasePages(ctx,
				iter.databaseID, iter.cursor)
			return err
		})
	if err != nil {
		return err
	}

	for i, data := range remote {
		page, err := toModelPage(OP_QUERY_DATABASE, data)
		if err != nil {
			if page.ID == "" {
				page.ID = fmt.Sprintf("%s/%s#%d", iter.databaseID, iter.cursor, i)
				err = withPage(err, page.ID)
			}
			zerolog.Ctx(ctx).Warn().
				Str(logging.PageID, page.ID).
				Err(err).
				Msg(logging.PageDecodeErr)
		}
		iter.buffer = append(iter.buffer, listedPage{page: page, err: err})
	}

	iter.cursor = next
	if next == "" {
		iter.exhausted = true
	}
	return nil
}
