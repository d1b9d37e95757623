package history

import (
	"context"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Direction names a navigation link of a paged collection.
type Direction string

const (
	Next     Direction = "next"
	Previous Direction = "previous"
	First    Direction = "first"
	Last     Direction = "last"
)

// Cursor is an opaque continuation token, in practice the URL of another page.
type Cursor string

// Page is one page of a history collection, in the order the server returned it.
type Page struct {
	Entries []Entry
	Cursors map[Direction]Cursor
	// Total is the size of the whole collection, if the server reported it.
	Total ldvalue.OptionalInt
}

func (p *Page) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Entries)
}

// Cursor returns the navigation cursor for a direction, if the page has one.
func (p *Page) Cursor(d Direction) (Cursor, bool) {
	if p == nil {
		return "", false
	}
	c, ok := p.Cursors[d]
	return c, ok && c != ""
}

// PageSource resolves a cursor into the page it identifies.
type PageSource interface {
	Follow(ctx context.Context, cursor Cursor) (*Page, error)
}

// PageSourceFunc adapts a function to PageSource.
type PageSourceFunc func(ctx context.Context, cursor Cursor) (*Page, error)

func (f PageSourceFunc) Follow(ctx context.Context, cursor Cursor) (*Page, error) {
	return f(ctx, cursor)
}

// LastPage returns the last page of the collection that starts with first. A collection
// whose first page has no next cursor is its own last page.
func LastPage(ctx context.Context, source PageSource, first *Page) (*Page, error) {
	if c, ok := first.Cursor(Last); ok {
		return source.Follow(ctx, c)
	}
	if _, ok := first.Cursor(Next); !ok {
		return first, nil
	}
	return nil, &MissingCursorError{Direction: Last}
}
