package history

import (
	"context"
	"fmt"
)

// Walker traverses a paged collection in one direction, one page at a time.
//
// Use it like bufio.Scanner:
//
//	w := history.WalkForward(client, first, 30)
//	for w.Next(ctx) {
//		inspect(w.Page())
//	}
//	if err := w.Err(); err != nil { ... }
//
// The first call to Next yields the starting page; each later call follows one cursor. The
// traversal ends when a page has no cursor in the walking direction, when a page is empty,
// or on the first error. A Walker cannot be restarted, and never has more than one request
// outstanding.
type Walker struct {
	source    PageSource
	direction Direction
	pageSize  int
	pending   *Page
	current   *Page
	visited   map[Cursor]bool
	pages     int
	total     int
	err       error
	done      bool
}

// WalkForward follows next cursors starting from first. If pageSize is positive, every page
// must have at most that many entries.
func WalkForward(source PageSource, first *Page, pageSize int) *Walker {
	return newWalker(source, first, Next, pageSize)
}

// WalkBackward follows previous cursors starting from last.
func WalkBackward(source PageSource, last *Page, pageSize int) *Walker {
	return newWalker(source, last, Previous, pageSize)
}

func newWalker(source PageSource, start *Page, direction Direction, pageSize int) *Walker {
	return &Walker{
		source:    source,
		direction: direction,
		pageSize:  pageSize,
		pending:   start,
		visited:   make(map[Cursor]bool),
		done:      start == nil,
	}
}

// Next advances to the next page. It returns false when the traversal is over.
func (w *Walker) Next(ctx context.Context) bool {
	if w.done {
		return false
	}

	page := w.pending
	w.pending = nil
	if page == nil {
		cursor, ok := w.current.Cursor(w.direction)
		if !ok || w.current.Size() == 0 {
			w.done = true
			return false
		}
		if w.visited[cursor] {
			return w.fail(&CursorCycleError{Direction: w.direction, Cursor: cursor})
		}
		w.visited[cursor] = true

		p, err := w.source.Follow(ctx, cursor)
		if err != nil {
			return w.fail(fmt.Errorf("following %s link of page %d: %w", w.direction, w.pages, err))
		}
		if p == nil {
			w.done = true
			return false
		}
		page = p
	}

	if w.pageSize > 0 && page.Size() > w.pageSize {
		return w.fail(&PageSizeViolation{Page: w.pages + 1, Size: page.Size(), Limit: w.pageSize})
	}
	w.current = page
	w.pages++
	w.total += page.Size()
	return true
}

func (w *Walker) fail(err error) bool {
	w.err = err
	w.done = true
	return false
}

// Page returns the page produced by the last successful call to Next.
func (w *Walker) Page() *Page {
	return w.current
}

// Total is the number of entries on all pages produced so far.
func (w *Walker) Total() int {
	return w.total
}

// Pages is the number of pages produced so far.
func (w *Walker) Pages() int {
	return w.pages
}

// Err returns the error that ended the traversal, if any.
func (w *Walker) Err() error {
	return w.err
}

// Drain walks the rest of the collection and returns the total entry count, calling visit
// for each page if visit is not nil.
func (w *Walker) Drain(ctx context.Context, visit func(*Page)) (int, error) {
	for w.Next(ctx) {
		if visit != nil {
			visit(w.Page())
		}
	}
	return w.total, w.err
}
