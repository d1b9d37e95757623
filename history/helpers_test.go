package history

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(offsetSeconds int) *time.Time {
	t := baseTime.Add(time.Duration(offsetSeconds) * time.Second)
	return &t
}

func resourceAt(id string, offsetSeconds int) Entry {
	return ResourceEntry{SelfLink: id, LastUpdated: at(offsetSeconds)}
}

func deletionAt(id string, offsetSeconds int) Entry {
	return DeletionEntry{SelfLink: id, When: at(offsetSeconds)}
}

// pagedCollection splits a fixed list of entries into pages of pageSize entries, with next,
// previous, first and last cursors named "page-N".
type pagedCollection struct {
	pages    []*Page
	requests []Cursor
}

func newPagedCollection(total, pageSize int) *pagedCollection {
	var entries []Entry
	for i := 0; i < total; i++ {
		entries = append(entries, resourceAt(fmt.Sprintf("Patient/%d/_history/1", i), -i))
	}
	return newPagedCollectionOf(entries, pageSize)
}

func newPagedCollectionOf(entries []Entry, pageSize int) *pagedCollection {
	c := &pagedCollection{}
	for pos := 0; pos < len(entries) || pos == 0; pos += pageSize {
		end := pos + pageSize
		if end > len(entries) {
			end = len(entries)
		}
		c.pages = append(c.pages, &Page{Entries: entries[pos:end], Cursors: make(map[Direction]Cursor)})
		if len(entries) == 0 {
			break
		}
	}
	last := len(c.pages) - 1
	for i, p := range c.pages {
		p.Cursors[First] = pageCursor(0)
		p.Cursors[Last] = pageCursor(last)
		if i < last {
			p.Cursors[Next] = pageCursor(i + 1)
		}
		if i > 0 {
			p.Cursors[Previous] = pageCursor(i - 1)
		}
	}
	return c
}

func pageCursor(i int) Cursor {
	return Cursor(fmt.Sprintf("page-%d", i))
}

func (c *pagedCollection) first() *Page {
	return c.pages[0]
}

func (c *pagedCollection) Follow(ctx context.Context, cursor Cursor) (*Page, error) {
	c.requests = append(c.requests, cursor)
	for i, p := range c.pages {
		if pageCursor(i) == cursor {
			return p, nil
		}
	}
	return nil, errors.New("unknown cursor")
}
