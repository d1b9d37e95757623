package history

import (
	"fmt"
	"time"
)

const timeFormat = time.RFC3339Nano

// OrderingViolation means a collection was not sorted most-recent-first, or an entry had no
// timestamp at all.
type OrderingViolation struct {
	Index            int
	Identity         string
	MissingTimestamp bool
	// Expected is the upper bound set by the previous entry.
	Expected time.Time
	Actual   time.Time
}

func (e *OrderingViolation) Error() string {
	if e.MissingTimestamp {
		return fmt.Sprintf("result contains entry with no timestamp (id: %s, position %d)", e.Identity, e.Index)
	}
	return fmt.Sprintf("result is not ordered on last update, first out of order has id %s"+
		" (position %d): expected at or before %s, got %s",
		e.Identity, e.Index, e.Expected.Format(timeFormat), e.Actual.Format(timeFormat))
}

// PagingAsymmetry means forward and backward traversal reached different numbers of entries.
type PagingAsymmetry struct {
	Forward  int
	Backward int
}

func (e *PagingAsymmetry) Error() string {
	return fmt.Sprintf("paging forward returns %d entries, backwards returned %d", e.Forward, e.Backward)
}

// SinceFilterViolation means a result filtered with _since contained an entry from before
// the lower bound, or contained anything at all when the bound was after the latest change.
type SinceFilterViolation struct {
	Identity         string
	Since            time.Time
	Actual           time.Time
	MissingTimestamp bool
	AfterLatest      bool
}

func (e *SinceFilterViolation) Error() string {
	switch {
	case e.AfterLatest:
		return fmt.Sprintf("setting _since to %s, after the last change, still returns history (first id: %s)",
			e.Since.Format(timeFormat), e.Identity)
	case e.MissingTimestamp:
		return fmt.Sprintf("history with _since=%s contains entry with no timestamp (id: %s)",
			e.Since.Format(timeFormat), e.Identity)
	default:
		return fmt.Sprintf("history with _since=%s contains entry %s changed at %s",
			e.Since.Format(timeFormat), e.Identity, e.Actual.Format(timeFormat))
	}
}

// PageSizeViolation means a page had more entries than the requested page size.
type PageSizeViolation struct {
	Page  int
	Size  int
	Limit int
}

func (e *PageSizeViolation) Error() string {
	return fmt.Sprintf("server returned a page with more entries than set by _count (page %d: %d > %d)",
		e.Page, e.Size, e.Limit)
}

// CursorCycleError means traversal reached a cursor it had already followed.
type CursorCycleError struct {
	Direction Direction
	Cursor    Cursor
}

func (e *CursorCycleError) Error() string {
	return fmt.Sprintf("%s link %q was already visited during this traversal", e.Direction, e.Cursor)
}

// MissingCursorError means a navigation link needed for traversal was absent.
type MissingCursorError struct {
	Direction Direction
}

func (e *MissingCursorError) Error() string {
	return fmt.Sprintf("page has no %q navigation link", e.Direction)
}
