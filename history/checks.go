package history

import "time"

// CheckOrdering verifies that entries are sorted most-recent-first: no entry may have a
// timestamp later than the entry before it. Deletions are ordered by the time of deletion.
func CheckOrdering(entries []Entry) error {
	var previous time.Time
	for i, e := range entries {
		ts, ok := e.Timestamp()
		if !ok {
			return &OrderingViolation{Index: i, Identity: e.Identity(), MissingTimestamp: true}
		}
		if i > 0 && ts.After(previous) {
			return &OrderingViolation{Index: i, Identity: e.Identity(), Expected: previous, Actual: ts}
		}
		previous = ts
	}
	return nil
}

// VerifySymmetry compares the entry counts of a forward and a backward traversal. This is
// only meaningful if the collection did not change between the two traversals.
func VerifySymmetry(forwardTotal, backwardTotal int) error {
	if forwardTotal != backwardTotal {
		return &PagingAsymmetry{Forward: forwardTotal, Backward: backwardTotal}
	}
	return nil
}

// VerifySinceFilter checks a collection that was requested with a lower bound of since.
// Every entry must have changed at or after since. If since is strictly after reference,
// the time of the most recent change, the collection must be empty.
func VerifySinceFilter(entries []Entry, since, reference time.Time) error {
	if since.After(reference) && len(entries) > 0 {
		ts, _ := entries[0].Timestamp()
		return &SinceFilterViolation{Identity: entries[0].Identity(), Since: since, Actual: ts, AfterLatest: true}
	}
	for _, e := range entries {
		ts, ok := e.Timestamp()
		if !ok {
			return &SinceFilterViolation{Identity: e.Identity(), Since: since, MissingTimestamp: true}
		}
		if ts.Before(since) {
			return &SinceFilterViolation{Identity: e.Identity(), Since: since, Actual: ts}
		}
	}
	return nil
}

// FilterSince returns the entries that changed at or after since, in their original order.
// Entries without a timestamp are dropped.
func FilterSince(entries []Entry, since time.Time) []Entry {
	var ret []Entry
	for _, e := range entries {
		if ts, ok := e.Timestamp(); ok && !ts.Before(since) {
			ret = append(ret, e)
		}
	}
	return ret
}

// MostRecent returns the latest timestamp in the collection.
func MostRecent(entries []Entry) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, e := range entries {
		if ts, ok := e.Timestamp(); ok && (!found || ts.After(latest)) {
			latest, found = ts, true
		}
	}
	return latest, found
}

// MissingIdentities returns the identities in want that do not appear in entries.
func MissingIdentities(entries []Entry, want []string) []string {
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		present[e.Identity()] = true
	}
	var missing []string
	for _, w := range want {
		if !present[w] {
			missing = append(missing, w)
		}
	}
	return missing
}
