// Package history verifies timestamp-ordered, paginated history collections returned by a
// resource server: ordering within a page, forward and backward traversal through pages,
// and the lower-bound filtering done by the _since parameter.
//
// The package does not talk to a server itself. Pages are obtained through a PageSource,
// which the protocol client implements.
package history

import (
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Entry is one record of a history collection: either a snapshot of a resource version or a
// marker for a deletion.
type Entry interface {
	// Identity is the version-specific URI of the record.
	Identity() string
	// Timestamp is the time of the change. It is false if the server did not provide one.
	Timestamp() (time.Time, bool)
	// Deleted is true for deletion markers.
	Deleted() bool
}

// ResourceEntry is a snapshot of one version of a resource.
type ResourceEntry struct {
	SelfLink    string
	FullURL     string
	LastUpdated *time.Time
	Resource    ldvalue.Value
}

func (e ResourceEntry) Identity() string { return e.SelfLink }

func (e ResourceEntry) Timestamp() (time.Time, bool) {
	if e.LastUpdated == nil {
		return time.Time{}, false
	}
	return *e.LastUpdated, true
}

func (e ResourceEntry) Deleted() bool { return false }

// DeletionEntry marks the deletion of a resource. Its timestamp is the time of deletion.
type DeletionEntry struct {
	SelfLink string
	FullURL  string
	When     *time.Time
}

func (e DeletionEntry) Identity() string { return e.SelfLink }

func (e DeletionEntry) Timestamp() (time.Time, bool) {
	if e.When == nil {
		return time.Time{}, false
	}
	return *e.When, true
}

func (e DeletionEntry) Deleted() bool { return true }
