package fhirclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sprinkler-fhir/sprinkler/history"
	"github.com/sprinkler-fhir/sprinkler/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// HistoryQuery selects a history collection. With an ID it is the history of one instance,
// with only a ResourceType the history of the type, and with neither the history of the
// whole system.
type HistoryQuery struct {
	ResourceType string
	ID           string
	// Since is the lower bound of the _since parameter, if any.
	Since *time.Time
	// Count is the requested page size (_count), if any.
	Count ldvalue.OptionalInt
}

func (q HistoryQuery) path() string {
	switch {
	case q.ID != "":
		return ResourceIdentity{ResourceType: q.ResourceType, ID: q.ID}.Path() + "/" + historySegment
	case q.ResourceType != "":
		return q.ResourceType + "/" + historySegment
	default:
		return historySegment
	}
}

// History fetches the first page of a history collection.
func (c *Client) History(ctx context.Context, q HistoryQuery) (*history.Page, error) {
	if q.ID != "" && q.ResourceType == "" {
		return nil, fmt.Errorf("instance history for %q needs a resource type", q.ID)
	}
	query := make(url.Values)
	if q.Since != nil {
		query.Set("_since", q.Since.UTC().Format(servicedef.InstantFormat))
	}
	if n, ok := q.Count.Get(); ok {
		query.Set("_count", strconv.Itoa(n))
	}
	return c.fetchPage(ctx, request{method: http.MethodGet, target: q.path(), query: query})
}

// Follow fetches the page a navigation cursor points to. It implements history.PageSource.
func (c *Client) Follow(ctx context.Context, cursor history.Cursor) (*history.Page, error) {
	return c.fetchPage(ctx, request{method: http.MethodGet, target: string(cursor)})
}

// Continue fetches the page in the given direction from page. It returns nil, with no error,
// if page has no link in that direction.
func (c *Client) Continue(ctx context.Context, page *history.Page, direction history.Direction) (*history.Page, error) {
	cursor, ok := page.Cursor(direction)
	if !ok {
		return nil, nil
	}
	return c.Follow(ctx, cursor)
}

func (c *Client) fetchPage(ctx context.Context, r request) (*history.Page, error) {
	details, data, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	var bundle servicedef.Bundle
	if err := decodeBody(details, data, &bundle); err != nil {
		return nil, err
	}
	if bundle.ResourceType != servicedef.ResourceTypeBundle {
		return nil, fmt.Errorf("%s %s returned a %q instead of a Bundle", details.Method, details.URL, bundle.ResourceType)
	}
	return c.pageFromBundle(bundle), nil
}

func (c *Client) pageFromBundle(b servicedef.Bundle) *history.Page {
	page := &history.Page{Cursors: make(map[history.Direction]history.Cursor), Total: b.Total}
	for _, l := range b.Link {
		if d, ok := linkDirection(l.Relation); ok && l.URL != "" {
			page.Cursors[d] = history.Cursor(l.URL)
		}
	}
	for _, e := range b.Entry {
		selfLink := c.entrySelfLink(e)
		if isDeletion(e) {
			deletion := history.DeletionEntry{SelfLink: selfLink, FullURL: e.FullURL}
			if e.Response != nil {
				deletion.When = servicedef.ParseInstant(e.Response.LastModified)
			}
			page.Entries = append(page.Entries, deletion)
			continue
		}
		page.Entries = append(page.Entries, history.ResourceEntry{
			SelfLink:    selfLink,
			FullURL:     e.FullURL,
			LastUpdated: servicedef.LastUpdated(e.Resource),
			Resource:    e.Resource,
		})
	}
	return page
}

func linkDirection(relation string) (history.Direction, bool) {
	switch relation {
	case servicedef.LinkNext:
		return history.Next, true
	case servicedef.LinkPrevious, servicedef.LinkPrev:
		return history.Previous, true
	case servicedef.LinkFirst:
		return history.First, true
	case servicedef.LinkLast:
		return history.Last, true
	}
	return "", false
}

func isDeletion(e servicedef.BundleEntry) bool {
	if e.Request != nil && strings.EqualFold(e.Request.Method, http.MethodDelete) {
		return true
	}
	return e.Resource.IsNull()
}

// entrySelfLink returns the absolute version-specific identity of an entry: the response
// location if it parses, otherwise one built from the resource's id and version.
func (c *Client) entrySelfLink(e servicedef.BundleEntry) string {
	if e.Response != nil && e.Response.Location != "" {
		if id, err := ParseIdentity(e.Response.Location); err == nil {
			return c.absolute(id).String()
		}
	}
	if !e.Resource.IsNull() {
		resourceType, id := servicedef.ResourceType(e.Resource), servicedef.ResourceID(e.Resource)
		if resourceType != "" && id != "" {
			return c.absolute(ResourceIdentity{
				ResourceType: resourceType,
				ID:           id,
				VersionID:    servicedef.VersionID(e.Resource),
			}).String()
		}
	}
	for _, candidate := range []string{requestURL(e), e.FullURL} {
		if id, err := ParseIdentity(candidate); err == nil {
			return c.absolute(id).String()
		}
	}
	return e.FullURL
}

func requestURL(e servicedef.BundleEntry) string {
	if e.Request == nil {
		return ""
	}
	return e.Request.URL
}
