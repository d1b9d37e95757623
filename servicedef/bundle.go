package servicedef

import "gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

const (
	ResourceTypeBundle           = "Bundle"
	ResourceTypeOperationOutcome = "OperationOutcome"

	BundleTypeHistory    = "history"
	BundleTypeSearchSet  = "searchset"
	BundleTypeCollection = "collection"
)

// Link relations used by paged bundles. Some servers write "prev" instead of "previous".
const (
	LinkSelf     = "self"
	LinkFirst    = "first"
	LinkPrevious = "previous"
	LinkPrev     = "prev"
	LinkNext     = "next"
	LinkLast     = "last"
)

// Bundle is a collection of resources, as returned by history and search interactions.
type Bundle struct {
	ResourceType string              `json:"resourceType"`
	ID           string              `json:"id,omitempty"`
	Type         string              `json:"type,omitempty"`
	Total        ldvalue.OptionalInt `json:"total,omitempty"`
	Link         []BundleLink        `json:"link,omitempty"`
	Entry        []BundleEntry       `json:"entry,omitempty"`
}

type BundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

// BundleEntry is one entry of a Bundle. In a history bundle, an entry without a resource, or
// whose request method is DELETE, records a deletion.
type BundleEntry struct {
	FullURL  string               `json:"fullUrl,omitempty"`
	Resource ldvalue.Value        `json:"resource,omitempty"`
	Request  *BundleEntryRequest  `json:"request,omitempty"`
	Response *BundleEntryResponse `json:"response,omitempty"`
}

type BundleEntryRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

type BundleEntryResponse struct {
	Status       string `json:"status"`
	Location     string `json:"location,omitempty"`
	Etag         string `json:"etag,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
}

// LinkURL returns the URL of the link with the given relation, or "" if there is none.
func (b Bundle) LinkURL(relation string) string {
	for _, l := range b.Link {
		if l.Relation == relation {
			return l.URL
		}
	}
	return ""
}
