package fhirtests

import (
	"net/url"

	"github.com/sprinkler-fhir/sprinkler/fhirclient"
	"github.com/sprinkler-fhir/sprinkler/history"
	"github.com/sprinkler-fhir/sprinkler/servicedef"
)

// AssertEntryIDsArePresentAndAbsoluteURLs checks that every entry of a page has an id (its
// fullUrl) and a self link, both of them absolute URLs.
func (t *T) AssertEntryIDsArePresentAndAbsoluteURLs(page *history.Page) {
	if page == nil {
		return
	}
	for i, e := range page.Entries {
		var fullURL string
		switch entry := e.(type) {
		case history.ResourceEntry:
			fullURL = entry.FullURL
		case history.DeletionEntry:
			fullURL = entry.FullURL
		}
		if fullURL == "" {
			t.Errorf("entry %d (%s) has no id", i, e.Identity())
		} else if !fhirclient.IsAbsoluteURL(fullURL) {
			t.Errorf("entry %d has an id that is not an absolute URL: %q", i, fullURL)
		}
		if !fhirclient.IsAbsoluteURL(e.Identity()) {
			t.Errorf("entry %d has a self link that is not an absolute URL: %q", i, e.Identity())
		}
	}
}

// AssertHasAllForwardNavigationLinks checks that a page has first, next and last links.
func (t *T) AssertHasAllForwardNavigationLinks(page *history.Page) {
	for _, d := range []history.Direction{history.First, history.Next, history.Last} {
		if _, ok := page.Cursor(d); !ok {
			t.Errorf("page is missing the %q navigation link", d)
		}
	}
}

// AssertValidResourceContentTypePresent checks the Content-Type of the last response.
func (t *T) AssertValidResourceContentTypePresent() {
	contentType := t.client.LastResponse().ContentType
	if contentType == "" {
		t.Errorf("response has no Content-Type")
	} else if !servicedef.IsResourceContentType(contentType) {
		t.Errorf("response has Content-Type %q, which is not a resource format", contentType)
	}
}

// AssertContentLocationValidIfPresent checks that the Content-Location of the last response,
// if there is one, is a well-formed URL.
func (t *T) AssertContentLocationValidIfPresent() {
	location := t.client.LastResponse().ContentLocation
	if location == "" {
		return
	}
	if _, err := url.Parse(location); err != nil {
		t.Errorf("Content-Location %q is not a valid URL", location)
	}
}

// AssertContentLocationPresentAndValid checks that the last response has a Content-Location
// naming a specific version of a resource, and returns it.
func (t *T) AssertContentLocationPresentAndValid() (fhirclient.ResourceIdentity, bool) {
	location := t.client.LastResponse().ContentLocation
	if location == "" {
		t.Errorf("response has no Content-Location")
		return fhirclient.ResourceIdentity{}, false
	}
	id, err := fhirclient.ParseIdentity(location)
	if err != nil || id.ID == "" || !id.IsVersionSpecific() {
		t.Errorf("Content-Location %q is not a valid version-specific URL", location)
		return fhirclient.ResourceIdentity{}, false
	}
	return id, true
}

// AssertOrdered records a failure if a page is not sorted most-recent-first.
func (t *T) AssertOrdered(page *history.Page) {
	if err := history.CheckOrdering(page.Entries); err != nil {
		t.Errorf("%s", err)
	}
}
