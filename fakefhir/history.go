package fakefhir

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sprinkler-fhir/sprinkler/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const pageParam = "_page"

func (s *Server) serveHistory(w http.ResponseWriter, req *http.Request, base, resourceType, id string) {
	query := req.URL.Query()

	var since *time.Time
	if v := query.Get("_since"); v != "" {
		since = servicedef.ParseInstant(v)
		if since == nil {
			writeOutcome(w, http.StatusBadRequest, "invalid", "malformed _since: "+v)
			return
		}
	}
	pageSize := s.opts.DefaultPageSize
	if v := query.Get("_count"); v != "" && !s.opts.IgnoreCount {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeOutcome(w, http.StatusBadRequest, "invalid", "malformed _count: "+v)
			return
		}
		pageSize = n
	}
	pageIndex, _ := strconv.Atoi(query.Get(pageParam))

	var selected []change
	for _, c := range s.changes {
		if (resourceType != "" && c.resourceType != resourceType) || (id != "" && c.id != id) {
			continue
		}
		if since != nil && !s.opts.IgnoreSince && c.when.Before(*since) {
			continue
		}
		selected = append(selected, c)
	}
	if !s.opts.OldestFirst {
		for i, j := 0, len(selected)-1; i < j; i, j = i+1, j-1 {
			selected[i], selected[j] = selected[j], selected[i]
		}
	}

	pageCount := (len(selected) + pageSize - 1) / pageSize
	if pageCount == 0 {
		pageCount = 1
	}
	if pageIndex < 0 || pageIndex >= pageCount {
		pageIndex = 0
	}
	start := pageIndex * pageSize
	end := start + pageSize
	if end > len(selected) {
		end = len(selected)
	}

	pageURL := func(n int) string {
		q := make(url.Values)
		for k, v := range query {
			q[k] = v
		}
		q.Set(pageParam, strconv.Itoa(n))
		return base + req.URL.Path + "?" + q.Encode()
	}
	bundle := servicedef.Bundle{
		ResourceType: servicedef.ResourceTypeBundle,
		Type:         servicedef.BundleTypeHistory,
		Total:        ldvalue.NewOptionalInt(len(selected)),
		Link: []servicedef.BundleLink{
			{Relation: servicedef.LinkSelf, URL: pageURL(pageIndex)},
			{Relation: servicedef.LinkFirst, URL: pageURL(0)},
			{Relation: servicedef.LinkLast, URL: pageURL(pageCount - 1)},
		},
	}
	if pageIndex+1 < pageCount {
		bundle.Link = append(bundle.Link, servicedef.BundleLink{Relation: servicedef.LinkNext, URL: pageURL(pageIndex + 1)})
	}
	if pageIndex > 0 && !s.opts.OmitPreviousLinks {
		bundle.Link = append(bundle.Link, servicedef.BundleLink{Relation: servicedef.LinkPrev, URL: pageURL(pageIndex - 1)})
	}
	for _, c := range selected[start:end] {
		bundle.Entry = append(bundle.Entry, s.historyEntry(base, c))
	}
	s.writeResource(w, http.StatusOK, bundle)
}

func (s *Server) historyEntry(base string, c change) servicedef.BundleEntry {
	fullURL := fmt.Sprintf("%s/%s/%s", base, c.resourceType, c.id)
	if s.opts.RelativeEntryURLs {
		fullURL = fmt.Sprintf("%s/%s", c.resourceType, c.id)
	}
	e := servicedef.BundleEntry{
		FullURL: fullURL,
		Response: &servicedef.BundleEntryResponse{
			Location:     versionURL(base, c),
			LastModified: c.when.Format(servicedef.InstantFormat),
		},
	}
	switch {
	case c.deleted:
		e.Request = &servicedef.BundleEntryRequest{Method: http.MethodDelete, URL: c.key()}
		e.Response.Status = "204"
	case c.versionID == "1":
		e.Resource = c.body
		e.Request = &servicedef.BundleEntryRequest{Method: http.MethodPost, URL: c.resourceType}
		e.Response.Status = "201"
	default:
		e.Resource = c.body
		e.Request = &servicedef.BundleEntryRequest{Method: http.MethodPut, URL: c.key()}
		e.Response.Status = "200"
	}
	return e
}
