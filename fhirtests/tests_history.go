package fhirtests

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sprinkler-fhir/sprinkler/fhirclient"
	"github.com/sprinkler-fhir/sprinkler/framework"
	"github.com/sprinkler-fhir/sprinkler/history"

	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/stretchr/testify/assert"
)

const HistoryModule = "History"

const (
	keyInstance       = "history.instance"
	keyInstancePage   = "history.instancePage"
	keyForwardTotal   = "history.forwardTotal"
	unlikelyPatientID = "3141592unlikely"
)

// sinceMargin is subtracted from the creation time for _since queries, to allow for some
// difference between our clock and the server's.
const sinceMargin = time.Minute

func HistoryCases() []framework.TestCase {
	return []framework.TestCase{
		{Code: "HI01", Title: "Request the full history for a specific resource", Priority: 10, Action: Case(doHistoryForSpecificResource)},
		{Code: "HI02", Title: "Request the full history for a resource with _since", Priority: 20, Action: Case(doHistoryForSpecificResourceSince)},
		{Code: "HI03", Title: "Request individual history versions from a resource", Priority: 30, Action: Case(doVReadVersions)},
		{Code: "HI04", Title: "Fetching history of non-existing resource returns exception", Priority: 40, Action: Case(doHistoryForNonExistingResource)},
		{Code: "HI06", Title: "Get all history for a resource type with _since", Priority: 60, Action: Case(doHistoryForResourceType)},
		{Code: "HI08", Title: "Get the history for the whole system with _since", Priority: 80, Action: Case(doHistoryForWholeSystem)},
		{Code: "HI09", Title: "Paging forward through a resource type history", Priority: 90, Action: Case(doPageForwardThroughTypeHistory)},
		{Code: "HI10", Title: "Page backwards through a resource type history", Priority: 100, Action: Case(doPageBackwardThroughTypeHistory)},
		{Code: "HI11", Title: "Fetch first page of full history", Priority: 110, Action: Case(doFullSystemHistory)},
	}
}

// createInstanceHistory creates a Patient, updates it twice and deletes it, so that its
// history has three versions and a deletion.
func createInstanceHistory(t *T) fhirclient.ResourceIdentity {
	f := t.Fixture()
	started := time.Now()

	entry := t.CreateWithID("sprink"+uuid.New().String()[:8], DemoPatient())
	f.RecordVersion(entry.SelfLink.String())

	entry.Body = withTelecom(entry.Body, "email", "info@furore.com")
	entry = t.Update(entry)
	f.RecordVersion(entry.SelfLink.String())

	entry = t.Update(entry)
	f.RecordVersion(entry.SelfLink.String())

	instance := entry.SelfLink.WithoutVersion()
	t.Delete(instance)

	f.LastKnownTimestamp = &started
	f.Store(keyInstance, instance)
	return instance
}

func requireInstance(t *T) (fhirclient.ResourceIdentity, time.Time) {
	instance, ok := t.Fixture().Load(keyInstance)
	if !ok || t.Fixture().LastKnownTimestamp == nil {
		t.Skip("no resource history was created by HI01")
	}
	return instance.(fhirclient.ResourceIdentity), *t.Fixture().LastKnownTimestamp
}

func instanceQuery(id fhirclient.ResourceIdentity, since *time.Time) fhirclient.HistoryQuery {
	return fhirclient.HistoryQuery{ResourceType: id.ResourceType, ID: id.ID, Since: since}
}

func doHistoryForSpecificResource(t *T) {
	instance := createInstanceHistory(t)
	versions := t.Fixture().Versions

	page := t.History(instanceQuery(instance, nil))
	t.AssertEntryIDsArePresentAndAbsoluteURLs(page)
	t.Fixture().Store(keyInstancePage, page)

	// the deletion is an extra entry
	expected := len(versions) + 1
	if page.Size() != expected {
		t.Errorf("%d versions expected after crud test, found %d", expected, page.Size())
	}
	for _, e := range page.Entries {
		if !e.Deleted() && !containsString(versions, e.Identity()) {
			t.Errorf("self link %s on returned version does not match links returned on creation", e.Identity())
		}
	}
	t.AssertOrdered(page)
}

func doHistoryForSpecificResourceSince(t *T) {
	instance, created := requireInstance(t)
	before := created.Add(-sinceMargin)
	after := before.Add(time.Hour)

	page := t.History(instanceQuery(instance, &before))
	t.AssertEntryIDsArePresentAndAbsoluteURLs(page)
	t.AssertOrdered(page)
	if missing := history.MissingIdentities(page.Entries, t.Fixture().Versions); len(missing) > 0 {
		t.Errorf("history with _since does not contain all versions of instance, missing %v", missing)
	}
	if err := history.VerifySinceFilter(page.Entries, before, after); err != nil {
		t.Errorf("%s", err)
	}

	verifyNothingSince(t, instance, after, page.Entries)
}

// verifyNothingSince checks that an instance has no history after a moment later than all of
// its known changes.
func verifyNothingSince(t *T, instance fhirclient.ResourceIdentity, since time.Time, known []history.Entry) {
	reference, ok := history.MostRecent(known)
	if !ok || !reference.Before(since) {
		reference = since.Add(-time.Nanosecond)
	}
	future := t.History(instanceQuery(instance, &since))
	if err := history.VerifySinceFilter(future.Entries, since, reference); err != nil {
		t.Errorf("%s", err)
	}
}

func doVReadVersions(t *T) {
	stored, ok := t.Fixture().Load(keyInstancePage)
	if !ok {
		t.Skip("no instance history was retrieved by HI01")
	}
	page := stored.(*history.Page)

	for _, e := range page.Entries {
		id, err := fhirclient.ParseIdentity(e.Identity())
		if err != nil {
			t.Errorf("history entry has an invalid self link: %s", err)
			continue
		}
		if e.Deleted() {
			t.RequireFailStatus(http.StatusGone, fmt.Sprintf("read of deleted version %s", id),
				func(ctx context.Context) error {
					_, err := t.client.Read(ctx, id)
					return err
				})
			continue
		}

		_, err = t.client.Read(t.ctx(), id)
		t.Fixture().LastResponseHeaders = t.client.LastResponse().Header
		if err != nil {
			if !errors.As(err, new(*fhirclient.StatusError)) {
				t.context.Abort(err)
			}
			t.Errorf("cannot find version %s that was present in history: %s", id, err)
			continue
		}
		if location, ok := t.AssertContentLocationPresentAndValid(); ok {
			assert.Equal(t, id.VersionID, location.VersionID, "Content-Location names a different version")
		}
	}
}

func doHistoryForNonExistingResource(t *T) {
	requireInstance(t)
	id := fhirclient.ResourceIdentity{ResourceType: "Patient", ID: unlikelyPatientID}
	t.RequireFailStatus(http.StatusNotFound, "history of "+id.String(), func(ctx context.Context) error {
		_, err := t.client.History(ctx, instanceQuery(id, nil))
		return err
	})
}

func doHistoryForResourceType(t *T) {
	instance, created := requireInstance(t)
	before := created.Add(-sinceMargin)

	page := t.History(fhirclient.HistoryQuery{ResourceType: instance.ResourceType, Since: &before})
	t.AssertEntryIDsArePresentAndAbsoluteURLs(page)
	t.AssertOrdered(page)
	if err := history.VerifySinceFilter(page.Entries, before, time.Now().Add(sinceMargin)); err != nil {
		t.Errorf("%s", err)
	}

	verifyNothingSince(t, instance, time.Now().Add(sinceMargin), page.Entries)
}

func doHistoryForWholeSystem(t *T) {
	instance, created := requireInstance(t)
	before := created.Add(-sinceMargin)

	page := t.History(fhirclient.HistoryQuery{Since: &before, Count: ldvalue.NewOptionalInt(t.env.PageSize)})
	t.AssertEntryIDsArePresentAndAbsoluteURLs(page)
	if total, ok := page.Total.Get(); ok && total > page.Size() {
		t.AssertHasAllForwardNavigationLinks(page)
	} else if !ok && page.Size() >= t.env.PageSize {
		if _, hasNext := page.Cursor(history.Next); !hasNext {
			t.Errorf("a full page of system history has no next link")
		}
	}
	t.AssertOrdered(page)

	if missing := history.MissingIdentities(page.Entries, t.Fixture().Versions); len(missing) > 0 &&
		page.Size() < t.env.PageSize {
		t.Errorf("history with _since does not contain all versions of instance, missing %v", missing)
	}

	verifyNothingSince(t, instance, time.Now().Add(sinceMargin), page.Entries)
}

func typeHistoryQuery(t *T) fhirclient.HistoryQuery {
	return fhirclient.HistoryQuery{ResourceType: t.env.ResourceType, Count: ldvalue.NewOptionalInt(t.env.PageSize)}
}

func doPageForwardThroughTypeHistory(t *T) {
	first := t.History(typeHistoryQuery(t))

	total, ok := t.Walk(history.WalkForward(t.client, first, t.env.PageSize), t.AssertEntryIDsArePresentAndAbsoluteURLs)
	t.Debug("paged forward through %d entries", total)
	if ok {
		t.Fixture().Store(keyForwardTotal, total)
	}
}

func doPageBackwardThroughTypeHistory(t *T) {
	stored, ok := t.Fixture().Load(keyForwardTotal)
	if !ok {
		t.Skip("paging forward did not complete in HI09")
	}
	forward := stored.(int)

	first := t.History(typeHistoryQuery(t))
	t.AssertEntryIDsArePresentAndAbsoluteURLs(first)
	last, err := history.LastPage(t.ctx(), t.client, first)
	if err != nil {
		t.checkViolation(err)
		t.FailNow()
	}

	backward, ok := t.Walk(history.WalkBackward(t.client, last, t.env.PageSize), t.AssertEntryIDsArePresentAndAbsoluteURLs)
	if !ok {
		return
	}
	t.Debug("paged backward through %d entries", backward)
	if err := history.VerifySymmetry(forward, backward); err != nil {
		t.Errorf("%s", err)
	}
}

func doFullSystemHistory(t *T) {
	page := t.History(fhirclient.HistoryQuery{})
	t.AssertEntryIDsArePresentAndAbsoluteURLs(page)
	t.AssertOrdered(page)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
