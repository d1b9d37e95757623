package fhirtests

import (
	"context"
	"net/http"

	"github.com/sprinkler-fhir/sprinkler/fhirclient"
	"github.com/sprinkler-fhir/sprinkler/framework"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const CRUDModule = "CRUD"

const (
	keyCRUDResource = "crud.resource"
	keyCRUDDeleted  = "crud.deleted"
)

// CRUDCases depend on each other in priority order: each one skips if the case before it did
// not leave the resource it needs in the fixture.
func CRUDCases() []framework.TestCase {
	return []framework.TestCase{
		{Code: "CR01", Title: "Create a resource", Priority: 1, Action: Case(doCreate)},
		{Code: "CR02", Title: "Read the created resource", Priority: 2, Action: Case(doRead)},
		{Code: "CR03", Title: "Update the created resource", Priority: 3, Action: Case(doUpdate)},
		{Code: "CR04", Title: "Read the previous version of the updated resource", Priority: 4, Action: Case(doVReadPrevious)},
		{Code: "CR05", Title: "Delete the resource", Priority: 5, Action: Case(doDelete)},
		{Code: "CR06", Title: "Read the deleted resource returns 410 Gone", Priority: 6, Action: Case(doReadDeleted)},
	}
}

func requireCreated(t *T) fhirclient.Resource {
	stored, ok := t.Fixture().Load(keyCRUDResource)
	if !ok || !t.Fixture().CreatedResource.IsDefined() {
		t.Skip("no resource was created by CR01")
	}
	return stored.(fhirclient.Resource)
}

func rememberVersion(t *T, r fhirclient.Resource) {
	t.Fixture().RecordVersion(r.SelfLink.String())
	t.Fixture().Store(keyCRUDResource, r)
}

func doCreate(t *T) {
	created := t.Create(DemoPatient())
	assert.Equal(t, http.StatusCreated, t.client.LastResponse().StatusCode)
	require.NotEmpty(t, created.SelfLink.ID, "server did not assign an id")
	assert.True(t, created.SelfLink.IsVersionSpecific(), "Location %q is not version-specific",
		t.client.LastResponse().Location)
	rememberVersion(t, created)
}

func doRead(t *T) {
	created := requireCreated(t)
	read := t.Read(created.SelfLink.WithoutVersion())
	t.AssertValidResourceContentTypePresent()
	t.AssertContentLocationValidIfPresent()
	assert.Equal(t, created.SelfLink.ID, read.SelfLink.ID)
	assert.Equal(t, familyName(DemoPatient()), familyName(read.Body), "read returned different content")
}

func doUpdate(t *T) {
	current := requireCreated(t)
	current.Body = withTelecom(current.Body, "email", "info@furore.com")
	updated := t.Update(current)
	assert.Equal(t, current.SelfLink.ID, updated.SelfLink.ID)
	if assert.True(t, updated.SelfLink.IsVersionSpecific(), "update did not report the new version") {
		assert.NotEqual(t, current.SelfLink.VersionID, updated.SelfLink.VersionID, "update did not create a new version")
	}
	rememberVersion(t, updated)
}

func doVReadPrevious(t *T) {
	requireCreated(t)
	versions := t.Fixture().Versions
	if len(versions) < 2 {
		t.Skip("no update was made by CR03")
	}
	previous, err := fhirclient.ParseIdentity(versions[len(versions)-2])
	require.NoError(t, err)
	read := t.Read(previous)
	if location, ok := t.AssertContentLocationPresentAndValid(); ok {
		assert.Equal(t, previous.VersionID, location.VersionID)
	}
	assert.Equal(t, 1, read.Body.GetByKey("telecom").Count(), "previous version should not have the added telecom")
}

func doDelete(t *T) {
	created := requireCreated(t)
	t.Delete(created.SelfLink)
	t.Fixture().Store(keyCRUDDeleted, true)
}

func doReadDeleted(t *T) {
	created := requireCreated(t)
	if _, ok := t.Fixture().Load(keyCRUDDeleted); !ok {
		t.Skip("the resource was not deleted by CR05")
	}
	t.RequireFailStatus(http.StatusGone, "read of deleted resource", func(ctx context.Context) error {
		_, err := t.client.Read(ctx, created.SelfLink.WithoutVersion())
		return err
	})
}
