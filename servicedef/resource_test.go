package servicedef

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func TestIsResourceContentType(t *testing.T) {
	for _, value := range []string{
		"application/fhir+json",
		"application/fhir+json; charset=utf-8",
		"Application/JSON+FHIR",
		"application/fhir+xml;charset=UTF-8",
		"application/xml+fhir",
	} {
		assert.True(t, IsResourceContentType(value), value)
	}
	for _, value := range []string{"", "application/json", "text/html; charset=utf-8"} {
		assert.False(t, IsResourceContentType(value), value)
	}
}

func TestWithMeta(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 500, time.FixedZone("x", 3600))
	patient := ldvalue.ObjectBuild().
		Set("resourceType", ldvalue.String("Patient")).
		Set("id", ldvalue.String("p1")).
		Set("meta", ldvalue.ObjectBuild().Set("versionId", ldvalue.String("1")).Build()).
		Build()

	updated := WithMeta(patient, "2", when)

	assert.Equal(t, "Patient", ResourceType(updated))
	assert.Equal(t, "p1", ResourceID(updated))
	assert.Equal(t, "2", VersionID(updated))
	require.NotNil(t, LastUpdated(updated))
	assert.True(t, when.Equal(*LastUpdated(updated)))
	assert.Equal(t, "1", VersionID(patient), "the input must not change")
}

func TestParseInstant(t *testing.T) {
	assert.Nil(t, ParseInstant(""))
	assert.Nil(t, ParseInstant("yesterday"))
	ts := ParseInstant("2024-03-01T12:00:00.123Z")
	require.NotNil(t, ts)
	assert.Equal(t, 123*time.Millisecond, time.Duration(ts.Nanosecond()))
}

func TestBundleFromJSON(t *testing.T) {
	data := `{
		"resourceType": "Bundle",
		"type": "history",
		"total": 2,
		"link": [{"relation": "self", "url": "http://x/Patient/_history"}, {"relation": "next", "url": "http://x/Patient/_history?_page=2"}],
		"entry": [
			{"fullUrl": "http://x/Patient/1", "resource": {"resourceType": "Patient", "id": "1"}},
			{"request": {"method": "DELETE", "url": "Patient/2"}, "response": {"status": "204", "lastModified": "2024-03-01T12:00:00Z"}}
		]
	}`
	var b Bundle
	require.NoError(t, json.Unmarshal([]byte(data), &b))

	assert.Equal(t, ResourceTypeBundle, b.ResourceType)
	assert.Equal(t, 2, b.Total.OrElse(0))
	assert.Equal(t, "http://x/Patient/_history?_page=2", b.LinkURL(LinkNext))
	assert.Equal(t, "", b.LinkURL(LinkPrev))
	require.Len(t, b.Entry, 2)
	assert.Equal(t, "Patient", ResourceType(b.Entry[0].Resource))
	assert.True(t, b.Entry[1].Resource.IsNull())
	assert.Equal(t, "DELETE", b.Entry[1].Request.Method)
}

func TestOperationOutcomeSummary(t *testing.T) {
	o := OperationOutcome{Issue: []OutcomeIssue{
		{Severity: "error", Code: "not-found", Diagnostics: "Patient/9 is not known"},
		{Severity: "warning", Code: "informational"},
	}}
	assert.Equal(t, "error: Patient/9 is not known; warning: informational", o.Summary())
}
