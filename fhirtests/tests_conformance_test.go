package fhirtests

import (
	"testing"

	"github.com/sprinkler-fhir/sprinkler/fakefhir"
	"github.com/sprinkler-fhir/sprinkler/framework"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/stretchr/testify/assert"
)

func TestConformancePassesAgainstConformingServer(t *testing.T) {
	results := runAgainstFake(t, fakefhir.Options{MetadataContentLocation: "http://example.com/metadata"}, 0, ConformanceModule)
	assertAllPassed(t, results)
}

func TestConformanceDetectsWrongContentType(t *testing.T) {
	results := runAgainstFake(t, fakefhir.Options{PlainJSON: true}, 0, ConformanceModule)

	r := requireOutcome(t, results, "CN01", framework.OutcomeFailed)
	assert.Contains(t, r.Message(), `Content-Type "application/json; charset=utf-8"`)
}

func TestConformanceDetectsWrongResource(t *testing.T) {
	handler := httphelpers.HandlerWithResponse(200, nil, []byte(`{"resourceType":"Patient"}`))
	results := runAgainstHandler(t, handler, ConformanceModule)

	r := requireOutcome(t, results, "CN01", framework.OutcomeFailed)
	assert.Contains(t, r.Message(), `returned a "Patient" instead of a capability statement`)
}

func TestConformanceIsAnErrorWhenServerIsDown(t *testing.T) {
	results := runAgainstHandler(t, httphelpers.HandlerWithStatus(503), ConformanceModule)
	requireOutcome(t, results, "CN01", framework.OutcomeError)
}
