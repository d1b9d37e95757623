package fhirtests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sprinkler-fhir/sprinkler/fakefhir"
	"github.com/sprinkler-fhir/sprinkler/fhirclient"
	"github.com/sprinkler-fhir/sprinkler/framework"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPageSize = 5

func casesOf(t *testing.T, module string) []framework.TestCase {
	registry := framework.NewRegistry()
	require.NoError(t, RegisterAll(registry))
	cases := registry.ListCases(module)
	require.NotEmpty(t, cases)
	return cases
}

func runAgainstHandler(t *testing.T, handler http.Handler, module string) framework.Results {
	var results framework.Results
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		client, err := fhirclient.NewClient(server.URL, nil, nil)
		require.NoError(t, err)
		env, err := NewEnvironment(client)
		require.NoError(t, err)
		env.PageSize = testPageSize
		results = framework.RunModule(context.Background(), module, casesOf(t, module), env,
			framework.RunOptions{CaseTimeout: time.Second * 5})
	})
	return results
}

// runAgainstFake runs one module against a fake server that already holds seed Patients.
func runAgainstFake(t *testing.T, opts fakefhir.Options, seed int, module string) framework.Results {
	fake := fakefhir.New(opts)
	fake.Seed("Patient", seed)
	return runAgainstHandler(t, fake, module)
}

func requireOutcome(t *testing.T, results framework.Results, code string, expected framework.Outcome) framework.TestResult {
	result, ok := results.Find(code)
	require.True(t, ok, "no result for %s", code)
	require.Equal(t, expected, result.Outcome, "outcome of %s: %s", code, result.Message())
	return result
}

func assertAllPassed(t *testing.T, results framework.Results) {
	for _, r := range results.Tests {
		assert.Equal(t, framework.OutcomePassed, r.Outcome, "%s: %s", r.TestID, r.Message())
	}
}
