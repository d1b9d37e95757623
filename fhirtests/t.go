package fhirtests

import (
	"context"
	"errors"
	"fmt"

	"github.com/sprinkler-fhir/sprinkler/fhirclient"
	"github.com/sprinkler-fhir/sprinkler/framework"
	"github.com/sprinkler-fhir/sprinkler/history"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// T represents one test case in our conformance test suite.
//
// It implements the same basic functionality as Go's testing.T, but in an environment that is
// outside of the Go test runner, and with some extra features such as debug logging that are
// provided by our lower-level framework package.
//
// To make test assertions, you can use the assert and require packages, passing the *T as if it
// were a *testing.T. The protocol methods of T (Create, Read, History, and so on) make the
// case end with an ERROR outcome if the call fails unexpectedly, to reduce the amount of
// boilerplate logic in tests. Use RequireFailStatus for calls that are expected to fail.
type T struct {
	context *framework.Context
	env     *Environment
	client  *fhirclient.Client
}

func newT(c *framework.Context) *T {
	env, ok := c.Environment().(*Environment)
	if !ok {
		panic("fhirtests.Environment was not provided for this module run!" +
			" This is a basic mistake in the initialization logic.")
	}
	return &T{context: c, env: env, client: env.Client.WithLogger(c.DebugLogger())}
}

// Case adapts a test body written against T to a framework action.
func Case(action func(t *T)) func(*framework.Context) {
	return func(c *framework.Context) {
		action(newT(c))
	}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Skip ends the test without a result, because a precondition set up by an earlier case is
// missing. Any changes the case made to the fixture are discarded.
func (t *T) Skip(reason string) {
	t.context.SkipWithReason(reason)
}

// Debug logs some debug output for the test. The output will be passed to the test logger at
// the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

func (t *T) Fixture() *framework.Fixture {
	return t.context.Fixture()
}

func (t *T) Env() *Environment {
	return t.env
}

// Client returns the protocol client for this test, which logs to the test's debug output.
func (t *T) Client() *fhirclient.Client {
	return t.client
}

func (t *T) ctx() context.Context {
	return t.context.Context()
}

// afterCall copies the headers of the last response into the fixture, and aborts the test if
// err is not nil.
func (t *T) afterCall(err error, format string, args ...interface{}) {
	t.Fixture().LastResponseHeaders = t.client.LastResponse().Header
	if err != nil {
		t.context.Abort(fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err))
	}
}

func (t *T) Create(resource ldvalue.Value) fhirclient.Resource {
	ret, err := t.client.Create(t.ctx(), resource)
	t.afterCall(err, "create failed")
	return ret
}

func (t *T) CreateWithID(id string, resource ldvalue.Value) fhirclient.Resource {
	ret, err := t.client.CreateWithID(t.ctx(), id, resource)
	t.afterCall(err, "create of %s failed", id)
	return ret
}

func (t *T) Read(id fhirclient.ResourceIdentity) fhirclient.Resource {
	ret, err := t.client.Read(t.ctx(), id)
	t.afterCall(err, "read of %s failed", id)
	return ret
}

func (t *T) Update(current fhirclient.Resource) fhirclient.Resource {
	ret, err := t.client.Update(t.ctx(), current)
	t.afterCall(err, "update of %s failed", current.SelfLink)
	return ret
}

func (t *T) Delete(id fhirclient.ResourceIdentity) {
	err := t.client.Delete(t.ctx(), id)
	t.afterCall(err, "delete of %s failed", id)
}

func (t *T) History(q fhirclient.HistoryQuery) *history.Page {
	ret, err := t.client.History(t.ctx(), q)
	t.afterCall(err, "history request failed")
	return ret
}

func (t *T) Conformance() ldvalue.Value {
	ret, err := t.client.Conformance(t.ctx())
	t.afterCall(err, "conformance request failed")
	return ret
}

// RequireFailStatus performs a call that the server is expected to reject with a specific
// status. The test fails if the call succeeds or gets a different status, and ends with an
// ERROR outcome if the call fails for a reason other than an HTTP status.
func (t *T) RequireFailStatus(status int, description string, call func(ctx context.Context) error) {
	err := call(t.ctx())
	t.Fixture().LastResponseHeaders = t.client.LastResponse().Header
	var se *fhirclient.StatusError
	switch {
	case err == nil:
		t.Errorf("%s: expected HTTP status %d, but the call succeeded", description, status)
	case errors.As(err, &se):
		if se.Code != status {
			t.Errorf("%s: expected HTTP status %d, got %d", description, status, se.Code)
		}
	default:
		t.context.Abort(fmt.Errorf("%s: %w", description, err))
	}
}

// Walk traverses a history collection from start, checking every page with visit. Violations
// of the paging rules are recorded as failures; the returned count is only meaningful if ok
// is true.
func (t *T) Walk(w *history.Walker, visit func(*history.Page)) (total int, ok bool) {
	total, err := w.Drain(t.ctx(), visit)
	t.Fixture().LastResponseHeaders = t.client.LastResponse().Header
	if err != nil {
		t.checkViolation(err)
		return total, false
	}
	return total, true
}

// checkViolation records an error as a failure if it describes nonconforming server behavior,
// and aborts the test otherwise.
func (t *T) checkViolation(err error) {
	var (
		size    *history.PageSizeViolation
		cycle   *history.CursorCycleError
		missing *history.MissingCursorError
		status  *fhirclient.StatusError
	)
	if errors.As(err, &size) || errors.As(err, &cycle) || errors.As(err, &missing) || errors.As(err, &status) {
		t.Errorf("%s", err)
		return
	}
	t.context.Abort(err)
}
