package framework

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

type environment struct {
	testLogger TestLogger
	fixture    *Fixture
	domain     interface{}
}

// Context is the handle a test case action receives. It is used much like Go's *testing.T:
// assertion failures are recorded with Errorf, and FailNow, Skip and Abort stop the action
// immediately. Whatever the action does, the engine records exactly one outcome for it.
//
// Context implements the TestingT interfaces of testify's assert and require packages.
type Context struct {
	env         *environment
	id          TestID
	title       string
	ctx         context.Context
	debugLogger CapturingLogger
	failed      bool
	skipped     bool
	errored     bool
	skipReason  string
	errors      []error
}

func (c *Context) run(action func(*Context)) {
	defer func() {
		if r := recover(); r != nil {
			if signal, ok := r.(*Context); ok && signal == c {
				if c.failed && len(c.errors) == 0 {
					c.addError(errors.New("test failed with no failure message"))
				}
				return
			}
			c.errored = true
			c.addError(fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack())))
		}
	}()

	action(c)
}

func (c *Context) addError(err error) {
	c.errors = append(c.errors, err)
	c.env.testLogger.TestError(c.id, err)
}

func (c *Context) outcome() Outcome {
	switch {
	case c.errored:
		return OutcomeError
	case c.failed:
		return OutcomeFailed
	case c.skipped:
		return OutcomeSkipped
	default:
		return OutcomePassed
	}
}

func (c *Context) ID() TestID {
	return c.id
}

func (c *Context) Title() string {
	return c.title
}

// Context returns the context.Context for protocol calls made by this case. It carries the
// per-case timeout, and is not cancelled when the surrounding run is cancelled.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Fixture returns the state shared by the cases of the current module run.
func (c *Context) Fixture() *Fixture {
	return c.env.fixture
}

// Environment returns the domain-specific value that was provided for this module run.
func (c *Context) Environment() interface{} {
	return c.env.domain
}

// Errorf records an assertion failure. It does not stop the action.
func (c *Context) Errorf(format string, args ...interface{}) {
	c.failed = true
	c.addError(fmt.Errorf(format, args...))
}

// FailNow stops the action with a Fail outcome.
func (c *Context) FailNow() {
	c.failed = true
	panic(c)
}

// Skip stops the action with a Skip outcome, unless a failure was already recorded.
func (c *Context) Skip() {
	c.skipped = true
	panic(c)
}

func (c *Context) SkipWithReason(reason string) {
	c.skipReason = reason
	c.Skip()
}

// Abort stops the action with an Error outcome. It is for conditions that are not assertions
// about the server, such as a network failure or a status code the case did not expect.
func (c *Context) Abort(err error) {
	if err == nil {
		err = errors.New("test aborted with no error")
	}
	c.errored = true
	c.addError(err)
	panic(c)
}

// Failed returns true if a failure or error has been recorded so far.
func (c *Context) Failed() bool {
	return c.failed || c.errored
}

func (c *Context) Debug(message string, args ...interface{}) {
	c.debugLogger.Printf(message, args...)
}

func (c *Context) DebugLogger() Logger {
	return &c.debugLogger
}
