package framework

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTestLogger struct {
	events []string
	lock   sync.Mutex
}

func (r *recordingTestLogger) add(format string, args ...interface{}) {
	r.lock.Lock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
	r.lock.Unlock()
}

func (r *recordingTestLogger) TestStarted(id TestID)          { r.add("started %s", id) }
func (r *recordingTestLogger) TestError(id TestID, err error) { r.add("error %s", id) }
func (r *recordingTestLogger) TestFinished(id TestID, outcome Outcome, _ CapturedOutput) {
	r.add("finished %s %s", id, outcome)
}
func (r *recordingTestLogger) TestSkipped(id TestID, reason string) { r.add("skipped %s", id) }

func moduleCases(actions ...func(*Context)) []TestCase {
	var ret []TestCase
	for i, a := range actions {
		ret = append(ret, TestCase{Module: "M", Code: fmt.Sprintf("C%d", i+1), Priority: i, Action: a})
	}
	return ret
}

func outcomes(results Results) []Outcome {
	var ret []Outcome
	for _, r := range results.Tests {
		ret = append(ret, r.Outcome)
	}
	return ret
}

func TestEveryCaseGetsExactlyOneOutcome(t *testing.T) {
	var ran []string
	record := func(name string, then func(*Context)) func(*Context) {
		return func(c *Context) {
			ran = append(ran, name)
			then(c)
		}
	}
	results := RunModule(context.Background(), "M", moduleCases(
		record("pass", func(c *Context) {}),
		record("fail", func(c *Context) { c.Errorf("wrong") }),
		record("abort", func(c *Context) { c.Abort(errors.New("connection refused")) }),
		record("skip", func(c *Context) { c.SkipWithReason("not applicable") }),
		record("failnow", func(c *Context) { c.FailNow() }),
	), nil, RunOptions{})

	assert.Equal(t, []string{"pass", "fail", "abort", "skip", "failnow"}, ran, "an aborted case must not stop the run")
	assert.Equal(t, []Outcome{OutcomePassed, OutcomeFailed, OutcomeError, OutcomeSkipped, OutcomeFailed}, outcomes(results))
	assert.Equal(t, "not applicable", results.Tests[3].SkipReason)
	assert.Equal(t, "connection refused", results.Tests[2].Message())
	assert.Equal(t, "test failed with no failure message", results.Tests[4].Message())
	assert.Len(t, results.Failures, 3)
	assert.False(t, results.OK())
}

func TestOutcomePrecedence(t *testing.T) {
	results := RunModule(context.Background(), "M", moduleCases(
		func(c *Context) {
			c.Errorf("assertion")
			c.Abort(errors.New("then an error"))
		},
		func(c *Context) {
			c.Errorf("assertion")
			c.Skip()
		},
		func(c *Context) {
			c.Errorf("assertion")
			panic("unexpected")
		},
	), nil, RunOptions{})

	assert.Equal(t, []Outcome{OutcomeError, OutcomeFailed, OutcomeError}, outcomes(results))
	assert.Contains(t, results.Tests[2].Message(), "unexpected panic in test: unexpected")
}

func TestErrorfDoesNotStopTheCase(t *testing.T) {
	reachedEnd := false
	results := RunModule(context.Background(), "M", moduleCases(func(c *Context) {
		c.Errorf("first")
		c.Errorf("second")
		reachedEnd = true
	}), nil, RunOptions{})

	assert.True(t, reachedEnd)
	assert.Equal(t, "first\nsecond", results.Tests[0].Message())
}

func TestCasesRunInPriorityOrder(t *testing.T) {
	var ran []string
	action := func(code string) func(*Context) {
		return func(*Context) { ran = append(ran, code) }
	}
	cases := []TestCase{
		{Module: "M", Code: "read", Priority: 2, Action: action("read")},
		{Module: "M", Code: "create", Priority: 1, Action: action("create")},
		{Module: "M", Code: "delete", Priority: 3, Action: action("delete")},
	}
	results := RunModule(context.Background(), "M", cases, nil, RunOptions{})

	assert.Equal(t, []string{"create", "read", "delete"}, ran)
	assert.Equal(t, "create", results.Tests[0].TestID.Path[1])
}

func TestFixtureIsSharedBetweenCases(t *testing.T) {
	var seen []string
	RunModule(context.Background(), "M", moduleCases(
		func(c *Context) { c.Fixture().RecordVersion("Patient/1/_history/1") },
		func(c *Context) { c.Fixture().RecordVersion("Patient/1/_history/2") },
		func(c *Context) { seen = c.Fixture().Versions },
	), nil, RunOptions{})

	assert.Equal(t, []string{"Patient/1/_history/1", "Patient/1/_history/2"}, seen)
}

func TestSkippedCaseLeavesFixtureUnchanged(t *testing.T) {
	var seen *Fixture
	results := RunModule(context.Background(), "M", moduleCases(
		func(c *Context) {
			c.Fixture().RecordVersion("v1")
			c.Fixture().Store("key", "first")
		},
		func(c *Context) {
			c.Fixture().RecordVersion("v2")
			c.Fixture().Store("key", "second")
			c.Skip()
		},
		func(c *Context) { seen = c.Fixture().snapshot() },
	), nil, RunOptions{})

	assert.Equal(t, OutcomeSkipped, results.Tests[1].Outcome)
	assert.Equal(t, []string{"v1"}, seen.Versions)
	assert.Equal(t, "v1", seen.CreatedResource.StringValue())
	v, _ := seen.Load("key")
	assert.Equal(t, "first", v)
}

func TestFailedCaseKeepsFixtureChanges(t *testing.T) {
	var seen []string
	RunModule(context.Background(), "M", moduleCases(
		func(c *Context) {
			c.Fixture().RecordVersion("v1")
			c.FailNow()
		},
		func(c *Context) { seen = c.Fixture().Versions },
	), nil, RunOptions{})

	assert.Equal(t, []string{"v1"}, seen)
}

func TestEachModuleRunHasItsOwnFixture(t *testing.T) {
	cases := moduleCases(func(c *Context) {
		assert.Empty(t, c.Fixture().Versions)
		c.Fixture().RecordVersion("v1")
	})
	RunModule(context.Background(), "M", cases, nil, RunOptions{})
	RunModule(context.Background(), "M", cases, nil, RunOptions{})
}

func TestFilteredCasesAreSkipped(t *testing.T) {
	var ran []string
	action := func(c *Context) { ran = append(ran, c.ID().String()) }
	logger := &recordingTestLogger{}
	results := RunModule(context.Background(), "M", moduleCases(action, action, action), nil, RunOptions{
		Filter:     func(id TestID) bool { return id.Path[1] != "C2" },
		TestLogger: logger,
	})

	assert.Equal(t, []string{"M/C1", "M/C3"}, ran)
	assert.Equal(t, []Outcome{OutcomePassed, OutcomeSkipped, OutcomePassed}, outcomes(results))
	assert.Equal(t, skipReasonFiltered, results.Tests[1].SkipReason)
	assert.Equal(t, []string{
		"started M/C1", "finished M/C1 PASSED",
		"started M/C2", "skipped M/C2",
		"started M/C3", "finished M/C3 PASSED",
	}, logger.events)
}

func TestCancellationIsCheckedBetweenCases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var caseCtxErr error
	results := RunModule(ctx, "M", moduleCases(
		func(c *Context) {
			cancel()
			caseCtxErr = c.Context().Err()
		},
		func(c *Context) { t.Error("case should not run after cancellation") },
		func(c *Context) { t.Error("case should not run after cancellation") },
	), nil, RunOptions{})

	assert.NoError(t, caseCtxErr, "a running case is not cancelled with the run")
	assert.Equal(t, []Outcome{OutcomePassed, OutcomeSkipped, OutcomeSkipped}, outcomes(results))
	assert.Equal(t, skipReasonCancelled, results.Tests[2].SkipReason)
}

func TestCaseTimeout(t *testing.T) {
	results := RunModule(context.Background(), "M", moduleCases(func(c *Context) {
		deadline, ok := c.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, time.Second*5)
	}), nil, RunOptions{CaseTimeout: time.Minute})
	assert.Equal(t, OutcomePassed, results.Tests[0].Outcome)

	results = RunModule(context.Background(), "M", moduleCases(func(c *Context) {
		select {
		case <-c.Context().Done():
			c.Abort(c.Context().Err())
		case <-time.After(time.Second * 5):
		}
	}), nil, RunOptions{CaseTimeout: time.Millisecond * 20})
	assert.Equal(t, OutcomeError, results.Tests[0].Outcome)
	assert.Equal(t, context.DeadlineExceeded.Error(), results.Tests[0].Message())
}

func TestEnvironmentIsAvailable(t *testing.T) {
	var seen interface{}
	RunModule(context.Background(), "M", moduleCases(func(c *Context) { seen = c.Environment() }), "env", RunOptions{})
	assert.Equal(t, "env", seen)
}

func TestDebugOutputIsPassedToTestLogger(t *testing.T) {
	var captured CapturedOutput
	logger := &capturingOutputTestLogger{output: &captured}
	RunModule(context.Background(), "M", moduleCases(func(c *Context) {
		c.Debug("request %d", 1)
		c.DebugLogger().Printf("request %d", 2)
	}), nil, RunOptions{TestLogger: logger})

	require.Len(t, captured, 2)
	assert.Equal(t, "request 1", captured[0].Message)
	assert.Equal(t, "request 2", captured[1].Message)
}

type capturingOutputTestLogger struct {
	nullTestLogger
	output *CapturedOutput
}

func (c *capturingOutputTestLogger) TestFinished(id TestID, outcome Outcome, debugOutput CapturedOutput) {
	*c.output = debugOutput
}

type closableEnvironment struct {
	closed bool
	lock   sync.Mutex
}

func (c *closableEnvironment) Close() error {
	c.lock.Lock()
	c.closed = true
	c.lock.Unlock()
	return nil
}

func TestRunModulesWithoutEnvironment(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("A", TestCase{Code: "X01", Action: func(c *Context) {
		assert.Nil(t, c.Environment())
	}}))
	all, err := RunModules(context.Background(), r, SuiteOptions{})
	require.NoError(t, err)
	assert.True(t, AllOK(all))
}

func TestRunModulesInRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	var envs sync.Map
	for i, module := range []string{"slow", "medium", "fast"} {
		delay := time.Duration(30*(2-i)) * time.Millisecond
		require.NoError(t, r.Register(module, TestCase{Code: "X01", Action: func(c *Context) {
			time.Sleep(delay)
		}}))
	}

	all, err := RunModules(context.Background(), r, SuiteOptions{
		Parallel: 3,
		NewEnvironment: func(module string) (interface{}, error) {
			env := &closableEnvironment{}
			envs.Store(module, env)
			return env, nil
		},
	})

	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, module := range []string{"slow", "medium", "fast"} {
		assert.Equal(t, module, all[i].Module)
		assert.Equal(t, OutcomePassed, all[i].Tests[0].Outcome)
		env, ok := envs.Load(module)
		require.True(t, ok)
		assert.True(t, env.(*closableEnvironment).closed, "environment of %s was not closed", module)
	}
}

func TestRunModulesSelectsModules(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("A", TestCase{Code: "X01", Action: noop}))
	require.NoError(t, r.Register("B", TestCase{Code: "X01", Action: noop}))
	require.NoError(t, r.Register("C", TestCase{Code: "X01", Action: noop}))

	all, err := RunModules(context.Background(), r, SuiteOptions{Modules: []string{"C", "A"}})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Module)
	assert.Equal(t, "C", all[1].Module)

	_, err = RunModules(context.Background(), r, SuiteOptions{Modules: []string{"D"}})
	assert.Error(t, err)
}

func TestRunModulesSetupFailure(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("A", TestCase{Code: "X01", Action: noop}, TestCase{Code: "X02", Action: noop}))
	require.NoError(t, r.Register("B", TestCase{Code: "X01", Action: noop}))

	all, err := RunModules(context.Background(), r, SuiteOptions{
		NewEnvironment: func(module string) (interface{}, error) {
			if module == "A" {
				return nil, errors.New("no server")
			}
			return nil, nil
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []Outcome{OutcomeError, OutcomeError}, outcomes(all[0]))
	assert.Contains(t, all[0].Tests[0].Message(), `could not set up module "A": no server`)
	assert.Equal(t, []Outcome{OutcomePassed}, outcomes(all[1]))
}
