package framework

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the single result recorded for each declared test case.
type Outcome string

const (
	// OutcomePassed means the case ran to completion without recording any failures.
	OutcomePassed Outcome = "PASSED"
	// OutcomeFailed means observed server behavior violated an assertion.
	OutcomeFailed Outcome = "FAILED"
	// OutcomeSkipped means a precondition was not met, or the case was filtered or cancelled.
	OutcomeSkipped Outcome = "SKIPPED"
	// OutcomeError means an unexpected transport or runtime condition stopped the case.
	OutcomeError Outcome = "ERROR"
)

// IsProblem returns true for outcomes that make a run unsuccessful.
func (o Outcome) IsProblem() bool {
	return o == OutcomeFailed || o == OutcomeError
}

type TestID struct {
	Path []string
}

func NewTestID(module, code string) TestID {
	return TestID{Path: []string{module, code}}
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

// Module returns the first path element, which is the module name.
func (t TestID) Module() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[0]
}

type TestResult struct {
	TestID     TestID
	Title      string
	Outcome    Outcome
	Errors     []error
	SkipReason string
	Duration   time.Duration
}

// Message returns the text that should be shown for a non-passing result: the skip reason
// for a skipped case, or all recorded errors joined by newlines.
func (r TestResult) Message() string {
	if r.Outcome == OutcomeSkipped {
		return r.SkipReason
	}
	var ss []string
	for _, e := range r.Errors {
		ss = append(ss, e.Error())
	}
	return strings.Join(ss, "\n")
}

// Results holds the outcome of every case in one module run, in execution order.
type Results struct {
	Module   string
	Tests    []TestResult
	Failures []TestResult
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Find returns the result for the case with the given code.
func (r Results) Find(code string) (TestResult, bool) {
	for _, t := range r.Tests {
		if len(t.TestID.Path) > 1 && t.TestID.Path[1] == code {
			return t, true
		}
	}
	return TestResult{}, false
}

func (r *Results) add(result TestResult) {
	r.Tests = append(r.Tests, result)
	if result.Outcome.IsProblem() {
		r.Failures = append(r.Failures, result)
	}
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}
