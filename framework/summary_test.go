package framework

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeResults(module string, outcomes ...Outcome) Results {
	results := Results{Module: module}
	for i, o := range outcomes {
		r := TestResult{TestID: NewTestID(module, string(rune('A'+i))), Title: "case", Outcome: o}
		switch o {
		case OutcomeFailed:
			r.Errors = []error{errors.New("expected 2 entries\ngot 1")}
		case OutcomeError:
			r.Errors = []error{errors.New("connection refused")}
		case OutcomeSkipped:
			r.SkipReason = "not applicable"
		}
		results.add(r)
	}
	return results
}

func TestSummarize(t *testing.T) {
	s := Summarize(makeResults("History",
		OutcomePassed, OutcomePassed, OutcomeFailed, OutcomeSkipped, OutcomeError))

	assert.Equal(t, "History", s.Module)
	assert.Equal(t, 2, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 5, s.Total())
	assert.Equal(t, []Problem{
		{TestID: NewTestID("History", "C"), Title: "case", Outcome: OutcomeFailed, Message: "expected 2 entries\ngot 1"},
		{TestID: NewTestID("History", "E"), Title: "case", Outcome: OutcomeError, Message: "connection refused"},
	}, s.Problems)
}

func TestSkippedCasesDoNotFailRun(t *testing.T) {
	all := []Results{
		makeResults("History", OutcomePassed, OutcomeSkipped),
		makeResults("CRUD", OutcomeSkipped),
	}
	assert.True(t, AllOK(all))

	all = append(all, makeResults("Other", OutcomeError))
	assert.False(t, AllOK(all))
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, []Results{
		makeResults("History", OutcomePassed, OutcomeFailed),
		makeResults("CRUD", OutcomePassed, OutcomeSkipped),
	})
	out := buf.String()

	for _, s := range []string{"MODULE", "History", "CRUD", "ALL"} {
		assert.Contains(t, out, s)
	}
	assert.Contains(t, out, "FAILED History/B (case)\n  expected 2 entries\n  got 1\n")
	assert.NotContains(t, out, "not applicable")
}
