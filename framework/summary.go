package framework

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Problem is a failed or errored case retained for display.
type Problem struct {
	TestID  TestID
	Title   string
	Outcome Outcome
	Message string
}

// Summary counts the outcomes of one module run.
type Summary struct {
	Module   string
	Passed   int
	Failed   int
	Skipped  int
	Errors   int
	Problems []Problem
}

func (s Summary) Total() int {
	return s.Passed + s.Failed + s.Skipped + s.Errors
}

// Summarize aggregates the results of one module run. It performs no I/O.
func Summarize(results Results) Summary {
	s := Summary{Module: results.Module}
	for _, r := range results.Tests {
		switch r.Outcome {
		case OutcomePassed:
			s.Passed++
		case OutcomeFailed:
			s.Failed++
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeError:
			s.Errors++
		}
		if r.Outcome.IsProblem() {
			s.Problems = append(s.Problems, Problem{
				TestID:  r.TestID,
				Title:   r.Title,
				Outcome: r.Outcome,
				Message: r.Message(),
			})
		}
	}
	return s
}

func SummarizeAll(all []Results) []Summary {
	ret := make([]Summary, 0, len(all))
	for _, r := range all {
		ret = append(ret, Summarize(r))
	}
	return ret
}

// AllOK returns true if no module had a failed or errored case.
func AllOK(all []Results) bool {
	for _, r := range all {
		if !r.OK() {
			return false
		}
	}
	return true
}

// PrintResults writes a per-module outcome table followed by the message of every failed or
// errored case.
func PrintResults(out io.Writer, all []Results) {
	summaries := SummarizeAll(all)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"MODULE", "PASSED", "FAILED", "SKIPPED", "ERROR", "TOTAL"})
	var total Summary
	for _, s := range summaries {
		t.AppendRow(table.Row{s.Module, s.Passed, s.Failed, s.Skipped, s.Errors, s.Total()})
		total.Passed += s.Passed
		total.Failed += s.Failed
		total.Skipped += s.Skipped
		total.Errors += s.Errors
	}
	t.AppendFooter(table.Row{"ALL", total.Passed, total.Failed, total.Skipped, total.Errors, total.Total()})
	t.Render()

	for _, s := range summaries {
		for _, p := range s.Problems {
			fmt.Fprintf(out, "%s %s (%s)\n", p.Outcome, p.TestID, p.Title)
			for _, line := range strings.Split(p.Message, "\n") {
				fmt.Fprintf(out, "  %s\n", line)
			}
		}
	}
}
