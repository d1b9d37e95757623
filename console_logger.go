package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sprinkler-fhir/sprinkler/framework"

	"github.com/fatih/color"
)

var (
	failedLabel  = color.New(color.FgRed, color.Bold).Sprint(string(framework.OutcomeFailed))
	errorLabel   = color.New(color.FgMagenta, color.Bold).Sprint(string(framework.OutcomeError))
	skippedLabel = color.New(color.FgYellow).Sprint(string(framework.OutcomeSkipped))
)

// ConsoleTestLogger reports progress as the cases run. Modules may run concurrently, so each
// notification is written in one piece.
type ConsoleTestLogger struct {
	Out                  io.Writer
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
	lock                 sync.Mutex
}

func (c *ConsoleTestLogger) TestStarted(id framework.TestID) {
	c.lock.Lock()
	defer c.lock.Unlock()
	fmt.Fprintf(c.Out, "[%s]\n", id)
}

func (c *ConsoleTestLogger) TestError(id framework.TestID, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(c.Out, "  [%s] %s\n", id, line)
	}
}

func (c *ConsoleTestLogger) TestFinished(id framework.TestID, outcome framework.Outcome, debugOutput framework.CapturedOutput) {
	c.lock.Lock()
	defer c.lock.Unlock()
	switch outcome {
	case framework.OutcomeFailed:
		fmt.Fprintf(c.Out, "  %s: %s\n", failedLabel, id)
	case framework.OutcomeError:
		fmt.Fprintf(c.Out, "  %s: %s\n", errorLabel, id)
	}
	problem := outcome.IsProblem()
	if len(debugOutput) > 0 &&
		((problem && c.DebugOutputOnFailure) || (!problem && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(c.Out, "    DEBUG ")
	}
}

func (c *ConsoleTestLogger) TestSkipped(id framework.TestID, reason string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if reason == "" {
		fmt.Fprintf(c.Out, "  %s: %s\n", skippedLabel, id)
	} else {
		fmt.Fprintf(c.Out, "  %s: %s (%s)\n", skippedLabel, id, reason)
	}
}
