package framework

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	skipReasonFiltered  = "excluded by filter parameters"
	skipReasonCancelled = "run cancelled before this case started"
)

// RunOptions controls how the cases of a module are executed.
type RunOptions struct {
	// Filter excludes cases from execution. Excluded cases are still recorded, as skipped.
	Filter Filter
	// TestLogger receives progress notifications. If nil, nothing is reported.
	TestLogger TestLogger
	// CaseTimeout, if positive, is the deadline of the context.Context given to each case.
	CaseTimeout time.Duration
}

// RunModule executes the cases of one module sequentially, in priority order, against a new
// Fixture. The domain value is made available to every case through
// Context.Environment.
//
// The run context is only consulted between cases: once it is done, the remaining cases are
// recorded as skipped and not invoked. The returned Results always contain one entry per case.
func RunModule(
	ctx context.Context,
	module string,
	cases []TestCase,
	domain interface{},
	opts RunOptions,
) Results {
	if opts.TestLogger == nil {
		opts.TestLogger = nullTestLogger{}
	}
	env := &environment{
		testLogger: opts.TestLogger,
		fixture:    NewFixture(),
		domain:     domain,
	}
	results := Results{Module: module}

	for _, tc := range OrderCases(cases) {
		id := tc.ID()
		opts.TestLogger.TestStarted(id)

		var reason string
		switch {
		case ctx.Err() != nil:
			reason = skipReasonCancelled
		case opts.Filter != nil && !opts.Filter(id):
			reason = skipReasonFiltered
		}
		if reason != "" {
			results.add(TestResult{TestID: id, Title: tc.Title, Outcome: OutcomeSkipped, SkipReason: reason})
			opts.TestLogger.TestSkipped(id, reason)
			continue
		}

		result, output := env.runCase(ctx, tc, opts.CaseTimeout)
		results.add(result)
		if result.Outcome == OutcomeSkipped {
			opts.TestLogger.TestSkipped(id, result.SkipReason)
		} else {
			opts.TestLogger.TestFinished(id, result.Outcome, output)
		}
	}

	return results
}

func (e *environment) runCase(ctx context.Context, tc TestCase, timeout time.Duration) (TestResult, CapturedOutput) {
	caseCtx := context.WithoutCancel(ctx)
	cancel := func() {}
	if timeout > 0 {
		caseCtx, cancel = context.WithTimeout(caseCtx, timeout)
	}
	defer cancel()

	c := &Context{
		env:   e,
		id:    tc.ID(),
		title: tc.Title,
		ctx:   caseCtx,
	}
	snapshot := e.fixture.snapshot()
	started := time.Now()
	c.run(tc.Action)

	result := TestResult{
		TestID:     c.id,
		Title:      tc.Title,
		Outcome:    c.outcome(),
		Errors:     c.errors,
		SkipReason: c.skipReason,
		Duration:   time.Since(started),
	}
	if result.Outcome == OutcomeSkipped {
		e.fixture.restore(snapshot)
	}
	return result, c.debugLogger.Output()
}

// SuiteOptions controls RunModules.
type SuiteOptions struct {
	RunOptions
	// Modules selects which registered modules to run. If empty, all modules run.
	Modules []string
	// Parallel is the maximum number of modules that may run at the same time. Values below 1
	// mean one at a time.
	Parallel int
	// NewEnvironment, if set, is called once per module run to create the value returned by
	// Context.Environment. If the value implements io.Closer, it is closed when the module ends.
	NewEnvironment func(module string) (interface{}, error)
}

// RunModules runs the selected modules of a registry, each with its own Fixture and
// environment. The results are in module registration order. The only error returned is for
// an unknown module name; failures inside modules are always reported as case outcomes.
func RunModules(ctx context.Context, registry *Registry, opts SuiteOptions) ([]Results, error) {
	modules, err := selectModules(registry, opts.Modules)
	if err != nil {
		return nil, err
	}
	if opts.TestLogger == nil {
		opts.TestLogger = nullTestLogger{}
	}

	all := make([]Results, len(modules))
	var g errgroup.Group
	if opts.Parallel > 1 {
		g.SetLimit(opts.Parallel)
	} else {
		g.SetLimit(1)
	}
	for i, module := range modules {
		i, module := i, module
		g.Go(func() error {
			all[i] = runModuleWithEnvironment(ctx, registry, module, opts)
			return nil
		})
	}
	g.Wait()
	return all, nil
}

func runModuleWithEnvironment(ctx context.Context, registry *Registry, module string, opts SuiteOptions) Results {
	cases := registry.ListCases(module)
	var env interface{}
	if opts.NewEnvironment != nil {
		e, err := opts.NewEnvironment(module)
		if err != nil {
			return failAllCases(module, cases, fmt.Errorf("could not set up module %q: %w", module, err), opts.TestLogger)
		}
		env = e
	}
	if closer, ok := env.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}
	return RunModule(ctx, module, cases, env, opts.RunOptions)
}

func failAllCases(module string, cases []TestCase, err error, testLogger TestLogger) Results {
	results := Results{Module: module}
	for _, tc := range OrderCases(cases) {
		id := tc.ID()
		testLogger.TestStarted(id)
		testLogger.TestError(id, err)
		results.add(TestResult{TestID: id, Title: tc.Title, Outcome: OutcomeError, Errors: []error{err}})
		testLogger.TestFinished(id, OutcomeError, nil)
	}
	return results
}

func selectModules(registry *Registry, wanted []string) ([]string, error) {
	all := registry.Modules()
	if len(wanted) == 0 {
		return all, nil
	}
	selected := make(map[string]bool, len(wanted))
	for _, w := range wanted {
		found := false
		for _, m := range all {
			if m == w {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown test module %q", w)
		}
		selected[w] = true
	}
	var ret []string
	for _, m := range all {
		if selected[m] {
			ret = append(ret, m)
		}
	}
	return ret, nil
}
