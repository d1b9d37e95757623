package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/sprinkler-fhir/sprinkler/fhirclient"
	"github.com/sprinkler-fhir/sprinkler/fhirtests"
	"github.com/sprinkler-fhir/sprinkler/framework"

	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var params commandParams
	if !params.Read(args, stderr) {
		return 1
	}
	config := params.config
	filters, _ := config.Filters()

	mainDebugLogger := framework.NullLogger()
	if config.DebugAll {
		l := logrus.New()
		l.SetOutput(stdout)
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		mainDebugLogger = l
	}

	registry := framework.NewRegistry()
	if err := fhirtests.RegisterAll(registry); err != nil {
		fmt.Fprintf(stderr, "Test registration error: %s\n", err)
		return 1
	}

	client, err := fhirclient.NewClient(config.URL, &http.Client{}, mainDebugLogger)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid parameters: %s\n", err)
		return 1
	}
	if err := client.AwaitServer(ctx, config.StartupTimeout); err != nil {
		fmt.Fprintf(stderr, "Server error: %s\n", err)
		return 1
	}
	defer client.CloseIdleConnections()

	fmt.Fprintln(stdout)
	framework.PrintFilterDescription(stdout, registry, config.Modules, filters)

	fmt.Fprintln(stdout, "Running test suite")

	testLogger := &ConsoleTestLogger{
		Out:                  stdout,
		DebugOutputOnFailure: config.Debug || config.DebugAll,
		DebugOutputOnSuccess: config.DebugAll,
	}

	all, err := framework.RunModules(ctx, registry, framework.SuiteOptions{
		RunOptions: framework.RunOptions{
			Filter:      filters.AsFilter,
			TestLogger:  testLogger,
			CaseTimeout: config.CaseTimeout,
		},
		Modules:  config.Modules,
		Parallel: config.Parallel,
		NewEnvironment: func(module string) (interface{}, error) {
			env, err := fhirtests.NewEnvironment(client.WithLogger(framework.WithPrefix(mainDebugLogger, "["+module+"] ")))
			if err != nil {
				return nil, err
			}
			env.PageSize = config.PageSize
			env.ResourceType = config.ResourceType
			return env, nil
		},
	})
	if err != nil {
		fmt.Fprintf(stderr, "Invalid parameters: %s\n", err)
		return 1
	}

	fmt.Fprintln(stdout)
	framework.PrintResults(stdout, all)
	if !framework.AllOK(all) {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "To run only the tests that did not pass:")
		fmt.Fprintf(stdout, "  %s\n", rerunCommand(args[0], config, all))
		return 1
	}
	return 0
}

// rerunCommand builds a command line that repeats the run for the modules that had failed or
// errored cases. Cases depend on the earlier cases of their module, so whole modules are repeated.
func rerunCommand(program string, config RunConfig, all []framework.Results) string {
	var cmd commandBuilder
	cmd.add(program, "-url", config.URL)
	defaults := DefaultRunConfig()
	if config.PageSize != defaults.PageSize {
		cmd.add("-page-size", strconv.Itoa(config.PageSize))
	}
	if config.ResourceType != defaults.ResourceType {
		cmd.add("-resource-type", config.ResourceType)
	}
	if config.CaseTimeout != defaults.CaseTimeout {
		cmd.add("-case-timeout", config.CaseTimeout.String())
	}
	var modules []string
	for _, results := range all {
		if !results.OK() {
			modules = append(modules, results.Module)
		}
	}
	cmd.add("-modules", strings.Join(modules, ","))
	return cmd.String()
}
