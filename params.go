package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/alessio/shellescape"
)

type commandParams struct {
	configPath string
	config     RunConfig
}

func (c *commandParams) flagSet(config *RunConfig, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&c.configPath, "config", "", "YAML file with run settings; flags override it")
	fs.StringVar(&config.URL, "url", config.URL, "base URL of the server under test")
	fs.Var(&listFlag{target: &config.Run}, "run", "regex pattern(s) to select tests to run")
	fs.Var(&listFlag{target: &config.Skip}, "skip", "regex pattern(s) to select tests not to run")
	fs.Var(&listFlag{target: &config.Modules, split: true}, "modules", "comma-separated test modules to run (default all)")
	fs.IntVar(&config.PageSize, "page-size", config.PageSize, "_count used by the paging tests")
	fs.StringVar(&config.ResourceType, "resource-type", config.ResourceType, "resource type whose history is paged through")
	fs.DurationVar(&config.CaseTimeout, "case-timeout", config.CaseTimeout, "deadline for the server calls of each test")
	fs.DurationVar(&config.StartupTimeout, "startup-timeout", config.StartupTimeout, "how long to wait for the server to respond")
	fs.IntVar(&config.Parallel, "parallel", config.Parallel, "number of test modules to run at the same time")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "enable debug logging for failed tests")
	fs.BoolVar(&config.DebugAll, "debug-all", config.DebugAll, "enable debug logging for all tests")
	return fs
}

// Read parses the command line. If -config is given, the file is loaded first and the command
// line is applied on top of it.
func (c *commandParams) Read(args []string, output io.Writer) bool {
	c.config = DefaultRunConfig()
	fs := c.flagSet(&c.config, output)
	if err := fs.Parse(args[1:]); err != nil {
		return false
	}

	if c.configPath != "" {
		loaded, err := LoadRunConfig(c.configPath)
		if err != nil {
			fmt.Fprintln(output, err)
			return false
		}
		c.config = loaded
		fs = c.flagSet(&c.config, output)
		if err := fs.Parse(args[1:]); err != nil {
			return false
		}
	}

	if err := c.config.Validate(); err != nil {
		fmt.Fprintf(output, "Invalid parameters: %s\n", err)
		fs.Usage()
		return false
	}
	return true
}

// listFlag collects each occurrence of a flag into a list, optionally splitting on commas. The
// first occurrence replaces whatever the list held before, such as values from the config file.
type listFlag struct {
	target *[]string
	split  bool
	seen   bool
}

func (l *listFlag) String() string {
	if l.target == nil {
		return ""
	}
	return strings.Join(*l.target, ",")
}

func (l *listFlag) Set(value string) error {
	if !l.seen {
		*l.target = nil
		l.seen = true
	}
	values := []string{value}
	if l.split {
		values = strings.Split(value, ",")
	}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			*l.target = append(*l.target, v)
		}
	}
	return nil
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
