package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/sprinkler-fhir/sprinkler/fhirtests"
	"github.com/sprinkler-fhir/sprinkler/framework"

	"gopkg.in/yaml.v3"
)

const (
	defaultCaseTimeout    = time.Second * 30
	defaultStartupTimeout = time.Second * 10
)

// RunConfig holds every setting of a test run. It can be read from a YAML file with -config;
// command line flags override what the file says. A list flag given on the command line
// replaces the file's list rather than adding to it.
type RunConfig struct {
	URL            string        `yaml:"url"`
	Run            []string      `yaml:"run,omitempty"`
	Skip           []string      `yaml:"skip,omitempty"`
	Modules        []string      `yaml:"modules,omitempty"`
	PageSize       int           `yaml:"pageSize,omitempty"`
	ResourceType   string        `yaml:"resourceType,omitempty"`
	CaseTimeout    time.Duration `yaml:"caseTimeout,omitempty"`
	StartupTimeout time.Duration `yaml:"startupTimeout,omitempty"`
	Parallel       int           `yaml:"parallel,omitempty"`
	Debug          bool          `yaml:"debug,omitempty"`
	DebugAll       bool          `yaml:"debugAll,omitempty"`
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		PageSize:       fhirtests.DefaultPageSize,
		ResourceType:   fhirtests.DefaultResourceType,
		CaseTimeout:    defaultCaseTimeout,
		StartupTimeout: defaultStartupTimeout,
		Parallel:       1,
	}
}

// LoadRunConfig reads a YAML file over the defaults. Settings missing from the file keep
// their default values.
func LoadRunConfig(path string) (RunConfig, error) {
	config := DefaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return RunConfig{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	return config, nil
}

func (c RunConfig) Validate() error {
	var errs []error
	if c.URL == "" {
		errs = append(errs, errors.New("url is required"))
	} else if u, err := url.Parse(c.URL); err != nil || !u.IsAbs() {
		errs = append(errs, fmt.Errorf("url %q is not an absolute URL", c.URL))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page size must be positive, got %d", c.PageSize))
	}
	if c.ResourceType == "" || c.ResourceType[0] < 'A' || c.ResourceType[0] > 'Z' {
		errs = append(errs, fmt.Errorf("%q is not a resource type", c.ResourceType))
	}
	if c.CaseTimeout < 0 || c.StartupTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.Parallel < 1 {
		errs = append(errs, fmt.Errorf("parallel must be at least 1, got %d", c.Parallel))
	}
	if _, err := c.Filters(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Filters compiles the run and skip patterns.
func (c RunConfig) Filters() (framework.RegexFilters, error) {
	var filters framework.RegexFilters
	for _, p := range c.Run {
		if err := filters.MustMatch.Set(p); err != nil {
			return filters, fmt.Errorf("run pattern %q: %w", p, err)
		}
	}
	for _, p := range c.Skip {
		if err := filters.MustNotMatch.Set(p); err != nil {
			return filters, fmt.Errorf("skip pattern %q: %w", p, err)
		}
	}
	return filters, nil
}
