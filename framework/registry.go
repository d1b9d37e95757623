package framework

import (
	"errors"
	"fmt"
)

// TestCase describes one declared case. Action is called with the case's Context; it signals
// its outcome through Context methods rather than return values.
type TestCase struct {
	Module   string
	Code     string
	Title    string
	Priority int
	Action   func(*Context)
}

// ID returns the case identifier used for filtering and reporting.
func (tc TestCase) ID() TestID {
	return NewTestID(tc.Module, tc.Code)
}

// DuplicateCodeError is returned by Register when a module declares the same code twice.
type DuplicateCodeError struct {
	Module string
	Code   string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("module %q declares test code %q more than once", e.Module, e.Code)
}

// Registry holds the declared cases of every module. It does not execute anything.
type Registry struct {
	modules []string
	cases   map[string][]TestCase
	codes   map[string]map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		cases: make(map[string][]TestCase),
		codes: make(map[string]map[string]bool),
	}
}

// Register adds cases to a module, in declaration order. It may be called more than once for
// the same module. The first invalid case stops registration and none of the cases in that
// call are added.
func (r *Registry) Register(module string, cases ...TestCase) error {
	if module == "" {
		return errors.New("module name must not be empty")
	}
	known := r.codes[module]
	if known == nil {
		known = make(map[string]bool)
	}
	pending := make(map[string]bool, len(cases))
	for _, tc := range cases {
		if tc.Code == "" {
			return fmt.Errorf("module %q has a test case with no code (title %q)", module, tc.Title)
		}
		if tc.Action == nil {
			return fmt.Errorf("test case %s/%s has no action", module, tc.Code)
		}
		if known[tc.Code] || pending[tc.Code] {
			return &DuplicateCodeError{Module: module, Code: tc.Code}
		}
		pending[tc.Code] = true
	}

	if _, ok := r.codes[module]; !ok {
		r.modules = append(r.modules, module)
		r.codes[module] = known
	}
	for _, tc := range cases {
		tc.Module = module
		known[tc.Code] = true
		r.cases[module] = append(r.cases[module], tc)
	}
	return nil
}

// ListCases returns the cases of a module in declaration order.
func (r *Registry) ListCases(module string) []TestCase {
	return append([]TestCase(nil), r.cases[module]...)
}

// Modules returns the module names in the order they were first registered.
func (r *Registry) Modules() []string {
	return append([]string(nil), r.modules...)
}
