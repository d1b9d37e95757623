// Package framework contains the protocol-independent part of the conformance harness.
//
// The general model is:
//
// 1. Test cases are declared explicitly, with a module name, a code that is unique within the
// module, a title and a priority, and added to a Registry.
//
// 2. The cases of a module run one at a time in priority order (ties keep declaration order)
// against a Fixture, which is the only state they share. Different modules have separate
// fixtures and may run concurrently.
//
// 3. Each case receives a Context which is similar to Go's *testing.T. Whatever the case does,
// including panicking, exactly one Outcome is recorded for it: passed, failed, skipped, or
// error.
//
// The domain-specific code that knows what is being tested provides the cases, and the
// environment value (such as a protocol client) that they reach through Context.Environment.
package framework
