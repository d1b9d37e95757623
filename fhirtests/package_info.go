// Package fhirtests contains the conformance test modules themselves and their supporting API.
//
// Test harness infrastructure that is not specific to the resource protocol, such as ordering
// cases, sharing a fixture between them and turning failures and skips into outcomes, is in
// the lower-level framework package. Verification of history collections is in the history
// package.
package fhirtests
