package fhirtests

import (
	"github.com/sprinkler-fhir/sprinkler/framework"
	"github.com/sprinkler-fhir/sprinkler/servicedef"
)

const ConformanceModule = "Conformance"

func ConformanceCases() []framework.TestCase {
	return []framework.TestCase{
		{Code: "CN01", Title: "Request conformance on /metadata", Action: Case(doConformanceUsingMetadata)},
	}
}

func doConformanceUsingMetadata(t *T) {
	statement := t.Conformance()
	switch resourceType := servicedef.ResourceType(statement); resourceType {
	case "CapabilityStatement", "Conformance":
	default:
		t.Errorf("/metadata returned a %q instead of a capability statement", resourceType)
	}
	t.AssertValidResourceContentTypePresent()
	t.AssertContentLocationValidIfPresent()
}
