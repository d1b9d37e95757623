package fhirtests

import (
	"github.com/sprinkler-fhir/sprinkler/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// DemoPatient is the Patient that the modules create. It only needs to be valid, not realistic.
func DemoPatient() ldvalue.Value {
	name := ldvalue.ObjectBuild().
		Set("use", ldvalue.String("official")).
		Set("family", ldvalue.String("Chalmers")).
		Set("given", ldvalue.ArrayOf(ldvalue.String("Peter"), ldvalue.String("James"))).
		Build()
	phone := contactPoint("phone", "(03) 5555 6473")
	return ldvalue.ObjectBuild().
		Set("resourceType", ldvalue.String("Patient")).
		Set("active", ldvalue.Bool(true)).
		Set("name", ldvalue.ArrayOf(name)).
		Set("telecom", ldvalue.ArrayOf(phone)).
		Set("gender", ldvalue.String("male")).
		Set("birthDate", ldvalue.String("1974-12-25")).
		Build()
}

func contactPoint(system, value string) ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("system", ldvalue.String(system)).
		Set("value", ldvalue.String(value)).
		Build()
}

// withTelecom returns a copy of a resource with one more contact point.
func withTelecom(resource ldvalue.Value, system, value string) ldvalue.Value {
	telecom := ldvalue.ArrayBuild()
	existing := resource.GetByKey("telecom")
	for i := 0; i < existing.Count(); i++ {
		telecom.Add(existing.GetByIndex(i))
	}
	telecom.Add(contactPoint(system, value))
	return servicedef.WithProperty(resource, "telecom", telecom.Build())
}

func familyName(resource ldvalue.Value) string {
	return resource.GetByKey("name").GetByIndex(0).GetByKey("family").StringValue()
}
