package fhirtests

import "github.com/sprinkler-fhir/sprinkler/framework"

// RegisterAll adds every test module to a registry.
func RegisterAll(registry *framework.Registry) error {
	for _, m := range []struct {
		name  string
		cases []framework.TestCase
	}{
		{ConformanceModule, ConformanceCases()},
		{CRUDModule, CRUDCases()},
		{HistoryModule, HistoryCases()},
	} {
		if err := registry.Register(m.name, m.cases...); err != nil {
			return err
		}
	}
	return nil
}
