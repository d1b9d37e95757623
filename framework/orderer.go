package framework

import "sort"

// OrderCases returns the cases sorted by ascending Priority. Cases with equal priority keep
// their input order, so a dependency chain expressed only through priorities always runs in
// the intended sequence. The input slice is not modified.
func OrderCases(cases []TestCase) []TestCase {
	ordered := append([]TestCase(nil), cases...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	return ordered
}
