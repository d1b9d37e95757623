package framework

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func codes(cases []TestCase) []string {
	var ret []string
	for _, c := range cases {
		ret = append(ret, c.Code)
	}
	return ret
}

func TestOrderCasesByPriority(t *testing.T) {
	cases := []TestCase{
		{Code: "delete", Priority: 4},
		{Code: "create", Priority: 1},
		{Code: "update", Priority: 3},
		{Code: "read", Priority: 2},
	}
	assert.Equal(t, []string{"create", "read", "update", "delete"}, codes(OrderCases(cases)))
	assert.Equal(t, "delete", cases[0].Code, "input must not be reordered")
}

func TestOrderCasesKeepsDeclarationOrderForTies(t *testing.T) {
	cases := []TestCase{
		{Code: "a", Priority: 2},
		{Code: "b", Priority: 1},
		{Code: "c", Priority: 2},
		{Code: "d", Priority: 1},
		{Code: "e", Priority: 2},
	}
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, codes(OrderCases(cases)))
}

func TestOrderCasesNeverDropsOrDuplicates(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for n := 0; n < 50; n++ {
		var cases []TestCase
		for i := 0; i < n; i++ {
			cases = append(cases, TestCase{Code: fmt.Sprintf("C%02d", i), Priority: rnd.Intn(5)})
		}
		ordered := OrderCases(cases)

		assert.ElementsMatch(t, codes(cases), codes(ordered))
		for i := 1; i < len(ordered); i++ {
			prev, cur := ordered[i-1], ordered[i]
			assert.LessOrEqual(t, prev.Priority, cur.Priority)
			if prev.Priority == cur.Priority {
				assert.Less(t, prev.Code, cur.Code, "ties must keep declaration order")
			}
		}
	}
}
