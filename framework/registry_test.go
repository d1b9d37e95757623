package framework

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(*Context) {}

func TestRegisterAndList(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("History", TestCase{Code: "HI01", Action: noop}, TestCase{Code: "HI02", Action: noop}))
	require.NoError(t, r.Register("CRUD", TestCase{Code: "CR01", Action: noop}))
	require.NoError(t, r.Register("History", TestCase{Code: "HI03", Action: noop}))

	assert.Equal(t, []string{"History", "CRUD"}, r.Modules())
	cases := r.ListCases("History")
	require.Len(t, cases, 3)
	for i, code := range []string{"HI01", "HI02", "HI03"} {
		assert.Equal(t, code, cases[i].Code)
		assert.Equal(t, "History", cases[i].Module)
	}
	assert.Empty(t, r.ListCases("Binary"))
}

func TestRegisterRejectsDuplicateCode(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("History", TestCase{Code: "HI01", Action: noop}))

	err := r.Register("History", TestCase{Code: "HI02", Action: noop}, TestCase{Code: "HI01", Action: noop})
	var dup *DuplicateCodeError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, DuplicateCodeError{Module: "History", Code: "HI01"}, *dup)
	assert.Len(t, r.ListCases("History"), 1, "a failed call must not add any cases")

	err = r.Register("Other", TestCase{Code: "X", Action: noop}, TestCase{Code: "X", Action: noop})
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, []string{"History"}, r.Modules(), "a failed call must not add the module")
}

func TestSameCodeInDifferentModules(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.Register("A", TestCase{Code: "X01", Action: noop}))
	assert.NoError(t, r.Register("B", TestCase{Code: "X01", Action: noop}))
}

func TestRegisterRejectsInvalidCases(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register("", TestCase{Code: "X", Action: noop}))
	assert.Error(t, r.Register("M", TestCase{Action: noop}))
	assert.Error(t, r.Register("M", TestCase{Code: "X"}))
	assert.Empty(t, r.Modules())
}

func TestListCasesReturnsCopy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("M", TestCase{Code: "X", Action: noop}))
	cases := r.ListCases("M")
	cases[0].Code = "changed"
	assert.Equal(t, "X", r.ListCases("M")[0].Code)
}
