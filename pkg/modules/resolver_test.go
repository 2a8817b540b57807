package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/florasynth/pkg/errors"
)

func orderOf(t *testing.T, mods []Module) []string {
	t.Helper()
	ids := make([]string, len(mods))
	for i, m := range mods {
		ids[i] = m.Descriptor().ID
	}
	return ids
}

func TestResolveOrdersDependenciesFirst(t *testing.T) {
	a := newFakeModule("a", nil, "col-a")
	b := newFakeModule("b", []string{"a"}, "col-b")
	c := newFakeModule("c", []string{"b", "a"}, "col-c")

	ordered, err := Resolve([]Module{c, b, a})
	require.NoError(t, err)

	idx := make(map[string]int)
	for i, id := range orderOf(t, ordered) {
		idx[id] = i
	}
	assert.Less(t, idx["a"], idx["b"])
	assert.Less(t, idx["b"], idx["c"])
}

func TestResolvePreservesInputOrderForIndependents(t *testing.T) {
	// No dependencies at all: the resolved order must equal the input
	// (registration) order, making runs reproducible.
	mods := []Module{
		newFakeModule("cherry", nil, "c1"),
		newFakeModule("apple", nil, "a1"),
		newFakeModule("banana", nil, "b1"),
	}
	ordered, err := Resolve(mods)
	require.NoError(t, err)
	assert.Equal(t, []string{"cherry", "apple", "banana"}, orderOf(t, ordered))
}

func TestResolveTieBreakAmongReadyModules(t *testing.T) {
	// b and c both depend on a; they stay in input order once a is placed.
	a := newFakeModule("a", nil, "col-a")
	b := newFakeModule("b", []string{"a"}, "col-b")
	c := newFakeModule("c", []string{"a"}, "col-c")

	ordered, err := Resolve([]Module{c, a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, orderOf(t, ordered))
}

func TestResolveDetectsCycle(t *testing.T) {
	a := newFakeModule("a", []string{"b"}, "col-a")
	b := newFakeModule("b", []string{"a"}, "col-b")

	_, err := Resolve([]Module{a, b})
	require.Error(t, err)

	var cycleErr *errors.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []string{"a", "b"}, cycleErr.ModuleIDs)
}

func TestResolveCycleNamesOnlyStuckModules(t *testing.T) {
	root := newFakeModule("root", nil, "col-root")
	a := newFakeModule("a", []string{"root", "b"}, "col-a")
	b := newFakeModule("b", []string{"a"}, "col-b")

	_, err := Resolve([]Module{root, a, b})
	var cycleErr *errors.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []string{"a", "b"}, cycleErr.ModuleIDs,
		"resolvable modules must not be blamed for the cycle")
}

func TestResolveEmptyInput(t *testing.T) {
	ordered, err := Resolve(nil)
	require.NoError(t, err)
	assert.Empty(t, ordered)
}
