package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSystem() (*Universe, *ConstraintSystem) {
	u := NewUniverse()
	return u, u.NewSystem(DefaultSolverOpts())
}

func TestGetRepresentativeIsIdempotent(t *testing.T) {
	_, cs := newTestSystem()
	a := cs.NewTypeVariable(nil, 0)
	b := cs.NewTypeVariable(nil, 0)
	c := cs.NewTypeVariable(nil, 0)

	cs.MergeEquivalenceClasses(a, b)
	cs.MergeEquivalenceClasses(a, c)

	rep := cs.GetRepresentative(c)
	assert.Same(t, a, rep)
	assert.Same(t, rep, cs.GetRepresentative(rep))
	assert.Same(t, a, cs.GetRepresentative(b))
}

func TestMergePropagatesFixedType(t *testing.T) {
	u, cs := newTestSystem()
	a := cs.NewTypeVariable(nil, 0)
	b := cs.NewTypeVariable(nil, 0)

	cs.MergeEquivalenceClasses(a, b)
	cs.AssignFixedType(a, u.IntType())

	assert.Equal(t, u.IntType().String(), cs.GetFixedType(b).String())
}

func TestMergeMigratesLiteralProtocol(t *testing.T) {
	u, cs := newTestSystem()
	a := cs.NewTypeVariable(nil, 0)
	b := cs.NewLiteralTypeVariable(u.IntegerLiteral, nil)

	cs.MergeEquivalenceClasses(a, b)

	assert.Same(t, u.IntegerLiteral, cs.GetRepresentative(b).LiteralProtocol())
}

func TestMergeUndoClearsInheritedLiteralTag(t *testing.T) {
	u, cs := newTestSystem()
	a := cs.NewTypeVariable(nil, 0)
	b := cs.NewLiteralTypeVariable(u.IntegerLiteral, nil)

	cp := cs.Checkpoint()
	cs.MergeEquivalenceClasses(a, b)
	require.Same(t, u.IntegerLiteral, a.LiteralProtocol())

	cs.RestoreCheckpoint(cp)
	assert.Nil(t, a.LiteralProtocol(), "the tag copied during the merge is undone")
	assert.Equal(t, []*TypeVar{b}, cs.freeLiteralVars(),
		"only the real literal variable is defaultable after backtracking")
}

func TestActivationKeepsInactiveQueueConsistent(t *testing.T) {
	u, cs := newTestSystem()
	v1 := cs.NewTypeVariable(nil, 0)
	v2 := cs.NewTypeVariable(nil, 0)
	v3 := cs.NewTypeVariable(nil, 0)

	c1 := cs.NewConstraint(KindSubtype, v1, u.IntType(), nil)
	c2 := cs.NewConstraint(KindSubtype, v2, u.IntType(), nil)
	c3 := cs.NewConstraint(KindSubtype, v3, u.IntType(), nil)
	require.True(t, cs.AddConstraint(c1))
	require.True(t, cs.AddConstraint(c2))
	require.True(t, cs.AddConstraint(c3))
	require.Len(t, cs.inactive, 3)

	// removing from the front swaps the tail constraint into the hole
	cs.activateConstraintsOn(v1)
	require.Equal(t, []*Constraint{c1}, cs.active)

	// the swapped constraint must still be found at its new slot
	cs.activateConstraintsOn(v3)
	assert.Equal(t, []*Constraint{c2}, cs.inactive)
	assert.Equal(t, []*Constraint{c1, c3}, cs.active)
}

func TestAssignFixedTypeRejectsConflicts(t *testing.T) {
	u, cs := newTestSystem()
	a := cs.NewTypeVariable(nil, 0)

	cs.AssignFixedType(a, u.IntType())
	// re-assigning the same type is a no-op
	cs.AssignFixedType(a, u.IntType())
	assert.Panics(t, func() { cs.AssignFixedType(a, u.StringType()) })
	assert.Panics(t, func() { cs.MergeEquivalenceClasses(a, a) })
}

func TestGetFixedTypeRecursiveChasesBindings(t *testing.T) {
	u, cs := newTestSystem()
	a := cs.NewTypeVariable(nil, 0)
	b := cs.NewTypeVariable(nil, 0)

	cs.AssignFixedType(a, b)
	cs.AssignFixedType(b, &LValueType{Obj: u.IntType()})

	asRValue := cs.GetFixedTypeRecursive(a, true)
	assert.Equal(t, u.IntType().String(), asRValue.String())

	asLValue := cs.GetFixedTypeRecursive(a, false)
	_, isLValue := asLValue.(*LValueType)
	assert.True(t, isLValue)
}

func TestCheckpointUndoesBindingsAndMerges(t *testing.T) {
	u, cs := newTestSystem()
	a := cs.NewTypeVariable(nil, 0)
	b := cs.NewTypeVariable(nil, 0)

	cp := cs.Checkpoint()
	cs.MergeEquivalenceClasses(a, b)
	cs.AssignFixedType(a, u.IntType())
	require.NotNil(t, cs.GetFixedType(b))

	cs.RestoreCheckpoint(cp)

	assert.Same(t, b, cs.GetRepresentative(b))
	assert.Nil(t, cs.GetFixedType(a))
	assert.Nil(t, cs.GetFixedType(b))
}

func TestCheckpointRestoresConstraintQueues(t *testing.T) {
	u, cs := newTestSystem()
	a := cs.NewTypeVariable(nil, 0)

	// a relational constraint on a free variable parks as inactive
	ok := cs.AddConstraint(cs.NewConstraint(KindSubtype, a, u.IntType(), nil))
	require.True(t, ok)
	require.Len(t, cs.inactive, 1)

	cp := cs.Checkpoint()
	cs.AssignFixedType(a, u.IntType())
	require.Len(t, cs.active, 1, "binding must re-activate the parked constraint")

	cs.RestoreCheckpoint(cp)
	assert.Empty(t, cs.active)
	require.Len(t, cs.inactive, 1)
	assert.False(t, cs.inactive[0].IsActive())
}

func TestSimplifyTypeResolvesDeeply(t *testing.T) {
	u, cs := newTestSystem()
	a := cs.NewTypeVariable(nil, 0)
	cs.AssignFixedType(a, u.IntType())

	fn := &FuncType{Params: []Type{a}, Ret: &OptionalType{Wrapped: a}}
	resolved := cs.simplifyType(fn)

	assert.Equal(t, "(Int) -> Int?", resolved.String())
}
