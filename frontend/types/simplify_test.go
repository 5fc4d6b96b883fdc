package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchTypesBindsFreeVariable(t *testing.T) {
	u, cs := newTestSystem()
	tv := cs.NewTypeVariable(nil, 0)

	got := cs.matchTypes(KindEqual, tv, u.IntType(), nil)

	assert.Equal(t, constraintSolved, got)
	assert.Equal(t, u.IntType().String(), cs.GetFixedType(tv).String())
}

func TestMatchTypesOccursCheck(t *testing.T) {
	_, cs := newTestSystem()
	tv := cs.NewTypeVariable(nil, 0)
	recursive := &FuncType{Params: []Type{tv}, Ret: tv}

	got := cs.matchTypes(KindEqual, tv, recursive, nil)

	assert.Equal(t, constraintErrored, got)
	assert.Nil(t, cs.GetFixedType(tv))
}

func TestMatchTypesDefersRelationalOnFreeVariable(t *testing.T) {
	u, cs := newTestSystem()
	tv := cs.NewTypeVariable(nil, 0)

	assert.Equal(t, constraintUnsolved, cs.matchTypes(KindSubtype, tv, u.IntType(), nil))
	assert.Equal(t, constraintUnsolved, cs.matchTypes(KindConversion, u.IntType(), tv, nil))
	assert.Nil(t, cs.GetFixedType(tv))
}

func TestMatchTypesFunctionVariance(t *testing.T) {
	u, _ := newTestSystem()
	animal := &TypeDecl{Name: "Animal", IsClass: true}
	dog := &TypeDecl{Name: "Dog", IsClass: true, Superclass: &NominalType{Decl: animal}}

	testCases := []struct {
		name     string
		from, to *FuncType
		kind     ConstraintKind
		expected solveResult
	}{
		{
			name:     "covariant result accepted under conversion",
			from:     &FuncType{Params: []Type{u.IntType()}, Ret: &NominalType{Decl: dog}},
			to:       &FuncType{Params: []Type{u.IntType()}, Ret: &NominalType{Decl: animal}},
			kind:     KindConversion,
			expected: constraintSolved,
		},
		{
			name:     "contravariant parameter accepted under conversion",
			from:     &FuncType{Params: []Type{&NominalType{Decl: animal}}, Ret: u.IntType()},
			to:       &FuncType{Params: []Type{&NominalType{Decl: dog}}, Ret: u.IntType()},
			kind:     KindConversion,
			expected: constraintSolved,
		},
		{
			name:     "covariant parameter rejected under conversion",
			from:     &FuncType{Params: []Type{&NominalType{Decl: dog}}, Ret: u.IntType()},
			to:       &FuncType{Params: []Type{&NominalType{Decl: animal}}, Ret: u.IntType()},
			kind:     KindConversion,
			expected: constraintErrored,
		},
		{
			name:     "exact equality required under equal",
			from:     &FuncType{Params: []Type{&NominalType{Decl: dog}}, Ret: u.IntType()},
			to:       &FuncType{Params: []Type{&NominalType{Decl: animal}}, Ret: u.IntType()},
			kind:     KindEqual,
			expected: constraintErrored,
		},
		{
			name:     "arity mismatch rejected",
			from:     &FuncType{Params: []Type{u.IntType()}, Ret: u.IntType()},
			to:       &FuncType{Params: nil, Ret: u.IntType()},
			kind:     KindConversion,
			expected: constraintErrored,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, cs := newTestSystem()
			assert.Equal(t, tc.expected, cs.matchTypes(tc.kind, tc.from, tc.to, nil))
		})
	}
}

func TestMatchTypesOptionals(t *testing.T) {
	u, _ := newTestSystem()

	testCases := []struct {
		name     string
		from, to Type
		kind     ConstraintKind
		expected solveResult
	}{
		{
			name:     "optional injection under conversion",
			from:     u.IntType(),
			to:       &OptionalType{Wrapped: u.IntType()},
			kind:     KindConversion,
			expected: constraintSolved,
		},
		{
			name:     "no injection under equality",
			from:     u.IntType(),
			to:       &OptionalType{Wrapped: u.IntType()},
			kind:     KindEqual,
			expected: constraintErrored,
		},
		{
			name:     "covariant optional wrapping",
			from:     &OptionalType{Wrapped: u.IntType()},
			to:       &OptionalType{Wrapped: u.IntType()},
			kind:     KindEqual,
			expected: constraintSolved,
		},
		{
			name:     "implicit force of an IUO under conversion",
			from:     &IUOptionalType{Wrapped: u.IntType()},
			to:       u.IntType(),
			kind:     KindConversion,
			expected: constraintSolved,
		},
		{
			name:     "no implicit force under equality",
			from:     &IUOptionalType{Wrapped: u.IntType()},
			to:       u.IntType(),
			kind:     KindEqual,
			expected: constraintErrored,
		},
		{
			name:     "plain optional does not force without fixes",
			from:     &OptionalType{Wrapped: u.IntType()},
			to:       u.IntType(),
			kind:     KindConversion,
			expected: constraintErrored,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, cs := newTestSystem()
			assert.Equal(t, tc.expected, cs.matchTypes(tc.kind, tc.from, tc.to, nil))
		})
	}
}

func TestMatchTypesSuperclassConversion(t *testing.T) {
	_, cs := newTestSystem()
	animal := &TypeDecl{Name: "Animal", IsClass: true}
	dog := &TypeDecl{Name: "Dog", IsClass: true, Superclass: &NominalType{Decl: animal}}

	assert.Equal(t, constraintSolved,
		cs.matchTypes(KindSubtype, &NominalType{Decl: dog}, &NominalType{Decl: animal}, nil))
	assert.Equal(t, constraintErrored,
		cs.matchTypes(KindSubtype, &NominalType{Decl: animal}, &NominalType{Decl: dog}, nil))
	assert.Equal(t, constraintErrored,
		cs.matchTypes(KindEqual, &NominalType{Decl: dog}, &NominalType{Decl: animal}, nil))
}

func TestSuperclassSubstitutesGenericArguments(t *testing.T) {
	u, _ := newTestSystem()
	tp := &GenericParamType{Name: "T"}
	base := &TypeDecl{Name: "Collection", IsClass: true, Generics: &GenericSignature{Params: []*GenericParamType{tp}}}
	derived := &TypeDecl{
		Name:       "List",
		IsClass:    true,
		Generics:   &GenericSignature{Params: []*GenericParamType{tp}},
		Superclass: &NominalType{Decl: base, Args: []Type{tp}},
	}

	super := superclassOf(&NominalType{Decl: derived, Args: []Type{u.IntType()}})
	require.NotNil(t, super)
	assert.Equal(t, "Collection<Int>", super.String())
}

func TestMatchTypesProtocolConversionConsultsOracle(t *testing.T) {
	u, cs := newTestSystem()

	assert.Equal(t, constraintSolved,
		cs.matchTypes(KindConversion, u.IntType(), &ProtocolType{Decl: u.IntegerLiteral}, nil))
	assert.Equal(t, constraintErrored,
		cs.matchTypes(KindConversion, u.StringType(), &ProtocolType{Decl: u.IntegerLiteral}, nil))
}

func TestMatchTypesErrorTypePoisonsQuietly(t *testing.T) {
	u, cs := newTestSystem()

	assert.Equal(t, constraintSolved, cs.matchTypes(KindEqual, ErrorType(), u.IntType(), nil))
	assert.Equal(t, constraintSolved, cs.matchTypes(KindConversion, u.IntType(), ErrorType(), nil))
	assert.Empty(t, cs.Failures())
}

func TestConversionFixesWhenAllowed(t *testing.T) {
	u := NewUniverse()
	opts := DefaultSolverOpts()
	opts.AllowFixes = true
	cs := u.NewSystem(opts)

	got := cs.matchTypes(KindConversion, u.StringType(), u.IntType(), nil)

	assert.Equal(t, constraintSolved, got)
	require.Len(t, cs.Fixes(), 1)
	assert.Equal(t, FixCoerceMismatch, cs.Fixes()[0].Kind)
}

func TestForceOptionalFixWhenAllowed(t *testing.T) {
	u := NewUniverse()
	opts := DefaultSolverOpts()
	opts.AllowFixes = true
	cs := u.NewSystem(opts)

	got := cs.matchTypes(KindConversion, &OptionalType{Wrapped: u.IntType()}, u.IntType(), nil)

	assert.Equal(t, constraintSolved, got)
	require.Len(t, cs.Fixes(), 1)
	assert.Equal(t, FixForceOptional, cs.Fixes()[0].Kind)
}

func TestCheckedCastRequiresRelatedClasses(t *testing.T) {
	u, cs := newTestSystem()
	animal := &TypeDecl{Name: "Animal", IsClass: true}
	dog := &TypeDecl{Name: "Dog", IsClass: true, Superclass: &NominalType{Decl: animal}}

	downcast := cs.NewConstraint(KindCheckedCast, &NominalType{Decl: animal}, &NominalType{Decl: dog}, nil)
	assert.Equal(t, constraintSolved, cs.simplifyCheckedCast(downcast))

	unrelated := cs.NewConstraint(KindCheckedCast, &NominalType{Decl: dog}, u.StringType(), nil)
	assert.Equal(t, constraintErrored, cs.simplifyCheckedCast(unrelated))
}

func TestBridgedToForeign(t *testing.T) {
	u, cs := newTestSystem()
	foreign := &TypeDecl{Name: "NSString", IsClass: true}
	bridged := &TypeDecl{Name: "Text", BridgedForeign: &NominalType{Decl: foreign}}

	tv := cs.NewTypeVariable(nil, 0)
	c := cs.NewConstraint(KindBridgedToForeign, &NominalType{Decl: bridged}, tv, nil)
	require.Equal(t, constraintSolved, cs.simplifyBridgedToForeign(c))
	assert.Equal(t, "NSString", cs.GetFixedTypeRecursive(tv, true).String())

	noBridge := cs.NewConstraint(KindBridgedToForeign, u.IntType(), cs.NewTypeVariable(nil, 0), nil)
	assert.Equal(t, constraintErrored, cs.simplifyBridgedToForeign(noBridge))
}
