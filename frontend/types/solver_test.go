package types

import (
	"go/token"
	"testing"

	"github.com/cottand/sable/frontend/ast"
	"github.com/cottand/sable/frontend/serr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func span(n int) ast.Range {
	return ast.Range{PosStart: token.Pos(n + 1), PosEnd: token.Pos(n + 2)}
}

func newTestGenerator(opts SolverOpts) (*Universe, *ConstraintSystem, *Generator) {
	u := NewUniverse()
	cs := u.NewSystem(opts)
	return u, cs, NewGenerator(cs, u.Literals())
}

func TestSolveLiteralDefaultsToInt(t *testing.T) {
	u, cs, g := newTestGenerator(DefaultSolverOpts())
	lit := &ast.IntLit{Range: span(0), Value: 42}
	litTy := g.Visit(lit)

	solutions, errs := cs.Solve()
	require.False(t, errs.HasError())
	require.Len(t, solutions, 1)

	bound, ok := solutions[0].TypeOf(litTy.(*TypeVar))
	require.True(t, ok)
	assert.Equal(t, u.IntType().String(), bound.String())
	assert.Equal(t, Score{}, solutions[0].Score())
}

func TestSolvePicksOverloadMatchingContext(t *testing.T) {
	u, cs, g := newTestGenerator(DefaultSolverOpts())
	u.DeclareFunc("f", nil, u.IntType())
	u.DeclareFunc("f", nil, u.StringType())

	call := &ast.CallExpr{Range: span(0), Fn: &ast.NameRef{Range: span(1), Name: "f"}}
	result := g.Visit(call)
	// the context demands an Int result
	loc := cs.GetConstraintLocator(call)
	require.True(t, cs.AddConstraint(cs.NewConstraint(KindConversion, result, u.IntType(), loc)))

	solutions, errs := cs.Solve()
	require.False(t, errs.HasError())
	require.Len(t, solutions, 1)

	resolved := solutions[0].Overloads()
	require.NotNil(t, resolved)
	assert.Equal(t, "() -> Int", resolved.Choice.Decl.InterfaceType.String())

	bound, ok := solutions[0].TypeOf(result.(*TypeVar))
	require.True(t, ok)
	assert.Equal(t, "Int", bound.String())
}

func TestSolveReportsGenuineAmbiguity(t *testing.T) {
	u, cs, g := newTestGenerator(DefaultSolverOpts())
	u.DeclareFunc("f", []Type{u.IntType()}, u.IntType())
	u.DeclareFunc("f", []Type{u.IntType()}, u.StringType())
	u.DeclareVar("x", u.IntType())

	call := &ast.CallExpr{
		Range: span(0),
		Fn:    &ast.NameRef{Range: span(1), Name: "f"},
		Args:  []ast.Expr{&ast.NameRef{Range: span(3), Name: "x"}},
	}
	g.Visit(call)

	solutions, errs := cs.Solve()
	require.True(t, errs.HasError())
	require.Len(t, errs.Errors(), 1)
	assert.Equal(t, serr.AmbiguousReference, errs.Errors()[0].Code())
	assert.Len(t, solutions, 2, "both typings survive for diagnosis")
}

func TestSolveFavoredChoiceWinsScoring(t *testing.T) {
	u, cs, g := newTestGenerator(DefaultSolverOpts())
	u.DeclareFunc("f", nil, u.IntType())
	favored := u.DeclareFunc("f", nil, u.StringType())

	call := &ast.CallExpr{Range: span(0), Fn: &ast.NameRef{Range: span(1), Name: "f"}}
	g.Visit(call)

	// mark the String overload's disjunct as favored
	disjunction := cs.bestDisjunction()
	require.NotNil(t, disjunction)
	for _, disjunct := range disjunction.Nested {
		if disjunct.Choice.Decl == favored {
			disjunct.SetFavored()
		}
	}

	solutions, errs := cs.Solve()
	require.False(t, errs.HasError())
	require.Len(t, solutions, 1)
	assert.Same(t, favored, solutions[0].Overloads().Choice.Decl)
	assert.Equal(t, Score{}, solutions[0].Score())
}

func TestSolveOpensGenericFunction(t *testing.T) {
	u, cs, g := newTestGenerator(DefaultSolverOpts())
	tp := &GenericParamType{Name: "T"}
	u.DeclareGenericFunc("id",
		&GenericSignature{Params: []*GenericParamType{tp}},
		&FuncType{Params: []Type{tp}, Ret: tp},
	)

	call := &ast.CallExpr{
		Range: span(0),
		Fn:    &ast.NameRef{Range: span(1), Name: "id"},
		Args:  []ast.Expr{&ast.IntLit{Range: span(4), Value: 1}},
	}
	result := g.Visit(call)

	solutions, errs := cs.Solve()
	require.False(t, errs.HasError())
	require.Len(t, solutions, 1)

	bound, ok := solutions[0].TypeOf(result.(*TypeVar))
	require.True(t, ok)
	assert.Equal(t, "Int", bound.String())
}

func TestSolveMemberAccess(t *testing.T) {
	u, cs, g := newTestGenerator(DefaultSolverOpts())
	point := &TypeDecl{Name: "Point"}
	u.DeclareMember(point, &ValueDecl{
		Name:          "x",
		Kind:          VarDecl,
		InterfaceType: u.IntType(),
		Settable:      true,
	})
	u.DeclareVar("p", &NominalType{Decl: point})

	member := &ast.MemberExpr{
		Range: span(0),
		Base:  &ast.NameRef{Range: span(0), Name: "p"},
		Name:  "x",
	}
	memberTy := g.Visit(member)

	solutions, errs := cs.Solve()
	require.False(t, errs.HasError())
	require.Len(t, solutions, 1)

	bound, ok := solutions[0].TypeOf(memberTy.(*TypeVar))
	require.True(t, ok)
	assert.Equal(t, "Int", bound.String())
}

func TestSolveDynamicMemberThroughExistential(t *testing.T) {
	u, cs, g := newTestGenerator(DefaultSolverOpts())
	anyObj := &ProtocolDecl{Name: "AnyObject"}
	counter := &TypeDecl{Name: "Counter", IsClass: true}
	gauge := &TypeDecl{Name: "Gauge", IsClass: true}
	u.DeclareDynamic(&ValueDecl{
		Name:          "count",
		Kind:          VarDecl,
		InterfaceType: u.IntType(),
		Context:       NewNominalContext(counter, u.Module),
	})
	// a second class exposing the same runtime name and type is the same
	// candidate, not an ambiguity
	u.DeclareDynamic(&ValueDecl{
		Name:          "count",
		Kind:          VarDecl,
		InterfaceType: u.IntType(),
		Context:       NewNominalContext(gauge, u.Module),
	})
	u.DeclareVar("obj", &ProtocolType{Decl: anyObj})

	member := &ast.MemberExpr{
		Range: span(0),
		Base:  &ast.NameRef{Range: span(0), Name: "obj"},
		Name:  "count",
	}
	memberTy := g.Visit(member)

	solutions, errs := cs.Solve()
	require.False(t, errs.HasError())
	require.Len(t, solutions, 1)

	bound, ok := solutions[0].TypeOf(memberTy.(*TypeVar))
	require.True(t, ok)
	assert.Equal(t, "Int!", bound.String(),
		"a dynamically found member is implicitly unwrapped")
	resolved := solutions[0].Overloads()
	require.NotNil(t, resolved)
	assert.Equal(t, ChoiceDeclViaDynamic, resolved.Choice.Kind)
}

func TestSolveUnknownMember(t *testing.T) {
	u, cs, g := newTestGenerator(DefaultSolverOpts())
	point := &TypeDecl{Name: "Point"}
	u.DeclareVar("p", &NominalType{Decl: point})

	member := &ast.MemberExpr{
		Range: span(0),
		Base:  &ast.NameRef{Range: span(0), Name: "p"},
		Name:  "y",
	}
	g.Visit(member)

	solutions, errs := cs.Solve()
	assert.Empty(t, solutions)
	require.True(t, errs.HasError())
	assert.Equal(t, serr.UnknownMember, errs.Errors()[0].Code())
}

func TestSolveNoViableOverload(t *testing.T) {
	u, cs, g := newTestGenerator(DefaultSolverOpts())
	u.DeclareFunc("f", []Type{u.StringType()}, u.IntType())
	u.DeclareVar("x", u.IntType())

	call := &ast.CallExpr{
		Range: span(0),
		Fn:    &ast.NameRef{Range: span(1), Name: "f"},
		Args:  []ast.Expr{&ast.NameRef{Range: span(3), Name: "x"}},
	}
	g.Visit(call)

	solutions, errs := cs.Solve()
	assert.Empty(t, solutions)
	require.True(t, errs.HasError())
	assert.Equal(t, serr.TypeMismatch, errs.Errors()[0].Code())
}

func TestSolveTooComplexBudget(t *testing.T) {
	u := NewUniverse()
	opts := DefaultSolverOpts()
	opts.MaxSteps = 1
	cs := u.NewSystem(opts)
	g := NewGenerator(cs, u.Literals())

	u.DeclareFunc("f", nil, u.IntType())
	u.DeclareFunc("f", nil, u.StringType())
	call := &ast.CallExpr{Range: span(0), Fn: &ast.NameRef{Range: span(1), Name: "f"}}
	g.Visit(call)

	solutions, errs := cs.Solve()
	assert.Empty(t, solutions)
	require.True(t, errs.HasError())
	assert.Equal(t, serr.TooComplex, errs.Errors()[0].Code())
}

func TestSolveRecoversWithFixes(t *testing.T) {
	u := NewUniverse()
	opts := DefaultSolverOpts()
	opts.AllowFixes = true
	cs := u.NewSystem(opts)
	g := NewGenerator(cs, u.Literals())

	u.DeclareFunc("f", []Type{u.StringType()}, u.IntType())
	u.DeclareVar("x", u.IntType())

	call := &ast.CallExpr{
		Range: span(0),
		Fn:    &ast.NameRef{Range: span(1), Name: "f"},
		Args:  []ast.Expr{&ast.NameRef{Range: span(3), Name: "x"}},
	}
	g.Visit(call)

	solutions, errs := cs.Solve()
	require.False(t, errs.HasError())
	require.Len(t, solutions, 1)
	require.NotEmpty(t, solutions[0].Fixes())
	assert.Greater(t, solutions[0].Score().Fixes, 0, "a coerced solution is not free")
}

func TestApplySolutionWritesResolvedTypes(t *testing.T) {
	u, cs, g := newTestGenerator(DefaultSolverOpts())
	u.DeclareFunc("f", nil, u.IntType())

	fn := &ast.NameRef{Range: span(1), Name: "f"}
	call := &ast.CallExpr{Range: span(0), Fn: fn}
	g.Visit(call)

	solutions, errs := cs.Solve()
	require.False(t, errs.HasError())
	require.Len(t, solutions, 1)

	g.ApplySolution(solutions[0])
	callTy, ok := call.ResolvedType().(Type)
	require.True(t, ok)
	assert.Equal(t, "Int", callTy.String())
	fnTy, ok := fn.ResolvedType().(Type)
	require.True(t, ok)
	assert.Equal(t, "() -> Int", fnTy.String())
}

func TestSolveFailuresSurviveBacktracking(t *testing.T) {
	u := NewUniverse()
	opts := DefaultSolverOpts()
	opts.RecordAllFailures = true
	cs := u.NewSystem(opts)
	g := NewGenerator(cs, u.Literals())

	u.DeclareFunc("f", nil, u.IntType())
	u.DeclareFunc("f", nil, u.StringType())
	call := &ast.CallExpr{Range: span(0), Fn: &ast.NameRef{Range: span(1), Name: "f"}}
	result := g.Visit(call)
	loc := cs.GetConstraintLocator(call)
	require.True(t, cs.AddConstraint(cs.NewConstraint(KindConversion, result, u.IntType(), loc)))

	solutions, errs := cs.Solve()
	require.False(t, errs.HasError())
	require.Len(t, solutions, 1)
	assert.NotEmpty(t, cs.Failures(), "the rejected branch's failure is retained for diagnosis")
}
