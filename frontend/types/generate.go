package types

import (
	"errors"

	"github.com/cottand/sable/frontend/ast"
	"github.com/cottand/sable/frontend/serr"
)

var errUnknownExprNode = errors.New("unsupported expression node")

// LiteralProtocols names the protocols literal expressions default through.
type LiteralProtocols struct {
	Integer *ProtocolDecl
	Float   *ProtocolDecl
	Boolean *ProtocolDecl
	String  *ProtocolDecl
}

// Literals bundles the universe's literal protocols for constraint generation.
func (u *Universe) Literals() LiteralProtocols {
	return LiteralProtocols{
		Integer: u.IntegerLiteral,
		Float:   u.FloatLiteral,
		Boolean: u.BooleanLiteral,
		String:  u.StringLiteral,
	}
}

// Generator walks expression trees and emits the constraints describing them
// into a ConstraintSystem. Each visited node gets a type (usually a fresh
// variable) remembered so a solution can later be written back into the tree.
type Generator struct {
	cs       *ConstraintSystem
	literals LiteralProtocols
	types    map[ast.Expr]Type
	errors   *serr.Errors
}

func NewGenerator(cs *ConstraintSystem, literals LiteralProtocols) *Generator {
	return &Generator{
		cs:       cs,
		literals: literals,
		types:    make(map[ast.Expr]Type),
	}
}

// Errors returns the name-resolution errors hit while generating.
func (g *Generator) Errors() *serr.Errors { return g.errors }

// TypeOf returns the type generated for a visited expression.
func (g *Generator) TypeOf(expr ast.Expr) (Type, bool) {
	t, ok := g.types[expr]
	return t, ok
}

// Visit emits the constraints for expr and its sub-expressions, returning the
// type standing for expr inside the system.
func (g *Generator) Visit(expr ast.Expr) Type {
	t := g.visit(expr)
	g.types[expr] = t
	return t
}

func (g *Generator) visit(expr ast.Expr) Type {
	loc := g.cs.GetConstraintLocator(expr)
	switch e := expr.(type) {
	case *ast.IntLit:
		return g.literal(g.literals.Integer, loc)
	case *ast.FloatLit:
		return g.literal(g.literals.Float, loc)
	case *ast.BoolLit:
		return g.literal(g.literals.Boolean, loc)
	case *ast.StringLit:
		return g.literal(g.literals.String, loc)

	case *ast.NameRef:
		candidates := g.cs.Lookup.LookupName(e.Name)
		if len(candidates) == 0 {
			g.errors = g.errors.With(serr.New(serr.NewUnknownMember{
				Positioner: ast.RangeOf(e),
				Base:       "module",
				Name:       e.Name,
			}))
			return ErrorType()
		}
		tv := g.cs.NewTypeVariable(loc, 0)
		choices := make([]OverloadChoice, len(candidates))
		for i, decl := range candidates {
			choices[i] = OverloadChoice{Kind: ChoiceDecl, Decl: decl}
		}
		g.cs.AddOverloadSet(tv, choices, loc)
		return tv

	case *ast.MemberExpr:
		baseTy := g.Visit(e.Base)
		tv := g.cs.NewTypeVariable(loc, 0)
		g.cs.AddConstraint(g.cs.NewMemberConstraint(KindValueMember, baseTy, e.Name, tv, loc))
		return tv

	case *ast.CallExpr:
		fnTy := g.Visit(e.Fn)
		args := make([]Type, len(e.Args))
		for i, arg := range e.Args {
			args[i] = g.Visit(arg)
		}
		result := g.cs.NewTypeVariable(loc, 0)
		// the callee must convert to the shape the call site demands
		shape := &FuncType{Params: args, Ret: result}
		fnLoc := g.cs.WithPath(loc, PathElement{Kind: PathApplyFunction})
		g.cs.AddConstraint(g.cs.NewConstraint(KindConversion, fnTy, shape, fnLoc))
		return result

	case *ast.TupleExpr:
		elems := make([]Type, len(e.Elems))
		for i, el := range e.Elems {
			elems[i] = g.Visit(el)
		}
		return &TupleType{Elems: elems}

	default:
		g.errors = g.errors.With(serr.New(serr.Unclassified{
			From:       errUnknownExprNode,
			Positioner: ast.RangeOf(expr),
		}))
		return ErrorType()
	}
}

func (g *Generator) literal(proto *ProtocolDecl, loc *Locator) Type {
	tv := g.cs.NewLiteralTypeVariable(proto, loc)
	g.cs.AddConstraint(g.cs.NewConformsToConstraint(KindConformsTo, tv, proto, loc))
	return tv
}

// ApplySolution writes the solution's concrete types back into every visited
// expression's resolved-type slot.
func (g *Generator) ApplySolution(s *Solution) {
	for expr, t := range g.types {
		if tv, ok := t.(*TypeVar); ok {
			if bound, ok := s.TypeOf(tv); ok {
				expr.SetResolvedType(bound)
				continue
			}
		}
		expr.SetResolvedType(t)
	}
}
