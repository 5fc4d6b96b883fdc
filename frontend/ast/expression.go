package ast

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// Expr is a node of the expression tree handed to the type checker.
//
// The checker never mutates the tree structure itself; the only writable slot
// is the resolved type, which it fills in once a solution has been applied.
// The resolved type is deliberately untyped here so that this package does not
// depend on the type representation of whichever checker consumes it.
type Expr interface {
	Positioner
	fmt.Stringer
	// Children enumerates direct sub-expressions in source order.
	Children() iter.Seq[Expr]
	// ResolvedType returns whatever was stored via SetResolvedType, or nil.
	ResolvedType() any
	SetResolvedType(t any)
	exprNode()
}

// resolved holds the settable resolved-type slot shared by all nodes.
type resolved struct {
	typ any
}

func (r *resolved) ResolvedType() any     { return r.typ }
func (r *resolved) SetResolvedType(t any) { r.typ = t }

func noChildren(func(Expr) bool) {}

var (
	_ Expr = (*IntLit)(nil)
	_ Expr = (*FloatLit)(nil)
	_ Expr = (*StringLit)(nil)
	_ Expr = (*BoolLit)(nil)
	_ Expr = (*NameRef)(nil)
	_ Expr = (*MemberExpr)(nil)
	_ Expr = (*CallExpr)(nil)
	_ Expr = (*TupleExpr)(nil)
)

// IntLit is an integer literal, defaultable via the integer literal protocol.
type IntLit struct {
	Range
	resolved
	Value int64
}

func (e *IntLit) exprNode()                {}
func (e *IntLit) Children() iter.Seq[Expr] { return noChildren }
func (e *IntLit) String() string           { return strconv.FormatInt(e.Value, 10) }

type FloatLit struct {
	Range
	resolved
	Value float64
}

func (e *FloatLit) exprNode()                {}
func (e *FloatLit) Children() iter.Seq[Expr] { return noChildren }
func (e *FloatLit) String() string           { return strconv.FormatFloat(e.Value, 'g', -1, 64) }

type StringLit struct {
	Range
	resolved
	Value string
}

func (e *StringLit) exprNode()                {}
func (e *StringLit) Children() iter.Seq[Expr] { return noChildren }
func (e *StringLit) String() string           { return strconv.Quote(e.Value) }

type BoolLit struct {
	Range
	resolved
	Value bool
}

func (e *BoolLit) exprNode()                {}
func (e *BoolLit) Children() iter.Seq[Expr] { return noChildren }
func (e *BoolLit) String() string           { return strconv.FormatBool(e.Value) }

// NameRef is a reference to a (possibly overloaded) name.
type NameRef struct {
	Range
	resolved
	Name string
}

func (e *NameRef) exprNode()                {}
func (e *NameRef) Children() iter.Seq[Expr] { return noChildren }
func (e *NameRef) String() string           { return e.Name }

// MemberExpr is `Base.Name`.
type MemberExpr struct {
	Range
	resolved
	Base Expr
	Name string
}

func (e *MemberExpr) exprNode() {}
func (e *MemberExpr) Children() iter.Seq[Expr] {
	return func(yield func(Expr) bool) {
		yield(e.Base)
	}
}
func (e *MemberExpr) String() string { return fmt.Sprintf("%s.%s", e.Base, e.Name) }

// CallExpr is `Fn(Args...)`.
type CallExpr struct {
	Range
	resolved
	Fn   Expr
	Args []Expr
}

func (e *CallExpr) exprNode() {}
func (e *CallExpr) Children() iter.Seq[Expr] {
	return func(yield func(Expr) bool) {
		if !yield(e.Fn) {
			return
		}
		for _, arg := range e.Args {
			if !yield(arg) {
				return
			}
		}
	}
}
func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, arg := range e.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", e.Fn, strings.Join(args, ", "))
}

// TupleExpr is `(Elems...)`.
type TupleExpr struct {
	Range
	resolved
	Elems []Expr
}

func (e *TupleExpr) exprNode() {}
func (e *TupleExpr) Children() iter.Seq[Expr] {
	return func(yield func(Expr) bool) {
		for _, el := range e.Elems {
			if !yield(el) {
				return
			}
		}
	}
}
func (e *TupleExpr) String() string {
	elems := make([]string, len(e.Elems))
	for i, el := range e.Elems {
		elems[i] = el.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(elems, ", "))
}
