package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExprString(t *testing.T) {
	testCases := []struct {
		name     string
		expr     Expr
		expected string
	}{
		{
			name:     "int literal",
			expr:     &IntLit{Value: 42},
			expected: "42",
		},
		{
			name:     "string literal quotes",
			expr:     &StringLit{Value: `hi "there"`},
			expected: `"hi \"there\""`,
		},
		{
			name: "call with arguments",
			expr: &CallExpr{
				Fn:   &NameRef{Name: "f"},
				Args: []Expr{&IntLit{Value: 1}, &BoolLit{Value: true}},
			},
			expected: "f(1, true)",
		},
		{
			name: "nested member access",
			expr: &MemberExpr{
				Base: &MemberExpr{Base: &NameRef{Name: "a"}, Name: "b"},
				Name: "c",
			},
			expected: "a.b.c",
		},
		{
			name:     "tuple",
			expr:     &TupleExpr{Elems: []Expr{&IntLit{Value: 1}, &IntLit{Value: 2}}},
			expected: "(1, 2)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.expr.String())
		})
	}
}

func TestChildrenInSourceOrder(t *testing.T) {
	fn := &NameRef{Name: "f"}
	arg1 := &IntLit{Value: 1}
	arg2 := &IntLit{Value: 2}
	call := &CallExpr{Fn: fn, Args: []Expr{arg1, arg2}}

	var children []Expr
	for child := range call.Children() {
		children = append(children, child)
	}

	assert.Equal(t, []Expr{fn, arg1, arg2}, children)
}

func TestResolvedTypeSlot(t *testing.T) {
	lit := &IntLit{Value: 3}
	assert.Nil(t, lit.ResolvedType())

	lit.SetResolvedType("Int")
	assert.Equal(t, "Int", lit.ResolvedType())
}
