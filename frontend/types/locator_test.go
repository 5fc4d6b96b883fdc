package types

import (
	"testing"

	"github.com/cottand/sable/frontend/ast"
	"github.com/stretchr/testify/assert"
)

func TestLocatorInterning(t *testing.T) {
	_, cs := newTestSystem()
	anchor := &ast.NameRef{Name: "f"}
	other := &ast.NameRef{Name: "f"}

	a := cs.GetConstraintLocator(anchor, TupleElementPath(0))
	b := cs.GetConstraintLocator(anchor, TupleElementPath(0))
	c := cs.GetConstraintLocator(anchor, TupleElementPath(1))
	d := cs.GetConstraintLocator(other, TupleElementPath(0))

	assert.Same(t, a, b, "same anchor and path must intern to the same locator")
	assert.NotSame(t, a, c)
	assert.NotSame(t, a, d, "anchors compare by identity, not by content")
}

func TestWithPathAppendsAndInterns(t *testing.T) {
	_, cs := newTestSystem()
	anchor := &ast.NameRef{Name: "f"}

	base := cs.GetConstraintLocator(anchor)
	extended := cs.WithPath(base, MemberPath("x"))

	assert.Same(t, extended, cs.GetConstraintLocator(anchor, MemberPath("x")))
	assert.Equal(t, []PathElement{MemberPath("x")}, extended.Path)
	// the original is untouched
	assert.Empty(t, base.Path)
}

func TestCrossesFunctionApplicationFlag(t *testing.T) {
	_, cs := newTestSystem()
	anchor := &ast.NameRef{Name: "f"}

	plain := cs.GetConstraintLocator(anchor, MemberPath("x"))
	assert.False(t, plain.CrossesFunctionApplication())

	applied := cs.WithPath(plain, PathElement{Kind: PathApplyFunction})
	assert.True(t, applied.CrossesFunctionApplication())
	// the flag is sticky through further extension
	deeper := cs.WithPath(applied, TupleElementPath(2))
	assert.True(t, deeper.CrossesFunctionApplication())
}
