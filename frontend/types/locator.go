package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cottand/sable/frontend/ast"
)

type PathElementKind int

const (
	PathApplyArgument PathElementKind = iota
	PathApplyFunction
	PathFunctionArgument
	PathFunctionResult
	PathMember
	PathMemberRefBase
	PathTupleElement
	PathGenericParameter
	PathTypeRequirement
	PathInstanceType
	PathSubscriptMember
	PathLValueConversion
)

// PathElement is one step of a locator path. Value carries the index for
// indexed kinds; Name carries the member or parameter name for named kinds.
type PathElement struct {
	Kind  PathElementKind
	Value int
	Name  string
}

func TupleElementPath(index int) PathElement {
	return PathElement{Kind: PathTupleElement, Value: index}
}

func MemberPath(name string) PathElement {
	return PathElement{Kind: PathMember, Name: name}
}

func GenericParameterPath(name string) PathElement {
	return PathElement{Kind: PathGenericParameter, Name: name}
}

func TypeRequirementPath(index int) PathElement {
	return PathElement{Kind: PathTypeRequirement, Value: index}
}

func (p PathElement) String() string {
	switch p.Kind {
	case PathApplyArgument:
		return "apply argument"
	case PathApplyFunction:
		return "apply function"
	case PathFunctionArgument:
		return "function argument"
	case PathFunctionResult:
		return "function result"
	case PathMember:
		return "member " + p.Name
	case PathMemberRefBase:
		return "member reference base"
	case PathTupleElement:
		return "tuple element #" + strconv.Itoa(p.Value)
	case PathGenericParameter:
		return "generic parameter " + p.Name
	case PathTypeRequirement:
		return "type requirement #" + strconv.Itoa(p.Value)
	case PathInstanceType:
		return "instance type"
	case PathSubscriptMember:
		return "subscript member"
	case PathLValueConversion:
		return "lvalue conversion"
	default:
		return "unknown"
	}
}

func (p PathElement) hash() uint64 {
	return hashOf("pathElem", uint64(p.Kind), uint64(p.Value), hashString(p.Name))
}

type locatorFlags uint8

const (
	// locatorFunctionApplication is set when the path crosses a
	// call-argument or callee boundary.
	locatorFunctionApplication locatorFlags = 1 << iota
)

// Locator ties a constraint back to the source construct that produced it.
// Locators are interned: two locators with the same anchor and path are the
// same pointer, so pointer comparison is structural comparison.
//
// Construct with ConstraintSystem.GetConstraintLocator.
type Locator struct {
	Anchor ast.Expr
	Path   []PathElement

	flags locatorFlags
	hash  uint64
}

// CrossesFunctionApplication is a summary flag precomputed from the path.
func (l *Locator) CrossesFunctionApplication() bool {
	return l.flags&locatorFunctionApplication != 0
}

func (l *Locator) Hash() uint64 { return l.hash }

func (l *Locator) String() string {
	parts := make([]string, 0, len(l.Path)+1)
	if l.Anchor != nil {
		parts = append(parts, fmt.Sprintf("%s@%s", l.Anchor, ast.RangeOf(l.Anchor)))
	} else {
		parts = append(parts, "<no anchor>")
	}
	for _, p := range l.Path {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, " -> ")
}

func locatorHash(anchor ast.Expr, path []PathElement) uint64 {
	parts := make([]uint64, 0, len(path)+1)
	if anchor != nil {
		parts = append(parts, ast.RangeOf(anchor).Hash(), hashString(anchor.String()))
	}
	for _, p := range path {
		parts = append(parts, p.hash())
	}
	return hashOf("locator", parts...)
}

func summarizePath(path []PathElement) locatorFlags {
	var flags locatorFlags
	for _, p := range path {
		if p.Kind == PathApplyArgument || p.Kind == PathApplyFunction {
			flags |= locatorFunctionApplication
		}
	}
	return flags
}

func pathsEqual(a, b []PathElement) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// GetConstraintLocator interns a locator for (anchor, path). The summary
// flags are computed once here so consumers never re-walk the path.
func (cs *ConstraintSystem) GetConstraintLocator(anchor ast.Expr, path ...PathElement) *Locator {
	h := locatorHash(anchor, path)
	for _, existing := range cs.locators[h] {
		if existing.Anchor == anchor && pathsEqual(existing.Path, path) {
			return existing
		}
	}
	loc := &Locator{
		Anchor: anchor,
		Path:   append([]PathElement(nil), path...),
		flags:  summarizePath(path),
		hash:   h,
	}
	cs.locators[h] = append(cs.locators[h], loc)
	return loc
}

// WithPath interns the locator obtained by appending elems to l's path.
func (cs *ConstraintSystem) WithPath(l *Locator, elems ...PathElement) *Locator {
	if l == nil {
		return cs.GetConstraintLocator(nil, elems...)
	}
	full := make([]PathElement, 0, len(l.Path)+len(elems))
	full = append(full, l.Path...)
	full = append(full, elems...)
	return cs.GetConstraintLocator(l.Anchor, full...)
}
