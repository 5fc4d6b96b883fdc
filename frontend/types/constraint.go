package types

import (
	"fmt"
	"strings"
)

type ConstraintKind int

const (
	// KindBind requires the two types to be identical.
	KindBind ConstraintKind = iota
	// KindEqual requires the two types to be identical modulo l-values.
	KindEqual
	// KindSubtype requires the first type to be a subtype of the second.
	KindSubtype
	// KindConversion requires the first type to convert to the second.
	KindConversion
	// KindArgumentTupleConversion is KindConversion between a call's argument
	// tuple and a callee's parameter tuple.
	KindArgumentTupleConversion
	// KindConformsTo requires the first type to conform to the protocol.
	KindConformsTo
	// KindCheckedCast requires a runtime cast from first to second to be
	// at least possible.
	KindCheckedCast
	// KindValueMember requires the first type to have a value member with the
	// given name, of the second type.
	KindValueMember
	// KindUnresolvedValueMember is KindValueMember for a reference with an
	// implicit base.
	KindUnresolvedValueMember
	// KindTypeMember requires the first type to have a type member with the
	// given name, bound to the second type.
	KindTypeMember
	// KindBindOverload binds the first type to the opened type of a
	// particular overload choice.
	KindBindOverload
	// KindSelfObjectOfProtocol requires the first type to be usable as the
	// Self object of the protocol.
	KindSelfObjectOfProtocol
	// KindBridgedToForeign requires the first type to bridge to a
	// foreign-runtime class, bound to the second type.
	KindBridgedToForeign
	// KindDisjunction requires exactly one of the nested constraints to hold.
	KindDisjunction
	// KindConjunction requires all of the nested constraints to hold.
	KindConjunction
)

func (k ConstraintKind) String() string {
	switch k {
	case KindBind:
		return "bind"
	case KindEqual:
		return "equal"
	case KindSubtype:
		return "subtype"
	case KindConversion:
		return "conversion"
	case KindArgumentTupleConversion:
		return "argument tuple conversion"
	case KindConformsTo:
		return "conforms to"
	case KindCheckedCast:
		return "checked cast"
	case KindValueMember:
		return "value member"
	case KindUnresolvedValueMember:
		return "unresolved value member"
	case KindTypeMember:
		return "type member"
	case KindBindOverload:
		return "bind overload"
	case KindSelfObjectOfProtocol:
		return "self object of protocol"
	case KindBridgedToForeign:
		return "bridged to foreign"
	case KindDisjunction:
		return "disjunction"
	case KindConjunction:
		return "conjunction"
	default:
		return "unknown"
	}
}

// Constraint is one atomic relation between types, or a
// disjunction/conjunction of nested constraints.
//
// The set of mentioned type variables is collected once at construction and
// never changes; it is what drives the constraint graph's edges.
type Constraint struct {
	id   uint64
	Kind ConstraintKind

	First  Type
	Second Type

	Member   string
	Protocol *ProtocolDecl
	Choice   *OverloadChoice
	Nested   []*Constraint

	Locator *Locator

	favored bool
	active  bool
	// inactiveIdx is the constraint's slot in the inactive queue; only
	// meaningful while it is actually queued there.
	inactiveIdx int

	typeVars []*TypeVar
}

// Hash identifies the constraint inside hash sets. Constraints have identity,
// not structure, so the id is the hash.
func (c *Constraint) Hash() uint64 { return c.id }

func (c *Constraint) IsFavored() bool { return c.favored }
func (c *Constraint) SetFavored()     { c.favored = true }
func (c *Constraint) IsActive() bool  { return c.active }

// TypeVariables returns the variables mentioned at construction time.
func (c *Constraint) TypeVariables() []*TypeVar { return c.typeVars }

func (c *Constraint) String() string {
	switch c.Kind {
	case KindDisjunction, KindConjunction:
		parts := make([]string, len(c.Nested))
		for i, n := range c.Nested {
			parts[i] = n.String()
		}
		sep := " ∨ "
		if c.Kind == KindConjunction {
			sep = " ∧ "
		}
		return "(" + strings.Join(parts, sep) + ")"
	case KindBindOverload:
		return fmt.Sprintf("%s := overload %s", c.First, c.Choice)
	case KindValueMember, KindUnresolvedValueMember, KindTypeMember:
		return fmt.Sprintf("%s[.%s] %s %s", c.First, c.Member, c.Kind, c.Second)
	case KindConformsTo, KindSelfObjectOfProtocol:
		return fmt.Sprintf("%s %s %s", c.First, c.Kind, c.Protocol.Name)
	default:
		return fmt.Sprintf("%s %s %s", c.First, c.Kind, c.Second)
	}
}

func (cs *ConstraintSystem) collectConstraintVars(c *Constraint) {
	var vars []*TypeVar
	if c.First != nil {
		vars = collectTypeVars(c.First, vars)
	}
	if c.Second != nil {
		vars = collectTypeVars(c.Second, vars)
	}
	for _, nested := range c.Nested {
		for _, v := range nested.typeVars {
			already := false
			for _, seen := range vars {
				if seen == v {
					already = true
					break
				}
			}
			if !already {
				vars = append(vars, v)
			}
		}
	}
	c.typeVars = vars
}

// NewConstraint builds a relational constraint between two types.
func (cs *ConstraintSystem) NewConstraint(kind ConstraintKind, first, second Type, loc *Locator) *Constraint {
	c := &Constraint{id: cs.nextConstraintID(), Kind: kind, First: first, Second: second, Locator: loc}
	cs.collectConstraintVars(c)
	return c
}

// NewConformsToConstraint builds a conformance constraint.
func (cs *ConstraintSystem) NewConformsToConstraint(kind ConstraintKind, subject Type, proto *ProtocolDecl, loc *Locator) *Constraint {
	c := &Constraint{id: cs.nextConstraintID(), Kind: kind, First: subject, Second: proto.SelfType(), Protocol: proto, Locator: loc}
	cs.collectConstraintVars(c)
	return c
}

// NewMemberConstraint builds a value/type member constraint: base has a
// member of the given name whose type is memberTy.
func (cs *ConstraintSystem) NewMemberConstraint(kind ConstraintKind, base Type, member string, memberTy Type, loc *Locator) *Constraint {
	c := &Constraint{id: cs.nextConstraintID(), Kind: kind, First: base, Second: memberTy, Member: member, Locator: loc}
	cs.collectConstraintVars(c)
	return c
}

// NewBindOverloadConstraint binds boundType to one overload choice.
func (cs *ConstraintSystem) NewBindOverloadConstraint(boundType Type, choice OverloadChoice, loc *Locator) *Constraint {
	c := &Constraint{id: cs.nextConstraintID(), Kind: KindBindOverload, First: boundType, Choice: &choice, Locator: loc}
	cs.collectConstraintVars(c)
	return c
}

// NewDisjunction builds a disjunction over the given constraints.
func (cs *ConstraintSystem) NewDisjunction(nested []*Constraint, loc *Locator) *Constraint {
	if len(nested) == 0 {
		panic("empty disjunction")
	}
	c := &Constraint{id: cs.nextConstraintID(), Kind: KindDisjunction, Nested: nested, Locator: loc}
	cs.collectConstraintVars(c)
	return c
}

// NewConjunction builds a conjunction over the given constraints.
func (cs *ConstraintSystem) NewConjunction(nested []*Constraint, loc *Locator) *Constraint {
	c := &Constraint{id: cs.nextConstraintID(), Kind: KindConjunction, Nested: nested, Locator: loc}
	cs.collectConstraintVars(c)
	return c
}
