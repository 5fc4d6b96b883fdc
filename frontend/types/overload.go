package types

import (
	"fmt"
	"strconv"

	set "github.com/hashicorp/go-set/v3"
)

type OverloadChoiceKind int

const (
	// ChoiceDecl references a declaration found by ordinary lookup.
	ChoiceDecl OverloadChoiceKind = iota
	// ChoiceDeclViaDynamic references a declaration found by runtime-name
	// (dynamic) lookup.
	ChoiceDeclViaDynamic
	// ChoiceTypeDecl references a type declaration member.
	ChoiceTypeDecl
	// ChoiceBaseType references the base type itself.
	ChoiceBaseType
	// ChoiceTupleIndex references one element of a tuple base.
	ChoiceTupleIndex
)

// OverloadChoice is one candidate of a disjunction. It carries enough to
// reconstruct the candidate's type lazily when (and only when) it is picked.
type OverloadChoice struct {
	Kind       OverloadChoiceKind
	Base       Type // base type for member choices, nil for plain references
	Decl       *ValueDecl
	TupleIndex int
}

func (oc OverloadChoice) String() string {
	switch oc.Kind {
	case ChoiceBaseType:
		return fmt.Sprintf("base type %s", oc.Base)
	case ChoiceTupleIndex:
		return fmt.Sprintf("tuple index %d of %s", oc.TupleIndex, oc.Base)
	case ChoiceDeclViaDynamic:
		return fmt.Sprintf("dynamic %s: %s", oc.Decl.Name, oc.Decl.InterfaceType)
	default:
		return fmt.Sprintf("%s: %s", oc.Decl.Name, oc.Decl.InterfaceType)
	}
}

// signatureKey is the synthesized key used to collapse dynamic-lookup
// duplicates: the selector-like runtime name plus the canonical result type.
func (oc OverloadChoice) signatureKey() string {
	sel := oc.Decl.Selector
	if sel == "" {
		sel = oc.Decl.Name
	}
	return sel + "|" + strconv.FormatUint(oc.Decl.ResultType().Hash(), 16)
}

// ResolvedOverload is the append-only record of one resolved choice. Walking
// Previous from the session head replays every resolution of the solve.
type ResolvedOverload struct {
	BoundType      Type
	Choice         OverloadChoice
	Locator        *Locator
	OpenedFullType Type
	RefType        Type
	Previous       *ResolvedOverload
}

// ResolvedOverloads returns the head of the session's resolved-overload list.
func (cs *ConstraintSystem) ResolvedOverloads() *ResolvedOverload {
	return cs.resolvedOverloads
}

// AddOverloadSet turns candidate choices into a disjunction of overload
// bindings at the locator. Exactly one disjunct will ultimately be chosen.
func (cs *ConstraintSystem) AddOverloadSet(boundType Type, choices []OverloadChoice, loc *Locator) bool {
	if len(choices) == 0 {
		panic("overload set with no choices")
	}
	choices = dedupDynamicChoices(choices)
	if len(choices) == 1 {
		return cs.AddConstraint(cs.NewBindOverloadConstraint(boundType, choices[0], loc))
	}
	nested := make([]*Constraint, len(choices))
	for i, choice := range choices {
		nested[i] = cs.NewBindOverloadConstraint(boundType, choice, loc)
	}
	return cs.AddConstraint(cs.NewDisjunction(nested, loc))
}

// dedupDynamicChoices collapses dynamic-lookup candidates sharing a
// signature key. Two declarations exposed twice under one runtime name and
// result type are semantically one candidate; keeping both would make every
// use spuriously ambiguous.
func dedupDynamicChoices(choices []OverloadChoice) []OverloadChoice {
	seen := set.New[string](len(choices))
	out := choices[:0:len(choices)]
	for _, choice := range choices {
		if choice.Kind == ChoiceDeclViaDynamic && !seen.Insert(choice.signatureKey()) {
			continue
		}
		out = append(out, choice)
	}
	return out
}

// resolveOverload commits to one choice: it computes the opened reference
// type, equates the bound type with it, and threads a new entry onto the
// resolved-overload list.
func (cs *ConstraintSystem) resolveOverload(loc *Locator, boundType Type, choice OverloadChoice) bool {
	var opened, refType Type
	switch choice.Kind {
	case ChoiceDecl, ChoiceDeclViaDynamic, ChoiceTypeDecl:
		if choice.Base != nil {
			opened, refType = cs.GetTypeOfMemberReference(
				choice.Base,
				choice.Decl,
				choice.Kind == ChoiceTypeDecl,
				choice.Kind == ChoiceDeclViaDynamic,
				loc,
			)
		} else {
			opened, refType = cs.GetTypeOfReference(choice.Decl, loc)
		}
		// subscript element wrapping already happened in the reference builder
		if choice.Decl.IsOptionalRequirement && choice.Decl.Kind != SubscriptDecl {
			refType = &OptionalType{Wrapped: refType}
		}
		if choice.Kind == ChoiceDeclViaDynamic && choice.Decl.Kind != SubscriptDecl {
			refType = &IUOptionalType{Wrapped: refType}
		}
	case ChoiceBaseType:
		opened, refType = choice.Base, choice.Base
	case ChoiceTupleIndex:
		base := cs.GetFixedTypeRecursive(choice.Base, false)
		if lv, ok := base.(*LValueType); ok {
			tuple, ok := lv.Obj.(*TupleType)
			if !ok || choice.TupleIndex >= len(tuple.Elems) {
				return false
			}
			// an element of an l-value tuple is itself assignable
			refType = &LValueType{Obj: tuple.Elems[choice.TupleIndex]}
		} else {
			tuple, ok := base.(*TupleType)
			if !ok || choice.TupleIndex >= len(tuple.Elems) {
				return false
			}
			refType = tuple.Elems[choice.TupleIndex]
		}
		opened = refType
	}

	logger.Debug("overload: resolved", "locator", loc, "choice", choice, "refType", refType)
	cs.resolvedOverloads = &ResolvedOverload{
		BoundType:      boundType,
		Choice:         choice,
		Locator:        loc,
		OpenedFullType: opened,
		RefType:        refType,
		Previous:       cs.resolvedOverloads,
	}
	return cs.AddConstraint(cs.NewConstraint(KindEqual, boundType, refType, loc))
}
