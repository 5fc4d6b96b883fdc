package types

import (
	"fmt"

	"github.com/benbjohnson/immutable"
)

// Score ranks complete solutions. Lower is better; comparison is
// lexicographic, so one fix outweighs any number of non-default literals.
// The concrete weights are heuristic; only the ordering contract (favored and
// exact beats unfavored and coerced) is relied upon.
type Score struct {
	Fixes              int
	NonDefaultLiterals int
	Unfavored          int
}

func (s Score) Compare(other Score) int {
	if s.Fixes != other.Fixes {
		return s.Fixes - other.Fixes
	}
	if s.NonDefaultLiterals != other.NonDefaultLiterals {
		return s.NonDefaultLiterals - other.NonDefaultLiterals
	}
	return s.Unfavored - other.Unfavored
}

func (s Score) String() string {
	return fmt.Sprintf("{fixes: %d, non-default literals: %d, unfavored: %d}", s.Fixes, s.NonDefaultLiterals, s.Unfavored)
}

// Solution is an immutable assignment of concrete types to type variables,
// plus the overload choices that produced it. The binding map shares
// structure across the solutions of one search.
type Solution struct {
	bindings  *immutable.Map[uint64, Type]
	overloads *ResolvedOverload
	fixes     []Fix
	score     Score
}

// TypeOf returns the concrete type the solution assigns to tv.
func (s *Solution) TypeOf(tv *TypeVar) (Type, bool) {
	return s.bindings.Get(tv.id)
}

// Score returns the solution's rank.
func (s *Solution) Score() Score { return s.score }

// Fixes returns the recovery fixes this solution needed; a non-empty list
// means the solution is best-effort, not sound.
func (s *Solution) Fixes() []Fix { return s.fixes }

// OverloadFor returns the choice resolved for the given locator, walking the
// session's list backward so the innermost resolution wins.
func (s *Solution) OverloadFor(loc *Locator) (*ResolvedOverload, bool) {
	for entry := s.overloads; entry != nil; entry = entry.Previous {
		if entry.Locator == loc {
			return entry, true
		}
	}
	return nil, false
}

// Overloads returns the head of the solution's resolved-overload list.
func (s *Solution) Overloads() *ResolvedOverload { return s.overloads }

// key fingerprints the solution for de-duplication across search branches
// that arrive at the same assignment.
func (s *Solution) key() uint64 {
	sum := hashOf("solution")
	itr := s.bindings.Iterator()
	for !itr.Done() {
		id, t, _ := itr.Next()
		sum = 31*sum ^ hashOf("binding", id, t.Hash())
	}
	for entry := s.overloads; entry != nil; entry = entry.Previous {
		sum = 31*sum ^ hashOf("choice", entry.Locator.Hash(), hashString(entry.Choice.String()))
	}
	return sum
}

// buildSolution snapshots the current bindings into an immutable Solution.
// Every bound variable is recorded under its own id, whether or not it is the
// class representative.
func (cs *ConstraintSystem) buildSolution() *Solution {
	b := immutable.NewMapBuilder[uint64, Type](nil)
	score := Score{Fixes: len(cs.fixes), Unfavored: cs.unfavored}
	for _, tv := range cs.vars {
		fixed := cs.GetFixedType(tv)
		if fixed == nil {
			continue
		}
		resolved := cs.simplifyType(fixed)
		b.Set(tv.id, resolved)
		if tv.literalProtocol != nil && tv.literalProtocol.DefaultLiteralType != nil {
			if !sameNominalIdentity(resolved, tv.literalProtocol.DefaultLiteralType) {
				score.NonDefaultLiterals++
			}
		}
	}
	return &Solution{
		bindings:  b.Map(),
		overloads: cs.resolvedOverloads,
		fixes:     cs.Fixes(),
		score:     score,
	}
}

// sameNominalIdentity compares only the nominal head of two types, so that
// Array<α> still counts as the default Array.
func sameNominalIdentity(a, b Type) bool {
	nomA, okA := a.(*NominalType)
	nomB, okB := b.(*NominalType)
	if okA && okB {
		return nomA.Decl == nomB.Decl
	}
	return Equal(a, b)
}
