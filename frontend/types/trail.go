package types

import (
	"github.com/cottand/sable/util"
)

// The trail is an explicit undo log: every destructive update to the
// union-find state or the graph pushes an entry recording what to restore.
// Backtracking pops entries in reverse order until a checkpoint's length is
// reached.

type trailEntry interface {
	undo(cs *ConstraintSystem)
}

// reprChange records that repr[id] was newly set (the variable was a
// representative before).
type reprChange struct {
	id uint64
}

func (e reprChange) undo(cs *ConstraintSystem) {
	delete(cs.repr, e.id)
}

// fixedChange records that fixed[id] was newly set.
type fixedChange struct {
	id uint64
}

func (e fixedChange) undo(cs *ConstraintSystem) {
	delete(cs.fixed, e.id)
}

// literalTagChange records that v's literal-conformance tag was newly set
// during a class merge (it was nil before).
type literalTagChange struct {
	v *TypeVar
}

func (e literalTagChange) undo(*ConstraintSystem) {
	e.v.literalProtocol = nil
}

// graphMerge records adjacency state moved from one node into another so the
// merge can be split apart again.
type graphMerge struct {
	into             *graphNode
	addedConstraints []*Constraint
	addedMembers     []uint64
	addedMemberVars  []string
}

func (e graphMerge) undo(cs *ConstraintSystem) {
	for _, c := range e.addedConstraints {
		e.into.removeConstraint(c)
	}
	for _, name := range e.addedMemberVars {
		delete(e.into.memberVars, name)
	}
	e.into.members = e.into.members[:len(e.into.members)-len(e.addedMembers)]
}

// Checkpoint captures everything a disjunction branch may disturb.
type Checkpoint struct {
	trailLen     int
	active       []*Constraint
	inactive     []*Constraint
	overloadHead *ResolvedOverload
	numFixes     int
	numUnfavored int
}

// Checkpoint records the current solver state ahead of exploring one branch.
func (cs *ConstraintSystem) Checkpoint() Checkpoint {
	return Checkpoint{
		trailLen:     cs.trail.Len(),
		active:       append([]*Constraint(nil), cs.active...),
		inactive:     append([]*Constraint(nil), cs.inactive...),
		overloadHead: cs.resolvedOverloads,
		numFixes:     len(cs.fixes),
		numUnfavored: cs.unfavored,
	}
}

// RestoreCheckpoint undoes, in reverse order, every binding and merge made
// since the checkpoint, and puts the constraint lists back. Failures recorded
// in between are deliberately retained for later diagnosis.
func (cs *ConstraintSystem) RestoreCheckpoint(cp Checkpoint) {
	dropped := cs.trail.TruncateTo(cp.trailLen)
	for entry := range util.Reverse(dropped) {
		entry.undo(cs)
	}
	cs.active = cp.active
	cs.inactive = cp.inactive
	for _, c := range cs.active {
		c.active = true
	}
	for i, c := range cs.inactive {
		c.active = false
		c.inactiveIdx = i
	}
	cs.resolvedOverloads = cp.overloadHead
	cs.fixes = cs.fixes[:cp.numFixes]
	cs.unfavored = cp.numUnfavored
	cs.stats.Checkpoints++
}
