package types

import (
	"slices"

	"github.com/cottand/sable/util"
)

// SolverOpts are the search budgets and recovery knobs.
type SolverOpts struct {
	// MaxSteps bounds the number of simplification steps before the search
	// gives up and reports the expression as too complex.
	MaxSteps int
	// MaxSolutions bounds how many complete solutions the search collects.
	MaxSolutions int
	// AllowFixes lets simplification accept certain failed constraints with a
	// recorded fix, to keep exploring for a best-effort solution.
	AllowFixes bool
	// RecordAllFailures keeps every failed constraint, not just the first.
	RecordAllFailures bool
}

func DefaultSolverOpts() SolverOpts {
	return SolverOpts{
		MaxSteps:     10000,
		MaxSolutions: 64,
	}
}

// SolverStats are debug counters, reported at Debug level after a solve.
type SolverStats struct {
	Steps       int
	Checkpoints int
	Bindings    int
	MaxDepth    int
}

// ConstraintSystem owns one inference problem: the type-variable arena, the
// constraints, the locator interning table, and the solver state. It is
// single-threaded; nested systems (one per candidate witness, say) are fully
// independent instances.
type ConstraintSystem struct {
	Oracle ConformanceOracle
	Lookup LookupService
	Opts   SolverOpts

	vars  []*TypeVar
	repr  map[uint64]uint64 // variable id -> representative id; absent means itself
	fixed map[uint64]Type   // representative id -> fixed type

	trail    util.Stack[trailEntry]
	graph    *ConstraintGraph
	locators map[uint64][]*Locator

	active   []*Constraint
	inactive []*Constraint

	failedConstraint  *Constraint
	failures          []*Failure
	fixes             []Fix
	unfavored         int
	resolvedOverloads *ResolvedOverload

	constraintIDs uint64
	stats         SolverStats
}

func NewConstraintSystem(oracle ConformanceOracle, lookup LookupService, opts SolverOpts) *ConstraintSystem {
	cs := &ConstraintSystem{
		Oracle:   oracle,
		Lookup:   lookup,
		Opts:     opts,
		repr:     make(map[uint64]uint64),
		fixed:    make(map[uint64]Type),
		locators: make(map[uint64][]*Locator),
	}
	cs.graph = newConstraintGraph(cs)
	return cs
}

func (cs *ConstraintSystem) nextConstraintID() uint64 {
	defer func() { cs.constraintIDs++ }()
	return cs.constraintIDs
}

// Stats returns the solver's debug counters.
func (cs *ConstraintSystem) Stats() SolverStats { return cs.stats }

// Failures returns every failure recorded so far, including ones from
// branches the search has since backtracked past.
func (cs *ConstraintSystem) Failures() []*Failure { return cs.failures }

// FailedConstraint returns the first constraint that errored, if any.
func (cs *ConstraintSystem) FailedConstraint() *Constraint { return cs.failedConstraint }

// Fixes returns the recovery fixes applied on the current branch.
func (cs *ConstraintSystem) Fixes() []Fix { return slices.Clone(cs.fixes) }

// AddConstraint attempts immediate simplification; what cannot be decided yet
// is queued and indexed in the graph. Returns false when the constraint is
// known unsatisfiable, in which case the caller must try another branch or
// surface the failure.
func (cs *ConstraintSystem) AddConstraint(c *Constraint) bool {
	switch cs.simplifyConstraint(c) {
	case constraintSolved:
		return true
	case constraintErrored:
		if cs.failedConstraint == nil {
			cs.failedConstraint = c
		}
		return false
	default: // constraintUnsolved
		cs.retireConstraint(c)
		return true
	}
}

// retireConstraint parks an undecidable constraint in the inactive queue and
// registers its graph edges.
func (cs *ConstraintSystem) retireConstraint(c *Constraint) {
	cs.parkConstraint(c)
	cs.graph.addConstraint(c)
}

// parkConstraint puts a still-undecidable constraint back in the inactive
// queue. Unlike retireConstraint it does not touch the graph: the constraint's
// edges are already registered.
func (cs *ConstraintSystem) parkConstraint(c *Constraint) {
	c.active = false
	c.inactiveIdx = len(cs.inactive)
	cs.inactive = append(cs.inactive, c)
}

// removeInactive takes c out of the inactive queue in constant time by
// swapping the last element into its slot. Queue order carries no meaning;
// disjunction tie-breaks go by constraint id.
func (cs *ConstraintSystem) removeInactive(c *Constraint) bool {
	idx := c.inactiveIdx
	if idx < 0 || idx >= len(cs.inactive) || cs.inactive[idx] != c {
		return false
	}
	last := len(cs.inactive) - 1
	moved := cs.inactive[last]
	cs.inactive[idx] = moved
	moved.inactiveIdx = idx
	cs.inactive = cs.inactive[:last]
	c.inactiveIdx = -1
	return true
}

// activateConstraintsOn moves every inactive constraint touching v's class
// back into the active queue. Cost is proportional to the constraints
// actually touching v, not the total constraint count.
func (cs *ConstraintSystem) activateConstraintsOn(v *TypeVar) {
	for _, c := range cs.graph.gatherConstraints(v) {
		if c.active {
			continue
		}
		if !cs.removeInactive(c) {
			continue
		}
		c.active = true
		cs.active = append(cs.active, c)
	}
}

// popActive removes and returns the oldest active constraint.
func (cs *ConstraintSystem) popActive() (*Constraint, bool) {
	if len(cs.active) == 0 {
		return nil, false
	}
	c := cs.active[0]
	cs.active = cs.active[1:]
	c.active = false
	return c, true
}

func (cs *ConstraintSystem) recordFailure(f *Failure) {
	if !cs.Opts.RecordAllFailures && len(cs.failures) > 0 {
		return
	}
	cs.failures = append(cs.failures, f)
}

func (cs *ConstraintSystem) recordFix(fix Fix) {
	cs.fixes = append(cs.fixes, fix)
}
