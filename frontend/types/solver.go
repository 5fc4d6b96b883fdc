package types

import (
	"fmt"
	"slices"

	"github.com/cottand/sable/frontend/ast"
	"github.com/cottand/sable/frontend/serr"
)

// The solver is a depth-first search over disjunction choices and candidate
// variable bindings, with constraint propagation between decisions. Each
// decision point checkpoints the system and restores it before trying the
// next alternative, so the search never copies state.

// Solve runs the search to completion and returns the surviving best-scored
// solutions. An empty result always comes with errors; more than one result
// means the expression is ambiguous (also reported as an error, with the
// survivors returned for diagnosis).
func (cs *ConstraintSystem) Solve() ([]*Solution, *serr.Errors) {
	var solutions []*Solution
	tooComplex := false
	// a constraint that already failed during generation poisons the whole
	// system; searching cannot recover it
	if cs.failedConstraint == nil {
		tooComplex = cs.solveRec(&solutions, 0)
	}
	logger.Debug("solve: search finished",
		"solutions", len(solutions),
		"stats", fmt.Sprintf("%+v", cs.stats),
	)
	if tooComplex {
		var errs *serr.Errors
		return nil, errs.With(serr.New(serr.NewTooComplex{
			Positioner: cs.rootPositioner(),
			Steps:      cs.stats.Steps,
		}))
	}
	if len(solutions) == 0 {
		var errs *serr.Errors
		return nil, errs.With(cs.diagnoseFailure())
	}
	best := bestSolutions(solutions)
	if len(best) > 1 {
		name, pos := cs.ambiguityDetails(best)
		var errs *serr.Errors
		errs = errs.With(serr.New(serr.NewAmbiguousReference{
			Positioner: pos,
			Name:       name,
			Solutions:  len(best),
		}))
		return best, errs
	}
	return best, nil
}

// solveRec is one node of the search tree: propagate, then branch on the
// smallest disjunction, else on candidate bindings for a free variable, else
// on literal defaults, else finalize. Returns true when the step budget ran
// out; the whole search aborts at that point.
func (cs *ConstraintSystem) solveRec(solutions *[]*Solution, depth int) bool {
	if depth > cs.stats.MaxDepth {
		cs.stats.MaxDepth = depth
	}
	if cs.Opts.MaxSteps > 0 && cs.stats.Steps > cs.Opts.MaxSteps {
		return true
	}

	for {
		c, ok := cs.popActive()
		if !ok {
			break
		}
		if cs.Opts.MaxSteps > 0 && cs.stats.Steps > cs.Opts.MaxSteps {
			return true
		}
		switch cs.simplifyConstraint(c) {
		case constraintSolved:
			cs.graph.removeConstraint(c)
		case constraintUnsolved:
			cs.parkConstraint(c)
		case constraintErrored:
			if cs.failedConstraint == nil {
				cs.failedConstraint = c
			}
			return false
		}
	}

	if disjunction := cs.bestDisjunction(); disjunction != nil {
		return cs.branchOnDisjunction(solutions, depth, disjunction)
	}
	if tv, candidates := cs.candidateBindings(); tv != nil {
		return cs.branchOnBindings(solutions, depth, tv, candidates)
	}
	if literals := cs.freeLiteralVars(); len(literals) > 0 {
		return cs.branchOnLiteralDefaults(solutions, depth, literals)
	}

	if len(cs.inactive) > 0 {
		// constraints remain but nothing can decide them: some variable has no
		// candidate bindings at all
		stuck := cs.inactive[0]
		var first Type
		if len(stuck.typeVars) > 0 {
			first = cs.GetRepresentative(stuck.typeVars[0])
		}
		cs.recordFailure(&Failure{Kind: FailureUnboundVariable, First: first, Locator: stuck.Locator})
		return false
	}

	solution := cs.buildSolution()
	logger.Debug("solve: found solution", "depth", depth, "score", solution.score)
	*solutions = append(*solutions, solution)
	return false
}

// bestDisjunction picks the unresolved disjunction with the fewest
// alternatives; ties go to the oldest by constraint id.
func (cs *ConstraintSystem) bestDisjunction() *Constraint {
	var best *Constraint
	for _, c := range cs.inactive {
		if c.Kind != KindDisjunction {
			continue
		}
		if best == nil || len(c.Nested) < len(best.Nested) ||
			(len(c.Nested) == len(best.Nested) && c.id < best.id) {
			best = c
		}
	}
	return best
}

func (cs *ConstraintSystem) branchOnDisjunction(solutions *[]*Solution, depth int, disjunction *Constraint) bool {
	hasFavored := false
	for _, d := range disjunction.Nested {
		if d.favored {
			hasFavored = true
			break
		}
	}
	ordered := slices.Clone(disjunction.Nested)
	slices.SortStableFunc(ordered, func(a, b *Constraint) int {
		switch {
		case a.favored == b.favored:
			return 0
		case a.favored:
			return -1
		default:
			return 1
		}
	})

	for _, disjunct := range ordered {
		cp := cs.Checkpoint()
		cs.dropInactive(disjunction)
		if hasFavored && !disjunct.favored {
			cs.unfavored++
		}
		logger.Debug("solve: trying disjunct", "depth", depth, "disjunct", disjunct)
		if cs.AddConstraint(disjunct) {
			if cs.solveRec(solutions, depth+1) {
				return true
			}
		}
		cs.RestoreCheckpoint(cp)
		if cs.Opts.MaxSolutions > 0 && len(*solutions) >= cs.Opts.MaxSolutions {
			break
		}
	}
	return false
}

func (cs *ConstraintSystem) branchOnBindings(solutions *[]*Solution, depth int, tv *TypeVar, candidates []Type) bool {
	for _, candidate := range candidates {
		cp := cs.Checkpoint()
		logger.Debug("solve: trying candidate binding", "depth", depth, "var", tv, "candidate", candidate)
		if cs.AddConstraint(cs.NewConstraint(KindEqual, tv, candidate, tv.loc)) {
			if cs.solveRec(solutions, depth+1) {
				return true
			}
		}
		cs.RestoreCheckpoint(cp)
		if cs.Opts.MaxSolutions > 0 && len(*solutions) >= cs.Opts.MaxSolutions {
			break
		}
	}
	return false
}

// branchOnLiteralDefaults binds every remaining free literal variable to its
// protocol's default type in one step. There is only one alternative, but the
// bindings still happen behind a checkpoint so failure leaves the system
// restorable.
func (cs *ConstraintSystem) branchOnLiteralDefaults(solutions *[]*Solution, depth int, literals []*TypeVar) bool {
	cp := cs.Checkpoint()
	ok := true
	for _, tv := range literals {
		def := tv.literalProtocol.DefaultLiteralType
		logger.Debug("solve: defaulting literal", "depth", depth, "var", tv, "default", def)
		if !cs.AddConstraint(cs.NewConstraint(KindEqual, tv, def, tv.loc)) {
			ok = false
			break
		}
	}
	if ok {
		if cs.solveRec(solutions, depth+1) {
			return true
		}
	}
	cs.RestoreCheckpoint(cp)
	return false
}

// dropInactive removes the constraint from the inactive queue and the graph
// for the duration of the current branch. The queue itself is restored from
// the checkpoint snapshot; the graph removal is trailed.
func (cs *ConstraintSystem) dropInactive(c *Constraint) {
	cs.removeInactive(c)
	cs.graph.removeConstraint(c)
}

// candidateBindings scans the parked relational constraints for types a free
// variable could be bound to: for `α <: T`, T is a from-above candidate; for
// `T <: α`, T is a from-below candidate. The variable with the smallest id
// that has any candidates is chosen; most variables prefer from-above
// candidates first, PrefersSubtypeBinding flips the order.
func (cs *ConstraintSystem) candidateBindings() (*TypeVar, []Type) {
	above := make(map[*TypeVar][]Type)
	below := make(map[*TypeVar][]Type)

	for _, c := range cs.inactive {
		switch c.Kind {
		case KindSubtype, KindConversion, KindArgumentTupleConversion:
		default:
			continue
		}
		a := cs.GetFixedTypeRecursive(c.First, true)
		b := cs.GetFixedTypeRecursive(c.Second, true)
		if av, ok := a.(*TypeVar); ok && cs.isFullyConcrete(b) {
			above[av] = append(above[av], cs.simplifyType(b))
		}
		if bv, ok := b.(*TypeVar); ok && cs.isFullyConcrete(a) {
			below[bv] = append(below[bv], cs.simplifyType(a))
		}
	}

	var chosen *TypeVar
	for tv := range above {
		if chosen == nil || tv.id < chosen.id {
			chosen = tv
		}
	}
	for tv := range below {
		if chosen == nil || tv.id < chosen.id {
			chosen = tv
		}
	}
	if chosen == nil {
		return nil, nil
	}

	var ordered []Type
	if chosen.opts&PrefersSubtypeBinding != 0 {
		ordered = append(ordered, below[chosen]...)
		ordered = append(ordered, above[chosen]...)
	} else {
		ordered = append(ordered, above[chosen]...)
		ordered = append(ordered, below[chosen]...)
	}
	if chosen.literalProtocol != nil && chosen.literalProtocol.DefaultLiteralType != nil {
		ordered = append(ordered, chosen.literalProtocol.DefaultLiteralType)
	}
	return chosen, dedupTypes(ordered)
}

func (cs *ConstraintSystem) isFullyConcrete(t Type) bool {
	return !hasFreeTypeVars(cs.simplifyType(t))
}

func dedupTypes(types []Type) []Type {
	seen := make(map[uint64]bool, len(types))
	out := types[:0:len(types)]
	for _, t := range types {
		h := t.Hash()
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, t)
	}
	return out
}

// freeLiteralVars returns the still-free literal variables (as class
// representatives) whose protocol declares a default type.
func (cs *ConstraintSystem) freeLiteralVars() []*TypeVar {
	var out []*TypeVar
	for _, tv := range cs.vars {
		rep := cs.GetRepresentative(tv)
		if rep != tv {
			continue
		}
		if cs.GetFixedType(rep) != nil {
			continue
		}
		if rep.literalProtocol == nil || rep.literalProtocol.DefaultLiteralType == nil {
			continue
		}
		out = append(out, rep)
	}
	return out
}

// bestSolutions keeps the minimum-score solutions, de-duplicating branches
// that converged on the same assignment.
func bestSolutions(solutions []*Solution) []*Solution {
	best := solutions[0].score
	for _, s := range solutions[1:] {
		if s.score.Compare(best) < 0 {
			best = s.score
		}
	}
	seen := make(map[uint64]bool)
	var out []*Solution
	for _, s := range solutions {
		if s.score.Compare(best) != 0 {
			continue
		}
		k := s.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

// diagnoseFailure turns the recorded search failures into a user error,
// preferring the first failure of the first failing branch.
func (cs *ConstraintSystem) diagnoseFailure() serr.SableError {
	if len(cs.failures) > 0 {
		return failureError(cs.failures[0])
	}
	if c := cs.failedConstraint; c != nil {
		return serr.New(serr.NewTypeMismatch{
			Positioner: positionerOf(c.Locator),
			First:      typeString(c.First),
			Second:     typeString(c.Second),
		})
	}
	return serr.New(serr.Unclassified{
		From:       fmt.Errorf("no solution found"),
		Positioner: ast.Range{},
	})
}

func failureError(f *Failure) serr.SableError {
	pos := positionerOf(f.Locator)
	switch f.Kind {
	case FailureDoesNotConform:
		return serr.New(serr.NewConformanceMissing{
			Positioner: pos,
			Type:       typeString(f.First),
			Protocol:   typeString(f.Second),
		})
	case FailureNoMember:
		return serr.New(serr.NewUnknownMember{
			Positioner: pos,
			Base:       typeString(f.First),
			Name:       f.Name,
		})
	case FailureUnboundVariable:
		return serr.New(serr.NewNoViableOverload{
			Positioner: pos,
			Name:       f.Name,
		})
	default:
		return serr.New(serr.NewTypeMismatch{
			Positioner: pos,
			First:      typeString(f.First),
			Second:     typeString(f.Second),
			Reason:     f.Kind.String(),
		})
	}
}

// ambiguityDetails finds the locator whose resolved overload differs across
// the most surviving solutions; that is the reference to blame.
func (cs *ConstraintSystem) ambiguityDetails(solutions []*Solution) (name string, pos ast.Positioner) {
	choicesAt := make(map[*Locator]map[string]OverloadChoice)
	for _, s := range solutions {
		for entry := s.overloads; entry != nil; entry = entry.Previous {
			if choicesAt[entry.Locator] == nil {
				choicesAt[entry.Locator] = make(map[string]OverloadChoice)
			}
			choicesAt[entry.Locator][entry.Choice.String()] = entry.Choice
		}
	}
	var blamed *Locator
	most := 1
	for loc, choices := range choicesAt {
		if len(choices) > most || (len(choices) == most && blamed == nil) {
			blamed = loc
			most = len(choices)
		}
	}
	if blamed == nil {
		return "", ast.Range{}
	}
	for _, choice := range choicesAt[blamed] {
		if choice.Decl != nil {
			name = choice.Decl.Name
			break
		}
	}
	return name, positionerOf(blamed)
}

// rootPositioner finds some position to anchor a whole-expression error on.
func (cs *ConstraintSystem) rootPositioner() ast.Positioner {
	for _, c := range cs.inactive {
		if p := positionerOf(c.Locator); p != (ast.Range{}) {
			return p
		}
	}
	if cs.failedConstraint != nil {
		return positionerOf(cs.failedConstraint.Locator)
	}
	return ast.Range{}
}

func positionerOf(loc *Locator) ast.Range {
	if loc == nil || loc.Anchor == nil {
		return ast.Range{}
	}
	return ast.RangeOf(loc.Anchor)
}

func typeString(t Type) string {
	if t == nil {
		return "<unknown>"
	}
	return t.String()
}
