package types

type solveResult int

const (
	// constraintSolved: the constraint is satisfied (or decomposed into
	// simpler constraints now queued); it can be discarded.
	constraintSolved solveResult = iota
	// constraintUnsolved: no progress is possible without more information.
	constraintUnsolved
	// constraintErrored: the constraint is unsatisfiable.
	constraintErrored
)

// simplifyConstraint attempts immediate progress on one constraint.
func (cs *ConstraintSystem) simplifyConstraint(c *Constraint) solveResult {
	cs.stats.Steps++
	logger.Debug("simplify", "constraint", c, "kind", c.Kind)

	switch c.Kind {
	case KindBind, KindEqual, KindSubtype, KindConversion, KindArgumentTupleConversion:
		return cs.matchTypes(c.Kind, c.First, c.Second, c.Locator)
	case KindConformsTo, KindSelfObjectOfProtocol:
		return cs.simplifyConformsTo(c)
	case KindCheckedCast:
		return cs.simplifyCheckedCast(c)
	case KindValueMember, KindUnresolvedValueMember:
		return cs.simplifyValueMember(c)
	case KindTypeMember:
		return cs.simplifyTypeMember(c)
	case KindBindOverload:
		if cs.resolveOverload(c.Locator, c.First, *c.Choice) {
			return constraintSolved
		}
		return constraintErrored
	case KindBridgedToForeign:
		return cs.simplifyBridgedToForeign(c)
	case KindDisjunction:
		// decided by the search, never by local simplification
		return constraintUnsolved
	case KindConjunction:
		for _, nested := range c.Nested {
			if !cs.AddConstraint(nested) {
				return constraintErrored
			}
		}
		return constraintSolved
	default:
		panic("unhandled constraint kind " + c.Kind.String())
	}
}

// matchSub relates a sub-component pair, queueing it when undecidable.
// Returns false when the pair is unsatisfiable.
func (cs *ConstraintSystem) matchSub(kind ConstraintKind, a, b Type, loc *Locator) bool {
	switch cs.matchTypes(kind, a, b, loc) {
	case constraintErrored:
		return false
	case constraintUnsolved:
		cs.retireConstraint(cs.NewConstraint(kind, a, b, loc))
	}
	return true
}

func (cs *ConstraintSystem) mismatch(kind ConstraintKind, t1, t2 Type, loc *Locator) solveResult {
	if cs.Opts.AllowFixes && kind == KindConversion {
		cs.recordFix(Fix{Kind: FixCoerceMismatch, Locator: loc})
		return constraintSolved
	}
	cs.recordFailure(&Failure{Kind: FailureTypeMismatch, First: t1, Second: t2, Locator: loc})
	return constraintErrored
}

// matchTypes is the structural core shared by every relational kind.
//
// Free-variable policy: equalities make progress immediately (merging classes
// or assigning a fixed type); subtype-like kinds defer until a binding
// elsewhere re-activates them.
func (cs *ConstraintSystem) matchTypes(kind ConstraintKind, t1, t2 Type, loc *Locator) solveResult {
	wantRValue := kind != KindBind
	a := cs.GetFixedTypeRecursive(t1, wantRValue)
	b := cs.GetFixedTypeRecursive(t2, wantRValue)

	if ds, ok := a.(*DynamicSelfType); ok {
		a = ds.SelfTy
	}
	if ds, ok := b.(*DynamicSelfType); ok {
		b = ds.SelfTy
	}

	tv1, _ := a.(*TypeVar)
	tv2, _ := b.(*TypeVar)

	switch {
	case tv1 != nil && tv2 != nil:
		if tv1 == tv2 {
			return constraintSolved
		}
		if kind == KindBind || kind == KindEqual {
			cs.MergeEquivalenceClasses(tv1, tv2)
			return constraintSolved
		}
		return constraintUnsolved

	case tv1 != nil || tv2 != nil:
		if kind != KindBind && kind != KindEqual {
			return constraintUnsolved
		}
		tv, other := tv1, b
		if tv == nil {
			tv, other = tv2, a
		}
		other = cs.GetFixedTypeRecursive(other, true)
		if containsTypeVar(cs.simplifyType(other), tv) {
			return cs.mismatch(kind, a, b, loc)
		}
		cs.AssignFixedType(tv, other)
		return constraintSolved
	}

	// both sides concrete from here on
	if isErrorType(a) || isErrorType(b) {
		return constraintSolved
	}
	if Equal(a, b) {
		return constraintSolved
	}

	switch b := b.(type) {
	case *LValueType:
		// only exact binds ever see l-values on the right
		if lv1, ok := a.(*LValueType); ok {
			if cs.matchSub(KindBind, lv1.Obj, b.Obj, loc) {
				return constraintSolved
			}
			return constraintErrored
		}
		return cs.mismatch(kind, a, b, loc)

	case *ProtocolType:
		if kind == KindSubtype || kind == KindConversion || kind == KindArgumentTupleConversion {
			if _, ok := cs.Oracle.ConformsTo(a, b.Decl); ok {
				return constraintSolved
			}
			cs.recordFailure(&Failure{Kind: FailureDoesNotConform, First: a, Second: b, Locator: loc})
			return constraintErrored
		}
		return cs.mismatch(kind, a, b, loc)

	case *OptionalType:
		if opt1, ok := a.(*OptionalType); ok {
			if cs.matchSub(kind, opt1.Wrapped, b.Wrapped, loc) {
				return constraintSolved
			}
			return constraintErrored
		}
		if iuo1, ok := a.(*IUOptionalType); ok {
			if cs.matchSub(kind, iuo1.Wrapped, b.Wrapped, loc) {
				return constraintSolved
			}
			return constraintErrored
		}
		if kind == KindConversion || kind == KindSubtype || kind == KindArgumentTupleConversion {
			// optional injection: T converts to T?
			if cs.matchSub(kind, a, b.Wrapped, loc) {
				return constraintSolved
			}
			return constraintErrored
		}
		return cs.mismatch(kind, a, b, loc)

	case *IUOptionalType:
		if cs.matchSub(kind, unwrapIUO(a), b.Wrapped, loc) {
			return constraintSolved
		}
		return constraintErrored
	}

	if iuo1, ok := a.(*IUOptionalType); ok && kind != KindBind && kind != KindEqual {
		// implicit force: T! converts to T
		if cs.matchSub(kind, iuo1.Wrapped, b, loc) {
			return constraintSolved
		}
		return constraintErrored
	}
	if opt1, ok := a.(*OptionalType); ok && cs.Opts.AllowFixes && kind == KindConversion {
		cs.recordFix(Fix{Kind: FixForceOptional, Locator: loc})
		if cs.matchSub(kind, opt1.Wrapped, b, loc) {
			return constraintSolved
		}
		return constraintErrored
	}

	switch a := a.(type) {
	case *FuncType:
		fn2, ok := b.(*FuncType)
		if !ok {
			return cs.mismatch(kind, a, b, loc)
		}
		if len(a.Params) != len(fn2.Params) {
			return cs.mismatch(kind, a, b, loc)
		}
		paramKind, retKind := KindEqual, KindEqual
		switch kind {
		case KindSubtype:
			paramKind, retKind = KindSubtype, KindSubtype
		case KindConversion, KindArgumentTupleConversion:
			paramKind, retKind = KindConversion, KindConversion
		}
		for i := range a.Params {
			argLoc := cs.WithPath(loc, PathElement{Kind: PathFunctionArgument, Value: i})
			// parameters are contravariant
			if !cs.matchSub(paramKind, fn2.Params[i], a.Params[i], argLoc) {
				return constraintErrored
			}
		}
		retLoc := cs.WithPath(loc, PathElement{Kind: PathFunctionResult})
		if !cs.matchSub(retKind, a.Ret, fn2.Ret, retLoc) {
			return constraintErrored
		}
		return constraintSolved

	case *TupleType:
		tup2, ok := b.(*TupleType)
		if !ok {
			return cs.mismatch(kind, a, b, loc)
		}
		if len(a.Elems) != len(tup2.Elems) {
			return cs.mismatch(kind, a, b, loc)
		}
		elemKind := KindEqual
		switch kind {
		case KindConversion, KindArgumentTupleConversion:
			elemKind = KindConversion
		case KindSubtype:
			elemKind = KindSubtype
		}
		for i := range a.Elems {
			elemLoc := cs.WithPath(loc, TupleElementPath(i))
			if !cs.matchSub(elemKind, a.Elems[i], tup2.Elems[i], elemLoc) {
				return constraintErrored
			}
		}
		return constraintSolved

	case *NominalType:
		nom2, ok := b.(*NominalType)
		if !ok {
			return cs.mismatch(kind, a, b, loc)
		}
		if a.Decl == nom2.Decl {
			if len(a.Args) != len(nom2.Args) {
				return cs.mismatch(kind, a, b, loc)
			}
			// generic arguments are invariant
			for i := range a.Args {
				name := ""
				if a.Decl.Generics != nil && i < len(a.Decl.Generics.Params) {
					name = a.Decl.Generics.Params[i].Name
				}
				argLoc := cs.WithPath(loc, GenericParameterPath(name))
				if !cs.matchSub(KindEqual, a.Args[i], nom2.Args[i], argLoc) {
					return constraintErrored
				}
			}
			return constraintSolved
		}
		if kind == KindSubtype || kind == KindConversion || kind == KindArgumentTupleConversion {
			if super := superclassOf(a); super != nil {
				return cs.matchTypes(kind, super, b, loc)
			}
		}
		return cs.mismatch(kind, a, b, loc)
	}

	return cs.mismatch(kind, a, b, loc)
}

func unwrapIUO(t Type) Type {
	if iuo, ok := t.(*IUOptionalType); ok {
		return iuo.Wrapped
	}
	return t
}

// superclassOf returns the instantiated superclass of a nominal type, with
// the subclass's generic arguments substituted through.
func superclassOf(t *NominalType) *NominalType {
	super := t.Decl.Superclass
	if super == nil {
		return nil
	}
	if t.Decl.Generics == nil || len(t.Args) == 0 {
		return super
	}
	byKey := make(map[string]Type, len(t.Args))
	for i, p := range t.Decl.Generics.Params {
		if i < len(t.Args) {
			byKey[p.canonicalKey()] = t.Args[i]
		}
	}
	substituted := substituteParams(super, byKey)
	out, _ := substituted.(*NominalType)
	return out
}

func substituteParams(t Type, byKey map[string]Type) Type {
	if p, ok := t.(*GenericParamType); ok {
		if repl, ok := byKey[p.canonicalKey()]; ok {
			return repl
		}
		return p
	}
	return t.doMap(func(child Type) Type { return substituteParams(child, byKey) })
}

func (cs *ConstraintSystem) simplifyConformsTo(c *Constraint) solveResult {
	t := cs.GetFixedTypeRecursive(c.First, true)
	if _, ok := t.(*TypeVar); ok {
		return constraintUnsolved
	}
	if isErrorType(t) {
		return constraintSolved
	}
	if proto, ok := t.(*ProtocolType); ok && proto.Decl == c.Protocol {
		// an existential is always a valid self object of its own protocol
		return constraintSolved
	}
	if _, ok := cs.Oracle.ConformsTo(t, c.Protocol); ok {
		return constraintSolved
	}
	cs.recordFailure(&Failure{Kind: FailureDoesNotConform, First: t, Second: c.Protocol.SelfType(), Locator: c.Locator})
	return constraintErrored
}

func (cs *ConstraintSystem) simplifyCheckedCast(c *Constraint) solveResult {
	from := cs.GetFixedTypeRecursive(c.First, true)
	to := cs.GetFixedTypeRecursive(c.Second, true)
	if _, ok := from.(*TypeVar); ok {
		return constraintUnsolved
	}
	if _, ok := to.(*TypeVar); ok {
		return constraintUnsolved
	}
	if isErrorType(from) || isErrorType(to) || Equal(from, to) {
		return constraintSolved
	}
	// protocol casts are checked at runtime, so statically possible
	if _, ok := from.(*ProtocolType); ok {
		return constraintSolved
	}
	if _, ok := to.(*ProtocolType); ok {
		return constraintSolved
	}
	nomFrom, okFrom := from.(*NominalType)
	nomTo, okTo := to.(*NominalType)
	if okFrom && okTo {
		if nominalDescends(nomFrom, nomTo) || nominalDescends(nomTo, nomFrom) {
			return constraintSolved
		}
		cs.recordFailure(&Failure{Kind: FailureInvalidCast, First: from, Second: to, Locator: c.Locator})
		return constraintErrored
	}
	return constraintSolved
}

func nominalDescends(sub, super *NominalType) bool {
	for t := sub; t != nil; t = superclassOf(t) {
		if t.Decl == super.Decl {
			return true
		}
	}
	return false
}

func (cs *ConstraintSystem) simplifyValueMember(c *Constraint) solveResult {
	base := cs.GetFixedTypeRecursive(c.First, true)
	if _, ok := base.(*TypeVar); ok {
		return constraintUnsolved
	}
	if isErrorType(base) {
		// poison the member type rather than cascading
		if cs.AddConstraint(cs.NewConstraint(KindEqual, c.Second, ErrorType(), c.Locator)) {
			return constraintSolved
		}
		return constraintErrored
	}
	candidates := cs.Lookup.LookupMember(base, c.Member)
	choices := make([]OverloadChoice, 0, len(candidates))
	for _, decl := range candidates {
		choices = append(choices, OverloadChoice{Kind: ChoiceDecl, Base: base, Decl: decl})
	}
	if len(choices) == 0 {
		// member access through a bare existential falls back to runtime-name
		// lookup over every dynamically visible declaration
		if _, ok := base.(*ProtocolType); ok {
			for _, decl := range cs.Lookup.LookupDynamic(c.Member) {
				choices = append(choices, OverloadChoice{Kind: ChoiceDeclViaDynamic, Base: base, Decl: decl})
			}
		}
	}
	if len(choices) == 0 {
		cs.recordFailure(&Failure{Kind: FailureNoMember, First: base, Locator: c.Locator, Name: c.Member})
		return constraintErrored
	}
	if cs.AddOverloadSet(c.Second, choices, c.Locator) {
		return constraintSolved
	}
	return constraintErrored
}

func (cs *ConstraintSystem) simplifyTypeMember(c *Constraint) solveResult {
	base := cs.GetFixedTypeRecursive(c.First, true)
	if _, ok := base.(*TypeVar); ok {
		return constraintUnsolved
	}
	if isErrorType(base) {
		return constraintSolved
	}
	if c.Protocol.AssociatedType(c.Member) == nil {
		cs.recordFailure(&Failure{Kind: FailureNoMember, First: base, Locator: c.Locator, Name: c.Member})
		return constraintErrored
	}
	conf, ok := cs.Oracle.ConformsTo(base, c.Protocol)
	if !ok {
		cs.recordFailure(&Failure{Kind: FailureDoesNotConform, First: base, Second: c.Protocol.SelfType(), Locator: c.Locator})
		return constraintErrored
	}
	witness, ok := conf.TypeWitnesses[c.Member]
	if !ok {
		cs.recordFailure(&Failure{Kind: FailureNoMember, First: base, Locator: c.Locator, Name: c.Member})
		return constraintErrored
	}
	return cs.matchTypes(KindEqual, c.Second, witness, c.Locator)
}

func (cs *ConstraintSystem) simplifyBridgedToForeign(c *Constraint) solveResult {
	t := cs.GetFixedTypeRecursive(c.First, true)
	if _, ok := t.(*TypeVar); ok {
		return constraintUnsolved
	}
	if isErrorType(t) {
		return constraintSolved
	}
	nom, ok := t.(*NominalType)
	if !ok || nom.Decl.BridgedForeign == nil {
		cs.recordFailure(&Failure{Kind: FailureNoBridge, First: t, Locator: c.Locator})
		return constraintErrored
	}
	return cs.matchTypes(KindEqual, c.Second, nom.Decl.BridgedForeign, c.Locator)
}
