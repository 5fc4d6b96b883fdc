package types

import (
	"iter"
	"strconv"
)

// TypeVarOptions are search heuristics attached to a variable at creation.
type TypeVarOptions uint8

const (
	// PrefersSubtypeBinding makes the search try from-below candidate
	// bindings before from-above ones.
	PrefersSubtypeBinding TypeVarOptions = 1 << iota
)

// TypeVar is a unification placeholder. Identity is the pointer; the id is
// only used for ordering and as a map key. Representative and fixed-type
// state live in the owning ConstraintSystem's versioned maps so that it can
// be undone on backtrack.
type TypeVar struct {
	id   uint64
	opts TypeVarOptions

	// literalProtocol tags defaultable literal placeholders.
	literalProtocol *ProtocolDecl
	// loc is the locator of the construct that introduced the variable.
	loc *Locator
	// archetype is the generic parameter or associated type this variable was
	// opened from, if any.
	archetype Type
}

func (t *TypeVar) ID() uint64                     { return t.id }
func (t *TypeVar) Options() TypeVarOptions        { return t.opts }
func (t *TypeVar) LiteralProtocol() *ProtocolDecl { return t.literalProtocol }
func (t *TypeVar) Locator() *Locator              { return t.loc }
func (t *TypeVar) Archetype() Type                { return t.archetype }

func (t *TypeVar) String() string             { return "α" + strconv.FormatUint(t.id, 10) }
func (t *TypeVar) Hash() uint64               { return hashOf("typevar", t.id) }
func (t *TypeVar) children() iter.Seq[Type]   { return emptySeqType }
func (t *TypeVar) doMap(func(Type) Type) Type { return t }

// NewTypeVariable allocates a fresh variable in the system's arena. It is its
// own representative and has no fixed type.
func (cs *ConstraintSystem) NewTypeVariable(loc *Locator, opts TypeVarOptions) *TypeVar {
	tv := &TypeVar{
		id:   uint64(len(cs.vars)),
		opts: opts,
		loc:  loc,
	}
	cs.vars = append(cs.vars, tv)
	cs.graph.nodeFor(tv)
	return tv
}

// NewLiteralTypeVariable allocates a variable tagged with the literal protocol
// it should default through.
func (cs *ConstraintSystem) NewLiteralTypeVariable(proto *ProtocolDecl, loc *Locator) *TypeVar {
	tv := cs.NewTypeVariable(loc, 0)
	tv.literalProtocol = proto
	return tv
}

// GetRepresentative finds the representative of v's equivalence class.
// Idempotent: the representative of a representative is itself.
func (cs *ConstraintSystem) GetRepresentative(v *TypeVar) *TypeVar {
	cur := v
	for {
		next, ok := cs.repr[cur.id]
		if !ok {
			return cur
		}
		cur = cs.vars[next]
	}
}

// MergeEquivalenceClasses merges b's class into a's. Both must already be
// representatives and distinct. The graph is notified so that every
// constraint touching either class gets another chance to make progress.
func (cs *ConstraintSystem) MergeEquivalenceClasses(a, b *TypeVar) {
	if a == b {
		panic("merging a type variable with itself")
	}
	if cs.GetRepresentative(a) != a || cs.GetRepresentative(b) != b {
		panic("merging non-representative type variables")
	}
	logger.Debug("unify: merging equivalence classes", "into", a, "from", b)

	// literal-conformance tags survive a merge on the representative; the
	// copy must be undone with the merge
	if a.literalProtocol == nil && b.literalProtocol != nil {
		cs.trail.Push(literalTagChange{v: a})
		a.literalProtocol = b.literalProtocol
	}

	cs.trail.Push(reprChange{id: b.id})
	cs.repr[b.id] = a.id
	cs.graph.mergeNodes(a, b)
	cs.activateConstraintsOn(a)
}

// AssignFixedType binds representative v to t. Re-binding is only legal when
// the new type is the same one, which recovery paths rely on.
func (cs *ConstraintSystem) AssignFixedType(v *TypeVar, t Type) {
	if cs.GetRepresentative(v) != v {
		panic("assigning a fixed type to a non-representative type variable")
	}
	if existing, ok := cs.fixed[v.id]; ok {
		if !Equal(existing, t) {
			panic("re-assigning a different fixed type to " + v.String())
		}
		return
	}
	logger.Debug("unify: assigning fixed type", "var", v, "type", t)
	cs.trail.Push(fixedChange{id: v.id})
	cs.fixed[v.id] = t
	cs.graph.bindTypeVariable(v, t)
	cs.activateConstraintsOn(v)
	// constraints over variables inside t may also be unblocked now
	for _, inner := range collectTypeVars(t, nil) {
		cs.activateConstraintsOn(cs.GetRepresentative(inner))
	}
}

// GetFixedType returns the type bound to v's class, or nil.
func (cs *ConstraintSystem) GetFixedType(v *TypeVar) Type {
	return cs.fixed[cs.GetRepresentative(v).id]
}

// GetFixedTypeRecursive chases fixed bindings transitively, stopping at the
// first non-variable or still-free variable. When wantRValue is set, l-value
// wrappers are stripped at every hop.
func (cs *ConstraintSystem) GetFixedTypeRecursive(t Type, wantRValue bool) Type {
	for {
		if wantRValue {
			if lv, ok := t.(*LValueType); ok {
				t = lv.Obj
				continue
			}
		}
		tv, ok := t.(*TypeVar)
		if !ok {
			return t
		}
		fixed := cs.GetFixedType(tv)
		if fixed == nil {
			return cs.GetRepresentative(tv)
		}
		t = fixed
	}
}

// simplifyType resolves every bound variable inside t to its fixed type.
func (cs *ConstraintSystem) simplifyType(t Type) Type {
	resolved := cs.GetFixedTypeRecursive(t, false)
	if _, ok := resolved.(*TypeVar); ok {
		return resolved
	}
	return resolved.doMap(cs.simplifyType)
}
