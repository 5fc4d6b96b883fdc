package types

// Substitution is the single substitution context used while opening generic
// signatures: it maps generic parameters to their openings and resolves
// dependent members through the system, memoizing as it goes. One object
// replaces the pair of mutually recursive closures a naive opener would need.
type Substitution struct {
	cs           *ConstraintSystem
	loc          *Locator
	replacements map[string]Type
	memo         map[uint64]Type
}

func (cs *ConstraintSystem) NewSubstitution(loc *Locator) *Substitution {
	return &Substitution{
		cs:           cs,
		loc:          loc,
		replacements: make(map[string]Type),
		memo:         make(map[uint64]Type),
	}
}

// Set records the replacement for a generic parameter, keyed by the
// parameter's canonical form.
func (s *Substitution) Set(param *GenericParamType, t Type) {
	s.replacements[param.canonicalKey()] = t
}

// Lookup returns the recorded replacement for a parameter, if any.
func (s *Substitution) Lookup(param *GenericParamType) (Type, bool) {
	t, ok := s.replacements[param.canonicalKey()]
	return t, ok
}

// Replacements returns the replacement for each parameter of sig, in order.
func (s *Substitution) Replacements(sig *GenericSignature) []Type {
	out := make([]Type, 0, len(sig.Params))
	for _, p := range sig.Params {
		if t, ok := s.Lookup(p); ok {
			out = append(out, t)
		}
	}
	return out
}

// Apply substitutes every generic parameter and dependent member inside t.
// Results are memoized by structural hash: associated types may reference
// each other mutually, and the memo is what makes substitution terminate.
func (s *Substitution) Apply(t Type) Type {
	if done, ok := s.memo[t.Hash()]; ok {
		return done
	}
	var result Type
	switch t := t.(type) {
	case *GenericParamType:
		if repl, ok := s.Lookup(t); ok {
			result = repl
		} else {
			result = t
		}
	case *DependentMemberType:
		base := s.Apply(t.Base)
		result = s.cs.GetMemberType(base, t.Assoc, s.loc)
	default:
		result = t.doMap(s.Apply)
	}
	s.memo[t.Hash()] = result
	return result
}
