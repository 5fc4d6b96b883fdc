package types

import "github.com/cottand/sable/internal/log"

var openerLogger = log.DefaultLogger.With("section", "opener")

// OpenerHook lets a caller supply a concrete replacement for a generic
// parameter instead of a fresh variable. The fresh variable is still created;
// the replacement is enforced through an equality constraint.
type OpenerHook func(param *GenericParamType) (Type, bool)

// OpenGeneric instantiates a generic signature: one fresh type variable per
// parameter, one constraint per requirement. Replacements are recorded in
// subst keyed by the parameter's canonical form.
//
// skipProtocolSelfConstraint elides the "protocol's own Self conforms to
// itself" requirement, which would otherwise recurse forever when opening a
// protocol's own requirement list.
func (cs *ConstraintSystem) OpenGeneric(
	ctxt *DeclContext,
	sig *GenericSignature,
	loc *Locator,
	skipProtocolSelfConstraint bool,
	opener OpenerHook,
	subst *Substitution,
) {
	if sig == nil {
		return
	}
	for _, param := range sig.Params {
		tv := cs.NewTypeVariable(cs.WithPath(loc, GenericParameterPath(param.Name)), 0)
		tv.archetype = param
		subst.Set(param, tv)
		if opener != nil {
			if concrete, ok := opener(param); ok {
				openerLogger.Debug("opener: binding parameter to supplied type", "param", param, "type", concrete)
				cs.AddConstraint(cs.NewConstraint(KindEqual, tv, concrete, tv.loc))
			}
		}
	}
	for i, req := range sig.Requirements {
		reqLoc := cs.WithPath(loc, TypeRequirementPath(i))
		switch req.Kind {
		case RequirementConformance:
			if skipProtocolSelfConstraint && ctxt != nil && ctxt.Protocol != nil && isProtocolSelfRequirement(req, ctxt.Protocol) {
				continue
			}
			subject := subst.Apply(req.Subject)
			cs.AddConstraint(cs.NewConformsToConstraint(KindConformsTo, subject, req.Protocol, reqLoc))
		case RequirementSameType:
			cs.AddConstraint(cs.NewConstraint(KindEqual, subst.Apply(req.Subject), subst.Apply(req.Constraint), reqLoc))
		case RequirementSuperclass:
			cs.AddConstraint(cs.NewConstraint(KindSubtype, subst.Apply(req.Subject), subst.Apply(req.Constraint), reqLoc))
		}
	}
}

// isProtocolSelfRequirement recognizes `Self: P` inside P's own signature.
func isProtocolSelfRequirement(req Requirement, proto *ProtocolDecl) bool {
	if req.Protocol != proto {
		return false
	}
	subject, ok := req.Subject.(*GenericParamType)
	return ok && Equal(subject, proto.SelfParam())
}

// GetMemberType resolves `base.Assoc`. When the base is still a type
// variable the member is itself a fresh variable, memoized per
// (base representative, member name) in the constraint graph: without the
// memo, mutually referential associated types would open forever.
func (cs *ConstraintSystem) GetMemberType(base Type, assoc *AssociatedTypeDecl, loc *Locator) Type {
	resolved := cs.GetFixedTypeRecursive(base, true)

	if baseVar, ok := resolved.(*TypeVar); ok {
		rep := cs.GetRepresentative(baseVar)
		if memoized, ok := cs.graph.memberTypeVar(rep, assoc.Name); ok {
			return memoized
		}
		memberLoc := cs.WithPath(loc, MemberPath(assoc.Name))
		mv := cs.NewTypeVariable(memberLoc, 0)
		mv.archetype = assoc.DeclaredType()
		cs.graph.setMemberTypeVar(rep, assoc.Name, mv)
		mc := cs.NewMemberConstraint(KindTypeMember, rep, assoc.Name, mv, memberLoc)
		mc.Protocol = assoc.Protocol
		cs.AddConstraint(mc)
		// the member variable inherits the associated type's declared bounds
		for _, proto := range assoc.ConformsTo {
			cs.AddConstraint(cs.NewConformsToConstraint(KindConformsTo, mv, proto, memberLoc))
		}
		if assoc.Superclass != nil {
			cs.AddConstraint(cs.NewConstraint(KindSubtype, mv, assoc.Superclass, memberLoc))
		}
		return mv
	}

	// concrete base: substitute the conformance's recorded type witness
	if conf, ok := cs.Oracle.ConformsTo(resolved, assoc.Protocol); ok {
		if witness, ok := conf.TypeWitnesses[assoc.Name]; ok {
			return witness
		}
	}
	// best effort: keep the declared dependent form for diagnosis upstream
	return &DependentMemberType{Base: resolved, Assoc: assoc}
}

// OpenUnboundGenericType opens a reference to a generic nominal type with no
// arguments written: the parameter list is opened the usual way and the
// nominal is rebuilt over the fresh variables.
func (cs *ConstraintSystem) OpenUnboundGenericType(decl *TypeDecl, loc *Locator) Type {
	if decl.Generics == nil || len(decl.Generics.Params) == 0 {
		return &NominalType{Decl: decl}
	}
	subst := cs.NewSubstitution(loc)
	cs.OpenGeneric(nil, decl.Generics, loc, false, nil, subst)
	return &NominalType{Decl: decl, Args: subst.Replacements(decl.Generics)}
}
