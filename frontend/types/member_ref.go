package types

// Reference-type computation: given a declaration (possibly generic, possibly
// a member of some base), produce the opened type a use of it has inside this
// system.

// NewModuleContext builds the context for top-level declarations.
func NewModuleContext(module string) *DeclContext {
	return &DeclContext{Kind: ModuleContext, Module: module}
}

// NewNominalContext builds the context for members of a nominal type.
func NewNominalContext(decl *TypeDecl, parent *DeclContext) *DeclContext {
	selfArgs := make([]Type, 0)
	if decl.Generics != nil {
		for _, p := range decl.Generics.Params {
			selfArgs = append(selfArgs, p)
		}
	}
	return &DeclContext{
		Kind:     NominalContext,
		Parent:   parent,
		SelfType: &NominalType{Decl: decl, Args: selfArgs},
		Generics: decl.Generics,
	}
}

// NewProtocolContext builds the context for protocol requirements. The
// protocol's Self is a generic parameter constrained to the protocol itself.
func NewProtocolContext(proto *ProtocolDecl, parent *DeclContext) *DeclContext {
	self := proto.SelfParam()
	return &DeclContext{
		Kind:     ProtocolContext,
		Parent:   parent,
		SelfType: self,
		Protocol: proto,
		Generics: &GenericSignature{
			Params: []*GenericParamType{self},
			Requirements: []Requirement{
				{Kind: RequirementConformance, Subject: self, Protocol: proto},
			},
		},
	}
}

// GetTypeOfReference opens a plain (non-member) reference to a declaration:
// the declaration's own generic parameters, and those of its context, become
// fresh variables.
func (cs *ConstraintSystem) GetTypeOfReference(decl *ValueDecl, loc *Locator) (openedFullType, refType Type) {
	// nothing to open when neither the declaration nor any enclosing context
	// is generic
	if decl.Generics == nil && !decl.Context.IsGeneric() {
		return decl.InterfaceType, decl.InterfaceType
	}
	subst := cs.NewSubstitution(loc)
	for ctx := decl.Context; ctx != nil; ctx = ctx.Parent {
		cs.OpenGeneric(ctx, ctx.Generics, loc, ctx.Kind == ProtocolContext, nil, subst)
	}
	cs.OpenGeneric(decl.Context, decl.Generics, loc, false, nil, subst)
	opened := subst.Apply(decl.InterfaceType)
	return opened, opened
}

// GetTypeOfMemberReference computes the opened type of `base.member`.
func (cs *ConstraintSystem) GetTypeOfMemberReference(
	baseTy Type,
	decl *ValueDecl,
	isTypeReference bool,
	isDynamicResult bool,
	loc *Locator,
) (openedFullType, refType Type) {
	baseObj := cs.GetFixedTypeRecursive(baseTy, true)

	// module members ignore the base entirely
	if _, ok := baseObj.(*ModuleType); ok {
		return cs.GetTypeOfReference(decl, loc)
	}

	// associated-type members project through the base
	if decl.Kind == TypeAliasDecl && decl.Assoc != nil {
		projected := cs.GetMemberType(baseObj, decl.Assoc, loc)
		return projected, projected
	}

	owner := decl.Context
	subst := cs.NewSubstitution(loc)
	var selfObject Type
	switch {
	case owner == nil:
		selfObject = baseObj
	case owner.Kind == ProtocolContext:
		// the protocol's own requirement list must not re-open Self: P
		cs.OpenGeneric(owner, owner.Generics, loc, true, nil, subst)
		selfObject = subst.Apply(owner.SelfType)
	default:
		for ctx := owner; ctx != nil; ctx = ctx.Parent {
			cs.OpenGeneric(ctx, ctx.Generics, loc, false, nil, subst)
		}
		selfObject = subst.Apply(owner.SelfType)
	}
	cs.OpenGeneric(owner, decl.Generics, loc, false, nil, subst)

	opened := subst.Apply(decl.InterfaceType)

	// a dynamic-Self result stands for the concrete base object type
	if decl.HasDynamicSelf {
		opened = replaceDynamicSelf(opened, baseObj)
	}
	// constructors on a protocol (or through dynamic Self) produce the base
	// object type, not the statically written result
	if decl.Kind == ConstructorDecl && (decl.HasDynamicSelf || (owner != nil && owner.Kind == ProtocolContext)) {
		if fn, ok := opened.(*FuncType); ok {
			opened = &FuncType{Params: fn.Params, Ret: baseObj}
		}
	}

	// Self-binding variance: protocol Selves and existentials are fungible,
	// classes admit covariant overriding, everything else must match exactly.
	// Dynamic lookup defers the base check to runtime entirely.
	if owner != nil && selfObject != nil && !isDynamicResult {
		baseLoc := cs.WithPath(loc, PathElement{Kind: PathMemberRefBase})
		switch {
		case owner.Kind == ProtocolContext:
			cs.AddConstraint(cs.NewConstraint(KindEqual, baseObj, selfObject, baseLoc))
		case ownerIsClass(owner):
			cs.AddConstraint(cs.NewConstraint(KindSubtype, baseObj, selfObject, baseLoc))
		default:
			cs.AddConstraint(cs.NewConstraint(KindEqual, baseObj, selfObject, baseLoc))
		}
	}

	refType = opened
	if isTypeReference {
		return opened, refType
	}
	if decl.Kind == SubscriptDecl {
		refType = cs.subscriptRefType(opened, decl, isDynamicResult)
	}
	return opened, refType
}

func ownerIsClass(ctx *DeclContext) bool {
	nom, ok := ctx.SelfType.(*NominalType)
	return ok && nom.Decl.IsClass
}

// subscriptRefType wraps the element type of a subscript reference: optional
// protocol requirements produce an optional element, dynamic lookup an
// implicitly unwrapped one. Settability is the reference builder's concern,
// not decided here.
func (cs *ConstraintSystem) subscriptRefType(opened Type, decl *ValueDecl, isDynamicResult bool) Type {
	fn, ok := opened.(*FuncType)
	if !ok {
		return opened
	}
	elem := fn.Ret
	switch {
	case isDynamicResult:
		elem = &IUOptionalType{Wrapped: elem}
	case decl.IsOptionalRequirement:
		elem = &OptionalType{Wrapped: elem}
	}
	return &FuncType{Params: fn.Params, Ret: elem}
}

// replaceDynamicSelf substitutes the dynamic-self marker with the concrete
// base object type everywhere it occurs.
func replaceDynamicSelf(t Type, baseObj Type) Type {
	if _, ok := t.(*DynamicSelfType); ok {
		return baseObj
	}
	return t.doMap(func(child Type) Type { return replaceDynamicSelf(child, baseObj) })
}
