package types

// This file holds the declaration model the engine consumes. It is the
// minimum surface the surrounding declaration checker must provide: interface
// types, generic signatures, conformances, and name lookup.

type DeclContextKind int

const (
	ModuleContext DeclContextKind = iota
	NominalContext
	ProtocolContext
)

// DeclContext is the lexical context a declaration lives in.
type DeclContext struct {
	Kind     DeclContextKind
	Parent   *DeclContext
	SelfType Type               // the nominal self type, for NominalContext
	Protocol *ProtocolDecl      // set for ProtocolContext
	Generics *GenericSignature  // may be nil
	Module   string
}

// IsGeneric reports whether the context (or any enclosing one) declares
// generic parameters.
func (c *DeclContext) IsGeneric() bool {
	for ctx := c; ctx != nil; ctx = ctx.Parent {
		if ctx.Generics != nil && len(ctx.Generics.Params) > 0 {
			return true
		}
	}
	return false
}

// TypeDecl declares a nominal type.
type TypeDecl struct {
	Name       string
	IsClass    bool
	Superclass *NominalType      // nil unless IsClass and it inherits
	Generics   *GenericSignature // nil for non-generic types
	// BridgedForeign is the foreign-runtime class this type bridges to, if any.
	BridgedForeign *NominalType
}

// ProtocolDecl declares a protocol.
type ProtocolDecl struct {
	Name            string
	AssociatedTypes []*AssociatedTypeDecl
	Requirements    []Requirement
	// DefaultLiteralType is the type literals tagged with this protocol
	// default to when nothing else binds them. Nil for non-literal protocols.
	DefaultLiteralType Type
}

// SelfParam is the implicit `Self` parameter of the protocol.
func (p *ProtocolDecl) SelfParam() *GenericParamType {
	return &GenericParamType{Name: "Self", Depth: 0, Index: 0}
}

// SelfType is the protocol's existential type.
func (p *ProtocolDecl) SelfType() Type {
	return &ProtocolType{Decl: p}
}

func (p *ProtocolDecl) AssociatedType(name string) *AssociatedTypeDecl {
	for _, at := range p.AssociatedTypes {
		if at.Name == name {
			return at
		}
	}
	return nil
}

// AssociatedTypeDecl declares an associated type requirement of a protocol.
type AssociatedTypeDecl struct {
	Name       string
	Protocol   *ProtocolDecl
	Superclass Type            // declared superclass bound, may be nil
	ConformsTo []*ProtocolDecl // declared conformance bounds
}

// DeclaredType is the dependent form `Self.Name`.
func (a *AssociatedTypeDecl) DeclaredType() Type {
	return &DependentMemberType{Base: a.Protocol.SelfParam(), Assoc: a}
}

type RequirementKind int

const (
	RequirementConformance RequirementKind = iota
	RequirementSameType
	RequirementSuperclass
)

// Requirement is one clause of a generic signature's where-list.
type Requirement struct {
	Kind       RequirementKind
	Subject    Type
	Constraint Type          // for SameType and Superclass
	Protocol   *ProtocolDecl // for Conformance
}

// GenericSignature is a list of generic parameters plus their requirements.
type GenericSignature struct {
	Params       []*GenericParamType
	Requirements []Requirement
}

type DeclKind int

const (
	FuncDecl DeclKind = iota
	VarDecl
	ConstructorDecl
	SubscriptDecl
	TypeAliasDecl
)

// ValueDecl is a declaration a name can resolve to.
type ValueDecl struct {
	Name          string
	Kind          DeclKind
	InterfaceType Type
	Generics      *GenericSignature // the decl's own parameters, nil if none
	Context       *DeclContext

	// IsOptionalRequirement marks a protocol requirement a conformer may omit;
	// references to it produce an optional of the member type.
	IsOptionalRequirement bool
	// HasDynamicSelf marks a method whose result is the dynamic Self type.
	HasDynamicSelf bool
	// Settable marks vars and subscripts whose reference is an l-value.
	Settable bool
	// Selector is the runtime name used for dynamic lookup, empty when the
	// declaration is not visible to dynamic lookup.
	Selector string
	// Assoc links a TypeAliasDecl member to the associated type it witnesses.
	Assoc *AssociatedTypeDecl
}

// ResultType is the declared result for function-like decls, or the interface
// type itself otherwise.
func (d *ValueDecl) ResultType() Type {
	if fn, ok := d.InterfaceType.(*FuncType); ok {
		return fn.Ret
	}
	return d.InterfaceType
}

// Conformance records how a type satisfies a protocol.
type Conformance struct {
	Protocol *ProtocolDecl
	// TypeWitnesses maps associated type names to the concrete types the
	// conforming type chose for them.
	TypeWitnesses map[string]Type
}

// ConformanceOracle answers conformance queries. It is owned by the
// surrounding checker; the engine only reads from it.
type ConformanceOracle interface {
	ConformsTo(t Type, p *ProtocolDecl) (*Conformance, bool)
}

// LookupService returns candidate declarations for a name. It is owned by the
// surrounding checker.
type LookupService interface {
	// LookupName finds candidates for an unqualified name.
	LookupName(name string) []*ValueDecl
	// LookupMember finds candidates for base.name.
	LookupMember(base Type, name string) []*ValueDecl
	// LookupDynamic finds candidates for a runtime-name (dynamic) lookup.
	LookupDynamic(name string) []*ValueDecl
}

// ConformanceTable is a straightforward table-backed ConformanceOracle.
type ConformanceTable struct {
	entries map[string][]*Conformance // keyed by nominal/protocol type name
}

func NewConformanceTable() *ConformanceTable {
	return &ConformanceTable{entries: make(map[string][]*Conformance)}
}

func (t *ConformanceTable) Add(typeName string, c *Conformance) {
	t.entries[typeName] = append(t.entries[typeName], c)
}

func (t *ConformanceTable) ConformsTo(ty Type, p *ProtocolDecl) (*Conformance, bool) {
	// a protocol existential trivially witnesses its own protocol
	if proto, ok := ty.(*ProtocolType); ok && proto.Decl == p {
		return &Conformance{Protocol: p, TypeWitnesses: map[string]Type{}}, true
	}
	name := ""
	switch ty := ty.(type) {
	case *NominalType:
		name = ty.Decl.Name
	case *ProtocolType:
		name = ty.Decl.Name
	default:
		return nil, false
	}
	for _, c := range t.entries[name] {
		if c.Protocol == p {
			return c, true
		}
	}
	// classes inherit their superclass's conformances
	if nom, ok := ty.(*NominalType); ok && nom.Decl.Superclass != nil {
		return t.ConformsTo(nom.Decl.Superclass, p)
	}
	return nil, false
}

// LookupTable is a table-backed LookupService.
type LookupTable struct {
	names   map[string][]*ValueDecl
	members map[string]map[string][]*ValueDecl // base type name -> member name
	dynamic map[string][]*ValueDecl
}

func NewLookupTable() *LookupTable {
	return &LookupTable{
		names:   make(map[string][]*ValueDecl),
		members: make(map[string]map[string][]*ValueDecl),
		dynamic: make(map[string][]*ValueDecl),
	}
}

func (t *LookupTable) AddName(decl *ValueDecl) {
	t.names[decl.Name] = append(t.names[decl.Name], decl)
}

func (t *LookupTable) AddMember(baseName string, decl *ValueDecl) {
	if t.members[baseName] == nil {
		t.members[baseName] = make(map[string][]*ValueDecl)
	}
	t.members[baseName][decl.Name] = append(t.members[baseName][decl.Name], decl)
}

func (t *LookupTable) AddDynamic(decl *ValueDecl) {
	t.dynamic[decl.Name] = append(t.dynamic[decl.Name], decl)
}

func (t *LookupTable) LookupName(name string) []*ValueDecl {
	return t.names[name]
}

func (t *LookupTable) LookupMember(base Type, name string) []*ValueDecl {
	baseName := ""
	switch base := base.(type) {
	case *NominalType:
		baseName = base.Decl.Name
	case *ProtocolType:
		baseName = base.Decl.Name
	case *ModuleType:
		return t.names[name]
	default:
		return nil
	}
	if found := t.members[baseName][name]; len(found) > 0 {
		return found
	}
	// walk up the superclass chain
	if nom, ok := base.(*NominalType); ok && nom.Decl.Superclass != nil {
		return t.LookupMember(nom.Decl.Superclass, name)
	}
	return nil
}

func (t *LookupTable) LookupDynamic(name string) []*ValueDecl {
	return t.dynamic[name]
}
