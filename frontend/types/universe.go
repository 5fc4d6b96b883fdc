package types

// Universe is a tiny built-in declaration set: enough nominal types, literal
// protocols, and lookup tables to exercise the engine without a surrounding
// declaration checker. The CLI scenarios and the tests build on it.
type Universe struct {
	Module       *DeclContext
	Conformances *ConformanceTable
	Names        *LookupTable

	Int    *TypeDecl
	Float  *TypeDecl
	Bool   *TypeDecl
	String *TypeDecl

	IntegerLiteral *ProtocolDecl
	FloatLiteral   *ProtocolDecl
	BooleanLiteral *ProtocolDecl
	StringLiteral  *ProtocolDecl
}

func NewUniverse() *Universe {
	u := &Universe{
		Module:       NewModuleContext("main"),
		Conformances: NewConformanceTable(),
		Names:        NewLookupTable(),
		Int:          &TypeDecl{Name: "Int"},
		Float:        &TypeDecl{Name: "Float"},
		Bool:         &TypeDecl{Name: "Bool"},
		String:       &TypeDecl{Name: "String"},
	}
	u.IntegerLiteral = &ProtocolDecl{Name: "IntegerLiteral", DefaultLiteralType: u.IntType()}
	u.FloatLiteral = &ProtocolDecl{Name: "FloatLiteral", DefaultLiteralType: u.FloatType()}
	u.BooleanLiteral = &ProtocolDecl{Name: "BooleanLiteral", DefaultLiteralType: u.BoolType()}
	u.StringLiteral = &ProtocolDecl{Name: "StringLiteral", DefaultLiteralType: u.StringType()}

	u.addConformance(u.Int, u.IntegerLiteral)
	u.addConformance(u.Float, u.IntegerLiteral)
	u.addConformance(u.Float, u.FloatLiteral)
	u.addConformance(u.Bool, u.BooleanLiteral)
	u.addConformance(u.String, u.StringLiteral)
	return u
}

func (u *Universe) addConformance(decl *TypeDecl, proto *ProtocolDecl) {
	u.Conformances.Add(decl.Name, &Conformance{Protocol: proto, TypeWitnesses: map[string]Type{}})
}

func (u *Universe) IntType() *NominalType    { return &NominalType{Decl: u.Int} }
func (u *Universe) FloatType() *NominalType  { return &NominalType{Decl: u.Float} }
func (u *Universe) BoolType() *NominalType   { return &NominalType{Decl: u.Bool} }
func (u *Universe) StringType() *NominalType { return &NominalType{Decl: u.String} }

// DeclareFunc registers a top-level function overload and returns its decl.
func (u *Universe) DeclareFunc(name string, params []Type, ret Type) *ValueDecl {
	decl := &ValueDecl{
		Name:          name,
		Kind:          FuncDecl,
		InterfaceType: &FuncType{Params: params, Ret: ret},
		Context:       u.Module,
	}
	u.Names.AddName(decl)
	return decl
}

// DeclareGenericFunc registers a top-level generic function. The caller builds
// the interface type over the signature's own parameters.
func (u *Universe) DeclareGenericFunc(name string, sig *GenericSignature, interfaceType Type) *ValueDecl {
	decl := &ValueDecl{
		Name:          name,
		Kind:          FuncDecl,
		InterfaceType: interfaceType,
		Generics:      sig,
		Context:       u.Module,
	}
	u.Names.AddName(decl)
	return decl
}

// DeclareVar registers a top-level variable.
func (u *Universe) DeclareVar(name string, t Type) *ValueDecl {
	decl := &ValueDecl{
		Name:          name,
		Kind:          VarDecl,
		InterfaceType: t,
		Context:       u.Module,
		Settable:      true,
	}
	u.Names.AddName(decl)
	return decl
}

// DeclareDynamic registers a member declaration with runtime-name (dynamic)
// lookup, under its selector when one is set and its name otherwise.
func (u *Universe) DeclareDynamic(decl *ValueDecl) *ValueDecl {
	if decl.Selector == "" {
		decl.Selector = decl.Name
	}
	u.Names.AddDynamic(decl)
	return decl
}

// DeclareMember registers a member declaration on a nominal type.
func (u *Universe) DeclareMember(owner *TypeDecl, decl *ValueDecl) *ValueDecl {
	if decl.Context == nil {
		decl.Context = NewNominalContext(owner, u.Module)
	}
	u.Names.AddMember(owner.Name, decl)
	return decl
}

// NewSystem builds a constraint system wired to the universe's tables.
func (u *Universe) NewSystem(opts SolverOpts) *ConstraintSystem {
	return NewConstraintSystem(u.Conformances, u.Names, opts)
}
