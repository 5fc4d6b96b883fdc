package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassMemberAcceptsSubclassBase(t *testing.T) {
	u, cs := newTestSystem()
	animal := &TypeDecl{Name: "Animal", IsClass: true}
	dog := &TypeDecl{Name: "Dog", IsClass: true, Superclass: &NominalType{Decl: animal}}
	speak := &ValueDecl{
		Name:          "speak",
		Kind:          FuncDecl,
		InterfaceType: &FuncType{Params: nil, Ret: u.StringType()},
		Context:       NewNominalContext(animal, u.Module),
	}

	_, refType := cs.GetTypeOfMemberReference(&NominalType{Decl: dog}, speak, false, false, nil)

	assert.Nil(t, cs.FailedConstraint(), "a class member admits subclass bases covariantly")
	assert.Equal(t, "() -> String", refType.String())
}

func TestStructMemberRequiresExactBase(t *testing.T) {
	u, cs := newTestSystem()
	point := &TypeDecl{Name: "Point"}
	x := &ValueDecl{
		Name:          "x",
		Kind:          VarDecl,
		InterfaceType: u.IntType(),
		Context:       NewNominalContext(point, u.Module),
	}

	cs.GetTypeOfMemberReference(u.StringType(), x, false, false, nil)

	assert.NotNil(t, cs.FailedConstraint(), "a non-class member rejects unrelated bases")
}

func TestProtocolMemberBindsSelfToBase(t *testing.T) {
	u, cs := newTestSystem()
	proto := &ProtocolDecl{Name: "Greeter"}
	ctxt := NewProtocolContext(proto, nil)
	greet := &ValueDecl{
		Name:          "greet",
		Kind:          FuncDecl,
		InterfaceType: &FuncType{Params: []Type{proto.SelfParam()}, Ret: u.StringType()},
		Context:       ctxt,
	}
	u.Conformances.Add("Impl", &Conformance{Protocol: proto, TypeWitnesses: map[string]Type{}})
	impl := &NominalType{Decl: &TypeDecl{Name: "Impl"}}

	_, refType := cs.GetTypeOfMemberReference(impl, greet, false, false, nil)

	require.Nil(t, cs.FailedConstraint())
	assert.Equal(t, "(Impl) -> String", cs.simplifyType(refType).String(),
		"the protocol Self parameter binds to the concrete base")
}

func TestDynamicSelfResultBecomesBaseType(t *testing.T) {
	u, cs := newTestSystem()
	animal := &TypeDecl{Name: "Animal", IsClass: true}
	dog := &TypeDecl{Name: "Dog", IsClass: true, Superclass: &NominalType{Decl: animal}}
	clone := &ValueDecl{
		Name:           "clone",
		Kind:           FuncDecl,
		InterfaceType:  &FuncType{Params: nil, Ret: &DynamicSelfType{SelfTy: &NominalType{Decl: animal}}},
		Context:        NewNominalContext(animal, u.Module),
		HasDynamicSelf: true,
	}

	_, refType := cs.GetTypeOfMemberReference(&NominalType{Decl: dog}, clone, false, false, nil)

	require.Nil(t, cs.FailedConstraint())
	assert.Equal(t, "() -> Dog", refType.String())
}

func TestProtocolConstructorProducesBaseObject(t *testing.T) {
	u, cs := newTestSystem()
	proto := &ProtocolDecl{Name: "Defaultable"}
	ctxt := NewProtocolContext(proto, nil)
	ctor := &ValueDecl{
		Name:          "init",
		Kind:          ConstructorDecl,
		InterfaceType: &FuncType{Params: nil, Ret: proto.SelfParam()},
		Context:       ctxt,
	}
	u.Conformances.Add("Impl", &Conformance{Protocol: proto, TypeWitnesses: map[string]Type{}})
	impl := &NominalType{Decl: &TypeDecl{Name: "Impl"}}

	_, refType := cs.GetTypeOfMemberReference(impl, ctor, false, false, nil)

	require.Nil(t, cs.FailedConstraint())
	assert.Equal(t, "() -> Impl", cs.simplifyType(refType).String())
}

func TestSubscriptReferenceWrapsElement(t *testing.T) {
	u, cs := newTestSystem()
	point := &TypeDecl{Name: "Point"}
	subscriptDecl := &ValueDecl{
		Name:          "subscript",
		Kind:          SubscriptDecl,
		InterfaceType: &FuncType{Params: []Type{u.IntType()}, Ret: u.StringType()},
		Context:       NewNominalContext(point, u.Module),
		Settable:      true,
	}

	_, dynamic := cs.GetTypeOfMemberReference(&NominalType{Decl: point}, subscriptDecl, false, true, nil)
	assert.Equal(t, "(Int) -> String!", dynamic.String(),
		"dynamic lookup produces an implicitly unwrapped element")

	subscriptDecl.IsOptionalRequirement = true
	_, optional := cs.GetTypeOfMemberReference(&NominalType{Decl: point}, subscriptDecl, false, false, nil)
	assert.Equal(t, "(Int) -> String?", optional.String(),
		"an optional requirement produces an optional element")
}

func TestModuleMemberIgnoresBase(t *testing.T) {
	u, cs := newTestSystem()
	decl := u.DeclareFunc("pi", nil, u.FloatType())

	_, refType := cs.GetTypeOfMemberReference(&ModuleType{Name: "main"}, decl, false, false, nil)

	assert.Nil(t, cs.FailedConstraint())
	assert.Equal(t, "() -> Float", refType.String())
}

func TestGenericOwnerOpensContextParameters(t *testing.T) {
	u, cs := newTestSystem()
	tp := &GenericParamType{Name: "T"}
	box := &TypeDecl{Name: "Box", Generics: &GenericSignature{Params: []*GenericParamType{tp}}}
	value := &ValueDecl{
		Name:          "value",
		Kind:          VarDecl,
		InterfaceType: tp,
		Context:       NewNominalContext(box, u.Module),
	}

	base := &NominalType{Decl: box, Args: []Type{u.IntType()}}
	_, refType := cs.GetTypeOfMemberReference(base, value, false, false, nil)

	require.Nil(t, cs.FailedConstraint())
	assert.Equal(t, "Int", cs.simplifyType(refType).String(),
		"Box<Int>.value instantiates the owner's parameter to Int")
}
