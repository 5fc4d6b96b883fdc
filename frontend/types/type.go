package types

import (
	"fmt"
	"hash/fnv"
	"iter"
	"strconv"
	"strings"

	"github.com/cottand/sable/internal/log"
)

var logger = log.DefaultLogger.With("section", "solver")

// Type is a fully structural type representation. Types may contain type
// variables; a type with no variables is called concrete.
//
// Hash is structural: two types with the same Hash are considered equal, which
// is what makes hash-consing and set membership cheap.
type Type interface {
	fmt.Stringer
	Hash() uint64
	children() iter.Seq[Type]
	// doMap rebuilds the type with every direct child passed through f.
	doMap(f func(Type) Type) Type
}

var (
	_ Type = (*TypeVar)(nil)
	_ Type = (*NominalType)(nil)
	_ Type = (*FuncType)(nil)
	_ Type = (*TupleType)(nil)
	_ Type = (*OptionalType)(nil)
	_ Type = (*IUOptionalType)(nil)
	_ Type = (*LValueType)(nil)
	_ Type = (*ProtocolType)(nil)
	_ Type = (*GenericParamType)(nil)
	_ Type = (*DependentMemberType)(nil)
	_ Type = (*DynamicSelfType)(nil)
	_ Type = (*ModuleType)(nil)
	_ Type = (*errorType)(nil)
)

// Equal compares two types structurally.
func Equal(this, other Type) bool {
	if this == nil || other == nil {
		return this == other
	}
	return this.Hash() == other.Hash()
}

var emptySeqType iter.Seq[Type] = func(func(Type) bool) {}

func hashOf(kind string, parts ...uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(kind))
	sum := h.Sum64()
	for _, p := range parts {
		sum = 31*sum ^ p
	}
	return sum
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func seqOf(types ...Type) iter.Seq[Type] {
	return func(yield func(Type) bool) {
		for _, t := range types {
			if !yield(t) {
				return
			}
		}
	}
}

// NominalType is a reference to a named type declaration, possibly applied to
// generic arguments.
type NominalType struct {
	Decl *TypeDecl
	Args []Type
}

func (t *NominalType) String() string {
	if len(t.Args) == 0 {
		return t.Decl.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Decl.Name, strings.Join(args, ", "))
}

func (t *NominalType) Hash() uint64 {
	parts := make([]uint64, 0, len(t.Args)+1)
	parts = append(parts, hashString(t.Decl.Name))
	for _, a := range t.Args {
		parts = append(parts, a.Hash())
	}
	return hashOf("nominal", parts...)
}

func (t *NominalType) children() iter.Seq[Type] { return seqOf(t.Args...) }

func (t *NominalType) doMap(f func(Type) Type) Type {
	if len(t.Args) == 0 {
		return t
	}
	args := make([]Type, len(t.Args))
	for i, a := range t.Args {
		args[i] = f(a)
	}
	return &NominalType{Decl: t.Decl, Args: args}
}

// FuncType is a function type over positional parameters.
type FuncType struct {
	Params []Type
	Ret    Type
}

func (t *FuncType) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), t.Ret)
}

func (t *FuncType) Hash() uint64 {
	parts := make([]uint64, 0, len(t.Params)+1)
	for _, p := range t.Params {
		parts = append(parts, p.Hash())
	}
	parts = append(parts, t.Ret.Hash())
	return hashOf("func", parts...)
}

func (t *FuncType) children() iter.Seq[Type] {
	return seqOf(append(append([]Type{}, t.Params...), t.Ret)...)
}

func (t *FuncType) doMap(f func(Type) Type) Type {
	params := make([]Type, len(t.Params))
	for i, p := range t.Params {
		params[i] = f(p)
	}
	return &FuncType{Params: params, Ret: f(t.Ret)}
}

type TupleType struct {
	Elems []Type
}

func (t *TupleType) String() string {
	elems := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		elems[i] = e.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(elems, ", "))
}

func (t *TupleType) Hash() uint64 {
	parts := make([]uint64, 0, len(t.Elems))
	for _, e := range t.Elems {
		parts = append(parts, e.Hash())
	}
	return hashOf("tuple", parts...)
}

func (t *TupleType) children() iter.Seq[Type] { return seqOf(t.Elems...) }

func (t *TupleType) doMap(f func(Type) Type) Type {
	elems := make([]Type, len(t.Elems))
	for i, e := range t.Elems {
		elems[i] = f(e)
	}
	return &TupleType{Elems: elems}
}

// OptionalType is `T?`.
type OptionalType struct {
	Wrapped Type
}

func (t *OptionalType) String() string           { return t.Wrapped.String() + "?" }
func (t *OptionalType) Hash() uint64             { return hashOf("optional", t.Wrapped.Hash()) }
func (t *OptionalType) children() iter.Seq[Type] { return seqOf(t.Wrapped) }
func (t *OptionalType) doMap(f func(Type) Type) Type {
	return &OptionalType{Wrapped: f(t.Wrapped)}
}

// IUOptionalType is an implicitly-unwrapped optional `T!`: an optional which
// converts freely to its wrapped type.
type IUOptionalType struct {
	Wrapped Type
}

func (t *IUOptionalType) String() string           { return t.Wrapped.String() + "!" }
func (t *IUOptionalType) Hash() uint64             { return hashOf("iuo", t.Wrapped.Hash()) }
func (t *IUOptionalType) children() iter.Seq[Type] { return seqOf(t.Wrapped) }
func (t *IUOptionalType) doMap(f func(Type) Type) Type {
	return &IUOptionalType{Wrapped: f(t.Wrapped)}
}

// LValueType marks a settable reference to its object type. It only ever
// appears at the outermost position of a type.
type LValueType struct {
	Obj Type
}

func (t *LValueType) String() string           { return "@lvalue " + t.Obj.String() }
func (t *LValueType) Hash() uint64             { return hashOf("lvalue", t.Obj.Hash()) }
func (t *LValueType) children() iter.Seq[Type] { return seqOf(t.Obj) }
func (t *LValueType) doMap(f func(Type) Type) Type {
	return &LValueType{Obj: f(t.Obj)}
}

// ProtocolType is the existential type of a protocol.
type ProtocolType struct {
	Decl *ProtocolDecl
}

func (t *ProtocolType) String() string             { return t.Decl.Name }
func (t *ProtocolType) Hash() uint64               { return hashOf("protocol", hashString(t.Decl.Name)) }
func (t *ProtocolType) children() iter.Seq[Type]   { return emptySeqType }
func (t *ProtocolType) doMap(func(Type) Type) Type { return t }

// GenericParamType is the declared placeholder for a generic parameter, such
// as the `T` of `func id<T>`, or a protocol's `Self`. It is replaced by a
// fresh type variable when the owning signature is opened.
type GenericParamType struct {
	Name  string
	Depth int
	Index int
}

func (t *GenericParamType) String() string { return t.Name }
func (t *GenericParamType) Hash() uint64 {
	return hashOf("genericParam", uint64(t.Depth), uint64(t.Index), hashString(t.Name))
}
func (t *GenericParamType) children() iter.Seq[Type]   { return emptySeqType }
func (t *GenericParamType) doMap(func(Type) Type) Type { return t }

// canonicalKey identifies the parameter inside a replacement map.
func (t *GenericParamType) canonicalKey() string {
	return strconv.Itoa(t.Depth) + "." + strconv.Itoa(t.Index) + "." + t.Name
}

// DependentMemberType is the declared form of `Base.Assoc`, an associated type
// projected from a base that is not yet known.
type DependentMemberType struct {
	Base  Type
	Assoc *AssociatedTypeDecl
}

func (t *DependentMemberType) String() string { return fmt.Sprintf("%s.%s", t.Base, t.Assoc.Name) }
func (t *DependentMemberType) Hash() uint64 {
	return hashOf("dependentMember", t.Base.Hash(), hashString(t.Assoc.Name))
}
func (t *DependentMemberType) children() iter.Seq[Type] { return seqOf(t.Base) }
func (t *DependentMemberType) doMap(f func(Type) Type) Type {
	return &DependentMemberType{Base: f(t.Base), Assoc: t.Assoc}
}

// DynamicSelfType is the covariant `Self` result marker of a method declared
// to return the dynamic type of its receiver.
type DynamicSelfType struct {
	SelfTy Type
}

func (t *DynamicSelfType) String() string           { return "Self" }
func (t *DynamicSelfType) Hash() uint64             { return hashOf("dynamicSelf", t.SelfTy.Hash()) }
func (t *DynamicSelfType) children() iter.Seq[Type] { return seqOf(t.SelfTy) }
func (t *DynamicSelfType) doMap(f func(Type) Type) Type {
	return &DynamicSelfType{SelfTy: f(t.SelfTy)}
}

// ModuleType is the type of a reference to a whole module.
type ModuleType struct {
	Name string
}

func (t *ModuleType) String() string             { return "module " + t.Name }
func (t *ModuleType) Hash() uint64               { return hashOf("module", hashString(t.Name)) }
func (t *ModuleType) children() iter.Seq[Type]   { return emptySeqType }
func (t *ModuleType) doMap(func(Type) Type) Type { return t }

type errorType struct{}

var errorTypeInstance Type = &errorType{}

// ErrorType is the silent poison type: it compares compatible with anything so
// that one failure does not cascade.
func ErrorType() Type { return errorTypeInstance }

func (t *errorType) String() string             { return "<error>" }
func (t *errorType) Hash() uint64               { return hashOf("error") }
func (t *errorType) children() iter.Seq[Type]   { return emptySeqType }
func (t *errorType) doMap(func(Type) Type) Type { return t }

func isErrorType(t Type) bool {
	return Equal(t, errorTypeInstance)
}

// containsTypeVar reports whether v occurs anywhere inside t.
func containsTypeVar(t Type, v *TypeVar) bool {
	if tv, ok := t.(*TypeVar); ok {
		return tv == v
	}
	for child := range t.children() {
		if containsTypeVar(child, v) {
			return true
		}
	}
	return false
}

// hasFreeTypeVars reports whether any type variable occurs inside t.
func hasFreeTypeVars(t Type) bool {
	if _, ok := t.(*TypeVar); ok {
		return true
	}
	for child := range t.children() {
		if hasFreeTypeVars(child) {
			return true
		}
	}
	return false
}

// collectTypeVars appends every type variable mentioned in t, in first-occurrence order.
func collectTypeVars(t Type, into []*TypeVar) []*TypeVar {
	if tv, ok := t.(*TypeVar); ok {
		for _, seen := range into {
			if seen == tv {
				return into
			}
		}
		return append(into, tv)
	}
	for child := range t.children() {
		into = collectTypeVars(child, into)
	}
	return into
}
