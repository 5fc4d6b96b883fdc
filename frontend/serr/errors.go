package serr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cottand/sable/frontend/ast"
)

// enableDebugErrorPrinting makes errors include their stacktrace when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	TypeMismatch
	NoViableOverload
	AmbiguousReference
	UnknownMember
	TooComplex
	ConformanceMissing
)

type SableError interface {
	Error() string
	Code() ErrCode
	ast.Positioner

	withStack([]byte) SableError
	getStack() []byte
}

func FormatWithCode(e SableError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E SableError](err E) SableError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	ast.Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) SableError {
	e.stack = stack
	return e
}

type NewTypeMismatch struct {
	ast.Positioner
	First  string
	Second string
	Reason string
	stack  []byte
}

func (e NewTypeMismatch) Error() string {
	msg := fmt.Sprintf("type mismatch: '%s' is not compatible with '%s'", e.First, e.Second)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
func (e NewTypeMismatch) Code() ErrCode    { return TypeMismatch }
func (e NewTypeMismatch) getStack() []byte { return e.stack }
func (e NewTypeMismatch) withStack(stack []byte) SableError {
	e.stack = stack
	return e
}

type NewNoViableOverload struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewNoViableOverload) Error() string {
	return fmt.Sprintf("no overload of '%s' matches the given arguments", e.Name)
}
func (e NewNoViableOverload) Code() ErrCode    { return NoViableOverload }
func (e NewNoViableOverload) getStack() []byte { return e.stack }
func (e NewNoViableOverload) withStack(stack []byte) SableError {
	e.stack = stack
	return e
}

type NewAmbiguousReference struct {
	ast.Positioner
	Name      string
	Solutions int
	stack     []byte
}

func (e NewAmbiguousReference) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("ambiguous expression: %d equally valid typings survive", e.Solutions)
	}
	return fmt.Sprintf("ambiguous use of '%s': %d equally valid typings survive", e.Name, e.Solutions)
}
func (e NewAmbiguousReference) Code() ErrCode    { return AmbiguousReference }
func (e NewAmbiguousReference) getStack() []byte { return e.stack }
func (e NewAmbiguousReference) withStack(stack []byte) SableError {
	e.stack = stack
	return e
}

type NewUnknownMember struct {
	ast.Positioner
	Base  string
	Name  string
	stack []byte
}

func (e NewUnknownMember) Error() string {
	return fmt.Sprintf("type '%s' has no member '%s'", e.Base, e.Name)
}
func (e NewUnknownMember) Code() ErrCode    { return UnknownMember }
func (e NewUnknownMember) getStack() []byte { return e.stack }
func (e NewUnknownMember) withStack(stack []byte) SableError {
	e.stack = stack
	return e
}

type NewTooComplex struct {
	ast.Positioner
	Steps int
	stack []byte
}

func (e NewTooComplex) Error() string {
	return fmt.Sprintf("expression too complex: gave up after %d solver steps", e.Steps)
}
func (e NewTooComplex) Code() ErrCode    { return TooComplex }
func (e NewTooComplex) getStack() []byte { return e.stack }
func (e NewTooComplex) withStack(stack []byte) SableError {
	e.stack = stack
	return e
}

type NewConformanceMissing struct {
	ast.Positioner
	Type     string
	Protocol string
	stack    []byte
}

func (e NewConformanceMissing) Error() string {
	return fmt.Sprintf("type '%s' does not conform to protocol '%s'", e.Type, e.Protocol)
}
func (e NewConformanceMissing) Code() ErrCode    { return ConformanceMissing }
func (e NewConformanceMissing) getStack() []byte { return e.stack }
func (e NewConformanceMissing) withStack(stack []byte) SableError {
	e.stack = stack
	return e
}
