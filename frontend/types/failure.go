package types

import "fmt"

type FailureKind int

const (
	FailureTypeMismatch FailureKind = iota
	FailureDoesNotConform
	FailureNoMember
	FailureNoBridge
	FailureInvalidCast
	FailureUnboundVariable
)

func (k FailureKind) String() string {
	switch k {
	case FailureTypeMismatch:
		return "type mismatch"
	case FailureDoesNotConform:
		return "does not conform"
	case FailureNoMember:
		return "no member"
	case FailureNoBridge:
		return "no foreign bridge"
	case FailureInvalidCast:
		return "invalid cast"
	case FailureUnboundVariable:
		return "unbound type variable"
	default:
		return "unknown"
	}
}

// Failure describes one irreconcilable relation. Failures are retained even
// when the search backtracks past them, so a diagnosis pass can explain why
// no solution exists.
type Failure struct {
	Kind    FailureKind
	First   Type
	Second  Type
	Locator *Locator
	Name    string
}

func (f *Failure) String() string {
	switch f.Kind {
	case FailureNoMember:
		return fmt.Sprintf("%s: %s has no member '%s'", f.Kind, f.First, f.Name)
	case FailureDoesNotConform:
		return fmt.Sprintf("%s: %s does not conform to %s", f.Kind, f.First, f.Second)
	default:
		if f.Second != nil {
			return fmt.Sprintf("%s: %s vs %s", f.Kind, f.First, f.Second)
		}
		return fmt.Sprintf("%s: %s", f.Kind, f.First)
	}
}

type FixKind int

const (
	// FixCoerceMismatch accepts a mismatched relational constraint as-is.
	FixCoerceMismatch FixKind = iota
	// FixForceOptional force-unwraps an optional to satisfy a conversion.
	FixForceOptional
)

// Fix is a recovery applied during search. Solutions carry their fixes so
// the caller can decide whether the result still counts as success.
type Fix struct {
	Kind    FixKind
	Locator *Locator
}
