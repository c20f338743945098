// Package fault defines the error classes raised by the rules core.
//
// Player-facing failures are never errors: they are types.Validation values.
// What remains are content errors (a broken data file) and consistency
// errors (the validator and the applicator disagree about the world).
package fault

import (
	"errors"
	"fmt"
)

// Kind distinguishes error classes so callers can decide to halt or report.
type Kind int

const (
	KindUnknown Kind = iota
	KindContent
	KindConsistency
)

func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindConsistency:
		return "consistency"
	default:
		return "unknown"
	}
}

// ContentError reports broken content: a missing outcome tier, an unknown
// parameter type, a formula that does not evaluate.
type ContentError struct {
	ActionID string
	Msg      string
	Err      error
}

func (e *ContentError) Error() string {
	msg := e.Msg
	if e.ActionID != "" {
		msg = fmt.Sprintf("action %q: %s", e.ActionID, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("content error: %s: %v", msg, e.Err)
	}
	return "content error: " + msg
}

func (e *ContentError) Unwrap() error { return e.Err }

// ConsistencyError reports state that validation promised but application
// could not find.
type ConsistencyError struct {
	ActionID string
	Msg      string
}

func (e *ConsistencyError) Error() string {
	if e.ActionID != "" {
		return fmt.Sprintf("consistency error: action %q: %s", e.ActionID, e.Msg)
	}
	return "consistency error: " + e.Msg
}

// Contentf builds a ContentError for an action.
func Contentf(actionID, format string, args ...any) error {
	return &ContentError{ActionID: actionID, Msg: fmt.Sprintf(format, args...)}
}

// Consistencyf builds a ConsistencyError for an action.
func Consistencyf(actionID, format string, args ...any) error {
	return &ConsistencyError{ActionID: actionID, Msg: fmt.Sprintf(format, args...)}
}

// kinded is implemented by errors from other packages that belong to a class,
// such as the loader's aggregated validation error.
type kinded interface {
	FaultKind() Kind
}

// KindOf returns the class of err, searching the wrap chain.
func KindOf(err error) Kind {
	var ce *ContentError
	if errors.As(err, &ce) {
		return KindContent
	}
	var xe *ConsistencyError
	if errors.As(err, &xe) {
		return KindConsistency
	}
	var k kinded
	if errors.As(err, &k) {
		return k.FaultKind()
	}
	return KindUnknown
}
