// Package failure classifies errors raised while building a blueprint so the
// transport layer can tell client mistakes apart from upstream outages.
package failure

import (
	"errors"
	"fmt"
)

// Kind is a coarse-grained categorization for errors.
type Kind string

const (
	KindValidation Kind = "validation"
	KindParse      Kind = "parse"
	KindProvider   Kind = "provider"
	KindRender     Kind = "render"
	KindTransport  Kind = "transport"
	KindInternal   Kind = "internal"
)

// Sentinel errors, one per kind, usable with errors.Is.
var (
	ErrValidation = errors.New("invalid input")
	ErrParse      = errors.New("parse failed")
	ErrProvider   = errors.New("astrology provider failed")
	ErrRender     = errors.New("report rendering failed")
	ErrTransport  = errors.New("email transport failed")
	ErrInternal   = errors.New("internal error")
)

var sentinels = map[Kind]error{
	KindValidation: ErrValidation,
	KindParse:      ErrParse,
	KindProvider:   ErrProvider,
	KindRender:     ErrRender,
	KindTransport:  ErrTransport,
	KindInternal:   ErrInternal,
}

// Error wraps an underlying error with operation context and a kind.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	return sentinels[e.Kind] == target
}

// New returns an error of the given kind carrying msg.
func New(op string, kind Kind, msg string) error {
	return &Error{Op: op, Kind: kind, Err: errors.New(msg)}
}

// Wrap tags err with op and kind. A nil err stays nil.
func Wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Default tags err with kind only when nothing in its chain carries a kind
// yet. Already classified errors pass through unchanged.
func Default(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Op: op, Kind: kind, Err: err}
}
