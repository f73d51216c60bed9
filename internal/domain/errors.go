package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidConfig = errors.New("invalid config")
	ErrOutOfRange    = errors.New("out of range")
	ErrExecution     = errors.New("execution error")
)

// ErrorKind classifies failures for exit codes, HTTP status and UI messages.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindInvalidConfig ErrorKind = "invalid_config"
	KindExecution     ErrorKind = "execution"
)

// OpError attaches the failing operation ("atmtable.load"), a kind and an
// optional file path to an error.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if e.Path != "" {
		fmt.Fprintf(&b, " (path=%s)", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the kind of the outermost OpError in the chain, or "".
func KindOf(err error) ErrorKind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// ParamError names the parameter a value was rejected for.
type ParamError struct {
	Name  string
	Msg   string
	Cause error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("parameter %s: %s: %v", e.Name, e.Msg, e.Cause)
}

func (e *ParamError) Unwrap() error { return e.Cause }

// ParamName returns the rejected parameter in err's chain, or "".
func ParamName(err error) string {
	var pe *ParamError
	if errors.As(err, &pe) {
		return pe.Name
	}
	return ""
}

// InvalidParam builds the invalid_config error for a rejected parameter.
func InvalidParam(op, name, msg string) error {
	return &OpError{
		Op:   op,
		Kind: KindInvalidConfig,
		Err:  &ParamError{Name: name, Msg: msg, Cause: ErrInvalidConfig},
	}
}

// OutOfRange is InvalidParam for values outside a model's tabulated range.
func OutOfRange(op, name, msg string) error {
	return &OpError{
		Op:   op,
		Kind: KindInvalidConfig,
		Err:  &ParamError{Name: name, Msg: msg, Cause: ErrOutOfRange},
	}
}
