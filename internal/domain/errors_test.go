package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestOpErrorWrapUnwrap(t *testing.T) {
	root := errors.New("root")
	err := &OpError{
		Op:   "atmtable.load",
		Kind: KindNotFound,
		Path: "data/atm.csv",
		Err:  root,
	}

	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is to match cause")
	}

	var got *OpError
	if !errors.As(err, &got) {
		t.Fatalf("expected errors.As to match OpError")
	}
	if got.Kind != KindNotFound {
		t.Fatalf("expected kind %s", KindNotFound)
	}
	if !strings.Contains(err.Error(), "path=data/atm.csv") {
		t.Fatalf("expected path in message, got %q", err.Error())
	}
}

func TestIsKind(t *testing.T) {
	err := InvalidParam("paramset.set", "pwv", "must be >= 0")

	if !IsKind(err, KindInvalidConfig) {
		t.Fatalf("expected IsKind to match invalid config")
	}
	if IsKind(err, KindNotFound) {
		t.Fatalf("did not expect not_found")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected sentinel in chain")
	}
	if IsKind(errors.New("plain"), KindInvalidConfig) {
		t.Fatalf("plain errors have no kind")
	}
}

func TestNilOpError(t *testing.T) {
	var e *OpError
	if e.Error() != "<nil>" {
		t.Fatalf("unexpected nil message %q", e.Error())
	}
	if e.Unwrap() != nil {
		t.Fatalf("expected nil unwrap")
	}
}

func TestParamErrors(t *testing.T) {
	err := fmt.Errorf("channel 3: %w", OutOfRange("atmtable.transmission", "pwv", "above 5"))

	if got := ParamName(err); got != "pwv" {
		t.Fatalf("ParamName = %q", got)
	}
	if KindOf(err) != KindInvalidConfig {
		t.Fatalf("KindOf = %q", KindOf(err))
	}
	if !errors.Is(err, ErrOutOfRange) || errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("unexpected sentinel chain: %v", err)
	}
	if !strings.Contains(err.Error(), "parameter pwv: above 5: out of range") {
		t.Fatalf("unexpected message %q", err.Error())
	}

	if ParamName(errors.New("plain")) != "" || KindOf(nil) != "" {
		t.Fatalf("plain errors carry no parameter or kind")
	}
}
