package vm

import (
	"fmt"

	"github.com/wudi/soc/values"
)

// thrownError is an alias for values.Thrown, the shared carrier both
// this package and package stdlib use to propagate a catchable
// Value::Error through Go's error-return plumbing.
// Keeping the local name lets the rest of this package read as if it
// owned the type, while stdlib's builtins construct the exact same
// concrete type via values.ThrowKind.
type thrownError = values.Thrown

func throwf(kind, format string, args ...interface{}) error {
	return values.ThrowKind(kind, fmt.Sprintf(format, args...))
}

// asThrown normalizes any error surfaced from a builtin or a nested
// frame into a catchable Value::Error: a *thrownError passes through
// unchanged (its original Value is preserved), anything else becomes a
// generic RuntimeError wrapping the Go error's message.
func asThrown(err error) *thrownError {
	if te, ok := err.(*thrownError); ok {
		return te
	}
	return &thrownError{Value: values.NewError("RuntimeError", err.Error())}
}

// Error kinds raised by the engine itself.
const (
	KindTypeError     = "TypeError"
	KindIndexError    = "IndexError"
	KindArityError    = "ArityError"
	KindNameError     = "NameError"
	KindRuntimeError  = "RuntimeError"
	KindImportError   = "ImportError"
	KindOverflowError = "OverflowError"
)
