package compiler

import "fmt"

// CompileError reports a problem found while lowering the AST, carrying
// the source line so a driver can point the user at the offending code.
type CompileError struct {
	Line int
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error (line %d): %s", e.Line, e.Msg)
}
