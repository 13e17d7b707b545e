// Package errors formats compile-time and runtime errors for the bytecode
// core with source-position context, adapted from the teacher's
// errors/internal-errors split (compiler errors there carry a lexer
// position and a pretty caret-annotated render).
package errors

import (
	"fmt"
	"strings"

	"github.com/vellum-lang/vellum/internal/ast"
)

// Kind distinguishes compile-time from runtime errors per spec.md §7's
// error taxonomy.
type Kind int

const (
	KindCompile Kind = iota
	KindRuntime
)

func (k Kind) String() string {
	if k == KindRuntime {
		return "RuntimeError"
	}
	return "CompileError"
}

// CoreError is a single reported problem with optional source position.
type CoreError struct {
	Message  string
	Function string // active function name, for runtime errors (spec.md §6)
	Kind     Kind
	Pos      ast.Position
	HasPos   bool
}

// NewCompileError builds a compile-time error anchored at pos.
func NewCompileError(pos ast.Position, format string, args ...any) *CoreError {
	return &CoreError{
		Message: fmt.Sprintf(format, args...),
		Kind:    KindCompile,
		Pos:     pos,
		HasPos:  pos.Line > 0,
	}
}

// NewRuntimeError builds a runtime error, optionally naming the active
// function (spec.md §6: "Runtime errors are written ... with the active
// function name").
func NewRuntimeError(function string, format string, args ...any) *CoreError {
	return &CoreError{
		Message:  fmt.Sprintf(format, args...),
		Kind:     KindRuntime,
		Function: function,
	}
}

// Error implements the error interface.
func (e *CoreError) Error() string {
	return e.Format(false)
}

// Format renders the error with source-position context and, when color
// is true, ANSI highlighting — mirroring the teacher's CompilerError.Format.
func (e *CoreError) Format(color bool) string {
	var sb strings.Builder

	switch e.Kind {
	case KindRuntime:
		if e.Function != "" {
			sb.WriteString(fmt.Sprintf("Runtime error in %s: ", e.Function))
		} else {
			sb.WriteString("Runtime error: ")
		}
	default:
		if e.HasPos {
			sb.WriteString(fmt.Sprintf("Compile error at line %d:%d: ", e.Pos.Line, e.Pos.Column))
		} else {
			sb.WriteString("Compile error: ")
		}
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

// FromStringErrors wraps plain messages (e.g. collected by a caller that
// does not have positions) into CoreErrors, matching the teacher's
// FromStringErrors compatibility helper.
func FromStringErrors(messages []string) []*CoreError {
	out := make([]*CoreError, 0, len(messages))
	for _, m := range messages {
		out = append(out, &CoreError{Message: m, Kind: KindCompile})
	}
	return out
}

// FormatErrors renders a batch of errors, one per line, optionally in
// color, matching the teacher's FormatErrors helper used by the CLI.
func FormatErrors(errs []*CoreError, color bool) string {
	var sb strings.Builder
	for i, e := range errs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.Format(color))
	}
	return sb.String()
}
