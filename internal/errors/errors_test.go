package errors

import (
	"strings"
	"testing"

	"github.com/vellum-lang/vellum/internal/ast"
)

func TestCompileErrorFormat(t *testing.T) {
	err := NewCompileError(ast.Position{Line: 3, Column: 5}, "too many locals (%d)", 256)
	got := err.Format(false)
	if !strings.Contains(got, "line 3:5") {
		t.Fatalf("expected position in message, got %q", got)
	}
	if !strings.Contains(got, "too many locals (256)") {
		t.Fatalf("expected formatted message, got %q", got)
	}
}

func TestRuntimeErrorFormat(t *testing.T) {
	err := NewRuntimeError("outer", "stack overflow")
	got := err.Format(false)
	if !strings.Contains(got, "Runtime error in outer") {
		t.Fatalf("expected function name in message, got %q", got)
	}
}

func TestFormatErrorsJoinsMultiple(t *testing.T) {
	errs := FromStringErrors([]string{"a", "b"})
	got := FormatErrors(errs, false)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
}
