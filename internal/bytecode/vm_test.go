package bytecode_test

import (
	"strings"
	"testing"

	"github.com/vellum-lang/vellum/internal/bytecode"
	"github.com/vellum-lang/vellum/internal/jsonast"
	"github.com/vellum-lang/vellum/internal/native"
)

// TestUnboundedRecursionHitsFrameCap covers NewVMWithLimits' frame bound:
// a function that always calls itself must eventually overflow rather
// than hang or crash the host process.
func TestUnboundedRecursionHitsFrameCap(t *testing.T) {
	src := prog(
		`{"type":"FunctionDeclaration","id":{"type":"Identifier","name":"loop"},"params":[],"body":{"type":"BlockStatement","body":[
			{"type":"ExpressionStatement","expression":`+call(ident("loop"))+`}
		]}}`,
		exprStmt(call(ident("loop"))),
	)

	program, err := jsonast.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	fn, err := bytecode.Compile(program)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	vm := bytecode.NewVMWithLimits(1<<16, 16)
	result, _, err := vm.Interpret(fn)
	if result == bytecode.ResultOK {
		t.Fatal("expected unbounded recursion to fail rather than succeed")
	}
	if err == nil || !strings.Contains(err.Error(), "Stack overflow") {
		t.Fatalf("expected a stack overflow error, got %v", err)
	}
}

// TestNewVMWithLimitsRejectsNonPositiveFallsBackToDefault covers the
// NewVMWithLimits guard clauses: a non-positive cap falls back to the
// package default rather than producing an unusable zero-capacity VM.
func TestNewVMWithLimitsRejectsNonPositiveFallsBackToDefault(t *testing.T) {
	vm := bytecode.NewVMWithLimits(0, 0)
	native.Bind(vm, newCapturingPlatform())
	src := prog(consoleLog(strLit("ok")))
	program, err := jsonast.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	fn, err := bytecode.Compile(program)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	result, _, err := vm.Interpret(fn)
	if result != bytecode.ResultOK {
		t.Fatalf("expected a zero-valued VM to still run with default limits, got error: %v", err)
	}
}
