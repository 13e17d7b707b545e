package bytecode_test

import (
	"strings"
	"testing"

	"github.com/vellum-lang/vellum/internal/bytecode"
	"github.com/vellum-lang/vellum/internal/jsonast"
	"github.com/vellum-lang/vellum/internal/native"
)

func compileSrc(t *testing.T, src string) (*bytecode.FunctionObject, error) {
	t.Helper()
	program, err := jsonast.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return bytecode.Compile(program)
}

// TestThisOutsideMethodIsACompileError covers the isMethod gate: `this`
// is only meaningful inside a class method body.
func TestThisOutsideMethodIsACompileError(t *testing.T) {
	src := prog(consoleLog(namedMember(thisExpr(), "x")))
	_, err := compileSrc(t, src)
	if err == nil || !strings.Contains(err.Error(), "'this' used outside a method") {
		t.Fatalf("expected a this-outside-method error, got %v", err)
	}
}

// TestUnsupportedCompoundAssignmentOperator covers the baseOp map in
// compileAssignmentExpression: only +=, -=, *=, /=, %= are recognized.
func TestUnsupportedCompoundAssignmentOperator(t *testing.T) {
	src := prog(
		`{"type":"VariableDeclaration","kind":"let","declarations":[{"type":"VariableDeclarator","id":{"type":"Identifier","name":"x"},"init":{"type":"NumericLiteral","value":1}}]}`,
		exprStmt(`{"type":"AssignmentExpression","operator":"&=","left":{"type":"Identifier","name":"x"},"right":{"type":"NumericLiteral","value":2}}`),
	)
	_, err := compileSrc(t, src)
	if err == nil || !strings.Contains(err.Error(), "unsupported assignment operator") {
		t.Fatalf("expected an unsupported-operator error, got %v", err)
	}
}

// TestComputedMemberPropertyNeedNotBeIdentifier covers the other branch
// of the non-computed-vs-computed property distinction: a computed
// member access accepts any expression as its property.
func TestComputedMemberPropertyNeedNotBeIdentifier(t *testing.T) {
	src := prog(
		`{"type":"VariableDeclaration","kind":"let","declarations":[{"type":"VariableDeclarator","id":{"type":"Identifier","name":"arr"},"init":{"type":"ArrayExpression","elements":[`+numLit("1")+`,`+numLit("2")+`]}}]}`,
		consoleLog(`{"type":"MemberExpression","object":{"type":"Identifier","name":"arr"},"property":`+numLit("1")+`,"computed":true}`),
	)
	out, _ := runJSON(t, src)
	if strings.TrimSpace(out) != "2" {
		t.Fatalf("expected computed index access to read 2, got %q", out)
	}
}

// TestUndefinedVariableIsARuntimeError covers identifier resolution: an
// unresolved name compiles to a plain global lookup (no static global
// table exists to check against), so it only fails once GET_GLOBAL runs
// and finds nothing bound.
func TestUndefinedVariableIsARuntimeError(t *testing.T) {
	program, err := jsonast.Decode([]byte(prog(consoleLog(`{"type":"Identifier","name":"neverDeclared"}`))))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	fn, err := bytecode.Compile(program)
	if err != nil {
		t.Fatalf("expected this to compile (resolved as a global lookup), got error: %v", err)
	}
	vm := bytecode.NewVM()
	native.Bind(vm, newCapturingPlatform())
	result, _, err := vm.Interpret(fn)
	if result == bytecode.ResultOK {
		t.Fatal("expected referencing an undefined global to fail at runtime")
	}
	if err == nil || !strings.Contains(err.Error(), "undefined global") {
		t.Fatalf("expected an undefined-global runtime error, got %v", err)
	}
}
