package bytecode_test

import (
	"strings"
	"testing"
)

// TestGeneratorYieldsThenCompletes covers the generator scenario: a
// generator function suspends at each `yield` and its `next()` results
// follow the {value, done} iterator protocol, finishing with done=true
// once the body returns.
func TestGeneratorYieldsThenCompletes(t *testing.T) {
	genDecl := `{"type":"FunctionDeclaration","generator":true,"id":{"type":"Identifier","name":"range2"},"params":[],"body":{"type":"BlockStatement","body":[
		{"type":"ExpressionStatement","expression":{"type":"YieldExpression","argument":` + numLit("1") + `}},
		{"type":"ExpressionStatement","expression":{"type":"YieldExpression","argument":` + numLit("2") + `}},
		{"type":"ReturnStatement","argument":` + strLit("finished") + `}
	]}}`

	logStep := func(callExpr string) string {
		return consoleLog(
			namedMember(callExpr, "value"),
			namedMember(callExpr, "done"),
		)
	}

	src := prog(
		genDecl,
		`{"type":"VariableDeclaration","kind":"const","declarations":[{"type":"VariableDeclarator","id":{"type":"Identifier","name":"g"},"init":`+call(ident("range2"))+`}]}`,
		logStep(call(namedMember(ident("g"), "next"))),
		logStep(call(namedMember(ident("g"), "next"))),
		logStep(call(namedMember(ident("g"), "next"))),
	)

	out, _ := runJSON(t, src)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"1 false", "2 false", "finished true"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("step %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}
