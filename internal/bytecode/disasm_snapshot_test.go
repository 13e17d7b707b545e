package bytecode_test

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/vellum-lang/vellum/internal/bytecode"
	"github.com/vellum-lang/vellum/internal/jsonast"
)

// TestDisassembleSnapshot pins the disassembler's textual output for a
// handful of representative programs, the same way the fixture suite
// this core is grounded on snapshots interpreter output: a change here
// either is an intentional format change (update the snapshot) or a
// compiler regression (catch it).
func TestDisassembleSnapshot(t *testing.T) {
	cases := map[string]string{
		"arithmetic": prog(consoleLog(`{"type":"BinaryExpression","operator":"+","left":` + numLit("2") + `,"right":` + numLit("3") + `}`)),
		"closure": prog(
			`{"type":"FunctionDeclaration","id":{"type":"Identifier","name":"makeCounter"},"params":[],"body":{"type":"BlockStatement","body":[
				{"type":"VariableDeclaration","kind":"let","declarations":[{"type":"VariableDeclarator","id":{"type":"Identifier","name":"n"},"init":` + numLit("0") + `}]},
				{"type":"ReturnStatement","argument":{"type":"ArrowFunctionExpression","params":[],"body":{"type":"BlockStatement","body":[
					{"type":"ReturnStatement","argument":{"type":"Identifier","name":"n"}}
				]}}}
			]}}`,
		),
		"try_catch": prog(
			`{"type":"TryStatement","block":{"type":"BlockStatement","body":[
				{"type":"ThrowStatement","argument":` + strLit("boom") + `}
			]},"handler":{"type":"CatchClause","param":{"type":"Identifier","name":"e"},"body":{"type":"BlockStatement","body":[` + consoleLog(ident("e")) + `]}}}`,
		),
	}

	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			program, err := jsonast.Decode([]byte(src))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			fn, err := bytecode.Compile(program)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			snaps.MatchSnapshot(t, bytecode.DisassembleToString(fn.Chunk))
		})
	}
}
