package jsonast

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/vellum-lang/vellum/internal/ast"
)

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	if err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
}

func TestDecodeRejectsNonProgramRoot(t *testing.T) {
	_, err := Decode([]byte(`{"type":"ExpressionStatement"}`))
	if err == nil || !strings.Contains(err.Error(), "expected Program") {
		t.Fatalf("expected a Program-mismatch error, got %v", err)
	}
}

func TestDecodeEmptyProgram(t *testing.T) {
	prog, err := Decode([]byte(`{"type":"Program","body":[]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(prog.Body) != 0 {
		t.Fatalf("expected empty body, got %d statements", len(prog.Body))
	}
}

func TestDecodeVariableDeclarationWithInit(t *testing.T) {
	src := `{"type":"Program","body":[
		{"type":"VariableDeclaration","kind":"let","declarations":[
			{"type":"VariableDeclarator","id":{"type":"Identifier","name":"x"},"init":{"type":"NumericLiteral","value":42}}
		]}
	]}`
	prog, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(prog.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Body))
	}
	decl, ok := prog.Body[0].(*ast.VariableDeclaration)
	if !ok {
		t.Fatalf("expected *ast.VariableDeclaration, got %T", prog.Body[0])
	}
	if decl.Kind != "let" {
		t.Fatalf("expected kind 'let', got %q", decl.Kind)
	}
	num, ok := decl.Declarations[0].Init.(*ast.NumericLiteral)
	if !ok || num.Value != 42 {
		t.Fatalf("expected init 42, got %#v", decl.Declarations[0].Init)
	}
}

func TestDecodeGenericLiteralDiscriminatesByValueType(t *testing.T) {
	cases := []struct {
		name string
		json string
		want ast.Expression
	}{
		{"string", `{"type":"Literal","value":"hi"}`, &ast.StringLiteral{Value: "hi"}},
		{"true", `{"type":"Literal","value":true}`, &ast.BooleanLiteral{Value: true}},
		{"false", `{"type":"Literal","value":false}`, &ast.BooleanLiteral{Value: false}},
		{"null", `{"type":"Literal","value":null}`, &ast.NullLiteral{}},
		{"number", `{"type":"Literal","value":3.5}`, &ast.NumericLiteral{Value: 3.5}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			expr, err := decodeExpression(parseOne(t, c.json))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			switch want := c.want.(type) {
			case *ast.StringLiteral:
				got, ok := expr.(*ast.StringLiteral)
				if !ok || got.Value != want.Value {
					t.Fatalf("expected StringLiteral %q, got %#v", want.Value, expr)
				}
			case *ast.BooleanLiteral:
				got, ok := expr.(*ast.BooleanLiteral)
				if !ok || got.Value != want.Value {
					t.Fatalf("expected BooleanLiteral %v, got %#v", want.Value, expr)
				}
			case *ast.NullLiteral:
				if _, ok := expr.(*ast.NullLiteral); !ok {
					t.Fatalf("expected NullLiteral, got %#v", expr)
				}
			case *ast.NumericLiteral:
				got, ok := expr.(*ast.NumericLiteral)
				if !ok || got.Value != want.Value {
					t.Fatalf("expected NumericLiteral %v, got %#v", want.Value, expr)
				}
			}
		})
	}
}

func TestDecodeArrowFunctionExpressionBodySynthesizesReturn(t *testing.T) {
	src := `{"type":"ArrowFunctionExpression","params":[{"type":"Identifier","name":"x"}],"body":{"type":"BinaryExpression","operator":"+","left":{"type":"Identifier","name":"x"},"right":{"type":"NumericLiteral","value":1}}}`
	expr, err := decodeExpression(parseOne(t, src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	fn, ok := expr.(*ast.ArrowFunctionExpression)
	if !ok {
		t.Fatalf("expected *ast.ArrowFunctionExpression, got %T", expr)
	}
	if len(fn.Body.Body) != 1 {
		t.Fatalf("expected a single synthesized statement, got %d", len(fn.Body.Body))
	}
	ret, ok := fn.Body.Body[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("expected synthesized ReturnStatement, got %T", fn.Body.Body[0])
	}
	if ret.Argument == nil {
		t.Fatal("expected the arrow body expression to become the return argument")
	}
}

func TestDecodeObjectExpressionSplitsPropertiesAndMethods(t *testing.T) {
	src := `{"type":"ObjectExpression","properties":[
		{"type":"ObjectProperty","key":{"type":"Identifier","name":"a"},"value":{"type":"NumericLiteral","value":1}},
		{"type":"ObjectMethod","method":true,"key":{"type":"Identifier","name":"b"},"value":{"type":"FunctionExpression","params":[],"body":{"type":"BlockStatement","body":[]}}}
	]}`
	expr, err := decodeExpression(parseOne(t, src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	obj, ok := expr.(*ast.ObjectExpression)
	if !ok {
		t.Fatalf("expected *ast.ObjectExpression, got %T", expr)
	}
	if len(obj.Properties) != 1 || len(obj.Methods) != 1 {
		t.Fatalf("expected 1 property and 1 method, got %d/%d", len(obj.Properties), len(obj.Methods))
	}
}

func TestDecodeUnknownStatementType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"Program","body":[{"type":"DebuggerStatement"}]}`))
	if err == nil || !strings.Contains(err.Error(), "unknown statement type") {
		t.Fatalf("expected unknown statement type error, got %v", err)
	}
}

func TestDecodeDestructuringParams(t *testing.T) {
	src := `{"type":"Program","body":[
		{"type":"FunctionDeclaration","id":{"type":"Identifier","name":"f"},"params":[
			{"type":"ObjectPattern","properties":[
				{"type":"ObjectPatternProperty","key":{"type":"Identifier","name":"x"},"value":{"type":"Identifier","name":"x"}}
			]}
		],"body":{"type":"BlockStatement","body":[]}}
	]}`
	prog, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	fn, ok := prog.Body[0].(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("expected *ast.FunctionDeclaration, got %T", prog.Body[0])
	}
	if _, ok := fn.Params[0].(*ast.ObjectPattern); !ok {
		t.Fatalf("expected *ast.ObjectPattern param, got %T", fn.Params[0])
	}
}

// parseOne is a small helper for tests exercising decodeExpression
// directly rather than through a full Program.
func parseOne(t *testing.T, js string) gjson.Result {
	t.Helper()
	if !gjson.Valid(js) {
		t.Fatalf("invalid JSON fixture: %s", js)
	}
	return gjson.Parse(js)
}
