// Package jsonast decodes a JSON-encoded ESTree AST into internal/ast
// nodes. A real parser is an external collaborator to this core (spec.md
// §1 Non-goals); the CLI and test harness hand it a JSON tree instead, and
// this package is the boundary that turns that JSON into the node shapes
// internal/bytecode compiles from. Traversal uses gjson rather than
// encoding/json + a parallel tree of intermediate structs, so decoding one
// node never pays for unmarshaling its still-unvisited children.
package jsonast

import (
	"github.com/tidwall/gjson"

	"github.com/vellum-lang/vellum/internal/ast"
	corerr "github.com/vellum-lang/vellum/internal/errors"
)

// Decode parses a JSON ESTree Program node into an *ast.Program.
func Decode(data []byte) (*ast.Program, error) {
	if !gjson.ValidBytes(data) {
		return nil, corerr.NewCompileError(ast.Position{}, "jsonast: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	return decodeProgram(root)
}

func decodePos(n gjson.Result) ast.Position {
	start := n.Get("loc.start")
	if !start.Exists() {
		return ast.Position{}
	}
	return ast.Position{
		Line:   int(start.Get("line").Int()),
		Column: int(start.Get("column").Int()),
	}
}

func nodeType(n gjson.Result) string {
	return n.Get("type").String()
}

func decodeProgram(n gjson.Result) (*ast.Program, error) {
	if got := nodeType(n); got != "Program" {
		return nil, corerr.NewCompileError(decodePos(n), "jsonast: expected Program, got %q", got)
	}
	body, err := decodeStatements(n.Get("body"))
	if err != nil {
		return nil, err
	}
	p := &ast.Program{Body: body}
	p.Position = decodePos(n)
	return p, nil
}

func decodeStatements(arr gjson.Result) ([]ast.Statement, error) {
	var out []ast.Statement
	var err error
	arr.ForEach(func(_, v gjson.Result) bool {
		var s ast.Statement
		s, err = decodeStatement(v)
		if err != nil {
			return false
		}
		out = append(out, s)
		return true
	})
	return out, err
}

func decodeExpressions(arr gjson.Result) ([]ast.Expression, error) {
	var out []ast.Expression
	var err error
	arr.ForEach(func(_, v gjson.Result) bool {
		var e ast.Expression
		e, err = decodeExpression(v)
		if err != nil {
			return false
		}
		out = append(out, e)
		return true
	})
	return out, err
}

func decodePatterns(arr gjson.Result) ([]ast.Pattern, error) {
	var out []ast.Pattern
	var err error
	arr.ForEach(func(_, v gjson.Result) bool {
		var p ast.Pattern
		p, err = decodePattern(v)
		if err != nil {
			return false
		}
		out = append(out, p)
		return true
	})
	return out, err
}

// decodeStatement dispatches on the ESTree "type" discriminator.
func decodeStatement(n gjson.Result) (ast.Statement, error) {
	switch t := nodeType(n); t {
	case "VariableDeclaration":
		return decodeVariableDeclaration(n)
	case "FunctionDeclaration":
		return decodeFunctionDeclaration(n)
	case "ClassDeclaration":
		return decodeClassDeclaration(n)
	case "BlockStatement":
		return decodeBlockStatement(n)
	case "ExpressionStatement":
		expr, err := decodeExpression(n.Get("expression"))
		if err != nil {
			return nil, err
		}
		s := &ast.ExpressionStatement{Expression: expr}
		s.Position = decodePos(n)
		return s, nil
	case "IfStatement":
		return decodeIfStatement(n)
	case "WhileStatement":
		return decodeWhileStatement(n)
	case "ForStatement":
		return decodeForStatement(n)
	case "BreakStatement":
		s := &ast.BreakStatement{}
		s.Position = decodePos(n)
		return s, nil
	case "ContinueStatement":
		s := &ast.ContinueStatement{}
		s.Position = decodePos(n)
		return s, nil
	case "ReturnStatement":
		return decodeReturnStatement(n)
	case "ThrowStatement":
		arg, err := decodeExpression(n.Get("argument"))
		if err != nil {
			return nil, err
		}
		s := &ast.ThrowStatement{Argument: arg}
		s.Position = decodePos(n)
		return s, nil
	case "TryStatement":
		return decodeTryStatement(n)
	default:
		return nil, corerr.NewCompileError(decodePos(n), "jsonast: unknown statement type %q", t)
	}
}

func decodeVariableDeclaration(n gjson.Result) (*ast.VariableDeclaration, error) {
	decls := n.Get("declarations")
	out := make([]*ast.VariableDeclarator, 0)
	var err error
	decls.ForEach(func(_, v gjson.Result) bool {
		var id ast.Pattern
		id, err = decodePattern(v.Get("id"))
		if err != nil {
			return false
		}
		var init ast.Expression
		if initN := v.Get("init"); initN.Exists() && initN.Type != gjson.Null {
			init, err = decodeExpression(initN)
			if err != nil {
				return false
			}
		}
		d := &ast.VariableDeclarator{ID: id, Init: init}
		d.Position = decodePos(v)
		out = append(out, d)
		return true
	})
	if err != nil {
		return nil, err
	}
	decl := &ast.VariableDeclaration{
		Kind:         n.Get("kind").String(),
		Declarations: out,
	}
	decl.Position = decodePos(n)
	return decl, nil
}

func decodeFunctionDeclaration(n gjson.Result) (*ast.FunctionDeclaration, error) {
	params, err := decodePatterns(n.Get("params"))
	if err != nil {
		return nil, err
	}
	body, err := decodeBlockStatement(n.Get("body"))
	if err != nil {
		return nil, err
	}
	name := n.Get("id.name").String()
	fd := &ast.FunctionDeclaration{
		Name:      name,
		Params:    params,
		Body:      body,
		Generator: n.Get("generator").Bool(),
		Async:     n.Get("async").Bool(),
	}
	fd.Position = decodePos(n)
	return fd, nil
}

func decodeClassDeclaration(n gjson.Result) (*ast.ClassDeclaration, error) {
	name := n.Get("id.name").String()
	var methods []*ast.MethodDefinition
	var err error
	n.Get("body.body").ForEach(func(_, m gjson.Result) bool {
		var md *ast.MethodDefinition
		md, err = decodeMethodDefinition(m)
		if err != nil {
			return false
		}
		methods = append(methods, md)
		return true
	})
	if err != nil {
		return nil, err
	}
	cd := &ast.ClassDeclaration{Name: name, Methods: methods}
	cd.Position = decodePos(n)
	return cd, nil
}

func decodeMethodDefinition(n gjson.Result) (*ast.MethodDefinition, error) {
	value := n.Get("value")
	params, err := decodePatterns(value.Get("params"))
	if err != nil {
		return nil, err
	}
	body, err := decodeBlockStatement(value.Get("body"))
	if err != nil {
		return nil, err
	}
	kind := n.Get("kind").String()
	if kind == "" {
		kind = "method"
	}
	md := &ast.MethodDefinition{
		Name:      n.Get("key.name").String(),
		Params:    params,
		Body:      body,
		Kind:      kind,
		Generator: value.Get("generator").Bool(),
		Async:     value.Get("async").Bool(),
	}
	md.Position = decodePos(n)
	return md, nil
}

func decodeBlockStatement(n gjson.Result) (*ast.BlockStatement, error) {
	body, err := decodeStatements(n.Get("body"))
	if err != nil {
		return nil, err
	}
	b := &ast.BlockStatement{Body: body}
	b.Position = decodePos(n)
	return b, nil
}

func decodeIfStatement(n gjson.Result) (*ast.IfStatement, error) {
	test, err := decodeExpression(n.Get("test"))
	if err != nil {
		return nil, err
	}
	cons, err := decodeStatement(n.Get("consequent"))
	if err != nil {
		return nil, err
	}
	var alt ast.Statement
	if altN := n.Get("alternate"); altN.Exists() && altN.Type != gjson.Null {
		alt, err = decodeStatement(altN)
		if err != nil {
			return nil, err
		}
	}
	s := &ast.IfStatement{Test: test, Consequent: cons, Alternate: alt}
	s.Position = decodePos(n)
	return s, nil
}

func decodeWhileStatement(n gjson.Result) (*ast.WhileStatement, error) {
	test, err := decodeExpression(n.Get("test"))
	if err != nil {
		return nil, err
	}
	body, err := decodeStatement(n.Get("body"))
	if err != nil {
		return nil, err
	}
	s := &ast.WhileStatement{Test: test, Body: body}
	s.Position = decodePos(n)
	return s, nil
}

func decodeForStatement(n gjson.Result) (*ast.ForStatement, error) {
	var init ast.Node
	var err error
	if initN := n.Get("init"); initN.Exists() && initN.Type != gjson.Null {
		if nodeType(initN) == "VariableDeclaration" {
			init, err = decodeVariableDeclaration(initN)
		} else {
			init, err = decodeExpression(initN)
		}
		if err != nil {
			return nil, err
		}
	}
	var test ast.Expression
	if testN := n.Get("test"); testN.Exists() && testN.Type != gjson.Null {
		test, err = decodeExpression(testN)
		if err != nil {
			return nil, err
		}
	}
	var update ast.Expression
	if updN := n.Get("update"); updN.Exists() && updN.Type != gjson.Null {
		update, err = decodeExpression(updN)
		if err != nil {
			return nil, err
		}
	}
	body, err := decodeStatement(n.Get("body"))
	if err != nil {
		return nil, err
	}
	s := &ast.ForStatement{Init: init, Test: test, Update: update, Body: body}
	s.Position = decodePos(n)
	return s, nil
}

func decodeReturnStatement(n gjson.Result) (*ast.ReturnStatement, error) {
	var arg ast.Expression
	if argN := n.Get("argument"); argN.Exists() && argN.Type != gjson.Null {
		var err error
		arg, err = decodeExpression(argN)
		if err != nil {
			return nil, err
		}
	}
	s := &ast.ReturnStatement{Argument: arg}
	s.Position = decodePos(n)
	return s, nil
}

func decodeTryStatement(n gjson.Result) (*ast.TryStatement, error) {
	block, err := decodeBlockStatement(n.Get("block"))
	if err != nil {
		return nil, err
	}
	var handler *ast.CatchClause
	if h := n.Get("handler"); h.Exists() && h.Type != gjson.Null {
		var param ast.Pattern
		if p := h.Get("param"); p.Exists() && p.Type != gjson.Null {
			param, err = decodePattern(p)
			if err != nil {
				return nil, err
			}
		}
		body, err := decodeBlockStatement(h.Get("body"))
		if err != nil {
			return nil, err
		}
		handler = &ast.CatchClause{Param: param, Body: body}
		handler.Position = decodePos(h)
	}
	s := &ast.TryStatement{Block: block, Handler: handler}
	s.Position = decodePos(n)
	return s, nil
}

// decodeExpression dispatches on the ESTree "type" discriminator.
func decodeExpression(n gjson.Result) (ast.Expression, error) {
	switch t := nodeType(n); t {
	case "Identifier":
		id := &ast.Identifier{Name: n.Get("name").String()}
		id.Position = decodePos(n)
		return id, nil
	case "NumericLiteral", "Literal":
		if t == "Literal" && n.Get("value").Type == gjson.String {
			s := &ast.StringLiteral{Value: n.Get("value").String()}
			s.Position = decodePos(n)
			return s, nil
		}
		if t == "Literal" && (n.Get("value").Type == gjson.True || n.Get("value").Type == gjson.False) {
			b := &ast.BooleanLiteral{Value: n.Get("value").Bool()}
			b.Position = decodePos(n)
			return b, nil
		}
		if t == "Literal" && n.Get("value").Type == gjson.Null {
			nl := &ast.NullLiteral{}
			nl.Position = decodePos(n)
			return nl, nil
		}
		num := &ast.NumericLiteral{Value: n.Get("value").Float()}
		num.Position = decodePos(n)
		return num, nil
	case "StringLiteral":
		s := &ast.StringLiteral{Value: n.Get("value").String()}
		s.Position = decodePos(n)
		return s, nil
	case "BooleanLiteral":
		b := &ast.BooleanLiteral{Value: n.Get("value").Bool()}
		b.Position = decodePos(n)
		return b, nil
	case "NullLiteral":
		nl := &ast.NullLiteral{}
		nl.Position = decodePos(n)
		return nl, nil
	case "ThisExpression":
		th := &ast.ThisExpression{}
		th.Position = decodePos(n)
		return th, nil
	case "TemplateLiteral":
		return decodeTemplateLiteral(n)
	case "BinaryExpression":
		left, err := decodeExpression(n.Get("left"))
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(n.Get("right"))
		if err != nil {
			return nil, err
		}
		e := &ast.BinaryExpression{Operator: n.Get("operator").String(), Left: left, Right: right}
		e.Position = decodePos(n)
		return e, nil
	case "LogicalExpression":
		left, err := decodeExpression(n.Get("left"))
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(n.Get("right"))
		if err != nil {
			return nil, err
		}
		e := &ast.LogicalExpression{Operator: n.Get("operator").String(), Left: left, Right: right}
		e.Position = decodePos(n)
		return e, nil
	case "UnaryExpression":
		arg, err := decodeExpression(n.Get("argument"))
		if err != nil {
			return nil, err
		}
		e := &ast.UnaryExpression{Operator: n.Get("operator").String(), Argument: arg}
		e.Position = decodePos(n)
		return e, nil
	case "UpdateExpression":
		arg, err := decodeExpression(n.Get("argument"))
		if err != nil {
			return nil, err
		}
		e := &ast.UpdateExpression{
			Operator: n.Get("operator").String(),
			Argument: arg,
			Prefix:   n.Get("prefix").Bool(),
		}
		e.Position = decodePos(n)
		return e, nil
	case "AssignmentExpression":
		left, err := decodeExpression(n.Get("left"))
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(n.Get("right"))
		if err != nil {
			return nil, err
		}
		e := &ast.AssignmentExpression{Operator: n.Get("operator").String(), Left: left, Right: right}
		e.Position = decodePos(n)
		return e, nil
	case "CallExpression":
		callee, err := decodeExpression(n.Get("callee"))
		if err != nil {
			return nil, err
		}
		args, err := decodeExpressions(n.Get("arguments"))
		if err != nil {
			return nil, err
		}
		e := &ast.CallExpression{Callee: callee, Arguments: args}
		e.Position = decodePos(n)
		return e, nil
	case "NewExpression":
		callee, err := decodeExpression(n.Get("callee"))
		if err != nil {
			return nil, err
		}
		args, err := decodeExpressions(n.Get("arguments"))
		if err != nil {
			return nil, err
		}
		e := &ast.NewExpression{Callee: callee, Arguments: args}
		e.Position = decodePos(n)
		return e, nil
	case "MemberExpression":
		obj, err := decodeExpression(n.Get("object"))
		if err != nil {
			return nil, err
		}
		prop, err := decodeExpression(n.Get("property"))
		if err != nil {
			return nil, err
		}
		e := &ast.MemberExpression{Object: obj, Property: prop, Computed: n.Get("computed").Bool()}
		e.Position = decodePos(n)
		return e, nil
	case "ArrayExpression":
		elems, err := decodeExpressions(n.Get("elements"))
		if err != nil {
			return nil, err
		}
		e := &ast.ArrayExpression{Elements: elems}
		e.Position = decodePos(n)
		return e, nil
	case "ObjectExpression":
		return decodeObjectExpression(n)
	case "FunctionExpression":
		return decodeFunctionExpression(n)
	case "ArrowFunctionExpression":
		return decodeArrowFunctionExpression(n)
	case "AwaitExpression":
		arg, err := decodeExpression(n.Get("argument"))
		if err != nil {
			return nil, err
		}
		e := &ast.AwaitExpression{Argument: arg}
		e.Position = decodePos(n)
		return e, nil
	case "YieldExpression":
		var arg ast.Expression
		if argN := n.Get("argument"); argN.Exists() && argN.Type != gjson.Null {
			var err error
			arg, err = decodeExpression(argN)
			if err != nil {
				return nil, err
			}
		}
		e := &ast.YieldExpression{Argument: arg}
		e.Position = decodePos(n)
		return e, nil
	default:
		return nil, corerr.NewCompileError(decodePos(n), "jsonast: unknown expression type %q", t)
	}
}

func decodeTemplateLiteral(n gjson.Result) (*ast.TemplateLiteral, error) {
	var quasis []*ast.TemplateElement
	n.Get("quasis").ForEach(func(_, v gjson.Result) bool {
		raw := v.Get("value.raw")
		if !raw.Exists() {
			raw = v.Get("value.cooked")
		}
		te := &ast.TemplateElement{Raw: raw.String(), Tail: v.Get("tail").Bool()}
		te.Position = decodePos(v)
		quasis = append(quasis, te)
		return true
	})
	exprs, err := decodeExpressions(n.Get("expressions"))
	if err != nil {
		return nil, err
	}
	e := &ast.TemplateLiteral{Quasis: quasis, Expressions: exprs}
	e.Position = decodePos(n)
	return e, nil
}

func decodeObjectExpression(n gjson.Result) (*ast.ObjectExpression, error) {
	var props []*ast.ObjectProperty
	var methods []*ast.ObjectMethod
	var err error
	n.Get("properties").ForEach(func(_, v gjson.Result) bool {
		key, kerr := decodeExpression(v.Get("key"))
		if kerr != nil {
			err = kerr
			return false
		}
		kind := v.Get("kind").String()
		isMethod := v.Get("method").Bool() || kind == "method" || kind == "get" || kind == "set"
		if isMethod {
			fn, ferr := decodeFunctionExpression(v.Get("value"))
			if ferr != nil {
				err = ferr
				return false
			}
			m := &ast.ObjectMethod{Key: key, Value: fn}
			m.Position = decodePos(v)
			methods = append(methods, m)
			return true
		}
		val, verr := decodeExpression(v.Get("value"))
		if verr != nil {
			err = verr
			return false
		}
		p := &ast.ObjectProperty{Key: key, Value: val, Computed: v.Get("computed").Bool()}
		p.Position = decodePos(v)
		props = append(props, p)
		return true
	})
	if err != nil {
		return nil, err
	}
	e := &ast.ObjectExpression{Properties: props, Methods: methods}
	e.Position = decodePos(n)
	return e, nil
}

func decodeFunctionExpression(n gjson.Result) (*ast.FunctionExpression, error) {
	params, err := decodePatterns(n.Get("params"))
	if err != nil {
		return nil, err
	}
	body, err := decodeBlockStatement(n.Get("body"))
	if err != nil {
		return nil, err
	}
	fn := &ast.FunctionExpression{
		Name:      n.Get("id.name").String(),
		Params:    params,
		Body:      body,
		Generator: n.Get("generator").Bool(),
		Async:     n.Get("async").Bool(),
	}
	fn.Position = decodePos(n)
	return fn, nil
}

func decodeArrowFunctionExpression(n gjson.Result) (*ast.ArrowFunctionExpression, error) {
	params, err := decodePatterns(n.Get("params"))
	if err != nil {
		return nil, err
	}
	bodyN := n.Get("body")
	var body *ast.BlockStatement
	if nodeType(bodyN) == "BlockStatement" {
		body, err = decodeBlockStatement(bodyN)
		if err != nil {
			return nil, err
		}
	} else {
		// Expression-bodied arrow: `x => x + 1` desugars to an implicit
		// single-statement return, matching a block-bodied arrow's shape.
		expr, eerr := decodeExpression(bodyN)
		if eerr != nil {
			return nil, eerr
		}
		ret := &ast.ReturnStatement{Argument: expr}
		ret.Position = decodePos(bodyN)
		body = &ast.BlockStatement{Body: []ast.Statement{ret}}
		body.Position = decodePos(bodyN)
	}
	fn := &ast.ArrowFunctionExpression{Params: params, Body: body, Async: n.Get("async").Bool()}
	fn.Position = decodePos(n)
	return fn, nil
}

// decodePattern dispatches a binding target: Identifier, ArrayPattern, or
// ObjectPattern (spec.md's destructuring support).
func decodePattern(n gjson.Result) (ast.Pattern, error) {
	switch t := nodeType(n); t {
	case "Identifier":
		id := &ast.Identifier{Name: n.Get("name").String()}
		id.Position = decodePos(n)
		return id, nil
	case "ArrayPattern":
		elems, err := decodePatterns(n.Get("elements"))
		if err != nil {
			return nil, err
		}
		p := &ast.ArrayPattern{Elements: elems}
		p.Position = decodePos(n)
		return p, nil
	case "ObjectPattern":
		var props []*ast.ObjectPatternProperty
		var err error
		n.Get("properties").ForEach(func(_, v gjson.Result) bool {
			var val ast.Pattern
			val, err = decodePattern(v.Get("value"))
			if err != nil {
				return false
			}
			key := v.Get("key.name").String()
			if key == "" {
				key = v.Get("key.value").String()
			}
			pp := &ast.ObjectPatternProperty{Key: key, Value: val}
			pp.Position = decodePos(v)
			props = append(props, pp)
			return true
		})
		if err != nil {
			return nil, err
		}
		p := &ast.ObjectPattern{Properties: props}
		p.Position = decodePos(n)
		return p, nil
	default:
		return nil, corerr.NewCompileError(decodePos(n), "jsonast: unknown pattern type %q", t)
	}
}
