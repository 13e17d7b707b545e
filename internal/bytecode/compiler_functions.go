package bytecode

import (
	"github.com/vellum-lang/vellum/internal/ast"
)

// compileFunctionLiteral compiles params/body as a nested function and
// emits CLOSURE in the enclosing chunk, leaving the new closure value on
// the stack (spec.md §4.2: "a closure wraps the compiled function plus
// its resolved upvalues").
func (c *Compiler) compileFunctionLiteral(name string, params []ast.Pattern, body *ast.BlockStatement, isGenerator, isAsync, isMethod bool, line int) error {
	if len(params) > 255 {
		return compileError(line, "too many parameters")
	}

	inner := newCompiler(name, c, isMethod)
	for _, p := range params {
		switch pat := p.(type) {
		case *ast.Identifier:
			if err := inner.declareLocal(pat.Name, line); err != nil {
				return err
			}
		case *ast.ArrayPattern, *ast.ObjectPattern:
			tmp := inner.nextTempName()
			if err := inner.declareLocal(tmp, line); err != nil {
				return err
			}
			slot, _ := inner.resolveLocal(tmp)
			inner.chunk.emitOp1(OpGetLocal, byte(slot), line)
			if err := inner.destructureValue(pat, line); err != nil {
				return err
			}
		default:
			return compileError(line, "unsupported parameter pattern")
		}
	}

	for _, stmt := range body.Body {
		if err := inner.compileStatement(stmt); err != nil {
			return err
		}
	}
	// Every function falls off the end with an implicit `return null;`
	// unless an earlier RETURN already exited (dead code after it is
	// harmless: the VM never reaches it).
	inner.chunk.emitOp(OpPushNull, line)
	inner.chunk.emitOp(OpReturn, line)

	fn := &FunctionObject{
		Name:        name,
		Chunk:       inner.chunk,
		Arity:       len(params),
		IsGenerator: isGenerator,
		IsAsync:     isAsync,
	}
	fn.UpvalueDefs = make([]UpvalueDef, len(inner.upvalues))
	for i, uv := range inner.upvalues {
		fn.UpvalueDefs[i] = UpvalueDef{IsLocal: uv.isLocal, Index: uv.index}
	}

	// The constant pool holds a template closure carrying the compiled
	// function but no upvalues; CLOSURE builds the real, upvalue-bound
	// closure at runtime from the enclosing frame named by the
	// descriptor bytes that follow the opcode.
	constIx, err := c.chunk.addConstant(ClosureValue(&Closure{Function: fn}))
	if err != nil {
		return compileError(line, "%v", err)
	}
	c.chunk.emitOp1(OpClosure, constIx, line)
	for _, uv := range inner.upvalues {
		isLocal := byte(0)
		if uv.isLocal {
			isLocal = 1
		}
		c.chunk.emitByte(isLocal, line)
		c.chunk.emitByte(byte(uv.index), line)
	}
	return nil
}

func (c *Compiler) compileFunctionDeclaration(s *ast.FunctionDeclaration) error {
	line := c.line(s)
	// Declared before the body compiles, like the teacher's own forward
	// declarations, so the function can call itself by name.
	isGlobal, err := c.declareVariable(s.Name, line)
	if err != nil {
		return err
	}
	if err := c.compileFunctionLiteral(s.Name, s.Params, s.Body, s.Generator, s.Async, false, line); err != nil {
		return err
	}
	return c.defineVariable(s.Name, isGlobal, line)
}

// compileClassDeclaration desugars a class: compile and bind the
// constructor closure first, then attach each method to that closure's
// lazily-allocated prototype object (GET_PROTOTYPE) in turn. There is no
// `extends` — every class's prototype starts out empty.
func (c *Compiler) compileClassDeclaration(s *ast.ClassDeclaration) error {
	line := c.line(s)
	isGlobal, err := c.declareVariable(s.Name, line)
	if err != nil {
		return err
	}

	var ctor *ast.MethodDefinition
	for _, m := range s.Methods {
		if m.Kind == "constructor" {
			ctor = m
			break
		}
	}
	if ctor != nil {
		if err := c.compileFunctionLiteral(s.Name, ctor.Params, ctor.Body, false, false, true, c.line(ctor)); err != nil {
			return err
		}
	} else {
		// Every class gets a real constructor closure, even an implicit
		// `constructor() { return this; }`, rather than the disassembler's
		// old shortcut of pushing an uncompiled function constant directly.
		body := &ast.BlockStatement{Body: []ast.Statement{
			&ast.ReturnStatement{Argument: &ast.ThisExpression{}},
		}}
		if err := c.compileFunctionLiteral(s.Name, nil, body, false, false, true, line); err != nil {
			return err
		}
	}
	if err := c.defineVariable(s.Name, isGlobal, line); err != nil {
		return err
	}

	// Each method reads C back, asks for its (lazily allocated) prototype
	// object, and attaches itself there.
	for _, m := range s.Methods {
		if m.Kind == "constructor" {
			continue
		}
		mLine := c.line(m)
		if err := c.compileIdentifierRead(s.Name, mLine); err != nil {
			return err
		} // [C]
		c.chunk.emitOp(OpGetPrototype, mLine) // [proto]
		if err := c.compileFunctionLiteral(m.Name, m.Params, m.Body, m.Generator, m.Async, true, mLine); err != nil {
			return err
		} // [proto, closure]
		ix, err := c.nameConstant(m.Name)
		if err != nil {
			return err
		}
		c.chunk.emitOp1(OpSetProp, ix, mLine) // [closure]
		c.chunk.emitOp(OpPop, mLine)          // []
	}
	return nil
}

// compileDestructuring lowers `let [a,b] = rhs;` / `let {a,b} = rhs;`:
// compile rhs once, then tear it down per destructureValue. The source
// and every intermediate nested value is anchored as an ordinary
// (unreachable-by-name) local, so it unwinds with whatever scope the
// declaration lives in rather than needing separate teardown bookkeeping.
func (c *Compiler) compileDestructuring(pattern ast.Pattern, rhs ast.Expression, line int) error {
	if err := c.compileExpression(rhs); err != nil {
		return err
	}
	return c.destructureValue(pattern, line)
}

// destructureValue assumes the value to destructure already sits on top
// of the stack and binds pattern's leaves the same way a plain
// declaration would (DEFINE_GLOBAL at script depth, a new local
// otherwise — spec.md §4.2), matching compileVariableDeclaration's
// *ast.Identifier case.
func (c *Compiler) destructureValue(pattern ast.Pattern, line int) error {
	switch p := pattern.(type) {
	case *ast.Identifier:
		isGlobal, err := c.declareVariable(p.Name, line)
		if err != nil {
			return err
		}
		return c.defineVariable(p.Name, isGlobal, line)
	case *ast.ArrayPattern:
		tmp := c.nextTempName()
		if err := c.declareLocal(tmp, line); err != nil {
			return err
		}
		slot, _ := c.resolveLocal(tmp)
		for i, el := range p.Elements {
			if el == nil {
				continue // hole: `let [, b] = rhs`
			}
			c.chunk.emitOp1(OpGetLocal, byte(slot), line)
			ix, err := c.numberConstant(float64(i))
			if err != nil {
				return err
			}
			c.chunk.emitOp1(OpPushConst, ix, line)
			c.chunk.emitOp(OpGetIndex, line)
			if err := c.destructureValue(el, line); err != nil {
				return err
			}
		}
		return nil
	case *ast.ObjectPattern:
		tmp := c.nextTempName()
		if err := c.declareLocal(tmp, line); err != nil {
			return err
		}
		slot, _ := c.resolveLocal(tmp)
		for _, prop := range p.Properties {
			c.chunk.emitOp1(OpGetLocal, byte(slot), line)
			ix, err := c.nameConstant(prop.Key)
			if err != nil {
				return err
			}
			c.chunk.emitOp1(OpGetProp, ix, line)
			if err := c.destructureValue(prop.Value, line); err != nil {
				return err
			}
		}
		return nil
	default:
		return compileError(line, "unsupported destructuring pattern")
	}
}
