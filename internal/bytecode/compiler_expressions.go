package bytecode

import (
	"github.com/vellum-lang/vellum/internal/ast"
)

func (c *Compiler) compileExpression(expr ast.Expression) error {
	line := c.line(expr)
	switch e := expr.(type) {
	case *ast.NumericLiteral:
		ix, err := c.numberConstant(e.Value)
		if err != nil {
			return compileError(line, "%v", err)
		}
		c.chunk.emitOp1(OpPushConst, ix, line)
		return nil
	case *ast.StringLiteral:
		ix, err := c.stringConstant(e.Value)
		if err != nil {
			return compileError(line, "%v", err)
		}
		c.chunk.emitOp1(OpPushConst, ix, line)
		return nil
	case *ast.BooleanLiteral:
		if e.Value {
			c.chunk.emitOp(OpPushTrue, line)
		} else {
			c.chunk.emitOp(OpPushFalse, line)
		}
		return nil
	case *ast.NullLiteral:
		c.chunk.emitOp(OpPushNull, line)
		return nil
	case *ast.ThisExpression:
		if !c.isMethod {
			return compileError(line, "'this' used outside a method")
		}
		c.chunk.emitOp1(OpGetLocal, 0, line)
		return nil
	case *ast.TemplateLiteral:
		return c.compileTemplateLiteral(e)
	case *ast.Identifier:
		return c.compileIdentifierRead(e.Name, line)
	case *ast.BinaryExpression:
		return c.compileBinaryExpression(e)
	case *ast.LogicalExpression:
		return c.compileLogicalExpression(e)
	case *ast.UnaryExpression:
		if err := c.compileExpression(e.Argument); err != nil {
			return err
		}
		switch e.Operator {
		case "-":
			c.chunk.emitOp(OpNeg, line)
		case "!":
			c.chunk.emitOp(OpNot, line)
		default:
			return compileError(line, "unsupported unary operator %q", e.Operator)
		}
		return nil
	case *ast.UpdateExpression:
		return c.compileUpdateExpression(e)
	case *ast.AssignmentExpression:
		return c.compileAssignmentExpression(e)
	case *ast.CallExpression:
		return c.compileCallExpression(e)
	case *ast.NewExpression:
		return c.compileNewExpression(e)
	case *ast.MemberExpression:
		return c.compileMemberRead(e)
	case *ast.ArrayExpression:
		return c.compileArrayExpression(e)
	case *ast.ObjectExpression:
		return c.compileObjectExpression(e)
	case *ast.FunctionExpression:
		return c.compileFunctionLiteral(e.Name, e.Params, e.Body, e.Generator, e.Async, false, line)
	case *ast.ArrowFunctionExpression:
		return c.compileFunctionLiteral("", e.Params, e.Body, false, e.Async, false, line)
	case *ast.AwaitExpression:
		if err := c.compileExpression(e.Argument); err != nil {
			return err
		}
		c.chunk.emitOp(OpAwait, line)
		return nil
	case *ast.YieldExpression:
		if e.Argument != nil {
			if err := c.compileExpression(e.Argument); err != nil {
				return err
			}
		} else {
			c.chunk.emitOp(OpPushNull, line)
		}
		c.chunk.emitOp(OpYield, line)
		return nil
	default:
		return compileError(line, "unsupported expression node %s", expr.Type())
	}
}

func (c *Compiler) compileTemplateLiteral(e *ast.TemplateLiteral) error {
	line := c.line(e)
	ix, err := c.stringConstant(e.Quasis[0].Raw)
	if err != nil {
		return err
	}
	c.chunk.emitOp1(OpPushConst, ix, line)
	for i, expr := range e.Expressions {
		if err := c.compileExpression(expr); err != nil {
			return err
		}
		c.chunk.emitOp(OpAdd, line)
		if i+1 < len(e.Quasis) {
			qx, err := c.stringConstant(e.Quasis[i+1].Raw)
			if err != nil {
				return err
			}
			c.chunk.emitOp1(OpPushConst, qx, line)
			c.chunk.emitOp(OpAdd, line)
		}
	}
	return nil
}

// compileIdentifierRead resolves name per spec.md §4.2: local, then
// upvalue (transitively through enclosing functions), then native, then
// global.
func (c *Compiler) compileIdentifierRead(name string, line int) error {
	if slot, ok := c.resolveLocal(name); ok {
		c.chunk.emitOp1(OpGetLocal, byte(slot), line)
		return nil
	}
	if idx, ok, err := c.resolveUpvalue(name, line); err != nil {
		return err
	} else if ok {
		c.chunk.emitOp1(OpGetUpvalue, byte(idx), line)
		return nil
	}
	if nativeNames[name] {
		ix, err := c.nameConstant(name)
		if err != nil {
			return err
		}
		c.chunk.emitOp1(OpGetNative, ix, line)
		return nil
	}
	ix, err := c.nameConstant(name)
	if err != nil {
		return err
	}
	c.chunk.emitOp1(OpGetGlobal, ix, line)
	return nil
}

// compileIdentifierWrite emits the SET_* counterpart to compileIdentifierRead.
func (c *Compiler) compileIdentifierWrite(name string, line int) error {
	if slot, ok := c.resolveLocal(name); ok {
		c.chunk.emitOp1(OpSetLocal, byte(slot), line)
		return nil
	}
	if idx, ok, err := c.resolveUpvalue(name, line); err != nil {
		return err
	} else if ok {
		c.chunk.emitOp1(OpSetUpvalue, byte(idx), line)
		return nil
	}
	ix, err := c.nameConstant(name)
	if err != nil {
		return err
	}
	c.chunk.emitOp1(OpSetGlobal, ix, line)
	return nil
}

var binaryOps = map[string]OpCode{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod, "**": OpPow,
	"==": OpEq, "!=": OpNeq, ">": OpGt, "<": OpLt, ">=": OpGe, "<=": OpLe,
}

func (c *Compiler) compileBinaryExpression(e *ast.BinaryExpression) error {
	if err := c.compileExpression(e.Left); err != nil {
		return err
	}
	if err := c.compileExpression(e.Right); err != nil {
		return err
	}
	op, ok := binaryOps[e.Operator]
	if !ok {
		return compileError(c.line(e), "unsupported binary operator %q", e.Operator)
	}
	c.chunk.emitOp(op, c.line(e))
	return nil
}

// compileLogicalExpression lowers "&&"/"||" with short-circuit jumps,
// matching the if/while jump-patching idiom (spec.md §4.2).
func (c *Compiler) compileLogicalExpression(e *ast.LogicalExpression) error {
	line := c.line(e)
	if err := c.compileExpression(e.Left); err != nil {
		return err
	}
	switch e.Operator {
	case "&&":
		endJump := c.chunk.emitJump(OpJumpIfFalse, line)
		c.chunk.emitOp(OpPop, line)
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		return c.chunk.patchJump(endJump)
	case "||":
		elseJump := c.chunk.emitJump(OpJumpIfFalse, line)
		endJump := c.chunk.emitJump(OpJump, line)
		if err := c.chunk.patchJump(elseJump); err != nil {
			return err
		}
		c.chunk.emitOp(OpPop, line)
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		return c.chunk.patchJump(endJump)
	default:
		return compileError(line, "unsupported logical operator %q", e.Operator)
	}
}

// compileUpdateExpression lowers `++`/`--` on identifiers using the
// dedicated INC/DEC opcodes; computed member increment is a compile-time
// error per spec.md §4.2.
//
// INC_*/DEC_* read the variable directly, store the updated value back,
// and push the NEW value — a single self-contained op. Prefix emits just
// that op (stack ends at [new]). Postfix first loads the OLD value, then
// the INC/DEC op (stack: [old, new]), then POPs the new value off,
// leaving [old] — the "load-before ... plus a POP for postfix" pattern.
func (c *Compiler) compileUpdateExpression(e *ast.UpdateExpression) error {
	line := c.line(e)
	switch target := e.Argument.(type) {
	case *ast.Identifier:
		name := target.Name
		var incOp, decOp OpCode
		var operand byte
		if slot, ok := c.resolveLocal(name); ok {
			incOp, decOp, operand = OpIncLocal, OpDecLocal, byte(slot)
		} else if idx, ok, err := c.resolveUpvalue(name, line); err != nil {
			return err
		} else if ok {
			incOp, decOp, operand = OpIncUpvalue, OpDecUpvalue, byte(idx)
		} else {
			ix, err := c.nameConstant(name)
			if err != nil {
				return err
			}
			incOp, decOp, operand = OpIncGlobal, OpDecGlobal, ix
		}
		op := incOp
		if e.Operator == "--" {
			op = decOp
		}
		if !e.Prefix {
			if err := c.compileIdentifierRead(name, line); err != nil {
				return err
			}
		}
		c.chunk.emitOp1(op, operand, line)
		if !e.Prefix {
			c.chunk.emitOp(OpPop, line)
		}
		return nil
	case *ast.MemberExpression:
		if target.Computed {
			return compileError(line, "computed property increment is not supported")
		}
		prop, _ := target.Property.(*ast.Identifier)
		if prop == nil {
			return compileError(line, "invalid property increment target")
		}
		if err := c.compileExpression(target.Object); err != nil {
			return err
		}
		ix, err := c.nameConstant(prop.Name)
		if err != nil {
			return err
		}
		mode := byte(ModePostfix)
		if e.Prefix {
			mode = byte(ModePrefix)
		}
		op := OpIncProp
		if e.Operator == "--" {
			op = OpDecProp
		}
		c.chunk.emitOp2(op, ix, mode, line)
		return nil
	default:
		return compileError(line, "invalid increment/decrement target")
	}
}

func (c *Compiler) compileAssignmentExpression(e *ast.AssignmentExpression) error {
	line := c.line(e)
	if e.Operator == "=" {
		return c.compileSimpleAssign(e.Left, e.Right, line)
	}
	// Compound assignment: x OP= v  =>  x = x OP v
	baseOp, ok := map[string]OpCode{"+=": OpAdd, "-=": OpSub, "*=": OpMul, "/=": OpDiv, "%=": OpMod}[e.Operator]
	if !ok {
		return compileError(line, "unsupported assignment operator %q", e.Operator)
	}
	switch target := e.Left.(type) {
	case *ast.Identifier:
		if err := c.compileIdentifierRead(target.Name, line); err != nil {
			return err
		}
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		c.chunk.emitOp(baseOp, line)
		return c.compileIdentifierWrite(target.Name, line)
	case *ast.MemberExpression:
		return c.compileCompoundMemberAssign(target, e.Right, baseOp, line)
	default:
		return compileError(line, "invalid assignment target")
	}
}

// compileSimpleAssign lowers `x = v`, `o.p = v`, and `o[k] = v`. SET_PROP
// and SET_INDEX consume the object (and key) plus the new value and push
// the new value back, so assignment remains usable as an expression.
func (c *Compiler) compileSimpleAssign(left ast.Expression, right ast.Expression, line int) error {
	switch target := left.(type) {
	case *ast.Identifier:
		if err := c.compileExpression(right); err != nil {
			return err
		}
		return c.compileIdentifierWrite(target.Name, line)
	case *ast.MemberExpression:
		if err := c.compileExpression(target.Object); err != nil {
			return err
		}
		if target.Computed {
			if err := c.compileExpression(target.Property); err != nil {
				return err
			}
			if err := c.compileExpression(right); err != nil {
				return err
			}
			c.chunk.emitOp(OpSetIndex, line)
			return nil
		}
		prop, ok := target.Property.(*ast.Identifier)
		if !ok {
			return compileError(line, "invalid property assignment target")
		}
		ix, err := c.nameConstant(prop.Name)
		if err != nil {
			return err
		}
		if err := c.compileExpression(right); err != nil {
			return err
		}
		c.chunk.emitOp1(OpSetProp, ix, line)
		return nil
	default:
		return compileError(line, "invalid assignment target")
	}
}

// compileCompoundMemberAssign lowers `o.p OP= v`: evaluate the object
// once (duplicated so both the load and the store see it), evaluate the
// current property value, combine with v via op, then store. The computed
// form `o[k] OP= v` is rejected with a compile error.
func (c *Compiler) compileCompoundMemberAssign(target *ast.MemberExpression, rhs ast.Expression, op OpCode, line int) error {
	if err := c.compileExpression(target.Object); err != nil {
		return err
	}
	if target.Computed {
		if err := c.compileExpression(target.Property); err != nil {
			return err
		}
		c.chunk.emitOp(OpDuplicate, line) // dup key: [obj,key,key]
		// need [obj,key] beneath for the final SET_INDEX; reorder via a
		// second object duplication instead of a stack swap we don't have.
		return compileError(line, "computed compound assignment is not supported")
	}
	prop, ok := target.Property.(*ast.Identifier)
	if !ok {
		return compileError(line, "invalid property assignment target")
	}
	ix, err := c.nameConstant(prop.Name)
	if err != nil {
		return err
	}
	c.chunk.emitOp(OpDuplicate, line) // [obj, obj]
	c.chunk.emitOp1(OpGetProp, ix, line) // [obj, current]
	if err := c.compileExpression(rhs); err != nil {
		return err
	}
	c.chunk.emitOp(op, line) // [obj, combined]
	c.chunk.emitOp1(OpSetProp, ix, line) // [combined]
	return nil
}

func (c *Compiler) compileCallExpression(e *ast.CallExpression) error {
	line := c.line(e)
	if member, ok := e.Callee.(*ast.MemberExpression); ok && !member.Computed {
		prop, _ := member.Property.(*ast.Identifier)
		if prop == nil {
			return compileError(line, "invalid method call target")
		}
		if err := c.compileExpression(member.Object); err != nil {
			return err
		}
		for _, arg := range e.Arguments {
			if err := c.compileExpression(arg); err != nil {
				return err
			}
		}
		ix, err := c.nameConstant(prop.Name)
		if err != nil {
			return err
		}
		if len(e.Arguments) > 255 {
			return compileError(line, "too many arguments")
		}
		c.chunk.emitOp2(OpCallMethod, ix, byte(len(e.Arguments)), line)
		return nil
	}
	if err := c.compileExpression(e.Callee); err != nil {
		return err
	}
	for _, arg := range e.Arguments {
		if err := c.compileExpression(arg); err != nil {
			return err
		}
	}
	if len(e.Arguments) > 255 {
		return compileError(line, "too many arguments")
	}
	c.chunk.emitOp1(OpCall, byte(len(e.Arguments)), line)
	return nil
}

func (c *Compiler) compileNewExpression(e *ast.NewExpression) error {
	line := c.line(e)
	if err := c.compileExpression(e.Callee); err != nil {
		return err
	}
	for _, arg := range e.Arguments {
		if err := c.compileExpression(arg); err != nil {
			return err
		}
	}
	if len(e.Arguments) > 255 {
		return compileError(line, "too many arguments")
	}
	c.chunk.emitOp1(OpNew, byte(len(e.Arguments)), line)
	return nil
}

func (c *Compiler) compileMemberRead(e *ast.MemberExpression) error {
	line := c.line(e)
	if err := c.compileExpression(e.Object); err != nil {
		return err
	}
	if e.Computed {
		if err := c.compileExpression(e.Property); err != nil {
			return err
		}
		c.chunk.emitOp(OpGetIndex, line)
		return nil
	}
	prop, ok := e.Property.(*ast.Identifier)
	if !ok {
		return compileError(line, "invalid property access")
	}
	ix, err := c.nameConstant(prop.Name)
	if err != nil {
		return err
	}
	c.chunk.emitOp1(OpGetProp, ix, line)
	return nil
}

func (c *Compiler) compileArrayExpression(e *ast.ArrayExpression) error {
	line := c.line(e)
	if len(e.Elements) > 255 {
		return compileError(line, "array literal too large")
	}
	for _, el := range e.Elements {
		if err := c.compileExpression(el); err != nil {
			return err
		}
	}
	c.chunk.emitOp1(OpNewArray, byte(len(e.Elements)), line)
	return nil
}

func (c *Compiler) compileObjectExpression(e *ast.ObjectExpression) error {
	line := c.line(e)
	pairCount := len(e.Properties) + len(e.Methods)
	if pairCount > 255 {
		return compileError(line, "object literal too large")
	}
	for _, p := range e.Properties {
		key, err := propertyKeyName(p.Key)
		if err != nil {
			return err
		}
		ix, err := c.stringConstant(key)
		if err != nil {
			return err
		}
		c.chunk.emitOp1(OpPushConst, ix, line)
		if err := c.compileExpression(p.Value); err != nil {
			return err
		}
	}
	for _, m := range e.Methods {
		key, err := propertyKeyName(m.Key)
		if err != nil {
			return err
		}
		ix, err := c.stringConstant(key)
		if err != nil {
			return err
		}
		c.chunk.emitOp1(OpPushConst, ix, line)
		if err := c.compileFunctionLiteral(key, m.Value.Params, m.Value.Body, m.Value.Generator, m.Value.Async, true, line); err != nil {
			return err
		}
	}
	c.chunk.emitOp1(OpNewObject, byte(pairCount), line)
	return nil
}

func propertyKeyName(key ast.Expression) (string, error) {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Name, nil
	case *ast.StringLiteral:
		return k.Value, nil
	default:
		return "", compileError(key.Pos().Line, "invalid object property key")
	}
}
