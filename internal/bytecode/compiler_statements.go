package bytecode

import (
	"github.com/vellum-lang/vellum/internal/ast"
)

func (c *Compiler) compileStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		return c.compileVariableDeclaration(s)
	case *ast.FunctionDeclaration:
		return c.compileFunctionDeclaration(s)
	case *ast.ClassDeclaration:
		return c.compileClassDeclaration(s)
	case *ast.BlockStatement:
		return c.compileBlock(s)
	case *ast.ExpressionStatement:
		if err := c.compileExpression(s.Expression); err != nil {
			return err
		}
		c.chunk.emitOp(OpPop, c.line(s))
		return nil
	case *ast.IfStatement:
		return c.compileIfStatement(s)
	case *ast.WhileStatement:
		return c.compileWhileStatement(s)
	case *ast.ForStatement:
		return c.compileForStatement(s)
	case *ast.BreakStatement:
		return c.compileBreak(s)
	case *ast.ContinueStatement:
		return c.compileContinue(s)
	case *ast.ReturnStatement:
		return c.compileReturn(s)
	case *ast.ThrowStatement:
		if err := c.compileExpression(s.Argument); err != nil {
			return err
		}
		c.chunk.emitOp(OpThrow, c.line(s))
		return nil
	case *ast.TryStatement:
		return c.compileTryStatement(s)
	default:
		return compileError(stmt.Pos().Line, "unsupported statement node %s", stmt.Type())
	}
}

// declareVariable binds name in the current scope: at script (module)
// depth this is a global (DEFINE_GLOBAL), inside a function it is a local
// (spec.md §4.2).
func (c *Compiler) declareVariable(name string, line int) (isGlobal bool, err error) {
	if c.isScript && c.scopeDepth == 0 {
		return true, nil
	}
	return false, c.declareLocal(name, line)
}

func (c *Compiler) defineVariable(name string, isGlobal bool, line int) error {
	if !isGlobal {
		return nil // already a local slot; value is on the stack in place
	}
	ix, err := c.nameConstant(name)
	if err != nil {
		return err
	}
	c.chunk.emitOp1(OpDefineGlobal, ix, line)
	return nil
}

func (c *Compiler) compileVariableDeclaration(decl *ast.VariableDeclaration) error {
	for _, d := range decl.Declarations {
		line := c.line(d)
		switch pat := d.ID.(type) {
		case *ast.Identifier:
			// The initializer compiles before the binding is declared: a
			// local's slot is the stack position its value already
			// occupies, and this ordering keeps "let x = x" from
			// resolving the right-hand x as the not-yet-initialized local.
			if d.Init != nil {
				if err := c.compileExpression(d.Init); err != nil {
					return err
				}
			} else {
				c.chunk.emitOp(OpPushNull, line)
			}
			isGlobal, err := c.declareVariable(pat.Name, line)
			if err != nil {
				return err
			}
			if err := c.defineVariable(pat.Name, isGlobal, line); err != nil {
				return err
			}
		case *ast.ArrayPattern, *ast.ObjectPattern:
			if d.Init == nil {
				return compileError(line, "destructuring declaration requires an initializer")
			}
			if err := c.compileDestructuring(pat, d.Init, line); err != nil {
				return err
			}
		default:
			return compileError(line, "unsupported declaration pattern")
		}
	}
	return nil
}

func (c *Compiler) compileIfStatement(s *ast.IfStatement) error {
	line := c.line(s)
	if err := c.compileExpression(s.Test); err != nil {
		return err
	}
	elseJump := c.chunk.emitJump(OpJumpIfFalse, line)
	c.chunk.emitOp(OpPop, line)
	if err := c.compileStatement(s.Consequent); err != nil {
		return err
	}
	endJump := c.chunk.emitJump(OpJump, line)
	if err := c.chunk.patchJump(elseJump); err != nil {
		return err
	}
	c.chunk.emitOp(OpPop, line)
	if s.Alternate != nil {
		if err := c.compileStatement(s.Alternate); err != nil {
			return err
		}
	}
	return c.chunk.patchJump(endJump)
}

func (c *Compiler) compileWhileStatement(s *ast.WhileStatement) error {
	line := c.line(s)
	loopStart := len(c.chunk.Code)
	if err := c.compileExpression(s.Test); err != nil {
		return err
	}
	exitJump := c.chunk.emitJump(OpJumpIfFalse, line)
	c.chunk.emitOp(OpPop, line)

	lc := c.pushLoop(loopWhile, loopStart)
	if err := c.compileStatement(s.Body); err != nil {
		return err
	}
	for _, j := range lc.continueJumps {
		if err := c.chunk.patchJump(j); err != nil {
			return err
		}
	}
	if err := c.chunk.emitLoop(loopStart, line); err != nil {
		return err
	}
	if err := c.chunk.patchJump(exitJump); err != nil {
		return err
	}
	c.chunk.emitOp(OpPop, line)
	for _, j := range lc.breakJumps {
		if err := c.chunk.patchJump(j); err != nil {
			return err
		}
	}
	c.popLoop()
	return nil
}

func (c *Compiler) compileForStatement(s *ast.ForStatement) error {
	line := c.line(s)
	c.beginScope()
	if s.Init != nil {
		switch init := s.Init.(type) {
		case *ast.VariableDeclaration:
			if err := c.compileVariableDeclaration(init); err != nil {
				return err
			}
		case ast.Expression:
			if err := c.compileExpression(init); err != nil {
				return err
			}
			c.chunk.emitOp(OpPop, line)
		}
	}

	loopStart := len(c.chunk.Code)
	var exitJump = -1
	if s.Test != nil {
		if err := c.compileExpression(s.Test); err != nil {
			return err
		}
		exitJump = c.chunk.emitJump(OpJumpIfFalse, line)
		c.chunk.emitOp(OpPop, line)
	}

	lc := c.pushLoop(loopFor, loopStart)
	if err := c.compileStatement(s.Body); err != nil {
		return err
	}

	// continue jumps land here, just before the update expression.
	for _, j := range lc.continueJumps {
		if err := c.chunk.patchJump(j); err != nil {
			return err
		}
	}
	if s.Update != nil {
		if err := c.compileExpression(s.Update); err != nil {
			return err
		}
		c.chunk.emitOp(OpPop, line)
	}
	if err := c.chunk.emitLoop(loopStart, line); err != nil {
		return err
	}
	if exitJump >= 0 {
		if err := c.chunk.patchJump(exitJump); err != nil {
			return err
		}
		c.chunk.emitOp(OpPop, line)
	}
	for _, j := range lc.breakJumps {
		if err := c.chunk.patchJump(j); err != nil {
			return err
		}
	}
	c.popLoop()
	c.endScope(line)
	return nil
}

func (c *Compiler) compileBreak(s *ast.BreakStatement) error {
	line := c.line(s)
	lc := c.currentLoop()
	if lc == nil {
		return compileError(line, "'break' outside a loop")
	}
	c.unwindToLoop(lc, line)
	jump := c.chunk.emitJump(OpJump, line)
	lc.breakJumps = append(lc.breakJumps, jump)
	return nil
}

func (c *Compiler) compileContinue(s *ast.ContinueStatement) error {
	line := c.line(s)
	lc := c.currentLoop()
	if lc == nil {
		return compileError(line, "'continue' outside a loop")
	}
	c.unwindToLoop(lc, line)
	jump := c.chunk.emitJump(OpJump, line)
	lc.continueJumps = append(lc.continueJumps, jump)
	return nil
}

func (c *Compiler) compileReturn(s *ast.ReturnStatement) error {
	line := c.line(s)
	if s.Argument != nil {
		if err := c.compileExpression(s.Argument); err != nil {
			return err
		}
	} else {
		c.chunk.emitOp(OpPushNull, line)
	}
	c.chunk.emitOp(OpReturn, line)
	return nil
}

// compileTryStatement lowers try/catch per spec.md §4.2: SETUP_TRY points
// at the catch entry; the try block ends with POP_CATCH and a jump past
// the catch; the catch parameter (if named) receives the thrown value
// already sitting on the stack.
func (c *Compiler) compileTryStatement(s *ast.TryStatement) error {
	line := c.line(s)
	if s.Handler == nil {
		return compileError(line, "'try' without 'catch' is not supported")
	}
	setupPos := c.chunk.emitJump(OpSetupTry, line)
	if err := c.compileBlock(s.Block); err != nil {
		return err
	}
	c.chunk.emitOp(OpPopCatch, line)
	skipJump := c.chunk.emitJump(OpJump, line)

	if err := c.chunk.patchJump(setupPos); err != nil {
		return err
	}

	c.beginScope()
	if s.Handler.Param != nil {
		ident, ok := s.Handler.Param.(*ast.Identifier)
		if !ok {
			return compileError(line, "unsupported catch parameter pattern")
		}
		// beginScope() above guarantees scopeDepth > 0, so this always
		// binds as a block-scoped local, never a global.
		isGlobal, err := c.declareVariable(ident.Name, line)
		if err != nil {
			return err
		}
		if err := c.defineVariable(ident.Name, isGlobal, line); err != nil {
			return err
		}
	} else {
		c.chunk.emitOp(OpPop, line)
	}
	for _, stmt := range s.Handler.Body.Body {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	c.endScope(line)

	return c.chunk.patchJump(skipJump)
}
