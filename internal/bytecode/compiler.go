package bytecode

import (
	"fmt"

	"github.com/vellum-lang/vellum/internal/ast"
)

// Compile lowers program into a self-contained top-level FunctionObject
// (the "script" function), per spec.md §6's "Program output" contract.
func Compile(program *ast.Program) (*FunctionObject, error) {
	c := newCompiler("<script>", nil, false)
	c.isScript = true

	for _, stmt := range program.Body {
		if err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	c.chunk.emitOp(OpPushNull, 0)
	c.chunk.emitOp(OpReturn, 0)

	return &FunctionObject{
		Name:  "<script>",
		Chunk: c.chunk,
		Arity: 0,
	}, nil
}

func (c *Compiler) compileBlock(block *ast.BlockStatement) error {
	c.beginScope()
	for _, stmt := range block.Body {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	c.endScope(c.line(block))
	return nil
}

// nameConstant interns name in the constant pool as a string, returning
// its index for use as a GET_GLOBAL/GET_PROP/etc. name operand.
func (c *Compiler) nameConstant(name string) (byte, error) {
	for i, cst := range c.chunk.Constants {
		if cst.Type == ValueString && cst.AsString() == name {
			return byte(i), nil
		}
	}
	return c.chunk.addConstant(StringValue(name))
}

func (c *Compiler) numberConstant(n float64) (byte, error) {
	return c.chunk.addConstant(NumberValue(n))
}

func (c *Compiler) stringConstant(s string) (byte, error) {
	return c.chunk.addConstant(StringValue(s))
}

func compileError(line int, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", line, fmt.Sprintf(format, args...))
}
