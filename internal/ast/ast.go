// Package ast defines the Abstract Syntax Tree node types this core
// compiles from. The tree conforms to the ECMAScript AST subset named in
// the language specification: a parser is an external collaborator, so
// this package only declares the node shapes and a small visitor contract
// the compiler walks.
package ast

// Position is a 1-based line/column pair used for error reporting. A
// parser supplying a tree populates it; nodes built in tests may leave it
// zero.
type Position struct {
	Line   int
	Column int
}

// Node is the base interface implemented by every AST node.
type Node interface {
	// Type returns the ESTree node type name, e.g. "BinaryExpression".
	Type() string
	// Pos returns the node's source position for error reporting.
	Pos() Position
}

// Expression is any node that produces a value when evaluated.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any node that performs an action.
type Statement interface {
	Node
	statementNode()
}

// base embeds into every concrete node to satisfy Pos() without repetition.
type base struct {
	Position Position
}

func (b base) Pos() Position { return b.Position }

// Program is the root of the AST: the compiler's entry point compiles one
// Program into one top-level FunctionObject (the "script" function).
type Program struct {
	base
	Body []Statement
}

func (p *Program) Type() string { return "Program" }
