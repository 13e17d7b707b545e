package ast

// VariableDeclarator pairs a binding Pattern with its initializer.
type VariableDeclarator struct {
	base
	ID   Pattern
	Init Expression // may be nil
}

func (*VariableDeclarator) Type() string { return "VariableDeclarator" }

// VariableDeclaration is `let`/`const` (no hoisting semantics modeled;
// both behave as block-scoped declarations per spec.md §4.2).
type VariableDeclaration struct {
	base
	Kind         string // "let" or "const"
	Declarations []*VariableDeclarator
}

func (*VariableDeclaration) Type() string   { return "VariableDeclaration" }
func (*VariableDeclaration) statementNode() {}

// FunctionDeclaration declares a named function binding in the current
// scope (global DEFINE_GLOBAL at script depth, local otherwise).
type FunctionDeclaration struct {
	base
	Name      string
	Params    []Pattern
	Body      *BlockStatement
	Generator bool
	Async     bool
}

func (*FunctionDeclaration) Type() string   { return "FunctionDeclaration" }
func (*FunctionDeclaration) statementNode() {}

// MethodDefinition is one method (or the constructor) inside a
// ClassDeclaration body.
type MethodDefinition struct {
	base
	Name        string
	Params      []Pattern
	Body        *BlockStatement
	Kind        string // "constructor" or "method"
	Generator   bool
	Async       bool
}

// ClassDeclaration desugars per spec.md §4.2: a constructor closure plus
// per-method prototype assignment. `extends` is out of scope (single-class
// prototypes only — spec.md end-to-end scenario 5).
type ClassDeclaration struct {
	base
	Name    string
	Methods []*MethodDefinition
}

func (*ClassDeclaration) Type() string   { return "ClassDeclaration" }
func (*ClassDeclaration) statementNode() {}

// BlockStatement is `{ ... }`; it opens a new lexical scope.
type BlockStatement struct {
	base
	Body []Statement
}

func (*BlockStatement) Type() string   { return "BlockStatement" }
func (*BlockStatement) statementNode() {}

// ExpressionStatement evaluates Expression and discards the result (POP).
type ExpressionStatement struct {
	base
	Expression Expression
}

func (*ExpressionStatement) Type() string   { return "ExpressionStatement" }
func (*ExpressionStatement) statementNode() {}

// IfStatement is `if (Test) Consequent else Alternate`.
type IfStatement struct {
	base
	Test       Expression
	Consequent Statement
	Alternate  Statement // may be nil
}

func (*IfStatement) Type() string   { return "IfStatement" }
func (*IfStatement) statementNode() {}

// WhileStatement is `while (Test) Body`.
type WhileStatement struct {
	base
	Test Expression
	Body Statement
}

func (*WhileStatement) Type() string   { return "WhileStatement" }
func (*WhileStatement) statementNode() {}

// ForStatement is `for (Init; Test; Update) Body`; any clause may be nil.
type ForStatement struct {
	base
	Init   Node // VariableDeclaration or Expression, or nil
	Test   Expression
	Update Expression
	Body   Statement
}

func (*ForStatement) Type() string   { return "ForStatement" }
func (*ForStatement) statementNode() {}

// BreakStatement exits the innermost enclosing loop.
type BreakStatement struct {
	base
}

func (*BreakStatement) Type() string   { return "BreakStatement" }
func (*BreakStatement) statementNode() {}

// ContinueStatement jumps to the innermost enclosing loop's update/test.
type ContinueStatement struct {
	base
}

func (*ContinueStatement) Type() string   { return "ContinueStatement" }
func (*ContinueStatement) statementNode() {}

// ReturnStatement returns Argument (or null) from the enclosing function.
type ReturnStatement struct {
	base
	Argument Expression // may be nil
}

func (*ReturnStatement) Type() string   { return "ReturnStatement" }
func (*ReturnStatement) statementNode() {}

// ThrowStatement raises Argument as an exception.
type ThrowStatement struct {
	base
	Argument Expression
}

func (*ThrowStatement) Type() string   { return "ThrowStatement" }
func (*ThrowStatement) statementNode() {}

// CatchClause is the `catch (Param) Body` part of a TryStatement.
type CatchClause struct {
	base
	Param Pattern // may be nil for catch-all `catch {}`
	Body  *BlockStatement
}

// TryStatement is `try Block catch CatchClause`. A `finally` block is not
// part of the ECMAScript AST subset named in spec.md §6 and is therefore
// not modeled here.
type TryStatement struct {
	base
	Block   *BlockStatement
	Handler *CatchClause // may be nil
}

func (*TryStatement) Type() string   { return "TryStatement" }
func (*TryStatement) statementNode() {}
