package bytecode

import (
	"fmt"

	"github.com/vellum-lang/vellum/internal/ast"
)

// nativeNames is the fixed set of identifiers resolved to GET_NATIVE
// rather than GET_GLOBAL (spec.md §4.2).
var nativeNames = map[string]bool{
	"console": true, "Math": true, "performance": true,
	"Date": true, "Object": true, "Promise": true,
	"setTimeout": true, "clearTimeout": true,
	"setInterval": true, "clearInterval": true,
	"fetch": true,
}

type local struct {
	name     string
	depth    int
	slot     int
	captured bool
}

type upvalueSlot struct {
	index   int
	isLocal bool
}

type loopKind int

const (
	loopWhile loopKind = iota
	loopFor
)

type loopContext struct {
	breakJumps    []int
	continueJumps []int
	loopStart     int
	scopeDepth    int // scope depth at the loop header, for break/continue unwind
	kind          loopKind
}

// Compiler holds per-function compilation state (spec.md §2 item 2). It
// nests via enclosing to model function/method/class-body compilation.
type Compiler struct {
	enclosing  *Compiler
	chunk      *Chunk
	locals     []local
	upvalues   []upvalueSlot
	loopStack  []*loopContext
	scopeDepth int
	isMethod   bool // slot 0 is `this` rather than the callee
	isScript   bool // true only for the root (program) compiler
	tempSeq    int  // counter for synthetic destructuring anchor names
}

// nextTempName returns a fresh name unreachable from source (source
// identifiers cannot start with '@'), used to anchor destructuring
// sources as ordinary locals so they unwind with the scope like any
// other binding.
func (c *Compiler) nextTempName() string {
	c.tempSeq++
	return fmt.Sprintf("@tmp%d", c.tempSeq)
}

func newCompiler(name string, enclosing *Compiler, isMethod bool) *Compiler {
	c := &Compiler{
		chunk:     NewChunk(name),
		enclosing: enclosing,
		isMethod:  isMethod,
	}
	// Slot 0 is reserved for the callee (plain functions) or `this`
	// (methods); it is never user-addressable by name except `this`.
	reserved := ""
	if isMethod {
		reserved = "this"
	}
	c.locals = append(c.locals, local{name: reserved, depth: 0, slot: 0})
	return c
}

func (c *Compiler) line(n ast.Node) int {
	if n == nil {
		return 0
	}
	return n.Pos().Line
}

func (c *Compiler) beginScope() { c.scopeDepth++ }

// endScope pops locals declared at the scope being exited, emitting POP
// for uncaptured locals and CLOSE_UPVALUE for captured ones (spec.md §4.2).
func (c *Compiler) endScope(line int) {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		last := c.locals[len(c.locals)-1]
		if last.captured {
			c.chunk.emitOp(OpCloseUpvalue, line)
		} else {
			c.chunk.emitOp(OpPop, line)
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// declareLocal adds name as a local in the current scope. Redeclaring the
// same name at the same depth is a compile-time error (spec.md §4.2).
func (c *Compiler) declareLocal(name string, line int) error {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].depth < c.scopeDepth {
			break
		}
		if c.locals[i].name == name {
			return fmt.Errorf("line %d: duplicate declaration of %q in this scope", line, name)
		}
	}
	if len(c.locals) >= 256 {
		return fmt.Errorf("line %d: too many locals (>255)", line)
	}
	c.locals = append(c.locals, local{name: name, depth: c.scopeDepth, slot: len(c.locals)})
	return nil
}

func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return c.locals[i].slot, true
		}
	}
	return 0, false
}

// addUpvalue records (or reuses) an upvalue capture, guaranteeing closures
// sharing the same source variable share one handle (spec.md §4.2).
func (c *Compiler) addUpvalue(index int, isLocal bool, line int) (int, error) {
	for i, uv := range c.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i, nil
		}
	}
	if len(c.upvalues) >= 256 {
		return 0, fmt.Errorf("line %d: too many upvalues (>255)", line)
	}
	c.upvalues = append(c.upvalues, upvalueSlot{index: index, isLocal: isLocal})
	return len(c.upvalues) - 1, nil
}

// resolveUpvalue searches enclosing compiler states' locals (marking the
// source local captured) and then their upvalues, transitively, per
// spec.md §4.2 identifier resolution rule 2.
func (c *Compiler) resolveUpvalue(name string, line int) (int, bool, error) {
	if c.enclosing == nil {
		return 0, false, nil
	}
	if slot, ok := c.enclosing.resolveLocal(name); ok {
		c.enclosing.locals[indexOfSlot(c.enclosing.locals, slot)].captured = true
		idx, err := c.addUpvalue(slot, true, line)
		return idx, err == nil, err
	}
	if idx, ok, err := c.enclosing.resolveUpvalue(name, line); ok || err != nil {
		if err != nil {
			return 0, false, err
		}
		newIdx, err := c.addUpvalue(idx, false, line)
		return newIdx, err == nil, err
	}
	return 0, false, nil
}

func indexOfSlot(locals []local, slot int) int {
	for i, l := range locals {
		if l.slot == slot {
			return i
		}
	}
	return -1
}

func (c *Compiler) pushLoop(kind loopKind, loopStart int) *loopContext {
	lc := &loopContext{kind: kind, loopStart: loopStart, scopeDepth: c.scopeDepth}
	c.loopStack = append(c.loopStack, lc)
	return lc
}

func (c *Compiler) popLoop() {
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
}

func (c *Compiler) currentLoop() *loopContext {
	if len(c.loopStack) == 0 {
		return nil
	}
	return c.loopStack[len(c.loopStack)-1]
}

// unwindToLoop emits the POP/CLOSE_UPVALUE sequence for locals declared
// strictly inside the loop body, used by break/continue before the jump.
func (c *Compiler) unwindToLoop(lc *loopContext, line int) {
	for i := len(c.locals) - 1; i >= 0 && c.locals[i].depth > lc.scopeDepth; i-- {
		if c.locals[i].captured {
			c.chunk.emitOp(OpCloseUpvalue, line)
		} else {
			c.chunk.emitOp(OpPop, line)
		}
	}
}
