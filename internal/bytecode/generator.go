package bytecode

import "fmt"

type genState int

const (
	genSuspended genState = iota
	genRunning
	genDone
)

// Generator is a suspended coroutine (spec.md §4.5): since the VM is a
// flat bytecode dispatch loop rather than a tree-walker riding Go's own
// call stack, a generator's entire paused state is just its value stack,
// call-frame stack and open-upvalue list. next/throw/return swap that
// state into the live VM fields, run the dispatch loop, and swap the
// caller's state back out when it yields or finishes — no goroutines
// involved.
type Generator struct {
	closure *Closure

	started      bool
	state        genState
	initialStack []Value // the (callee, args...) the CALL left behind; consumed on first next()

	ownStack        []Value
	ownFrames       []*Frame
	ownOpenUpvalues []*Upvalue
	ownHandlers     []handlerRecord

	lastYielded Value
}

func (vm *VM) snapshotCoroutine() ([]Value, []*Frame, []*Upvalue, []handlerRecord) {
	return vm.stack, vm.frames, vm.openUpvalues, vm.handlers
}

func (vm *VM) restoreCoroutine(stack []Value, frames []*Frame, upvalues []*Upvalue, handlers []handlerRecord) {
	vm.stack, vm.frames, vm.openUpvalues, vm.handlers = stack, frames, upvalues, handlers
}

func (vm *VM) iterResult(value Value, done bool) Value {
	o := NewObjectInstance()
	o.Set("value", value)
	o.Set("done", BoolValue(done))
	return ObjectValue(o)
}

// execYield implements YIELD: the active coroutine's state is squirreled
// away on the Generator itself, and control returns to whoever called
// next()/throw() via statusYield.
func (vm *VM) execYield() status {
	g := vm.activeCoroutine
	if g == nil {
		return vm.runtimeError("yield used outside a generator")
	}
	g.lastYielded = vm.pop()
	g.ownStack = vm.stack
	g.ownFrames = vm.frames
	g.ownOpenUpvalues = vm.openUpvalues
	g.ownHandlers = vm.handlers
	return statusYield
}

// genNext implements gen.next(value): resumes g, sending value in as the
// result of the paused YIELD expression (ignored on the first call, per
// the iterator protocol), and runs until the next YIELD, a normal
// return, or an uncaught throw.
func (vm *VM) genNext(g *Generator, sendValue Value) (Value, error) {
	if g.state == genDone {
		return vm.iterResult(NullValue(), true), nil
	}
	if g.state == genRunning {
		return Value{}, fmt.Errorf("generator is already running")
	}

	callerStack, callerFrames, callerUpvalues, callerHandlers := vm.snapshotCoroutine()

	if !g.started {
		g.started = true
		vm.stack = g.initialStack
		g.initialStack = nil
		vm.frames = []*Frame{{closure: g.closure, stackBase: 0}}
		vm.openUpvalues = nil
		vm.handlers = nil
	} else {
		vm.stack = g.ownStack
		vm.frames = g.ownFrames
		vm.openUpvalues = g.ownOpenUpvalues
		vm.handlers = g.ownHandlers
		if st := vm.push(sendValue); st != statusOK {
			vm.restoreCoroutine(callerStack, callerFrames, callerUpvalues, callerHandlers)
			return Value{}, fmt.Errorf("generator stack overflow")
		}
	}

	g.state = genRunning
	prev := vm.activeCoroutine
	vm.activeCoroutine = g
	st := vm.run()
	vm.activeCoroutine = prev

	return vm.finishGeneratorStep(g, st, callerStack, callerFrames, callerUpvalues, callerHandlers)
}

// genThrow implements gen.throw(value): injects value as an exception at
// the point the generator is paused, letting its own try/catch handle it
// if one applies, rather than calling next() and throwing separately.
func (vm *VM) genThrow(g *Generator, value Value) (Value, error) {
	if g.state == genDone || !g.started {
		g.state = genDone
		return Value{}, fmt.Errorf("%s", value.String())
	}
	if g.state == genRunning {
		return Value{}, fmt.Errorf("generator is already running")
	}

	callerStack, callerFrames, callerUpvalues, callerHandlers := vm.snapshotCoroutine()
	vm.stack = g.ownStack
	vm.frames = g.ownFrames
	vm.openUpvalues = g.ownOpenUpvalues
	vm.handlers = g.ownHandlers

	g.state = genRunning
	prev := vm.activeCoroutine
	vm.activeCoroutine = g
	st := vm.throwError(value)
	if st == statusOK {
		st = vm.run()
	}
	vm.activeCoroutine = prev

	return vm.finishGeneratorStep(g, st, callerStack, callerFrames, callerUpvalues, callerHandlers)
}

// genReturn implements gen.return(value): forces the generator to a done
// state and hands value straight back, without resuming its bytecode:
// the rest of its body never runs.
func (vm *VM) genReturn(g *Generator, value Value) Value {
	g.state = genDone
	return vm.iterResult(value, true)
}

func (vm *VM) finishGeneratorStep(g *Generator, st status, callerStack []Value, callerFrames []*Frame, callerUpvalues []*Upvalue, callerHandlers []handlerRecord) (Value, error) {
	switch st {
	case statusYield:
		g.state = genSuspended
		vm.restoreCoroutine(callerStack, callerFrames, callerUpvalues, callerHandlers)
		return vm.iterResult(g.lastYielded, false), nil
	case statusHalt:
		g.state = genDone
		final := NullValue()
		if len(vm.stack) > 0 {
			final = vm.stack[len(vm.stack)-1]
		}
		vm.restoreCoroutine(callerStack, callerFrames, callerUpvalues, callerHandlers)
		return vm.iterResult(final, true), nil
	default: // statusRuntimeError: escaped the generator entirely
		g.state = genDone
		errVal := vm.errValue
		vm.hasError = false
		vm.errValue = NullValue()
		vm.restoreCoroutine(callerStack, callerFrames, callerUpvalues, callerHandlers)
		return Value{}, fmt.Errorf("%s", errVal.String())
	}
}
