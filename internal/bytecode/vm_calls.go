package bytecode

import "fmt"

// throwError implements the unwind protocol (spec.md §4.4, §9): walk
// outward frame by frame. At each frame, first look for a handler set
// up by that exact frame (SETUP_TRY only ever matches the frame it
// executed in); failing that, check whether the frame is an async
// boundary (its own promise absorbs the error instead of propagating
// further); failing that, pop the frame and repeat one level out.
func (vm *VM) throwError(value Value) status {
	for {
		for i := len(vm.handlers) - 1; i >= 0; i-- {
			h := vm.handlers[i]
			if h.frameDepth != len(vm.frames)-1 {
				continue
			}
			vm.handlers = vm.handlers[:i]
			vm.closeUpvaluesFrom(h.stackDepth)
			vm.stack = vm.stack[:h.stackDepth]
			f := vm.currentFrame()
			f.ip = h.catchIP
			return vm.push(value)
		}

		f := vm.currentFrame()
		if f.asyncPromise != nil {
			vm.closeUpvaluesFrom(f.stackBase)
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.stack = vm.stack[:f.stackBase]
			f.asyncPromise.reject(vm, value)
			if len(vm.frames) == 0 {
				return statusHalt
			}
			return statusOK
		}

		vm.closeUpvaluesFrom(f.stackBase)
		vm.frames = vm.frames[:len(vm.frames)-1]
		vm.stack = vm.stack[:f.stackBase]
		for len(vm.handlers) > 0 && vm.handlers[len(vm.handlers)-1].frameDepth >= len(vm.frames) {
			vm.handlers = vm.handlers[:len(vm.handlers)-1]
		}
		if len(vm.frames) == 0 {
			vm.hasError = true
			vm.errValue = value
			return statusRuntimeError
		}
	}
}

// callValue implements CALL: callee and its argc arguments already sit
// on top of the stack, callee itself occupying what becomes slot 0 of
// the callee's locals (spec.md §4.2: "the callee itself" for plain
// calls, as opposed to CALL_METHOD's receiver).
func (vm *VM) callValue(callee Value, argc int, _ bool) status {
	calleeSlot := len(vm.stack) - 1 - argc
	switch {
	case callee.IsClosure():
		return vm.invokeClosure(callee.AsClosure(), calleeSlot, argc)
	case callee.IsNative():
		return vm.invokeNativeCall(callee.AsNative(), calleeSlot, argc)
	default:
		return vm.runtimeError("value is not callable")
	}
}

// invokeClosure starts executing cl with argc arguments already sitting
// above calleeSlot (whatever value is at calleeSlot becomes locals[0] —
// the caller has already arranged that to be either the closure itself
// or an explicit receiver). Generator and async functions never push an
// ordinary frame: a generator call builds a suspended coroutine object,
// an async call defers its body to the microtask queue.
func (vm *VM) invokeClosure(cl *Closure, calleeSlot, argc int) status {
	if cl.Function.Arity != argc {
		return vm.runtimeError("expected %d arguments but got %d", cl.Function.Arity, argc)
	}
	if cl.Function.IsGenerator {
		return vm.startGenerator(cl, calleeSlot, argc)
	}
	if cl.Function.IsAsync {
		return vm.startAsyncCall(cl, calleeSlot, argc)
	}
	if len(vm.frames) >= vm.frameCap {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames = append(vm.frames, &Frame{closure: cl, stackBase: calleeSlot})
	return statusOK
}

func (vm *VM) invokeNativeCall(n *NativeObject, calleeSlot, argc int) status {
	if n.Call == nil {
		return vm.runtimeError("'%s' is not callable", n.Name)
	}
	args := make([]Value, argc)
	copy(args, vm.stack[calleeSlot+1:])
	vm.stack = vm.stack[:calleeSlot]
	result, err := n.Call(vm, args)
	if err != nil {
		return vm.runtimeError("%v", err)
	}
	return vm.push(result)
}

// startGenerator implements the generator half of CALL (spec.md §4.5):
// pop callee+args off the caller's stack entirely and hand them to a
// fresh, not-yet-started coroutine; its own frame isn't pushed until
// the first next().
func (vm *VM) startGenerator(cl *Closure, calleeSlot, argc int) status {
	initial := make([]Value, argc+1, vm.stackCap)
	copy(initial, vm.stack[calleeSlot:calleeSlot+argc+1])
	vm.stack = vm.stack[:calleeSlot]
	g := &Generator{closure: cl, initialStack: initial, state: genSuspended}
	return vm.push(GeneratorValue(g))
}

// startAsyncCall implements the async half of CALL: pop callee+args,
// allocate the call's pending promise, and enqueue a microtask that
// will push its frame once drained — the caller gets the promise back
// immediately and keeps running.
func (vm *VM) startAsyncCall(cl *Closure, calleeSlot, argc int) status {
	receiver := vm.stack[calleeSlot]
	args := make([]Value, argc)
	copy(args, vm.stack[calleeSlot+1:calleeSlot+1+argc])
	vm.stack = vm.stack[:calleeSlot]
	p := newPromise()
	vm.microtasks = append(vm.microtasks, microtask{
		kind:     taskAsyncCall,
		closure:  cl,
		promise:  p,
		args:     args,
		receiver: receiver,
	})
	return vm.push(PromiseValue(p))
}

// execCallMethod implements CALL_METHOD's receiver-dependent dispatch
// (spec.md §4.2): native objects get first refusal via their CallMethod
// hook, promises special-case .then, generators dispatch to
// next/return/throw, and everything else (objects, with arrays/strings/
// null always missing methods) walks the receiver's own prototype
// chain.
func (vm *VM) execCallMethod(f *Frame, name string, argc int) status {
	receiverSlot := len(vm.stack) - 1 - argc
	receiver := vm.stack[receiverSlot]

	switch {
	case receiver.IsPromise():
		return vm.callPromiseThen(receiver.AsPromise(), receiverSlot, argc, name)

	case receiver.IsGenerator():
		return vm.callGeneratorMethod(receiver.AsGenerator(), receiverSlot, argc, name)

	case receiver.IsNative():
		n := receiver.AsNative()
		if n.CallMethod != nil {
			args := make([]Value, argc)
			copy(args, vm.stack[receiverSlot+1:])
			result, handled, err := n.CallMethod(vm, name, args)
			if handled {
				vm.stack = vm.stack[:receiverSlot]
				if err != nil {
					return vm.runtimeError("%v", err)
				}
				return vm.push(result)
			}
		}
		if n.GetProperty != nil {
			if v, ok := n.GetProperty(name); ok {
				return vm.invokeAsMethod(v, receiverSlot, argc)
			}
		}
		return vm.runtimeError("native object '%s' has no method '%s'", n.Name, name)

	case receiver.IsObject():
		v, ok := receiver.AsObject().Get(name)
		if !ok {
			return vm.runtimeError("object has no method '%s'", name)
		}
		return vm.invokeAsMethod(v, receiverSlot, argc)

	case receiver.IsNull():
		return vm.runtimeError("cannot call method '%s' of null", name)
	default:
		return vm.runtimeError("%s has no method '%s'", receiver.Type, name)
	}
}

func (vm *VM) invokeAsMethod(callee Value, receiverSlot, argc int) status {
	if !callee.IsClosure() {
		return vm.runtimeError("property is not a function")
	}
	return vm.invokeClosure(callee.AsClosure(), receiverSlot, argc)
}

func (vm *VM) callGeneratorMethod(g *Generator, receiverSlot, argc int, name string) status {
	args := make([]Value, argc)
	copy(args, vm.stack[receiverSlot+1:])
	vm.stack = vm.stack[:receiverSlot]

	arg := NullValue()
	if len(args) > 0 {
		arg = args[0]
	}

	var result Value
	var err error
	switch name {
	case "next":
		result, err = vm.genNext(g, arg)
	case "return":
		result = vm.genReturn(g, arg)
	case "throw":
		result, err = vm.genThrow(g, arg)
	default:
		return vm.runtimeError("generator has no method '%s'", name)
	}
	if err != nil {
		return vm.runtimeError("%s", err.Error())
	}
	return vm.push(result)
}

// callPromiseThen implements promise.then(onFulfilled[, onRejected]):
// the only promise method the language exposes. It always returns a
// fresh promise chained off the handler's outcome.
func (vm *VM) callPromiseThen(p *Promise, slot, argc int, name string) status {
	if name != "then" {
		return vm.runtimeError("promise has no method '%s'", name)
	}
	if argc < 1 || argc > 2 {
		return vm.runtimeError("then expects 1 or 2 arguments")
	}
	onFulfilled := vm.stack[slot+1]
	var onRejected Value
	hasRejected := argc == 2
	if hasRejected {
		onRejected = vm.stack[slot+2]
	}
	vm.stack = vm.stack[:slot]

	result := newPromise()
	p.subscribe(vm,
		func(vm *VM, v Value) { vm.invokeThenCallback(onFulfilled, v, result, true) },
		func(vm *VM, v Value) {
			if hasRejected {
				vm.invokeThenCallback(onRejected, v, result, false)
			} else {
				result.reject(vm, v)
			}
		},
	)
	return vm.push(PromiseValue(result))
}

// invokeThenCallback runs a .then handler as its own async-style frame:
// result is treated exactly like the handler's own promise, resolved or
// rejected by however the handler's call eventually completes.
func (vm *VM) invokeThenCallback(handler Value, arg Value, result *Promise, isFulfilled bool) {
	if !handler.IsClosure() {
		if isFulfilled {
			result.resolve(vm, arg)
		} else {
			result.reject(vm, arg)
		}
		return
	}
	cl := handler.AsClosure()
	if cl.Function.IsGenerator {
		result.reject(vm, StringValue("a generator cannot be used as a promise handler"))
		return
	}
	if cl.Function.Arity != 1 {
		result.reject(vm, StringValue(fmt.Sprintf("promise handler must take exactly 1 argument, got arity %d", cl.Function.Arity)))
		return
	}

	calleeSlot := len(vm.stack)
	vm.stack = append(vm.stack, handler, arg)

	if cl.Function.IsAsync {
		if st := vm.startAsyncCall(cl, calleeSlot, 1); st != statusOK {
			return
		}
		inner := vm.pop() // the promise startAsyncCall just pushed
		result.resolve(vm, inner)
		return
	}
	if len(vm.frames) >= vm.frameCap {
		vm.stack = vm.stack[:calleeSlot]
		result.reject(vm, StringValue("Stack overflow."))
		return
	}
	vm.frames = append(vm.frames, &Frame{closure: cl, stackBase: calleeSlot, asyncPromise: result})
}

// execReturn implements RETURN (spec.md §4.2): close upvalues owned by
// this frame, pop it, truncate the stack back to its base, and hand the
// return value to whoever is waiting — the caller's stack for an
// ordinary call, this frame's promise for an async call, or (for a
// constructor) the instance NEW built rather than whatever value the
// constructor body itself produced.
func (vm *VM) execReturn() status {
	retVal := vm.pop()
	f := vm.currentFrame()
	vm.closeUpvaluesFrom(f.stackBase)
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.stack = vm.stack[:f.stackBase]

	if f.asyncPromise != nil {
		f.asyncPromise.resolve(vm, retVal)
		return statusOK
	}
	if f.isCtor {
		return vm.push(f.ctorInstance)
	}
	return vm.push(retVal)
}

// execClosure implements CLOSURE: build a real closure from the
// constant-pool template (the compiled function, no upvalues) plus the
// upvalue descriptor bytes that follow the opcode, resolving each
// either by capturing a local in the enclosing frame or by inheriting
// one from the enclosing closure's own upvalue list (spec.md §4.2
// "upvalue capture").
func (vm *VM) execClosure(f *Frame) status {
	ix := vm.readByte(f)
	template := f.chunk().Constants[ix].AsClosure()
	fn := template.Function

	upvalues := make([]*Upvalue, len(fn.UpvalueDefs))
	for i := range fn.UpvalueDefs {
		isLocal := vm.readByte(f) != 0
		index := int(vm.readByte(f))
		if isLocal {
			upvalues[i] = vm.captureUpvalue(f.stackBase + index)
		} else {
			upvalues[i] = f.closure.Upvalues[index]
		}
	}
	return vm.push(ClosureValue(&Closure{Function: fn, Upvalues: upvalues}))
}

// captureUpvalue returns the existing open upvalue for stackIndex if
// one is already live (closures over the same local share one cell), or
// opens a new one, keeping vm.openUpvalues sorted by descending stack
// index so closeUpvaluesFrom can stop at the first one below threshold.
func (vm *VM) captureUpvalue(stackIndex int) *Upvalue {
	for _, uv := range vm.openUpvalues {
		if uv.stackIndex == stackIndex {
			return uv
		}
	}
	uv := newOpenUpvalue(&vm.stack[stackIndex], stackIndex)
	insertAt := 0
	for insertAt < len(vm.openUpvalues) && vm.openUpvalues[insertAt].stackIndex > stackIndex {
		insertAt++
	}
	vm.openUpvalues = append(vm.openUpvalues, nil)
	copy(vm.openUpvalues[insertAt+1:], vm.openUpvalues[insertAt:])
	vm.openUpvalues[insertAt] = uv
	return uv
}

// closeUpvaluesFrom closes and detaches every open upvalue whose stack
// slot is at or above stackIndex, copying its last live value into the
// cell so it survives the slot going out of scope.
func (vm *VM) closeUpvaluesFrom(stackIndex int) {
	for len(vm.openUpvalues) > 0 && vm.openUpvalues[0].stackIndex >= stackIndex {
		vm.openUpvalues[0].close()
		vm.openUpvalues = vm.openUpvalues[1:]
	}
}

// execNew implements NEW (spec.md §4.2): lazily allocate the
// constructor's prototype, build a fresh instance linked to it, and run
// the constructor with that instance as locals[0]. The constructor's
// own return value is discarded; NEW always evaluates to the instance
// (see Frame.isCtor). `new Promise(executor)` is special-cased since a
// Promise instance isn't built from a user-defined prototype chain.
func (vm *VM) execNew(argc int) status {
	calleeSlot := len(vm.stack) - 1 - argc
	callee := vm.stack[calleeSlot]

	if callee.IsNative() && callee.AsNative().Name == "Promise" {
		return vm.execNewPromise(calleeSlot, argc)
	}

	if !callee.IsClosure() {
		return vm.runtimeError("'new' target is not a constructor")
	}
	cl := callee.AsClosure()
	if cl.Function.IsGenerator || cl.Function.IsAsync {
		return vm.runtimeError("constructors cannot be generator or async functions")
	}
	if cl.Function.Arity != argc {
		return vm.runtimeError("expected %d arguments but got %d", cl.Function.Arity, argc)
	}
	if cl.Prototype == nil {
		cl.Prototype = NewObjectInstance()
	}
	instance := NewObjectInstance()
	instance.Prototype = cl.Prototype
	instance.ClassName = cl.Function.Name

	vm.stack[calleeSlot] = ObjectValue(instance)
	if len(vm.frames) >= vm.frameCap {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames = append(vm.frames, &Frame{
		closure:      cl,
		stackBase:    calleeSlot,
		isCtor:       true,
		ctorInstance: ObjectValue(instance),
	})
	return statusOK
}

// execNewPromise implements `new Promise(executor)`: executor(resolve,
// reject) runs synchronously and to completion before NEW's result (the
// promise) is produced, matching ordinary Promise semantics.
func (vm *VM) execNewPromise(calleeSlot, argc int) status {
	if argc != 1 {
		return vm.runtimeError("Promise constructor expects 1 argument")
	}
	executor := vm.stack[calleeSlot+1]
	vm.stack = vm.stack[:calleeSlot]
	if !executor.IsClosure() {
		return vm.runtimeError("Promise executor must be a function")
	}
	cl := executor.AsClosure()
	if cl.Function.Arity != 2 {
		return vm.runtimeError("Promise executor must take exactly 2 arguments")
	}

	p := newPromise()
	resolveFn := &NativeObject{Name: "resolve", Call: func(vm *VM, args []Value) (Value, error) {
		v := NullValue()
		if len(args) > 0 {
			v = args[0]
		}
		p.resolve(vm, v)
		return NullValue(), nil
	}}
	rejectFn := &NativeObject{Name: "reject", Call: func(vm *VM, args []Value) (Value, error) {
		v := NullValue()
		if len(args) > 0 {
			v = args[0]
		}
		p.reject(vm, v)
		return NullValue(), nil
	}}

	if st := vm.callExecutorSync(cl, []Value{NativeValue(resolveFn), NativeValue(rejectFn)}); st != statusOK {
		return st
	}
	return vm.push(PromiseValue(p))
}

// callExecutorSync runs cl to completion right now, within the current
// dispatch, rather than through the outer event loop. A throw that
// isn't caught inside the executor's own body propagates as an ordinary
// uncaught error rather than auto-rejecting the promise (see DESIGN.md:
// this is a deliberate scope cut, not an oversight).
func (vm *VM) callExecutorSync(cl *Closure, args []Value) status {
	depth := len(vm.frames)
	calleeSlot := len(vm.stack)
	vm.stack = append(vm.stack, ClosureValue(cl))
	vm.stack = append(vm.stack, args...)
	if len(vm.frames) >= vm.frameCap {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames = append(vm.frames, &Frame{closure: cl, stackBase: calleeSlot})
	if st := vm.runToDepth(depth); st != statusOK {
		return st
	}
	if len(vm.stack) > calleeSlot {
		vm.stack = vm.stack[:calleeSlot]
	}
	return statusOK
}

// runToDepth dispatches until the frame stack is back down to depth,
// used for the Promise executor's synchronous nested call.
func (vm *VM) runToDepth(depth int) status {
	for len(vm.frames) > depth {
		f := vm.currentFrame()
		op := OpCode(vm.readByte(f))
		if st := vm.dispatch(f, op); st != statusOK {
			return st
		}
	}
	return statusOK
}

// execAwait implements AWAIT (spec.md §4.5): suspend the current
// coroutine exactly like YIELD, but resumption is driven by a promise
// settling rather than an explicit next() call. The awaited value is
// coerced to a promise first, so `await` on a plain value still costs
// one microtask tick, matching ordinary promise semantics.
func (vm *VM) execAwait() status {
	awaited := vm.pop()
	var p *Promise
	if awaited.IsPromise() {
		p = awaited.AsPromise()
	} else {
		p = newPromise()
		p.resolve(vm, awaited)
	}

	snapFrames := vm.frames
	snapStack := vm.stack
	snapUpvalues := vm.openUpvalues
	snapHandlers := vm.handlers

	// The vacated backing array stays exclusively owned by this
	// suspended continuation; whatever runs next gets a fresh one so
	// the two can never alias the same memory.
	vm.frames = nil
	vm.stack = make([]Value, 0, vm.stackCap)
	vm.openUpvalues = nil
	vm.handlers = nil

	p.subscribe(vm,
		func(vm *VM, v Value) { vm.resumeAwait(snapFrames, snapStack, snapUpvalues, snapHandlers, v, false) },
		func(vm *VM, v Value) { vm.resumeAwait(snapFrames, snapStack, snapUpvalues, snapHandlers, v, true) },
	)
	return statusYield
}

func (vm *VM) resumeAwait(frames []*Frame, stack []Value, upvalues []*Upvalue, handlers []handlerRecord, value Value, isRejection bool) {
	vm.frames = frames
	vm.stack = stack
	vm.openUpvalues = upvalues
	vm.handlers = handlers
	if isRejection {
		vm.throwError(value)
		return
	}
	vm.push(value)
}
