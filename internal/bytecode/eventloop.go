package bytecode

// taskKind distinguishes the two shapes of queued microtask work
// (spec.md §4.5): starting a deferred async function body, or resuming
// a promise reaction / await continuation that's already built as a Go
// closure.
type taskKind int

const (
	taskAsyncCall taskKind = iota
	taskContinuation
)

// microtask is one FIFO entry in vm.microtasks.
type microtask struct {
	kind     taskKind
	closure  *Closure
	promise  *Promise
	args     []Value
	receiver Value
	run      func(vm *VM)
}

// QueueHostCallback schedules cl(args...) to run the next time the event
// loop drains its queue, exactly like a deferred async function body
// (spec.md §6: "host callbacks ... must be translated into microtasks
// before observable VM effects occur"). Used by timers and fetch to
// invoke script callbacks from outside the VM's own dispatch loop. Args
// are padded with null or truncated to match cl's arity, since this path
// bypasses invokeClosure's own arity check; the return value, once
// produced, is simply left on the stack like any other unretrieved
// result (spec.md's deliberately leaky, collector-free memory model).
func (vm *VM) QueueHostCallback(cl *Closure, args []Value) {
	want := cl.Function.Arity
	fixed := make([]Value, want)
	for i := 0; i < want; i++ {
		if i < len(args) {
			fixed[i] = args[i]
		} else {
			fixed[i] = NullValue()
		}
	}
	vm.microtasks = append(vm.microtasks, microtask{
		kind:     taskAsyncCall,
		closure:  cl,
		args:     fixed,
		receiver: NullValue(),
	})
}

// runEventLoop drives the VM from the freshly pushed script frame to
// completion: run synchronous bytecode, drain the microtask queue,
// then either stop (nothing left, nothing pending on the host side) or
// block for the next host event (a fired timer, a resolved fetch) and
// loop again. No goroutines: a suspended async call's entire state
// already lives on the Generator/continuation closures that scheduled
// it, so "waiting" here just means blocking on vm.hostEvents.
func (vm *VM) runEventLoop() {
	for {
		if vm.hasError {
			return
		}

		if len(vm.frames) > 0 {
			if st := vm.run(); st == statusRuntimeError {
				return
			}
			// statusYield and statusHalt both leave vm.frames already
			// empty: AWAIT/YIELD squirrel away their own frame chain,
			// and a normal return pops the last frame itself.
		}

		if st := vm.drainMicrotasks(); st == statusRuntimeError {
			return
		}

		if len(vm.frames) == 0 && len(vm.microtasks) == 0 {
			if vm.pendingHostOps <= 0 {
				return
			}
			fn, ok := <-vm.hostEvents
			if !ok {
				return
			}
			fn(vm)
		}
	}
}

// drainMicrotasks runs the queue to completion in FIFO order, one task
// fully to its own completion or suspension before the next task even
// starts (spec.md §8 "microtask FIFO"): pushing every queued task's
// frame up front and running once would interleave them LIFO instead.
func (vm *VM) drainMicrotasks() status {
	for len(vm.microtasks) > 0 {
		task := vm.microtasks[0]
		vm.microtasks = vm.microtasks[1:]

		switch task.kind {
		case taskAsyncCall:
			stackBase := len(vm.stack)
			if st := vm.push(task.receiver); st != statusOK {
				return st
			}
			for _, a := range task.args {
				if st := vm.push(a); st != statusOK {
					return st
				}
			}
			if len(vm.frames) >= vm.frameCap {
				return vm.runtimeError("Stack overflow.")
			}
			vm.frames = append(vm.frames, &Frame{
				closure:      task.closure,
				stackBase:    stackBase,
				asyncPromise: task.promise,
			})
		case taskContinuation:
			task.run(vm)
			if vm.hasError {
				return statusRuntimeError
			}
		}

		if st := vm.run(); st == statusRuntimeError {
			return st
		}
	}
	return statusOK
}
