package bytecode

// promiseState is a Promise's settlement state (spec.md §4.5): a promise
// starts pending and settles at most once, to fulfilled or rejected.
type promiseState int

const (
	promisePending promiseState = iota
	promiseFulfilled
	promiseRejected
)

func (s promiseState) String() string {
	switch s {
	case promiseFulfilled:
		return "fulfilled"
	case promiseRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// promiseCallback is one registered reaction, scheduled as a microtask
// once its promise settles.
type promiseCallback struct {
	onFulfilled func(vm *VM, value Value)
	onRejected  func(vm *VM, value Value)
}

// Promise is a one-shot settlement cell with a FIFO reaction queue,
// matching the microtask-driven event loop in spec.md §4.5.
type Promise struct {
	state     promiseState
	value     Value
	callbacks []promiseCallback
}

func newPromise() *Promise { return &Promise{state: promisePending} }

// NewPendingPromise is the exported entry point native objects (fetch,
// timers) use to hand a VM-visible promise back to script code before
// the underlying host operation has settled.
func NewPendingPromise() *Promise { return newPromise() }

func (p *Promise) State() string { return p.state.String() }

// Resolve and Reject are the exported settlement entry points for native
// code running outside the VM's own dispatch loop (e.g. a host event
// posted via VM.PostHostEvent).
func (p *Promise) Resolve(vm *VM, value Value) { p.resolve(vm, value) }
func (p *Promise) Reject(vm *VM, value Value)  { p.reject(vm, value) }

// resolve settles p as fulfilled with value, unless value is itself a
// promise: resolving with a promise adopts its eventual state instead
// (spec.md §4.5 "adoption"). A no-op once p has already settled.
func (p *Promise) resolve(vm *VM, value Value) {
	if p.state != promisePending {
		return
	}
	if value.IsPromise() {
		inner := value.AsPromise()
		inner.subscribe(vm,
			func(vm *VM, v Value) { p.resolve(vm, v) },
			func(vm *VM, v Value) { p.reject(vm, v) },
		)
		return
	}
	p.settle(vm, promiseFulfilled, value)
}

func (p *Promise) reject(vm *VM, value Value) {
	if p.state != promisePending {
		return
	}
	p.settle(vm, promiseRejected, value)
}

func (p *Promise) settle(vm *VM, state promiseState, value Value) {
	p.state = state
	p.value = value
	pending := p.callbacks
	p.callbacks = nil
	for _, cb := range pending {
		p.scheduleCallback(vm, cb)
	}
}

// scheduleCallback enqueues cb's reaction as a microtask. Settled state is
// captured by value at enqueue time so a later settlement of some other
// promise can't retroactively change which branch runs.
func (p *Promise) scheduleCallback(vm *VM, cb promiseCallback) {
	state, value := p.state, p.value
	vm.microtasks = append(vm.microtasks, microtask{
		kind: taskContinuation,
		run: func(vm *VM) {
			if state == promiseFulfilled {
				if cb.onFulfilled != nil {
					cb.onFulfilled(vm, value)
				}
			} else if cb.onRejected != nil {
				cb.onRejected(vm, value)
			}
		},
	})
}

// subscribe registers a reaction, running it immediately (as a fresh
// microtask) if p has already settled, or queuing it for when it does.
func (p *Promise) subscribe(vm *VM, onFulfilled, onRejected func(vm *VM, v Value)) {
	cb := promiseCallback{onFulfilled: onFulfilled, onRejected: onRejected}
	if p.state == promisePending {
		p.callbacks = append(p.callbacks, cb)
		return
	}
	p.scheduleCallback(vm, cb)
}
