package bytecode

import (
	"fmt"

	corerr "github.com/vellum-lang/vellum/internal/errors"
)

// Defaults for stack capacity and call-frame bound (spec.md §5); a
// vellum.yaml can override either via NewVMWithLimits.
const (
	defaultMaxFrames    = 256
	defaultMaxStackSize = 1 << 16
)

// status is what one dispatch step (or a whole run()) reports back to its
// caller: OK means keep going, YIELD means control returns to the outer
// event loop (AWAIT/YIELD suspended), RUNTIME_ERROR means the VM is
// halted with vm.hasError set (spec.md §4.3 "Dispatch").
type status int

const (
	statusOK status = iota
	statusYield
	statusRuntimeError
	statusHalt
)

// Frame is one call-frame: the executing closure, its instruction
// pointer, the absolute stack index of its callee/this slot, and (for
// async frames only) the promise it resolves or rejects on return. A
// frame started by NEW carries isCtor/ctorInstance: the constructor's
// own return value is discarded and ctorInstance becomes the
// expression's result instead (spec.md §4.2 "NEW").
type Frame struct {
	closure      *Closure
	ip           int
	stackBase    int
	asyncPromise *Promise
	isCtor       bool
	ctorInstance Value
}

func (f *Frame) chunk() *Chunk { return f.closure.Function.Chunk }

// handlerRecord is one SETUP_TRY entry: where to resume, and the stack /
// call-frame depths to restore to on unwind (spec.md §4.4).
type handlerRecord struct {
	catchIP    int
	stackDepth int
	frameDepth int // len(vm.frames)-1 at SETUP_TRY time: the frame owning this handler
}

// VM is the interpreter's complete runtime state (spec.md §4.3 "Core
// state"). The value stack is preallocated to a fixed capacity so it
// never reallocates out from under an open upvalue's pointer into it.
type VM struct {
	stack   []Value
	frames  []*Frame
	globals map[string]Value
	natives map[string]*NativeObject

	openUpvalues []*Upvalue // sorted by descending stack index

	handlers   []handlerRecord
	microtasks []microtask

	activeCoroutine *Generator // nil while running on the main stack
	pendingHostOps  int
	hostEvents      chan func(*VM)

	stackCap int
	frameCap int

	hasError bool
	errValue Value
}

// NewVM constructs a VM with empty globals/natives and the default
// stack/frame limits; callers register native objects via BindNative
// before Interpret.
func NewVM() *VM {
	return NewVMWithLimits(defaultMaxStackSize, defaultMaxFrames)
}

// NewVMWithLimits constructs a VM with the given stack capacity and
// call-frame bound, as loaded from a vellum.yaml (internal/config).
func NewVMWithLimits(stackCap, frameCap int) *VM {
	if stackCap <= 0 {
		stackCap = defaultMaxStackSize
	}
	if frameCap <= 0 {
		frameCap = defaultMaxFrames
	}
	return &VM{
		stack:      make([]Value, 0, stackCap),
		globals:    make(map[string]Value),
		natives:    make(map[string]*NativeObject),
		hostEvents: make(chan func(*VM), 64),
		stackCap:   stackCap,
		frameCap:   frameCap,
	}
}

// BindNative registers a native object under name, resolved by the
// compiler's fixed native-name set via GET_NATIVE (spec.md §6).
func (vm *VM) BindNative(name string, obj *NativeObject) {
	vm.natives[name] = obj
}

// BeginHostOp marks one outstanding real-world operation (a pending
// timer, an in-flight fetch) that keeps the event loop alive even when
// the script and microtask queue have both gone idle. Pair with
// EndHostOp when the operation settles.
func (vm *VM) BeginHostOp() { vm.pendingHostOps++ }

// EndHostOp releases one BeginHostOp reservation.
func (vm *VM) EndHostOp() { vm.pendingHostOps-- }

// PostHostEvent delivers fn to the event loop from outside the VM's own
// goroutine (a fired time.Timer, a completed http.Response): runEventLoop
// only ever invokes fn on its own goroutine, so fn is free to touch VM
// state (resolve a promise, push a value) without further locking.
func (vm *VM) PostHostEvent(fn func(*VM)) {
	vm.hostEvents <- fn
}

func (vm *VM) push(v Value) status {
	if len(vm.stack) >= vm.stackCap {
		return vm.runtimeError("Stack overflow.")
	}
	vm.stack = append(vm.stack, v)
	return statusOK
}

func (vm *VM) pop() Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) currentFrame() *Frame {
	return vm.frames[len(vm.frames)-1]
}

// activeFunctionName names the innermost executing function, used in
// error reports (spec.md §6 "active function name").
func (vm *VM) activeFunctionName() string {
	if len(vm.frames) == 0 {
		return ""
	}
	name := vm.currentFrame().closure.Function.Name
	if name == "" {
		return "<anonymous>"
	}
	return name
}

// runtimeError formats a VM-internal error, represents it as a thrown
// string value, and runs it through the same unwind protocol as an
// explicit `throw` (spec.md §7: runtime errors "invoke the unwind
// protocol").
func (vm *VM) runtimeError(format string, args ...any) status {
	msg := fmt.Sprintf(format, args...)
	return vm.throwError(StringValue(msg))
}

// Result is the outcome of Interpret (spec.md §6 "Interpret entrypoint").
type Result int

const (
	ResultOK Result = iota
	ResultRuntimeError
)

// Interpret compiles output is assumed already done by Compile; this
// drives a fresh script FunctionObject through the event loop to
// completion and reports its final value or error.
func (vm *VM) Interpret(script *FunctionObject) (Result, Value, error) {
	closure := &Closure{Function: script}
	if err := vm.push(ClosureValue(closure)); err != statusOK {
		return ResultRuntimeError, NullValue(), vm.finalError()
	}
	vm.frames = append(vm.frames, &Frame{closure: closure, stackBase: 0})

	vm.runEventLoop()

	if vm.hasError {
		return ResultRuntimeError, NullValue(), vm.finalError()
	}
	if len(vm.stack) == 0 {
		return ResultOK, NullValue(), nil
	}
	return ResultOK, vm.stack[len(vm.stack)-1], nil
}

func (vm *VM) finalError() error {
	return corerr.NewRuntimeError(vm.activeFunctionName(), "%s", vm.errValue.String())
}
