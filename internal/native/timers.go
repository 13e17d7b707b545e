package native

import (
	"fmt"
	"time"

	"github.com/vellum-lang/vellum/internal/bytecode"
)

// timerHandle backs the opaque handle setTimeout/setInterval return
// (spec.md §6: "an opaque handle with a clear() method"). cleared guards
// against double-counting pendingHostOps if both clearTimeout(handle)
// and handle.clear() are called, or a timer fires concurrently with a
// clear.
type timerHandle struct {
	timer   *time.Timer
	ticker  *time.Ticker
	done    chan struct{}
	cleared bool
}

func (h *timerHandle) clear(vm *bytecode.VM) {
	if h.cleared {
		return
	}
	h.cleared = true
	switch {
	case h.timer != nil:
		if h.timer.Stop() {
			vm.EndHostOp()
		}
	case h.ticker != nil:
		h.ticker.Stop()
		close(h.done)
		vm.EndHostOp()
	}
}

func handleObject(h *timerHandle) *bytecode.NativeObject {
	return &bytecode.NativeObject{
		Name: "Timer",
		Data: h,
		CallMethod: func(vm *bytecode.VM, name string, args []bytecode.Value) (bytecode.Value, bool, error) {
			if name == "clear" {
				h.clear(vm)
				return bytecode.NullValue(), true, nil
			}
			return bytecode.Value{}, false, nil
		},
	}
}

func asHandle(v bytecode.Value) *timerHandle {
	if !v.IsNative() {
		return nil
	}
	h, _ := v.AsNative().Data.(*timerHandle)
	return h
}

func callbackClosure(v bytecode.Value) (*bytecode.Closure, error) {
	if !v.IsClosure() {
		return nil, fmt.Errorf("timer callback must be a function")
	}
	return v.AsClosure(), nil
}

func delayArg(args []bytecode.Value, i int) time.Duration {
	if i >= len(args) || !args[i].IsNumber() {
		return 0
	}
	ms := args[i].AsNumber()
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}

// SetTimeout builds the `setTimeout` native function (spec.md §6):
// arming increments pendingHostOps so the event loop stays alive while
// the timer is outstanding; firing (or an explicit clear) decrements it
// and, on fire, posts the callback as a host event rather than invoking
// VM state straight from the timer goroutine.
func SetTimeout() *bytecode.NativeObject {
	return &bytecode.NativeObject{
		Name: "setTimeout",
		Call: func(vm *bytecode.VM, args []bytecode.Value) (bytecode.Value, error) {
			cl, err := callbackClosure(firstArg(args))
			if err != nil {
				return bytecode.Value{}, err
			}
			h := &timerHandle{}
			vm.BeginHostOp()
			h.timer = time.AfterFunc(delayArg(args, 1), func() {
				vm.PostHostEvent(func(vm *bytecode.VM) {
					if h.cleared {
						return
					}
					h.cleared = true
					vm.EndHostOp()
					vm.QueueHostCallback(cl, extraArgs(args))
				})
			})
			return bytecode.NativeValue(handleObject(h)), nil
		},
	}
}

// ClearTimeout builds `clearTimeout`: a no-op on an already-fired or
// already-cleared handle, and on anything that isn't a timer handle at
// all (matching the host's usual tolerance of clearing garbage ids).
func ClearTimeout() *bytecode.NativeObject {
	return &bytecode.NativeObject{
		Name: "clearTimeout",
		Call: func(vm *bytecode.VM, args []bytecode.Value) (bytecode.Value, error) {
			if len(args) > 0 {
				if h := asHandle(args[0]); h != nil {
					h.clear(vm)
				}
			}
			return bytecode.NullValue(), nil
		},
	}
}

// SetInterval builds `setInterval`: unlike setTimeout, a live interval
// keeps firing until cleared, so pendingHostOps is only decremented on
// clear, never on an individual tick.
func SetInterval() *bytecode.NativeObject {
	return &bytecode.NativeObject{
		Name: "setInterval",
		Call: func(vm *bytecode.VM, args []bytecode.Value) (bytecode.Value, error) {
			cl, err := callbackClosure(firstArg(args))
			if err != nil {
				return bytecode.Value{}, err
			}
			interval := delayArg(args, 1)
			if interval <= 0 {
				interval = time.Millisecond
			}
			h := &timerHandle{ticker: time.NewTicker(interval), done: make(chan struct{})}
			vm.BeginHostOp()
			go func() {
				for {
					select {
					case <-h.done:
						return
					case <-h.ticker.C:
						vm.PostHostEvent(func(vm *bytecode.VM) {
							if h.cleared {
								return
							}
							vm.QueueHostCallback(cl, extraArgs(args))
						})
					}
				}
			}()
			return bytecode.NativeValue(handleObject(h)), nil
		},
	}
}

// ClearInterval builds `clearInterval`, identical to clearTimeout since
// both hand back the same opaque handle shape.
func ClearInterval() *bytecode.NativeObject {
	return &bytecode.NativeObject{
		Name: "clearInterval",
		Call: func(vm *bytecode.VM, args []bytecode.Value) (bytecode.Value, error) {
			if len(args) > 0 {
				if h := asHandle(args[0]); h != nil {
					h.clear(vm)
				}
			}
			return bytecode.NullValue(), nil
		},
	}
}

func firstArg(args []bytecode.Value) bytecode.Value {
	if len(args) == 0 {
		return bytecode.NullValue()
	}
	return args[0]
}

func extraArgs(args []bytecode.Value) []bytecode.Value {
	if len(args) <= 2 {
		return nil
	}
	return args[2:]
}
