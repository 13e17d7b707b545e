package native

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/vellum-lang/vellum/internal/bytecode"
)

// Object builds the `Object` native object: create/getPrototypeOf/
// setPrototypeOf/keys, the prototype-manipulation surface spec.md §4.2's
// class desugaring and §9's open questions assume scripts can also reach
// for directly.
func Object() *bytecode.NativeObject {
	return &bytecode.NativeObject{
		Name: "Object",
		CallMethod: func(vm *bytecode.VM, name string, args []bytecode.Value) (bytecode.Value, bool, error) {
			switch name {
			case "create":
				var proto *bytecode.ObjectInstance
				if len(args) > 0 && args[0].IsObject() {
					proto = args[0].AsObject()
				}
				o := bytecode.NewObjectInstance()
				o.Prototype = proto
				return bytecode.ObjectValue(o), true, nil
			case "getPrototypeOf":
				if len(args) == 0 || !args[0].IsObject() {
					return bytecode.NullValue(), true, nil
				}
				proto := args[0].AsObject().Prototype
				if proto == nil {
					return bytecode.NullValue(), true, nil
				}
				return bytecode.ObjectValue(proto), true, nil
			case "setPrototypeOf":
				if len(args) < 2 || !args[0].IsObject() {
					return bytecode.Value{}, true, fmt.Errorf("Object.setPrototypeOf requires an object target")
				}
				if err := vm.SetPrototypeOf(args[0], args[1]); err != nil {
					return bytecode.Value{}, true, err
				}
				return args[0], true, nil
			case "keys":
				if len(args) == 0 || !args[0].IsObject() {
					return bytecode.ArrayValue(bytecode.NewArrayInstance(nil)), true, nil
				}
				keys := args[0].AsObject().Keys()
				elems := make([]bytecode.Value, len(keys))
				for i, k := range keys {
					elems[i] = bytecode.StringValue(k)
				}
				return bytecode.ArrayValue(bytecode.NewArrayInstance(elems)), true, nil
			}
			return bytecode.Value{}, false, nil
		},
	}
}

// Math builds the `Math` native object: the handful of numeric helpers
// scripts need since this core has no operator overloading to lean on
// (spec.md §3: a single float64 number type).
func Math() *bytecode.NativeObject {
	arg := func(args []bytecode.Value, i int) float64 {
		if i < len(args) {
			return args[i].AsNumber()
		}
		return 0
	}
	return &bytecode.NativeObject{
		Name: "Math",
		GetProperty: func(name string) (bytecode.Value, bool) {
			switch name {
			case "PI":
				return bytecode.NumberValue(math.Pi), true
			case "E":
				return bytecode.NumberValue(math.E), true
			}
			return bytecode.Value{}, false
		},
		CallMethod: func(vm *bytecode.VM, name string, args []bytecode.Value) (bytecode.Value, bool, error) {
			switch name {
			case "abs":
				return bytecode.NumberValue(math.Abs(arg(args, 0))), true, nil
			case "floor":
				return bytecode.NumberValue(math.Floor(arg(args, 0))), true, nil
			case "ceil":
				return bytecode.NumberValue(math.Ceil(arg(args, 0))), true, nil
			case "round":
				return bytecode.NumberValue(math.Round(arg(args, 0))), true, nil
			case "trunc":
				return bytecode.NumberValue(math.Trunc(arg(args, 0))), true, nil
			case "sign":
				x := arg(args, 0)
				switch {
				case x > 0:
					return bytecode.NumberValue(1), true, nil
				case x < 0:
					return bytecode.NumberValue(-1), true, nil
				default:
					return bytecode.NumberValue(0), true, nil
				}
			case "sqrt":
				return bytecode.NumberValue(math.Sqrt(arg(args, 0))), true, nil
			case "pow":
				return bytecode.NumberValue(math.Pow(arg(args, 0), arg(args, 1))), true, nil
			case "random":
				return bytecode.NumberValue(rand.Float64()), true, nil
			case "max":
				if len(args) == 0 {
					return bytecode.NumberValue(math.Inf(-1)), true, nil
				}
				m := args[0].AsNumber()
				for _, a := range args[1:] {
					if a.AsNumber() > m {
						m = a.AsNumber()
					}
				}
				return bytecode.NumberValue(m), true, nil
			case "min":
				if len(args) == 0 {
					return bytecode.NumberValue(math.Inf(1)), true, nil
				}
				m := args[0].AsNumber()
				for _, a := range args[1:] {
					if a.AsNumber() < m {
						m = a.AsNumber()
					}
				}
				return bytecode.NumberValue(m), true, nil
			}
			return bytecode.Value{}, false, nil
		},
	}
}

// DateNative builds the `Date` native object: callable for "now in
// milliseconds since epoch" and exposing the same via a `now` method,
// matching how scripts reach for either `Date()` or `Date.now()`.
func DateNative(p Platform) *bytecode.NativeObject {
	return &bytecode.NativeObject{
		Name: "Date",
		Call: func(vm *bytecode.VM, args []bytecode.Value) (bytecode.Value, error) {
			return bytecode.NumberValue(float64(p.Now().UnixMilli())), nil
		},
		CallMethod: func(vm *bytecode.VM, name string, args []bytecode.Value) (bytecode.Value, bool, error) {
			if name == "now" {
				return bytecode.NumberValue(float64(p.Now().UnixMilli())), true, nil
			}
			return bytecode.Value{}, false, nil
		},
	}
}

// Performance builds the `performance` native object: now() returns
// milliseconds elapsed since this object was bound, a monotonic-enough
// clock for script-level timing without exposing wall-clock epoch time.
func Performance(p Platform) *bytecode.NativeObject {
	start := p.Now()
	return &bytecode.NativeObject{
		Name: "performance",
		CallMethod: func(vm *bytecode.VM, name string, args []bytecode.Value) (bytecode.Value, bool, error) {
			if name == "now" {
				return bytecode.NumberValue(float64(p.Now().Sub(start).Microseconds()) / 1000), true, nil
			}
			return bytecode.Value{}, false, nil
		},
	}
}
