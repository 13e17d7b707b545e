package native

import "github.com/vellum-lang/vellum/internal/bytecode"

// PromiseNative builds the `Promise` native object (spec.md §6). Its
// identity — Name == "Promise" — is what the VM's execNew special-cases
// for `new Promise(executor)`; resolve/reject are the two static helpers
// scripts reach for alongside it.
func PromiseNative() *bytecode.NativeObject {
	return &bytecode.NativeObject{
		Name: "Promise",
		CallMethod: func(vm *bytecode.VM, name string, args []bytecode.Value) (bytecode.Value, bool, error) {
			switch name {
			case "resolve":
				p := bytecode.NewPendingPromise()
				v := bytecode.NullValue()
				if len(args) > 0 {
					v = args[0]
				}
				p.Resolve(vm, v)
				return bytecode.PromiseValue(p), true, nil
			case "reject":
				p := bytecode.NewPendingPromise()
				v := bytecode.NullValue()
				if len(args) > 0 {
					v = args[0]
				}
				p.Reject(vm, v)
				return bytecode.PromiseValue(p), true, nil
			}
			return bytecode.Value{}, false, nil
		},
	}
}
