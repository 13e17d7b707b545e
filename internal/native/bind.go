package native

import (
	"net/http"

	"github.com/vellum-lang/vellum/internal/bytecode"
)

// Bind registers every native object spec.md §6 requires — console,
// Math, Object, Date, performance, Promise, the timer pair, and fetch —
// on vm, backed by p for console output and wall-clock time.
func Bind(vm *bytecode.VM, p Platform) {
	BindSelected(vm, p, nil)
}

// BindSelected registers only the native objects allowed returns true
// for (or every one of them, if allowed is nil) — the hook a vellum.yaml
// "natives" allowlist (internal/config) uses to run a script in a
// restricted sandbox, e.g. with fetch and the timers withheld.
func BindSelected(vm *bytecode.VM, p Platform, allowed func(name string) bool) {
	if allowed == nil {
		allowed = func(string) bool { return true }
	}
	register := func(name string, obj *bytecode.NativeObject) {
		if allowed(name) {
			vm.BindNative(name, obj)
		}
	}
	register("console", Console(p))
	register("Math", Math())
	register("Object", Object())
	register("Date", DateNative(p))
	register("performance", Performance(p))
	register("Promise", PromiseNative())
	register("setTimeout", SetTimeout())
	register("clearTimeout", ClearTimeout())
	register("setInterval", SetInterval())
	register("clearInterval", ClearInterval())
	register("fetch", Fetch(http.DefaultClient))
}
