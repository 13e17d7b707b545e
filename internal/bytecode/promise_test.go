package bytecode

import "testing"

func TestPromiseSettleIsOneShot(t *testing.T) {
	vm := NewVM()
	p := newPromise()
	p.resolve(vm, StringValue("first"))
	p.resolve(vm, StringValue("second"))

	if p.State() != "fulfilled" {
		t.Fatalf("expected fulfilled state, got %s", p.State())
	}
	if p.value.AsString() != "first" {
		t.Fatalf("expected the first settlement to stick, got %q", p.value.AsString())
	}
}

func TestPromiseRejectAfterResolveIsNoOp(t *testing.T) {
	vm := NewVM()
	p := newPromise()
	p.resolve(vm, NumberValue(1))
	p.reject(vm, StringValue("too late"))

	if p.State() != "fulfilled" {
		t.Fatalf("expected a settled promise to ignore a later reject, got %s", p.State())
	}
}

func TestPromiseResolveWithPromiseAdoptsInnerState(t *testing.T) {
	vm := NewVM()
	inner := newPromise()
	outer := newPromise()

	outer.resolve(vm, PromiseValue(inner))
	if outer.State() != "pending" {
		t.Fatalf("expected outer to stay pending until inner settles, got %s", outer.State())
	}

	inner.resolve(vm, StringValue("adopted"))
	// Adoption is itself a promise reaction, so it only lands once the
	// queued microtask runs.
	for len(vm.microtasks) > 0 {
		task := vm.microtasks[0]
		vm.microtasks = vm.microtasks[1:]
		task.run(vm)
	}
	if outer.State() != "fulfilled" || outer.value.AsString() != "adopted" {
		t.Fatalf("expected outer to adopt inner's fulfilled value, got state=%s value=%v", outer.State(), outer.value)
	}
}

func TestPromiseSubscribeBeforeSettlementQueuesOnSettle(t *testing.T) {
	vm := NewVM()
	p := newPromise()

	var got Value
	called := false
	p.subscribe(vm, func(vm *VM, v Value) { got = v; called = true }, nil)

	if called {
		t.Fatal("expected subscribing to a pending promise not to run the reaction synchronously")
	}
	if len(vm.microtasks) != 0 {
		t.Fatal("expected no microtask queued until the promise settles")
	}

	p.resolve(vm, StringValue("ready"))
	if called {
		t.Fatal("expected settlement to enqueue the reaction as a microtask, not invoke it inline")
	}
	if len(vm.microtasks) != 1 {
		t.Fatalf("expected exactly one microtask queued, got %d", len(vm.microtasks))
	}

	vm.microtasks[0].run(vm)
	if !called || got.AsString() != "ready" {
		t.Fatalf("expected the queued reaction to run with 'ready', got called=%v value=%v", called, got)
	}
}

func TestPromiseSubscribeAfterSettlementStillDefers(t *testing.T) {
	vm := NewVM()
	p := newPromise()
	p.resolve(vm, StringValue("already done"))

	called := false
	p.subscribe(vm, func(vm *VM, v Value) { called = true }, nil)
	if called {
		t.Fatal("expected subscribing to an already-settled promise to still defer via a microtask")
	}
	if len(vm.microtasks) != 1 {
		t.Fatalf("expected one microtask queued, got %d", len(vm.microtasks))
	}
}
