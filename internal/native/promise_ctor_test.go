package native

import (
	"testing"

	"github.com/vellum-lang/vellum/internal/bytecode"
)

func TestPromiseNativeResolveSettlesFulfilled(t *testing.T) {
	vm := bytecode.NewVM()
	p := PromiseNative()

	result, handled, err := p.CallMethod(vm, "resolve", []bytecode.Value{bytecode.StringValue("done")})
	if err != nil || !handled {
		t.Fatalf("resolve: handled=%v err=%v", handled, err)
	}
	if !result.IsPromise() {
		t.Fatalf("expected a promise value, got %v", result)
	}
	if result.AsPromise().State() != "fulfilled" {
		t.Fatalf("expected fulfilled state, got %s", result.AsPromise().State())
	}
}

func TestPromiseNativeRejectSettlesRejected(t *testing.T) {
	vm := bytecode.NewVM()
	p := PromiseNative()

	result, handled, err := p.CallMethod(vm, "reject", []bytecode.Value{bytecode.StringValue("bad")})
	if err != nil || !handled {
		t.Fatalf("reject: handled=%v err=%v", handled, err)
	}
	if result.AsPromise().State() != "rejected" {
		t.Fatalf("expected rejected state, got %s", result.AsPromise().State())
	}
}

func TestPromiseNativeNameMatchesVMSpecialCase(t *testing.T) {
	if PromiseNative().Name != "Promise" {
		t.Fatal("execNew dispatches `new Promise(...)` by checking Name == \"Promise\"; renaming this breaks that special case")
	}
}
