package native

import (
	"testing"

	"github.com/vellum-lang/vellum/internal/bytecode"
)

func TestObjectCreateLinksPrototype(t *testing.T) {
	vm := bytecode.NewVM()
	obj := Object()

	proto := bytecode.NewObjectInstance()
	proto.Set("greeting", bytecode.StringValue("hi"))

	created, _, err := obj.CallMethod(vm, "create", []bytecode.Value{bytecode.ObjectValue(proto)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.AsObject().Prototype != proto {
		t.Fatal("expected Object.create to link the given prototype")
	}

	got, _, err := obj.CallMethod(vm, "getPrototypeOf", []bytecode.Value{created})
	if err != nil {
		t.Fatalf("getPrototypeOf: %v", err)
	}
	if got.AsObject() != proto {
		t.Fatal("expected getPrototypeOf to return the linked prototype")
	}
}

func TestObjectSetPrototypeOfAcceptsNull(t *testing.T) {
	vm := bytecode.NewVM()
	obj := Object()
	target := bytecode.NewObjectInstance()
	target.Prototype = bytecode.NewObjectInstance()

	_, _, err := obj.CallMethod(vm, "setPrototypeOf", []bytecode.Value{bytecode.ObjectValue(target), bytecode.NullValue()})
	if err != nil {
		t.Fatalf("setPrototypeOf: %v", err)
	}
	if target.Prototype != nil {
		t.Fatal("expected setPrototypeOf(null) to clear the prototype link")
	}
}

func TestObjectSetPrototypeOfRejectsNonObjectTarget(t *testing.T) {
	vm := bytecode.NewVM()
	obj := Object()
	_, _, err := obj.CallMethod(vm, "setPrototypeOf", []bytecode.Value{bytecode.NumberValue(1), bytecode.NullValue()})
	if err == nil {
		t.Fatal("expected an error for a non-object setPrototypeOf target")
	}
}

func TestObjectKeysReturnsOwnKeysInInsertionOrder(t *testing.T) {
	vm := bytecode.NewVM()
	obj := Object()
	o := bytecode.NewObjectInstance()
	o.Set("b", bytecode.NumberValue(2))
	o.Set("a", bytecode.NumberValue(1))

	result, _, err := obj.CallMethod(vm, "keys", []bytecode.Value{bytecode.ObjectValue(o)})
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	arr := result.AsArray()
	first, _ := arr.Get(0)
	second, _ := arr.Get(1)
	if arr.Len() != 2 || first.AsString() != "b" || second.AsString() != "a" {
		t.Fatalf("expected keys [b a] in insertion order, got %v", arr)
	}
}

func TestMathArithmeticHelpers(t *testing.T) {
	vm := bytecode.NewVM()
	m := Math()

	cases := []struct {
		method string
		args   []float64
		want   float64
	}{
		{"abs", []float64{-4}, 4},
		{"floor", []float64{1.9}, 1},
		{"ceil", []float64{1.1}, 2},
		{"round", []float64{1.5}, 2},
		{"sqrt", []float64{9}, 3},
		{"pow", []float64{2, 10}, 1024},
		{"max", []float64{1, 5, 3}, 5},
		{"min", []float64{1, 5, 3}, 1},
	}
	for _, c := range cases {
		args := make([]bytecode.Value, len(c.args))
		for i, a := range c.args {
			args[i] = bytecode.NumberValue(a)
		}
		got, handled, err := m.CallMethod(vm, c.method, args)
		if err != nil || !handled {
			t.Fatalf("%s: handled=%v err=%v", c.method, handled, err)
		}
		if got.AsNumber() != c.want {
			t.Errorf("Math.%s(%v) = %v, want %v", c.method, c.args, got.AsNumber(), c.want)
		}
	}
}

func TestMathConstants(t *testing.T) {
	m := Math()
	pi, ok := m.GetProperty("PI")
	if !ok || pi.AsNumber() < 3.14 || pi.AsNumber() > 3.15 {
		t.Fatalf("expected Math.PI near 3.14159, got %v (ok=%v)", pi, ok)
	}
}
