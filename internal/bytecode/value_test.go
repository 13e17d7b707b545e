package bytecode

import "testing"

func TestValueConstructorsRoundTrip(t *testing.T) {
	if !NumberValue(3.5).IsNumber() || NumberValue(3.5).AsNumber() != 3.5 {
		t.Error("NumberValue round trip failed")
	}
	if !StringValue("hi").IsString() || StringValue("hi").AsString() != "hi" {
		t.Error("StringValue round trip failed")
	}
	if !BoolValue(true).IsBool() || !BoolValue(true).AsBool() {
		t.Error("BoolValue round trip failed")
	}
	if !NullValue().IsNull() {
		t.Error("NullValue should report IsNull")
	}
}

func TestObjectGetWalksPrototypeChain(t *testing.T) {
	proto := NewObjectInstance()
	proto.Set("greeting", StringValue("hi"))

	child := NewObjectInstance()
	child.Prototype = proto

	v, ok := child.Get("greeting")
	if !ok || v.AsString() != "hi" {
		t.Fatalf("expected Get to walk the prototype chain and find 'hi', got %v (ok=%v)", v, ok)
	}

	if _, ok := child.GetOwn("greeting"); ok {
		t.Fatal("expected GetOwn to see only the child's own properties, not the prototype's")
	}
}

func TestObjectSetOverridesOwnProperty(t *testing.T) {
	o := NewObjectInstance()
	o.Set("x", NumberValue(1))
	o.Set("x", NumberValue(2))

	v, ok := o.GetOwn("x")
	if !ok || v.AsNumber() != 2 {
		t.Fatalf("expected overwritten value 2, got %v", v)
	}
	if len(o.Keys()) != 1 {
		t.Fatalf("expected a single key after overwrite, got %v", o.Keys())
	}
}

func TestObjectKeysPreservesInsertionOrder(t *testing.T) {
	o := NewObjectInstance()
	o.Set("z", NumberValue(0))
	o.Set("a", NumberValue(0))
	o.Set("m", NumberValue(0))

	got := o.Keys()
	want := []string{"z", "a", "m"}
	if len(got) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected insertion order %v, got %v", want, got)
		}
	}
}

func TestArrayGetSetBounds(t *testing.T) {
	a := NewArrayInstance([]Value{NumberValue(1), NumberValue(2)})
	if a.Len() != 2 {
		t.Fatalf("expected length 2, got %d", a.Len())
	}
	if !a.Set(0, NumberValue(9)) {
		t.Fatal("expected Set(0, ...) to succeed")
	}
	v, ok := a.Get(0)
	if !ok || v.AsNumber() != 9 {
		t.Fatalf("expected element 0 to be 9, got %v", v)
	}
	if _, ok := a.Get(5); ok {
		t.Fatal("expected an out-of-range Get to report false")
	}
	if a.Set(5, NumberValue(1)) {
		t.Fatal("expected an out-of-range Set to report false")
	}
}

func TestClosureValueUnwrapsFunction(t *testing.T) {
	fn := &FunctionObject{Name: "f", Chunk: NewChunk("f")}
	v := ClosureValue(&Closure{Function: fn})
	if !v.IsClosure() {
		t.Fatal("expected ClosureValue to report IsClosure")
	}
	if v.AsClosure().Function != fn {
		t.Fatal("expected AsClosure().Function to return the wrapped FunctionObject")
	}
}
