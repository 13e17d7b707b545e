package bytecode

import "fmt"

// execNewArray builds an array from the top count stack values, in the
// order they were pushed (left-to-right source order).
func (vm *VM) execNewArray(count int) status {
	start := len(vm.stack) - count
	elems := make([]Value, count)
	copy(elems, vm.stack[start:])
	vm.stack = vm.stack[:start]
	return vm.push(ArrayValue(NewArrayInstance(elems)))
}

// execNewObject builds an object from count alternating (key, value)
// pairs, preserving source order as insertion order.
func (vm *VM) execNewObject(pairCount int) status {
	n := pairCount * 2
	start := len(vm.stack) - n
	obj := NewObjectInstance()
	for i := 0; i < pairCount; i++ {
		key := vm.stack[start+i*2]
		val := vm.stack[start+i*2+1]
		obj.Set(key.String(), val)
	}
	vm.stack = vm.stack[:start]
	return vm.push(ObjectValue(obj))
}

func (vm *VM) execGetIndex() status {
	key := vm.pop()
	obj := vm.pop()
	switch {
	case obj.IsArray():
		if !key.IsNumber() {
			return vm.runtimeError("array index must be a number")
		}
		v, ok := obj.AsArray().Get(int(key.AsNumber()))
		if !ok {
			return vm.push(NullValue())
		}
		return vm.push(v)
	case obj.IsObject():
		v, ok := obj.AsObject().Get(key.String())
		if !ok {
			return vm.push(NullValue())
		}
		return vm.push(v)
	case obj.IsString():
		if !key.IsNumber() {
			return vm.runtimeError("string index must be a number")
		}
		s := obj.AsString()
		i := int(key.AsNumber())
		if i < 0 || i >= len(s) {
			return vm.push(NullValue())
		}
		return vm.push(StringValue(string(s[i])))
	case obj.IsNative():
		n := obj.AsNative()
		if n.GetProperty == nil {
			return vm.push(NullValue())
		}
		v, ok := n.GetProperty(key.String())
		if !ok {
			return vm.push(NullValue())
		}
		return vm.push(v)
	case obj.IsNull():
		return vm.runtimeError("cannot read index of null")
	default:
		return vm.push(NullValue())
	}
}

func (vm *VM) execSetIndex() status {
	value := vm.pop()
	key := vm.pop()
	obj := vm.pop()
	switch {
	case obj.IsArray():
		if !key.IsNumber() {
			return vm.runtimeError("array index must be a number")
		}
		obj.AsArray().Set(int(key.AsNumber()), value)
	case obj.IsObject():
		obj.AsObject().Set(key.String(), value)
	case obj.IsNative():
		n := obj.AsNative()
		if n.SetProperty == nil {
			return vm.runtimeError("native object does not support property assignment")
		}
		if err := n.SetProperty(key.String(), value); err != nil {
			return vm.runtimeError("%v", err)
		}
	default:
		return vm.runtimeError("cannot set index on %s", obj.Type)
	}
	return vm.push(value)
}

// execGetProp reads a named property. Per the decided resolution of
// spec.md §9's "missing property" inconsistency, a miss always yields
// null, never a distinct "undefined".
func (vm *VM) execGetProp(name string) status {
	obj := vm.pop()
	switch {
	case obj.IsNative():
		n := obj.AsNative()
		if n.GetProperty == nil {
			return vm.push(NullValue())
		}
		v, ok := n.GetProperty(name)
		if !ok {
			return vm.push(NullValue())
		}
		return vm.push(v)
	case obj.IsObject():
		v, ok := obj.AsObject().Get(name)
		if !ok {
			return vm.push(NullValue())
		}
		return vm.push(v)
	case obj.IsArray():
		if name == "length" {
			return vm.push(NumberValue(float64(obj.AsArray().Len())))
		}
		return vm.push(NullValue())
	case obj.IsString():
		if name == "length" {
			return vm.push(NumberValue(float64(len(obj.AsString()))))
		}
		return vm.push(NullValue())
	case obj.IsNull():
		return vm.runtimeError("cannot read property '%s' of null", name)
	default:
		return vm.push(NullValue())
	}
}

func (vm *VM) execSetProp(name string) status {
	value := vm.pop()
	obj := vm.pop()
	switch {
	case obj.IsNative():
		n := obj.AsNative()
		if n.SetProperty == nil {
			return vm.runtimeError("native object does not support property assignment")
		}
		if err := n.SetProperty(name, value); err != nil {
			return vm.runtimeError("%v", err)
		}
	case obj.IsObject():
		obj.AsObject().Set(name, value)
	case obj.IsNull():
		return vm.runtimeError("cannot set property '%s' of null", name)
	default:
		return vm.runtimeError("cannot set property on %s", obj.Type)
	}
	return vm.push(value)
}

// getPrototypeOf implements GET_PROTOTYPE: a closure's prototype is
// lazily allocated on first request (spec.md §4.2 classes step 3).
func (vm *VM) getPrototypeOf(v Value) Value {
	switch {
	case v.IsClosure():
		cl := v.AsClosure()
		if cl.Prototype == nil {
			cl.Prototype = NewObjectInstance()
		}
		return ObjectValue(cl.Prototype)
	case v.IsObject():
		obj := v.AsObject()
		if obj.Prototype == nil {
			return NullValue()
		}
		return ObjectValue(obj.Prototype)
	default:
		return NullValue()
	}
}

func (vm *VM) execGetPrototype() status {
	return vm.push(vm.getPrototypeOf(vm.pop()))
}

// SetPrototypeOf validates and applies a prototype-link change on target
// (an object or closure). No opcode emits this directly — class bodies
// only ever read a fresh prototype via GET_PROTOTYPE (extends is out of
// scope, spec.md's Non-goals) — so this is reached solely through the
// `Object.setPrototypeOf` native builtin (internal/native/object.go),
// which shares this validation rather than re-implementing it (spec.md
// §7: "prototype must be object or null").
func (vm *VM) SetPrototypeOf(target, proto Value) error {
	var protoObj *ObjectInstance
	switch {
	case proto.IsObject():
		protoObj = proto.AsObject()
	case proto.IsNull():
		// protoObj stays nil: clears the prototype link.
	default:
		return fmt.Errorf("prototype must be object or null")
	}
	switch {
	case target.IsObject():
		target.AsObject().Prototype = protoObj
	case target.IsClosure():
		target.AsClosure().Prototype = protoObj
	default:
		return fmt.Errorf("prototype must be object or null")
	}
	return nil
}

func (vm *VM) execIncDecProp(name string, mode IncDecMode, isInc bool) status {
	top := vm.peek(0)
	if !top.IsObject() {
		return vm.runtimeError("INC_PROP/DEC_PROP target must be an object")
	}
	o := top.AsObject()
	cur, ok := o.GetOwn(name)
	if !ok || !cur.IsNumber() {
		return vm.runtimeError("property '%s' is not a numeric own property", name)
	}
	delta := -1.0
	if isInc {
		delta = 1.0
	}
	oldVal := cur
	newVal := NumberValue(cur.AsNumber() + delta)
	o.Set(name, newVal)

	switch mode {
	case ModeDiscard:
		return statusOK
	case ModePrefix:
		vm.pop()
		return vm.push(newVal)
	default: // ModePostfix
		vm.pop()
		return vm.push(oldVal)
	}
}
