package bytecode

import "math"

func (vm *VM) readByte(f *Frame) byte {
	b := f.chunk().Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readU16(f *Frame) int {
	hi := vm.readByte(f)
	lo := vm.readByte(f)
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readName(f *Frame, ix byte) string {
	return f.chunk().Constants[ix].AsString()
}

// run executes bytecode from the current frame until a status other than
// OK is produced: halt (no frames left), yield (AWAIT/YIELD suspended
// control), or a runtime error that escaped every handler (spec.md §4.3
// "Dispatch").
func (vm *VM) run() status {
	for {
		if len(vm.frames) == 0 {
			return statusHalt
		}
		f := vm.currentFrame()
		op := OpCode(vm.readByte(f))
		st := vm.dispatch(f, op)
		if st != statusOK {
			return st
		}
	}
}

func (vm *VM) dispatch(f *Frame, op OpCode) status {
	switch op {
	case OpPushConst:
		ix := vm.readByte(f)
		return vm.push(f.chunk().Constants[ix])
	case OpPushNull:
		return vm.push(NullValue())
	case OpPushTrue:
		return vm.push(BoolValue(true))
	case OpPushFalse:
		return vm.push(BoolValue(false))
	case OpPop:
		vm.pop()
		return statusOK
	case OpDuplicate:
		return vm.push(vm.peek(0))

	case OpAdd:
		b, a := vm.pop(), vm.pop()
		if a.IsString() || b.IsString() {
			return vm.push(StringValue(a.String() + b.String()))
		}
		if !a.IsNumber() || !b.IsNumber() {
			return vm.runtimeError("operands to + must both be numbers, or either a string")
		}
		return vm.push(NumberValue(a.AsNumber() + b.AsNumber()))
	case OpSub, OpMul, OpDiv, OpMod, OpPow, OpGt, OpLt, OpGe, OpLe:
		return vm.numericBinary(op)
	case OpEq:
		b, a := vm.pop(), vm.pop()
		return vm.push(BoolValue(StrictEquals(a, b)))
	case OpNeq:
		b, a := vm.pop(), vm.pop()
		return vm.push(BoolValue(!StrictEquals(a, b)))
	case OpNeg:
		a := vm.pop()
		if !a.IsNumber() {
			return vm.runtimeError("operand to unary - must be a number")
		}
		return vm.push(NumberValue(-a.AsNumber()))
	case OpNot:
		a := vm.pop()
		return vm.push(BoolValue(!a.Truthy()))

	case OpGetGlobal:
		name := vm.readName(f, vm.readByte(f))
		v, ok := vm.globals[name]
		if !ok {
			return vm.runtimeError("undefined global '%s'", name)
		}
		return vm.push(v)
	case OpSetGlobal:
		name := vm.readName(f, vm.readByte(f))
		if _, ok := vm.globals[name]; !ok {
			return vm.runtimeError("undefined global '%s'", name)
		}
		vm.globals[name] = vm.peek(0)
		return statusOK
	case OpDefineGlobal:
		name := vm.readName(f, vm.readByte(f))
		vm.globals[name] = vm.pop()
		return statusOK
	case OpGetLocal:
		slot := int(vm.readByte(f))
		return vm.push(vm.stack[f.stackBase+slot])
	case OpSetLocal:
		slot := int(vm.readByte(f))
		vm.stack[f.stackBase+slot] = vm.peek(0)
		return statusOK
	case OpGetUpvalue:
		ix := vm.readByte(f)
		return vm.push(f.closure.Upvalues[ix].get())
	case OpSetUpvalue:
		ix := vm.readByte(f)
		f.closure.Upvalues[ix].set(vm.peek(0))
		return statusOK
	case OpIncLocal, OpDecLocal:
		slot := int(vm.readByte(f))
		nv, st := vm.bumpNumber(vm.stack[f.stackBase+slot], op == OpIncLocal || op == OpIncGlobal || op == OpIncUpvalue)
		if st != statusOK {
			return st
		}
		vm.stack[f.stackBase+slot] = nv
		return vm.push(nv)
	case OpIncGlobal, OpDecGlobal:
		name := vm.readName(f, vm.readByte(f))
		cur, ok := vm.globals[name]
		if !ok {
			return vm.runtimeError("undefined global '%s'", name)
		}
		nv, st := vm.bumpNumber(cur, op == OpIncGlobal)
		if st != statusOK {
			return st
		}
		vm.globals[name] = nv
		return vm.push(nv)
	case OpIncUpvalue, OpDecUpvalue:
		ix := vm.readByte(f)
		uv := f.closure.Upvalues[ix]
		nv, st := vm.bumpNumber(uv.get(), op == OpIncUpvalue)
		if st != statusOK {
			return st
		}
		uv.set(nv)
		return vm.push(nv)

	case OpJump:
		off := vm.readU16(f)
		f.ip += off
		return statusOK
	case OpJumpIfFalse:
		off := vm.readU16(f)
		if !vm.peek(0).Truthy() {
			f.ip += off
		}
		return statusOK
	case OpLoop:
		off := vm.readU16(f)
		f.ip -= off
		return statusOK

	case OpSetupTry:
		off := vm.readU16(f)
		vm.handlers = append(vm.handlers, handlerRecord{
			catchIP:    f.ip + off,
			stackDepth: len(vm.stack),
			frameDepth: len(vm.frames) - 1,
		})
		return statusOK
	case OpPopCatch:
		if len(vm.handlers) > 0 {
			vm.handlers = vm.handlers[:len(vm.handlers)-1]
		}
		return statusOK
	case OpThrow:
		return vm.throwError(vm.pop())

	case OpCall:
		argc := int(vm.readByte(f))
		return vm.callValue(vm.peek(argc), argc, false)
	case OpCallMethod:
		nameIx := vm.readByte(f)
		argc := int(vm.readByte(f))
		return vm.execCallMethod(f, vm.readName(f, nameIx), argc)
	case OpReturn:
		return vm.execReturn()
	case OpClosure:
		return vm.execClosure(f)
	case OpCloseUpvalue:
		vm.closeUpvaluesFrom(len(vm.stack) - 1)
		vm.pop()
		return statusOK

	case OpYield:
		return vm.execYield()
	case OpAwait:
		return vm.execAwait()

	case OpGetNative:
		name := vm.readName(f, vm.readByte(f))
		n, ok := vm.natives[name]
		if !ok {
			return vm.runtimeError("native '%s' is not registered", name)
		}
		return vm.push(NativeValue(n))
	case OpNewArray:
		count := int(vm.readByte(f))
		return vm.execNewArray(count)
	case OpNewObject:
		pairs := int(vm.readByte(f))
		return vm.execNewObject(pairs)
	case OpGetIndex:
		return vm.execGetIndex()
	case OpSetIndex:
		return vm.execSetIndex()
	case OpGetProp:
		name := vm.readName(f, vm.readByte(f))
		return vm.execGetProp(name)
	case OpSetProp:
		name := vm.readName(f, vm.readByte(f))
		return vm.execSetProp(name)
	case OpObjectCreate:
		return vm.push(ObjectValue(NewObjectInstance()))
	case OpGetPrototype:
		return vm.execGetPrototype()
	case OpNew:
		argc := int(vm.readByte(f))
		return vm.execNew(argc)
	case OpIncProp:
		name := vm.readName(f, vm.readByte(f))
		mode := IncDecMode(vm.readByte(f))
		return vm.execIncDecProp(name, mode, true)
	case OpDecProp:
		name := vm.readName(f, vm.readByte(f))
		mode := IncDecMode(vm.readByte(f))
		return vm.execIncDecProp(name, mode, false)
	}
	return vm.runtimeError("unknown opcode %d", byte(op))
}

func (vm *VM) numericBinary(op OpCode) status {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeError("operands to %s must be numbers", op)
	}
	x, y := a.AsNumber(), b.AsNumber()
	switch op {
	case OpSub:
		return vm.push(NumberValue(x - y))
	case OpMul:
		return vm.push(NumberValue(x * y))
	case OpDiv:
		if y == 0 {
			return vm.runtimeError("division by zero")
		}
		return vm.push(NumberValue(x / y))
	case OpMod:
		if y == 0 {
			return vm.runtimeError("modulo by zero")
		}
		return vm.push(NumberValue(math.Mod(x, y)))
	case OpPow:
		return vm.push(NumberValue(math.Pow(x, y)))
	case OpGt:
		return vm.push(BoolValue(x > y))
	case OpLt:
		return vm.push(BoolValue(x < y))
	case OpGe:
		return vm.push(BoolValue(x >= y))
	case OpLe:
		return vm.push(BoolValue(x <= y))
	}
	return vm.runtimeError("unreachable numeric opcode %s", op)
}

func (vm *VM) bumpNumber(cur Value, inc bool) (Value, status) {
	if !cur.IsNumber() {
		return Value{}, vm.runtimeError("operand to ++/-- must be a number")
	}
	delta := -1.0
	if inc {
		delta = 1.0
	}
	return NumberValue(cur.AsNumber() + delta), statusOK
}
