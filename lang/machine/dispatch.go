package machine

import "fmt"

// run executes bytecode starting from the current top call frame until the
// frame count drops back to zero, implementing every opcode the compiler
// emits.
func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]

	for {
		chunk := frame.chunk()
		op := Opcode(chunk.Code[frame.ip])
		frame.ip++

		switch op {
		case OpConstant:
			idx := chunk.Code[frame.ip]
			frame.ip++
			vm.push(chunk.Constants[idx])

		case OpNil:
			vm.push(NilValue)
		case OpTrue:
			vm.push(Bool(true))
		case OpFalse:
			vm.push(Bool(false))
		case OpPop:
			vm.pop()
		case OpDup:
			vm.push(vm.peek(0))

		case OpGetLocal:
			slot := chunk.Code[frame.ip]
			frame.ip++
			vm.push(vm.stack[frame.slots+int(slot)])
		case OpSetLocal:
			slot := chunk.Code[frame.ip]
			frame.ip++
			vm.stack[frame.slots+int(slot)] = vm.peek(0)

		case OpGetGlobal:
			name := vm.readString(chunk, frame)
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("undefined variable '%s'", name.chars)
			}
			vm.push(v)
		case OpSetGlobal:
			name := vm.readString(chunk, frame)
			if vm.globals.Set(vm, name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("undefined variable '%s'", name.chars)
			}
		case OpDefineGlobal:
			name := vm.readString(chunk, frame)
			vm.globals.Set(vm, name, vm.peek(0))
			vm.pop()

		case OpGetUpvalue:
			slot := chunk.Code[frame.ip]
			frame.ip++
			vm.push(frame.closure.Upvalues[slot].get())
		case OpSetUpvalue:
			slot := chunk.Code[frame.ip]
			frame.ip++
			frame.closure.Upvalues[slot].set(vm.peek(0))

		case OpGetProperty:
			name := vm.readString(chunk, frame)
			switch receiver := vm.peek(0).(type) {
			case *ObjInstance:
				if v, ok := receiver.Fields.Get(name); ok {
					vm.pop()
					vm.push(v)
					break
				}
				if method, ok := receiver.Class.Methods.Get(name); ok {
					vm.pop()
					vm.push(vm.newBoundMethod(receiver, method))
					break
				}
				return vm.runtimeError("undefined property '%s'", name.chars)
			case *ObjList:
				if err := vm.bindNativeMethod(&vm.listMethods, receiver, name); err != nil {
					return err
				}
			case *ObjMap:
				if err := vm.bindNativeMethod(&vm.mapMethods, receiver, name); err != nil {
					return err
				}
			case *ObjString:
				if err := vm.bindNativeMethod(&vm.stringMethods, receiver, name); err != nil {
					return err
				}
			default:
				return vm.runtimeError("only instances have properties")
			}
		case OpSetProperty:
			name := vm.readString(chunk, frame)
			instance, ok := vm.peek(1).(*ObjInstance)
			if !ok {
				return vm.runtimeError("only instances have fields")
			}
			instance.Fields.Set(vm, name, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)
		case OpGetSuper:
			name := vm.readString(chunk, frame)
			super := vm.pop().(*ObjClass)
			instance := vm.pop()
			method, ok := super.Methods.Get(name)
			if !ok {
				return vm.runtimeError("undefined property '%s'", name.chars)
			}
			vm.push(vm.newBoundMethod(instance, method))

		case OpList:
			n := int(chunk.Code[frame.ip])
			frame.ip++
			elems := make([]Value, n)
			copy(elems, vm.stack[vm.stackTop-n:vm.stackTop])
			vm.stackTop -= n
			vm.push(vm.newList(elems))
		case OpGetIndex:
			if err := vm.getIndex(); err != nil {
				return err
			}
		case OpSetIndex:
			if err := vm.setIndex(); err != nil {
				return err
			}
		case OpShiftIndex:
			if err := vm.shiftIndex(); err != nil {
				return err
			}
		case OpMapInit:
			vm.push(vm.newMap())
		case OpMapData:
			value := vm.pop()
			key := vm.pop()
			m := vm.peek(0).(*ObjMap)
			ks, ok := key.(*ObjString)
			if !ok {
				return vm.runtimeError("map keys must be strings")
			}
			m.Entries.Set(vm, ks, value)

		case OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(Bool(Equal(a, b)))
		case OpGreater:
			if err := vm.numericCompare(func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case OpLess:
			if err := vm.numericCompare(func(a, b float64) bool { return a < b }); err != nil {
				return err
			}
		case OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case OpSubtract:
			if err := vm.numericBinary(func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case OpMultiply:
			if err := vm.numericBinary(func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case OpDivide:
			if err := vm.numericBinary(func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}
		case OpNot:
			vm.push(Bool(!Truth(vm.pop())))
		case OpNegate:
			n, ok := vm.peek(0).(Number)
			if !ok {
				return vm.runtimeError("operand must be a number")
			}
			vm.pop()
			vm.push(-n)
		case OpInc:
			n, ok := vm.peek(0).(Number)
			if !ok {
				return vm.runtimeError("operand must be a number")
			}
			vm.pop()
			vm.push(n + 1)
		case OpDec:
			n, ok := vm.peek(0).(Number)
			if !ok {
				return vm.runtimeError("operand must be a number")
			}
			vm.pop()
			vm.push(n - 1)

		case OpPrint:
			fmt.Fprintln(vm.Stdout, vm.pop().String())

		case OpJump:
			off := vm.readShort(chunk, frame)
			frame.ip += int(off)
		case OpJumpIfFalse:
			off := vm.readShort(chunk, frame)
			if !Truth(vm.peek(0)) {
				frame.ip += int(off)
			}
		case OpLoop:
			off := vm.readShort(chunk, frame)
			frame.ip -= int(off)

		case OpCall:
			argCount := int(chunk.Code[frame.ip])
			frame.ip++
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]
		case OpInvoke:
			name := vm.readString(chunk, frame)
			argCount := int(chunk.Code[frame.ip])
			frame.ip++
			if err := vm.invoke(name, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]
		case OpSuperInvoke:
			name := vm.readString(chunk, frame)
			argCount := int(chunk.Code[frame.ip])
			frame.ip++
			super := vm.pop().(*ObjClass)
			if err := vm.invokeFromClass(super, name, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpClosure:
			fn := chunk.Constants[chunk.Code[frame.ip]].(*ObjFunction)
			frame.ip++
			closure := vm.newClosure(fn)
			vm.push(closure)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := chunk.Code[frame.ip]
				frame.ip++
				index := chunk.Code[frame.ip]
				frame.ip++
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slots + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
		case OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()
		case OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.slots
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case OpClass:
			name := vm.readString(chunk, frame)
			vm.push(vm.newClass(name))
		case OpInherit:
			super, ok := vm.peek(1).(*ObjClass)
			if !ok {
				return vm.runtimeError("superclass must be a class")
			}
			sub := vm.peek(0).(*ObjClass)
			sub.Methods.AddAll(vm, &super.Methods)
			vm.pop()
		case OpMethod:
			name := vm.readString(chunk, frame)
			vm.defineMethod(name)

		default:
			return vm.runtimeError("unknown opcode %d", op)
		}
	}
}

func (vm *VM) readString(chunk *Chunk, frame *CallFrame) *ObjString {
	idx := chunk.Code[frame.ip]
	frame.ip++
	return chunk.Constants[idx].(*ObjString)
}

func (vm *VM) readShort(chunk *Chunk, frame *CallFrame) uint16 {
	hi := chunk.Code[frame.ip]
	lo := chunk.Code[frame.ip+1]
	frame.ip += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) numericBinary(op func(a, b float64) float64) error {
	b, ok1 := vm.peek(0).(Number)
	a, ok2 := vm.peek(1).(Number)
	if !ok1 || !ok2 {
		return vm.runtimeError("operands must be numbers")
	}
	vm.pop()
	vm.pop()
	vm.push(Number(op(float64(a), float64(b))))
	return nil
}

func (vm *VM) numericCompare(op func(a, b float64) bool) error {
	b, ok1 := vm.peek(0).(Number)
	a, ok2 := vm.peek(1).(Number)
	if !ok1 || !ok2 {
		return vm.runtimeError("operands must be numbers")
	}
	vm.pop()
	vm.pop()
	vm.push(Bool(op(float64(a), float64(b))))
	return nil
}

func (vm *VM) add() error {
	bStr, bIsStr := vm.peek(0).(*ObjString)
	aStr, aIsStr := vm.peek(1).(*ObjString)
	if aIsStr && bIsStr {
		vm.pop()
		vm.pop()
		vm.push(vm.internString(aStr.chars + bStr.chars))
		return nil
	}
	return vm.numericBinary(func(a, b float64) float64 { return a + b })
}

func (vm *VM) getIndex() error {
	index := vm.pop()
	switch coll := vm.pop().(type) {
	case *ObjList:
		n, ok := index.(Number)
		if !ok {
			return vm.runtimeError("list index must be a number")
		}
		i := int(n)
		if i < 0 || i >= len(coll.Elements) {
			return vm.runtimeError("list index out of range")
		}
		vm.push(coll.Elements[i])
	case *ObjMap:
		key, ok := index.(*ObjString)
		if !ok {
			return vm.runtimeError("map key must be a string")
		}
		v, ok := coll.Entries.Get(key)
		if !ok {
			return vm.runtimeError("undefined map key '%s'", key.chars)
		}
		vm.push(v)
	case *ObjString:
		n, ok := index.(Number)
		if !ok {
			return vm.runtimeError("string index must be a number")
		}
		i := int(n)
		if i < 0 || i >= len(coll.chars) {
			return vm.runtimeError("string index out of range")
		}
		vm.push(Number(coll.chars[i]))
	default:
		return vm.runtimeError("only lists, maps and strings support indexing")
	}
	return nil
}

// shiftIndex implements `a[] = v`: append v to list a.
func (vm *VM) shiftIndex() error {
	value := vm.pop()
	l, ok := vm.peek(0).(*ObjList)
	if !ok {
		return vm.runtimeError("'[] =' append target must be a list")
	}
	l.Elements = append(l.Elements, value)
	vm.pop()
	vm.push(value)
	return nil
}

func (vm *VM) setIndex() error {
	value := vm.pop()
	index := vm.pop()
	switch coll := vm.pop().(type) {
	case *ObjList:
		n, ok := index.(Number)
		if !ok {
			return vm.runtimeError("list index must be a number")
		}
		i := int(n)
		if i < 0 || i >= len(coll.Elements) {
			return vm.runtimeError("list index out of range")
		}
		coll.Elements[i] = value
		vm.push(value)
	case *ObjMap:
		key, ok := index.(*ObjString)
		if !ok {
			return vm.runtimeError("map key must be a string")
		}
		coll.Entries.Set(vm, key, value)
		vm.push(value)
	default:
		return vm.runtimeError("only lists and maps support indexed assignment")
	}
	return nil
}

// call pushes a new call frame for closure, validating arity and the call
// depth limit.
func (vm *VM) call(closure *ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("expected %d arguments but got %d", closure.Function.Arity, argCount)
	}
	if vm.frameCount == vm.cfg.MaxCallDepth {
		return vm.runtimeError("stack overflow")
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = vm.stackTop - argCount - 1
	return nil
}

// callValue dispatches a call to whatever callee turns out to be: a
// closure, a native, a class (construction), or a bound method.
func (vm *VM) callValue(callee Value, argCount int) error {
	switch c := callee.(type) {
	case *ObjClosure:
		return vm.call(c, argCount)
	case *ObjNative:
		return vm.callNative(c, argCount)
	case *ObjClass:
		vm.stack[vm.stackTop-argCount-1] = vm.newInstance(c)
		if initializer, ok := c.Methods.Get(vm.initString); ok {
			return vm.callValue(initializer, argCount)
		}
		if argCount != 0 {
			return vm.runtimeError("expected 0 arguments but got %d", argCount)
		}
		return nil
	case *ObjBoundMethod:
		vm.stack[vm.stackTop-argCount-1] = c.Receiver
		if native, ok := c.Method.(*ObjNative); ok {
			// native list/map/string methods expect the receiver as args[0],
			// which is exactly the slot just overwritten above.
			return vm.callNativeMethod(native, argCount)
		}
		return vm.callValue(c.Method, argCount)
	default:
		return vm.runtimeError("can only call functions and classes")
	}
}

func (vm *VM) callNative(native *ObjNative, argCount int) error {
	if native.Arity >= 0 && argCount != native.Arity {
		return vm.runtimeError("expected %d arguments but got %d", native.Arity, argCount)
	}
	args := vm.stack[vm.stackTop-argCount : vm.stackTop]
	result, err := native.Fn(vm, args)
	if err != nil {
		return vm.runtimeError("%s", err.Error())
	}
	vm.stackTop -= argCount + 1
	vm.push(result)
	return nil
}

// invoke resolves and calls a method or field access in one step, the
// fast path OP_INVOKE exists to avoid materializing a bound method
// object for the common obj.method(args) shape.
func (vm *VM) invoke(name *ObjString, argCount int) error {
	switch receiver := vm.peek(argCount).(type) {
	case *ObjInstance:
		if field, ok := receiver.Fields.Get(name); ok {
			vm.stack[vm.stackTop-argCount-1] = field
			return vm.callValue(field, argCount)
		}
		return vm.invokeFromClass(receiver.Class, name, argCount)
	case *ObjList:
		return vm.invokeNativeMethod(&vm.listMethods, name, argCount)
	case *ObjMap:
		return vm.invokeNativeMethod(&vm.mapMethods, name, argCount)
	case *ObjString:
		return vm.invokeNativeMethod(&vm.stringMethods, name, argCount)
	default:
		return vm.runtimeError("only instances have methods")
	}
}

// bindNativeMethod replaces the receiver on top of the stack with a bound
// method referencing it, for a bare `a.push` property access (no call)
// on a list, map or string. OP_INVOKE bypasses this to call the native
// directly without materializing an ObjBoundMethod.
func (vm *VM) bindNativeMethod(methods *Table, receiver Value, name *ObjString) error {
	m, ok := methods.Get(name)
	if !ok {
		return vm.runtimeError("undefined method '%s'", name.chars)
	}
	vm.pop()
	vm.push(vm.newBoundMethod(receiver, m))
	return nil
}

func (vm *VM) invokeFromClass(class *ObjClass, name *ObjString, argCount int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("undefined property '%s'", name.chars)
	}
	return vm.callValue(method, argCount)
}

func (vm *VM) invokeNativeMethod(methods *Table, name *ObjString, argCount int) error {
	m, ok := methods.Get(name)
	if !ok {
		return vm.runtimeError("undefined method '%s'", name.chars)
	}
	return vm.callNativeMethod(m.(*ObjNative), argCount)
}

// callNativeMethod calls a built-in list/map/string method, whose receiver
// sits on the stack just below its arguments: unlike a
// plain native call, the callee itself was never pushed, so the receiver
// takes its place as args[0].
func (vm *VM) callNativeMethod(native *ObjNative, argCount int) error {
	if native.Arity >= 0 && argCount != native.Arity {
		return vm.runtimeError("expected %d arguments but got %d", native.Arity, argCount)
	}
	receiverSlot := vm.stackTop - argCount - 1
	args := append([]Value(nil), vm.stack[receiverSlot:vm.stackTop]...)
	result, err := native.Fn(vm, args)
	if err != nil {
		return vm.runtimeError("%s", err.Error())
	}
	vm.stackTop = receiverSlot
	vm.push(result)
	return nil
}

// captureUpvalue returns the open upvalue for the stack slot at
// localIndex, reusing an existing one if the open list already has it.
func (vm *VM) captureUpvalue(localIndex int) *ObjUpvalue {
	var prev *ObjUpvalue
	cur := vm.openUpvalues
	for cur != nil && cur.slot > localIndex {
		prev = cur
		cur = cur.next
	}
	if cur != nil && cur.slot == localIndex {
		return cur
	}

	created := &ObjUpvalue{location: &vm.stack[localIndex], slot: localIndex}
	vm.allocate(created, typeUpvalue, 0)
	created.next = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.next = created
	}
	return created
}

// closeUpvalues closes every open upvalue pointing at or above stack slot
// last, copying each one's value out of the stack and onto the heap.
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.slot >= last {
		uv := vm.openUpvalues
		uv.closed = *uv.location
		uv.location = &uv.closed
		vm.openUpvalues = uv.next
	}
}

func (vm *VM) defineMethod(name *ObjString) {
	method := vm.peek(0)
	class := vm.peek(1).(*ObjClass)
	class.Methods.Set(vm, name, method)
	vm.pop()
}
