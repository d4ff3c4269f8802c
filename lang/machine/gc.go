package machine

// This file implements the precise, non-moving, tri-color mark-and-sweep
// collector. Objects are allocated through vm.allocate, which is the sole
// entry point that links objects into the heap list. bytesAllocated grows
// in vm.allocate and vm.adjustBytes, either of which may run a collection
// cycle, and shrinks in sweep.

// allocate links a freshly-constructed heap object into the VM's object
// list and accounts for its size. Every concrete constructor (newString,
// newFunction, newClosure, ...) calls this exactly once. Any collection
// runs before o is linked into the list, so o itself is never swept by
// it; the values o refers to must already be reachable from a root (see
// the push-before-insert discipline in internString).
func (vm *VM) allocate(o Object, t ObjType, size int) {
	vm.bytesAllocated += int64(size)
	if vm.bytesAllocated > vm.nextGC || vm.cfg.StressGC {
		vm.collectGarbage()
	}

	h := o.object()
	h.objType = t
	h.marked = false
	h.next = vm.objects
	vm.objects = o
}

// adjustBytes is used by auxiliary heap structures (table backing
// arrays) that grow independently of a single Obj
// allocation, so that bytesAllocated still reflects total memory under
// management.
func (vm *VM) adjustBytes(delta int64) {
	vm.bytesAllocated += delta
	if delta > 0 && (vm.bytesAllocated > vm.nextGC || vm.cfg.StressGC) {
		vm.collectGarbage()
	}
}

func (vm *VM) collectGarbage() {
	vm.markRoots()
	vm.traceReferences()
	vm.strings.removeWhite()
	vm.sweep()

	vm.nextGC = vm.bytesAllocated * int64(vm.cfg.GCGrowFactor)
	if vm.nextGC < vm.cfg.GCInitialThreshold {
		vm.nextGC = vm.cfg.GCInitialThreshold
	}
}

// markRoots marks every GC root: the value stack, every call frame's
// closure, all open upvalues, the globals table, the compiler's in-flight
// functions, the interned "init" string, and the built-in method tables
// for lists, maps and strings.
func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.next {
		vm.markObject(uv)
	}
	vm.globals.markTable(vm)
	for _, root := range vm.compilerRoots {
		vm.markObject(root)
	}
	vm.markObject(vm.initString)
	vm.listMethods.markTable(vm)
	vm.mapMethods.markTable(vm)
	vm.stringMethods.markTable(vm)
}

func (vm *VM) markValue(v Value) {
	if o, ok := v.(Object); ok {
		vm.markObject(o)
	}
}

func (vm *VM) markObject(o Object) {
	if o == nil {
		return
	}
	h := o.object()
	if h.marked {
		return
	}
	h.marked = true
	vm.grayStack = append(vm.grayStack, o)
}

// traceReferences drains the gray stack, blackening each object by
// marking everything it references.
func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		n := len(vm.grayStack) - 1
		o := vm.grayStack[n]
		vm.grayStack = vm.grayStack[:n]
		vm.blackenObject(o)
	}
}

func (vm *VM) blackenObject(o Object) {
	switch v := o.(type) {
	case *ObjString, *ObjNative:
		// no outgoing references
	case *ObjUpvalue:
		vm.markValue(v.closed)
	case *ObjFunction:
		vm.markObject(v.Name)
		for _, c := range v.Chunk.Constants {
			vm.markValue(c)
		}
	case *ObjClosure:
		vm.markObject(v.Function)
		for _, u := range v.Upvalues {
			vm.markObject(u)
		}
	case *ObjClass:
		vm.markObject(v.Name)
		v.Methods.markTable(vm)
	case *ObjInstance:
		vm.markObject(v.Class)
		v.Fields.markTable(vm)
	case *ObjBoundMethod:
		vm.markValue(v.Receiver)
		vm.markValue(v.Method)
	case *ObjList:
		for _, e := range v.Elements {
			vm.markValue(e)
		}
	case *ObjMap:
		v.Entries.markTable(vm)
	}
}

// sweep walks the heap's object list, freeing everything left unmarked
// (white) by the trace phase and resetting the mark bit of every
// survivor for the next cycle.
func (vm *VM) sweep() {
	var prev Object
	cur := vm.objects
	for cur != nil {
		h := cur.object()
		if h.marked {
			h.marked = false
			prev = cur
			cur = h.next
			continue
		}

		unreached := cur
		cur = h.next
		if prev != nil {
			prev.object().next = cur
		} else {
			vm.objects = cur
		}
		vm.bytesAllocated -= int64(objectSize(unreached))
	}
}

// objectSize approximates the heap footprint of o, for GC accounting
// purposes. It need not be exact: it only drives the allocation-threshold
// heuristic.
func objectSize(o Object) int {
	switch v := o.(type) {
	case *ObjString:
		return 24 + len(v.chars)
	case *ObjFunction:
		return 64 + len(v.Chunk.Code) + len(v.Chunk.Lines)*8 + len(v.Chunk.Constants)*16
	case *ObjNative:
		return 32
	case *ObjClosure:
		return 24 + len(v.Upvalues)*8
	case *ObjUpvalue:
		return 24
	case *ObjClass:
		return 32 + len(v.Methods.entries)*entrySize
	case *ObjInstance:
		return 24 + len(v.Fields.entries)*entrySize
	case *ObjBoundMethod:
		return 24
	case *ObjList:
		return 24 + cap(v.Elements)*16
	case *ObjMap:
		return 24 + len(v.Entries.entries)*entrySize
	default:
		return 16
	}
}
