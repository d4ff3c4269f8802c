package machine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dolthub/swiss"
)

// registerBuiltins assembles the VM's global natives and the per-type
// method tables for lists, maps and strings. The natives are first
// collected into a swiss.Map and then copied one-by-one into the
// runtime's own open-addressed Table: the registry itself never needs to
// share the runtime table's tombstone/probing invariants, only its final
// contents do.
func (vm *VM) registerBuiltins() {
	globals := swiss.NewMap[string, *ObjNative](8)
	globals.Put("clock", vm.newNative("clock", 0, builtinClock))
	globals.Put("len", vm.newNative("len", 1, builtinLen))
	globals.Put("type", vm.newNative("type", 1, builtinType))
	globals.Put("str", vm.newNative("str", 1, builtinStr))
	globals.Put("toNumber", vm.newNative("toNumber", 1, builtinToNumber))
	globals.Put("Map", vm.newNative("Map", 0, builtinMap))

	globals.Iter(func(name string, fn *ObjNative) bool {
		vm.globals.Set(vm, vm.internString(name), fn)
		return false
	})

	lists := swiss.NewMap[string, *ObjNative](8)
	lists.Put("push", vm.newNative("push", -1, listPush))
	lists.Put("pop", vm.newNative("pop", 0, listPop))
	lists.Put("insertAt", vm.newNative("insertAt", 2, listInsertAt))
	lists.Put("remove", vm.newNative("remove", 1, listRemove))
	lists.Put("size", vm.newNative("size", 0, listSize))
	lists.Put("clear", vm.newNative("clear", 0, listClear))
	lists.Iter(func(name string, fn *ObjNative) bool {
		vm.listMethods.Set(vm, vm.internString(name), fn)
		return false
	})

	maps := swiss.NewMap[string, *ObjNative](8)
	maps.Put("get", vm.newNative("get", 1, mapGet))
	maps.Put("set", vm.newNative("set", 2, mapSet))
	maps.Put("has", vm.newNative("has", 1, mapHas))
	maps.Put("remove", vm.newNative("remove", 1, mapRemove))
	maps.Put("size", vm.newNative("size", 0, mapSize))
	maps.Iter(func(name string, fn *ObjNative) bool {
		vm.mapMethods.Set(vm, vm.internString(name), fn)
		return false
	})

	strs := swiss.NewMap[string, *ObjNative](4)
	strs.Put("len", vm.newNative("len", 0, stringLen))
	strs.Iter(func(name string, fn *ObjNative) bool {
		vm.stringMethods.Set(vm, vm.internString(name), fn)
		return false
	})
}

func builtinClock(vm *VM, args []Value) (Value, error) {
	return Number(time.Since(vm.startTime).Seconds()), nil
}

// builtinMap constructs an empty map; map literal syntax is reserved for a
// future revision, so this is the only construction path.
func builtinMap(vm *VM, args []Value) (Value, error) {
	return vm.newMap(), nil
}

func builtinLen(vm *VM, args []Value) (Value, error) {
	switch v := args[0].(type) {
	case *ObjString:
		return Number(v.Len()), nil
	case *ObjList:
		return Number(len(v.Elements)), nil
	case *ObjMap:
		return Number(v.Entries.LiveCount()), nil
	default:
		return nil, fmt.Errorf("len() requires a string, list or map")
	}
}

func builtinType(vm *VM, args []Value) (Value, error) {
	return vm.internString(args[0].Type()), nil
}

func builtinStr(vm *VM, args []Value) (Value, error) {
	return vm.internString(args[0].String()), nil
}

func builtinToNumber(vm *VM, args []Value) (Value, error) {
	switch v := args[0].(type) {
	case Number:
		return v, nil
	case *ObjString:
		f, err := strconv.ParseFloat(v.chars, 64)
		if err != nil {
			return nil, fmt.Errorf("toNumber(): %q is not a number", v.chars)
		}
		return Number(f), nil
	default:
		return nil, fmt.Errorf("toNumber() requires a string or number")
	}
}

func listReceiver(args []Value) (*ObjList, []Value) {
	// invokeNativeMethod leaves the receiver as args[0] and the call's own
	// arguments following it, mirroring how OP_INVOKE finds the receiver at
	// the bottom of its argument window.
	return args[0].(*ObjList), args[1:]
}

func listPush(vm *VM, args []Value) (Value, error) {
	l, rest := listReceiver(args)
	l.Elements = append(l.Elements, rest...)
	return l, nil
}

func listPop(vm *VM, args []Value) (Value, error) {
	l, _ := listReceiver(args)
	if len(l.Elements) == 0 {
		return nil, fmt.Errorf("pop() from an empty list")
	}
	last := l.Elements[len(l.Elements)-1]
	l.Elements = l.Elements[:len(l.Elements)-1]
	return last, nil
}

func listInsertAt(vm *VM, args []Value) (Value, error) {
	l, rest := listReceiver(args)
	n, ok := rest[0].(Number)
	if !ok {
		return nil, fmt.Errorf("insertAt() index must be a number")
	}
	i := int(n)
	if i < 0 || i > len(l.Elements) {
		return nil, fmt.Errorf("insertAt() index out of range")
	}
	l.Elements = append(l.Elements, NilValue)
	copy(l.Elements[i+1:], l.Elements[i:])
	l.Elements[i] = rest[1]
	return NilValue, nil
}

func listRemove(vm *VM, args []Value) (Value, error) {
	l, rest := listReceiver(args)
	n, ok := rest[0].(Number)
	if !ok {
		return nil, fmt.Errorf("remove() index must be a number")
	}
	i := int(n)
	if i < 0 || i >= len(l.Elements) {
		return nil, fmt.Errorf("remove() index out of range")
	}
	removed := l.Elements[i]
	l.Elements = append(l.Elements[:i], l.Elements[i+1:]...)
	return removed, nil
}

func listSize(vm *VM, args []Value) (Value, error) {
	l, _ := listReceiver(args)
	return Number(len(l.Elements)), nil
}

func listClear(vm *VM, args []Value) (Value, error) {
	l, _ := listReceiver(args)
	l.Elements = nil
	return NilValue, nil
}

func mapReceiver(args []Value) (*ObjMap, []Value) {
	return args[0].(*ObjMap), args[1:]
}

func mapGet(vm *VM, args []Value) (Value, error) {
	m, rest := mapReceiver(args)
	key, ok := rest[0].(*ObjString)
	if !ok {
		return nil, fmt.Errorf("get() key must be a string")
	}
	v, ok := m.Entries.Get(key)
	if !ok {
		return NilValue, nil
	}
	return v, nil
}

func mapSet(vm *VM, args []Value) (Value, error) {
	m, rest := mapReceiver(args)
	key, ok := rest[0].(*ObjString)
	if !ok {
		return nil, fmt.Errorf("set() key must be a string")
	}
	m.Entries.Set(vm, key, rest[1])
	return NilValue, nil
}

func mapHas(vm *VM, args []Value) (Value, error) {
	m, rest := mapReceiver(args)
	key, ok := rest[0].(*ObjString)
	if !ok {
		return nil, fmt.Errorf("has() key must be a string")
	}
	_, found := m.Entries.Get(key)
	return Bool(found), nil
}

func mapRemove(vm *VM, args []Value) (Value, error) {
	m, rest := mapReceiver(args)
	key, ok := rest[0].(*ObjString)
	if !ok {
		return nil, fmt.Errorf("remove() key must be a string")
	}
	return Bool(m.Entries.Delete(key)), nil
}

func mapSize(vm *VM, args []Value) (Value, error) {
	m, _ := mapReceiver(args)
	return Number(m.Entries.LiveCount()), nil
}

func stringLen(vm *VM, args []Value) (Value, error) {
	s := args[0].(*ObjString)
	return Number(s.Len()), nil
}
