package machine

// ObjFunction is a compiled function: its arity, the number of upvalues
// its closures must capture, its chunk of bytecode, and an optional name
// (unnamed for the top-level script).
type ObjFunction struct {
	Obj
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *ObjString // nil for the top-level script
}

var (
	_ Value  = (*ObjFunction)(nil)
	_ Object = (*ObjFunction)(nil)
)

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.chars + ">"
}
func (f *ObjFunction) Type() string { return "function" }

// ObjNative wraps a host function exposed to glox as a built-in. A
// non-nil error return signals a runtime error back to the VM.
type ObjNative struct {
	Obj
	Name  string
	Arity int // -1 means variadic
	Fn    func(vm *VM, args []Value) (Value, error)
}

var (
	_ Value  = (*ObjNative)(nil)
	_ Object = (*ObjNative)(nil)
)

func (n *ObjNative) String() string { return "<native fn " + n.Name + ">" }
func (n *ObjNative) Type() string   { return "native-function" }
