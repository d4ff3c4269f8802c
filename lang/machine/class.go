package machine

// ObjClass is a class value: its name and a method table mapping method
// name to either a closure or a native function. Single
// inheritance copies the superclass's method table into the subclass at
// OP_INHERIT time, so method lookup itself never walks a superclass
// chain at call time.
type ObjClass struct {
	Obj
	Name    *ObjString
	Methods Table
}

var (
	_ Value  = (*ObjClass)(nil)
	_ Object = (*ObjClass)(nil)
)

func (c *ObjClass) String() string { return c.Name.chars }
func (c *ObjClass) Type() string   { return "class" }

// ObjInstance is an instance of a class: a reference to its class and its
// own fields table.
type ObjInstance struct {
	Obj
	Class  *ObjClass
	Fields Table
}

var (
	_ Value  = (*ObjInstance)(nil)
	_ Object = (*ObjInstance)(nil)
)

func (i *ObjInstance) String() string { return i.Class.Name.chars + " instance" }
func (i *ObjInstance) Type() string   { return "object" }

// ObjBoundMethod binds a receiver value to a method, which may be either a
// closure or a native function.
type ObjBoundMethod struct {
	Obj
	Receiver Value
	Method   Value // *ObjClosure or *ObjNative
}

var (
	_ Value  = (*ObjBoundMethod)(nil)
	_ Object = (*ObjBoundMethod)(nil)
)

func (b *ObjBoundMethod) String() string {
	switch m := b.Method.(type) {
	case *ObjClosure:
		return m.String()
	case *ObjNative:
		return m.String()
	default:
		return "<bound method>"
	}
}
func (b *ObjBoundMethod) Type() string { return "function" }
