package machine

// ObjUpvalue references a variable captured by a closure. While open, it
// points into the VM's value stack; once the defining frame ends, the
// value is copied into closed and location is retargeted to point there.
// Open upvalues additionally form the VM's linked list of open upvalues,
// sorted by descending stack address.
type ObjUpvalue struct {
	Obj
	location *Value // points into the stack while open, or to &closed once closed
	slot     int    // stack index location refers to, while open
	closed   Value
	next     *ObjUpvalue // next (lower address) open upvalue in the VM's open list
}

var (
	_ Value  = (*ObjUpvalue)(nil)
	_ Object = (*ObjUpvalue)(nil)
)

func (u *ObjUpvalue) String() string { return "<upvalue>" }
func (u *ObjUpvalue) Type() string   { return "upvalue" }

func (u *ObjUpvalue) get() Value  { return *u.location }
func (u *ObjUpvalue) set(v Value) { *u.location = v }

// ObjClosure pairs a compiled function with the upvalues it has captured.
type ObjClosure struct {
	Obj
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

var (
	_ Value  = (*ObjClosure)(nil)
	_ Object = (*ObjClosure)(nil)
)

func (c *ObjClosure) String() string { return c.Function.String() }
func (c *ObjClosure) Type() string   { return "function" }
