package machine

// ObjType discriminates the kind of a heap-allocated object.
type ObjType uint8

const (
	typeString ObjType = iota
	typeFunction
	typeNative
	typeClosure
	typeUpvalue
	typeClass
	typeInstance
	typeBoundMethod
	typeList
	typeMap
)

// Obj is the common header embedded by every heap object: a type tag, a GC
// mark bit, and the intrusive next pointer that threads every live object
// into the heap's singly-linked object list.
type Obj struct {
	objType ObjType
	marked  bool
	next    Object
}

// Object is implemented by every heap-allocated value. Embedding Obj gives a
// concrete type the object() method via promotion, so it automatically
// satisfies this interface.
type Object interface {
	Value
	object() *Obj
}

func (o *Obj) object() *Obj { return o }

// isMarked reports whether the object's GC mark bit is set.
func (o *Obj) isMarked() bool { return o.marked }
