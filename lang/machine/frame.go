package machine

// CallFrame records one active call to a closure: which closure is
// executing, its instruction pointer, and the base stack slot where its
// locals begin.
type CallFrame struct {
	closure *ObjClosure
	ip      int
	slots   int // index into vm.stack of this frame's slot 0
}

func (fr *CallFrame) chunk() *Chunk { return &fr.closure.Function.Chunk }

func (fr *CallFrame) line() int {
	if fr.ip > 0 && fr.ip-1 < len(fr.chunk().Lines) {
		return fr.chunk().Lines[fr.ip-1]
	}
	return 0
}
