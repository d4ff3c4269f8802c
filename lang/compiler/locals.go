package compiler

import "github.com/mna/glox/lang/machine"

func (c *Compiler) beginScope() { c.fs.scope++ }

// endScope pops every local declared in the scope just left: captured
// locals close their upvalue, the rest are plain pops.
func (c *Compiler) endScope() {
	c.fs.scope--
	locals := c.fs.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.fs.scope {
		if locals[len(locals)-1].captured {
			c.emitOp(machine.OpCloseUpvalue)
		} else {
			c.emitOp(machine.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	c.fs.locals = locals
}

// declareVariable registers the variable being declared as a Local of the
// current function, unless we're at global scope (depth 0), where
// variables are resolved by name at runtime instead.
func (c *Compiler) declareVariable(name string) {
	if c.fs.scope == 0 {
		return
	}

	for i := len(c.fs.locals) - 1; i >= 0; i-- {
		l := c.fs.locals[i]
		if l.depth != -1 && l.depth < c.fs.scope {
			break
		}
		if l.name == name {
			c.error("already a variable with this name in this scope")
		}
	}

	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.fs.locals) >= maxLocals {
		c.error("too many local variables in function")
		return
	}
	c.fs.locals = append(c.fs.locals, local{name: name, depth: -1})
}

// markInitialized sets the most recently declared local's depth, making
// it visible to resolution. Top-level function declarations have no
// enclosing local to mark.
func (c *Compiler) markInitialized() {
	if c.fs.scope == 0 {
		return
	}
	c.fs.locals[len(c.fs.locals)-1].depth = c.fs.scope
}

// resolveLocal searches fs's locals innermost-first for name, returning
// its slot index or -1 if name is not a local of this function.
func resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			if fs.locals[i].depth == -1 {
				return -2 // sentinel: reading a local in its own initializer
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue recursively asks enclosing function states to resolve
// name, threading it through as a captured upvalue at every level between
// its defining function and fs.
func (c *Compiler) resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}

	local := resolveLocal(fs.enclosing, name)
	if local == -2 {
		return -2
	}
	if local >= 0 {
		fs.enclosing.locals[local].captured = true
		return c.addUpvalue(fs, uint8(local), true)
	}

	if upvalue := c.resolveUpvalue(fs.enclosing, name); upvalue >= 0 {
		return c.addUpvalue(fs, uint8(upvalue), false)
	}
	return -1
}

// addUpvalue dedupes by (index, isLocal) before appending a new upvalue
// slot.
func (c *Compiler) addUpvalue(fs *funcState, index uint8, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= maxUpvalues {
		c.error("too many closure variables in function")
		return 0
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fs.fn.UpvalueCount = len(fs.upvalues)
	return len(fs.upvalues) - 1
}
