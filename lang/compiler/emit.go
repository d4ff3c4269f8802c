package compiler

import "github.com/mna/glox/lang/machine"

func (c *Compiler) emitByte(b byte) {
	c.chunk().Write(b, c.prv.Line)
}

func (c *Compiler) emitOp(op machine.Opcode) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitOps(op machine.Opcode, operand byte) {
	c.emitByte(byte(op))
	c.emitByte(operand)
}

func (c *Compiler) emitReturn() {
	if c.fs.fnType == typeInitializer {
		c.emitOps(machine.OpGetLocal, 0)
	} else {
		c.emitOp(machine.OpNil)
	}
	c.emitOp(machine.OpReturn)
}

// emitConstant adds v to the current chunk's constant pool and emits the
// OP_CONSTANT instruction loading it.
func (c *Compiler) emitConstant(v machine.Value) {
	c.emitOps(machine.OpConstant, c.makeConstant(v))
}

func (c *Compiler) makeConstant(v machine.Value) byte {
	idx := c.chunk().AddConstant(v)
	if idx > 255 {
		c.error("too many constants in one chunk")
		return 0
	}
	return byte(idx)
}

// identifierConstant interns name and adds it to the constant pool,
// returning its 8-bit index, for use as the operand to opcodes like
// OP_GET_GLOBAL that name a variable/property/method by string.
func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(c.vm.InternString(name))
}

// emitJump writes a two-byte placeholder operand (patched later by
// patchJump) after the given jump opcode, and returns the offset of the
// first placeholder byte.
func (c *Compiler) emitJump(op machine.Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("too much code to jump over")
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump & 0xff)
}

// emitLoop emits OP_LOOP with an offset that jumps the IP back to
// loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(machine.OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("loop body too large")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}
