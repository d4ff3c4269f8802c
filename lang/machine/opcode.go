package machine

// Opcode is a single bytecode instruction. Every opcode is
// one byte; some are followed by inline operands.
type Opcode uint8

const (
	OpConstant     Opcode = iota // idx8
	OpNil                        //
	OpTrue                       //
	OpFalse                      //
	OpPop                        //
	OpDup                        //
	OpGetLocal                   // slot8
	OpSetLocal                   // slot8
	OpGetGlobal                  // name8
	OpSetGlobal                  // name8
	OpDefineGlobal               // name8
	OpGetUpvalue                 // slot8
	OpSetUpvalue                 // slot8
	OpGetProperty                // name8
	OpSetProperty                // name8
	OpGetSuper                   // name8
	OpList                       // n8
	OpGetIndex                   //
	OpSetIndex                   //
	OpShiftIndex                 //
	OpMapInit                    //
	OpMapData                    //
	OpEqual                      //
	OpGreater                    //
	OpLess                       //
	OpAdd                        //
	OpSubtract                   //
	OpMultiply                   //
	OpDivide                     //
	OpNot                        //
	OpNegate                     //
	OpInc                        //
	OpDec                        //
	OpPrint                      //
	OpJump                       // off16
	OpJumpIfFalse                // off16
	OpLoop                       // off16
	OpCall                       // argc8
	OpInvoke                     // name8 argc8
	OpSuperInvoke                // name8 argc8
	OpReturn                     //
	OpClosure                    // const8 (isLocal8 index8)*upvalueCount
	OpCloseUpvalue               //
	OpClass                      // name8
	OpInherit                    //
	OpMethod                     // name8
)

// Chunk is a function's compiled bytecode: the instruction stream, a
// parallel per-byte line table for error reporting, and the constant pool
// indexed by the 8-bit operand of OpConstant.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
}

// Write appends a byte of bytecode, recording the source line it came
// from.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constant pool and returns its index. The
// compiler is responsible for enforcing the 256-constant limit.
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}
