// Package compiler implements the single-pass Pratt parser that turns
// glox source text directly into the bytecode chunks the machine package
// executes: there is no separate AST or resolver pass; scope resolution,
// upvalue capture and bytecode emission all happen while parsing.
package compiler

import (
	"fmt"
	"os"

	"github.com/mna/glox/lang/machine"
	"github.com/mna/glox/lang/scanner"
	"github.com/mna/glox/lang/token"
)

// funcType discriminates the kind of function currently being compiled,
// which changes how `return` and the synthetic slot-0 local behave.
type funcType int

const (
	typeFunction funcType = iota
	typeScript
	typeMethod
	typeInitializer
)

const (
	maxLocals   = 256
	maxUpvalues = 256
	maxArgs     = 255
	maxListElem = 255
)

type local struct {
	name     string
	depth    int
	captured bool
}

type upvalueRef struct {
	index   uint8
	isLocal bool
}

// funcState is one frame of the compiler's function stack: the
// innermost entry is whatever function is currently being parsed into.
type funcState struct {
	enclosing *funcState

	fn       *machine.ObjFunction
	fnType   funcType
	locals   []local
	upvalues []upvalueRef
	scope    int
}

// loopState tracks the innermost enclosing loop, for `continue`, and
// breakState tracks the innermost break-accepting construct (loop or
// switch), for `break`. Both replace the source's shared mutable globals
// with an explicit stack carried by the compiler.
type loopState struct {
	enclosing  *loopState
	scope      int
	continueAt int // instruction offset of the continue target
}

type breakState struct {
	enclosing *breakState
	scope     int
	jumps     []int // forward OP_JUMP offsets to patch once the construct ends
}

type classState struct {
	enclosing *classState
	hasSuper  bool
	name      string
}

// Compiler drives the single parsing+emission pass over one source file.
type Compiler struct {
	vm  *machine.VM
	sc  scanner.Scanner
	cur token.Token
	prv token.Token

	hadError  bool
	panicMode bool

	fs    *funcState
	loop  *loopState
	brk   *breakState
	class *classState

	stderr *os.File
}

// Compile parses source into a top-level script Function ready to be run
// as a zero-upvalue closure by machine.VM.Run. The second return value is
// false if any compile error was reported.
func Compile(vm *machine.VM, source string) (*machine.ObjFunction, bool) {
	c := &Compiler{vm: vm, stderr: os.Stderr}
	c.sc.Init([]byte(source))

	c.fs = &funcState{fn: vm.NewFunction(), fnType: typeScript}
	c.fs.locals = append(c.fs.locals, local{name: "", depth: 0})
	vm.PushCompilerRoot(c.fs.fn)
	defer vm.PopCompilerRoot()

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}

	fn := c.endCompiler()
	return fn, !c.hadError
}

func (c *Compiler) advance() {
	c.prv = c.cur
	for {
		c.cur = c.sc.Scan()
		if c.cur.Kind != token.ERROR {
			break
		}
		c.errorAtCurrent(c.cur.Lexeme)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.cur.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, message string) {
	if c.cur.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.cur, message) }
func (c *Compiler) error(message string)          { c.errorAt(c.prv, message) }

func (c *Compiler) errorAt(t token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	if t.Kind == token.EOF {
		fmt.Fprintf(c.stderr, "[line %d] Error at end: %s\n", t.Line, message)
	} else if t.Kind == token.ERROR {
		fmt.Fprintf(c.stderr, "[line %d] Error: %s\n", t.Line, message)
	} else {
		fmt.Fprintf(c.stderr, "[line %d] Error at '%s': %s\n", t.Line, t.Lexeme, message)
	}
}

// synchronize recovers from a syntax error by skipping to the next
// statement boundary.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.cur.Kind != token.EOF {
		if c.prv.Kind == token.SEMI {
			return
		}
		switch c.cur.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

func (c *Compiler) chunk() *machine.Chunk { return &c.fs.fn.Chunk }

func (c *Compiler) endCompiler() *machine.ObjFunction {
	c.emitReturn()
	fn := c.fs.fn
	if c.fs.enclosing != nil {
		c.fs = c.fs.enclosing
	}
	return fn
}
