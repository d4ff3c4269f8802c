package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/machine"
)

func TestCompileSimpleArithmeticEmitsExpectedOpcodes(t *testing.T) {
	vm := machine.New(machine.DefaultConfig())
	defer vm.Close()

	fn, ok := compiler.Compile(vm, `print 1 + 2;`)
	require.True(t, ok)

	code := fn.Chunk.Code
	require.NotEmpty(t, code)
	assert.Equal(t, byte(machine.OpConstant), code[0])
	assert.Contains(t, code, byte(machine.OpAdd))
	assert.Contains(t, code, byte(machine.OpPrint))
	assert.Equal(t, byte(machine.OpReturn), code[len(code)-1])
}

func TestCompileReportsSyntaxError(t *testing.T) {
	vm := machine.New(machine.DefaultConfig())
	defer vm.Close()

	_, ok := compiler.Compile(vm, `var = ;`)
	assert.False(t, ok)
}

func TestCompileSynchronizesAfterError(t *testing.T) {
	vm := machine.New(machine.DefaultConfig())
	defer vm.Close()

	// the first statement is malformed, but the parser should recover at
	// the next statement boundary and still see the later var declaration.
	fn, ok := compiler.Compile(vm, `var = ; var x = 1; print x;`)
	assert.False(t, ok, "the malformed first statement still marks the compile a failure")
	require.NotNil(t, fn)
	assert.Contains(t, fn.Chunk.Code, byte(machine.OpPrint), "recovery should still compile the trailing print")
}

func TestCompileFunctionClosesOverUpvalue(t *testing.T) {
	vm := machine.New(machine.DefaultConfig())
	defer vm.Close()

	fn, ok := compiler.Compile(vm, `
		fun make() {
			var n = 0;
			fun inc() { n = n + 1; return n; }
			return inc;
		}
	`)
	require.True(t, ok)

	// the top-level chunk defines "make" as a closure over a zero-upvalue
	// function; "inc" itself is nested one level deeper, so this chunk
	// should contain an OP_CLOSURE for "make" plus the OP_DEFINE_GLOBAL
	// that binds it (the OP_GET_UPVALUE for "n" belongs to inc's own
	// chunk).
	assert.Contains(t, fn.Chunk.Code, byte(machine.OpClosure))
	assert.Contains(t, fn.Chunk.Code, byte(machine.OpDefineGlobal))
}

func TestCompileClassWithSuperEmitsInherit(t *testing.T) {
	vm := machine.New(machine.DefaultConfig())
	defer vm.Close()

	fn, ok := compiler.Compile(vm, `
		class A { greet() { print "A"; } }
		class B < A { greet() { super.greet(); } }
	`)
	require.True(t, ok)
	assert.Contains(t, fn.Chunk.Code, byte(machine.OpInherit))
	assert.Contains(t, fn.Chunk.Code, byte(machine.OpClass))
}

func TestCompileSelfInheritanceIsError(t *testing.T) {
	vm := machine.New(machine.DefaultConfig())
	defer vm.Close()

	_, ok := compiler.Compile(vm, `class A < A {}`)
	assert.False(t, ok)
}

func TestCompileBreakOutsideLoopIsError(t *testing.T) {
	vm := machine.New(machine.DefaultConfig())
	defer vm.Close()

	_, ok := compiler.Compile(vm, `break;`)
	assert.False(t, ok)
}

func TestCompileContinueOutsideLoopIsError(t *testing.T) {
	vm := machine.New(machine.DefaultConfig())
	defer vm.Close()

	_, ok := compiler.Compile(vm, `continue;`)
	assert.False(t, ok)
}

func TestCompileListLiteralEmitsOpList(t *testing.T) {
	vm := machine.New(machine.DefaultConfig())
	defer vm.Close()

	fn, ok := compiler.Compile(vm, `var a = [1, 2, 3];`)
	require.True(t, ok)
	assert.Contains(t, fn.Chunk.Code, byte(machine.OpList))
}

func TestCompileSwitchStatement(t *testing.T) {
	vm := machine.New(machine.DefaultConfig())
	defer vm.Close()

	fn, ok := compiler.Compile(vm, `
		switch (1) {
			case 1: print "one"; break;
			default: print "other";
		}
	`)
	require.True(t, ok)
	assert.Contains(t, fn.Chunk.Code, byte(machine.OpDup))
	assert.Contains(t, fn.Chunk.Code, byte(machine.OpEqual))
}
