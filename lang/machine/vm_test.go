package machine_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/glox/lang/interp"
	"github.com/mna/glox/lang/machine"
)

// run compiles and executes source, returning everything it printed.
func run(t *testing.T, source string) string {
	t.Helper()
	vm := machine.New(machine.DefaultConfig())
	defer vm.Close()

	var stdout, stderr bytes.Buffer
	vm.Stdout = &stdout
	vm.Stderr = &stderr

	result, err := interp.Interpret(context.Background(), vm, source)
	require.NoError(t, err)
	require.Equalf(t, machine.InterpretOK, result, "stderr: %s", stderr.String())
	return stdout.String()
}

func TestClosuresOverSharedCounter(t *testing.T) {
	out := run(t, `
		fun make() { var n = 0; fun inc() { n = n + 1; return n; } return inc; }
		var f = make(); print f(); print f(); print f();
	`)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestInheritanceAndSuper(t *testing.T) {
	out := run(t, `
		class A { greet() { print "A"; } }
		class B < A { greet() { super.greet(); print "B"; } }
		B().greet();
	`)
	assert.Equal(t, "A\nB\n", out)
}

func TestInitializerAndMethodDispatch(t *testing.T) {
	out := run(t, `
		class P { init(x) { this.x = x; } get() { return this.x; } }
		print P(42).get();
	`)
	assert.Equal(t, "42\n", out)
}

func TestSwitchFallthroughAndDefault(t *testing.T) {
	out := run(t, `
		fun t(x){ switch(x){ case 1: print "one"; break; case 2: print "two"; break; default: print "other"; } }
		t(1); t(2); t(3);
	`)
	assert.Equal(t, "one\ntwo\nother\n", out)
}

func TestListBasics(t *testing.T) {
	out := run(t, `
		var a = [10, 20, 30]; a.push(40); a[0] = 1; print a[0]; print a.size(); print a.pop();
	`)
	assert.Equal(t, "1\n4\n40\n", out)
}

func TestStringEscapesAndIndexing(t *testing.T) {
	out := run(t, `
		var s = "A\tB\n"; print len(s); print s[1];
	`)
	assert.Equal(t, "4\n9\n", out)
}

func TestForLoopScopeAndCount(t *testing.T) {
	out := run(t, `
		var count = 0;
		for (var i = 0; i < 5; i = i + 1) { count = count + 1; }
		print count;
	`)
	assert.Equal(t, "5\n", out)
}

func TestBreakAndContinue(t *testing.T) {
	out := run(t, `
		var sum = 0;
		for (var i = 0; i < 10; i = i + 1) {
			if (i == 5) break;
			if (i == 2) continue;
			sum = sum + i;
		}
		print sum;
	`)
	// 0+1+3+4 = 8 (2 skipped by continue, loop stops before 5)
	assert.Equal(t, "8\n", out)
}

func TestStringInterningConcatenation(t *testing.T) {
	out := run(t, `
		var a = "foo";
		var b = "bar";
		print len(a + b);
	`)
	assert.Equal(t, "6\n", out)
}

func TestListPushPopRoundTrip(t *testing.T) {
	out := run(t, `
		var a = [1, 2, 3];
		var before = a.size();
		a.push(99);
		a.pop();
		print a.size() == before;
	`)
	assert.Equal(t, "true\n", out)
}

func TestMapBuiltins(t *testing.T) {
	out := run(t, `
		var m = Map();
		m.set("x", 10);
		print m.get("x");
		print m.has("y");
		m.remove("x");
		print m.has("x");
	`)
	assert.Equal(t, "10\nfalse\nfalse\n", out)
}

func TestRuntimeErrorUndefinedVariable(t *testing.T) {
	vm := machine.New(machine.DefaultConfig())
	defer vm.Close()
	var stdout, stderr bytes.Buffer
	vm.Stdout = &stdout
	vm.Stderr = &stderr

	result, err := interp.Interpret(context.Background(), vm, `print undefinedThing;`)
	require.NoError(t, err)
	assert.Equal(t, machine.InterpretRuntimeError, result)
	assert.Contains(t, stderr.String(), "undefined variable")
}

func TestCompileErrorReported(t *testing.T) {
	vm := machine.New(machine.DefaultConfig())
	defer vm.Close()
	var stderr bytes.Buffer
	vm.Stderr = &stderr

	result, err := interp.Interpret(context.Background(), vm, `var = ;`)
	require.NoError(t, err)
	assert.Equal(t, machine.InterpretCompileError, result)
}
