// Package interp wires the compiler and the machine together: it is the
// thin seam that avoids an import cycle between lang/compiler (which
// allocates heap objects through a *machine.VM while compiling) and
// lang/machine (which must not import the compiler).
package interp

import (
	"context"

	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/machine"
)

// Interpret compiles source and, if compilation succeeds, runs it to
// completion on vm. Compile and runtime errors are reported through the
// returned result (their messages are written to stderr); the error is
// non-nil only when ctx is done before the program starts.
func Interpret(ctx context.Context, vm *machine.VM, source string) (machine.InterpretResult, error) {
	fn, ok := compiler.Compile(vm, source)
	if !ok {
		return machine.InterpretCompileError, nil
	}

	select {
	case <-ctx.Done():
		return machine.InterpretRuntimeError, ctx.Err()
	default:
	}

	result, err := vm.Run(fn)
	if result == machine.InterpretRuntimeError {
		// the message and stack trace were already written to vm.Stderr
		return result, nil
	}
	return result, err
}
