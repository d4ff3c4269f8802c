// Package machine implements the virtual machine that executes the
// bytecode-compiled form of glox source code: the value representation,
// the heap of garbage-collected objects, the hash table, the mark-and-sweep
// collector, and the dispatch loop itself.
package machine

import "fmt"

// Value is the interface implemented by every value the machine can
// manipulate: nil, booleans, numbers and heap object references.
type Value interface {
	// String returns the value's printed representation, as used by the
	// print statement.
	String() string
	// Type returns a short string describing the value's type, the same set
	// returned by the type() builtin.
	Type() string
}

// Nil is the unique value of the nil type.
type Nil struct{}

func (Nil) String() string { return "nil" }
func (Nil) Type() string   { return "nil" }

// NilValue is the sole instance of Nil.
var NilValue = Nil{}

// Bool is a boolean value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "boolean" }

// Number is an IEEE-754 double precision value. Integer types are not
// exposed to glox source; every number is a float64.
type Number float64

func (n Number) String() string { return formatNumber(float64(n)) }
func (Number) Type() string     { return "number" }

func formatNumber(f float64) string {
	if f == float64(int64(f)) && f < 1e15 && f > -1e15 {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// Truth reports the truthiness of a value: only nil and false are falsey.
func Truth(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// Equal reports whether x and y are equal: numbers compare with
// IEEE-754 equality (so NaN != NaN and 0 == -0), objects compare by pointer
// identity (safe because strings are interned), and values of different
// representations are never equal.
func Equal(x, y Value) bool {
	switch xv := x.(type) {
	case Nil:
		_, ok := y.(Nil)
		return ok
	case Bool:
		yv, ok := y.(Bool)
		return ok && xv == yv
	case Number:
		yv, ok := y.(Number)
		return ok && xv == yv
	default:
		// Heap objects: pointer identity. This also covers *ObjString, for
		// which interning guarantees equal bytes imply the same pointer.
		return x == y
	}
}
