package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSetGetDelete(t *testing.T) {
	vm := New(DefaultConfig())
	var tbl Table

	key := vm.internString("answer")
	isNew := tbl.Set(vm, key, Number(42))
	assert.True(t, isNew)

	v, ok := tbl.Get(key)
	require.True(t, ok)
	assert.Equal(t, Number(42), v)

	isNew = tbl.Set(vm, key, Number(43))
	assert.False(t, isNew, "overwriting an existing key is not a new key")

	require.True(t, tbl.Delete(key))
	_, ok = tbl.Get(key)
	assert.False(t, ok)

	assert.False(t, tbl.Delete(key), "deleting an absent key reports false")
}

func TestTableTombstoneDoesNotBreakProbeChain(t *testing.T) {
	vm := New(DefaultConfig())
	var tbl Table

	// "a" and "i" share home slot 4 of an 8-slot table, so "i" is stored
	// one slot further along the probe chain that starts at "a".
	a := vm.internString("a")
	b := vm.internString("i")
	tbl.Set(vm, a, Number(1))
	tbl.Set(vm, b, Number(2))

	tbl.Delete(a)

	v, ok := tbl.Get(b)
	require.True(t, ok, "deleting one key must not hide a later key in the same probe chain")
	assert.Equal(t, Number(2), v)
}

func TestTableGrowsOnLoadFactor(t *testing.T) {
	vm := New(DefaultConfig())
	var tbl Table

	for i := 0; i < 100; i++ {
		key := vm.internString(string(rune('a' + i%26)) + string(rune(i)))
		tbl.Set(vm, key, Number(i))
	}
	assert.Greater(t, len(tbl.entries), 8)
}

func TestFindStringInterning(t *testing.T) {
	vm := New(DefaultConfig())
	s1 := vm.internString("hello")
	s2 := vm.internString("hello")
	assert.Same(t, s1, s2, "equal bytes must intern to the same pointer")

	found := vm.strings.FindString("hello", fnv1a32("hello"))
	assert.Same(t, s1, found)
}

func TestTableAddAll(t *testing.T) {
	vm := New(DefaultConfig())
	var src, dst Table
	src.Set(vm, vm.internString("x"), Number(1))
	src.Set(vm, vm.internString("y"), Number(2))

	dst.AddAll(vm, &src)
	v, ok := dst.Get(vm.internString("x"))
	require.True(t, ok)
	assert.Equal(t, Number(1), v)
}
