package machine

// ObjString is an interned, immutable byte string. Its hash is
// computed once at construction with the FNV-1a 32-bit algorithm.
type ObjString struct {
	Obj
	chars string
	hash  uint32
}

var (
	_ Value  = (*ObjString)(nil)
	_ Object = (*ObjString)(nil)
)

func (s *ObjString) String() string { return s.chars }
func (s *ObjString) Type() string   { return "string" }

// Go returns the Go string backing this object.
func (s *ObjString) Go() string { return s.chars }

// Len returns the number of bytes in the string.
func (s *ObjString) Len() int { return len(s.chars) }

// fnv1a32 computes the 32-bit FNV-1a hash of s.
func fnv1a32(s string) uint32 {
	const (
		offsetBasis uint32 = 2166136261
		prime       uint32 = 16777619
	)
	h := offsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}

// internString returns the canonical *ObjString for the given bytes,
// allocating and interning a new one if this is the first time these bytes
// are seen. Two strings with equal bytes
// are always the same *ObjString, so string equality is a pointer
// comparison everywhere else in the machine.
func (vm *VM) internString(s string) *ObjString {
	hash := fnv1a32(s)
	if found := vm.strings.FindString(s, hash); found != nil {
		return found
	}

	str := &ObjString{chars: s, hash: hash}
	// Root the new string on the stack across the table insert: interning
	// itself allocates table storage, which can trigger a GC, and the new
	// string must already be reachable before that happens.
	vm.push(str)
	vm.allocate(str, typeString, len(s))
	vm.strings.Set(vm, str, Bool(true))
	vm.pop()
	return str
}
