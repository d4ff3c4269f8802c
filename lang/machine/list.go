package machine

import "strings"

// ObjList is a dynamic array of Values. Go's append already gives us
// grow-by-doubling capacity/count behavior, so Elements is simply a Go
// slice.
type ObjList struct {
	Obj
	Elements []Value
}

var (
	_ Value  = (*ObjList)(nil)
	_ Object = (*ObjList)(nil)
)

func (l *ObjList) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range l.Elements {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
func (l *ObjList) Type() string { return "list" }

// ObjMap is a map keyed by interned strings. It shares the
// same Table implementation used for globals, fields and methods: a
// single hash table design is used throughout.
type ObjMap struct {
	Obj
	Entries Table
}

var (
	_ Value  = (*ObjMap)(nil)
	_ Object = (*ObjMap)(nil)
)

func (m *ObjMap) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for _, e := range m.Entries.entries {
		if e.key == nil {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(e.key.chars)
		sb.WriteString(": ")
		sb.WriteString(e.value.String())
	}
	sb.WriteByte('}')
	return sb.String()
}
func (m *ObjMap) Type() string { return "map" }
