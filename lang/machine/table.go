package machine

// tableMaxLoad is the load factor that triggers a capacity grow.
const tableMaxLoad = 0.75

type entry struct {
	key   *ObjString // nil key with nil value = never used; nil key with Bool(true) value = tombstone
	value Value
}

// Table is an open-addressed, linearly-probed hash table keyed by interned
// strings. It backs the globals table, every class's method
// table, every instance's fields, and the Map object.
//
// Deletions leave a tombstone (a nil key paired with a Bool(true) value) so
// that probe sequences broken by a delete are not silently truncated.
// Tombstones count toward the load factor, exactly like entries with a
// live key: a resize is the only thing that reclaims them.
type Table struct {
	count    int // live entries + tombstones
	entries  []entry
}

// Get returns the value for key, or !found if key is absent.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return nil, false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, growing the table first if needed. It
// reports whether this added a brand new key (as opposed to overwriting an
// existing one).
func (t *Table) Set(vm *VM, key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.adjustCapacity(vm, growCapacity(len(t.entries)))
	}

	e := t.findEntry(t.entries, key)
	isNewKey := e.key == nil
	if isNewKey && e.value == nil {
		// a brand new slot, not a reused tombstone
		t.count++
	}
	e.key = key
	e.value = value
	return isNewKey
}

// Delete removes key, leaving a tombstone in its slot so later probes
// that passed through it still find entries placed further along the
// probe sequence.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = Bool(true) // tombstone sentinel
	return true
}

// LiveCount returns the number of entries with a live key, excluding
// tombstones. Unlike count (which also counts tombstones, since those
// still occupy a probe-chain slot and must count toward the load
// factor), this is what callers asking "how many keys does this table
// hold" actually want.
func (t *Table) LiveCount() int {
	n := 0
	for _, e := range t.entries {
		if e.key != nil {
			n++
		}
	}
	return n
}

// AddAll copies every entry of src into t.
func (t *Table) AddAll(vm *VM, src *Table) {
	for _, e := range src.entries {
		if e.key != nil {
			t.Set(vm, e.key, e.value)
		}
	}
}

// FindString looks up an interned string by its content and precomputed
// hash, without needing an *ObjString to compare by pointer. This is the
// only way to discover whether bytes are already interned.
func (t *Table) FindString(s string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}

	mask := uint32(len(t.entries)) - 1
	index := hash & mask
	for {
		e := &t.entries[index]
		if e.key == nil {
			if e.value == nil {
				// genuinely empty slot: not found
				return nil
			}
			// tombstone: keep probing
		} else if e.key.hash == hash && e.key.chars == s {
			return e.key
		}
		index = (index + 1) & mask
	}
}

// findEntry returns the slot where key is stored, or the slot where it
// should be inserted: the first tombstone seen along the probe sequence,
// or else the first truly empty slot.
func (t *Table) findEntry(entries []entry, key *ObjString) *entry {
	mask := uint32(len(entries)) - 1
	index := key.hash & mask
	var tombstone *entry
	for {
		e := &entries[index]
		if e.key == nil {
			if e.value == nil {
				// empty slot
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			// tombstone
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) & mask
	}
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}

// adjustCapacity grows the table to the given capacity, rehashing every
// live entry (tombstones are dropped, and the live count is recomputed)
// into a fresh backing array.
func (t *Table) adjustCapacity(vm *VM, capacity int) {
	fresh := make([]entry, capacity)

	liveCount := 0
	for _, e := range t.entries {
		if e.key == nil {
			continue // drop tombstones on resize
		}
		dst := t.findEntry(fresh, e.key)
		dst.key = e.key
		dst.value = e.value
		liveCount++
	}

	if vm != nil {
		vm.adjustBytes(int64(capacity-len(t.entries)) * int64(entrySize))
	}
	t.entries = fresh
	t.count = liveCount
}

const entrySize = 32 // approximate bytes per table slot, for GC accounting

// removeWhite deletes every entry whose key is not marked. This is used
// exclusively on the string intern table during GC:
// otherwise the intern table itself would keep every string ever seen
// alive forever.
func (t *Table) removeWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.marked {
			e.key = nil
			e.value = Bool(true)
		}
	}
}

// markTable marks every live key and value reachable through t, used when
// a table is itself a GC root or reachable object (globals, instance
// fields, class methods, map contents).
func (t *Table) markTable(vm *VM) {
	for _, e := range t.entries {
		if e.key != nil {
			vm.markObject(e.key)
			vm.markValue(e.value)
		}
	}
}
