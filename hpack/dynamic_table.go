package hpack

// dynamicTable is the FIFO, byte-size-bounded table RFC 7541 §2.3.2
// describes. Entries are stored oldest-first in a slice; index 1 (HPACK
// numbering) is always the most recently inserted entry, so callers
// translate with len(entries)-i.
type dynamicTable struct {
	entries  []HeaderField
	size     int
	capacity int
}

func newDynamicTable(capacity int) *dynamicTable {
	return &dynamicTable{capacity: capacity}
}

// Len returns the number of entries currently held.
func (t *dynamicTable) Len() int { return len(t.entries) }

// Size returns the current RFC 7541 §4.1 accounted byte size.
func (t *dynamicTable) Size() int { return t.size }

// Capacity returns the configured maximum byte size.
func (t *dynamicTable) Capacity() int { return t.capacity }

// at returns the 1-based (newest-first) entry, or false if out of range.
func (t *dynamicTable) at(i int) (HeaderField, bool) {
	if i < 1 || i > len(t.entries) {
		return HeaderField{}, false
	}
	return t.entries[len(t.entries)-i], true
}

// Insert adds a new entry, evicting from the tail (oldest) until it
// fits. An entry whose size alone exceeds the capacity empties the
// table instead of being inserted, per RFC 7541 §4.4.
func (t *dynamicTable) Insert(f HeaderField) {
	sz := f.Size()

	if sz > t.capacity {
		t.entries = t.entries[:0]
		t.size = 0
		return
	}

	for t.size+sz > t.capacity && len(t.entries) > 0 {
		t.evictOldest()
	}

	cp := HeaderField{}
	f.CopyTo(&cp)

	t.entries = append(t.entries, cp)
	t.size += sz
}

func (t *dynamicTable) evictOldest() {
	if len(t.entries) == 0 {
		return
	}
	t.size -= t.entries[0].Size()
	t.entries = t.entries[1:]
}

// SetCapacity changes the maximum byte size, evicting the oldest
// entries as needed to respect it.
func (t *dynamicTable) SetCapacity(capacity int) {
	t.capacity = capacity
	for t.size > t.capacity && len(t.entries) > 0 {
		t.evictOldest()
	}
}

func (t *dynamicTable) clear() {
	t.entries = t.entries[:0]
	t.size = 0
}
