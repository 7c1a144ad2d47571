package hpack

// Encoder turns an ordered list of header fields into an RFC 7541
// compliant byte stream, maintaining its own dynamic table so future
// calls can reference entries this call inserted.
type Encoder struct {
	table   *dynamicTable
	huffman bool

	sizeUpdate struct {
		pending    bool
		min, final uint32
	}
}

// NewEncoder returns an Encoder with the given initial dynamic table
// capacity. huffmanEnabled mirrors Config.HuffmanEnabled.
func NewEncoder(tableSize uint32, huffmanEnabled bool) *Encoder {
	return &Encoder{
		table:   newDynamicTable(int(tableSize)),
		huffman: huffmanEnabled,
	}
}

// TableSize returns the encoder's current dynamic table capacity.
func (e *Encoder) TableSize() uint32 { return uint32(e.table.Capacity()) }

// SetHuffman toggles Huffman coding of literal strings.
func (e *Encoder) SetHuffman(enabled bool) { e.huffman = enabled }

// SetMaxDynamicTableSize records a new local table-size bound. The
// next call to StartBlock will begin its block with a Dynamic Table
// Size Update communicating it (two updates, minimum then final, if
// the size was reduced and then raised again before the block flushed).
func (e *Encoder) SetMaxDynamicTableSize(n uint32) {
	if !e.sizeUpdate.pending {
		e.sizeUpdate.pending = true
		e.sizeUpdate.min = n
		e.sizeUpdate.final = n
		return
	}

	if n < e.sizeUpdate.min {
		e.sizeUpdate.min = n
	}
	e.sizeUpdate.final = n
}

// StartBlock must be called once before encoding the first field of a
// new header block; it emits any pending Dynamic Table Size Update(s).
func (e *Encoder) StartBlock(dst []byte) []byte {
	if !e.sizeUpdate.pending {
		return dst
	}

	if e.sizeUpdate.min < e.sizeUpdate.final {
		dst = appendTableSizeUpdate(dst, e.sizeUpdate.min)
		e.table.SetCapacity(int(e.sizeUpdate.min))
	}

	dst = appendTableSizeUpdate(dst, e.sizeUpdate.final)
	e.table.SetCapacity(int(e.sizeUpdate.final))

	e.sizeUpdate.pending = false

	return dst
}

func appendTableSizeUpdate(dst []byte, n uint32) []byte {
	nn := len(dst)
	dst = AppendInt(dst, 5, uint64(n))
	dst[nn] |= 0x20
	return dst
}

// EncodeField appends the representation of hf to dst, applying the
// policy of spec §4.3: never-indexed for sensitive fields, indexed
// when the exact pair is already known, literal-with-incremental-
// indexing by name when only the name is known or neither is known.
func (e *Encoder) EncodeField(dst []byte, hf *HeaderField) []byte {
	name, value := hf.Name(), hf.Value()

	if hf.Sensitive() {
		idx, nameOnly := e.findName(name)
		return e.appendLiteral(dst, 4, 0x10, idx, nameOnly, hf.NameBytes(), hf.ValueBytes())
	}

	if idx, ok := e.findFull(name, value); ok {
		nn := len(dst)
		dst = AppendInt(dst, 7, uint64(idx))
		dst[nn] |= 0x80
		return dst
	}

	idx, nameOnly := e.findName(name)
	dst = e.appendLiteral(dst, 6, 0x40, idx, nameOnly, hf.NameBytes(), hf.ValueBytes())

	e.table.Insert(*hf)

	return dst
}

func (e *Encoder) appendLiteral(dst []byte, prefixBits uint8, tagBits byte, idx int, nameOnly bool, name, value []byte) []byte {
	if idx > 0 {
		nn := len(dst)
		dst = AppendInt(dst, prefixBits, uint64(idx))
		dst[nn] |= tagBits
	} else {
		dst = append(dst, tagBits)
		dst = e.appendString(dst, name)
	}

	dst = e.appendString(dst, value)

	return dst
}

func (e *Encoder) appendString(dst []byte, b []byte) []byte {
	if e.huffman && huffmanEncodedLen(b) < len(b)*8 {
		nn := len(dst)
		encLen := (huffmanEncodedLen(b) + 7) / 8
		dst = AppendInt(dst, 7, uint64(encLen))
		dst[nn] |= 0x80
		dst = huffmanEncode(dst, b)
		return dst
	}

	dst = AppendInt(dst, 7, uint64(len(b)))
	dst = append(dst, b...)

	return dst
}

// findFull returns the combined 1-based index of an exact (name,value)
// match in the static or dynamic table.
func (e *Encoder) findFull(name, value string) (int, bool) {
	if idx, ok := staticFullIndex[name+"\x00"+value]; ok {
		return idx, true
	}

	for i := 1; i <= e.table.Len(); i++ {
		f, _ := e.table.at(i)
		if f.Name() == name && f.Value() == value {
			return StaticTableSize + i, true
		}
	}

	return 0, false
}

// findName returns the combined 1-based index of a name-only match.
func (e *Encoder) findName(name string) (idx int, nameOnly bool) {
	for i := 1; i <= e.table.Len(); i++ {
		f, _ := e.table.at(i)
		if f.Name() == name {
			return StaticTableSize + i, true
		}
	}

	if idx, ok := staticNameIndex[name]; ok {
		return idx, true
	}

	return 0, false
}
