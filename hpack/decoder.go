package hpack

import "errors"

// Decoder turns an RFC 7541 byte stream back into header fields,
// applying the dynamic table state built by previous blocks on the
// same connection.
type Decoder struct {
	table *dynamicTable

	maxHeaderListSize uint32
	headerListSize    uint32
	sawRegular        bool

	// sawFieldRepresentation marks that a non-size-update representation
	// has been decoded in the current header block; a Dynamic Table Size
	// Update is only legal before the first one (RFC 7541 §6.3).
	sawFieldRepresentation bool

	// maxTableSizeLimit bounds any size update the peer may request;
	// it mirrors the local SETTINGS_HEADER_TABLE_SIZE value.
	maxTableSizeLimit uint32
}

// NewDecoder returns a Decoder with the given initial dynamic table
// capacity and cumulative header-list-size budget (0 disables the
// budget check).
func NewDecoder(tableSize, maxHeaderListSize uint32) *Decoder {
	return &Decoder{
		table:             newDynamicTable(int(tableSize)),
		maxTableSizeLimit: tableSize,
		maxHeaderListSize: maxHeaderListSize,
	}
}

// TableSize returns the decoder's current dynamic table capacity.
func (d *Decoder) TableSize() uint32 { return uint32(d.table.Capacity()) }

// SetMaxTableSizeLimit updates the bound a peer-sent Dynamic Table
// Size Update may not exceed, tracking a local SETTINGS change.
func (d *Decoder) SetMaxTableSizeLimit(n uint32) {
	d.maxTableSizeLimit = n
	if uint32(d.table.Capacity()) > n {
		d.table.SetCapacity(int(n))
	}
}

// Finish resets the per-block accounting (cumulative header list size,
// pseudo-header ordering state) between independent header blocks. It
// must be called once a HEADERS/CONTINUATION sequence with END_HEADERS
// has been fully decoded.
func (d *Decoder) Finish() {
	d.headerListSize = 0
	d.sawRegular = false
	d.sawFieldRepresentation = false
}

// DecodeFull decodes every representation in b, appending decoded
// fields to dst and returning the extended slice.
//
// Errors wrapped with ErrCompression indicate a malformed wire format
// (the caller should treat the connection as unusable); errors wrapped
// with ErrProtocol indicate a semantic violation scoped to the stream
// (pseudo-header ordering, oversize header list).
func (d *Decoder) DecodeFull(dst []HeaderField, b []byte) ([]HeaderField, error) {
	for len(b) > 0 {
		var (
			hf  HeaderField
			err error
		)

		hf, b, err = d.decodeOne(b)
		if err != nil {
			return dst, err
		}

		// A lone Dynamic Table Size Update yields no field to emit.
		if hf.name == nil && hf.value == nil {
			continue
		}

		if err := d.accountAndValidate(&hf); err != nil {
			return dst, err
		}

		dst = append(dst, hf)
	}

	return dst, nil
}

func (d *Decoder) accountAndValidate(hf *HeaderField) error {
	if hf.IsPseudo() {
		if d.sawRegular {
			return wrapProtocol(errors.New("hpack: pseudo-header field after regular header field"))
		}
	} else {
		d.sawRegular = true
	}

	d.headerListSize += uint32(hf.Size())
	if d.maxHeaderListSize != 0 && d.headerListSize > d.maxHeaderListSize {
		return wrapProtocol(errors.New("hpack: header list exceeds configured maximum size"))
	}

	return nil
}

// decodeOne decodes exactly one representation from the head of b.
func (d *Decoder) decodeOne(b []byte) (HeaderField, []byte, error) {
	first := b[0]

	switch {
	case first&0x80 != 0:
		d.sawFieldRepresentation = true
		return d.decodeIndexed(b)
	case first&0x40 != 0:
		d.sawFieldRepresentation = true
		return d.decodeLiteral(b, 6, true)
	case first&0x20 != 0:
		return d.decodeTableSizeUpdate(b)
	case first&0x10 != 0:
		d.sawFieldRepresentation = true
		hf, rest, err := d.decodeLiteral(b, 4, false)
		hf.sensitive = true
		return hf, rest, err
	default:
		d.sawFieldRepresentation = true
		return d.decodeLiteral(b, 4, false)
	}
}

// decodeIndexed handles the 0x80 "Indexed Header Field" representation.
func (d *Decoder) decodeIndexed(b []byte) (HeaderField, []byte, error) {
	rest, idx, err := ReadInt(7, b)
	if err != nil {
		return HeaderField{}, b, wrapCompression(err)
	}
	if idx == 0 {
		return HeaderField{}, b, wrapCompression(errors.New("hpack: indexed field with index 0"))
	}

	hf, ok := d.lookup(int(idx))
	if !ok {
		return HeaderField{}, b, wrapCompression(errors.New("hpack: index out of bounds"))
	}

	var cp HeaderField
	hf.CopyTo(&cp)

	return cp, rest, nil
}

// decodeLiteral handles the three literal representations: incremental
// indexing (prefixBits=6, index=true), without indexing and
// never-indexed (prefixBits=4, index=false). The never-indexed
// sensitive flag is applied by the caller.
func (d *Decoder) decodeLiteral(b []byte, prefixBits uint8, index bool) (HeaderField, []byte, error) {
	rest, idx, err := ReadInt(prefixBits, b)
	if err != nil {
		return HeaderField{}, b, wrapCompression(err)
	}

	var hf HeaderField

	if idx == 0 {
		var name []byte
		name, rest, err = d.decodeString(rest)
		if err != nil {
			return HeaderField{}, b, err
		}
		hf.name = name
	} else {
		src, ok := d.lookup(int(idx))
		if !ok {
			return HeaderField{}, b, wrapCompression(errors.New("hpack: index out of bounds"))
		}
		hf.name = append(hf.name, src.name...)
	}

	value, rest2, err := d.decodeString(rest)
	if err != nil {
		return HeaderField{}, b, err
	}
	hf.value = value
	rest = rest2

	if index {
		d.table.Insert(hf)
	}

	return hf, rest, nil
}

// decodeTableSizeUpdate handles the 0x20 Dynamic Table Size Update
// representation; it mutates table state and returns a zero-value
// HeaderField so the caller knows to emit nothing.
func (d *Decoder) decodeTableSizeUpdate(b []byte) (HeaderField, []byte, error) {
	if d.sawFieldRepresentation {
		return HeaderField{}, b, wrapCompression(errors.New("hpack: dynamic table size update must precede all header field representations in the block"))
	}

	rest, n, err := ReadInt32(5, b)
	if err != nil {
		return HeaderField{}, b, wrapCompression(err)
	}
	if n > d.maxTableSizeLimit {
		return HeaderField{}, b, wrapCompression(errors.New("hpack: dynamic table size update exceeds negotiated maximum"))
	}

	d.table.SetCapacity(int(n))

	return HeaderField{}, rest, nil
}

// decodeString reads a length-prefixed, optionally Huffman-coded
// string literal.
func (d *Decoder) decodeString(b []byte) ([]byte, []byte, error) {
	if len(b) == 0 {
		return nil, b, wrapCompression(errors.New("hpack: truncated string literal"))
	}

	huff := b[0]&0x80 != 0

	rest, l, err := ReadInt(7, b)
	if err != nil {
		return nil, b, wrapCompression(err)
	}
	if uint64(len(rest)) < l {
		return nil, b, wrapCompression(errors.New("hpack: truncated string literal"))
	}

	raw := rest[:l]
	rest = rest[l:]

	if !huff {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, rest, nil
	}

	out, err := huffmanDecode(nil, raw)
	if err != nil {
		return nil, b, wrapCompression(err)
	}

	return out, rest, nil
}

// lookup resolves a 1-based combined index into the static and
// dynamic tables.
func (d *Decoder) lookup(idx int) (HeaderField, bool) {
	if idx <= StaticTableSize {
		return StaticEntry(idx)
	}
	return d.table.at(idx - StaticTableSize)
}
