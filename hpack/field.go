// Package hpack implements RFC 7541 header compression: the static and
// dynamic tables, Huffman and integer coding, and the encoder/decoder
// state machines built on top of them.
//
// The package has no dependency on the frame or connection layers —
// it consumes and produces plain byte slices and HeaderField values,
// the way the teacher's headerField.go keeps HPACK free of *Conn.
package hpack

import "sync"

// EntryOverhead is the per-entry accounting overhead RFC 7541 §4.1
// adds on top of name+value length, for both the dynamic table size
// and the decoder's cumulative header-list-size enforcement.
const EntryOverhead = 32

// HeaderField is a decoded/to-be-encoded (name, value) pair.
type HeaderField struct {
	name, value []byte
	sensitive   bool
}

// NewHeaderField builds a HeaderField from strings.
func NewHeaderField(name, value string) HeaderField {
	return HeaderField{name: []byte(name), value: []byte(value)}
}

// Name returns the field name.
func (f *HeaderField) Name() string { return string(f.name) }

// Value returns the field value.
func (f *HeaderField) Value() string { return string(f.value) }

// NameBytes returns the field name without copying.
func (f *HeaderField) NameBytes() []byte { return f.name }

// ValueBytes returns the field value without copying.
func (f *HeaderField) ValueBytes() []byte { return f.value }

// SetName sets the field name.
func (f *HeaderField) SetName(name string) { f.name = append(f.name[:0], name...) }

// SetValue sets the field value.
func (f *HeaderField) SetValue(value string) { f.value = append(f.value[:0], value...) }

// SetNameBytes sets the field name from b.
func (f *HeaderField) SetNameBytes(b []byte) { f.name = append(f.name[:0], b...) }

// SetValueBytes sets the field value from b.
func (f *HeaderField) SetValueBytes(b []byte) { f.value = append(f.value[:0], b...) }

// SetSensitive marks the field as never-indexed: the encoder will
// never place it in the dynamic table and intermediaries must forward
// it using the same never-indexed representation.
func (f *HeaderField) SetSensitive(v bool) { f.sensitive = v }

// Sensitive reports whether the field is marked never-indexed.
func (f *HeaderField) Sensitive() bool { return f.sensitive }

// IsPseudo reports whether the field name begins with ':'.
func (f *HeaderField) IsPseudo() bool {
	return len(f.name) > 0 && f.name[0] == ':'
}

// Size returns the RFC 7541 §4.1 accounting size of the field.
func (f *HeaderField) Size() int {
	return len(f.name) + len(f.value) + EntryOverhead
}

// Equal reports whether f and other have the same name and value.
func (f *HeaderField) Equal(other *HeaderField) bool {
	return string(f.name) == string(other.name) && string(f.value) == string(other.value)
}

// CopyTo copies f into other, acquiring its own backing arrays (the
// HPACK-layer analogue of the reference-counted buffer "acquire" the
// overall module's ownership model calls for).
func (f *HeaderField) CopyTo(other *HeaderField) {
	other.name = append(other.name[:0], f.name...)
	other.value = append(other.value[:0], f.value...)
	other.sensitive = f.sensitive
}

func (f *HeaderField) reset() {
	f.name = f.name[:0]
	f.value = f.value[:0]
	f.sensitive = false
}

var fieldPool = sync.Pool{
	New: func() interface{} { return &HeaderField{} },
}

// AcquireHeaderField gets a HeaderField from the pool.
func AcquireHeaderField() *HeaderField {
	return fieldPool.Get().(*HeaderField)
}

// ReleaseHeaderField resets hf and returns it to the pool.
func ReleaseHeaderField(hf *HeaderField) {
	hf.reset()
	fieldPool.Put(hf)
}
