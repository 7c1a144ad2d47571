package hpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegerRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		prefix uint8
		value  uint64
	}{
		{"fits-in-prefix", 5, 10},
		{"rfc7541-c1-example", 5, 1337},
		{"eight-bit-prefix", 8, 42},
		{"zero", 6, 0},
		{"prefix-boundary", 5, 31},
		{"large", 7, 1 << 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := AppendInt(nil, tt.prefix, tt.value)
			rest, v, err := ReadInt(tt.prefix, enc)
			require.NoError(t, err)
			assert.Equal(t, tt.value, v)
			assert.Empty(t, rest)
		})
	}
}

func TestIntegerRFC7541C1Encoding(t *testing.T) {
	// RFC 7541 C.1.2: 1337 encoded with a 5-bit prefix is 0x1f 0x9a 0x0a.
	enc := AppendInt(nil, 5, 1337)
	assert.Equal(t, []byte{0x1f, 0x9a, 0x0a}, enc)
}

func TestIntegerTruncated(t *testing.T) {
	_, _, err := ReadInt(5, []byte{0x1f, 0x9a})
	assert.Error(t, err)
}

func TestIntegerOverflow(t *testing.T) {
	b := []byte{0x1f}
	for i := 0; i < 12; i++ {
		b = append(b, 0xff)
	}
	_, _, err := ReadInt(5, b)
	assert.ErrorIs(t, err, ErrIntegerOverflow)
}

func TestHuffmanRoundTrip(t *testing.T) {
	samples := []string{
		"",
		"a",
		"www.example.com",
		"no-cache",
		"custom-key",
		"custom-value",
		"private",
		"Mon, 21 Oct 2013 20:13:21 GMT",
		"https://www.example.com",
		"gzip",
	}

	for _, s := range samples {
		t.Run(s, func(t *testing.T) {
			enc := huffmanEncode(nil, []byte(s))
			dec, err := huffmanDecode(nil, enc)
			require.NoError(t, err)
			assert.Equal(t, s, string(dec))
		})
	}
}

func TestHuffmanEncodedLenMatchesOutput(t *testing.T) {
	s := []byte("www.example.com")
	bits := huffmanEncodedLen(s)
	enc := huffmanEncode(nil, s)
	assert.Equal(t, (bits+7)/8, len(enc))
}

func TestHuffmanRejectsEOSInStream(t *testing.T) {
	// The all-ones 30-bit EOS code padded out to whole bytes is 32 one-bits.
	eos := []byte{0xff, 0xff, 0xff, 0xff}
	_, err := huffmanDecode(nil, eos)
	assert.ErrorIs(t, err, ErrHuffmanEOS)
}

func TestStaticTableLookup(t *testing.T) {
	f, ok := StaticEntry(2)
	require.True(t, ok)
	assert.Equal(t, ":method", f.Name())
	assert.Equal(t, "GET", f.Value())

	_, ok = StaticEntry(0)
	assert.False(t, ok)

	_, ok = StaticEntry(62)
	assert.False(t, ok)
}

func TestDynamicTableEviction(t *testing.T) {
	dt := newDynamicTable(64)

	dt.Insert(NewHeaderField("a", "1")) // size 34
	assert.Equal(t, 1, dt.Len())

	dt.Insert(NewHeaderField("b", "2")) // size 34, total 68 > 64, evicts "a"
	assert.Equal(t, 1, dt.Len())

	f, ok := dt.at(1)
	require.True(t, ok)
	assert.Equal(t, "b", f.Name())
}

func TestDynamicTableOversizeEntryClearsTable(t *testing.T) {
	dt := newDynamicTable(64)
	dt.Insert(NewHeaderField("a", "1"))
	require.Equal(t, 1, dt.Len())

	big := NewHeaderField("name", string(make([]byte, 100)))
	dt.Insert(big)
	assert.Equal(t, 0, dt.Len())
	assert.Equal(t, 0, dt.Size())
}

func TestDynamicTableSetCapacityEvicts(t *testing.T) {
	dt := newDynamicTable(128)
	dt.Insert(NewHeaderField("a", "1"))
	dt.Insert(NewHeaderField("b", "2"))
	require.Equal(t, 2, dt.Len())

	dt.SetCapacity(34)
	assert.Equal(t, 1, dt.Len())

	f, _ := dt.at(1)
	assert.Equal(t, "b", f.Name())
}

func TestEncoderDecoderRoundTrip(t *testing.T) {
	enc := NewEncoder(4096, true)
	dec := NewDecoder(4096, 0)

	fields := []HeaderField{
		NewHeaderField(":method", "GET"),
		NewHeaderField(":scheme", "http"),
		NewHeaderField(":path", "/"),
		NewHeaderField(":authority", "www.example.com"),
		NewHeaderField("cache-control", "no-cache"),
	}

	var buf []byte
	buf = enc.StartBlock(buf)
	for i := range fields {
		buf = enc.EncodeField(buf, &fields[i])
	}

	got, err := dec.DecodeFull(nil, buf)
	require.NoError(t, err)
	dec.Finish()

	require.Len(t, got, len(fields))
	for i := range fields {
		assert.Equal(t, fields[i].Name(), got[i].Name())
		assert.Equal(t, fields[i].Value(), got[i].Value())
	}
}

func TestEncoderDecoderThreeRequestRoundTrip(t *testing.T) {
	// Mirrors the three-request sequence of RFC 7541 C.3: the second and
	// third requests reference dynamic-table entries the first created.
	enc := NewEncoder(4096, false)
	dec := NewDecoder(4096, 0)

	requests := [][]HeaderField{
		{
			NewHeaderField(":method", "GET"),
			NewHeaderField(":scheme", "http"),
			NewHeaderField(":path", "/"),
			NewHeaderField(":authority", "www.example.com"),
		},
		{
			NewHeaderField(":method", "GET"),
			NewHeaderField(":scheme", "http"),
			NewHeaderField(":path", "/"),
			NewHeaderField(":authority", "www.example.com"),
			NewHeaderField("cache-control", "no-cache"),
		},
		{
			NewHeaderField(":method", "GET"),
			NewHeaderField(":scheme", "https"),
			NewHeaderField(":path", "/index.html"),
			NewHeaderField(":authority", "www.example.com"),
			NewHeaderField("custom-key", "custom-value"),
		},
	}

	for _, req := range requests {
		var buf []byte
		buf = enc.StartBlock(buf)
		for i := range req {
			buf = enc.EncodeField(buf, &req[i])
		}

		got, err := dec.DecodeFull(nil, buf)
		require.NoError(t, err)
		dec.Finish()

		require.Len(t, got, len(req))
		for i := range req {
			assert.Equal(t, req[i].Name(), got[i].Name())
			assert.Equal(t, req[i].Value(), got[i].Value())
		}
	}

	// Both the request-building dynamic table and the header-consuming
	// one evolved identically, entry for entry.
	assert.Equal(t, enc.table.Len(), dec.table.Len())
}

func TestEncoderNeverIndexesSensitiveFields(t *testing.T) {
	enc := NewEncoder(4096, false)
	dec := NewDecoder(4096, 0)

	hf := NewHeaderField("authorization", "secret-token")
	hf.SetSensitive(true)

	buf := enc.EncodeField(nil, &hf)
	assert.Equal(t, byte(0x10), buf[0]&0xf0)
	assert.Equal(t, 0, enc.table.Len())

	got, err := dec.DecodeFull(nil, buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "secret-token", got[0].Value())
	assert.Equal(t, 0, dec.table.Len())
}

func TestEncoderTableSizeUpdateReduceThenRaise(t *testing.T) {
	enc := NewEncoder(4096, false)

	enc.SetMaxDynamicTableSize(0)
	enc.SetMaxDynamicTableSize(2048)

	buf := enc.StartBlock(nil)

	dec := NewDecoder(4096, 0)
	dec.SetMaxTableSizeLimit(4096)

	_, rest, err := dec.decodeTableSizeUpdate(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, dec.table.Capacity())

	_, _, err = dec.decodeTableSizeUpdate(rest)
	require.NoError(t, err)
	assert.Equal(t, 2048, dec.table.Capacity())
}

func TestDecoderRejectsPseudoHeaderAfterRegular(t *testing.T) {
	dec := NewDecoder(4096, 0)

	regular := NewHeaderField("cache-control", "no-cache")
	pseudo := NewHeaderField(":path", "/")

	var buf []byte
	enc := NewEncoder(4096, false)
	buf = enc.EncodeField(buf, &regular)
	buf = enc.EncodeField(buf, &pseudo)

	_, err := dec.DecodeFull(nil, buf)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestDecoderEnforcesMaxHeaderListSize(t *testing.T) {
	dec := NewDecoder(4096, 40)
	enc := NewEncoder(4096, false)

	hf := NewHeaderField("x-long-header-name", "a-fairly-long-value-that-exceeds-budget")

	buf := enc.EncodeField(nil, &hf)

	_, err := dec.DecodeFull(nil, buf)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestDecoderRejectsTableSizeUpdateAfterFieldRepresentation(t *testing.T) {
	dec := NewDecoder(4096, 0)
	enc := NewEncoder(4096, false)

	hf := NewHeaderField("cache-control", "no-cache")

	var buf []byte
	buf = enc.EncodeField(buf, &hf)

	upd := AppendInt(nil, 5, 2048)
	upd[0] |= 0x20 // tag as a Dynamic Table Size Update representation
	buf = append(buf, upd...)

	_, err := dec.DecodeFull(nil, buf)
	assert.ErrorIs(t, err, ErrCompression)
}

func TestDecoderAllowsConsecutiveTableSizeUpdates(t *testing.T) {
	dec := NewDecoder(4096, 0)
	dec.SetMaxTableSizeLimit(4096)

	buf := AppendInt(nil, 5, 0)
	buf[0] |= 0x20
	buf2 := AppendInt(nil, 5, 2048)
	buf2[0] |= 0x20
	buf = append(buf, buf2...)

	_, err := dec.DecodeFull(nil, buf)
	require.NoError(t, err)
	assert.Equal(t, 2048, dec.table.Capacity())
}

func TestDecoderRejectsOutOfRangeIndex(t *testing.T) {
	dec := NewDecoder(4096, 0)
	buf := AppendInt(nil, 7, 200)
	buf[0] |= 0x80

	_, err := dec.DecodeFull(nil, buf)
	assert.ErrorIs(t, err, ErrCompression)
}

func TestHeaderFieldPool(t *testing.T) {
	hf := AcquireHeaderField()
	hf.SetName("x-test")
	hf.SetValue("1")
	ReleaseHeaderField(hf)

	hf2 := AcquireHeaderField()
	assert.Equal(t, "", hf2.Name())
}
