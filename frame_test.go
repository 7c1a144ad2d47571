package http2

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h2c-project/codec/hpack"
)

func TestHeadersFrameRoundTrip(t *testing.T) {
	h := AcquireFrame(FrameHeaders).(*Headers)
	defer ReleaseFrame(h)
	h.SetHeaders([]byte("hello hpack block"))
	h.SetEndStream(true)
	h.SetEndHeaders(true)
	h.SetPriority(3, true, 200)

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.SetStream(7)
	frh.SetBody(h)

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	_, err := frh.WriteTo(bw)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())

	br := bufio.NewReader(&buf)
	got, err := ReadFrameFrom(br)
	require.NoError(t, err)
	defer ReleaseFrameHeader(got)

	assert.EqualValues(t, 7, got.Stream())
	assert.Equal(t, FrameHeaders, got.Type())

	gotH := got.Body().(*Headers)
	assert.True(t, gotH.EndStream())
	assert.True(t, gotH.EndHeaders())
	assert.True(t, gotH.HasPriority())
	assert.EqualValues(t, 3, gotH.StreamDep())
	assert.True(t, gotH.Exclusive())
	assert.EqualValues(t, 200, gotH.Weight())
	assert.Equal(t, "hello hpack block", string(gotH.Headers()))
}

func TestDataFrameRoundTrip(t *testing.T) {
	d := AcquireFrame(FrameData).(*Data)
	defer ReleaseFrame(d)
	d.SetData([]byte("payload bytes"))
	d.SetEndStream(true)

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.SetStream(9)
	frh.SetBody(d)

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	_, err := frh.WriteTo(bw)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())

	br := bufio.NewReader(&buf)
	got, err := ReadFrameFrom(br)
	require.NoError(t, err)
	defer ReleaseFrameHeader(got)

	gotD := got.Body().(*Data)
	assert.Equal(t, "payload bytes", string(gotD.Data()))
	assert.True(t, gotD.EndStream())
}

func TestFrameHeaderRejectsOversizedFrame(t *testing.T) {
	d := AcquireFrame(FrameData).(*Data)
	defer ReleaseFrame(d)
	d.SetData(make([]byte, 100))

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.SetBody(d)

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	_, err := frh.WriteTo(bw)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())

	br := bufio.NewReader(&buf)
	_, err = ReadFrameFromWithSize(br, 50)
	require.Error(t, err)
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, FrameSizeError, ce.Code)
}

func TestReaderReassemblesContinuation(t *testing.T) {
	enc := hpack.NewEncoder(4096, true)
	w := NewWriter(enc, 1) // force fragmentation: one byte per frame

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)

	fields := []hpack.HeaderField{
		hpack.NewHeaderField("x-a", "1"),
		hpack.NewHeaderField("x-b", "2"),
		hpack.NewHeaderField("x-c", "3"),
	}
	require.NoError(t, w.WriteHeaders(bw, 1, fields, true))
	require.NoError(t, bw.Flush())

	r := NewReader(defaultMaxFrameSize)
	br := bufio.NewReader(&buf)

	frh, err := r.Next(br)
	require.NoError(t, err)
	defer ReleaseFrameHeader(frh)

	h, ok := frh.Body().(*Headers)
	require.True(t, ok)
	assert.True(t, h.EndHeaders())
	assert.True(t, h.EndStream())

	dec := hpack.NewDecoder(4096, 0)
	got, err := DecodeHeaders(dec, frh)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "x-a", got[0].Name())
	assert.Equal(t, "1", got[0].Value())
}
