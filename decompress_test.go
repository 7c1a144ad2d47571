package http2

import (
	"bytes"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/h2c-project/codec/hpack"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipBytes(t *testing.T, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func flateBytes(t *testing.T, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = zw.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func brotliBytes(t *testing.T, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := brotli.NewWriter(&buf)
	_, err := zw.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// drainAll pulls every decompressed byte out of d, handling the 0-bytes
// ready-but-not-yet-produced case Drain can return while the pump
// goroutine is still catching up.
func drainAll(t *testing.T, d *decompressor, streamID uint32) []byte {
	t.Helper()
	var out []byte
	chunk := make([]byte, 4096)
	for i := 0; i < 1000; i++ {
		n, _, err := d.Drain(streamID, chunk)
		require.NoError(t, err)
		if n > 0 {
			out = append(out, chunk[:n]...)
		}
		if n == 0 && d.readErr != nil {
			break
		}
	}
	return out
}

func TestDecompressorGzipRoundTrip(t *testing.T) {
	local := NewLocalFlowController(1, 1<<20, 0.5)
	d, ok := newDecompressor(EncodingGzip, local)
	require.True(t, ok)

	payload := "the quick brown fox jumps over the lazy dog, repeated for compressibility, " +
		"the quick brown fox jumps over the lazy dog"
	compressed := gzipBytes(t, payload)

	_, err := d.Write(1, compressed)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	got := drainAll(t, d, 1)
	assert.Equal(t, payload, string(got))
}

func TestDecompressorFlateRoundTrip(t *testing.T) {
	local := NewLocalFlowController(1, 1<<20, 0.5)
	d, ok := newDecompressor(EncodingDeflate, local)
	require.True(t, ok)

	payload := "deflate round trip payload, deflate round trip payload"
	compressed := flateBytes(t, payload)

	_, err := d.Write(1, compressed)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	got := drainAll(t, d, 1)
	assert.Equal(t, payload, string(got))
}

func TestDecompressorXGzipAliasRoundTrip(t *testing.T) {
	local := NewLocalFlowController(1, 1<<20, 0.5)
	d, ok := newDecompressor(EncodingXGzip, local)
	require.True(t, ok)

	payload := "x-gzip is an alias for gzip, x-gzip is an alias for gzip"
	compressed := gzipBytes(t, payload)

	_, err := d.Write(1, compressed)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	got := drainAll(t, d, 1)
	assert.Equal(t, payload, string(got))
}

func TestDecompressorXDeflateAliasRoundTrip(t *testing.T) {
	local := NewLocalFlowController(1, 1<<20, 0.5)
	d, ok := newDecompressor(EncodingXDeflate, local)
	require.True(t, ok)

	payload := "x-deflate is an alias for deflate, x-deflate is an alias for deflate"
	compressed := flateBytes(t, payload)

	_, err := d.Write(1, compressed)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	got := drainAll(t, d, 1)
	assert.Equal(t, payload, string(got))
}

func TestDecompressorBrotliRoundTrip(t *testing.T) {
	local := NewLocalFlowController(1, 1<<20, 0.5)
	d, ok := newDecompressor(EncodingBrotli, local)
	require.True(t, ok)

	payload := "brotli round trip payload, brotli round trip payload"
	compressed := brotliBytes(t, payload)

	_, err := d.Write(1, compressed)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	got := drainAll(t, d, 1)
	assert.Equal(t, payload, string(got))
}

func TestDecompressorIdentityReturnsNotOk(t *testing.T) {
	local := NewLocalFlowController(1, 1<<20, 0.5)
	_, ok := newDecompressor(EncodingIdentity, local)
	assert.False(t, ok)
}

func TestDecompressorReconcilesWindowUpdateAgainstCompressedBytes(t *testing.T) {
	local := NewLocalFlowController(1, 1024, 0.01) // threshold ~10 bytes, below the gzip stream's compressed size
	d, ok := newDecompressor(EncodingGzip, local)
	require.True(t, ok)

	payload := bytes.Repeat([]byte("a"), 8192)
	compressed := gzipBytes(t, string(payload))

	_, err := d.Write(1, compressed)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	chunk := make([]byte, len(payload))
	var total int
	var sawWindowUpdate bool
	for i := 0; i < 1000 && total < len(payload); i++ {
		n, wu, err := d.Drain(1, chunk[total:])
		require.NoError(t, err)
		total += n
		if wu > 0 {
			sawWindowUpdate = true
		}
	}

	assert.Equal(t, len(payload), total)
	assert.True(t, sawWindowUpdate, "expected at least one WINDOW_UPDATE credit as decoded bytes were consumed")
}

func TestContentEncodingOfRecognizesXAliases(t *testing.T) {
	xgzip := []hpack.HeaderField{hpack.NewHeaderField("content-encoding", "x-gzip")}
	assert.Equal(t, EncodingXGzip, contentEncodingOf(xgzip))

	xdeflate := []hpack.HeaderField{hpack.NewHeaderField("content-encoding", "x-deflate")}
	assert.Equal(t, EncodingXDeflate, contentEncodingOf(xdeflate))
}

func TestStripContentLengthRemovesField(t *testing.T) {
	fields := []hpack.HeaderField{
		hpack.NewHeaderField("content-length", "42"),
		hpack.NewHeaderField("content-type", "text/plain"),
	}
	out := stripContentLength(fields)

	require.Len(t, out, 1)
	assert.Equal(t, "content-type", out[0].Name())
}

func TestContentEncodingOfFindsHeader(t *testing.T) {
	fields := []hpack.HeaderField{
		hpack.NewHeaderField("content-encoding", "gzip"),
		hpack.NewHeaderField("content-type", "text/plain"),
	}
	assert.Equal(t, EncodingGzip, contentEncodingOf(fields))
}

func TestContentEncodingOfDefaultsToIdentity(t *testing.T) {
	fields := []hpack.HeaderField{
		hpack.NewHeaderField("content-type", "text/plain"),
	}
	assert.Equal(t, EncodingIdentity, contentEncodingOf(fields))
}
