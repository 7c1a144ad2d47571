package http2

import (
	"io"
	"math"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/h2c-project/codec/hpack"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// ContentEncoding identifies a supported content-encoding value for
// the decompressor layer over DATA.
type ContentEncoding string

const (
	EncodingIdentity ContentEncoding = ""
	EncodingGzip     ContentEncoding = "gzip"
	EncodingXGzip    ContentEncoding = "x-gzip"
	EncodingDeflate  ContentEncoding = "deflate"
	EncodingXDeflate ContentEncoding = "x-deflate"
	EncodingBrotli   ContentEncoding = "br"
)

// decompressor sits between received DATA payload bytes and the
// Listener, inflating content-encoded bodies and reconciling the
// flow-control accounting (which must track *compressed* bytes, since
// that's what the wire window governs) against the decoded byte count
// a caller actually consumes.
//
// Write and Drain are driven by the connection's read loop, a single
// goroutine; the underlying gzip/flate/brotli reader instead runs on
// its own pump goroutine pulling from the write side of an io.Pipe, so
// neither side blocks waiting for the other to reenter the type from
// the same goroutine.
type decompressor struct {
	encoding ContentEncoding
	local    *LocalFlowController

	pw *io.PipeWriter

	mu           sync.Mutex
	buf          []byte
	decompressed int64
	readErr      error
	pumpDone     chan struct{}

	compressed           int64
	consumedDecompressed int64
	reconciledCompressed int64
}

// newDecompressor returns a decompressor for encoding, or nil (with ok
// false) for identity/unrecognized encodings, in which case the caller
// should pass DATA straight through uncompressed.
func newDecompressor(encoding ContentEncoding, local *LocalFlowController) (*decompressor, bool) {
	var open func(io.Reader) (io.Reader, error)
	switch encoding {
	case EncodingGzip, EncodingXGzip:
		open = func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) }
	case EncodingDeflate, EncodingXDeflate:
		open = func(r io.Reader) (io.Reader, error) { return flate.NewReader(r), nil }
	case EncodingBrotli:
		open = func(r io.Reader) (io.Reader, error) { return brotli.NewReader(r), nil }
	default:
		return nil, false
	}

	pr, pw := io.Pipe()
	d := &decompressor{
		encoding: encoding,
		local:    local,
		pw:       pw,
		pumpDone: make(chan struct{}),
	}

	go d.pump(pr, open)

	return d, true
}

// pump runs on its own goroutine for the life of the decompressor,
// continuously reading decoded bytes out of zr (which in turn reads
// compressed bytes written through d.pw by Write) into d.buf.
func (d *decompressor) pump(pr *io.PipeReader, open func(io.Reader) (io.Reader, error)) {
	defer close(d.pumpDone)

	zr, err := open(pr)
	if err != nil {
		d.mu.Lock()
		d.readErr = err
		d.mu.Unlock()
		pr.CloseWithError(err)
		return
	}

	chunk := make([]byte, 32*1024)
	for {
		n, err := zr.Read(chunk)
		if n > 0 {
			d.mu.Lock()
			d.buf = append(d.buf, chunk[:n]...)
			d.decompressed += int64(n)
			d.mu.Unlock()
		}
		if err != nil {
			d.mu.Lock()
			d.readErr = err
			d.mu.Unlock()
			pr.CloseWithError(err)
			return
		}
	}
}

// Write feeds n compressed bytes into the decompressor, returning an
// InternalError StreamError if the pipe to the pump goroutine fails
// (for example because the pump's decoder hit an error). A write after
// the pipe was closed is not reported.
func (d *decompressor) Write(streamID uint32, b []byte) (int, error) {
	n, err := d.pw.Write(b)
	d.compressed += int64(n)
	if err != nil && err != io.ErrClosedPipe {
		return n, streamErrorf(streamID, InternalError, "decompressor: %v", err)
	}
	return n, nil
}

// Close signals end of compressed input and waits for the pump
// goroutine to drain what it already has buffered.
func (d *decompressor) Close() error {
	err := d.pw.Close()
	<-d.pumpDone
	return err
}

// Drain copies up to len(dst) currently-available decompressed bytes
// into dst and accounts them against the compressed-byte consumption
// ratio, returning the WINDOW_UPDATE increment (possibly 0) the caller
// should emit. n may be 0 with a nil error when no decompressed output
// is ready yet.
func (d *decompressor) Drain(streamID uint32, dst []byte) (n int, windowUpdate int32, err error) {
	d.mu.Lock()
	n = copy(dst, d.buf)
	d.buf = d.buf[n:]
	decompressed := d.decompressed
	readErr := d.readErr
	d.mu.Unlock()

	if decompressed == 0 && d.compressed > 0 && n == 0 && readErr == io.EOF {
		return n, 0, streamErrorf(streamID, InternalError, "decompressor: produced no output from non-empty input")
	}

	d.consumedDecompressed += int64(n)

	ratio := float64(d.compressed) / float64(maxInt64(decompressed, 1))
	consumedCompressed := int64(math.Ceil(float64(d.consumedDecompressed) * ratio))

	if d.compressed-d.reconciledCompressed < 0 {
		return n, 0, streamErrorf(streamID, InternalError, "decompressor: negative remaining compressed byte count")
	}

	delta := consumedCompressed - d.reconciledCompressed
	d.reconciledCompressed = consumedCompressed

	var wu int32
	if delta > 0 {
		var werr error
		wu, werr = d.local.ConsumeBytes(int32(delta))
		if werr != nil {
			return n, 0, werr
		}
	}

	if readErr != nil && readErr != io.EOF {
		err = streamErrorf(streamID, InternalError, "decompressor: %v", readErr)
	}

	return n, wu, err
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// stripContentLength removes a content-length header field from
// fields, per spec §4.9: once a decompressor is installed the
// advertised length no longer describes the bytes the listener sees.
func stripContentLength(fields []hpack.HeaderField) []hpack.HeaderField {
	out := fields[:0]
	for _, f := range fields {
		if f.Name() == "content-length" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// contentEncodingOf scans decoded fields for a content-encoding value.
func contentEncodingOf(fields []hpack.HeaderField) ContentEncoding {
	for i := range fields {
		if fields[i].Name() == "content-encoding" {
			return ContentEncoding(fields[i].Value())
		}
	}
	return EncodingIdentity
}
