package http2

import (
	"bufio"
	"io"
	"sync"

	"github.com/h2c-project/codec/http2utils"
)

var frameHeaderPool = sync.Pool{
	New: func() interface{} { return &FrameHeader{} },
}

// FrameHeader is the 9-byte frame header of RFC 7540 §4.1 plus the
// payload bytes and the decoded Frame body it wraps.
//
// Use AcquireFrameHeader/ReleaseFrameHeader to reuse allocations; a
// FrameHeader must not be used from more than one goroutine.
type FrameHeader struct {
	length int
	kind   FrameType
	flags  FrameFlags
	stream uint32

	maxLen uint32

	rawHeader [DefaultFrameHeaderSize]byte
	payload   []byte

	fr Frame
}

// AcquireFrameHeader gets a FrameHeader from the pool.
func AcquireFrameHeader() *FrameHeader {
	fr := frameHeaderPool.Get().(*FrameHeader)
	fr.Reset()
	return fr
}

// ReleaseFrameHeader releases fr's Frame body and returns fr to the pool.
func ReleaseFrameHeader(fr *FrameHeader) {
	ReleaseFrame(fr.Body())
	frameHeaderPool.Put(fr)
}

// Reset clears frh back to its zero wire state.
func (frh *FrameHeader) Reset() {
	frh.kind = 0
	frh.flags = 0
	frh.stream = 0
	frh.length = 0
	frh.maxLen = defaultMaxFrameSize
	frh.fr = nil
	frh.payload = frh.payload[:0]
}

func (frh *FrameHeader) Type() FrameType { return frh.kind }

func (frh *FrameHeader) Flags() FrameFlags { return frh.flags }

func (frh *FrameHeader) SetFlags(flags FrameFlags) { frh.flags = flags }

// Stream returns the stream id of the current frame.
func (frh *FrameHeader) Stream() uint32 { return frh.stream }

// SetStream sets the frame's stream id. The reserved high bit is left
// untouched so callers that need to exercise malformed wire input can
// still do so.
func (frh *FrameHeader) SetStream(stream uint32) { frh.stream = stream }

// Len returns the payload length.
func (frh *FrameHeader) Len() int { return frh.length }

// MaxLen returns the negotiated maximum payload length (0 == unbounded).
func (frh *FrameHeader) MaxLen() uint32 { return frh.maxLen }

// SetMaxLen sets the negotiated maximum payload length this header will
// enforce on read/write.
func (frh *FrameHeader) SetMaxLen(n uint32) { frh.maxLen = n }

func (frh *FrameHeader) parseValues(header []byte) {
	frh.length = int(http2utils.BytesToUint24(header[:3]))
	frh.kind = FrameType(header[3])
	frh.flags = FrameFlags(header[4])
	frh.stream = http2utils.BytesToUint32(header[5:]) & (1<<31 - 1)
}

func (frh *FrameHeader) buildHeader(header []byte) {
	http2utils.Uint24ToBytes(header[:3], uint32(frh.length))
	header[3] = byte(frh.kind)
	header[4] = byte(frh.flags)
	http2utils.Uint32ToBytes(header[5:], frh.stream)
}

// ReadFrameFrom reads one FrameHeader (header + payload + decoded
// body) from br, using the default negotiated frame size.
func ReadFrameFrom(br *bufio.Reader) (*FrameHeader, error) {
	return ReadFrameFromWithSize(br, defaultMaxFrameSize)
}

// ReadFrameFromWithSize reads one FrameHeader from br, rejecting any
// payload longer than max.
func ReadFrameFromWithSize(br *bufio.Reader, max uint32) (*FrameHeader, error) {
	fr := AcquireFrameHeader()
	fr.maxLen = max

	_, err := fr.readFrom(br)
	if err != nil {
		if fr.Body() != nil {
			ReleaseFrameHeader(fr)
		} else {
			frameHeaderPool.Put(fr)
		}
		return nil, err
	}

	return fr, nil
}

// ReadFrom reads frh's header, payload, and dispatches to the body's
// Deserialize. Unlike io.ReaderFrom it never reads until io.EOF — one
// frame per call.
func (frh *FrameHeader) ReadFrom(br *bufio.Reader) (int64, error) {
	return frh.readFrom(br)
}

func (frh *FrameHeader) readFrom(br *bufio.Reader) (int64, error) {
	header, err := br.Peek(DefaultFrameHeaderSize)
	if err != nil {
		return 0, err
	}

	if _, err := br.Discard(DefaultFrameHeaderSize); err != nil {
		return 0, err
	}

	rn := int64(DefaultFrameHeaderSize)

	frh.parseValues(header)
	if err := frh.checkLen(); err != nil {
		return rn, err
	}

	if frh.kind > FrameContinuation {
		_, _ = br.Discard(frh.length)
		return rn, ErrUnknownFrameType
	}

	frh.fr = AcquireFrame(frh.kind)

	if frh.length > 0 {
		frh.payload = http2utils.Resize(frh.payload, frh.length)

		n, err := io.ReadFull(br, frh.payload[:frh.length])
		rn += int64(n)
		if err != nil {
			return rn, err
		}
	}

	return rn, frh.fr.Deserialize(frh)
}

// WriteTo serializes frh's body and writes the 9-byte header plus
// payload to w.
func (frh *FrameHeader) WriteTo(w *bufio.Writer) (int64, error) {
	frh.fr.Serialize(frh)

	frh.length = len(frh.payload)
	frh.buildHeader(frh.rawHeader[:])

	var wb int64

	n, err := w.Write(frh.rawHeader[:])
	wb += int64(n)
	if err != nil {
		return wb, err
	}

	n, err = w.Write(frh.payload)
	wb += int64(n)

	return wb, err
}

// Body returns the decoded/to-be-encoded Frame payload.
func (frh *FrameHeader) Body() Frame { return frh.fr }

// SetBody attaches fr as frh's payload, updating the type byte to match.
func (frh *FrameHeader) SetBody(fr Frame) {
	if fr == nil {
		panic("http2: FrameHeader body cannot be nil")
	}
	frh.kind = fr.Type()
	frh.fr = fr
}

func (frh *FrameHeader) setPayload(payload []byte) {
	frh.payload = append(frh.payload[:0], payload...)
}

func (frh *FrameHeader) checkLen() error {
	if frh.maxLen != 0 && frh.length > int(frh.maxLen) {
		return connErrorf(FrameSizeError, "frame length %d exceeds negotiated maximum %d", frh.length, frh.maxLen)
	}
	return nil
}
