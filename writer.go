package http2

import (
	"bufio"

	"github.com/h2c-project/codec/hpack"
)

// Writer serializes outgoing frames against a negotiated MaxFrameSize,
// fragmenting HEADERS and DATA the way the teacher's writeData helper
// does, generalized from a hardcoded 1<<14 step to whatever size the
// peer's SETTINGS negotiated.
type Writer struct {
	enc          *hpack.Encoder
	maxFrameSize uint32
}

// NewWriter returns a Writer using enc for header compression.
func NewWriter(enc *hpack.Encoder, maxFrameSize uint32) *Writer {
	if maxFrameSize == 0 {
		maxFrameSize = defaultMaxFrameSize
	}
	return &Writer{enc: enc, maxFrameSize: maxFrameSize}
}

// SetMaxFrameSize updates the fragmentation threshold, e.g. after a
// SETTINGS_MAX_FRAME_SIZE from the peer.
func (w *Writer) SetMaxFrameSize(n uint32) { w.maxFrameSize = n }

// WriteHeaders encodes fields and writes a HEADERS frame followed by
// as many CONTINUATION frames as needed to stay under MaxFrameSize.
func (w *Writer) WriteHeaders(bw *bufio.Writer, streamID uint32, fields []hpack.HeaderField, endStream bool) error {
	var block []byte
	block = w.enc.StartBlock(block)
	for i := range fields {
		block = w.enc.EncodeField(block, &fields[i])
	}

	step := int(w.maxFrameSize)

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	frh.SetStream(streamID)

	first := step
	if first > len(block) {
		first = len(block)
	}

	h := AcquireFrame(FrameHeaders).(*Headers)
	frh.SetBody(h)
	h.SetEndStream(endStream)
	h.SetEndHeaders(len(block) <= step)
	h.SetHeaders(block[:first])

	if _, err := frh.WriteTo(bw); err != nil {
		return err
	}

	for off := first; off < len(block); off += step {
		end := off + step
		if end > len(block) {
			end = len(block)
		}

		frh.SetStream(streamID)
		c := AcquireFrame(FrameContinuation).(*Continuation)
		frh.SetBody(c)
		c.SetEndHeaders(end == len(block))
		c.SetHeaders(block[off:end])

		if _, err := frh.WriteTo(bw); err != nil {
			return err
		}
	}

	return nil
}

// WriteData fragments body into one or more DATA frames of at most
// MaxFrameSize bytes each, setting END_STREAM on the last one iff
// endStream is true.
func (w *Writer) WriteData(bw *bufio.Writer, streamID uint32, body []byte, endStream bool) error {
	step := int(w.maxFrameSize)
	if step <= 0 {
		step = defaultMaxFrameSize
	}

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	if len(body) == 0 {
		frh.SetStream(streamID)
		d := AcquireFrame(FrameData).(*Data)
		frh.SetBody(d)
		d.SetEndStream(endStream)
		_, err := frh.WriteTo(bw)
		return err
	}

	for i := 0; i < len(body); i += step {
		end := i + step
		if end > len(body) {
			end = len(body)
		}

		frh.SetStream(streamID)
		d := AcquireFrame(FrameData).(*Data)
		frh.SetBody(d)
		d.SetEndStream(endStream && end == len(body))
		d.SetData(body[i:end])

		if _, err := frh.WriteTo(bw); err != nil {
			return err
		}
	}

	return nil
}

// WriteSettings writes a (non-ACK) SETTINGS frame.
func (w *Writer) WriteSettings(bw *bufio.Writer, s *Settings) error {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	frh.SetBody(s)
	_, err := frh.WriteTo(bw)
	return err
}

// WriteSettingsAck writes an empty SETTINGS ack frame.
func (w *Writer) WriteSettingsAck(bw *bufio.Writer) error {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	s := AcquireFrame(FrameSettings).(*Settings)
	s.SetAck(true)
	frh.SetBody(s)

	_, err := frh.WriteTo(bw)
	return err
}

// WritePing writes a PING frame, ack indicating whether this is the
// reply to a previously received probe.
func (w *Writer) WritePing(bw *bufio.Writer, payload [8]byte, ack bool) error {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	p := AcquireFrame(FramePing).(*Ping)
	p.SetAck(ack)
	p.SetData(payload[:])
	frh.SetBody(p)

	_, err := frh.WriteTo(bw)
	return err
}

// WriteWindowUpdate writes a WINDOW_UPDATE frame for streamID (0 for
// the connection window).
func (w *Writer) WriteWindowUpdate(bw *bufio.Writer, streamID uint32, increment int32) error {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	frh.SetStream(streamID)

	wu := AcquireFrame(FrameWindowUpdate).(*WindowUpdate)
	wu.SetIncrement(increment)
	frh.SetBody(wu)

	_, err := frh.WriteTo(bw)
	return err
}

// WriteRstStream writes a RST_STREAM frame for streamID.
func (w *Writer) WriteRstStream(bw *bufio.Writer, streamID uint32, code ErrorCode) error {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	frh.SetStream(streamID)

	rst := AcquireFrame(FrameResetStream).(*RstStream)
	rst.SetCode(code)
	frh.SetBody(rst)

	_, err := frh.WriteTo(bw)
	return err
}

// WriteGoAway writes a GOAWAY frame.
func (w *Writer) WriteGoAway(bw *bufio.Writer, lastStreamID uint32, code ErrorCode, debugData []byte) error {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	ga := AcquireFrame(FrameGoAway).(*GoAway)
	ga.SetLastStreamID(lastStreamID)
	ga.SetCode(code)
	ga.SetData(debugData)
	frh.SetBody(ga)

	_, err := frh.WriteTo(bw)
	return err
}
