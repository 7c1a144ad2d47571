package http2

import (
	"sync"

	"github.com/h2c-project/codec/http2utils"
)

var (
	_ Frame            = &Headers{}
	_ FrameWithHeaders = &Headers{}
)

var headersPool = sync.Pool{New: func() interface{} { return &Headers{} }}

// FrameWithHeaders is implemented by the three frame types that carry
// a header-block fragment: HEADERS, PUSH_PROMISE and CONTINUATION.
type FrameWithHeaders interface {
	Headers() []byte
}

// Headers is the HEADERS frame of RFC 7540 §6.2. rawHeaders is the raw
// HPACK-encoded header-block fragment; the HPACK decoder is applied one
// layer up once the fragment sequence is complete (END_HEADERS seen).
type Headers struct {
	padded     bool
	padLen     int
	hasPri     bool
	streamDep  uint32
	exclusive  bool
	weight     uint8
	endStream  bool
	endHeaders bool
	rawHeaders []byte
}

func (h *Headers) Type() FrameType { return FrameHeaders }

func (h *Headers) Reset() {
	h.padded = false
	h.padLen = 0
	h.hasPri = false
	h.streamDep = 0
	h.exclusive = false
	h.weight = 0
	h.endStream = false
	h.endHeaders = false
	h.rawHeaders = h.rawHeaders[:0]
}

// CopyTo copies h into other, acquiring its own backing array.
func (h *Headers) CopyTo(other *Headers) {
	other.padded = h.padded
	other.padLen = h.padLen
	other.hasPri = h.hasPri
	other.streamDep = h.streamDep
	other.exclusive = h.exclusive
	other.weight = h.weight
	other.endStream = h.endStream
	other.endHeaders = h.endHeaders
	other.rawHeaders = append(other.rawHeaders[:0], h.rawHeaders...)
}

// Headers returns the raw HPACK header-block fragment.
func (h *Headers) Headers() []byte { return h.rawHeaders }

// SetHeaders replaces the raw header-block fragment.
func (h *Headers) SetHeaders(b []byte) { h.rawHeaders = append(h.rawHeaders[:0], b...) }

// AppendHeaders appends b to the raw header-block fragment.
func (h *Headers) AppendHeaders(b []byte) { h.rawHeaders = append(h.rawHeaders, b...) }

func (h *Headers) EndStream() bool      { return h.endStream }
func (h *Headers) SetEndStream(v bool) { h.endStream = v }

func (h *Headers) EndHeaders() bool      { return h.endHeaders }
func (h *Headers) SetEndHeaders(v bool) { h.endHeaders = v }

func (h *Headers) Padded() bool      { return h.padded }
func (h *Headers) SetPadded(v bool) { h.padded = v }

// PadLength returns the number of padding octets the frame was read with.
func (h *Headers) PadLength() int { return h.padLen }

// HasPriority reports whether a PRIORITY block precedes the header block.
func (h *Headers) HasPriority() bool { return h.hasPri }

// SetPriority attaches a PRIORITY_Flag block with the given dependency.
func (h *Headers) SetPriority(streamDep uint32, exclusive bool, weight uint8) {
	h.hasPri = true
	h.streamDep = streamDep
	h.exclusive = exclusive
	h.weight = weight
}

func (h *Headers) StreamDep() uint32 { return h.streamDep }
func (h *Headers) Exclusive() bool   { return h.exclusive }
func (h *Headers) Weight() uint8     { return h.weight }

func (h *Headers) Deserialize(fr *FrameHeader) error {
	flags := fr.Flags()
	payload := fr.payload

	if flags.Has(FlagPadded) {
		cut, err := http2utils.CutPadding(payload, fr.Len())
		if err != nil {
			return connErrorf(ProtocolError, "HEADERS: %v", err)
		}
		h.padLen = len(payload) - 1 - len(cut)
		h.padded = true
		payload = cut
	}

	if flags.Has(FlagPriority) {
		if len(payload) < 5 {
			return ErrMissingBytes
		}
		dep := http2utils.BytesToUint32(payload)
		h.exclusive = dep&0x80000000 != 0
		h.streamDep = dep & (1<<31 - 1)
		h.weight = payload[4]
		h.hasPri = true
		payload = payload[5:]
	}

	h.endStream = flags.Has(FlagEndStream)
	h.endHeaders = flags.Has(FlagEndHeaders)
	h.rawHeaders = append(h.rawHeaders[:0], payload...)

	return nil
}

func (h *Headers) Serialize(fr *FrameHeader) {
	if h.endStream {
		fr.SetFlags(fr.Flags().Add(FlagEndStream))
	}
	if h.endHeaders {
		fr.SetFlags(fr.Flags().Add(FlagEndHeaders))
	}

	payload := fr.payload[:0]

	if h.hasPri {
		fr.SetFlags(fr.Flags().Add(FlagPriority))

		dep := h.streamDep & (1<<31 - 1)
		if h.exclusive {
			dep |= 0x80000000
		}

		payload = http2utils.AppendUint32Bytes(payload, dep)
		payload = append(payload, h.weight)
	}

	payload = append(payload, h.rawHeaders...)

	if h.padded {
		fr.SetFlags(fr.Flags().Add(FlagPadded))
		payload = http2utils.AddPadding(payload)
	}

	fr.setPayload(payload)
}
