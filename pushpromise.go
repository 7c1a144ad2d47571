package http2

import (
	"sync"

	"github.com/h2c-project/codec/http2utils"
)

var (
	_ Frame            = &PushPromise{}
	_ FrameWithHeaders = &PushPromise{}
)

var pushPromisePool = sync.Pool{New: func() interface{} { return &PushPromise{} }}

// PushPromise is the PUSH_PROMISE frame of RFC 7540 §6.6: reserves a
// server-initiated stream and carries the request header block the
// server promises to respond to.
type PushPromise struct {
	padded          bool
	endHeaders      bool
	promisedStream  uint32
	rawHeaders      []byte
}

func (pp *PushPromise) Type() FrameType { return FramePushPromise }

func (pp *PushPromise) Reset() {
	pp.padded = false
	pp.endHeaders = false
	pp.promisedStream = 0
	pp.rawHeaders = pp.rawHeaders[:0]
}

func (pp *PushPromise) CopyTo(other *PushPromise) {
	other.padded = pp.padded
	other.endHeaders = pp.endHeaders
	other.promisedStream = pp.promisedStream
	other.rawHeaders = append(other.rawHeaders[:0], pp.rawHeaders...)
}

// Headers returns the raw header-block fragment.
func (pp *PushPromise) Headers() []byte { return pp.rawHeaders }

func (pp *PushPromise) SetHeaders(b []byte) { pp.rawHeaders = append(pp.rawHeaders[:0], b...) }

func (pp *PushPromise) EndHeaders() bool      { return pp.endHeaders }
func (pp *PushPromise) SetEndHeaders(v bool) { pp.endHeaders = v }

func (pp *PushPromise) Padded() bool      { return pp.padded }
func (pp *PushPromise) SetPadded(v bool) { pp.padded = v }

// PromisedStreamID returns the stream id the server is reserving.
func (pp *PushPromise) PromisedStreamID() uint32 { return pp.promisedStream }
func (pp *PushPromise) SetPromisedStreamID(id uint32) {
	pp.promisedStream = id & (1<<31 - 1)
}

func (pp *PushPromise) Deserialize(fr *FrameHeader) error {
	payload := fr.payload

	if fr.Flags().Has(FlagPadded) {
		cut, err := http2utils.CutPadding(payload, fr.Len())
		if err != nil {
			return connErrorf(ProtocolError, "PUSH_PROMISE: %v", err)
		}
		pp.padded = true
		payload = cut
	}

	if len(payload) < 4 {
		return ErrMissingBytes
	}

	pp.promisedStream = http2utils.BytesToUint32(payload) & (1<<31 - 1)
	pp.endHeaders = fr.Flags().Has(FlagEndHeaders)
	pp.rawHeaders = append(pp.rawHeaders[:0], payload[4:]...)

	return nil
}

func (pp *PushPromise) Serialize(fr *FrameHeader) {
	if pp.endHeaders {
		fr.SetFlags(fr.Flags().Add(FlagEndHeaders))
	}

	payload := http2utils.AppendUint32Bytes(fr.payload[:0], pp.promisedStream&(1<<31-1))
	payload = append(payload, pp.rawHeaders...)

	if pp.padded {
		fr.SetFlags(fr.Flags().Add(FlagPadded))
		payload = http2utils.AddPadding(payload)
	}

	fr.setPayload(payload)
}
