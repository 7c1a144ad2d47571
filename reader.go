package http2

import (
	"bufio"

	"github.com/h2c-project/codec/hpack"
	"github.com/valyala/bytebufferpool"
)

// continuationState tracks an in-progress HEADERS/PUSH_PROMISE whose
// header block didn't fit in one frame, per RFC 7540 §6.10: no other
// frame type is permitted on the wire until END_HEADERS arrives.
type continuationState struct {
	active     bool
	streamID   uint32
	push       bool
	promisedID uint32
	padding    int
	endStream  bool
	hasPri     bool
	pri        PriorityParam
}

// Reader decodes one logical frame per Next call, transparently
// reassembling a HEADERS/PUSH_PROMISE split across CONTINUATION
// frames into a single returned frame, grounded in teacher's
// ReadFrameFrom generalized with the Design Note 4.9 PendingHeaders
// model.
type Reader struct {
	maxFrameSize uint32
	cont         continuationState
	accum        bytebufferpool.ByteBuffer
}

// NewReader returns a Reader enforcing maxFrameSize on incoming frames.
func NewReader(maxFrameSize uint32) *Reader {
	return &Reader{maxFrameSize: maxFrameSize}
}

// SetMaxFrameSize updates the enforced incoming frame size limit.
func (r *Reader) SetMaxFrameSize(n uint32) { r.maxFrameSize = n }

// Next reads from br until one logical frame is available: frames of
// an unknown type are skipped, frames other than
// HEADERS/PUSH_PROMISE/CONTINUATION pass straight through;
// a HEADERS or PUSH_PROMISE missing END_HEADERS starts accumulation
// and is only returned, fully merged, once the closing CONTINUATION
// arrives.
func (r *Reader) Next(br *bufio.Reader) (*FrameHeader, error) {
	for {
		frh, err := ReadFrameFromWithSize(br, r.maxFrameSize)
		if err == ErrUnknownFrameType {
			// The payload was already discarded; skip the frame unless it
			// interrupts a header block.
			if r.cont.active {
				return nil, connErrorf(ProtocolError, "expected CONTINUATION for stream %d", r.cont.streamID)
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if r.cont.active {
			cont, ok := frh.Body().(*Continuation)
			if !ok || frh.Stream() != r.cont.streamID {
				ReleaseFrameHeader(frh)
				return nil, connErrorf(ProtocolError, "expected CONTINUATION for stream %d", r.cont.streamID)
			}

			r.accum.Write(cont.Headers())
			endHeaders := cont.EndHeaders()
			ReleaseFrameHeader(frh)

			if !endHeaders {
				continue
			}
			return r.finishHeaders(), nil
		}

		switch b := frh.Body().(type) {
		case *Headers:
			if b.EndHeaders() {
				return frh, nil
			}

			r.cont = continuationState{
				active:    true,
				streamID:  frh.Stream(),
				endStream: b.EndStream(),
				padding:   b.PadLength(),
			}
			if b.HasPriority() {
				r.cont.hasPri = true
				r.cont.pri = PriorityParam{StreamDep: b.StreamDep(), Exclusive: b.Exclusive(), Weight: b.Weight()}
			}
			r.accum.Reset()
			r.accum.Write(b.Headers())
			ReleaseFrameHeader(frh)

		case *PushPromise:
			if b.EndHeaders() {
				return frh, nil
			}

			r.cont = continuationState{
				active:     true,
				streamID:   frh.Stream(),
				push:       true,
				promisedID: b.PromisedStreamID(),
			}
			r.accum.Reset()
			r.accum.Write(b.Headers())
			ReleaseFrameHeader(frh)

		default:
			return frh, nil
		}
	}
}

func (r *Reader) finishHeaders() *FrameHeader {
	frh := AcquireFrameHeader()
	frh.SetStream(r.cont.streamID)

	body := append([]byte(nil), r.accum.B...)

	if r.cont.push {
		pp := AcquireFrame(FramePushPromise).(*PushPromise)
		pp.SetEndHeaders(true)
		pp.SetPromisedStreamID(r.cont.promisedID)
		pp.SetHeaders(body)
		frh.SetBody(pp)
	} else {
		h := AcquireFrame(FrameHeaders).(*Headers)
		h.SetEndHeaders(true)
		h.SetEndStream(r.cont.endStream)
		h.padded = r.cont.padding > 0
		h.padLen = r.cont.padding
		if r.cont.hasPri {
			h.SetPriority(r.cont.pri.StreamDep, r.cont.pri.Exclusive, r.cont.pri.Weight)
		}
		h.SetHeaders(body)
		frh.SetBody(h)
	}

	r.accum.Reset()
	r.cont = continuationState{}

	return frh
}

// DecodeHeaders runs dec over fr's reassembled header block. fr must
// be a HEADERS or PUSH_PROMISE frame as returned by Next (always
// END_HEADERS-complete). The returned error is already classified as
// a ConnectionError or StreamError per classifyHpackErr.
func DecodeHeaders(dec *hpack.Decoder, fr *FrameHeader) ([]hpack.HeaderField, error) {
	fh, ok := fr.Body().(FrameWithHeaders)
	if !ok {
		return nil, connErrorf(InternalError, "DecodeHeaders: frame type %s carries no header block", fr.Type())
	}

	fields, err := dec.DecodeFull(nil, fh.Headers())
	dec.Finish()
	if err != nil {
		return nil, classifyHpackErr(fr.Stream(), err)
	}

	return fields, nil
}
