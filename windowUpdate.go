package http2

import (
	"sync"

	"github.com/h2c-project/codec/http2utils"
)

var _ Frame = &WindowUpdate{}

var windowUpdatePool = sync.Pool{New: func() interface{} { return &WindowUpdate{} }}

// WindowUpdate is the WINDOW_UPDATE frame of RFC 7540 §6.9: a positive
// flow-control window increment scoped to a stream (or the whole
// connection, when the frame header's stream id is 0).
type WindowUpdate struct {
	increment int32
}

func (wu *WindowUpdate) Type() FrameType { return FrameWindowUpdate }

func (wu *WindowUpdate) Reset() { wu.increment = 0 }

func (wu *WindowUpdate) CopyTo(other *WindowUpdate) { other.increment = wu.increment }

func (wu *WindowUpdate) Increment() int32      { return wu.increment }
func (wu *WindowUpdate) SetIncrement(n int32) { wu.increment = n }

func (wu *WindowUpdate) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) < 4 {
		return ErrMissingBytes
	}

	wu.increment = int32(http2utils.BytesToUint32(fr.payload) & (1<<31 - 1))
	if wu.increment == 0 {
		if fr.Stream() == 0 {
			return connErrorf(ProtocolError, "WINDOW_UPDATE: zero increment on connection")
		}
		return streamErrorf(fr.Stream(), ProtocolError, "WINDOW_UPDATE: zero increment")
	}

	return nil
}

func (wu *WindowUpdate) Serialize(fr *FrameHeader) {
	fr.payload = http2utils.AppendUint32Bytes(fr.payload[:0], uint32(wu.increment)&(1<<31-1))
}
