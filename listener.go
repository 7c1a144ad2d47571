package http2

import "github.com/h2c-project/codec/hpack"

// PriorityParam is the optional dependency/weight prefix a HEADERS
// frame may carry, per RFC 7540 §6.2.
type PriorityParam struct {
	StreamDep uint32
	Exclusive bool
	Weight    uint8
}

// Listener receives decoded connection/stream events as a Reader
// drains frames off the wire. Implementations embed NopListener to
// pick up no-op defaults for events they don't care about.
type Listener interface {
	OnHeadersRead(streamID uint32, headers []hpack.HeaderField, pri *PriorityParam, padding int, endStream bool)
	OnDataRead(streamID uint32, data []byte, padding int, endStream bool) int
	OnRstStreamRead(streamID uint32, code ErrorCode)
	OnSettingsRead(s *Settings)
	OnSettingsAckRead()
	OnPingRead(payload [8]byte)
	OnPingAckRead(payload [8]byte)
	OnPushPromiseRead(streamID, promisedStreamID uint32, headers []hpack.HeaderField, padding int)
	OnGoAwayRead(lastStreamID uint32, code ErrorCode, debugData []byte)
	OnWindowUpdateRead(streamID uint32, delta int32)
	OnUnknownFrame(kind FrameType, streamID uint32, flags FrameFlags, payload []byte)
}

// NopListener implements Listener with every method a no-op. Embed it
// in a concrete listener and override only the events it needs.
type NopListener struct{}

func (NopListener) OnHeadersRead(uint32, []hpack.HeaderField, *PriorityParam, int, bool) {}
func (NopListener) OnDataRead(_ uint32, data []byte, _ int, _ bool) int                  { return len(data) }
func (NopListener) OnRstStreamRead(uint32, ErrorCode)                                    {}
func (NopListener) OnSettingsRead(*Settings)                                             {}
func (NopListener) OnSettingsAckRead()                                                   {}
func (NopListener) OnPingRead([8]byte)                                                   {}
func (NopListener) OnPingAckRead([8]byte)                                                {}
func (NopListener) OnPushPromiseRead(uint32, uint32, []hpack.HeaderField, int)           {}
func (NopListener) OnGoAwayRead(uint32, ErrorCode, []byte)                               {}
func (NopListener) OnWindowUpdateRead(uint32, int32)                                     {}
func (NopListener) OnUnknownFrame(FrameType, uint32, FrameFlags, []byte)                 {}

var _ Listener = NopListener{}
