package http2

import "fmt"

// StreamState is a node in the per-stream state machine of RFC 7540
// §5.1. Transitions are driven by frames sent/received and by the
// local/remote end-of-stream signal.
type StreamState int8

const (
	StreamIdle StreamState = iota
	StreamReservedLocal
	StreamReservedRemote
	StreamOpen
	StreamHalfClosedLocal
	StreamHalfClosedRemote
	StreamClosed
)

func (ss StreamState) String() string {
	switch ss {
	case StreamIdle:
		return "idle"
	case StreamReservedLocal:
		return "reserved (local)"
	case StreamReservedRemote:
		return "reserved (remote)"
	case StreamOpen:
		return "open"
	case StreamHalfClosedLocal:
		return "half-closed (local)"
	case StreamHalfClosedRemote:
		return "half-closed (remote)"
	case StreamClosed:
		return "closed"
	}
	return "unknown"
}

// side identifies which endpoint an action originates from, relative
// to the Stream's owner.
type side uint8

const (
	sideLocal side = iota
	sideRemote
)

// event is a stream-affecting occurrence driving transitions, per
// RFC 7540 §5.1's state diagram.
type event uint8

const (
	eventHeaders event = iota
	eventPushPromise
	eventEndStream
	eventRstStream
)

// Stream tracks one HTTP/2 stream's state machine, flow-control
// budgets and priority-tree linkage.
type Stream struct {
	id    uint32
	state StreamState

	// remoteFC is this endpoint's send budget toward the peer (consumed
	// by outbound DATA, replenished by an incoming WINDOW_UPDATE).
	remoteFC *RemoteFlowController
	// localFC is the window this endpoint has advertised to the peer
	// for this stream (consumed by inbound DATA, replenished by an
	// outgoing WINDOW_UPDATE once enough has been read).
	localFC *LocalFlowController

	weight    uint8
	parent    uint32
	exclusive bool

	decomp *decompressor

	data interface{}
}

// NewStream creates an idle Stream, sized from cfg's initial window
// and update ratio.
func NewStream(id uint32, cfg *Config, data interface{}) *Stream {
	return &Stream{
		id:       id,
		state:    StreamIdle,
		remoteFC: NewRemoteFlowController(id, int32(cfg.InitialWindowSize)),
		localFC:  NewLocalFlowController(id, int32(cfg.InitialWindowSize), cfg.WindowUpdateRatio),
		weight:   15,
		data:     data,
	}
}

func (s *Stream) ID() uint32 { return s.id }

func (s *Stream) State() StreamState { return s.state }

func (s *Stream) SetState(state StreamState) { s.state = state }

// RemoteFlow returns the controller governing this endpoint's outbound
// budget toward the peer on this stream.
func (s *Stream) RemoteFlow() *RemoteFlowController { return s.remoteFC }

// LocalFlow returns the controller governing the window this endpoint
// has advertised to the peer on this stream.
func (s *Stream) LocalFlow() *LocalFlowController { return s.localFC }

// Decompressor returns the content-decoding layer installed for this
// stream's DATA, or nil if the request/response body is identity
// encoded.
func (s *Stream) Decompressor() *decompressor { return s.decomp }

// SetDecompressor installs d as the stream's content-decoding layer.
func (s *Stream) SetDecompressor(d *decompressor) { s.decomp = d }

func (s *Stream) Weight() uint8 { return s.weight }

func (s *Stream) SetWeight(w uint8) { s.weight = w }

func (s *Stream) Parent() uint32 { return s.parent }

func (s *Stream) Exclusive() bool { return s.exclusive }

func (s *Stream) SetDependency(parent uint32, exclusive bool) {
	s.parent, s.exclusive = parent, exclusive
}

func (s *Stream) Data() interface{} { return s.data }

func (s *Stream) SetData(v interface{}) { s.data = v }

// IsClosed reports whether no further frames (other than trailing
// WINDOW_UPDATE/RST_STREAM/PRIORITY, per §5.1) are expected.
func (s *Stream) IsClosed() bool { return s.state == StreamClosed }

// transition advances s.state for ev occurring on the given side,
// returning a StreamError if the event is illegal for the current
// state. Callers create an idle Stream when a HEADERS/PUSH_PROMISE first
// references it; transition's Idle case then opens it on HEADERS or
// reserves it on PUSH_PROMISE.
func (s *Stream) transition(ev event, sd side) error {
	switch s.state {
	case StreamIdle:
		switch ev {
		case eventHeaders:
			s.state = StreamOpen
		case eventPushPromise:
			if sd == sideLocal {
				s.state = StreamReservedLocal
			} else {
				s.state = StreamReservedRemote
			}
		default:
			return s.illegal(ev, sd)
		}

	case StreamReservedLocal:
		switch ev {
		case eventHeaders:
			if sd != sideLocal {
				return s.illegal(ev, sd)
			}
			s.state = StreamHalfClosedRemote
		case eventRstStream:
			s.state = StreamClosed
		default:
			return s.illegal(ev, sd)
		}

	case StreamReservedRemote:
		switch ev {
		case eventHeaders:
			if sd != sideRemote {
				return s.illegal(ev, sd)
			}
			s.state = StreamHalfClosedLocal
		case eventRstStream:
			s.state = StreamClosed
		default:
			return s.illegal(ev, sd)
		}

	case StreamOpen:
		switch ev {
		case eventEndStream:
			if sd == sideLocal {
				s.state = StreamHalfClosedLocal
			} else {
				s.state = StreamHalfClosedRemote
			}
		case eventRstStream:
			s.state = StreamClosed
		case eventHeaders:
			// trailers: stays open until end_stream arrives alongside.
		default:
			return s.illegal(ev, sd)
		}

	case StreamHalfClosedLocal:
		switch ev {
		case eventEndStream:
			if sd == sideRemote {
				s.state = StreamClosed
			}
		case eventRstStream:
			s.state = StreamClosed
		case eventHeaders:
			if sd != sideRemote {
				return s.illegal(ev, sd)
			}
		default:
			return s.illegal(ev, sd)
		}

	case StreamHalfClosedRemote:
		switch ev {
		case eventEndStream:
			if sd == sideLocal {
				s.state = StreamClosed
			}
		case eventRstStream:
			s.state = StreamClosed
		case eventHeaders:
			if sd != sideLocal {
				return s.illegal(ev, sd)
			}
		default:
			return s.illegal(ev, sd)
		}

	case StreamClosed:
		if ev != eventRstStream {
			return s.illegal(ev, sd)
		}
	}

	return nil
}

func (s *Stream) illegal(ev event, sd side) *StreamError {
	return streamErrorf(s.id, StreamClosedError, "illegal event %d (side=%d) in state %s", ev, sd, s.state)
}

// OnHeaders advances the state machine for a HEADERS frame, sd
// identifying which endpoint sent it. endStream is the frame's
// END_STREAM flag.
func (s *Stream) OnHeaders(sd side, endStream bool) error {
	if err := s.transition(eventHeaders, sd); err != nil {
		return err
	}
	if endStream {
		return s.transition(eventEndStream, sd)
	}
	return nil
}

// OnPushPromise advances the state machine for a PUSH_PROMISE
// reserving s, sd identifying which endpoint sent it.
func (s *Stream) OnPushPromise(sd side) error {
	return s.transition(eventPushPromise, sd)
}

// OnData advances the state machine for a DATA frame.
func (s *Stream) OnData(sd side, endStream bool) error {
	if s.state != StreamOpen && s.state != StreamHalfClosedLocal && s.state != StreamHalfClosedRemote {
		return s.illegal(eventEndStream, sd)
	}
	if endStream {
		return s.transition(eventEndStream, sd)
	}
	return nil
}

// OnRstStream advances the state machine for a RST_STREAM frame.
func (s *Stream) OnRstStream() error {
	return s.transition(eventRstStream, sideRemote)
}

func (s *Stream) String() string {
	return fmt.Sprintf("stream(id=%d, state=%s)", s.id, s.state)
}
