package http2

import "errors"

// ErrUnknownFrameType is returned by ReadFrameFrom/ReadFrameFromWithSize
// when a frame header declares a type byte above the last known type;
// the payload has already been discarded. Reader.Next skips such a
// frame, except inside a header block, where it is a PROTOCOL_ERROR.
var ErrUnknownFrameType = errors.New("http2: unknown frame type")

// ErrMissingBytes marks a payload shorter than its frame type requires.
var ErrMissingBytes = errors.New("http2: frame payload too short")

// ErrPayloadExceeds marks a payload longer than the negotiated MAX_FRAME_SIZE.
var ErrPayloadExceeds = errors.New("http2: frame payload exceeds negotiated maximum")
