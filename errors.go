package http2

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/h2c-project/codec/hpack"
)

// ErrorCode is the 32-bit HTTP/2 wire error code of RFC 7540 §7.
type ErrorCode uint32

const (
	NoError            ErrorCode = 0x0
	ProtocolError      ErrorCode = 0x1
	InternalError      ErrorCode = 0x2
	FlowControlError   ErrorCode = 0x3
	SettingsTimeout    ErrorCode = 0x4
	StreamClosedError  ErrorCode = 0x5
	FrameSizeError     ErrorCode = 0x6
	RefusedStream      ErrorCode = 0x7
	Cancel             ErrorCode = 0x8
	CompressionError   ErrorCode = 0x9
	ConnectError       ErrorCode = 0xa
	EnhanceYourCalm    ErrorCode = 0xb
	InadequateSecurity ErrorCode = 0xc
	HTTP11Required     ErrorCode = 0xd
)

func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return "NO_ERROR"
	case ProtocolError:
		return "PROTOCOL_ERROR"
	case InternalError:
		return "INTERNAL_ERROR"
	case FlowControlError:
		return "FLOW_CONTROL_ERROR"
	case SettingsTimeout:
		return "SETTINGS_TIMEOUT"
	case StreamClosedError:
		return "STREAM_CLOSED"
	case FrameSizeError:
		return "FRAME_SIZE_ERROR"
	case RefusedStream:
		return "REFUSED_STREAM"
	case Cancel:
		return "CANCEL"
	case CompressionError:
		return "COMPRESSION_ERROR"
	case ConnectError:
		return "CONNECT_ERROR"
	case EnhanceYourCalm:
		return "ENHANCE_YOUR_CALM"
	case InadequateSecurity:
		return "INADEQUATE_SECURITY"
	case HTTP11Required:
		return "HTTP_1_1_REQUIRED"
	}
	return fmt.Sprintf("UNKNOWN_ERROR(%#x)", uint32(e))
}

// ConnectionError is fatal: the caller must emit GOAWAY and close the
// transport. Recovered with errors.As, per spec §7.
type ConnectionError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("http2: connection error %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("http2: connection error %s: %s", e.Code, e.Message)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// Respond writes a GOAWAY frame for e and flushes bw.
func (e *ConnectionError) Respond(w *Writer, bw *bufio.Writer, lastStreamID uint32) error {
	if err := w.WriteGoAway(bw, lastStreamID, e.Code, []byte(e.Message)); err != nil {
		return err
	}
	return bw.Flush()
}

// StreamError isolates a fault to a single stream: the caller emits
// RST_STREAM and moves the stream to CLOSED, the connection continues.
type StreamError struct {
	StreamID uint32
	Code     ErrorCode
	Message  string
	Cause    error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("http2: stream %d error %s: %s: %v", e.StreamID, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("http2: stream %d error %s: %s", e.StreamID, e.Code, e.Message)
}

func (e *StreamError) Unwrap() error { return e.Cause }

// Respond writes a RST_STREAM frame for e and flushes bw.
func (e *StreamError) Respond(w *Writer, bw *bufio.Writer) error {
	if err := w.WriteRstStream(bw, e.StreamID, e.Code); err != nil {
		return err
	}
	return bw.Flush()
}

func connErrorf(code ErrorCode, format string, args ...interface{}) *ConnectionError {
	return &ConnectionError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func streamErrorf(streamID uint32, code ErrorCode, format string, args ...interface{}) *StreamError {
	return &StreamError{StreamID: streamID, Code: code, Message: fmt.Sprintf(format, args...)}
}

// classifyHpackErr maps an hpack decode failure to the connection- or
// stream-scoped error §7/§4.4 requires: a malformed byte stream
// (ErrCompression) is fatal to the whole connection since both peers'
// dynamic tables are now out of sync; a semantic violation
// (ErrProtocol) is isolated to streamID.
func classifyHpackErr(streamID uint32, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, hpack.ErrCompression) {
		return &ConnectionError{Code: CompressionError, Message: err.Error(), Cause: err}
	}
	return &StreamError{StreamID: streamID, Code: ProtocolError, Message: err.Error(), Cause: err}
}
