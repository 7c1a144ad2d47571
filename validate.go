package http2

import (
	"golang.org/x/net/http/httpguts"

	"github.com/h2c-project/codec/hpack"
)

// validateFields rejects a decoded header list containing a malformed
// name or value, per RFC 7540 section 8.1.2's requirement that endpoints
// treat such a header block as a stream error of type PROTOCOL_ERROR.
// Pseudo-header fields (":method", ":path", ...) are exempt from the
// token-name check since the leading colon isn't a valid HTTP/1 token
// character.
func validateFields(streamID uint32, fields []hpack.HeaderField) error {
	for i := range fields {
		name := fields[i].Name()
		if len(name) == 0 {
			return streamErrorf(streamID, ProtocolError, "empty header field name")
		}
		if name[0] != ':' && !httpguts.ValidHeaderFieldName(name) {
			return streamErrorf(streamID, ProtocolError, "invalid header field name %q", name)
		}
		if !httpguts.ValidHeaderFieldValue(fields[i].Value()) {
			return streamErrorf(streamID, ProtocolError, "invalid header field value for %q", name)
		}
	}
	return nil
}
