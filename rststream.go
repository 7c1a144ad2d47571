package http2

import (
	"sync"

	"github.com/h2c-project/codec/http2utils"
)

var _ Frame = &RstStream{}

var rstStreamPool = sync.Pool{New: func() interface{} { return &RstStream{} }}

// RstStream is the RST_STREAM frame of RFC 7540 §6.4: immediate
// stream termination.
type RstStream struct {
	code ErrorCode
}

func (rst *RstStream) Type() FrameType { return FrameResetStream }

func (rst *RstStream) Code() ErrorCode      { return rst.code }
func (rst *RstStream) SetCode(code ErrorCode) { rst.code = code }

func (rst *RstStream) Reset() { rst.code = 0 }

func (rst *RstStream) CopyTo(other *RstStream) { other.code = rst.code }

func (rst *RstStream) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) < 4 {
		return ErrMissingBytes
	}
	rst.code = ErrorCode(http2utils.BytesToUint32(fr.payload))
	return nil
}

func (rst *RstStream) Serialize(fr *FrameHeader) {
	fr.payload = http2utils.AppendUint32Bytes(fr.payload[:0], uint32(rst.code))
}
