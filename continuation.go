package http2

import "sync"

var (
	_ Frame            = &Continuation{}
	_ FrameWithHeaders = &Continuation{}
)

var continuationPool = sync.Pool{New: func() interface{} { return &Continuation{} }}

// Continuation is the CONTINUATION frame of RFC 7540 §6.10: a
// follow-on header-block fragment for a HEADERS or PUSH_PROMISE that
// did not fit in one frame.
type Continuation struct {
	endHeaders bool
	rawHeaders []byte
}

func (c *Continuation) Type() FrameType { return FrameContinuation }

func (c *Continuation) Reset() {
	c.endHeaders = false
	c.rawHeaders = c.rawHeaders[:0]
}

func (c *Continuation) CopyTo(other *Continuation) {
	other.endHeaders = c.endHeaders
	other.rawHeaders = append(other.rawHeaders[:0], c.rawHeaders...)
}

// Headers returns the raw header-block fragment.
func (c *Continuation) Headers() []byte { return c.rawHeaders }

func (c *Continuation) SetHeaders(b []byte) { c.rawHeaders = append(c.rawHeaders[:0], b...) }

func (c *Continuation) EndHeaders() bool      { return c.endHeaders }
func (c *Continuation) SetEndHeaders(v bool) { c.endHeaders = v }

func (c *Continuation) Deserialize(fr *FrameHeader) error {
	c.endHeaders = fr.Flags().Has(FlagEndHeaders)
	c.rawHeaders = append(c.rawHeaders[:0], fr.payload...)
	return nil
}

func (c *Continuation) Serialize(fr *FrameHeader) {
	if c.endHeaders {
		fr.SetFlags(fr.Flags().Add(FlagEndHeaders))
	}
	fr.setPayload(c.rawHeaders)
}
