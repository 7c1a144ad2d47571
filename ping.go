package http2

import "sync"

var _ Frame = &Ping{}

var pingPool = sync.Pool{New: func() interface{} { return &Ping{} }}

// Ping is the PING frame of RFC 7540 §6.7: an 8-byte opaque
// round-trip probe, echoed back with the ACK flag set.
type Ping struct {
	ack  bool
	data [8]byte
}

func (p *Ping) Type() FrameType { return FramePing }

func (p *Ping) Reset() {
	p.ack = false
	p.data = [8]byte{}
}

func (p *Ping) CopyTo(other *Ping) {
	other.ack = p.ack
	other.data = p.data
}

func (p *Ping) IsAck() bool      { return p.ack }
func (p *Ping) SetAck(v bool)   { p.ack = v }

func (p *Ping) Data() []byte { return p.data[:] }

func (p *Ping) SetData(b []byte) {
	p.data = [8]byte{}
	copy(p.data[:], b)
}

func (p *Ping) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) < 8 {
		return ErrMissingBytes
	}
	p.ack = fr.Flags().Has(FlagAck)
	p.SetData(fr.payload)
	return nil
}

func (p *Ping) Serialize(fr *FrameHeader) {
	if p.ack {
		fr.SetFlags(fr.Flags().Add(FlagAck))
	}
	fr.setPayload(p.data[:])
}
