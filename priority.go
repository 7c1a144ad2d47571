package http2

import (
	"sync"

	"github.com/h2c-project/codec/http2utils"
)

var _ Frame = &Priority{}

var priorityPool = sync.Pool{New: func() interface{} { return &Priority{} }}

// Priority is the PRIORITY frame of RFC 7540 §6.3: a reprioritization
// of the stream's position in the dependency tree.
type Priority struct {
	streamDep uint32
	exclusive bool
	weight    uint8
}

func (p *Priority) Type() FrameType { return FramePriority }

func (p *Priority) Reset() {
	p.streamDep = 0
	p.exclusive = false
	p.weight = 0
}

func (p *Priority) CopyTo(other *Priority) {
	other.streamDep = p.streamDep
	other.exclusive = p.exclusive
	other.weight = p.weight
}

// StreamDep returns the parent stream id this stream depends on.
func (p *Priority) StreamDep() uint32 { return p.streamDep }
func (p *Priority) SetStreamDep(id uint32) { p.streamDep = id & (1<<31 - 1) }

func (p *Priority) Exclusive() bool      { return p.exclusive }
func (p *Priority) SetExclusive(v bool) { p.exclusive = v }

// Weight returns the RFC 7540 §5.3.2 weight, 1..256 (stored as 0..255).
func (p *Priority) Weight() uint8      { return p.weight }
func (p *Priority) SetWeight(w uint8) { p.weight = w }

func (p *Priority) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) < 5 {
		return ErrMissingBytes
	}

	dep := http2utils.BytesToUint32(fr.payload)
	p.exclusive = dep&0x80000000 != 0
	p.streamDep = dep & (1<<31 - 1)
	p.weight = fr.payload[4]

	return nil
}

func (p *Priority) Serialize(fr *FrameHeader) {
	dep := p.streamDep & (1<<31 - 1)
	if p.exclusive {
		dep |= 0x80000000
	}

	fr.payload = http2utils.AppendUint32Bytes(fr.payload[:0], dep)
	fr.payload = append(fr.payload, p.weight)
}
