package http2

import (
	"sync"

	"github.com/h2c-project/codec/http2utils"
)

var _ Frame = &Data{}

var dataPool = sync.Pool{New: func() interface{} { return &Data{} }}

// Data is the DATA frame of RFC 7540 §6.1. It carries stream payload
// bytes and may signal END_STREAM/PADDED.
type Data struct {
	endStream bool
	padded    bool
	padLen    int
	b         []byte
}

func (d *Data) Type() FrameType { return FrameData }

func (d *Data) Reset() {
	d.endStream = false
	d.padded = false
	d.padLen = 0
	d.b = d.b[:0]
}

// CopyTo copies d into other, acquiring its own backing array.
func (d *Data) CopyTo(other *Data) {
	other.endStream = d.endStream
	other.padded = d.padded
	other.padLen = d.padLen
	other.b = append(other.b[:0], d.b...)
}

func (d *Data) SetEndStream(v bool) { d.endStream = v }
func (d *Data) EndStream() bool     { return d.endStream }

// Data returns the payload bytes.
func (d *Data) Data() []byte { return d.b }

// SetData replaces the payload bytes.
func (d *Data) SetData(b []byte) { d.b = append(d.b[:0], b...) }

// Append appends b to the payload.
func (d *Data) Append(b []byte) { d.b = append(d.b, b...) }

func (d *Data) Len() int { return len(d.b) }

func (d *Data) Padded() bool      { return d.padded }
func (d *Data) SetPadded(v bool) { d.padded = v }

// PadLength returns the number of padding octets the frame was read
// with.
func (d *Data) PadLength() int { return d.padLen }

func (d *Data) Write(b []byte) (int, error) {
	d.Append(b)
	return len(b), nil
}

func (d *Data) Deserialize(fr *FrameHeader) error {
	payload := fr.payload

	if fr.Flags().Has(FlagPadded) {
		cut, err := http2utils.CutPadding(payload, fr.Len())
		if err != nil {
			return connErrorf(ProtocolError, "DATA: %v", err)
		}
		d.padLen = len(payload) - 1 - len(cut)
		d.padded = true
		payload = cut
	}

	d.endStream = fr.Flags().Has(FlagEndStream)
	d.b = append(d.b[:0], payload...)

	return nil
}

func (d *Data) Serialize(fr *FrameHeader) {
	if d.endStream {
		fr.SetFlags(fr.Flags().Add(FlagEndStream))
	}

	if d.padded {
		fr.SetFlags(fr.Flags().Add(FlagPadded))
		d.b = http2utils.AddPadding(d.b)
	}

	fr.setPayload(d.b)
}
