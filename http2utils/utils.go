// Package http2utils holds the small, allocation-free byte-order and
// padding helpers shared by the frame and HPACK layers.
package http2utils

import (
	"crypto/rand"
	"errors"
	"unsafe"

	"github.com/valyala/fastrand"
)

// ErrPaddingOverflow is returned by CutPadding when the declared pad
// length does not fit inside the frame payload.
var ErrPaddingOverflow = errors.New("http2utils: padding length exceeds payload")

func Uint16ToBytes(b []byte, n uint16) {
	_ = b[1]
	b[0] = byte(n >> 8)
	b[1] = byte(n)
}

func BytesToUint16(b []byte) uint16 {
	_ = b[1]
	return uint16(b[0])<<8 | uint16(b[1])
}

func Uint24ToBytes(b []byte, n uint32) {
	_ = b[2] // bound checking
	b[0] = byte(n >> 16)
	b[1] = byte(n >> 8)
	b[2] = byte(n)
}

func BytesToUint24(b []byte) uint32 {
	_ = b[2] // bound checking
	return uint32(b[0])<<16 |
		uint32(b[1])<<8 |
		uint32(b[2])
}

func AppendUint32Bytes(dst []byte, n uint32) []byte {
	dst = append(dst, byte(n>>24))
	dst = append(dst, byte(n>>16))
	dst = append(dst, byte(n>>8))
	dst = append(dst, byte(n))
	return dst
}

func Uint32ToBytes(b []byte, n uint32) {
	_ = b[3] // bound checking
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)
}

func BytesToUint32(b []byte) uint32 {
	_ = b[3] // bound checking
	n := uint32(b[0])<<24 |
		uint32(b[1])<<16 |
		uint32(b[2])<<8 |
		uint32(b[3])
	return n
}

// EqualsFold reports whether a and b are equal ASCII strings modulo case,
// without allocating.
func EqualsFold(a, b []byte) bool {
	n := len(a)
	if n != len(b) {
		return false
	}
	for i := 0; i < n; i++ {
		if a[i]|0x20 != b[i]|0x20 {
			return false
		}
	}
	return true
}

// Resize grows b to neededLen, reusing its backing array when it has
// the capacity.
func Resize(b []byte, neededLen int) []byte {
	b = b[:cap(b)]

	if n := neededLen - len(b); n > 0 {
		b = append(b, make([]byte, n)...)
	}

	return b[:neededLen]
}

// CutPadding strips the PADDED-flag leading length byte and trailing
// filler from payload, given the frame's declared length.
func CutPadding(payload []byte, length int) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrPaddingOverflow
	}

	pad := int(payload[0])
	if length-pad-1 < 0 || len(payload) < length-pad {
		return nil, ErrPaddingOverflow
	}

	return payload[1 : length-pad], nil
}

// AddPadding prepends a random-length pad-length byte and appends that
// many random filler bytes to b, as RFC 7540 §6.1 PADDED framing requires.
func AddPadding(b []byte) []byte {
	n := int(fastrand.Uint32n(256-9)) + 9
	nn := len(b)

	b = Resize(b, nn+n)
	b = append(b[:1], b...)

	b[0] = uint8(n)

	rand.Read(b[nn+1 : nn+n+1])

	return b
}

// FastBytesToString converts b to a string without copying. The caller
// must not mutate b afterwards.
func FastBytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// FastStringToBytes converts s to a byte slice without copying. The
// returned slice must not be mutated.
func FastStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
