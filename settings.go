package http2

import (
	"sync"

	"github.com/h2c-project/codec/http2utils"
)

var _ Frame = &Settings{}

var settingsPool = sync.Pool{New: func() interface{} { return &Settings{} }}

// Settings key identifiers, RFC 7540 §6.5.2.
const (
	SettingHeaderTableSize      uint16 = 0x1
	SettingEnablePush           uint16 = 0x2
	SettingMaxConcurrentStreams uint16 = 0x3
	SettingInitialWindowSize    uint16 = 0x4
	SettingMaxFrameSize         uint16 = 0x5
	SettingMaxHeaderListSize    uint16 = 0x6
)

// Settings is the SETTINGS frame of RFC 7540 §6.5: a batch of
// key/value configuration parameters, or (with the ACK flag) an
// acknowledgement carrying no entries.
type Settings struct {
	ack bool

	headerTableSize      uint32
	enablePush           bool
	maxConcurrentStreams uint32
	initialWindowSize    uint32
	maxFrameSize         uint32
	maxHeaderListSize    uint32

	hasHeaderTableSize      bool
	hasEnablePush           bool
	hasMaxConcurrentStreams bool
	hasInitialWindowSize    bool
	hasMaxFrameSize         bool
	hasMaxHeaderListSize    bool
}

func (s *Settings) Type() FrameType { return FrameSettings }

func (s *Settings) Reset() { *s = Settings{} }

// CopyTo copies s into other.
func (s *Settings) CopyTo(other *Settings) { *other = *s }

func (s *Settings) IsAck() bool    { return s.ack }
func (s *Settings) SetAck(v bool) { s.ack = v }

func (s *Settings) HeaderTableSize() (uint32, bool)      { return s.headerTableSize, s.hasHeaderTableSize }
func (s *Settings) SetHeaderTableSize(n uint32) {
	s.headerTableSize, s.hasHeaderTableSize = n, true
}

func (s *Settings) EnablePush() (bool, bool) { return s.enablePush, s.hasEnablePush }
func (s *Settings) SetEnablePush(v bool)     { s.enablePush, s.hasEnablePush = v, true }

func (s *Settings) MaxConcurrentStreams() (uint32, bool) {
	return s.maxConcurrentStreams, s.hasMaxConcurrentStreams
}
func (s *Settings) SetMaxConcurrentStreams(n uint32) {
	s.maxConcurrentStreams, s.hasMaxConcurrentStreams = n, true
}

func (s *Settings) InitialWindowSize() (uint32, bool) {
	return s.initialWindowSize, s.hasInitialWindowSize
}
func (s *Settings) SetInitialWindowSize(n uint32) {
	s.initialWindowSize, s.hasInitialWindowSize = n, true
}

func (s *Settings) MaxFrameSize() (uint32, bool) { return s.maxFrameSize, s.hasMaxFrameSize }
func (s *Settings) SetMaxFrameSize(n uint32) {
	s.maxFrameSize, s.hasMaxFrameSize = n, true
}

func (s *Settings) MaxHeaderListSize() (uint32, bool) {
	return s.maxHeaderListSize, s.hasMaxHeaderListSize
}
func (s *Settings) SetMaxHeaderListSize(n uint32) {
	s.maxHeaderListSize, s.hasMaxHeaderListSize = n, true
}

func (s *Settings) Deserialize(fr *FrameHeader) error {
	if fr.Flags().Has(FlagAck) {
		s.ack = true
		if len(fr.payload) != 0 {
			return connErrorf(FrameSizeError, "SETTINGS ack with non-empty payload")
		}
		return nil
	}

	payload := fr.payload
	if len(payload)%6 != 0 {
		return connErrorf(FrameSizeError, "SETTINGS payload not a multiple of 6")
	}

	for len(payload) > 0 {
		key := http2utils.BytesToUint16(payload[:2])
		value := http2utils.BytesToUint32(payload[2:6])
		payload = payload[6:]

		switch key {
		case SettingHeaderTableSize:
			s.SetHeaderTableSize(value)
		case SettingEnablePush:
			if value > 1 {
				return connErrorf(ProtocolError, "SETTINGS_ENABLE_PUSH must be 0 or 1")
			}
			s.SetEnablePush(value == 1)
		case SettingMaxConcurrentStreams:
			s.SetMaxConcurrentStreams(value)
		case SettingInitialWindowSize:
			if value > maxWindowSize {
				return connErrorf(FlowControlError, "SETTINGS_INITIAL_WINDOW_SIZE exceeds 2^31-1")
			}
			s.SetInitialWindowSize(value)
		case SettingMaxFrameSize:
			if value < minMaxFrameSize || value > maxMaxFrameSize {
				return connErrorf(ProtocolError, "SETTINGS_MAX_FRAME_SIZE out of [2^14, 2^24-1]")
			}
			s.SetMaxFrameSize(value)
		case SettingMaxHeaderListSize:
			s.SetMaxHeaderListSize(value)
		default:
			// unknown settings are ignored, per RFC 7540 §6.5.2.
		}
	}

	return nil
}

func (s *Settings) Serialize(fr *FrameHeader) {
	if s.ack {
		fr.SetFlags(fr.Flags().Add(FlagAck))
		fr.setPayload(nil)
		return
	}

	payload := fr.payload[:0]
	payload = appendSetting(payload, s.hasHeaderTableSize, SettingHeaderTableSize, s.headerTableSize)
	if s.hasEnablePush {
		v := uint32(0)
		if s.enablePush {
			v = 1
		}
		payload = appendSetting(payload, true, SettingEnablePush, v)
	}
	payload = appendSetting(payload, s.hasMaxConcurrentStreams, SettingMaxConcurrentStreams, s.maxConcurrentStreams)
	payload = appendSetting(payload, s.hasInitialWindowSize, SettingInitialWindowSize, s.initialWindowSize)
	payload = appendSetting(payload, s.hasMaxFrameSize, SettingMaxFrameSize, s.maxFrameSize)
	payload = appendSetting(payload, s.hasMaxHeaderListSize, SettingMaxHeaderListSize, s.maxHeaderListSize)

	fr.setPayload(payload)
}

func appendSetting(dst []byte, has bool, key uint16, value uint32) []byte {
	if !has {
		return dst
	}
	dst = append(dst, byte(key>>8), byte(key))
	return http2utils.AppendUint32Bytes(dst, value)
}
