package http2

const (
	// DefaultFrameHeaderSize is the fixed 9-byte frame header size of RFC 7540 §4.1.
	DefaultFrameHeaderSize = 9

	// PreludeSize is the length of the client connection preface magic.
	PreludeSize = 24

	minMaxFrameSize = 1 << 14
	maxMaxFrameSize = 1<<24 - 1
	maxWindowSize   = 1<<31 - 1

	defaultHeaderTableSize      = 4096
	defaultInitialWindowSize    = 65535
	defaultMaxFrameSize         = 1 << 14
	defaultWindowUpdateRatio    = 0.5
	defaultMaxConcurrentStreams = 0 // 0 == unlimited
)

// ClientPreface is the 24-octet magic a client sends before its first
// SETTINGS frame, per RFC 7540 §3.5.
const ClientPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// Config enumerates every negotiable/local knob of the codec, per
// spec §6 ("Configuration (enumerated options)").
type Config struct {
	// MaxHeaderListSize bounds the decoded header block size in bytes.
	// 0 means unlimited (enforcement left to the caller).
	MaxHeaderListSize uint32

	// InitialWindowSize is this endpoint's local initial stream window.
	InitialWindowSize uint32

	// MaxFrameSize is this endpoint's local maximum frame payload size.
	MaxFrameSize uint32

	// HeaderTableSize is this endpoint's local HPACK dynamic table capacity.
	HeaderTableSize uint32

	// EnablePush advertises (or withholds) server push support.
	EnablePush bool

	// MaxConcurrentStreams caps concurrently open streams. 0 == unlimited.
	MaxConcurrentStreams uint32

	// HuffmanEnabled toggles HPACK Huffman coding of literal strings.
	HuffmanEnabled bool

	// WindowUpdateRatio is the fraction of InitialWindowSize that must
	// be consumed before the local flow controller emits WINDOW_UPDATE.
	WindowUpdateRatio float64
}

// DefaultConfig returns the RFC 7540-recommended defaults, with push
// enabled (server-side default; a client caller should disable it per
// spec §6).
func DefaultConfig() *Config {
	return &Config{
		MaxHeaderListSize:    0,
		InitialWindowSize:    defaultInitialWindowSize,
		MaxFrameSize:         defaultMaxFrameSize,
		HeaderTableSize:      defaultHeaderTableSize,
		EnablePush:           true,
		MaxConcurrentStreams: defaultMaxConcurrentStreams,
		HuffmanEnabled:       true,
		WindowUpdateRatio:    defaultWindowUpdateRatio,
	}
}

// Clone returns a copy of c, the per-connection snapshot pattern the
// teacher's Settings.CopyTo establishes.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
