package http2

import (
	"bufio"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/h2c-project/codec/hpack"
)

// Transport is the byte-level surface Conn needs from whatever
// carries the HTTP/2 octet stream (a raw net.Conn, an in-memory pipe,
// a test double). Reading is driven separately through the
// *bufio.Reader passed to Conn.Serve — Transport itself only needs to
// write and close, the write/close half of the teacher's net.Conn
// coupling generalized away from TCP/TLS specifics.
type Transport interface {
	WriteBytes(b []byte) error
	Close(err error) error
}

// transportWriter adapts a Transport to an io.Writer so Conn can drive
// its outgoing frames through a *bufio.Writer exactly as the teacher's
// conn.go does against c.bw.
type transportWriter struct{ t Transport }

func (w transportWriter) Write(b []byte) (int, error) {
	if err := w.t.WriteBytes(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// ErrConnClosed is returned by outgoing operations after the
// connection has shut down.
var ErrConnClosed = errors.New("http2: connection closed")

// writeJob is one unit of outgoing work, run against the connection's
// real *bufio.Writer by writeLoop. Using closures instead of
// pre-serialized frames lets a single logical write (HEADERS split
// across CONTINUATION, a fragmented DATA body) enqueue as one job that
// writes everything it needs directly, rather than round-tripping
// through an intermediate byte buffer.
type writeJob func(bw *bufio.Writer) error

// Conn is one HTTP/2 connection: a stream table, priority tree,
// negotiated settings and the two flow-control windows governing this
// endpoint's view of the connection. One Conn owns exactly one
// read/write goroutine pair; the read loop hands outgoing work to the
// write loop through the out channel, mirroring the teacher's
// conn.go/serverConn.go design. The stream table has no mutex; the
// flow-control windows, which both loops touch, are guarded by the
// controllers' own mutexes.
type Conn struct {
	transport Transport
	listener  Listener
	isServer  bool

	cfg        *Config
	peerCfg    Config
	hasPeerCfg bool

	bw *bufio.Writer

	reader *Reader
	writer *Writer

	enc *hpack.Encoder
	dec *hpack.Decoder

	streams  Streams
	priority *PriorityTree
	nextID   uint32

	connRemoteFC *RemoteFlowController
	connLocalFC  *LocalFlowController

	lastStreamID uint32
	goneAway     atomic.Bool

	out    chan writeJob
	closed chan struct{}
	once   sync.Once

	log Logger
}

// NewConn returns a Conn ready to Serve. isServer governs which side
// of the stream-id parity (odd/even) and preface direction this
// endpoint takes.
func NewConn(transport Transport, cfg *Config, listener Listener, isServer bool, log Logger) *Conn {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if listener == nil {
		listener = NopListener{}
	}

	c := &Conn{
		transport: transport,
		listener:  listener,
		isServer:  isServer,
		cfg:       cfg,
		priority:  NewPriorityTree(),
		out:       make(chan writeJob, 128),
		closed:    make(chan struct{}),
		log:       log,
	}

	if isServer {
		c.nextID = 2
	} else {
		c.nextID = 1
	}

	c.bw = bufio.NewWriter(transportWriter{t: transport})
	c.reader = NewReader(cfg.MaxFrameSize)

	c.enc = hpack.NewEncoder(cfg.HeaderTableSize, cfg.HuffmanEnabled)
	c.dec = hpack.NewDecoder(cfg.HeaderTableSize, cfg.MaxHeaderListSize)
	c.writer = NewWriter(c.enc, defaultMaxFrameSize)

	c.connRemoteFC = NewRemoteFlowController(0, int32(cfg.InitialWindowSize))
	c.connLocalFC = NewLocalFlowController(0, int32(cfg.InitialWindowSize), cfg.WindowUpdateRatio)

	return c
}

func (c *Conn) logf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Printf(format, args...)
	}
}

// Serve performs the preface/SETTINGS handshake, then runs the write
// loop in a goroutine and the read loop on the calling goroutine until
// the peer closes the connection or a ConnectionError occurs. It
// always returns a non-nil error (io.EOF on a clean close).
func (c *Conn) Serve(br *bufio.Reader) error {
	if err := c.handshake(br); err != nil {
		c.teardown(err)
		return err
	}

	go c.writeLoop()

	err := c.readLoop(br)
	c.teardown(err)

	return err
}

func (c *Conn) handshake(br *bufio.Reader) error {
	if c.isServer {
		if err := ExpectPreface(br); err != nil {
			return err
		}
	} else if err := WritePreface(c.bw); err != nil {
		return err
	}

	settings := AcquireFrame(FrameSettings).(*Settings)
	settings.SetHeaderTableSize(c.cfg.HeaderTableSize)
	settings.SetEnablePush(c.cfg.EnablePush)
	settings.SetInitialWindowSize(c.cfg.InitialWindowSize)
	settings.SetMaxFrameSize(c.cfg.MaxFrameSize)
	if c.cfg.MaxConcurrentStreams > 0 {
		settings.SetMaxConcurrentStreams(c.cfg.MaxConcurrentStreams)
	}
	if c.cfg.MaxHeaderListSize > 0 {
		settings.SetMaxHeaderListSize(c.cfg.MaxHeaderListSize)
	}

	if err := c.writer.WriteSettings(c.bw, settings); err != nil {
		ReleaseFrame(settings)
		return err
	}
	ReleaseFrame(settings)

	return c.bw.Flush()
}

// teardown closes the closed channel, closes every stream and closes
// the transport, exactly once, regardless of which of Serve's two
// goroutines notices the failure first. Jobs still queued on out are
// not run.
func (c *Conn) teardown(err error) {
	c.once.Do(func() {
		close(c.closed)
		c.streams.CloseAll()
		_ = c.transport.Close(err)
	})
}

func (c *Conn) readLoop(br *bufio.Reader) error {
	for {
		frh, err := c.reader.Next(br)
		if err != nil {
			var ce *ConnectionError
			if errors.As(err, &ce) {
				c.enqueueFrame(c.goAwayFrame(ce.Code, []byte(ce.Message)))
			}
			return err
		}

		if err := c.handleFrame(frh); err != nil {
			ReleaseFrameHeader(frh)

			var ce *ConnectionError
			if errors.As(err, &ce) {
				c.enqueueFrame(c.goAwayFrame(ce.Code, []byte(ce.Message)))
				return ce
			}

			var se *StreamError
			if errors.As(err, &se) {
				c.enqueueFrame(c.rstStreamFrame(se.StreamID, se.Code))
				c.closeStream(se.StreamID)
				continue
			}

			return err
		}

		ReleaseFrameHeader(frh)
	}
}

func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.closed:
			return
		case job := <-c.out:
			err := job(c.bw)
			if err == nil {
				err = c.bw.Flush()
			}
			if err != nil {
				c.teardown(err)
				return
			}
		}
	}
}

// enqueue hands a write job to the write loop, dropping it silently if
// the connection has already torn down.
func (c *Conn) enqueue(job writeJob) {
	select {
	case c.out <- job:
	case <-c.closed:
	}
}

// enqueueFrame wraps a single pooled frame as a writeJob, releasing it
// once written.
func (c *Conn) enqueueFrame(frh *FrameHeader) {
	c.enqueue(func(bw *bufio.Writer) error {
		defer ReleaseFrameHeader(frh)
		_, err := frh.WriteTo(bw)
		return err
	})
}

func (c *Conn) goAwayFrame(code ErrorCode, data []byte) *FrameHeader {
	frh := AcquireFrameHeader()
	ga := AcquireFrame(FrameGoAway).(*GoAway)
	ga.SetLastStreamID(c.lastStreamID)
	ga.SetCode(code)
	ga.SetData(data)
	frh.SetBody(ga)
	return frh
}

func (c *Conn) rstStreamFrame(streamID uint32, code ErrorCode) *FrameHeader {
	frh := AcquireFrameHeader()
	frh.SetStream(streamID)
	rst := AcquireFrame(FrameResetStream).(*RstStream)
	rst.SetCode(code)
	frh.SetBody(rst)
	return frh
}

func (c *Conn) closeStream(id uint32) {
	if s := c.streams.Get(id); s != nil {
		s.SetState(StreamClosed)
	}
	c.priority.Remove(id)
}

func (c *Conn) handleFrame(frh *FrameHeader) error {
	streamID := frh.Stream()

	switch body := frh.Body().(type) {
	case *Settings:
		return c.handleSettings(body)

	case *Ping:
		return c.handlePing(body)

	case *WindowUpdate:
		return c.handleWindowUpdate(streamID, body)

	case *GoAway:
		c.goneAway.Store(true)
		c.listener.OnGoAwayRead(body.LastStreamID(), body.Code(), body.Data())
		return nil

	case *RstStream:
		if s := c.streams.Get(streamID); s != nil {
			_ = s.OnRstStream()
		}
		c.listener.OnRstStreamRead(streamID, body.Code())
		return nil

	case *Priority:
		c.priority.Reprioritize(streamID, body.StreamDep(), body.Exclusive(), body.Weight())
		return nil

	case *Headers:
		return c.handleHeaders(frh, streamID, body)

	case *PushPromise:
		return c.handlePushPromise(frh, streamID, body)

	case *Data:
		return c.handleData(streamID, body)

	case *Continuation:
		return connErrorf(ProtocolError, "unexpected CONTINUATION outside a header block")

	default:
		c.listener.OnUnknownFrame(frh.Type(), streamID, frh.Flags(), nil)
		return nil
	}
}

func (c *Conn) handleSettings(s *Settings) error {
	if s.IsAck() {
		c.listener.OnSettingsAckRead()
		return nil
	}

	if v, ok := s.HeaderTableSize(); ok {
		c.enc.SetMaxDynamicTableSize(v)
	}
	if v, ok := s.MaxFrameSize(); ok {
		c.writer.SetMaxFrameSize(v)
	}
	if v, ok := s.InitialWindowSize(); ok && c.hasPeerCfg {
		delta := int64(v) - int64(c.peerCfg.InitialWindowSize)
		if err := c.connRemoteFC.Increment(delta); err != nil {
			return err
		}
	}

	if v, ok := s.HeaderTableSize(); ok {
		c.peerCfg.HeaderTableSize = v
	}
	if v, ok := s.InitialWindowSize(); ok {
		c.peerCfg.InitialWindowSize = v
	}
	if v, ok := s.MaxFrameSize(); ok {
		c.peerCfg.MaxFrameSize = v
	}
	if v, ok := s.EnablePush(); ok {
		c.peerCfg.EnablePush = v
	}
	c.hasPeerCfg = true

	c.listener.OnSettingsRead(s)

	ack := AcquireFrame(FrameSettings).(*Settings)
	ack.SetAck(true)
	frh := AcquireFrameHeader()
	frh.SetBody(ack)
	c.enqueueFrame(frh)

	return nil
}

func (c *Conn) handlePing(p *Ping) error {
	var payload [8]byte
	copy(payload[:], p.Data())

	if p.IsAck() {
		c.listener.OnPingAckRead(payload)
		return nil
	}

	c.listener.OnPingRead(payload)

	reply := AcquireFrame(FramePing).(*Ping)
	reply.SetAck(true)
	reply.SetData(payload[:])
	frh := AcquireFrameHeader()
	frh.SetBody(reply)
	c.enqueueFrame(frh)

	return nil
}

func (c *Conn) handleWindowUpdate(streamID uint32, wu *WindowUpdate) error {
	c.listener.OnWindowUpdateRead(streamID, wu.Increment())

	if streamID == 0 {
		return c.connRemoteFC.Increment(int64(wu.Increment()))
	}

	s := c.streams.Get(streamID)
	if s == nil {
		return nil
	}
	return s.RemoteFlow().Increment(int64(wu.Increment()))
}

func (c *Conn) handleHeaders(frh *FrameHeader, streamID uint32, h *Headers) error {
	fields, err := DecodeHeaders(c.dec, frh)
	if err != nil {
		return err
	}
	if err := validateFields(streamID, fields); err != nil {
		return err
	}

	if streamID > c.lastStreamID {
		c.lastStreamID = streamID
	}

	s := c.streams.Get(streamID)
	if s == nil {
		if c.goneAway.Load() {
			return streamErrorf(streamID, RefusedStream, "HEADERS for new stream %d after GOAWAY", streamID)
		}
		if c.cfg.MaxConcurrentStreams > 0 && c.streams.Len() >= int(c.cfg.MaxConcurrentStreams) {
			return streamErrorf(streamID, RefusedStream, "HEADERS for stream %d would exceed MAX_CONCURRENT_STREAMS=%d", streamID, c.cfg.MaxConcurrentStreams)
		}
		s = NewStream(streamID, c.cfg, nil)
		c.streams.Insert(s)
	}

	if err := s.OnHeaders(sideRemote, h.EndStream()); err != nil {
		return err
	}

	if enc := contentEncodingOf(fields); enc != EncodingIdentity {
		if d, ok := newDecompressor(enc, s.LocalFlow()); ok {
			s.SetDecompressor(d)
			fields = stripContentLength(fields)
		}
	}

	var pri *PriorityParam
	if h.HasPriority() {
		pri = &PriorityParam{StreamDep: h.StreamDep(), Exclusive: h.Exclusive(), Weight: h.Weight()}
		c.priority.Reprioritize(streamID, pri.StreamDep, pri.Exclusive, pri.Weight)
	}

	c.listener.OnHeadersRead(streamID, fields, pri, h.PadLength(), h.EndStream())

	return nil
}

func (c *Conn) handlePushPromise(frh *FrameHeader, streamID uint32, pp *PushPromise) error {
	if !c.cfg.EnablePush {
		return connErrorf(ProtocolError, "PUSH_PROMISE received with push disabled")
	}

	fields, err := DecodeHeaders(c.dec, frh)
	if err != nil {
		return err
	}
	if err := validateFields(streamID, fields); err != nil {
		return err
	}

	promised := pp.PromisedStreamID()

	if c.goneAway.Load() {
		return streamErrorf(promised, RefusedStream, "PUSH_PROMISE for new stream %d after GOAWAY", promised)
	}
	if c.cfg.MaxConcurrentStreams > 0 && c.streams.Len() >= int(c.cfg.MaxConcurrentStreams) {
		return streamErrorf(promised, RefusedStream, "PUSH_PROMISE for stream %d would exceed MAX_CONCURRENT_STREAMS=%d", promised, c.cfg.MaxConcurrentStreams)
	}

	ps := NewStream(promised, c.cfg, nil)
	c.streams.Insert(ps)
	if err := ps.OnPushPromise(sideRemote); err != nil {
		return err
	}

	c.listener.OnPushPromiseRead(streamID, promised, fields, 0)

	return nil
}

func (c *Conn) handleData(streamID uint32, d *Data) error {
	s := c.streams.Get(streamID)
	if s == nil {
		return streamErrorf(streamID, StreamClosedError, "DATA on unknown stream %d", streamID)
	}

	n := d.Len()

	if err := s.OnData(sideRemote, d.EndStream()); err != nil {
		return err
	}

	connWU, err := c.connLocalFC.ConsumeBytes(int32(n))
	if err != nil {
		return err
	}
	if connWU > 0 {
		c.enqueueFrame(c.windowUpdateFrame(0, connWU))
	}

	if dc := s.Decompressor(); dc != nil {
		return c.handleCompressedData(streamID, s, dc, d)
	}

	consumed := c.listener.OnDataRead(streamID, d.Data(), d.PadLength(), d.EndStream())

	if consumed > 0 {
		wu, err := s.LocalFlow().ConsumeBytes(int32(consumed))
		if err != nil {
			return err
		}
		if wu > 0 {
			c.enqueueFrame(c.windowUpdateFrame(streamID, wu))
		}
	}

	return nil
}

// handleCompressedData feeds a DATA frame's payload through the
// stream's decompressor and hands the listener decoded bytes instead
// of the wire bytes, reconciling flow control against the compressed
// side via the decompressor's own accounting (spec §4.9).
func (c *Conn) handleCompressedData(streamID uint32, s *Stream, dc *decompressor, d *Data) error {
	if _, err := dc.Write(streamID, d.Data()); err != nil {
		return err
	}
	if d.EndStream() {
		_ = dc.Close()
	}

	var out [32 * 1024]byte
	for {
		n, wu, err := dc.Drain(streamID, out[:])
		if wu > 0 {
			c.enqueueFrame(c.windowUpdateFrame(streamID, wu))
		}
		if err != nil {
			return err
		}
		if n == 0 {
			if d.EndStream() {
				c.listener.OnDataRead(streamID, nil, 0, true)
			}
			return nil
		}
		c.listener.OnDataRead(streamID, out[:n], 0, false)
	}
}

func (c *Conn) windowUpdateFrame(streamID uint32, increment int32) *FrameHeader {
	frh := AcquireFrameHeader()
	frh.SetStream(streamID)
	wu := AcquireFrame(FrameWindowUpdate).(*WindowUpdate)
	wu.SetIncrement(increment)
	frh.SetBody(wu)
	return frh
}

// OpenStream allocates the next local stream id and registers it in
// the stream table, ready for WriteHeaders.
func (c *Conn) OpenStream() *Stream {
	id := atomic.AddUint32(&c.nextID, 2) - 2

	s := NewStream(id, c.cfg, nil)
	c.streams.Insert(s)

	return s
}

// WriteHeaders encodes and enqueues a HEADERS(+CONTINUATION) sequence
// for streamID, advancing its local state machine. The encode itself
// runs on the write-loop goroutine so concurrent callers don't race on
// the shared HPACK encoder.
func (c *Conn) WriteHeaders(streamID uint32, fields []hpack.HeaderField, endStream bool) error {
	s := c.streams.Get(streamID)
	if s == nil {
		return fmt.Errorf("http2: WriteHeaders: unknown stream %d", streamID)
	}
	if err := s.OnHeaders(sideLocal, endStream); err != nil {
		return err
	}

	c.enqueue(func(bw *bufio.Writer) error {
		return c.writer.WriteHeaders(bw, streamID, fields, endStream)
	})

	return nil
}

// WriteData encodes and enqueues a DATA sequence for streamID.
func (c *Conn) WriteData(streamID uint32, body []byte, endStream bool) error {
	s := c.streams.Get(streamID)
	if s == nil {
		return fmt.Errorf("http2: WriteData: unknown stream %d", streamID)
	}
	if err := s.OnData(sideLocal, endStream); err != nil {
		return err
	}

	c.enqueue(func(bw *bufio.Writer) error {
		return c.writeDataFlowControlled(bw, s, streamID, body, endStream)
	})

	return nil
}

// writeDataFlowControlled fragments body across both the stream and
// connection send windows, parking on the write-loop goroutine (via
// RemoteFlowController.Wait) whenever either is exhausted, mirroring
// the teacher's single-goroutine channel-gated write loop generalized
// to two independent windows.
func (c *Conn) writeDataFlowControlled(bw *bufio.Writer, s *Stream, streamID uint32, body []byte, endStream bool) error {
	if len(body) == 0 {
		return c.writer.WriteData(bw, streamID, nil, endStream)
	}

	remaining := body
	for len(remaining) > 0 {
		want := int32(len(remaining))
		if want > int32(defaultMaxFrameSize) {
			want = int32(defaultMaxFrameSize)
		}

		sGot, err := c.take(s.RemoteFlow(), want)
		if err != nil {
			return err
		}

		cGot, err := c.take(c.connRemoteFC, sGot)
		if err != nil {
			return err
		}
		if cGot < sGot {
			if err := s.RemoteFlow().Increment(int64(sGot - cGot)); err != nil {
				return err
			}
		}

		chunk := remaining[:cGot]
		remaining = remaining[cGot:]

		if err := c.writer.WriteData(bw, streamID, chunk, endStream && len(remaining) == 0); err != nil {
			return err
		}
	}

	return nil
}

// take reserves up to want bytes from fc, blocking on fc.Wait until
// the connection tears down or at least one byte is available.
func (c *Conn) take(fc *RemoteFlowController, want int32) (int32, error) {
	for {
		if got := fc.Take(want); got > 0 {
			return got, nil
		}
		select {
		case <-c.closed:
			return 0, ErrConnClosed
		case <-fc.Wait(c.closed):
			select {
			case <-c.closed:
				return 0, ErrConnClosed
			default:
			}
		}
	}
}

// Ping enqueues a PING frame carrying the given opaque payload.
func (c *Conn) Ping(payload [8]byte) {
	p := AcquireFrame(FramePing).(*Ping)
	p.SetData(payload[:])
	frh := AcquireFrameHeader()
	frh.SetBody(p)
	c.enqueueFrame(frh)
}

// Close sends GOAWAY with NoError and tears down the connection. The
// GOAWAY write is synchronized against writeLoop before teardown
// closes c.closed, since enqueueFrame followed immediately by a closed
// channel would otherwise race writeLoop's select between the two.
func (c *Conn) Close() error {
	done := make(chan struct{})
	frh := c.goAwayFrame(NoError, nil)

	c.enqueue(func(bw *bufio.Writer) error {
		defer close(done)
		defer ReleaseFrameHeader(frh)
		_, err := frh.WriteTo(bw)
		return err
	})

	select {
	case <-done:
	case <-c.closed:
	}

	c.teardown(nil)
	return nil
}
