package http2

import "sync"

// RemoteFlowController tracks this endpoint's send budget toward the
// peer: how many DATA octets it may still write before the peer's
// receive window is exhausted. One controller governs the connection
// window; each stream gets its own for its stream-scoped window.
//
// Writers that would exceed the window park on a channel until a
// WINDOW_UPDATE (or SETTINGS_INITIAL_WINDOW_SIZE change) arrives,
// mirroring the teacher's channel-gated write loop generalized from a
// single fixed-size connection window to arbitrary signed windows.
type RemoteFlowController struct {
	mu       sync.Mutex
	window   int64
	waiters  []*waiter
	streamID uint32 // 0 for the connection-level controller
}

// waiter is a single parked Wait call; close is idempotent since both
// Increment (window replenished) and the done channel passed to Wait
// (caller giving up) can race to close the same ready channel.
type waiter struct {
	ch   chan struct{}
	once sync.Once
}

func (w *waiter) close() { w.once.Do(func() { close(w.ch) }) }

// NewRemoteFlowController creates a controller starting with initial
// bytes of budget.
func NewRemoteFlowController(streamID uint32, initial int32) *RemoteFlowController {
	return &RemoteFlowController{window: int64(initial), streamID: streamID}
}

// Available returns the current window, which may be negative after a
// SETTINGS_INITIAL_WINDOW_SIZE decrease per RFC 7540 §6.9.2.
func (c *RemoteFlowController) Available() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window
}

// Take reserves up to want bytes of window and reports how many were
// actually granted (0 when the window is exhausted or negative).
func (c *RemoteFlowController) Take(want int32) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.window <= 0 {
		return 0
	}

	got := int64(want)
	if got > c.window {
		got = c.window
	}
	c.window -= got

	return int32(got)
}

// Wait returns a channel that closes once the window is positive or
// done is closed, whichever comes first. Callers loop: Take/Wait until
// their full write is admitted.
func (c *RemoteFlowController) Wait(done <-chan struct{}) <-chan struct{} {
	c.mu.Lock()

	if c.window > 0 {
		c.mu.Unlock()
		ready := make(chan struct{})
		close(ready)
		return ready
	}

	w := &waiter{ch: make(chan struct{})}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	if done != nil {
		go func() {
			select {
			case <-done:
				w.close()
			case <-w.ch:
			}
		}()
	}

	return w.ch
}

// Increment applies a WINDOW_UPDATE increment (always positive on the
// wire) or a SETTINGS_INITIAL_WINDOW_SIZE delta (which may be
// negative). It returns a FlowControlError if the window would
// overflow 2^31-1, per RFC 7540 §6.9.1.
func (c *RemoteFlowController) Increment(delta int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.window + delta
	if next > maxWindowSize {
		return c.overflowErr()
	}

	c.window = next

	if c.window > 0 {
		waiters := c.waiters
		c.waiters = nil
		for _, w := range waiters {
			w.close()
		}
	}

	return nil
}

func (c *RemoteFlowController) overflowErr() error {
	if c.streamID == 0 {
		return connErrorf(FlowControlError, "connection flow-control window overflow")
	}
	return streamErrorf(c.streamID, FlowControlError, "stream flow-control window overflow")
}

// LocalFlowController tracks the budget this endpoint has advertised
// to the peer for octets it hasn't consumed yet, and decides when to
// emit WINDOW_UPDATE to replenish it. Grounded on the teacher's
// consume-then-compare-to-half-window reconciliation, generalized from
// a hardcoded 1/2 threshold to Config.WindowUpdateRatio.
type LocalFlowController struct {
	mu        sync.Mutex
	limit     int32
	available int32
	ratio     float64
	streamID  uint32
}

// NewLocalFlowController creates a controller advertising limit bytes
// initially, replenishing once consumed bytes reach ratio*limit.
func NewLocalFlowController(streamID uint32, limit int32, ratio float64) *LocalFlowController {
	return &LocalFlowController{
		limit:     limit,
		available: limit,
		ratio:     ratio,
		streamID:  streamID,
	}
}

// ConsumeBytes accounts for n received octets, returning the
// WINDOW_UPDATE increment to send (0 if none is due yet) or a
// FlowControlError if the peer sent more than the advertised window
// allowed.
func (c *LocalFlowController) ConsumeBytes(n int32) (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.available -= n
	if c.available < 0 {
		return 0, c.overflowErr()
	}

	consumed := c.limit - c.available
	if float64(consumed) < c.ratio*float64(c.limit) {
		return 0, nil
	}

	c.available = c.limit

	return consumed, nil
}

// SetLimit updates the advertised window ceiling, e.g. in response to
// a local SETTINGS_INITIAL_WINDOW_SIZE change, adjusting available by
// the same delta so in-flight budget is preserved.
func (c *LocalFlowController) SetLimit(limit int32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delta := limit - c.limit
	c.limit = limit
	c.available += delta
}

func (c *LocalFlowController) overflowErr() error {
	if c.streamID == 0 {
		return connErrorf(FlowControlError, "connection flow-control limit exceeded")
	}
	return streamErrorf(c.streamID, FlowControlError, "stream flow-control limit exceeded")
}
