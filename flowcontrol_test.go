package http2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteFlowControllerTakeExhaustsWindow(t *testing.T) {
	c := NewRemoteFlowController(1, 100)

	got := c.Take(60)
	assert.EqualValues(t, 60, got)
	assert.EqualValues(t, 40, c.Available())

	got = c.Take(60)
	assert.EqualValues(t, 40, got)
	assert.EqualValues(t, 0, c.Available())

	got = c.Take(1)
	assert.EqualValues(t, 0, got)
}

func TestRemoteFlowControllerWaitUnblocksOnIncrement(t *testing.T) {
	c := NewRemoteFlowController(1, 0)

	done := make(chan struct{})
	ready := c.Wait(done)

	select {
	case <-ready:
		t.Fatal("ready fired before Increment")
	case <-time.After(10 * time.Millisecond):
	}

	require.NoError(t, c.Increment(10))

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("ready never fired after Increment")
	}

	assert.EqualValues(t, 10, c.Available())
}

func TestRemoteFlowControllerWaitUnblocksOnDone(t *testing.T) {
	c := NewRemoteFlowController(1, 0)

	done := make(chan struct{})
	ready := c.Wait(done)
	close(done)

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("ready never fired after done closed")
	}
}

func TestRemoteFlowControllerOverflow(t *testing.T) {
	c := NewRemoteFlowController(0, 1<<30)
	err := c.Increment(1 << 30)
	require.Error(t, err)
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, FlowControlError, ce.Code)
}

func TestRemoteFlowControllerStreamOverflowIsStreamError(t *testing.T) {
	c := NewRemoteFlowController(5, 1<<30)
	err := c.Increment(1 << 30)
	require.Error(t, err)
	var se *StreamError
	require.ErrorAs(t, err, &se)
	assert.EqualValues(t, 5, se.StreamID)
}

func TestRemoteFlowControllerNegativeWindowAfterSettingsDecrease(t *testing.T) {
	c := NewRemoteFlowController(1, 100)
	c.Take(100)
	require.NoError(t, c.Increment(-50))
	assert.EqualValues(t, -50, c.Available())
}

func TestLocalFlowControllerReplenishesPastThreshold(t *testing.T) {
	c := NewLocalFlowController(1, 100, 0.5)

	wu, err := c.ConsumeBytes(40)
	require.NoError(t, err)
	assert.Zero(t, wu)

	wu, err = c.ConsumeBytes(20)
	require.NoError(t, err)
	assert.EqualValues(t, 60, wu)
}

func TestLocalFlowControllerOverflowIsFlowControlError(t *testing.T) {
	c := NewLocalFlowController(1, 100, 0.5)
	_, err := c.ConsumeBytes(101)
	require.Error(t, err)
	var se *StreamError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, FlowControlError, se.Code)
}

func TestLocalFlowControllerSetLimitPreservesInFlightBudget(t *testing.T) {
	c := NewLocalFlowController(1, 100, 0.5)
	_, _ = c.ConsumeBytes(30)

	c.SetLimit(200)

	// available was 70, bumped to 170 by the +100 limit delta; consuming
	// 70 more lands consumed (100) exactly at the new threshold (100),
	// which is due for replenishment.
	wu, err := c.ConsumeBytes(70)
	require.NoError(t, err)
	assert.EqualValues(t, 100, wu)
}
