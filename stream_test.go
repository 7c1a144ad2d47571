package http2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamOpensOnHeaders(t *testing.T) {
	s := NewStream(1, DefaultConfig(), nil)
	assert.Equal(t, StreamIdle, s.State())

	require.NoError(t, s.OnHeaders(sideRemote, false))
	assert.Equal(t, StreamOpen, s.State())
}

func TestStreamHalfClosesOnEndStream(t *testing.T) {
	s := NewStream(1, DefaultConfig(), nil)
	require.NoError(t, s.OnHeaders(sideRemote, true))
	assert.Equal(t, StreamHalfClosedRemote, s.State())

	require.NoError(t, s.OnData(sideLocal, true))
	assert.Equal(t, StreamClosed, s.State())
}

func TestStreamPushPromiseReservation(t *testing.T) {
	s := NewStream(2, DefaultConfig(), nil)
	require.NoError(t, s.OnPushPromise(sideLocal))
	assert.Equal(t, StreamReservedLocal, s.State())

	require.NoError(t, s.OnHeaders(sideLocal, false))
	assert.Equal(t, StreamHalfClosedRemote, s.State())
}

func TestStreamRstStreamAlwaysCloses(t *testing.T) {
	s := NewStream(1, DefaultConfig(), nil)
	require.NoError(t, s.OnHeaders(sideRemote, false))
	require.NoError(t, s.OnRstStream())
	assert.True(t, s.IsClosed())
}

func TestStreamIllegalEventAfterClose(t *testing.T) {
	s := NewStream(1, DefaultConfig(), nil)
	require.NoError(t, s.OnHeaders(sideRemote, true))
	require.NoError(t, s.OnData(sideLocal, true))
	require.True(t, s.IsClosed())

	err := s.OnHeaders(sideRemote, false)
	require.Error(t, err)
	var se *StreamError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StreamClosedError, se.Code)
}

func TestStreamDataOnIdleIsIllegal(t *testing.T) {
	s := NewStream(1, DefaultConfig(), nil)
	err := s.OnData(sideRemote, false)
	require.Error(t, err)
}
