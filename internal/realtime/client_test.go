package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sip-gateway/internal/relay"
)

func TestClientSendBuffers(t *testing.T) {
	c := NewClient(nil, 4, zap.NewNop())

	for i := 0; i < 4; i++ {
		require.NoError(t, c.Send(relay.Envelope{Type: "call-started"}))
	}
}

func TestClientSendQueueFull(t *testing.T) {
	c := NewClient(nil, 2, zap.NewNop())

	require.NoError(t, c.Send(relay.Envelope{Type: "e1"}))
	require.NoError(t, c.Send(relay.Envelope{Type: "e2"}))

	err := c.Send(relay.Envelope{Type: "e3"})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestClientSendAfterClose(t *testing.T) {
	c := NewClient(nil, 4, zap.NewNop())
	c.Close()

	err := c.Send(relay.Envelope{Type: "call-started"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClientCloseIsIdempotent(t *testing.T) {
	c := NewClient(nil, 4, zap.NewNop())
	c.Close()
	c.Close()
}

func TestClientDefaultBuffer(t *testing.T) {
	c := NewClient(nil, 0, zap.NewNop())
	assert.Equal(t, 64, cap(c.send))
}

func TestClientIDsAreUnique(t *testing.T) {
	a := NewClient(nil, 1, zap.NewNop())
	b := NewClient(nil, 1, zap.NewNop())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotEmpty(t, a.ID())
}
