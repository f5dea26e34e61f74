package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConn struct {
	id   string
	sent []Envelope
	fail error
}

func (c *stubConn) ID() string { return c.id }

func (c *stubConn) Send(env Envelope) error {
	if c.fail != nil {
		return c.fail
	}
	c.sent = append(c.sent, env)
	return nil
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()
	conn := &stubConn{id: "c1"}

	reg.Register(conn)

	all := reg.All()
	require.Len(t, all, 1)
	assert.Equal(t, "c1", all[0].ID())
	assert.Equal(t, 1, reg.Count())
	assert.Empty(t, reg.Subscribers("user-1"))
}

func TestRegistryRegisterThenRemove(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubConn{id: "c1"})

	reg.RemoveConnection("c1")

	assert.Empty(t, reg.All())
	assert.Equal(t, 0, reg.Count())
}

func TestRegistrySubscribe(t *testing.T) {
	reg := NewRegistry()
	conn := &stubConn{id: "c1"}

	reg.Subscribe(conn, "user-1")

	subs := reg.Subscribers("user-1")
	require.Len(t, subs, 1)
	assert.Equal(t, "c1", subs[0].ID())
	assert.Equal(t, 1, reg.Count())
}

func TestRegistrySubscribeIdempotent(t *testing.T) {
	reg := NewRegistry()
	conn := &stubConn{id: "c1"}

	reg.Subscribe(conn, "user-1")
	reg.Subscribe(conn, "user-1")

	assert.Len(t, reg.Subscribers("user-1"), 1)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistrySubscribeIgnoresEmptySubject(t *testing.T) {
	reg := NewRegistry()
	reg.Subscribe(&stubConn{id: "c1"}, "")

	assert.Equal(t, 0, reg.Count())
}

func TestRegistryUnsubscribe(t *testing.T) {
	reg := NewRegistry()
	conn := &stubConn{id: "c1"}

	reg.Subscribe(conn, "user-1")
	reg.Subscribe(conn, "user-2")

	reg.Unsubscribe("c1", "user-1")

	assert.Empty(t, reg.Subscribers("user-1"))
	assert.Len(t, reg.Subscribers("user-2"), 1)
}

func TestRegistryRemoveConnection(t *testing.T) {
	reg := NewRegistry()
	first := &stubConn{id: "c1"}
	second := &stubConn{id: "c2"}

	reg.Subscribe(first, "user-1")
	reg.Subscribe(first, "user-2")
	reg.Subscribe(second, "user-1")

	reg.RemoveConnection("c1")

	assert.Len(t, reg.Subscribers("user-1"), 1)
	assert.Empty(t, reg.Subscribers("user-2"))
	assert.Equal(t, 1, reg.Count())
}

func TestRegistryAll(t *testing.T) {
	reg := NewRegistry()
	reg.Subscribe(&stubConn{id: "c1"}, "user-1")
	reg.Subscribe(&stubConn{id: "c2"}, "user-2")

	assert.Len(t, reg.All(), 2)
}
