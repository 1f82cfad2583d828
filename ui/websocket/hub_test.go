package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	fail   bool
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	if len(data) == 0 {
		return nil
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.frames))
	for i, f := range c.frames {
		out[i] = f.Event
	}
	return out
}

type memoryFanout struct {
	mu       sync.Mutex
	handlers []func([]byte)
}

func (m *memoryFanout) Publish(_ context.Context, _ string, payload []byte) error {
	m.mu.Lock()
	handlers := append([]func([]byte){}, m.handlers...)
	m.mu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
	return nil
}

func (m *memoryFanout) Subscribe(ctx context.Context, _ string, fn func([]byte)) error {
	m.mu.Lock()
	m.handlers = append(m.handlers, fn)
	m.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (m *memoryFanout) subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers)
}

func startHub(t *testing.T, h *Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
}

func TestHub_BroadcastToAgentRoom(t *testing.T) {
	hub := NewHub()
	startHub(t, hub)

	inRoom, other := &fakeConn{}, &fakeConn{}
	a, b := newClient(inRoom), newClient(other)
	hub.Register(a)
	hub.Register(b)
	hub.Join(a, "agent-1")
	hub.Join(b, "agent-2")

	hub.BroadcastToAgent("agent-1", "lead-captured", map[string]string{"id": "lead-1"})

	require.Eventually(t, func() bool { return len(inRoom.events()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"lead-captured"}, inRoom.events())
	assert.Empty(t, other.events())
	assert.Equal(t, 2, hub.ClientCount())
}

func TestHub_DropsBrokenClients(t *testing.T) {
	hub := NewHub()
	startHub(t, hub)

	broken := &fakeConn{fail: true}
	c := newClient(broken)
	hub.Register(c)
	hub.Join(c, "agent-1")

	hub.BroadcastToAgent("agent-1", "appointment-booked", nil)

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	broken.mu.Lock()
	assert.True(t, broken.closed)
	broken.mu.Unlock()
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	startHub(t, hub)

	c := newClient(&fakeConn{})
	hub.Register(c)
	hub.Join(c, "agent-1")
	hub.Unregister(c)
	hub.Unregister(c)

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_FanoutAcrossInstances(t *testing.T) {
	bus := &memoryFanout{}
	first := NewHub().WithFanout(bus, "server-1")
	second := NewHub().WithFanout(bus, "server-2")
	startHub(t, first)
	startHub(t, second)
	require.Eventually(t, func() bool { return bus.subscribers() == 2 }, time.Second, 5*time.Millisecond)

	local, remote := &fakeConn{}, &fakeConn{}
	lc, rc := newClient(local), newClient(remote)
	first.Register(lc)
	first.Join(lc, "agent-1")
	second.Register(rc)
	second.Join(rc, "agent-1")

	first.BroadcastToAgent("agent-1", "appointment-booked", map[string]string{"id": "appt-1"})

	require.Eventually(t, func() bool { return len(remote.events()) == 1 }, time.Second, 5*time.Millisecond)
	// the origin must not receive its own message back
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"appointment-booked"}, local.events())
	assert.Equal(t, []string{"appointment-booked"}, remote.events())
}

func TestHub_CallsReturnAfterStop(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	c := newClient(&fakeConn{})
	done := make(chan struct{})
	go func() {
		hub.Register(c)
		hub.Join(c, "agent-1")
		hub.Unregister(c)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after Run returned")
	}
}
