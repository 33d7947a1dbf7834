package connection_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydoc/relaydoc/pkg/connection"
	"github.com/relaydoc/relaydoc/pkg/errs"
)

// fakeTransport is an in-memory Transport that connects instantly and
// records every payload passed to Send.
type fakeTransport struct {
	mu     sync.Mutex
	sent   [][]byte
	events chan connection.TransportEvent
	closed bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan connection.TransportEvent, 16)}
}

func (f *fakeTransport) Connect(ctx context.Context) (<-chan connection.TransportEvent, error) {
	return f.events, nil
}

func (f *fakeTransport) Send(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func (f *fakeTransport) sentPayloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

func waitForState(t *testing.T, c *connection.Core, want connection.State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, got %s", want, c.State())
}

func newTestCore(t *testing.T, preferred connection.Factory) *connection.Core {
	t.Helper()
	cfg := connection.DefaultConfig()
	cfg.Connect = false
	cfg.MessageReconnectTimeout = 0
	cfg.HeartbeatInterval = 0
	c := connection.New(cfg, preferred, nil)
	t.Cleanup(c.Destroy)
	return c
}

// TestScenarioS6ConnectionAckLifecycle implements the literal scenario:
// send a doc message (inFlightCount=1), send an awareness message (still
// 1), inject an ACK with a matching id (count=0, messages-in-flight fires
// false), inject an ACK with an unknown id (no change).
func TestScenarioS6ConnectionAckLifecycle(t *testing.T) {
	transport := newFakeTransport()
	var events []bool
	var mu sync.Mutex
	c := connection.New(connection.DefaultConfig(), func() connection.Transport { return transport }, nil,
		connection.WithOnInFlightChange(func(nonEmpty bool, _ int) {
			mu.Lock()
			events = append(events, nonEmpty)
			mu.Unlock()
		}),
	)
	t.Cleanup(c.Destroy)
	waitForState(t, c, connection.StateConnected)

	require.NoError(t, c.Send(connection.Message{ID: "m1", Kind: connection.KindDocSync, Payload: []byte("doc")}))
	require.Eventually(t, func() bool { return c.InFlightMessageCount() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.Send(connection.Message{ID: "a1", Kind: connection.KindAwareness, Payload: []byte("aware")}))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, c.InFlightMessageCount())

	c.HandleAck("m1")
	require.Eventually(t, func() bool { return c.InFlightMessageCount() == 0 }, time.Second, time.Millisecond)

	c.HandleAck("unknown-id")
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 0, c.InFlightMessageCount())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)
	assert.Equal(t, true, events[0])
	assert.Equal(t, false, events[len(events)-1])
}

func TestConnectIsIdempotentWhileConnecting(t *testing.T) {
	transport := newFakeTransport()
	c := newTestCore(t, func() connection.Transport { return transport })
	require.NoError(t, c.Connect())
	require.NoError(t, c.Connect())
	waitForState(t, c, connection.StateConnected)
}

func TestSendBuffersWhileDisconnectedAndDrainsInOrder(t *testing.T) {
	transport := newFakeTransport()
	cfg := connection.DefaultConfig()
	cfg.Connect = false
	c := connection.New(cfg, func() connection.Transport { return transport }, nil)
	t.Cleanup(c.Destroy)

	require.NoError(t, c.Send(connection.Message{ID: "1", Kind: connection.KindDocSync, Payload: []byte("a")}))
	require.NoError(t, c.Send(connection.Message{ID: "2", Kind: connection.KindDocSync, Payload: []byte("b")}))

	require.NoError(t, c.Connect())
	waitForState(t, c, connection.StateConnected)

	require.Eventually(t, func() bool { return len(transport.sentPayloads()) == 2 }, time.Second, time.Millisecond)
	sent := transport.sentPayloads()
	assert.Equal(t, []byte("a"), sent[0])
	assert.Equal(t, []byte("b"), sent[1])
}

func TestSendDropsMessageAfterExplicitDisconnect(t *testing.T) {
	transport := newFakeTransport()
	c := newTestCore(t, func() connection.Transport { return transport })
	require.NoError(t, c.Connect())
	waitForState(t, c, connection.StateConnected)

	require.NoError(t, c.Disconnect())
	require.NoError(t, c.Send(connection.Message{ID: "1", Kind: connection.KindDocSync, Payload: []byte("x")}))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, connection.StateDisconnected, c.State())
	assert.Equal(t, 0, c.InFlightMessageCount())
}

func TestPostDestroyCallsFailWithDestroyed(t *testing.T) {
	transport := newFakeTransport()
	c := newTestCore(t, func() connection.Transport { return transport })
	c.Destroy()

	assert.ErrorIs(t, c.Connect(), errs.ErrDestroyed)
	assert.ErrorIs(t, c.Disconnect(), errs.ErrDestroyed)
	assert.ErrorIs(t, c.Send(connection.Message{ID: "x"}), errs.ErrDestroyed)
}

func TestFallbackUsedWhenPreferredFails(t *testing.T) {
	failing := &failingTransport{}
	fallback := newFakeTransport()

	cfg := connection.DefaultConfig()
	cfg.WebsocketTimeout = 50 * time.Millisecond
	c := connection.New(cfg,
		func() connection.Transport { return failing },
		func() connection.Transport { return fallback },
	)
	t.Cleanup(c.Destroy)

	waitForState(t, c, connection.StateConnected)
	assert.Equal(t, "fallback", c.ConnectionType())
}

type failingTransport struct{}

func (f *failingTransport) Connect(ctx context.Context) (<-chan connection.TransportEvent, error) {
	return nil, errs.ErrTransport
}
func (f *failingTransport) Send(ctx context.Context, payload []byte) error { return nil }
func (f *failingTransport) Close() error                                  { return nil }
