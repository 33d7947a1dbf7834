// Package connection implements the client-side reconnecting transport
// state machine: exponential backoff, in-flight message tracking, FIFO
// buffering while disconnected, heartbeats, inactivity timeout, and
// automatic fallback from a preferred full-duplex transport to a
// half-duplex one.
package connection

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sourcegraph/conc"

	"github.com/relaydoc/relaydoc/pkg/errs"
)

// Option configures a Core at construction time.
type Option func(*Core)

// WithOnState registers a callback invoked on every state transition.
func WithOnState(f func(State)) Option { return func(c *Core) { c.onState = f } }

// WithOnMessage registers a callback invoked for every inbound frame that
// is not itself an ACK.
func WithOnMessage(f func([]byte)) Option { return func(c *Core) { c.onMessage = f } }

// WithOnInFlightChange registers a callback invoked whenever the in-flight
// set transitions empty↔non-empty, mirroring the "messages-in-flight"
// boolean event; it also receives the current count.
func WithOnInFlightChange(f func(nonEmpty bool, count int)) Option {
	return func(c *Core) { c.onInFlightChange = f }
}

// Core manages one logical link to the server. All exported methods are
// safe for concurrent use; state mutation is serialized by an internal
// mutex, with actual transport I/O performed outside the lock.
type Core struct {
	cfg       Config
	preferred Factory
	fallback  Factory

	onState          func(State)
	onMessage        func([]byte)
	onInFlightChange func(nonEmpty bool, count int)

	mu               sync.Mutex
	state            State
	lastErr          error
	destroyed        bool
	userDisconnected bool
	online           bool
	draining         bool

	current        Transport
	connectionType string

	attemptID           uint64
	consecutiveFailures int
	boff                *backoff.ExponentialBackOff

	sendBuffer []Message
	inFlight   map[string]time.Time

	lastMessageReceived time.Time
	inactivityTimer     *time.Timer
	heartbeatTicker     *time.Ticker
	heartbeatDone       chan struct{}

	wg conc.WaitGroup
}

// New constructs a Core with the given transport factories. If
// cfg.Connect is true, an initial connection attempt starts immediately.
func New(cfg Config, preferred, fallback Factory, opts ...Option) *Core {
	c := &Core{
		cfg:       cfg,
		preferred: preferred,
		fallback:  fallback,
		online:    cfg.IsOnline,
		inFlight:  make(map[string]time.Time),
		boff:      newExponentialBackOff(cfg),
	}
	for _, opt := range opts {
		opt(c)
	}
	if cfg.Connect {
		c.Connect()
	}
	return c
}

// State returns the current connection state.
func (c *Core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConnectionType returns "preferred", "fallback", or "" if no transport
// is currently selected.
func (c *Core) ConnectionType() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectionType
}

// InFlightMessageCount returns the number of messages awaiting ACK.
func (c *Core) InFlightMessageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight)
}

// LastError returns the error contained by the errored state, if any.
func (c *Core) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Connect starts a connection attempt. It is idempotent: a second call
// while connecting or connected is a no-op. Returns ErrDestroyed if the
// Core has been destroyed.
func (c *Core) Connect() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return errs.ErrDestroyed
	}
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.userDisconnected = false
	c.consecutiveFailures = 0
	c.boff.Reset()
	id := c.beginAttemptLocked()
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	c.wg.Go(func() { c.runAttempt(id, c.preferred, true) })
	return nil
}

// Disconnect tears down the current transport (if any), clears the
// should-reconnect flag, and aborts any in-progress attempt. The Core
// remains usable via a subsequent Connect.
func (c *Core) Disconnect() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return errs.ErrDestroyed
	}
	c.userDisconnected = true
	c.attemptID++
	current := c.current
	c.current = nil
	c.connectionType = ""
	c.clearInFlightLocked()
	c.stopHeartbeatLocked()
	c.stopInactivityTimerLocked()
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if current != nil {
		_ = current.Close()
	}
	return nil
}

// Destroy permanently tears down the Core. Idempotent; after Destroy,
// Connect, Disconnect, and Send all fail with ErrDestroyed.
func (c *Core) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	c.attemptID++
	current := c.current
	c.current = nil
	c.connectionType = ""
	c.clearInFlightLocked()
	c.stopHeartbeatLocked()
	c.stopInactivityTimerLocked()
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if current != nil {
		_ = current.Close()
	}
	c.wg.Wait()
}

// SetOnline updates the external online indicator. A false→true
// transition resets the backoff and retries immediately if the Core is
// currently errored and should reconnect.
func (c *Core) SetOnline(online bool) {
	c.mu.Lock()
	wasOffline := !c.online
	c.online = online
	shouldRetryNow := online && wasOffline && !c.destroyed && !c.userDisconnected && c.state == StateErrored
	if shouldRetryNow {
		c.consecutiveFailures = 0
		c.boff.Reset()
		id := c.beginAttemptLocked()
		c.setStateLocked(StateConnecting)
		c.mu.Unlock()
		c.wg.Go(func() { c.runAttempt(id, c.preferred, true) })
		return
	}
	c.mu.Unlock()
}

// Send enqueues msg for transmission. In state ≠ connected it is appended
// to a FIFO buffer, unless the caller has explicitly disconnected, in
// which case it is dropped. Transport errors during transmission are
// handled internally and do not surface here; only ErrDestroyed is
// returned to the caller.
func (c *Core) Send(msg Message) error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return errs.ErrDestroyed
	}
	if c.state == StateConnected && c.current != nil && !c.draining {
		transport := c.current
		c.mu.Unlock()
		c.transmit(transport, msg)
		return nil
	}
	if c.userDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.sendBuffer = append(c.sendBuffer, msg)
	c.mu.Unlock()
	return nil
}

// HandleAck clears the in-flight entry for messageID, if present. Unknown
// ids are ignored. Receiving any frame, including an ACK, updates
// lastMessageReceived.
func (c *Core) HandleAck(messageID string) {
	c.mu.Lock()
	c.lastMessageReceived = time.Now()
	_, existed := c.inFlight[messageID]
	if existed {
		delete(c.inFlight, messageID)
	}
	nonEmpty := len(c.inFlight) > 0
	count := len(c.inFlight)
	cb := c.onInFlightChange
	c.mu.Unlock()

	if existed && !nonEmpty && cb != nil {
		cb(nonEmpty, count)
	}
}

// HandleInboundMessage delivers one non-ACK inbound frame to the
// registered OnMessage callback and refreshes lastMessageReceived.
func (c *Core) HandleInboundMessage(payload []byte) {
	c.mu.Lock()
	c.lastMessageReceived = time.Now()
	cb := c.onMessage
	c.mu.Unlock()

	if cb != nil {
		cb(payload)
	}
}

// beginAttemptLocked starts a new attempt "epoch": incrementing attemptID
// invalidates every in-flight goroutine still carrying an older id, which
// is how a superseded attempt's late completions are discarded without a
// separate cancellation channel per attempt.
func (c *Core) beginAttemptLocked() uint64 {
	c.attemptID++
	return c.attemptID
}

func (c *Core) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	cb := c.onState
	if cb != nil {
		go cb(s)
	}
}

func (c *Core) addInFlightLocked(id string) {
	wasEmpty := len(c.inFlight) == 0
	c.inFlight[id] = time.Now()
	if wasEmpty && c.onInFlightChange != nil {
		cb := c.onInFlightChange
		n := len(c.inFlight)
		go cb(true, n)
	}
}

func (c *Core) removeInFlightLocked(id string) {
	if _, ok := c.inFlight[id]; !ok {
		return
	}
	delete(c.inFlight, id)
	if len(c.inFlight) == 0 && c.onInFlightChange != nil {
		cb := c.onInFlightChange
		go cb(false, 0)
	}
}

func (c *Core) clearInFlightLocked() {
	if len(c.inFlight) == 0 {
		return
	}
	c.inFlight = make(map[string]time.Time)
	if c.onInFlightChange != nil {
		cb := c.onInFlightChange
		go cb(false, 0)
	}
}

// transmit writes msg to transport outside the lock and updates in-flight
// state according to the outcome.
func (c *Core) transmit(transport Transport, msg Message) {
	err := transport.Send(context.Background(), msg.Payload)
	c.mu.Lock()
	if err != nil {
		c.removeInFlightLocked(msg.ID)
		c.mu.Unlock()
		c.onTransportError(errs.ErrNotConnected)
		return
	}
	if trackable(msg) {
		c.addInFlightLocked(msg.ID)
	}
	c.mu.Unlock()
}

// drainBuffer transmits every buffered message, in order, before any
// newly submitted Send is allowed to transmit directly.
func (c *Core) drainBuffer(transport Transport) {
	c.mu.Lock()
	c.draining = true
	buf := c.sendBuffer
	c.sendBuffer = nil
	c.mu.Unlock()

	for _, msg := range buf {
		c.transmit(transport, msg)
	}

	c.mu.Lock()
	c.draining = false
	c.mu.Unlock()
}

func (c *Core) runAttempt(id uint64, factory Factory, preferred bool) {
	if factory == nil {
		if preferred {
			c.runAttempt(id, c.fallback, false)
		}
		return
	}

	transport := factory()
	ctx := context.Background()
	var cancel context.CancelFunc
	if preferred && c.cfg.WebsocketTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.cfg.WebsocketTimeout)
	}
	events, err := transport.Connect(ctx)
	if cancel != nil {
		cancel()
	}

	c.mu.Lock()
	if id != c.attemptID || c.destroyed {
		c.mu.Unlock()
		_ = transport.Close()
		return
	}

	if err != nil {
		c.mu.Unlock()
		_ = transport.Close()
		if preferred {
			c.runAttempt(id, c.fallback, false)
			return
		}
		c.failAttempt(id, err)
		return
	}

	c.current = transport
	if preferred {
		c.connectionType = "preferred"
	} else {
		c.connectionType = "fallback"
	}
	c.consecutiveFailures = 0
	c.boff.Reset()
	c.lastMessageReceived = time.Now()
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	c.drainBuffer(transport)
	c.startHeartbeat(transport)
	c.startInactivityMonitor(id)
	c.pumpEvents(id, transport, events)
}

func (c *Core) failAttempt(id uint64, err error) {
	c.mu.Lock()
	if id != c.attemptID || c.destroyed {
		c.mu.Unlock()
		return
	}
	c.consecutiveFailures++
	c.lastErr = err
	c.setStateLocked(StateErrored)
	terminal := c.consecutiveFailures > c.cfg.MaxReconnectAttempts
	c.mu.Unlock()

	if terminal || c.userDisconnected || c.destroyed {
		return
	}
	c.scheduleReconnect()
}

func (c *Core) onTransportError(err error) {
	c.mu.Lock()
	id := c.attemptID
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	current := c.current
	c.current = nil
	c.connectionType = ""
	c.lastErr = err
	c.stopHeartbeatLocked()
	c.stopInactivityTimerLocked()
	c.setStateLocked(StateErrored)
	userDisconnected := c.userDisconnected
	c.mu.Unlock()

	if current != nil {
		_ = current.Close()
	}
	if userDisconnected {
		return
	}
	c.failAttempt(id, err)
}

func (c *Core) pumpEvents(id uint64, transport Transport, events <-chan TransportEvent) {
	for evt := range events {
		c.mu.Lock()
		if id != c.attemptID {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		switch evt.Kind {
		case EventMessage:
			c.HandleInboundMessage(evt.Payload)
		case EventClosed:
			c.onTransportError(nil)
			return
		case EventError:
			c.onTransportError(evt.Err)
			return
		}
	}
	// Channel closed without an explicit terminal event.
	c.mu.Lock()
	stillCurrent := id == c.attemptID
	c.mu.Unlock()
	if stillCurrent {
		c.onTransportError(nil)
	}
}

func (c *Core) scheduleReconnect() {
	c.mu.Lock()
	if c.destroyed || c.userDisconnected || !c.online {
		c.mu.Unlock()
		return
	}
	delay := c.boff.NextBackOff()
	id := c.beginAttemptLocked()
	c.mu.Unlock()

	c.wg.Go(func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		<-timer.C

		c.mu.Lock()
		if id != c.attemptID || c.destroyed || c.userDisconnected || !c.online {
			c.mu.Unlock()
			return
		}
		c.setStateLocked(StateConnecting)
		c.mu.Unlock()
		c.runAttempt(id, c.preferred, true)
	})
}

// newExponentialBackOff builds the cenkalti/backoff policy backing
// reconnect scheduling. MaxElapsedTime is left at zero (unbounded);
// the attempt ceiling is enforced separately via
// cfg.MaxReconnectAttempts in failAttempt.
func newExponentialBackOff(cfg Config) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialReconnectDelay
	b.MaxInterval = cfg.MaxBackoffTime
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (c *Core) startHeartbeat(transport Transport) {
	if c.cfg.HeartbeatInterval <= 0 {
		return
	}
	c.mu.Lock()
	c.heartbeatTicker = time.NewTicker(c.cfg.HeartbeatInterval)
	done := make(chan struct{})
	c.heartbeatDone = done
	ticker := c.heartbeatTicker
	c.mu.Unlock()

	c.wg.Go(func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = transport.Send(context.Background(), nil)
			}
		}
	})
}

func (c *Core) stopHeartbeatLocked() {
	if c.heartbeatTicker != nil {
		c.heartbeatTicker.Stop()
		c.heartbeatTicker = nil
	}
	if c.heartbeatDone != nil {
		close(c.heartbeatDone)
		c.heartbeatDone = nil
	}
}

func (c *Core) startInactivityMonitor(id uint64) {
	if c.cfg.MessageReconnectTimeout <= 0 {
		return
	}
	c.mu.Lock()
	c.inactivityTimer = time.AfterFunc(c.cfg.MessageReconnectTimeout, func() {
		c.checkInactivity(id)
	})
	c.mu.Unlock()
}

func (c *Core) checkInactivity(id uint64) {
	c.mu.Lock()
	if id != c.attemptID || c.destroyed {
		c.mu.Unlock()
		return
	}
	idle := time.Since(c.lastMessageReceived)
	if idle < c.cfg.MessageReconnectTimeout {
		c.inactivityTimer = time.AfterFunc(c.cfg.MessageReconnectTimeout-idle, func() {
			c.checkInactivity(id)
		})
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.onTransportError(errs.ErrTimeout)
}

func (c *Core) stopInactivityTimerLocked() {
	if c.inactivityTimer != nil {
		c.inactivityTimer.Stop()
		c.inactivityTimer = nil
	}
}
