package connection

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultConnectTimeout = 3 * time.Second
	defaultCloseGrace     = 500 * time.Millisecond
	defaultRetryInitial   = 500 * time.Millisecond
	defaultRetryFactor    = 2.0
	defaultRetryMax       = 10 * time.Second
)

var errConnectTimeout = errors.New("connection: connect timed out")

// Config controls the manager's timing. Zero values fall back to defaults.
type Config struct {
	URL            string
	ConnectTimeout time.Duration
	CloseGrace     time.Duration
	RetryInitial   time.Duration
	RetryFactor    float64
	RetryMax       time.Duration
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.CloseGrace <= 0 {
		c.CloseGrace = defaultCloseGrace
	}
	if c.RetryInitial <= 0 {
		c.RetryInitial = defaultRetryInitial
	}
	if c.RetryFactor <= 1 {
		c.RetryFactor = defaultRetryFactor
	}
	if c.RetryMax <= 0 {
		c.RetryMax = defaultRetryMax
	}
	return c
}

// Status is the manager's position in its lifecycle.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusConnected
	StatusRetrying
	StatusStopped
)

// Manager owns one logical stream to the server. It dials, watches for connect
// timeouts and unexpected closures, and reconnects with capped exponential
// backoff. Failures never surface as return values; they arrive asynchronously
// as lifecycle events, at most one DisconnectedEvent per disconnect episode.
type Manager struct {
	cfg Config

	mu            sync.Mutex
	conn          *websocket.Conn
	status        Status
	stopped       bool
	gen           int // bumped whenever the current conn/dial becomes stale
	retryDelay    time.Duration
	errorSurfaced bool
	connectTimer  *time.Timer
	retryTimer    *time.Timer
	graceTimer    *time.Timer

	eventCallback   func(Event)
	messageCallback func(string)
}

// NewManager creates a manager for the given server. It does not connect.
func NewManager(cfg Config) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		cfg:        cfg,
		retryDelay: cfg.RetryInitial,
	}
}

// OnEvent sets the callback for lifecycle events.
func (m *Manager) OnEvent(callback func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCallback = callback
}

// OnMessage sets the callback receiving raw inbound text messages, verbatim.
func (m *Manager) OnMessage(callback func(string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messageCallback = callback
}

// Status returns the current lifecycle position.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Connect opens a new stream, discarding any previous connection, in-flight
// dial or pending retry first. It returns immediately; the outcome arrives as
// lifecycle events.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.teardownLocked()
	m.status = StatusConnecting
	gen := m.gen
	m.connectTimer = time.AfterFunc(m.cfg.ConnectTimeout, func() { m.connectTimedOut(gen) })
	m.mu.Unlock()

	m.emit(ConnectingEvent{})
	go m.dial(gen)
}

// Stop tears the manager down for good. No further events are emitted and
// later Connect calls are no-ops.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	m.teardownLocked()
	m.status = StatusStopped
}

func (m *Manager) dial(gen int) {
	dialer := websocket.Dialer{HandshakeTimeout: m.cfg.ConnectTimeout}
	conn, _, err := dialer.Dial(m.cfg.URL, nil)

	m.mu.Lock()
	if gen != m.gen || m.stopped {
		m.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}

	var events []Event
	if err != nil {
		m.stopTimer(&m.connectTimer)
		m.surfaceErrorLocked(err, &events)
		m.scheduleRetryLocked(&events)
		m.mu.Unlock()
		m.emit(events...)
		return
	}

	m.stopTimer(&m.connectTimer)
	m.stopTimer(&m.graceTimer)
	m.conn = conn
	m.status = StatusConnected
	m.retryDelay = m.cfg.RetryInitial
	m.errorSurfaced = false
	m.mu.Unlock()

	m.emit(ConnectedEvent{})
	go m.readPump(conn, gen)
}

func (m *Manager) readPump(conn *websocket.Conn, gen int) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			m.streamClosed(gen, err)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		m.mu.Lock()
		callback := m.messageCallback
		stale := gen != m.gen || m.stopped
		m.mu.Unlock()
		if stale {
			return
		}
		if callback != nil {
			callback(string(data))
		}
	}
}

// connectTimedOut forces a connection attempt closed when it has not reached
// Connected within the configured window.
func (m *Manager) connectTimedOut(gen int) {
	m.mu.Lock()
	if gen != m.gen || m.stopped || m.status != StatusConnecting {
		m.mu.Unlock()
		return
	}
	m.gen++ // invalidate the in-flight dial
	m.connectTimer = nil
	var events []Event
	m.surfaceErrorLocked(errConnectTimeout, &events)
	m.scheduleRetryLocked(&events)
	m.mu.Unlock()
	m.emit(events...)
}

// streamClosed handles an unexpected closure of an established stream. The
// error event is deferred by the close grace window so a reconnect that beats
// it keeps the episode silent.
func (m *Manager) streamClosed(gen int, err error) {
	m.mu.Lock()
	if gen != m.gen || m.stopped {
		m.mu.Unlock()
		return
	}
	m.gen++
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	var events []Event
	if !m.errorSurfaced && m.graceTimer == nil {
		m.graceTimer = time.AfterFunc(m.cfg.CloseGrace, func() { m.graceElapsed(err) })
	}
	m.scheduleRetryLocked(&events)
	m.mu.Unlock()
	m.emit(events...)
}

func (m *Manager) graceElapsed(err error) {
	m.mu.Lock()
	m.graceTimer = nil
	if m.stopped || m.status == StatusConnected || m.errorSurfaced {
		m.mu.Unlock()
		return
	}
	m.errorSurfaced = true
	m.mu.Unlock()
	m.emit(DisconnectedEvent{Err: err})
}

// scheduleRetryLocked arms the retry timer unless one is already pending and
// advances the backoff delay. The delay only resets on a successful connect.
func (m *Manager) scheduleRetryLocked(events *[]Event) {
	if m.retryTimer != nil {
		return
	}
	m.status = StatusRetrying
	delay := m.retryDelay
	m.retryDelay = nextDelay(m.retryDelay, m.cfg.RetryFactor, m.cfg.RetryMax)
	*events = append(*events, RetryingEvent{Delay: delay})
	m.retryTimer = time.AfterFunc(delay, m.retryFired)
}

func (m *Manager) retryFired() {
	m.mu.Lock()
	m.retryTimer = nil
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return
	}
	m.Connect()
}

// surfaceErrorLocked stages the episode's single DisconnectedEvent. The
// suppression flag only clears on a successful connect.
func (m *Manager) surfaceErrorLocked(err error, events *[]Event) {
	if m.errorSurfaced {
		return
	}
	m.errorSurfaced = true
	*events = append(*events, DisconnectedEvent{Err: err})
}

// teardownLocked discards the current connection, dial attempt and timers.
func (m *Manager) teardownLocked() {
	m.gen++
	m.stopTimer(&m.connectTimer)
	m.stopTimer(&m.retryTimer)
	m.stopTimer(&m.graceTimer)
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}

func (m *Manager) stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (m *Manager) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	m.mu.Lock()
	callback := m.eventCallback
	m.mu.Unlock()
	if callback == nil {
		return
	}
	for _, ev := range events {
		callback(ev)
	}
}

func nextDelay(current time.Duration, factor float64, max time.Duration) time.Duration {
	next := time.Duration(float64(current) * factor)
	if next > max {
		next = max
	}
	return next
}
