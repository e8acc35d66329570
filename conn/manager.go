// ABOUTME: Owns the single transport connection: connect, drop detection, reconnect with backoff.
// ABOUTME: Routes inbound frames upward and guarantees no reconnect fires after a manual disconnect.

package conn

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/coven-chat/transport"
)

// ErrNotConnected is returned by Send when the connection is not in the
// Connected state. Sends never queue while disconnected.
var ErrNotConnected = errors.New("not connected")

// Dialer produces a fresh transport for each connection attempt, carrying
// the current bearer token. Dead transports are never reused.
type Dialer func(token string) transport.Transport

// Options configures a Manager.
type Options struct {
	// Dialer is required.
	Dialer Dialer

	// Backoff controls the reconnect schedule. Zero values select defaults.
	Backoff Backoff

	// Token is the initial bearer token, if any.
	Token string

	// TokenSource, when set, is asked for a fresh token before a dial if the
	// current one is a JWT that has expired or is about to.
	TokenSource func() (string, error)

	// OnState observes every state transition. Called from manager
	// goroutines; keep it cheap and never call back into the Manager.
	OnState func(State)

	// OnFrame receives every inbound frame, in transport order.
	OnFrame func(transport.Frame)

	Logger *slog.Logger
}

// Manager owns the transport connection's lifecycle. It is the only
// component that mutates connection state; everything above it observes
// State and sends through Send.
type Manager struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	tr      transport.Transport
	timer   *time.Timer
	attempt int
	token   string
	// gen invalidates read loops and reconnect timers from superseded
	// connections: every manual Connect/Disconnect bumps it.
	gen uint64
}

// NewManager creates a Manager in the Disconnected state.
func NewManager(opts Options) *Manager {
	if opts.Dialer == nil {
		panic("conn: Options.Dialer is required")
	}
	if opts.Backoff.Base <= 0 {
		opts.Backoff.Base = DefaultBackoffBase
	}
	if opts.Backoff.Cap <= 0 {
		opts.Backoff.Cap = DefaultBackoffCap
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		opts:   opts,
		logger: logger.With("component", "conn"),
		state:  Disconnected,
		token:  opts.Token,
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect starts a connection attempt. No-op while Connecting or Connected.
// From Reconnecting it cancels the pending timer and dials immediately;
// from Disconnected or Failed it starts fresh.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.state == Connecting || m.state == Connected {
		m.mu.Unlock()
		return
	}
	m.stopTimerLocked()
	m.gen++
	gen := m.gen
	m.attempt = 0
	m.setStateLocked(Connecting)
	m.mu.Unlock()

	m.emit(Connecting)
	go m.dial(gen)
}

// Disconnect cancels any pending reconnect, closes the transport if open,
// and moves to Disconnected. Idempotent: no reconnect attempt can fire
// afterwards, even one whose timer was already scheduled.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.stopTimerLocked()
	m.gen++
	m.attempt = 0
	if m.tr != nil {
		_ = m.tr.Close()
		m.tr = nil
	}
	already := m.state == Disconnected
	m.setStateLocked(Disconnected)
	m.mu.Unlock()

	if !already {
		m.emit(Disconnected)
	}
}

// Send forwards a payload over the transport, tagged with its request and
// channel. Fails fast with ErrNotConnected unless Connected; nothing is
// queued for replay.
func (m *Manager) Send(channelID, requestID, payload string) error {
	m.mu.Lock()
	if m.state != Connected || m.tr == nil {
		m.mu.Unlock()
		return ErrNotConnected
	}
	tr := m.tr
	m.mu.Unlock()

	return tr.Send(transport.Frame{
		RequestID: requestID,
		ChannelID: channelID,
		Kind:      transport.KindSend,
		Data:      payload,
	})
}

// SendCancel tells the backend to stop generating for a request. Best
// effort: failures and disconnected states are ignored.
func (m *Manager) SendCancel(channelID, requestID string) {
	m.mu.Lock()
	tr := m.tr
	connected := m.state == Connected
	m.mu.Unlock()

	if !connected || tr == nil {
		return
	}
	if err := tr.Send(transport.Frame{
		RequestID: requestID,
		ChannelID: channelID,
		Kind:      transport.KindCancel,
	}); err != nil {
		m.logger.Debug("cancel notification failed", "request_id", requestID, "error", err)
	}
}

// dial runs one connection attempt for generation gen.
func (m *Manager) dial(gen uint64) {
	tr := m.opts.Dialer(m.dialToken())
	err := tr.Dial(context.Background())

	m.mu.Lock()
	if m.gen != gen || m.state != Connecting {
		// Superseded by a manual Connect/Disconnect while dialing
		m.mu.Unlock()
		_ = tr.Close()
		return
	}

	if err != nil {
		m.logger.Warn("dial failed", "error", err)
		m.scheduleReconnectLocked(gen)
		st := m.state
		m.mu.Unlock()
		m.emit(st)
		return
	}

	m.tr = tr
	m.attempt = 0
	m.setStateLocked(Connected)
	m.mu.Unlock()

	m.emit(Connected)
	go m.readLoop(gen, tr)
}

// readLoop pumps inbound frames until the transport dies.
func (m *Manager) readLoop(gen uint64, tr transport.Transport) {
	for {
		f, err := tr.Receive()
		if err != nil {
			m.handleDrop(gen, tr, err)
			return
		}
		if m.opts.OnFrame != nil {
			m.opts.OnFrame(f)
		}
	}
}

// handleDrop reacts to a transport-level failure. Drops are recovered
// locally via the reconnect schedule and never surfaced as stream errors.
func (m *Manager) handleDrop(gen uint64, tr transport.Transport, err error) {
	m.mu.Lock()
	if m.gen != gen || m.tr != tr {
		// Manual disconnect already tore this transport down
		m.mu.Unlock()
		return
	}
	m.tr = nil
	_ = tr.Close()
	m.logger.Warn("transport dropped", "error", err)
	m.scheduleReconnectLocked(gen)
	st := m.state
	m.mu.Unlock()

	m.emit(st)
}

// scheduleReconnectLocked books the next attempt or gives up. Caller holds mu.
func (m *Manager) scheduleReconnectLocked(gen uint64) {
	m.attempt++
	if m.opts.Backoff.Exhausted(m.attempt) {
		m.logger.Error("reconnect attempts exhausted", "attempts", m.attempt-1)
		m.setStateLocked(Failed)
		return
	}

	delay := m.opts.Backoff.Delay(m.attempt)
	m.setStateLocked(Reconnecting)
	m.logger.Info("reconnect scheduled", "attempt", m.attempt, "delay", delay)
	m.timer = time.AfterFunc(delay, func() { m.retry(gen) })
}

// retry fires when a backoff timer expires.
func (m *Manager) retry(gen uint64) {
	m.mu.Lock()
	if m.gen != gen || m.state != Reconnecting {
		m.mu.Unlock()
		return
	}
	m.setStateLocked(Connecting)
	m.mu.Unlock()

	m.emit(Connecting)
	m.dial(gen)
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.logger.Debug("connection state", "from", m.state, "to", s)
	m.state = s
}

func (m *Manager) emit(s State) {
	if m.opts.OnState != nil {
		m.opts.OnState(s)
	}
}

// dialToken returns the bearer token for the next dial, refreshing it first
// when the current one is stale and a TokenSource is configured.
func (m *Manager) dialToken() string {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if m.opts.TokenSource == nil || !tokenStale(token, time.Now()) {
		return token
	}

	fresh, err := m.opts.TokenSource()
	if err != nil {
		m.logger.Warn("token refresh failed", "error", err)
		return token
	}

	m.mu.Lock()
	m.token = fresh
	m.mu.Unlock()
	return fresh
}
