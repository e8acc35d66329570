// ABOUTME: Store façade composing connection, channels, streams, loading keys, and prefs.
// ABOUTME: Single serialized mutation entry point; subscribers are notified after each mutation.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/coven-chat/channel"
	"github.com/2389/coven-chat/config"
	"github.com/2389/coven-chat/conn"
	"github.com/2389/coven-chat/dedupe"
	"github.com/2389/coven-chat/loading"
	"github.com/2389/coven-chat/prefs"
	"github.com/2389/coven-chat/stream"
	"github.com/2389/coven-chat/surface"
	"github.com/2389/coven-chat/transport"
)

// ErrDuplicateSend indicates the send's idempotency key was already seen;
// nothing was dispatched and no state changed.
var ErrDuplicateSend = errors.New("duplicate send")

// Options configures an Engine.
type Options struct {
	// Config is required.
	Config *config.Config

	// Theme selects the chat surface; required.
	Theme string

	// Dialer overrides the default websocket dialer. Tests use this to
	// substitute in-memory transports.
	Dialer conn.Dialer

	// TokenSource refreshes stale bearer tokens before reconnect attempts.
	TokenSource func() (string, error)

	// Prefs persists UI preferences. Nil disables persistence.
	Prefs *prefs.Store

	Logger *slog.Logger
}

// Engine is the single entry point for all chat state mutations. UI code
// issues intents (SendMessage, PinChannel, Disconnect, ...); inbound network
// frames arrive through the connection manager. Both paths funnel through
// one lock, so no two mutations of the same channel's state ever interleave.
type Engine struct {
	cfg    *config.Config
	surf   surface.Config
	logger *slog.Logger

	manager  *conn.Manager
	acc      *stream.Accumulator
	channels *channel.Registry
	keys     *loading.Registry
	store    *prefs.Store
	seen     *dedupe.Cache
	events   *broadcaster

	applyMu sync.Mutex // held for the duration of every mutation
}

// New builds an engine for the given surface theme.
func New(opts Options) (*Engine, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("engine: Config is required")
	}
	surf, err := surface.Resolve(opts.Theme)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("surface", surf.ThemeID)

	historyCap := -1 // registry default
	if opts.Config.History.MaxMessagesPerChannel != nil {
		historyCap = *opts.Config.History.MaxMessagesPerChannel
	}

	e := &Engine{
		cfg:      opts.Config,
		surf:     surf,
		logger:   logger,
		channels: channel.NewRegistry(historyCap, logger),
		keys:     loading.NewRegistry(),
		store:    opts.Prefs,
		seen:     dedupe.New(opts.Config.Dedupe.TTL, opts.Config.Dedupe.MaxSize),
		events:   newBroadcaster(logger),
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = e.websocketDialer()
	}

	e.manager = conn.NewManager(conn.Options{
		Dialer: dialer,
		Backoff: conn.Backoff{
			Base:           opts.Config.Reconnect.Base,
			Cap:            opts.Config.Reconnect.Cap,
			MaxAttempts:    opts.Config.Reconnect.MaxAttempts,
			JitterFraction: opts.Config.Reconnect.Jitter,
		},
		Token:       opts.Config.Transport.Token,
		TokenSource: opts.TokenSource,
		OnState:     e.handleConnectionState,
		OnFrame:     e.handleFrame,
		Logger:      logger,
	})

	e.acc = stream.NewAccumulator(e.channels, e.keys, e.manager.SendCancel, logger)
	return e, nil
}

func (e *Engine) websocketDialer() conn.Dialer {
	cfg := e.cfg.Transport
	return func(token string) transport.Transport {
		return transport.NewWebSocket(transport.WebSocketConfig{
			URL:              cfg.URL,
			Token:            token,
			HandshakeTimeout: cfg.HandshakeTimeout,
		})
	}
}

// apply serializes a mutation and the notifications it produces. Events
// published inside fn reach subscribers in mutation order.
func (e *Engine) apply(fn func()) {
	e.applyMu.Lock()
	defer e.applyMu.Unlock()
	fn()
}

// Close tears the engine down: disconnects, stops background work, and
// closes all subscriber channels.
func (e *Engine) Close() {
	e.manager.Disconnect()
	e.seen.Close()
	e.events.close()
}

// Subscribe registers a listener for engine events. The subscription ends
// when ctx is cancelled or Unsubscribe is called with the returned ID.
func (e *Engine) Subscribe(ctx context.Context) (<-chan Event, string) {
	return e.events.subscribe(ctx)
}

// Unsubscribe removes a subscription and closes its channel.
func (e *Engine) Unsubscribe(subID string) {
	e.events.unsubscribe(subID)
}

// Surface returns the resolved surface configuration.
func (e *Engine) Surface() surface.Config {
	return e.surf
}

// --- Connection intents ---

// Connect starts the connection. No-op while connecting or connected.
func (e *Engine) Connect() {
	e.manager.Connect()
}

// Disconnect closes the connection and cancels any pending reconnect.
//
// Policy: in-flight stream sessions are failed locally (the transport never
// replays frames, so they could never finish) but the backend is not sent a
// cancel; this is a local teardown, not a user cancellation.
func (e *Engine) Disconnect() {
	e.manager.Disconnect()
}

// ConnectionState returns the current transport connection state.
func (e *Engine) ConnectionState() conn.State {
	return e.manager.State()
}

// handleConnectionState reacts to manager state transitions. A drop or a
// manual disconnect strands any in-flight sessions, so they are failed here
// with the surface's connection-lost message, which also clears their
// loading keys.
func (e *Engine) handleConnectionState(s conn.State) {
	e.apply(func() {
		if s == conn.Reconnecting || s == conn.Disconnected {
			e.failActiveSessionsLocked()
		}
		e.events.publish(Event{Kind: EventConnection, ConnectionState: s})
	})
}

func (e *Engine) failActiveSessionsLocked() {
	for _, channelID := range e.acc.ActiveChannels() {
		if err := e.acc.Error(channelID, e.surf.ResponseMessages.ConnectionLost); err != nil {
			e.logger.Error("failing stranded session", "channel_id", channelID, "error", err)
		}
		e.events.publish(Event{Kind: EventMessage, ChannelID: channelID})
		e.events.publish(Event{Kind: EventLoading, LoadingKey: loading.SendKey(channelID)})
	}
}

// --- Frame routing ---

// handleFrame routes one inbound frame to the stream accumulator. This is
// the only path by which stream sessions receive data.
func (e *Engine) handleFrame(f transport.Frame) {
	e.apply(func() {
		// Frames from a superseded request on the same channel are stale
		if requestID, ok := e.acc.RequestID(f.ChannelID); ok && requestID != f.RequestID {
			e.logger.Debug("stale frame dropped",
				"channel_id", f.ChannelID,
				"request_id", f.RequestID,
			)
			return
		}

		switch f.Kind {
		case transport.KindDelta:
			if err := e.acc.Append(f.ChannelID, f.Data); err != nil {
				e.logger.Error("appending delta", "channel_id", f.ChannelID, "error", err)
				return
			}
		case transport.KindComplete:
			if err := e.acc.Finalize(f.ChannelID); err != nil {
				e.logger.Error("finalizing stream", "channel_id", f.ChannelID, "error", err)
				return
			}
			e.acc.ClearCancelled(f.ChannelID)
			e.events.publish(Event{Kind: EventLoading, LoadingKey: loading.SendKey(f.ChannelID)})
		case transport.KindError:
			reason := f.Data
			if reason == "" {
				reason = e.surf.ResponseMessages.Errored
			}
			if err := e.acc.Error(f.ChannelID, reason); err != nil {
				e.logger.Error("failing stream", "channel_id", f.ChannelID, "error", err)
				return
			}
			e.events.publish(Event{Kind: EventLoading, LoadingKey: loading.SendKey(f.ChannelID)})
		default:
			e.logger.Warn("frame with unknown kind dropped", "kind", f.Kind)
			return
		}

		e.events.publish(Event{Kind: EventMessage, ChannelID: f.ChannelID})
	})
}

// --- Channel intents ---

// CreateChannel allocates a new conversation channel and returns its ID.
func (e *Engine) CreateChannel(title string) string {
	var id string
	e.apply(func() {
		id = e.channels.Create(title)
		e.events.publish(Event{Kind: EventChannels, ChannelID: id})
	})
	return id
}

// SelectChannel records the active channel and persists the choice.
func (e *Engine) SelectChannel(channelID string) error {
	var err error
	e.apply(func() {
		if err = e.channels.Select(channelID); err != nil {
			return
		}
		e.persist(func(ctx context.Context) error {
			return e.store.Set(ctx, e.surf.StorageKeys.LastChannel, channelID)
		})
		e.events.publish(Event{Kind: EventChannels, ChannelID: channelID})
	})
	return err
}

// PinChannel pins a channel and persists the pinned set.
func (e *Engine) PinChannel(channelID string) error {
	return e.setPinned(channelID, true)
}

// UnpinChannel unpins a channel and persists the pinned set.
func (e *Engine) UnpinChannel(channelID string) error {
	return e.setPinned(channelID, false)
}

func (e *Engine) setPinned(channelID string, pinned bool) error {
	var err error
	e.apply(func() {
		if pinned {
			err = e.channels.Pin(channelID)
		} else {
			err = e.channels.Unpin(channelID)
		}
		if err != nil {
			return
		}
		e.persist(func(ctx context.Context) error {
			return e.store.SetStrings(ctx, e.surf.StorageKeys.PinnedChannels, e.channels.PinnedIDs())
		})
		e.events.publish(Event{Kind: EventChannels, ChannelID: channelID})
	})
	return err
}

// DeleteChannel removes a channel and any stream bookkeeping it had.
func (e *Engine) DeleteChannel(channelID string) error {
	var err error
	e.apply(func() {
		_ = e.acc.Cancel(channelID)
		if err = e.channels.Delete(channelID); err != nil {
			return
		}
		e.events.publish(Event{Kind: EventChannels, ChannelID: channelID})
	})
	return err
}

// Channels lists all channels, pinned first.
func (e *Engine) Channels() []channel.Channel {
	return e.channels.List()
}

// Channel returns a copy of one channel with its history.
func (e *Engine) Channel(channelID string) (channel.Channel, error) {
	return e.channels.Get(channelID)
}

// ChannelPreview returns a plain-text preview of a channel's latest message.
func (e *Engine) ChannelPreview(channelID string) (string, error) {
	return e.channels.Preview(channelID)
}

// Loading reports whether the named operation is in flight.
func (e *Engine) Loading(key string) bool {
	return e.keys.Get(key)
}

// --- Send / cancel intents ---

// SendOptions tunes a SendMessage call.
type SendOptions struct {
	// IdempotencyKey, when non-empty, suppresses duplicate dispatches of the
	// same logical send within the dedupe window.
	IdempotencyKey string
}

// SendMessage appends the user's message, opens a stream session for the
// assistant's reply, and dispatches the request. It fails fast with
// conn.ErrNotConnected when the connection is down, stream.ErrSessionConflict
// when a generation is already running on the channel, and ErrDuplicateSend
// when the idempotency key was already seen. The "<channelID>:send" loading
// key is set for the duration of the operation and is cleared on every
// terminal outcome.
func (e *Engine) SendMessage(channelID, text string, opts SendOptions) (string, error) {
	var messageID string
	var err error

	e.apply(func() {
		if _, err = e.channels.Get(channelID); err != nil {
			return
		}
		if e.manager.State() != conn.Connected {
			err = conn.ErrNotConnected
			return
		}
		if e.acc.Active(channelID) {
			err = fmt.Errorf("channel %q: %w", channelID, stream.ErrSessionConflict)
			return
		}
		if opts.IdempotencyKey != "" && e.seen.CheckAndMark(opts.IdempotencyKey) {
			e.logger.Debug("duplicate send ignored", "idempotency_key", opts.IdempotencyKey)
			err = ErrDuplicateSend
			return
		}

		userMsg := channel.NewMessage(channelID, channel.RoleUser, text, channel.StatusComplete)
		if err = e.channels.Append(channelID, userMsg); err != nil {
			return
		}
		messageID = userMsg.ID
		e.events.publish(Event{Kind: EventMessage, ChannelID: channelID, MessageID: userMsg.ID})

		requestID := uuid.New().String()
		assistantMsg := channel.NewMessage(channelID, channel.RoleAssistant, "", channel.StatusPending)
		if err = e.channels.Append(channelID, assistantMsg); err != nil {
			return
		}

		e.keys.Set(loading.SendKey(channelID), true)
		e.events.publish(Event{Kind: EventLoading, LoadingKey: loading.SendKey(channelID)})

		if err = e.acc.Start(channelID, assistantMsg.ID, requestID); err != nil {
			e.keys.Set(loading.SendKey(channelID), false)
			return
		}

		if sendErr := e.manager.Send(channelID, requestID, text); sendErr != nil {
			// The connection raced away between the state check and the
			// send; fail the session, which also clears the loading key.
			_ = e.acc.Error(channelID, e.surf.ResponseMessages.ConnectionLost)
			e.events.publish(Event{Kind: EventLoading, LoadingKey: loading.SendKey(channelID)})
			err = sendErr
			return
		}

		e.events.publish(Event{Kind: EventMessage, ChannelID: channelID, MessageID: assistantMsg.ID})
	})

	return messageID, err
}

// CancelStream cancels the in-flight generation on a channel, if any.
// Terminal and idempotent; the backend is notified best-effort.
func (e *Engine) CancelStream(channelID string) {
	e.apply(func() {
		if err := e.acc.Cancel(channelID); err != nil {
			e.logger.Error("cancelling stream", "channel_id", channelID, "error", err)
			return
		}
		e.events.publish(Event{Kind: EventMessage, ChannelID: channelID})
		e.events.publish(Event{Kind: EventLoading, LoadingKey: loading.SendKey(channelID)})
	})
}

// --- Preferences ---

// persist runs a preference write if a store is configured. Failures are
// logged, never surfaced; preference writes are best-effort.
func (e *Engine) persist(fn func(ctx context.Context) error) {
	if e.store == nil {
		return
	}
	if err := fn(context.Background()); err != nil {
		e.logger.Warn("persisting preference", "error", err)
	}
}

// LastChannel returns the persisted last active channel ID for this surface,
// or "" when unset or persistence is disabled.
func (e *Engine) LastChannel(ctx context.Context) string {
	if e.store == nil {
		return ""
	}
	id, err := e.store.GetDefault(ctx, e.surf.StorageKeys.LastChannel, "")
	if err != nil {
		e.logger.Warn("reading last channel preference", "error", err)
		return ""
	}
	return id
}

// DefaultPanelWidth is used when no panel width preference has been saved.
const DefaultPanelWidth = 320

// PanelWidth returns the persisted panel width for this surface.
func (e *Engine) PanelWidth(ctx context.Context) int {
	if e.store == nil {
		return DefaultPanelWidth
	}
	w, err := e.store.GetInt(ctx, e.surf.StorageKeys.PanelWidth, DefaultPanelWidth)
	if err != nil {
		e.logger.Warn("reading panel width preference", "error", err)
		return DefaultPanelWidth
	}
	return w
}

// SetPanelWidth persists the panel width for this surface.
func (e *Engine) SetPanelWidth(width int) {
	e.persist(func(ctx context.Context) error {
		return e.store.SetInt(ctx, e.surf.StorageKeys.PanelWidth, width)
	})
}

// PersistedPins returns the pinned channel IDs recorded for this surface.
func (e *Engine) PersistedPins(ctx context.Context) []string {
	if e.store == nil {
		return nil
	}
	ids, err := e.store.GetStrings(ctx, e.surf.StorageKeys.PinnedChannels)
	if err != nil {
		e.logger.Warn("reading pinned channels preference", "error", err)
		return nil
	}
	return ids
}
