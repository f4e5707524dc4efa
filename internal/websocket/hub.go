package websocket

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/rx3lixir/groupdecide/internal/room"
)

type sessionKey struct {
	participantID string
	sessionID     string
}

type primeRequest struct {
	client *Client
	snap   room.Snapshot
}

// Hub fans room snapshots out to the sessions of one room.
type Hub struct {
	// Room identifier
	roomID string

	// Registered clients (only accessed by hub goroutine)
	clients map[sessionKey]*Client

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Initial snapshot for a freshly registered client
	prime chan primeRequest

	// Newest published snapshot not yet delivered. Publishers overwrite it,
	// so a burst of changes reaches sessions as its final state.
	mu      sync.Mutex
	pending *room.Snapshot
	notify  chan struct{}

	// Shutdown signal carrying the reason sent to sessions
	closing   chan string
	closeOnce sync.Once
	done      chan struct{}

	idleTimeout time.Duration
	onIdle      func(h *Hub)

	sessions     atomic.Int64
	sent         atomic.Int64
	dropped      atomic.Int64
	replaced     atomic.Int64
	lastActivity atomic.Int64

	log *slog.Logger
}

// HubMetrics counts what a hub delivered since it started.
type HubMetrics struct {
	SnapshotsSent    int64
	SessionsDropped  int64
	SessionsReplaced int64
	LastActivity     time.Time
}

func NewHub(roomID string, idleTimeout time.Duration, onIdle func(*Hub), log *slog.Logger) *Hub {
	h := &Hub{
		roomID:      roomID,
		clients:     make(map[sessionKey]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		prime:       make(chan primeRequest),
		notify:      make(chan struct{}, 1),
		closing:     make(chan string, 1),
		done:        make(chan struct{}),
		idleTimeout: idleTimeout,
		onIdle:      onIdle,
		log:         log.With("room_id", roomID),
	}
	h.touch()
	return h
}

func (h *Hub) touch() {
	h.lastActivity.Store(time.Now().UnixNano())
}

// Metrics is safe to call from any goroutine.
func (h *Hub) Metrics() HubMetrics {
	return HubMetrics{
		SnapshotsSent:    h.sent.Load(),
		SessionsDropped:  h.dropped.Load(),
		SessionsReplaced: h.replaced.Load(),
		LastActivity:     time.Unix(0, h.lastActivity.Load()),
	}
}

// Run is the main event loop - handles ALL state changes sequentially
func (h *Hub) Run() {
	defer close(h.done)
	defer func() {
		m := h.Metrics()
		h.log.Info("hub stopped",
			"snapshots_sent", m.SnapshotsSent,
			"sessions_dropped", m.SessionsDropped,
			"sessions_replaced", m.SessionsReplaced,
			"last_activity", m.LastActivity)
	}()

	var idleC <-chan time.Time
	var idleTimer *time.Timer
	armIdle := func() {
		if h.idleTimeout > 0 && len(h.clients) == 0 && idleC == nil {
			idleTimer = time.NewTimer(h.idleTimeout)
			idleC = idleTimer.C
		}
	}
	armIdle()

	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)
			if idleC != nil {
				idleTimer.Stop()
				idleC = nil
			}

		case client := <-h.unregister:
			h.remove(client, websocket.StatusNormalClosure, "")
			armIdle()

		case p := <-h.prime:
			if current, ok := h.clients[p.client.key()]; ok && current == p.client {
				h.deliver(p.client, p.snap)
			}

		case <-h.notify:
			if snap := h.takePending(); snap != nil {
				h.handleBroadcast(*snap)
			}
			armIdle()

		case <-idleC:
			idleC = nil
			if len(h.clients) == 0 {
				h.log.Debug("hub idle, exiting")
				if h.onIdle != nil {
					h.onIdle(h)
				}
				return
			}

		case reason := <-h.closing:
			h.handleShutdown(reason)
			return
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	key := client.key()
	if old, ok := h.clients[key]; ok {
		h.replaced.Add(1)
		h.log.Info("session replaced",
			"participant_id", key.participantID,
			"session_id", key.sessionID)
		h.remove(old, websocket.StatusPolicyViolation, "session replaced")
	}

	h.clients[key] = client
	h.sessions.Store(int64(len(h.clients)))

	h.log.Info("client registered",
		"participant_id", client.participantID,
		"session_id", client.sessionID,
		"total_clients", len(h.clients))

	client.enqueue(newMessage(TypeConnectionAck, ConnectionAckData{
		RoomID:        h.roomID,
		ParticipantID: client.participantID,
		SessionID:     client.sessionID,
	}))
}

// remove drops a client and closes its send channel, which makes its write
// pump close the connection with the given status.
func (h *Hub) remove(client *Client, status websocket.StatusCode, reason string) {
	key := client.key()
	if current, ok := h.clients[key]; !ok || current != client {
		return
	}
	delete(h.clients, key)
	h.sessions.Store(int64(len(h.clients)))

	client.closeStatus = status
	client.closeReason = reason
	close(client.send)

	h.log.Debug("client unregistered",
		"participant_id", key.participantID,
		"session_id", key.sessionID,
		"remaining_clients", len(h.clients))
}

// offer records snap as the newest state and wakes the hub. It never blocks.
func (h *Hub) offer(snap room.Snapshot) {
	h.mu.Lock()
	if h.pending == nil || snap.Version > h.pending.Version {
		h.pending = &snap
	}
	h.mu.Unlock()

	select {
	case h.notify <- struct{}{}:
	default:
	}
}

func (h *Hub) takePending() *room.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	snap := h.pending
	h.pending = nil
	return snap
}

func (h *Hub) handleBroadcast(snap room.Snapshot) {
	h.touch()

	// Marshal once per participant, not once per session
	payloads := make(map[string][]byte)
	for _, client := range h.clients {
		if snap.Version <= client.lastVersion {
			continue
		}
		if !snap.IsMember(client.participantID) {
			client.enqueue(newMessage(TypeLeftRoom, RoomClosedData{RoomID: h.roomID, Reason: "no longer a member"}))
			h.remove(client, websocket.StatusNormalClosure, "left room")
			continue
		}

		data, ok := payloads[client.participantID]
		if !ok {
			msg := newMessage(TypeRoomState, snap.ViewFor(client.participantID))
			var err error
			if data, err = msg.ToJSON(); err != nil {
				h.log.Error("failed to marshal snapshot", "error", err, "version", snap.Version)
				return
			}
			payloads[client.participantID] = data
		}
		h.send(client, data, snap.Version)
	}
}

// deliver sends a single snapshot to one client unless it already has a newer one.
func (h *Hub) deliver(client *Client, snap room.Snapshot) {
	if snap.Version <= client.lastVersion {
		return
	}
	data, err := newMessage(TypeRoomState, snap.ViewFor(client.participantID)).ToJSON()
	if err != nil {
		h.log.Error("failed to marshal snapshot", "error", err, "version", snap.Version)
		return
	}
	h.send(client, data, snap.Version)
}

func (h *Hub) send(client *Client, data []byte, version uint64) {
	select {
	case client.send <- data:
		client.lastVersion = version
		h.sent.Add(1)
	default:
		// Client is too slow, disconnect it
		h.log.Warn("client buffer full, disconnecting",
			"participant_id", client.participantID,
			"session_id", client.sessionID)
		h.dropped.Add(1)
		h.remove(client, websocket.StatusTryAgainLater, "too slow")
	}
}

func (h *Hub) handleShutdown(reason string) {
	h.log.Info("shutting down hub", "reason", reason, "clients", len(h.clients))

	for _, client := range h.clients {
		client.enqueue(newMessage(TypeRoomClosed, RoomClosedData{RoomID: h.roomID, Reason: reason}))
		h.remove(client, websocket.StatusGoingAway, reason)
	}
}

// Close stops the hub, telling every session why.
func (h *Hub) Close(reason string) {
	h.closeOnce.Do(func() { h.closing <- reason })
}

// Sessions reports the number of registered sessions.
func (h *Hub) Sessions() int {
	return int(h.sessions.Load())
}

func (h *Hub) Done() <-chan struct{} {
	return h.done
}
