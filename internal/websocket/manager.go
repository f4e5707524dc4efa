package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rx3lixir/groupdecide/internal/room"
)

type Config struct {
	// SendBuffer is the per-session queue length before a session counts as slow.
	SendBuffer int
	// IdleHubTimeout is how long a hub without sessions lingers.
	IdleHubTimeout time.Duration
	// AllowedOrigins are host patterns accepted during the handshake.
	AllowedOrigins []string
}

// Manager owns one hub per room with live sessions. It implements
// room.Publisher: snapshots for rooms without sessions are discarded.
type Manager struct {
	hubs sync.Map // map[string]*Hub
	cfg  Config
	log  *slog.Logger
}

var _ room.Publisher = (*Manager)(nil)

func NewManager(cfg Config, log *slog.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// hub returns the running hub of a room, starting one if needed.
func (m *Manager) hub(roomID string) *Hub {
	if h, ok := m.hubs.Load(roomID); ok {
		return h.(*Hub)
	}

	h := NewHub(roomID, m.cfg.IdleHubTimeout, m.removeIdle, m.log)
	actual, loaded := m.hubs.LoadOrStore(roomID, h)
	if !loaded {
		// We created a new hub, start it
		go h.Run()
	}
	return actual.(*Hub)
}

func (m *Manager) removeIdle(h *Hub) {
	m.hubs.CompareAndDelete(h.roomID, h)
}

// attach registers client with the hub of its room. A hub may exit between
// lookup and registration, in which case a fresh one is started.
func (m *Manager) attach(ctx context.Context, roomID string, newClient func(*Hub) *Client) (*Client, error) {
	for {
		h := m.hub(roomID)
		c := newClient(h)
		select {
		case h.register <- c:
			return c, nil
		case <-h.done:
			m.hubs.CompareAndDelete(roomID, h)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// primeClient hands a freshly registered client its first snapshot.
func (m *Manager) primeClient(ctx context.Context, c *Client, snap room.Snapshot) {
	select {
	case c.hub.prime <- primeRequest{client: c, snap: snap}:
	case <-c.hub.done:
	case <-ctx.Done():
	}
}

// Publish implements room.Publisher
func (m *Manager) Publish(snap room.Snapshot) {
	if h, ok := m.hubs.Load(snap.ID); ok {
		h.(*Hub).offer(snap)
	}
}

// Dispose implements room.Publisher
func (m *Manager) Dispose(roomID string) {
	if h, ok := m.hubs.LoadAndDelete(roomID); ok {
		h.(*Hub).Close("room closed")
	}
}

// Sessions reports the number of live sessions in a room.
func (m *Manager) Sessions(roomID string) int {
	if h, ok := m.hubs.Load(roomID); ok {
		return h.(*Hub).Sessions()
	}
	return 0
}

// Metrics reports the delivery counters of a room's hub, if it has one.
func (m *Manager) Metrics(roomID string) (HubMetrics, bool) {
	if h, ok := m.hubs.Load(roomID); ok {
		return h.(*Hub).Metrics(), true
	}
	return HubMetrics{}, false
}

// Shutdown closes every hub and waits for them to finish.
func (m *Manager) Shutdown(ctx context.Context) {
	var hubs []*Hub
	m.hubs.Range(func(key, value any) bool {
		h := value.(*Hub)
		m.hubs.Delete(key)
		h.Close("server shutting down")
		hubs = append(hubs, h)
		return true
	})
	for _, h := range hubs {
		select {
		case <-h.done:
		case <-ctx.Done():
			return
		}
	}
	m.log.Info("websocket hubs stopped", "hubs", len(hubs))
}
