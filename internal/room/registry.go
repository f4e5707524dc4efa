package room

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rx3lixir/groupdecide/internal/errs"
)

const roomCodePrefix = "ROOM-"

type Options struct {
	// CommandBuffer is the queue length of each room actor.
	CommandBuffer int
	// EmptyGrace is how long an empty room waits for a join before disposal.
	EmptyGrace time.Duration
	// IdleTTL disposes rooms that processed no command for this long. 0 disables.
	IdleTTL time.Duration
}

// Registry maps room codes to their actors and routes commands to them.
// Room state itself is never touched under the registry: each actor owns its own.
type Registry struct {
	rooms     sync.Map // map[string]*Actor
	publisher Publisher
	log       *slog.Logger
	opts      Options
	now       func() time.Time
}

func NewRegistry(publisher Publisher, log *slog.Logger, opts Options) *Registry {
	if publisher == nil {
		publisher = Publishers{}
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.CommandBuffer <= 0 {
		opts.CommandBuffer = 64
	}
	return &Registry{
		publisher: publisher,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

func newRoomCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return roomCodePrefix + strings.ToUpper(raw[:6])
}

// Create starts a new room hosted by host and returns its first snapshot.
func (r *Registry) Create(ctx context.Context, name string, host Participant) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	for {
		state, err := newState(newRoomCode(), name, host, r.now())
		if err != nil {
			return Snapshot{}, err
		}

		actor := newActor(state, actorConfig{
			buffer:     r.opts.CommandBuffer,
			emptyGrace: r.opts.EmptyGrace,
			publisher:  r.publisher,
			log:        r.log,
			now:        r.now,
			onEmpty:    r.disposeEmpty,
		})
		if _, taken := r.rooms.LoadOrStore(state.id, actor); taken {
			continue
		}

		snap := state.Snapshot()
		go actor.run()

		r.log.Info("room created",
			"room_id", snap.ID,
			"host_id", snap.HostID,
			"name", snap.Name)
		return snap, nil
	}
}

// Room resolves a room code to its actor.
func (r *Registry) Room(roomID string) (*Actor, error) {
	v, ok := r.rooms.Load(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: room %s", errs.ErrNotFound, roomID)
	}
	return v.(*Actor), nil
}

// Snapshot returns the current snapshot of a room.
func (r *Registry) Snapshot(ctx context.Context, roomID string) (Snapshot, error) {
	actor, err := r.Room(roomID)
	if err != nil {
		return Snapshot{}, err
	}
	return actor.Snapshot(ctx)
}

func (r *Registry) Len() int {
	n := 0
	r.rooms.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (r *Registry) disposeEmpty(a *Actor) {
	if r.rooms.CompareAndDelete(a.id, a) {
		r.publisher.Dispose(a.id)
	}
}

// Sweep disposes every room idle for longer than IdleTTL and reports how many
// were removed.
func (r *Registry) Sweep(now time.Time) int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	removed := 0
	r.rooms.Range(func(key, value any) bool {
		a := value.(*Actor)
		if now.Sub(a.LastActive()) <= r.opts.IdleTTL {
			return true
		}
		if r.rooms.CompareAndDelete(key, a) {
			a.stop()
			r.publisher.Dispose(a.id)
			removed++
			r.log.Info("idle room disposed", "room_id", a.id, "last_active", a.LastActive())
		}
		return true
	})
	return removed
}

// RunJanitor sweeps idle rooms every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	if r.opts.IdleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				r.log.Debug("janitor sweep finished", "removed", n, "remaining", r.Len())
			}
		}
	}
}

// Shutdown stops every actor and waits for their loops to exit.
func (r *Registry) Shutdown() {
	var actors []*Actor
	r.rooms.Range(func(key, value any) bool {
		a := value.(*Actor)
		r.rooms.Delete(key)
		a.stop()
		actors = append(actors, a)
		return true
	})
	for _, a := range actors {
		<-a.done
	}
	r.log.Info("room registry stopped", "rooms", len(actors))
}

// View returns a room as seen by one of its members.
func (r *Registry) View(ctx context.Context, roomID, participantID string) (Snapshot, error) {
	actor, err := r.Room(roomID)
	if err != nil {
		return Snapshot{}, err
	}
	return actor.View(ctx, participantID)
}
