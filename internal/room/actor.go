package room

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rx3lixir/groupdecide/internal/errs"
	"github.com/rx3lixir/groupdecide/internal/ledger"
)

// Publisher receives every snapshot produced by a state-changing command, in
// command order. Publish must not block: the actor calls it inline.
type Publisher interface {
	Publish(snap Snapshot)
	Dispose(roomID string)
}

// Publishers fans a snapshot out to several publishers.
type Publishers []Publisher

func (ps Publishers) Publish(snap Snapshot) {
	for _, p := range ps {
		p.Publish(snap)
	}
}

func (ps Publishers) Dispose(roomID string) {
	for _, p := range ps {
		p.Dispose(roomID)
	}
}

// mutation applies a command to a clone of the room state. changed reports
// whether the command altered anything worth broadcasting.
type mutation func(s *State) (changed bool, err error)

type envelope struct {
	name   string
	mutate mutation // nil for reads
	reply  chan reply
}

type reply struct {
	snap Snapshot
	err  error
}

// Actor owns one room's state and applies commands one at a time, in the
// order they were enqueued.
type Actor struct {
	id        string
	state     *State // only touched by run
	commands  chan envelope
	quit      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time

	emptyGrace time.Duration
	onEmpty    func(a *Actor)

	lastActive atomic.Int64
}

type actorConfig struct {
	buffer     int
	emptyGrace time.Duration
	publisher  Publisher
	log        *slog.Logger
	now        func() time.Time
	onEmpty    func(a *Actor)
}

func newActor(state *State, cfg actorConfig) *Actor {
	a := &Actor{
		id:         state.id,
		state:      state,
		commands:   make(chan envelope, cfg.buffer),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		publisher:  cfg.publisher,
		log:        cfg.log.With("room_id", state.id),
		now:        cfg.now,
		emptyGrace: cfg.emptyGrace,
		onEmpty:    cfg.onEmpty,
	}
	a.lastActive.Store(cfg.now().UnixNano())
	return a
}

func (a *Actor) ID() string { return a.id }

// LastActive is the time the actor last processed a command.
func (a *Actor) LastActive() time.Time {
	return time.Unix(0, a.lastActive.Load())
}

func (a *Actor) run() {
	defer close(a.done)

	var emptyC <-chan time.Time
	var emptyTimer *time.Timer

	for {
		select {
		case env := <-a.commands:
			a.handle(env)

			empty := len(a.state.members) == 0
			switch {
			case empty && a.emptyGrace <= 0:
				a.disposeEmpty()
				return
			case empty && emptyC == nil:
				emptyTimer = time.NewTimer(a.emptyGrace)
				emptyC = emptyTimer.C
				a.log.Debug("room empty, waiting for grace period", "grace", a.emptyGrace)
			case !empty && emptyC != nil:
				emptyTimer.Stop()
				emptyC = nil
			}

		case <-emptyC:
			emptyC = nil
			if len(a.state.members) == 0 {
				a.disposeEmpty()
				return
			}

		case <-a.quit:
			return
		}
	}
}

func (a *Actor) disposeEmpty() {
	a.log.Info("room empty, disposing")
	if a.onEmpty != nil {
		a.onEmpty(a)
	}
}

func (a *Actor) stop() {
	a.stopOnce.Do(func() { close(a.quit) })
}

func (a *Actor) handle(env envelope) {
	a.lastActive.Store(a.now().UnixNano())

	if env.mutate == nil {
		env.reply <- reply{snap: a.current()}
		return
	}

	next := a.state.clone()
	changed, err := a.apply(env, next)
	if err != nil {
		a.log.Debug("command rejected", "command", env.name, "error", err)
		env.reply <- reply{err: err}
		return
	}
	if !changed {
		env.reply <- reply{snap: a.current()}
		return
	}

	next.version++
	next.updatedAt = a.now()
	a.state = next

	snap := next.Snapshot()
	a.log.Debug("command applied",
		"command", env.name,
		"version", snap.Version,
		"phase", snap.Phase,
		"decision_computed", snap.DecisionComputed)
	a.publisher.Publish(snap)
	env.reply <- reply{snap: snap}
}

func (a *Actor) current() Snapshot {
	snap := a.state.Snapshot()
	snap.DecisionComputed = false
	return snap
}

// apply runs the mutation, turning a panic into a failed command. The clone
// it was working on is discarded, so the room state is untouched.
func (a *Actor) apply(env envelope, next *State) (changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("command panicked", "command", env.name, "panic", r)
			changed, err = false, fmt.Errorf("%w: %s", errs.ErrInternal, env.name)
		}
	}()
	return env.mutate(next)
}

func (a *Actor) do(ctx context.Context, name string, m mutation) (Snapshot, error) {
	env := envelope{name: name, mutate: m, reply: make(chan reply, 1)}

	select {
	case a.commands <- env:
	case <-a.done:
		return Snapshot{}, errs.ErrRoomClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case r := <-env.reply:
		return r.snap, r.err
	case <-a.done:
		select {
		case r := <-env.reply:
			return r.snap, r.err
		default:
			return Snapshot{}, errs.ErrRoomClosed
		}
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Snapshot returns the current state without changing it.
func (a *Actor) Snapshot(ctx context.Context) (Snapshot, error) {
	return a.do(ctx, "snapshot", nil)
}

// View returns the current state as seen by a member.
func (a *Actor) View(ctx context.Context, participantID string) (Snapshot, error) {
	snap, err := a.Snapshot(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if !snap.IsMember(participantID) {
		return Snapshot{}, fmt.Errorf("%w: %s", errs.ErrNotAMember, participantID)
	}
	return snap.ViewFor(participantID), nil
}

func (a *Actor) Join(ctx context.Context, p Participant) (Snapshot, error) {
	return a.do(ctx, "join", func(s *State) (bool, error) {
		return s.Join(p)
	})
}

func (a *Actor) Leave(ctx context.Context, participantID string) (Snapshot, error) {
	return a.do(ctx, "leave", func(s *State) (bool, error) {
		return s.Leave(participantID)
	})
}

func (a *Actor) AddPrivateItem(ctx context.Context, ownerID string, in ledger.ItemInput) (Snapshot, error) {
	return a.do(ctx, "add_private_item", func(s *State) (bool, error) {
		_, err := s.AddPrivateItem(ownerID, in)
		return err == nil, err
	})
}

func (a *Actor) DeletePrivateItem(ctx context.Context, ownerID, instanceID string) (Snapshot, error) {
	return a.do(ctx, "delete_private_item", func(s *State) (bool, error) {
		err := s.DeletePrivateItem(ownerID, instanceID)
		return err == nil, err
	})
}

func (a *Actor) PromoteToPublic(ctx context.Context, ownerID, instanceID, submittedBy string) (Snapshot, error) {
	return a.do(ctx, "promote_to_public", func(s *State) (bool, error) {
		_, err := s.PromoteToPublic(ownerID, instanceID, submittedBy)
		return err == nil, err
	})
}

func (a *Actor) HostAddPublicItem(ctx context.Context, participantID string, in ledger.ItemInput) (Snapshot, error) {
	return a.do(ctx, "host_add_public_item", func(s *State) (bool, error) {
		_, err := s.HostAddPublicItem(participantID, in)
		return err == nil, err
	})
}

func (a *Actor) DeletePublicItem(ctx context.Context, participantID, instanceID string) (Snapshot, error) {
	return a.do(ctx, "delete_public_item", func(s *State) (bool, error) {
		err := s.DeletePublicItem(participantID, instanceID)
		return err == nil, err
	})
}

func (a *Actor) RatePublicItem(ctx context.Context, participantID, instanceID string, e ledger.Emotion) (Snapshot, error) {
	return a.do(ctx, "rate_public_item", func(s *State) (bool, error) {
		return s.RatePublicItem(participantID, instanceID, e)
	})
}

func (a *Actor) ClearRating(ctx context.Context, participantID, instanceID string) (Snapshot, error) {
	return a.do(ctx, "clear_rating", func(s *State) (bool, error) {
		return s.ClearRating(participantID, instanceID)
	})
}

func (a *Actor) Finalize(ctx context.Context, participantID string) (Snapshot, error) {
	return a.do(ctx, "finalize", func(s *State) (bool, error) {
		return s.Finalize(participantID)
	})
}

func (a *Actor) Restart(ctx context.Context, participantID string) (Snapshot, error) {
	return a.do(ctx, "restart", func(s *State) (bool, error) {
		err := s.Restart(participantID)
		return err == nil, err
	})
}
