package archive

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rx3lixir/groupdecide/internal/room"
)

// Archiver receives room snapshots and stores the ones that carry a freshly
// computed decision. It implements room.Publisher and never blocks a room.
type Archiver struct {
	store   Store
	blobs   BlobStore
	queue   chan room.Snapshot
	timeout time.Duration
	log     *slog.Logger

	saved   atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

var _ room.Publisher = (*Archiver)(nil)

// NewArchiver creates an archiver. blobs may be nil.
func NewArchiver(store Store, blobs BlobStore, queueSize int, timeout time.Duration, log *slog.Logger) *Archiver {
	if queueSize <= 0 {
		queueSize = 128
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Archiver{
		store:   store,
		blobs:   blobs,
		queue:   make(chan room.Snapshot, queueSize),
		timeout: timeout,
		log:     log,
	}
}

// Publish implements room.Publisher
func (a *Archiver) Publish(snap room.Snapshot) {
	if !snap.DecisionComputed {
		return
	}
	select {
	case a.queue <- snap:
	default:
		a.dropped.Add(1)
		a.log.Warn("archive queue full, decision not archived",
			"room_id", snap.ID,
			"round", snap.DecisionRound)
	}
}

// Dispose implements room.Publisher. Archived rounds outlive their room.
func (a *Archiver) Dispose(roomID string) {
	a.log.Debug("room disposed, archive kept", "room_id", roomID)
}

// Run stores queued decisions until ctx is done, then flushes what is left.
func (a *Archiver) Run(ctx context.Context) {
	for {
		select {
		case snap := <-a.queue:
			a.archive(ctx, snap)
		case <-ctx.Done():
			a.flush(context.WithoutCancel(ctx))
			saved, dropped, failed := a.Stats()
			a.log.Info("archiver stopped",
				"saved", saved,
				"dropped", dropped,
				"failed", failed)
			return
		}
	}
}

func (a *Archiver) flush(ctx context.Context) {
	for {
		select {
		case snap := <-a.queue:
			a.archive(ctx, snap)
		default:
			return
		}
	}
}

func (a *Archiver) archive(parent context.Context, snap room.Snapshot) {
	ctx, cancel := context.WithTimeout(parent, a.timeout)
	defer cancel()

	rec := NewRecord(snap)

	if a.blobs != nil {
		key, err := a.blobs.PutDecision(ctx, rec)
		if err != nil {
			// The row is still worth keeping without its document
			a.log.Error("failed to upload decision document",
				"room_id", rec.RoomID,
				"round", rec.Round,
				"error", err)
		} else {
			rec.ObjectKey = key
		}
	}

	if err := a.store.SaveDecision(ctx, rec); err != nil {
		a.failed.Add(1)
		a.log.Error("failed to archive decision",
			"room_id", rec.RoomID,
			"round", rec.Round,
			"error", err)
		return
	}

	a.saved.Add(1)
	a.log.Info("decision archived",
		"room_id", rec.RoomID,
		"round", rec.Round,
		"winner_scoring", rec.WinnerScoring,
		"winner_topsis", rec.WinnerTOPSIS)
}

// Stats reports saved, dropped and failed decisions.
func (a *Archiver) Stats() (saved, dropped, failed int64) {
	return a.saved.Load(), a.dropped.Load(), a.failed.Load()
}
