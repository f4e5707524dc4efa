// Package archive keeps a durable record of every computed decision. Rooms
// live only in memory; the archive is what remains after they are gone.
package archive

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rx3lixir/groupdecide/internal/decision"
	"github.com/rx3lixir/groupdecide/internal/room"
)

// Record is one decision round of one room.
type Record struct {
	ID            uuid.UUID       `json:"id"`
	RoomID        string          `json:"room_id"`
	RoomUID       uuid.UUID       `json:"room_uid"`
	RoomName      string          `json:"room_name"`
	Round         int             `json:"round"`
	Version       uint64          `json:"version"`
	MemberCount   int             `json:"member_count"`
	WinnerScoring string          `json:"winner_scoring"`
	WinnerTOPSIS  string          `json:"winner_topsis"`
	Scoring       decision.Result `json:"scoring"`
	TOPSIS        decision.Result `json:"topsis"`
	ObjectKey     string          `json:"object_key,omitempty"`
	DecidedAt     time.Time       `json:"decided_at"`
}

// Store persists decision records. Records are keyed by the room's uid: room
// codes are reused once a room is disposed.
type Store interface {
	SaveDecision(ctx context.Context, rec *Record) error
	ListDecisions(ctx context.Context, roomUID uuid.UUID, limit int) ([]*Record, error)
}

// BlobStore keeps the full decision document.
type BlobStore interface {
	PutDecision(ctx context.Context, rec *Record) (string, error)
}

// NewRecord builds a record from a snapshot that carries a fresh decision.
func NewRecord(snap room.Snapshot) *Record {
	rec := &Record{
		ID:          uuid.New(),
		RoomID:      snap.ID,
		RoomUID:     snap.UID,
		RoomName:    snap.Name,
		Round:       snap.DecisionRound,
		Version:     snap.Version,
		MemberCount: len(snap.Members),
		DecidedAt:   snap.UpdatedAt,
	}
	if snap.FinalDecisionScoring != nil {
		rec.Scoring = *snap.FinalDecisionScoring
		if w, ok := rec.Scoring.Winner(); ok {
			rec.WinnerScoring = w.Name
		}
	}
	if snap.FinalDecisionTOPSIS != nil {
		rec.TOPSIS = *snap.FinalDecisionTOPSIS
		if w, ok := rec.TOPSIS.Winner(); ok {
			rec.WinnerTOPSIS = w.Name
		}
	}
	return rec
}
