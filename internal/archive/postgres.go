package archive

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS room_decisions (
		id             UUID PRIMARY KEY,
		room_id        TEXT NOT NULL,
		room_uid       UUID NOT NULL,
		room_name      TEXT NOT NULL,
		round          INTEGER NOT NULL,
		version        BIGINT NOT NULL,
		member_count   INTEGER NOT NULL,
		winner_scoring TEXT NOT NULL DEFAULT '',
		winner_topsis  TEXT NOT NULL DEFAULT '',
		scoring        JSONB NOT NULL,
		topsis         JSONB NOT NULL,
		object_key     TEXT NOT NULL DEFAULT '',
		decided_at     TIMESTAMPTZ NOT NULL,
		UNIQUE (room_uid, round)
	);
`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool}
}

// EnsureSchema creates the decisions table if it does not exist yet
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create decisions schema: %w", err)
	}
	return nil
}

// SaveDecision stores a decision record. A round that was already archived
// is left as it is.
func (s *PostgresStore) SaveDecision(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO room_decisions (
			id, room_id, room_uid, room_name, round, version, member_count,
			winner_scoring, winner_topsis, scoring, topsis, object_key, decided_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (room_uid, round) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.RoomID,
		rec.RoomUID,
		rec.RoomName,
		rec.Round,
		int64(rec.Version),
		rec.MemberCount,
		rec.WinnerScoring,
		rec.WinnerTOPSIS,
		rec.Scoring,
		rec.TOPSIS,
		rec.ObjectKey,
		rec.DecidedAt,
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to save decision: %w", err)
	}

	return nil
}

// ListDecisions returns the newest rounds of a room first
func (s *PostgresStore) ListDecisions(ctx context.Context, roomUID uuid.UUID, limit int) ([]*Record, error) {
	query := `
		SELECT id, room_id, room_uid, room_name, round, version, member_count,
		       winner_scoring, winner_topsis, scoring, topsis, object_key, decided_at
		FROM room_decisions
		WHERE room_uid = $1
		ORDER BY round DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, roomUID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Record, error) {
		rec := &Record{}
		var version int64
		err := row.Scan(
			&rec.ID,
			&rec.RoomID,
			&rec.RoomUID,
			&rec.RoomName,
			&rec.Round,
			&version,
			&rec.MemberCount,
			&rec.WinnerScoring,
			&rec.WinnerTOPSIS,
			&rec.Scoring,
			&rec.TOPSIS,
			&rec.ObjectKey,
			&rec.DecidedAt,
		)
		rec.Version = uint64(version)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan decisions: %w", err)
	}

	return records, nil
}
