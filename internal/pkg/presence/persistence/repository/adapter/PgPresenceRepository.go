package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	presence "vibecheck/internal/pkg/presence/domain"
	repository "vibecheck/internal/pkg/presence/persistence/repository/port"
)

type PgPresenceRepository struct {
	pool *pgxpool.Pool
}

// Ensure interface is satisfied
var _ repository.PresenceRepository = (*PgPresenceRepository)(nil)

func NewPgPresenceRepository(pool *pgxpool.Pool) *PgPresenceRepository {
	return &PgPresenceRepository{pool: pool}
}

// EnsureSchema creates the presence table if it does not exist. Called once
// at startup.
func (r *PgPresenceRepository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return errors.New("PgPresenceRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS presence_user (
			id        TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			vibe      TEXT,
			last_seen BIGINT NOT NULL
		)
	`)
	return err
}

func (r *PgPresenceRepository) ListActive(ctx context.Context, cutoff int64) (map[string]presence.UserPresence, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgPresenceRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, vibe, last_seen
		FROM presence_user
		WHERE last_seen > $1
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make(map[string]presence.UserPresence)
	for rows.Next() {
		var (
			u    presence.UserPresence
			vibe *string
		)
		if err := rows.Scan(&u.ID, &u.Name, &vibe, &u.LastSeen); err != nil {
			return nil, err
		}
		if vibe != nil {
			v := presence.Vibe(*vibe)
			u.Vibe = &v
		}
		users[u.ID] = u
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return users, nil
}

func (r *PgPresenceRepository) Upsert(ctx context.Context, u presence.UserPresence) error {
	if r == nil || r.pool == nil {
		return errors.New("PgPresenceRepository: nil pool")
	}
	var vibe *string
	if u.Vibe != nil {
		s := string(*u.Vibe)
		vibe = &s
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO presence_user (id, name, vibe, last_seen)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name,
		              vibe = EXCLUDED.vibe,
		              last_seen = EXCLUDED.last_seen
	`, u.ID, u.Name, vibe, u.LastSeen)
	return err
}

func (r *PgPresenceRepository) Touch(ctx context.Context, id string, lastSeen int64) error {
	if r == nil || r.pool == nil {
		return errors.New("PgPresenceRepository: nil pool")
	}
	// Zero rows affected means the user never joined or already left;
	// heartbeats for unknown ids are silently dropped.
	_, err := r.pool.Exec(ctx, `
		UPDATE presence_user SET last_seen = $2 WHERE id = $1
	`, id, lastSeen)
	return err
}

func (r *PgPresenceRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgPresenceRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM presence_user WHERE id = $1`, id)
	return err
}

func (r *PgPresenceRepository) DeleteStale(ctx context.Context, cutoff int64) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgPresenceRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM presence_user WHERE last_seen <= $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
