package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/fedkit/pkg/session"
)

const sessionColumns = `id, name, model_id, port, start_fresh, state, started_at, ended_at`

type sessionRepo struct {
	db *Database
}

func NewSessionRepository(db *Database) SessionRepository {
	return &sessionRepo{db: db}
}

type dbSession struct {
	ID         int64        `db:"id"`
	Name       string       `db:"name"`
	ModelID    int64        `db:"model_id"`
	Port       int64        `db:"port"`
	StartFresh bool         `db:"start_fresh"`
	State      string       `db:"state"`
	StartedAt  time.Time    `db:"started_at"`
	EndedAt    sql.NullTime `db:"ended_at"`
}

func (r *sessionRepo) Create(ctx context.Context, s session.Session) (session.Session, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO training_sessions (name, model_id, port, start_fresh, state, started_at, ended_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.ModelID, s.Port, s.StartFresh, string(s.State), s.StartedAt, nullTime(s.EndedAt),
	)
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	s.ID = id

	return s, nil
}

func (r *sessionRepo) Get(ctx context.Context, id int64) (session.Session, error) {
	var dbs dbSession
	if err := r.db.GetContext(ctx, &dbs, `SELECT `+sessionColumns+` FROM training_sessions WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, ErrNotFound
		}

		return session.Session{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toSession(dbs), nil
}

func (r *sessionRepo) Update(ctx context.Context, s session.Session) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE training_sessions SET port = ?, state = ?, ended_at = ? WHERE id = ?`,
		s.Port, string(s.State), nullTime(s.EndedAt), s.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return checkAffected(res)
}

func (r *sessionRepo) List(ctx context.Context, offset, limit uint64) ([]session.Session, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM training_sessions`); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	var rows []dbSession
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT `+sessionColumns+` FROM training_sessions ORDER BY id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toSessions(rows), total, nil
}

func (r *sessionRepo) ActiveByModel(ctx context.Context, modelID int64) (session.Session, error) {
	var dbs dbSession
	if err := r.db.GetContext(ctx, &dbs,
		`SELECT `+sessionColumns+` FROM training_sessions WHERE model_id = ? AND state = ? ORDER BY id DESC LIMIT 1`,
		modelID, string(session.Active),
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, ErrNotFound
		}

		return session.Session{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toSession(dbs), nil
}

func (r *sessionRepo) ListActive(ctx context.Context) ([]session.Session, error) {
	var rows []dbSession
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT `+sessionColumns+` FROM training_sessions WHERE state = ? ORDER BY id DESC`,
		string(session.Active),
	); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toSessions(rows), nil
}

func toSession(dbs dbSession) session.Session {
	s := session.Session{
		ID:         dbs.ID,
		Name:       dbs.Name,
		ModelID:    dbs.ModelID,
		Port:       dbs.Port,
		StartFresh: dbs.StartFresh,
		State:      session.State(dbs.State),
		StartedAt:  dbs.StartedAt,
	}
	if dbs.EndedAt.Valid {
		t := dbs.EndedAt.Time
		s.EndedAt = &t
	}

	return s
}

func toSessions(rows []dbSession) []session.Session {
	sessions := make([]session.Session, len(rows))
	for i := range rows {
		sessions[i] = toSession(rows[i])
	}

	return sessions
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: *t, Valid: true}
}
