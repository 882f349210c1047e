package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/avolkov/proxdeck/internal/models"
)

type SessionRepo struct {
	DB DBTX
}

const createSession = `-- name: CreateSession
INSERT INTO sessions (id, user_id, token, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

func (r *SessionRepo) Create(ctx context.Context, session models.Session) error {
	rows, _ := r.DB.Query(ctx, createSession, session.ID, session.UserID, session.Token, session.CreatedAt, session.ExpiresAt)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const deleteMatchingSessions = `-- name: DeleteMatchingSessions
DELETE FROM sessions
WHERE token = $1 AND user_id = $2
`

// DeleteMatching removes sessions matching the token string and its owner.
// Deleting zero rows is not an error: logout is idempotent
func (r *SessionRepo) DeleteMatching(ctx context.Context, tokenString string, userID uuid.UUID) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteMatchingSessions, tokenString, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

const deleteExpiredSessions = `-- name: DeleteExpiredSessions
DELETE FROM sessions
WHERE expires_at < $1
`

func (r *SessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteExpiredSessions, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}
