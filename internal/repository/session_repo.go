package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/craftbase/site-provisioner/internal/models"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s *models.EditingSession) error {
	query := `
		INSERT INTO provisioner.editing_sessions (
			id, repo_name, session_id, service_name, url, status
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`
	_, err := r.pool.Exec(ctx, query,
		s.ID, s.RepoName, s.SessionID, s.ServiceName, s.URL, s.Status,
	)
	if err != nil {
		return fmt.Errorf("insert editing session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.EditingSession, error) {
	query := `
		SELECT id, repo_name, session_id, service_name, url, status, created_at
		FROM provisioner.editing_sessions
		WHERE session_id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) ListByRepo(ctx context.Context, repoName string) ([]*models.EditingSession, error) {
	query := `
		SELECT id, repo_name, session_id, service_name, url, status, created_at
		FROM provisioner.editing_sessions
		WHERE repo_name = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, repoName)
	if err != nil {
		return nil, fmt.Errorf("query editing sessions: %w", err)
	}
	defer rows.Close()

	var results []*models.EditingSession
	for rows.Next() {
		s := &models.EditingSession{}
		err := rows.Scan(&s.ID, &s.RepoName, &s.SessionID, &s.ServiceName, &s.URL, &s.Status, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan editing session row: %w", err)
		}
		results = append(results, s)
	}
	return results, rows.Err()
}

func (r *SessionRepository) scanOne(row pgx.Row) (*models.EditingSession, error) {
	s := &models.EditingSession{}
	err := row.Scan(&s.ID, &s.RepoName, &s.SessionID, &s.ServiceName, &s.URL, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan editing session: %w", err)
	}
	return s, nil
}
