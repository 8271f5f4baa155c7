package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/craftbase/site-provisioner/internal/models"
)

var ErrNotFound = errors.New("not found")

type WebsiteRepository struct {
	pool *pgxpool.Pool
}

func NewWebsiteRepository(pool *pgxpool.Pool) *WebsiteRepository {
	return &WebsiteRepository{pool: pool}
}

func (r *WebsiteRepository) Create(ctx context.Context, w *models.Website) error {
	query := `
		INSERT INTO provisioner.websites (
			id, project_id, user_id, name, repo_name, url, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`
	_, err := r.pool.Exec(ctx, query,
		w.ID, w.ProjectID, w.UserID, w.Name, w.RepoName, w.URL, w.Status,
	)
	if err != nil {
		return fmt.Errorf("insert website: %w", err)
	}
	return nil
}

func (r *WebsiteRepository) GetByID(ctx context.Context, id string) (*models.Website, error) {
	query := `
		SELECT id, project_id, user_id, name, repo_name, url, status,
		       created_at, updated_at, deleted_at
		FROM provisioner.websites
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *WebsiteRepository) GetByRepoName(ctx context.Context, repoName string) (*models.Website, error) {
	query := `
		SELECT id, project_id, user_id, name, repo_name, url, status,
		       created_at, updated_at, deleted_at
		FROM provisioner.websites
		WHERE repo_name = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, repoName))
}

func (r *WebsiteRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Website, error) {
	query := `
		SELECT id, project_id, user_id, name, repo_name, url, status,
		       created_at, updated_at, deleted_at
		FROM provisioner.websites
		WHERE project_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("query websites: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *WebsiteRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE provisioner.websites SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update website status: %w", err)
	}
	return nil
}

func (r *WebsiteRepository) scanOne(row pgx.Row) (*models.Website, error) {
	w := &models.Website{}
	err := row.Scan(
		&w.ID, &w.ProjectID, &w.UserID, &w.Name, &w.RepoName, &w.URL, &w.Status,
		&w.CreatedAt, &w.UpdatedAt, &w.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan website: %w", err)
	}
	return w, nil
}

func (r *WebsiteRepository) scanMany(rows pgx.Rows) ([]*models.Website, error) {
	var results []*models.Website
	for rows.Next() {
		w := &models.Website{}
		err := rows.Scan(
			&w.ID, &w.ProjectID, &w.UserID, &w.Name, &w.RepoName, &w.URL, &w.Status,
			&w.CreatedAt, &w.UpdatedAt, &w.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan website row: %w", err)
		}
		results = append(results, w)
	}
	return results, rows.Err()
}
