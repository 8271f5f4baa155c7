package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/craftbase/site-provisioner/internal/models"
)

type LogRepository struct {
	pool *pgxpool.Pool
}

func NewLogRepository(pool *pgxpool.Pool) *LogRepository {
	return &LogRepository{pool: pool}
}

// Create creates a new action log entry.
func (r *LogRepository) Create(ctx context.Context, entry *models.ActionLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO provisioner.action_logs (id, record_id, action, status, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.RecordID, entry.Action, entry.Status, entry.Message, entry.Metadata,
	)
	if err != nil {
		return fmt.Errorf("insert action log: %w", err)
	}
	return nil
}

// GetByRecordID retrieves log entries for a website or session record.
func (r *LogRepository) GetByRecordID(ctx context.Context, recordID string, limit int) ([]*models.ActionLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, record_id, action, status, message, metadata, created_at
		FROM provisioner.action_logs
		WHERE record_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, recordID, limit)
	if err != nil {
		return nil, fmt.Errorf("query action logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.ActionLog
	for rows.Next() {
		entry := &models.ActionLog{}
		err := rows.Scan(
			&entry.ID, &entry.RecordID, &entry.Action, &entry.Status,
			&entry.Message, &entry.Metadata, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan action log: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// LogAction is a helper to log an action.
func (r *LogRepository) LogAction(ctx context.Context, recordID, action, status, message string) error {
	return r.Create(ctx, &models.ActionLog{
		RecordID: recordID,
		Action:   action,
		Status:   status,
		Message:  message,
	})
}
