package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cloudvault/internal/model"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, entry model.AuditLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, file_id, user_id, action, details, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)`,
		entry.ID, entry.FileID, entry.UserID, entry.Action,
		entry.Details, entry.IPAddress, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

const auditColumns = `a.id, a.file_id, a.user_id, a.action,
	COALESCE(a.details, ''), COALESCE(a.ip_address, ''), a.created_at,
	u.name, u.email, f.original_name, f.mime_type`

// ListByFile returns a file's trail, most recent first.
func (r *AuditRepository) ListByFile(ctx context.Context, fileID string, limit int) ([]model.AuditLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+`
		 FROM audit_logs a
		 JOIN users u ON u.id = a.user_id
		 JOIN files f ON f.id = a.file_id
		 WHERE a.file_id = $1
		 ORDER BY a.created_at DESC
		 LIMIT $2`, fileID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs by file: %w", err)
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

// ListByUser returns a user's own activity, most recent first.
func (r *AuditRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.AuditLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+`
		 FROM audit_logs a
		 JOIN users u ON u.id = a.user_id
		 JOIN files f ON f.id = a.file_id
		 WHERE a.user_id = $1
		 ORDER BY a.created_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs by user: %w", err)
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func scanAuditLogs(rows pgx.Rows) ([]model.AuditLog, error) {
	logs := make([]model.AuditLog, 0)
	for rows.Next() {
		var e model.AuditLog
		if err := rows.Scan(
			&e.ID, &e.FileID, &e.UserID, &e.Action,
			&e.Details, &e.IPAddress, &e.Timestamp,
			&e.UserName, &e.UserEmail, &e.FileOriginalName, &e.FileMimeType,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}
