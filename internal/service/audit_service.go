package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cloudvault/internal/access"
	"cloudvault/internal/model"
)

// trailLimit caps how many entries an audit read returns.
const trailLimit = 100

type AuditService struct {
	auditRepo AuditStore
	fileRepo  FileStore
}

func NewAuditService(auditRepo AuditStore, fileRepo FileStore) *AuditService {
	return &AuditService{auditRepo: auditRepo, fileRepo: fileRepo}
}

// Record appends one audit entry. It deliberately returns nothing: a broken
// audit trail must never fail the action that triggered it, so persistence
// errors are logged and absorbed here.
func (s *AuditService) Record(ctx context.Context, fileID string, userID string, action string, details string, ip string) {
	if s == nil {
		return
	}
	if !model.ValidAction(action) {
		slog.Error("dropping audit entry with unknown action", "action", action, "file_id", fileID)
		return
	}

	entry := model.AuditLog{
		ID:        uuid.NewString(),
		FileID:    fileID,
		UserID:    userID,
		Action:    action,
		Details:   details,
		IPAddress: ip,
		Timestamp: time.Now().UTC(),
	}

	if err := s.auditRepo.Insert(ctx, entry); err != nil {
		slog.Error("failed to record audit entry",
			"action", action, "file_id", fileID, "user_id", userID, "error", err)
	}
}

// FileTrail returns a file's audit trail, most recent first. Only the owner
// may read it; the trail outlives a soft delete.
func (s *AuditService) FileTrail(ctx context.Context, fileID string, requesterID string) ([]model.AuditLog, error) {
	file, err := s.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	decision := access.Evaluate(&file, requesterID)
	if !decision.IsOwner {
		return nil, model.ErrForbidden
	}

	return s.auditRepo.ListByFile(ctx, fileID, trailLimit)
}

// UserActivity returns the caller's own activity, most recent first.
func (s *AuditService) UserActivity(ctx context.Context, userID string) ([]model.AuditLog, error) {
	return s.auditRepo.ListByUser(ctx, userID, trailLimit)
}
