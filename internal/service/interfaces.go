package service

import (
	"context"
	"time"

	"cloudvault/internal/model"
)

// Store interfaces are defined on the consumer side; the pgx repositories in
// internal/repository satisfy them.

type UserStore interface {
	Create(ctx context.Context, u model.User) error
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, excludeID string, limit int) ([]model.PublicUser, error)
	Search(ctx context.Context, query string, excludeID string, limit int) ([]model.PublicUser, error)
	FindManyPublic(ctx context.Context, ids []string) (map[string]model.PublicUser, error)
}

type TokenStore interface {
	Store(ctx context.Context, token string, userID string, expiresAt time.Time) error
	Validate(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

type FileStore interface {
	Create(ctx context.Context, f model.File) error
	FindByID(ctx context.Context, id string) (model.File, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.File, error)
	ListSharedWith(ctx context.Context, userID string) ([]model.File, error)
	FindByLinkToken(ctx context.Context, token string) (model.File, error)
	SetSharedWith(ctx context.Context, fileID string, sharedWith []model.SharedUser) error
	SetShareLinks(ctx context.Context, fileID string, links []model.ShareLink) error
	SoftDelete(ctx context.Context, fileID string) error
}

type AuditStore interface {
	Insert(ctx context.Context, entry model.AuditLog) error
	ListByFile(ctx context.Context, fileID string, limit int) ([]model.AuditLog, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]model.AuditLog, error)
}

// AuditRecorder is the fire-and-forget side of the audit service: it never
// reports failure to the caller.
type AuditRecorder interface {
	Record(ctx context.Context, fileID string, userID string, action string, details string, ip string)
}
