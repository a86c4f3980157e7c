package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"cloudvault/internal/access"
	"cloudvault/internal/model"
	"cloudvault/pkg/apierror"
)

type ShareService struct {
	fileRepo    FileStore
	userRepo    UserStore
	audit       AuditRecorder
	frontendURL string
}

func NewShareService(fileRepo FileStore, userRepo UserStore, audit AuditRecorder, frontendURL string) *ShareService {
	return &ShareService{
		fileRepo:    fileRepo,
		userRepo:    userRepo,
		audit:       audit,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// ShareWithUsers grants the given users access to a file. The upsert is
// idempotent per user: an existing entry gets its permission overwritten in
// place, so re-sharing never grows the list.
func (s *ShareService) ShareWithUsers(ctx context.Context, fileID string, ownerID string, targets []string, permission string, ip string) (model.File, error) {
	if len(targets) == 0 {
		return model.File{}, apierror.New("BAD_REQUEST", "please provide users to share with", "", http.StatusBadRequest)
	}

	permission = strings.ToLower(strings.TrimSpace(permission))
	if permission == "" {
		permission = model.PermissionDownload
	}
	if !model.ValidPermission(permission) {
		return model.File{}, apierror.New("BAD_REQUEST", "permission must be view or download", permission, http.StatusBadRequest)
	}

	file, err := s.loadOwned(ctx, fileID, ownerID)
	if err != nil {
		return model.File{}, err
	}

	known, err := s.userRepo.FindManyPublic(ctx, targets)
	if err != nil {
		return model.File{}, err
	}
	for _, target := range targets {
		if _, ok := known[target]; !ok {
			return model.File{}, apierror.New("NOT_FOUND", "user not found", target, http.StatusNotFound)
		}
	}

	now := time.Now().UTC()
	for _, target := range targets {
		if idx := sharedIndex(file.SharedWith, target); idx >= 0 {
			file.SharedWith[idx].Permission = permission
			continue
		}
		file.SharedWith = append(file.SharedWith, model.SharedUser{
			UserID:     target,
			Permission: permission,
			SharedAt:   now,
		})
	}

	if err := s.fileRepo.SetSharedWith(ctx, file.ID, file.SharedWith); err != nil {
		return model.File{}, err
	}

	s.audit.Record(ctx, file.ID, ownerID, model.ActionShare,
		fmt.Sprintf("Shared with %d user(s)", len(targets)), ip)

	for i := range file.SharedWith {
		if u, ok := known[file.SharedWith[i].UserID]; ok {
			user := u
			file.SharedWith[i].User = &user
		}
	}
	return file, nil
}

// CreateLink mints a share link. expiresIn is a relative expiry in seconds;
// zero means the link never expires.
func (s *ShareService) CreateLink(ctx context.Context, fileID string, ownerID string, expiresIn int64, ip string) (model.ShareLinkData, error) {
	if expiresIn < 0 {
		return model.ShareLinkData{}, apierror.New("BAD_REQUEST", "expiresIn must not be negative", "", http.StatusBadRequest)
	}

	file, err := s.loadOwned(ctx, fileID, ownerID)
	if err != nil {
		return model.ShareLinkData{}, err
	}

	now := time.Now().UTC()
	var expiresAt *time.Time
	if expiresIn > 0 {
		t := now.Add(time.Duration(expiresIn) * time.Second)
		expiresAt = &t
	}

	link := model.ShareLink{
		ID:        uuid.NewString(),
		Token:     uuid.NewString(),
		ExpiresAt: expiresAt,
		CreatedAt: now,
		IsActive:  true,
	}
	file.ShareLinks = append(file.ShareLinks, link)

	if err := s.fileRepo.SetShareLinks(ctx, file.ID, file.ShareLinks); err != nil {
		return model.ShareLinkData{}, err
	}

	details := "Generated share link"
	if expiresAt != nil {
		details = fmt.Sprintf("Generated share link (expires: %s)", expiresAt.Format(time.RFC3339))
	}
	s.audit.Record(ctx, file.ID, ownerID, model.ActionShare, details, ip)

	return model.ShareLinkData{
		Link:      s.frontendURL + "/share/" + link.Token,
		Token:     link.Token,
		ExpiresAt: expiresAt,
	}, nil
}

// RevokeLink deactivates a share link. The entry stays on the file so link
// history is never lost.
func (s *ShareService) RevokeLink(ctx context.Context, fileID string, ownerID string, linkID string, ip string) error {
	file, err := s.loadOwned(ctx, fileID, ownerID)
	if err != nil {
		return err
	}

	found := false
	for i := range file.ShareLinks {
		if file.ShareLinks[i].ID == linkID {
			file.ShareLinks[i].IsActive = false
			found = true
			break
		}
	}
	if !found {
		return model.ErrLinkNotFound
	}

	if err := s.fileRepo.SetShareLinks(ctx, file.ID, file.ShareLinks); err != nil {
		return err
	}

	s.audit.Record(ctx, file.ID, ownerID, model.ActionRevoke, "Revoked share link", ip)
	return nil
}

// RevokeUser removes a user's shared_with entry.
func (s *ShareService) RevokeUser(ctx context.Context, fileID string, ownerID string, targetUserID string, ip string) error {
	file, err := s.loadOwned(ctx, fileID, ownerID)
	if err != nil {
		return err
	}

	remaining := make([]model.SharedUser, 0, len(file.SharedWith))
	for _, entry := range file.SharedWith {
		if entry.UserID != targetUserID {
			remaining = append(remaining, entry)
		}
	}

	if err := s.fileRepo.SetSharedWith(ctx, file.ID, remaining); err != nil {
		return err
	}

	s.audit.Record(ctx, file.ID, ownerID, model.ActionRevoke,
		fmt.Sprintf("Revoked access for user %s", targetUserID), ip)
	return nil
}

// ResolveLink validates a share-link token for any authenticated caller and
// returns the file it points at.
func (s *ShareService) ResolveLink(ctx context.Context, token string, requesterID string, ip string) (model.File, error) {
	file, err := s.fileRepo.FindByLinkToken(ctx, token)
	if err != nil {
		return model.File{}, err
	}

	status := access.CheckLink(&file, token, time.Now().UTC())
	if !status.Valid {
		if status.Reason == access.ReasonLinkExpired {
			return model.File{}, model.ErrLinkExpired
		}
		return model.File{}, model.ErrLinkInvalid
	}

	s.audit.Record(ctx, file.ID, requesterID, model.ActionView, "Accessed via share link", ip)
	return file, nil
}

// loadOwned fetches an active file and enforces that requester is the owner.
func (s *ShareService) loadOwned(ctx context.Context, fileID string, ownerID string) (model.File, error) {
	file, err := s.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		return model.File{}, err
	}
	if file.IsDeleted {
		return model.File{}, model.ErrFileNotFound
	}
	if !access.Evaluate(&file, ownerID).IsOwner {
		return model.File{}, model.ErrForbidden
	}
	return file, nil
}

func sharedIndex(entries []model.SharedUser, userID string) int {
	for i, entry := range entries {
		if entry.UserID == userID {
			return i
		}
	}
	return -1
}
