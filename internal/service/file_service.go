package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"cloudvault/internal/access"
	"cloudvault/internal/model"
	"cloudvault/internal/objectstore"
	"cloudvault/pkg/apierror"
)

type FileService struct {
	fileRepo      FileStore
	userRepo      UserStore
	store         objectstore.ObjectStore
	audit         AuditRecorder
	allowedMIMEs  map[string]struct{}
	maxUploadSize int64
}

func NewFileService(fileRepo FileStore, userRepo UserStore, store objectstore.ObjectStore, audit AuditRecorder, allowedMIMETypes []string, maxUploadSize int64) *FileService {
	allowed := make(map[string]struct{}, len(allowedMIMETypes))
	for _, mimeType := range allowedMIMETypes {
		trimmed := strings.TrimSpace(strings.ToLower(mimeType))
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	return &FileService{
		fileRepo:      fileRepo,
		userRepo:      userRepo,
		store:         store,
		audit:         audit,
		allowedMIMEs:  allowed,
		maxUploadSize: maxUploadSize,
	}
}

// Upload validates one file and stores it: bytes at the provider first, the
// metadata row only after the provider accepted them, so a failed upload
// leaves no partial state behind.
func (s *FileService) Upload(ctx context.Context, ownerID string, originalName string, mimeType string, content io.Reader, ip string) (model.File, error) {
	mimeType = normalizeMIME(mimeType)
	if !s.isAllowedMIME(mimeType) {
		return model.File{}, apierror.New("UNSUPPORTED_TYPE",
			fmt.Sprintf("file type %s is not allowed", mimeType), originalName, http.StatusUnsupportedMediaType)
	}

	data, err := io.ReadAll(io.LimitReader(content, s.maxUploadSize+1))
	if err != nil {
		return model.File{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxUploadSize {
		return model.File{}, apierror.New("PAYLOAD_TOO_LARGE",
			fmt.Sprintf("file exceeds the %d byte limit", s.maxUploadSize), originalName, http.StatusRequestEntityTooLarge)
	}
	if len(data) == 0 {
		return model.File{}, apierror.New("BAD_REQUEST", "file is empty", originalName, http.StatusBadRequest)
	}

	object, err := s.store.Upload(ctx, originalName, mimeType, bytes.NewReader(data))
	if err != nil {
		return model.File{}, apierror.New("UPSTREAM_ERROR", "storage provider rejected the upload", "", http.StatusInternalServerError)
	}

	file := model.File{
		ID:           uuid.NewString(),
		Filename:     object.ID,
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         int64(len(data)),
		OwnerID:      ownerID,
		Path:         object.URL,
		SharedWith:   []model.SharedUser{},
		ShareLinks:   []model.ShareLink{},
		UploadDate:   time.Now().UTC(),
	}

	if err := s.fileRepo.Create(ctx, file); err != nil {
		// The provider already holds the bytes; drop them again so the
		// failed request leaves nothing behind.
		if delErr := s.store.Delete(ctx, object.ID); delErr != nil {
			slog.Error("failed to clean up provider object after create error",
				"object_id", object.ID, "error", delErr)
		}
		return model.File{}, err
	}

	s.audit.Record(ctx, file.ID, ownerID, model.ActionUpload,
		fmt.Sprintf("Uploaded %s", originalName), ip)

	return file, nil
}

func (s *FileService) ListMine(ctx context.Context, userID string) ([]model.File, error) {
	files, err := s.fileRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.hydrateSharedUsers(ctx, files)
}

func (s *FileService) ListSharedWithMe(ctx context.Context, userID string) ([]model.File, error) {
	files, err := s.fileRepo.ListSharedWith(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.hydrateSharedUsers(ctx, files)
}

// Get returns access-checked file details and records a view.
func (s *FileService) Get(ctx context.Context, fileID string, userID string, ip string) (model.File, error) {
	file, err := s.loadActive(ctx, fileID)
	if err != nil {
		return model.File{}, err
	}

	if !access.Evaluate(&file, userID).Granted {
		return model.File{}, model.ErrForbidden
	}

	s.audit.Record(ctx, file.ID, userID, model.ActionView, "", ip)

	hydrated, err := s.hydrateSharedUsers(ctx, []model.File{file})
	if err != nil {
		return model.File{}, err
	}
	return hydrated[0], nil
}

// DownloadURL returns the provider URL for an access-checked download and
// records it. Any granted entry may download; the stored permission level is
// not consulted here.
func (s *FileService) DownloadURL(ctx context.Context, fileID string, userID string, ip string) (string, error) {
	file, err := s.loadActive(ctx, fileID)
	if err != nil {
		return "", err
	}

	if !access.Evaluate(&file, userID).Granted {
		return "", model.ErrForbidden
	}

	s.audit.Record(ctx, file.ID, userID, model.ActionDownload,
		fmt.Sprintf("Downloaded %s", file.OriginalName), ip)

	return file.Path, nil
}

// Delete soft-deletes a file and purges the provider object best-effort: a
// provider failure is logged but the row is still marked deleted and the
// call succeeds.
func (s *FileService) Delete(ctx context.Context, fileID string, userID string, ip string) error {
	file, err := s.loadActive(ctx, fileID)
	if err != nil {
		return err
	}

	if !access.Evaluate(&file, userID).IsOwner {
		return model.ErrForbidden
	}

	if err := s.fileRepo.SoftDelete(ctx, file.ID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, file.Filename); err != nil {
		slog.Error("failed to delete provider object", "object_id", file.Filename, "error", err)
	}

	s.audit.Record(ctx, file.ID, userID, model.ActionDelete,
		fmt.Sprintf("Deleted %s", file.OriginalName), ip)

	return nil
}

// loadActive fetches a file and treats soft-deleted rows as missing.
func (s *FileService) loadActive(ctx context.Context, fileID string) (model.File, error) {
	file, err := s.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		return model.File{}, err
	}
	if file.IsDeleted {
		return model.File{}, model.ErrFileNotFound
	}
	return file, nil
}

// hydrateSharedUsers attaches public user records to shared_with entries for
// display. Missing users (deleted accounts) keep their bare entry.
func (s *FileService) hydrateSharedUsers(ctx context.Context, files []model.File) ([]model.File, error) {
	idSet := make(map[string]struct{})
	for _, f := range files {
		for _, entry := range f.SharedWith {
			idSet[entry.UserID] = struct{}{}
		}
	}
	if len(idSet) == 0 {
		return files, nil
	}

	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := s.userRepo.FindManyPublic(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range files {
		for j := range files[i].SharedWith {
			if u, ok := users[files[i].SharedWith[j].UserID]; ok {
				user := u
				files[i].SharedWith[j].User = &user
			}
		}
	}
	return files, nil
}

func (s *FileService) isAllowedMIME(mimeType string) bool {
	_, ok := s.allowedMIMEs[mimeType]
	return ok
}

func normalizeMIME(raw string) string {
	parsed, _, err := mime.ParseMediaType(strings.TrimSpace(raw))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return strings.ToLower(parsed)
}
