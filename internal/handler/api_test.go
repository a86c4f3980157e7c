package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudvault/internal/config"
	"cloudvault/internal/handler"
	"cloudvault/internal/middleware"
	"cloudvault/internal/model"
	"cloudvault/internal/objectstore"
	"cloudvault/internal/router"
	"cloudvault/internal/service"
)

// The fixtures below drive the real router with in-memory stores, so the
// whole HTTP surface is exercised without Postgres or a storage provider.

type memUserStore struct{ users map[string]model.User }

func (s *memUserStore) Create(_ context.Context, u model.User) error {
	s.users[u.ID] = u
	return nil
}

func (s *memUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s *memUserStore) List(_ context.Context, excludeID string, limit int) ([]model.PublicUser, error) {
	out := []model.PublicUser{}
	for _, u := range s.users {
		if u.ID != excludeID {
			out = append(out, u.Public())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memUserStore) Search(_ context.Context, query string, excludeID string, limit int) ([]model.PublicUser, error) {
	out := []model.PublicUser{}
	q := strings.ToLower(query)
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u.Public())
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memUserStore) FindManyPublic(_ context.Context, ids []string) (map[string]model.PublicUser, error) {
	out := map[string]model.PublicUser{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u.Public()
		}
	}
	return out, nil
}

type memTokenStore struct{ tokens map[string]string }

func (s *memTokenStore) Store(_ context.Context, token string, userID string, _ time.Time) error {
	s.tokens[token] = userID
	return nil
}

func (s *memTokenStore) Validate(_ context.Context, token string) (string, error) {
	userID, ok := s.tokens[token]
	if !ok {
		return "", model.ErrTokenNotFound
	}
	return userID, nil
}

func (s *memTokenStore) Revoke(_ context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}

type memFileStore struct{ files map[string]*model.File }

func (s *memFileStore) Create(_ context.Context, f model.File) error {
	s.files[f.ID] = &f
	return nil
}

func (s *memFileStore) FindByID(_ context.Context, id string) (model.File, error) {
	f, ok := s.files[id]
	if !ok {
		return model.File{}, model.ErrFileNotFound
	}
	return *f, nil
}

func (s *memFileStore) ListByOwner(_ context.Context, ownerID string) ([]model.File, error) {
	out := []model.File{}
	for _, f := range s.files {
		if f.OwnerID == ownerID && !f.IsDeleted {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *memFileStore) ListSharedWith(_ context.Context, userID string) ([]model.File, error) {
	out := []model.File{}
	for _, f := range s.files {
		if f.IsDeleted {
			continue
		}
		if _, ok := f.SharedEntry(userID); ok {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *memFileStore) FindByLinkToken(_ context.Context, token string) (model.File, error) {
	for _, f := range s.files {
		if f.IsDeleted {
			continue
		}
		for _, link := range f.ShareLinks {
			if link.Token == token {
				return *f, nil
			}
		}
	}
	return model.File{}, model.ErrFileNotFound
}

func (s *memFileStore) SetSharedWith(_ context.Context, fileID string, sharedWith []model.SharedUser) error {
	f, ok := s.files[fileID]
	if !ok {
		return model.ErrFileNotFound
	}
	f.SharedWith = sharedWith
	return nil
}

func (s *memFileStore) SetShareLinks(_ context.Context, fileID string, links []model.ShareLink) error {
	f, ok := s.files[fileID]
	if !ok {
		return model.ErrFileNotFound
	}
	f.ShareLinks = links
	return nil
}

func (s *memFileStore) SoftDelete(_ context.Context, fileID string) error {
	f, ok := s.files[fileID]
	if !ok {
		return model.ErrFileNotFound
	}
	f.IsDeleted = true
	return nil
}

type memAuditStore struct{ entries []model.AuditLog }

func (s *memAuditStore) Insert(_ context.Context, entry model.AuditLog) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memAuditStore) ListByFile(_ context.Context, fileID string, limit int) ([]model.AuditLog, error) {
	out := []model.AuditLog{}
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].FileID == fileID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *memAuditStore) ListByUser(_ context.Context, userID string, limit int) ([]model.AuditLog, error) {
	out := []model.AuditLog{}
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].UserID == userID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

type stubObjectStore struct {
	objects map[string][]byte
	seq     int
}

func (s *stubObjectStore) Upload(_ context.Context, name string, _ string, content io.Reader) (objectstore.Object, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return objectstore.Object{}, err
	}
	s.seq++
	id := fmt.Sprintf("obj-%d", s.seq)
	s.objects[id] = data
	return objectstore.Object{ID: id, URL: "https://files.test/" + id, Size: int64(len(data))}, nil
}

func (s *stubObjectStore) Delete(_ context.Context, id string) error {
	delete(s.objects, id)
	return nil
}

type apiFixture struct {
	handler http.Handler
	audit   *memAuditStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	cfg := &config.Config{
		RequestTimeout:   5 * time.Second,
		MaxUploadSize:    1 << 20,
		MaxUploadFiles:   3,
		AllowedMIMETypes: []string{"image/png", "application/pdf"},
		FrontendURL:      "https://app.test",
	}

	users := &memUserStore{users: map[string]model.User{}}
	tokens := &memTokenStore{tokens: map[string]string{}}
	files := &memFileStore{files: map[string]*model.File{}}
	audit := &memAuditStore{}
	store := &stubObjectStore{objects: map[string][]byte{}}

	authService, err := service.NewAuthService("test-secret", 15*time.Minute, 24*time.Hour, users, tokens)
	require.NoError(t, err)
	auditService := service.NewAuditService(audit, files)
	fileService := service.NewFileService(files, users, store, auditService, cfg.AllowedMIMETypes, cfg.MaxUploadSize)
	shareService := service.NewShareService(files, users, auditService, cfg.FrontendURL)
	userService := service.NewUserService(users)

	h := router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
		Auth:  handler.NewAuthHandler(authService),
		File:  handler.NewFileHandler(fileService, cfg.MaxUploadSize, cfg.MaxUploadFiles),
		Share: handler.NewShareHandler(shareService),
		Audit: handler.NewAuditHandler(auditService),
		User:  handler.NewUserHandler(userService),
	})

	return &apiFixture{handler: h, audit: audit}
}

func (f *apiFixture) do(t *testing.T, method string, path string, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "expected success envelope, got %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func (f *apiFixture) registerAndLogin(t *testing.T, name string, email string) (string, string) {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/auth/register", "", model.RegisterRequest{
		Name: name, Email: email, Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user model.PublicUser
	decodeData(t, rec, &user)

	rec = f.do(t, http.MethodPost, "/api/auth/login", "", model.LoginRequest{
		Email: email, Password: "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pair model.TokenPair
	decodeData(t, rec, &pair)
	return pair.AccessToken, user.ID
}

func (f *apiFixture) uploadPNG(t *testing.T, token string, filename string) model.File {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, filename))
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result model.UploadResponse
	decodeData(t, rec, &result)
	require.Len(t, result.Uploaded, 1)
	return result.Uploaded[0]
}

func TestAPI_AuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/api/files/my-files", "/api/users/", "/api/audit/my-activity"} {
		rec := f.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAPI_HealthIsPublic(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAPI_UploadAndListing(t *testing.T) {
	f := newAPIFixture(t)
	token, _ := f.registerAndLogin(t, "Owner", "owner@example.com")

	uploaded := f.uploadPNG(t, token, "photo.png")
	assert.Equal(t, "photo.png", uploaded.OriginalName)
	assert.Equal(t, "image/png", uploaded.MimeType)

	var listing model.FileListData
	rec := f.do(t, http.MethodGet, "/api/files/my-files", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &listing)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, uploaded.ID, listing.Files[0].ID)
}

func TestAPI_UploadRejectsDisallowedType(t *testing.T) {
	f := newAPIFixture(t)
	token, _ := f.registerAndLogin(t, "Owner", "owner@example.com")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="files"; filename="evil.exe"`)
	header.Set("Content-Type", "application/x-msdownload")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("MZ"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	// The request carried one file and it failed, so nothing was uploaded.
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var result model.UploadResponse
	decodeData(t, rec, &result)
	assert.Empty(t, result.Uploaded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "evil.exe", result.Failed[0].Name)
}

func TestAPI_ShareFlow(t *testing.T) {
	f := newAPIFixture(t)
	ownerToken, _ := f.registerAndLogin(t, "Owner", "owner@example.com")
	peerToken, peerID := f.registerAndLogin(t, "Peer", "peer@example.com")

	uploaded := f.uploadPNG(t, ownerToken, "shared.png")

	// Owner grants the peer view access.
	rec := f.do(t, http.MethodPost, "/api/files/"+uploaded.ID+"/share", ownerToken, model.ShareRequest{
		Users: []string{peerID}, Permission: model.PermissionView,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The peer sees it under shared-with-me.
	var listing model.FileListData
	rec = f.do(t, http.MethodGet, "/api/files/shared-with-me", peerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &listing)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, uploaded.ID, listing.Files[0].ID)

	// Downloads redirect to the provider URL regardless of permission level.
	rec = f.do(t, http.MethodGet, "/api/files/"+uploaded.ID+"/download", peerToken, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, uploaded.Path, rec.Header().Get("Location"))

	// The peer may not share the file onward.
	rec = f.do(t, http.MethodPost, "/api/files/"+uploaded.ID+"/share", peerToken, model.ShareRequest{
		Users: []string{peerID},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Revoking removes access.
	rec = f.do(t, http.MethodDelete, "/api/files/"+uploaded.ID+"/share/"+peerID, ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/files/"+uploaded.ID, peerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPI_ShareLinkFlow(t *testing.T) {
	f := newAPIFixture(t)
	ownerToken, _ := f.registerAndLogin(t, "Owner", "owner@example.com")
	visitorToken, _ := f.registerAndLogin(t, "Visitor", "visitor@example.com")

	uploaded := f.uploadPNG(t, ownerToken, "linked.png")

	rec := f.do(t, http.MethodPost, "/api/files/"+uploaded.ID+"/share-link", ownerToken, model.ShareLinkRequest{})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var linkData model.ShareLinkData
	decodeData(t, rec, &linkData)
	assert.Equal(t, "https://app.test/share/"+linkData.Token, linkData.Link)
	assert.Nil(t, linkData.ExpiresAt)

	// Any authenticated user can resolve the token.
	var resolved model.File
	rec = f.do(t, http.MethodGet, "/api/files/link/"+linkData.Token, visitorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &resolved)
	assert.Equal(t, uploaded.ID, resolved.ID)

	// Revoke the link via the owner's file view.
	var detail model.File
	rec = f.do(t, http.MethodGet, "/api/files/"+uploaded.ID, ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &detail)
	require.Len(t, detail.ShareLinks, 1)

	rec = f.do(t, http.MethodDelete, "/api/files/"+uploaded.ID+"/share-link/"+detail.ShareLinks[0].ID, ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/files/link/"+linkData.Token, visitorToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPI_DeleteAndAudit(t *testing.T) {
	f := newAPIFixture(t)
	ownerToken, ownerID := f.registerAndLogin(t, "Owner", "owner@example.com")

	uploaded := f.uploadPNG(t, ownerToken, "doomed.png")

	rec := f.do(t, http.MethodDelete, "/api/files/"+uploaded.ID, ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Gone from the listing.
	var listing model.FileListData
	rec = f.do(t, http.MethodGet, "/api/files/my-files", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &listing)
	assert.Empty(t, listing.Files)

	// The audit trail survives the delete and names both actions.
	var trail model.AuditListData
	rec = f.do(t, http.MethodGet, "/api/audit/file/"+uploaded.ID, ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &trail)
	require.Len(t, trail.Logs, 2)
	assert.Equal(t, model.ActionDelete, trail.Logs[0].Action)
	assert.Equal(t, model.ActionUpload, trail.Logs[1].Action)
	assert.Equal(t, ownerID, trail.Logs[0].UserID)
}

func TestAPI_UserDirectory(t *testing.T) {
	f := newAPIFixture(t)
	ownerToken, _ := f.registerAndLogin(t, "Owner", "owner@example.com")
	_, peerID := f.registerAndLogin(t, "Peer", "peer@example.com")

	var listing model.UserListData
	rec := f.do(t, http.MethodGet, "/api/users/", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &listing)
	require.Len(t, listing.Users, 1)
	assert.Equal(t, peerID, listing.Users[0].ID)

	rec = f.do(t, http.MethodGet, "/api/users/search?q=pe", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &listing)
	require.Len(t, listing.Users, 1)
	assert.Equal(t, "Peer", listing.Users[0].Name)
}
