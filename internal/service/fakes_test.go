package service

import (
	"context"
	"sort"
	"time"

	"cloudvault/internal/model"
)

// In-memory store fakes backing the service tests. They mirror the behavior
// of the pgx repositories closely enough for the service-level contracts.

type fakeUserStore struct {
	users map[string]model.User
}

func newFakeUserStore(users ...model.User) *fakeUserStore {
	s := &fakeUserStore{users: map[string]model.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, u model.User) error {
	s.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *fakeUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) List(_ context.Context, excludeID string, limit int) ([]model.PublicUser, error) {
	out := []model.PublicUser{}
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		out = append(out, u.Public())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeUserStore) Search(_ context.Context, query string, excludeID string, limit int) ([]model.PublicUser, error) {
	return s.List(context.Background(), excludeID, limit)
}

func (s *fakeUserStore) FindManyPublic(_ context.Context, ids []string) (map[string]model.PublicUser, error) {
	out := map[string]model.PublicUser{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u.Public()
		}
	}
	return out, nil
}

type fakeTokenStore struct {
	tokens map[string]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]string{}}
}

func (s *fakeTokenStore) Store(_ context.Context, token string, userID string, _ time.Time) error {
	s.tokens[token] = userID
	return nil
}

func (s *fakeTokenStore) Validate(_ context.Context, token string) (string, error) {
	userID, ok := s.tokens[token]
	if !ok {
		return "", model.ErrTokenNotFound
	}
	return userID, nil
}

func (s *fakeTokenStore) Revoke(_ context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}

type fakeFileStore struct {
	files     map[string]*model.File
	createErr error
}

func newFakeFileStore(files ...model.File) *fakeFileStore {
	s := &fakeFileStore{files: map[string]*model.File{}}
	for i := range files {
		f := files[i]
		s.files[f.ID] = &f
	}
	return s
}

func (s *fakeFileStore) Create(_ context.Context, f model.File) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.files[f.ID] = &f
	return nil
}

func (s *fakeFileStore) FindByID(_ context.Context, id string) (model.File, error) {
	f, ok := s.files[id]
	if !ok {
		return model.File{}, model.ErrFileNotFound
	}
	return *f, nil
}

func (s *fakeFileStore) ListByOwner(_ context.Context, ownerID string) ([]model.File, error) {
	out := []model.File{}
	for _, f := range s.files {
		if f.OwnerID == ownerID && !f.IsDeleted {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *fakeFileStore) ListSharedWith(_ context.Context, userID string) ([]model.File, error) {
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

func (s *fakeFileStore) FindByLinkToken(_ context.Context, token string) (model.File, error) {
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

func (s *fakeFileStore) SetSharedWith(_ context.Context, fileID string, sharedWith []model.SharedUser) error {
	f, ok := s.files[fileID]
	if !ok {
		return model.ErrFileNotFound
	}
	f.SharedWith = sharedWith
	return nil
}

func (s *fakeFileStore) SetShareLinks(_ context.Context, fileID string, links []model.ShareLink) error {
	f, ok := s.files[fileID]
	if !ok {
		return model.ErrFileNotFound
	}
	f.ShareLinks = links
	return nil
}

func (s *fakeFileStore) SoftDelete(_ context.Context, fileID string) error {
	f, ok := s.files[fileID]
	if !ok {
		return model.ErrFileNotFound
	}
	f.IsDeleted = true
	return nil
}

type fakeAuditStore struct {
	entries   []model.AuditLog
	insertErr error
}

func (s *fakeAuditStore) Insert(_ context.Context, entry model.AuditLog) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeAuditStore) ListByFile(_ context.Context, fileID string, limit int) ([]model.AuditLog, error) {
	out := []model.AuditLog{}
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].FileID == fileID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *fakeAuditStore) ListByUser(_ context.Context, userID string, limit int) ([]model.AuditLog, error) {
	out := []model.AuditLog{}
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].UserID == userID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

// recorderSpy captures audit calls made by the services under test.
type recorderSpy struct {
	calls []recordedEntry
}

type recordedEntry struct {
	FileID  string
	UserID  string
	Action  string
	Details string
	IP      string
}

func (r *recorderSpy) Record(_ context.Context, fileID string, userID string, action string, details string, ip string) {
	r.calls = append(r.calls, recordedEntry{FileID: fileID, UserID: userID, Action: action, Details: details, IP: ip})
}
