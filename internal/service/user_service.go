package service

import (
	"context"
	"strings"

	"cloudvault/internal/model"
)

const (
	directoryLimit = 50
	searchLimit    = 10
)

// UserService serves the user directory used for picking share targets.
type UserService struct {
	userRepo UserStore
}

func NewUserService(userRepo UserStore) *UserService {
	return &UserService{userRepo: userRepo}
}

// List returns everyone except the caller, name-sorted.
func (s *UserService) List(ctx context.Context, requesterID string) ([]model.PublicUser, error) {
	return s.userRepo.List(ctx, requesterID, directoryLimit)
}

// Search matches name or email. Queries shorter than two characters return
// an empty result instead of an error.
func (s *UserService) Search(ctx context.Context, requesterID string, query string) ([]model.PublicUser, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []model.PublicUser{}, nil
	}

	return s.userRepo.Search(ctx, query, requesterID, searchLimit)
}

func (s *UserService) Get(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}
