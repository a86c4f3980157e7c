package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudvault/internal/model"
)

func TestUserService(t *testing.T) {
	users := newFakeUserStore(
		model.User{ID: "u1", Name: "Ada", Email: "ada@example.com"},
		model.User{ID: "u2", Name: "Grace", Email: "grace@example.com"},
	)
	svc := NewUserService(users)

	t.Run("list excludes the caller", func(t *testing.T) {
		listed, err := svc.List(context.Background(), "u1")

		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "u2", listed[0].ID)
	})

	t.Run("short query returns empty result", func(t *testing.T) {
		found, err := svc.Search(context.Background(), "u1", " a ")

		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("get returns public view", func(t *testing.T) {
		user, err := svc.Get(context.Background(), "u2")

		require.NoError(t, err)
		assert.Equal(t, "Grace", user.Name)
	})

	t.Run("get unknown user", func(t *testing.T) {
		_, err := svc.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, model.ErrUserNotFound)
	})
}
