package objectstore

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, name string, mimeType string, content io.Reader) (Object, error) {
	args := m.Called(ctx, name, mimeType, content)
	return args.Get(0).(Object), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
