package service

import (
	"context"

	"quizbook/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockBookStore ---
type MockBookStore struct {
	mock.Mock
}

func (m *MockBookStore) GetAll(ctx context.Context) ([]*domain.QuizBook, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QuizBook), args.Error(1)
}

func (m *MockBookStore) PutAll(ctx context.Context, books []*domain.QuizBook) error {
	args := m.Called(ctx, books)
	return args.Error(0)
}

func (m *MockBookStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
