package repository

import (
	"context"
	"sync"

	"quizbook/internal/domain"
)

// MemoryBookStore keeps the encoded collection in process memory. Every
// GetAll decodes a fresh copy, so callers never share book pointers.
type MemoryBookStore struct {
	mu      sync.Mutex
	payload []byte
}

// NewMemoryBookStore creates an empty in-memory BookStore
func NewMemoryBookStore() *MemoryBookStore {
	return &MemoryBookStore{}
}

// GetAll implements domain.BookStore
func (s *MemoryBookStore) GetAll(ctx context.Context) ([]*domain.QuizBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStorageError("get_all", err)
	}
	s.mu.Lock()
	payload := s.payload
	s.mu.Unlock()
	books, err := DecodeBooks(payload)
	if err != nil {
		return nil, domain.NewStorageError("get_all", err)
	}
	return books, nil
}

// PutAll implements domain.BookStore
func (s *MemoryBookStore) PutAll(ctx context.Context, books []*domain.QuizBook) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError("put_all", err)
	}
	payload, err := EncodeBooks(books)
	if err != nil {
		return domain.NewStorageError("put_all", err)
	}
	s.mu.Lock()
	s.payload = payload
	s.mu.Unlock()
	return nil
}

// Clear implements domain.BookStore
func (s *MemoryBookStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError("clear", err)
	}
	s.mu.Lock()
	s.payload = nil
	s.mu.Unlock()
	return nil
}
