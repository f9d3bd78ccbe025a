package repository

import (
	"context"
	"errors"

	"quizbook/internal/cache"
	"quizbook/internal/domain"

	"golang.org/x/sync/singleflight"
)

// KVBookStore keeps the collection blob as one value of a key-value store.
// Concurrent GetAll calls share a single fetch of the payload.
type KVBookStore struct {
	kv    domain.KeyValueStore
	key   string
	group singleflight.Group
}

// NewKVBookStore creates a BookStore over kv storing the blob under storeKey.
func NewKVBookStore(kv domain.KeyValueStore, storeKey string) domain.BookStore {
	return &KVBookStore{kv: kv, key: cache.BookCollectionKey(storeKey)}
}

// GetAll implements domain.BookStore
func (s *KVBookStore) GetAll(ctx context.Context) ([]*domain.QuizBook, error) {
	v, err, _ := s.group.Do(s.key, func() (interface{}, error) {
		raw, err := s.kv.Get(ctx, s.key)
		if err != nil {
			if errors.Is(err, domain.ErrKeyNotFound) {
				return "", nil
			}
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return nil, domain.NewStorageError("get_all", err)
	}
	books, err := DecodeBooks([]byte(v.(string)))
	if err != nil {
		return nil, domain.NewStorageError("get_all", err)
	}
	return books, nil
}

// PutAll implements domain.BookStore
func (s *KVBookStore) PutAll(ctx context.Context, books []*domain.QuizBook) error {
	payload, err := EncodeBooks(books)
	if err != nil {
		return domain.NewStorageError("put_all", err)
	}
	s.group.Forget(s.key)
	if err := s.kv.Set(ctx, s.key, string(payload), 0); err != nil {
		return domain.NewStorageError("put_all", err)
	}
	return nil
}

// Clear implements domain.BookStore
func (s *KVBookStore) Clear(ctx context.Context) error {
	s.group.Forget(s.key)
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return domain.NewStorageError("clear", err)
	}
	return nil
}
