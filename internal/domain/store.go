package domain

import (
	"context"
	"time"
)

// BookStore is the persistence gateway. The whole collection is read and
// written at once; PutAll replaces the stored collection atomically.
type BookStore interface {
	// GetAll returns every stored book, or an empty slice when nothing is stored.
	GetAll(ctx context.Context) ([]*QuizBook, error)

	// PutAll replaces the stored collection.
	PutAll(ctx context.Context, books []*QuizBook) error

	// Clear removes the stored collection.
	Clear(ctx context.Context) error
}

// KVError represents an error originating from the key-value store.
type KVError string

func (e KVError) Error() string {
	return string(e)
}

// ErrKeyNotFound is returned when a key is not present in the key-value store.
const ErrKeyNotFound = KVError("kv: key not found")

// KeyValueStore defines the interface (port) for blob key-value storage.
// Implementations of this interface will be the adapters (e.g., RedisKVAdapter).
type KeyValueStore interface {
	// Get retrieves a value.
	// It returns ErrKeyNotFound if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value, overwriting an existing one.
	// If expiration is 0, the value does not expire.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete removes a value.
	// It should not return an error if the key is not found.
	Delete(ctx context.Context, key string) error

	// Ping checks the health of the store.
	Ping(ctx context.Context) error
}

// TransactionManager runs fn inside a storage transaction carried by ctx.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
