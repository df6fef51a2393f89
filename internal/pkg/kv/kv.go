// Package kv is a small TTL'd key-value store used for short-lived
// verification tokens (GDPR flows). Values are JSON-encoded structs.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("kv: not found")

// Store puts, reads and consumes JSON values under a TTL.
type Store interface {
	Put(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	// Take reads the value into dest and deletes the key in one step,
	// making the token single-use.
	Take(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
}
