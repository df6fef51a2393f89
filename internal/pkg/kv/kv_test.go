package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Action string `json:"action"`
	Email  string `json:"email"`
}

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "tok", payload{Action: "export", Email: "a@b.c"}, time.Minute))

	var got payload
	require.NoError(t, s.Get(ctx, "tok", &got))
	assert.Equal(t, "export", got.Action)
	assert.Equal(t, "a@b.c", got.Email)
}

func TestMemoryStoreTakeIsSingleUse(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "tok", payload{Action: "delete"}, time.Minute))

	var got payload
	require.NoError(t, s.Take(ctx, "tok", &got))
	assert.Equal(t, "delete", got.Action)

	err := s.Take(ctx, "tok", &got)
	assert.ErrorIs(t, err, ErrNotFound, "second take must fail")
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemory()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "tok", payload{}, 15*time.Minute))

	now = now.Add(16 * time.Minute)
	var got payload
	assert.ErrorIs(t, s.Get(ctx, "tok", &got), ErrNotFound)
}
