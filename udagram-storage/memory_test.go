package udagramstorage

import (
	"context"
	"errors"
	"testing"

	"github.com/tj/assert"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemory("images")

	_, err := store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	body := []byte("original")
	assert.NoError(t, store.Put(ctx, "a.png", body, "image/png"))
	body[0] = 'X'

	data, err := store.Get(ctx, "a.png")
	assert.NoError(t, err)
	assert.Equal(t, []byte("original"), data)
	assert.Equal(t, "image/png", store.ContentType("a.png"))

	// overwrite replaces wholesale
	assert.NoError(t, store.Put(ctx, "a.png", []byte("second"), "image/png"))
	assert.Equal(t, 1, store.Len())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = store.Put(cancelled, "b.png", nil, "")
	var writeErr *WriteError
	assert.True(t, errors.As(err, &writeErr))
	assert.True(t, errors.Is(err, context.Canceled))
}
