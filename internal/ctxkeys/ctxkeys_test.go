package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunID(t *testing.T) {
	_, ok := RunID(context.Background())
	assert.False(t, ok)

	_, ok = RunID(WithRunID(context.Background(), ""))
	assert.False(t, ok, "empty id is treated as missing")

	id, ok := RunID(WithRunID(context.Background(), "run-1"))
	assert.True(t, ok)
	assert.Equal(t, "run-1", id)
}

func TestBatchIndex(t *testing.T) {
	_, ok := BatchIndex(context.Background())
	assert.False(t, ok)

	idx, ok := BatchIndex(WithBatchIndex(context.Background(), 0))
	assert.True(t, ok, "index 0 is valid")
	assert.Zero(t, idx)
}

func TestAttempt(t *testing.T) {
	_, ok := Attempt(context.Background())
	assert.False(t, ok)

	n, ok := Attempt(WithAttempt(context.Background(), 2))
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}
