package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStore(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()

	_, ok, err := s.Get(ctx, "usage:u1")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`{"teamsCreated":1}`)
	require.NoError(t, s.Set(ctx, "usage:u1", value))
	value[0] = 'x'

	got, ok, err := s.Get(ctx, "usage:u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"teamsCreated":1}`, string(got))

	require.NoError(t, s.Delete(ctx, "usage:u1"))
	require.NoError(t, s.Delete(ctx, "usage:u1"))
	assert.Equal(t, 0, s.Len())
}

func TestKVStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewKVStore()
	assert.ErrorIs(t, s.Set(ctx, "k", []byte("v")), context.Canceled)
	_, _, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
