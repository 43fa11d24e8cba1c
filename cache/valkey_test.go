package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValkeyStore_Integration needs a reachable server in VALKEY_ADDR
func TestValkeyStore_Integration(t *testing.T) {
	addr := os.Getenv("VALKEY_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("VALKEY_ADDR not set")
	}

	client, err := DialValkey(addr)
	require.NoError(t, err)
	store := NewValkeyStore(client, "nlgeval-test:"+uuid.NewString()+":")
	defer store.Close()

	ctx := context.Background()
	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", encode([]float64{1, 2}), time.Minute))
	b, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	v, err := decode(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, v)
}
