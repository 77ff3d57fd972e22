package props

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// storeUnderTest lets the same assertions run against both adapters.
func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "props.db"), 3)
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(3),
		"sqlite": sqlite,
	}
}

func TestStoreGetSetDelete(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := s.Get(ctx, "k1")
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, s.Set(ctx, "k1", "v1"))
			v, ok, err := s.Get(ctx, "k1")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "v1", v)

			// Overwrite in place.
			require.NoError(t, s.Set(ctx, "k1", "v2"))
			v, _, err = s.Get(ctx, "k1")
			require.NoError(t, err)
			require.Equal(t, "v2", v)

			require.NoError(t, s.Delete(ctx, "k1"))
			_, ok, err = s.Get(ctx, "k1")
			require.NoError(t, err)
			require.False(t, ok)

			// Deleting a missing key is not an error.
			require.NoError(t, s.Delete(ctx, "k1"))
		})
	}
}

func TestStoreQuota(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Set(ctx, "a", "1"))
			require.NoError(t, s.Set(ctx, "b", "2"))
			require.NoError(t, s.Set(ctx, "c", "3"))

			// Store is full: a new key fails, an overwrite still succeeds.
			err := s.Set(ctx, "d", "4")
			require.ErrorIs(t, err, ErrQuotaExceeded)
			require.NoError(t, s.Set(ctx, "a", "updated"))

			// Freeing a slot makes room again.
			require.NoError(t, s.Delete(ctx, "b"))
			require.NoError(t, s.Set(ctx, "d", "4"))

			n, err := s.Count(ctx)
			require.NoError(t, err)
			require.Equal(t, 3, n)
		})
	}
}

func TestStoreList(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Set(ctx, "x", "1"))
			require.NoError(t, s.Set(ctx, "y", "2"))

			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Equal(t, map[string]string{"x": "1", "y": "2"}, all)
		})
	}
}
