package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/middleware/db"
	"github.com/crowelm/crowelm/pkg/repo"
	"github.com/crowelm/crowelm/pkg/repo/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) repo.KVStore {
	t.Helper()
	ctx := context.Background()
	ds, err := db.Open(ctx, &db.Config{
		Driver:     db.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "kv.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close(ctx) })
	require.NoError(t, migrate.Table(ctx, ds))
	return NewGorm(ds)
}

func TestKVStores(t *testing.T) {
	stores := map[string]func(t *testing.T) repo.KVStore{
		"memory": func(*testing.T) repo.KVStore { return NewMemory() },
		"sqlite": newSQLiteStore,
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, code.NotFoundErr)

			require.NoError(t, s.Set(ctx, "k", []byte(`{"v":1}`)))
			got, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.JSONEq(t, `{"v":1}`, string(got))

			require.NoError(t, s.Set(ctx, "k", []byte(`{"v":2}`)))
			got, err = s.Get(ctx, "k")
			require.NoError(t, err)
			assert.JSONEq(t, `{"v":2}`, string(got))

			require.NoError(t, s.Delete(ctx, "k"))
			_, err = s.Get(ctx, "k")
			assert.ErrorIs(t, err, code.NotFoundErr)

			// deleting a missing key is not an error
			assert.NoError(t, s.Delete(ctx, "k"))
		})
	}
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	buf := []byte(`"abc"`)
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[1] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, string(got))
}
