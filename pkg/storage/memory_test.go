package storage_test

import (
	"context"
	"testing"

	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	"github.com/absmach/fedkit/pkg/storage"
	"github.com/absmach/fedkit/pkg/storage/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositories(t *testing.T) {
	repos := storage.NewMemoryRepositories()
	assert.Nil(t, repos.Closer)

	t.Run("models", func(t *testing.T) {
		testutil.RunModelRepositoryTests(t, repos.Models)
	})
	t.Run("sessions", func(t *testing.T) {
		testutil.RunSessionRepositoryTests(t, repos.Models, repos.Sessions)
	})
}

func TestInMemoryStorage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc string
		run  func(t *testing.T, s storage.Storage)
	}{
		{
			desc: "empty key",
			run: func(t *testing.T, s storage.Storage) {
				assert.ErrorIs(t, s.Create(context.Background(), "", 1), pkgerrors.ErrEmptyKey)
				_, err := s.Get(context.Background(), "")
				assert.ErrorIs(t, err, pkgerrors.ErrEmptyKey)
			},
		},
		{
			desc: "duplicate key",
			run: func(t *testing.T, s storage.Storage) {
				require.NoError(t, s.Create(context.Background(), "a", 1))
				assert.ErrorIs(t, s.Create(context.Background(), "a", 2), pkgerrors.ErrEntityExists)
			},
		},
		{
			desc: "update missing key",
			run: func(t *testing.T, s storage.Storage) {
				assert.ErrorIs(t, s.Update(context.Background(), "a", 1), pkgerrors.ErrNotFound)
			},
		},
		{
			desc: "list pages newest first",
			run: func(t *testing.T, s storage.Storage) {
				ctx := context.Background()
				for _, k := range []string{"a", "b", "c"} {
					require.NoError(t, s.Create(ctx, k, k))
				}

				page, total, err := s.List(ctx, 1, 5)
				require.NoError(t, err)
				assert.Equal(t, uint64(3), total)
				assert.Equal(t, []any{"b", "a"}, page)

				page, _, err = s.List(ctx, 3, 5)
				require.NoError(t, err)
				assert.Empty(t, page)
			},
		},
		{
			desc: "delete removes from ordering",
			run: func(t *testing.T, s storage.Storage) {
				ctx := context.Background()
				require.NoError(t, s.Create(ctx, "a", "a"))
				require.NoError(t, s.Create(ctx, "b", "b"))
				require.NoError(t, s.Delete(ctx, "b"))
				require.NoError(t, s.Delete(ctx, "missing"))

				all, err := s.All(ctx)
				require.NoError(t, err)
				assert.Equal(t, []any{"a"}, all)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			tc.run(t, storage.NewInMemoryStorage())
		})
	}
}

func TestNewRepositories(t *testing.T) {
	cases := []struct {
		desc string
		cfg  storage.Config
		err  bool
	}{
		{desc: "memory", cfg: storage.Config{Type: "memory"}},
		{desc: "sqlite", cfg: storage.Config{Type: "sqlite", SQLitePath: t.TempDir() + "/fedkit.db"}},
		{desc: "badger", cfg: storage.Config{Type: "badger", BadgerPath: t.TempDir()}},
		{desc: "unknown", cfg: storage.Config{Type: "etcd"}, err: true},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			repos, err := storage.NewRepositories(tc.cfg)
			if tc.err {
				assert.Error(t, err)

				return
			}
			require.NoError(t, err)
			assert.NotNil(t, repos.Models)
			assert.NotNil(t, repos.Sessions)
			if repos.Closer != nil {
				assert.NoError(t, repos.Closer.Close())
			}
		})
	}
}
