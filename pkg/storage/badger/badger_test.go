package badger_test

import (
	"context"
	"testing"

	"github.com/absmach/fedkit/pkg/storage/badger"
	"github.com/absmach/fedkit/pkg/storage/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepositories(t *testing.T, path string) (*badger.Database, *badger.Repositories) {
	t.Helper()

	db, err := badger.NewDatabase(path)
	require.NoError(t, err)
	repos, err := badger.NewRepositories(db)
	require.NoError(t, err)

	return db, repos
}

func TestRepositories(t *testing.T) {
	db, repos := newRepositories(t, t.TempDir())
	t.Cleanup(func() { db.Close() })

	t.Run("models", func(t *testing.T) {
		testutil.RunModelRepositoryTests(t, repos.Models)
	})
	t.Run("sessions", func(t *testing.T) {
		testutil.RunSessionRepositoryTests(t, repos.Models, repos.Sessions)
	})
}

func TestIDsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, repos := newRepositories(t, dir)
	first, err := repos.Models.Create(ctx, testutil.TestModel("images"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, repos = newRepositories(t, dir)
	defer db.Close()

	got, err := repos.Models.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Name, got.Name)

	second, err := repos.Models.Create(ctx, testutil.TestModel("images"))
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	_, err = repos.Models.Create(ctx, first)
	assert.Error(t, err)
}
