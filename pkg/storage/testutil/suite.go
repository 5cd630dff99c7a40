package testutil

import (
	"context"
	"testing"
	"time"

	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/session"
	"github.com/absmach/fedkit/pkg/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const missingID int64 = 1 << 40

// RunModelRepositoryTests exercises behaviour every model backend shares.
// The repository may already hold rows from other tests.
func RunModelRepositoryTests(t *testing.T, repo storage.ModelRepository) {
	t.Helper()

	t.Run("create assigns increasing ids", func(t *testing.T) {
		ctx := context.Background()
		first, err := repo.Create(ctx, TestModel("images"))
		require.NoError(t, err)
		second, err := repo.Create(ctx, TestModel("images"))
		require.NoError(t, err)

		assert.Positive(t, first.ID)
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("create rejects duplicate names", func(t *testing.T) {
		ctx := context.Background()
		m := TestModel("images")
		_, err := repo.Create(ctx, m)
		require.NoError(t, err)

		_, err = repo.Create(ctx, m)
		assert.ErrorIs(t, err, pkgerrors.ErrEntityExists)
	})

	t.Run("get round trips every field", func(t *testing.T) {
		ctx := context.Background()
		created, err := repo.Create(ctx, TestModel("audio"))
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, created.Name, got.Name)
		assert.Equal(t, created.FilePath, got.FilePath)
		assert.Empty(t, got.MLModelPath)
		assert.Equal(t, created.LayersSizes, got.LayersSizes)
		assert.Equal(t, created.DataType, got.DataType)
		assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Second)
	})

	t.Run("empty layers stay empty", func(t *testing.T) {
		ctx := context.Background()
		m := TestModel("audio")
		m.LayersSizes = []int64{}
		created, err := repo.Create(ctx, m)
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Empty(t, got.LayersSizes)
	})

	t.Run("get missing model", func(t *testing.T) {
		_, err := repo.Get(context.Background(), missingID)
		assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	})

	t.Run("update records companion path", func(t *testing.T) {
		ctx := context.Background()
		created, err := repo.Create(ctx, TestModel("text"))
		require.NoError(t, err)

		created.MLModelPath = created.Path(model.MLModel)
		require.NoError(t, repo.Update(ctx, created))

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.MLModelPath, got.MLModelPath)
		assert.True(t, got.HasMLModel())
	})

	t.Run("update missing model", func(t *testing.T) {
		m := TestModel("text")
		m.ID = missingID
		assert.ErrorIs(t, repo.Update(context.Background(), m), pkgerrors.ErrNotFound)
	})

	t.Run("list is newest first", func(t *testing.T) {
		ctx := context.Background()
		var ids []int64
		for range 3 {
			m, err := repo.Create(ctx, TestModel("tabular"))
			require.NoError(t, err)
			ids = append(ids, m.ID)
		}

		models, total, err := repo.List(ctx, 0, 2)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, total, uint64(3))
		require.Len(t, models, 2)
		assert.Equal(t, ids[2], models[0].ID)
		assert.Equal(t, ids[1], models[1].ID)

		models, _, err = repo.List(ctx, 2, 1)
		require.NoError(t, err)
		require.Len(t, models, 1)
		assert.Equal(t, ids[0], models[0].ID)
	})

	t.Run("latest by data type", func(t *testing.T) {
		ctx := context.Background()
		dataType := "sensor-" + uuid.NewString()

		_, err := repo.LatestByDataType(ctx, dataType, false)
		assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

		withCompanion := TestModel(dataType)
		withCompanion.MLModelPath = withCompanion.Path(model.MLModel)
		withCompanion, err = repo.Create(ctx, withCompanion)
		require.NoError(t, err)
		newest, err := repo.Create(ctx, TestModel(dataType))
		require.NoError(t, err)

		got, err := repo.LatestByDataType(ctx, dataType, false)
		require.NoError(t, err)
		assert.Equal(t, newest.ID, got.ID)

		got, err = repo.LatestByDataType(ctx, dataType, true)
		require.NoError(t, err)
		assert.Equal(t, withCompanion.ID, got.ID)
	})
}

// RunSessionRepositoryTests exercises behaviour every session backend shares.
// Sessions reference models, so models must be creatable through models.
func RunSessionRepositoryTests(t *testing.T, models storage.ModelRepository, sessions storage.SessionRepository) {
	t.Helper()

	newModel := func(t *testing.T) model.TFLiteModel {
		t.Helper()
		m, err := models.Create(context.Background(), TestModel("images"))
		require.NoError(t, err)

		return m
	}

	t.Run("create and get", func(t *testing.T) {
		ctx := context.Background()
		m := newModel(t)
		created, err := sessions.Create(ctx, TestSession(m.ID, 8080))
		require.NoError(t, err)
		assert.Positive(t, created.ID)

		got, err := sessions.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Name, got.Name)
		assert.Equal(t, m.ID, got.ModelID)
		assert.Equal(t, int64(8080), got.Port)
		assert.True(t, got.IsActive())
		assert.Nil(t, got.EndedAt)
	})

	t.Run("get missing session", func(t *testing.T) {
		_, err := sessions.Get(context.Background(), missingID)
		assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	})

	t.Run("end session", func(t *testing.T) {
		ctx := context.Background()
		m := newModel(t)
		created, err := sessions.Create(ctx, TestSession(m.ID, 8081))
		require.NoError(t, err)

		active, err := sessions.ActiveByModel(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, active.ID)

		ended := time.Now().UTC()
		created.State = session.Ended
		created.EndedAt = &ended
		require.NoError(t, sessions.Update(ctx, created))

		got, err := sessions.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive())
		require.NotNil(t, got.EndedAt)
		assert.WithinDuration(t, ended, *got.EndedAt, time.Second)

		_, err = sessions.ActiveByModel(ctx, m.ID)
		assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	})

	t.Run("update missing session", func(t *testing.T) {
		s := TestSession(1, 8080)
		s.ID = missingID
		assert.ErrorIs(t, sessions.Update(context.Background(), s), pkgerrors.ErrNotFound)
	})

	t.Run("list active skips ended sessions", func(t *testing.T) {
		ctx := context.Background()
		m := newModel(t)
		live, err := sessions.Create(ctx, TestSession(m.ID, 8082))
		require.NoError(t, err)
		done := TestSession(m.ID, 8083)
		done.State = session.Ended
		done, err = sessions.Create(ctx, done)
		require.NoError(t, err)

		active, err := sessions.ListActive(ctx)
		require.NoError(t, err)
		ids := make(map[int64]bool, len(active))
		for _, s := range active {
			assert.True(t, s.IsActive())
			ids[s.ID] = true
		}
		assert.True(t, ids[live.ID])
		assert.False(t, ids[done.ID])
	})

	t.Run("list is newest first", func(t *testing.T) {
		ctx := context.Background()
		m := newModel(t)
		first, err := sessions.Create(ctx, TestSession(m.ID, 8084))
		require.NoError(t, err)
		second, err := sessions.Create(ctx, TestSession(m.ID, 8085))
		require.NoError(t, err)

		page, total, err := sessions.List(ctx, 0, 2)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, total, uint64(2))
		require.Len(t, page, 2)
		assert.Equal(t, second.ID, page[0].ID)
		assert.Equal(t, first.ID, page[1].ID)
	})
}
