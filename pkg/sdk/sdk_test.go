package sdk_test

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/absmach/fedkit/pkg/artifact"
	"github.com/absmach/fedkit/pkg/mqtt"
	"github.com/absmach/fedkit/pkg/sdk"
	"github.com/absmach/fedkit/pkg/storage"
	"github.com/absmach/fedkit/train"
	"github.com/absmach/fedkit/train/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSDK(t *testing.T) sdk.SDK {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := artifact.NewFSStore(t.TempDir())
	require.NoError(t, err)
	repos := storage.NewMemoryRepositories()
	svc := train.NewService(repos.Models, repos.Sessions, store, mqtt.NewNoopPubSub(logger), train.Config{
		PortMin:     9000,
		PortMax:     9000,
		TopicPrefix: "fedkit",
	})

	ts := httptest.NewServer(api.MakeHandler(svc, logger, "test"))
	t.Cleanup(ts.Close)

	return sdk.NewSDK(sdk.Config{BackendURL: ts.URL + "/"})
}

func TestModels(t *testing.T) {
	s := newSDK(t)

	m, err := s.UploadData(sdk.UploadData{Name: "mnist", LayersSizes: []int64{1000, 10}, DataType: "images"})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d/mnist.tflite", m.ID), m.FilePath)
	assert.Equal(t, []int64{1000, 10}, m.LayersSizes)

	got, err := s.ViewModel(m.ID)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	page, err := s.ListModels(0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)
	require.Len(t, page.Models, 1)

	adv, err := s.AdvertiseData(sdk.AdvertisedData{DataType: "images"})
	require.NoError(t, err)
	assert.Equal(t, m.ID, adv.ID)

	_, err = s.AdvertiseData(sdk.AdvertisedData{DataType: "images", RequireMLModel: true})
	var sdkErr *sdk.Error
	require.ErrorAs(t, err, &sdkErr)
	assert.Equal(t, http.StatusNotFound, sdkErr.Status)
}

func TestModelFiles(t *testing.T) {
	s := newSDK(t)

	m, err := s.UploadData(sdk.UploadData{Name: "cifar", LayersSizes: []int64{4}, DataType: "images"})
	require.NoError(t, err)

	_, err = s.UploadModelFile(m.ID, sdk.TFLite, "cifar.mlmodel", []byte("x"))
	var sdkErr *sdk.Error
	require.ErrorAs(t, err, &sdkErr)
	assert.Equal(t, http.StatusBadRequest, sdkErr.Status)
	require.NotEmpty(t, sdkErr.Fields)
	assert.Equal(t, "file", sdkErr.Fields[0].Field)

	_, err = s.UploadModelFile(m.ID, sdk.TFLite, "cifar.tflite", []byte("tflite-bytes"))
	require.NoError(t, err)
	data, err := s.DownloadModelFile(m.ID, sdk.TFLite)
	require.NoError(t, err)
	assert.Equal(t, []byte("tflite-bytes"), data)

	updated, err := s.UploadModelFile(m.ID, sdk.MLModel, "cifar.mlmodel", []byte("coreml"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d/cifar.mlmodel", m.ID), updated.MLModelPath)
	data, err = s.DownloadModelFile(m.ID, sdk.MLModel)
	require.NoError(t, err)
	assert.Equal(t, []byte("coreml"), data)
}

func TestSessions(t *testing.T) {
	s := newSDK(t)

	m, err := s.UploadData(sdk.UploadData{Name: "speech", LayersSizes: []int64{8}, DataType: "audio"})
	require.NoError(t, err)
	other, err := s.UploadData(sdk.UploadData{Name: "speech-2", LayersSizes: []int64{8}, DataType: "audio"})
	require.NoError(t, err)

	sd, err := s.PostServerData(sdk.PostServerData{ID: m.ID})
	require.NoError(t, err)
	assert.Equal(t, "new", sd.Status)
	require.NotNil(t, sd.SessionID)
	require.NotNil(t, sd.Port)
	assert.Equal(t, int64(9000), *sd.Port)

	again, err := s.PostServerData(sdk.PostServerData{ID: m.ID})
	require.NoError(t, err)
	assert.Equal(t, "started", again.Status)
	assert.Equal(t, *sd.SessionID, *again.SessionID)

	busy, err := s.PostServerData(sdk.PostServerData{ID: other.ID})
	require.NoError(t, err)
	assert.Equal(t, "occupied", busy.Status)
	assert.Nil(t, busy.SessionID)
	assert.Nil(t, busy.Port)

	sess, err := s.ViewSession(*sd.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "active", sess.State)

	page, err := s.ListSessions(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)

	require.NoError(t, s.EndSession(*sd.SessionID))
	sess, err = s.ViewSession(*sd.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "ended", sess.State)
	assert.NotNil(t, sess.EndedAt)

	_, err = s.PostServerData(sdk.PostServerData{ID: 999})
	var sdkErr *sdk.Error
	require.ErrorAs(t, err, &sdkErr)
	assert.Equal(t, http.StatusNotFound, sdkErr.Status)
}
