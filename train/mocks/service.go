package mocks

import (
	"context"

	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/session"
	"github.com/absmach/fedkit/train"
	"github.com/stretchr/testify/mock"
)

var _ train.Service = (*MockService)(nil)

// MockService is a mock implementation of the train.Service interface.
type MockService struct {
	mock.Mock
}

func (m *MockService) ListModels(ctx context.Context, offset, limit uint64) (model.ModelPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(model.ModelPage), args.Error(1)
}

func (m *MockService) ViewModel(ctx context.Context, id int64) (model.TFLiteModel, error) {
	args := m.Called(ctx, id)

	return args.Get(0).(model.TFLiteModel), args.Error(1)
}

func (m *MockService) AdvertiseData(ctx context.Context, req train.AdvertisedData) (model.TFLiteModel, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(model.TFLiteModel), args.Error(1)
}

func (m *MockService) UploadData(ctx context.Context, req train.UploadData) (model.TFLiteModel, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(model.TFLiteModel), args.Error(1)
}

func (m *MockService) UploadModelFile(ctx context.Context, id int64, kind model.FileKind, data []byte) (model.TFLiteModel, error) {
	args := m.Called(ctx, id, kind, data)

	return args.Get(0).(model.TFLiteModel), args.Error(1)
}

func (m *MockService) DownloadModelFile(ctx context.Context, id int64, kind model.FileKind) ([]byte, error) {
	args := m.Called(ctx, id, kind)
	data, _ := args.Get(0).([]byte)

	return data, args.Error(1)
}

func (m *MockService) PostServerData(ctx context.Context, req train.PostServerData) (session.ServerData, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(session.ServerData), args.Error(1)
}

func (m *MockService) ListSessions(ctx context.Context, offset, limit uint64) (session.SessionPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(session.SessionPage), args.Error(1)
}

func (m *MockService) ViewSession(ctx context.Context, id int64) (session.Session, error) {
	args := m.Called(ctx, id)

	return args.Get(0).(session.Session), args.Error(1)
}

func (m *MockService) EndSession(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockService) ReapSessions(ctx context.Context) (int, error) {
	args := m.Called(ctx)

	return args.Int(0), args.Error(1)
}
