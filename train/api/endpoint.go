package api

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	"github.com/absmach/fedkit/train"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

func listModelsEndpoint(svc train.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listReq)
		if !ok {
			return modelsPageRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return modelsPageRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.ListModels(ctx, req.offset, req.limit)
		if err != nil {
			return modelsPageRes{}, err
		}

		return modelsPageRes{ModelPage: page}, nil
	}
}

func viewModelEndpoint(svc train.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return modelRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return modelRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		m, err := svc.ViewModel(ctx, req.id)
		if err != nil {
			return modelRes{}, err
		}

		return modelRes{TFLiteModel: m}, nil
	}
}

func advertiseDataEndpoint(svc train.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(advertisedReq)
		if !ok {
			return modelRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return modelRes{}, err
		}

		m, err := svc.AdvertiseData(ctx, req.AdvertisedData)
		if err != nil {
			return modelRes{}, err
		}

		return modelRes{TFLiteModel: m}, nil
	}
}

func postServerDataEndpoint(svc train.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(serverDataReq)
		if !ok {
			return serverDataRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return serverDataRes{}, err
		}

		sd, err := svc.PostServerData(ctx, req.PostServerData)
		if err != nil {
			return serverDataRes{}, err
		}

		return serverDataRes{ServerData: sd}, nil
	}
}

func uploadDataEndpoint(svc train.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(uploadReq)
		if !ok {
			return modelRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return modelRes{}, err
		}

		m, err := svc.UploadData(ctx, req.UploadData)
		if err != nil {
			return modelRes{}, err
		}

		return modelRes{TFLiteModel: m, created: true}, nil
	}
}

func uploadModelFileEndpoint(svc train.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(fileReq)
		if !ok {
			return modelRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return modelRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		m, err := svc.UploadModelFile(ctx, req.id, req.kind, req.data)
		if err != nil {
			return modelRes{}, err
		}

		return modelRes{TFLiteModel: m}, nil
	}
}

func downloadModelFileEndpoint(svc train.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(fileReq)
		if !ok {
			return fileRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return fileRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		data, err := svc.DownloadModelFile(ctx, req.id, req.kind)
		if err != nil {
			return fileRes{}, err
		}

		return fileRes{
			name: fmt.Sprintf("model-%d%s", req.id, req.kind.Extension()),
			data: data,
		}, nil
	}
}

func listSessionsEndpoint(svc train.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listReq)
		if !ok {
			return sessionsPageRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return sessionsPageRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.ListSessions(ctx, req.offset, req.limit)
		if err != nil {
			return sessionsPageRes{}, err
		}

		return sessionsPageRes{SessionPage: page}, nil
	}
}

func viewSessionEndpoint(svc train.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return sessionRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return sessionRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		s, err := svc.ViewSession(ctx, req.id)
		if err != nil {
			return sessionRes{}, err
		}

		return sessionRes{Session: s}, nil
	}
}

func endSessionEndpoint(svc train.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return endSessionRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return endSessionRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		if err := svc.EndSession(ctx, req.id); err != nil {
			return endSessionRes{}, err
		}

		return endSessionRes{}, nil
	}
}
